// Package expiry classifies document and vehicle-age expiry into status
// buckets. Every function is pure: the caller supplies "now", nothing here
// reads the system clock or touches storage, and all functions are safe for
// concurrent use.
//
// KEUR and STNK have no EXPIRED bucket. A certificate that lapsed yesterday
// reports NEAR_EXPIRY, exactly like one that lapses next week. This mirrors the
// rules the back office has always shipped with and is kept as is; SIM is the
// only date rule with a real three-way split.
package expiry

import (
	"fmt"
	"time"
)

// Status is a derived expiry bucket. It is never stored.
type Status string

const (
	StatusNotExpired Status = "not_expired"
	StatusNearExpiry Status = "near_expiry"
	StatusExpired    Status = "expired"
)

// Label returns the upper-case display form used in exports and dashboards.
func (s Status) Label() string {
	switch s {
	case StatusNotExpired:
		return "NOT EXPIRED"
	case StatusNearExpiry:
		return "NEAR EXPIRY"
	case StatusExpired:
		return "EXPIRED"
	default:
		return string(s)
	}
}

// ParseStatus converts a query-string value into a Status.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusNotExpired, StatusNearExpiry, StatusExpired:
		return Status(s), nil
	}
	return "", fmt.Errorf("unknown expiry status %q", s)
}

// Rule identifies one of the date-based classification rules.
type Rule string

const (
	RuleKeur Rule = "keur"
	RuleStnk Rule = "stnk"
	RuleSim  Rule = "sim"
)

const (
	// KeurNearExpiryDays is the KEUR warning window.
	KeurNearExpiryDays = 60
	// StnkNearExpiryDays is the STNK warning window.
	StnkNearExpiryDays = 30
	// SimNearExpiryDays is the SIM warning window; the boundary day itself is still NEAR_EXPIRY.
	SimNearExpiryDays = 30

	// VehicleMaxFreshAge is the oldest age (in years) still reported as NOT_EXPIRED.
	VehicleMaxFreshAge = 8
	// VehicleMaxNearAge is the oldest age still reported as NEAR_EXPIRY.
	VehicleMaxNearAge = 10
)

const day = 24 * time.Hour

// DaysUntil returns the whole number of days from now until expiry,
// truncated toward zero. Negative values mean the date has passed.
func DaysUntil(expiry, now time.Time) int {
	return int(expiry.Sub(now) / day)
}

// ClassifyKeur applies the KEUR rule: at least 60 days left is NOT_EXPIRED,
// anything less (already lapsed included) is NEAR_EXPIRY.
func ClassifyKeur(expiry *time.Time, now time.Time) Status {
	return classifyTwoWay(expiry, now, KeurNearExpiryDays)
}

// ClassifyStnk applies the STNK rule: at least 30 days left is NOT_EXPIRED,
// anything less (already lapsed included) is NEAR_EXPIRY.
func ClassifyStnk(expiry *time.Time, now time.Time) Status {
	return classifyTwoWay(expiry, now, StnkNearExpiryDays)
}

func classifyTwoWay(expiry *time.Time, now time.Time, threshold int) Status {
	if expiry == nil {
		return StatusNotExpired
	}
	if DaysUntil(*expiry, now) >= threshold {
		return StatusNotExpired
	}
	return StatusNearExpiry
}

// ClassifySim applies the SIM rule: a licence is EXPIRED as soon as its expiry
// instant is before now, NEAR_EXPIRY with 0 to 30 whole days left and
// NOT_EXPIRED beyond that. A licence dated today (midnight) is EXPIRED for
// the rest of that day.
func ClassifySim(expiry *time.Time, now time.Time) Status {
	if expiry == nil {
		return StatusNotExpired
	}
	if expiry.Before(now) {
		return StatusExpired
	}
	switch days := DaysUntil(*expiry, now); {
	case days <= SimNearExpiryDays:
		return StatusNearExpiry
	default:
		return StatusNotExpired
	}
}

// VehicleAge returns the vehicle's age in calendar years, or 0 when the
// manufacture year is unknown.
func VehicleAge(manufactureYear int, now time.Time) int {
	if manufactureYear <= 0 {
		return 0
	}
	return now.Year() - manufactureYear
}

// ClassifyVehicleAge buckets a vehicle by age: up to 8 years NOT_EXPIRED,
// 9 and 10 years NEAR_EXPIRY, older EXPIRED. An unknown year is NOT_EXPIRED.
func ClassifyVehicleAge(manufactureYear int, now time.Time) Status {
	if manufactureYear <= 0 {
		return StatusNotExpired
	}
	age := VehicleAge(manufactureYear, now)
	switch {
	case age <= VehicleMaxFreshAge:
		return StatusNotExpired
	case age <= VehicleMaxNearAge:
		return StatusNearExpiry
	default:
		return StatusExpired
	}
}

// Classify dispatches to the date rule named by rule.
func Classify(rule Rule, expiry *time.Time, now time.Time) Status {
	switch rule {
	case RuleKeur:
		return ClassifyKeur(expiry, now)
	case RuleStnk:
		return ClassifyStnk(expiry, now)
	default:
		return ClassifySim(expiry, now)
	}
}

// Bound is one end of a Range.
type Bound struct {
	At        time.Time
	Inclusive bool
}

// Range is the set of expiry instants that a date rule maps to one status.
// A nil Lower or Upper leaves that side open.
type Range struct {
	Lower *Bound
	Upper *Bound
}

// Contains reports whether t falls inside r.
func (r Range) Contains(t time.Time) bool {
	if r.Lower != nil {
		if t.Before(r.Lower.At) || (!r.Lower.Inclusive && t.Equal(r.Lower.At)) {
			return false
		}
	}
	if r.Upper != nil {
		if t.After(r.Upper.At) || (!r.Upper.Inclusive && t.Equal(r.Upper.At)) {
			return false
		}
	}
	return true
}

// Window returns the range of expiry dates that rule classifies as status at
// now. It lets list queries filter with the same boundaries as the classifier.
// The second result is false when no date can produce status, which is the
// case for EXPIRED under KEUR and STNK. Rows with no date at all classify as
// NOT_EXPIRED and are not described by the range.
func Window(rule Rule, status Status, now time.Time) (Range, bool) {
	switch rule {
	case RuleKeur, RuleStnk:
		threshold := KeurNearExpiryDays
		if rule == RuleStnk {
			threshold = StnkNearExpiryDays
		}
		edge := now.Add(time.Duration(threshold) * day)
		switch status {
		case StatusNotExpired:
			return Range{Lower: &Bound{At: edge, Inclusive: true}}, true
		case StatusNearExpiry:
			return Range{Upper: &Bound{At: edge}}, true
		}
		return Range{}, false
	case RuleSim:
		fresh := now.Add(time.Duration(SimNearExpiryDays+1) * day)
		switch status {
		case StatusNotExpired:
			return Range{Lower: &Bound{At: fresh, Inclusive: true}}, true
		case StatusNearExpiry:
			return Range{Lower: &Bound{At: now, Inclusive: true}, Upper: &Bound{At: fresh}}, true
		case StatusExpired:
			return Range{Upper: &Bound{At: now}}, true
		}
	}
	return Range{}, false
}

// YearWindow returns the manufacture years the vehicle-age rule maps to
// status at now. Zero on either side means unbounded.
func YearWindow(status Status, now time.Time) (minYear, maxYear int, ok bool) {
	y := now.Year()
	switch status {
	case StatusNotExpired:
		return y - VehicleMaxFreshAge, 0, true
	case StatusNearExpiry:
		return y - VehicleMaxNearAge, y - VehicleMaxFreshAge - 1, true
	case StatusExpired:
		return 0, y - VehicleMaxNearAge - 1, true
	}
	return 0, 0, false
}
