// Package service contains the business logic for the smart-agen API.
// Services validate inputs, enforce business rules and area scope, and
// orchestrate repo calls. No SQL lives here; services depend on repo
// interfaces, not implementations.
package service

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/adityardiansyah/smart-agen/internal/domain"
)

// Clock returns the current time. Services take one so tests can pin "now".
type Clock func() time.Time

func systemClock() time.Time { return time.Now().UTC() }

// startOfDay truncates t to midnight UTC, the form DATE columns round-trip as.
func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// checkScope returns domain.ErrForbidden when areaID is outside scope.
func checkScope(scope domain.AreaScope, areaID uuid.UUID) error {
	if !scope.Allows(areaID) {
		return fmt.Errorf("%w: area is outside your access scope", domain.ErrForbidden)
	}
	return nil
}

// validator collects the first validation failure of a chain of checks.
type validator struct {
	err error
}

func (v *validator) fail(format string, args ...any) {
	if v.err == nil {
		v.err = fmt.Errorf("%w: "+format, append([]any{domain.ErrValidation}, args...)...)
	}
}

func (v *validator) required(field, value string) {
	if strings.TrimSpace(value) == "" {
		v.fail("%s is required", field)
	}
}

func (v *validator) maxLen(field, value string, n int) {
	if utf8.RuneCountInString(value) > n {
		v.fail("%s must be at most %d characters", field, n)
	}
}

func (v *validator) nonNegative(field string, n int) {
	if n < 0 {
		v.fail("%s must not be negative", field)
	}
}

func (v *validator) id(field string, id uuid.UUID) {
	if id == uuid.Nil {
		v.fail("%s is required", field)
	}
}

// notBefore checks that a required date is present and not earlier than today.
func (v *validator) notBefore(field string, d *time.Time, today time.Time) {
	if d == nil {
		v.fail("%s is required", field)
		return
	}
	if startOfDay(*d).Before(today) {
		v.fail("%s must be today or later", field)
	}
}
