package domain

// DocumentKind names an uploadable document. KEUR and STNK attach to a
// fleet, SIM to a driver.
type DocumentKind string

const (
	DocumentKeur DocumentKind = "keur"
	DocumentStnk DocumentKind = "stnk"
	DocumentSim  DocumentKind = "sim"
)

// Valid reports whether k is a known document kind.
func (k DocumentKind) Valid() bool {
	return k == DocumentKeur || k == DocumentStnk || k == DocumentSim
}
