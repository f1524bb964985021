package models

import "strings"

// Scope identifies one congregation inside a district.
type Scope struct {
	District     string `json:"district"`
	Congregation string `json:"congregation"`
}

// Normalize trims both codes and upper-cases the district, the form officers are stored under.
func (s Scope) Normalize() Scope {
	return Scope{
		District:     strings.ToUpper(strings.TrimSpace(s.District)),
		Congregation: strings.TrimSpace(s.Congregation),
	}
}

// AccessLevel distinguishes read from write authorization checks.
type AccessLevel string

const (
	AccessRead  AccessLevel = "read"
	AccessWrite AccessLevel = "write"
)
