// Package identity defines the key that joins records across sheets: a
// student's email address. The sheets are hand-edited and the forms accept
// any casing, so the address is folded to one canonical form at the boundary
// and every join compares canonical values.
package identity

import "strings"

// Email is a canonicalized address. Construct via Normalize.
type Email string

// Normalize trims and lowercases a raw address once, where it enters the
// system.
func Normalize(raw string) Email {
	return Email(strings.ToLower(strings.TrimSpace(raw)))
}

// Matches reports whether a raw sheet cell refers to this identity.
func (e Email) Matches(raw string) bool {
	return Normalize(raw) == e
}

// Capability gates what a caller may do.
type Capability string

const (
	// CapUser reads the caller's own rental status.
	CapUser Capability = "user"
	// CapEditor runs the admin reconciliation reports.
	CapEditor Capability = "editor"
)

// Principal is an authenticated caller.
type Principal struct {
	Email        Email
	capabilities map[Capability]bool
}

func NewPrincipal(email Email, caps ...Capability) Principal {
	m := make(map[Capability]bool, len(caps))
	for _, c := range caps {
		m[c] = true
	}
	return Principal{Email: email, capabilities: m}
}

// Can reports whether the principal holds a capability.
func (p Principal) Can(c Capability) bool {
	return p.capabilities[c]
}
