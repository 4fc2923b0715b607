package model

import (
	"errors"
	"regexp"
	"strings"

	"golang.org/x/net/idna"
)

// Domain errors.
var (
	// ErrInvalidDomain is returned when the domain format is invalid.
	ErrInvalidDomain = errors.New("invalid instance domain format")
	// ErrEmptyDomain is returned when the domain is empty.
	ErrEmptyDomain = errors.New("instance domain cannot be empty")
)

// domainPattern matches the shape of a DNS hostname: one or more label
// groups of lowercase alphanumerics and hyphens separated by dots, ending
// in a top-level label of at least two letters.
//
// Peer lists are adversarial-quality data, so the pattern is strict on
// purpose: anything that does not look like a resolvable public hostname
// is dropped before it can waste a worker slot.
var domainPattern = regexp.MustCompile(
	`^([a-z0-9]([a-z0-9-]*[a-z0-9])?\.)+[a-z]{2,}$`)

// IsValidDomain reports whether s has the shape of a DNS hostname.
// It is a pure function: no allocation beyond the regexp engine, no I/O,
// and the same input always yields the same answer.
func IsValidDomain(s string) bool {
	return domainPattern.MatchString(s)
}

// Domain is an immutable value object representing one federated instance.
// It normalizes the raw address (case, surrounding whitespace, trailing dot,
// internationalized labels) and validates the hostname shape.
type Domain struct {
	host string
}

// NewDomain creates a Domain from a raw address string.
// Internationalized names are converted to their punycode form before
// validation, so "bücher.example" and "xn--bcher-kva.example" are the
// same instance. Returns an error if the address is empty or malformed.
func NewDomain(raw string) (Domain, error) {
	if raw == "" {
		return Domain{}, ErrEmptyDomain
	}

	normalized := strings.ToLower(strings.TrimSpace(raw))
	normalized = strings.TrimSuffix(normalized, ".")

	// Convert internationalized labels to punycode. A name that the IDNA
	// rules reject cannot be a reachable public hostname either.
	if ascii, err := idna.Lookup.ToASCII(normalized); err == nil {
		normalized = ascii
	}

	if !IsValidDomain(normalized) {
		return Domain{}, ErrInvalidDomain
	}

	return Domain{host: normalized}, nil
}

// MustNewDomain creates a Domain or panics if the address is invalid.
// Use only for known-valid addresses in tests or initialization.
func MustNewDomain(raw string) Domain {
	d, err := NewDomain(raw)
	if err != nil {
		panic(err)
	}
	return d
}

// String returns the normalized hostname.
func (d Domain) String() string {
	return d.host
}

// IsZero returns true if this is a zero value (empty) Domain.
func (d Domain) IsZero() bool {
	return d.host == ""
}

// Equals returns true if two Domain values identify the same instance.
func (d Domain) Equals(other Domain) bool {
	return d.host == other.host
}
