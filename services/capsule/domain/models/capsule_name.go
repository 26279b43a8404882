package models

import (
	"fmt"
	"unicode/utf8"
)

// CapsuleName is a value object for a capsule's display name: 1 to 120 runes.
type CapsuleName string

const (
	minCapsuleNameLength = 1
	maxCapsuleNameLength = 120
)

// NewCapsuleName constructs a valid CapsuleName or returns an error if constraints are violated.
func NewCapsuleName(s string) (CapsuleName, error) {
	n := utf8.RuneCountInString(s)
	if n < minCapsuleNameLength {
		return "", fmt.Errorf("capsule name must be at least %d character", minCapsuleNameLength)
	}
	if n > maxCapsuleNameLength {
		return "", fmt.Errorf("capsule name must not exceed %d characters", maxCapsuleNameLength)
	}
	return CapsuleName(s), nil
}

func (n CapsuleName) String() string {
	return string(n)
}
