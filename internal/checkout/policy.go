package checkout

import (
	"fmt"
	"strings"
)

// Policy decides what happens when a product cannot be reserved.
type Policy int

const (
	// PolicyStrict releases every reservation already taken and fails the
	// checkout with domain.ErrInsufficientStock.
	PolicyStrict Policy = iota
	// PolicyLenient skips the product's decrement and still places the order
	// for the full cart. Skipped products are reported in Placement.Skipped.
	PolicyLenient
)

func (p Policy) String() string {
	switch p {
	case PolicyLenient:
		return "lenient"
	default:
		return "strict"
	}
}

func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "strict":
		return PolicyStrict, nil
	case "lenient":
		return PolicyLenient, nil
	default:
		return PolicyStrict, fmt.Errorf("unknown reservation policy %q", s)
	}
}
