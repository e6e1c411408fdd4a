/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package decimal handles the non-negative decimal strings tbDEX carries amounts in.
package decimal

import (
	"fmt"
	"math/big"
	"regexp"
)

var pattern = regexp.MustCompile(`^[0-9]+(\.[0-9]+)?$`)

// Valid reports whether s is a decimal string such as "1", "0.5" or "1001.00".
func Valid(s string) bool {
	return pattern.MatchString(s)
}

// Parse parses a decimal string to an exact rational.
func Parse(s string) (*big.Rat, error) {
	if !Valid(s) {
		return nil, fmt.Errorf("invalid decimal %q", s)
	}

	r, ok := new(big.Rat).SetString(s)
	if !ok {
		return nil, fmt.Errorf("invalid decimal %q", s)
	}

	return r, nil
}

// Compare returns -1, 0 or +1 depending on whether a is less than, equal to or greater than b.
func Compare(a, b string) (int, error) {
	x, err := Parse(a)
	if err != nil {
		return 0, err
	}

	y, err := Parse(b)
	if err != nil {
		return 0, err
	}

	return x.Cmp(y), nil
}

// InRange reports whether minimum <= amount <= maximum. Empty bounds are open.
func InRange(amount, minimum, maximum string) (bool, error) {
	if minimum != "" {
		c, err := Compare(amount, minimum)
		if err != nil {
			return false, err
		}

		if c < 0 {
			return false, nil
		}
	}

	if maximum != "" {
		c, err := Compare(amount, maximum)
		if err != nil {
			return false, err
		}

		if c > 0 {
			return false, nil
		}
	}

	return true, nil
}
