/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package typeid generates and parses TypeIDs: a type prefix, an underscore and the
// 26 character base32 (Crockford alphabet, lower case) form of a UUIDv7.
package typeid

import (
	"encoding/binary"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

const (
	alphabet   = "0123456789abcdefghjkmnpqrstvwxyz"
	suffixLen  = 26
	separator  = "_"
	maxFirstCh = '7'
)

// ErrInvalid is returned for strings that are not TypeIDs.
var ErrInvalid = errors.New("invalid typeid")

var prefixPattern = regexp.MustCompile(`^[a-z]([a-z_]{0,61}[a-z])?$`)

// New returns a TypeID with the prefix over a fresh UUIDv7.
func New(prefix string) (string, error) {
	if !prefixPattern.MatchString(prefix) {
		return "", fmt.Errorf("%w: prefix %q", ErrInvalid, prefix)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate UUIDv7: %w", err)
	}

	return prefix + separator + encode(id), nil
}

// Parse splits a TypeID into its prefix and UUID.
func Parse(typeID string) (string, uuid.UUID, error) {
	idx := strings.LastIndex(typeID, separator)
	if idx <= 0 {
		return "", uuid.Nil, fmt.Errorf("%w: %q has no prefix", ErrInvalid, typeID)
	}

	prefix, suffix := typeID[:idx], typeID[idx+1:]

	if !prefixPattern.MatchString(prefix) {
		return "", uuid.Nil, fmt.Errorf("%w: prefix %q", ErrInvalid, prefix)
	}

	id, err := decode(suffix)
	if err != nil {
		return "", uuid.Nil, err
	}

	return prefix, id, nil
}

// HasPrefix reports whether typeID is a valid TypeID with the prefix.
func HasPrefix(typeID, prefix string) bool {
	p, _, err := Parse(typeID)

	return err == nil && p == prefix
}

func encode(id uuid.UUID) string {
	hi := binary.BigEndian.Uint64(id[:8])
	lo := binary.BigEndian.Uint64(id[8:])

	var out [suffixLen]byte

	for i := suffixLen - 1; i >= 0; i-- {
		out[i] = alphabet[lo&0x1f]
		lo = lo>>5 | hi<<59
		hi >>= 5
	}

	return string(out[:])
}

func decode(suffix string) (uuid.UUID, error) {
	if len(suffix) != suffixLen || suffix[0] > maxFirstCh {
		return uuid.Nil, fmt.Errorf("%w: suffix %q", ErrInvalid, suffix)
	}

	var hi, lo uint64

	for i := 0; i < suffixLen; i++ {
		v := strings.IndexByte(alphabet, suffix[i])
		if v < 0 {
			return uuid.Nil, fmt.Errorf("%w: suffix %q", ErrInvalid, suffix)
		}

		hi = hi<<5 | lo>>59
		lo = lo<<5 | uint64(v)
	}

	var id uuid.UUID

	binary.BigEndian.PutUint64(id[:8], hi)
	binary.BigEndian.PutUint64(id[8:], lo)

	return id, nil
}
