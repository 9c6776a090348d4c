// Copyright 2024 The ledger-ckb-go Authors
// This file is part of the ledger-ckb-go library.
//
// The ledger-ckb-go library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The ledger-ckb-go library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the ledger-ckb-go library. If not, see <http://www.gnu.org/licenses/>.

// Package hdpath implements BIP-32 derivation path parsing and the wire
// encoding the Ledger CKB app expects for path arguments.
package hdpath

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// HardenedOffset is added to a component to mark it as hardened, per BIP-32.
const HardenedOffset uint32 = 0x80000000

// maxComponents bounds the path length so the encoded form fits behind a
// single length byte.
const maxComponents = 255

// ErrInvalidPath is returned when a textual derivation path cannot be parsed.
var ErrInvalidPath = errors.New("hdpath: invalid derivation path")

// DefaultPath is the conventional first external CKB account, using the
// SLIP-44 coin type 309' registered for Nervos.
var DefaultPath = Path{HardenedOffset + 44, HardenedOffset + 309, HardenedOffset, 0, 0}

// Path represents the computer friendly version of a hierarchical
// deterministic wallet account derivation path.
//
// The BIP-32 spec https://github.com/bitcoin/bips/blob/master/bip-0032.mediawiki
// defines derivation paths to be of the form:
//
//	m / purpose' / coin_type' / account' / change / address_index
//
// SLIP-44 assigns the `coin_type` 309' to Nervos CKB, so the first account
// lives at m/44'/309'/0'/0/0.
type Path []uint32

// Parse converts a user specified derivation path string to the internal
// binary representation.
//
// The leading "m/" prefix is optional. Whitespace around components is
// ignored. Each component is a decimal index, optionally followed by a
// single trailing apostrophe marking it as hardened.
func Parse(path string) (Path, error) {
	components := strings.Split(path, "/")
	if strings.TrimSpace(components[0]) == "m" {
		components = components[1:]
	}
	if len(components) == 0 || (len(components) == 1 && strings.TrimSpace(components[0]) == "") {
		return nil, fmt.Errorf("%w: empty path", ErrInvalidPath)
	}
	if len(components) > maxComponents {
		return nil, fmt.Errorf("%w: %d components exceeds maximum of %d", ErrInvalidPath, len(components), maxComponents)
	}
	result := make(Path, 0, len(components))
	for _, component := range components {
		component = strings.TrimSpace(component)

		// Handle hardened components, rejecting markers anywhere but the end
		var offset uint32
		if strings.HasSuffix(component, "'") {
			offset = HardenedOffset
			component = strings.TrimSpace(strings.TrimSuffix(component, "'"))
		}
		if strings.ContainsRune(component, '\'') {
			return nil, fmt.Errorf("%w: misplaced hardening marker in %q", ErrInvalidPath, component)
		}
		value, err := strconv.ParseUint(component, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid component %q", ErrInvalidPath, component)
		}
		if offset != 0 && value >= uint64(HardenedOffset) {
			return nil, fmt.Errorf("%w: component %d out of hardened range [0, %d]", ErrInvalidPath, value, HardenedOffset-1)
		}
		result = append(result, offset+uint32(value))
	}
	return result, nil
}

// MustParse parses a derivation path and panics on failure. It is intended
// for path constants in initializers and tests.
func MustParse(path string) Path {
	p, err := Parse(path)
	if err != nil {
		panic(err)
	}
	return p
}

// String implements the stringer interface, converting a binary derivation
// path to its canonical representation.
func (path Path) String() string {
	result := "m"
	for _, component := range path {
		var hardened bool
		if component >= HardenedOffset {
			component -= HardenedOffset
			hardened = true
		}
		result = fmt.Sprintf("%s/%d", result, component)
		if hardened {
			result += "'"
		}
	}
	return result
}

// Encode flattens the derivation path into the form consumed by the device:
// one length byte followed by each component as 4 big endian bytes. The
// same encoding prefixes address retrieval, extended key retrieval and the
// init frame of every signing operation.
func (path Path) Encode() ([]byte, error) {
	if len(path) > maxComponents {
		return nil, fmt.Errorf("%w: %d components exceeds maximum of %d", ErrInvalidPath, len(path), maxComponents)
	}
	encoded := make([]byte, 1+4*len(path))
	encoded[0] = byte(len(path))
	for i, component := range path {
		binary.BigEndian.PutUint32(encoded[1+4*i:], component)
	}
	return encoded, nil
}
