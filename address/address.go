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

// Package address derives CKB2021 full addresses from secp256k1 public keys.
//
// The derivation is purely local: the public key is compressed, hashed with
// the personalized BLAKE2b-256 CKB uses everywhere ("blake160" keeps the
// first 20 bytes), and the resulting lock argument is wrapped into a
// bech32m encoded payload carrying the secp256k1/blake160 lock script
// identifier.
package address

import (
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcutil/bech32"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/minio/blake2b-simd"
)

// Network selects the human readable prefix of rendered addresses.
type Network string

const (
	Mainnet Network = "ckb"
	Testnet Network = "ckt"
)

// hashPersonalization is the 16 byte BLAKE2b personalization tag used for
// every hash in CKB.
const hashPersonalization = "ckb-default-hash"

const (
	// formatFull is the payload format marker of a versioned full address.
	formatFull byte = 0x00

	// hashTypeType marks the code hash as matching a script by type ID.
	hashTypeType byte = 0x01

	// LockArgSize is the byte length of a blake160 lock argument.
	LockArgSize = 20

	// PublicKeySize is the byte length of an uncompressed secp256k1 key.
	PublicKeySize = 65
)

// Secp256k1Blake160CodeHash identifies the default sighash-all lock script
// on both networks.
var Secp256k1Blake160CodeHash = [32]byte{
	0x9b, 0xd7, 0xe0, 0x6f, 0x3e, 0xcf, 0x4b, 0xe0,
	0xf2, 0xfc, 0xd2, 0x18, 0x8b, 0x23, 0xf1, 0xb9,
	0xfc, 0xc8, 0x8e, 0x5d, 0x4b, 0x65, 0xa8, 0x63,
	0x7b, 0x17, 0x72, 0x3b, 0xbd, 0xa3, 0xcc, 0xe8,
}

var (
	// ErrHashSize is returned when the digest primitive yields anything but
	// a 32 byte sum.
	ErrHashSize = errors.New("address: unexpected digest size")

	// ErrEncoding is returned when the address payload cannot be packed
	// into 5 bit groups for bech32m rendering.
	ErrEncoding = errors.New("address: payload encoding failed")

	// ErrInvalidPublicKey is returned for keys that are not 65 byte
	// uncompressed points on the secp256k1 curve.
	ErrInvalidPublicKey = errors.New("address: invalid public key")
)

// Derived bundles the outputs of a single address derivation.
type Derived struct {
	PublicKey []byte // Uncompressed public key the derivation started from
	LockArg   []byte // blake160 of the compressed key
	Address   string // bech32m rendered full address
}

// Blake160 digests data with the CKB personalized BLAKE2b-256 and keeps the
// first 20 bytes.
func Blake160(data []byte) ([]byte, error) {
	h, err := blake2b.New(&blake2b.Config{Size: 32, Person: []byte(hashPersonalization)})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHashSize, err)
	}
	h.Write(data)
	sum := h.Sum(nil)
	if len(sum) != 32 {
		return nil, fmt.Errorf("%w: got %d bytes", ErrHashSize, len(sum))
	}
	return sum[:LockArgSize], nil
}

// Derive turns a 65 byte uncompressed public key into its lock argument and
// checksummed textual address on the given network.
func Derive(publicKey []byte, network Network) (*Derived, error) {
	if len(publicKey) != PublicKeySize {
		return nil, fmt.Errorf("%w: %d bytes, want %d", ErrInvalidPublicKey, len(publicKey), PublicKeySize)
	}
	// Parsing validates the point and yields the parity-prefixed 33 byte
	// compressed form (0x02 for even Y, 0x03 for odd).
	key, err := secp256k1.ParsePubKey(publicKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPublicKey, err)
	}
	lockArg, err := Blake160(key.SerializeCompressed())
	if err != nil {
		return nil, err
	}
	addr, err := Encode(lockArg, network)
	if err != nil {
		return nil, err
	}
	return &Derived{
		PublicKey: publicKey,
		LockArg:   lockArg,
		Address:   addr,
	}, nil
}

// Encode renders a lock argument as a CKB2021 full address:
//
//	payload = 0x00 | code_hash (32) | hash_type (1) | args
//
// encoded with bech32m under the network prefix. CKB addresses exceed the
// conventional 90 character bech32 ceiling, so the encoder must not cap
// the output length.
func Encode(lockArg []byte, network Network) (string, error) {
	payload := make([]byte, 0, 34+len(lockArg))
	payload = append(payload, formatFull)
	payload = append(payload, Secp256k1Blake160CodeHash[:]...)
	payload = append(payload, hashTypeType)
	payload = append(payload, lockArg...)

	grouped, err := bech32.ConvertBits(payload, 8, 5, true)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrEncoding, err)
	}
	addr, err := bech32.EncodeM(string(network), grouped)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrEncoding, err)
	}
	return addr, nil
}
