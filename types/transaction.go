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

// Package types models CKB transactions and their device-facing annotated
// form, together with the molecule wire encoding of both.
package types

import (
	"encoding/hex"
)

// Hash represents a 32 byte blake2b digest, most commonly a transaction or
// script code hash.
type Hash [32]byte

// BytesToHash sets b to hash. If b is larger than 32 bytes, b will be
// cropped from the left.
func BytesToHash(b []byte) Hash {
	var h Hash
	if len(b) > len(h) {
		b = b[len(b)-len(h):]
	}
	copy(h[len(h)-len(b):], b)
	return h
}

// Hex returns the digest as a 0x-prefixed hex string.
func (h Hash) Hex() string {
	return "0x" + hex.EncodeToString(h[:])
}

// ScriptHashType describes how a script's code hash is matched on chain.
type ScriptHashType byte

const (
	HashTypeData  ScriptHashType = 0x00 // match the code hash of the cell data
	HashTypeType  ScriptHashType = 0x01 // match the type script hash
	HashTypeData1 ScriptHashType = 0x02 // like data, under the CKB-VM v1 ISA
)

// DepType describes how a cell dependency is resolved.
type DepType byte

const (
	DepTypeCode     DepType = 0x00
	DepTypeDepGroup DepType = 0x01
)

// Script locks or types a cell output.
type Script struct {
	CodeHash Hash
	HashType ScriptHashType
	Args     []byte
}

// OutPoint references a cell created by a previous transaction.
type OutPoint struct {
	TxHash Hash
	Index  uint32
}

// CellInput consumes the cell referenced by its out point. Since encodes
// the consensus level maturity constraint of the input.
type CellInput struct {
	Since          uint64
	PreviousOutput OutPoint
}

// CellDep makes the code or data of another live cell available to the
// scripts of this transaction.
type CellDep struct {
	OutPoint OutPoint
	DepType  DepType
}

// CellOutput creates a cell holding Capacity shannons behind the Lock
// script. Type is optional.
type CellOutput struct {
	Capacity uint64
	Lock     Script
	Type     *Script
}

// Transaction is a raw CKB transaction, without witnesses. Instances are
// treated as read-only inputs by the rest of the library.
type Transaction struct {
	Version     uint32
	CellDeps    []CellDep
	HeaderDeps  []Hash
	Inputs      []CellInput
	Outputs     []CellOutput
	OutputsData [][]byte
}
