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

package types

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrDecode is returned for molecule data whose length prefixes or offsets
// do not describe the buffer they arrived in. Every slice below is bounds
// checked against it; malformed input can never index out of range.
var ErrDecode = errors.New("types: malformed transaction encoding")

func decodeUint32(data []byte) (uint32, error) {
	if len(data) != 4 {
		return 0, fmt.Errorf("%w: uint32 field is %d bytes", ErrDecode, len(data))
	}
	return binary.LittleEndian.Uint32(data), nil
}

func decodeUint64(data []byte) (uint64, error) {
	if len(data) != 8 {
		return 0, fmt.Errorf("%w: uint64 field is %d bytes", ErrDecode, len(data))
	}
	return binary.LittleEndian.Uint64(data), nil
}

// tableFields splits a molecule table with a known field count into its
// field slices, validating the size header and every offset.
func tableFields(data []byte, count int) ([][]byte, error) {
	header := 4 + 4*count
	if len(data) < header {
		return nil, fmt.Errorf("%w: table shorter than its %d byte header", ErrDecode, header)
	}
	if total := binary.LittleEndian.Uint32(data); int(total) != len(data) {
		return nil, fmt.Errorf("%w: table size %d does not match %d byte buffer", ErrDecode, total, len(data))
	}
	offsets := make([]int, count+1)
	for i := 0; i < count; i++ {
		offsets[i] = int(binary.LittleEndian.Uint32(data[4+4*i:]))
	}
	offsets[count] = len(data)
	if offsets[0] != header {
		return nil, fmt.Errorf("%w: first offset %d, want %d", ErrDecode, offsets[0], header)
	}
	fields := make([][]byte, count)
	for i := 0; i < count; i++ {
		if offsets[i] > offsets[i+1] || offsets[i+1] > len(data) {
			return nil, fmt.Errorf("%w: offset %d out of order", ErrDecode, offsets[i])
		}
		fields[i] = data[offsets[i]:offsets[i+1]]
	}
	return fields, nil
}

// dynVecItems splits a molecule dynvec into its items, deriving the item
// count from the first offset.
func dynVecItems(data []byte) ([][]byte, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("%w: dynvec shorter than its size header", ErrDecode)
	}
	if total := binary.LittleEndian.Uint32(data); int(total) != len(data) {
		return nil, fmt.Errorf("%w: dynvec size %d does not match %d byte buffer", ErrDecode, total, len(data))
	}
	if len(data) == 4 {
		return nil, nil
	}
	if len(data) < 8 {
		return nil, fmt.Errorf("%w: dynvec too short for an offset", ErrDecode)
	}
	first := int(binary.LittleEndian.Uint32(data[4:]))
	if first < 8 || first%4 != 0 || first > len(data) {
		return nil, fmt.Errorf("%w: dynvec first offset %d", ErrDecode, first)
	}
	return tableFields(data, first/4-1)
}

// fixVecItems splits a molecule fixvec of itemSize byte items.
func fixVecItems(data []byte, itemSize int) ([][]byte, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("%w: fixvec shorter than its count header", ErrDecode)
	}
	count := int(binary.LittleEndian.Uint32(data))
	if len(data) != 4+count*itemSize {
		return nil, fmt.Errorf("%w: fixvec of %d byte items declares %d entries in %d bytes", ErrDecode, itemSize, count, len(data))
	}
	items := make([][]byte, count)
	for i := 0; i < count; i++ {
		items[i] = data[4+i*itemSize : 4+(i+1)*itemSize]
	}
	return items, nil
}

// decodeBytes unwraps a molecule Bytes field.
func decodeBytes(data []byte) ([]byte, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("%w: bytes field shorter than its length prefix", ErrDecode)
	}
	count := int(binary.LittleEndian.Uint32(data))
	if len(data) != 4+count {
		return nil, fmt.Errorf("%w: bytes field declares %d bytes in %d", ErrDecode, count, len(data))
	}
	out := make([]byte, count)
	copy(out, data[4:])
	return out, nil
}

func decodeOutPoint(data []byte) (OutPoint, error) {
	if len(data) != 36 {
		return OutPoint{}, fmt.Errorf("%w: out point is %d bytes, want 36", ErrDecode, len(data))
	}
	var p OutPoint
	copy(p.TxHash[:], data[:32])
	p.Index = binary.LittleEndian.Uint32(data[32:])
	return p, nil
}

func decodeCellInput(data []byte) (CellInput, error) {
	if len(data) != 44 {
		return CellInput{}, fmt.Errorf("%w: cell input is %d bytes, want 44", ErrDecode, len(data))
	}
	var in CellInput
	in.Since = binary.LittleEndian.Uint64(data[:8])
	var err error
	in.PreviousOutput, err = decodeOutPoint(data[8:])
	return in, err
}

func decodeCellDep(data []byte) (CellDep, error) {
	if len(data) != 37 {
		return CellDep{}, fmt.Errorf("%w: cell dep is %d bytes, want 37", ErrDecode, len(data))
	}
	point, err := decodeOutPoint(data[:36])
	if err != nil {
		return CellDep{}, err
	}
	return CellDep{OutPoint: point, DepType: DepType(data[36])}, nil
}

func decodeScript(data []byte) (Script, error) {
	fields, err := tableFields(data, 3)
	if err != nil {
		return Script{}, err
	}
	var s Script
	if len(fields[0]) != 32 {
		return Script{}, fmt.Errorf("%w: script code hash is %d bytes", ErrDecode, len(fields[0]))
	}
	s.CodeHash = BytesToHash(fields[0])
	if len(fields[1]) != 1 {
		return Script{}, fmt.Errorf("%w: script hash type is %d bytes", ErrDecode, len(fields[1]))
	}
	s.HashType = ScriptHashType(fields[1][0])
	if s.Args, err = decodeBytes(fields[2]); err != nil {
		return Script{}, err
	}
	return s, nil
}

func decodeCellOutput(data []byte) (CellOutput, error) {
	fields, err := tableFields(data, 3)
	if err != nil {
		return CellOutput{}, err
	}
	var out CellOutput
	if out.Capacity, err = decodeUint64(fields[0]); err != nil {
		return CellOutput{}, err
	}
	if out.Lock, err = decodeScript(fields[1]); err != nil {
		return CellOutput{}, err
	}
	if len(fields[2]) > 0 { // present option
		typ, err := decodeScript(fields[2])
		if err != nil {
			return CellOutput{}, err
		}
		out.Type = &typ
	}
	return out, nil
}

// DecodeTransaction parses a molecule RawTransaction. It is the inverse of
// Transaction.Serialize and accepts exactly the canonical encoding.
func DecodeTransaction(data []byte) (*Transaction, error) {
	fields, err := tableFields(data, 6)
	if err != nil {
		return nil, err
	}
	tx := new(Transaction)
	if tx.Version, err = decodeUint32(fields[0]); err != nil {
		return nil, err
	}
	deps, err := fixVecItems(fields[1], 37)
	if err != nil {
		return nil, err
	}
	tx.CellDeps = make([]CellDep, len(deps))
	for i, item := range deps {
		if tx.CellDeps[i], err = decodeCellDep(item); err != nil {
			return nil, err
		}
	}
	headers, err := fixVecItems(fields[2], 32)
	if err != nil {
		return nil, err
	}
	tx.HeaderDeps = make([]Hash, len(headers))
	for i, item := range headers {
		copy(tx.HeaderDeps[i][:], item)
	}
	inputs, err := fixVecItems(fields[3], 44)
	if err != nil {
		return nil, err
	}
	tx.Inputs = make([]CellInput, len(inputs))
	for i, item := range inputs {
		if tx.Inputs[i], err = decodeCellInput(item); err != nil {
			return nil, err
		}
	}
	outputs, err := dynVecItems(fields[4])
	if err != nil {
		return nil, err
	}
	tx.Outputs = make([]CellOutput, len(outputs))
	for i, item := range outputs {
		if tx.Outputs[i], err = decodeCellOutput(item); err != nil {
			return nil, err
		}
	}
	data_, err := dynVecItems(fields[5])
	if err != nil {
		return nil, err
	}
	tx.OutputsData = make([][]byte, len(data_))
	for i, item := range data_ {
		if tx.OutputsData[i], err = decodeBytes(item); err != nil {
			return nil, err
		}
	}
	return tx, nil
}
