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

// This file implements the molecule serialization of transactions and their
// annotated form, following the layouts of CKB's blockchain.mol and the
// device app's annotated.mol:
//
//   - structs concatenate their fixed size fields
//   - fixvecs prefix a little endian uint32 item count
//   - dynvecs and tables prefix a little endian uint32 total size followed
//     by one uint32 offset per item, measured from the header start
//   - options encode as nothing or as the item itself

package types

import "encoding/binary"

func appendUint32(buf []byte, v uint32) []byte {
	return binary.LittleEndian.AppendUint32(buf, v)
}

func appendUint64(buf []byte, v uint64) []byte {
	return binary.LittleEndian.AppendUint64(buf, v)
}

// serializeBytes encodes a molecule Bytes: item count followed by the raw
// bytes.
func serializeBytes(b []byte) []byte {
	out := make([]byte, 0, 4+len(b))
	out = appendUint32(out, uint32(len(b)))
	return append(out, b...)
}

// serializeTable encodes a molecule table or dynvec from its already
// serialized fields.
func serializeTable(fields ...[]byte) []byte {
	header := 4 + 4*len(fields)
	total := header
	for _, field := range fields {
		total += len(field)
	}
	out := make([]byte, 0, total)
	out = appendUint32(out, uint32(total))
	offset := header
	for _, field := range fields {
		out = appendUint32(out, uint32(offset))
		offset += len(field)
	}
	for _, field := range fields {
		out = append(out, field...)
	}
	return out
}

// serializeDynVec encodes a molecule dynvec; an empty one is just its own
// four byte size.
func serializeDynVec(items [][]byte) []byte {
	if len(items) == 0 {
		return appendUint32(nil, 4)
	}
	return serializeTable(items...)
}

// serializeFixVec encodes a molecule fixvec: item count followed by the
// equally sized items.
func serializeFixVec(items [][]byte) []byte {
	total := 4
	for _, item := range items {
		total += len(item)
	}
	out := make([]byte, 0, total)
	out = appendUint32(out, uint32(len(items)))
	for _, item := range items {
		out = append(out, item...)
	}
	return out
}

func (p *OutPoint) serialize() []byte {
	out := make([]byte, 0, 36)
	out = append(out, p.TxHash[:]...)
	return appendUint32(out, p.Index)
}

func (i *CellInput) serialize() []byte {
	out := make([]byte, 0, 44)
	out = appendUint64(out, i.Since)
	return append(out, i.PreviousOutput.serialize()...)
}

func (d *CellDep) serialize() []byte {
	out := make([]byte, 0, 37)
	out = append(out, d.OutPoint.serialize()...)
	return append(out, byte(d.DepType))
}

func (s *Script) serialize() []byte {
	return serializeTable(s.CodeHash[:], []byte{byte(s.HashType)}, serializeBytes(s.Args))
}

func (o *CellOutput) serialize() []byte {
	var typ []byte // absent option
	if o.Type != nil {
		typ = o.Type.serialize()
	}
	return serializeTable(appendUint64(nil, o.Capacity), o.Lock.serialize(), typ)
}

func serializeCellDeps(deps []CellDep) []byte {
	items := make([][]byte, len(deps))
	for i := range deps {
		items[i] = deps[i].serialize()
	}
	return serializeFixVec(items)
}

func serializeHashes(hashes []Hash) []byte {
	items := make([][]byte, len(hashes))
	for i := range hashes {
		items[i] = hashes[i][:]
	}
	return serializeFixVec(items)
}

func serializeOutputs(outputs []CellOutput) []byte {
	items := make([][]byte, len(outputs))
	for i := range outputs {
		items[i] = outputs[i].serialize()
	}
	return serializeDynVec(items)
}

func serializeByteVecs(data [][]byte) []byte {
	items := make([][]byte, len(data))
	for i := range data {
		items[i] = serializeBytes(data[i])
	}
	return serializeDynVec(items)
}

// Serialize encodes the raw transaction as a molecule RawTransaction table.
func (tx *Transaction) Serialize() []byte {
	inputs := make([][]byte, len(tx.Inputs))
	for i := range tx.Inputs {
		inputs[i] = tx.Inputs[i].serialize()
	}
	return serializeTable(
		appendUint32(nil, tx.Version),
		serializeCellDeps(tx.CellDeps),
		serializeHashes(tx.HeaderDeps),
		serializeFixVec(inputs),
		serializeOutputs(tx.Outputs),
		serializeByteVecs(tx.OutputsData),
	)
}

// serializePath encodes a derivation path as the annotated schema's Bip32
// vector: an item count followed by little endian components.
func serializePath(path []uint32) []byte {
	items := make([][]byte, len(path))
	for i, component := range path {
		items[i] = appendUint32(nil, component)
	}
	return serializeFixVec(items)
}

func (a *AnnotatedCellInput) serialize() []byte {
	return serializeTable(a.Input.serialize(), a.Source.Serialize())
}

func (r *AnnotatedRawTransaction) serialize() []byte {
	inputs := make([][]byte, len(r.Inputs))
	for i := range r.Inputs {
		inputs[i] = r.Inputs[i].serialize()
	}
	return serializeTable(
		appendUint32(nil, r.Version),
		serializeCellDeps(r.CellDeps),
		serializeHashes(r.HeaderDeps),
		serializeDynVec(inputs),
		serializeOutputs(r.Outputs),
		serializeByteVecs(r.OutputsData),
	)
}

// Serialize encodes the annotated transaction as the device app's
// AnnotatedTransaction table. This is the exact byte stream chunked into
// signing frames.
func (a *AnnotatedTransaction) Serialize() []byte {
	return serializeTable(
		serializePath(a.SignPath),
		serializePath(a.ChangePath),
		appendUint32(nil, a.InputCount),
		a.Raw.serialize(),
		serializeByteVecs(a.Witnesses),
	)
}

// Serialize encodes the witness as a molecule WitnessArgs table with three
// optional Bytes fields; nil slices are absent options.
func (w *WitnessArgs) Serialize() []byte {
	var lock, inputType, outputType []byte
	if w.Lock != nil {
		lock = serializeBytes(w.Lock)
	}
	if w.InputType != nil {
		inputType = serializeBytes(w.InputType)
	}
	if w.OutputType != nil {
		outputType = serializeBytes(w.OutputType)
	}
	return serializeTable(lock, inputType, outputType)
}
