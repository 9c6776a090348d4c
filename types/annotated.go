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
	"errors"
	"fmt"

	"github.com/nervosnetwork/ledger-ckb-go/hdpath"
)

// ErrSourceCountMismatch is returned when the number of source transactions
// handed to AnnotateTransaction differs from the number of inputs they are
// supposed to contextualize.
var ErrSourceCountMismatch = errors.New("types: source transaction count does not match input count")

// AnnotatedCellInput pairs an input with the full transaction that created
// the output it spends, so the device can display what is being signed away.
type AnnotatedCellInput struct {
	Input  CellInput
	Source Transaction
}

// AnnotatedRawTransaction mirrors Transaction with the inputs replaced by
// their annotated form. All other fields carry over untouched.
type AnnotatedRawTransaction struct {
	Version     uint32
	CellDeps    []CellDep
	HeaderDeps  []Hash
	Inputs      []AnnotatedCellInput
	Outputs     []CellOutput
	OutputsData [][]byte
}

// AnnotatedTransaction is the structure streamed to the device for signing.
// InputCount duplicates len(Raw.Inputs) so the app can validate the stream
// incrementally while it arrives.
type AnnotatedTransaction struct {
	SignPath   hdpath.Path
	ChangePath hdpath.Path
	InputCount uint32
	Raw        AnnotatedRawTransaction
	Witnesses  [][]byte
}

// PlaceholderWitness returns the default sighash witness: a serialized
// WitnessArgs whose lock field is zeroed out to the exact size of one
// secp256k1 recoverable signature. Transactions signed with the default
// lock script carry this placeholder while their signing hash is computed.
func PlaceholderWitness() []byte {
	return (&WitnessArgs{Lock: make([]byte, 65)}).Serialize()
}

// AnnotateTransaction bundles a raw transaction with per-input source
// context into the form the device renders and signs.
//
// Sources are paired with inputs strictly by index and their count must
// match exactly; a mismatch is an error rather than a silent truncation.
// A nil changePath falls back to the signing path. Absent witnesses default
// to a single placeholder sized for one signature.
func AnnotateTransaction(signPath hdpath.Path, tx *Transaction, witnesses [][]byte, sources []*Transaction, changePath hdpath.Path) (*AnnotatedTransaction, error) {
	if len(sources) != len(tx.Inputs) {
		return nil, fmt.Errorf("%w: %d sources for %d inputs", ErrSourceCountMismatch, len(sources), len(tx.Inputs))
	}
	if changePath == nil {
		changePath = signPath
	}
	if len(witnesses) == 0 {
		witnesses = [][]byte{PlaceholderWitness()}
	}
	inputs := make([]AnnotatedCellInput, len(tx.Inputs))
	for i := range tx.Inputs {
		inputs[i] = AnnotatedCellInput{
			Input:  tx.Inputs[i],
			Source: *sources[i],
		}
	}
	return &AnnotatedTransaction{
		SignPath:   signPath,
		ChangePath: changePath,
		InputCount: uint32(len(inputs)),
		Raw: AnnotatedRawTransaction{
			Version:     tx.Version,
			CellDeps:    tx.CellDeps,
			HeaderDeps:  tx.HeaderDeps,
			Inputs:      inputs,
			Outputs:     tx.Outputs,
			OutputsData: tx.OutputsData,
		},
		Witnesses: witnesses,
	}, nil
}
