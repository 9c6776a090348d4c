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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nervosnetwork/ledger-ckb-go/hdpath"
)

var testSignPath = hdpath.Path{0x8000002c, 0x80000135, 0x80000000, 0, 0}

func TestAnnotateTransaction(t *testing.T) {
	tx := fixtureTransaction(t)
	source := fixtureSource(t)

	annotated, err := AnnotateTransaction(testSignPath, tx, nil, []*Transaction{source}, nil)
	require.NoError(t, err)

	assert.Equal(t, testSignPath, annotated.SignPath)
	assert.Equal(t, uint32(1), annotated.InputCount)
	require.Len(t, annotated.Raw.Inputs, 1)
	assert.Equal(t, tx.Inputs[0], annotated.Raw.Inputs[0].Input)
	assert.Equal(t, *source, annotated.Raw.Inputs[0].Source)

	// Everything but the inputs carries over untouched
	assert.Equal(t, tx.Version, annotated.Raw.Version)
	assert.Equal(t, tx.CellDeps, annotated.Raw.CellDeps)
	assert.Equal(t, tx.HeaderDeps, annotated.Raw.HeaderDeps)
	assert.Equal(t, tx.Outputs, annotated.Raw.Outputs)
	assert.Equal(t, tx.OutputsData, annotated.Raw.OutputsData)
}

func TestAnnotateTransactionDefaultWitness(t *testing.T) {
	tx := fixtureTransaction(t)
	sources := []*Transaction{fixtureSource(t)}

	for _, witnesses := range [][][]byte{nil, {}} {
		annotated, err := AnnotateTransaction(testSignPath, tx, witnesses, sources, nil)
		require.NoError(t, err)
		require.Len(t, annotated.Witnesses, 1)
		assert.Equal(t, PlaceholderWitness(), annotated.Witnesses[0])
	}
}

func TestAnnotateTransactionKeepsWitnesses(t *testing.T) {
	witnesses := [][]byte{{0x01}, {0x02, 0x03}}
	annotated, err := AnnotateTransaction(testSignPath, fixtureTransaction(t), witnesses, []*Transaction{fixtureSource(t)}, nil)
	require.NoError(t, err)
	assert.Equal(t, witnesses, annotated.Witnesses)
}

func TestAnnotateTransactionChangePath(t *testing.T) {
	tx := fixtureTransaction(t)
	sources := []*Transaction{fixtureSource(t)}

	annotated, err := AnnotateTransaction(testSignPath, tx, nil, sources, nil)
	require.NoError(t, err)
	assert.Equal(t, testSignPath, annotated.ChangePath)

	change := hdpath.Path{0x8000002c, 0x80000135, 0x80000000, 1, 7}
	annotated, err = AnnotateTransaction(testSignPath, tx, nil, sources, change)
	require.NoError(t, err)
	assert.Equal(t, change, annotated.ChangePath)
	assert.Equal(t, testSignPath, annotated.SignPath)
}

func TestAnnotateTransactionSourceMismatch(t *testing.T) {
	tx := fixtureTransaction(t)
	source := fixtureSource(t)

	// Too few and too many sources both fail; nothing is truncated or
	// padded silently.
	_, err := AnnotateTransaction(testSignPath, tx, nil, nil, nil)
	require.ErrorIs(t, err, ErrSourceCountMismatch)

	_, err = AnnotateTransaction(testSignPath, tx, nil, []*Transaction{source, source}, nil)
	require.ErrorIs(t, err, ErrSourceCountMismatch)
}

func TestPlaceholderWitnessShape(t *testing.T) {
	placeholder := PlaceholderWitness()

	// Serialized WitnessArgs with a 65 byte zeroed lock slot
	assert.Len(t, placeholder, 85)
	assert.Equal(t, (&WitnessArgs{Lock: make([]byte, 65)}).Serialize(), placeholder)
}
