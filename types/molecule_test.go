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
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nervosnetwork/ledger-ckb-go/hdpath"
)

// Golden encodings pinned from an independent molecule implementation.
const (
	scriptGolden = "490000001000000030000000310000009bd7e06f3ecf4be0f2fcd2188b23f1b9fcc88e5d4b65a8637b17723bbda3cce8011400000075178f34549c5fe9cd1a0c57aebd01e7ddf9249e"

	rawTxGolden = "9a0100001c00000020000000490000004d0000007d000000820100000000000001000000aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa010000000100000000010000000000000000000000000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f00000000050100000c0000006d0000006100000010000000180000006100000000e8764817000000490000001000000030000000310000009bd7e06f3ecf4be0f2fcd2188b23f1b9fcc88e5d4b65a8637b17723bbda3cce8011400000075178f34549c5fe9cd1a0c57aebd01e7ddf9249e9800000010000000180000006100000000d0ed902e000000490000001000000030000000310000009bd7e06f3ecf4be0f2fcd2188b23f1b9fcc88e5d4b65a8637b17723bbda3cce8011400000075178f34549c5fe9cd1a0c57aebd01e7ddf9249e37000000100000003000000031000000bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb00020000000102180000000c000000100000000000000004000000deadbeef"

	sourceTxGolden = "cd0000001c00000020000000240000002800000058000000c100000000000000000000000000000001000000000000000000000011111111111111111111111111111111111111111111111111111111111111110000000069000000080000006100000010000000180000006100000000e8764817000000490000001000000030000000310000009bd7e06f3ecf4be0f2fcd2188b23f1b9fcc88e5d4b65a8637b17723bbda3cce8011400000075178f34549c5fe9cd1a0c57aebd01e7ddf9249e0c0000000800000000000000"

	annotatedGolden = "240300001800000030000000480000004c000000c3020000050000002c00008035010080000000800000000000000000050000002c0000803501008000000080000000000000000001000000770200001c00000020000000490000004d0000005a0100005f0200000000000001000000aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa0100000001000000000d01000008000000050100000c000000380000000000000000000000000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f00000000cd0000001c00000020000000240000002800000058000000c100000000000000000000000000000001000000000000000000000011111111111111111111111111111111111111111111111111111111111111110000000069000000080000006100000010000000180000006100000000e8764817000000490000001000000030000000310000009bd7e06f3ecf4be0f2fcd2188b23f1b9fcc88e5d4b65a8637b17723bbda3cce8011400000075178f34549c5fe9cd1a0c57aebd01e7ddf9249e0c0000000800000000000000050100000c0000006d0000006100000010000000180000006100000000e8764817000000490000001000000030000000310000009bd7e06f3ecf4be0f2fcd2188b23f1b9fcc88e5d4b65a8637b17723bbda3cce8011400000075178f34549c5fe9cd1a0c57aebd01e7ddf9249e9800000010000000180000006100000000d0ed902e000000490000001000000030000000310000009bd7e06f3ecf4be0f2fcd2188b23f1b9fcc88e5d4b65a8637b17723bbda3cce8011400000075178f34549c5fe9cd1a0c57aebd01e7ddf9249e37000000100000003000000031000000bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb00020000000102180000000c000000100000000000000004000000deadbeef61000000080000005500000055000000100000005500000055000000410000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000"
)

const placeholderGolden = "5500000010000000550000005500000041000000" +
	"0000000000000000000000000000000000000000000000000000000000000000" +
	"0000000000000000000000000000000000000000000000000000000000000000" +
	"00"

func repeatHash(b byte) (h Hash) {
	for i := range h {
		h[i] = b
	}
	return h
}

func countingHash() (h Hash) {
	for i := range h {
		h[i] = byte(i)
	}
	return h
}

func defaultLock(t *testing.T) Script {
	t.Helper()
	args, err := hex.DecodeString("75178f34549c5fe9cd1a0c57aebd01e7ddf9249e")
	require.NoError(t, err)
	var codeHash Hash
	blob, err := hex.DecodeString("9bd7e06f3ecf4be0f2fcd2188b23f1b9fcc88e5d4b65a8637b17723bbda3cce8")
	require.NoError(t, err)
	copy(codeHash[:], blob)
	return Script{CodeHash: codeHash, HashType: HashTypeType, Args: args}
}

// fixtureTransaction builds the transaction behind rawTxGolden: one dep
// group dependency, one input and two outputs, the second typed.
func fixtureTransaction(t *testing.T) *Transaction {
	t.Helper()
	lock := defaultLock(t)
	typeScript := &Script{CodeHash: repeatHash(0xbb), HashType: HashTypeData, Args: []byte{0x01, 0x02}}
	return &Transaction{
		Version: 0,
		CellDeps: []CellDep{{
			OutPoint: OutPoint{TxHash: repeatHash(0xaa), Index: 1},
			DepType:  DepTypeDepGroup,
		}},
		Inputs: []CellInput{{
			Since:          0,
			PreviousOutput: OutPoint{TxHash: countingHash(), Index: 0},
		}},
		Outputs: []CellOutput{
			{Capacity: 100_000_000_000, Lock: lock},
			{Capacity: 200_000_000_000, Lock: lock, Type: typeScript},
		},
		OutputsData: [][]byte{{}, {0xde, 0xad, 0xbe, 0xef}},
	}
}

// fixtureSource builds the transaction behind sourceTxGolden, standing in
// for the transaction that created the fixture's input.
func fixtureSource(t *testing.T) *Transaction {
	t.Helper()
	return &Transaction{
		Inputs: []CellInput{{
			PreviousOutput: OutPoint{TxHash: repeatHash(0x11), Index: 0},
		}},
		Outputs:     []CellOutput{{Capacity: 100_000_000_000, Lock: defaultLock(t)}},
		OutputsData: [][]byte{{}},
	}
}

func TestSerializeScript(t *testing.T) {
	lock := defaultLock(t)
	assert.Equal(t, scriptGolden, hex.EncodeToString(lock.serialize()))
}

func TestSerializeTransaction(t *testing.T) {
	tx := fixtureTransaction(t)
	assert.Equal(t, rawTxGolden, hex.EncodeToString(tx.Serialize()))

	source := fixtureSource(t)
	assert.Equal(t, sourceTxGolden, hex.EncodeToString(source.Serialize()))
}

func TestSerializeEmptyTransaction(t *testing.T) {
	encoded := (&Transaction{}).Serialize()

	// 6 field table: 28 byte header, a 4 byte version, three empty
	// fixvecs of 4 bytes each and two empty dynvecs of 4 bytes each
	assert.Len(t, encoded, 28+4+3*4+2*4)
	decoded, err := DecodeTransaction(encoded)
	require.NoError(t, err)
	assert.Equal(t, &Transaction{
		CellDeps:    []CellDep{},
		HeaderDeps:  []Hash{},
		Inputs:      []CellInput{},
		Outputs:     []CellOutput{},
		OutputsData: [][]byte{},
	}, decoded)
}

func TestSerializeWitnessArgs(t *testing.T) {
	// An absent option and an empty present one must differ on the wire
	absent := (&WitnessArgs{}).Serialize()
	empty := (&WitnessArgs{Lock: []byte{}}).Serialize()
	assert.NotEqual(t, absent, empty)

	placeholder := (&WitnessArgs{Lock: make([]byte, 65)}).Serialize()
	assert.Equal(t, placeholderGolden, hex.EncodeToString(placeholder))
}

func TestSerializeAnnotatedTransaction(t *testing.T) {
	path := hdpath.MustParse("44'/309'/0'/0/0")
	annotated, err := AnnotateTransaction(path, fixtureTransaction(t), nil, []*Transaction{fixtureSource(t)}, nil)
	require.NoError(t, err)

	assert.Equal(t, annotatedGolden, hex.EncodeToString(annotated.Serialize()))
}

func TestSerializePath(t *testing.T) {
	// Bip32 vector: little endian count, little endian components
	encoded := serializePath([]uint32{0x8000002c, 1})
	assert.Equal(t, "020000002c00008001000000", hex.EncodeToString(encoded))

	assert.Equal(t, "00000000", hex.EncodeToString(serializePath(nil)))
}

func TestPlaceholderWitnessIsFresh(t *testing.T) {
	first := PlaceholderWitness()
	first[20] = 0xff
	assert.Equal(t, strings.Repeat("0", 130), hex.EncodeToString(PlaceholderWitness()[20:]))
}
