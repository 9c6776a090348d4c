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

// This file contains the operation set of the Ledger CKB application. The
// wire protocol follows the app's command table; the class byte is fixed at
// 0x80 for every instruction.

package ckbledger

import (
	"encoding/hex"
	"fmt"

	"github.com/nervosnetwork/ledger-ckb-go/address"
	"github.com/nervosnetwork/ledger-ckb-go/hdpath"
	"github.com/nervosnetwork/ledger-ckb-go/types"
)

// Version identifies the app release running on the device.
type Version struct {
	Major, Minor, Patch byte
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// ExtendedPublicKey carries a public key together with the BIP-32 chain
// code needed to derive its non hardened children off device.
type ExtendedPublicKey struct {
	PublicKey []byte
	ChainCode []byte
}

// AppVersion retrieves the version of the CKB app running on the device.
//
//	CLA | INS | P1 | P2 | Lc
//	----+-----+----+----+---
//	 80 | 00  | 00 | 00 | 00
//
// With no input data, and the output being the major, minor and patch
// level, one byte each.
func (c *Client) AppVersion() (Version, error) {
	c.commsLock.Lock()
	defer c.commsLock.Unlock()

	reply, err := c.exchange(insAppVersion, 0, 0, nil)
	if err != nil {
		return Version{}, err
	}
	if len(reply) < 3 {
		return Version{}, fmt.Errorf("%w: %d byte version reply", ErrInvalidReply, len(reply))
	}
	return Version{Major: reply[0], Minor: reply[1], Patch: reply[2]}, nil
}

// AppHash retrieves the source hash the running app was built from.
//
//	CLA | INS | P1 | P2 | Lc
//	----+-----+----+----+---
//	 80 | 09  | 00 | 00 | 00
func (c *Client) AppHash() ([]byte, error) {
	c.commsLock.Lock()
	defer c.commsLock.Unlock()

	reply, err := c.exchange(insAppHash, 0, 0, nil)
	if err != nil {
		return nil, err
	}
	if len(reply) == 0 {
		return nil, fmt.Errorf("%w: empty app hash reply", ErrInvalidReply)
	}
	hash := make([]byte, len(reply))
	copy(hash, reply)
	return hash, nil
}

// WalletID retrieves the identifier the device derives from its seed,
// stable across app restarts and usable to tell wallets apart.
//
//	CLA | INS | P1 | P2 | Lc
//	----+-----+----+----+---
//	 80 | 01  | 00 | 00 | 00
func (c *Client) WalletID() ([]byte, error) {
	c.commsLock.Lock()
	defer c.commsLock.Unlock()

	reply, err := c.exchange(insWalletID, 0, 0, nil)
	if err != nil {
		return nil, err
	}
	if len(reply) == 0 {
		return nil, fmt.Errorf("%w: empty wallet id reply", ErrInvalidReply)
	}
	id := make([]byte, len(reply))
	copy(id, reply)
	return id, nil
}

// Address retrieves the public key on the given derivation path and derives
// its lock argument and textual address for the given network. The address
// computation is local; the device only supplies the key.
//
//	CLA | INS | P1 | P2 | Lc
//	----+-----+----+----+----
//	 80 | 02  | 00 | 00 | var
//
// Where the input data is the encoded derivation path and the output
// starts with one length byte followed by the uncompressed public key.
func (c *Client) Address(path hdpath.Path, network address.Network) (*address.Derived, error) {
	c.commsLock.Lock()
	defer c.commsLock.Unlock()

	encoded, err := path.Encode()
	if err != nil {
		return nil, err
	}
	reply, err := c.exchange(insPublicKey, 0, 0, encoded)
	if err != nil {
		return nil, err
	}
	key, _, err := splitLengthPrefixed(reply)
	if err != nil {
		return nil, err
	}
	if len(key) != address.PublicKeySize {
		return nil, fmt.Errorf("%w: %d byte public key, want %d", ErrInvalidReply, len(key), address.PublicKeySize)
	}
	return address.Derive(key, network)
}

// ExtendedPublicKey retrieves the public key and chain code on the given
// derivation path.
//
//	CLA | INS | P1 | P2 | Lc
//	----+-----+----+----+----
//	 80 | 04  | 00 | 00 | var
//
// Where the input data is the encoded derivation path and the output is
// two length prefixed fields: the public key and the chain code.
func (c *Client) ExtendedPublicKey(path hdpath.Path) (*ExtendedPublicKey, error) {
	c.commsLock.Lock()
	defer c.commsLock.Unlock()

	encoded, err := path.Encode()
	if err != nil {
		return nil, err
	}
	reply, err := c.exchange(insExtendedPublicKey, 0, 0, encoded)
	if err != nil {
		return nil, err
	}
	key, rest, err := splitLengthPrefixed(reply)
	if err != nil {
		return nil, err
	}
	chainCode, _, err := splitLengthPrefixed(rest)
	if err != nil {
		return nil, err
	}
	xpub := &ExtendedPublicKey{
		PublicKey: make([]byte, len(key)),
		ChainCode: make([]byte, len(chainCode)),
	}
	copy(xpub.PublicKey, key)
	copy(xpub.ChainCode, chainCode)
	return xpub, nil
}

// SignTransaction annotates the raw transaction with its per input source
// transactions, streams the result to the device for on screen review and
// returns the 65 byte recoverable signature.
//
// Sources pair with inputs by index and their counts must match. A nil
// changePath defaults to the signing path; absent witnesses default to the
// single sighash placeholder.
func (c *Client) SignTransaction(signPath hdpath.Path, tx *types.Transaction, witnesses [][]byte, sources []*types.Transaction, changePath hdpath.Path) ([]byte, error) {
	annotated, err := types.AnnotateTransaction(signPath, tx, witnesses, sources, changePath)
	if err != nil {
		return nil, err
	}
	return c.SignAnnotatedTransaction(annotated)
}

// SignAnnotatedTransaction streams a prebuilt annotated transaction to the
// device and returns the signature.
//
//	CLA | INS | P1                | P2 | Lc
//	----+-----+-------------------+----+----
//	 80 | 03  | 00: first chunk   | 00 | var
//	            01: continuation
//	           +80: last chunk
//
// The signing and change paths travel inside the serialized annotated
// transaction, so the stream opens directly with its first 230 byte chunk;
// a serialization fitting one frame goes out as 80, a longer one as 00,
// 01... 81. Only the last frame's response carries data: the recoverable
// signature.
func (c *Client) SignAnnotatedTransaction(annotated *types.AnnotatedTransaction) ([]byte, error) {
	c.commsLock.Lock()
	defer c.commsLock.Unlock()

	return c.signChunked(insSignTransaction, nil, annotated.Serialize())
}

// SignMessage asks the device to display and sign an arbitrary message.
// The message is prefixed with the fixed "Nervos Message:" tag before
// signing, so the result can never be replayed as a transaction signature.
// displayHex forces the device to render the message as hex bytes instead
// of text.
//
//	CLA | INS | P1               | P2 | Lc
//	----+-----+------------------+----+----
//	 80 | 06  | 00: init, path   | 00 | var
//	            01: continuation
//	            81: final chunk
//
// The init frame carries the encoded derivation path followed by one
// display mode byte.
func (c *Client) SignMessage(path hdpath.Path, message []byte, displayHex bool) ([]byte, error) {
	c.commsLock.Lock()
	defer c.commsLock.Unlock()

	encoded, err := path.Encode()
	if err != nil {
		return nil, err
	}
	init := make([]byte, 0, len(encoded)+1)
	init = append(init, encoded...)
	if displayHex {
		init = append(init, 0x01)
	} else {
		init = append(init, 0x00)
	}
	payload := make([]byte, 0, len(messageMagic)+len(message))
	payload = append(payload, messageMagic...)
	payload = append(payload, message...)

	return c.signChunked(insSignMessage, init, payload)
}

// SignMessageHex is a convenience wrapper around SignMessage for callers
// holding the message as a hex string.
func (c *Client) SignMessageHex(path hdpath.Path, message string, displayHex bool) ([]byte, error) {
	raw, err := hex.DecodeString(message)
	if err != nil {
		return nil, fmt.Errorf("ckbledger: invalid hex message: %w", err)
	}
	return c.SignMessage(path, raw, displayHex)
}
