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

// Package ckbledger drives the Nervos CKB application running on Ledger
// hardware wallets. The private key never leaves the device: the host asks
// for public keys and addresses, and streams transactions or messages over
// for on-device confirmation and signing.
package ckbledger

import (
	"encoding/hex"
	"fmt"
	"log/slog"
	"sync"

	"github.com/nervosnetwork/ledger-ckb-go/apdu"
)

// Transport is the duplex primitive beneath the client: one command APDU
// out, one response in, with the status word already checked and stripped.
// Transport failures propagate to the caller unchanged; reconnection and
// timeout policy belong to the transport, not to this package.
type Transport interface {
	Exchange(cla, ins, p1, p2 byte, data []byte) ([]byte, error)
}

// claCKB is the application class byte of every CKB app command.
const claCKB byte = 0x80

// Instruction bytes of the CKB app command table.
const (
	insAppVersion        byte = 0x00
	insWalletID          byte = 0x01
	insPublicKey         byte = 0x02
	insSignTransaction   byte = 0x03
	insExtendedPublicKey byte = 0x04
	insSignMessage       byte = 0x06
	insAppHash           byte = 0x09
)

// P1 markers of the chunked signing streams. Message signing opens with a
// standalone metadata frame carrying the path; transaction signing opens
// with its first payload chunk, the paths being part of the payload itself.
// The terminal frame of either stream has the last-chunk bit set and only
// its response holds the signature.
const (
	p1Init      byte = 0x00
	p1Continue  byte = 0x01
	p1LastChunk byte = 0x80
)

// maxChunkSize keeps data frames under the device's per-exchange payload
// ceiling while leaving room for the APDU header.
const maxChunkSize = 230

// SignatureLength is the size of a recoverable secp256k1 signature:
// 32 byte r, 32 byte s, 1 byte recovery id.
const SignatureLength = 65

// messageMagic is the fixed 15 byte tag prefixed to signed messages so a
// message signature can never double as a transaction signature.
const messageMagic = "Nervos Message:"

// Client exposes the operation set of the CKB app over a single transport.
//
// The device protocol is strictly sequential, so a mutex serializes all
// operations; no state is retained between calls and a failed multi-frame
// operation is abandoned entirely, never resumed. Callers may always retry
// a failed call from scratch.
type Client struct {
	transport Transport
	log       *slog.Logger

	// Hardware devices are low throughput, so operations serialize on a
	// plain mutex rather than anything fancier.
	commsLock sync.Mutex
}

// New wraps a transport into a CKB app client. A nil logger discards the
// protocol traces.
func New(transport Transport, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.New(apdu.DiscardHandler{})
	}
	return &Client{transport: transport, log: logger}
}

// exchange performs one round trip with the app, tracing the traffic.
func (c *Client) exchange(ins, p1, p2 byte, data []byte) ([]byte, error) {
	c.log.Debug("command sent to the ckb app",
		"ins", fmt.Sprintf("%#02x", ins), "p1", fmt.Sprintf("%#02x", p1), "data", hex.EncodeToString(data))
	reply, err := c.transport.Exchange(claCKB, ins, p1, p2, data)
	if err != nil {
		return nil, err
	}
	c.log.Debug("reply received from the ckb app", "reply", hex.EncodeToString(reply))
	return reply, nil
}

// signChunked runs the shared streaming of the two variable length signing
// operations. A non-nil init opens the stream as a standalone frame and the
// payload follows as continuations; a nil init means the metadata is
// embedded in the payload, whose first chunk opens the stream itself. The
// last chunk carries the terminal marker and the signature is the head of
// its reply.
func (c *Client) signChunked(ins byte, init, payload []byte) ([]byte, error) {
	p1 := p1Init
	if init != nil {
		if _, err := c.exchange(ins, p1Init, 0, init); err != nil {
			return nil, err
		}
		p1 = p1Continue
	}
	var reply []byte
	for {
		chunk := len(payload)
		if chunk > maxChunkSize {
			chunk = maxChunkSize
		}
		final := chunk == len(payload)
		if final {
			p1 |= p1LastChunk
		}
		var err error
		if reply, err = c.exchange(ins, p1, 0, payload[:chunk]); err != nil {
			return nil, err
		}
		if final {
			break
		}
		payload = payload[chunk:]
		p1 = p1Continue
	}
	if len(reply) < SignatureLength {
		return nil, fmt.Errorf("%w: %d byte reply lacks a %d byte signature", ErrInvalidReply, len(reply), SignatureLength)
	}
	signature := make([]byte, SignatureLength)
	copy(signature, reply)
	return signature, nil
}

// splitLengthPrefixed peels one length prefixed field off a device reply,
// returning the field and the remainder.
func splitLengthPrefixed(reply []byte) ([]byte, []byte, error) {
	if len(reply) < 1 || len(reply) < 1+int(reply[0]) {
		return nil, nil, fmt.Errorf("%w: truncated length prefixed field", ErrInvalidReply)
	}
	return reply[1 : 1+int(reply[0])], reply[1+int(reply[0]):], nil
}
