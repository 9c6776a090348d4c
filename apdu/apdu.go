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

// Package apdu exchanges ISO 7816 style command/response units with a
// Ledger device over its USB HID report framing.
//
// The common transport header is defined as follows:
//
//	Description                           | Length
//	--------------------------------------+----------
//	Communication channel ID (big endian) | 2 bytes
//	Command tag                           | 1 byte
//	Packet sequence index (big endian)    | 2 bytes
//	Payload                               | arbitrary
//
// The channel ID is not used for the time being and is set to 0101 to avoid
// compatibility issues with implementations ignoring a leading 00 byte. The
// command tag is TAG_APDU (0x05) for everything this package sends.
//
// APDU command payloads are encoded as follows:
//
//	Description              | Length
//	-----------------------------------
//	APDU length (big endian) | 2 bytes
//	APDU CLA                 | 1 byte
//	APDU INS                 | 1 byte
//	APDU P1                  | 1 byte
//	APDU P2                  | 1 byte
//	APDU data length         | 1 byte
//	Optional APDU data       | arbitrary
package apdu

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
)

const (
	channelID  uint16 = 0x0101
	tagAPDU    byte   = 0x05
	reportSize        = 64

	// statusOK is the status word of a successfully executed command.
	statusOK uint16 = 0x9000
)

var (
	// ErrReplyInvalidHeader is returned when the device replies on a
	// mismatching channel or tag. This usually means another application
	// holds the device.
	ErrReplyInvalidHeader = errors.New("apdu: invalid reply header")

	// ErrTruncatedReply is returned when a reply ends before its trailing
	// status word.
	ErrTruncatedReply = errors.New("apdu: reply lacks status word")

	// ErrPayloadTooLarge is returned for command data exceeding the one
	// byte APDU length field.
	ErrPayloadTooLarge = errors.New("apdu: command payload exceeds 255 bytes")
)

// StatusError reports a command the device received but refused.
type StatusError struct {
	Code uint16
}

func (e *StatusError) Error() string {
	switch e.Code {
	case 0x6985:
		return "apdu: denied by user (0x6985)"
	case 0x6d00:
		return "apdu: instruction not supported (0x6d00)"
	case 0x6e00:
		return "apdu: application class mismatch (0x6e00)"
	default:
		return fmt.Sprintf("apdu: bad status word (0x%04x)", e.Code)
	}
}

// Device frames APDUs over a single HID connection. It performs no retries
// and holds no session state; transport failures surface unchanged to the
// caller. It must not be used from two in-flight operations at once.
type Device struct {
	conn io.ReadWriter
	log  *slog.Logger
}

// NewDevice wraps an open HID connection. A nil logger discards traces.
func NewDevice(conn io.ReadWriter, logger *slog.Logger) *Device {
	if logger == nil {
		logger = slog.New(DiscardHandler{})
	}
	return &Device{conn: conn, log: logger}
}

// Exchange sends one command APDU and blocks for the full reply, with the
// trailing status word checked and stripped. Any status other than 0x9000
// is returned as a *StatusError.
func (d *Device) Exchange(cla, ins, p1, p2 byte, data []byte) ([]byte, error) {
	if len(data) > 0xff {
		return nil, ErrPayloadTooLarge
	}
	// Construct the message payload, possibly split into multiple frames
	apdu := make([]byte, 2, 7+len(data))
	binary.BigEndian.PutUint16(apdu, uint16(5+len(data)))
	apdu = append(apdu, cla, ins, p1, p2, byte(len(data)))
	apdu = append(apdu, data...)

	// Stream all the frames to the device
	header := []byte{0x01, 0x01, tagAPDU, 0x00, 0x00}
	frame := make([]byte, reportSize)
	space := len(frame) - len(header)

	for i := 0; len(apdu) > 0; i++ {
		frame = append(frame[:0], header...)
		binary.BigEndian.PutUint16(frame[3:], uint16(i))

		if len(apdu) > space {
			frame = append(frame, apdu[:space]...)
			apdu = apdu[space:]
		} else {
			frame = append(frame, apdu...)
			apdu = nil
		}
		d.log.Debug("data frame sent to the device", "frame", hex.EncodeToString(frame))
		if _, err := d.conn.Write(frame); err != nil {
			return nil, err
		}
	}
	// Stream the reply back from the device in 64 byte frames
	var reply []byte
	frame = frame[:reportSize]
	for {
		if _, err := io.ReadFull(d.conn, frame); err != nil {
			return nil, err
		}
		d.log.Debug("data frame received from the device", "frame", hex.EncodeToString(frame))

		// Make sure the transport header matches
		if frame[0] != 0x01 || frame[1] != 0x01 || frame[2] != tagAPDU {
			return nil, ErrReplyInvalidHeader
		}
		// If it's the first frame, retrieve the total message length
		var payload []byte
		if frame[3] == 0x00 && frame[4] == 0x00 {
			reply = make([]byte, 0, int(binary.BigEndian.Uint16(frame[5:7])))
			payload = frame[7:]
		} else {
			payload = frame[5:]
		}
		// Append to the reply and stop when filled up
		if left := cap(reply) - len(reply); left > len(payload) {
			reply = append(reply, payload...)
		} else {
			reply = append(reply, payload[:left]...)
			break
		}
	}
	if len(reply) < 2 {
		return nil, ErrTruncatedReply
	}
	status := binary.BigEndian.Uint16(reply[len(reply)-2:])
	if status != statusOK {
		return nil, &StatusError{Code: status}
	}
	return reply[:len(reply)-2], nil
}

// DiscardHandler is an slog handler dropping every record. Replace with
// slog.DiscardHandler once the module floor reaches go1.24.
type DiscardHandler struct{}

func (DiscardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (DiscardHandler) Handle(context.Context, slog.Record) error { return nil }
func (d DiscardHandler) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d DiscardHandler) WithGroup(string) slog.Handler           { return d }
