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

package apdu

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/karalabe/hid"
)

// ledgerVendorID is the USB vendor identifier shared by all Ledger devices.
const ledgerVendorID = 0x2c97

// ledgerUsagePage marks the HID interface carrying the APDU channel, as
// opposed to the U2F and WebUSB interfaces the same device exposes.
const ledgerUsagePage = 0xffa0

var (
	// ErrHIDUnsupported is returned on platforms without HID access.
	ErrHIDUnsupported = errors.New("apdu: hid not supported on this platform")

	// ErrNoDevice is returned when enumeration finds no usable Ledger.
	ErrNoDevice = errors.New("apdu: no ledger device found")
)

// Enumerate lists the HID endpoints of all attached Ledger devices.
func Enumerate() ([]hid.DeviceInfo, error) {
	if !hid.Supported() {
		return nil, ErrHIDUnsupported
	}
	var devices []hid.DeviceInfo
	infos, err := hid.Enumerate(ledgerVendorID, 0)
	if err != nil {
		return nil, fmt.Errorf("apdu: usb enumeration failed: %w", err)
	}
	for _, info := range infos {
		// The APDU channel sits on the dedicated usage page, or on
		// interface zero for firmwares predating usage page reporting.
		if info.UsagePage == ledgerUsagePage || info.Interface == 0 {
			devices = append(devices, info)
		}
	}
	return devices, nil
}

// FindLedger opens the first attached Ledger device and wraps it into an
// APDU device. The caller owns the returned closer.
func FindLedger(logger *slog.Logger) (*Device, func() error, error) {
	devices, err := Enumerate()
	if err != nil {
		return nil, nil, err
	}
	if len(devices) == 0 {
		return nil, nil, ErrNoDevice
	}
	conn, err := devices[0].Open()
	if err != nil {
		return nil, nil, fmt.Errorf("apdu: opening %s failed: %w", devices[0].Path, err)
	}
	return NewDevice(conn, logger), conn.Close, nil
}
