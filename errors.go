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

package ckbledger

import (
	"errors"
)

// ErrInvalidReply is returned when a device reply is too short or malformed
// for the fixed fields the operation requires. Transport level failures are
// never wrapped into it; they surface unchanged.
var ErrInvalidReply = errors.New("ckbledger: invalid device reply")
