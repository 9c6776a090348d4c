// Copyright 2024 The ledger-ckb-go Authors
// This file is part of ledger-ckb-go.
//
// ledger-ckb-go is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// ledger-ckb-go is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with ledger-ckb-go. If not, see <http://www.gnu.org/licenses/>.

// ckbledger is a command-line client for the CKB app on Ledger devices.
package main

import (
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"strings"

	ckbledger "github.com/nervosnetwork/ledger-ckb-go"
	"github.com/nervosnetwork/ledger-ckb-go/address"
	"github.com/nervosnetwork/ledger-ckb-go/apdu"
	"github.com/nervosnetwork/ledger-ckb-go/hdpath"
	"github.com/nervosnetwork/ledger-ckb-go/types"
	"github.com/urfave/cli/v2"
)

var (
	pathFlag = &cli.StringFlag{
		Name:  "path",
		Usage: "BIP-32 derivation path of the key to use",
		Value: hdpath.DefaultPath.String(),
	}
	testnetFlag = &cli.BoolFlag{
		Name:  "testnet",
		Usage: "Render addresses with the testnet (ckt) prefix",
	}
	hexFlag = &cli.BoolFlag{
		Name:  "hex",
		Usage: "Treat the message argument as hex and display it as raw bytes on the device",
	}
	verboseFlag = &cli.BoolFlag{
		Name:  "verbose",
		Usage: "Trace the APDU traffic on stderr",
	}
)

var app = &cli.App{
	Name:  "ckbledger",
	Usage: "interact with the CKB app on a Ledger device",
	Flags: []cli.Flag{verboseFlag},
	Commands: []*cli.Command{
		{
			Name:   "version",
			Usage:  "Print the app version and build hash",
			Action: versionCmd,
		},
		{
			Name:   "id",
			Usage:  "Print the wallet identifier",
			Action: walletIDCmd,
		},
		{
			Name:   "address",
			Usage:  "Derive and print the address on a derivation path",
			Flags:  []cli.Flag{pathFlag, testnetFlag},
			Action: addressCmd,
		},
		{
			Name:   "xpub",
			Usage:  "Print the extended public key on a derivation path",
			Flags:  []cli.Flag{pathFlag},
			Action: xpubCmd,
		},
		{
			Name:      "sign-message",
			Usage:     "Sign a message with an on-device confirmation",
			ArgsUsage: "<message>",
			Flags:     []cli.Flag{pathFlag, hexFlag},
			Action:    signMessageCmd,
		},
		{
			Name:      "sign-tx",
			Usage:     "Sign a molecule encoded raw transaction (hex file) with its source transactions",
			ArgsUsage: "<rawtx-file> <source-file>...",
			Flags:     []cli.Flag{pathFlag},
			Action:    signTxCmd,
		},
	},
}

func main() {
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// connect opens the first attached Ledger and wraps it into a client. The
// returned closer must be invoked once the command is done with the device.
func connect(ctx *cli.Context) (*ckbledger.Client, func() error, error) {
	var logger *slog.Logger
	if ctx.Bool(verboseFlag.Name) {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	device, closer, err := apdu.FindLedger(logger)
	if err != nil {
		return nil, nil, err
	}
	return ckbledger.New(device, logger), closer, nil
}

func network(ctx *cli.Context) address.Network {
	if ctx.Bool(testnetFlag.Name) {
		return address.Testnet
	}
	return address.Mainnet
}

func parsePath(ctx *cli.Context) (hdpath.Path, error) {
	return hdpath.Parse(ctx.String(pathFlag.Name))
}

func versionCmd(ctx *cli.Context) error {
	client, closer, err := connect(ctx)
	if err != nil {
		return err
	}
	defer closer()

	version, err := client.AppVersion()
	if err != nil {
		return err
	}
	hash, err := client.AppHash()
	if err != nil {
		return err
	}
	fmt.Printf("CKB app v%s (build %x)\n", version, hash)
	return nil
}

func walletIDCmd(ctx *cli.Context) error {
	client, closer, err := connect(ctx)
	if err != nil {
		return err
	}
	defer closer()

	id, err := client.WalletID()
	if err != nil {
		return err
	}
	fmt.Printf("%x\n", id)
	return nil
}

func addressCmd(ctx *cli.Context) error {
	path, err := parsePath(ctx)
	if err != nil {
		return err
	}
	client, closer, err := connect(ctx)
	if err != nil {
		return err
	}
	defer closer()

	derived, err := client.Address(path, network(ctx))
	if err != nil {
		return err
	}
	fmt.Printf("path:     %s\n", path)
	fmt.Printf("lock arg: %x\n", derived.LockArg)
	fmt.Printf("address:  %s\n", derived.Address)
	return nil
}

func xpubCmd(ctx *cli.Context) error {
	path, err := parsePath(ctx)
	if err != nil {
		return err
	}
	client, closer, err := connect(ctx)
	if err != nil {
		return err
	}
	defer closer()

	xpub, err := client.ExtendedPublicKey(path)
	if err != nil {
		return err
	}
	fmt.Printf("public key: %x\n", xpub.PublicKey)
	fmt.Printf("chain code: %x\n", xpub.ChainCode)
	return nil
}

func signMessageCmd(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return fmt.Errorf("expected exactly one message argument")
	}
	path, err := parsePath(ctx)
	if err != nil {
		return err
	}
	client, closer, err := connect(ctx)
	if err != nil {
		return err
	}
	defer closer()

	var signature []byte
	if ctx.Bool(hexFlag.Name) {
		signature, err = client.SignMessageHex(path, strings.TrimPrefix(ctx.Args().First(), "0x"), true)
	} else {
		signature, err = client.SignMessage(path, []byte(ctx.Args().First()), false)
	}
	if err != nil {
		return err
	}
	fmt.Printf("%x\n", signature)
	return nil
}

func signTxCmd(ctx *cli.Context) error {
	if ctx.NArg() < 1 {
		return fmt.Errorf("expected a raw transaction file")
	}
	path, err := parsePath(ctx)
	if err != nil {
		return err
	}
	tx, err := readTransaction(ctx.Args().First())
	if err != nil {
		return err
	}
	sources := make([]*types.Transaction, 0, ctx.NArg()-1)
	for _, name := range ctx.Args().Slice()[1:] {
		source, err := readTransaction(name)
		if err != nil {
			return err
		}
		sources = append(sources, source)
	}
	client, closer, err := connect(ctx)
	if err != nil {
		return err
	}
	defer closer()

	signature, err := client.SignTransaction(path, tx, nil, sources, nil)
	if err != nil {
		return err
	}
	fmt.Printf("%x\n", signature)
	return nil
}

// readTransaction loads a hex encoded molecule RawTransaction from a file.
func readTransaction(name string) (*types.Transaction, error) {
	blob, err := os.ReadFile(name)
	if err != nil {
		return nil, err
	}
	raw, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(string(blob)), "0x"))
	if err != nil {
		return nil, fmt.Errorf("%s: invalid hex: %w", name, err)
	}
	return types.DecodeTransaction(raw)
}
