package script

import (
	"fmt"
	"strings"
)

// Params holds the address encoding parameters of a Bitcoin network.
type Params struct {
	// Name is the network name accepted by ParamsForNetwork.
	Name string

	// PubKeyHashAddrID is the base58check version byte of P2PKH
	// addresses.
	PubKeyHashAddrID byte

	// ScriptHashAddrID is the base58check version byte of P2SH
	// addresses.
	ScriptHashAddrID byte

	// Bech32HRP is the human-readable part of segwit addresses.
	Bech32HRP string
}

// MainNetParams are the address parameters of the main network.
var MainNetParams = Params{
	Name:             "mainnet",
	PubKeyHashAddrID: 0x00, // starts with 1
	ScriptHashAddrID: 0x05, // starts with 3
	Bech32HRP:        "bc",
}

// TestNet3Params are the address parameters of the version 3 test network.
var TestNet3Params = Params{
	Name:             "testnet3",
	PubKeyHashAddrID: 0x6f, // starts with m or n
	ScriptHashAddrID: 0xc4, // starts with 2
	Bech32HRP:        "tb",
}

// RegressionNetParams are the address parameters of the regression test
// network.
var RegressionNetParams = Params{
	Name:             "regtest",
	PubKeyHashAddrID: 0x6f,
	ScriptHashAddrID: 0xc4,
	Bech32HRP:        "bcrt",
}

var networkAliases = map[string]*Params{
	"mainnet":  &MainNetParams,
	"main":     &MainNetParams,
	"bitcoin":  &MainNetParams,
	"testnet3": &TestNet3Params,
	"testnet":  &TestNet3Params,
	"test":     &TestNet3Params,
	"regtest":  &RegressionNetParams,
	"regnet":   &RegressionNetParams,
}

// ParamsForNetwork returns the parameters for a network name. Names are
// case insensitive.
func ParamsForNetwork(name string) (*Params, error) {
	if p, ok := networkAliases[strings.ToLower(strings.TrimSpace(name))]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("unknown network %q", name)
}
