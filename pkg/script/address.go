package script

import (
	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/btcsuite/btcd/btcutil/bech32"

	"github.com/suffix-labs/bitcoin-block/pkg/crypto"
)

// Witness program length limits for versions other than zero.
const (
	minWitnessProgramSize = 2
	maxWitnessProgramSize = 40
)

// EncodeAddress encodes dest, extracted from a script of the given class,
// as an address on the network described by params.
//
// Pubkeys of pubkey and multisig scripts are hashed with HASH160 and
// encoded like pubkey hashes. Script hashes use the script hash version
// byte. Witness programs are bech32 encoded with their version. An empty
// string is returned for classes without an address form and for witness
// programs outside the version 1 to 16, length 2 to 40 range.
func EncodeAddress(dest Destination, class ScriptClass, params *Params) string {
	if params == nil {
		params = &MainNetParams
	}

	switch class {
	case PubKeyTy, MultiSigTy:
		h := crypto.Hash160(dest.Data)
		return base58.CheckEncode(h[:], params.PubKeyHashAddrID)

	case PubKeyHashTy:
		return base58.CheckEncode(dest.Data, params.PubKeyHashAddrID)

	case ScriptHashTy:
		return base58.CheckEncode(dest.Data, params.ScriptHashAddrID)

	case WitnessV0PubKeyHashTy, WitnessV0ScriptHashTy:
		return encodeSegWitAddress(params.Bech32HRP, 0, dest.Data)

	case WitnessUnknownTy:
		v := dest.WitnessVersion
		if v < 1 || v > 16 {
			return ""
		}
		if len(dest.Data) < minWitnessProgramSize || len(dest.Data) > maxWitnessProgramSize {
			return ""
		}
		return encodeSegWitAddress(params.Bech32HRP, byte(v), dest.Data)
	}

	return ""
}

// EncodeAddresses extracts the destinations of script and encodes each of
// them. It returns nil when the script has no destinations.
func EncodeAddresses(script []byte, params *Params) []string {
	dests, ok := ExtractDestinations(script)
	if !ok {
		return nil
	}
	addrs := make([]string, 0, len(dests.Destinations))
	for _, d := range dests.Destinations {
		if addr := EncodeAddress(d, dests.Class, params); addr != "" {
			addrs = append(addrs, addr)
		}
	}
	return addrs
}

// encodeSegWitAddress bech32 encodes a witness version and program.
func encodeSegWitAddress(hrp string, version byte, program []byte) string {
	converted, err := bech32.ConvertBits(program, 8, 5, true)
	if err != nil {
		return ""
	}
	data := append([]byte{version}, converted...)
	addr, err := bech32.Encode(hrp, data)
	if err != nil {
		return ""
	}
	return addr
}
