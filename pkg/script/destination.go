package script

// Destination is a payee extracted from an output script: a pubkey, a
// pubkey or script hash, or a witness program.
type Destination struct {
	Data []byte

	// WitnessVersion is the witness version of a WitnessUnknownTy
	// program and zero otherwise.
	WitnessVersion int
}

// Destinations are the payees of an output script and the number of
// signatures required to spend it.
type Destinations struct {
	Class        ScriptClass
	Destinations []Destination
	Required     int
}

// ExtractDestinations returns the payees of script. It reports false for
// nonstandard and null data scripts, and for multisig scripts without a
// single well-formed pubkey.
func ExtractDestinations(script []byte) (*Destinations, bool) {
	sol := Solve(script)

	switch sol.Class {
	case NonStandardTy, NullDataTy:
		return nil, false

	case MultiSigTy:
		dests := &Destinations{
			Class:    sol.Class,
			Required: int(sol.Solutions[0][0]),
		}
		for _, pubKey := range sol.Solutions[1 : len(sol.Solutions)-1] {
			if PubKeyValidSize(pubKey) {
				dests.Destinations = append(dests.Destinations, Destination{Data: pubKey})
			}
		}
		if len(dests.Destinations) == 0 {
			return nil, false
		}
		return dests, true

	case WitnessUnknownTy:
		return &Destinations{
			Class: sol.Class,
			Destinations: []Destination{{
				Data:           sol.Solutions[1],
				WitnessVersion: int(sol.Solutions[0][0]),
			}},
			Required: 1,
		}, true

	case PubKeyTy:
		if !PubKeyValidSize(sol.Solutions[0]) {
			return nil, false
		}
	}

	return &Destinations{
		Class:        sol.Class,
		Destinations: []Destination{{Data: sol.Solutions[0]}},
		Required:     1,
	}, true
}
