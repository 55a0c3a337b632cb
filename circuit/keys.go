package circuit

import (
	"crypto/rand"

	"github.com/vynalcrux/yaogc/symcipher"
)

// KeySize is the length in bytes of a single wire key.
const KeySize = symcipher.KeySize

// WireKeys is the pair of keys assigned to a wire: Pair[0] is the key
// for the wire carrying bit 0, Pair[1] for bit 1.
type WireKeys struct {
	Pair [2][]byte
}

// GarbledCircuit holds everything the garbler computes for one
// CircuitSpec: every wire's key pair and p-bit, plus every gate's
// garbled table (built by NewGarbledCircuit).
type GarbledCircuit struct {
	Spec  *CircuitSpec
	Wires []Wire

	Keys  map[Wire]WireKeys
	PBits map[Wire]int

	Tables map[Wire]GarbledGate
}

// NewGarbledCircuit collects every wire referenced by spec, assigns it
// a fresh key pair and a random p-bit, and garbles every gate's table.
// spec must already have passed validate (ParseFile does this).
func NewGarbledCircuit(spec *CircuitSpec) (*GarbledCircuit, error) {
	gc := &GarbledCircuit{
		Spec:  spec,
		Keys:  make(map[Wire]WireKeys),
		PBits: make(map[Wire]int),
	}

	seen := make(map[Wire]bool)
	add := func(w Wire) {
		if !seen[w] {
			seen[w] = true
			gc.Wires = append(gc.Wires, w)
		}
	}
	for _, w := range spec.Alice {
		add(w)
	}
	for _, w := range spec.Bob {
		add(w)
	}
	for _, g := range spec.Gates {
		for _, w := range g.In {
			add(w)
		}
		add(g.ID)
	}

	for _, w := range gc.Wires {
		pbit, err := randBit()
		if err != nil {
			return nil, err
		}
		gc.PBits[w] = pbit

		k0, err := randKey()
		if err != nil {
			return nil, err
		}
		k1, err := randKey()
		if err != nil {
			return nil, err
		}
		gc.Keys[w] = WireKeys{Pair: [2][]byte{k0, k1}}
	}

	if err := gc.garbleAll(); err != nil {
		return nil, err
	}
	return gc, nil
}

// OutputPBits returns the p-bits of the circuit's output wires, the
// piece of information needed to recover the clear output bit from an
// evaluated wire's encrypted bit.
func (gc *GarbledCircuit) OutputPBits() map[Wire]int {
	out := make(map[Wire]int, len(gc.Spec.Out))
	for _, w := range gc.Spec.Out {
		out[w] = gc.PBits[w]
	}
	return out
}

func randKey() ([]byte, error) {
	k := make([]byte, KeySize)
	if _, err := rand.Read(k); err != nil {
		return nil, err
	}
	return k, nil
}

func randBit() (int, error) {
	var b [1]byte
	if _, err := rand.Read(b[:]); err != nil {
		return 0, err
	}
	return int(b[0] & 1), nil
}
