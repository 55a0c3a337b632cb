package circuit

import (
	"fmt"

	"github.com/vynalcrux/yaogc/symcipher"
)

// EvaluationError reports a failure evaluating a specific gate of a
// garbled circuit — almost always a sign that the wrong row was
// decrypted, which should never happen given well-formed input wire
// values.
type EvaluationError struct {
	Gate Wire
	Err  error
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("circuit: gate %d: %v", e.Gate, e.Err)
}

func (e *EvaluationError) Unwrap() error { return e.Err }

// WireValue is what an evaluator holds for a wire during evaluation:
// the key corresponding to whichever bit that wire carries, and that
// bit's p-bit-masked (encrypted) value.
type WireValue struct {
	Key    []byte
	EncBit int
}

// row returns the canonical-order row of a garbled gate matching the
// given encrypted input bit(s), computed directly from garbleGate's
// iteration order rather than scanned for.
func (gg *GarbledGate) row(bits ...int) (GarbledRow, error) {
	var idx int
	switch gg.Type {
	case NOT:
		if len(bits) != 1 {
			return GarbledRow{}, fmt.Errorf("circuit: NOT row wants 1 bit, got %d", len(bits))
		}
		idx = bits[0]
	default:
		if len(bits) != 2 {
			return GarbledRow{}, fmt.Errorf("circuit: gate row wants 2 bits, got %d", len(bits))
		}
		idx = bits[0]*2 + bits[1]
	}
	if idx < 0 || idx >= len(gg.Rows) {
		return GarbledRow{}, fmt.Errorf("circuit: row index %d out of range", idx)
	}
	return gg.Rows[idx], nil
}

// Eval evaluates a garbled circuit gate by gate given the evaluator's
// starting wire values (Alice's and Bob's encrypted inputs) and the
// garbled tables produced for it, and returns the resulting encrypted
// bit for every wire the circuit defines. The caller recovers the
// clear output bit by XORing with the output wire's p-bit (known only
// to the garbler, sent alongside the tables for the circuit's declared
// output wires).
func Eval(spec *CircuitSpec, tables map[Wire]GarbledGate, inputs map[Wire]WireValue) (map[Wire]WireValue, error) {
	values := make(map[Wire]WireValue, len(inputs))
	for w, v := range inputs {
		values[w] = v
	}

	for _, g := range spec.Gates {
		gg, ok := tables[g.ID]
		if !ok {
			return nil, &EvaluationError{g.ID, fmt.Errorf("missing garbled table")}
		}

		var bits []int
		var keys [][]byte
		for _, in := range g.In {
			v, ok := values[in]
			if !ok {
				return nil, &EvaluationError{g.ID, fmt.Errorf("missing value for wire %d", in)}
			}
			bits = append(bits, v.EncBit)
			keys = append(keys, v.Key)
		}

		row, err := gg.row(bits...)
		if err != nil {
			return nil, &EvaluationError{g.ID, err}
		}

		var msg []byte
		switch g.Type {
		case NOT:
			msg, err = symcipher.Decrypt(keys[0], row.Ciphertext)
		default:
			inner, derr := symcipher.Decrypt(keys[0], row.Ciphertext)
			if derr != nil {
				err = derr
				break
			}
			msg, err = symcipher.Decrypt(keys[1], inner)
		}
		if err != nil {
			return nil, &EvaluationError{g.ID, err}
		}

		keyOut, encrBitOut, ok := decodeRow(msg)
		if !ok {
			return nil, &EvaluationError{g.ID, fmt.Errorf("malformed row payload")}
		}
		values[g.ID] = WireValue{Key: keyOut, EncBit: encrBitOut}
	}

	return values, nil
}

// Output extracts the clear output bits from a completed evaluation,
// given the garbler-supplied p-bits of the output wires.
func Output(spec *CircuitSpec, values map[Wire]WireValue, outPBits map[Wire]int) (map[Wire]bool, error) {
	result := make(map[Wire]bool, len(spec.Out))
	for _, w := range spec.Out {
		v, ok := values[w]
		if !ok {
			return nil, fmt.Errorf("circuit: no evaluated value for output wire %d", w)
		}
		p, ok := outPBits[w]
		if !ok {
			return nil, fmt.Errorf("circuit: no p-bit for output wire %d", w)
		}
		result[w] = (v.EncBit ^ p) != 0
	}
	return result, nil
}
