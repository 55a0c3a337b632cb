package circuit

import (
	"github.com/vynalcrux/yaogc/symcipher"
)

// GarbledRow is one row of a garbled gate's table: the encrypted input
// bits that select it, and the resulting ciphertext. Rows are stored
// in the canonical order produced by garbleGate (encr_bit_a, then
// encr_bit_b, both ascending), which lets an evaluator that already
// knows its encrypted input bits index straight into Rows without a
// map lookup.
type GarbledRow struct {
	EncBits    []int
	Ciphertext []byte
}

// GarbledGate is the garbled table for a single gate: every row is a
// point-and-permute encryption of the gate's output key and encrypted
// (p-bit-masked) output bit, under the gate's input wire keys — double
// for a 2-input gate, single for NOT.
type GarbledGate struct {
	ID   Wire
	Type GateType
	Rows []GarbledRow
}

// garbleAll builds the garbled table for every gate of gc.Spec.
func (gc *GarbledCircuit) garbleAll() error {
	gc.Tables = make(map[Wire]GarbledGate, len(gc.Spec.Gates))
	for _, g := range gc.Spec.Gates {
		gg, err := gc.garbleGate(g)
		if err != nil {
			return err
		}
		gc.Tables[g.ID] = gg
	}
	return nil
}

// garbleGate implements the point-and-permute double encryption: for
// every combination of encrypted input bits, recover the clear input
// bits via each wire's p-bit, evaluate the gate's boolean function,
// re-encrypt the output bit under the output wire's p-bit, and encrypt
// the output key and encrypted output bit under the input key(s) —
// nested for a 2-input gate (inner layer under key_b, outer layer
// under key_a), single for NOT.
func (gc *GarbledCircuit) garbleGate(g Gate) (GarbledGate, error) {
	out := GarbledGate{ID: g.ID, Type: g.Type}

	if g.Type == NOT {
		in := g.In[0]
		for encBit := 0; encBit <= 1; encBit++ {
			bitIn := encBit ^ gc.PBits[in]
			bitOut, err := g.Type.Eval(bitIn != 0)
			if err != nil {
				return GarbledGate{}, err
			}
			encBitOut := boolToInt(bitOut) ^ gc.PBits[g.ID]
			keyIn := gc.Keys[in].Pair[bitIn]
			keyOut := gc.Keys[g.ID].Pair[boolToInt(bitOut)]

			msg := encodeRow(keyOut, encBitOut)
			ct, err := symcipher.Encrypt(keyIn, msg)
			if err != nil {
				return GarbledGate{}, err
			}
			out.Rows = append(out.Rows, GarbledRow{EncBits: []int{encBit}, Ciphertext: ct})
		}
		return out, nil
	}

	inA, inB := g.In[0], g.In[1]
	for encA := 0; encA <= 1; encA++ {
		for encB := 0; encB <= 1; encB++ {
			bitA := encA ^ gc.PBits[inA]
			bitB := encB ^ gc.PBits[inB]
			bitOut, err := g.Type.Eval(bitA != 0, bitB != 0)
			if err != nil {
				return GarbledGate{}, err
			}
			encBitOut := boolToInt(bitOut) ^ gc.PBits[g.ID]
			keyA := gc.Keys[inA].Pair[bitA]
			keyB := gc.Keys[inB].Pair[bitB]
			keyOut := gc.Keys[g.ID].Pair[boolToInt(bitOut)]

			msg := encodeRow(keyOut, encBitOut)
			inner, err := symcipher.Encrypt(keyB, msg)
			if err != nil {
				return GarbledGate{}, err
			}
			outer, err := symcipher.Encrypt(keyA, inner)
			if err != nil {
				return GarbledGate{}, err
			}
			out.Rows = append(out.Rows, GarbledRow{EncBits: []int{encA, encB}, Ciphertext: outer})
		}
	}
	return out, nil
}

// encodeRow serializes (key, encrBit) into the payload a table row
// encrypts: the key bytes followed by a single trailing bit byte.
func encodeRow(key []byte, encrBit int) []byte {
	msg := make([]byte, len(key)+1)
	copy(msg, key)
	msg[len(key)] = byte(encrBit)
	return msg
}

// decodeRow splits a decrypted row payload back into its key and
// encrypted output bit.
func decodeRow(msg []byte) (key []byte, encrBit int, ok bool) {
	if len(msg) != KeySize+1 {
		return nil, 0, false
	}
	return msg[:KeySize], int(msg[KeySize]), true
}

// EncodeWireValue serializes a wire's (key, encrypted bit) pair into
// the flat byte form carried as an oblivious-transfer message.
func EncodeWireValue(wv WireValue) []byte {
	return encodeRow(wv.Key, wv.EncBit)
}

// DecodeWireValue reverses EncodeWireValue.
func DecodeWireValue(data []byte) (WireValue, bool) {
	key, bit, ok := decodeRow(data)
	if !ok {
		return WireValue{}, false
	}
	return WireValue{Key: key, EncBit: bit}, true
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
