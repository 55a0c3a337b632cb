// Package session orchestrates the per-circuit message exchange
// between the garbler and the evaluator: sending garbled tables,
// walking every input combination, running the oblivious-transfer
// sub-dialogue for each of the evaluator's wires, and collecting the
// resulting truth-table rows.
package session

import (
	"encoding/json"
	"fmt"
	"io"
	"log"

	"github.com/vynalcrux/yaogc/circuit"
	"github.com/vynalcrux/yaogc/group"
	"github.com/vynalcrux/yaogc/ot"
	"github.com/vynalcrux/yaogc/p2p"
)

// DefaultGroupBits is the prime-group bit width used for oblivious
// transfer when Config.GroupBits is left at zero — sufficient for
// protocol correctness in demo circuits, not for cryptographic
// hardness (see the group package's doc comment).
const DefaultGroupBits = 64

// Config carries the parameters shared by both roles of a session.
type Config struct {
	// Logger receives progress and warning messages. A nil Logger
	// discards all output.
	Logger *log.Logger

	// Debug enables the insecure disabled-OT fallback, in which the
	// evaluator receives both wire keys outright instead of running
	// the Diffie-Hellman exchange. Must never be set outside testing.
	Debug bool

	// GroupBits is the prime-group bit width the garbler uses for
	// each oblivious transfer. Zero selects DefaultGroupBits.
	GroupBits int

	// Level gates which messages reach Logger. A zero Level is
	// LevelDebug, but debugTrace only fires when a real Logger is
	// also configured, so leaving both fields unset stays silent.
	Level Level
}

func (c Config) logger() *log.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return log.New(io.Discard, "", 0)
}

func (c Config) groupBits() int {
	if c.GroupBits <= 0 {
		return DefaultGroupBits
	}
	return c.GroupBits
}

// debugTrace reports whether the prime groups used for oblivious
// transfer should log each generator exponentiation they perform.
func (c Config) debugTrace() bool {
	return c.Logger != nil && c.Level.Enabled(LevelDebug)
}

// Role is a party's side of the protocol, run once per TCP connection.
// Evaluator implements it; Garbler's Run also returns the collected
// truth tables and so has a different signature.
type Role interface {
	Run(conn *p2p.Conn) error
}

// Row is one line of a circuit's truth table: the clear input bits in
// declaration order (Alice's wires, then Bob's) and the clear output
// bits in the circuit's declared output order.
type Row struct {
	AliceBits []bool
	BobBits   []bool
	OutBits   []bool
}

// CircuitResult collects every row the garbler observed for one
// circuit of a circuit file.
type CircuitResult struct {
	Spec circuit.CircuitSpec
	Rows []Row
}

// circuitPayload is the one-time message the garbler sends the
// evaluator before walking input combinations: the gate list, the
// garbled tables, and the output wires' p-bits.
type circuitPayload struct {
	Circuit  circuit.CircuitSpec            `json:"circuit"`
	Tables   map[circuit.Wire]circuit.GarbledGate `json:"garbled_tables"`
	PBitsOut map[circuit.Wire]int                  `json:"p_bits_out"`
}

// Garbler is Alice's role: it builds a GarbledCircuit per circuit in
// the file, ships it to the evaluator, and for every input combination
// supplies its own wire values and answers the evaluator's
// oblivious-transfer requests for Bob's wires.
type Garbler struct {
	File   *circuit.CircuitFile
	Config Config
}

// NewGarbler creates a Garbler for every circuit in file.
func NewGarbler(file *circuit.CircuitFile, cfg Config) *Garbler {
	return &Garbler{File: file, Config: cfg}
}

// Run sends and drives every circuit in the file over conn in turn,
// returning the truth table rows observed for each.
func (g *Garbler) Run(conn *p2p.Conn) ([]CircuitResult, error) {
	var results []CircuitResult
	for _, spec := range g.File.Circuits {
		spec := spec
		res, err := g.runCircuit(conn, &spec)
		if err != nil {
			return results, err
		}
		results = append(results, *res)
	}
	if err := conn.SendUint32(p2p.OpDone); err != nil {
		return results, &TransportError{"sending OpDone", err}
	}
	if err := conn.Flush(); err != nil {
		return results, &TransportError{"flushing OpDone", err}
	}
	return results, nil
}

func (g *Garbler) runCircuit(conn *p2p.Conn, spec *circuit.CircuitSpec) (*CircuitResult, error) {
	gc, err := circuit.NewGarbledCircuit(spec)
	if err != nil {
		return nil, err
	}

	payload := circuitPayload{
		Circuit:  *spec,
		Tables:   gc.Tables,
		PBitsOut: gc.OutputPBits(),
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("session: marshaling circuit %s: %w", spec.ID, err)
	}
	if err := conn.SendUint32(p2p.OpCircuit); err != nil {
		return nil, &TransportError{"sending OpCircuit", err}
	}
	if err := conn.SendData(data); err != nil {
		return nil, &TransportError{"sending circuit payload", err}
	}
	if err := conn.Flush(); err != nil {
		return nil, &TransportError{"flushing circuit payload", err}
	}

	op, err := conn.ReceiveUint32()
	if err != nil {
		return nil, &TransportError{"receiving ack", err}
	}
	if op != p2p.OpAck {
		return nil, &TransportError{Reason: fmt.Sprintf("expected OpAck, got %d", op)}
	}

	g.Config.logger().Printf("garbler: sent circuit %s, %d wires", spec.ID, len(gc.Wires))

	result := &CircuitResult{Spec: *spec}
	total := len(spec.Alice) + len(spec.Bob)

	for n := 0; n < 1<<uint(total); n++ {
		bits := indexBits(n, total)
		aliceBits := bits[:len(spec.Alice)]
		bobBits := bits[len(spec.Alice):]

		if err := conn.SendUint32(p2p.OpAliceInputs); err != nil {
			return nil, &TransportError{"sending OpAliceInputs", err}
		}
		if err := conn.SendUint32(len(spec.Alice)); err != nil {
			return nil, &TransportError{"sending alice wire count", err}
		}
		for i, w := range spec.Alice {
			b := boolBit(aliceBits[i])
			wv := circuit.WireValue{Key: gc.Keys[w].Pair[b], EncBit: b ^ gc.PBits[w]}
			if err := conn.SendUint32(int(w)); err != nil {
				return nil, &TransportError{"sending alice wire id", err}
			}
			if err := conn.SendData(circuit.EncodeWireValue(wv)); err != nil {
				return nil, &TransportError{"sending alice wire value", err}
			}
		}
		if err := conn.Flush(); err != nil {
			return nil, &TransportError{"flushing alice inputs", err}
		}

		for range spec.Bob {
			if err := g.answerWireRequest(conn, gc); err != nil {
				return nil, err
			}
		}

		op, err := conn.ReceiveUint32()
		if err != nil {
			return nil, &TransportError{"receiving result op", err}
		}
		if op != p2p.OpResult {
			return nil, &TransportError{Reason: fmt.Sprintf("expected OpResult, got %d", op)}
		}
		outBits := make([]bool, len(spec.Out))
		for i := range spec.Out {
			b, err := conn.ReceiveByte()
			if err != nil {
				return nil, &TransportError{"receiving output bit", err}
			}
			outBits[i] = b != 0
		}

		result.Rows = append(result.Rows, Row{
			AliceBits: boolSlice(aliceBits),
			BobBits:   boolSlice(bobBits),
			OutBits:   outBits,
		})
	}

	return result, nil
}

// answerWireRequest handles one evaluator request for a single Bob
// wire's value: either the insecure disabled-mode raw pair, or a real
// Smart DH oblivious transfer.
func (g *Garbler) answerWireRequest(conn *p2p.Conn, gc *circuit.GarbledCircuit) error {
	op, err := conn.ReceiveUint32()
	if err != nil {
		return &TransportError{"receiving wire request op", err}
	}
	wireID, err := conn.ReceiveUint32()
	if err != nil {
		return &TransportError{"receiving wire id", err}
	}
	w := circuit.Wire(wireID)
	v0 := circuit.WireValue{Key: gc.Keys[w].Pair[0], EncBit: 0 ^ gc.PBits[w]}
	v1 := circuit.WireValue{Key: gc.Keys[w].Pair[1], EncBit: 1 ^ gc.PBits[w]}

	switch op {
	case p2p.OpDisabledPairRequest:
		if !g.Config.Debug {
			return &TransportError{Reason: "evaluator requested disabled OT but session is not in debug mode"}
		}
		g.Config.logger().Printf("warning: disabled OT used for wire %d", w)
		if err := conn.SendData(circuit.EncodeWireValue(v0)); err != nil {
			return &TransportError{"sending disabled pair v0", err}
		}
		if err := conn.SendData(circuit.EncodeWireValue(v1)); err != nil {
			return &TransportError{"sending disabled pair v1", err}
		}
		return flushErr(conn)

	case p2p.OpOTRequest:
		pg, err := group.NewPrimeGroup(g.Config.groupBits())
		if err != nil {
			return err
		}
		if g.Config.debugTrace() {
			pg.Logger = g.Config.logger()
		}
		sender, err := ot.NewSender(pg)
		if err != nil {
			return err
		}
		if err := conn.SendBigInt(pg.P); err != nil {
			return &TransportError{"sending group P", err}
		}
		if err := conn.SendBigInt(pg.G); err != nil {
			return &TransportError{"sending group G", err}
		}
		if err := conn.SendBigInt(sender.C()); err != nil {
			return &TransportError{"sending sender C", err}
		}
		if err := conn.Flush(); err != nil {
			return &TransportError{"flushing OT first message", err}
		}

		h0, err := conn.ReceiveBigInt()
		if err != nil {
			return &TransportError{"receiving chooser reply", err}
		}

		xfer, err := sender.NewTransfer()
		if err != nil {
			return err
		}
		c1, e0, e1, err := xfer.Encrypt(h0, circuit.EncodeWireValue(v0), circuit.EncodeWireValue(v1))
		if err != nil {
			return err
		}
		if err := conn.SendBigInt(c1); err != nil {
			return &TransportError{"sending c1", err}
		}
		if err := conn.SendData(e0); err != nil {
			return &TransportError{"sending e0", err}
		}
		if err := conn.SendData(e1); err != nil {
			return &TransportError{"sending e1", err}
		}
		return flushErr(conn)

	default:
		return &TransportError{Reason: fmt.Sprintf("unexpected wire request op %d", op)}
	}
}

// Evaluator is Bob's role: it receives each circuit's garbled tables,
// then for every input combination receives Alice's wire values,
// requests its own wires via oblivious transfer, evaluates the
// circuit, and reports the output bits.
type Evaluator struct {
	Config Config
}

// NewEvaluator creates an Evaluator with the given configuration.
func NewEvaluator(cfg Config) *Evaluator {
	return &Evaluator{Config: cfg}
}

// Run drives every circuit the garbler sends over conn until the
// garbler signals it is done.
func (e *Evaluator) Run(conn *p2p.Conn) error {
	for {
		op, err := conn.ReceiveUint32()
		if err != nil {
			return &TransportError{"receiving next op", err}
		}
		switch op {
		case p2p.OpDone:
			return nil
		case p2p.OpCircuit:
			if err := e.runCircuit(conn); err != nil {
				return err
			}
		default:
			return &TransportError{Reason: fmt.Sprintf("expected OpCircuit or OpDone, got %d", op)}
		}
	}
}

func (e *Evaluator) runCircuit(conn *p2p.Conn) error {
	data, err := conn.ReceiveData()
	if err != nil {
		return &TransportError{"receiving circuit payload", err}
	}
	var payload circuitPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return &circuit.ConfigError{Reason: fmt.Sprintf("invalid circuit payload: %v", err)}
	}
	spec := payload.Circuit

	if err := conn.SendUint32(p2p.OpAck); err != nil {
		return &TransportError{"sending ack", err}
	}
	if err := conn.Flush(); err != nil {
		return &TransportError{"flushing ack", err}
	}

	e.Config.logger().Printf("evaluator: received circuit %s", spec.ID)

	total := len(spec.Alice) + len(spec.Bob)
	for n := 0; n < 1<<uint(total); n++ {
		bits := indexBits(n, total)
		bobBits := bits[len(spec.Alice):]

		op, err := conn.ReceiveUint32()
		if err != nil {
			return &TransportError{"receiving alice inputs op", err}
		}
		if op != p2p.OpAliceInputs {
			return &TransportError{Reason: fmt.Sprintf("expected OpAliceInputs, got %d", op)}
		}
		count, err := conn.ReceiveUint32()
		if err != nil {
			return &TransportError{"receiving alice wire count", err}
		}

		values := make(map[circuit.Wire]circuit.WireValue, count+len(spec.Bob))
		for i := 0; i < count; i++ {
			wireID, err := conn.ReceiveUint32()
			if err != nil {
				return &TransportError{"receiving alice wire id", err}
			}
			wvData, err := conn.ReceiveData()
			if err != nil {
				return &TransportError{"receiving alice wire value", err}
			}
			wv, ok := circuit.DecodeWireValue(wvData)
			if !ok {
				return &TransportError{Reason: "malformed alice wire value"}
			}
			values[circuit.Wire(wireID)] = wv
		}

		for i, w := range spec.Bob {
			wv, err := e.requestWire(conn, w, boolBit(bobBits[i]))
			if err != nil {
				return err
			}
			values[w] = wv
		}

		evaluated, err := circuit.Eval(&spec, payload.Tables, values)
		if err != nil {
			return err
		}
		out, err := circuit.Output(&spec, evaluated, payload.PBitsOut)
		if err != nil {
			return err
		}

		if err := conn.SendUint32(p2p.OpResult); err != nil {
			return &TransportError{"sending OpResult", err}
		}
		for _, w := range spec.Out {
			b := byte(0)
			if out[w] {
				b = 1
			}
			if err := conn.SendByte(b); err != nil {
				return &TransportError{"sending output bit", err}
			}
		}
		if err := conn.Flush(); err != nil {
			return &TransportError{"flushing result", err}
		}
	}
	return nil
}

// requestWire fetches the value of Bob's wire w carrying bit, via the
// disabled-mode fallback when Config.Debug is set, or via the real
// Smart DH oblivious transfer otherwise.
func (e *Evaluator) requestWire(conn *p2p.Conn, w circuit.Wire, bit int) (circuit.WireValue, error) {
	if e.Config.Debug {
		if err := conn.SendUint32(p2p.OpDisabledPairRequest); err != nil {
			return circuit.WireValue{}, &TransportError{"sending disabled pair request", err}
		}
		if err := conn.SendUint32(int(w)); err != nil {
			return circuit.WireValue{}, &TransportError{"sending wire id", err}
		}
		if err := conn.Flush(); err != nil {
			return circuit.WireValue{}, &TransportError{"flushing disabled pair request", err}
		}
		e.Config.logger().Printf("warning: disabled OT used for wire %d", w)

		d0, err := conn.ReceiveData()
		if err != nil {
			return circuit.WireValue{}, &TransportError{"receiving disabled pair v0", err}
		}
		d1, err := conn.ReceiveData()
		if err != nil {
			return circuit.WireValue{}, &TransportError{"receiving disabled pair v1", err}
		}
		pair := ot.DisabledPair{M0: d0, M1: d1}
		v, ok := circuit.DecodeWireValue(pair.Choose(bit))
		if !ok {
			return circuit.WireValue{}, &TransportError{Reason: "malformed disabled pair"}
		}
		return v, nil
	}

	if err := conn.SendUint32(p2p.OpOTRequest); err != nil {
		return circuit.WireValue{}, &TransportError{"sending OT request", err}
	}
	if err := conn.SendUint32(int(w)); err != nil {
		return circuit.WireValue{}, &TransportError{"sending wire id", err}
	}
	if err := conn.Flush(); err != nil {
		return circuit.WireValue{}, &TransportError{"flushing OT request", err}
	}

	p, err := conn.ReceiveBigInt()
	if err != nil {
		return circuit.WireValue{}, &TransportError{"receiving group P", err}
	}
	gGen, err := conn.ReceiveBigInt()
	if err != nil {
		return circuit.WireValue{}, &TransportError{"receiving group G", err}
	}
	senderC, err := conn.ReceiveBigInt()
	if err != nil {
		return circuit.WireValue{}, &TransportError{"receiving sender C", err}
	}

	pg := group.FromParams(p, gGen)
	if e.Config.debugTrace() {
		pg.Logger = e.Config.logger()
	}
	chooser, err := ot.NewChooser(pg, bit)
	if err != nil {
		return circuit.WireValue{}, err
	}
	xfer := chooser.NewTransfer(senderC)
	if err := conn.SendBigInt(xfer.Reply()); err != nil {
		return circuit.WireValue{}, &TransportError{"sending chooser reply", err}
	}
	if err := conn.Flush(); err != nil {
		return circuit.WireValue{}, &TransportError{"flushing chooser reply", err}
	}

	c1, err := conn.ReceiveBigInt()
	if err != nil {
		return circuit.WireValue{}, &TransportError{"receiving c1", err}
	}
	e0, err := conn.ReceiveData()
	if err != nil {
		return circuit.WireValue{}, &TransportError{"receiving e0", err}
	}
	e1, err := conn.ReceiveData()
	if err != nil {
		return circuit.WireValue{}, &TransportError{"receiving e1", err}
	}

	msg, err := xfer.Open(c1, e0, e1)
	if err != nil {
		return circuit.WireValue{}, err
	}
	wv, ok := circuit.DecodeWireValue(msg)
	if !ok {
		return circuit.WireValue{}, &TransportError{Reason: "malformed OT payload"}
	}
	return wv, nil
}

func flushErr(conn *p2p.Conn) error {
	if err := conn.Flush(); err != nil {
		return &TransportError{"flush", err}
	}
	return nil
}

// indexBits returns the total-bit-wide binary expansion of n, most
// significant bit first — the same zero-padded lexicographic
// enumeration the reference implementation uses to walk every input
// combination.
func indexBits(n, total int) []int {
	bits := make([]int, total)
	for i := total - 1; i >= 0; i-- {
		bits[i] = n & 1
		n >>= 1
	}
	return bits
}

func boolBit(bit int) int {
	if bit != 0 {
		return 1
	}
	return 0
}

func boolSlice(bits []int) []bool {
	out := make([]bool, len(bits))
	for i, b := range bits {
		out[i] = b != 0
	}
	return out
}
