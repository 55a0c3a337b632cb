// Package ot implements Nigel Smart's Diffie-Hellman-based 1-out-of-2
// oblivious transfer: a Sender (the garbler) holds two messages, a
// Chooser (the evaluator) holds a selection bit, and the protocol lets
// the Chooser learn exactly the message it selected without revealing
// its bit to the Sender and without learning the other message.
package ot

import (
	"fmt"
	"math/big"

	"github.com/vynalcrux/yaogc/group"
	"golang.org/x/crypto/sha3"
)

// OTError reports a mismatch in the OT sub-protocol: the two
// candidate messages have unequal length, or a group-element value
// received from the peer does not belong to the expected prime group.
type OTError struct {
	Reason string
}

func (e *OTError) Error() string {
	return fmt.Sprintf("ot: %s", e.Reason)
}

// Sender is the garbler's half of the protocol: it holds two
// candidate messages per transfer and never learns which one the
// chooser selects.
type Sender struct {
	group *group.PrimeGroup
	x     *big.Int
	c     *big.Int
}

// NewSender samples the sender's secret exponent x and computes
// C = g^x, the first message of the protocol.
func NewSender(g *group.PrimeGroup) (*Sender, error) {
	x, err := g.RandomElement()
	if err != nil {
		return nil, err
	}
	return &Sender{group: g, x: x, c: g.GenPow(x)}, nil
}

// C returns the sender's first-round value, to be sent to the chooser.
func (s *Sender) C() *big.Int {
	return s.c
}

// SenderTransfer is one OT exchange in progress on the sender's side,
// holding the freshly sampled exponent k' behind c1 = g^k'.
type SenderTransfer struct {
	sender *Sender
	kPrime *big.Int
	c1     *big.Int
}

// NewTransfer begins one transfer, sampling the per-transfer exponent
// k' and computing c1 = g^k'.
func (s *Sender) NewTransfer() (*SenderTransfer, error) {
	kp, err := s.group.RandomElement()
	if err != nil {
		return nil, err
	}
	return &SenderTransfer{sender: s, kPrime: kp, c1: s.group.GenPow(kp)}, nil
}

// Encrypt receives the chooser's reply h0 (always labeled position 0,
// per the protocol's convention) and masks m0, m1 under the two group
// elements h0 and h1 = C * h0^-1, returning c1 and the two masked
// messages to send back. m0 and m1 must have equal length.
func (t *SenderTransfer) Encrypt(h0 *big.Int, m0, m1 []byte) (c1 *big.Int, e0, e1 []byte, err error) {
	if len(m0) != len(m1) {
		return nil, nil, nil, &OTError{"message lengths differ"}
	}
	g := t.sender.group
	if h0.Sign() <= 0 || h0.Cmp(g.P) >= 0 {
		return nil, nil, nil, &OTError{"chooser reply is not a group element"}
	}
	h1 := g.Mul(t.sender.c, g.Inv(h0))

	s0 := g.Pow(h0, t.kPrime)
	s1 := g.Pow(h1, t.kPrime)

	e0 = xorMask(m0, hash(s0, len(m0)))
	e1 = xorMask(m1, hash(s1, len(m1)))
	return t.c1, e0, e1, nil
}

// Chooser is the evaluator's half of the protocol: it holds a
// selection bit and learns exactly one message per transfer.
type Chooser struct {
	group *group.PrimeGroup
	bit   int
	k     *big.Int
}

// NewChooser samples the chooser's secret exponent k for a transfer
// selecting bit (0 or 1).
func NewChooser(g *group.PrimeGroup, bit int) (*Chooser, error) {
	if bit != 0 && bit != 1 {
		return nil, &OTError{"selection bit must be 0 or 1"}
	}
	k, err := g.RandomElement()
	if err != nil {
		return nil, err
	}
	return &Chooser{group: g, bit: bit, k: k}, nil
}

// ChooserTransfer is one OT exchange in progress on the chooser's
// side, holding the sender's first-round value C.
type ChooserTransfer struct {
	chooser *Chooser
	c       *big.Int
}

// NewTransfer begins one transfer given the sender's first-round
// value C.
func (c *Chooser) NewTransfer(senderC *big.Int) *ChooserTransfer {
	return &ChooserTransfer{chooser: c, c: senderC}
}

// Reply computes the value the chooser sends back to the sender: if
// the selection bit is 0, g^k directly; if 1, C * (g^k)^-1, so that
// the sender — which always treats the received value as its
// position-0 element — derives the correct pair regardless of which
// bit was actually chosen. The value sent is indistinguishable between
// the two choices: both are uniformly random group elements.
func (t *ChooserTransfer) Reply() *big.Int {
	g := t.chooser.group
	xPow := g.GenPow(t.chooser.k)
	if t.chooser.bit == 0 {
		return xPow
	}
	return g.Mul(t.c, g.Inv(xPow))
}

// Open recovers the chooser's selected message from the sender's
// reply (c1, e0, e1).
func (t *ChooserTransfer) Open(c1 *big.Int, e0, e1 []byte) ([]byte, error) {
	g := t.chooser.group
	for _, v := range []*big.Int{t.c, c1} {
		if v.Sign() <= 0 || v.Cmp(g.P) >= 0 {
			return nil, &OTError{"sender value is not a group element"}
		}
	}
	shared := g.Pow(c1, t.chooser.k)

	var e []byte
	if t.chooser.bit == 0 {
		e = e0
	} else {
		e = e1
	}
	return xorMask(e, hash(shared, len(e))), nil
}

// hash is H from the protocol: SHAKE-256 of the big-endian byte
// representation of a group element, squeezed to n bytes.
func hash(elem *big.Int, n int) []byte {
	out := make([]byte, n)
	sponge := sha3.NewShake256()
	sponge.Write(elem.Bytes())
	sponge.Read(out)
	return out
}

func xorMask(msg, mask []byte) []byte {
	out := make([]byte, len(msg))
	for i := range msg {
		out[i] = msg[i] ^ mask[i]
	}
	return out
}

// DisabledPair is the testing-only fallback that skips the DH exchange
// entirely and hands the chooser both wire keys outright; it leaks
// both labels and must never be used outside debugging.
type DisabledPair struct {
	M0, M1 []byte
}

// Choose picks m_b from a disabled-mode pair — the chooser side of
// the insecure fallback, used only when the session's debug flag is
// set.
func (p DisabledPair) Choose(bit int) []byte {
	if bit == 0 {
		return p.M0
	}
	return p.M1
}
