// Package group implements a cyclic multiplicative group of prime
// order with an explicit generator, the algebraic structure the
// oblivious-transfer sub-protocol runs over.
//
// The prime is chosen by sampling a random numBits-wide integer and
// advancing to the next prime; the generator is chosen by factoring
// P-1 and rejecting candidates that fail the subgroup test for any
// factor. NewPrimeGroup has no default width; the session package
// uses 64 bits for demo circuits unless told otherwise. Any deployment
// that isn't a local demo must pass a width of 2048 bits or more, since
// a 64-bit modulus gives no cryptographic hardness whatsoever.
package group

import (
	"crypto/rand"
	"fmt"
	"log"
	"math/big"

	"github.com/markkurossi/text/superscript"
)

var (
	one = big.NewInt(1)
	two = big.NewInt(2)
)

// PrimeGroup is the cyclic group Z_P^* restricted to the subgroup
// generated by G, where P is prime.
type PrimeGroup struct {
	P  *big.Int
	G  *big.Int
	Pm *big.Int // P-1

	// Logger, when non-nil, receives one trace line per GenPow call,
	// formatted by FormatPow. Left nil in normal operation; the
	// oblivious-transfer sub-protocol sets it on a group's instance
	// when the session's log level is debug, so every generator
	// exponentiation the OT exchange performs shows up in the trace.
	Logger *log.Logger
}

// NewPrimeGroup creates a new prime group with a freshly sampled
// numBits-wide prime modulus and a generator found by factoring P-1.
func NewPrimeGroup(numBits int) (*PrimeGroup, error) {
	p, err := genPrime(numBits)
	if err != nil {
		return nil, err
	}
	return NewPrimeGroupFromPrime(p)
}

// NewPrimeGroupFromPrime creates a prime group over the given prime
// modulus, finding its generator. It is the caller's responsibility to
// pass an actual prime; behavior is undefined otherwise.
func NewPrimeGroupFromPrime(p *big.Int) (*PrimeGroup, error) {
	pm := new(big.Int).Sub(p, one)

	g, err := findGenerator(p, pm)
	if err != nil {
		return nil, err
	}
	return &PrimeGroup{
		P:  p,
		G:  g,
		Pm: pm,
	}, nil
}

// FromParams builds a PrimeGroup from a modulus and generator received
// from a peer, without re-deriving the generator. The oblivious
// transfer sub-protocol lets the sender mint a fresh group per call
// and hand its parameters to the chooser for that call only; the
// chooser trusts the sender's choice of generator rather than
// re-running generator search.
func FromParams(p, g *big.Int) *PrimeGroup {
	return &PrimeGroup{
		P:  p,
		G:  g,
		Pm: new(big.Int).Sub(p, one),
	}
}

// RandomElement returns a uniformly random integer in [1, P-1].
func (g *PrimeGroup) RandomElement() (*big.Int, error) {
	// rand.Int returns a value in [0, max), so request one extra and
	// reject zero to get the range [1, P-1] without bias.
	for {
		v, err := rand.Int(rand.Reader, g.P)
		if err != nil {
			return nil, err
		}
		if v.Sign() != 0 {
			return v, nil
		}
	}
}

// Pow returns x^e mod P.
func (g *PrimeGroup) Pow(x, e *big.Int) *big.Int {
	return new(big.Int).Exp(x, e, g.P)
}

// GenPow returns g^e mod P, the group generator raised to e.
func (g *PrimeGroup) GenPow(e *big.Int) *big.Int {
	r := g.Pow(g.G, e)
	if g.Logger != nil {
		g.Logger.Printf("%s = %#x", g.FormatPow(e), r)
	}
	return r
}

// Mul returns x*y mod P.
func (g *PrimeGroup) Mul(x, y *big.Int) *big.Int {
	m := new(big.Int).Mul(x, y)
	return m.Mod(m, g.P)
}

// Inv returns the multiplicative inverse of x, computed as
// x^(P-2) mod P (valid since P is prime).
func (g *PrimeGroup) Inv(x *big.Int) *big.Int {
	exp := new(big.Int).Sub(g.Pm, one)
	return g.Pow(x, exp)
}

// FormatPow formats g^e mod P for debug tracing, with the exponent
// rendered in superscript.
func (g *PrimeGroup) FormatPow(e *big.Int) string {
	return fmt.Sprintf("g%s mod P", superscript.Itoa(int(e.Int64())))
}

func genPrime(numBits int) (*big.Int, error) {
	if numBits < 2 {
		return nil, fmt.Errorf("group: invalid prime width %d", numBits)
	}
	r, err := rand.Int(rand.Reader, new(big.Int).Lsh(one, uint(numBits)))
	if err != nil {
		return nil, err
	}
	return nextPrime(r), nil
}

func nextPrime(n *big.Int) *big.Int {
	if n.Cmp(big.NewInt(3)) < 0 {
		return big.NewInt(3)
	}
	candidate := new(big.Int).Set(n)
	if candidate.Bit(0) == 0 {
		candidate.Add(candidate, one)
	}
	for !candidate.ProbablyPrime(20) {
		candidate.Add(candidate, two)
	}
	return candidate
}

// findGenerator factors P-1 and repeatedly samples a candidate until
// it finds one that is a generator of the full group: for every prime
// factor q of P-1, candidate^((P-1)/q) != 1 mod P.
//
// The source this protocol was distilled from contains a bug here: its
// search loop breaks out to retry a new candidate on the first factor
// that fails the check (correct), but returns the candidate as soon as
// a single factor *passes*, without checking the remaining factors
// (incorrect — a candidate can pass one factor's test and still fail
// another's, and so not actually generate the full group). This
// implementation checks every factor before accepting a candidate.
func findGenerator(p, pm *big.Int) (*big.Int, error) {
	factors, err := primeFactors(pm)
	if err != nil {
		return nil, err
	}

	exps := make([]*big.Int, len(factors))
	for i, q := range factors {
		exps[i] = new(big.Int).Div(pm, q)
	}

	for {
		// Sample a candidate uniformly from [1, P-1].
		candidate, err := rand.Int(rand.Reader, pm)
		if err != nil {
			return nil, err
		}
		candidate.Add(candidate, one)

		isGenerator := true
		for _, e := range exps {
			if new(big.Int).Exp(candidate, e, p).Cmp(one) == 0 {
				isGenerator = false
				break
			}
		}
		if isGenerator {
			return candidate, nil
		}
	}
}

// primeFactors returns the distinct prime factors of n via trial
// division. For the demo-sized moduli this package targets this
// terminates quickly; any leftover cofactor after trial division up to
// n's square root is itself prime (it cannot be a product of two
// factors both larger than the trial bound) and is included as-is.
func primeFactors(n *big.Int) ([]*big.Int, error) {
	if n.Sign() <= 0 {
		return nil, fmt.Errorf("group: cannot factor non-positive %s", n)
	}
	var factors []*big.Int
	remaining := new(big.Int).Set(n)

	for _, small := range []int64{2, 3} {
		d := big.NewInt(small)
		if divides(remaining, d) {
			factors = append(factors, new(big.Int).Set(d))
			for divides(remaining, d) {
				remaining.Div(remaining, d)
			}
		}
	}

	d := big.NewInt(5)
	step := big.NewInt(2)
	sqrt := new(big.Int)
	for {
		sqrt.Sqrt(remaining)
		if d.Cmp(sqrt) > 0 {
			break
		}
		if divides(remaining, d) {
			factors = append(factors, new(big.Int).Set(d))
			for divides(remaining, d) {
				remaining.Div(remaining, d)
			}
			continue
		}
		d.Add(d, step)
		if step.Cmp(two) == 0 {
			step.SetInt64(4)
		} else {
			step.SetInt64(2)
		}
	}
	if remaining.Cmp(one) > 0 {
		factors = append(factors, remaining)
	}
	return factors, nil
}

func divides(n, d *big.Int) bool {
	return new(big.Int).Mod(n, d).Sign() == 0
}
