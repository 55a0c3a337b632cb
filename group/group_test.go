package group

import (
	"bytes"
	"log"
	"math/big"
	"testing"
)

func TestNewPrimeGroup(t *testing.T) {
	g, err := NewPrimeGroup(32)
	if err != nil {
		t.Fatalf("NewPrimeGroup: %v", err)
	}
	if !g.P.ProbablyPrime(20) {
		t.Fatalf("modulus %s is not prime", g.P)
	}
	if g.G.Cmp(one) <= 0 || g.G.Cmp(g.P) >= 0 {
		t.Fatalf("generator %s out of range", g.G)
	}
}

func TestPowAndInv(t *testing.T) {
	g, err := NewPrimeGroup(24)
	if err != nil {
		t.Fatalf("NewPrimeGroup: %v", err)
	}

	x, err := g.RandomElement()
	if err != nil {
		t.Fatalf("RandomElement: %v", err)
	}
	inv := g.Inv(x)
	got := g.Mul(x, inv)
	if got.Cmp(one) != 0 {
		t.Errorf("x * inv(x) = %s, expected 1", got)
	}
}

func TestGenPowMatchesPow(t *testing.T) {
	g, err := NewPrimeGroup(24)
	if err != nil {
		t.Fatalf("NewPrimeGroup: %v", err)
	}
	e := big.NewInt(17)
	got := g.GenPow(e)
	want := g.Pow(g.G, e)
	if got.Cmp(want) != 0 {
		t.Errorf("GenPow(%s) = %s, want %s", e, got, want)
	}
}

func TestGeneratorGeneratesFullOrder(t *testing.T) {
	// Known small safe-prime-like case: P=23, P-1=22=2*11.
	p := big.NewInt(23)
	g, err := NewPrimeGroupFromPrime(p)
	if err != nil {
		t.Fatalf("NewPrimeGroupFromPrime: %v", err)
	}

	seen := map[string]bool{}
	x := big.NewInt(1)
	for i := 0; i < 22; i++ {
		x = g.GenPow(big.NewInt(int64(i)))
		seen[x.String()] = true
	}
	if len(seen) != 22 {
		t.Errorf("generator only produced %d distinct elements, want 22", len(seen))
	}
}

func TestRandomElementInRange(t *testing.T) {
	g, err := NewPrimeGroup(16)
	if err != nil {
		t.Fatalf("NewPrimeGroup: %v", err)
	}
	for i := 0; i < 50; i++ {
		v, err := g.RandomElement()
		if err != nil {
			t.Fatalf("RandomElement: %v", err)
		}
		if v.Sign() <= 0 || v.Cmp(g.P) >= 0 {
			t.Fatalf("random element %s out of range [1, P-1]", v)
		}
	}
}

func TestGenPowTracesToLogger(t *testing.T) {
	g, err := NewPrimeGroup(24)
	if err != nil {
		t.Fatalf("NewPrimeGroup: %v", err)
	}
	var buf bytes.Buffer
	g.Logger = log.New(&buf, "", 0)

	g.GenPow(big.NewInt(9))

	if buf.Len() == 0 {
		t.Fatal("GenPow did not write a trace line to the configured Logger")
	}
	if !bytes.Contains(buf.Bytes(), []byte("mod P")) {
		t.Errorf("trace line %q does not look like a FormatPow trace", buf.String())
	}
}

func TestGenPowSilentWithoutLogger(t *testing.T) {
	g, err := NewPrimeGroup(24)
	if err != nil {
		t.Fatalf("NewPrimeGroup: %v", err)
	}
	// g.Logger is nil by default; GenPow must not panic or otherwise
	// assume a Logger is present.
	g.GenPow(big.NewInt(9))
}

func TestPrimeFactors(t *testing.T) {
	n := big.NewInt(360) // 2^3 * 3^2 * 5
	factors, err := primeFactors(n)
	if err != nil {
		t.Fatalf("primeFactors: %v", err)
	}
	want := map[string]bool{"2": true, "3": true, "5": true}
	if len(factors) != len(want) {
		t.Fatalf("got %d factors, want %d", len(factors), len(want))
	}
	for _, f := range factors {
		if !want[f.String()] {
			t.Errorf("unexpected factor %s", f)
		}
	}
}
