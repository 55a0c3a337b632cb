package ot

import (
	"bytes"
	"testing"

	"github.com/vynalcrux/yaogc/group"
)

func testGroup(t *testing.T) *group.PrimeGroup {
	t.Helper()
	g, err := group.NewPrimeGroup(48)
	if err != nil {
		t.Fatalf("NewPrimeGroup: %v", err)
	}
	return g
}

func runTransfer(t *testing.T, g *group.PrimeGroup, bit int, m0, m1 []byte) []byte {
	t.Helper()

	sender, err := NewSender(g)
	if err != nil {
		t.Fatalf("NewSender: %v", err)
	}
	chooser, err := NewChooser(g, bit)
	if err != nil {
		t.Fatalf("NewChooser: %v", err)
	}

	ct := chooser.NewTransfer(sender.C())
	h0 := ct.Reply()

	st, err := sender.NewTransfer()
	if err != nil {
		t.Fatalf("Sender.NewTransfer: %v", err)
	}
	c1, e0, e1, err := st.Encrypt(h0, m0, m1)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	got, err := ct.Open(c1, e0, e1)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return got
}

func TestTransferCorrectness(t *testing.T) {
	g := testGroup(t)
	m0 := bytes.Repeat([]byte{0x00}, 16)
	m1 := bytes.Repeat([]byte{0xff}, 16)

	got0 := runTransfer(t, g, 0, m0, m1)
	if !bytes.Equal(got0, m0) {
		t.Errorf("bit=0: got %x, want %x", got0, m0)
	}

	got1 := runTransfer(t, g, 1, m0, m1)
	if !bytes.Equal(got1, m1) {
		t.Errorf("bit=1: got %x, want %x", got1, m1)
	}
}

func TestTransferManyRandomMessages(t *testing.T) {
	g := testGroup(t)
	for i := 0; i < 20; i++ {
		m0 := []byte{byte(i), byte(i + 1), byte(i + 2)}
		m1 := []byte{byte(255 - i), byte(i * 3), byte(i ^ 0x5a)}

		if got := runTransfer(t, g, 0, m0, m1); !bytes.Equal(got, m0) {
			t.Fatalf("iter %d bit=0: got %x, want %x", i, got, m0)
		}
		if got := runTransfer(t, g, 1, m0, m1); !bytes.Equal(got, m1) {
			t.Fatalf("iter %d bit=1: got %x, want %x", i, got, m1)
		}
	}
}

func TestEncryptMismatchedLengths(t *testing.T) {
	g := testGroup(t)
	sender, err := NewSender(g)
	if err != nil {
		t.Fatalf("NewSender: %v", err)
	}
	chooser, err := NewChooser(g, 0)
	if err != nil {
		t.Fatalf("NewChooser: %v", err)
	}
	ct := chooser.NewTransfer(sender.C())
	h0 := ct.Reply()

	st, err := sender.NewTransfer()
	if err != nil {
		t.Fatalf("Sender.NewTransfer: %v", err)
	}
	_, _, _, err = st.Encrypt(h0, []byte("short"), []byte("longer message"))
	if err == nil {
		t.Fatal("expected OTError for mismatched message lengths")
	}
}

func TestChooserReplyIndistinguishable(t *testing.T) {
	// Both bits produce a uniformly random group element in [1, P-1];
	// the only directly testable structural property is that the
	// reply always lands in range regardless of bit.
	g := testGroup(t)
	sender, err := NewSender(g)
	if err != nil {
		t.Fatalf("NewSender: %v", err)
	}
	for _, bit := range []int{0, 1} {
		chooser, err := NewChooser(g, bit)
		if err != nil {
			t.Fatalf("NewChooser: %v", err)
		}
		reply := chooser.NewTransfer(sender.C()).Reply()
		if reply.Sign() <= 0 || reply.Cmp(g.P) >= 0 {
			t.Errorf("bit=%d: reply %s out of range", bit, reply)
		}
	}
}

func TestNewChooserInvalidBit(t *testing.T) {
	g := testGroup(t)
	if _, err := NewChooser(g, 2); err == nil {
		t.Fatal("expected error for invalid selection bit")
	}
}

func TestDisabledPair(t *testing.T) {
	p := DisabledPair{M0: []byte("zero"), M1: []byte("one")}
	if got := p.Choose(0); string(got) != "zero" {
		t.Errorf("Choose(0) = %q, want zero", got)
	}
	if got := p.Choose(1); string(got) != "one" {
		t.Errorf("Choose(1) = %q, want one", got)
	}
}
