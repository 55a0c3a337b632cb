//
// printer.go
//
// Copyright (c) 2019-2022 Markku Rossi
//
// All rights reserved.
//

package main

import (
	"fmt"
	"os"

	"github.com/markkurossi/tabulate"
	"github.com/vynalcrux/yaogc/circuit"
	"github.com/vynalcrux/yaogc/session"
)

// printCircuit prints a circuit's structural shape: its wires and gate
// list, independent of any evaluation.
func printCircuit(spec circuit.CircuitSpec) {
	tab := tabulate.New(tabulate.Github)
	tab.Header("Gate")
	tab.Header("Type")
	tab.Header("Inputs")

	for _, g := range spec.Gates {
		row := tab.Row()
		row.Column(fmt.Sprintf("%d", g.ID))
		row.Column(string(g.Type))
		row.Column(fmt.Sprintf("%v", g.In))
	}
	tab.Print(os.Stdout)

	fmt.Printf("alice: %v  bob: %v  out: %v\n", spec.Alice, spec.Bob, spec.Out)
}

// printTable prints the full truth table the garbler collected for one
// circuit: one row per input combination, in the lexicographic order
// the garbler walked them (alice bits then bob bits, most significant
// bit first).
//
// This reproduces the reference implementation's printing convention:
// Alice enumerates every combination of her own and Bob's input bits by
// zero-padded binary expansion of the combination index and prints them
// side by side with the output bits Bob reported for that combination.
// Alice has no way to verify Bob actually evaluated the circuit on the
// input bits this convention assigns to him — she only learns the
// output bits he sends back — so this printout is a convention, not a
// checked guarantee.
func printTable(res session.CircuitResult) {
	tab := tabulate.New(tabulate.Github)
	for _, w := range res.Spec.Alice {
		tab.Header(fmt.Sprintf("A%d", w)).SetAlign(tabulate.MR)
	}
	for _, w := range res.Spec.Bob {
		tab.Header(fmt.Sprintf("B%d", w)).SetAlign(tabulate.MR)
	}
	for _, w := range res.Spec.Out {
		tab.Header(fmt.Sprintf("O%d", w)).SetAlign(tabulate.MR)
	}

	for _, row := range res.Rows {
		r := tab.Row()
		for _, b := range row.AliceBits {
			r.Column(bitString(b))
		}
		for _, b := range row.BobBits {
			r.Column(bitString(b))
		}
		for _, b := range row.OutBits {
			r.Column(bitString(b))
		}
	}
	tab.Print(os.Stdout)
}

func bitString(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
