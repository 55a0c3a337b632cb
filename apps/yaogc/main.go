//
// main.go
//
// Copyright (c) 2019 Markku Rossi
//
// All rights reserved.
//

// Command yaogc runs one party of a two-party Yao garbled-circuit
// session: alice (the garbler) reads a circuit file, garbles every
// circuit it contains, and connects out to the peer; bob (the
// evaluator) listens for that connection, evaluates each garbled
// circuit the garbler sends, and reports the output bits.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/vynalcrux/yaogc/circuit"
	"github.com/vynalcrux/yaogc/p2p"
	"github.com/vynalcrux/yaogc/session"
)

func main() {
	flag.Usage = usage

	addr := flag.String("addr", "", "peer address (bob: listen address, alice: dial address)")
	file := flag.String("c", "circuits/default.json", "circuit file")
	flag.StringVar(file, "circuit", "circuits/default.json", "circuit file (same as -c)")
	noOT := flag.Bool("no-oblivious-transfer", false, "disable oblivious transfer (testing only)")
	mode := flag.String("m", "circuit", "printing mode: circuit or table")
	loglevel := flag.String("l", "warning", "log level: debug, info, warning, error, critical")
	flag.StringVar(loglevel, "loglevel", "warning", "log level (same as -l)")
	flag.Parse()

	party := flag.Arg(0)

	level, err := session.ParseLevel(*loglevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger := log.New(os.Stderr, "", log.LstdFlags)
	if !level.Enabled(session.LevelInfo) {
		logger = log.New(io.Discard, "", 0)
	}

	switch *mode {
	case "circuit", "table":
	default:
		fmt.Fprintf(os.Stderr, "unknown printing mode %q\n", *mode)
		os.Exit(1)
	}

	f, err := os.Open(*file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open circuit file %q: %s\n", *file, err)
		os.Exit(1)
	}
	cf, err := circuit.ParseFile(f)
	f.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to parse circuit file %q: %s\n", *file, err)
		os.Exit(1)
	}

	cfg := session.Config{
		Logger: logger,
		Debug:  *noOT,
		Level:  level,
	}

	switch party {
	case "alice":
		if err := runAlice(cf, cfg, addrOrDefault(*addr, "localhost:4080"), *mode); err != nil {
			log.Fatal(err)
		}
	case "bob":
		if err := runBob(cf, cfg, addrOrDefault(*addr, ":4080")); err != nil {
			log.Fatal(err)
		}
	default:
		usage()
		os.Exit(1)
	}
}

func runAlice(cf *circuit.CircuitFile, cfg session.Config, addr, mode string) error {
	conn, err := p2p.Dial(addr)
	if err != nil {
		return err
	}
	defer conn.Close()

	garbler := session.NewGarbler(cf, cfg)
	results, err := garbler.Run(conn)
	if err != nil {
		return err
	}
	for _, res := range results {
		fmt.Printf("======== %s ========\n", res.Spec.ID)
		if mode == "circuit" {
			printCircuit(res.Spec)
		} else {
			printTable(res)
		}
	}
	return nil
}

func runBob(cf *circuit.CircuitFile, cfg session.Config, addr string) error {
	ln, err := p2p.Listen(addr)
	if err != nil {
		return err
	}
	defer ln.Close()

	conn, err := p2p.Accept(ln)
	if err != nil {
		return err
	}
	defer conn.Close()

	evaluator := session.NewEvaluator(cfg)
	return evaluator.Run(conn)
}

func addrOrDefault(addr, def string) string {
	if addr == "" {
		return def
	}
	return addr
}

func usage() {
	fmt.Fprintf(os.Stderr, "usage: %s [flags] {alice|bob}\n", os.Args[0])
	flag.PrintDefaults()
}
