package circuit

import (
	"encoding/json"
	"fmt"
	"io"
)

// ParseFile decodes a circuit file from r and validates every circuit
// it contains.
func ParseFile(r io.Reader) (*CircuitFile, error) {
	var cf CircuitFile
	dec := json.NewDecoder(r)
	if err := dec.Decode(&cf); err != nil {
		return nil, &ConfigError{Reason: fmt.Sprintf("invalid JSON: %v", err)}
	}
	for _, c := range cf.Circuits {
		if err := validate(&c); err != nil {
			return nil, err
		}
	}
	return &cf, nil
}

// validate checks that a circuit's gate list is well formed: every
// gate's inputs were declared earlier (as a party input wire or an
// earlier gate's output), no gate id is reused, every gate has the
// right number of inputs for its type, Alice's and Bob's wires are
// disjoint, and every output wire refers to some gate's output.
func validate(c *CircuitSpec) error {
	known := make(map[Wire]bool)
	for _, w := range c.Alice {
		if known[w] {
			return &ConfigError{c.ID, fmt.Sprintf("wire %d declared more than once", w)}
		}
		known[w] = true
	}
	for _, w := range c.Bob {
		if known[w] {
			return &ConfigError{c.ID, fmt.Sprintf("wire %d declared by both parties", w)}
		}
		known[w] = true
	}

	produced := make(map[Wire]bool)
	for _, g := range c.Gates {
		if known[g.ID] || produced[g.ID] {
			return &ConfigError{c.ID, fmt.Sprintf("gate output wire %d reused", g.ID)}
		}
		if !g.Type.Valid() {
			return &ConfigError{c.ID, fmt.Sprintf("gate %d: unknown gate type %q", g.ID, g.Type)}
		}
		if len(g.In) != g.Type.Arity() {
			return &ConfigError{c.ID, fmt.Sprintf(
				"gate %d (%s) wants %d inputs, got %d", g.ID, g.Type, g.Type.Arity(), len(g.In))}
		}
		for _, in := range g.In {
			if !known[in] && !produced[in] {
				return &ConfigError{c.ID, fmt.Sprintf(
					"gate %d references undeclared wire %d", g.ID, in)}
			}
		}
		produced[g.ID] = true
	}

	if len(c.Out) == 0 {
		return &ConfigError{c.ID, "circuit declares no output wires"}
	}
	for _, w := range c.Out {
		if !produced[w] {
			return &ConfigError{c.ID, fmt.Sprintf("output wire %d is not a gate output", w)}
		}
	}
	return nil
}
