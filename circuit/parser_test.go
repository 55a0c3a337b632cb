package circuit

import (
	"strings"
	"testing"
)

const andCircuitJSON = `{
  "name": "test",
  "circuits": [
    {
      "id": "AND",
      "alice": [1],
      "bob": [2],
      "out": [3],
      "gates": [
        {"id": 3, "type": "AND", "in": [1, 2]}
      ]
    }
  ]
}`

func TestParseFileValid(t *testing.T) {
	cf, err := ParseFile(strings.NewReader(andCircuitJSON))
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	if len(cf.Circuits) != 1 {
		t.Fatalf("got %d circuits, want 1", len(cf.Circuits))
	}
	if cf.Circuits[0].ID != "AND" {
		t.Errorf("got id %q, want AND", cf.Circuits[0].ID)
	}
}

func TestParseFileBadJSON(t *testing.T) {
	_, err := ParseFile(strings.NewReader("not json"))
	if err == nil {
		t.Fatal("expected error for invalid JSON")
	}
	if _, ok := err.(*ConfigError); !ok {
		t.Errorf("got %T, want *ConfigError", err)
	}
}

func TestValidateUndeclaredWire(t *testing.T) {
	bad := `{"name":"t","circuits":[{"id":"X","alice":[1],"bob":[2],"out":[3],
		"gates":[{"id":3,"type":"AND","in":[1,99]}]}]}`
	_, err := ParseFile(strings.NewReader(bad))
	if err == nil {
		t.Fatal("expected error for undeclared wire")
	}
}

func TestValidateDuplicateWire(t *testing.T) {
	bad := `{"name":"t","circuits":[{"id":"X","alice":[1],"bob":[1],"out":[3],
		"gates":[{"id":3,"type":"AND","in":[1,1]}]}]}`
	_, err := ParseFile(strings.NewReader(bad))
	if err == nil {
		t.Fatal("expected error for wire declared by both parties")
	}
}

func TestValidateWrongArity(t *testing.T) {
	bad := `{"name":"t","circuits":[{"id":"X","alice":[1],"bob":[2],"out":[3],
		"gates":[{"id":3,"type":"NOT","in":[1,2]}]}]}`
	_, err := ParseFile(strings.NewReader(bad))
	if err == nil {
		t.Fatal("expected error for wrong arity")
	}
}

func TestValidateNoOutputs(t *testing.T) {
	bad := `{"name":"t","circuits":[{"id":"X","alice":[1],"bob":[2],"out":[],
		"gates":[{"id":3,"type":"AND","in":[1,2]}]}]}`
	_, err := ParseFile(strings.NewReader(bad))
	if err == nil {
		t.Fatal("expected error for no output wires")
	}
}

func TestValidateOutputNotAGate(t *testing.T) {
	bad := `{"name":"t","circuits":[{"id":"X","alice":[1],"bob":[2],"out":[1],
		"gates":[{"id":3,"type":"AND","in":[1,2]}]}]}`
	_, err := ParseFile(strings.NewReader(bad))
	if err == nil {
		t.Fatal("expected error for output wire that is not a gate output")
	}
}

func TestValidateUnknownGateType(t *testing.T) {
	bad := `{"name":"t","circuits":[{"id":"X","alice":[1],"bob":[2],"out":[3],
		"gates":[{"id":3,"type":"FOO","in":[1,2]}]}]}`
	_, err := ParseFile(strings.NewReader(bad))
	if err == nil {
		t.Fatal("expected error for unknown gate type")
	}
	if _, ok := err.(*ConfigError); !ok {
		t.Errorf("got %T, want *ConfigError", err)
	}
}
