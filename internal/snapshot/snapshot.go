// Package snapshot captures and restores the raw bytes of every variable of
// a compiled graph in a compact CBOR encoding.
package snapshot

import (
	"fmt"
	"os"

	"github.com/fxamacker/cbor/v2"

	"github.com/vk/rendergraph/internal/datatype"
	"github.com/vk/rendergraph/internal/variables"
)

var encMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("snapshot: failed to create CBOR enc mode: %v", err))
	}
	encMode = em
}

// Snapshot is the captured state of a variable table.
type Snapshot struct {
	Graph     string     `cbor:"1,keyasint"`
	Variables []Variable `cbor:"2,keyasint"`
}

// Variable is the captured value of one variable.
type Variable struct {
	Name  string `cbor:"1,keyasint"`
	Type  string `cbor:"2,keyasint"`
	Value []byte `cbor:"3,keyasint"`
}

// Capture records the current bytes of every variable in t.
func Capture(graph string, t *variables.Table) (*Snapshot, error) {
	s := &Snapshot{Graph: graph, Variables: make([]Variable, 0, t.Count())}
	for i := 0; i < t.Count(); i++ {
		e, err := t.At(i)
		if err != nil {
			return nil, err
		}
		raw, err := t.Raw(i)
		if err != nil {
			return nil, err
		}
		s.Variables = append(s.Variables, Variable{
			Name:  e.Variable.Name,
			Type:  e.Variable.Type.String(),
			Value: raw,
		})
	}
	return s, nil
}

// Restore writes every captured value whose name and type still match a
// variable of t. It returns the number of restored variables and the names
// of the captured ones that were skipped.
func (s *Snapshot) Restore(t *variables.Table) (int, []string) {
	restored := 0
	var skipped []string
	for _, v := range s.Variables {
		e, err := t.ByName(v.Name)
		if err != nil || e.Variable.Type.String() != v.Type {
			skipped = append(skipped, v.Name)
			continue
		}
		if err := t.SetRaw(t.Index(v.Name), v.Value); err != nil {
			skipped = append(skipped, v.Name)
			continue
		}
		restored++
	}
	return restored, skipped
}

// Marshal serializes s to CBOR bytes.
func Marshal(s *Snapshot) ([]byte, error) {
	return encMode.Marshal(s)
}

// Unmarshal deserializes a snapshot from CBOR bytes. Entries with unknown
// types are rejected.
func Unmarshal(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := cbor.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("snapshot: unmarshal: %w", err)
	}
	for _, v := range s.Variables {
		if _, err := datatype.ParseType(v.Type); err != nil {
			return nil, fmt.Errorf("snapshot: variable %q: %w", v.Name, err)
		}
	}
	return &s, nil
}

// Save writes s to path.
func Save(path string, s *Snapshot) error {
	data, err := Marshal(s)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Load reads a snapshot from path.
func Load(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}
	return Unmarshal(data)
}
