// Package variables binds the declared variables of a render graph to their
// typed storage and exposes the live read/write surface used between frames.
package variables

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/vk/rendergraph/internal/datatype"
	"github.com/vk/rendergraph/internal/rendergraph"
	"github.com/vk/rendergraph/internal/valuestore"
)

// ErrUnknownVariable is returned for an index or name outside the table.
var ErrUnknownVariable = errors.New("unknown variable")

// Entry is one bound variable.
type Entry struct {
	Variable *rendergraph.Variable
	Storage  valuestore.Storage
	// Enum is set when the variable is tagged with an enum.
	Enum *rendergraph.Enum
}

// Table is the ordered set of bound variables of a compiled graph.
type Table struct {
	entries []Entry
	byName  map[string]int
}

// Build binds every variable of g, in declaration order, to storage in s.
func Build(g *rendergraph.RenderGraph, s *valuestore.Store) *Table {
	t := &Table{
		entries: make([]Entry, 0, len(g.Variables)),
		byName:  make(map[string]int, len(g.Variables)),
	}
	for i, v := range g.Variables {
		st := s.Get(valuestore.Declaration{Name: v.Name, Type: v.Type, Default: v.Default})
		t.entries = append(t.entries, Entry{Variable: v, Storage: st, Enum: g.EnumOf(v)})
		t.byName[v.Name] = i
	}
	return t
}

// Count returns the number of bound variables.
func (t *Table) Count() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}

// At returns the entry at position i.
func (t *Table) At(i int) (Entry, error) {
	if t == nil || i < 0 || i >= len(t.entries) {
		return Entry{}, fmt.Errorf("%w: index %d", ErrUnknownVariable, i)
	}
	return t.entries[i], nil
}

// Index returns the position of the named variable, or -1.
func (t *Table) Index(name string) int {
	if t == nil {
		return -1
	}
	if i, ok := t.byName[name]; ok {
		return i
	}
	return -1
}

// ByName returns the entry of the named variable.
func (t *Table) ByName(name string) (Entry, error) {
	i := t.Index(name)
	if i < 0 {
		return Entry{}, fmt.Errorf("%w: %q", ErrUnknownVariable, name)
	}
	return t.entries[i], nil
}

// ValueString formats the current value of variable i.
func (t *Table) ValueString(i int) (string, error) {
	e, err := t.At(i)
	if err != nil {
		return "", err
	}
	return datatype.Format(e.Variable.Type, e.Storage.Value), nil
}

// SetFromString parses text into the current value of variable i. For enum
// variables the text is first resolved as a label; unresolved text is parsed
// as a number. Malformed text degrades to zero rather than failing.
func (t *Table) SetFromString(i int, text string) error {
	e, err := t.At(i)
	if err != nil {
		return err
	}
	if e.Enum != nil {
		if idx := LabelToIndex(e.Enum, text); idx >= 0 {
			text = strconv.Itoa(idx)
		}
	}
	info := e.Variable.Type.Info()
	datatype.ParseInto(text, info.Scalar, info.ComponentCount, e.Storage.Value)
	return nil
}

// SetToDefault restores variable i to its default value.
func (t *Table) SetToDefault(i int) error {
	e, err := t.At(i)
	if err != nil {
		return err
	}
	copy(e.Storage.Value, e.Storage.Default)
	return nil
}

// Raw returns a copy of the current bytes of variable i.
func (t *Table) Raw(i int) ([]byte, error) {
	e, err := t.At(i)
	if err != nil {
		return nil, err
	}
	return append([]byte(nil), e.Storage.Value...), nil
}

// SetRaw overwrites the current bytes of variable i. b must be exactly the
// variable's storage size.
func (t *Table) SetRaw(i int, b []byte) error {
	e, err := t.At(i)
	if err != nil {
		return err
	}
	if len(b) != e.Storage.Size {
		return fmt.Errorf("variable %q holds %d bytes, got %d", e.Variable.Name, e.Storage.Size, len(b))
	}
	copy(e.Storage.Value, b)
	return nil
}

// Uint32Components returns the components of variable i converted to uint32.
func (t *Table) Uint32Components(i int) ([]uint32, error) {
	e, err := t.At(i)
	if err != nil {
		return nil, err
	}
	return datatype.Uint32Components(e.Variable.Type, e.Storage.Value), nil
}

// LabelToIndex resolves an enum label to its position. Matching ignores case
// and an optional "EnumName::" prefix. It returns -1 for unknown labels.
func LabelToIndex(e *rendergraph.Enum, label string) int {
	if e == nil {
		return -1
	}
	text := strings.TrimSpace(label)
	prefix := e.OriginalName + "::"
	if len(text) >= len(prefix) && strings.EqualFold(text[:len(prefix)], prefix) {
		text = text[len(prefix):]
	}
	for i, item := range e.Items {
		if strings.EqualFold(item, text) {
			return i
		}
	}
	return -1
}
