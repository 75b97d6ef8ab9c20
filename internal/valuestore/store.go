package valuestore

import (
	"github.com/vk/rendergraph/internal/datatype"
)

// Key identifies one storage slot.
type Key struct {
	Name string
	Type datatype.DataFieldType
}

// Storage is a view of a variable's bytes.
type Storage struct {
	Value   []byte
	Default []byte
	Size    int
}

// Declaration is what the store needs to know about a variable.
type Declaration struct {
	Name    string
	Type    datatype.DataFieldType
	Default string
}

// Store owns the byte buffers of all variables.
type Store struct {
	slots map[Key][]byte
}

// New creates an empty store.
func New() *Store {
	return &Store{slots: make(map[Key][]byte)}
}

// Get returns the storage of d, allocating it and parsing the default on
// first access. Later calls return views of the same buffer.
func (s *Store) Get(d Declaration) Storage {
	size := d.Type.Info().TypeBytes
	key := Key{Name: d.Name, Type: d.Type}

	buf, ok := s.slots[key]
	if !ok {
		buf = make([]byte, 2*size)
		info := d.Type.Info()
		datatype.ParseInto(d.Default, info.Scalar, info.ComponentCount, buf[size:])
		copy(buf[:size], buf[size:])
		s.slots[key] = buf
	}

	return Storage{
		Value:   buf[:size:size],
		Default: buf[size:],
		Size:    size,
	}
}

// Clear releases all storage.
func (s *Store) Clear() {
	s.slots = make(map[Key][]byte)
}

// Len returns the number of allocated slots.
func (s *Store) Len() int {
	return len(s.slots)
}
