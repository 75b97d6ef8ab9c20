// Package nodestate holds per-node runtime data that survives between
// frames, one cache per node kind. Backends own the meaning of the slots;
// the engine only creates and clears them.
package nodestate

// Cache maps node names to a runtime slot of type T. It is not safe for
// concurrent use.
type Cache[T any] struct {
	slots map[string]*T
}

// NewCache creates an empty cache.
func NewCache[T any]() *Cache[T] {
	return &Cache[T]{slots: make(map[string]*T)}
}

// GetOrCreate returns the slot for name, creating a zero slot if needed.
// The returned pointer stays stable until Clear.
func (c *Cache[T]) GetOrCreate(name string) *T {
	if s, ok := c.slots[name]; ok {
		return s
	}
	s := new(T)
	c.slots[name] = s
	return s
}

// Get returns the slot for name, if present.
func (c *Cache[T]) Get(name string) (*T, bool) {
	s, ok := c.slots[name]
	return s, ok
}

// Len returns the number of slots.
func (c *Cache[T]) Len() int { return len(c.slots) }

// Clear drops every slot.
func (c *Cache[T]) Clear() { c.slots = make(map[string]*T) }

// Texture is the runtime state of a texture node.
type Texture struct {
	Size    [3]uint32
	Format  string
	Created bool
	// Generation increases each time the texture is (re)created.
	Generation int
}

// Buffer is the runtime state of a buffer node.
type Buffer struct {
	Count      uint32
	Stride     uint32
	Created    bool
	Generation int
}

// ComputeShader is the runtime state of a compute shader node.
type ComputeShader struct {
	LastDispatch [3]uint32
	Dispatches   int
	Skipped      int
}

// DrawCall is the runtime state of a draw call node.
type DrawCall struct {
	LastVertexCount uint32
	Draws           int
	Skipped         int
}

// CopyResource is the runtime state of a copy node.
type CopyResource struct {
	Copies  int
	Skipped int
}

// Registry groups the caches of every node kind.
type Registry struct {
	Textures       *Cache[Texture]
	Buffers        *Cache[Buffer]
	ComputeShaders *Cache[ComputeShader]
	DrawCalls      *Cache[DrawCall]
	Copies         *Cache[CopyResource]
}

// NewRegistry creates a registry with empty caches.
func NewRegistry() *Registry {
	return &Registry{
		Textures:       NewCache[Texture](),
		Buffers:        NewCache[Buffer](),
		ComputeShaders: NewCache[ComputeShader](),
		DrawCalls:      NewCache[DrawCall](),
		Copies:         NewCache[CopyResource](),
	}
}

// Clear empties every cache.
func (r *Registry) Clear() {
	r.Textures.Clear()
	r.Buffers.Clear()
	r.ComputeShaders.Clear()
	r.DrawCalls.Clear()
	r.Copies.Clear()
}

// Len returns the total number of slots across all kinds.
func (r *Registry) Len() int {
	return r.Textures.Len() + r.Buffers.Len() + r.ComputeShaders.Len() + r.DrawCalls.Len() + r.Copies.Len()
}
