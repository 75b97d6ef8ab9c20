package preview

import (
	"errors"
	"fmt"
	"math"

	"github.com/vk/rendergraph/internal/engine"
	"github.com/vk/rendergraph/internal/rendergraph"
)

var (
	// ErrNotCreated is returned when a node uses a resource that has not
	// been initialized.
	ErrNotCreated = errors.New("resource is not created")
	// ErrMismatch is returned by copies between incompatible resources.
	ErrMismatch = errors.New("resource mismatch")
)

func nodeAt(rt engine.Runtime, ref rendergraph.NodeRef) (rendergraph.Node, error) {
	g := rt.Graph()
	if !ref.Bound() || g == nil || ref.Index >= len(g.Nodes) {
		return nil, fmt.Errorf("unresolved node reference %q", ref.Name)
	}
	return g.Nodes[ref.Index], nil
}

// requireCreated checks that ref names a texture or buffer that has been
// created. Unbound references are accepted.
func requireCreated(rt engine.Runtime, ref rendergraph.NodeRef) error {
	if !ref.Bound() {
		return nil
	}
	n, err := nodeAt(rt, ref)
	if err != nil {
		return err
	}
	created := false
	switch n.Kind() {
	case rendergraph.KindTexture:
		if s, ok := rt.Nodes().Textures.Get(n.NodeName()); ok {
			created = s.Created
		}
	case rendergraph.KindBuffer:
		if s, ok := rt.Nodes().Buffers.Get(n.NodeName()); ok {
			created = s.Created
		}
	default:
		return fmt.Errorf("%q is a %s, not a resource", n.NodeName(), n.Kind())
	}
	if !created {
		return fmt.Errorf("%w: %q", ErrNotCreated, n.NodeName())
	}
	return nil
}

// textureSize resolves the base size of src and applies its transform.
// Every resolved component must be at least 1.
func textureSize(rt engine.Runtime, src rendergraph.SizeSource) ([3]uint32, error) {
	base := src.Literal
	switch {
	case src.Node.Bound():
		n, err := nodeAt(rt, src.Node)
		if err != nil {
			return base, err
		}
		if err := requireCreated(rt, src.Node); err != nil {
			return base, err
		}
		s, _ := rt.Nodes().Textures.Get(n.NodeName())
		base = s.Size
	case src.Variable.Bound():
		comps, err := rt.Variables().Uint32Components(src.Variable.Index)
		if err != nil {
			return base, err
		}
		base = [3]uint32{1, 1, 1}
		copy(base[:], comps)
	}

	var out [3]uint32
	for i := range out {
		if src.Divide[i] == 0 {
			return out, fmt.Errorf("size divisor %d is zero", i)
		}
		v := (int64(base[i])+int64(src.PreAdd[i]))*int64(src.Multiply[i])/int64(src.Divide[i]) + int64(src.PostAdd[i])
		if v < 1 || v > math.MaxUint32 {
			return out, fmt.Errorf("size component %d resolves to %d", i, v)
		}
		out[i] = uint32(v)
	}
	return out, nil
}

// count resolves an element count from a node, a variable or a literal.
// A texture contributes the product of its dimensions.
func count(rt engine.Runtime, src rendergraph.CountSource) (uint32, error) {
	switch {
	case src.Node.Bound():
		n, err := nodeAt(rt, src.Node)
		if err != nil {
			return 0, err
		}
		if err := requireCreated(rt, src.Node); err != nil {
			return 0, err
		}
		if b, ok := rt.Nodes().Buffers.Get(n.NodeName()); ok && n.Kind() == rendergraph.KindBuffer {
			return b.Count, nil
		}
		s, _ := rt.Nodes().Textures.Get(n.NodeName())
		return s.Size[0] * s.Size[1] * s.Size[2], nil
	case src.Variable.Bound():
		comps, err := rt.Variables().Uint32Components(src.Variable.Index)
		if err != nil {
			return 0, err
		}
		if len(comps) == 0 {
			return 0, nil
		}
		return comps[0], nil
	}
	return src.Literal, nil
}

// dispatchGroups divides the extent of the dispatch resource by the thread
// group size, rounding up. An unbound resource dispatches a single group.
func dispatchGroups(rt engine.Runtime, ref rendergraph.NodeRef, threads [3]uint32) ([3]uint32, error) {
	groups := [3]uint32{1, 1, 1}
	if !ref.Bound() {
		return groups, nil
	}
	if err := requireCreated(rt, ref); err != nil {
		return groups, err
	}
	n, _ := nodeAt(rt, ref)
	extent := [3]uint32{1, 1, 1}
	if n.Kind() == rendergraph.KindTexture {
		s, _ := rt.Nodes().Textures.Get(n.NodeName())
		extent = s.Size
	} else {
		b, _ := rt.Nodes().Buffers.Get(n.NodeName())
		extent[0] = b.Count
	}
	for i := range groups {
		t := max(threads[i], 1)
		groups[i] = extent[i] / t
		if extent[i]%t != 0 {
			groups[i]++
		}
	}
	return groups, nil
}
