package preview

import (
	"fmt"

	"github.com/vk/rendergraph/internal/engine"
	"github.com/vk/rendergraph/internal/rendergraph"
)

// Event is one handled node action.
type Event struct {
	Node    string
	Kind    rendergraph.Kind
	Action  engine.Action
	Skipped bool
	Detail  string
}

func (e Event) String() string {
	s := fmt.Sprintf("%s %s %s", e.Action, e.Kind, e.Node)
	if e.Skipped {
		s += " (skipped)"
	}
	if e.Detail != "" {
		s += ": " + e.Detail
	}
	return s
}
