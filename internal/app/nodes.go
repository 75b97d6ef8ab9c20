package app

import (
	"fmt"
	"strings"

	"github.com/vk/rendergraph/internal/rendergraph"
)

// nodeView describes one compiled node in execution order.
type nodeView struct {
	Name        string `json:"name"`
	Kind        string `json:"kind"`
	Conditional bool   `json:"conditional"`
	State       string `json:"state,omitempty"`
}

// nodeTable lists the compiled nodes in execution order with their runtime
// state. The caller holds a.mu.
func (a *App) nodeTable() []nodeView {
	g := a.engine.Graph()
	if g == nil {
		return nil
	}
	views := make([]nodeView, 0, len(g.FlattenedNodeList))
	for _, idx := range g.FlattenedNodeList {
		n := g.Nodes[idx]
		v := nodeView{
			Name:        n.NodeName(),
			Kind:        n.Kind().String(),
			Conditional: a.engine.IsConditional(rendergraph.NodeCondition(n)),
		}
		if data, ok := a.engine.RuntimeNodeData(n); ok {
			v.State = strings.TrimPrefix(fmt.Sprintf("%+v", data), "&")
		}
		views = append(views, v)
	}
	return views
}

func (a *App) logNodes() {
	for _, v := range a.nodeTable() {
		a.logger.Debug("Node ready.", "node", v.Name, "kind", v.Kind, "conditional", v.Conditional, "state", v.State)
	}
}
