// Package rendergraph defines the format-agnostic model of a compiled render
// graph: typed variables, enums, the closed set of node kinds, variable
// mutation rules and the conditions guarding them.
//
// A RenderGraph is produced by a Loader (see internal/hclgraph) and is the
// single source of truth for the engine and every backend. All cross
// references are stored both by name and by resolved index; an index of -1
// means the reference is unbound.
package rendergraph
