// Package engine compiles render graphs and executes them frame by frame.
//
// An Engine owns everything that lives between frames: the typed value
// store, the variable table built over it, and one runtime slot per node.
// Compile obtains a graph from a rendergraph.Loader, binds its variables and
// runs the Init action of every node in execution order. Execute runs the
// "before" SetVariable rules, the Execute action of every node, then the
// "after" rules.
//
// What a node actually does is decided by a Handlers implementation chosen
// by the build flavor's backend. Backends register a HandlerFactory in a
// Registry; the interpreted preview and the source generator are the two
// built-in ones.
//
// An Engine is not safe for concurrent use.
package engine
