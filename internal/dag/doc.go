// Package dag builds the dependency graph between render graph nodes and
// derives the order they run in.
//
// Nodes are identified by name and remember the order they were added in.
// TopologicalOrder is stable: among nodes whose dependencies are satisfied,
// the one declared first always comes first, so a graph without edges keeps
// its declaration order.
package dag
