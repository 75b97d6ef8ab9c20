// Package preview is the interpreter backend. It registers the handler set
// of the internal Interpreter flavor, which resolves resource sizes, dispatch
// dimensions and vertex counts against the live variables on every frame
// and records what it would have submitted as a trace.
package preview
