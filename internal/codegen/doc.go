// Package codegen is the source-generating backend. It registers the handler
// set of the DX12 flavors, which translates every node, SetVariable rule and
// condition of a compiled graph into technique source text. The generated
// rules follow the same semantics as the interpreter: guarded integer
// division, fmod for floats, logical operators for booleans, and Pow2GE.
package codegen
