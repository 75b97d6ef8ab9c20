// Package datatype defines the closed set of value shapes a render graph
// variable can take, a static table describing each shape, and the scalar
// codec used to move values between text and raw little-endian storage.
//
// Every shape is a fixed number of components of one scalar kind. Storage
// for a shape is always ComponentCount * ScalarBytes bytes; booleans are
// held at full 32-bit width so they flow through the same code paths as the
// other scalar kinds.
package datatype
