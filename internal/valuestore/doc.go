// Package valuestore implements the typed byte storage behind every graph
// variable.
//
// # Layout
//
// Each variable owns one contiguous buffer of 2*Size bytes, where Size is
// the TypeBytes of its DataFieldType. The first half holds the live value and
// the second half holds the parsed default. Storage is keyed by the pair
// (name, type), so redeclaring a variable with a different type after a
// recompile yields fresh storage instead of reinterpreting stale bytes.
//
// # Lifetime
//
// Buffers are allocated lazily on first access. Slices returned by Get stay
// valid until Clear, after which they are detached from the store and
// further writes through them are not observed by anyone.
//
// # Concurrency
//
// The store is not safe for concurrent use. It is owned by a single engine
// which serializes access.
package valuestore
