// Package operator evaluates SetVariable rules.
//
// Apply is the pure core: it runs one operator component-wise over raw
// little-endian storage of a single scalar kind. Execute resolves the two
// operands of a rule against a live runtime, applies component-index
// overrides, and writes the result into the destination variable.
//
// Per-kind semantics:
//
//   - Integers wrap on overflow. Divide and Modulo by zero yield 0.
//     PowerOf2GE is exact and yields 0 for inputs below 1.
//   - Floats follow IEEE-754, so division by zero produces an infinity or
//     NaN. Modulo is the truncated remainder. Bitwise operators leave the
//     destination untouched.
//   - Bools treat Or, And, Xor and Not as logical operators. Arithmetic
//     leaves the destination untouched.
package operator
