package rendergraph

import (
	"fmt"
	"strings"
)

// Operator is the operation a SetVariable rule applies.
type Operator int

const (
	OpAdd Operator = iota
	OpSubtract
	OpMultiply
	OpDivide
	OpModulo
	OpBitwiseOr
	OpBitwiseAnd
	OpBitwiseXor
	OpBitwiseNot
	OpPowerOf2GE
	OpNoop
)

var operatorNames = [...]string{
	OpAdd:        "Add",
	OpSubtract:   "Subtract",
	OpMultiply:   "Multiply",
	OpDivide:     "Divide",
	OpModulo:     "Modulo",
	OpBitwiseOr:  "BitwiseOr",
	OpBitwiseAnd: "BitwiseAnd",
	OpBitwiseXor: "BitwiseXor",
	OpBitwiseNot: "BitwiseNot",
	OpPowerOf2GE: "PowerOf2GE",
	OpNoop:       "Noop",
}

func (o Operator) String() string {
	if o < 0 || int(o) >= len(operatorNames) {
		return fmt.Sprintf("Operator(%d)", int(o))
	}
	return operatorNames[o]
}

// Unary reports whether the operator ignores operand B.
func (o Operator) Unary() bool {
	return o == OpBitwiseNot || o == OpPowerOf2GE || o == OpNoop
}

// ParseOperator resolves an operator name case-insensitively.
func ParseOperator(name string) (Operator, error) {
	for i, n := range operatorNames {
		if strings.EqualFold(n, strings.TrimSpace(name)) {
			return Operator(i), nil
		}
	}
	return OpNoop, fmt.Errorf("unknown operator %q", name)
}

// Operand is one side of a SetVariable rule. Resolution order is: a
// referenced node's size or count, then the literal when no variable is
// bound, then the bound variable's current value.
type Operand struct {
	Node    NodeRef
	Var     VariableRef
	Literal string
	// Index selects a single component, or -1 for the whole value.
	Index int
}

// LiteralOperand builds an operand from literal text.
func LiteralOperand(text string) Operand {
	return Operand{Node: NoNode(), Var: Unbound(), Literal: text, Index: -1}
}

// VariableOperand builds an operand bound to a variable.
func VariableOperand(name string, index int) Operand {
	return Operand{Node: NoNode(), Var: VariableRef{Name: name, Index: index}, Index: -1}
}

// SetVariable is a conditional typed assignment to a graph variable, run
// before or after the node pass.
type SetVariable struct {
	Destination VariableRef
	// DestinationIndex selects a single destination component, or -1.
	DestinationIndex int
	Op               Operator
	A, B             Operand
	Condition        Condition
	SetBefore        bool
}
