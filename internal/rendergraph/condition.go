package rendergraph

import (
	"fmt"
	"strings"
)

// Comparison is the comparator a Condition applies.
type Comparison int

const (
	IsTrue Comparison = iota
	IsFalse
	Equals
	NotEquals
	LT
	LTE
	GT
	GTE
	// Always is the sentinel for "no comparison"; the condition always holds.
	Always
)

var comparisonNames = [...]string{
	IsTrue:    "IsTrue",
	IsFalse:   "IsFalse",
	Equals:    "Equals",
	NotEquals: "NotEquals",
	LT:        "LT",
	LTE:       "LTE",
	GT:        "GT",
	GTE:       "GTE",
	Always:    "Always",
}

func (c Comparison) String() string {
	if c < 0 || int(c) >= len(comparisonNames) {
		return fmt.Sprintf("Comparison(%d)", int(c))
	}
	return comparisonNames[c]
}

// ParseComparison resolves a comparator name case-insensitively. "Count"
// is accepted as an alias of Always.
func ParseComparison(name string) (Comparison, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" || strings.EqualFold(trimmed, "Count") {
		return Always, nil
	}
	for i, n := range comparisonNames {
		if strings.EqualFold(n, trimmed) {
			return Comparison(i), nil
		}
	}
	return Always, fmt.Errorf("unknown comparison %q", name)
}

// Condition guards a SetVariable rule or a node.
type Condition struct {
	Variable1  VariableRef
	Comparison Comparison
	Variable2  VariableRef
	Value2     string
	// AlwaysFalse forces the condition to fail regardless of the rest.
	AlwaysFalse bool
}

// AlwaysTrue returns a condition that always holds.
func AlwaysTrue() Condition {
	return Condition{Variable1: Unbound(), Comparison: Always, Variable2: Unbound()}
}

// IsConditional reports whether the condition can ever evaluate false.
func (c Condition) IsConditional() bool {
	return c.Comparison != Always || c.AlwaysFalse
}
