package engine

import "github.com/vk/rendergraph/internal/variables"

// RuntimeVariableCount returns the number of bound variables.
func (e *Engine) RuntimeVariableCount() int {
	return e.vars.Count()
}

// RuntimeVariable returns the bound variable at index.
func (e *Engine) RuntimeVariable(index int) (variables.Entry, error) {
	return e.vars.At(index)
}

// RuntimeVariableIndex returns the index of the named variable, or -1.
func (e *Engine) RuntimeVariableIndex(name string) int {
	return e.vars.Index(name)
}

// RuntimeVariableValueAsString formats the current value of a variable.
func (e *Engine) RuntimeVariableValueAsString(index int) (string, error) {
	return e.vars.ValueString(index)
}

// SetRuntimeVariableFromString parses text into a variable. Enum variables
// accept labels as well as numbers.
func (e *Engine) SetRuntimeVariableFromString(index int, text string) error {
	return e.vars.SetFromString(index, text)
}

// SetRuntimeVariableToDefault restores a variable to its default value.
func (e *Engine) SetRuntimeVariableToDefault(index int) error {
	return e.vars.SetToDefault(index)
}
