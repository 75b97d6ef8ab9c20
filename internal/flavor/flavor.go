// Package flavor lists the build flavors a render graph can be compiled
// for. A flavor pairs a backend with a variant of that backend's output.
package flavor

import (
	"fmt"
	"strings"
)

// Backend names the handler set a flavor dispatches to.
type Backend string

const (
	BackendDX12        Backend = "DX12"
	BackendInterpreter Backend = "Interpreter"
)

// Flavor is one entry of the closed flavor list.
type Flavor struct {
	Backend Backend
	Variant string
	// Internal flavors are never offered to users.
	Internal bool
}

var (
	DX12Module             = Flavor{Backend: BackendDX12, Variant: "Module"}
	DX12Application        = Flavor{Backend: BackendDX12, Variant: "Application"}
	InterpreterInterpreter = Flavor{Backend: BackendInterpreter, Variant: "Interpreter", Internal: true}
)

var all = []Flavor{DX12Module, DX12Application, InterpreterInterpreter}

// String returns the flavor's name, backend and variant joined by "_".
func (f Flavor) String() string {
	return string(f.Backend) + "_" + f.Variant
}

// Known reports whether f is a member of the flavor list.
func (f Flavor) Known() bool {
	for _, k := range all {
		if k == f {
			return true
		}
	}
	return false
}

// All returns every flavor, internal ones included.
func All() []Flavor {
	return append([]Flavor(nil), all...)
}

// UserFacing returns the flavors that may be selected from outside.
func UserFacing() []Flavor {
	var out []Flavor
	for _, f := range all {
		if !f.Internal {
			out = append(out, f)
		}
	}
	return out
}

// Parse resolves a flavor name such as "DX12_Module", case-insensitively.
func Parse(name string) (Flavor, error) {
	trimmed := strings.TrimSpace(name)
	for _, f := range all {
		if strings.EqualFold(f.String(), trimmed) {
			return f, nil
		}
	}
	return Flavor{}, fmt.Errorf("unknown build flavor %q", name)
}

// ParseUserFacing is Parse restricted to flavors that are not internal.
func ParseUserFacing(name string) (Flavor, error) {
	f, err := Parse(name)
	if err != nil {
		return Flavor{}, err
	}
	if f.Internal {
		return Flavor{}, fmt.Errorf("build flavor %q is internal", f)
	}
	return f, nil
}
