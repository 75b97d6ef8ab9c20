// Package preset reads and writes named sets of variable values in TOML.
//
//	name = "HighQuality"
//
//	[variables]
//	radius  = 8
//	mode    = "Quality"
//	tint    = [0.5, 0.5, 1.0]
//	enabled = true
package preset

import (
	"bytes"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/vk/rendergraph/internal/datatype"
	"github.com/vk/rendergraph/internal/variables"
)

// Preset is a named set of variable values.
type Preset struct {
	Name      string         `toml:"name,omitempty"`
	Variables map[string]any `toml:"variables"`
}

// Load parses the preset file at path.
func Load(path string) (*Preset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}
	p, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	return p, nil
}

// Parse decodes a preset from TOML text.
func Parse(data []byte) (*Preset, error) {
	var p Preset
	if err := toml.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	if p.Variables == nil {
		p.Variables = make(map[string]any)
	}
	return &p, nil
}

// Apply sets every value of p on t, in name order, the same way a value
// typed by a user is set. Unknown variables and values that cannot be
// rendered are skipped and reported together.
func (p *Preset) Apply(t *variables.Table) error {
	names := make([]string, 0, len(p.Variables))
	for name := range p.Variables {
		names = append(names, name)
	}
	sort.Strings(names)

	var problems []string
	for _, name := range names {
		text, err := valueText(p.Variables[name])
		if err != nil {
			problems = append(problems, fmt.Sprintf("%s: %v", name, err))
			continue
		}
		i := t.Index(name)
		if i < 0 {
			problems = append(problems, fmt.Sprintf("%s: %v", name, variables.ErrUnknownVariable))
			continue
		}
		if err := t.SetFromString(i, text); err != nil {
			problems = append(problems, fmt.Sprintf("%s: %v", name, err))
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("preset %q not fully applied:\n- %s", p.Name, strings.Join(problems, "\n- "))
	}
	return nil
}

// valueText renders a decoded TOML value as variable text.
func valueText(v any) (string, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case bool:
		return strconv.FormatBool(x), nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64), nil
	case []any:
		parts := make([]string, len(x))
		for i, item := range x {
			s, err := valueText(item)
			if err != nil {
				return "", err
			}
			parts[i] = s
		}
		return strings.Join(parts, ", "), nil
	}
	return "", fmt.Errorf("unsupported value %T", v)
}

// Capture records the current value of every variable in t.
func Capture(name string, t *variables.Table) (*Preset, error) {
	p := &Preset{Name: name, Variables: make(map[string]any, t.Count())}
	for i := 0; i < t.Count(); i++ {
		e, err := t.At(i)
		if err != nil {
			return nil, err
		}
		info := e.Variable.Type.Info()
		values := make([]any, info.ComponentCount)
		for c := range values {
			values[c] = scalarValue(info.Scalar, e.Storage.Value, c)
		}
		if len(values) == 1 {
			p.Variables[e.Variable.Name] = values[0]
		} else {
			p.Variables[e.Variable.Name] = values
		}
	}
	return p, nil
}

func scalarValue(s datatype.Scalar, b []byte, i int) any {
	switch s {
	case datatype.ScalarInt:
		return int64(datatype.Load[int32](b, i))
	case datatype.ScalarUint:
		return int64(datatype.Load[uint32](b, i))
	case datatype.ScalarUint16:
		return int64(datatype.Load[uint16](b, i))
	case datatype.ScalarFloat:
		return float64(datatype.Load[float32](b, i))
	case datatype.ScalarBool:
		return datatype.LoadBool(b, i)
	}
	return nil
}

// Encode renders p as TOML.
func (p *Preset) Encode() ([]byte, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(p); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Save writes p to path.
func (p *Preset) Save(path string) error {
	data, err := p.Encode()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
