package codegen

import (
	"fmt"
	"strings"
)

// writer accumulates indented source lines.
type writer struct {
	sb     strings.Builder
	indent int
}

func (w *writer) line(format string, args ...any) {
	if format == "" {
		w.sb.WriteString("\n")
		return
	}
	for i := 0; i < w.indent; i++ {
		w.sb.WriteString("    ")
	}
	fmt.Fprintf(&w.sb, format, args...)
	w.sb.WriteString("\n")
}

// block writes a braced body, preceded by an if statement when cond is set.
func (w *writer) block(cond string, body func()) {
	if cond != "" {
		w.line("if (%s)", cond)
	}
	w.line("{")
	w.indent++
	body()
	w.indent--
	w.line("}")
}

func (w *writer) String() string { return w.sb.String() }

func (w *writer) reset(indent int) {
	w.sb.Reset()
	w.indent = indent
}
