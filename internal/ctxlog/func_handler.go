package ctxlog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// LogFunc receives one fully formatted diagnostic line.
type LogFunc func(level slog.Level, msg string)

// FuncHandler is a slog.Handler that forwards every record to a single
// LogFunc. Attributes are appended to the message as key=value pairs.
type FuncHandler struct {
	fn     LogFunc
	level  slog.Leveler
	attrs  string // pre-rendered attributes from WithAttrs
	groups []string
}

// NewFuncHandler returns a handler that forwards records at or above level to fn.
func NewFuncHandler(fn LogFunc, level slog.Leveler) *FuncHandler {
	if level == nil {
		level = slog.LevelInfo
	}
	return &FuncHandler{fn: fn, level: level}
}

// NewFuncLogger is a convenience wrapper returning a *slog.Logger backed by fn.
func NewFuncLogger(fn LogFunc, level slog.Leveler) *slog.Logger {
	return slog.New(NewFuncHandler(fn, level))
}

// Enabled implements slog.Handler.
func (h *FuncHandler) Enabled(_ context.Context, level slog.Level) bool {
	return h.fn != nil && level >= h.level.Level()
}

// Handle implements slog.Handler.
func (h *FuncHandler) Handle(_ context.Context, r slog.Record) error {
	var sb strings.Builder
	sb.WriteString(r.Message)
	sb.WriteString(h.attrs)
	r.Attrs(func(a slog.Attr) bool {
		writeAttr(&sb, h.groups, a)
		return true
	})
	h.fn(r.Level, sb.String())
	return nil
}

// WithAttrs implements slog.Handler.
func (h *FuncHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	var sb strings.Builder
	sb.WriteString(h.attrs)
	for _, a := range attrs {
		writeAttr(&sb, h.groups, a)
	}
	clone := *h
	clone.attrs = sb.String()
	return &clone
}

// WithGroup implements slog.Handler.
func (h *FuncHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.groups = append(append([]string{}, h.groups...), name)
	return &clone
}

func writeAttr(sb *strings.Builder, groups []string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	if a.Value.Kind() == slog.KindGroup {
		sub := groups
		if a.Key != "" {
			sub = append(append([]string{}, groups...), a.Key)
		}
		for _, ga := range a.Value.Group() {
			writeAttr(sb, sub, ga)
		}
		return
	}
	key := a.Key
	if len(groups) > 0 {
		key = strings.Join(groups, ".") + "." + key
	}
	fmt.Fprintf(sb, " %s=%v", key, a.Value.Any())
}
