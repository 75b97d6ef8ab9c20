package ctxlog

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captured struct {
	level slog.Level
	msg   string
}

func TestFuncHandler_FormatsAttributes(t *testing.T) {
	var got []captured
	logger := NewFuncLogger(func(level slog.Level, msg string) {
		got = append(got, captured{level, msg})
	}, slog.LevelDebug)

	logger.With("node", "BlurH").WithGroup("op").Error("Init failed.", "kind", "ComputeShader")

	require.Len(t, got, 1)
	assert.Equal(t, slog.LevelError, got[0].level)
	assert.Equal(t, "Init failed. node=BlurH op.kind=ComputeShader", got[0].msg)
}

func TestFuncHandler_RespectsLevel(t *testing.T) {
	calls := 0
	logger := NewFuncLogger(func(slog.Level, string) { calls++ }, slog.LevelWarn)

	logger.Info("ignored")
	logger.Debug("ignored")
	logger.Warn("kept")

	assert.Equal(t, 1, calls)
}

func TestFromContext(t *testing.T) {
	logger := NewFuncLogger(func(slog.Level, string) {}, nil)
	ctx := WithLogger(context.Background(), logger)

	assert.Same(t, logger, FromContext(ctx))
	assert.Panics(t, func() { FromContext(context.Background()) })
}
