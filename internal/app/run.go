package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/vk/rendergraph/internal/codegen"
	"github.com/vk/rendergraph/internal/ctxlog"
	"github.com/vk/rendergraph/internal/datatype"
	"github.com/vk/rendergraph/internal/engine"
	"github.com/vk/rendergraph/internal/flavor"
	"github.com/vk/rendergraph/internal/preset"
	"github.com/vk/rendergraph/internal/preview"
	"github.com/vk/rendergraph/internal/publish"
	"github.com/vk/rendergraph/internal/snapshot"
	"github.com/vk/rendergraph/internal/variables"
)

// Run executes the main application logic based on the app's configuration.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")
	cfg := a.config

	if cfg.HealthcheckPort > 0 {
		if err := a.startServer(ctx, fmt.Sprintf(":%d", cfg.HealthcheckPort)); err != nil {
			return err
		}
		defer a.closeServer(ctx)
	}

	if err := a.compile(ctx); err != nil {
		return err
	}

	if cfg.Flavor.Backend == flavor.BackendDX12 {
		if err := a.writeSource(); err != nil {
			return err
		}
	} else {
		if cfg.PublishURL != "" {
			p, err := publish.Connect(ctx, publish.Options{
				URL:                cfg.PublishURL,
				Namespace:          cfg.PublishNamespace,
				InsecureSkipVerify: cfg.PublishInsecure,
			})
			if err != nil {
				return fmt.Errorf("failed to connect frame publisher: %w", err)
			}
			a.publisher = p
			defer func() {
				p.Close(ctx)
				a.publisher = nil
			}()
		}
		if err := a.runFrames(ctx); err != nil {
			return err
		}
	}

	if cfg.PresetOut != "" {
		if err := a.savePreset(); err != nil {
			return err
		}
	}
	if cfg.SnapshotOut != "" {
		if err := a.saveSnapshot(); err != nil {
			return err
		}
	}

	a.printVariables()
	a.logger.Debug("App.Run method finished.")
	return nil
}

// compile compiles the graph and applies the preset, the input snapshot and
// the overrides, in that order.
func (a *App) compile(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	cfg := a.config

	if res := a.engine.Compile(ctx, cfg.GraphPath, cfg.Flavor); res != engine.OK {
		return fmt.Errorf("failed to compile %s: %s", cfg.GraphPath, res)
	}
	g := a.engine.Graph()
	a.logger.Info("Render graph compiled.",
		"graph", g.Name, "flavor", cfg.Flavor.String(),
		"nodes", len(g.Nodes), "variables", a.engine.RuntimeVariableCount())
	a.logNodes()

	vars := a.engine.Variables()
	if cfg.PresetPath != "" {
		p, err := preset.Load(cfg.PresetPath)
		if err != nil {
			return fmt.Errorf("failed to load preset: %w", err)
		}
		if err := p.Apply(vars); err != nil {
			a.logger.Warn("Preset partially applied.", "error", err)
		} else {
			a.logger.Info("Preset applied.", "preset", p.Name, "values", len(p.Variables))
		}
	}

	if cfg.SnapshotIn != "" {
		s, err := snapshot.Load(cfg.SnapshotIn)
		if err != nil {
			return fmt.Errorf("failed to load snapshot: %w", err)
		}
		restored, skipped := s.Restore(vars)
		a.logger.Info("Snapshot restored.", "restored", restored)
		if len(skipped) > 0 {
			a.logger.Warn("Snapshot values skipped.", "variables", strings.Join(skipped, ","))
		}
	}

	for _, set := range cfg.Sets {
		name, value, _ := strings.Cut(set, "=")
		name = strings.TrimSpace(name)
		if err := a.engine.SetRuntimeVariableFromString(a.engine.RuntimeVariableIndex(name), strings.TrimSpace(value)); err != nil {
			return fmt.Errorf("failed to set %q: %w", name, err)
		}
	}
	return nil
}

// runFrames executes the configured number of frames, or runs the live
// preview loop until ctx is cancelled.
func (a *App) runFrames(ctx context.Context) error {
	if a.config.Frames > 0 {
		for i := 0; i < a.config.Frames; i++ {
			if err := a.frame(ctx); err != nil {
				return fmt.Errorf("frame %d failed: %w", i, err)
			}
		}
		a.logger.Info("🏁 Frames finished.", "frames", a.config.Frames)
		return nil
	}

	if a.httpServer == nil {
		a.logger.Warn("No frames requested, execution not required.")
		return nil
	}

	a.logger.Info("🚀 Running live preview until interrupted...", "interval", a.config.FrameInterval.String())
	ticker := time.NewTicker(a.config.FrameInterval)
	defer ticker.Stop()
	frames := 0
	for {
		select {
		case <-ctx.Done():
			a.logger.Info("🏁 Live preview stopped.", "frames", frames)
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()
		case <-ticker.C:
			if err := a.frame(ctx); err != nil {
				return fmt.Errorf("frame %d failed: %w", frames, err)
			}
			frames++
		}
	}
}

func (a *App) frame(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	err := a.engine.Execute(ctx)
	if h, ok := a.engine.Handlers().(*preview.Handlers); ok {
		for _, ev := range h.Trace() {
			a.logger.Debug("Frame event.", "event", ev.String())
		}
		h.ResetTrace()
	}
	if err != nil {
		return err
	}
	if a.publisher != nil {
		a.publisher.Publish(ctx, a.frameResult())
	}
	a.frames++
	return nil
}

// frameResult captures the variable values after the current frame.
func (a *App) frameResult() publish.Frame {
	f := publish.Frame{
		Graph:     a.engine.Graph().Name,
		Index:     a.frames,
		Variables: make(map[string]string, a.engine.RuntimeVariableCount()),
	}
	for i := 0; i < a.engine.RuntimeVariableCount(); i++ {
		if v, err := a.engine.RuntimeVariableValueAsString(i); err == nil {
			e, _ := a.engine.RuntimeVariable(i)
			f.Variables[e.Variable.Name] = v
		}
	}
	return f
}

func (a *App) writeSource() error {
	g, ok := a.engine.Handlers().(*codegen.Generator)
	if !ok {
		return fmt.Errorf("flavor %s has no source generator", a.config.Flavor)
	}
	src, err := g.Source()
	if err != nil {
		return err
	}
	if a.config.OutputPath == "" {
		fmt.Fprint(a.outW, src)
		return nil
	}
	if err := os.WriteFile(a.config.OutputPath, []byte(src), 0o644); err != nil {
		return fmt.Errorf("failed to write source: %w", err)
	}
	a.logger.Info("Technique source written.", "path", a.config.OutputPath, "bytes", len(src))
	return nil
}

func (a *App) savePreset() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	p, err := preset.Capture(a.engine.Graph().Name, a.engine.Variables())
	if err != nil {
		return err
	}
	if err := p.Save(a.config.PresetOut); err != nil {
		return fmt.Errorf("failed to save preset: %w", err)
	}
	a.logger.Info("Preset saved.", "path", a.config.PresetOut, "values", len(p.Variables))
	return nil
}

func (a *App) saveSnapshot() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	s, err := snapshot.Capture(a.engine.Graph().Name, a.engine.Variables())
	if err != nil {
		return err
	}
	if err := snapshot.Save(a.config.SnapshotOut, s); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	a.logger.Info("Snapshot saved.", "path", a.config.SnapshotOut, "variables", len(s.Variables))
	return nil
}

// printVariables writes "name = value" for every variable. Enum values are
// followed by their label.
func (a *App) printVariables() {
	a.mu.Lock()
	defer a.mu.Unlock()

	for i := 0; i < a.engine.RuntimeVariableCount(); i++ {
		e, err := a.engine.RuntimeVariable(i)
		if err != nil {
			continue
		}
		fmt.Fprintf(a.outW, "%s = %s\n", e.Variable.Name, describe(e))
	}
}

func describe(e variables.Entry) string {
	value := datatype.Format(e.Variable.Type, e.Storage.Value)
	if e.Enum == nil {
		return value
	}
	i := int(datatype.Load[int32](e.Storage.Value, 0))
	if i < 0 || i >= len(e.Enum.Items) {
		return value
	}
	return fmt.Sprintf("%s (%s)", value, e.Enum.Items[i])
}
