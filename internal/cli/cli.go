package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/vk/rendergraph/internal/app"
	"github.com/vk/rendergraph/internal/flavor"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

func flavorNames() string {
	var names []string
	for _, f := range flavor.UserFacing() {
		names = append(names, f.String())
	}
	return strings.Join(names, ", ")
}

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("rendergraph", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
RenderGraph - Compile, preview and generate render graph techniques.

Usage:
  rendergraph [options] [GRAPH_PATH]
  rendergraph -preview [options] [GRAPH_PATH]

Arguments:
  GRAPH_PATH
    Path to a render graph .hcl file, or a directory of .hcl files.

Options:
`)
		flagSet.PrintDefaults()
	}

	graphFlag := flagSet.String("graph", "", "Path to the render graph file or directory.")
	gFlag := flagSet.String("g", "", "Path to the render graph file or directory (shorthand).")
	flavorFlag := flagSet.String("flavor", flavor.DX12Module.String(), "Build flavor for generated source. Options: "+flavorNames()+".")
	previewFlag := flagSet.Bool("preview", false, "Run the graph in the interpreter instead of generating source.")
	framesFlag := flagSet.Int("frames", 1, "Number of preview frames to execute. 0 with a healthcheck port runs until interrupted.")
	intervalFlag := flagSet.Duration("frame-interval", app.DefaultFrameInterval, "Pause between live preview frames.")
	presetFlag := flagSet.String("preset", "", "TOML preset applied after compiling.")
	presetOutFlag := flagSet.String("preset-out", "", "TOML file receiving the final variable values as a preset.")
	snapshotInFlag := flagSet.String("snapshot-in", "", "Variable snapshot restored after the preset.")
	snapshotOutFlag := flagSet.String("snapshot-out", "", "File receiving a variable snapshot after running.")
	outFlag := flagSet.String("out", "", "File receiving generated source. Defaults to stdout.")
	publishURLFlag := flagSet.String("publish-url", "", "socket.io endpoint receiving every executed frame.")
	publishNSFlag := flagSet.String("publish-namespace", "/", "socket.io namespace for -publish-url.")
	publishInsecureFlag := flagSet.Bool("publish-insecure", false, "Skip TLS verification for -publish-url.")
	healthPortFlag := flagSet.Int("healthcheck-port", 0, "Port for the HTTP health check and variable server. 0 is disabled.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	var sets []string
	flagSet.Func("set", "Variable override as name=value. Repeatable.", func(s string) error {
		if name, _, ok := strings.Cut(s, "="); !ok || strings.TrimSpace(name) == "" {
			return fmt.Errorf("expected name=value, got %q", s)
		}
		sets = append(sets, s)
		return nil
	})

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	path := ""
	if *graphFlag != "" {
		path = *graphFlag
	} else if *gFlag != "" {
		path = *gFlag
	} else if flagSet.NArg() > 0 {
		path = flagSet.Arg(0)
	}
	slog.Debug("Graph path determined.", "path", path)

	if path == "" {
		slog.Debug("No graph path provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	f, err := flavor.ParseUserFacing(*flavorFlag)
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	if *previewFlag {
		flavorSet := false
		flagSet.Visit(func(fl *flag.Flag) {
			if fl.Name == "flavor" {
				flavorSet = true
			}
		})
		if flavorSet {
			return nil, false, &ExitError{Code: 2, Message: "-preview and -flavor cannot be combined"}
		}
		f = flavor.InterpreterInterpreter
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}
	slog.Debug("CLI parameter validation complete.")

	config, err := app.NewConfig(app.Config{
		GraphPath:        path,
		Flavor:           f,
		Frames:           *framesFlag,
		FrameInterval:    *intervalFlag,
		PresetPath:       *presetFlag,
		PresetOut:        *presetOutFlag,
		SnapshotIn:       *snapshotInFlag,
		SnapshotOut:      *snapshotOutFlag,
		OutputPath:       *outFlag,
		Sets:             sets,
		PublishURL:       *publishURLFlag,
		PublishNamespace: *publishNSFlag,
		PublishInsecure:  *publishInsecureFlag,
		HealthcheckPort:  *healthPortFlag,
		LogFormat:        logFormat,
		LogLevel:         logLevel,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "graph", config.GraphPath, "flavor", config.Flavor.String())
	return config, false, nil
}
