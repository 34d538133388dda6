package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/g3dtest/internal/config"
	"github.com/roach88/g3dtest/internal/harness"
	"github.com/roach88/g3dtest/internal/raster3d"
)

// Execute runs g3dtest with args and returns the process exit code: the
// number of failed checks, or ExitConfigError/ExitIOError.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer, opts ...Option) int {
	cmd := NewRootCommand(opts...)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	if err != nil {
		var exitErr *ExitError
		if !errors.As(err, &exitErr) || !exitErr.Reported {
			fmt.Fprintf(stderr, "Error: %v\n", err)
		}
	}
	return GetExitCode(err)
}

func runTests(cmd *cobra.Command, args []string, deps *runDeps) error {
	fs := cmd.Flags()
	out := &OutputFormatter{Format: requestedFormat(cmd, args), Writer: cmd.OutOrStdout()}

	if err := config.ApplyAssignments(fs, args); err != nil {
		return reportConfigError(out, err)
	}
	cfg, err := config.Load(fs)
	if err != nil {
		return reportConfigError(out, err)
	}
	out.Format = cfg.Format

	sel, err := cfg.Selection()
	if err != nil {
		return reportConfigError(out, err)
	}

	logger := newLogger(cmd.ErrOrStderr(), cfg.Verbose)
	engine := harness.NewRasterEngine(raster3d.NewEngine(
		raster3d.WithLegacyRLE(cfg.LegacyRLE),
		raster3d.WithLogger(logger),
	))

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			logger.Warn("received signal, cancelling checks", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	ids := make([]string, len(sel.IDs))
	for i, id := range sel.IDs {
		ids[i] = string(id)
	}
	logger.Info("starting g3d lib tests",
		"mode", string(sel.Mode),
		"tests", ids,
		"geometry", cfg.Geometry().String(),
		"tile_size_kb", cfg.TileSize,
		"compression", cfg.Compression().String(),
		"legacy_rle", cfg.LegacyRLE,
	)

	dispatcher := harness.NewDispatcher(engine, cfg.Params(),
		harness.WithLogger(logger),
		harness.WithRunIDs(deps.runIDs),
		harness.WithClock(deps.clock),
	)
	summary := dispatcher.Run(ctx, sel)

	if err := out.Summary(summary); err != nil {
		return WrapExitError(ExitIOError, "failed to write results", err)
	}
	if err := writeArtifacts(cfg, summary, logger); err != nil {
		return err
	}

	if !summary.OK() {
		return &ExitError{Code: summary.ExitCode(), Message: MsgFailed, Reported: true}
	}
	return nil
}

// requestedFormat is the format to report errors in before the full
// configuration has been validated: the last usable format= argument, else
// the --format flag, else text.
func requestedFormat(cmd *cobra.Command, args []string) string {
	format := "text"
	if f, err := cmd.Flags().GetString(config.FlagFormat); err == nil && slices.Contains(config.Formats, f) {
		format = f
	}
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if ok && key == config.FlagFormat && slices.Contains(config.Formats, value) {
			format = value
		}
	}
	return format
}

func reportConfigError(out *OutputFormatter, err error) error {
	var details any
	var ce *config.ConfigurationError
	if errors.As(err, &ce) && ce.Field != "" {
		details = map[string]string{"field": ce.Field}
	}
	if writeErr := out.Error(CodeConfig, err.Error(), details); writeErr != nil {
		return WrapExitError(ExitConfigError, "invalid configuration", err)
	}
	return &ExitError{Code: ExitConfigError, Message: "invalid configuration", Err: err, Reported: true}
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
