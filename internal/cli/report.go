package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/natefinch/atomic"

	"github.com/roach88/g3dtest/internal/config"
	"github.com/roach88/g3dtest/internal/harness"
)

// Report is the JSON document written with --report.
type Report struct {
	RunID       string          `json:"run_id"`
	Compression string          `json:"compression"`
	Config      config.Config   `json:"config"`
	Summary     harness.Summary `json:"summary"`
	ExitCode    int             `json:"exit_code"`
	Message     string          `json:"message"`
}

func newReport(cfg config.Config, s harness.Summary) Report {
	msg := MsgSuccess
	if !s.OK() {
		msg = MsgFailed
	}
	return Report{
		RunID:       s.RunID,
		Compression: cfg.Compression().String(),
		Config:      cfg,
		Summary:     s,
		ExitCode:    s.ExitCode(),
		Message:     msg,
	}
}

// writeReport replaces path atomically, so readers never see a partial
// report.
func writeReport(path string, r Report) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	data = append(data, '\n')
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write report %s: %w", path, err)
	}
	return nil
}

// writeArtifacts writes the optional report and metrics files.
func writeArtifacts(cfg config.Config, s harness.Summary, logger *slog.Logger) error {
	if cfg.Report != "" {
		if err := writeReport(cfg.Report, newReport(cfg, s)); err != nil {
			return WrapExitError(ExitIOError, "failed to write report", err)
		}
		logger.Info("report written", "path", cfg.Report)
	}
	if cfg.MetricsFile != "" {
		m := harness.NewMetrics()
		m.Observe(s)
		if err := m.WriteTextfile(cfg.MetricsFile); err != nil {
			return WrapExitError(ExitIOError, "failed to write metrics", err)
		}
		logger.Info("metrics written", "path", cfg.MetricsFile)
	}
	return nil
}
