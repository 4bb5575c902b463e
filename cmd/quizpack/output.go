package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/gookit/color"
)

func printStep(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintf(w, "🔍 "+format+"\n", args...)
}

func printSuccess(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintln(w, color.Success.Sprintf("✅ "+format, args...))
}

func printWarning(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintln(w, color.Warn.Sprintf("⚠️  "+format, args...))
}

func printFailure(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintln(w, color.Error.Sprintf("❌ "+format, args...))
}

func printNote(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintln(w, color.Note.Sprintf(format, args...))
}

// buildReport is the machine-readable record written by --json-output
type buildReport struct {
	BuildID         string   `json:"build_id"`
	Pipeline        string   `json:"pipeline"`
	Profile         string   `json:"profile"`
	Executable      string   `json:"executable,omitempty"`
	Archive         string   `json:"archive,omitempty"`
	Checksums       []string `json:"checksums,omitempty"`
	Signature       string   `json:"signature,omitempty"`
	PatchState      string   `json:"patch_state,omitempty"`
	Warnings        []string `json:"warnings"`
	DurationSeconds float64  `json:"duration_seconds"`
	Success         bool     `json:"success"`
	Error           string   `json:"error,omitempty"`
	Timestamp       string   `json:"timestamp"`
}

func (r *buildReport) finish(d time.Duration, err error) {
	r.DurationSeconds = d.Seconds()
	r.Success = err == nil
	if err != nil {
		r.Error = err.Error()
	}
	if r.Warnings == nil {
		r.Warnings = []string{}
	}
	r.Timestamp = time.Now().UTC().Format(time.RFC3339)
}

func writeReport(path string, report *buildReport) error {
	if path == "" {
		return nil
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
