package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"hserr-agent/src/analyze"
	"hserr-agent/src/contracts"
	"hserr-agent/src/ingest"
	"hserr-agent/src/pipeline"
	"hserr-agent/src/samples"
	"hserr-agent/src/store"
	"hserr-agent/src/tui"
)

// stdinName is the argument that selects standard input.
const stdinName = "-"

// parseNow returns the reference time for age checks. An empty value
// means the current time.
func parseNow(value string) (time.Time, error) {
	if value == "" {
		return nowUTC(), nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --now %q: expected RFC 3339, e.g. 2024-01-15T14:30:00Z", value)
	}
	return t.UTC(), nil
}

func nowUTC() time.Time {
	return time.Now().UTC()
}

// reportName is the display name for a report argument.
func reportName(path string) string {
	if path == stdinName {
		return "stdin"
	}
	return filepath.Base(path)
}

// loadLines reads a report from a file or from stdin.
func loadLines(path string, stdin io.Reader) ([]string, error) {
	if path == stdinName {
		lines, err := ingest.Read(stdin)
		if err != nil {
			return nil, ingest.WrapError(fmt.Errorf("stdin: %w", err))
		}
		return lines, nil
	}
	lines, err := ingest.Load(path)
	if err != nil {
		return nil, ingest.WrapError(err)
	}
	return lines, nil
}

// analyzeFiles analyzes each report in-process. When history is set,
// reports are saved and their recurrence filled in.
func analyzeFiles(ctx context.Context, paths []string, now time.Time, history store.Store, progress func(tui.ProgressMsg)) ([]contracts.DiagnosisReport, error) {
	reports := make([]contracts.DiagnosisReport, 0, len(paths))
	for i, path := range paths {
		notify(progress, tui.ProgressMsg{Stage: "Analyzing " + reportName(path), Current: i, Total: len(paths)})

		lines, err := loadLines(path, os.Stdin)
		if err != nil {
			return nil, err
		}
		report := analyze.Analyze(lines, now)
		report.Name = reportName(path)

		if history != nil {
			if err := record(ctx, history, &report); err != nil {
				return nil, err
			}
		}
		reports = append(reports, report)
	}
	notify(progress, tui.ProgressMsg{Stage: tui.StageComplete, Current: len(paths), Total: len(paths)})
	return reports, nil
}

// analyzeSamples analyzes the bundled sample logs.
func analyzeSamples(names []string, progress func(tui.ProgressMsg)) []contracts.DiagnosisReport {
	now := nowUTC()
	reports := make([]contracts.DiagnosisReport, 0, len(names))
	for i, name := range names {
		notify(progress, tui.ProgressMsg{Stage: "Analyzing " + name, Current: i, Total: len(names)})
		report := analyze.Analyze(samples.Lines(name), now)
		report.Name = name
		reports = append(reports, report)
	}
	notify(progress, tui.ProgressMsg{Stage: tui.StageComplete, Current: len(names), Total: len(names)})
	return reports
}

func notify(progress func(tui.ProgressMsg), msg tui.ProgressMsg) {
	if progress != nil {
		progress(msg)
	}
}

// record saves report and sets its recurrence from the history.
func record(ctx context.Context, history store.Store, report *contracts.DiagnosisReport) error {
	if err := history.SaveReport(ctx, report); err != nil {
		return fmt.Errorf("failed to save %s: %w", report.Name, err)
	}
	count, err := history.CountBySignature(ctx, report.Signature)
	if err != nil {
		return fmt.Errorf("failed to count signature %s: %w", report.Signature, err)
	}
	report.Recurrence = count
	return nil
}

// buildRequest reads a report and wraps it as an inline request, so the
// agents need no access to the caller's filesystem.
func buildRequest(path string) (contracts.CrashReportRequest, error) {
	var (
		data []byte
		err  error
	)
	if path == stdinName {
		data, err = ingest.ReadRaw(os.Stdin)
	} else {
		var f *os.File
		f, err = os.Open(path)
		if err == nil {
			data, err = ingest.ReadRaw(f)
			f.Close()
		}
	}
	if err != nil {
		return contracts.CrashReportRequest{}, ingest.WrapError(fmt.Errorf("%s: %w", reportName(path), err))
	}
	if _, err := ingest.Parse(data); err != nil {
		return contracts.CrashReportRequest{}, ingest.WrapError(fmt.Errorf("%s: %w", reportName(path), err))
	}

	return contracts.CrashReportRequest{
		Source:  contracts.SourceInline,
		Name:    reportName(path),
		Content: string(data),
	}, nil
}

// waitAll waits for every request in order.
func waitAll(ctx context.Context, p pipeline.Pipeline, ids []string) ([]contracts.DiagnosisReport, error) {
	reports := make([]contracts.DiagnosisReport, 0, len(ids))
	for _, id := range ids {
		report, err := p.Wait(ctx, id)
		if err != nil {
			return nil, err
		}
		reports = append(reports, *report)
	}
	return reports, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
