// Package main provides the hserr command line tool.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"hserr-agent/src/analysis"
	"hserr-agent/src/config"
	"hserr-agent/src/contracts"
	"hserr-agent/src/ingest"
	"hserr-agent/src/logger"
	"hserr-agent/src/pipeline"
	"hserr-agent/src/ranking"
	"hserr-agent/src/samples"
	"hserr-agent/src/store"
	"hserr-agent/src/tui"
)

// appConfig is loaded before any command runs.
var appConfig *config.Config

var rootCmd = &cobra.Command{
	Use:   "hserr",
	Short: "hserr - diagnose JVM fatal error logs",
	Long: `hserr reads JVM fatal error logs (hs_err_pid<pid>.log) and explains
why the JVM crashed: the crashing code, memory exhaustion, known runtime
defects and risky configuration, ranked by severity.

Reports can be analyzed in-process, or submitted to the ingest and
analyze agents when REDPANDA_BROKERS and POSTGRES_DSN are set.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		appConfig, err = config.LoadFromEnv()
		if err != nil {
			return fmt.Errorf("configuration error: %w", err)
		}
		return nil
	},
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze <hs_err.log|-> [more...]",
	Short: "Analyze crash reports and print the diagnosis",
	Long: `Analyzes one or more fatal error logs in-process and prints the ranked
diagnostics. Use - to read standard input. Gzip-compressed logs are
accepted.

With --save the reports are recorded in the SQLite history
(HSERR_SQLITE_PATH or --db), so repeated crashes with the same
signature are counted.

Example:
  hserr analyze hs_err_pid4242.log
  hserr analyze --json --save --db ~/.hserr.db /var/log/app/hs_err_pid*.log`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		jsonOut, _ := cmd.Flags().GetBool("json")
		save, _ := cmd.Flags().GetBool("save")
		view, _ := cmd.Flags().GetBool("view")
		dbPath, _ := cmd.Flags().GetString("db")
		nowFlag, _ := cmd.Flags().GetString("now")

		now, err := parseNow(nowFlag)
		if err != nil {
			return err
		}

		var history store.Store
		if save {
			history, err = openHistory(cmd.Context(), appConfig, dbPath)
			if err != nil {
				return err
			}
			defer history.Close()
		}

		if view {
			return tui.StartLoading("hserr", func(progress func(tui.ProgressMsg)) ([]contracts.DiagnosisReport, error) {
				return analyzeFiles(cmd.Context(), args, now, history, progress)
			})
		}

		reports, err := analyzeFiles(cmd.Context(), args, now, history, nil)
		if err != nil {
			return err
		}
		if jsonOut {
			return writeJSON(os.Stdout, reports)
		}
		for i := range reports {
			if i > 0 {
				fmt.Println()
			}
			renderReport(os.Stdout, reports[i])
		}
		return nil
	},
}

var submitCmd = &cobra.Command{
	Use:   "submit <hs_err.log|-> [more...]",
	Short: "Submit crash reports to the ingest and analyze agents",
	Long: `Publishes crash reports to the hserr.requests topic. In local mode
the agents run in this process and the command always waits. In
distributed mode (REDPANDA_BROKERS and POSTGRES_DSN set) it prints the
request ids unless --wait is given.

Example:
  hserr submit hs_err_pid4242.log
  hserr submit --wait --json hs_err_pid4242.log`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		wait, _ := cmd.Flags().GetBool("wait")
		jsonOut, _ := cmd.Flags().GetBool("json")
		ctx := cmd.Context()

		p, err := pipeline.New(ctx, appConfig, cliLogger())
		if err != nil {
			return err
		}
		defer p.Close()

		if p.Mode() == pipeline.LocalMode {
			wait = true
		}

		ids := make([]string, 0, len(args))
		for _, path := range args {
			request, err := buildRequest(path)
			if err != nil {
				return err
			}
			id, err := p.Submit(ctx, request)
			if err != nil {
				return err
			}
			ids = append(ids, id)
		}

		if !wait {
			for _, id := range ids {
				fmt.Println(id)
			}
			return nil
		}

		reports, err := waitAll(ctx, p, ids)
		if err != nil {
			return err
		}
		if jsonOut {
			return writeJSON(os.Stdout, reports)
		}
		for i := range reports {
			if i > 0 {
				fmt.Println()
			}
			renderReport(os.Stdout, reports[i])
		}
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status <request-id>",
	Short: "Show the status of a submitted request",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		p, err := pipeline.New(ctx, appConfig, cliLogger())
		if err != nil {
			return err
		}
		defer p.Close()

		status, err := p.Status(ctx, args[0])
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("unknown request %s", args[0])
		}
		if err != nil {
			return err
		}
		renderStatus(os.Stdout, status)
		return nil
	},
}

var viewCmd = &cobra.Command{
	Use:   "view [hs_err.log...]",
	Short: "Open the interactive diagnosis viewer",
	Long: `Opens the terminal viewer. With files, analyzes them first. Without
files, shows the reports recorded in the history (SQLite or Postgres).
With --demo, shows the bundled sample crash reports.

Keys: j/k to move, 0-3 to filter by tier, Tab to switch report,
/ to search, Enter to focus the detail panel, q to quit.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		demo, _ := cmd.Flags().GetBool("demo")
		dbPath, _ := cmd.Flags().GetString("db")
		limit, _ := cmd.Flags().GetInt("limit")
		ctx := cmd.Context()

		switch {
		case demo:
			return tui.StartLoading("hserr demo", func(progress func(tui.ProgressMsg)) ([]contracts.DiagnosisReport, error) {
				return analyzeSamples(samples.Names(), progress), nil
			})
		case len(args) > 0:
			return tui.StartLoading("hserr", func(progress func(tui.ProgressMsg)) ([]contracts.DiagnosisReport, error) {
				return analyzeFiles(ctx, args, nowUTC(), nil, progress)
			})
		}

		history, err := openHistory(ctx, appConfig, dbPath)
		if err != nil {
			return err
		}
		defer history.Close()

		reports, err := history.ListReports(ctx, store.Filter{Limit: limit})
		if err != nil {
			return err
		}
		if len(reports) == 0 {
			return errors.New("no reports recorded yet; run hserr analyze --save first")
		}
		return tui.Start("hserr history", reports)
	},
}

var reportsCmd = &cobra.Command{
	Use:   "reports",
	Short: "List recorded reports",
	RunE: func(cmd *cobra.Command, args []string) error {
		signature, _ := cmd.Flags().GetString("signature")
		limit, _ := cmd.Flags().GetInt("limit")
		byPriority, _ := cmd.Flags().GetBool("priority")
		jsonOut, _ := cmd.Flags().GetBool("json")
		dbPath, _ := cmd.Flags().GetString("db")
		ctx := cmd.Context()

		history, err := openHistory(ctx, appConfig, dbPath)
		if err != nil {
			return err
		}
		defer history.Close()

		reports, err := history.ListReports(ctx, store.Filter{Signature: signature, Limit: limit})
		if err != nil {
			return err
		}
		if byPriority {
			ranking.SortReports(reports)
		}
		if jsonOut {
			return writeJSON(os.Stdout, reports)
		}
		renderReportList(os.Stdout, reports)
		return nil
	},
}

var codesCmd = &cobra.Command{
	Use:   "codes [code...]",
	Short: "List diagnostic codes with their severity and message",
	RunE: func(cmd *cobra.Command, args []string) error {
		entries := analysis.Catalog()
		if len(args) > 0 {
			entries = entries[:0:0]
			for _, code := range args {
				e, ok := analysis.Lookup(analysis.Code(code))
				if !ok {
					return fmt.Errorf("unknown code %q; run hserr codes to list them", code)
				}
				entries = append(entries, e)
			}
		}
		renderCodes(os.Stdout, entries)
		return nil
	},
}

// cliLogger logs to stderr so stdout stays parseable.
func cliLogger() logger.Logger {
	return logger.NewWriterLogger(os.Stderr, os.Stderr, appConfig.Debug)
}

func init() {
	rootCmd.AddCommand(analyzeCmd, submitCmd, statusCmd, viewCmd, reportsCmd, codesCmd)

	analyzeCmd.Flags().Bool("json", false, "Print reports as JSON")
	analyzeCmd.Flags().Bool("save", false, "Record reports in the history database")
	analyzeCmd.Flags().Bool("view", false, "Open the results in the interactive viewer")
	analyzeCmd.Flags().String("now", "", "Reference time for age checks (RFC 3339, default: now)")

	submitCmd.Flags().BoolP("wait", "w", false, "Wait for the diagnosis (always on in local mode)")
	submitCmd.Flags().Bool("json", false, "Print reports as JSON")

	viewCmd.Flags().Bool("demo", false, "Show the bundled sample crash reports")
	viewCmd.Flags().Int("limit", 50, "Max reports loaded from the history")

	reportsCmd.Flags().String("signature", "", "Only reports with this crash signature")
	reportsCmd.Flags().Int("limit", 20, "Max reports")
	reportsCmd.Flags().Bool("priority", false, "Order by errors, then recurrence, then time")
	reportsCmd.Flags().Bool("json", false, "Print reports as JSON")

	for _, c := range []*cobra.Command{analyzeCmd, viewCmd, reportsCmd} {
		c.Flags().String("db", "", "History database path (default: HSERR_SQLITE_PATH)")
	}
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", strings.TrimSpace(formatError(err)))
		os.Exit(1)
	}
}

// formatError renders user errors with their hint.
func formatError(err error) string {
	var ue *ingest.UserError
	if errors.As(err, &ue) {
		return ue.Error()
	}
	return err.Error()
}
