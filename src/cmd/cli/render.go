package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"hserr-agent/src/analysis"
	"hserr-agent/src/contracts"
	"hserr-agent/src/patterns"
	"hserr-agent/src/ranking"
)

var (
	nameStyle  = lipgloss.NewStyle().Bold(true)
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	tierStyles = map[int]lipgloss.Style{
		ranking.TierError: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
		ranking.TierWarn:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214")),
		ranking.TierInfo:  lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
	}
)

// severityLabel pads the severity to a fixed column.
func severityLabel(severity string) string {
	style := tierStyles[ranking.ClassifyTier(severity)]
	return style.Render(fmt.Sprintf("%-5s", severity))
}

// renderReport writes the summary and ranked diagnostics of one report.
func renderReport(w io.Writer, report contracts.DiagnosisReport) {
	s := report.Summary
	fmt.Fprintln(w, nameStyle.Render("== "+report.Name+" =="))

	field := func(label, value string) {
		fmt.Fprintf(w, "%s %s\n", labelStyle.Render(fmt.Sprintf("%-9s", label+":")), value)
	}
	field("Runtime", fmt.Sprintf("%s %s (%s)", s.Vendor, s.JavaVersion, s.InstallType))
	field("System", fmt.Sprintf("%s %s, %s memory", s.OS, s.Arch, s.PhysicalMemory))
	field("Heap", fmt.Sprintf("%s, max %s", s.Collectors, s.MaxHeap))
	field("Crash", fmt.Sprintf("%s at %s, %s after start", s.Signal, s.CrashTime, s.Elapsed))
	if s.ProblematicFrame != "" && s.ProblematicFrame != "unknown" {
		field("Frame", patterns.Normalize(s.ProblematicFrame, patterns.MaskPresentation))
	}
	if report.Recurrence > 1 {
		field("Seen", fmt.Sprintf("%d times (signature %s)", report.Recurrence, report.Signature))
	}
	if s.Truncated {
		field("Note", "log is truncated, later sections are missing")
	}
	fmt.Fprintln(w)

	for _, e := range ranking.RankEntries(report.Diagnostics).FlattenByTier() {
		fmt.Fprintf(w, "%s %s\n", severityLabel(e.Entry.Severity), e.Entry.Code)
		for _, line := range strings.Split(e.Entry.Message, "\n") {
			fmt.Fprintf(w, "      %s\n", line)
		}
	}
	fmt.Fprintf(w, "\n%d error(s), %d warning(s), %d info(s)\n", report.Errors, report.Warnings, report.Infos)
}

// renderReportList writes one line per stored report.
func renderReportList(w io.Writer, reports []contracts.DiagnosisReport) {
	if len(reports) == 0 {
		fmt.Fprintln(w, "No reports recorded.")
		return
	}
	fmt.Fprintln(w, labelStyle.Render(fmt.Sprintf("%-36s  %-20s  %3s  %3s  %4s  %s", "ID", "ANALYZED", "ERR", "WRN", "SEEN", "NAME")))
	for _, r := range reports {
		fmt.Fprintf(w, "%-36s  %-20s  %3d  %3d  %4d  %s\n",
			r.ID, r.AnalyzedAt.UTC().Format("2006-01-02T15:04:05Z"), r.Errors, r.Warnings, max(r.Recurrence, 1), r.Name)
	}
}

// renderStatus writes a request status.
func renderStatus(w io.Writer, status *contracts.RequestStatus) {
	fmt.Fprintf(w, "%s  %s  %s\n", status.RequestID, status.Status, status.Name)
	if status.ReportID != "" {
		fmt.Fprintf(w, "report: %s\n", status.ReportID)
	}
	if status.Error != "" {
		fmt.Fprintf(w, "error: %s\n", status.Error)
	}
}

// renderCodes writes the diagnostic catalog.
func renderCodes(w io.Writer, entries []analysis.Entry) {
	for _, e := range entries {
		fmt.Fprintf(w, "%s %s\n      %s\n", severityLabel(string(e.Severity)), e.Code, e.Template)
	}
}
