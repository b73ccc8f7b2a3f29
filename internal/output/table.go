// Package output provides terminal output utilities for tick.
//
// This package includes:
//   - Table rendering for backup listings
//   - Health report rendering with per-check status lines
//   - A spinner for indeterminate operations
//   - Human-readable formatting for sizes and dates
//
// All rendering uses ASCII characters and ANSI color codes for terminal
// output; colors are suppressed when stdout is not a TTY or NO_COLOR is
// set.
package output

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/ticktools/tick/internal/backup"
	"github.com/ticktools/tick/internal/integrity"
)

// ANSI color codes for status display
const (
	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorRed    = "\033[31m"
)

// IsColorEnabled returns true if ANSI color codes should be emitted.
// It checks that os.Stdout is a TTY and that the NO_COLOR env var is not set.
func IsColorEnabled() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isatty.IsTerminal(os.Stdout.Fd())
}

// colorize wraps text in the given ANSI color code if color is enabled,
// otherwise returns the plain text.
func colorize(color, text string) string {
	if IsColorEnabled() {
		return color + text + colorReset
	}
	return text
}

// RenderBackupTable renders the daily backup series, newest first.
// The records are expected pre-sorted by the backup engine.
func RenderBackupTable(records []backup.Record) string {
	if len(records) == 0 {
		return "No backups found.\n"
	}

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("%-12s %-10s %s\n", "Date", "Size", "Path"))
	sb.WriteString(strings.Repeat("─", 72))
	sb.WriteString("\n")

	for _, rec := range records {
		sb.WriteString(fmt.Sprintf("%-12s %-10s %s\n",
			rec.Date,
			FormatSize(rec.SizeBytes),
			rec.Path))
	}

	return sb.String()
}

// statusColor returns the ANSI color for a health status.
func statusColor(status integrity.HealthStatus) string {
	switch status {
	case integrity.StatusOK:
		return colorGreen
	case integrity.StatusWarning:
		return colorYellow
	default:
		return colorRed
	}
}

// statusGlyph returns the marker used in front of a check line.
func statusGlyph(status integrity.HealthStatus) string {
	switch status {
	case integrity.StatusOK:
		return "✓"
	case integrity.StatusWarning:
		return "⚠"
	default:
		return "✗"
	}
}

// renderCheckLine renders one check result with its details indented.
func renderCheckLine(sb *strings.Builder, name string, res integrity.CheckResult) {
	glyph := colorize(statusColor(res.Status), statusGlyph(res.Status))
	sb.WriteString(fmt.Sprintf("%s %-14s %s\n", glyph, name, res.Message))
	for _, detail := range res.Details {
		sb.WriteString(fmt.Sprintf("    %s\n", detail))
	}
}

// RenderHealthReport renders a full database check as per-check lines,
// an overall verdict, and any suggestions.
func RenderHealthReport(report *integrity.HealthReport) string {
	var sb strings.Builder

	renderCheckLine(&sb, "integrity", report.Integrity)
	renderCheckLine(&sb, "foreign keys", report.ForeignKey)
	renderCheckLine(&sb, "WAL", report.WAL)
	renderCheckLine(&sb, "tables", report.Table)

	sb.WriteString("\n")
	verdict := strings.ToUpper(report.Overall.String())
	sb.WriteString(fmt.Sprintf("Overall: %s\n", colorize(statusColor(report.Overall), verdict)))

	if len(report.Suggestions) > 0 {
		sb.WriteString("\nSuggestions:\n")
		for _, s := range report.Suggestions {
			sb.WriteString(fmt.Sprintf("  • %s\n", s))
		}
	}

	return sb.String()
}

// FormatSize converts bytes to human-readable size (GB, MB, KB).
func FormatSize(bytes int64) string {
	const (
		KB = 1024
		MB = 1024 * KB
		GB = 1024 * MB
	)

	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.1f GB", float64(bytes)/float64(GB))
	case bytes >= MB:
		return fmt.Sprintf("%.0f MB", float64(bytes)/float64(MB))
	case bytes >= KB:
		return fmt.Sprintf("%.0f KB", float64(bytes)/float64(KB))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}

// FormatRelativeTime converts a timestamp to relative time (e.g., "2 days ago").
func FormatRelativeTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}

	diff := time.Since(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		mins := int(diff.Minutes())
		if mins == 1 {
			return "1 minute ago"
		}
		return fmt.Sprintf("%d minutes ago", mins)
	case diff < 24*time.Hour:
		hours := int(diff.Hours())
		if hours == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", hours)
	case diff < 7*24*time.Hour:
		days := int(diff.Hours() / 24)
		if days == 1 {
			return "1 day ago"
		}
		return fmt.Sprintf("%d days ago", days)
	default:
		weeks := int(diff.Hours() / 24 / 7)
		if weeks == 1 {
			return "1 week ago"
		}
		return fmt.Sprintf("%d weeks ago", weeks)
	}
}
