// Package observability provides logging setup and formatted output for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/wins-exporter/internal/db"
	"github.com/jonathan/wins-exporter/internal/pipeline"
	"github.com/jonathan/wins-exporter/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

func truncate(line string, width int) string {
	if utf8.RuneCountInString(line) <= width {
		return line
	}
	runes := []rune(line)
	return string(runes[:width-3]) + "..."
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	inner := boxWidth - 4
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", inner, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		line = truncate(line, inner)
		pad := inner - utf8.RuneCountInString(line)
		fmt.Fprintf(p.out, "│ %s%s │\n", line, strings.Repeat(" ", pad))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// PrintRows outputs the first few rows with their populated fields.
func (p *Printer) PrintRows(rows []types.OutputRow) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Rows: %d\n", len(rows))

	count := min(len(rows), maxItemsToShow)
	for i := 0; i < count; i++ {
		r := rows[i]
		sb.WriteString("\n")
		fmt.Fprintf(&sb, "#%d  %s (%s)\n", i+1, r.Title, orDash(r.Category))
		fmt.Fprintf(&sb, "    Mint:   %s\n", orDash(r.PrimaryDate))
		fmt.Fprintf(&sb, "    Supply: %s  Price: %s\n", orDash(r.Quantity), orDash(r.Price))
		if r.ExternalLink != "" {
			fmt.Fprintf(&sb, "    %s\n", r.ExternalLink)
		}
	}
	if len(rows) > maxItemsToShow {
		fmt.Fprintf(&sb, "\n  ... and %d more\n", len(rows)-maxItemsToShow)
	}

	p.printBox("WIN ROWS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintExport summarizes a finished export.
func (p *Printer) PrintExport(path string, count int, snapshotSaved bool) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Destination: %s\n", path)
	fmt.Fprintf(&sb, "Rows:        %d\n", count)
	if snapshotSaved {
		sb.WriteString("Snapshot:    saved")
	} else {
		sb.WriteString("Snapshot:    not stored")
	}
	p.printBox("EXPORT COMPLETE", sb.String())
}

// PrintRuns lists stored export runs.
func (p *Printer) PrintRuns(runs []db.Run) {
	if len(runs) == 0 {
		p.printBox("STORED RUNS", "No runs stored")
		return
	}

	var sb strings.Builder
	for i, run := range runs {
		fmt.Fprintf(&sb, "%s\n", run.ID)
		fmt.Fprintf(&sb, "  %s  %d rows  %s\n", run.CreatedAt.UTC().Format("2006-01-02 15:04"), run.RowCount, run.Format)
		fmt.Fprintf(&sb, "  cutoff %s, retention %dd", run.Cutoff.UTC().Format("2006-01-02"), run.RetentionDays)
		if i < len(runs)-1 {
			sb.WriteString("\n")
		}
	}
	p.printBox("STORED RUNS", sb.String())
}

// PrintProgress writes one progress event as a single line.
//
//nolint:errcheck // writing to stderr; errors are not recoverable
func (p *Printer) PrintProgress(event pipeline.ProgressEvent) {
	marker := "…"
	switch event.Category {
	case "complete":
		marker = "✓"
	case "error":
		marker = "✗"
	}
	fmt.Fprintf(p.out, "%s [%s] %s\n", marker, event.Step, event.Message)
}
