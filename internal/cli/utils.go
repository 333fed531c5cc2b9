// Package cli provides CLI output utilities for Kurabe.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/hyperjump/kurabe/internal/models"
	"github.com/hyperjump/kurabe/internal/report"
)

// OutputFormat is the format for run output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// WriteRuns writes runs to w in the given format. Use OutputJSON for
// parseable output consumable by other apps.
func WriteRuns(w io.Writer, runs []*models.Run, format OutputFormat) error {
	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(runs)
	default:
		writeRunsText(w, runs)
		return nil
	}
}

func writeRunsText(w io.Writer, runs []*models.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded yet.")
		return
	}
	for _, run := range runs {
		fmt.Fprintf(w, "%s  %s\n", run.CreatedAt.Local().Format("2006-01-02 15:04"), run.ID)
		fmt.Fprintf(w, "  %s vs %s\n", run.ClientURL, run.CompetitorURL)
		fmt.Fprintf(w, "  queries: %s\n", strings.Join(run.Queries, ", "))
		WriteScores(w, run.Scores, "  ")
		if run.ReportPath != "" {
			fmt.Fprintf(w, "  report: %s\n", run.ReportPath)
		}
		fmt.Fprintln(w)
	}
}

// WriteScores writes scores sorted by label, each prefixed with a band
// marker matching the report's color coding.
func WriteScores(w io.Writer, scores map[string]float64, indent string) {
	labels := make([]string, 0, len(scores))
	for label := range scores {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	for _, label := range labels {
		fmt.Fprintf(w, "%s%s %s: %.3f\n", indent, ScoreMarker(scores[label]), label, scores[label])
	}
}

// ScoreMarker mirrors the report's score bands for terminal output.
func ScoreMarker(score float64) string {
	switch report.Band(score) {
	case report.BandGood:
		return "[+]"
	case report.BandMedium:
		return "[~]"
	default:
		return "[-]"
	}
}
