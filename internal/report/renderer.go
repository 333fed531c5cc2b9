// Package report renders the interactive HTML comparison report: a 3D
// scatter of all embedded elements with group centroids and arrows toward
// the query centroid, plus the similarity score breakdown.
package report

import (
	"encoding/json"
	"fmt"
	"html/template"
	"os"
	"sort"

	"go.uber.org/zap"

	"github.com/hyperjump/kurabe/internal/models"
	"github.com/hyperjump/kurabe/pkg/utils"
)

const (
	queriesLabel = "Queries"
	reportBase   = "embedding_comparison"

	colorQueries = "#2ca02c"
	colorClient  = "#1f77b4"
	colorRival   = "#ff7f0e"
)

// Score bands for the report's color coding.
const (
	BandGood   = "good"
	BandMedium = "medium"
	BandPoor   = "poor"
)

// Band classifies a cosine similarity score for display.
func Band(score float64) string {
	switch {
	case score >= 0.7:
		return BandGood
	case score >= 0.5:
		return BandMedium
	default:
		return BandPoor
	}
}

// Renderer writes versioned HTML reports into an output directory.
type Renderer struct {
	outputDir string
	logger    *zap.Logger
}

// RendererOption configures a Renderer.
type RendererOption func(*Renderer)

// WithLogger sets a logger.
func WithLogger(l *zap.Logger) RendererOption {
	return func(r *Renderer) { r.logger = l }
}

// NewRenderer returns a Renderer writing into outputDir.
func NewRenderer(outputDir string, opts ...RendererOption) *Renderer {
	r := &Renderer{outputDir: outputDir}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// trace is the subset of a Plotly trace the report needs.
type trace struct {
	Type   string    `json:"type"`
	Mode   string    `json:"mode,omitempty"`
	Name   string    `json:"name,omitempty"`
	X      []float64 `json:"x"`
	Y      []float64 `json:"y,omitempty"`
	Z      []float64 `json:"z,omitempty"`
	Text   []string  `json:"text,omitempty"`
	Marker *marker   `json:"marker,omitempty"`
	Line   *line     `json:"line,omitempty"`
}

type barTrace struct {
	Type   string    `json:"type"`
	X      []string  `json:"x"`
	Y      []float64 `json:"y"`
	Marker *marker   `json:"marker,omitempty"`
}

type marker struct {
	Symbol string `json:"symbol,omitempty"`
	Size   any    `json:"size,omitempty"`
	Color  any    `json:"color,omitempty"`
}

type line struct {
	Color string `json:"color,omitempty"`
	Width int    `json:"width,omitempty"`
	Dash  string `json:"dash,omitempty"`
}

type scoreRow struct {
	Label string
	Value string
	Band  string
}

type pageData struct {
	Title       string
	Method      string
	ScatterJSON template.JS
	BarJSON     template.JS
	Scores      []scoreRow
}

// Render writes the report for result and returns the path written. Output
// files are versioned so re-runs after content changes sit side by side.
func (r *Renderer) Render(result *models.AnalysisResult, clientDomain, competitorDomain string) (string, error) {
	title := "Content Embedding Analysis"
	if clientDomain != "" && competitorDomain != "" {
		title = fmt.Sprintf("Content Embedding Analysis: %s vs %s", clientDomain, competitorDomain)
	}

	scatter, err := json.Marshal(r.scatterTraces(result))
	if err != nil {
		return "", fmt.Errorf("marshal scatter traces: %w", err)
	}
	bar, err := json.Marshal(r.barTraces(result.Scores))
	if err != nil {
		return "", fmt.Errorf("marshal bar traces: %w", err)
	}

	data := pageData{
		Title:       title,
		Method:      result.Method,
		ScatterJSON: template.JS(scatter),
		BarJSON:     template.JS(bar),
		Scores:      scoreRows(result.Scores),
	}

	path, err := utils.VersionedPath(r.outputDir, reportBase, ".html")
	if err != nil {
		return "", err
	}
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create report: %w", err)
	}
	defer f.Close()

	if err := reportTemplate.Execute(f, data); err != nil {
		return "", fmt.Errorf("render report: %w", err)
	}
	if r.logger != nil {
		r.logger.Info("report written", zap.String("path", path))
	}
	return path, nil
}

// scatterTraces builds one point trace per label plus centroid diamonds and
// dotted arrows from each content centroid to the query centroid.
func (r *Renderer) scatterTraces(result *models.AnalysisResult) []trace {
	groups, order := groupRecords(result.Records)

	var traces []trace
	for _, label := range order {
		recs := groups[label]
		t := trace{
			Type: "scatter3d",
			Mode: "markers",
			Name: label,
			Marker: &marker{
				Symbol: recs[0].Symbol,
				Size:   recs[0].Size,
				Color:  labelColor(label, order),
			},
		}
		for _, rec := range recs {
			t.X = append(t.X, rec.X)
			t.Y = append(t.Y, rec.Y)
			t.Z = append(t.Z, rec.Z)
			t.Text = append(t.Text, fmt.Sprintf("%s: %s", rec.Type, utils.Truncate(rec.Value, 80)))
		}
		traces = append(traces, t)
	}

	queryCentroid, hasQueries := result.Centroids[queriesLabel]
	for _, label := range order {
		centroid, ok := result.Centroids[label]
		if !ok {
			continue
		}
		symbol := "diamond"
		if label == queriesLabel {
			symbol = "diamond-open"
		}
		color := labelColor(label, order)
		traces = append(traces, trace{
			Type:   "scatter3d",
			Mode:   "markers",
			Name:   "Mean: " + label,
			X:      []float64{centroid[0]},
			Y:      []float64{centroid[1]},
			Z:      []float64{centroid[2]},
			Marker: &marker{Symbol: symbol, Size: 15, Color: color},
		})
		if label != queriesLabel && hasQueries {
			traces = append(traces, trace{
				Type:   "scatter3d",
				Mode:   "lines+markers",
				Name:   fmt.Sprintf("%s to %s", label, queriesLabel),
				X:      []float64{centroid[0], queryCentroid[0]},
				Y:      []float64{centroid[1], queryCentroid[1]},
				Z:      []float64{centroid[2], queryCentroid[2]},
				Marker: &marker{Size: 2},
				Line:   &line{Color: color, Width: 3, Dash: "dot"},
			})
		}
	}
	return traces
}

func (r *Renderer) barTraces(scores map[string]float64) []barTrace {
	labels := sortedLabels(scores)
	t := barTrace{Type: "bar"}
	var colors []string
	for _, label := range labels {
		t.X = append(t.X, label)
		t.Y = append(t.Y, scores[label])
		colors = append(colors, bandColor(Band(scores[label])))
	}
	t.Marker = &marker{Color: colors}
	return []barTrace{t}
}

// groupRecords splits records by label, preserving first-seen order so the
// client group renders before the competitor and query groups.
func groupRecords(records []models.EmbeddingRecord) (map[string][]models.EmbeddingRecord, []string) {
	groups := make(map[string][]models.EmbeddingRecord)
	var order []string
	for _, rec := range records {
		if _, seen := groups[rec.Label]; !seen {
			order = append(order, rec.Label)
		}
		groups[rec.Label] = append(groups[rec.Label], rec)
	}
	return groups, order
}

// labelColor assigns the query group green and alternates blue/orange for
// content groups by their position.
func labelColor(label string, order []string) string {
	if label == queriesLabel {
		return colorQueries
	}
	pos := 0
	for _, l := range order {
		if l == queriesLabel {
			continue
		}
		if l == label {
			break
		}
		pos++
	}
	if pos%2 == 0 {
		return colorClient
	}
	return colorRival
}

func bandColor(band string) string {
	switch band {
	case BandGood:
		return "#2ca02c"
	case BandMedium:
		return "#ff9900"
	default:
		return "#d62728"
	}
}

func scoreRows(scores map[string]float64) []scoreRow {
	var rows []scoreRow
	for _, label := range sortedLabels(scores) {
		rows = append(rows, scoreRow{
			Label: label,
			Value: fmt.Sprintf("%.3f", scores[label]),
			Band:  Band(scores[label]),
		})
	}
	return rows
}

func sortedLabels(scores map[string]float64) []string {
	labels := make([]string, 0, len(scores))
	for label := range scores {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}
