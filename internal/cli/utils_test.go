package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/hyperjump/kurabe/internal/models"
)

func sampleRuns() []*models.Run {
	return []*models.Run{
		{
			ID:            "run-1",
			CreatedAt:     time.Date(2026, 8, 1, 10, 30, 0, 0, time.UTC),
			ClientURL:     "https://client.example/page",
			CompetitorURL: "https://rival.example/page",
			Queries:       []string{"ai video generator", "free ai video generator"},
			Scores:        map[string]float64{"client.example": 0.82, "rival.example": 0.41},
			Method:        "tsne",
			ReportPath:    "/tmp/embedding_comparison-v1.html",
		},
	}
}

func TestWriteRunsText(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteRuns(&buf, sampleRuns(), OutputText); err != nil {
		t.Fatalf("WriteRuns failed: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"run-1",
		"https://client.example/page vs https://rival.example/page",
		"queries: ai video generator, free ai video generator",
		"[+] client.example: 0.820",
		"[-] rival.example: 0.410",
		"report: /tmp/embedding_comparison-v1.html",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestWriteRunsTextEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteRuns(&buf, nil, OutputText); err != nil {
		t.Fatalf("WriteRuns failed: %v", err)
	}
	if !strings.Contains(buf.String(), "No runs recorded yet") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestWriteRunsJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteRuns(&buf, sampleRuns(), OutputJSON); err != nil {
		t.Fatalf("WriteRuns failed: %v", err)
	}
	var decoded []*models.Run
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if len(decoded) != 1 || decoded[0].ID != "run-1" {
		t.Errorf("decoded = %+v", decoded)
	}
	if decoded[0].Scores["client.example"] != 0.82 {
		t.Errorf("scores = %v", decoded[0].Scores)
	}
}

func TestScoreMarker(t *testing.T) {
	tests := []struct {
		score float64
		want  string
	}{
		{0.85, "[+]"},
		{0.7, "[+]"},
		{0.6, "[~]"},
		{0.2, "[-]"},
	}
	for _, tt := range tests {
		if got := ScoreMarker(tt.score); got != tt.want {
			t.Errorf("ScoreMarker(%v) = %s, want %s", tt.score, got, tt.want)
		}
	}
}
