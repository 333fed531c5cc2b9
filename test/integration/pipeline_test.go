// Package integration exercises the full pipeline wired from config:
// fetch, extract, embed, reduce, report, persist.
package integration

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hyperjump/kurabe/internal/analysis"
	"github.com/hyperjump/kurabe/internal/config"
	"github.com/hyperjump/kurabe/internal/embedding"
	"github.com/hyperjump/kurabe/internal/models"
	"github.com/hyperjump/kurabe/internal/reduce"
	"github.com/hyperjump/kurabe/internal/report"
	"github.com/hyperjump/kurabe/internal/scrape"
	"github.com/hyperjump/kurabe/internal/storage"
)

const clientPage = `<html><head>
<title>AI Video Generator | Acme</title>
<meta name="description" content="Create professional videos from text with AI.">
</head><body>
<h1>AI Video Generator</h1>
<h2>How it works</h2>
<h2>Pricing</h2>
<h3>Free plan</h3>
<dl><dt>Templates</dt><dd>Over 100 video templates</dd></dl>
</body></html>`

const competitorPage = `<html><head>
<title>Video Maker Pro</title>
<meta name="description" content="Make marketing videos online.">
</head><body>
<h1>Make videos online</h1>
<h2>Templates</h2>
<h2>Pricing</h2>
</body></html>`

func TestIntegration_AnalyzePipeline(t *testing.T) {
	clientSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(clientPage))
	}))
	defer clientSrv.Close()
	competitorSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(competitorPage))
	}))
	defer competitorSrv.Close()

	dir := t.TempDir()
	cfg := &config.Config{
		Scrape: config.ScrapeConfig{TimeoutSecs: 5, RetryAttempts: 2, RetryDelayMS: 1},
		Embedding: config.EmbeddingConfig{
			Provider:   "mock",
			Model:      "embeddinggemma-300m",
			Dimensions: 768,
			TargetDim:  256,
		},
		Output:  config.OutputConfig{Dir: filepath.Join(dir, "output")},
		Storage: config.StorageConfig{DatabasePath: filepath.Join(dir, "runs.db")},
	}

	engine, err := embedding.NewEngine(&cfg.Embedding)
	if err != nil {
		t.Fatal(err)
	}
	defer engine.Close()

	if engine.Dimensions() != 256 {
		t.Fatalf("engine dimensions = %d, want truncated 256", engine.Dimensions())
	}

	store, err := storage.NewSQLiteStore(cfg.Storage.DatabasePath)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	service := analysis.NewService(
		scrape.NewScraper(&cfg.Scrape),
		analysis.NewAnalyzer(engine, reduce.NewReducer()),
		report.NewRenderer(cfg.Output.Dir),
		analysis.WithStore(store),
		analysis.WithSnapshotDir(cfg.Output.Dir),
	)

	ctx := context.Background()
	req := models.AnalysisRequest{
		ClientURL:     clientSrv.URL + "/ai-video",
		CompetitorURL: competitorSrv.URL + "/maker",
		Queries:       []string{"ai video generator", "free ai video generator", "best ai video generator"},
	}

	run, err := service.Analyze(ctx, req)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if len(run.Scores) != 2 {
		t.Errorf("scores = %v, want two groups", run.Scores)
	}
	for label, score := range run.Scores {
		if score < -1 || score > 1 {
			t.Errorf("score for %s = %v, outside [-1, 1]", label, score)
		}
	}

	data, err := os.ReadFile(run.ReportPath)
	if err != nil {
		t.Fatalf("report not written: %v", err)
	}
	if !strings.Contains(string(data), "scatter3d") {
		t.Error("report should contain 3D traces")
	}

	// Determinism across runs: same pages and queries, same scores.
	second, err := service.Analyze(ctx, req)
	if err != nil {
		t.Fatalf("second Analyze failed: %v", err)
	}
	for label, score := range run.Scores {
		if second.Scores[label] != score {
			t.Errorf("score for %s changed between runs: %v vs %v", label, score, second.Scores[label])
		}
	}

	runs, err := store.ListRuns(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 {
		t.Errorf("got %d stored runs, want 2", len(runs))
	}
}
