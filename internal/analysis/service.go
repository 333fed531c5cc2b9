package analysis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/kurabe/internal/extract"
	"github.com/hyperjump/kurabe/internal/models"
	"github.com/hyperjump/kurabe/internal/report"
	"github.com/hyperjump/kurabe/internal/scrape"
	"github.com/hyperjump/kurabe/internal/storage"
)

// Roles of the two compared pages.
const (
	roleClient     = "client"
	roleCompetitor = "competitor"
)

// Default marker styling per role, matched by the report's legend.
var roleStyles = map[string]models.Style{
	roleClient:     {Symbol: "circle", Size: 10},
	roleCompetitor: {Symbol: "square", Size: 8},
}

// Service runs the full comparison: fetch both pages, extract their
// elements, analyze against the queries, render the report, and record the
// run.
type Service struct {
	scraper  *scrape.Scraper
	analyzer *Analyzer
	renderer *report.Renderer
	store    storage.RunStore
	snapDir  string
	logger   *zap.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithServiceLogger sets a logger.
func WithServiceLogger(l *zap.Logger) ServiceOption {
	return func(s *Service) { s.logger = l }
}

// WithStore enables run history persistence. Without a store, runs are
// still analyzed and reported but not recorded.
func WithStore(store storage.RunStore) ServiceOption {
	return func(s *Service) { s.store = store }
}

// WithSnapshotDir enables saving fetched HTML snapshots into dir.
func WithSnapshotDir(dir string) ServiceOption {
	return func(s *Service) { s.snapDir = dir }
}

// NewService wires the pipeline stages together.
func NewService(scraper *scrape.Scraper, analyzer *Analyzer, renderer *report.Renderer, opts ...ServiceOption) *Service {
	s := &Service{scraper: scraper, analyzer: analyzer, renderer: renderer}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Analyze runs the pipeline for req and returns the recorded run.
func (s *Service) Analyze(ctx context.Context, req models.AnalysisRequest) (*models.Run, error) {
	if err := extract.ValidateURL(req.ClientURL); err != nil {
		return nil, fmt.Errorf("client URL: %w", err)
	}
	if err := extract.ValidateURL(req.CompetitorURL); err != nil {
		return nil, fmt.Errorf("competitor URL: %w", err)
	}

	clientLabel, competitorLabel := pageLabels(req.ClientURL, req.CompetitorURL)

	var items []models.TextItem
	styles := make(map[string]models.Style)
	for _, page := range []struct {
		role  string
		url   string
		label string
	}{
		{roleClient, req.ClientURL, clientLabel},
		{roleCompetitor, req.CompetitorURL, competitorLabel},
	} {
		pageItems, err := s.fetchAndExtract(ctx, page.role, page.url)
		if err != nil {
			return nil, err
		}
		items = append(items, pageItems...)

		style := roleStyles[page.role]
		style.Label = page.label
		styles[page.role] = style
	}

	result, err := s.analyzer.Run(ctx, items, req.Queries, styles)
	if err != nil {
		return nil, err
	}

	reportPath, err := s.renderer.Render(result, clientLabel, competitorLabel)
	if err != nil {
		return nil, fmt.Errorf("render report: %w", err)
	}

	run := &models.Run{
		ID:            uuid.NewString(),
		CreatedAt:     time.Now().UTC(),
		ClientURL:     req.ClientURL,
		CompetitorURL: req.CompetitorURL,
		Queries:       req.Queries,
		Scores:        result.Scores,
		Method:        result.Method,
		ReportPath:    reportPath,
	}
	if s.store != nil {
		if err := s.store.SaveRun(ctx, run); err != nil {
			return nil, fmt.Errorf("save run: %w", err)
		}
	}
	if s.logger != nil {
		s.logger.Info("run complete",
			zap.String("id", run.ID),
			zap.String("report", reportPath),
			zap.Any("scores", run.Scores))
	}
	return run, nil
}

// pageLabels derives group labels from the page domains. Pages on the same
// domain get the role appended so their groups stay distinct.
func pageLabels(clientURL, competitorURL string) (string, string) {
	client := extract.DomainName(clientURL)
	competitor := extract.DomainName(competitorURL)
	if client == competitor {
		return client + " (" + roleClient + ")", competitor + " (" + roleCompetitor + ")"
	}
	return client, competitor
}

// fetchAndExtract downloads one page, optionally snapshots it, and returns
// its extracted elements tagged with the role.
func (s *Service) fetchAndExtract(ctx context.Context, role, url string) ([]models.TextItem, error) {
	html, err := s.scraper.Fetch(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetch %s page: %w", role, err)
	}
	if s.snapDir != "" {
		path, err := scrape.SaveSnapshot(s.snapDir, role, url, html)
		if err != nil {
			return nil, fmt.Errorf("snapshot %s page: %w", role, err)
		}
		if s.logger != nil {
			s.logger.Debug("saved snapshot", zap.String("role", role), zap.String("path", path))
		}
	}

	items, err := extract.FromHTML(html, role)
	if err != nil {
		return nil, fmt.Errorf("extract %s page: %w", role, err)
	}
	if len(items) == 0 && s.logger != nil {
		s.logger.Warn("no extractable elements", zap.String("role", role), zap.String("url", url))
	}
	return items, nil
}
