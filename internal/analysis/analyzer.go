// Package analysis orchestrates the comparison pipeline: embed page
// elements and queries, score groups against the query mean, and project
// everything to 3D for the report.
package analysis

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/hyperjump/kurabe/internal/embedding"
	"github.com/hyperjump/kurabe/internal/models"
	"github.com/hyperjump/kurabe/internal/reduce"
	"github.com/hyperjump/kurabe/internal/similarity"
)

// Analyzer runs the embed-score-project pipeline over extracted items.
type Analyzer struct {
	engine  *embedding.Engine
	reducer *reduce.Reducer
	logger  *zap.Logger
}

// AnalyzerOption configures an Analyzer.
type AnalyzerOption func(*Analyzer)

// WithLogger sets a logger for pipeline progress.
func WithLogger(l *zap.Logger) AnalyzerOption {
	return func(a *Analyzer) { a.logger = l }
}

// NewAnalyzer returns an Analyzer over the given engine and reducer.
func NewAnalyzer(engine *embedding.Engine, reducer *reduce.Reducer, opts ...AnalyzerOption) *Analyzer {
	a := &Analyzer{engine: engine, reducer: reducer}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run embeds items and queries, scores each item group against the mean
// query embedding, and projects all embeddings to 3D coordinates.
//
// Scores are cosine similarities computed in the full embedding space.
// The Centroids in the result are averages of the reduced points, so they
// sit visually inside their clusters; they are display positions, not the
// projection of the full-space means.
func (a *Analyzer) Run(ctx context.Context, items []models.TextItem, queries []string, styles map[string]models.Style) (*models.AnalysisResult, error) {
	records, groupMeans, err := a.engine.GroupAndMean(ctx, items, styles)
	if err != nil {
		return nil, fmt.Errorf("embed page elements: %w", err)
	}

	queryRecords, queryMean, err := a.engine.MeanQueryEmbedding(ctx, queries)
	if err != nil {
		return nil, fmt.Errorf("embed queries: %w", err)
	}
	records = append(records, queryRecords...)

	scores, err := similarity.Scores(groupMeans, queryMean)
	if err != nil {
		return nil, fmt.Errorf("score groups: %w", err)
	}

	vectors := make([][]float32, len(records))
	for i, rec := range records {
		vectors[i] = rec.Vector
	}
	points, method, err := a.reducer.Reduce(vectors)
	if err != nil {
		return nil, fmt.Errorf("reduce embeddings: %w", err)
	}
	for i := range records {
		records[i].X = points[i][0]
		records[i].Y = points[i][1]
		records[i].Z = points[i][2]
	}

	if a.logger != nil {
		a.logger.Info("analysis complete",
			zap.Int("records", len(records)),
			zap.Int("groups", len(groupMeans)),
			zap.String("reduction", string(method)))
	}

	return &models.AnalysisResult{
		Records:   records,
		Scores:    scores,
		Centroids: Centroids(records),
		Method:    string(method),
	}, nil
}

// Centroids averages the reduced coordinates of each label's records. The
// query group gets a centroid like any other, which the report uses as the
// arrow target.
func Centroids(records []models.EmbeddingRecord) map[string][3]float64 {
	sums := make(map[string][3]float64)
	counts := make(map[string]int)
	for _, rec := range records {
		s := sums[rec.Label]
		s[0] += rec.X
		s[1] += rec.Y
		s[2] += rec.Z
		sums[rec.Label] = s
		counts[rec.Label]++
	}

	centroids := make(map[string][3]float64, len(sums))
	for label, s := range sums {
		n := float64(counts[label])
		centroids[label] = [3]float64{s[0] / n, s[1] / n, s[2] / n}
	}
	return centroids
}
