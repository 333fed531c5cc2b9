package embedding

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/hyperjump/kurabe/internal/config"
	"github.com/hyperjump/kurabe/internal/models"
	"github.com/hyperjump/kurabe/pkg/utils"
)

// Sentinel errors surfaced by the engine; callers check with errors.Is.
var (
	// ErrConfiguration means the requested target dimension (or provider) is
	// invalid for the chosen model family. Raised before any model load.
	ErrConfiguration = errors.New("invalid embedding configuration")
	// ErrModelLoad means the embedding backend failed to initialize.
	ErrModelLoad = errors.New("embedding model load failed")
	// ErrEmbedding means a batch encode failed.
	ErrEmbedding = errors.New("embedding failed")
	// ErrNoQueries means an empty query set was passed for mean computation.
	ErrNoQueries = errors.New("no queries to embed")
)

const (
	defaultSymbol = "circle"
	defaultSize   = 8

	queryLabel  = "Queries"
	queryType   = "Query"
	querySymbol = "x"
	querySize   = 6
)

// Engine wraps an embedding backend with capability-aware document/query
// routing and optional Matryoshka truncation. One engine instance keeps a
// fixed target dimension for its whole lifetime, so every vector it produces
// in a run has the same length. The engine owns the backend; Close releases it.
type Engine struct {
	embedder  Embedder
	caps      Capabilities
	targetDim int
	logger    *zap.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets a logger for skipped-item warnings and debug output.
func WithLogger(l *zap.Logger) EngineOption {
	return func(e *Engine) { e.logger = l }
}

// NewEngine validates cfg against the model family's capabilities and then
// constructs the configured backend. Validation failures return
// ErrConfiguration without touching the backend; backend init failures
// return ErrModelLoad wrapping the cause.
func NewEngine(cfg *config.EmbeddingConfig, opts ...EngineOption) (*Engine, error) {
	caps := LookupCapabilities(cfg.Model)
	if err := caps.ValidateTargetDim(cfg.TargetDim); err != nil {
		return nil, fmt.Errorf("model %s: %w", cfg.Model, err)
	}

	var (
		embedder Embedder
		err      error
	)
	switch cfg.Provider {
	case "onnx":
		embedder, err = NewONNXEmbedder(cfg.ModelPath, cfg.Dimensions, cfg.MaxTokens, cfg.CacheSize)
	case "openai":
		embedder, err = NewOpenAIEmbedder(cfg)
	case "mock", "":
		embedder = NewMockEmbedder(cfg.Dimensions)
	default:
		return nil, fmt.Errorf("unknown embedding provider %q: %w", cfg.Provider, ErrConfiguration)
	}
	if err != nil {
		return nil, fmt.Errorf("load model %s: %w", cfg.Model, errors.Join(ErrModelLoad, err))
	}
	return NewEngineWithEmbedder(embedder, caps, cfg.TargetDim, opts...)
}

// NewEngineWithEmbedder wraps an already-constructed backend. The target
// dimension is still validated against caps so a misconfigured pairing fails
// the same way NewEngine would.
func NewEngineWithEmbedder(embedder Embedder, caps Capabilities, targetDim int, opts ...EngineOption) (*Engine, error) {
	if err := caps.ValidateTargetDim(targetDim); err != nil {
		return nil, err
	}
	e := &Engine{embedder: embedder, caps: caps, targetDim: targetDim}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Capabilities returns the capability descriptor resolved at load time.
func (e *Engine) Capabilities() Capabilities {
	return e.caps
}

// Dimensions returns the dimensionality of vectors this engine produces:
// the target dimension when truncating, otherwise the backend's native size.
func (e *Engine) Dimensions() int {
	if e.targetDim > 0 && e.targetDim < e.embedder.Dimensions() {
		return e.targetDim
	}
	return e.embedder.Dimensions()
}

// Close releases the backend.
func (e *Engine) Close() error {
	return e.embedder.Close()
}

// EncodeTexts encodes texts in one batch and applies truncation.
// Empty input returns an empty slice without invoking the backend.
func (e *Engine) EncodeTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	vectors, err := e.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("encode %d texts: %w", len(texts), errors.Join(ErrEmbedding, err))
	}
	for i, v := range vectors {
		vectors[i] = Truncate(v, e.targetDim)
	}
	return vectors, nil
}

// EncodeDocuments encodes texts in document mode. For families with
// asymmetric encoding the document prompt is prepended; otherwise this is
// identical to EncodeTexts.
func (e *Engine) EncodeDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	return e.EncodeTexts(ctx, e.withPrompt(texts, e.caps.DocumentPrompt))
}

// EncodeQueries encodes texts in query mode; see EncodeDocuments.
func (e *Engine) EncodeQueries(ctx context.Context, texts []string) ([][]float32, error) {
	return e.EncodeTexts(ctx, e.withPrompt(texts, e.caps.QueryPrompt))
}

func (e *Engine) withPrompt(texts []string, prompt string) []string {
	if !e.caps.AsymmetricEncoding || prompt == "" {
		return texts
	}
	prefixed := make([]string, len(texts))
	for i, t := range texts {
		prefixed[i] = prompt + t
	}
	return prefixed
}

// GroupAndMean encodes every item's value in document mode, builds embedding
// records with presentation hints looked up by source, and computes the
// arithmetic mean vector per display label. Items that fail to encode are
// logged and skipped rather than aborting the group; a label with no
// successfully embedded items is omitted from the means (never zero-filled).
func (e *Engine) GroupAndMean(ctx context.Context, items []models.TextItem, styles map[string]models.Style) ([]models.EmbeddingRecord, map[string][]float32, error) {
	records := make([]models.EmbeddingRecord, 0, len(items))
	sums := make(map[string][]float64)
	counts := make(map[string]int)

	for _, item := range items {
		vectors, err := e.EncodeDocuments(ctx, []string{item.Value})
		if err != nil {
			if e.logger != nil {
				e.logger.Warn("skipping item that failed to embed",
					zap.String("source", item.Source),
					zap.String("value", utils.Truncate(item.Value, 50)),
					zap.Error(err))
			}
			continue
		}
		vec := vectors[0]

		label, symbol, size := item.Source, defaultSymbol, defaultSize
		if style, ok := styles[item.Source]; ok {
			if style.Label != "" {
				label = style.Label
			}
			if style.Symbol != "" {
				symbol = style.Symbol
			}
			if style.Size > 0 {
				size = style.Size
			}
		}

		records = append(records, models.EmbeddingRecord{
			Vector: vec,
			Label:  label,
			Type:   item.Type,
			Value:  item.Value,
			Symbol: symbol,
			Size:   size,
		})
		addTo(sums, label, vec)
		counts[label]++
	}

	means := make(map[string][]float32, len(sums))
	for label, sum := range sums {
		means[label] = divide(sum, counts[label])
	}
	if e.logger != nil {
		e.logger.Info("embedded content items",
			zap.Int("items", len(items)),
			zap.Int("embedded", len(records)),
			zap.Int("groups", len(means)))
	}
	return records, means, nil
}

// MeanQueryEmbedding encodes the query set in query mode and returns one
// record per query plus the arithmetic mean of all query vectors. An empty
// query set is rejected with ErrNoQueries: there is no meaningful mean of
// zero vectors.
func (e *Engine) MeanQueryEmbedding(ctx context.Context, queries []string) ([]models.EmbeddingRecord, []float32, error) {
	if len(queries) == 0 {
		return nil, nil, fmt.Errorf("query mean: %w", ErrNoQueries)
	}
	vectors, err := e.EncodeQueries(ctx, queries)
	if err != nil {
		return nil, nil, err
	}

	records := make([]models.EmbeddingRecord, len(queries))
	sum := make(map[string][]float64)
	for i, vec := range vectors {
		records[i] = models.EmbeddingRecord{
			Vector: vec,
			Label:  queryLabel,
			Type:   queryType,
			Value:  queries[i],
			Symbol: querySymbol,
			Size:   querySize,
		}
		addTo(sum, queryLabel, vec)
	}
	return records, divide(sum[queryLabel], len(vectors)), nil
}

// Truncate returns the first targetDim components of vec, renormalized to
// unit L2 norm. If targetDim is 0 or not smaller than len(vec), vec is
// returned unchanged. A zero-norm prefix is returned truncated but
// unnormalized; the norm is never divided by when it is zero.
func Truncate(vec []float32, targetDim int) []float32 {
	if targetDim <= 0 || targetDim >= len(vec) {
		return vec
	}
	truncated := make([]float32, targetDim)
	copy(truncated, vec[:targetDim])
	utils.NormalizeL2(truncated)
	return truncated
}

// MeanVectors returns the elementwise arithmetic mean of vectors.
// All vectors must share the same length; returns nil for empty input.
func MeanVectors(vectors [][]float32) []float32 {
	if len(vectors) == 0 {
		return nil
	}
	sum := make([]float64, len(vectors[0]))
	for _, vec := range vectors {
		for i, v := range vec {
			sum[i] += float64(v)
		}
	}
	return divide(sum, len(vectors))
}

func addTo(sums map[string][]float64, key string, vec []float32) {
	sum, ok := sums[key]
	if !ok {
		sum = make([]float64, len(vec))
		sums[key] = sum
	}
	for i, v := range vec {
		sum[i] += float64(v)
	}
}

func divide(sum []float64, n int) []float32 {
	out := make([]float32, len(sum))
	for i, v := range sum {
		out[i] = float32(v / float64(n))
	}
	return out
}
