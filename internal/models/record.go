package models

// EmbeddingRecord is one embedded text fragment with its presentation hints.
// X, Y, Z are filled in by the reducer after encoding; aside from those
// coordinate fields a record is never mutated after creation.
type EmbeddingRecord struct {
	Vector []float32 `json:"-"`
	Label  string    `json:"label"`
	Type   string    `json:"type"`
	Value  string    `json:"value"`
	Symbol string    `json:"symbol"`
	Size   int       `json:"size"`
	X      float64   `json:"x"`
	Y      float64   `json:"y"`
	Z      float64   `json:"z"`
}

// AnalysisResult is the output of one analysis run.
// Scores are cosine similarities of full-dimensional group means against the
// query mean. Centroids are arithmetic means of each group's reduced 3D
// points; the two live in different spaces and are not interchangeable.
type AnalysisResult struct {
	Records   []EmbeddingRecord      `json:"records"`
	Scores    map[string]float64     `json:"scores"`
	Centroids map[string][3]float64  `json:"centroids"`
	Method    string                 `json:"method"` // reduction method actually used
}
