// Package reduce projects high-dimensional embedding batches into 3D
// coordinates, selecting the method by sample count and falling back
// deterministically when the nonlinear method cannot run.
package reduce

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
)

// Method identifies which reduction actually produced the output points.
type Method string

const (
	// MethodTSNE is the nonlinear stochastic neighbor embedding.
	MethodTSNE Method = "tsne"
	// MethodPCA is the linear principal-component projection used for small
	// samples and as the fallback when t-SNE fails.
	MethodPCA Method = "pca"
)

const (
	// minSamplesTSNE is the minimum point count for t-SNE. Below this the
	// neighborhood structure is undefined and the linear method is used.
	minSamplesTSNE = 4
	// defaultPerplexity matches the upstream t-SNE default; it is shrunk
	// for small batches because perplexity must stay below the sample count.
	defaultPerplexity = 30
	minPerplexity     = 5

	outputDims = 3
)

// ErrNoVectors is returned when Reduce is called with an empty batch;
// there is no defined reduction of an empty set.
var ErrNoVectors = errors.New("no vectors to reduce")

// Reducer projects vector batches to 3D. Safe to reuse across runs.
type Reducer struct {
	logger *zap.Logger

	// nonlinear is the projection used for batches at or above the t-SNE
	// minimum. Overridable in tests to exercise the fallback path.
	nonlinear func([][]float32) ([][3]float64, error)
}

// ReducerOption configures a Reducer.
type ReducerOption func(*Reducer)

// WithLogger sets a logger for fallback warnings.
func WithLogger(l *zap.Logger) ReducerOption {
	return func(r *Reducer) { r.logger = l }
}

// NewReducer returns a Reducer.
func NewReducer(opts ...ReducerOption) *Reducer {
	r := &Reducer{}
	for _, opt := range opts {
		opt(r)
	}
	if r.nonlinear == nil {
		r.nonlinear = r.tsneProject
	}
	return r
}

// Reduce returns one 3D point per input vector, in input order, plus the
// method that produced them. Batches smaller than the t-SNE minimum use PCA
// with zero-padded coordinates; t-SNE runtime failures also fall back to PCA
// rather than propagating. Identical inputs always yield identical outputs.
func (r *Reducer) Reduce(vectors [][]float32) ([][3]float64, Method, error) {
	n := len(vectors)
	if n == 0 {
		return nil, "", ErrNoVectors
	}
	dim := len(vectors[0])
	if dim == 0 {
		return nil, "", fmt.Errorf("vectors have zero dimensionality: %w", ErrNoVectors)
	}
	for i, v := range vectors {
		if len(v) != dim {
			return nil, "", fmt.Errorf("vector %d has dim %d, expected %d", i, len(v), dim)
		}
	}

	if n < minSamplesTSNE {
		points, err := pcaProject(vectors)
		if err != nil {
			return nil, "", err
		}
		return points, MethodPCA, nil
	}

	points, err := r.runNonlinear(vectors)
	if err != nil {
		if r.logger != nil {
			r.logger.Warn("t-SNE failed, falling back to PCA",
				zap.Int("samples", n), zap.Error(err))
		}
		points, err = pcaProject(vectors)
		if err != nil {
			return nil, "", err
		}
		return points, MethodPCA, nil
	}
	return points, MethodTSNE, nil
}

// runNonlinear runs the nonlinear projection with panic recovery. The t-SNE
// library panics on some degenerate inputs; a panic takes the same fallback
// path as an error.
func (r *Reducer) runNonlinear(vectors [][]float32) (points [][3]float64, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("nonlinear projection panicked: %v", rec)
		}
	}()
	return r.nonlinear(vectors)
}

// adaptivePerplexity clamps the default perplexity to the sample count:
// always strictly below n, never below the degenerate-neighborhood floor.
func adaptivePerplexity(n int) int {
	p := defaultPerplexity
	if p > n-1 {
		p = n - 1
	}
	if p < minPerplexity {
		p = minPerplexity
	}
	return p
}

// denseFromVectors copies a float32 batch into a gonum matrix.
func denseFromVectors(vectors [][]float32) *mat.Dense {
	n, dim := len(vectors), len(vectors[0])
	data := make([]float64, n*dim)
	for i, v := range vectors {
		for j, val := range v {
			data[i*dim+j] = float64(val)
		}
	}
	return mat.NewDense(n, dim, data)
}
