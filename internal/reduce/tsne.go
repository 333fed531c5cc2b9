package reduce

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/danaugrs/go-tsne/tsne"
	"gonum.org/v1/gonum/mat"
)

const (
	// tsneSeed fixes the embedding initialization so identical inputs
	// produce identical outputs across runs.
	tsneSeed         = 42
	tsneLearningRate = 100
	tsneMaxIter      = 300
)

// tsneProject embeds vectors into 3D with t-SNE. Runs via runNonlinear,
// which recovers the panics the library throws on degenerate inputs.
func (r *Reducer) tsneProject(vectors [][]float32) ([][3]float64, error) {
	n := len(vectors)
	perplexity := adaptivePerplexity(n)

	rand.Seed(tsneSeed) //nolint:staticcheck // global seed is how the embedding init is made reproducible
	t := tsne.NewTSNE(outputDims, float64(perplexity), tsneLearningRate, tsneMaxIter, false)
	embedded := t.EmbedData(denseFromVectors(vectors), func(iter int, divergence float64, embedding mat.Matrix) bool {
		return false
	})
	if embedded == nil {
		return nil, errors.New("t-SNE returned no embedding")
	}
	rows, cols := embedded.Dims()
	if rows != n || cols != outputDims {
		return nil, fmt.Errorf("t-SNE output is %dx%d, expected %dx%d", rows, cols, n, outputDims)
	}

	points := make([][3]float64, n)
	for i := 0; i < n; i++ {
		for j := 0; j < outputDims; j++ {
			v := embedded.At(i, j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("t-SNE diverged at point %d", i)
			}
			points[i][j] = v
		}
	}
	return points, nil
}
