package reduce

import (
	"errors"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// pcaProject projects vectors onto their first k = min(3, n, dim) principal
// components via SVD of the column-centered data. Missing components are
// zero-padded, so the output is always 3D. Mean-preserving and deterministic.
func pcaProject(vectors [][]float32) ([][3]float64, error) {
	n, dim := len(vectors), len(vectors[0])
	if n == 0 {
		return nil, ErrNoVectors
	}

	X := denseFromVectors(vectors)
	for j := 0; j < dim; j++ {
		mean := stat.Mean(mat.Col(nil, j, X), nil)
		for i := 0; i < n; i++ {
			X.Set(i, j, X.At(i, j)-mean)
		}
	}

	k := outputDims
	if n < k {
		k = n
	}
	if dim < k {
		k = dim
	}

	var svd mat.SVD
	if ok := svd.Factorize(X, mat.SVDThin); !ok {
		return nil, errors.New("SVD factorization failed")
	}
	// Columns of V are the right singular vectors, ordered by variance.
	var v mat.Dense
	svd.VTo(&v)

	components := mat.NewDense(dim, k, nil)
	for j := 0; j < k; j++ {
		for i := 0; i < dim; i++ {
			components.Set(i, j, v.At(i, j))
		}
	}

	var projected mat.Dense
	projected.Mul(X, components)

	points := make([][3]float64, n)
	for i := 0; i < n; i++ {
		for j := 0; j < k; j++ {
			points[i][j] = projected.At(i, j)
		}
	}
	return points, nil
}
