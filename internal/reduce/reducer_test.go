package reduce

import (
	"errors"
	"math"
	"math/rand"
	"testing"
)

// testVectors builds a deterministic batch of n vectors of the given dim.
func testVectors(n, dim int, seed int64) [][]float32 {
	rng := rand.New(rand.NewSource(seed))
	vectors := make([][]float32, n)
	for i := range vectors {
		v := make([]float32, dim)
		for j := range v {
			v[j] = float32(rng.NormFloat64())
		}
		vectors[i] = v
	}
	return vectors
}

func TestReduceEmptyBatch(t *testing.T) {
	r := NewReducer()
	_, _, err := r.Reduce(nil)
	if !errors.Is(err, ErrNoVectors) {
		t.Fatalf("Reduce(nil) error = %v, want ErrNoVectors", err)
	}

	_, _, err = r.Reduce([][]float32{})
	if !errors.Is(err, ErrNoVectors) {
		t.Fatalf("Reduce(empty) error = %v, want ErrNoVectors", err)
	}
}

func TestReduceZeroDimensionality(t *testing.T) {
	r := NewReducer()
	_, _, err := r.Reduce([][]float32{{}, {}})
	if !errors.Is(err, ErrNoVectors) {
		t.Fatalf("Reduce(zero-dim) error = %v, want ErrNoVectors", err)
	}
}

func TestReduceDimensionMismatch(t *testing.T) {
	r := NewReducer()
	vectors := [][]float32{
		{1, 2, 3},
		{4, 5},
	}
	_, _, err := r.Reduce(vectors)
	if err == nil {
		t.Fatal("Reduce with mismatched dims should fail")
	}
}

func TestReduceSmallBatchUsesPCA(t *testing.T) {
	r := NewReducer()
	for _, n := range []int{1, 2, 3} {
		vectors := testVectors(n, 8, int64(n))
		points, method, err := r.Reduce(vectors)
		if err != nil {
			t.Fatalf("Reduce(n=%d) failed: %v", n, err)
		}
		if method != MethodPCA {
			t.Errorf("Reduce(n=%d) method = %q, want %q", n, method, MethodPCA)
		}
		if len(points) != n {
			t.Errorf("Reduce(n=%d) returned %d points", n, len(points))
		}
	}
}

// With fewer samples than output dimensions only n components exist; the
// remaining coordinates must be zero-padded.
func TestReduceSmallBatchZeroPads(t *testing.T) {
	r := NewReducer()
	vectors := testVectors(2, 16, 7)
	points, method, err := r.Reduce(vectors)
	if err != nil {
		t.Fatalf("Reduce failed: %v", err)
	}
	if method != MethodPCA {
		t.Fatalf("method = %q, want %q", method, MethodPCA)
	}
	for i, p := range points {
		if p[2] != 0 {
			t.Errorf("point %d third coordinate = %v, want 0", i, p[2])
		}
	}
}

// Two points project onto a single axis, centered and symmetric. The
// component sign is arbitrary, so only magnitudes are pinned.
func TestReducePCATwoPoints(t *testing.T) {
	r := NewReducer()
	vectors := [][]float32{
		{0, 0, 0, 0},
		{2, 0, 0, 0},
	}
	points, _, err := r.Reduce(vectors)
	if err != nil {
		t.Fatalf("Reduce failed: %v", err)
	}
	if math.Abs(math.Abs(points[0][0])-1) > 1e-9 {
		t.Errorf("point 0 first coordinate = %v, want magnitude 1", points[0][0])
	}
	if math.Abs(points[0][0]+points[1][0]) > 1e-9 {
		t.Errorf("points not symmetric about the mean: %v vs %v", points[0][0], points[1][0])
	}
}

func TestReduceLargeBatchUsesTSNE(t *testing.T) {
	r := NewReducer()
	vectors := testVectors(12, 8, 3)
	points, method, err := r.Reduce(vectors)
	if err != nil {
		t.Fatalf("Reduce failed: %v", err)
	}
	if method != MethodTSNE {
		t.Fatalf("method = %q, want %q", method, MethodTSNE)
	}
	if len(points) != len(vectors) {
		t.Fatalf("got %d points for %d vectors", len(points), len(vectors))
	}
	for i, p := range points {
		for j, c := range p {
			if math.IsNaN(c) || math.IsInf(c, 0) {
				t.Errorf("point %d coordinate %d is not finite: %v", i, j, c)
			}
		}
	}
}

func TestReduceDeterministic(t *testing.T) {
	r := NewReducer()
	vectors := testVectors(10, 8, 11)

	first, firstMethod, err := r.Reduce(vectors)
	if err != nil {
		t.Fatalf("first Reduce failed: %v", err)
	}
	second, secondMethod, err := r.Reduce(vectors)
	if err != nil {
		t.Fatalf("second Reduce failed: %v", err)
	}
	if firstMethod != secondMethod {
		t.Fatalf("methods differ: %q vs %q", firstMethod, secondMethod)
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("point %d differs between runs: %v vs %v", i, first[i], second[i])
		}
	}
}

// Order preservation: output index i belongs to input index i. Duplicate
// input rows must land on the same point, wherever they sit in the batch.
func TestReducePreservesOrder(t *testing.T) {
	r := NewReducer()
	shared := []float32{1, 0, 0, 0}
	vectors := [][]float32{
		shared,
		{0, 1, 0, 0},
		shared,
	}
	points, _, err := r.Reduce(vectors)
	if err != nil {
		t.Fatalf("Reduce failed: %v", err)
	}
	if points[0] != points[2] {
		t.Errorf("duplicate inputs produced different points: %v vs %v", points[0], points[2])
	}
	if points[0] == points[1] {
		t.Error("distinct inputs collapsed onto the same point")
	}
}

func TestAdaptivePerplexity(t *testing.T) {
	tests := []struct {
		n    int
		want int
	}{
		{4, 5},
		{5, 5},
		{6, 5},
		{10, 9},
		{31, 30},
		{100, 30},
	}
	for _, tt := range tests {
		if got := adaptivePerplexity(tt.n); got != tt.want {
			t.Errorf("adaptivePerplexity(%d) = %d, want %d", tt.n, got, tt.want)
		}
	}
}

func TestReduceFallsBackToPCAOnNonlinearError(t *testing.T) {
	r := NewReducer()
	r.nonlinear = func([][]float32) ([][3]float64, error) {
		return nil, errors.New("diverged")
	}

	vectors := testVectors(8, 6, 7)
	points, method, err := r.Reduce(vectors)
	if err != nil {
		t.Fatalf("Reduce: %v", err)
	}
	if method != MethodPCA {
		t.Errorf("method = %q, want %q", method, MethodPCA)
	}
	if len(points) != len(vectors) {
		t.Fatalf("got %d points, want %d", len(points), len(vectors))
	}
	want, err := pcaProject(vectors)
	if err != nil {
		t.Fatalf("pcaProject: %v", err)
	}
	for i := range points {
		if points[i] != want[i] {
			t.Errorf("point %d = %v, want %v", i, points[i], want[i])
		}
	}
}

func TestReduceFallsBackToPCAOnNonlinearPanic(t *testing.T) {
	r := NewReducer()
	r.nonlinear = func([][]float32) ([][3]float64, error) {
		panic("index out of range")
	}

	vectors := testVectors(10, 4, 3)
	points, method, err := r.Reduce(vectors)
	if err != nil {
		t.Fatalf("Reduce: %v", err)
	}
	if method != MethodPCA {
		t.Errorf("method = %q, want %q", method, MethodPCA)
	}
	if len(points) != len(vectors) {
		t.Errorf("got %d points, want %d", len(points), len(vectors))
	}
}
