package vector

import (
	"math"
	"testing"
)

func TestCosineSimilarity_SelfIsOne(t *testing.T) {
	vecs := [][]float32{
		{1, 0, 0},
		{0.3, -0.7, 0.2, 0.5},
		{1e-3, 2e-3, 3e-3},
	}
	for _, v := range vecs {
		got := CosineSimilarity(v, v)
		if math.Abs(got-1.0) > 1e-9 {
			t.Errorf("CosineSimilarity(v, v) = %v, want 1.0", got)
		}
	}
}

func TestCosineSimilarity_Orthogonal(t *testing.T) {
	got := CosineSimilarity([]float32{1, 0}, []float32{0, 1})
	if math.Abs(got) > 1e-9 {
		t.Errorf("orthogonal vectors: got %v, want 0", got)
	}
}

func TestCosineSimilarity_Opposite(t *testing.T) {
	got := CosineSimilarity([]float32{1, 2}, []float32{-1, -2})
	if math.Abs(got+1.0) > 1e-9 {
		t.Errorf("opposite vectors: got %v, want -1.0", got)
	}
}

func TestCosineSimilarity_Degenerate(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
	}{
		{"zero vector a", []float32{0, 0}, []float32{1, 2}},
		{"zero vector b", []float32{1, 2}, []float32{0, 0}},
		{"length mismatch", []float32{1, 2}, []float32{1, 2, 3}},
		{"both empty", nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CosineSimilarity(tt.a, tt.b); got != 0 {
				t.Errorf("got %v, want 0", got)
			}
		})
	}
}

func TestL2Norm(t *testing.T) {
	if got := L2Norm([]float32{3, 4}); math.Abs(got-5.0) > 1e-9 {
		t.Errorf("L2Norm(3,4) = %v, want 5", got)
	}
	if got := L2Norm(nil); got != 0 {
		t.Errorf("L2Norm(nil) = %v, want 0", got)
	}
}
