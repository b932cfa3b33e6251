package embedding

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCosine(t *testing.T) {
	tests := []struct {
		name string
		u    []float64
		v    []float64
		want float64
	}{
		{
			name: "identical nonzero vectors",
			u:    []float64{1, 2, 3},
			v:    []float64{1, 2, 3},
			want: 1.0,
		},
		{
			name: "orthogonal vectors",
			u:    []float64{1, 0},
			v:    []float64{0, 1},
			want: 0.0,
		},
		{
			name: "opposite vectors",
			u:    []float64{1, 1},
			v:    []float64{-1, -1},
			want: -1.0,
		},
		{
			name: "zero vector against nonzero",
			u:    []float64{0, 0, 0},
			v:    []float64{1, 2, 3},
			want: 0.0,
		},
		{
			name: "both zero vectors",
			u:    []float64{0, 0},
			v:    []float64{0, 0},
			want: 0.0,
		},
		{
			name: "mismatched lengths",
			u:    []float64{1, 2},
			v:    []float64{1, 2, 3},
			want: 0.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Cosine(tt.u, tt.v)
			assert.InDelta(t, tt.want, got, 1e-9)
			assert.False(t, got != got, "cosine must never be NaN")
		})
	}
}
