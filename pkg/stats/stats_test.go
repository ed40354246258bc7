package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPercentile(t *testing.T) {
	values := []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0}

	tests := []struct {
		p    int
		want float64
	}{
		{0, 0.1},
		{50, 0.6},
		{95, 1.0},
		{100, 1.0},
		{-5, 0.1},
		{250, 1.0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Percentile(values, tt.p), "p=%d", tt.p)
	}
}

func TestPercentileEmpty(t *testing.T) {
	assert.Zero(t, Percentile(nil, 50))
}

func TestPercentileSingle(t *testing.T) {
	assert.Equal(t, 0.75, Percentile([]float64{0.75}, 95))
}
