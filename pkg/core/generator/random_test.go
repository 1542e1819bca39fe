package generator

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeightedSample(t *testing.T) {
	r := newRand(1, streamBooking)
	weights := []float64{1, 0, 2, 3, 0, 1}

	picked := weightedSample(r, weights, 3)
	require.Len(t, picked, 3)
	assert.True(t, sort.IntsAreSorted(picked))

	seen := make(map[int]bool)
	for _, idx := range picked {
		assert.NotEqual(t, 1, idx, "zero weight should never be picked")
		assert.NotEqual(t, 4, idx, "zero weight should never be picked")
		assert.False(t, seen[idx], "indices should be distinct")
		seen[idx] = true
	}

	// Asking for more than the positive-weight entries returns all of them
	assert.Equal(t, []int{0, 2, 3, 5}, weightedSample(r, weights, 10))
	assert.Empty(t, weightedSample(r, weights, 0))
}

func TestWeightedSample_FavoursHeavyWeights(t *testing.T) {
	r := newRand(3, streamBooking)
	weights := []float64{1, 10}

	heavy := 0
	for i := 0; i < 1000; i++ {
		if weightedSample(r, weights, 1)[0] == 1 {
			heavy++
		}
	}
	assert.Greater(t, heavy, 850)
}

func TestCategorical(t *testing.T) {
	_, ok := newCategorical([]float64{0, 0})
	assert.False(t, ok)

	cat, ok := newCategorical([]float64{0, 1, 0})
	require.True(t, ok)
	r := newRand(5, streamOutcomes)
	for i := 0; i < 100; i++ {
		assert.Equal(t, 1, cat.draw(r))
	}
}

func TestBetaSample_MeanAndRange(t *testing.T) {
	r := newRand(11, streamTiming)
	sum := 0.0
	n := 20000
	for i := 0; i < n; i++ {
		x := betaSample(r, durationAlpha, durationBeta)
		require.Greater(t, x, 0.0)
		require.Less(t, x, 1.0)
		sum += x
	}
	// Beta(a, b) has mean a / (a + b)
	assert.InDelta(t, durationAlpha/(durationAlpha+durationBeta), sum/float64(n), 0.01)
}

func TestGeometricFailures(t *testing.T) {
	r := newRand(13, streamAssignment)
	assert.Equal(t, 0, geometricFailures(r, 1))

	sum := 0
	n := 20000
	for i := 0; i < n; i++ {
		k := geometricFailures(r, 0.25)
		require.GreaterOrEqual(t, k, 0)
		sum += k
	}
	// Mean failures before success is (1 - p) / p
	assert.InDelta(t, 3.0, float64(sum)/float64(n), 0.15)
}

func TestStreamsAreIndependentAndDeterministic(t *testing.T) {
	a := newRand(42, streamBooking)
	b := newRand(42, streamBooking)
	c := newRand(42, streamOutcomes)

	va, vb, vc := a.Uint64(), b.Uint64(), c.Uint64()
	assert.Equal(t, va, vb)
	assert.NotEqual(t, va, vc)

	x := NewColumnRand(42, "insurance")
	y := NewColumnRand(42, "region")
	assert.NotEqual(t, x.Uint64(), y.Uint64())
}

func TestUniformFactor(t *testing.T) {
	r := newRand(17, streamCustomColumns)
	for i := 0; i < 500; i++ {
		f := uniformFactor(r, 0.2)
		assert.GreaterOrEqual(t, f, 0.8)
		assert.LessOrEqual(t, f, 1.2)
	}
	assert.Equal(t, 1.0, uniformFactor(r, 0))
}

func TestNewColumnRand_DeterministicPerName(t *testing.T) {
	a := NewColumnRand(7, "insurance")
	b := NewColumnRand(7, "insurance")
	for i := 0; i < 10; i++ {
		assert.Equal(t, a.Uint64(), b.Uint64())
	}

	other := NewColumnRand(8, "insurance")
	assert.NotEqual(t, NewColumnRand(7, "insurance").Uint64(), other.Uint64())
}
