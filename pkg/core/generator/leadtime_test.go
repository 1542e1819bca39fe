package generator

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLeadTimePMF_Shape(t *testing.T) {
	tests := []struct {
		name   string
		median float64
		max    int
	}{
		{name: "default", median: 10, max: 30},
		{name: "short horizon", median: 3, max: 7},
		{name: "median at horizon", median: 14, max: 14},
		{name: "long horizon", median: 21, max: 90},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pmf := LeadTimePMF(tt.median, tt.max)
			require.Len(t, pmf, tt.max+1)

			sum := 0.0
			for _, p := range pmf {
				assert.GreaterOrEqual(t, p, 0.0)
				sum += p
			}
			assert.InDelta(t, 1.0, sum, 1e-9)

			// The median day straddles half of the mass
			m := int(tt.median)
			below := 0.0
			for k := 0; k < m; k++ {
				below += pmf[k]
			}
			assert.LessOrEqual(t, below, 0.5)
			assert.GreaterOrEqual(t, below+pmf[m], 0.5)
		})
	}
}

func TestLeadTimePMF_EmptyHorizon(t *testing.T) {
	assert.Empty(t, LeadTimePMF(10, 0))
	assert.Empty(t, LeadTimePMF(10, -3))
}

func TestLeadTimeLaw_Survival(t *testing.T) {
	law := newLeadTimeLaw(10, 30)

	assert.Equal(t, 30, law.maxLead())
	assert.Equal(t, 1.0, law.survival(0))
	assert.Equal(t, 0.0, law.survival(31))
	assert.InDelta(t, law.pmf[30], law.survival(30), 1e-12)

	for d := 1; d <= 30; d++ {
		assert.LessOrEqual(t, law.survival(d), law.survival(d-1))
	}
}

func TestLeadTimeLaw_SampleWithinBounds(t *testing.T) {
	law := newLeadTimeLaw(10, 30)
	r := newRand(7, streamBooking)

	for i := 0; i < 2000; i++ {
		lead := law.sample(r, 12, 20)
		assert.GreaterOrEqual(t, lead, 12)
		assert.LessOrEqual(t, lead, 20)
	}

	// An upper bound beyond the horizon is clipped
	for i := 0; i < 200; i++ {
		assert.LessOrEqual(t, law.sample(r, 25, 100), 30)
	}
}

func TestLogNormalCDF(t *testing.T) {
	mu := math.Log(10)
	assert.Equal(t, 0.0, logNormalCDF(0, mu))
	assert.Equal(t, 0.0, logNormalCDF(-1, mu))
	assert.InDelta(t, 0.5, logNormalCDF(10, mu), 1e-12)
	assert.Less(t, logNormalCDF(5, mu), logNormalCDF(20, mu))
}
