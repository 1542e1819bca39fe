package generator

import (
	"math"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/stat/distuv"
)

const leadTimeSigma = 0.75

// LeadTimePMF returns P(lead = k days) for k in [0, maxInterval]. The law is a
// discretized log-normal whose truncated median equals median. An empty slice is
// returned when maxInterval is not positive.
func LeadTimePMF(median float64, maxInterval int) []float64 {
	if maxInterval <= 0 {
		return []float64{}
	}
	if median > float64(maxInterval) {
		median = float64(maxInterval)
	}
	if median < 0.5 {
		median = 0.5
	}

	upper := float64(maxInterval) + 0.5
	mu := solveLogMedian(median, upper)

	pmf := make([]float64, maxInterval+1)
	prev := 0.0
	total := 0.0
	for k := 0; k <= maxInterval; k++ {
		next := logNormalCDF(float64(k)+0.5, mu)
		pmf[k] = next - prev
		total += pmf[k]
		prev = next
	}
	if total <= 0 {
		pmf[int(math.Round(median))] = 1
		return pmf
	}
	for k := range pmf {
		pmf[k] /= total
	}
	return pmf
}

// solveLogMedian finds mu so that F(median) / F(upper) = 0.5 by bisection
func solveLogMedian(median, upper float64) float64 {
	lo := -5.0
	hi := math.Log(upper) + 20*leadTimeSigma
	for i := 0; i < 200; i++ {
		mid := (lo + hi) / 2
		denom := logNormalCDF(upper, mid)
		ratio := 1.0
		if denom > 0 {
			ratio = logNormalCDF(median, mid) / denom
		}
		if ratio > 0.5 {
			lo = mid
		} else {
			hi = mid
		}
	}
	return (lo + hi) / 2
}

func logNormalCDF(x, mu float64) float64 {
	if x <= 0 {
		return 0
	}
	return distuv.LogNormal{Mu: mu, Sigma: leadTimeSigma}.CDF(x)
}

// leadTimeLaw samples lead times from a fixed PMF, optionally restricted to a sub-range
type leadTimeLaw struct {
	pmf []float64
	cum []float64
}

func newLeadTimeLaw(median, horizon int) *leadTimeLaw {
	pmf := LeadTimePMF(float64(median), horizon)
	cum := make([]float64, len(pmf))
	total := 0.0
	for i, p := range pmf {
		total += p
		cum[i] = total
	}
	return &leadTimeLaw{pmf: pmf, cum: cum}
}

func (l *leadTimeLaw) maxLead() int {
	return len(l.pmf) - 1
}

// survival returns P(lead >= d)
func (l *leadTimeLaw) survival(d int) float64 {
	if d <= 0 {
		return 1
	}
	if d > l.maxLead() {
		return 0
	}
	return 1 - l.cum[d-1]
}

// sample draws a lead time conditioned on lo <= lead <= hi
func (l *leadTimeLaw) sample(r *rand.Rand, lo, hi int) int {
	if hi > l.maxLead() {
		hi = l.maxLead()
	}
	if lo < 0 {
		lo = 0
	}
	if hi < lo {
		return hi
	}
	base := 0.0
	if lo > 0 {
		base = l.cum[lo-1]
	}
	span := l.cum[hi] - base
	if span <= 0 {
		return lo
	}
	u := base + r.Float64()*span
	k := sort.Search(hi-lo+1, func(i int) bool { return l.cum[lo+i] > u })
	if k > hi-lo {
		k = hi - lo
	}
	return lo + k
}
