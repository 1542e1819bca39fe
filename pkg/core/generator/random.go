package generator

import (
	"hash/fnv"
	"math"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/stat/distuv"
)

// stream identifies an independent random sub-stream derived from the master seed
type stream uint64

const (
	streamBooking stream = iota + 1
	streamOutcomes
	streamRebooking
	streamCohort
	streamNames
	streamAssignment
	streamTiming
	streamCustomColumns
)

const streamMix = 0x9e3779b97f4a7c15

func newRand(seed uint64, s stream) *rand.Rand {
	return rand.New(rand.NewPCG(seed, uint64(s)*streamMix))
}

// NewColumnRand returns the stream used to fill a custom column, keyed by its name
func NewColumnRand(seed uint64, name string) *rand.Rand {
	h := fnv.New64a()
	h.Write([]byte(name))
	mix := uint64(streamMix)
	return rand.New(rand.NewPCG(seed, uint64(streamCustomColumns)*mix^h.Sum64()))
}

// categorical draws indices proportionally to non-negative weights
type categorical struct {
	cdf   []float64
	total float64
}

func newCategorical(weights []float64) (*categorical, bool) {
	cdf := make([]float64, len(weights))
	total := 0.0
	for i, w := range weights {
		if w > 0 {
			total += w
		}
		cdf[i] = total
	}
	if total <= 0 {
		return nil, false
	}
	return &categorical{cdf: cdf, total: total}, true
}

func (c *categorical) draw(r *rand.Rand) int {
	u := r.Float64() * c.total
	idx := sort.Search(len(c.cdf), func(i int) bool { return c.cdf[i] > u })
	if idx == len(c.cdf) {
		idx = len(c.cdf) - 1
	}
	return idx
}

// weightedSample picks k distinct indices with probability increasing in weight
// (Efraimidis-Spirakis keys). Zero-weight entries are never chosen. The result is sorted.
func weightedSample(r *rand.Rand, weights []float64, k int) []int {
	type keyed struct {
		idx int
		key float64
	}
	candidates := make([]keyed, 0, len(weights))
	for i, w := range weights {
		u := r.Float64()
		if w <= 0 {
			continue
		}
		candidates = append(candidates, keyed{idx: i, key: math.Log(u) / w})
	}
	if k > len(candidates) {
		k = len(candidates)
	}
	if k <= 0 {
		return nil
	}
	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].key > candidates[j].key })

	picked := make([]int, k)
	for i := 0; i < k; i++ {
		picked[i] = candidates[i].idx
	}
	sort.Ints(picked)
	return picked
}

// betaSample draws from Beta(alpha, beta) on r
func betaSample(r *rand.Rand, alpha, beta float64) float64 {
	return distuv.Beta{Alpha: alpha, Beta: beta, Src: r}.Rand()
}

// geometricFailures counts failures before the first success with probability p
func geometricFailures(r *rand.Rand, p float64) int {
	if p >= 1 {
		return 0
	}
	if p <= 0 {
		return math.MaxInt32
	}
	u := 1 - r.Float64() // (0, 1]
	n := math.Floor(math.Log(u) / math.Log1p(-p))
	if n > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(n)
}

// uniformFactor returns a multiplicative jitter in [1-noise, 1+noise], floored above zero
func uniformFactor(r *rand.Rand, noise float64) float64 {
	lo := math.Max(0.05, 1-noise)
	hi := 1 + noise
	return lo + r.Float64()*(hi-lo)
}
