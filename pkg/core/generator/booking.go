package generator

import (
	"math"

	"go.uber.org/zap"
)

// allocate books past slots towards fill_rate and future slots along the lead-time
// survival curve. It returns the indices of the appointments it created.
func (g *GenerationContext) allocate() ([]int, error) {
	var past, future []int
	for i, s := range g.slots {
		switch {
		case g.isPast(s.Date):
			past = append(past, i)
		case !s.Date.After(g.horizonEnd):
			future = append(future, i)
		}
	}
	g.stats.PastSlots = len(past)
	g.stats.FutureSlots = len(future)

	calibration := past
	if len(calibration) == 0 {
		calibration = future
	}
	g.bookingRate = g.solveBookingScale(calibration)

	created := make([]int, 0, len(past)+len(future))

	pastIdx, err := g.bookPast(past, g.initialPastTarget(len(past)))
	if err != nil {
		return nil, err
	}
	created = append(created, pastIdx...)

	for _, slotIdx := range future {
		slot := g.slots[slotIdx]
		distance := daysBetween(g.refDate, slot.Date)
		p := g.slotProbability(slotIdx) * g.leadTimes.survival(distance)
		if g.bookingRand.Float64() >= p {
			continue
		}
		maxLead := min(g.leadTimes.maxLead(), g.dayOffset(slot.Date))
		lead := g.leadTimes.sample(g.bookingRand, distance, maxLead)
		idx, err := g.book(slotIdx, slot.Date.AddDate(0, 0, -lead))
		if err != nil {
			return nil, err
		}
		created = append(created, idx)
	}

	g.stats.InitialBookings = len(created)
	g.logger.Debug("Initial bookings allocated",
		zap.Int("past_slots", len(past)),
		zap.Int("future_slots", len(future)),
		zap.Int("booked", len(created)),
		zap.Float64("booking_scale", g.bookingRate))

	return created, nil
}

// bookPast books exactly target of the given free past slots, weighted by their clipped probability
func (g *GenerationContext) bookPast(candidates []int, target int) ([]int, error) {
	weights := make([]float64, len(candidates))
	for i, slotIdx := range candidates {
		weights[i] = g.slotProbability(slotIdx)
	}

	var created []int
	for _, pick := range weightedSample(g.bookingRand, weights, target) {
		slotIdx := candidates[pick]
		slot := g.slots[slotIdx]
		lead := g.leadTimes.sample(g.bookingRand, 0, g.leadTimes.maxLead())
		lead = min(lead, g.dayOffset(slot.Date))
		idx, err := g.book(slotIdx, slot.Date.AddDate(0, 0, -lead))
		if err != nil {
			return nil, err
		}
		created = append(created, idx)
	}
	return created, nil
}

// topUpPast books additional past slots until the realized fill matches the target exactly
func (g *GenerationContext) topUpPast() ([]int, error) {
	var free []int
	booked := 0
	for i, s := range g.slots {
		if !g.isPast(s.Date) {
			break
		}
		if s.Available {
			free = append(free, i)
		} else {
			booked++
		}
	}

	deficit := g.pastTarget(g.stats.PastSlots) - booked
	if deficit <= 0 {
		if deficit < 0 {
			g.logger.Debug("Past fill overshoots target after rebooking", zap.Int("excess", -deficit))
		}
		return nil, nil
	}

	created, err := g.bookPast(free, deficit)
	if err != nil {
		return nil, err
	}
	g.stats.TopUpBookings = len(created)
	return created, nil
}

func (g *GenerationContext) pastTarget(pastSlots int) int {
	return int(math.Round(g.cfg.FillRate * float64(pastSlots)))
}

// initialPastTarget leaves room for the rebookings expected to land on past slots
func (g *GenerationContext) initialPastTarget(pastSlots int) int {
	q := g.cancelRate * g.cfg.RebookCategory.Ratio()
	inflation := 0.0
	term := 1.0
	for depth := 0; depth < g.cfg.RebookCategory.MaxDepth(); depth++ {
		term *= q
		inflation += term
	}
	return int(math.Round(float64(g.pastTarget(pastSlots)) / (1 + inflation)))
}

// slotProbability is the seasonal booking probability, clipped at 1
func (g *GenerationContext) slotProbability(slotIdx int) float64 {
	return math.Min(1, g.bookingRate*g.weights.SlotWeight(g.slots[slotIdx].Date))
}

// solveBookingScale finds c such that mean(min(1, c*w)) over the slots equals fill_rate
func (g *GenerationContext) solveBookingScale(slotIdx []int) float64 {
	if len(slotIdx) == 0 {
		return g.cfg.FillRate
	}
	weights := make([]float64, len(slotIdx))
	maxW := 0.0
	for i, idx := range slotIdx {
		weights[i] = g.weights.SlotWeight(g.slots[idx].Date)
		maxW = math.Max(maxW, weights[i])
	}
	if maxW <= 0 {
		return 0
	}

	meanAt := func(c float64) float64 {
		sum := 0.0
		for _, w := range weights {
			sum += math.Min(1, c*w)
		}
		return sum / float64(len(weights))
	}

	lo, hi := 0.0, 1.0
	for meanAt(hi) < g.cfg.FillRate && hi < 1e6 {
		hi *= 2
	}
	if meanAt(hi) < g.cfg.FillRate {
		g.warn("fill_rate cannot be reached with the configured seasonal weights",
			zap.Float64("fill_rate", g.cfg.FillRate), zap.Float64("reachable", meanAt(hi)))
		return hi
	}
	for i := 0; i < 100; i++ {
		mid := (lo + hi) / 2
		if meanAt(mid) < g.cfg.FillRate {
			lo = mid
		} else {
			hi = mid
		}
	}
	return hi
}
