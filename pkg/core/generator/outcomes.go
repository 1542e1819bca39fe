package generator

import (
	"fmt"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/carogaltier/medscheduler/pkg/core/model"
)

// prepareOutcomes normalizes status_rates, warning when they do not already sum to 1
func (g *GenerationContext) prepareOutcomes() {
	weights := make([]float64, len(model.OutcomeStatuses))
	sum := 0.0
	for i, s := range model.OutcomeStatuses {
		weights[i] = g.cfg.StatusRates[s]
		sum += weights[i]
	}
	if math.Abs(sum-1) > statusRateTolerance {
		g.warn(fmt.Sprintf("status_rates sum to %.4f and were renormalized", sum), zap.Float64("sum", sum))
	}
	g.outcomeCat, _ = newCategorical(weights)
	g.cancelRate = weights[1] / sum
}

// assignOutcome labels a fresh appointment. Past dates draw from status_rates; future dates
// stay scheduled unless a cancellation is already known by the reference date.
func (g *GenerationContext) assignOutcome(idx int) {
	a := &g.appointments[idx]
	if g.isPast(a.Date) {
		a.Status = model.OutcomeStatuses[g.outcomeCat.draw(g.outcomeRand)]
		if a.Status == model.StatusCancelled {
			g.setCancellationDate(a, a.Date)
		}
		return
	}

	a.Status = model.StatusScheduled
	booked := daysBetween(a.SchedulingDate, a.Date)
	if booked <= 0 {
		return
	}
	elapsed := daysBetween(a.SchedulingDate, g.refDate)
	pKnown := g.cancelRate * float64(elapsed) / float64(booked)
	if g.outcomeRand.Float64() < pKnown {
		a.Status = model.StatusCancelled
		g.setCancellationDate(a, g.refDate)
	}
}

// setCancellationDate draws the day the cancellation was made, uniform on [scheduling date, latest]
func (g *GenerationContext) setCancellationDate(a *model.Appointment, latest time.Time) {
	span := daysBetween(a.SchedulingDate, latest)
	offset := 0
	if span > 0 {
		offset = g.outcomeRand.IntN(span + 1)
	}
	day := a.SchedulingDate.AddDate(0, 0, offset)
	a.CancelledOn = &day
}

// resolveOutcomes labels the given appointments and runs the rebooking queue over their cancellations
func (g *GenerationContext) resolveOutcomes(created []int) error {
	var cancelled []int
	for _, idx := range created {
		g.assignOutcome(idx)
		if g.appointments[idx].Status == model.StatusCancelled {
			cancelled = append(cancelled, idx)
		}
	}
	return g.rebook(cancelled)
}

// rebook processes cancellations as a bounded work queue. Each pass consumes the
// previous pass's cancellations; successors deeper than the category limit are not rebooked.
func (g *GenerationContext) rebook(queue []int) error {
	ratio := g.cfg.RebookCategory.Ratio()
	maxDepth := g.cfg.RebookCategory.MaxDepth()
	if ratio <= 0 {
		return nil
	}

	for pass := 0; len(queue) > 0 && pass < maxDepth; pass++ {
		sort.SliceStable(queue, func(i, j int) bool {
			a, b := g.appointments[queue[i]], g.appointments[queue[j]]
			if !a.CancelledOn.Equal(*b.CancelledOn) {
				return a.CancelledOn.Before(*b.CancelledOn)
			}
			return a.ID < b.ID
		})

		var next []int
		for _, idx := range queue {
			if g.appointments[idx].RebookIteration >= maxDepth {
				continue
			}
			g.stats.RebookAttempts++
			if g.rebookRand.Float64() >= ratio {
				continue
			}

			successor, ok, err := g.rebookOne(idx)
			if err != nil {
				return err
			}
			if !ok {
				g.stats.RebookUnplaced++
				continue
			}
			g.stats.Rebooked++

			g.assignOutcome(successor)
			if g.appointments[successor].Status == model.StatusCancelled {
				next = append(next, successor)
			}
		}

		g.stats.RebookPasses++
		g.logger.Debug("Rebooking pass complete",
			zap.Int("pass", pass+1),
			zap.Int("queue", len(queue)),
			zap.Int("new_cancellations", len(next)))
		queue = next
	}

	if g.stats.RebookUnplaced > 0 {
		g.logger.Debug("Some cancellations found no free slot in their rebooking window",
			zap.Int("unplaced", g.stats.RebookUnplaced))
	}
	return nil
}

// rebookOne places the successor of a cancellation in the first free slot at or after
// cancellation + lead, searching back towards the cancellation when the window ahead is full
func (g *GenerationContext) rebookOne(predIdx int) (int, bool, error) {
	pred := g.appointments[predIdx]
	cancelDay := *pred.CancelledOn

	windowEnd := cancelDay.AddDate(0, 0, g.cfg.BookingHorizon)
	if windowEnd.After(g.horizonEnd) {
		windowEnd = g.horizonEnd
	}
	lead := g.leadTimes.sample(g.rebookRand, 1, g.leadTimes.maxLead())
	target := cancelDay.AddDate(0, 0, lead)
	if target.After(windowEnd) {
		target = windowEnd
	}

	chosen := -1
	start := g.firstSlotOnOrAfter(target)
	for i := start; i < len(g.slots) && !g.slots[i].Date.After(windowEnd); i++ {
		if g.slots[i].Available {
			chosen = i
			break
		}
	}
	if chosen < 0 {
		for i := start - 1; i >= 0 && g.slots[i].Date.After(cancelDay); i-- {
			if g.slots[i].Available {
				chosen = i
				break
			}
		}
	}
	if chosen < 0 {
		return -1, false, nil
	}

	idx, err := g.book(chosen, cancelDay)
	if err != nil {
		return -1, false, err
	}
	predID := pred.ID
	succ := &g.appointments[idx]
	succ.RebookedFromID = &predID
	succ.RebookIteration = pred.RebookIteration + 1
	return idx, true, nil
}
