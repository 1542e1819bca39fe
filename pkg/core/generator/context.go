package generator

import (
	"math/rand/v2"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/carogaltier/medscheduler/pkg/core/model"
)

// GenerationContext owns all mutable state of one run: the slot availability table,
// the appointment and patient counters, and the per-component random streams.
type GenerationContext struct {
	cfg    *Config
	logger *zap.Logger
	seed   uint64

	refDate    time.Time
	horizonEnd time.Time
	rangeStart time.Time

	slots        []model.Slot
	appointments []model.Appointment
	owner        []int // Patient index per appointment, -1 while unbound
	patients     []model.Patient

	weights     *SeasonalWeights
	leadTimes   *leadTimeLaw
	outcomeCat  *categorical
	cancelRate  float64
	bookingRate float64 // Seasonal scale solved for the past fill target

	bookingRand    *rand.Rand
	outcomeRand    *rand.Rand
	rebookRand     *rand.Rand
	cohortRand     *rand.Rand
	assignmentRand *rand.Rand
	timingRand     *rand.Rand

	names    NameGenerator
	warnings []string
	stats    Stats
}

func newGenerationContext(cfg *Config, seed uint64, logger *zap.Logger) *GenerationContext {
	ranges := normalizeRanges(cfg.DateRanges)
	ref := truncateDay(cfg.RefDate)

	names := cfg.Names
	if names == nil {
		names = NewFakerNames(seed)
	}

	return &GenerationContext{
		cfg:            cfg,
		logger:         logger,
		seed:           seed,
		refDate:        ref,
		horizonEnd:     ref.AddDate(0, 0, cfg.BookingHorizon),
		rangeStart:     ranges[0].Start,
		bookingRand:    newRand(seed, streamBooking),
		outcomeRand:    newRand(seed, streamOutcomes),
		rebookRand:     newRand(seed, streamRebooking),
		cohortRand:     newRand(seed, streamCohort),
		assignmentRand: newRand(seed, streamAssignment),
		timingRand:     newRand(seed, streamTiming),
		names:          names,
	}
}

func (g *GenerationContext) warn(msg string, fields ...zap.Field) {
	g.warnings = append(g.warnings, msg)
	g.logger.Warn(msg, fields...)
}

func (g *GenerationContext) isPast(date time.Time) bool {
	return !date.After(g.refDate)
}

// book claims a free slot and creates its appointment shell. Claiming a slot that is
// already taken is a defect and aborts the run.
func (g *GenerationContext) book(slotIdx int, schedulingDate time.Time) (int, error) {
	slot := &g.slots[slotIdx]
	if !slot.Available {
		return -1, invariantError("slot already booked", 0, "slot %d on %s", slot.ID, slot.Date.Format(dateLayout))
	}
	slot.Available = false

	appt := model.Appointment{
		ID:                 len(g.appointments) + 1,
		SlotID:             slot.ID,
		SchedulingDate:     schedulingDate,
		Date:               slot.Date,
		Minute:             slot.Minute,
		SchedulingInterval: daysBetween(schedulingDate, slot.Date),
	}
	g.appointments = append(g.appointments, appt)
	g.owner = append(g.owner, -1)
	return len(g.appointments) - 1, nil
}

// firstSlotOnOrAfter returns the index of the first slot dated on or after day
func (g *GenerationContext) firstSlotOnOrAfter(day time.Time) int {
	return sort.Search(len(g.slots), func(i int) bool { return !g.slots[i].Date.Before(day) })
}

func (g *GenerationContext) dayOffset(date time.Time) int {
	return daysBetween(g.rangeStart, date)
}
