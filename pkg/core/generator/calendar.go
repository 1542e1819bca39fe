package generator

import (
	"fmt"
	"sort"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/carogaltier/medscheduler/pkg/core/model"
)

const dateLayout = "2006-01-02"

var weekdayRRule = []rrule.Weekday{rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA, rrule.SU}

// BuildCalendar expands the configured date ranges, working days and hour blocks into
// the ordered slot table. The final range is extended to cover ref_date + booking_horizon.
func BuildCalendar(cfg *Config) ([]model.Slot, error) {
	if err := validateCalendar(cfg); err != nil {
		return nil, err
	}
	if len(cfg.WorkingDays) == 0 {
		return []model.Slot{}, nil
	}

	ranges := effectiveRanges(cfg)

	closed, err := closedDays(cfg.Closures, ranges[0].Start, ranges[len(ranges)-1].End)
	if err != nil {
		return nil, err
	}

	weekdays := make([]rrule.Weekday, 0, len(cfg.WorkingDays))
	days := append([]int(nil), cfg.WorkingDays...)
	sort.Ints(days)
	for _, d := range days {
		weekdays = append(weekdays, weekdayRRule[d])
	}

	minutes := slotMinutes(cfg)

	var slots []model.Slot
	for _, r := range ranges {
		rule, err := rrule.NewRRule(rrule.ROption{
			Freq:      rrule.DAILY,
			Dtstart:   r.Start,
			Until:     r.End,
			Byweekday: weekdays,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to expand working days: %w", err)
		}

		for _, day := range rule.All() {
			day = truncateDay(day)
			if closed[day] {
				continue
			}
			for _, m := range minutes {
				slots = append(slots, model.Slot{
					ID:        len(slots) + 1,
					Date:      day,
					Minute:    m,
					Available: true,
				})
			}
		}
	}

	if slots == nil {
		slots = []model.Slot{}
	}
	return slots, nil
}

// effectiveRanges returns the sorted, day-normalized ranges with the last one
// stretched forward to the end of the booking horizon
func effectiveRanges(cfg *Config) []DateRange {
	ranges := normalizeRanges(cfg.DateRanges)
	horizonEnd := truncateDay(cfg.RefDate).AddDate(0, 0, cfg.BookingHorizon)
	last := &ranges[len(ranges)-1]
	if last.End.Before(horizonEnd) {
		last.End = horizonEnd
	}
	return ranges
}

func normalizeRanges(in []DateRange) []DateRange {
	ranges := make([]DateRange, len(in))
	for i, r := range in {
		ranges[i] = DateRange{Start: truncateDay(r.Start), End: truncateDay(r.End)}
	}
	sort.Slice(ranges, func(i, j int) bool { return ranges[i].Start.Before(ranges[j].Start) })
	return ranges
}

// slotMinutes lists the slot start times of a working day in minutes from midnight
func slotMinutes(cfg *Config) []int {
	step := cfg.SlotDurationMinutes()
	blocks := append([]HourBlock(nil), cfg.WorkingHours...)
	sort.Slice(blocks, func(i, j int) bool { return blocks[i].Start < blocks[j].Start })

	var minutes []int
	for _, b := range blocks {
		start := int(b.Start*60 + 0.5)
		end := int(b.End*60 + 0.5)
		for m := start; m+step <= end; m += step {
			minutes = append(minutes, m)
		}
	}
	return minutes
}

// closedDays expands closure rules over [from, to]
func closedDays(rules []string, from, to time.Time) (map[time.Time]bool, error) {
	closed := make(map[time.Time]bool)
	for i, s := range rules {
		rule, err := rrule.StrToRRule(s)
		if err != nil {
			return nil, configErrorf("closures", "rule %d (%q): %v", i, s, err)
		}
		rule.DTStart(from)
		for _, day := range rule.Between(from, to.Add(24*time.Hour-time.Second), true) {
			closed[truncateDay(day)] = true
		}
	}
	return closed, nil
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// daysBetween counts whole calendar days from a to b
func daysBetween(a, b time.Time) int {
	return int(truncateDay(b).Sub(truncateDay(a)).Hours() / 24)
}
