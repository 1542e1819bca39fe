package generator

import (
	"math"
	"slices"
	"sort"

	"github.com/teambition/rrule-go"

	"github.com/carogaltier/medscheduler/pkg/core/model"
)

// ValidateConfig rejects configurations that cannot produce a consistent dataset.
// It runs before any random stream is created.
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return configErrorf("config", "must not be nil")
	}

	if err := validateCalendar(cfg); err != nil {
		return err
	}

	if !finiteIn(cfg.FillRate, MinFillRate, MaxFillRate) {
		return configErrorf("fill_rate", "%v is outside [%v, %v]", cfg.FillRate, MinFillRate, MaxFillRate)
	}
	if cfg.BookingHorizon < MinBookingHorizon || cfg.BookingHorizon > MaxBookingHorizon {
		return configErrorf("booking_horizon", "%d is outside [%d, %d]", cfg.BookingHorizon, MinBookingHorizon, MaxBookingHorizon)
	}
	if cfg.MedianLeadTime < 1 {
		return configErrorf("median_lead_time", "must be at least 1 day, got %d", cfg.MedianLeadTime)
	}
	if cfg.MedianLeadTime > cfg.BookingHorizon {
		return configErrorf("median_lead_time", "%d exceeds booking_horizon %d", cfg.MedianLeadTime, cfg.BookingHorizon)
	}

	if err := validateStatusRates(cfg.StatusRates); err != nil {
		return err
	}
	if !cfg.RebookCategory.IsValid() {
		return configErrorf("rebook_category", "%q is not one of min, med, max", cfg.RebookCategory)
	}

	if !finiteIn(cfg.CheckInTimeMean, MinCheckInTimeMean, MaxCheckInTimeMean) {
		return configErrorf("check_in_time_mean", "%v is outside [%v, %v]", cfg.CheckInTimeMean, MinCheckInTimeMean, MaxCheckInTimeMean)
	}
	if !finiteIn(cfg.VisitsPerYear, 0, MaxVisitsPerYear) || cfg.VisitsPerYear == 0 {
		return configErrorf("visits_per_year", "%v is outside (0, %v]", cfg.VisitsPerYear, MaxVisitsPerYear)
	}
	if !finiteIn(cfg.FirstAttendance, 0, 1) {
		return configErrorf("first_attendance", "%v is outside [0, 1]", cfg.FirstAttendance)
	}

	if err := validateWeights("month_weights", cfg.MonthWeights, 1, 12); err != nil {
		return err
	}
	if err := validateWeights("weekday_weights", cfg.WeekdayWeights, 0, 7); err != nil {
		return err
	}

	if err := validateAgeSettings(cfg); err != nil {
		return err
	}

	if math.IsNaN(cfg.Noise) || math.IsInf(cfg.Noise, 0) || cfg.Noise < 0 {
		return configErrorf("noise", "must be a non-negative number, got %v", cfg.Noise)
	}

	for i, rule := range cfg.Closures {
		if _, err := rrule.StrToRRule(rule); err != nil {
			return configErrorf("closures", "rule %d (%q): %v", i, rule, err)
		}
	}

	return nil
}

func validateCalendar(cfg *Config) error {
	if len(cfg.DateRanges) == 0 {
		return configErrorf("date_ranges", "at least one range is required")
	}

	ranges := normalizeRanges(cfg.DateRanges)
	for i, r := range ranges {
		if r.End.Before(r.Start) {
			return configErrorf("date_ranges", "range %s to %s has start after end",
				r.Start.Format(dateLayout), r.End.Format(dateLayout))
		}
		if i > 0 && !r.Start.After(ranges[i-1].End) {
			return configErrorf("date_ranges", "range starting %s overlaps the previous range", r.Start.Format(dateLayout))
		}
	}

	ref := truncateDay(cfg.RefDate)
	covered := false
	for _, r := range ranges {
		if !ref.Before(r.Start) && !ref.After(r.End) {
			covered = true
			break
		}
	}
	if !covered {
		return configErrorf("ref_date", "%s is outside all date ranges", ref.Format(dateLayout))
	}

	seen := make(map[int]bool, len(cfg.WorkingDays))
	for _, d := range cfg.WorkingDays {
		if d < 0 || d > 6 {
			return configErrorf("working_days", "%d is not a weekday index 0-6", d)
		}
		if seen[d] {
			return configErrorf("working_days", "weekday %d listed twice", d)
		}
		seen[d] = true
	}

	if !slices.Contains(AllowedAppointmentsPerHour, cfg.AppointmentsPerHour) {
		return configErrorf("appointments_per_hour", "%d must be one of %v", cfg.AppointmentsPerHour, AllowedAppointmentsPerHour)
	}

	if len(cfg.WorkingHours) == 0 {
		return configErrorf("working_hours", "at least one block is required")
	}
	blocks := append([]HourBlock(nil), cfg.WorkingHours...)
	sort.Slice(blocks, func(i, j int) bool { return blocks[i].Start < blocks[j].Start })
	for i, b := range blocks {
		if !halfHourAligned(b.Start) || !halfHourAligned(b.End) {
			return configErrorf("working_hours", "block %v-%v is not aligned to half hours", b.Start, b.End)
		}
		if b.Start < 0 || b.End > 24 || b.Start >= b.End {
			return configErrorf("working_hours", "block %v-%v must satisfy 0 <= start < end <= 24", b.Start, b.End)
		}
		if i > 0 && b.Start < blocks[i-1].End {
			return configErrorf("working_hours", "block %v-%v overlaps %v-%v", b.Start, b.End, blocks[i-1].Start, blocks[i-1].End)
		}
	}

	return nil
}

func validateStatusRates(rates map[model.Status]float64) error {
	if len(rates) != len(model.OutcomeStatuses) {
		return configErrorf("status_rates", "expected exactly the keys %v", model.OutcomeStatuses)
	}
	sum := 0.0
	for _, s := range model.OutcomeStatuses {
		rate, ok := rates[s]
		if !ok {
			return configErrorf("status_rates", "missing key %q", s)
		}
		if math.IsNaN(rate) || math.IsInf(rate, 0) || rate < 0 {
			return configErrorf("status_rates", "%q must be a non-negative number, got %v", s, rate)
		}
		sum += rate
	}
	if sum <= 0 {
		return configErrorf("status_rates", "rates must have a positive sum")
	}
	return nil
}

func validateWeights(field string, weights map[int]float64, base, size int) error {
	for k, w := range weights {
		if k < base || k >= base+size {
			return configErrorf(field, "key %d is outside %d-%d", k, base, base+size-1)
		}
		if math.IsNaN(w) || math.IsInf(w, 0) {
			return configErrorf(field, "weight for %d is not finite", k)
		}
		if w < 0 {
			return configErrorf(field, "weight for %d is negative (%v)", k, w)
		}
	}
	return nil
}

func validateAgeSettings(cfg *Config) error {
	if cfg.BinSize < 1 || cfg.BinSize > MaxBinSize {
		return configErrorf("bin_size", "%d is outside [1, %d]", cfg.BinSize, MaxBinSize)
	}
	if cfg.LowerCutoff < 0 || cfg.UpperCutoff > MaxAge {
		return configErrorf("age cutoffs", "must lie within [0, %d]", MaxAge)
	}
	if cfg.LowerCutoff >= cfg.UpperCutoff {
		return configErrorf("age cutoffs", "lower_cutoff %d must be below upper_cutoff %d", cfg.LowerCutoff, cfg.UpperCutoff)
	}
	if len(cfg.AgeGenderProbs) == 0 {
		return configErrorf("age_gender_probs", "at least one age band is required")
	}
	bands, err := parseAgeBands(cfg.AgeGenderProbs)
	if err != nil {
		return err
	}
	if _, err := effectiveBands(bands, cfg.LowerCutoff, cfg.UpperCutoff, cfg.Truncated); err != nil {
		return err
	}
	return nil
}

func finiteIn(v, lo, hi float64) bool {
	return !math.IsNaN(v) && v >= lo && v <= hi
}

func halfHourAligned(h float64) bool {
	doubled := h * 2
	return math.Abs(doubled-math.Round(doubled)) < 1e-9
}
