package generator

import (
	"fmt"
	"math"
	"time"

	"github.com/carogaltier/medscheduler/pkg/core/model"
)

// SeasonalWeights holds the normalized weekday (Monday first) and month (January first) factors
type SeasonalWeights struct {
	Weekday [7]float64
	Month   [12]float64
}

// SlotWeight is the multiplicative demand bias for a date
func (w *SeasonalWeights) SlotWeight(date time.Time) float64 {
	return w.Weekday[weekdayIndex(date)] * w.Month[int(date.Month())-1]
}

// WeightsFromSequence converts a fixed-length sequence into a keyed weight map starting at base
func WeightsFromSequence(values []float64, size, base int) (map[int]float64, error) {
	if len(values) != size {
		return nil, fmt.Errorf("expected %d weights, got %d", size, len(values))
	}
	weights := make(map[int]float64, size)
	for i, v := range values {
		weights[base+i] = v
	}
	return weights, nil
}

// NormalizeWeights fills keys missing from raw with 1.0 and rescales the vector so the
// entries listed in active average exactly 1.0. The result is indexed from base.
func NormalizeWeights(raw map[int]float64, size, base int, active []int) ([]float64, error) {
	out := make([]float64, size)
	for i := range out {
		out[i] = 1.0
	}
	for k, v := range raw {
		if k < base || k >= base+size {
			return nil, fmt.Errorf("weight key %d is outside %d-%d", k, base, base+size-1)
		}
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("weight for %d must be a non-negative number, got %v", k, v)
		}
		out[k-base] = v
	}
	if len(active) == 0 {
		return out, nil
	}

	sum := 0.0
	for _, k := range active {
		sum += out[k-base]
	}
	if sum <= 0 {
		return nil, fmt.Errorf("active weights sum to zero")
	}
	scale := float64(len(active)) / sum
	for i := range out {
		out[i] *= scale
	}
	return out, nil
}

// ComputeSeasonalWeights normalizes the configured weights over the weekdays and months that occur in slots
func ComputeSeasonalWeights(cfg *Config, slots []model.Slot) (*SeasonalWeights, []string, error) {
	var warnings []string

	activeDays := append([]int(nil), cfg.WorkingDays...)
	monthSeen := make(map[int]bool)
	var activeMonths []int
	for _, s := range slots {
		m := int(s.Date.Month())
		if !monthSeen[m] {
			monthSeen[m] = true
			activeMonths = append(activeMonths, m)
		}
	}

	if w := rawMeanDeviation(cfg.WeekdayWeights, 7, 0); w != "" {
		warnings = append(warnings, "weekday_weights "+w)
	}
	if w := rawMeanDeviation(cfg.MonthWeights, 12, 1); w != "" {
		warnings = append(warnings, "month_weights "+w)
	}

	weekday, err := NormalizeWeights(cfg.WeekdayWeights, 7, 0, activeDays)
	if err != nil {
		return nil, nil, configErrorf("weekday_weights", "%v", err)
	}
	month, err := NormalizeWeights(cfg.MonthWeights, 12, 1, activeMonths)
	if err != nil {
		return nil, nil, configErrorf("month_weights", "%v", err)
	}

	sw := &SeasonalWeights{}
	copy(sw.Weekday[:], weekday)
	copy(sw.Month[:], month)
	return sw, warnings, nil
}

// rawMeanDeviation describes how far the full raw vector strays from mean 1.0, or "" when it is within tolerance
func rawMeanDeviation(raw map[int]float64, size, base int) string {
	if len(raw) == 0 {
		return ""
	}
	sum := 0.0
	for k := base; k < base+size; k++ {
		if v, ok := raw[k]; ok {
			sum += v
		} else {
			sum += 1
		}
	}
	mean := sum / float64(size)
	if math.Abs(mean-1) <= weightMeanTolerance {
		return ""
	}
	return fmt.Sprintf("average %.4f instead of 1.0 and were renormalized", mean)
}

// weekdayIndex maps time.Weekday onto 0 = Monday ... 6 = Sunday
func weekdayIndex(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}
