package generator

import (
	"fmt"
	"math"
	"time"

	"github.com/carogaltier/medscheduler/pkg/core/model"
)

const (
	MaxBinSize = 20
	MaxAge     = 100

	MinFillRate         = 0.3
	MaxFillRate         = 1.0
	MinBookingHorizon   = 7
	MaxBookingHorizon   = 90
	MinCheckInTimeMean  = -60.0
	MaxCheckInTimeMean  = 30.0
	MaxVisitsPerYear    = 12.0
	statusRateTolerance = 1e-6
	weightMeanTolerance = 1e-2
	defaultsTolerance   = 1e-2
	strictTolerance     = 1e-9
	openBandWidth       = 10
)

// AllowedAppointmentsPerHour are the slot granularities that tile half-hour aligned blocks
var AllowedAppointmentsPerHour = []int{1, 2, 3, 4, 6}

// DefaultStatusRates are the national outpatient outcome shares
var DefaultStatusRates = map[model.Status]float64{
	model.StatusAttended:     0.773,
	model.StatusCancelled:    0.164,
	model.StatusDidNotAttend: 0.059,
	model.StatusUnknown:      0.004,
}

// DefaultMonthWeights bias demand by calendar month (keys 1-12)
var DefaultMonthWeights = map[int]float64{
	1: 1.03, 2: 0.98, 3: 1.06, 4: 0.94, 5: 1.00, 6: 1.02,
	7: 1.03, 8: 0.93, 9: 1.00, 10: 1.05, 11: 1.06, 12: 0.90,
}

// DefaultWeekdayWeights bias demand by weekday (0 = Monday)
var DefaultWeekdayWeights = map[int]float64{
	0: 1.30, 1: 1.35, 2: 1.30, 3: 1.30, 4: 1.15, 5: 0.35, 6: 0.25,
}

// DefaultAgeGenderProbs are rounded published attendance shares by age band and sex
var DefaultAgeGenderProbs = []AgeGenderProb{
	{AgeBand: "0-4", Female: 0.021, Male: 0.025},
	{AgeBand: "5-9", Female: 0.016, Male: 0.018},
	{AgeBand: "10-14", Female: 0.015, Male: 0.015},
	{AgeBand: "15-19", Female: 0.017, Male: 0.013},
	{AgeBand: "20-24", Female: 0.022, Male: 0.013},
	{AgeBand: "25-29", Female: 0.033, Male: 0.015},
	{AgeBand: "30-34", Female: 0.039, Male: 0.017},
	{AgeBand: "35-39", Female: 0.037, Male: 0.018},
	{AgeBand: "40-44", Female: 0.034, Male: 0.020},
	{AgeBand: "45-49", Female: 0.035, Male: 0.024},
	{AgeBand: "50-54", Female: 0.039, Male: 0.030},
	{AgeBand: "55-59", Female: 0.041, Male: 0.034},
	{AgeBand: "60-64", Female: 0.041, Male: 0.036},
	{AgeBand: "65-69", Female: 0.041, Male: 0.037},
	{AgeBand: "70-74", Female: 0.044, Male: 0.040},
	{AgeBand: "75-79", Female: 0.039, Male: 0.035},
	{AgeBand: "80-84", Female: 0.031, Male: 0.025},
	{AgeBand: "85-89", Female: 0.016, Male: 0.013},
	{AgeBand: "90+", Female: 0.008, Male: 0.004},
}

// DefaultConfig returns the configuration used when nothing is overridden
func DefaultConfig() *Config {
	seed := uint64(42)
	return &Config{
		DateRanges: []DateRange{{
			Start: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			End:   time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC),
		}},
		RefDate:             time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC),
		WorkingDays:         []int{0, 1, 2, 3, 4},
		WorkingHours:        []HourBlock{{Start: 8, End: 18}},
		AppointmentsPerHour: 4,
		FillRate:            0.9,
		BookingHorizon:      30,
		MedianLeadTime:      10,
		StatusRates:         copyStatusRates(DefaultStatusRates),
		RebookCategory:      RebookMed,
		CheckInTimeMean:     -10,
		VisitsPerYear:       1.2,
		FirstAttendance:     0.325,
		MonthWeights:        copyWeights(DefaultMonthWeights),
		WeekdayWeights:      copyWeights(DefaultWeekdayWeights),
		BinSize:             5,
		LowerCutoff:         15,
		UpperCutoff:         90,
		Truncated:           true,
		Seed:                &seed,
		Noise:               0.1,
		AgeGenderProbs:      append([]AgeGenderProb(nil), DefaultAgeGenderProbs...),
	}
}

// ValidateDefaults checks the built-in coefficient tables. Strict mode requires exact
// normalization; tolerant mode accepts the rounding drift of published figures.
func ValidateDefaults(strict bool) error {
	tol := defaultsTolerance
	if strict {
		tol = strictTolerance
	}

	statusSum := 0.0
	for _, s := range model.OutcomeStatuses {
		rate, ok := DefaultStatusRates[s]
		if !ok {
			return fmt.Errorf("default status rates missing %q", s)
		}
		statusSum += rate
	}
	if math.Abs(statusSum-1) > tol {
		return fmt.Errorf("default status rates sum to %.6f", statusSum)
	}

	if err := checkDefaultMean("month", DefaultMonthWeights, 1, 12, tol); err != nil {
		return err
	}
	if err := checkDefaultMean("weekday", DefaultWeekdayWeights, 0, 7, tol); err != nil {
		return err
	}

	if _, err := parseAgeBands(DefaultAgeGenderProbs); err != nil {
		return fmt.Errorf("default age-gender table: %w", err)
	}
	ageSum := 0.0
	for _, row := range DefaultAgeGenderProbs {
		ageSum += row.Female + row.Male
	}
	if math.Abs(ageSum-1) > tol {
		return fmt.Errorf("default age-gender probabilities sum to %.6f", ageSum)
	}

	return nil
}

func checkDefaultMean(name string, weights map[int]float64, base, size int, tol float64) error {
	if len(weights) != size {
		return fmt.Errorf("default %s weights have %d entries, expected %d", name, len(weights), size)
	}
	sum := 0.0
	for k := base; k < base+size; k++ {
		sum += weights[k]
	}
	if mean := sum / float64(size); math.Abs(mean-1) > tol {
		return fmt.Errorf("default %s weights average %.6f", name, mean)
	}
	return nil
}

func copyStatusRates(src map[model.Status]float64) map[model.Status]float64 {
	dst := make(map[model.Status]float64, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func copyWeights(src map[int]float64) map[int]float64 {
	dst := make(map[int]float64, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
