package generator

import (
	"time"

	"github.com/carogaltier/medscheduler/pkg/core/model"
)

// DateRange is an inclusive span of calendar days
type DateRange struct {
	Start time.Time
	End   time.Time
}

// HourBlock is a half-hour aligned working period in hours from midnight, e.g. {8, 12.5}
type HourBlock struct {
	Start float64
	End   float64
}

// AgeGenderProb is one row of the age-sex joint distribution
type AgeGenderProb struct {
	AgeBand string  `json:"age_band" yaml:"ageBand"`
	Female  float64 `json:"female" yaml:"female"`
	Male    float64 `json:"male" yaml:"male"`
}

// RebookCategory selects how aggressively cancellations are rebooked
type RebookCategory string

const (
	RebookMin RebookCategory = "min"
	RebookMed RebookCategory = "med"
	RebookMax RebookCategory = "max"
)

// Ratio returns the probability that a cancellation is rebooked
func (c RebookCategory) Ratio() float64 {
	switch c {
	case RebookMed:
		return 0.5
	case RebookMax:
		return 1.0
	default:
		return 0.0
	}
}

// MaxDepth returns the longest rebooking chain allowed for the category
func (c RebookCategory) MaxDepth() int {
	switch c {
	case RebookMed:
		return 2
	case RebookMax:
		return 10
	default:
		return 1
	}
}

func (c RebookCategory) IsValid() bool {
	return c == RebookMin || c == RebookMed || c == RebookMax
}

// Config is the validated input to Generate
type Config struct {
	DateRanges          []DateRange
	RefDate             time.Time
	WorkingDays         []int // 0 = Monday ... 6 = Sunday
	WorkingHours        []HourBlock
	AppointmentsPerHour int
	FillRate            float64
	BookingHorizon      int
	MedianLeadTime      int
	StatusRates         map[model.Status]float64
	RebookCategory      RebookCategory
	CheckInTimeMean     float64
	VisitsPerYear       float64
	FirstAttendance     float64
	MonthWeights        map[int]float64 // Keys 1-12
	WeekdayWeights      map[int]float64 // Keys 0-6
	BinSize             int
	LowerCutoff         int
	UpperCutoff         int
	Truncated           bool
	Seed                *uint64 // nil draws a seed from the clock
	Noise               float64
	AgeGenderProbs      []AgeGenderProb
	Closures            []string // RRULEs of days the clinic is closed

	// Names overrides the default faker-backed name generator
	Names NameGenerator `json:"-"`
}

// SlotDurationMinutes returns the length of one slot
func (c *Config) SlotDurationMinutes() int {
	if c.AppointmentsPerHour <= 0 {
		return 0
	}
	return 60 / c.AppointmentsPerHour
}

// Stats counts what happened during a run
type Stats struct {
	PastSlots        int
	FutureSlots      int
	InitialBookings  int
	TopUpBookings    int
	RebookAttempts   int
	Rebooked         int
	RebookUnplaced   int
	RebookPasses     int
	CohortGenerated  int
	PatientsAssigned int
}

// Result is the output of a generation run
type Result struct {
	Dataset  *model.Dataset
	Warnings []string
	Stats    Stats
}
