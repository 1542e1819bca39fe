package model

import (
	"time"
)

// Status is the outcome label of an appointment
type Status string

const (
	StatusAttended     Status = "attended"
	StatusCancelled    Status = "cancelled"
	StatusDidNotAttend Status = "did not attend"
	StatusUnknown      Status = "unknown"
	StatusScheduled    Status = "scheduled"
)

// OutcomeStatuses lists the statuses a past appointment can take, in canonical order
var OutcomeStatuses = []Status{StatusAttended, StatusCancelled, StatusDidNotAttend, StatusUnknown}

func (s Status) IsOutcome() bool {
	return s == StatusAttended || s == StatusCancelled || s == StatusDidNotAttend || s == StatusUnknown
}

func (s Status) IsValid() bool {
	return s.IsOutcome() || s == StatusScheduled
}

type Sex string

const (
	SexFemale Sex = "Female"
	SexMale   Sex = "Male"
)

// Slot is one bookable calendar unit
type Slot struct {
	ID        int
	Date      time.Time // Midnight UTC
	Minute    int       // Minutes from midnight
	Available bool
}

// Start returns the slot's date and time-of-day combined
func (s Slot) Start() time.Time {
	return s.Date.Add(time.Duration(s.Minute) * time.Minute)
}

// Appointment is one booked encounter occupying a slot
type Appointment struct {
	ID                 int
	SlotID             int
	PatientID          string // Empty until assignment
	SchedulingDate     time.Time
	Date               time.Time
	Minute             int
	SchedulingInterval int
	Status             Status
	CancelledOn        *time.Time // Only set for cancellations
	RebookedFromID     *int
	RebookIteration    int
	FirstAttendance    bool

	// Timing, attended rows only
	CheckIn     *time.Time
	StartTime   *time.Time
	EndTime     *time.Time
	WaitingTime *float64 // Minutes
	Duration    *float64 // Minutes

	Age      *int
	AgeGroup string
}

// Start returns the scheduled appointment datetime
func (a Appointment) Start() time.Time {
	return a.Date.Add(time.Duration(a.Minute) * time.Minute)
}

// IsRebooked reports whether this appointment replaces a cancellation
func (a Appointment) IsRebooked() bool {
	return a.RebookedFromID != nil
}

// Patient is one synthetic individual
type Patient struct {
	ID       string
	Name     string
	Sex      Sex
	Age      int // At first observed appointment
	DOB      time.Time
	AgeGroup string
	Custom   map[string]string
}

// Dataset holds the three generated tables
type Dataset struct {
	ID            string
	Seed          uint64
	RefDate       time.Time
	Slots         []Slot
	Appointments  []Appointment
	Patients      []Patient
	CustomColumns []string
}
