package generator

import (
	"sort"
	"time"

	"github.com/carogaltier/medscheduler/pkg/core/model"
)

var weekdayNames = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// SlotSummary describes the calendar
type SlotSummary struct {
	FirstDate        string         `json:"first_date"`
	LastDate         string         `json:"last_date"`
	ReferenceDate    string         `json:"reference_date"`
	TotalSlots       int            `json:"total_slots"`
	AvailabilityRate float64        `json:"availability_rate"`
	PastSlots        int            `json:"past_slots"`
	FutureSlots      int            `json:"future_slots"`
	SlotsByWeekday   map[string]int `json:"slots_by_weekday"`
}

// AppointmentSummary describes bookings and outcomes
type AppointmentSummary struct {
	TotalAppointments    int                  `json:"total_appointments"`
	StatusCounts         map[model.Status]int `json:"status_counts"`
	PastFillRate         float64              `json:"past_fill_rate"`
	MedianLeadTime       float64              `json:"median_lead_time"`
	FirstAttendanceRatio float64              `json:"first_attendance_ratio"`
	Rebooked             int                  `json:"rebooked"`
	MaxRebookIteration   int                  `json:"max_rebook_iteration"`
	Patients             int                  `json:"patients"`
}

// Summary combines the slot and appointment summaries
type Summary struct {
	Slots        SlotSummary        `json:"slots"`
	Appointments AppointmentSummary `json:"appointments"`
}

// SummarizeSlots reports coverage and availability of a slot table
func SummarizeSlots(slots []model.Slot, refDate time.Time) SlotSummary {
	ref := truncateDay(refDate)
	summary := SlotSummary{
		ReferenceDate:  ref.Format(dateLayout),
		TotalSlots:     len(slots),
		SlotsByWeekday: make(map[string]int),
	}
	if len(slots) == 0 {
		return summary
	}

	summary.FirstDate = slots[0].Date.Format(dateLayout)
	summary.LastDate = slots[len(slots)-1].Date.Format(dateLayout)

	available := 0
	for _, s := range slots {
		if s.Available {
			available++
		}
		if s.Date.After(ref) {
			summary.FutureSlots++
		} else {
			summary.PastSlots++
		}
		summary.SlotsByWeekday[weekdayNames[weekdayIndex(s.Date)]]++
	}
	summary.AvailabilityRate = float64(available) / float64(len(slots))
	return summary
}

// SummarizeAppointments reports outcome shares, fill and lead times of a dataset
func SummarizeAppointments(ds *model.Dataset) AppointmentSummary {
	summary := AppointmentSummary{
		TotalAppointments: len(ds.Appointments),
		StatusCounts:      make(map[model.Status]int),
		Patients:          len(ds.Patients),
	}

	pastSlots, pastBooked := 0, 0
	for _, s := range ds.Slots {
		if !s.Date.After(ds.RefDate) {
			pastSlots++
			if !s.Available {
				pastBooked++
			}
		}
	}
	if pastSlots > 0 {
		summary.PastFillRate = float64(pastBooked) / float64(pastSlots)
	}

	leads := make([]int, 0, len(ds.Appointments))
	roots, firsts := 0, 0
	for _, a := range ds.Appointments {
		summary.StatusCounts[a.Status]++
		leads = append(leads, a.SchedulingInterval)
		if a.IsRebooked() {
			summary.Rebooked++
			summary.MaxRebookIteration = max(summary.MaxRebookIteration, a.RebookIteration)
			continue
		}
		roots++
		if a.FirstAttendance {
			firsts++
		}
	}
	if roots > 0 {
		summary.FirstAttendanceRatio = float64(firsts) / float64(roots)
	}
	summary.MedianLeadTime = medianInt(leads)
	return summary
}

// Summarize builds the combined summary
func Summarize(ds *model.Dataset) Summary {
	return Summary{
		Slots:        SummarizeSlots(ds.Slots, ds.RefDate),
		Appointments: SummarizeAppointments(ds),
	}
}

func medianInt(values []int) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]int(nil), values...)
	sort.Ints(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return float64(sorted[mid])
	}
	return float64(sorted[mid-1]+sorted[mid]) / 2
}
