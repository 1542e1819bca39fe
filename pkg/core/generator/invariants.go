package generator

import (
	"fmt"
	"time"

	"github.com/carogaltier/medscheduler/pkg/core/model"
)

// ValidateDataset checks a generated dataset against its consistency rules and returns
// every violation found. An empty slice means the dataset is consistent.
func ValidateDataset(ds *model.Dataset, bookingHorizon int) []Violation {
	var violations []Violation
	add := func(rule string, apptID int, format string, args ...any) {
		violations = append(violations, Violation{Rule: rule, AppointmentID: apptID, Detail: fmt.Sprintf(format, args...)})
	}

	slotByID := make(map[int]model.Slot, len(ds.Slots))
	for _, s := range ds.Slots {
		slotByID[s.ID] = s
	}
	patientByID := make(map[string]model.Patient, len(ds.Patients))
	for _, p := range ds.Patients {
		if _, dup := patientByID[p.ID]; dup {
			add("unique patient id", 0, "patient id %s appears twice", p.ID)
		}
		patientByID[p.ID] = p
	}
	apptByID := make(map[int]model.Appointment, len(ds.Appointments))
	for _, a := range ds.Appointments {
		apptByID[a.ID] = a
	}

	horizonEnd := ds.RefDate.AddDate(0, 0, bookingHorizon)
	slotUse := make(map[int]int, len(ds.Appointments))
	successors := make(map[int]int)

	for _, a := range ds.Appointments {
		slot, ok := slotByID[a.SlotID]
		switch {
		case !ok:
			add("slot exists", a.ID, "slot %d not found", a.SlotID)
		case slot.Available:
			add("booked slot unavailable", a.ID, "slot %d is still marked available", a.SlotID)
		case !slot.Date.Equal(a.Date) || slot.Minute != a.Minute:
			add("appointment matches slot", a.ID, "slot %d is at a different time", a.SlotID)
		}
		slotUse[a.SlotID]++

		if a.SchedulingDate.After(a.Date) {
			add("scheduled before visit", a.ID, "scheduling date %s after %s",
				a.SchedulingDate.Format(dateLayout), a.Date.Format(dateLayout))
		}
		if a.SchedulingInterval != daysBetween(a.SchedulingDate, a.Date) {
			add("scheduling interval", a.ID, "interval %d does not match dates", a.SchedulingInterval)
		}
		if a.Date.After(horizonEnd) {
			add("booking horizon", a.ID, "date %s beyond %s", a.Date.Format(dateLayout), horizonEnd.Format(dateLayout))
		}

		past := !a.Date.After(ds.RefDate)
		if past && !a.Status.IsOutcome() {
			add("status closure", a.ID, "past appointment has status %q", a.Status)
		}
		if !past && a.Status != model.StatusScheduled && a.Status != model.StatusCancelled {
			add("status closure", a.ID, "future appointment has status %q", a.Status)
		}

		if a.RebookedFromID != nil {
			successors[*a.RebookedFromID]++
			pred, ok := apptByID[*a.RebookedFromID]
			switch {
			case !ok:
				add("rebook predecessor exists", a.ID, "predecessor %d not found", *a.RebookedFromID)
			case pred.Status != model.StatusCancelled:
				add("rebook predecessor cancelled", a.ID, "predecessor %d has status %q", pred.ID, pred.Status)
			case pred.PatientID != a.PatientID:
				add("rebook inherits patient", a.ID, "patient %s differs from predecessor's %s", a.PatientID, pred.PatientID)
			}
		}

		if p, ok := patientByID[a.PatientID]; !ok {
			add("patient bound", a.ID, "patient %q not found", a.PatientID)
		} else if a.Age == nil || *a.Age != AgeAt(p.DOB, a.Date) {
			add("age consistency", a.ID, "age does not match date of birth of patient %s", p.ID)
		}

		if a.Status == model.StatusAttended {
			switch {
			case a.CheckIn == nil || a.StartTime == nil || a.EndTime == nil || a.WaitingTime == nil || a.Duration == nil:
				add("attended timing", a.ID, "timing fields missing")
			case *a.WaitingTime < 0:
				add("attended timing", a.ID, "negative waiting time %.2f", *a.WaitingTime)
			case !a.EndTime.After(*a.StartTime):
				add("attended timing", a.ID, "end time not after start time")
			}
		} else if a.CheckIn != nil || a.StartTime != nil || a.EndTime != nil {
			add("attended timing", a.ID, "timing set on %q appointment", a.Status)
		}
	}

	for slotID, n := range slotUse {
		if n > 1 {
			add("no double booking", 0, "slot %d holds %d appointments", slotID, n)
		}
	}
	for predID, n := range successors {
		if n > 1 {
			add("single rebooking", predID, "cancellation rebooked %d times", n)
		}
	}
	firstVisit := make(map[string]time.Time, len(ds.Patients))
	for _, a := range ds.Appointments {
		if first, ok := firstVisit[a.PatientID]; !ok || a.Date.Before(first) {
			firstVisit[a.PatientID] = a.Date
		}
	}
	for _, p := range ds.Patients {
		if first, ok := firstVisit[p.ID]; ok && p.Age != AgeAt(p.DOB, first) {
			add("patient age at first visit", 0, "patient %s has age %d, expected %d on %s",
				p.ID, p.Age, AgeAt(p.DOB, first), first.Format(dateLayout))
		}
	}

	booked := 0
	for _, s := range ds.Slots {
		if !s.Available {
			booked++
		}
	}
	if booked != len(ds.Appointments) {
		add("slot availability", 0, "%d slots unavailable for %d appointments", booked, len(ds.Appointments))
	}

	return violations
}
