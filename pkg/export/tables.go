package export

import (
	"fmt"
	"strconv"
	"time"

	"github.com/carogaltier/medscheduler/pkg/core/model"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04:05"
)

// Table is a named row set with a header, ready for CSV or a spreadsheet tab
type Table struct {
	Name   string     `json:"name"`
	Header []string   `json:"header"`
	Rows   [][]string `json:"rows"`
}

var (
	slotHeader = []string{"slot_id", "appointment_date", "appointment_time", "is_available"}

	appointmentHeader = []string{
		"appointment_id", "slot_id", "patient_id", "scheduling_date", "appointment_date", "appointment_time",
		"scheduling_interval", "status", "cancelled_on", "rebooked_from", "rebook_iteration", "first_attendance",
		"check_in_time", "start_time", "end_time", "waiting_time", "appointment_duration",
		"sex", "age", "age_group",
	}

	patientHeader = []string{"patient_id", "name", "sex", "dob", "age", "age_group"}
)

// Tables projects a dataset into its slots, appointments and patients tables
func Tables(ds *model.Dataset) []Table {
	return []Table{SlotsTable(ds), AppointmentsTable(ds), PatientsTable(ds)}
}

func SlotsTable(ds *model.Dataset) Table {
	width := idWidth(len(ds.Slots))
	rows := make([][]string, len(ds.Slots))
	for i, s := range ds.Slots {
		rows[i] = []string{
			padID(s.ID, width),
			s.Date.Format(dateLayout),
			s.Start().Format(timeLayout),
			strconv.FormatBool(s.Available),
		}
	}
	return Table{Name: "slots", Header: slotHeader, Rows: rows}
}

func AppointmentsTable(ds *model.Dataset) Table {
	slotWidth := idWidth(len(ds.Slots))
	width := idWidth(len(ds.Appointments))

	sexByPatient := make(map[string]model.Sex, len(ds.Patients))
	for _, p := range ds.Patients {
		sexByPatient[p.ID] = p.Sex
	}

	rows := make([][]string, len(ds.Appointments))
	for i, a := range ds.Appointments {
		rebookedFrom := ""
		if a.RebookedFromID != nil {
			rebookedFrom = padID(*a.RebookedFromID, width)
		}
		age := ""
		if a.Age != nil {
			age = strconv.Itoa(*a.Age)
		}
		rows[i] = []string{
			padID(a.ID, width),
			padID(a.SlotID, slotWidth),
			a.PatientID,
			a.SchedulingDate.Format(dateLayout),
			a.Date.Format(dateLayout),
			a.Start().Format(timeLayout),
			strconv.Itoa(a.SchedulingInterval),
			string(a.Status),
			formatDate(a.CancelledOn),
			rebookedFrom,
			strconv.Itoa(a.RebookIteration),
			strconv.FormatBool(a.FirstAttendance),
			formatClock(a.CheckIn),
			formatClock(a.StartTime),
			formatClock(a.EndTime),
			formatMinutes(a.WaitingTime),
			formatMinutes(a.Duration),
			string(sexByPatient[a.PatientID]),
			age,
			a.AgeGroup,
		}
	}
	return Table{Name: "appointments", Header: appointmentHeader, Rows: rows}
}

// PatientsTable appends custom columns after the built-in ones, in the order they were added
func PatientsTable(ds *model.Dataset) Table {
	header := append(append([]string(nil), patientHeader...), ds.CustomColumns...)

	rows := make([][]string, len(ds.Patients))
	for i, p := range ds.Patients {
		row := make([]string, 0, len(header))
		row = append(row,
			p.ID,
			p.Name,
			string(p.Sex),
			p.DOB.Format(dateLayout),
			strconv.Itoa(p.Age),
			p.AgeGroup,
		)
		for _, col := range ds.CustomColumns {
			row = append(row, p.Custom[col])
		}
		rows[i] = row
	}
	return Table{Name: "patients", Header: header, Rows: rows}
}

func idWidth(n int) int {
	return max(len(strconv.Itoa(n)), 1)
}

func padID(id, width int) string {
	return fmt.Sprintf("%0*d", width, id)
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(dateLayout)
}

func formatClock(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(timeLayout)
}

func formatMinutes(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', 1, 64)
}
