package generator

import (
	"container/heap"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"
)

// episode tracks a patient who still has follow-up visits to make
type episode struct {
	patient   int
	due       time.Time
	remaining int
}

type dueQueue []*episode

func (q dueQueue) Len() int { return len(q) }
func (q dueQueue) Less(i, j int) bool {
	if !q[i].due.Equal(q[j].due) {
		return q[i].due.Before(q[j].due)
	}
	return q[i].patient < q[j].patient
}
func (q dueQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }
func (q *dueQueue) Push(x any)   { *q = append(*q, x.(*episode)) }
func (q *dueQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}

// estimateCohortSize sizes the cohort from the number of visits to cover: each patient
// makes 1/first_attendance visits over an episode, capped by what fits in the window
func (g *GenerationContext) estimateCohortSize(roots []int) int {
	if len(roots) == 0 {
		return 0
	}
	first := g.appointments[roots[0]].Date
	last := g.appointments[roots[len(roots)-1]].Date
	years := float64(daysBetween(first, last)+1) / 365.25

	perPatient := 1 + g.cfg.VisitsPerYear*years/2
	if g.cfg.FirstAttendance > 0 {
		perPatient = math.Min(perPatient, 1/g.cfg.FirstAttendance)
	}
	perPatient = math.Max(perPatient, 1)
	return int(math.Ceil(float64(len(roots))/perPatient)) + 1
}

// assignPatients walks root appointments chronologically, serving due follow-ups first and
// introducing a new cohort patient otherwise. Rebooked appointments inherit their predecessor's patient.
func (g *GenerationContext) assignPatients(sampler *CohortSampler) error {
	var roots []int
	for i, a := range g.appointments {
		if !a.IsRebooked() {
			roots = append(roots, i)
		}
	}
	sort.SliceStable(roots, func(i, j int) bool {
		a, b := g.appointments[roots[i]], g.appointments[roots[j]]
		return a.Start().Before(b.Start())
	})

	cohortSize := g.estimateCohortSize(roots)
	g.patients = sampler.Generate(cohortSize)
	g.stats.CohortGenerated = cohortSize
	g.logger.Debug("Cohort generated", zap.Int("patients", cohortSize), zap.Int("root_appointments", len(roots)))

	nextPatient := 0
	queue := &dueQueue{}
	gapDays := 365.25 / g.cfg.VisitsPerYear

	for _, idx := range roots {
		if g.owner[idx] >= 0 {
			return invariantError("patient already bound", g.appointments[idx].ID, "patient %d", g.owner[idx])
		}
		a := &g.appointments[idx]

		var ep *episode
		if queue.Len() > 0 && !(*queue)[0].due.After(a.Date) {
			ep = heap.Pop(queue).(*episode)
			ep.remaining--
		} else {
			if nextPatient == len(g.patients) {
				extra := max(10, len(g.patients)/10)
				g.patients = append(g.patients, sampler.Generate(extra)...)
				g.stats.CohortGenerated += extra
				g.logger.Debug("Cohort exhausted, generated more patients", zap.Int("extra", extra))
			}
			p := &g.patients[nextPatient]
			p.DOB = deriveDOB(a.Date, p.Age, g.assignmentRand)
			p.Age = AgeAt(p.DOB, a.Date)
			a.FirstAttendance = true
			ep = &episode{
				patient:   nextPatient,
				remaining: geometricFailures(g.assignmentRand, g.cfg.FirstAttendance),
			}
			nextPatient++
		}

		g.owner[idx] = ep.patient
		if ep.remaining > 0 {
			gap := math.Max(1, math.Round(gapDays*uniformFactor(g.assignmentRand, g.cfg.Noise)))
			ep.due = a.Date.AddDate(0, 0, int(gap))
			heap.Push(queue, ep)
		}
	}

	// Successors are always created after their predecessor, so id order resolves chains
	for i := range g.appointments {
		a := &g.appointments[i]
		if !a.IsRebooked() {
			continue
		}
		pred := *a.RebookedFromID - 1
		if g.owner[i] >= 0 {
			return invariantError("patient already bound", a.ID, "patient %d", g.owner[i])
		}
		g.owner[i] = g.owner[pred]
		a.FirstAttendance = g.appointments[pred].FirstAttendance
	}

	g.patients = g.patients[:nextPatient]
	g.stats.PatientsAssigned = nextPatient
	return nil
}
