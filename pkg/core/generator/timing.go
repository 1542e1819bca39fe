package generator

import (
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/carogaltier/medscheduler/pkg/core/model"
)

const (
	checkInStdDev  = 10.0 // Minutes
	backlogDelay   = time.Minute
	durationAlpha  = 1.48
	durationBeta   = 3.6
	durationScale  = 60.0 // Minutes
	minConsultTime = time.Second
)

// simulateTiming fills check-in, start, end, waiting time and duration for attended
// appointments. Each clinic day is one queue: a patient is seen at check-in unless the
// previous consultation is still running.
func (g *GenerationContext) simulateTiming() {
	var attended []int
	for i, a := range g.appointments {
		if a.Status == model.StatusAttended {
			attended = append(attended, i)
		}
	}
	sort.SliceStable(attended, func(i, j int) bool {
		return g.appointments[attended[i]].Start().Before(g.appointments[attended[j]].Start())
	})

	checkInOffset := distuv.Normal{Mu: g.cfg.CheckInTimeMean, Sigma: checkInStdDev, Src: g.timingRand}

	var day time.Time
	var prevEnd time.Time
	for _, idx := range attended {
		a := &g.appointments[idx]
		if !a.Date.Equal(day) {
			day = a.Date
			prevEnd = time.Time{}
		}

		checkIn := a.Start().Add(minutesToDuration(checkInOffset.Rand()))

		start := checkIn
		if prevEnd.After(checkIn) {
			start = prevEnd.Add(backlogDelay)
		}

		duration := minutesToDuration(betaSample(g.timingRand, durationAlpha, durationBeta) * durationScale)
		if duration < minConsultTime {
			duration = minConsultTime
		}
		end := start.Add(duration)
		prevEnd = end

		waiting := start.Sub(checkIn).Minutes()
		consult := duration.Minutes()
		a.CheckIn = &checkIn
		a.StartTime = &start
		a.EndTime = &end
		a.WaitingTime = &waiting
		a.Duration = &consult
	}
}

// minutesToDuration converts fractional minutes, rounded to whole seconds
func minutesToDuration(minutes float64) time.Duration {
	return time.Duration(math.Round(minutes*60)) * time.Second
}
