package generator

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/carogaltier/medscheduler/pkg/core/model"
)

// datasetNamespace scopes the deterministic dataset ids
var datasetNamespace = uuid.MustParse("6f1c7c1e-3b8e-5d55-9a51-2f1f3b7d8a40")

// Generate runs the full pipeline: calendar, seasonal weights, booking, outcomes with
// rebooking, cohort and patient assignment, then timing. The same configuration and
// seed always yield identical tables.
func Generate(cfg *Config, logger *zap.Logger) (*Result, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}

	clockSeed := cfg.Seed == nil
	seed := ResolveSeed(cfg)
	g := newGenerationContext(cfg, seed, logger)
	if clockSeed {
		g.warn("no seed configured, drew one from the clock", zap.Uint64("seed", seed))
	}
	logger.Info("Generating dataset",
		zap.Uint64("seed", seed),
		zap.String("ref_date", g.refDate.Format(dateLayout)),
		zap.String("rebook_category", string(cfg.RebookCategory)))

	slots, err := BuildCalendar(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build calendar: %w", err)
	}
	g.slots = slots
	logger.Debug("Calendar built", zap.Int("slots", len(slots)))

	weights, warnings, err := ComputeSeasonalWeights(cfg, slots)
	if err != nil {
		return nil, err
	}
	for _, w := range warnings {
		g.warn(w)
	}
	g.weights = weights
	g.leadTimes = newLeadTimeLaw(cfg.MedianLeadTime, cfg.BookingHorizon)
	g.prepareOutcomes()

	created, err := g.allocate()
	if err != nil {
		return nil, err
	}
	if err := g.resolveOutcomes(created); err != nil {
		return nil, err
	}
	topUp, err := g.topUpPast()
	if err != nil {
		return nil, err
	}
	if err := g.resolveOutcomes(topUp); err != nil {
		return nil, err
	}
	logger.Debug("Outcomes resolved",
		zap.Int("appointments", len(g.appointments)),
		zap.Int("rebooked", g.stats.Rebooked),
		zap.Int("top_up", g.stats.TopUpBookings))

	if len(g.appointments) > 0 {
		sampler, err := NewCohortSampler(cfg, g.names, g.cohortRand)
		if err != nil {
			return nil, err
		}
		if err := g.assignPatients(sampler); err != nil {
			return nil, err
		}
	}

	g.simulateTiming()

	ds := g.finalize()
	ds.ID = datasetID(cfg, seed)

	if violations := ValidateDataset(ds, cfg.BookingHorizon); len(violations) > 0 {
		return nil, &InvariantError{Violations: violations}
	}

	logger.Info("Dataset generated",
		zap.String("dataset_id", ds.ID),
		zap.Int("slots", len(ds.Slots)),
		zap.Int("appointments", len(ds.Appointments)),
		zap.Int("patients", len(ds.Patients)),
		zap.Int("warnings", len(g.warnings)))

	return &Result{
		Dataset:  ds,
		Warnings: g.warnings,
		Stats:    g.stats,
	}, nil
}

// ResolveSeed returns the configured seed. When none is set it draws one from the clock
// and records it on cfg so the run can be reproduced.
func ResolveSeed(cfg *Config) uint64 {
	if cfg.Seed != nil {
		return *cfg.Seed
	}
	seed := uint64(time.Now().UnixNano())
	cfg.Seed = &seed
	return seed
}

// finalize renumbers appointments chronologically and binds patient ids and ages
func (g *GenerationContext) finalize() *model.Dataset {
	// A rebooked successor can fall before its root, so age is taken at the earliest visit
	firstVisit := make([]time.Time, len(g.patients))
	for i, a := range g.appointments {
		owner := g.owner[i]
		if owner >= 0 && (firstVisit[owner].IsZero() || a.Date.Before(firstVisit[owner])) {
			firstVisit[owner] = a.Date
		}
	}

	width := idWidth(len(g.patients))
	for i := range g.patients {
		g.patients[i].ID = formatID(i+1, width)
		if !firstVisit[i].IsZero() {
			g.patients[i].Age = AgeAt(g.patients[i].DOB, firstVisit[i])
		}
		g.patients[i].AgeGroup = AgeGroupLabel(g.patients[i].Age, g.cfg.BinSize, g.cfg.UpperCutoff)
	}

	order := make([]int, len(g.appointments))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return g.appointments[order[i]].Start().Before(g.appointments[order[j]].Start())
	})

	newID := make(map[int]int, len(order))
	for pos, idx := range order {
		newID[g.appointments[idx].ID] = pos + 1
	}

	appointments := make([]model.Appointment, len(order))
	for pos, idx := range order {
		a := g.appointments[idx]
		a.ID = pos + 1
		if a.RebookedFromID != nil {
			pred := newID[*a.RebookedFromID]
			a.RebookedFromID = &pred
		}
		if owner := g.owner[idx]; owner >= 0 {
			p := g.patients[owner]
			a.PatientID = p.ID
			age := AgeAt(p.DOB, a.Date)
			a.Age = &age
			a.AgeGroup = AgeGroupLabel(age, g.cfg.BinSize, g.cfg.UpperCutoff)
		}
		appointments[pos] = a
	}

	return &model.Dataset{
		Seed:         g.seed,
		RefDate:      g.refDate,
		Slots:        g.slots,
		Appointments: appointments,
		Patients:     g.patients,
	}
}

// datasetID derives a stable id from the seed and the configuration
func datasetID(cfg *Config, seed uint64) string {
	fingerprint, err := json.Marshal(cfg)
	if err != nil {
		fingerprint = []byte(fmt.Sprintf("%v", seed))
	}
	name := append([]byte(fmt.Sprintf("%d|", seed)), fingerprint...)
	return uuid.NewSHA1(datasetNamespace, name).String()
}
