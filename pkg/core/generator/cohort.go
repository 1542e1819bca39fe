package generator

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"github.com/carogaltier/medscheduler/pkg/core/model"
)

// AgeBand is a parsed row of the age-sex table with inclusive integer bounds
type AgeBand struct {
	Label  string
	Lower  int
	Upper  int
	Female float64
	Male   float64
}

// sampledBand is an age band restricted to the ages the cohort may draw from
type sampledBand struct {
	AgeBand
	lo, hi int
}

func parseAgeBands(rows []AgeGenderProb) ([]AgeBand, error) {
	bands := make([]AgeBand, 0, len(rows))
	for _, row := range rows {
		lower, upper, err := parseBandLabel(row.AgeBand)
		if err != nil {
			return nil, configErrorf("age_gender_probs", "%v", err)
		}
		for _, share := range []float64{row.Female, row.Male} {
			if math.IsNaN(share) || math.IsInf(share, 0) || share < 0 {
				return nil, configErrorf("age_gender_probs", "band %q has a negative or non-finite share", row.AgeBand)
			}
		}
		bands = append(bands, AgeBand{
			Label:  row.AgeBand,
			Lower:  lower,
			Upper:  upper,
			Female: row.Female,
			Male:   row.Male,
		})
	}
	return bands, nil
}

// parseBandLabel reads "a-b" or the open band "a+"
func parseBandLabel(label string) (int, int, error) {
	label = strings.TrimSpace(label)
	if open, ok := strings.CutSuffix(label, "+"); ok {
		lower, err := strconv.Atoi(open)
		if err != nil || lower < 0 {
			return 0, 0, fmt.Errorf("invalid age band %q", label)
		}
		return lower, lower + openBandWidth - 1, nil
	}
	lo, hi, ok := strings.Cut(label, "-")
	if !ok {
		return 0, 0, fmt.Errorf("invalid age band %q", label)
	}
	lower, err1 := strconv.Atoi(strings.TrimSpace(lo))
	upper, err2 := strconv.Atoi(strings.TrimSpace(hi))
	if err1 != nil || err2 != nil || lower < 0 || upper < lower {
		return 0, 0, fmt.Errorf("invalid age band %q", label)
	}
	return lower, upper, nil
}

// effectiveBands applies the cutoffs. Truncation drops the out-of-range part of every band
// and its mass; otherwise bands keep their full range and draws are clamped at sampling.
func effectiveBands(bands []AgeBand, lower, upper int, truncated bool) ([]sampledBand, error) {
	out := make([]sampledBand, 0, len(bands))
	total := 0.0
	for _, b := range bands {
		sb := sampledBand{AgeBand: b, lo: b.Lower, hi: b.Upper}
		if truncated {
			sb.lo = max(b.Lower, lower)
			sb.hi = min(b.Upper, upper)
			if sb.lo > sb.hi {
				continue
			}
			keep := float64(sb.hi-sb.lo+1) / float64(b.Upper-b.Lower+1)
			sb.Female *= keep
			sb.Male *= keep
		}
		total += sb.Female + sb.Male
		out = append(out, sb)
	}
	if total <= 0 {
		return nil, configErrorf("age_gender_probs", "no probability mass within ages %d-%d", lower, upper)
	}
	return out, nil
}

// CohortSampler draws age and sex pairs from the age-sex table
type CohortSampler struct {
	bands     []sampledBand
	bandCat   *categorical
	lower     int
	upper     int
	truncated bool
	names     NameGenerator
	r         *rand.Rand
}

func NewCohortSampler(cfg *Config, names NameGenerator, r *rand.Rand) (*CohortSampler, error) {
	bands, err := parseAgeBands(cfg.AgeGenderProbs)
	if err != nil {
		return nil, err
	}
	eff, err := effectiveBands(bands, cfg.LowerCutoff, cfg.UpperCutoff, cfg.Truncated)
	if err != nil {
		return nil, err
	}
	weights := make([]float64, len(eff))
	for i, b := range eff {
		weights[i] = b.Female + b.Male
	}
	cat, _ := newCategorical(weights)
	return &CohortSampler{
		bands:     eff,
		bandCat:   cat,
		lower:     cfg.LowerCutoff,
		upper:     cfg.UpperCutoff,
		truncated: cfg.Truncated,
		names:     names,
		r:         r,
	}, nil
}

// Sample draws one patient's age at first appointment and sex
func (s *CohortSampler) Sample() (int, model.Sex) {
	band := s.bands[s.bandCat.draw(s.r)]

	sex := model.SexMale
	if s.r.Float64()*(band.Female+band.Male) < band.Female {
		sex = model.SexFemale
	}

	age := band.lo + s.r.IntN(band.hi-band.lo+1)
	if !s.truncated {
		age = min(max(age, s.lower), s.upper)
	}
	return age, sex
}

// Generate produces n patients without ids or dates of birth
func (s *CohortSampler) Generate(n int) []model.Patient {
	patients := make([]model.Patient, n)
	for i := range patients {
		age, sex := s.Sample()
		patients[i] = model.Patient{
			Name: s.names.Name(sex),
			Sex:  sex,
			Age:  age,
		}
	}
	return patients
}

// GenerateCohort builds a standalone cohort of n patients with sequential zero-padded ids,
// seeded from cfg. Dates of birth are derived from refDate.
func GenerateCohort(cfg *Config, n int) ([]model.Patient, error) {
	if n <= 0 {
		return nil, configErrorf("total_patients", "must be positive, got %d", n)
	}
	if err := validateAgeSettings(cfg); err != nil {
		return nil, err
	}
	seed := uint64(0)
	if cfg.Seed != nil {
		seed = *cfg.Seed
	}
	names := cfg.Names
	if names == nil {
		names = NewFakerNames(seed)
	}
	sampler, err := NewCohortSampler(cfg, names, newRand(seed, streamCohort))
	if err != nil {
		return nil, err
	}

	patients := sampler.Generate(n)
	dobRand := newRand(seed, streamAssignment)
	ref := truncateDay(cfg.RefDate)
	width := idWidth(n)
	for i := range patients {
		patients[i].ID = formatID(i+1, width)
		patients[i].DOB = deriveDOB(ref, patients[i].Age, dobRand)
		patients[i].AgeGroup = AgeGroupLabel(patients[i].Age, cfg.BinSize, cfg.UpperCutoff)
	}
	return patients, nil
}

// deriveDOB back-computes a birth date so that age at date is exactly age
func deriveDOB(date time.Time, age int, r *rand.Rand) time.Time {
	dob := date.AddDate(-age, 0, -r.IntN(365))
	for AgeAt(dob, date) < age {
		dob = dob.AddDate(0, 0, -1)
	}
	for AgeAt(dob, date) > age {
		dob = dob.AddDate(0, 0, 1)
	}
	return dob
}

// AgeAt returns completed years between dob and date
func AgeAt(dob, date time.Time) int {
	years := date.Year() - dob.Year()
	if date.Month() < dob.Month() || (date.Month() == dob.Month() && date.Day() < dob.Day()) {
		years--
	}
	return years
}

// AgeGroupLabel bins an age by binSize, with an open "<upper>+" group at and above upperCutoff
func AgeGroupLabel(age, binSize, upperCutoff int) string {
	if age >= upperCutoff {
		return fmt.Sprintf("%d+", upperCutoff)
	}
	if binSize <= 0 {
		binSize = 1
	}
	start := (age / binSize) * binSize
	end := min(start+binSize-1, upperCutoff-1)
	return fmt.Sprintf("%d-%d", start, end)
}

func idWidth(n int) int {
	return len(strconv.Itoa(max(n, 1)))
}

func formatID(n, width int) string {
	return fmt.Sprintf("%0*d", width, n)
}
