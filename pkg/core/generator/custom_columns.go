package generator

import (
	"fmt"
	"math"
	"math/rand/v2"
	"slices"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/carogaltier/medscheduler/pkg/core/model"
)

// DistributionType names a built-in probability shape for a custom column
type DistributionType string

const (
	DistributionUniform DistributionType = "uniform"
	DistributionNormal  DistributionType = "normal"
	DistributionPareto  DistributionType = "pareto"
)

const paretoAlpha = 1.16

// ReservedPatientColumns cannot be used as custom column names
var ReservedPatientColumns = []string{"patient_id", "name", "sex", "dob", "age", "age_group"}

// CustomColumn describes a categorical column to append to the patient table.
// Probs, when set, overrides Distribution.
type CustomColumn struct {
	Name         string
	Categories   []string
	Distribution DistributionType
	Probs        []float64
}

// AddCustomColumn assigns every patient a category drawn from the column's distribution.
// All checks run before any patient is touched, so a rejected column leaves ds unchanged.
func AddCustomColumn(ds *model.Dataset, col CustomColumn, noise float64, r *rand.Rand) error {
	if ds == nil || len(ds.Patients) == 0 {
		return fmt.Errorf("%w: patient table has not been generated", ErrCustomColumn)
	}
	if col.Name == "" {
		return fmt.Errorf("%w: column name is required", ErrCustomColumn)
	}
	if slices.Contains(ReservedPatientColumns, col.Name) || slices.Contains(ds.CustomColumns, col.Name) {
		return fmt.Errorf("%w: column %q already exists", ErrCustomColumn, col.Name)
	}
	if len(col.Categories) == 0 {
		return fmt.Errorf("%w: column %q needs at least one category", ErrCustomColumn, col.Name)
	}

	probs, err := columnProbabilities(col, noise, r)
	if err != nil {
		return err
	}
	cat, ok := newCategorical(probs)
	if !ok {
		return fmt.Errorf("%w: probabilities for %q must have a positive sum", ErrCustomColumn, col.Name)
	}

	for i := range ds.Patients {
		p := &ds.Patients[i]
		if p.Custom == nil {
			p.Custom = make(map[string]string)
		}
		p.Custom[col.Name] = col.Categories[cat.draw(r)]
	}
	ds.CustomColumns = append(ds.CustomColumns, col.Name)
	return nil
}

func columnProbabilities(col CustomColumn, noise float64, r *rand.Rand) ([]float64, error) {
	n := len(col.Categories)
	if col.Probs != nil {
		if len(col.Probs) != n {
			return nil, fmt.Errorf("%w: %d probabilities given for %d categories", ErrCustomColumn, len(col.Probs), n)
		}
		sum := 0.0
		for _, p := range col.Probs {
			if math.IsNaN(p) || math.IsInf(p, 0) || p < 0 {
				return nil, fmt.Errorf("%w: probabilities must be finite and non-negative", ErrCustomColumn)
			}
			sum += p
		}
		if sum <= 0 || math.IsInf(sum, 0) {
			return nil, fmt.Errorf("%w: probabilities must have a finite positive sum", ErrCustomColumn)
		}
		out := make([]float64, n)
		for i, p := range col.Probs {
			out[i] = p / sum
		}
		return out, nil
	}

	base := make([]float64, n)
	switch col.Distribution {
	case DistributionUniform, "":
		for i := range base {
			base[i] = 1
		}
	case DistributionNormal:
		bell := distuv.Normal{Mu: float64(n-1) / 2, Sigma: math.Max(float64(n)/4, 0.5)}
		for i := range base {
			base[i] = bell.Prob(float64(i))
		}
	case DistributionPareto:
		for i := range base {
			base[i] = 1 / math.Pow(float64(i+1), paretoAlpha)
		}
	default:
		return nil, fmt.Errorf("%w: unknown distribution type %q", ErrCustomColumn, col.Distribution)
	}

	sum := 0.0
	for i := range base {
		base[i] *= uniformFactor(r, noise)
		sum += base[i]
	}
	for i := range base {
		base[i] /= sum
	}
	return base, nil
}
