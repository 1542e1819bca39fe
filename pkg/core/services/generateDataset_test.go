package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/carogaltier/medscheduler/internal/config"
	"github.com/carogaltier/medscheduler/pkg/core/generator"
	"github.com/carogaltier/medscheduler/pkg/metrics"
)

type recordedRun struct {
	outcome  string
	byStatus map[string]int
}

type mockRecorder struct {
	runs []recordedRun
}

func (m *mockRecorder) RecordGeneration(outcome string, duration time.Duration, byStatus map[string]int) {
	m.runs = append(m.runs, recordedRun{outcome: outcome, byStatus: byStatus})
}

func smallConfig() *config.Config {
	cfg := config.Default()
	cfg.DateRanges = []config.DateRange{{Start: "2024-01-01", End: "2024-03-31"}}
	cfg.RefDate = "2024-03-01"
	cfg.CustomColumns = []config.CustomColumn{
		{Name: "insurance", Categories: []string{"public", "private", "none"}, Distribution: "pareto"},
	}
	return cfg
}

func TestGenerateDataset_Success(t *testing.T) {
	recorder := &mockRecorder{}
	cfg := smallConfig()
	require.NoError(t, config.Validate(cfg))

	result, err := GenerateDataset(context.Background(), cfg, recorder, zap.NewNop())
	require.NoError(t, err)
	require.NotNil(t, result)

	ds := result.Dataset
	assert.NotEmpty(t, ds.ID)
	assert.Equal(t, uint64(42), ds.Seed)
	assert.NotEmpty(t, ds.Slots)
	assert.NotEmpty(t, ds.Appointments)
	require.NotEmpty(t, ds.Patients)

	assert.Equal(t, []string{"insurance"}, ds.CustomColumns)
	for _, p := range ds.Patients {
		assert.Contains(t, []string{"public", "private", "none"}, p.Custom["insurance"])
	}

	assert.Equal(t, len(ds.Appointments), result.Summary.Appointments.TotalAppointments)
	assert.Equal(t, len(ds.Slots), result.Summary.Slots.TotalSlots)

	require.Len(t, recorder.runs, 1)
	assert.Equal(t, metrics.OutcomeSuccess, recorder.runs[0].outcome)
	total := 0
	for _, n := range recorder.runs[0].byStatus {
		total += n
	}
	assert.Equal(t, len(ds.Appointments), total)
}

func TestGenerateDataset_Deterministic(t *testing.T) {
	first, err := GenerateDataset(context.Background(), smallConfig(), nil, zap.NewNop())
	require.NoError(t, err)
	second, err := GenerateDataset(context.Background(), smallConfig(), nil, zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, first.Dataset.ID, second.Dataset.ID)
	assert.Equal(t, first.Dataset.Appointments, second.Dataset.Appointments)
	assert.Equal(t, first.Dataset.Patients, second.Dataset.Patients)
}

func TestGenerateDataset_ColumnsDrawIndependently(t *testing.T) {
	base, err := GenerateDataset(context.Background(), smallConfig(), nil, zap.NewNop())
	require.NoError(t, err)

	cfg := smallConfig()
	cfg.CustomColumns = append(cfg.CustomColumns, config.CustomColumn{
		Name: "region", Categories: []string{"north", "south"}, Probs: []float64{0.5, 0.5},
	})
	extended, err := GenerateDataset(context.Background(), cfg, nil, zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, []string{"insurance", "region"}, extended.Dataset.CustomColumns)
	require.Equal(t, len(base.Dataset.Patients), len(extended.Dataset.Patients))
	for i := range base.Dataset.Patients {
		assert.Equal(t, base.Dataset.Patients[i].Custom["insurance"], extended.Dataset.Patients[i].Custom["insurance"])
	}
}

func TestGenerateDataset_InvalidConfig(t *testing.T) {
	recorder := &mockRecorder{}
	cfg := smallConfig()
	cfg.FillRate = 0.1

	_, err := GenerateDataset(context.Background(), cfg, recorder, zap.NewNop())
	require.Error(t, err)
	assert.ErrorIs(t, err, generator.ErrInvalidConfig)

	var cfgErr *generator.ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "fill_rate", cfgErr.Field)

	require.Len(t, recorder.runs, 1)
	assert.Equal(t, metrics.OutcomeInvalidConfig, recorder.runs[0].outcome)
}

func TestGenerateDataset_ReservedColumnName(t *testing.T) {
	recorder := &mockRecorder{}
	cfg := smallConfig()
	cfg.CustomColumns = []config.CustomColumn{{Name: "sex", Categories: []string{"x"}}}

	_, err := GenerateDataset(context.Background(), cfg, recorder, zap.NewNop())
	require.Error(t, err)
	assert.ErrorIs(t, err, generator.ErrCustomColumn)
	assert.Contains(t, err.Error(), `failed to add custom column "sex"`)

	require.Len(t, recorder.runs, 1)
	assert.Equal(t, metrics.OutcomeInvalidConfig, recorder.runs[0].outcome)
}

func TestGenerateDataset_EmptyCalendarSkipsColumns(t *testing.T) {
	cfg := smallConfig()
	cfg.WorkingDays = []int{}

	result, err := GenerateDataset(context.Background(), cfg, nil, zap.NewNop())
	require.NoError(t, err)
	assert.Empty(t, result.Dataset.Slots)
	assert.Empty(t, result.Dataset.Patients)
	assert.Empty(t, result.Dataset.CustomColumns)
	assert.Contains(t, result.Warnings, "custom columns skipped: patient table is empty")
}

func TestGenerateDataset_CancelledContext(t *testing.T) {
	recorder := &mockRecorder{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := GenerateDataset(ctx, smallConfig(), recorder, zap.NewNop())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, recorder.runs)
}
