package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carogaltier/medscheduler/pkg/core/generator"
	"github.com/carogaltier/medscheduler/pkg/core/model"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, Validate(cfg))

	assert.Equal(t, "2024-12-01", cfg.RefDate)
	assert.Equal(t, 4, cfg.AppointmentsPerHour)
	assert.Equal(t, "med", cfg.RebookCategory)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	require.NotNil(t, cfg.Seed)
	assert.Equal(t, uint64(42), *cfg.Seed)
}

func TestLoadFromPath_ValidConfig(t *testing.T) {
	path := writeConfig(t, "valid.yaml", `
dateRanges:
  - start: "2024-01-01"
    end: "2024-06-30"
refDate: "2024-06-01"
appointmentsPerHour: 2
workingHours:
  - start: 9
    end: 12.5
  - start: 13.5
    end: 17
monthWeights: [1, 1, 1.2, 1, 1, 1, 1, 1, 1, 1, 1, 0.8]
weekdayWeights:
  0: 1.5
  4: 0.5
seed: 7
closures:
  - "FREQ=YEARLY;BYMONTH=1;BYMONTHDAY=1"
customColumns:
  - name: insurance
    categories: [public, private]
    probs: [0.7, 0.3]
publish:
  spreadsheetID: "sheet123"
`)

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)

	assert.Equal(t, "2024-06-01", cfg.RefDate)
	assert.Equal(t, 2, cfg.AppointmentsPerHour)
	require.Len(t, cfg.WorkingHours, 2)
	assert.Equal(t, 12.5, cfg.WorkingHours[0].End)
	assert.Equal(t, "sheet123", cfg.Publish.SpreadsheetID)
	require.NotNil(t, cfg.Seed)
	assert.Equal(t, uint64(7), *cfg.Seed)

	// Fields absent from the file keep their defaults
	assert.Equal(t, 0.9, cfg.FillRate)
	assert.Equal(t, 30, cfg.BookingHorizon)
	assert.True(t, cfg.Truncated)
	assert.Len(t, cfg.AgeGenderProbs, len(generator.DefaultAgeGenderProbs))

	gen, err := cfg.ToGenerator()
	require.NoError(t, err)
	assert.Equal(t, 1.2, gen.MonthWeights[3])
	assert.Equal(t, 0.8, gen.MonthWeights[12])
	assert.Equal(t, map[int]float64{0: 1.5, 4: 0.5}, gen.WeekdayWeights)
	assert.Equal(t, 0.773, gen.StatusRates[model.StatusAttended])
	assert.Equal(t, generator.RebookMed, gen.RebookCategory)
	assert.Equal(t, []string{"FREQ=YEARLY;BYMONTH=1;BYMONTHDAY=1"}, gen.Closures)
	assert.Equal(t, 2024, gen.DateRanges[0].End.Year())

	cols := cfg.GeneratorColumns()
	require.Len(t, cols, 1)
	assert.Equal(t, "insurance", cols[0].Name)
	assert.Equal(t, []float64{0.7, 0.3}, cols[0].Probs)
}

func TestLoadFromPath_NullSeed(t *testing.T) {
	path := writeConfig(t, "null_seed.yaml", "seed: null\n")

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Nil(t, cfg.Seed)
}

func TestLoadFromPath_SingleDayRange(t *testing.T) {
	path := writeConfig(t, "one_day.yaml", "dateRanges:\n  - start: \"2025-03-03\"\n    end: \"2025-03-03\"\nrefDate: \"2025-03-03\"\n")

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)

	genCfg, err := cfg.ToGenerator()
	require.NoError(t, err)
	require.Len(t, genCfg.DateRanges, 1)
	assert.Equal(t, genCfg.DateRanges[0].Start, genCfg.DateRanges[0].End)
}

func TestLoadFromPath_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		errText string
	}{
		{name: "appointments per hour", content: "appointmentsPerHour: 5\n", errText: "validation failed"},
		{name: "unknown status key", content: "statusRates:\n  missing: 0.1\n", errText: "validation failed"},
		{name: "fill rate", content: "fillRate: 0.1\n", errText: "validation failed"},
		{name: "median beyond horizon", content: "medianLeadTime: 40\n", errText: "validation failed"},
		{name: "rebook category", content: "rebookCategory: sometimes\n", errText: "validation failed"},
		{name: "reversed hours", content: "workingHours:\n  - start: 12\n    end: 9\n", errText: "validation failed"},
		{name: "ref date format", content: "refDate: \"2024/06/01\"\n", errText: "validation failed"},
		{name: "duplicate working day", content: "workingDays: [0, 0]\n", errText: "validation failed"},
		{name: "cutoffs", content: "lowerCutoff: 80\nupperCutoff: 40\n", errText: "validation failed"},
		{name: "invalid closure", content: "closures:\n  - \"NOT_A_RULE\"\n", errText: "invalid rrule"},
		{
			name:    "custom column distribution",
			content: "customColumns:\n  - name: c\n    categories: [a]\n    distribution: triangular\n",
			errText: "validation failed",
		},
		{name: "short month sequence", content: "monthWeights: [1, 2]\n", errText: "monthWeights"},
		{
			name:    "ref date outside ranges",
			content: "dateRanges:\n  - start: \"2024-01-01\"\n    end: \"2024-03-01\"\n",
			errText: "ref_date",
		},
		{name: "half-hour alignment", content: "workingHours:\n  - start: 8.25\n    end: 12\n", errText: "working_hours"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, "invalid.yaml", tt.content)

			_, err := LoadFromPath(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errText)
		})
	}
}

func TestLoadFromPath_DomainErrorsUnwrap(t *testing.T) {
	path := writeConfig(t, "domain.yaml", "workingHours:\n  - start: 8\n    end: 12\n  - start: 11\n    end: 14\n")

	_, err := LoadFromPath(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, generator.ErrInvalidConfig)
}

func TestLoadFromPath_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "invalid_yaml.yaml", `
fillRate: 0.9
  invalid indentation
refDate: "2024-06-01"
`)

	_, err := LoadFromPath(path)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestLoadFromPath_WeightsWrongKind(t *testing.T) {
	path := writeConfig(t, "weights.yaml", "weekdayWeights: heavy\n")

	_, err := LoadFromPath(path)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestLoadFromPath_FileNotFound(t *testing.T) {
	_, err := LoadFromPath("/nonexistent/path/config.yaml")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadWithEnv_EnvironmentOverrides(t *testing.T) {
	path := writeConfig(t, "env.yaml", "seed: 7\n")
	t.Setenv("MEDSCHED_CONFIG", path)
	t.Setenv("MEDSCHED_SEED", "99")
	t.Setenv("MEDSCHED_HTTP_ADDR", ":9090")
	t.Setenv("MEDSCHED_SPREADSHEET_ID", "sheet-from-env")

	cfg, err := LoadWithEnv("test")
	require.NoError(t, err)
	require.NotNil(t, cfg.Seed)
	assert.Equal(t, uint64(99), *cfg.Seed)
	assert.Equal(t, ":9090", cfg.HTTP.Addr)
	assert.Equal(t, "sheet-from-env", cfg.Publish.SpreadsheetID)
}

func TestLoadWithEnv_InvalidSeed(t *testing.T) {
	path := writeConfig(t, "env.yaml", "fillRate: 0.8\n")
	t.Setenv("MEDSCHED_CONFIG", path)
	t.Setenv("MEDSCHED_SEED", "abc")

	_, err := LoadWithEnv("")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "MEDSCHED_SEED")
}

func TestLoadWithEnv_SearchesCurrentDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "medscheduler_config.test.yaml"), []byte("fillRate: 0.7\n"), 0644))
	t.Chdir(dir)
	t.Setenv("MEDSCHED_CONFIG", "")
	t.Setenv("MEDSCHED_SEED", "")

	cfg, err := LoadWithEnv("test")
	require.NoError(t, err)
	assert.Equal(t, 0.7, cfg.FillRate)
}

func TestLoadWithEnv_NotFound(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())
	t.Setenv("MEDSCHED_CONFIG", "")

	_, err := LoadWithEnv("missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfigNotFound)
}

func TestMergeJSON(t *testing.T) {
	base := Default()

	merged, err := base.MergeJSON([]byte(`{
		"fill_rate": 0.5,
		"rebook_category": "max",
		"weekday_weights": [1, 1, 1, 1, 1, 0, 0],
		"status_rates": {"attended": 0.8, "cancelled": 0.1, "did not attend": 0.09, "unknown": 0.01}
	}`))
	require.NoError(t, err)

	assert.Equal(t, 0.5, merged.FillRate)
	assert.Equal(t, "max", merged.RebookCategory)
	assert.Equal(t, []float64{1, 1, 1, 1, 1, 0, 0}, merged.WeekdayWeights.Sequence)
	assert.Equal(t, 0.1, merged.StatusRates["cancelled"])
	assert.Equal(t, 30, merged.BookingHorizon, "untouched fields keep the base value")
	assert.Equal(t, ":8080", merged.HTTP.Addr)

	// The base is not modified
	assert.Equal(t, 0.9, base.FillRate)
	assert.Equal(t, 0.164, base.StatusRates["cancelled"])
}

func TestMergeJSON_Errors(t *testing.T) {
	base := Default()

	_, err := base.MergeJSON([]byte(`{"fil_rate": 0.5}`))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config override")

	_, err = base.MergeJSON([]byte(`{"fill_rate": 2}`))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")

	merged, err := base.MergeJSON(nil)
	require.NoError(t, err)
	assert.Equal(t, base.FillRate, merged.FillRate)
}

func TestClone_IsDeep(t *testing.T) {
	base := Default()
	clone, err := base.Clone()
	require.NoError(t, err)

	clone.StatusRates["attended"] = 0
	clone.WorkingDays[0] = 6
	*clone.Seed = 1

	assert.Equal(t, 0.773, base.StatusRates["attended"])
	assert.Equal(t, 0, base.WorkingDays[0])
	assert.Equal(t, uint64(42), *base.Seed)
}

func TestLoadOrDefault_FallsBackToDefault(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())
	t.Setenv("MEDSCHED_CONFIG", "")
	t.Setenv("MEDSCHED_SEED", "5")

	cfg, found, err := LoadOrDefault("missing")
	require.NoError(t, err)
	assert.False(t, found)
	require.NotNil(t, cfg.Seed)
	assert.Equal(t, uint64(5), *cfg.Seed)
	assert.Equal(t, Default().RefDate, cfg.RefDate)
}

func TestLoadOrDefault_ReportsInvalidFile(t *testing.T) {
	t.Setenv("MEDSCHED_CONFIG", writeConfig(t, "bad.yaml", "fillRate: 5\n"))

	_, found, err := LoadOrDefault("")
	assert.Error(t, err)
	assert.False(t, found)
}
