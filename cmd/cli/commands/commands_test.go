package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/carogaltier/medscheduler/internal/config"
	"github.com/carogaltier/medscheduler/pkg/core/generator"
	"github.com/carogaltier/medscheduler/pkg/core/model"
	"github.com/carogaltier/medscheduler/pkg/core/services"
)

func testApp(t *testing.T) *AppContext {
	t.Helper()
	cfg := config.Default()
	cfg.DateRanges = []config.DateRange{{Start: "2024-01-01", End: "2024-02-29"}}
	cfg.RefDate = "2024-02-01"
	require.NoError(t, config.Validate(cfg))
	return &AppContext{Cfg: cfg, Env: "test", Logger: zap.NewNop(), Ctx: context.Background()}
}

func TestGenerateCmd_WritesTables(t *testing.T) {
	app := testApp(t)
	dir := filepath.Join(t.TempDir(), "out")

	var out bytes.Buffer
	cmd := GenerateCmd(app)
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--out", dir, "--seed", "11"})
	require.NoError(t, cmd.Execute())

	for _, name := range []string{"slots.csv", "appointments.csv", "patients.csv"} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}
	assert.Contains(t, out.String(), "(seed 11)")
	assert.Equal(t, uint64(42), *app.Cfg.Seed, "the loaded config is not modified")
}

func TestGenerateCmd_RequiresOut(t *testing.T) {
	cmd := GenerateCmd(testApp(t))
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"out"`)
}

func TestSummarizeCmd_JSON(t *testing.T) {
	var out bytes.Buffer
	cmd := SummarizeCmd(testApp(t))
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--json"})
	require.NoError(t, cmd.Execute())

	var resp struct {
		ID      string            `json:"id"`
		Seed    uint64            `json:"seed"`
		Summary generator.Summary `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &resp))
	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, uint64(42), resp.Seed)
	assert.Greater(t, resp.Summary.Appointments.TotalAppointments, 0)
	assert.Equal(t, "2024-02-01", resp.Summary.Slots.ReferenceDate)
}

func TestSummarizeCmd_Text(t *testing.T) {
	var out bytes.Buffer
	cmd := SummarizeCmd(testApp(t))
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--seed", "3"})
	require.NoError(t, cmd.Execute())

	text := out.String()
	assert.Contains(t, text, "(seed 3)")
	assert.Contains(t, text, "Slots:")
	assert.Contains(t, text, "Appointments:")
	assert.Contains(t, text, "Monday")
	assert.NotContains(t, text, "Saturday")
}

func TestPublishCmd_RequiresSpreadsheet(t *testing.T) {
	cmd := PublishCmd(testApp(t))
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{})

	err := cmd.Execute()
	assert.ErrorIs(t, err, services.ErrNoSpreadsheet)
}

func TestPrintSummary_StatusOrder(t *testing.T) {
	var out bytes.Buffer
	printSummary(&out, generator.Summary{
		Appointments: generator.AppointmentSummary{
			StatusCounts: map[model.Status]int{
				model.StatusUnknown:   1,
				model.StatusAttended:  10,
				model.StatusCancelled: 2,
			},
		},
	})

	text := out.String()
	attended := strings.Index(text, "attended")
	cancelled := strings.Index(text, "cancelled")
	unknown := strings.Index(text, "unknown")
	assert.True(t, attended < cancelled && cancelled < unknown, text)
}

func TestPrintWarnings(t *testing.T) {
	var out bytes.Buffer
	printWarnings(&out, nil)
	assert.Empty(t, out.String())

	printWarnings(&out, []string{"status_rates renormalized"})
	assert.Contains(t, out.String(), "1 warning(s)")
	assert.Contains(t, out.String(), "- status_rates renormalized")
}
