package services

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestExportDataset(t *testing.T) {
	result := generateSmall(t)
	dir := filepath.Join(t.TempDir(), "dataset")

	paths, err := ExportDataset(result.Dataset, dir, zap.NewNop())
	require.NoError(t, err)
	require.Len(t, paths, 3)

	data, err := os.ReadFile(filepath.Join(dir, "patients.csv"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Equal(t, "patient_id,name,sex,dob,age,age_group,insurance", lines[0])
	assert.Len(t, lines, len(result.Dataset.Patients)+1)
}

func TestExportDataset_NilDataset(t *testing.T) {
	_, err := ExportDataset(nil, t.TempDir(), zap.NewNop())
	assert.Error(t, err)
}
