package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/carogaltier/medscheduler/pkg/export"
)

type mockPublisher struct {
	spreadsheetID string
	tables        []export.Table
	err           error
}

func (m *mockPublisher) PublishTables(ctx context.Context, spreadsheetID string, tables []export.Table) error {
	m.spreadsheetID = spreadsheetID
	m.tables = tables
	return m.err
}

func generateSmall(t *testing.T) *DatasetResult {
	t.Helper()
	result, err := GenerateDataset(context.Background(), smallConfig(), nil, zap.NewNop())
	require.NoError(t, err)
	return result
}

func TestPublishDataset_Success(t *testing.T) {
	result := generateSmall(t)
	publisher := &mockPublisher{}

	err := PublishDataset(context.Background(), publisher, "sheet-123", result.Dataset, zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, "sheet-123", publisher.spreadsheetID)
	require.Len(t, publisher.tables, 3)
	assert.Equal(t, "slots", publisher.tables[0].Name)
	assert.Equal(t, "appointments", publisher.tables[1].Name)
	assert.Equal(t, "patients", publisher.tables[2].Name)
	assert.Len(t, publisher.tables[1].Rows, len(result.Dataset.Appointments))
}

func TestPublishDataset_Errors(t *testing.T) {
	result := generateSmall(t)

	err := PublishDataset(context.Background(), &mockPublisher{}, "", result.Dataset, zap.NewNop())
	assert.ErrorIs(t, err, ErrNoSpreadsheet)

	apiErr := errors.New("quota exceeded")
	err = PublishDataset(context.Background(), &mockPublisher{err: apiErr}, "sheet-123", result.Dataset, zap.NewNop())
	require.Error(t, err)
	assert.ErrorIs(t, err, apiErr)
	assert.Contains(t, err.Error(), "failed to publish dataset")
}
