package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/carogaltier/medscheduler/pkg/core/model"
	"github.com/carogaltier/medscheduler/pkg/export"
)

// TablePublisher writes tables to a spreadsheet, one tab per table
type TablePublisher interface {
	PublishTables(ctx context.Context, spreadsheetID string, tables []export.Table) error
}

// ErrNoSpreadsheet is returned when publish is called without a destination
var ErrNoSpreadsheet = errors.New("spreadsheet id is required")

// PublishDataset projects the dataset into its three tables and publishes them
func PublishDataset(ctx context.Context, publisher TablePublisher, spreadsheetID string, ds *model.Dataset, logger *zap.Logger) error {
	if spreadsheetID == "" {
		return ErrNoSpreadsheet
	}
	if ds == nil {
		return fmt.Errorf("no dataset to publish")
	}

	tables := export.Tables(ds)
	logger.Info("Publishing dataset",
		zap.String("id", ds.ID),
		zap.String("spreadsheet_id", spreadsheetID),
		zap.Int("tables", len(tables)))

	if err := publisher.PublishTables(ctx, spreadsheetID, tables); err != nil {
		return fmt.Errorf("failed to publish dataset: %w", err)
	}

	logger.Info("Dataset published", zap.String("spreadsheet_id", spreadsheetID))
	return nil
}
