package services

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/carogaltier/medscheduler/pkg/core/model"
	"github.com/carogaltier/medscheduler/pkg/export"
)

// ExportDataset writes slots.csv, appointments.csv and patients.csv into dir
func ExportDataset(ds *model.Dataset, dir string, logger *zap.Logger) ([]string, error) {
	if ds == nil {
		return nil, fmt.Errorf("no dataset to export")
	}

	logger.Debug("Exporting dataset", zap.String("id", ds.ID), zap.String("dir", dir))

	paths, err := export.WriteDir(dir, ds)
	if err != nil {
		return nil, fmt.Errorf("failed to export dataset: %w", err)
	}

	for _, p := range paths {
		logger.Info("Wrote table", zap.String("path", p))
	}
	return paths, nil
}
