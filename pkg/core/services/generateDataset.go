package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/carogaltier/medscheduler/internal/config"
	"github.com/carogaltier/medscheduler/pkg/core/generator"
	"github.com/carogaltier/medscheduler/pkg/core/model"
	"github.com/carogaltier/medscheduler/pkg/metrics"
)

// GenerationRecorder records the outcome of generation runs
type GenerationRecorder interface {
	RecordGeneration(outcome string, duration time.Duration, appointmentsByStatus map[string]int)
}

// DatasetResult is a generated dataset with its summary and any normalization warnings
type DatasetResult struct {
	Dataset  *model.Dataset
	Summary  generator.Summary
	Warnings []string
	Stats    generator.Stats
}

// GenerateDataset converts the configuration, runs the generator and applies the configured
// custom columns. Each custom column draws from its own stream, derived from the seed and the
// column name, so adding a column does not change the others.
func GenerateDataset(ctx context.Context, cfg *config.Config, recorder GenerationRecorder, logger *zap.Logger) (*DatasetResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	result, err := generate(cfg, logger)
	elapsed := time.Since(start)

	if err != nil {
		record(recorder, outcomeOf(err), elapsed, nil)
		return nil, err
	}

	summary := generator.Summarize(result.Dataset)
	byStatus := make(map[string]int, len(summary.Appointments.StatusCounts))
	for status, n := range summary.Appointments.StatusCounts {
		byStatus[string(status)] = n
	}
	record(recorder, metrics.OutcomeSuccess, elapsed, byStatus)

	logger.Info("Dataset ready",
		zap.String("id", result.Dataset.ID),
		zap.Int("slots", len(result.Dataset.Slots)),
		zap.Int("appointments", len(result.Dataset.Appointments)),
		zap.Int("patients", len(result.Dataset.Patients)),
		zap.Duration("elapsed", elapsed))

	return &DatasetResult{
		Dataset:  result.Dataset,
		Summary:  summary,
		Warnings: result.Warnings,
		Stats:    result.Stats,
	}, nil
}

func generate(cfg *config.Config, logger *zap.Logger) (*generator.Result, error) {
	genCfg, err := cfg.ToGenerator()
	if err != nil {
		return nil, fmt.Errorf("failed to convert config: %w", err)
	}

	result, err := generator.Generate(genCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to generate dataset: %w", err)
	}

	columns := cfg.GeneratorColumns()
	if len(columns) > 0 && len(result.Dataset.Patients) == 0 {
		msg := "custom columns skipped: patient table is empty"
		logger.Warn(msg, zap.Int("columns", len(columns)))
		result.Warnings = append(result.Warnings, msg)
		return result, nil
	}

	for _, col := range columns {
		r := generator.NewColumnRand(result.Dataset.Seed, col.Name)
		if err := generator.AddCustomColumn(result.Dataset, col, genCfg.Noise, r); err != nil {
			return nil, fmt.Errorf("failed to add custom column %q: %w", col.Name, err)
		}
		logger.Debug("Added custom column", zap.String("name", col.Name), zap.Strings("categories", col.Categories))
	}

	return result, nil
}

func outcomeOf(err error) string {
	if errors.Is(err, generator.ErrInvalidConfig) || errors.Is(err, generator.ErrCustomColumn) {
		return metrics.OutcomeInvalidConfig
	}
	return metrics.OutcomeError
}

func record(recorder GenerationRecorder, outcome string, elapsed time.Duration, byStatus map[string]int) {
	if recorder != nil {
		recorder.RecordGeneration(outcome, elapsed, byStatus)
	}
}
