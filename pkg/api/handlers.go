package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/carogaltier/medscheduler/internal/config"
	"github.com/carogaltier/medscheduler/pkg/core/generator"
	"github.com/carogaltier/medscheduler/pkg/core/services"
	"github.com/carogaltier/medscheduler/pkg/export"
)

// createDatasetHandler merges the request body over base, generates a dataset and returns
// its summary; ?include=tables adds the three row sets
func createDatasetHandler(base *config.Config, recorder services.GenerationRecorder, logger *zap.Logger, maxBody int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBody))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeError(w, http.StatusRequestEntityTooLarge, "request_too_large", err.Error())
				return
			}
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not read body")
			return
		}

		cfg, err := base.MergeJSON(body)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_config", err.Error())
			return
		}

		reqLogger := logger.With(zap.String("request_id", GetRequestID(r.Context())))
		result, err := services.GenerateDataset(r.Context(), cfg, recorder, reqLogger)
		if err != nil {
			handleGenerateError(w, err)
			return
		}

		warnings := result.Warnings
		if warnings == nil {
			warnings = []string{}
		}
		resp := DatasetResponse{
			ID:       result.Dataset.ID,
			Seed:     result.Dataset.Seed,
			Summary:  result.Summary,
			Warnings: warnings,
		}
		if r.URL.Query().Get("include") == "tables" {
			resp.Tables = export.Tables(result.Dataset)
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func defaultsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, config.Default())
	}
}

func handleGenerateError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, generator.ErrInvalidConfig):
		writeError(w, http.StatusBadRequest, "invalid_config", err.Error())
	case errors.Is(err, generator.ErrCustomColumn):
		writeError(w, http.StatusBadRequest, "invalid_custom_column", err.Error())
	case errors.Is(err, generator.ErrInvariant):
		writeError(w, http.StatusInternalServerError, "invariant_violated", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, details string) {
	writeJSON(w, status, ErrorResponse{Error: code, Details: details})
}
