package api

import (
	"github.com/carogaltier/medscheduler/pkg/core/generator"
	"github.com/carogaltier/medscheduler/pkg/export"
)

type DatasetResponse struct {
	ID       string            `json:"id"`
	Seed     uint64            `json:"seed"`
	Summary  generator.Summary `json:"summary"`
	Warnings []string          `json:"warnings"`
	Tables   []export.Table    `json:"tables,omitempty"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
