// Package storage persists the symptom catalog, advice entries, weighted mappings, and
// session analytics.
package storage

import (
	"context"
	"errors"

	"github.com/hyperjump/shindan/internal/knowledge"
	"github.com/hyperjump/shindan/internal/models"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// Storage defines catalog, weight, and session persistence operations.
type Storage interface {
	// Catalog
	AllSymptoms(ctx context.Context) ([]models.Symptom, error)
	SearchSymptoms(ctx context.Context, term string) ([]models.Symptom, error)
	SymptomsByIDs(ctx context.Context, ids []int64) ([]models.Symptom, error)
	Categories(ctx context.Context) ([]string, error)

	// Advice
	GetAdvice(ctx context.Context, id int64) (*models.AdviceEntry, error)
	Weights(ctx context.Context, symptomIDs []int64) ([]models.WeightedAdvice, error)

	// Sessions
	LogSession(ctx context.Context, rec *models.SessionRecord) error

	// Knowledge base
	Import(ctx context.Context, kb *knowledge.Base, force bool) (bool, error)

	Stats(ctx context.Context) (*Stats, error)
	Close() error
}

// Stats summarizes stored data.
type Stats struct {
	Driver         string `json:"driver"`
	Symptoms       int64  `json:"symptoms"`
	Advice         int64  `json:"advice"`
	Mappings       int64  `json:"mappings"`
	Sessions       int64  `json:"sessions"`
	Fingerprint    string `json:"fingerprint,omitempty"`
	DiskUsageBytes int64  `json:"disk_usage_bytes,omitempty"`
}
