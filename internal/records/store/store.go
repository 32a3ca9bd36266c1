// Package store persists verification records.
package store

import (
	"context"

	"github.com/google/uuid"

	"docverify/internal/records/models"
)

// Store is implemented by the memory, postgres and redis-cached stores.
type Store interface {
	Create(ctx context.Context, record *models.Record) error
	UpdateOutcome(ctx context.Context, id uuid.UUID, outcome models.Outcome) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Record, error)
	List(ctx context.Context, filter models.ListFilter) ([]*models.Record, error)
}
