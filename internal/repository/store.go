package repository

import (
	"context"
	"errors"

	"settlement-service/internal/models"

	"github.com/google/uuid"
)

// ErrNotFound is returned when no policy instance exists for the given id.
var ErrNotFound = errors.New("policy not found")

// PolicyStore persists policy instances and their embedded claim record.
// The lifecycle manager is the only writer; implementations only need to be
// safe for concurrent reads alongside that single writer per instance.
type PolicyStore interface {
	Create(ctx context.Context, policy *models.PolicyInstance) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.PolicyInstance, error)
	Update(ctx context.Context, policy *models.PolicyInstance) error
	ListByHolder(ctx context.Context, holderID string) ([]models.PolicyInstance, error)
}
