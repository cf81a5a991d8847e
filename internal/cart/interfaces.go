package cart

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/localkart/localkart-backend/pkg/db/models"
)

// Repository defines persistence operations for cart records.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	FindActiveByUser(ctx context.Context, userID uuid.UUID) (*models.CartRecord, error)
	CreateActive(ctx context.Context, userID uuid.UUID) (*models.CartRecord, error)
	ReplaceItems(ctx context.Context, cartID uuid.UUID, items []models.CartItem) error
	MarkConverted(ctx context.Context, cartID uuid.UUID) error
}
