package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/localkart/localkart-backend/pkg/db/models"
	"github.com/localkart/localkart-backend/pkg/pagination"
)

// Repository defines persistence operations for the brand/product catalog.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	CreateBrand(ctx context.Context, brand *models.Brand) (*models.Brand, error)
	UpdateBrand(ctx context.Context, id uuid.UUID, updates map[string]any) error
	DeleteBrand(ctx context.Context, id uuid.UUID) error
	FindBrandByID(ctx context.Context, id uuid.UUID) (*models.Brand, error)
	FindBrandBySlug(ctx context.Context, slug string) (*models.Brand, error)
	ListBrands(ctx context.Context, includeInactive bool) ([]models.Brand, error)

	CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, updates map[string]any) error
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	FindProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindProductBySlug(ctx context.Context, slug string) (*models.Product, error)
	FindProductsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
	ListProducts(ctx context.Context, params pagination.Params, filters ProductFilters) (*ProductList, error)

	ReplaceOffers(ctx context.Context, productID uuid.UUID, offers []models.ProductOffer) error
	UpdateStock(ctx context.Context, productID uuid.UUID, piecesLeft *int) error
	AdjustStock(ctx context.Context, productID uuid.UUID, delta int) error
}
