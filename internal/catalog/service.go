package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/localkart/localkart-backend/internal/pricing"
	"github.com/localkart/localkart-backend/pkg/db"
	"github.com/localkart/localkart-backend/pkg/db/models"
	pkgerrors "github.com/localkart/localkart-backend/pkg/errors"
	"github.com/localkart/localkart-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes catalog management and storefront read operations.
type Service interface {
	CreateBrand(ctx context.Context, input BrandInput) (*models.Brand, error)
	UpdateBrand(ctx context.Context, id uuid.UUID, input BrandInput) (*models.Brand, error)
	DeleteBrand(ctx context.Context, id uuid.UUID) error
	ListBrands(ctx context.Context, includeInactive bool) ([]models.Brand, error)

	CreateProduct(ctx context.Context, input ProductInput) (*models.Product, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, input ProductUpdateInput) (*models.Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	GetProductBySlug(ctx context.Context, slug string) (*models.Product, error)
	GetProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	ListProducts(ctx context.Context, params pagination.Params, filters ProductFilters) (*ProductList, error)

	SaveOffers(ctx context.Context, productID uuid.UUID, input OfferTableInput) (*OfferPreview, error)
	PreviewOffers(ctx context.Context, productID uuid.UUID, rows []pricing.OfferRow) (*OfferPreview, error)
	PreviewPrice(ctx context.Context, productID uuid.UUID, quantity int) (*PricePreview, error)
	SetStock(ctx context.Context, productID uuid.UUID, input StockInput) (*models.Product, error)
}

type service struct {
	repo Repository
	tx   txRunner
}

// NewService builds a catalog service with the required dependencies.
func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) CreateBrand(ctx context.Context, input BrandInput) (*models.Brand, error) {
	brand := &models.Brand{
		Name:        strings.TrimSpace(input.Name),
		Slug:        normalizeSlug(input.Slug),
		Description: input.Description,
		IsActive:    true,
	}
	if input.IsActive != nil {
		brand.IsActive = *input.IsActive
	}

	created, err := s.repo.CreateBrand(ctx, brand)
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "brand slug already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create brand")
	}
	return created, nil
}

func (s *service) UpdateBrand(ctx context.Context, id uuid.UUID, input BrandInput) (*models.Brand, error) {
	updates := map[string]any{
		"name": strings.TrimSpace(input.Name),
		"slug": normalizeSlug(input.Slug),
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}

	var brand *models.Brand
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.FindBrandByID(ctx, id); err != nil {
			return notFoundOr(err, "brand not found", "load brand")
		}
		if err := repo.UpdateBrand(ctx, id, updates); err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "brand slug already exists")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update brand")
		}
		updated, err := repo.FindBrandByID(ctx, id)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload brand")
		}
		brand = updated
		return nil
	})
	if err != nil {
		return nil, err
	}
	return brand, nil
}

func (s *service) DeleteBrand(ctx context.Context, id uuid.UUID) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.FindBrandByID(ctx, id); err != nil {
			return notFoundOr(err, "brand not found", "load brand")
		}
		if err := repo.DeleteBrand(ctx, id); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete brand")
		}
		return nil
	})
}

func (s *service) ListBrands(ctx context.Context, includeInactive bool) ([]models.Brand, error) {
	brands, err := s.repo.ListBrands(ctx, includeInactive)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list brands")
	}
	return brands, nil
}

func (s *service) CreateProduct(ctx context.Context, input ProductInput) (*models.Product, error) {
	if !input.MRP.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "mrp must be positive").
			WithDetails(map[string]string{"mrp": "must be positive"})
	}

	normalized, offerErrs := pricing.ValidateOffers(input.Offers, input.MRP, true)
	if len(offerErrs) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "offer table is invalid").
			WithDetails(map[string]any{"offers": offerErrs})
	}

	product := &models.Product{
		BrandID:     input.BrandID,
		Name:        strings.TrimSpace(input.Name),
		Slug:        normalizeSlug(input.Slug),
		Description: input.Description,
		Tags:        pq.StringArray(input.Tags),
		MRP:         input.MRP.Round(2),
		PiecesLeft:  input.PiecesLeft,
		IsActive:    true,
	}
	if product.Tags == nil {
		product.Tags = pq.StringArray{}
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.FindBrandByID(ctx, input.BrandID); err != nil {
			return notFoundOr(err, "brand not found", "load brand")
		}
		if _, err := repo.CreateProduct(ctx, product); err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "product slug already exists")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
		}
		if err := repo.ReplaceOffers(ctx, product.ID, offerModels(product.ID, normalized)); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist offers")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetProductByID(ctx, product.ID)
}

func (s *service) UpdateProduct(ctx context.Context, id uuid.UUID, input ProductUpdateInput) (*models.Product, error) {
	updates := map[string]any{}
	if input.Name != nil {
		updates["name"] = strings.TrimSpace(*input.Name)
	}
	if input.Slug != nil {
		updates["slug"] = normalizeSlug(*input.Slug)
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.Tags != nil {
		updates["tags"] = pq.StringArray(input.Tags)
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}
	if len(updates) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNoChanges, "no product fields to update")
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.FindProductByID(ctx, id); err != nil {
			return notFoundOr(err, "product not found", "load product")
		}
		if err := repo.UpdateProduct(ctx, id, updates); err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "product slug already exists")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetProductByID(ctx, id)
}

func (s *service) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.FindProductByID(ctx, id); err != nil {
			return notFoundOr(err, "product not found", "load product")
		}
		if err := repo.DeleteProduct(ctx, id); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete product")
		}
		return nil
	})
}

func (s *service) GetProductBySlug(ctx context.Context, slug string) (*models.Product, error) {
	product, err := s.repo.FindProductBySlug(ctx, normalizeSlug(slug))
	if err != nil {
		return nil, notFoundOr(err, "product not found", "load product")
	}
	return product, nil
}

func (s *service) GetProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, err := s.repo.FindProductByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "product not found", "load product")
	}
	return product, nil
}

func (s *service) ListProducts(ctx context.Context, params pagination.Params, filters ProductFilters) (*ProductList, error) {
	list, err := s.repo.ListProducts(ctx, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	return list, nil
}

// SaveOffers replaces a product's whole offer table. Persistence happens iff
// every row validates; a single failing row blocks the whole table.
func (s *service) SaveOffers(ctx context.Context, productID uuid.UUID, input OfferTableInput) (*OfferPreview, error) {
	var preview *OfferPreview
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		product, err := repo.FindProductByID(ctx, productID)
		if err != nil {
			return notFoundOr(err, "product not found", "load product")
		}

		normalized, offerErrs := pricing.ValidateOffers(input.Offers, product.MRP, true)
		if len(offerErrs) > 0 {
			preview = &OfferPreview{Offers: normalized, Errors: offerErrs}
			return pkgerrors.New(pkgerrors.CodeValidation, "offer table is invalid").
				WithDetails(map[string]any{"offers": offerErrs})
		}

		if err := repo.ReplaceOffers(ctx, productID, offerModels(productID, normalized)); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist offers")
		}
		preview = &OfferPreview{Offers: normalized, Valid: true}
		return nil
	})
	if err != nil {
		return preview, err
	}
	return preview, nil
}

// PreviewOffers runs the full validation/normalization pass without writing,
// backing the admin edit session's live feedback loop.
func (s *service) PreviewOffers(ctx context.Context, productID uuid.UUID, rows []pricing.OfferRow) (*OfferPreview, error) {
	product, err := s.repo.FindProductByID(ctx, productID)
	if err != nil {
		return nil, notFoundOr(err, "product not found", "load product")
	}
	normalized, offerErrs := pricing.ValidateOffers(rows, product.MRP, true)
	return &OfferPreview{
		Offers: normalized,
		Errors: offerErrs,
		Valid:  len(offerErrs) == 0,
	}, nil
}

func (s *service) PreviewPrice(ctx context.Context, productID uuid.UUID, quantity int) (*PricePreview, error) {
	if quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be a positive integer").
			WithDetails(map[string]string{"quantity": "must be a positive integer"})
	}
	product, err := s.repo.FindProductByID(ctx, productID)
	if err != nil {
		return nil, notFoundOr(err, "product not found", "load product")
	}

	tiers := OfferTiers(product.Offers)
	unitPrice := pricing.PriceForQuantity(tiers, product.MRP, quantity)
	return &PricePreview{
		ProductID:       productID,
		Quantity:        quantity,
		UnitPrice:       unitPrice,
		DiscountPercent: pricing.DiscountForQuantity(tiers, quantity),
		LineTotal:       unitPrice.Mul(decimal.NewFromInt(int64(quantity))).Round(2),
	}, nil
}

func (s *service) SetStock(ctx context.Context, productID uuid.UUID, input StockInput) (*models.Product, error) {
	if input.PiecesLeft != nil && *input.PiecesLeft < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be negative").
			WithDetails(map[string]string{"pieces_left": "must be zero or more"})
	}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.FindProductByID(ctx, productID); err != nil {
			return notFoundOr(err, "product not found", "load product")
		}
		if err := repo.UpdateStock(ctx, productID, input.PiecesLeft); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update stock")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetProductByID(ctx, productID)
}

func offerModels(productID uuid.UUID, offers []pricing.NormalizedOffer) []models.ProductOffer {
	rows := make([]models.ProductOffer, 0, len(offers))
	for _, offer := range offers {
		rows = append(rows, models.ProductOffer{
			ProductID:       productID,
			MinQty:          offer.MinQty,
			DiscountPercent: offer.DiscountPercent,
			UnitPrice:       offer.UnitPrice,
		})
	}
	return rows
}

// OfferTiers converts persisted offer rows into pricing engine tiers.
func OfferTiers(offers []models.ProductOffer) []pricing.Tier {
	tiers := make([]pricing.Tier, 0, len(offers))
	for _, offer := range offers {
		tiers = append(tiers, pricing.Tier{MinQty: offer.MinQty, DiscountPercent: offer.DiscountPercent})
	}
	return tiers
}

func normalizeSlug(slug string) string {
	return strings.ToLower(strings.TrimSpace(slug))
}

func notFoundOr(err error, notFoundMsg, depMsg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, notFoundMsg)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, depMsg)
}
