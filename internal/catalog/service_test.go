package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/localkart/localkart-backend/internal/pricing"
	"github.com/localkart/localkart-backend/pkg/db/models"
	pkgerrors "github.com/localkart/localkart-backend/pkg/errors"
	"github.com/localkart/localkart-backend/pkg/pagination"
)

type stubRepo struct {
	brands   map[uuid.UUID]*models.Brand
	products map[uuid.UUID]*models.Product
	offers   map[uuid.UUID][]models.ProductOffer
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		brands:   map[uuid.UUID]*models.Brand{},
		products: map[uuid.UUID]*models.Product{},
		offers:   map[uuid.UUID][]models.ProductOffer{},
	}
}

func (s *stubRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubRepo) CreateBrand(_ context.Context, brand *models.Brand) (*models.Brand, error) {
	for _, existing := range s.brands {
		if existing.Slug == brand.Slug {
			return nil, errors.New(`duplicate key value violates unique constraint "brands_slug_key"`)
		}
	}
	brand.ID = uuid.New()
	s.brands[brand.ID] = brand
	return brand, nil
}

func (s *stubRepo) UpdateBrand(_ context.Context, id uuid.UUID, updates map[string]any) error {
	brand, ok := s.brands[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if name, ok := updates["name"].(string); ok {
		brand.Name = name
	}
	if slug, ok := updates["slug"].(string); ok {
		brand.Slug = slug
	}
	if active, ok := updates["is_active"].(bool); ok {
		brand.IsActive = active
	}
	return nil
}

func (s *stubRepo) DeleteBrand(_ context.Context, id uuid.UUID) error {
	delete(s.brands, id)
	return nil
}

func (s *stubRepo) FindBrandByID(_ context.Context, id uuid.UUID) (*models.Brand, error) {
	if brand, ok := s.brands[id]; ok {
		copied := *brand
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubRepo) FindBrandBySlug(_ context.Context, slug string) (*models.Brand, error) {
	for _, brand := range s.brands {
		if brand.Slug == slug {
			copied := *brand
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubRepo) ListBrands(_ context.Context, includeInactive bool) ([]models.Brand, error) {
	out := []models.Brand{}
	for _, brand := range s.brands {
		if !includeInactive && !brand.IsActive {
			continue
		}
		out = append(out, *brand)
	}
	return out, nil
}

func (s *stubRepo) CreateProduct(_ context.Context, product *models.Product) (*models.Product, error) {
	for _, existing := range s.products {
		if existing.Slug == product.Slug {
			return nil, errors.New(`duplicate key value violates unique constraint "products_slug_key"`)
		}
	}
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	s.products[product.ID] = product
	return product, nil
}

func (s *stubRepo) UpdateProduct(_ context.Context, id uuid.UUID, updates map[string]any) error {
	product, ok := s.products[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if name, ok := updates["name"].(string); ok {
		product.Name = name
	}
	if slug, ok := updates["slug"].(string); ok {
		product.Slug = slug
	}
	if active, ok := updates["is_active"].(bool); ok {
		product.IsActive = active
	}
	return nil
}

func (s *stubRepo) DeleteProduct(_ context.Context, id uuid.UUID) error {
	delete(s.products, id)
	delete(s.offers, id)
	return nil
}

func (s *stubRepo) FindProductByID(_ context.Context, id uuid.UUID) (*models.Product, error) {
	product, ok := s.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *product
	copied.Offers = append([]models.ProductOffer{}, s.offers[id]...)
	return &copied, nil
}

func (s *stubRepo) FindProductBySlug(_ context.Context, slug string) (*models.Product, error) {
	for id, product := range s.products {
		if product.Slug == slug {
			copied := *product
			copied.Offers = append([]models.ProductOffer{}, s.offers[id]...)
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubRepo) FindProductsByIDs(_ context.Context, ids []uuid.UUID) ([]models.Product, error) {
	out := []models.Product{}
	for _, id := range ids {
		if product, err := s.FindProductByID(context.Background(), id); err == nil {
			out = append(out, *product)
		}
	}
	return out, nil
}

func (s *stubRepo) ListProducts(_ context.Context, params pagination.Params, filters ProductFilters) (*ProductList, error) {
	list := &ProductList{Products: []ProductSummary{}}
	for _, product := range s.products {
		if !filters.IncludeInactive && !product.IsActive {
			continue
		}
		list.Products = append(list.Products, ProductSummary{
			ID:       product.ID,
			BrandID:  product.BrandID,
			Name:     product.Name,
			Slug:     product.Slug,
			MRP:      product.MRP,
			IsActive: product.IsActive,
		})
	}
	return list, nil
}

func (s *stubRepo) ReplaceOffers(_ context.Context, productID uuid.UUID, offers []models.ProductOffer) error {
	if _, ok := s.products[productID]; !ok {
		return gorm.ErrRecordNotFound
	}
	s.offers[productID] = offers
	return nil
}

func (s *stubRepo) UpdateStock(_ context.Context, productID uuid.UUID, piecesLeft *int) error {
	product, ok := s.products[productID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	product.PiecesLeft = piecesLeft
	return nil
}

func (s *stubRepo) AdjustStock(_ context.Context, productID uuid.UUID, delta int) error {
	product, ok := s.products[productID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if product.PiecesLeft != nil {
		next := *product.PiecesLeft + delta
		product.PiecesLeft = &next
	}
	return nil
}

type stubTx struct{}

func (stubTx) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error { return fn(nil) }

func dec(t *testing.T, raw string) decimal.Decimal {
	t.Helper()
	value, err := decimal.NewFromString(raw)
	require.NoError(t, err)
	return value
}

func decPtr(t *testing.T, raw string) *decimal.Decimal {
	t.Helper()
	value := dec(t, raw)
	return &value
}

func seedBrand(t *testing.T, repo *stubRepo) *models.Brand {
	t.Helper()
	brand, err := repo.CreateBrand(context.Background(), &models.Brand{Name: "Acme", Slug: "acme", IsActive: true})
	require.NoError(t, err)
	return brand
}

func seedProduct(t *testing.T, repo *stubRepo, brandID uuid.UUID, mrp string, tiers map[int]string) *models.Product {
	t.Helper()
	product := &models.Product{
		ID:       uuid.New(),
		BrandID:  brandID,
		Name:     "Basmati Rice 5kg",
		Slug:     "basmati-rice-5kg",
		MRP:      dec(t, mrp),
		IsActive: true,
	}
	repo.products[product.ID] = product
	for minQty, discount := range tiers {
		repo.offers[product.ID] = append(repo.offers[product.ID], models.ProductOffer{
			ProductID:       product.ID,
			MinQty:          minQty,
			DiscountPercent: dec(t, discount),
			UnitPrice:       pricing.UnitPrice(product.MRP, dec(t, discount)),
		})
	}
	return product
}

func TestCreateBrandDefaultsActive(t *testing.T) {
	repo := newStubRepo()
	svc, err := NewService(repo, stubTx{})
	require.NoError(t, err)

	brand, err := svc.CreateBrand(context.Background(), BrandInput{Name: "  Acme  ", Slug: "  ACME "})
	require.NoError(t, err)
	assert.Equal(t, "Acme", brand.Name)
	assert.Equal(t, "acme", brand.Slug)
	assert.True(t, brand.IsActive)
}

func TestCreateBrandDuplicateSlugConflicts(t *testing.T) {
	repo := newStubRepo()
	seedBrand(t, repo)
	svc, err := NewService(repo, stubTx{})
	require.NoError(t, err)

	_, err = svc.CreateBrand(context.Background(), BrandInput{Name: "Other", Slug: "acme"})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.As(err).Code())
}

func TestUpdateBrandNotFound(t *testing.T) {
	repo := newStubRepo()
	svc, err := NewService(repo, stubTx{})
	require.NoError(t, err)

	_, err = svc.UpdateBrand(context.Background(), uuid.New(), BrandInput{Name: "Acme", Slug: "acme"})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestCreateProductRejectsNonPositiveMRP(t *testing.T) {
	repo := newStubRepo()
	brand := seedBrand(t, repo)
	svc, err := NewService(repo, stubTx{})
	require.NoError(t, err)

	_, err = svc.CreateProduct(context.Background(), ProductInput{
		BrandID: brand.ID,
		Name:    "Rice",
		Slug:    "rice",
		MRP:     decimal.Zero,
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestCreateProductRejectsOfferTableWithoutBaseTier(t *testing.T) {
	repo := newStubRepo()
	brand := seedBrand(t, repo)
	svc, err := NewService(repo, stubTx{})
	require.NoError(t, err)

	_, err = svc.CreateProduct(context.Background(), ProductInput{
		BrandID: brand.ID,
		Name:    "Rice",
		Slug:    "rice",
		MRP:     dec(t, "1000"),
		Offers: []pricing.OfferRow{
			{MinQty: 5, DiscountPercent: decPtr(t, "10")},
		},
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
	assert.Empty(t, repo.products)
}

func TestCreateProductPersistsNormalizedOffers(t *testing.T) {
	repo := newStubRepo()
	brand := seedBrand(t, repo)
	svc, err := NewService(repo, stubTx{})
	require.NoError(t, err)

	product, err := svc.CreateProduct(context.Background(), ProductInput{
		BrandID: brand.ID,
		Name:    "Basmati Rice 5kg",
		Slug:    "Basmati-Rice-5kg",
		MRP:     dec(t, "1000"),
		Offers: []pricing.OfferRow{
			{MinQty: 1, DiscountPercent: decPtr(t, "0")},
			{MinQty: 5, DiscountPercent: decPtr(t, "10")},
			{MinQty: 10, UnitPrice: decPtr(t, "800")},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "basmati-rice-5kg", product.Slug)
	require.Len(t, product.Offers, 3)

	byQty := map[int]models.ProductOffer{}
	for _, offer := range product.Offers {
		byQty[offer.MinQty] = offer
	}
	assert.True(t, byQty[5].UnitPrice.Equal(dec(t, "900")), "tier 5 unit price %s", byQty[5].UnitPrice)
	assert.True(t, byQty[10].DiscountPercent.Equal(dec(t, "20")), "tier 10 discount %s", byQty[10].DiscountPercent)
}

func TestUpdateProductNoFieldsIsNoChanges(t *testing.T) {
	repo := newStubRepo()
	brand := seedBrand(t, repo)
	product := seedProduct(t, repo, brand.ID, "1000", nil)
	svc, err := NewService(repo, stubTx{})
	require.NoError(t, err)

	_, err = svc.UpdateProduct(context.Background(), product.ID, ProductUpdateInput{})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNoChanges, pkgerrors.As(err).Code())
}

func TestSaveOffersRejectsNonMonotonicTable(t *testing.T) {
	repo := newStubRepo()
	brand := seedBrand(t, repo)
	product := seedProduct(t, repo, brand.ID, "1000", map[int]string{1: "0"})
	svc, err := NewService(repo, stubTx{})
	require.NoError(t, err)

	preview, err := svc.SaveOffers(context.Background(), product.ID, OfferTableInput{
		Offers: []pricing.OfferRow{
			{MinQty: 1, DiscountPercent: decPtr(t, "0")},
			{MinQty: 5, DiscountPercent: decPtr(t, "20")},
			{MinQty: 10, DiscountPercent: decPtr(t, "10")},
		},
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
	require.NotNil(t, preview)
	assert.False(t, preview.Valid)

	// original single-row table untouched
	require.Len(t, repo.offers[product.ID], 1)
}

func TestSaveOffersReplacesWholeTable(t *testing.T) {
	repo := newStubRepo()
	brand := seedBrand(t, repo)
	product := seedProduct(t, repo, brand.ID, "1000", map[int]string{1: "0", 5: "10"})
	svc, err := NewService(repo, stubTx{})
	require.NoError(t, err)

	preview, err := svc.SaveOffers(context.Background(), product.ID, OfferTableInput{
		Offers: []pricing.OfferRow{
			{MinQty: 1, DiscountPercent: decPtr(t, "0")},
			{MinQty: 10, DiscountPercent: decPtr(t, "25")},
		},
	})
	require.NoError(t, err)
	assert.True(t, preview.Valid)
	require.Len(t, repo.offers[product.ID], 2)
	assert.Equal(t, 10, repo.offers[product.ID][1].MinQty)
}

func TestPreviewOffersDoesNotWrite(t *testing.T) {
	repo := newStubRepo()
	brand := seedBrand(t, repo)
	product := seedProduct(t, repo, brand.ID, "1000", map[int]string{1: "0"})
	svc, err := NewService(repo, stubTx{})
	require.NoError(t, err)

	preview, err := svc.PreviewOffers(context.Background(), product.ID, []pricing.OfferRow{
		{MinQty: 1, DiscountPercent: decPtr(t, "0")},
		{MinQty: 5, DiscountPercent: decPtr(t, "150")},
	})
	require.NoError(t, err)
	assert.False(t, preview.Valid)
	assert.NotEmpty(t, preview.Errors)
	require.Len(t, repo.offers[product.ID], 1)
}

func TestPreviewPriceResolvesTier(t *testing.T) {
	repo := newStubRepo()
	brand := seedBrand(t, repo)
	product := seedProduct(t, repo, brand.ID, "1000", map[int]string{1: "0", 5: "10", 10: "20"})
	svc, err := NewService(repo, stubTx{})
	require.NoError(t, err)

	preview, err := svc.PreviewPrice(context.Background(), product.ID, 7)
	require.NoError(t, err)
	assert.True(t, preview.UnitPrice.Equal(dec(t, "900")), "unit price %s", preview.UnitPrice)
	assert.True(t, preview.DiscountPercent.Equal(dec(t, "10")), "discount %s", preview.DiscountPercent)
	assert.True(t, preview.LineTotal.Equal(dec(t, "6300")), "line total %s", preview.LineTotal)
}

func TestPreviewPriceRejectsZeroQuantity(t *testing.T) {
	repo := newStubRepo()
	svc, err := NewService(repo, stubTx{})
	require.NoError(t, err)

	_, err = svc.PreviewPrice(context.Background(), uuid.New(), 0)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestSetStockRejectsNegative(t *testing.T) {
	repo := newStubRepo()
	brand := seedBrand(t, repo)
	product := seedProduct(t, repo, brand.ID, "1000", nil)
	svc, err := NewService(repo, stubTx{})
	require.NoError(t, err)

	negative := -1
	_, err = svc.SetStock(context.Background(), product.ID, StockInput{PiecesLeft: &negative})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestSetStockSetsAndClearsTracking(t *testing.T) {
	repo := newStubRepo()
	brand := seedBrand(t, repo)
	product := seedProduct(t, repo, brand.ID, "1000", nil)
	svc, err := NewService(repo, stubTx{})
	require.NoError(t, err)

	count := 40
	updated, err := svc.SetStock(context.Background(), product.ID, StockInput{PiecesLeft: &count})
	require.NoError(t, err)
	require.NotNil(t, updated.PiecesLeft)
	assert.Equal(t, 40, *updated.PiecesLeft)

	cleared, err := svc.SetStock(context.Background(), product.ID, StockInput{})
	require.NoError(t, err)
	assert.Nil(t, cleared.PiecesLeft)
}

func TestGetProductBySlugNormalizes(t *testing.T) {
	repo := newStubRepo()
	brand := seedBrand(t, repo)
	seedProduct(t, repo, brand.ID, "1000", nil)
	svc, err := NewService(repo, stubTx{})
	require.NoError(t, err)

	product, err := svc.GetProductBySlug(context.Background(), "  Basmati-Rice-5kg ")
	require.NoError(t, err)
	assert.Equal(t, "basmati-rice-5kg", product.Slug)
}
