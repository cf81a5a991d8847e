package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/localkart/localkart-backend/internal/catalog"
	"github.com/localkart/localkart-backend/internal/pricing"
	"github.com/localkart/localkart-backend/pkg/db/models"
	pkgerrors "github.com/localkart/localkart-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes the customer cart operations.
type Service interface {
	Get(ctx context.Context, userID uuid.UUID) (*View, error)
	Put(ctx context.Context, userID uuid.UUID, input PutInput) (*View, error)
}

type service struct {
	repo     Repository
	products catalog.Repository
	tx       txRunner
}

// NewService builds a cart service with the required dependencies.
func NewService(repo Repository, products catalog.Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, products: products, tx: tx}, nil
}

// Get returns the user's active cart priced against the current offer tables.
// A user with no active cart gets an empty view rather than a 404.
func (s *service) Get(ctx context.Context, userID uuid.UUID) (*View, error) {
	record, err := s.repo.FindActiveByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &View{Items: []PricedItem{}}, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return s.buildView(ctx, record)
}

// Put replaces the whole item list of the user's active cart, creating the
// cart if none exists. Duplicate product lines are rejected rather than
// merged so the client's view of the list stays authoritative.
func (s *service) Put(ctx context.Context, userID uuid.UUID, input PutInput) (*View, error) {
	seen := make(map[uuid.UUID]struct{}, len(input.Items))
	ids := make([]uuid.UUID, 0, len(input.Items))
	for _, item := range input.Items {
		if item.Qty < 1 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item quantity must be at least 1").
				WithDetails(map[string]string{"product_id": item.ProductID.String()})
		}
		if _, dup := seen[item.ProductID]; dup {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "duplicate product in cart").
				WithDetails(map[string]string{"product_id": item.ProductID.String()})
		}
		seen[item.ProductID] = struct{}{}
		ids = append(ids, item.ProductID)
	}

	if len(ids) > 0 {
		products, err := s.products.FindProductsByIDs(ctx, ids)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load products")
		}
		byID := make(map[uuid.UUID]models.Product, len(products))
		for _, p := range products {
			byID[p.ID] = p
		}
		for _, id := range ids {
			product, ok := byID[id]
			if !ok || !product.IsActive {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found").
					WithDetails(map[string]string{"product_id": id.String()})
			}
		}
	}

	var record *models.CartRecord
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		existing, err := repo.FindActiveByUser(ctx, userID)
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
			}
			existing, err = repo.CreateActive(ctx, userID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart")
			}
		}

		items := make([]models.CartItem, 0, len(input.Items))
		for _, item := range input.Items {
			items = append(items, models.CartItem{
				CartID:    existing.ID,
				ProductID: item.ProductID,
				Qty:       item.Qty,
			})
		}
		if err := repo.ReplaceItems(ctx, existing.ID, items); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "replace cart items")
		}

		existing.Items = items
		record = existing
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.buildView(ctx, record)
}

// buildView reprices every line from the live catalog. Inactive or deleted
// products drop out of the view silently; the cart is never a snapshot.
func (s *service) buildView(ctx context.Context, record *models.CartRecord) (*View, error) {
	view := &View{CartID: record.ID, Items: []PricedItem{}}
	if len(record.Items) == 0 {
		return view, nil
	}

	ids := make([]uuid.UUID, 0, len(record.Items))
	for _, item := range record.Items {
		ids = append(ids, item.ProductID)
	}
	products, err := s.products.FindProductsByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load products")
	}
	byID := make(map[uuid.UUID]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	lines := make([]Line, 0, len(record.Items))
	for _, item := range record.Items {
		product, ok := byID[item.ProductID]
		if !ok || !product.IsActive {
			continue
		}
		tiers := catalog.OfferTiers(product.Offers)
		unitPrice := pricing.PriceForQuantity(tiers, product.MRP, item.Qty)
		qty := decimal.NewFromInt(int64(item.Qty))
		view.Items = append(view.Items, PricedItem{
			ProductID:       product.ID,
			Name:            product.Name,
			Slug:            product.Slug,
			Qty:             item.Qty,
			MRP:             product.MRP,
			UnitPrice:       unitPrice,
			DiscountPercent: pricing.DiscountForQuantity(tiers, item.Qty),
			LineSubtotal:    product.MRP.Mul(qty).Round(2),
			LineTotal:       unitPrice.Mul(qty).Round(2),
			PiecesLeft:      product.PiecesLeft,
		})
		lines = append(lines, Line{MRP: product.MRP, Tiers: tiers, Qty: item.Qty})
	}
	view.Totals = ComputeTotals(lines)
	return view, nil
}
