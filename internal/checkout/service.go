package checkout

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/localkart/localkart-backend/internal/cart"
	"github.com/localkart/localkart-backend/internal/catalog"
	"github.com/localkart/localkart-backend/internal/orders"
	"github.com/localkart/localkart-backend/internal/pricing"
	"github.com/localkart/localkart-backend/pkg/db/models"
	"github.com/localkart/localkart-backend/pkg/enums"
	pkgerrors "github.com/localkart/localkart-backend/pkg/errors"
	"github.com/localkart/localkart-backend/pkg/metrics"
	"github.com/localkart/localkart-backend/pkg/security"
)

const otpDigits = 6

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service converts the active cart into a pending order.
type Service interface {
	Execute(ctx context.Context, userID uuid.UUID, input Input) (*models.Order, error)
}

type service struct {
	carts    cart.Repository
	products catalog.Repository
	orders   orders.Repository
	tx       txRunner
	metrics  *metrics.OrderMetrics
}

// NewService builds a checkout service with the required dependencies.
// Metrics may be nil.
func NewService(carts cart.Repository, products catalog.Repository, ordersRepo orders.Repository, tx txRunner, m *metrics.OrderMetrics) (Service, error) {
	if carts == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if ordersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{carts: carts, products: products, orders: ordersRepo, tx: tx, metrics: m}, nil
}

// Execute freezes the cart into an order in a single transaction: prices and
// names snapshot from the current catalog, tracked stock decrements, a
// delivery OTP is minted and the cart converts. Any failure rolls the whole
// checkout back.
func (s *service) Execute(ctx context.Context, userID uuid.UUID, input Input) (*models.Order, error) {
	otp, err := security.GenerateOTP(otpDigits)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint delivery otp")
	}
	number, err := newOrderNumber(time.Now().UTC())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint order number")
	}

	var order *models.Order
	txErr := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		carts := s.carts.WithTx(tx)
		products := s.products.WithTx(tx)
		ordersRepo := s.orders.WithTx(tx)

		record, err := carts.FindActiveByUser(ctx, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeValidation, "no active cart to check out")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
		}
		if len(record.Items) == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
		}

		ids := make([]uuid.UUID, 0, len(record.Items))
		for _, item := range record.Items {
			ids = append(ids, item.ProductID)
		}
		loaded, err := products.FindProductsByIDs(ctx, ids)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load products")
		}
		byID := make(map[uuid.UUID]models.Product, len(loaded))
		for _, p := range loaded {
			byID[p.ID] = p
		}

		lines := make([]cart.Line, 0, len(record.Items))
		items := make([]models.OrderItem, 0, len(record.Items))
		for _, item := range record.Items {
			product, ok := byID[item.ProductID]
			if !ok || !product.IsActive {
				return pkgerrors.New(pkgerrors.CodeNotFound, "product no longer available").
					WithDetails(map[string]string{"product_id": item.ProductID.String()})
			}
			if product.PiecesLeft != nil && *product.PiecesLeft < item.Qty {
				return pkgerrors.New(pkgerrors.CodeConflict, "insufficient stock").
					WithDetails(map[string]any{
						"product_id":  product.ID.String(),
						"requested":   item.Qty,
						"pieces_left": *product.PiecesLeft,
					})
			}

			tiers := catalog.OfferTiers(product.Offers)
			items = append(items, models.OrderItem{
				ProductID: product.ID,
				Name:      product.Name,
				UnitPrice: pricing.PriceForQuantity(tiers, product.MRP, item.Qty),
				Qty:       item.Qty,
			})
			lines = append(lines, cart.Line{MRP: product.MRP, Tiers: tiers, Qty: item.Qty})

			if product.PiecesLeft != nil {
				if err := products.AdjustStock(ctx, product.ID, -item.Qty); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decrement stock")
				}
			}
		}

		totals := cart.ComputeTotals(lines)
		order = &models.Order{
			OrderNumber:     number,
			UserID:          userID,
			Status:          enums.OrderStatusPending,
			OTP:             otp,
			Subtotal:        totals.Subtotal,
			Discount:        totals.Discount,
			Total:           totals.Total,
			DeliveryName:    strings.TrimSpace(input.DeliveryName),
			DeliveryPhone:   strings.TrimSpace(input.DeliveryPhone),
			DeliveryAddress: strings.TrimSpace(input.DeliveryAddress),
			Items:           items,
		}
		if _, err := ordersRepo.Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}
		if err := carts.MarkConverted(ctx, record.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "convert cart")
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	s.metrics.IncCheckout()
	return order, nil
}

// newOrderNumber mints a human-readable reference like LK-20260810-483920.
// Uniqueness is enforced by the orders table; collisions within a day are
// vanishingly rare at this scale.
func newOrderNumber(now time.Time) (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("LK-%s-%06d", now.Format("20060102"), n.Int64()), nil
}
