package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/localkart/localkart-backend/internal/catalog"
	"github.com/localkart/localkart-backend/pkg/db/models"
	"github.com/localkart/localkart-backend/pkg/enums"
	pkgerrors "github.com/localkart/localkart-backend/pkg/errors"
	"github.com/localkart/localkart-backend/pkg/metrics"
	"github.com/localkart/localkart-backend/pkg/pagination"
	"github.com/localkart/localkart-backend/pkg/security"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes order reads plus the admin fulfillment operations.
type Service interface {
	ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*List, error)
	GetForUser(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error)

	ListAdmin(ctx context.Context, params pagination.Params, filters ListFilters) (*List, error)
	GetAdmin(ctx context.Context, orderID uuid.UUID) (*AdminDetail, error)

	SetStatus(ctx context.Context, orderID uuid.UUID, input StatusInput) (*models.Order, error)
	VerifyOTP(ctx context.Context, orderID uuid.UUID, input VerifyOTPInput) (*models.Order, error)
	EditItems(ctx context.Context, orderID uuid.UUID, input EditItemsInput) (*models.Order, error)
}

type service struct {
	repo     Repository
	products catalog.Repository
	tx       txRunner
	metrics  *metrics.OrderMetrics
}

// NewService builds an orders service with the required dependencies.
// Metrics may be nil.
func NewService(repo Repository, products catalog.Repository, tx txRunner, m *metrics.OrderMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, products: products, tx: tx, metrics: m}, nil
}

func (s *service) ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*List, error) {
	rows, err := s.repo.ListByUser(ctx, userID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return pageOf(rows, params), nil
}

func (s *service) GetForUser(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByIDForUser(ctx, orderID, userID)
	if err != nil {
		return nil, notFoundOr(err, "order not found", "load order")
	}
	return order, nil
}

func (s *service) ListAdmin(ctx context.Context, params pagination.Params, filters ListFilters) (*List, error) {
	rows, err := s.repo.List(ctx, params, filters.Status)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return pageOf(rows, params), nil
}

func (s *service) GetAdmin(ctx context.Context, orderID uuid.UUID) (*AdminDetail, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, notFoundOr(err, "order not found", "load order")
	}
	return &AdminDetail{Order: *order, OTP: order.OTP}, nil
}

// SetStatus moves an order along the fulfillment state machine. Delivered is
// unreachable here; only VerifyOTP can produce it. Cancelling or failing an
// order returns its remaining quantities to tracked stock.
func (s *service) SetStatus(ctx context.Context, orderID uuid.UUID, input StatusInput) (*models.Order, error) {
	next, err := enums.ParseOrderStatus(input.Status)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown order status").
			WithDetails(map[string]string{"status": input.Status})
	}

	var from enums.OrderStatus
	txErr := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByID(ctx, orderID)
		if err != nil {
			return notFoundOr(err, "order not found", "load order")
		}
		from = order.Status

		if order.Status.RequiresOTP(next) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "delivered requires otp verification").
				WithDetails(map[string]string{"from": order.Status.String(), "to": next.String()})
		}
		if !order.Status.CanTransitionTo(next) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "status transition disallowed").
				WithDetails(map[string]string{"from": order.Status.String(), "to": next.String()})
		}

		if next == enums.OrderStatusCancelled || next == enums.OrderStatusFailed {
			if err := s.restock(ctx, tx, order); err != nil {
				return err
			}
		}
		if err := repo.UpdateOrder(ctx, orderID, map[string]any{"status": next}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	s.metrics.IncTransition(from.String(), next.String())
	return s.reload(ctx, orderID)
}

// VerifyOTP confirms delivery. The order must be shipped or partial and the
// code must match; verification is one-shot.
func (s *service) VerifyOTP(ctx context.Context, orderID uuid.UUID, input VerifyOTPInput) (*models.Order, error) {
	var from enums.OrderStatus
	txErr := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByID(ctx, orderID)
		if err != nil {
			return notFoundOr(err, "order not found", "load order")
		}
		from = order.Status

		eligible := (order.Status == enums.OrderStatusShipped || order.Status == enums.OrderStatusPartial) &&
			!order.OTPVerified
		if !eligible {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order is not awaiting delivery confirmation").
				WithDetails(map[string]string{"status": order.Status.String()})
		}
		if !security.VerifyOTP(order.OTP, input.OTP) {
			s.metrics.IncOTPFailure()
			return pkgerrors.New(pkgerrors.CodeOtpMismatch, "otp does not match")
		}

		updates := map[string]any{
			"status":       enums.OrderStatusDelivered,
			"otp_verified": true,
		}
		if err := repo.UpdateOrder(ctx, orderID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark order delivered")
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	s.metrics.IncTransition(from.String(), enums.OrderStatusDelivered.String())
	s.metrics.IncDelivery()
	return s.reload(ctx, orderID)
}

// EditItems applies partial fulfillment quantity reductions. Quantities only
// go down, lines reduced to zero stay on the order, and the total is
// recomputed from the frozen unit prices. Subtotal and discount keep their
// checkout values as the historical record of what was ordered.
func (s *service) EditItems(ctx context.Context, orderID uuid.UUID, input EditItemsInput) (*models.Order, error) {
	txErr := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByID(ctx, orderID)
		if err != nil {
			return notFoundOr(err, "order not found", "load order")
		}

		if order.Status != enums.OrderStatusPartial || order.OTPVerified {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order is not open for quantity edits").
				WithDetails(map[string]string{"status": order.Status.String()})
		}

		byID := make(map[uuid.UUID]*models.OrderItem, len(order.Items))
		for i := range order.Items {
			byID[order.Items[i].ID] = &order.Items[i]
		}

		changed := false
		targets := make(map[uuid.UUID]int, len(input.Items))
		for _, edit := range input.Items {
			item, ok := byID[edit.ItemID]
			if !ok {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order item not found").
					WithDetails(map[string]string{"item_id": edit.ItemID.String()})
			}
			if edit.Qty < 0 || edit.Qty > item.Qty {
				return pkgerrors.New(pkgerrors.CodeValidation, "quantity can only be reduced").
					WithDetails(map[string]any{
						"item_id": edit.ItemID.String(),
						"qty":     edit.Qty,
						"max":     item.Qty,
					})
			}
			if _, dup := targets[edit.ItemID]; dup {
				return pkgerrors.New(pkgerrors.CodeValidation, "duplicate item in edit").
					WithDetails(map[string]string{"item_id": edit.ItemID.String()})
			}
			targets[edit.ItemID] = edit.Qty
			if edit.Qty != item.Qty {
				changed = true
			}
		}
		if !changed {
			return pkgerrors.New(pkgerrors.CodeNoChanges, "quantities already match")
		}

		total := decimal.Zero
		for i := range order.Items {
			item := &order.Items[i]
			qty := item.Qty
			if target, ok := targets[item.ID]; ok && target != qty {
				if err := repo.UpdateItemQty(ctx, item.ID, target); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update item quantity")
				}
				qty = target
			}
			total = total.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(qty))))
		}

		if err := repo.UpdateOrder(ctx, orderID, map[string]any{"total": total.Round(2)}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order total")
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	s.metrics.IncPartialEdit()
	return s.reload(ctx, orderID)
}

// restock returns remaining line quantities to products that track stock.
func (s *service) restock(ctx context.Context, tx *gorm.DB, order *models.Order) error {
	products := s.products.WithTx(tx)
	for _, item := range order.Items {
		if item.Qty <= 0 {
			continue
		}
		if err := products.AdjustStock(ctx, item.ProductID, item.Qty); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "restore stock")
		}
	}
	return nil
}

func (s *service) reload(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload order")
	}
	return order, nil
}

func pageOf(rows []models.Order, params pagination.Params) *List {
	limit := pagination.NormalizeLimit(params.Limit)
	list := &List{Orders: rows}
	if len(rows) > limit {
		list.Orders = rows[:limit]
		last := list.Orders[limit-1]
		list.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	if list.Orders == nil {
		list.Orders = []models.Order{}
	}
	return list
}

func notFoundOr(err error, notFoundMsg, depMsg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, notFoundMsg)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, depMsg)
}
