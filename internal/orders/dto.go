package orders

import (
	"github.com/google/uuid"

	"github.com/localkart/localkart-backend/pkg/db/models"
	"github.com/localkart/localkart-backend/pkg/enums"
)

// StatusInput carries the admin status transition payload.
type StatusInput struct {
	Status string `json:"status" validate:"required"`
}

// VerifyOTPInput carries the delivery confirmation code.
type VerifyOTPInput struct {
	OTP string `json:"otp" validate:"required,min=4,max=10"`
}

// ItemEdit reduces one line's quantity during partial fulfillment. Zero keeps
// the line on the order as an unfulfilled record.
type ItemEdit struct {
	ItemID uuid.UUID `json:"item_id" validate:"required"`
	Qty    int       `json:"qty" validate:"min=0"`
}

// EditItemsInput is the partial fulfillment quantity edit payload.
type EditItemsInput struct {
	Items []ItemEdit `json:"items" validate:"required,min=1,max=100,dive"`
}

// ListFilters narrows the admin order list.
type ListFilters struct {
	Status *enums.OrderStatus
}

// List wraps a page of orders plus the next page cursor.
type List struct {
	Orders     []models.Order `json:"orders"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

// AdminDetail is the admin projection. It is the only surface that exposes
// the delivery OTP.
type AdminDetail struct {
	models.Order
	OTP string `json:"otp"`
}
