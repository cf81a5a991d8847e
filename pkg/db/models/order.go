package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/localkart/localkart-backend/pkg/enums"
)

// Order is the fulfillment aggregate created at checkout. Money totals are
// frozen at creation; only quantities move during a partial edit. The OTP
// never serializes into API responses.
type Order struct {
	ID              uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderNumber     string            `gorm:"column:order_number;not null;uniqueIndex" json:"order_number"`
	UserID          uuid.UUID         `gorm:"column:user_id;type:uuid;not null;index" json:"user_id"`
	Status          enums.OrderStatus `gorm:"column:status;not null;default:'pending'" json:"status"`
	OTP             string            `gorm:"column:otp;not null" json:"-"`
	OTPVerified     bool              `gorm:"column:otp_verified;not null;default:false" json:"otp_verified"`
	Subtotal        decimal.Decimal   `gorm:"column:subtotal;type:numeric(12,2);not null" json:"subtotal"`
	Discount        decimal.Decimal   `gorm:"column:discount;type:numeric(12,2);not null" json:"discount"`
	Total           decimal.Decimal   `gorm:"column:total;type:numeric(12,2);not null" json:"total"`
	DeliveryName    string            `gorm:"column:delivery_name;not null" json:"delivery_name"`
	DeliveryPhone   string            `gorm:"column:delivery_phone;not null" json:"delivery_phone"`
	DeliveryAddress string            `gorm:"column:delivery_address;not null" json:"delivery_address"`
	Items           []OrderItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt       time.Time         `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time         `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
