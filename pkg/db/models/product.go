package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// Product represents a storefront listing. MRP is immutable after creation;
// effective unit prices come from the offer table.
type Product struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BrandID     uuid.UUID       `gorm:"column:brand_id;type:uuid;not null"`
	Name        string          `gorm:"column:name;not null"`
	Slug        string          `gorm:"column:slug;not null;uniqueIndex"`
	Description *string         `gorm:"column:description"`
	Tags        pq.StringArray  `gorm:"column:tags;type:text[];not null;default:ARRAY[]::text[]"`
	MRP         decimal.Decimal `gorm:"column:mrp;type:numeric(12,2);not null"`
	PiecesLeft  *int            `gorm:"column:pieces_left"`
	IsActive    bool            `gorm:"column:is_active;not null;default:true"`
	Brand       *Brand          `gorm:"foreignKey:BrandID"`
	Offers      []ProductOffer  `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
