package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type ProductStatus string

const (
	ProductDraft    ProductStatus = "draft"
	ProductActive   ProductStatus = "active"
	ProductInactive ProductStatus = "inactive"
	ProductArchived ProductStatus = "archived"
)

func (s ProductStatus) Valid() bool {
	switch s {
	case ProductDraft, ProductActive, ProductInactive, ProductArchived:
		return true
	}
	return false
}

// Category is a node of the catalog tree.
type Category struct {
	ID        uint64    `json:"id" gorm:"primaryKey;autoIncrement"`
	ParentID  *uint64   `json:"parentId,omitempty" gorm:"index"`
	Name      string    `json:"name" gorm:"size:120;not null"`
	Slug      string    `json:"slug" gorm:"size:140;uniqueIndex;not null"`
	SortOrder int       `json:"sortOrder" gorm:"not null;default:0"`
	CreatedAt time.Time `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updatedAt" gorm:"autoUpdateTime"`
}

// Product stock may only go below zero when AllowBackorder is set.
type Product struct {
	ID             uint64           `json:"id" gorm:"primaryKey;autoIncrement"`
	CategoryID     *uint64          `json:"categoryId,omitempty" gorm:"index"`
	Name           string           `json:"name" gorm:"size:255;not null"`
	Slug           string           `json:"slug" gorm:"size:255;uniqueIndex;not null"`
	Description    string           `json:"description,omitempty" gorm:"type:text"`
	SKU            string           `json:"sku" gorm:"size:64;uniqueIndex;not null"`
	Price          decimal.Decimal  `json:"price" gorm:"type:decimal(12,3);not null"`
	CompareAtPrice *decimal.Decimal `json:"compareAtPrice,omitempty" gorm:"type:decimal(12,3)"`
	CostPrice      *decimal.Decimal `json:"costPrice,omitempty" gorm:"type:decimal(12,3)"`
	StockQuantity  int              `json:"stockQuantity" gorm:"not null;default:0"`
	TrackInventory bool             `json:"trackInventory" gorm:"not null;default:true"`
	AllowBackorder bool             `json:"allowBackorder" gorm:"not null;default:false"`
	Status         ProductStatus    `json:"status" gorm:"size:20;not null;index"`
	ImageURL       string           `json:"imageUrl,omitempty" gorm:"size:512"`
	Variants       []ProductVariant `json:"variants,omitempty" gorm:"foreignKey:ProductID"`
	CreatedAt      time.Time        `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt      time.Time        `json:"updatedAt" gorm:"autoUpdateTime"`
}

// Purchasable reports whether the product can be put in a new order.
func (p *Product) Purchasable() bool {
	return p.Status == ProductActive
}

type ProductVariant struct {
	ID            uint64           `json:"id" gorm:"primaryKey;autoIncrement"`
	ProductID     uint64           `json:"productId" gorm:"not null;index"`
	Name          string           `json:"name" gorm:"size:255;not null"`
	SKU           string           `json:"sku" gorm:"size:64;uniqueIndex;not null"`
	Price         *decimal.Decimal `json:"price,omitempty" gorm:"type:decimal(12,3)"`
	StockQuantity int              `json:"stockQuantity" gorm:"not null;default:0"`
	CreatedAt     time.Time        `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt     time.Time        `json:"updatedAt" gorm:"autoUpdateTime"`
}

// EffectivePrice falls back to the product price when the variant has no
// override.
func (v *ProductVariant) EffectivePrice(p *Product) decimal.Decimal {
	if v.Price != nil {
		return *v.Price
	}
	return p.Price
}
