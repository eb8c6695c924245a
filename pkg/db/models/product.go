package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product is a sellable catalog entry.
type Product struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	Title        string          `gorm:"column:title;type:varchar(255);not null"`
	Slug         string          `gorm:"column:slug;type:varchar(255);not null;index"`
	Description  string          `gorm:"column:description;type:text;not null;default:''"`
	UnitPrice    decimal.Decimal `gorm:"column:unit_price;type:numeric(6,2);not null"`
	Inventory    int             `gorm:"column:inventory;not null"`
	CollectionID uuid.UUID       `gorm:"column:collection_id;type:uuid;not null;index"`
	Collection   *Collection     `gorm:"foreignKey:CollectionID;constraint:OnDelete:RESTRICT"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
	LastUpdate   time.Time       `gorm:"column:last_update;autoUpdateTime"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	return nil
}
