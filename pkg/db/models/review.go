package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Review is free text feedback left on a product.
type Review struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	ProductID   uuid.UUID `gorm:"column:product_id;type:uuid;not null;index"`
	Product     *Product  `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	Name        string    `gorm:"column:name;type:varchar(255);not null"`
	Description string    `gorm:"column:description;type:text;not null"`
	Date        time.Time `gorm:"column:date;autoCreateTime"`
}

func (r *Review) BeforeCreate(*gorm.DB) error {
	ensureID(&r.ID)
	return nil
}
