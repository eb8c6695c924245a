package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Collection groups products for browsing.
type Collection struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Title     string    `gorm:"column:title;type:varchar(255);not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *Collection) BeforeCreate(*gorm.DB) error {
	ensureID(&c.ID)
	return nil
}
