package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

// Customer is the purchasing profile bound one to one to a user.
type Customer struct {
	ID         uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	UserID     uuid.UUID            `gorm:"column:user_id;type:uuid;not null;uniqueIndex"`
	User       *User                `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Phone      string               `gorm:"column:phone;type:varchar(255);not null;default:''"`
	BirthDate  types.Date           `gorm:"column:birth_date;type:date"`
	Membership enums.MembershipTier `gorm:"column:membership;type:varchar(1);not null;default:'B'"`
}

func (c *Customer) BeforeCreate(*gorm.DB) error {
	ensureID(&c.ID)
	if c.Membership == "" {
		c.Membership = enums.MembershipBronze
	}
	return nil
}
