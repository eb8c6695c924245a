package customers

import (
	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

// CustomerDTO is the customer payload returned to clients.
type CustomerDTO struct {
	ID         uuid.UUID            `json:"id"`
	UserID     uuid.UUID            `json:"user_id"`
	Phone      string               `json:"phone"`
	BirthDate  types.Date           `json:"birth_date"`
	Membership enums.MembershipTier `json:"membership"`
}

// CreateCustomerInput is the staff payload to attach a customer profile to a user.
type CreateCustomerInput struct {
	UserID     uuid.UUID
	Phone      string
	BirthDate  types.Date
	Membership string
}

// UpdateCustomerInput carries optional staff edits. user_id is immutable.
type UpdateCustomerInput struct {
	Phone      *string
	BirthDate  *types.Date
	Membership *string
}

// UpdateMeInput replaces the self-service fields.
type UpdateMeInput struct {
	Phone     string
	BirthDate types.Date
}

func fromModel(c *models.Customer) CustomerDTO {
	return CustomerDTO{
		ID:         c.ID,
		UserID:     c.UserID,
		Phone:      c.Phone,
		BirthDate:  c.BirthDate,
		Membership: c.Membership,
	}
}
