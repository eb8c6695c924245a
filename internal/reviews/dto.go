package reviews

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// ReviewDTO is the review payload returned to clients.
type ReviewDTO struct {
	ID          uuid.UUID `json:"id"`
	ProductID   uuid.UUID `json:"product_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Date        time.Time `json:"date"`
}

// ReviewInput carries writable review fields. Nil fields are left untouched on partial updates.
type ReviewInput struct {
	Name        *string
	Description *string
}

func fromModel(r *models.Review) ReviewDTO {
	return ReviewDTO{
		ID:          r.ID,
		ProductID:   r.ProductID,
		Name:        r.Name,
		Description: r.Description,
		Date:        r.Date,
	}
}
