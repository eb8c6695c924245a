package reviews

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

const maxNameLen = 255

// Service manages reviews nested under a product.
type Service interface {
	List(ctx context.Context, productID uuid.UUID) ([]ReviewDTO, error)
	Get(ctx context.Context, productID, reviewID uuid.UUID) (*ReviewDTO, error)
	Create(ctx context.Context, productID uuid.UUID, input ReviewInput) (*ReviewDTO, error)
	Update(ctx context.Context, productID, reviewID uuid.UUID, input ReviewInput) (*ReviewDTO, error)
	Delete(ctx context.Context, productID, reviewID uuid.UUID) error
}

type service struct {
	repo *Repository
}

func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("review repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context, productID uuid.UUID) ([]ReviewDTO, error) {
	if err := s.requireProduct(ctx, productID); err != nil {
		return nil, err
	}
	rows, err := s.repo.ListForProduct(ctx, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list reviews")
	}
	out := make([]ReviewDTO, 0, len(rows))
	for i := range rows {
		out = append(out, fromModel(&rows[i]))
	}
	return out, nil
}

func (s *service) Get(ctx context.Context, productID, reviewID uuid.UUID) (*ReviewDTO, error) {
	review, err := s.load(ctx, productID, reviewID)
	if err != nil {
		return nil, err
	}
	dto := fromModel(review)
	return &dto, nil
}

func (s *service) Create(ctx context.Context, productID uuid.UUID, input ReviewInput) (*ReviewDTO, error) {
	if err := s.requireProduct(ctx, productID); err != nil {
		return nil, err
	}
	review := &models.Review{ProductID: productID}
	apply(review, input)
	if err := validate(review); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, review); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert review")
	}
	dto := fromModel(review)
	return &dto, nil
}

func (s *service) Update(ctx context.Context, productID, reviewID uuid.UUID, input ReviewInput) (*ReviewDTO, error) {
	review, err := s.load(ctx, productID, reviewID)
	if err != nil {
		return nil, err
	}
	apply(review, input)
	if err := validate(review); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, review); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update review")
	}
	dto := fromModel(review)
	return &dto, nil
}

func (s *service) Delete(ctx context.Context, productID, reviewID uuid.UUID) error {
	if _, err := s.load(ctx, productID, reviewID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, reviewID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete review")
	}
	return nil
}

func (s *service) requireProduct(ctx context.Context, productID uuid.UUID) error {
	ok, err := s.repo.ProductExists(ctx, productID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return nil
}

func (s *service) load(ctx context.Context, productID, reviewID uuid.UUID) (*models.Review, error) {
	if err := s.requireProduct(ctx, productID); err != nil {
		return nil, err
	}
	review, err := s.repo.FindForProduct(ctx, productID, reviewID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "review not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load review")
	}
	return review, nil
}

func apply(review *models.Review, input ReviewInput) {
	if input.Name != nil {
		review.Name = strings.TrimSpace(*input.Name)
	}
	if input.Description != nil {
		review.Description = strings.TrimSpace(*input.Description)
	}
}

func validate(review *models.Review) error {
	fields := map[string]string{}
	switch {
	case review.Name == "":
		fields["name"] = "This field may not be blank."
	case utf8.RuneCountInString(review.Name) > maxNameLen:
		fields["name"] = "Ensure this field has no more than 255 characters."
	}
	if review.Description == "" {
		fields["description"] = "This field may not be blank."
	}
	if len(fields) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid review").WithDetails(fields)
	}
	return nil
}
