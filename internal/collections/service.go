package collections

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

const (
	maxTitleLen = 255

	// ProtectedMessage is returned when products still reference the collection.
	ProtectedMessage = "Collection cannot be deleted because it is associated with a product."
)

// Service manages catalog collections.
type Service interface {
	List(ctx context.Context) ([]CollectionDTO, error)
	Get(ctx context.Context, id uuid.UUID) (*CollectionDTO, error)
	Create(ctx context.Context, input CollectionInput) (*CollectionDTO, error)
	Update(ctx context.Context, id uuid.UUID, input CollectionInput) (*CollectionDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo *Repository
}

func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("collection repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context) ([]CollectionDTO, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list collections")
	}
	out := make([]CollectionDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, fromRow(row))
	}
	return out, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*CollectionDTO, error) {
	row, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "collection not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load collection")
	}
	dto := fromRow(*row)
	return &dto, nil
}

func (s *service) Create(ctx context.Context, input CollectionInput) (*CollectionDTO, error) {
	title, err := validateTitle(input.Title)
	if err != nil {
		return nil, err
	}
	collection := &models.Collection{Title: title}
	if err := s.repo.Create(ctx, collection); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert collection")
	}
	return &CollectionDTO{
		ID:        collection.ID,
		Title:     collection.Title,
		CreatedAt: collection.CreatedAt,
		UpdatedAt: collection.UpdatedAt,
	}, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input CollectionInput) (*CollectionDTO, error) {
	title, err := validateTitle(input.Title)
	if err != nil {
		return nil, err
	}
	collection, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "collection not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load collection")
	}
	collection.Title = title
	if err := s.repo.Save(ctx, collection); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update collection")
	}
	return s.Get(ctx, id)
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "collection not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load collection")
	}

	count, err := s.repo.CountProducts(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count collection products")
	}
	if count > 0 {
		return pkgerrors.New(pkgerrors.CodeProtected, ProtectedMessage)
	}

	if _, err := s.repo.Delete(ctx, id); err != nil {
		if db.IsForeignKeyViolation(err) {
			return pkgerrors.Wrap(pkgerrors.CodeProtected, err, ProtectedMessage)
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete collection")
	}
	return nil
}

func validateTitle(raw string) (string, error) {
	title := strings.TrimSpace(raw)
	if title == "" {
		return "", pkgerrors.Field("title", "This field may not be blank.")
	}
	if utf8.RuneCountInString(title) > maxTitleLen {
		return "", pkgerrors.Field("title", "Ensure this field has no more than 255 characters.")
	}
	return title, nil
}
