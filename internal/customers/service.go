package customers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

// ProtectedMessage is returned when orders still reference the customer.
const ProtectedMessage = "Customer cannot be deleted because it is associated with an order."

const maxPhoneLen = 255

type historyLister interface {
	ListForCustomer(ctx context.Context, customerID uuid.UUID) ([]orders.OrderDTO, error)
}

// Service manages customer profiles.
type Service interface {
	List(ctx context.Context) ([]CustomerDTO, error)
	Get(ctx context.Context, id uuid.UUID) (*CustomerDTO, error)
	Create(ctx context.Context, input CreateCustomerInput) (*CustomerDTO, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateCustomerInput) (*CustomerDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Me(ctx context.Context, userID uuid.UUID) (*CustomerDTO, error)
	UpdateMe(ctx context.Context, userID uuid.UUID, input UpdateMeInput) (*CustomerDTO, error)
	History(ctx context.Context, id uuid.UUID) ([]orders.OrderDTO, error)
}

type service struct {
	repo    *Repository
	history historyLister
}

func NewService(repo *Repository, history historyLister) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("customer repository required")
	}
	if history == nil {
		return nil, fmt.Errorf("order history lister required")
	}
	return &service{repo: repo, history: history}, nil
}

func (s *service) List(ctx context.Context) ([]CustomerDTO, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list customers")
	}
	out := make([]CustomerDTO, 0, len(rows))
	for i := range rows {
		out = append(out, fromModel(&rows[i]))
	}
	return out, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*CustomerDTO, error) {
	customer, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := fromModel(customer)
	return &dto, nil
}

func (s *service) Create(ctx context.Context, input CreateCustomerInput) (*CustomerDTO, error) {
	fields := map[string]string{}
	if input.UserID == uuid.Nil {
		fields["user_id"] = "This field is required."
	}
	phone := strings.TrimSpace(input.Phone)
	if len(phone) > maxPhoneLen {
		fields["phone"] = "Ensure this field has no more than 255 characters."
	}
	membership := enums.MembershipBronze
	if input.Membership != "" {
		parsed, err := enums.ParseMembershipTier(input.Membership)
		if err != nil {
			fields["membership"] = "must be one of B, S, G"
		}
		membership = parsed
	}
	if len(fields) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid customer").WithDetails(fields)
	}

	ok, err := s.repo.UserExists(ctx, input.UserID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	if !ok {
		return nil, pkgerrors.Field("user_id", "Invalid pk - object does not exist.")
	}
	if _, err := s.repo.FindByUserID(ctx, input.UserID); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "customer already exists for user")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customer")
	}

	customer := &models.Customer{
		UserID:     input.UserID,
		Phone:      phone,
		BirthDate:  input.BirthDate,
		Membership: membership,
	}
	if err := s.repo.Create(ctx, customer); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "customer already exists for user")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert customer")
	}
	dto := fromModel(customer)
	return &dto, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateCustomerInput) (*CustomerDTO, error) {
	customer, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if input.Phone != nil {
		customer.Phone = strings.TrimSpace(*input.Phone)
	}
	if input.BirthDate != nil {
		customer.BirthDate = *input.BirthDate
	}
	if input.Membership != nil {
		membership, err := enums.ParseMembershipTier(*input.Membership)
		if err != nil {
			return nil, pkgerrors.Field("membership", "must be one of B, S, G")
		}
		customer.Membership = membership
	}
	if len(customer.Phone) > maxPhoneLen {
		return nil, pkgerrors.Field("phone", "Ensure this field has no more than 255 characters.")
	}
	if err := s.repo.Save(ctx, customer); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update customer")
	}
	dto := fromModel(customer)
	return &dto, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.load(ctx, id); err != nil {
		return err
	}
	count, err := s.repo.CountOrders(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count customer orders")
	}
	if count > 0 {
		return pkgerrors.New(pkgerrors.CodeProtected, ProtectedMessage)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if db.IsForeignKeyViolation(err) {
			return pkgerrors.Wrap(pkgerrors.CodeProtected, err, ProtectedMessage)
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete customer")
	}
	return nil
}

func (s *service) Me(ctx context.Context, userID uuid.UUID) (*CustomerDTO, error) {
	customer, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errCustomerNotFound()
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customer")
	}
	dto := fromModel(customer)
	return &dto, nil
}

func (s *service) UpdateMe(ctx context.Context, userID uuid.UUID, input UpdateMeInput) (*CustomerDTO, error) {
	customer, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errCustomerNotFound()
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customer")
	}
	phone := strings.TrimSpace(input.Phone)
	if len(phone) > maxPhoneLen {
		return nil, pkgerrors.Field("phone", "Ensure this field has no more than 255 characters.")
	}
	customer.Phone = phone
	customer.BirthDate = input.BirthDate
	if err := s.repo.Save(ctx, customer); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update customer")
	}
	dto := fromModel(customer)
	return &dto, nil
}

func (s *service) History(ctx context.Context, id uuid.UUID) ([]orders.OrderDTO, error) {
	if _, err := s.load(ctx, id); err != nil {
		return nil, err
	}
	return s.history.ListForCustomer(ctx, id)
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	customer, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errCustomerNotFound()
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customer")
	}
	return customer, nil
}

func errCustomerNotFound() error {
	return pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
}
