package auth

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/customers"
	"github.com/angelmondragon/storefront-backend/internal/users"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/security"
)

const minPasswordLen = 8

var errEmailTaken = pkgerrors.New(pkgerrors.CodeConflict, "email already registered")

// RegisterRequest is the sign up payload.
type RegisterRequest struct {
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
}

type RegisterService interface {
	Register(ctx context.Context, req RegisterRequest) (*users.UserDTO, error)
}

// Signup creates a user and its bronze customer profile in one transaction.
type Signup struct {
	db        *db.Client
	passwords config.PasswordConfig
	grant     users.CreateUserDTO
}

func NewSignup(client *db.Client, passwords config.PasswordConfig) (*Signup, error) {
	if client == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "database client required")
	}
	return &Signup{db: client, passwords: passwords}, nil
}

// Staff is a copy of s whose accounts are staff holding view_history.
func (s *Signup) Staff() *Signup {
	staff := *s
	staff.grant = users.CreateUserDTO{
		IsStaff:     true,
		Permissions: []string{enums.PermissionViewHistory.String()},
	}
	return &staff
}

func (s *Signup) Register(ctx context.Context, req RegisterRequest) (*users.UserDTO, error) {
	account, err := s.account(req)
	if err != nil {
		return nil, err
	}

	var out *users.UserDTO
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		people := users.NewRepository(tx)
		switch _, err := people.FindByEmail(ctx, account.Email); {
		case err == nil:
			return errEmailTaken
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check user email")
		}

		user, err := people.Create(ctx, account)
		if db.IsUniqueViolation(err, "") {
			return errEmailTaken
		}
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
		}
		if _, err := customers.NewRepository(tx).GetOrCreateForUser(ctx, user.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create customer")
		}
		out = users.FromModel(user)
		return nil
	})
	return out, err
}

// account validates req and hashes its password into the row to insert.
func (s *Signup) account(req RegisterRequest) (users.CreateUserDTO, error) {
	account := s.grant
	account.Email = users.NormalizeEmail(req.Email)
	if account.Email == "" {
		return account, pkgerrors.Field("email", "This field may not be blank.")
	}
	if len(req.Password) < minPasswordLen {
		return account, pkgerrors.Field("password", "Ensure this field has at least 8 characters.")
	}
	var err error
	if account.FirstName, account.LastName, err = requireNames(req.FirstName, req.LastName); err != nil {
		return account, err
	}
	if account.PasswordHash, err = security.HashPassword(req.Password, s.passwords); err != nil {
		return account, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	return account, nil
}
