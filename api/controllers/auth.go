package controllers

import (
	"net/http"

	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	"github.com/angelmondragon/storefront-backend/internal/auth"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// AuthLogin exchanges credentials for an access and refresh token pair.
func AuthLogin(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return endpoint(svc, "auth", logg, func(w http.ResponseWriter, r *http.Request) error {
		var creds auth.LoginRequest
		if err := validators.DecodeJSONBody(r, &creds); err != nil {
			return err
		}
		tokens, err := svc.Login(r.Context(), creds)
		if err != nil {
			return err
		}
		responses.WriteSuccess(w, tokens)
		return nil
	})
}

// AuthRegister creates a user and its customer profile, then signs the user in.
func AuthRegister(reg auth.RegisterService, svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return signUp(reg, svc, logg)
}

// AdminAuthRegister creates a staff user. It is only routed outside production.
func AdminAuthRegister(reg auth.RegisterService, svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return signUp(reg, svc, logg)
}

func signUp(reg auth.RegisterService, svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	if reg == nil {
		svc = nil
	}
	return endpoint(svc, "auth", logg, func(w http.ResponseWriter, r *http.Request) error {
		var body auth.RegisterRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			return err
		}
		if _, err := reg.Register(r.Context(), body); err != nil {
			return err
		}
		tokens, err := svc.Login(r.Context(), auth.LoginRequest{Email: body.Email, Password: body.Password})
		if err != nil {
			return err
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, tokens)
		return nil
	})
}
