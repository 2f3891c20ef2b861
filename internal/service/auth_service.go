package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"

	"firepoz-backend/internal/apperr"
	"firepoz-backend/internal/db"
	"firepoz-backend/internal/domain"
	"firepoz-backend/internal/repository"
)

const invalidCredentials = "invalid credentials"

// AuthService checks user credentials. Passwords are compared as stored.
type AuthService struct {
	Stores StoreProvider
	Logger *slog.Logger
}

type LoginInput struct {
	Name     string `json:"name" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Authenticate returns the user whose name and password match.
func (s AuthService) Authenticate(ctx context.Context, in LoginInput) (*domain.User, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	st, err := openStore(ctx, s.Stores)
	if err != nil {
		return nil, err
	}
	u, err := repository.UserRepository{DB: st.DB}.GetByName(ctx, in.Name)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.Authentication(invalidCredentials)
		}
		return nil, apperr.Storage(err, "lookup user")
	}
	if !passwordMatches(u.Password, in.Password) {
		loggerOr(s.Logger).Info("login rejected", "user", in.Name)
		return nil, apperr.Authentication(invalidCredentials)
	}
	return u, nil
}

// verifyUser checks password against the user with the given id.
func verifyUser(ctx context.Context, q db.Querier, userID int64, password string) (*domain.User, error) {
	u, err := repository.UserRepository{DB: q}.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.Authentication(invalidCredentials)
		}
		return nil, apperr.Storage(err, "lookup user")
	}
	if !passwordMatches(u.Password, password) {
		return nil, apperr.Authentication(invalidCredentials)
	}
	return u, nil
}

func passwordMatches(stored, given string) bool {
	return subtle.ConstantTimeCompare([]byte(stored), []byte(given)) == 1
}
