// Package service holds the business operations of the point of sale. Every
// service resolves the store through a StoreProvider on each call and hands
// the store to a Persister after each successful mutation.
package service

import (
	"context"
	stderrors "errors"
	"log/slog"
	"reflect"
	"strings"

	"firepoz-backend/internal/apperr"
	"firepoz-backend/internal/db"
	"firepoz-backend/internal/repository"
	"github.com/go-playground/validator/v10"
)

// StoreProvider returns the current store handle.
type StoreProvider interface {
	Get(ctx context.Context) (*db.Store, error)
}

// Persister saves a store image. Any error it returns is a durability
// warning: the mutation has already committed.
type Persister interface {
	Persist(ctx context.Context, src db.Exporter) error
}

// Mutation is the outcome of an add, modify or delete.
type Mutation struct {
	ID        int64
	Generated map[string]string
	Changed   bool
	Warning   string
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// validateInput runs the struct tags of in and reports the first failure.
func validateInput(in any) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) || len(verrs) == 0 {
		return apperr.Validation("invalid input: %v", err)
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return apperr.Validation("%s is required", fe.Field())
	case "gte", "min":
		return apperr.Validation("%s must not be negative", fe.Field())
	case "gt":
		return apperr.Validation("%s must be positive", fe.Field())
	case "oneof":
		return apperr.Validation("%s must be one of %s", fe.Field(), fe.Param())
	}
	return apperr.Validation("%s is invalid", fe.Field())
}

func openStore(ctx context.Context, p StoreProvider) (*db.Store, error) {
	st, err := p.Get(ctx)
	if err != nil {
		if apperr.KindOf(err) != "" {
			return nil, err
		}
		return nil, apperr.StorageUnavailable(err, "store unavailable")
	}
	return st, nil
}

// persistAfter saves the store and returns the warning text, if any.
func persistAfter(ctx context.Context, p Persister, st *db.Store, logger *slog.Logger) string {
	if p == nil {
		return ""
	}
	if err := p.Persist(ctx, st); err != nil {
		loggerOr(logger).Warn("mutation committed but not persisted", "err", err)
		return err.Error()
	}
	return ""
}

// notFoundOr maps repository.ErrNotFound to a NotFound error and anything
// else to a storage error.
func notFoundOr(err error, what string, id int64) error {
	if stderrors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound("%s %d not found", what, id)
	}
	return apperr.Storage(err, what+" lookup failed")
}

func loggerOr(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}
