package service

import (
	"context"
	"log/slog"

	"firepoz-backend/internal/apperr"
	"firepoz-backend/internal/domain"
	"firepoz-backend/internal/repository"
)

type CategoryInput struct {
	Description string `json:"description" validate:"required"`
}

type CategoryService struct {
	Stores  StoreProvider
	Persist Persister
	Logger  *slog.Logger
}

func (s CategoryService) List(ctx context.Context) ([]domain.Category, error) {
	st, err := openStore(ctx, s.Stores)
	if err != nil {
		return nil, err
	}
	items, err := repository.CategoryRepository{DB: st.DB}.List(ctx)
	if err != nil {
		return nil, apperr.Storage(err, "list categories")
	}
	return items, nil
}

func (s CategoryService) Add(ctx context.Context, in CategoryInput) (*Mutation, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	st, err := openStore(ctx, s.Stores)
	if err != nil {
		return nil, err
	}
	id, err := repository.CategoryRepository{DB: st.DB}.Create(ctx, in.Description)
	if err != nil {
		return nil, apperr.Storage(err, "create category")
	}
	return &Mutation{ID: id, Changed: true, Warning: persistAfter(ctx, s.Persist, st, s.Logger)}, nil
}

func (s CategoryService) Modify(ctx context.Context, id int64, in CategoryInput) (*Mutation, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	st, err := openStore(ctx, s.Stores)
	if err != nil {
		return nil, err
	}
	if err := (repository.CategoryRepository{DB: st.DB}).Update(ctx, domain.Category{ID: id, Description: in.Description}); err != nil {
		return nil, notFoundOr(err, "category", id)
	}
	return &Mutation{ID: id, Changed: true, Warning: persistAfter(ctx, s.Persist, st, s.Logger)}, nil
}

// Delete removes a category no product points to.
func (s CategoryService) Delete(ctx context.Context, id int64) (*Mutation, error) {
	st, err := openStore(ctx, s.Stores)
	if err != nil {
		return nil, err
	}
	repo := repository.CategoryRepository{DB: st.DB}
	used, err := repo.InUse(ctx, id)
	if err != nil {
		return nil, apperr.Storage(err, "check category usage")
	}
	if used {
		return nil, apperr.Conflict("category %d is in use", id)
	}
	if err := repo.Delete(ctx, id); err != nil {
		return nil, notFoundOr(err, "category", id)
	}
	return &Mutation{ID: id, Changed: true, Warning: persistAfter(ctx, s.Persist, st, s.Logger)}, nil
}
