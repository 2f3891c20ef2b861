package service

import (
	"context"
	"log/slog"

	"firepoz-backend/internal/apperr"
	"firepoz-backend/internal/domain"
	"firepoz-backend/internal/repository"
)

type UserInput struct {
	Name     string          `json:"name" validate:"required"`
	Password string          `json:"password"`
	Role     domain.UserRole `json:"role" validate:"omitempty,oneof=admin employee"`
}

type UserService struct {
	Stores  StoreProvider
	Persist Persister
	Logger  *slog.Logger
}

func (s UserService) List(ctx context.Context) ([]domain.User, error) {
	st, err := openStore(ctx, s.Stores)
	if err != nil {
		return nil, err
	}
	items, err := repository.UserRepository{DB: st.DB}.List(ctx)
	if err != nil {
		return nil, apperr.Storage(err, "list users")
	}
	return items, nil
}

// Add creates a user. The role defaults to employee and names are unique.
func (s UserService) Add(ctx context.Context, in UserInput) (*Mutation, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if in.Password == "" {
		return nil, apperr.Validation("password is required")
	}
	if in.Role == "" {
		in.Role = domain.RoleEmployee
	}
	st, err := openStore(ctx, s.Stores)
	if err != nil {
		return nil, err
	}
	id, err := repository.UserRepository{DB: st.DB}.Create(ctx, domain.User{Name: in.Name, Password: in.Password, Role: in.Role})
	if err != nil {
		if repository.IsDuplicate(err) {
			return nil, apperr.Conflict("user %q already exists", in.Name)
		}
		return nil, apperr.Storage(err, "create user")
	}
	return &Mutation{
		ID:        id,
		Changed:   true,
		Generated: map[string]string{"role": string(in.Role)},
		Warning:   persistAfter(ctx, s.Persist, st, s.Logger),
	}, nil
}

// Modify updates a user. An empty password or role keeps the current one.
func (s UserService) Modify(ctx context.Context, id int64, in UserInput) (*Mutation, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	st, err := openStore(ctx, s.Stores)
	if err != nil {
		return nil, err
	}
	repo := repository.UserRepository{DB: st.DB}
	current, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "user", id)
	}
	current.Name = in.Name
	if in.Password != "" {
		current.Password = in.Password
	}
	if in.Role != "" {
		current.Role = in.Role
	}
	if err := repo.Update(ctx, *current); err != nil {
		if repository.IsDuplicate(err) {
			return nil, apperr.Conflict("user %q already exists", in.Name)
		}
		return nil, notFoundOr(err, "user", id)
	}
	return &Mutation{ID: id, Changed: true, Warning: persistAfter(ctx, s.Persist, st, s.Logger)}, nil
}

// Delete removes a user that never issued a sale.
func (s UserService) Delete(ctx context.Context, id int64) (*Mutation, error) {
	st, err := openStore(ctx, s.Stores)
	if err != nil {
		return nil, err
	}
	repo := repository.UserRepository{DB: st.DB}
	used, err := repo.HasSales(ctx, id)
	if err != nil {
		return nil, apperr.Storage(err, "check user sales")
	}
	if used {
		return nil, apperr.Conflict("user %d has issued sales", id)
	}
	if err := repo.Delete(ctx, id); err != nil {
		return nil, notFoundOr(err, "user", id)
	}
	return &Mutation{ID: id, Changed: true, Warning: persistAfter(ctx, s.Persist, st, s.Logger)}, nil
}
