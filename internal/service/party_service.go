package service

import (
	"context"
	"database/sql"
	"log/slog"

	"firepoz-backend/internal/apperr"
	"firepoz-backend/internal/db"
	"firepoz-backend/internal/domain"
	"firepoz-backend/internal/money"
	"firepoz-backend/internal/repository"
)

// PartyInput carries the editable fields of a client or supplier.
type PartyInput struct {
	Name    string `json:"name" validate:"required"`
	Contact string `json:"contact"`
	Address string `json:"address"`
}

// PartyService manages clients or suppliers, depending on how it was built.
type PartyService struct {
	Stores  StoreProvider
	Persist Persister
	Logger  *slog.Logger

	label string
	repo  func(db.Querier) repository.PartyRepository
}

func NewClientService(stores StoreProvider, persist Persister, logger *slog.Logger) PartyService {
	return PartyService{Stores: stores, Persist: persist, Logger: logger, label: "client", repo: repository.NewClientRepository}
}

func NewSupplierService(stores StoreProvider, persist Persister, logger *slog.Logger) PartyService {
	return PartyService{Stores: stores, Persist: persist, Logger: logger, label: "supplier", repo: repository.NewSupplierRepository}
}

func (s PartyService) List(ctx context.Context) ([]domain.Party, error) {
	st, err := openStore(ctx, s.Stores)
	if err != nil {
		return nil, err
	}
	items, err := s.repo(st.DB).List(ctx)
	if err != nil {
		return nil, apperr.Storage(err, "list "+s.label+"s")
	}
	return items, nil
}

func (s PartyService) Get(ctx context.Context, id int64) (*domain.Party, error) {
	st, err := openStore(ctx, s.Stores)
	if err != nil {
		return nil, err
	}
	p, err := s.repo(st.DB).Get(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, s.label, id)
	}
	return p, nil
}

// Add creates a party with a zero balance and a generated reference.
func (s PartyService) Add(ctx context.Context, in PartyInput) (*Mutation, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	st, err := openStore(ctx, s.Stores)
	if err != nil {
		return nil, err
	}
	var created *domain.Party
	err = st.InTx(ctx, func(tx *sql.Tx) error {
		p, err := s.repo(tx).Create(ctx, domain.Party{Name: in.Name, Contact: in.Contact, Address: in.Address})
		created = p
		return err
	})
	if err != nil {
		return nil, apperr.Storage(err, "create "+s.label)
	}
	return &Mutation{
		ID:      created.ID,
		Changed: true,
		Generated: map[string]string{
			"reference": created.Reference,
			"balance":   money.Zero,
		},
		Warning: persistAfter(ctx, s.Persist, st, s.Logger),
	}, nil
}

// Modify rewrites name, contact and address. The balance only moves through sales.
func (s PartyService) Modify(ctx context.Context, id int64, in PartyInput) (*Mutation, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	st, err := openStore(ctx, s.Stores)
	if err != nil {
		return nil, err
	}
	err = s.repo(st.DB).Update(ctx, domain.Party{ID: id, Name: in.Name, Contact: in.Contact, Address: in.Address})
	if err != nil {
		return nil, notFoundOr(err, s.label, id)
	}
	return &Mutation{ID: id, Changed: true, Warning: persistAfter(ctx, s.Persist, st, s.Logger)}, nil
}

// Delete removes a party. Clients referenced by a sale cannot be deleted.
func (s PartyService) Delete(ctx context.Context, id int64) (*Mutation, error) {
	st, err := openStore(ctx, s.Stores)
	if err != nil {
		return nil, err
	}
	repo := s.repo(st.DB)
	used, err := repo.HasSales(ctx, id)
	if err != nil {
		return nil, apperr.Storage(err, "check "+s.label+" sales")
	}
	if used {
		return nil, apperr.Conflict("%s %d is referenced by sales", s.label, id)
	}
	if err := repo.Delete(ctx, id); err != nil {
		return nil, notFoundOr(err, s.label, id)
	}
	return &Mutation{ID: id, Changed: true, Warning: persistAfter(ctx, s.Persist, st, s.Logger)}, nil
}
