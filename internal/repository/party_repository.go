package repository

import (
	"context"
	"fmt"
	"time"

	"firepoz-backend/internal/db"
	"firepoz-backend/internal/domain"
	"firepoz-backend/internal/money"
	"github.com/shopspring/decimal"
)

// PartyRepository serves the clients and suppliers tables, which share a
// layout and differ only by their reference prefix.
type PartyRepository struct {
	DB     db.Querier
	table  string
	prefix string
}

func NewClientRepository(q db.Querier) PartyRepository {
	return PartyRepository{DB: q, table: "clients", prefix: "C"}
}

func NewSupplierRepository(q db.Querier) PartyRepository {
	return PartyRepository{DB: q, table: "suppliers", prefix: "F"}
}

const partyColumns = `id, name, balance, reference, contact, address, created_at`

func (r PartyRepository) List(ctx context.Context) ([]domain.Party, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+partyColumns+` FROM `+r.table+` ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []domain.Party
	for rows.Next() {
		p, err := scanParty(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *p)
	}
	return items, rows.Err()
}

func (r PartyRepository) Get(ctx context.Context, id int64) (*domain.Party, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+partyColumns+` FROM `+r.table+` WHERE id=?`, id)
	p, err := scanParty(row)
	if err != nil {
		return nil, notFound(err)
	}
	return p, nil
}

// Create inserts a party with a zero balance and assigns its reference, the
// prefix followed by the row id. Ids are never reused, so neither are references.
func (r PartyRepository) Create(ctx context.Context, p domain.Party) (*domain.Party, error) {
	res, err := r.DB.ExecContext(ctx, `
		INSERT INTO `+r.table+` (name, balance, reference, contact, address, created_at)
		VALUES (?, ?, '', ?, ?, ?)
	`, p.Name, money.Zero, p.Contact, p.Address, db.FormatTime(time.Now()))
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	ref := fmt.Sprintf("%s%d", r.prefix, id)
	if _, err := r.DB.ExecContext(ctx, `UPDATE `+r.table+` SET reference=? WHERE id=?`, ref, id); err != nil {
		return nil, err
	}
	return r.Get(ctx, id)
}

// Update rewrites the descriptive fields; the balance is left alone.
func (r PartyRepository) Update(ctx context.Context, p domain.Party) error {
	return affected(r.DB.ExecContext(ctx, `
		UPDATE `+r.table+` SET name=?, contact=?, address=? WHERE id=?
	`, p.Name, p.Contact, p.Address, p.ID))
}

func (r PartyRepository) Delete(ctx context.Context, id int64) error {
	return affected(r.DB.ExecContext(ctx, `DELETE FROM `+r.table+` WHERE id=?`, id))
}

// AddToBalance adds delta to the stored balance and returns the new value.
func (r PartyRepository) AddToBalance(ctx context.Context, id int64, delta decimal.Decimal) (string, error) {
	var current string
	err := r.DB.QueryRowContext(ctx, `SELECT balance FROM `+r.table+` WHERE id=?`, id).Scan(&current)
	if err != nil {
		return "", notFound(err)
	}
	next := money.Format(money.Parse(current).Add(delta))
	if _, err := r.DB.ExecContext(ctx, `UPDATE `+r.table+` SET balance=? WHERE id=?`, next, id); err != nil {
		return "", err
	}
	return next, nil
}

// HasSales reports whether any sale references the client. Suppliers are
// never referenced by sales.
func (r PartyRepository) HasSales(ctx context.Context, id int64) (bool, error) {
	if r.table != "clients" {
		return false, nil
	}
	var exists bool
	err := r.DB.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM sales WHERE client_id=?)`, id).Scan(&exists)
	return exists, err
}

func scanParty(row scanner) (*domain.Party, error) {
	var (
		p         domain.Party
		createdAt string
	)
	if err := row.Scan(&p.ID, &p.Name, &p.Balance, &p.Reference, &p.Contact, &p.Address, &createdAt); err != nil {
		return nil, err
	}
	p.CreatedAt = db.ParseTime(createdAt)
	return &p, nil
}
