package repository

import (
	"context"
	"strings"
	"time"

	"firepoz-backend/internal/db"
	"firepoz-backend/internal/domain"
)

type SaleRepository struct {
	DB db.Querier
}

// SaleFilter narrows List; nil fields are ignored.
type SaleFilter struct {
	Date     *time.Time
	ClientID *int64
	UserID   *int64
	Limit    int
}

const saleColumns = `id, client_id, created_at, status, nature, sequence, user_id`

// NextSequence returns the next counter value for a nature.
func (r SaleRepository) NextSequence(ctx context.Context, nature domain.SaleNature) (int, error) {
	var seq int
	err := r.DB.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(sequence), 0) + 1 FROM sales WHERE nature=?
	`, string(nature)).Scan(&seq)
	return seq, err
}

func (r SaleRepository) InsertHeader(ctx context.Context, s domain.Sale) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `
		INSERT INTO sales (client_id, created_at, status, nature, sequence, user_id)
		VALUES (?,?,?,?,?,?)
	`, s.ClientID, db.FormatTime(s.CreatedAt), string(s.Status), string(s.Nature), s.Sequence, s.UserID)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r SaleRepository) UpdateHeader(ctx context.Context, s domain.Sale) error {
	return affected(r.DB.ExecContext(ctx, `
		UPDATE sales SET client_id=?, status=?, nature=?, sequence=?, user_id=? WHERE id=?
	`, s.ClientID, string(s.Status), string(s.Nature), s.Sequence, s.UserID, s.ID))
}

func (r SaleRepository) GetHeader(ctx context.Context, id int64) (*domain.Sale, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+saleColumns+` FROM sales WHERE id=?`, id)
	s, err := scanSale(row)
	if err != nil {
		return nil, notFound(err)
	}
	return s, nil
}

// Get returns a sale with its lines and cash entry.
func (r SaleRepository) Get(ctx context.Context, id int64) (*domain.Sale, error) {
	s, err := r.GetHeader(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.Lines, err = r.Lines(ctx, id); err != nil {
		return nil, err
	}
	cash, err := r.CashEntry(ctx, id)
	if err != nil && err != ErrNotFound {
		return nil, err
	}
	s.Cash = cash
	return s, nil
}

func (r SaleRepository) DeleteHeader(ctx context.Context, id int64) error {
	return affected(r.DB.ExecContext(ctx, `DELETE FROM sales WHERE id=?`, id))
}

const lineColumns = `id, sale_id, product_id, quantity, unit_price, line_total, cost_price, remark`

func (r SaleRepository) Lines(ctx context.Context, saleID int64) ([]domain.SaleLine, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+lineColumns+` FROM sale_lines WHERE sale_id=? ORDER BY id ASC`, saleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []domain.SaleLine
	for rows.Next() {
		var l domain.SaleLine
		if err := rows.Scan(&l.ID, &l.SaleID, &l.ProductID, &l.Quantity, &l.UnitPrice, &l.LineTotal, &l.CostPrice, &l.Remark); err != nil {
			return nil, err
		}
		items = append(items, l)
	}
	return items, rows.Err()
}

func (r SaleRepository) InsertLine(ctx context.Context, l domain.SaleLine) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `
		INSERT INTO sale_lines (sale_id, product_id, quantity, unit_price, line_total, cost_price, remark)
		VALUES (?,?,?,?,?,?,?)
	`, l.SaleID, l.ProductID, l.Quantity, l.UnitPrice, l.LineTotal, l.CostPrice, l.Remark)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r SaleRepository) DeleteLines(ctx context.Context, saleID int64) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM sale_lines WHERE sale_id=?`, saleID)
	return err
}

const cashColumns = `id, sale_id, amount_due, amount_settled, tax, balance_delta, payment_mode, origin, created_at`

func (r SaleRepository) CashEntry(ctx context.Context, saleID int64) (*domain.CashEntry, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+cashColumns+` FROM cash_entries WHERE sale_id=?`, saleID)
	c, err := scanCashEntry(row)
	if err != nil {
		return nil, notFound(err)
	}
	return c, nil
}

func (r SaleRepository) InsertCashEntry(ctx context.Context, c domain.CashEntry) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `
		INSERT INTO cash_entries (sale_id, amount_due, amount_settled, tax, balance_delta, payment_mode, origin, created_at)
		VALUES (?,?,?,?,?,?,?,?)
	`, c.SaleID, c.AmountDue, c.AmountSettled, c.Tax, c.BalanceDelta, string(c.PaymentMode), string(c.Origin), db.FormatTime(c.CreatedAt))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r SaleRepository) DeleteCashEntry(ctx context.Context, saleID int64) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM cash_entries WHERE sale_id=?`, saleID)
	return err
}

// List returns sales matching f, newest first, with lines and cash entries.
func (r SaleRepository) List(ctx context.Context, f SaleFilter) ([]domain.Sale, error) {
	var (
		where []string
		args  []any
	)
	if f.Date != nil {
		where = append(where, "date(created_at) = ?")
		args = append(args, f.Date.Format(db.DateLayout))
	}
	if f.ClientID != nil {
		where = append(where, "client_id = ?")
		args = append(args, *f.ClientID)
	}
	if f.UserID != nil {
		where = append(where, "user_id = ?")
		args = append(args, *f.UserID)
	}
	q := `SELECT ` + saleColumns + ` FROM sales`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY created_at DESC, id DESC"
	if f.Limit > 0 {
		q += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	var sales []domain.Sale
	for rows.Next() {
		s, err := scanSale(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		sales = append(sales, *s)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	// One connection backs the store, so the header cursor is closed
	// before the per-sale queries run.
	for i := range sales {
		if sales[i].Lines, err = r.Lines(ctx, sales[i].ID); err != nil {
			return nil, err
		}
		cash, err := r.CashEntry(ctx, sales[i].ID)
		if err != nil && err != ErrNotFound {
			return nil, err
		}
		sales[i].Cash = cash
	}
	return sales, nil
}

func scanSale(row scanner) (*domain.Sale, error) {
	var (
		s                     domain.Sale
		createdAt, st, nature string
	)
	if err := row.Scan(&s.ID, &s.ClientID, &createdAt, &st, &nature, &s.Sequence, &s.UserID); err != nil {
		return nil, err
	}
	s.CreatedAt = db.ParseTime(createdAt)
	s.Status = domain.SaleStatus(st)
	s.Nature = domain.SaleNature(nature)
	return &s, nil
}

func scanCashEntry(row scanner) (*domain.CashEntry, error) {
	var (
		c                    domain.CashEntry
		mode, origin, create string
	)
	if err := row.Scan(&c.ID, &c.SaleID, &c.AmountDue, &c.AmountSettled, &c.Tax, &c.BalanceDelta, &mode, &origin, &create); err != nil {
		return nil, err
	}
	c.PaymentMode = domain.PaymentMode(mode)
	c.Origin = domain.SaleNature(origin)
	c.CreatedAt = db.ParseTime(create)
	return &c, nil
}
