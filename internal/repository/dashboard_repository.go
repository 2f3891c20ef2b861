package repository

import (
	"context"
	"time"

	"firepoz-backend/internal/db"
)

type DashboardRepository struct {
	DB db.Querier
}

// LineFact is one sale line flattened with its sale header.
type LineFact struct {
	SaleID    int64
	ClientID  int64
	Day       string
	Quantity  int
	LineTotal string
	CostPrice string
}

// LinesBetween returns every sale line whose sale falls on a day in [from, to].
func (r DashboardRepository) LinesBetween(ctx context.Context, from, to time.Time) ([]LineFact, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT s.id, s.client_id, date(s.created_at), l.quantity, l.line_total, l.cost_price
		FROM sales s
		JOIN sale_lines l ON l.sale_id = s.id
		WHERE date(s.created_at) BETWEEN ? AND ?
		ORDER BY s.id ASC, l.id ASC
	`, from.Format(db.DateLayout), to.Format(db.DateLayout))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var facts []LineFact
	for rows.Next() {
		var f LineFact
		if err := rows.Scan(&f.SaleID, &f.ClientID, &f.Day, &f.Quantity, &f.LineTotal, &f.CostPrice); err != nil {
			return nil, err
		}
		facts = append(facts, f)
	}
	return facts, rows.Err()
}

// SalesBetween counts the sales whose day falls in [from, to].
func (r DashboardRepository) SalesBetween(ctx context.Context, from, to time.Time) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM sales WHERE date(created_at) BETWEEN ? AND ?
	`, from.Format(db.DateLayout), to.Format(db.DateLayout)).Scan(&n)
	return n, err
}
