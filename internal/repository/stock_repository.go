package repository

import (
	"context"

	"firepoz-backend/internal/db"
)

type StockRepository struct {
	DB db.Querier
}

// Adjust adds delta to the product quantity in a single statement, so the
// new value never depends on a quantity read earlier. There is no floor:
// the quantity may go negative.
func (r StockRepository) Adjust(ctx context.Context, productID int64, delta int) (int, error) {
	if err := affected(r.DB.ExecContext(ctx, `
		UPDATE products SET quantity = quantity + ? WHERE id=?
	`, delta, productID)); err != nil {
		return 0, err
	}
	var remaining int
	err := r.DB.QueryRowContext(ctx, `SELECT quantity FROM products WHERE id=?`, productID).Scan(&remaining)
	return remaining, err
}
