package repository

import (
	"context"

	"firepoz-backend/internal/db"
	"firepoz-backend/internal/domain"
)

type CategoryRepository struct {
	DB db.Querier
}

func (r CategoryRepository) List(ctx context.Context) ([]domain.Category, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id, description FROM categories ORDER BY description ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []domain.Category
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Description); err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

func (r CategoryRepository) Get(ctx context.Context, id int64) (*domain.Category, error) {
	var c domain.Category
	err := r.DB.QueryRowContext(ctx, `SELECT id, description FROM categories WHERE id=?`, id).Scan(&c.ID, &c.Description)
	if err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

func (r CategoryRepository) Create(ctx context.Context, description string) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `INSERT INTO categories (description) VALUES (?)`, description)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r CategoryRepository) Update(ctx context.Context, c domain.Category) error {
	return affected(r.DB.ExecContext(ctx, `UPDATE categories SET description=? WHERE id=?`, c.Description, c.ID))
}

func (r CategoryRepository) Delete(ctx context.Context, id int64) error {
	return affected(r.DB.ExecContext(ctx, `DELETE FROM categories WHERE id=?`, id))
}

// InUse reports whether any product is assigned to the category.
func (r CategoryRepository) InUse(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.DB.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM products WHERE category_id=?)`, id).Scan(&exists)
	return exists, err
}
