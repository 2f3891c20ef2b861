package repository

import (
	"context"
	"time"

	"firepoz-backend/internal/db"
	"firepoz-backend/internal/domain"
)

type UserRepository struct {
	DB db.Querier
}

const userColumns = `id, name, password, role, created_at`

func (r UserRepository) List(ctx context.Context) ([]domain.User, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *u)
	}
	return items, rows.Err()
}

func (r UserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id=?`, id)
	u, err := scanUser(row)
	if err != nil {
		return nil, notFound(err)
	}
	return u, nil
}

func (r UserRepository) GetByName(ctx context.Context, name string) (*domain.User, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE name=?`, name)
	u, err := scanUser(row)
	if err != nil {
		return nil, notFound(err)
	}
	return u, nil
}

func (r UserRepository) Create(ctx context.Context, u domain.User) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `
		INSERT INTO users (name, password, role, created_at)
		VALUES (?, ?, ?, ?)
	`, u.Name, u.Password, string(u.Role), db.FormatTime(time.Now()))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r UserRepository) Update(ctx context.Context, u domain.User) error {
	return affected(r.DB.ExecContext(ctx, `
		UPDATE users SET name=?, password=?, role=? WHERE id=?
	`, u.Name, u.Password, string(u.Role), u.ID))
}

func (r UserRepository) Delete(ctx context.Context, id int64) error {
	return affected(r.DB.ExecContext(ctx, `DELETE FROM users WHERE id=?`, id))
}

// HasSales reports whether any sale was issued by the user.
func (r UserRepository) HasSales(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.DB.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM sales WHERE user_id=?)`, id).Scan(&exists)
	return exists, err
}

func scanUser(row scanner) (*domain.User, error) {
	var (
		u         domain.User
		role      string
		createdAt string
	)
	if err := row.Scan(&u.ID, &u.Name, &u.Password, &role, &createdAt); err != nil {
		return nil, err
	}
	u.Role = domain.UserRole(role)
	u.CreatedAt = db.ParseTime(createdAt)
	return &u, nil
}
