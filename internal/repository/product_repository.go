package repository

import (
	"context"
	"database/sql"
	"strconv"
	"time"

	"firepoz-backend/internal/db"
	"firepoz-backend/internal/domain"
)

type ProductRepository struct {
	DB db.Querier
}

const productColumns = `id, barcode, designation, quantity, sale_price, cost_price, reference,
	category_id, wholesale_price, min_price, available, created_at`

func (r ProductRepository) List(ctx context.Context) ([]domain.Product, error) {
	return r.query(ctx, `SELECT `+productColumns+` FROM products ORDER BY id ASC`)
}

// ListByCategory returns the products of a category; a nil id selects
// the products without one.
func (r ProductRepository) ListByCategory(ctx context.Context, categoryID *int64) ([]domain.Product, error) {
	if categoryID == nil {
		return r.query(ctx, `SELECT `+productColumns+` FROM products WHERE category_id IS NULL ORDER BY id ASC`)
	}
	return r.query(ctx, `SELECT `+productColumns+` FROM products WHERE category_id=? ORDER BY id ASC`, *categoryID)
}

func (r ProductRepository) query(ctx context.Context, q string, args ...any) ([]domain.Product, error) {
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *p)
	}
	return items, rows.Err()
}

func (r ProductRepository) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id=?`, id)
	p, err := scanProduct(row)
	if err != nil {
		return nil, notFound(err)
	}
	return p, nil
}

// BarcodeTaken reports whether another product already uses barcode.
func (r ProductRepository) BarcodeTaken(ctx context.Context, barcode string, exceptID int64) (bool, error) {
	var exists bool
	err := r.DB.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM products WHERE barcode=? AND id<>?)
	`, barcode, exceptID).Scan(&exists)
	return exists, err
}

func (r ProductRepository) Create(ctx context.Context, p domain.Product) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `
		INSERT INTO products (barcode, designation, quantity, sale_price, cost_price, reference,
			category_id, wholesale_price, min_price, available, created_at)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)
	`, p.Barcode, p.Designation, p.Quantity, p.SalePrice, p.CostPrice, p.Reference,
		nullableID(p.CategoryID), p.WholesalePrice, p.MinPrice, p.Available, db.FormatTime(time.Now()))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// AssignGeneratedCodes replaces a temporary barcode with the product id and
// sets the reference to "P<id>".
func (r ProductRepository) AssignGeneratedCodes(ctx context.Context, id int64) (barcode, reference string, err error) {
	barcode = strconv.FormatInt(id, 10)
	reference = "P" + barcode
	err = affected(r.DB.ExecContext(ctx, `UPDATE products SET barcode=?, reference=? WHERE id=?`, barcode, reference, id))
	return barcode, reference, err
}

func (r ProductRepository) Update(ctx context.Context, p domain.Product) error {
	return affected(r.DB.ExecContext(ctx, `
		UPDATE products
		SET barcode=?,
			designation=?,
			quantity=?,
			sale_price=?,
			cost_price=?,
			reference=?,
			category_id=?,
			wholesale_price=?,
			min_price=?,
			available=?
		WHERE id=?
	`, p.Barcode, p.Designation, p.Quantity, p.SalePrice, p.CostPrice, p.Reference,
		nullableID(p.CategoryID), p.WholesalePrice, p.MinPrice, p.Available, p.ID))
}

func (r ProductRepository) SetCategory(ctx context.Context, id int64, categoryID *int64) error {
	return affected(r.DB.ExecContext(ctx, `UPDATE products SET category_id=? WHERE id=?`, nullableID(categoryID), id))
}

func (r ProductRepository) Delete(ctx context.Context, id int64) error {
	return affected(r.DB.ExecContext(ctx, `DELETE FROM products WHERE id=?`, id))
}

// HasSales reports whether any sale line references the product.
func (r ProductRepository) HasSales(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.DB.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM sale_lines WHERE product_id=?)`, id).Scan(&exists)
	return exists, err
}

// CountBelow counts products whose quantity is under threshold.
func (r ProductRepository) CountBelow(ctx context.Context, threshold int) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM products WHERE quantity < ?`, threshold).Scan(&n)
	return n, err
}

func scanProduct(row scanner) (*domain.Product, error) {
	var (
		p          domain.Product
		categoryID sql.NullInt64
		createdAt  string
	)
	if err := row.Scan(&p.ID, &p.Barcode, &p.Designation, &p.Quantity, &p.SalePrice, &p.CostPrice, &p.Reference,
		&categoryID, &p.WholesalePrice, &p.MinPrice, &p.Available, &createdAt); err != nil {
		return nil, err
	}
	if categoryID.Valid {
		p.CategoryID = &categoryID.Int64
	}
	p.CreatedAt = db.ParseTime(createdAt)
	return &p, nil
}
