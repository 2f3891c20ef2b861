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
	"github.com/google/uuid"
)

// ProductInput carries product fields. Prices accept display ("12,50") or
// canonical ("12.50") notation.
type ProductInput struct {
	Barcode        string `json:"barcode"`
	Designation    string `json:"designation" validate:"required"`
	Quantity       int    `json:"quantity" validate:"gte=0"`
	SalePrice      string `json:"salePrice"`
	CostPrice      string `json:"costPrice"`
	Reference      string `json:"reference"`
	CategoryID     *int64 `json:"categoryId"`
	WholesalePrice string `json:"wholesalePrice"`
	MinPrice       string `json:"minPrice"`
	Available      *bool  `json:"available"`
}

type ProductService struct {
	Stores  StoreProvider
	Persist Persister
	Logger  *slog.Logger
}

func (s ProductService) List(ctx context.Context) ([]domain.Product, error) {
	st, err := openStore(ctx, s.Stores)
	if err != nil {
		return nil, err
	}
	items, err := repository.ProductRepository{DB: st.DB}.List(ctx)
	if err != nil {
		return nil, apperr.Storage(err, "list products")
	}
	return items, nil
}

// ByCategory lists the products of an existing category.
func (s ProductService) ByCategory(ctx context.Context, categoryID int64) ([]domain.Product, error) {
	st, err := openStore(ctx, s.Stores)
	if err != nil {
		return nil, err
	}
	if _, err := (repository.CategoryRepository{DB: st.DB}).Get(ctx, categoryID); err != nil {
		return nil, notFoundOr(err, "category", categoryID)
	}
	items, err := repository.ProductRepository{DB: st.DB}.ListByCategory(ctx, &categoryID)
	if err != nil {
		return nil, apperr.Storage(err, "list category products")
	}
	return items, nil
}

// Add creates a product. Without a barcode, the id becomes the barcode and
// "P<id>" the reference.
func (s ProductService) Add(ctx context.Context, in ProductInput) (*Mutation, error) {
	p, err := productFromInput(in)
	if err != nil {
		return nil, err
	}
	st, err := openStore(ctx, s.Stores)
	if err != nil {
		return nil, err
	}

	generate := p.Barcode == ""
	if generate {
		p.Barcode = "tmp-" + uuid.NewString()
	}
	p.Available = in.Available == nil || *in.Available

	var (
		id        int64
		generated map[string]string
	)
	err = st.InTx(ctx, func(tx *sql.Tx) error {
		if err := checkCategory(ctx, tx, p.CategoryID); err != nil {
			return err
		}
		repo := repository.ProductRepository{DB: tx}
		if !generate {
			taken, err := repo.BarcodeTaken(ctx, p.Barcode, 0)
			if err != nil {
				return err
			}
			if taken {
				return apperr.Conflict("barcode %q already exists", p.Barcode)
			}
		}
		var err error
		if id, err = repo.Create(ctx, p); err != nil {
			if repository.IsDuplicate(err) {
				return apperr.Conflict("barcode %q already exists", p.Barcode)
			}
			return err
		}
		if generate {
			barcode, reference, err := repo.AssignGeneratedCodes(ctx, id)
			if err != nil {
				return err
			}
			generated = map[string]string{"barcode": barcode, "reference": reference}
		}
		return nil
	})
	if err != nil {
		return nil, apperr.Storage(err, "create product")
	}
	return &Mutation{ID: id, Changed: true, Generated: generated, Warning: persistAfter(ctx, s.Persist, st, s.Logger)}, nil
}

// Modify rewrites a product. An empty barcode keeps the current one, a nil
// availability keeps the current flag.
func (s ProductService) Modify(ctx context.Context, id int64, in ProductInput) (*Mutation, error) {
	p, err := productFromInput(in)
	if err != nil {
		return nil, err
	}
	st, err := openStore(ctx, s.Stores)
	if err != nil {
		return nil, err
	}
	err = st.InTx(ctx, func(tx *sql.Tx) error {
		repo := repository.ProductRepository{DB: tx}
		current, err := repo.GetByID(ctx, id)
		if err != nil {
			return notFoundOr(err, "product", id)
		}
		if err := checkCategory(ctx, tx, p.CategoryID); err != nil {
			return err
		}
		p.ID = id
		if p.Barcode == "" {
			p.Barcode = current.Barcode
		}
		if p.Reference == "" {
			p.Reference = current.Reference
		}
		p.Available = current.Available
		if in.Available != nil {
			p.Available = *in.Available
		}
		taken, err := repo.BarcodeTaken(ctx, p.Barcode, id)
		if err != nil {
			return err
		}
		if taken {
			return apperr.Conflict("barcode %q already exists", p.Barcode)
		}
		return repo.Update(ctx, p)
	})
	if err != nil {
		return nil, apperr.Storage(err, "update product")
	}
	return &Mutation{ID: id, Changed: true, Warning: persistAfter(ctx, s.Persist, st, s.Logger)}, nil
}

// Delete removes a product that no sale line references.
func (s ProductService) Delete(ctx context.Context, id int64) (*Mutation, error) {
	st, err := openStore(ctx, s.Stores)
	if err != nil {
		return nil, err
	}
	repo := repository.ProductRepository{DB: st.DB}
	used, err := repo.HasSales(ctx, id)
	if err != nil {
		return nil, apperr.Storage(err, "check product sales")
	}
	if used {
		return nil, apperr.Conflict("product %d is referenced by sales", id)
	}
	if err := repo.Delete(ctx, id); err != nil {
		return nil, notFoundOr(err, "product", id)
	}
	return &Mutation{ID: id, Changed: true, Warning: persistAfter(ctx, s.Persist, st, s.Logger)}, nil
}

// AssignCategory moves a product to a category; nil clears the assignment.
func (s ProductService) AssignCategory(ctx context.Context, productID int64, categoryID *int64) (*Mutation, error) {
	st, err := openStore(ctx, s.Stores)
	if err != nil {
		return nil, err
	}
	if err := checkCategory(ctx, st.DB, categoryID); err != nil {
		return nil, err
	}
	if err := (repository.ProductRepository{DB: st.DB}).SetCategory(ctx, productID, categoryID); err != nil {
		return nil, notFoundOr(err, "product", productID)
	}
	return &Mutation{ID: productID, Changed: true, Warning: persistAfter(ctx, s.Persist, st, s.Logger)}, nil
}

func checkCategory(ctx context.Context, q db.Querier, categoryID *int64) error {
	if categoryID == nil {
		return nil
	}
	if _, err := (repository.CategoryRepository{DB: q}).Get(ctx, *categoryID); err != nil {
		return notFoundOr(err, "category", *categoryID)
	}
	return nil
}

func productFromInput(in ProductInput) (domain.Product, error) {
	if err := validateInput(in); err != nil {
		return domain.Product{}, err
	}
	prices := []struct {
		name  string
		value string
	}{
		{"salePrice", in.SalePrice},
		{"costPrice", in.CostPrice},
		{"wholesalePrice", in.WholesalePrice},
		{"minPrice", in.MinPrice},
	}
	for _, p := range prices {
		if money.Parse(p.value).IsNegative() {
			return domain.Product{}, apperr.Validation("%s must not be negative", p.name)
		}
	}
	return domain.Product{
		Barcode:        in.Barcode,
		Designation:    in.Designation,
		Quantity:       in.Quantity,
		SalePrice:      money.Normalize(in.SalePrice),
		CostPrice:      money.Normalize(in.CostPrice),
		Reference:      in.Reference,
		CategoryID:     in.CategoryID,
		WholesalePrice: money.Normalize(in.WholesalePrice),
		MinPrice:       money.Normalize(in.MinPrice),
	}, nil
}

// StockLevel is the quantity on hand after a manual adjustment.
type StockLevel struct {
	ProductID int64
	Quantity  int
	Warning   string
}

// AdjustStock moves a product's quantity by change, for deliveries and
// inventory corrections outside of sales.
func (s ProductService) AdjustStock(ctx context.Context, productID int64, change int) (*StockLevel, error) {
	if change == 0 {
		return nil, apperr.Validation("change must not be zero")
	}
	st, err := openStore(ctx, s.Stores)
	if err != nil {
		return nil, err
	}
	qty, err := repository.StockRepository{DB: st.DB}.Adjust(ctx, productID, change)
	if err != nil {
		return nil, notFoundOr(err, "product", productID)
	}
	loggerOr(s.Logger).Info("stock adjusted", "product_id", productID, "change", change, "quantity", qty)
	return &StockLevel{ProductID: productID, Quantity: qty, Warning: persistAfter(ctx, s.Persist, st, s.Logger)}, nil
}
