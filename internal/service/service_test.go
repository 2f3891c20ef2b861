package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"firepoz-backend/internal/db"
	"github.com/stretchr/testify/require"
)

// recordingPersister counts Persist calls and fails when err is set.
type recordingPersister struct {
	calls int
	err   error
}

func (p *recordingPersister) Persist(ctx context.Context, src db.Exporter) error {
	p.calls++
	if _, err := src.Export(ctx); err != nil {
		return err
	}
	return p.err
}

type fixture struct {
	store     *db.Store
	persister *recordingPersister
	now       time.Time

	clients    PartyService
	suppliers  PartyService
	users      UserService
	categories CategoryService
	products   ProductService
	auth       AuthService
	sales      SaleService
	dashboard  DashboardService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st, err := db.OpenSeeded(context.Background())
	require.NoError(t, err)
	t.Cleanup(st.Close)

	acc := db.NewAccessor(st)
	p := &recordingPersister{}
	now := time.Date(2024, 5, 10, 14, 0, 0, 0, time.Local)
	clock := func() time.Time { return now }

	return &fixture{
		store:      st,
		persister:  p,
		now:        now,
		clients:    NewClientService(acc, p, nil),
		suppliers:  NewSupplierService(acc, p, nil),
		users:      UserService{Stores: acc, Persist: p},
		categories: CategoryService{Stores: acc, Persist: p},
		products:   ProductService{Stores: acc, Persist: p},
		auth:       AuthService{Stores: acc},
		sales:      SaleService{Stores: acc, Persist: p, Now: clock},
		dashboard:  DashboardService{Stores: acc, Now: clock},
	}
}

func (f *fixture) addProduct(t *testing.T, name string, qty int, price, cost string) int64 {
	t.Helper()
	m, err := f.products.Add(context.Background(), ProductInput{
		Designation: name,
		Quantity:    qty,
		SalePrice:   price,
		CostPrice:   cost,
	})
	require.NoError(t, err)
	return m.ID
}

func (f *fixture) addClient(t *testing.T, name string) int64 {
	t.Helper()
	m, err := f.clients.Add(context.Background(), PartyInput{Name: name})
	require.NoError(t, err)
	return m.ID
}

func (f *fixture) quantity(t *testing.T, productID int64) int {
	t.Helper()
	var q int
	err := f.store.DB.QueryRow(`SELECT quantity FROM products WHERE id=?`, productID).Scan(&q)
	require.NoError(t, err)
	return q
}

func (f *fixture) balance(t *testing.T, clientID int64) string {
	t.Helper()
	var b string
	err := f.store.DB.QueryRow(`SELECT balance FROM clients WHERE id=?`, clientID).Scan(&b)
	require.NoError(t, err)
	return b
}

func (f *fixture) count(t *testing.T, table string) int {
	t.Helper()
	var n int
	err := f.store.DB.QueryRow(`SELECT COUNT(*) FROM ` + table).Scan(&n)
	require.NoError(t, err)
	return n
}

type failingProvider struct{}

func (failingProvider) Get(context.Context) (*db.Store, error) {
	return nil, errors.New("vault offline")
}
