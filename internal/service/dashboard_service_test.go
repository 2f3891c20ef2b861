package service

import (
	"context"
	"testing"

	"firepoz-backend/internal/apperr"
	"firepoz-backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDashboardWeek(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := f.addProduct(t, "Pizza", 10, "150,00", "90,00")
	karim := f.addClient(t, "Karim")
	nadia := f.addClient(t, "Nadia")

	record := func(client int64, qty int) {
		_, err := f.sales.Record(ctx, SaleInput{
			Lines:    []LineInput{{ProductID: p, Quantity: qty, UnitPrice: "150,00"}},
			ClientID: client, UserID: 1, Password: "admin",
			PaymentMode: domain.PaymentCash,
		})
		require.NoError(t, err)
	}
	record(domain.WalkInClientID, 3)
	record(karim, 1)
	record(nadia, 2)

	sum, err := f.dashboard.Compute(ctx, PeriodWeek)
	require.NoError(t, err)
	assert.Equal(t, "2024-05-04", sum.From)
	assert.Equal(t, "2024-05-10", sum.To)
	assert.Equal(t, "900,00", sum.Revenue)
	assert.Equal(t, "360,00", sum.Profit)
	assert.Equal(t, 3, sum.SaleCount)
	assert.Equal(t, 1, sum.LowStock)

	require.Len(t, sum.Daily, 7)
	assert.Equal(t, DailyPoint{Day: "2024-05-04", Revenue: "0,00"}, sum.Daily[0])
	assert.Equal(t, DailyPoint{Day: "2024-05-10", Revenue: "900,00"}, sum.Daily[6])

	require.NotNil(t, sum.TopClient)
	assert.Equal(t, nadia, sum.TopClient.ID)
	assert.Equal(t, "Nadia", sum.TopClient.Name)
	assert.Equal(t, "300,00", sum.TopClient.Revenue)
}

func TestDashboardDayWithoutSales(t *testing.T) {
	f := newFixture(t)

	sum, err := f.dashboard.Compute(context.Background(), PeriodDay)
	require.NoError(t, err)
	assert.Equal(t, "0,00", sum.Revenue)
	assert.Equal(t, "0,00", sum.Profit)
	assert.Zero(t, sum.SaleCount)
	assert.Nil(t, sum.TopClient)
	require.Len(t, sum.Daily, 1)
	assert.Equal(t, "2024-05-10", sum.Daily[0].Day)

	_, err = f.dashboard.Compute(context.Background(), "month")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}
