package service

import (
	"context"
	"time"

	"firepoz-backend/internal/apperr"
	"firepoz-backend/internal/db"
	"firepoz-backend/internal/domain"
	"firepoz-backend/internal/money"
	"firepoz-backend/internal/repository"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

const (
	PeriodDay  = "day"
	PeriodWeek = "week"

	lowStockThreshold = 10
)

type DailyPoint struct {
	Day     string
	Revenue string
}

type TopClient struct {
	ID      int64
	Name    string
	Revenue string
}

// Summary aggregates sales over a window of calendar days.
type Summary struct {
	Period    string
	From      string
	To        string
	Revenue   string
	Profit    string
	SaleCount int
	LowStock  int
	TopClient *TopClient
	Daily     []DailyPoint
}

type DashboardService struct {
	Stores StoreProvider
	Now    func() time.Time
}

// Compute builds the summary for "day" (today) or "week" (the 7 days ending today).
func (s DashboardService) Compute(ctx context.Context, period string) (*Summary, error) {
	var days int
	switch period {
	case PeriodDay, "":
		period, days = PeriodDay, 1
	case PeriodWeek:
		days = 7
	default:
		return nil, apperr.Validation("unknown period %q", period)
	}

	st, err := openStore(ctx, s.Stores)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}
	to := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	from := to.AddDate(0, 0, -(days - 1))

	dash := repository.DashboardRepository{DB: st.DB}
	facts, err := dash.LinesBetween(ctx, from, to)
	if err != nil {
		return nil, apperr.Storage(err, "load sale lines")
	}
	saleCount, err := dash.SalesBetween(ctx, from, to)
	if err != nil {
		return nil, apperr.Storage(err, "count sales")
	}
	lowStock, err := repository.ProductRepository{DB: st.DB}.CountBelow(ctx, lowStockThreshold)
	if err != nil {
		return nil, apperr.Storage(err, "count low stock")
	}

	revenue := sumBy(facts, func(f repository.LineFact) decimal.Decimal {
		return money.Parse(f.LineTotal)
	})
	cost := sumBy(facts, func(f repository.LineFact) decimal.Decimal {
		return money.Parse(f.CostPrice).Mul(decimal.NewFromInt(int64(f.Quantity)))
	})

	byDay := lo.GroupBy(facts, func(f repository.LineFact) string { return f.Day })
	daily := lo.Times(days, func(i int) DailyPoint {
		day := from.AddDate(0, 0, i).Format(db.DateLayout)
		return DailyPoint{
			Day: day,
			Revenue: money.Format(sumBy(byDay[day], func(f repository.LineFact) decimal.Decimal {
				return money.Parse(f.LineTotal)
			})),
		}
	})

	summary := &Summary{
		Period:    period,
		From:      from.Format(db.DateLayout),
		To:        to.Format(db.DateLayout),
		Revenue:   money.Format(revenue),
		Profit:    money.Format(revenue.Sub(cost)),
		SaleCount: saleCount,
		LowStock:  lowStock,
		Daily:     daily,
	}

	if id, total, ok := topClient(facts); ok {
		top := &TopClient{ID: id, Revenue: money.Format(total)}
		if c, err := repository.NewClientRepository(st.DB).Get(ctx, id); err == nil {
			top.Name = c.Name
		}
		summary.TopClient = top
	}
	return summary, nil
}

// topClient returns the account client with the highest revenue. On a tie
// the client seen first wins.
func topClient(facts []repository.LineFact) (int64, decimal.Decimal, bool) {
	account := lo.Filter(facts, func(f repository.LineFact, _ int) bool {
		return f.ClientID != domain.WalkInClientID
	})
	if len(account) == 0 {
		return 0, decimal.Zero, false
	}
	order := lo.Uniq(lo.Map(account, func(f repository.LineFact, _ int) int64 { return f.ClientID }))
	totals := lo.GroupBy(account, func(f repository.LineFact) int64 { return f.ClientID })

	bestID, best := order[0], decimal.Zero
	for i, id := range order {
		total := sumBy(totals[id], func(f repository.LineFact) decimal.Decimal {
			return money.Parse(f.LineTotal)
		})
		if i == 0 || total.GreaterThan(best) {
			bestID, best = id, total
		}
	}
	return bestID, best, true
}

func sumBy[T any](items []T, fn func(T) decimal.Decimal) decimal.Decimal {
	return lo.Reduce(items, func(acc decimal.Decimal, item T, _ int) decimal.Decimal {
		return acc.Add(fn(item))
	}, decimal.Zero)
}
