package service

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"firepoz-backend/internal/apperr"
	"firepoz-backend/internal/db"
	"firepoz-backend/internal/domain"
	"firepoz-backend/internal/metrics"
	"firepoz-backend/internal/money"
	"firepoz-backend/internal/repository"
	"github.com/shopspring/decimal"
)

const (
	opRecord = "record"
	opRevise = "revise"
	opCancel = "cancel"
)

type LineInput struct {
	ProductID int64  `json:"productId" validate:"required"`
	Quantity  int    `json:"quantity" validate:"gt=0"`
	UnitPrice string `json:"unitPrice"`
	Remark    string `json:"remark"`
}

// SaleInput is the draft of a sale: the lines plus who sells, to whom and how
// it is paid. ClientID 0 is a walk-in sale.
type SaleInput struct {
	Lines       []LineInput        `json:"lines" validate:"dive"`
	ClientID    int64              `json:"clientId" validate:"gte=0"`
	UserID      int64              `json:"userId" validate:"required"`
	Password    string             `json:"password" validate:"required"`
	PaymentMode domain.PaymentMode `json:"paymentMode"`
	AmountPaid  string             `json:"amountPaid"`
}

// SaleResult reports a committed sale. Money fields use display format.
type SaleResult struct {
	SaleID        int64
	Nature        domain.SaleNature
	Sequence      int
	Status        domain.SaleStatus
	Total         string
	Settled       string
	BalanceDelta  string
	ClientBalance string
	Warning       string
}

type CancelResult struct {
	SaleID  int64
	Warning string
}

// SaleService records, revises and cancels sales. Each operation runs in a
// single store transaction that moves stock, the cash entry and the client
// balance together.
type SaleService struct {
	Stores  StoreProvider
	Persist Persister
	Logger  *slog.Logger
	Now     func() time.Time
}

type saleRepos struct {
	sales    repository.SaleRepository
	stock    repository.StockRepository
	products repository.ProductRepository
	clients  repository.PartyRepository
}

func reposFor(q db.Querier) saleRepos {
	return saleRepos{
		sales:    repository.SaleRepository{DB: q},
		stock:    repository.StockRepository{DB: q},
		products: repository.ProductRepository{DB: q},
		clients:  repository.NewClientRepository(q),
	}
}

// Record commits a new sale.
func (s SaleService) Record(ctx context.Context, in SaleInput) (res *SaleResult, err error) {
	defer s.observe(opRecord, &err)

	mode, paid, err := checkSaleInput(in)
	if err != nil {
		return nil, err
	}
	st, err := openStore(ctx, s.Stores)
	if err != nil {
		return nil, err
	}
	if _, err := verifyUser(ctx, st.DB, in.UserID, in.Password); err != nil {
		return nil, err
	}

	now := s.now()
	err = st.InTx(ctx, func(tx *sql.Tx) error {
		r := reposFor(tx)
		sale := domain.Sale{
			ClientID:  in.ClientID,
			CreatedAt: now,
			Status:    domain.SaleCommitted,
			Nature:    domain.NatureFor(in.ClientID),
			UserID:    in.UserID,
		}
		if err := r.checkClient(ctx, sale); err != nil {
			return err
		}
		seq, err := r.sales.NextSequence(ctx, sale.Nature)
		if err != nil {
			return err
		}
		sale.Sequence = seq
		if sale.ID, err = r.sales.InsertHeader(ctx, sale); err != nil {
			return err
		}
		res, err = r.apply(ctx, sale, in.Lines, mode, paid, now)
		return err
	})
	if err != nil {
		return nil, apperr.Storage(err, "record sale")
	}
	res.Warning = persistAfter(ctx, s.Persist, st, s.Logger)
	s.logger().Info("sale recorded", "sale_id", res.SaleID, "nature", res.Nature, "sequence", res.Sequence, "total", res.Total)
	return res, nil
}

// Revise undoes the effects of a sale and applies the new draft to the same
// sale id. The sequence is kept unless the nature changes.
func (s SaleService) Revise(ctx context.Context, saleID int64, in SaleInput) (res *SaleResult, err error) {
	defer s.observe(opRevise, &err)

	mode, paid, err := checkSaleInput(in)
	if err != nil {
		return nil, err
	}
	st, err := openStore(ctx, s.Stores)
	if err != nil {
		return nil, err
	}
	if _, err := (repository.SaleRepository{DB: st.DB}).GetHeader(ctx, saleID); err != nil {
		return nil, notFoundOr(err, "sale", saleID)
	}
	if _, err := verifyUser(ctx, st.DB, in.UserID, in.Password); err != nil {
		return nil, err
	}

	now := s.now()
	err = st.InTx(ctx, func(tx *sql.Tx) error {
		r := reposFor(tx)
		prior, err := r.sales.Get(ctx, saleID)
		if err != nil {
			return notFoundOr(err, "sale", saleID)
		}
		if err := r.reverse(ctx, prior); err != nil {
			return err
		}
		if err := r.sales.DeleteLines(ctx, saleID); err != nil {
			return err
		}
		if err := r.sales.DeleteCashEntry(ctx, saleID); err != nil {
			return err
		}

		sale := *prior
		sale.ClientID = in.ClientID
		sale.UserID = in.UserID
		sale.Status = domain.SaleModified
		sale.Nature = domain.NatureFor(in.ClientID)
		if err := r.checkClient(ctx, sale); err != nil {
			return err
		}
		if sale.Nature != prior.Nature {
			if sale.Sequence, err = r.sales.NextSequence(ctx, sale.Nature); err != nil {
				return err
			}
		}
		if err := r.sales.UpdateHeader(ctx, sale); err != nil {
			return err
		}
		res, err = r.apply(ctx, sale, in.Lines, mode, paid, now)
		return err
	})
	if err != nil {
		return nil, apperr.Storage(err, "revise sale")
	}
	res.Warning = persistAfter(ctx, s.Persist, st, s.Logger)
	s.logger().Info("sale revised", "sale_id", res.SaleID, "nature", res.Nature, "sequence", res.Sequence, "total", res.Total)
	return res, nil
}

// Cancel undoes the effects of a sale and deletes it. The password is
// checked against the user who issued the sale.
func (s SaleService) Cancel(ctx context.Context, saleID int64, password string) (res *CancelResult, err error) {
	defer s.observe(opCancel, &err)

	if password == "" {
		return nil, apperr.Validation("password is required")
	}
	st, err := openStore(ctx, s.Stores)
	if err != nil {
		return nil, err
	}
	header, err := repository.SaleRepository{DB: st.DB}.GetHeader(ctx, saleID)
	if err != nil {
		return nil, notFoundOr(err, "sale", saleID)
	}
	if _, err := verifyUser(ctx, st.DB, header.UserID, password); err != nil {
		return nil, err
	}

	err = st.InTx(ctx, func(tx *sql.Tx) error {
		r := reposFor(tx)
		sale, err := r.sales.Get(ctx, saleID)
		if err != nil {
			return notFoundOr(err, "sale", saleID)
		}
		if err := r.reverse(ctx, sale); err != nil {
			return err
		}
		if err := r.sales.DeleteLines(ctx, saleID); err != nil {
			return err
		}
		if err := r.sales.DeleteCashEntry(ctx, saleID); err != nil {
			return err
		}
		return r.sales.DeleteHeader(ctx, saleID)
	})
	if err != nil {
		return nil, apperr.Storage(err, "cancel sale")
	}
	res = &CancelResult{SaleID: saleID, Warning: persistAfter(ctx, s.Persist, st, s.Logger)}
	s.logger().Info("sale cancelled", "sale_id", saleID)
	return res, nil
}

// Get returns a sale with its lines and cash entry.
func (s SaleService) Get(ctx context.Context, saleID int64) (*domain.Sale, error) {
	st, err := openStore(ctx, s.Stores)
	if err != nil {
		return nil, err
	}
	sale, err := repository.SaleRepository{DB: st.DB}.Get(ctx, saleID)
	if err != nil {
		return nil, notFoundOr(err, "sale", saleID)
	}
	return sale, nil
}

func (s SaleService) List(ctx context.Context, filter repository.SaleFilter) ([]domain.Sale, error) {
	st, err := openStore(ctx, s.Stores)
	if err != nil {
		return nil, err
	}
	items, err := repository.SaleRepository{DB: st.DB}.List(ctx, filter)
	if err != nil {
		return nil, apperr.Storage(err, "list sales")
	}
	return items, nil
}

// apply inserts the lines, moves stock, writes the cash entry and charges the
// client balance for a sale whose header already exists.
func (r saleRepos) apply(ctx context.Context, sale domain.Sale, lines []LineInput, mode domain.PaymentMode, paid decimal.Decimal, now time.Time) (*SaleResult, error) {
	total := decimal.Zero
	for _, in := range lines {
		product, err := r.products.GetByID(ctx, in.ProductID)
		if err != nil {
			return nil, notFoundOr(err, "product", in.ProductID)
		}
		unit := money.Parse(in.UnitPrice)
		lineTotal := unit.Mul(decimal.NewFromInt(int64(in.Quantity)))
		total = total.Add(lineTotal)

		if _, err := r.sales.InsertLine(ctx, domain.SaleLine{
			SaleID:    sale.ID,
			ProductID: in.ProductID,
			Quantity:  in.Quantity,
			UnitPrice: money.Format(unit),
			LineTotal: money.Format(lineTotal),
			CostPrice: product.CostPrice,
			Remark:    in.Remark,
		}); err != nil {
			return nil, err
		}
		// No floor: stock may go negative.
		if _, err := r.stock.Adjust(ctx, in.ProductID, -in.Quantity); err != nil {
			return nil, notFoundOr(err, "product", in.ProductID)
		}
	}

	settled := paid
	if mode == domain.PaymentCash {
		settled = total
	}
	delta := decimal.Zero
	if mode == domain.PaymentOnAccount && !sale.WalkIn() {
		delta = total.Sub(paid).Neg()
	}

	if _, err := r.sales.InsertCashEntry(ctx, domain.CashEntry{
		SaleID:        sale.ID,
		AmountDue:     money.Format(total),
		AmountSettled: money.Format(settled),
		Tax:           money.Zero,
		BalanceDelta:  money.Format(delta),
		PaymentMode:   mode,
		Origin:        sale.Nature,
		CreatedAt:     now,
	}); err != nil {
		return nil, err
	}

	res := &SaleResult{
		SaleID:       sale.ID,
		Nature:       sale.Nature,
		Sequence:     sale.Sequence,
		Status:       sale.Status,
		Total:        money.Format(total),
		Settled:      money.Format(settled),
		BalanceDelta: money.Format(delta),
	}
	if !sale.WalkIn() {
		balance, err := r.clients.AddToBalance(ctx, sale.ClientID, delta)
		if err != nil {
			return nil, notFoundOr(err, "client", sale.ClientID)
		}
		res.ClientBalance = balance
	}
	return res, nil
}

// reverse restores the stock of every line and takes the recorded balance
// delta back off the client.
func (r saleRepos) reverse(ctx context.Context, sale *domain.Sale) error {
	for _, l := range sale.Lines {
		if _, err := r.stock.Adjust(ctx, l.ProductID, l.Quantity); err != nil {
			return notFoundOr(err, "product", l.ProductID)
		}
	}
	if sale.WalkIn() || sale.Cash == nil {
		return nil
	}
	delta := money.Parse(sale.Cash.BalanceDelta)
	if delta.IsZero() {
		return nil
	}
	if _, err := r.clients.AddToBalance(ctx, sale.ClientID, delta.Neg()); err != nil {
		return notFoundOr(err, "client", sale.ClientID)
	}
	return nil
}

func (r saleRepos) checkClient(ctx context.Context, sale domain.Sale) error {
	if sale.WalkIn() {
		return nil
	}
	if _, err := r.clients.Get(ctx, sale.ClientID); err != nil {
		return notFoundOr(err, "client", sale.ClientID)
	}
	return nil
}

// checkSaleInput validates a draft and resolves the payment mode (cash by
// default) and the amount paid.
func checkSaleInput(in SaleInput) (domain.PaymentMode, decimal.Decimal, error) {
	if len(in.Lines) == 0 {
		return "", decimal.Zero, apperr.Validation("lines are required")
	}
	if err := validateInput(in); err != nil {
		return "", decimal.Zero, err
	}
	for _, l := range in.Lines {
		if money.Parse(l.UnitPrice).IsNegative() {
			return "", decimal.Zero, apperr.Validation("unitPrice must not be negative")
		}
	}
	mode := in.PaymentMode
	if mode == "" {
		mode = domain.PaymentCash
	}
	if !mode.Valid() {
		return "", decimal.Zero, apperr.Validation("unknown payment mode %q", in.PaymentMode)
	}
	paid := money.Parse(in.AmountPaid)
	if paid.IsNegative() {
		return "", decimal.Zero, apperr.Validation("amountPaid must not be negative")
	}
	return mode, paid, nil
}

func (s SaleService) observe(op string, err *error) {
	if *err == nil {
		metrics.SalesTotal.WithLabelValues(op).Inc()
		return
	}
	kind := apperr.KindOf(*err)
	if kind == "" {
		kind = apperr.KindStorage
	}
	metrics.SaleFailures.WithLabelValues(op, string(kind)).Inc()
	s.logger().Warn("sale operation failed", "op", op, "kind", kind, "err", *err)
}

func (s SaleService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s SaleService) logger() *slog.Logger {
	return loggerOr(s.Logger)
}
