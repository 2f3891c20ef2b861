package handler

import (
	"net/http"

	"firepoz-backend/internal/db"
	"firepoz-backend/internal/domain"
	"firepoz-backend/internal/repository"
	"firepoz-backend/internal/service"
	"github.com/go-chi/chi/v5"
)

type SaleHandler struct {
	Service service.SaleService
}

func (h SaleHandler) RegisterRoutes(r chi.Router) {
	r.Post("/sales", h.record)
	r.Get("/sales", h.list)
	r.Get("/sales/{id}", h.get)
	r.Put("/sales/{id}", h.revise)
	r.Delete("/sales/{id}", h.cancel)
	r.Post("/sales/{id}/cancel", h.cancel)
}

type salePayload struct {
	Lines       []saleLine `json:"lines"`
	ClientID    int64      `json:"clientId"`
	UserID      int64      `json:"userId"`
	Password    string     `json:"password"`
	PaymentMode string     `json:"paymentMode"`
	AmountPaid  amount     `json:"amountPaid"`
}

type saleLine struct {
	ProductID int64  `json:"productId"`
	Quantity  int    `json:"quantity"`
	UnitPrice amount `json:"unitPrice"`
	Remark    string `json:"remark"`
}

func (p salePayload) input() service.SaleInput {
	lines := make([]service.LineInput, 0, len(p.Lines))
	for _, l := range p.Lines {
		lines = append(lines, service.LineInput{
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			UnitPrice: string(l.UnitPrice),
			Remark:    l.Remark,
		})
	}
	return service.SaleInput{
		Lines:       lines,
		ClientID:    p.ClientID,
		UserID:      p.UserID,
		Password:    p.Password,
		PaymentMode: domain.PaymentMode(p.PaymentMode),
		AmountPaid:  string(p.AmountPaid),
	}
}

func (h SaleHandler) record(w http.ResponseWriter, r *http.Request) {
	var req salePayload
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.Service.Record(r.Context(), req.input())
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, saleResultJSON(res))
}

func (h SaleHandler) revise(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req salePayload
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.Service.Revise(r.Context(), id, req.input())
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, saleResultJSON(res))
}

func (h SaleHandler) cancel(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req struct {
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.Service.Cancel(r.Context(), id, req.Password)
	if err != nil {
		writeAppError(w, err)
		return
	}
	data := map[string]any{"saleId": res.SaleID, "changed": true}
	if res.Warning != "" {
		data["warning"] = res.Warning
	}
	writeJSON(w, http.StatusOK, data)
}

func (h SaleHandler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	sale, err := h.Service.Get(r.Context(), id)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, saleJSON(*sale))
}

func (h SaleHandler) list(w http.ResponseWriter, r *http.Request) {
	var (
		filter repository.SaleFilter
		err    error
	)
	if filter.Date, err = parseDateQuery(r, "date"); err != nil {
		writeError(w, http.StatusBadRequest, "invalid date")
		return
	}
	if filter.ClientID, err = parseIDQuery(r, "clientId"); err != nil {
		writeError(w, http.StatusBadRequest, "invalid clientId")
		return
	}
	if filter.UserID, err = parseIDQuery(r, "userId"); err != nil {
		writeError(w, http.StatusBadRequest, "invalid userId")
		return
	}
	sales, err := h.Service.List(r.Context(), filter)
	if err != nil {
		writeAppError(w, err)
		return
	}
	resp := make([]map[string]any, 0, len(sales))
	for _, s := range sales {
		resp = append(resp, saleJSON(s))
	}
	writeJSON(w, http.StatusOK, resp)
}

func saleResultJSON(res *service.SaleResult) map[string]any {
	data := map[string]any{
		"saleId":       res.SaleID,
		"nature":       res.Nature,
		"sequence":     res.Sequence,
		"status":       res.Status,
		"total":        res.Total,
		"settled":      res.Settled,
		"balanceDelta": res.BalanceDelta,
	}
	if res.ClientBalance != "" {
		data["clientBalance"] = res.ClientBalance
	}
	if res.Warning != "" {
		data["warning"] = res.Warning
	}
	return data
}

func saleJSON(s domain.Sale) map[string]any {
	lines := make([]map[string]any, 0, len(s.Lines))
	for _, l := range s.Lines {
		lines = append(lines, map[string]any{
			"id":        l.ID,
			"productId": l.ProductID,
			"quantity":  l.Quantity,
			"unitPrice": l.UnitPrice,
			"lineTotal": l.LineTotal,
			"costPrice": l.CostPrice,
			"remark":    l.Remark,
		})
	}
	data := map[string]any{
		"id":        s.ID,
		"clientId":  s.ClientID,
		"createdAt": db.FormatTime(s.CreatedAt),
		"status":    s.Status,
		"nature":    s.Nature,
		"sequence":  s.Sequence,
		"userId":    s.UserID,
		"lines":     lines,
		"cash":      nil,
	}
	if s.WalkIn() {
		data["clientName"] = domain.WalkInName
	}
	if c := s.Cash; c != nil {
		data["cash"] = map[string]any{
			"amountDue":     c.AmountDue,
			"amountSettled": c.AmountSettled,
			"tax":           c.Tax,
			"balanceDelta":  c.BalanceDelta,
			"paymentMode":   c.PaymentMode,
			"origin":        c.Origin,
		}
	}
	return data
}
