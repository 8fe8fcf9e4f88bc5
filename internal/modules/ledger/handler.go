package ledger

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"lodging/internal/domain"
	"lodging/internal/middleware"
	"lodging/internal/pkg/response"
	"lodging/internal/pkg/validator"
	"lodging/internal/repository"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the finance endpoints on an authenticated admin group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/payments", h.RecordPayment)
	rg.POST("/payments/:id/refund", h.Refund)
	rg.POST("/incomes", h.RecordIncome)
	rg.POST("/expenses", h.RecordExpense)
	rg.GET("/ledger", h.ListEntries)
	rg.GET("/ledger/reservations/:id/balance", h.Balance)
}

func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return false
	}
	if errs := validator.Validate(req); errs != nil {
		response.BadRequest(c, "Invalid request body", errs)
		return false
	}
	return true
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid id")
		return 0, false
	}
	return id, true
}

func optionalDate(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	// already checked by the "date" validation tag
	t, _ := domain.ParseDate(s)
	return t
}

func (h *Handler) RecordPayment(c *gin.Context) {
	var req RecordPaymentBody
	if !bindJSON(c, &req) {
		return
	}
	out, err := h.service.RecordPayment(c.Request.Context(), middleware.Actor(c), RecordPaymentRequest{
		ReservationID: req.ReservationID,
		Amount:        req.Amount,
		Method:        domain.PaymentMethod(req.Method),
		PaymentID:     req.PaymentID,
		Note:          req.Note,
	})
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{
		"payment":            toPaymentResponse(out.Payment),
		"ledger_entry":       toEntryResponse(out.Entry),
		"reservation_status": out.Reservation.Status,
		"paid_amount":        out.Reservation.PaidAmount.StringFixed(2),
		"outstanding":        out.Reservation.Outstanding().StringFixed(2),
	})
}

func (h *Handler) Refund(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req RefundBody
	if !bindJSON(c, &req) {
		return
	}
	out, err := h.service.Refund(c.Request.Context(), middleware.Actor(c), RefundRequest{PaymentID: id, Amount: req.Amount, Reason: req.Reason})
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{
		"refund":       toPaymentResponse(out.Refund),
		"original":     toPaymentResponse(out.Original),
		"ledger_entry": toEntryResponse(out.Entry),
	})
}

func (h *Handler) RecordIncome(c *gin.Context) {
	var req IncomeBody
	if !bindJSON(c, &req) {
		return
	}
	income, entry, err := h.service.RecordIncome(c.Request.Context(), middleware.Actor(c), IncomeRequest{
		Category:    domain.LedgerCategory(req.Category),
		Amount:      req.Amount,
		Method:      domain.PaymentMethod(req.Method),
		Description: req.Description,
		ReceivedOn:  optionalDate(req.ReceivedOn),
	})
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"income_id": income.ID, "ledger_entry": toEntryResponse(entry)})
}

func (h *Handler) RecordExpense(c *gin.Context) {
	var req ExpenseBody
	if !bindJSON(c, &req) {
		return
	}
	expense, entry, err := h.service.RecordExpense(c.Request.Context(), middleware.Actor(c), ExpenseRequest{
		Category:    req.Category,
		Amount:      req.Amount,
		Method:      domain.PaymentMethod(req.Method),
		Description: req.Description,
		SpentOn:     optionalDate(req.SpentOn),
	})
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"expense_id": expense.ID, "ledger_entry": toEntryResponse(entry)})
}

func (h *Handler) ListEntries(c *gin.Context) {
	var q LedgerQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid query")
		return
	}

	f := repository.LedgerFilter{Limit: q.Limit}
	if f.Limit <= 0 || f.Limit > 500 {
		f.Limit = 500
	}
	if q.From != "" {
		from, err := domain.ParseDate(q.From)
		if err != nil {
			response.FromError(c, err)
			return
		}
		f.From = &from
	}
	if q.To != "" {
		to, err := domain.ParseDate(q.To)
		if err != nil {
			response.FromError(c, err)
			return
		}
		// inclusive end date
		to = to.AddDate(0, 0, 1)
		f.To = &to
	}
	if q.Category != "" {
		cat := domain.LedgerCategory(q.Category)
		if _, ok := cat.Direction(); !ok {
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Unknown ledger category")
			return
		}
		f.Category = &cat
	}
	if q.ReservationID > 0 {
		f.ReservationID = &q.ReservationID
	}

	entries, err := h.service.ListEntries(c.Request.Context(), middleware.Actor(c).TenantID, f)
	if err != nil {
		response.FromError(c, err)
		return
	}
	out := make([]EntryResponse, 0, len(entries))
	for i := range entries {
		out = append(out, toEntryResponse(&entries[i]))
	}
	response.Success(c, http.StatusOK, gin.H{"entries": out})
}

func (h *Handler) Balance(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	b, err := h.service.ReservationBalance(c.Request.Context(), middleware.Actor(c).TenantID, id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"reservation_id": b.ReservationID,
		"credits":        b.Credits.StringFixed(2),
		"debits":         b.Debits.StringFixed(2),
		"net":            b.Net.StringFixed(2),
		"total_amount":   b.TotalAmount.StringFixed(2),
		"paid_amount":    b.PaidAmount.StringFixed(2),
		"outstanding":    b.Outstanding.StringFixed(2),
	})
}
