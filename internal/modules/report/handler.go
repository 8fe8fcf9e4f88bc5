package report

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"lodging/internal/domain"
	"lodging/internal/middleware"
	"lodging/internal/pkg/response"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	r := rg.Group("/reports")
	r.GET("/summary", h.Summary)
	r.GET("/cashup", h.CashUp)
	r.GET("/cashup.xlsx", h.CashUpXLSX)
}

// RegisterFrontDeskRoutes mounts the reports that carry no money figures.
func (h *Handler) RegisterFrontDeskRoutes(rg *gin.RouterGroup) {
	rg.GET("/reports/occupancy", h.Occupancy)
}

func dateParam(c *gin.Context, name string) (time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", name+" is required")
		return time.Time{}, false
	}
	t, err := domain.ParseDate(raw)
	if err != nil {
		response.FromError(c, err)
		return time.Time{}, false
	}
	return t, true
}

func money(d decimal.Decimal) string { return d.StringFixed(2) }

func (h *Handler) Summary(c *gin.Context) {
	from, ok := dateParam(c, "from")
	if !ok {
		return
	}
	to, ok := dateParam(c, "to")
	if !ok {
		return
	}
	s, err := h.service.Summary(c.Request.Context(), middleware.Actor(c).TenantID, from, to)
	if err != nil {
		response.FromError(c, err)
		return
	}
	byCategory := make(map[string]string, len(s.ByCategory))
	for k, v := range s.ByCategory {
		byCategory[string(k)] = money(v)
	}
	response.Success(c, http.StatusOK, gin.H{
		"from":        s.From.Format(domain.DateLayout),
		"to":          s.To.Format(domain.DateLayout),
		"revenue":     money(s.Revenue),
		"refunds":     money(s.Refunds),
		"expenses":    money(s.Expenses),
		"net":         money(s.Net),
		"by_category": byCategory,
		"entries":     s.Entries,
	})
}

func cashUpJSON(c *CashUp) gin.H {
	row := func(m MethodTotals) gin.H {
		return gin.H{"method": m.Method, "credits": money(m.Credits), "debits": money(m.Debits), "net": money(m.Net)}
	}
	methods := make([]gin.H, 0, len(c.Methods))
	for _, m := range c.Methods {
		methods = append(methods, row(m))
	}
	total := row(c.Total)
	delete(total, "method")
	return gin.H{"date": c.Date.Format(domain.DateLayout), "methods": methods, "total": total}
}

func (h *Handler) CashUp(c *gin.Context) {
	day, ok := dateParam(c, "date")
	if !ok {
		return
	}
	out, err := h.service.DailyCashUp(c.Request.Context(), middleware.Actor(c).TenantID, day)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, cashUpJSON(out))
}

func (h *Handler) CashUpXLSX(c *gin.Context) {
	day, ok := dateParam(c, "date")
	if !ok {
		return
	}
	out, err := h.service.DailyCashUp(c.Request.Context(), middleware.Actor(c).TenantID, day)
	if err != nil {
		response.FromError(c, err)
		return
	}
	data, err := ExportCashUpXLSX(out)
	if err != nil {
		response.FromError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=cashup-%s.xlsx", out.Date.Format(domain.DateLayout)))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

func (h *Handler) Occupancy(c *gin.Context) {
	day, ok := dateParam(c, "date")
	if !ok {
		return
	}
	out, err := h.service.DailyOccupancy(c.Request.Context(), middleware.Actor(c).TenantID, day)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"date":           out.Date.Format(domain.DateLayout),
		"arrivals":       out.Arrivals,
		"departures":     out.Departures,
		"reservations":   out.InHouse,
		"rooms":          out.Rooms,
		"sellable_rooms": out.Sellable,
	})
}
