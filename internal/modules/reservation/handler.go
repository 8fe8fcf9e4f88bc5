package reservation

import (
	"net/http"
	"strconv"

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

// RegisterRoutes mounts the admin endpoints; rg must already be authenticated.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	r := rg.Group("/reservations")
	r.GET("", h.List)
	r.GET("/:id", h.Get)
	r.GET("/:id/stays", h.Stays)
	r.GET("/:id/history", h.History)
	r.POST("/:id/status", h.ChangeStatus)
	r.POST("/:id/confirm", h.Confirm)
	r.POST("/:id/check-in", h.CheckIn)
	r.POST("/:id/check-out", h.CheckOut)
	r.POST("/:id/cancel", h.Cancel)
	r.POST("/:id/no-show", h.NoShow)
}

func reservationID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid reservation id")
		return 0, false
	}
	return id, true
}

// bind decodes an optional JSON body; an empty body leaves req zeroed.
func bind(c *gin.Context, req any) bool {
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(req); err != nil {
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
			return false
		}
	}
	if errs := validator.Validate(req); errs != nil {
		response.BadRequest(c, "Invalid request body", errs)
		return false
	}
	return true
}

func (h *Handler) respond(c *gin.Context, res *domain.Reservation, err error) {
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, ToResponse(res))
}

func (h *Handler) List(c *gin.Context) {
	var q ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid query")
		return
	}

	f := repository.ReservationFilter{Page: q.Page, PageSize: q.PageSize}
	if q.Status != "" {
		status, err := domain.ParseReservationStatus(q.Status)
		if err != nil {
			response.FromError(c, err)
			return
		}
		f.Status = &status
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
		f.To = &to
	}
	if f.PageSize > 100 {
		f.PageSize = 100
	}

	items, total, err := h.service.List(c.Request.Context(), middleware.Actor(c).TenantID, f)
	if err != nil {
		response.FromError(c, err)
		return
	}
	out := make([]Response, 0, len(items))
	for i := range items {
		out = append(out, ToResponse(&items[i]))
	}
	response.Success(c, http.StatusOK, gin.H{"items": out, "total": total})
}

func (h *Handler) Get(c *gin.Context) {
	id, ok := reservationID(c)
	if !ok {
		return
	}
	res, err := h.service.Get(c.Request.Context(), middleware.Actor(c).TenantID, id)
	h.respond(c, res, err)
}

func (h *Handler) Stays(c *gin.Context) {
	id, ok := reservationID(c)
	if !ok {
		return
	}
	stays, err := h.service.Stays(c.Request.Context(), middleware.Actor(c).TenantID, id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"stays": stays})
}

func (h *Handler) History(c *gin.Context) {
	id, ok := reservationID(c)
	if !ok {
		return
	}
	events, err := h.service.History(c.Request.Context(), middleware.Actor(c).TenantID, id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	out := make([]HistoryEntry, 0, len(events))
	for _, e := range events {
		out = append(out, toHistoryEntry(e))
	}
	response.Success(c, http.StatusOK, gin.H{"events": out})
}

func (h *Handler) ChangeStatus(c *gin.Context) {
	id, ok := reservationID(c)
	if !ok {
		return
	}
	var req StatusRequest
	if !bind(c, &req) {
		return
	}
	to, err := domain.ParseReservationStatus(req.Status)
	if err != nil {
		response.FromError(c, err)
		return
	}
	res, err := h.service.Transition(c.Request.Context(), middleware.Actor(c), TransitionRequest{
		ReservationID: id,
		To:            to,
		Assignments:   assignmentMap(req.Assignments),
		Reason:        req.Reason,
	})
	h.respond(c, res, err)
}

func (h *Handler) Confirm(c *gin.Context) {
	id, ok := reservationID(c)
	if !ok {
		return
	}
	res, err := h.service.Confirm(c.Request.Context(), middleware.Actor(c), id)
	h.respond(c, res, err)
}

func (h *Handler) CheckIn(c *gin.Context) {
	id, ok := reservationID(c)
	if !ok {
		return
	}
	var req CheckInRequest
	if !bind(c, &req) {
		return
	}
	res, err := h.service.CheckIn(c.Request.Context(), middleware.Actor(c), id, assignmentMap(req.Assignments))
	h.respond(c, res, err)
}

func (h *Handler) CheckOut(c *gin.Context) {
	id, ok := reservationID(c)
	if !ok {
		return
	}
	res, err := h.service.CheckOut(c.Request.Context(), middleware.Actor(c), id)
	h.respond(c, res, err)
}

func (h *Handler) Cancel(c *gin.Context) {
	id, ok := reservationID(c)
	if !ok {
		return
	}
	var req CancelRequest
	if !bind(c, &req) {
		return
	}
	res, err := h.service.Cancel(c.Request.Context(), middleware.Actor(c), id, req.Reason)
	h.respond(c, res, err)
}

func (h *Handler) NoShow(c *gin.Context) {
	id, ok := reservationID(c)
	if !ok {
		return
	}
	res, err := h.service.MarkNoShow(c.Request.Context(), middleware.Actor(c), id)
	h.respond(c, res, err)
}
