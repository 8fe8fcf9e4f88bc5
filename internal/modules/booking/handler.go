package booking

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"lodging/internal/domain"
	"lodging/internal/middleware"
	"lodging/internal/modules/reservation"
	"lodging/internal/pkg/response"
	"lodging/internal/pkg/validator"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the guest-facing endpoints. They are not authenticated;
// the reference plus last name act as the credential.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/properties/:tenantId/bookings", h.CreateBooking)
	rg.GET("/bookings/:reference", h.GetBooking)
	rg.POST("/bookings/:reference/cancel", h.CancelBooking)
}

// RegisterStaffRoutes mounts booking on behalf of a guest; rg must already be authenticated.
func (h *Handler) RegisterStaffRoutes(rg *gin.RouterGroup) {
	rg.POST("/bookings", h.CreateStaffBooking)
}

func (h *Handler) CreateBooking(c *gin.Context) {
	tenantID, err := strconv.ParseInt(c.Param("tenantId"), 10, 64)
	if err != nil || tenantID <= 0 {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid property id")
		return
	}

	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if errs := validator.Validate(req); errs != nil {
		response.BadRequest(c, "Invalid booking request", errs)
		return
	}

	req.Source = string(domain.SourceWeb)

	conf, err := h.service.CreateBooking(c.Request.Context(), tenantID, req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, toConfirmationResponse(conf))
}

func (h *Handler) CreateStaffBooking(c *gin.Context) {
	var req StaffBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if errs := validator.Validate(req.CreateBookingRequest); errs != nil {
		response.BadRequest(c, "Invalid booking request", errs)
		return
	}
	booking := req.CreateBookingRequest
	booking.Source = req.Source
	if booking.Source == "" {
		booking.Source = string(domain.SourceAdmin)
	}

	conf, err := h.service.CreateBooking(c.Request.Context(), middleware.Actor(c).TenantID, booking)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, toConfirmationResponse(conf))
}

func (h *Handler) GetBooking(c *gin.Context) {
	lastName := c.Query("last_name")
	if lastName == "" {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "last_name is required")
		return
	}
	res, err := h.service.GetByReference(c.Request.Context(), c.Param("reference"), lastName)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, reservation.ToResponse(res))
}

func (h *Handler) CancelBooking(c *gin.Context) {
	var req CancelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if errs := validator.Validate(req); errs != nil {
		response.BadRequest(c, "Invalid cancel request", errs)
		return
	}
	res, err := h.service.Cancel(c.Request.Context(), c.Param("reference"), req.LastName, req.Reason)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, reservation.ToResponse(res))
}
