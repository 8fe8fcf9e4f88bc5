package housekeeping

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"lodging/internal/domain"
	"lodging/internal/middleware"
	"lodging/internal/pkg/response"
	"lodging/internal/pkg/validator"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type CreateTaskRequest struct {
	RoomID int64  `json:"room_id" validate:"required,gt=0"`
	Notes  string `json:"notes" validate:"max=1000"`
}

type StatusRequest struct {
	Status string `json:"status" validate:"required"`
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	hk := rg.Group("/housekeeping")
	hk.GET("/tasks", h.ListTasks)
	hk.POST("/tasks", h.CreateTask)
	hk.POST("/tasks/:id/status", h.UpdateTaskStatus)
	hk.GET("/rooms", h.ListRooms)
	hk.POST("/rooms/:id/status", h.SetRoomStatus)
}

func bind(c *gin.Context, req any) bool {
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

func (h *Handler) ListTasks(c *gin.Context) {
	var status *domain.TaskStatus
	if raw := c.Query("status"); raw != "" {
		s, err := domain.ParseTaskStatus(raw)
		if err != nil {
			response.FromError(c, err)
			return
		}
		status = &s
	}
	tasks, err := h.service.List(c.Request.Context(), middleware.Actor(c).TenantID, status)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"tasks": tasks})
}

func (h *Handler) CreateTask(c *gin.Context) {
	var req CreateTaskRequest
	if !bind(c, &req) {
		return
	}
	task, err := h.service.Create(c.Request.Context(), middleware.Actor(c), req.RoomID, req.Notes)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, task)
}

func (h *Handler) UpdateTaskStatus(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req StatusRequest
	if !bind(c, &req) {
		return
	}
	to, err := domain.ParseTaskStatus(req.Status)
	if err != nil {
		response.FromError(c, err)
		return
	}
	task, err := h.service.UpdateStatus(c.Request.Context(), middleware.Actor(c), id, to)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, task)
}

func (h *Handler) ListRooms(c *gin.Context) {
	rooms, err := h.service.ListRooms(c.Request.Context(), middleware.Actor(c).TenantID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"rooms": rooms})
}

func (h *Handler) SetRoomStatus(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req StatusRequest
	if !bind(c, &req) {
		return
	}
	room, err := h.service.SetRoomStatus(c.Request.Context(), middleware.Actor(c), id, domain.RoomStatus(req.Status))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, room)
}
