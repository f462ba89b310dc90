package directory

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"medislot/internal/pkg/response"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	rg.GET("/doctors", h.ListDoctors)
}

func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.POST("/admin/doctors", h.CreateDoctor)
	rg.POST("/slots", h.CreateSlot)
}

func (h *Handler) ListDoctors(c *gin.Context) {
	doctors, err := h.service.ListDoctors(c.Request.Context())
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch doctors")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"doctors": doctors})
}

func (h *Handler) CreateDoctor(c *gin.Context) {
	var req CreateDoctorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	d, err := h.service.CreateDoctor(c.Request.Context(), req)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create doctor")
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"doctor": d})
}

func (h *Handler) CreateSlot(c *gin.Context) {
	var req CreateSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	slot, err := h.service.CreateSlot(c.Request.Context(), req)
	if err != nil {
		switch err {
		case ErrValidation:
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Slot start time must be in the future")
		case ErrDoctorNotFound:
			response.Error(c, http.StatusNotFound, "NOT_FOUND", "Doctor not found")
		default:
			response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create slot")
		}
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"slot": slot})
}
