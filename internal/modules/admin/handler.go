package admin

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"medislot/internal/modules/booking"
	"medislot/internal/pkg/response"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes expects rg to already carry JWT auth and the admin role gate.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/admin/bookings", h.ListBookings)
	rg.DELETE("/admin/bookings/:id", h.CancelBooking)
	rg.DELETE("/admin/slots/:id", h.DeleteSlot)
	rg.DELETE("/admin/doctors/:id", h.DeleteDoctor)
}

func (h *Handler) ListBookings(c *gin.Context) {
	rows, err := h.service.ListBookings(c.Request.Context())
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch bookings")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"bookings": rows})
}

func (h *Handler) CancelBooking(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.service.CancelBooking(c.Request.Context(), id); err != nil {
		switch err {
		case booking.ErrBookingNotFound:
			response.Error(c, http.StatusNotFound, "NOT_FOUND", "Booking not found")
		case booking.ErrNotCancellable:
			response.Error(c, http.StatusConflict, "INVALID_STATE", "Booking is already finalized")
		default:
			response.Error(c, http.StatusInternalServerError, "TRANSACTION_FAILED", "Failed to cancel booking")
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"message": "Booking moved to buffer; the slot will be released when the buffer window lapses",
	})
}

func (h *Handler) DeleteSlot(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.service.DeleteSlot(c.Request.Context(), id); err != nil {
		if err == ErrNotFound {
			response.Error(c, http.StatusNotFound, "NOT_FOUND", "Slot not found")
			return
		}
		response.Error(c, http.StatusInternalServerError, "TRANSACTION_FAILED", "Failed to delete slot")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "Slot deleted"})
}

func (h *Handler) DeleteDoctor(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.service.DeleteDoctor(c.Request.Context(), id); err != nil {
		if err == ErrNotFound {
			response.Error(c, http.StatusNotFound, "NOT_FOUND", "Doctor not found")
			return
		}
		response.Error(c, http.StatusInternalServerError, "TRANSACTION_FAILED", "Failed to delete doctor")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "Doctor and all associated data deleted"})
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid ID")
		return 0, false
	}
	return id, true
}
