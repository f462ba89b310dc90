package auth

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

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/auth/signup", h.Signup)
	rg.POST("/auth/login", h.Login)
}

func (h *Handler) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	user, err := h.service.Signup(c.Request.Context(), req)
	if err != nil {
		if err == ErrEmailAlreadyExists {
			response.Error(c, http.StatusBadRequest, "EMAIL_EXISTS", "User already exists")
			return
		}
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create user")
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"user": user})
}

func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	result, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		if err == ErrInvalidCredentials {
			response.Error(c, http.StatusBadRequest, "INVALID_CREDENTIALS", "Invalid email or password")
			return
		}
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Login failed")
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"token": result.Token,
		"user":  result.User,
	})
}
