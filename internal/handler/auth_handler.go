package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fci-zu/faculty-api/internal/middleware"
	"github.com/fci-zu/faculty-api/internal/models"
	"github.com/fci-zu/faculty-api/internal/service"
	appErrors "github.com/fci-zu/faculty-api/pkg/errors"
	"github.com/fci-zu/faculty-api/pkg/response"
)

// AuthHandler exposes staff authentication endpoints.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs AuthHandler.
func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// Login exchanges staff credentials for an access token.
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.auth.Login(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Register creates a staff account.
func (h *AuthHandler) Register(c *gin.Context) {
	var req service.RegisterStaffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	staff, err := h.auth.Register(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, staff)
}

// Me returns the authenticated staff member's claims.
func (h *AuthHandler) Me(c *gin.Context) {
	claimsValue, exists := c.Get(middleware.ContextStaffKey)
	if !exists {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	claims, ok := claimsValue.(*models.JWTClaims)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	response.JSON(c, http.StatusOK, models.StaffInfo{
		ID:       claims.StaffID,
		Email:    claims.Email,
		FullName: claims.FullName,
		Role:     claims.Role,
	}, nil)
}
