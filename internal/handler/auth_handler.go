package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/ttb-planner-api/internal/models"
	"github.com/noah-isme/ttb-planner-api/pkg/response"
)

type guestTokenIssuer interface {
	IssueGuestToken() (*models.GuestTokenResponse, error)
}

// AuthHandler wires HTTP endpoints to the auth service.
type AuthHandler struct {
	service guestTokenIssuer
}

// NewAuthHandler creates a new handler.
func NewAuthHandler(svc guestTokenIssuer) *AuthHandler {
	return &AuthHandler{service: svc}
}

// Guest godoc
// @Summary Issue guest token
// @Description Issue an anonymous token used to own saved selections
// @Tags Authentication
// @Produce json
// @Success 201 {object} response.Envelope
// @Router /auth/guest [post]
func (h *AuthHandler) Guest(c *gin.Context) {
	res, err := h.service.IssueGuestToken()
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, res, nil)
}
