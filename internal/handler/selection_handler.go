package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/ttb-planner-api/internal/models"
	appErrors "github.com/noah-isme/ttb-planner-api/pkg/errors"
	"github.com/noah-isme/ttb-planner-api/pkg/response"
)

type selectionService interface {
	Create(ctx context.Context, userID string, req models.CreateSelectionRequest) (*models.Selection, error)
	List(ctx context.Context, userID string) ([]models.Selection, error)
	Get(ctx context.Context, userID, id string) (*models.Selection, error)
	Delete(ctx context.Context, userID, id string) error
	Calendar(ctx context.Context, userID, id string) (*models.SelectionCalendar, error)
	Export(ctx context.Context, userID, id string, format models.ExportFormat) (*models.SelectionExport, error)
	ShareLink(ctx context.Context, userID, id string, format models.ExportFormat) (*models.ShareLink, error)
	ExportShared(ctx context.Context, token string) (*models.SelectionExport, error)
}

// SelectionHandler exposes saved selections of the calling guest.
type SelectionHandler struct {
	service  selectionService
	feedBase string
}

// NewSelectionHandler constructs the handler. feedBase is the path prefix
// under which Feed is mounted, e.g. /api/v1/feeds.
func NewSelectionHandler(svc selectionService, feedBase string) *SelectionHandler {
	return &SelectionHandler{service: svc, feedBase: strings.TrimSuffix(feedBase, "/")}
}

// Create godoc
// @Summary Save a selection
// @Tags Selections
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.CreateSelectionRequest true "Selection"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /selections [post]
func (h *SelectionHandler) Create(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req models.CreateSelectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid selection payload"))
		return
	}
	selection, err := h.service.Create(c.Request.Context(), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, selection)
}

// List godoc
// @Summary List saved selections
// @Tags Selections
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /selections [get]
func (h *SelectionHandler) List(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	selections, err := h.service.List(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, selections, nil)
}

// Get godoc
// @Summary Get a saved selection
// @Tags Selections
// @Produce json
// @Security BearerAuth
// @Param id path string true "Selection ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /selections/{id} [get]
func (h *SelectionHandler) Get(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	selection, err := h.service.Get(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, selection, nil)
}

// Delete godoc
// @Summary Delete a saved selection
// @Tags Selections
// @Security BearerAuth
// @Param id path string true "Selection ID"
// @Success 204
// @Router /selections/{id} [delete]
func (h *SelectionHandler) Delete(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.service.Delete(c.Request.Context(), userID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Calendar godoc
// @Summary Weekly calendar of a selection
// @Description Resolves selected options into meetings and lists overlapping pairs
// @Tags Selections
// @Produce json
// @Security BearerAuth
// @Param id path string true "Selection ID"
// @Success 200 {object} response.Envelope
// @Router /selections/{id}/calendar [get]
func (h *SelectionHandler) Calendar(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	calendar, err := h.service.Calendar(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, calendar, nil, map[string]interface{}{"conflicts": len(calendar.Conflicts)})
}

// Export godoc
// @Summary Download a selection
// @Tags Selections
// @Produce octet-stream
// @Security BearerAuth
// @Param id path string true "Selection ID"
// @Param format query string false "ics, csv or pdf" default(ics)
// @Success 200 {file} file
// @Router /selections/{id}/export [get]
func (h *SelectionHandler) Export(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	out, err := h.service.Export(c.Request.Context(), userID, c.Param("id"), exportFormat(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, out.Filename, out.ContentType, out.Body)
}

// Share godoc
// @Summary Create a share link
// @Description Issues a token URL that serves one export without authentication, for calendar subscriptions
// @Tags Selections
// @Produce json
// @Security BearerAuth
// @Param id path string true "Selection ID"
// @Param format query string false "ics, csv or pdf" default(ics)
// @Success 201 {object} response.Envelope
// @Router /selections/{id}/share [post]
func (h *SelectionHandler) Share(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	link, err := h.service.ShareLink(c.Request.Context(), userID, c.Param("id"), exportFormat(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	link.Path = h.feedBase + "/" + link.Token
	response.Created(c, link)
}

// Feed godoc
// @Summary Download a shared export
// @Tags Selections
// @Produce octet-stream
// @Param token path string true "Share token"
// @Success 200 {file} file
// @Failure 404 {object} response.Envelope
// @Router /feeds/{token} [get]
func (h *SelectionHandler) Feed(c *gin.Context) {
	out, err := h.service.ExportShared(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, out.Filename, out.ContentType, out.Body)
}

func exportFormat(c *gin.Context) models.ExportFormat {
	raw := c.DefaultQuery("format", string(models.ExportFormatICS))
	return models.ExportFormat(strings.ToLower(strings.TrimSpace(raw)))
}
