// Package handler exposes the board engine over HTTP.
package handler

import (
	"net/http"

	"pipeline_board_backend/internal/board/engine"
	"pipeline_board_backend/internal/board/transport"
	"pipeline_board_backend/platform/httpkit"
	"pipeline_board_backend/platform/logger"
	"pipeline_board_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgMissingOrg       = "missing organization"
)

type Handler struct {
	registry *engine.Registry
	val      *validator.Validator
	log      *logger.Logger
}

func New(registry *engine.Registry, val *validator.Validator, log *logger.Logger) *Handler {
	return &Handler{registry: registry, val: val, log: log}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.Board)
	rg.POST("/refresh", h.Refresh)
	rg.POST("/moves", h.Move)
	rg.POST("/close", h.ConfirmClose)
	rg.POST("/undo", h.Undo)
	rg.GET("/in-flight", h.InFlight)
}

func (h *Handler) Board(c *gin.Context) {
	orgID, ok := httpkit.OrgID(c)
	if !ok {
		httpkit.Error(c, http.StatusBadRequest, msgMissingOrg, nil)
		return
	}

	board, err := h.registry.Board(c.Request.Context(), orgID)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.FromBoard(board, h.registry.IsBoardBusy(orgID)))
}

func (h *Handler) Refresh(c *gin.Context) {
	orgID, ok := httpkit.OrgID(c)
	if !ok {
		httpkit.Error(c, http.StatusBadRequest, msgMissingOrg, nil)
		return
	}

	if err := h.registry.Resync(c.Request.Context(), orgID, "manual"); httpkit.HandleError(c, err) {
		return
	}

	board, err := h.registry.Board(c.Request.Context(), orgID)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.FromBoard(board, h.registry.IsBoardBusy(orgID)))
}

func (h *Handler) Move(c *gin.Context) {
	h.move(c, false)
}

// ConfirmClose is the explicit terminal-entry endpoint backing the close
// dialog. A direct move onto a won/lost stage is always rejected; only this
// confirmation path may complete it.
func (h *Handler) ConfirmClose(c *gin.Context) {
	h.move(c, true)
}

func (h *Handler) move(c *gin.Context, confirmTerminal bool) {
	orgID, ok := httpkit.OrgID(c)
	if !ok {
		httpkit.Error(c, http.StatusBadRequest, msgMissingOrg, nil)
		return
	}

	var req transport.MoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	ctx := c.Request.Context()
	var moved bool
	var err error
	if confirmTerminal {
		moved, err = h.registry.ConfirmClose(ctx, orgID, req.DealID, req.TargetStageID)
	} else {
		moved, err = h.registry.Move(ctx, orgID, req.DealID, req.TargetStageID)
	}
	if httpkit.HandleError(c, err) {
		return
	}

	if !moved {
		// Stale reference: the caller acted on an outdated board view.
		c.Status(http.StatusNoContent)
		return
	}

	canUndo, undoErr := h.registry.CanUndo(ctx, orgID)
	if undoErr != nil {
		// The move itself committed; only the undo hint is unavailable.
		h.log.Warn("failed to check undo availability", "error", undoErr, "organizationId", orgID)
	}
	httpkit.OK(c, transport.MoveResponse{Moved: true, CanUndo: canUndo})
}

func (h *Handler) Undo(c *gin.Context) {
	orgID, ok := httpkit.OrgID(c)
	if !ok {
		httpkit.Error(c, http.StatusBadRequest, msgMissingOrg, nil)
		return
	}

	if err := h.registry.Undo(c.Request.Context(), orgID); httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, gin.H{"undone": true})
}

func (h *Handler) InFlight(c *gin.Context) {
	orgID, ok := httpkit.OrgID(c)
	if !ok {
		httpkit.Error(c, http.StatusBadRequest, msgMissingOrg, nil)
		return
	}

	httpkit.OK(c, transport.InFlightResponse{
		DealIDs: h.registry.InFlightDeals(orgID),
		Busy:    h.registry.IsBoardBusy(orgID),
	})
}
