package players

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bamika-fc/backend/internal/middleware"
	"github.com/bamika-fc/backend/internal/models"
	"github.com/bamika-fc/backend/pkg/response"
)

// AssignmentRequest is the body for PATCH /api/players/:id/assignment.
// Empty fields are left unchanged.
type AssignmentRequest struct {
	TeamAssigned string     `json:"team_assigned"`
	Position     string     `json:"position"`
	JerseyNumber string     `json:"jersey_number"`
	CoachID      *uuid.UUID `json:"coach_id"`
}

// Handler handles roster HTTP endpoints.
type Handler struct {
	repo   *Repository
	logger *zap.Logger
}

// NewHandler creates a players handler.
func NewHandler(repo *Repository, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, logger: logger}
}

// List handles GET /api/players. Admins see the full roster, coaches their
// assigned players, guardians their own children.
func (h *Handler) List(c *gin.Context) {
	role, _ := c.Get(middleware.ContextUserRole)
	userID, hasUser := c.Get(middleware.ContextUserID)

	var (
		list []models.Player
		err  error
	)
	switch role {
	case string(models.RoleAdmin):
		list, err = h.repo.ListAll(c.Request.Context())
	case string(models.RoleCoach):
		id, _ := userID.(uuid.UUID)
		list, err = h.repo.ListByCoach(c.Request.Context(), id)
	default:
		if !hasUser {
			response.Unauthorized(c, "missing user context")
			return
		}
		id, _ := userID.(uuid.UUID)
		list, err = h.repo.ListByParent(c.Request.Context(), id)
	}
	if err != nil {
		h.logger.Error("list players failed", zap.Error(err))
		response.Internal(c, "failed to list players")
		return
	}
	response.OK(c, list)
}

// UpdateAssignment handles PATCH /api/players/:id/assignment (admin only).
func (h *Handler) UpdateAssignment(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid player id")
		return
	}
	var req AssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	p, err := h.repo.UpdateAssignment(c.Request.Context(), id, req.TeamAssigned, req.Position, req.JerseyNumber, req.CoachID)
	if err != nil {
		h.logger.Error("update assignment failed", zap.Error(err), zap.String("player_id", id.String()))
		response.Internal(c, "failed to update assignment")
		return
	}
	if p == nil {
		response.NotFound(c, "player not found")
		return
	}
	response.OK(c, p)
}
