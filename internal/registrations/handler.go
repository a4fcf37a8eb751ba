package registrations

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bamika-fc/backend/internal/checkout"
	"github.com/bamika-fc/backend/internal/intake"
	"github.com/bamika-fc/backend/internal/middleware"
	"github.com/bamika-fc/backend/internal/models"
	"github.com/bamika-fc/backend/pkg/response"
)

// Store is the registration persistence the handler needs.
type Store interface {
	Create(ctx context.Context, reg *models.Registration) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Registration, error)
	ListByParent(ctx context.Context, parentID uuid.UUID) ([]models.Registration, error)
	ListAll(ctx context.Context) ([]models.Registration, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// RosterStore is the roster persistence the handler needs: creation for
// staff manual entry, lookup for the registration detail view.
type RosterStore interface {
	Create(ctx context.Context, p *models.Player) error
	GetByRegistrationID(ctx context.Context, registrationID uuid.UUID) (*models.Player, error)
}

// RegistrationData is the intake payload accepted by the checkout boundary.
type RegistrationData struct {
	ParentID *uuid.UUID `json:"parent_id"`
	intake.Submission
}

// CreateCheckoutSessionRequest is the body for POST /api/create-checkout-session.
// Exactly one of registrationData (new submission) or registrationId (resume
// an existing pending registration) must be supplied.
type CreateCheckoutSessionRequest struct {
	RegistrationData *RegistrationData `json:"registrationData"`
	RegistrationID   string            `json:"registrationId"`
	SuccessURL       string            `json:"successUrl"`
}

// ManualEntryRequest is the body for POST /api/registrations (staff entry).
type ManualEntryRequest struct {
	ParentID          *uuid.UUID `json:"parent_id"`
	FirstName         string     `json:"first_name" binding:"required"`
	LastName          string     `json:"last_name" binding:"required"`
	DOB               string     `json:"dob" binding:"required"`
	Gender            string     `json:"gender" binding:"omitempty,oneof=Male Female"`
	MedicalConditions string     `json:"medical_conditions"`
	Position          string     `json:"position"`
	JerseySize        string     `json:"jersey_size"`
	PhotoURL          string     `json:"photo_url"`
	BirthCertPath     string     `json:"birth_cert_path"`
}

// Handler handles registration HTTP endpoints.
type Handler struct {
	store       Store
	roster      RosterStore
	sessions    checkout.SessionCreator
	frontendURL string
	logger      *zap.Logger
}

// NewHandler creates a registrations handler.
func NewHandler(store Store, roster RosterStore, sessions checkout.SessionCreator, frontendURL string, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{store: store, roster: roster, sessions: sessions, frontendURL: frontendURL, logger: logger}
}

// CreateCheckoutSession handles POST /api/create-checkout-session. It
// produces exactly one pending registration (or reuses an existing one) and
// one checkout URL bound to it, then leaves settlement to the webhook. The
// wire contract here predates the response envelope: {url} on success,
// {error} otherwise.
func (h *Handler) CreateCheckoutSession(c *gin.Context) {
	var req CreateCheckoutSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	var reg *models.Registration
	switch {
	case req.RegistrationID != "":
		id, err := uuid.Parse(req.RegistrationID)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Registration not found"})
			return
		}
		reg, err = h.store.GetByID(c.Request.Context(), id)
		if err != nil {
			h.logger.Error("load registration failed", zap.Error(err), zap.String("registration_id", req.RegistrationID))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load registration"})
			return
		}
		if reg == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Registration not found"})
			return
		}

	case req.RegistrationData != nil:
		if problems := intake.Validate(req.RegistrationData.Submission); len(problems) > 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid registration data", "fields": problems})
			return
		}
		data := req.RegistrationData
		reg = &models.Registration{
			ParentID:          data.ParentID,
			FirstName:         data.FirstName,
			LastName:          data.LastName,
			DOB:               data.DOB,
			Gender:            data.Gender,
			MedicalConditions: data.MedicalConditions,
			BirthCertPath:     data.BirthCertPath,
			PhotoURL:          data.PhotoURL,
			WaiverSignedAt:    data.WaiverSignedAt,
			Position:          data.Position,
			JerseySize:        data.JerseySize,
			Status:            models.RegistrationStatusPending,
			PaymentStatus:     models.PaymentStatusPending,
		}
		if err := h.store.Create(c.Request.Context(), reg); err != nil {
			h.logger.Error("create registration failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save registration data"})
			return
		}

	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "registrationData or registrationId required"})
		return
	}

	successURL := req.SuccessURL
	if successURL == "" {
		successURL = h.frontendURL + "/dashboard?success=true"
	}
	cancelURL := h.frontendURL + "/register?canceled=true"

	url, err := h.sessions.CreateSession(c.Request.Context(), reg, successURL, cancelURL)
	if err != nil {
		h.logger.Error("create checkout session failed", zap.Error(err), zap.String("registration_id", reg.ID.String()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create checkout session"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": url})
}

// CreateManualEntry handles POST /api/registrations (admin only). Staff
// entry bypasses payment: the registration is created directly active/paid
// and the roster record is materialized immediately. If the roster insert
// fails the registration is deleted again so staff can simply retry.
func (h *Handler) CreateManualEntry(c *gin.Context) {
	var req ManualEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	staffID := currentUserID(c)
	reg := &models.Registration{
		ParentID:          req.ParentID,
		FirstName:         req.FirstName,
		LastName:          req.LastName,
		DOB:               req.DOB,
		Gender:            req.Gender,
		MedicalConditions: req.MedicalConditions,
		Position:          req.Position,
		JerseySize:        req.JerseySize,
		PhotoURL:          req.PhotoURL,
		BirthCertPath:     req.BirthCertPath,
		Status:            models.RegistrationStatusActive,
		PaymentStatus:     models.PaymentStatusPaid,
		AssignedStaffID:   staffID,
	}
	if err := h.store.Create(c.Request.Context(), reg); err != nil {
		h.logger.Error("manual entry: create registration failed", zap.Error(err))
		response.Internal(c, "failed to create registration")
		return
	}

	player := models.PlayerFromRegistration(reg)
	if err := h.roster.Create(c.Request.Context(), player); err != nil {
		h.logger.Error("manual entry: create player failed, compensating",
			zap.Error(err), zap.String("registration_id", reg.ID.String()))
		if delErr := h.store.Delete(c.Request.Context(), reg.ID); delErr != nil {
			h.logger.Error("manual entry: compensating delete failed", zap.Error(delErr),
				zap.String("registration_id", reg.ID.String()))
		}
		response.Internal(c, "failed to create player record")
		return
	}

	response.Created(c, gin.H{"registration": reg, "player": player})
}

// List handles GET /api/registrations. Staff see everything; guardians see
// their own submissions.
func (h *Handler) List(c *gin.Context) {
	role, _ := c.Get(middleware.ContextUserRole)
	if role == string(models.RoleAdmin) || role == string(models.RoleCoach) {
		list, err := h.store.ListAll(c.Request.Context())
		if err != nil {
			h.logger.Error("list registrations failed", zap.Error(err))
			response.Internal(c, "failed to list registrations")
			return
		}
		response.OK(c, list)
		return
	}

	userID := currentUserID(c)
	if userID == nil {
		response.Unauthorized(c, "missing user context")
		return
	}
	list, err := h.store.ListByParent(c.Request.Context(), *userID)
	if err != nil {
		h.logger.Error("list registrations failed", zap.Error(err))
		response.Internal(c, "failed to list registrations")
		return
	}
	response.OK(c, list)
}

// GetByID handles GET /api/registrations/:id. Returns the registration
// together with its derived roster record when settlement has materialized
// one (player is null for pending registrations and unlinked legacy rows).
// Guardians can only read their own registrations.
func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid registration id")
		return
	}
	reg, err := h.store.GetByID(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("get registration failed", zap.Error(err), zap.String("registration_id", id.String()))
		response.Internal(c, "failed to load registration")
		return
	}
	if reg == nil {
		response.NotFound(c, "registration not found")
		return
	}

	role, _ := c.Get(middleware.ContextUserRole)
	if role != string(models.RoleAdmin) && role != string(models.RoleCoach) {
		userID := currentUserID(c)
		if userID == nil || reg.ParentID == nil || *reg.ParentID != *userID {
			response.Forbidden(c, "not your registration")
			return
		}
	}

	player, err := h.roster.GetByRegistrationID(c.Request.Context(), reg.ID)
	if err != nil {
		h.logger.Error("load player failed", zap.Error(err), zap.String("registration_id", reg.ID.String()))
		response.Internal(c, "failed to load registration")
		return
	}
	response.OK(c, gin.H{"registration": reg, "player": player})
}

func currentUserID(c *gin.Context) *uuid.UUID {
	v, ok := c.Get(middleware.ContextUserID)
	if !ok {
		return nil
	}
	id, ok := v.(uuid.UUID)
	if !ok {
		return nil
	}
	return &id
}
