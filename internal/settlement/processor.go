// Package settlement finalizes registrations when the payment processor
// reports a completed checkout. Activation of the registration is the
// durable source of truth; roster materialization is downstream of it and
// must never roll activation back.
package settlement

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bamika-fc/backend/internal/models"
	"github.com/bamika-fc/backend/pkg/queue"
)

// EventCheckoutCompleted is the only event type that triggers state change.
const EventCheckoutCompleted = "checkout.session.completed"

// CheckoutSession is the slice of the provider's session object the
// settlement path needs: the correlation reference (our registration id)
// and the subscription the processor assigned.
type CheckoutSession struct {
	ID                string `json:"id"`
	ClientReferenceID string `json:"client_reference_id"`
	SubscriptionID    string `json:"subscription"`
}

// RegistrationStore activates registrations.
type RegistrationStore interface {
	Activate(ctx context.Context, id uuid.UUID, subscriptionID string) (*models.Registration, error)
}

// RosterStore materializes roster records.
type RosterStore interface {
	Create(ctx context.Context, p *models.Player) error
	CreateIdempotent(ctx context.Context, p *models.Player) (bool, error)
}

// EventStore claims provider event ids for deduplication.
type EventStore interface {
	MarkProcessed(ctx context.Context, provider, eventID, eventType string) (bool, error)
}

// RosterQueue re-schedules failed roster materializations.
type RosterQueue interface {
	EnqueueRosterMaterialization(ctx context.Context, payload queue.RosterMaterializationPayload) error
}

// Processor applies completed-checkout events. It is written for
// at-least-once, possibly reordered delivery: it may run zero, one, or many
// times per registration, in any order relative to other events.
//
// With dedupe enabled (the default) replays are detected by provider event
// id and the roster insert is keyed on the source registration, so
// activation and materialization each happen at most once. With dedupe
// disabled the pre-migration behavior is preserved verbatim: replays
// re-apply the same registration update and insert duplicate roster rows.
type Processor struct {
	registrations RegistrationStore
	roster        RosterStore
	events        EventStore
	rosterQueue   RosterQueue
	dedupe        bool
	logger        *zap.Logger
}

// NewProcessor creates a settlement processor.
func NewProcessor(registrations RegistrationStore, roster RosterStore, events EventStore, rosterQueue RosterQueue, dedupe bool, logger *zap.Logger) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{
		registrations: registrations,
		roster:        roster,
		events:        events,
		rosterQueue:   rosterQueue,
		dedupe:        dedupe,
		logger:        logger,
	}
}

// HandleCheckoutCompleted settles one completed-checkout event. A missing
// or unknown correlation reference is acknowledged without writes. An
// activation failure is returned to the caller; a roster materialization
// failure is not; it is queued for retry instead.
func (p *Processor) HandleCheckoutCompleted(ctx context.Context, eventID string, sess CheckoutSession) error {
	if sess.ClientReferenceID == "" {
		p.logger.Warn("completed session without client_reference_id", zap.String("session_id", sess.ID))
		return nil
	}
	regID, err := uuid.Parse(sess.ClientReferenceID)
	if err != nil {
		p.logger.Warn("completed session with malformed client_reference_id",
			zap.String("session_id", sess.ID), zap.String("client_reference_id", sess.ClientReferenceID))
		return nil
	}

	if p.dedupe && eventID != "" {
		fresh, err := p.events.MarkProcessed(ctx, models.PaymentProviderStripe, eventID, EventCheckoutCompleted)
		if err != nil {
			// Dedup bookkeeping must not block settlement; both downstream
			// writes are idempotent in this mode.
			p.logger.Error("mark event processed failed", zap.Error(err), zap.String("event_id", eventID))
		} else if !fresh {
			p.logger.Info("replayed event ignored", zap.String("event_id", eventID),
				zap.String("registration_id", regID.String()))
			return nil
		}
	}

	reg, err := p.registrations.Activate(ctx, regID, sess.SubscriptionID)
	if err != nil {
		return fmt.Errorf("activate registration %s: %w", regID, err)
	}
	if reg == nil {
		p.logger.Warn("completed session references unknown registration",
			zap.String("event_id", eventID), zap.String("registration_id", regID.String()))
		return nil
	}
	p.logger.Info("registration activated",
		zap.String("registration_id", reg.ID.String()),
		zap.String("subscription_id", sess.SubscriptionID))

	p.materialize(ctx, reg, eventID)
	return nil
}

// materialize derives the roster record from an activated registration.
// Failures here never propagate: the job is handed to the queue and the
// worker retries it with backoff and a DLQ.
func (p *Processor) materialize(ctx context.Context, reg *models.Registration, eventID string) {
	player := models.PlayerFromRegistration(reg)

	var err error
	if p.dedupe {
		var inserted bool
		inserted, err = p.roster.CreateIdempotent(ctx, player)
		if err == nil {
			if !inserted {
				p.logger.Info("roster record already materialized", zap.String("registration_id", reg.ID.String()))
			} else {
				p.logger.Info("player record created", zap.String("registration_id", reg.ID.String()),
					zap.String("player_id", player.ID.String()))
			}
			return
		}
	} else {
		// The pre-migration schema carried no source-reference column, so
		// legacy rows are inserted unlinked; the roster unique index only
		// binds rows that carry a registration id.
		player.RegistrationID = nil
		if err = p.roster.Create(ctx, player); err == nil {
			p.logger.Info("player record created", zap.String("registration_id", reg.ID.String()),
				zap.String("player_id", player.ID.String()))
			return
		}
	}

	p.logger.Error("create player record failed, scheduling retry",
		zap.Error(err), zap.String("registration_id", reg.ID.String()))
	if qErr := p.rosterQueue.EnqueueRosterMaterialization(ctx, queue.RosterMaterializationPayload{
		RegistrationID:  reg.ID,
		ProviderEventID: eventID,
	}); qErr != nil {
		p.logger.Error("enqueue roster materialization failed; manual reconciliation needed",
			zap.Error(qErr), zap.String("registration_id", reg.ID.String()))
	}
}
