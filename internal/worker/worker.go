package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bamika-fc/backend/internal/models"
	"github.com/bamika-fc/backend/pkg/queue"
)

// RegistrationStore loads registrations for materialization jobs.
type RegistrationStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Registration, error)
}

// RosterStore materializes roster records.
type RosterStore interface {
	Create(ctx context.Context, p *models.Player) error
	CreateIdempotent(ctx context.Context, p *models.Player) (bool, error)
}

// RosterProcessor retries roster materializations that failed during
// webhook settlement: load the activated registration, derive its player
// record, insert it. Jobs come off the Redis queue with retry + DLQ.
type RosterProcessor struct {
	registrations RegistrationStore
	roster        RosterStore
	queue         *queue.Queue
	dedupe        bool
	logger        *zap.Logger
}

// NewRosterProcessor creates a roster materialization processor.
func NewRosterProcessor(registrations RegistrationStore, roster RosterStore, q *queue.Queue, dedupe bool, logger *zap.Logger) *RosterProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RosterProcessor{registrations: registrations, roster: roster, queue: q, dedupe: dedupe, logger: logger}
}

// Process executes one roster materialization job.
func (p *RosterProcessor) Process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypeRosterMaterialization {
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
	var payload queue.RosterMaterializationPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	reg, err := p.registrations.GetByID(ctx, payload.RegistrationID)
	if err != nil {
		return fmt.Errorf("load registration %s: %w", payload.RegistrationID, err)
	}
	if reg == nil {
		// The registration vanished between settlement and retry; retrying
		// cannot help.
		p.logger.Warn("roster job for missing registration, dropping",
			zap.String("registration_id", payload.RegistrationID.String()))
		return nil
	}
	if reg.Status != models.RegistrationStatusActive {
		p.logger.Warn("roster job for non-active registration, dropping",
			zap.String("registration_id", reg.ID.String()), zap.String("status", string(reg.Status)))
		return nil
	}

	player := models.PlayerFromRegistration(reg)
	if p.dedupe {
		inserted, err := p.roster.CreateIdempotent(ctx, player)
		if err != nil {
			return fmt.Errorf("create player: %w", err)
		}
		if !inserted {
			p.logger.Info("roster record already materialized", zap.String("registration_id", reg.ID.String()))
			return nil
		}
	} else {
		// Legacy rows are inserted unlinked so the roster unique index,
		// which only binds rows carrying a registration id, does not apply.
		player.RegistrationID = nil
		if err := p.roster.Create(ctx, player); err != nil {
			return fmt.Errorf("create player: %w", err)
		}
	}

	p.logger.Info("roster record materialized",
		zap.String("registration_id", reg.ID.String()),
		zap.String("player_id", player.ID.String()))
	return nil
}

// Run starts the worker loop: dequeue, process, retry on error.
func (p *RosterProcessor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("roster worker stopping")
			return
		default:
		}

		job, _, err := p.queue.Dequeue(ctx)
		if err != nil {
			p.logger.Warn("dequeue error", zap.Error(err))
			time.Sleep(queue.RetryBackoff)
			continue
		}
		if job == nil {
			continue
		}

		p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Error(err))
			if reErr := p.queue.Retry(ctx, job); reErr != nil {
				p.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			time.Sleep(queue.RetryBackoff)
			continue
		}
	}
}
