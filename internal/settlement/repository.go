package settlement

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository records processed provider events for webhook deduplication.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a settlement repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// MarkProcessed records a provider event id. Returns true when this call
// claimed the event, false when an earlier delivery already did.
func (r *Repository) MarkProcessed(ctx context.Context, provider, eventID, eventType string) (bool, error) {
	const q = `INSERT INTO payment_events (provider, provider_event_id, event_type)
		VALUES ($1, $2, $3)
		ON CONFLICT (provider, provider_event_id) DO NOTHING`
	tag, err := r.pool.Exec(ctx, q, provider, eventID, eventType)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
