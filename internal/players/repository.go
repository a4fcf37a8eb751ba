package players

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bamika-fc/backend/internal/models"
)

// Repository handles roster persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a players repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const playerColumns = `id, parent_id, registration_id, full_name, date_of_birth, gender, position,
	jersey_size, jersey_number, medical_conditions, team_assigned, coach_id, photo_url, created_at, updated_at`

const insertPlayer = `INSERT INTO players (parent_id, registration_id, full_name, date_of_birth, gender,
	position, jersey_size, jersey_number, medical_conditions, team_assigned, coach_id, photo_url)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

func scanPlayer(row pgx.Row) (*models.Player, error) {
	var p models.Player
	err := row.Scan(&p.ID, &p.ParentID, &p.RegistrationID, &p.FullName, &p.DateOfBirth, &p.Gender,
		&p.Position, &p.JerseySize, &p.JerseyNumber, &p.MedicalConditions, &p.TeamAssigned,
		&p.CoachID, &p.PhotoURL, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Create inserts a roster record unconditionally. Legacy settlement passes
// players without a source reference, so a replay produces a second,
// unlinked row; rows that do carry a registration id fall under the roster
// unique index and a duplicate insert fails.
func (r *Repository) Create(ctx context.Context, p *models.Player) error {
	const q = insertPlayer + ` RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, q,
		p.ParentID, p.RegistrationID, p.FullName, p.DateOfBirth, p.Gender,
		p.Position, p.JerseySize, p.JerseyNumber, p.MedicalConditions, p.TeamAssigned,
		p.CoachID, p.PhotoURL).
		Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
}

// CreateIdempotent inserts a roster record keyed on its source registration;
// a replay for an already-materialized registration is a no-op. Returns
// whether a row was inserted.
func (r *Repository) CreateIdempotent(ctx context.Context, p *models.Player) (bool, error) {
	const q = insertPlayer + `
		ON CONFLICT (registration_id) WHERE registration_id IS NOT NULL DO NOTHING
		RETURNING id, created_at, updated_at`
	err := r.pool.QueryRow(ctx, q,
		p.ParentID, p.RegistrationID, p.FullName, p.DateOfBirth, p.Gender,
		p.Position, p.JerseySize, p.JerseyNumber, p.MedicalConditions, p.TeamAssigned,
		p.CoachID, p.PhotoURL).
		Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// GetByRegistrationID returns the roster record derived from a registration,
// or nil when none exists.
func (r *Repository) GetByRegistrationID(ctx context.Context, registrationID uuid.UUID) (*models.Player, error) {
	p, err := scanPlayer(r.pool.QueryRow(ctx,
		`SELECT `+playerColumns+` FROM players WHERE registration_id = $1 ORDER BY created_at LIMIT 1`, registrationID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return p, nil
}

// ListAll returns the full roster (staff view).
func (r *Repository) ListAll(ctx context.Context) ([]models.Player, error) {
	return r.list(ctx, `SELECT `+playerColumns+` FROM players ORDER BY full_name`)
}

// ListByParent returns a guardian's children on the roster.
func (r *Repository) ListByParent(ctx context.Context, parentID uuid.UUID) ([]models.Player, error) {
	return r.list(ctx, `SELECT `+playerColumns+` FROM players WHERE parent_id = $1 ORDER BY full_name`, parentID)
}

// ListByCoach returns the players assigned to a coach.
func (r *Repository) ListByCoach(ctx context.Context, coachID uuid.UUID) ([]models.Player, error) {
	return r.list(ctx, `SELECT `+playerColumns+` FROM players WHERE coach_id = $1 ORDER BY full_name`, coachID)
}

func (r *Repository) list(ctx context.Context, q string, args ...interface{}) ([]models.Player, error) {
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Player
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *p)
	}
	return list, rows.Err()
}

// UpdateAssignment sets roster assignment fields. Returns the updated row,
// or nil when the player does not exist.
func (r *Repository) UpdateAssignment(ctx context.Context, id uuid.UUID, team, position, jerseyNumber string, coachID *uuid.UUID) (*models.Player, error) {
	const q = `UPDATE players
		SET team_assigned = COALESCE(NULLIF($2, ''), team_assigned),
			position = COALESCE(NULLIF($3, ''), position),
			jersey_number = COALESCE(NULLIF($4, ''), jersey_number),
			coach_id = COALESCE($5, coach_id),
			updated_at = NOW()
		WHERE id = $1
		RETURNING ` + playerColumns
	p, err := scanPlayer(r.pool.QueryRow(ctx, q, id, team, position, jerseyNumber, coachID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return p, nil
}
