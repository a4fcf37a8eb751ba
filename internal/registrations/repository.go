package registrations

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bamika-fc/backend/internal/models"
)

// Repository handles registration persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a registrations repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const registrationColumns = `id, parent_id, first_name, last_name, dob, gender, medical_conditions,
	birth_cert_path, photo_url, waiver_signed_at, position, jersey_size,
	status, payment_status, stripe_subscription_id, assigned_staff_id, created_at, updated_at`

func scanRegistration(row pgx.Row) (*models.Registration, error) {
	var reg models.Registration
	err := row.Scan(&reg.ID, &reg.ParentID, &reg.FirstName, &reg.LastName, &reg.DOB, &reg.Gender,
		&reg.MedicalConditions, &reg.BirthCertPath, &reg.PhotoURL, &reg.WaiverSignedAt,
		&reg.Position, &reg.JerseySize, &reg.Status, &reg.PaymentStatus,
		&reg.StripeSubscriptionID, &reg.AssignedStaffID, &reg.CreatedAt, &reg.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &reg, nil
}

// Create inserts a registration with the given lifecycle state and fills in
// generated fields on reg.
func (r *Repository) Create(ctx context.Context, reg *models.Registration) error {
	const q = `INSERT INTO registrations (parent_id, first_name, last_name, dob, gender, medical_conditions,
		birth_cert_path, photo_url, waiver_signed_at, position, jersey_size, status, payment_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, q,
		reg.ParentID, reg.FirstName, reg.LastName, reg.DOB, reg.Gender, reg.MedicalConditions,
		reg.BirthCertPath, reg.PhotoURL, reg.WaiverSignedAt, reg.Position, reg.JerseySize,
		string(reg.Status), string(reg.PaymentStatus)).
		Scan(&reg.ID, &reg.CreatedAt, &reg.UpdatedAt)
}

// GetByID returns a registration by ID, or nil when absent.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Registration, error) {
	reg, err := scanRegistration(r.pool.QueryRow(ctx,
		`SELECT `+registrationColumns+` FROM registrations WHERE id = $1`, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return reg, nil
}

// Activate transitions a registration to active/paid and binds the processor
// subscription id, all in one single-row update. Returns the updated row, or
// nil when no registration matches (nothing is written in that case).
func (r *Repository) Activate(ctx context.Context, id uuid.UUID, subscriptionID string) (*models.Registration, error) {
	const q = `UPDATE registrations
		SET status = 'active', payment_status = 'paid', stripe_subscription_id = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + registrationColumns
	reg, err := scanRegistration(r.pool.QueryRow(ctx, q, id, subscriptionID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return reg, nil
}

// ListByParent returns a guardian's registrations, newest first.
func (r *Repository) ListByParent(ctx context.Context, parentID uuid.UUID) ([]models.Registration, error) {
	return r.list(ctx, `SELECT `+registrationColumns+` FROM registrations WHERE parent_id = $1 ORDER BY created_at DESC`, parentID)
}

// ListAll returns every registration, newest first (staff view).
func (r *Repository) ListAll(ctx context.Context) ([]models.Registration, error) {
	return r.list(ctx, `SELECT `+registrationColumns+` FROM registrations ORDER BY created_at DESC`)
}

func (r *Repository) list(ctx context.Context, q string, args ...interface{}) ([]models.Registration, error) {
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Registration
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *reg)
	}
	return list, rows.Err()
}

// Delete removes a registration. Used only as the compensating step when a
// staff manual entry fails part-way; the payment workflow never deletes.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM registrations WHERE id = $1`, id)
	return err
}
