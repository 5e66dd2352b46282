package subscriber

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrNotFound reports that no record exists for the requested id.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateID reports an insert that would violate id uniqueness.
	ErrDuplicateID = errors.New("record id already exists")
)

// Repository persists subscriber records.
type Repository interface {
	List(ctx context.Context) ([]Record, error)
	Get(ctx context.Context, id string) (Record, error)
	Create(ctx context.Context, rec Record) error
	Update(ctx context.Context, id string, patch Patch) (Record, error)
	Delete(ctx context.Context, id string) error
}

const recordColumns = `id, name, email, phone, emergency_phone, home_address,
	accepted_terms, subscription, subscription_expiration, latitude, longitude,
	is_agent, is_safe, profile_picture, device_ids, created_at`

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed subscriber repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// List returns every record, newest first.
func (r *PostgresRepository) List(ctx context.Context) ([]Record, error) {
	rows, err := r.db.Query(ctx, `SELECT `+recordColumns+` FROM users ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Get fetches a single record by id.
func (r *PostgresRepository) Get(ctx context.Context, id string) (Record, error) {
	recID, err := uuid.Parse(id)
	if err != nil {
		return Record{}, ErrNotFound
	}
	row := r.db.QueryRow(ctx, `SELECT `+recordColumns+` FROM users WHERE id = $1`, recID)
	rec, err := scanRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	return rec, err
}

// Create inserts a new record.
func (r *PostgresRepository) Create(ctx context.Context, rec Record) error {
	recID, err := uuid.Parse(rec.ID)
	if err != nil {
		return fmt.Errorf("parse record id: %w", err)
	}
	var lat, lng *float64
	if rec.LastKnownLocation != nil {
		lat = &rec.LastKnownLocation.Latitude
		lng = &rec.LastKnownLocation.Longitude
	}
	_, err = r.db.Exec(ctx, `INSERT INTO users (`+recordColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		recID, rec.Name, rec.Email, rec.Phone, rec.EmergencyPhone, rec.HomeAddress,
		rec.AcceptedTerms, rec.Subscription, rec.SubscriptionExpiration, lat, lng,
		rec.IsAgent, rec.IsSafe, rec.ProfilePicture, rec.DeviceIDs, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// Update applies a partial update inside a transaction and returns the
// canonical stored row.
func (r *PostgresRepository) Update(ctx context.Context, id string, patch Patch) (Record, error) {
	recID, err := uuid.Parse(id)
	if err != nil {
		return Record{}, ErrNotFound
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return Record{}, fmt.Errorf("begin update: %w", err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `SELECT `+recordColumns+` FROM users WHERE id = $1 FOR UPDATE`, recID)
	current, err := scanRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, err
	}

	next := patch.Apply(current)
	var lat, lng *float64
	if next.LastKnownLocation != nil {
		lat = &next.LastKnownLocation.Latitude
		lng = &next.LastKnownLocation.Longitude
	}
	_, err = tx.Exec(ctx, `UPDATE users SET name = $2, email = $3, phone = $4,
		emergency_phone = $5, home_address = $6, accepted_terms = $7, subscription = $8,
		subscription_expiration = $9, latitude = $10, longitude = $11, is_agent = $12,
		is_safe = $13, profile_picture = $14, device_ids = $15 WHERE id = $1`,
		recID, next.Name, next.Email, next.Phone, next.EmergencyPhone, next.HomeAddress,
		next.AcceptedTerms, next.Subscription, next.SubscriptionExpiration, lat, lng,
		next.IsAgent, next.IsSafe, next.ProfilePicture, next.DeviceIDs)
	if err != nil {
		return Record{}, fmt.Errorf("update user: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return Record{}, fmt.Errorf("commit update: %w", err)
	}
	return next, nil
}

// Delete removes a record by id.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	recID, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}
	cmd, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, recID)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanRecord(row pgx.Row) (Record, error) {
	var (
		id       uuid.UUID
		lat, lng *float64
		rec      Record
	)
	err := row.Scan(&id, &rec.Name, &rec.Email, &rec.Phone, &rec.EmergencyPhone,
		&rec.HomeAddress, &rec.AcceptedTerms, &rec.Subscription, &rec.SubscriptionExpiration,
		&lat, &lng, &rec.IsAgent, &rec.IsSafe, &rec.ProfilePicture, &rec.DeviceIDs,
		&rec.CreatedAt)
	if err != nil {
		return Record{}, err
	}
	rec.ID = id.String()
	if lat != nil && lng != nil {
		rec.LastKnownLocation = &GeoPoint{Latitude: *lat, Longitude: *lng}
	}
	return rec, nil
}
