package staff

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound reports an unknown operator account.
var ErrNotFound = errors.New("account not found")

// Repository persists operator accounts.
type Repository interface {
	Create(ctx context.Context, account Account) error
	FindByEmail(ctx context.Context, email string) (Account, error)
	FindByID(ctx context.Context, id string) (Account, error)
	UpdateTokenVersion(ctx context.Context, id string, version int) error
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
}

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed staff repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new operator account.
func (r *PostgresRepository) Create(ctx context.Context, account Account) error {
	accountID, err := uuid.Parse(account.ID)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO staff_accounts (id, name, email, role, password_hash, token_version, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		accountID, account.Name, account.Email, account.Role, account.PasswordHash,
		account.TokenVersion, account.CreatedAt.UTC())
	return err
}

// FindByEmail fetches an account by email.
func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (Account, error) {
	row := r.db.QueryRow(ctx, `SELECT id, name, email, role, password_hash, token_version, created_at, last_login
		FROM staff_accounts WHERE email = $1`, email)
	return scanAccount(row)
}

// FindByID fetches an account by id.
func (r *PostgresRepository) FindByID(ctx context.Context, id string) (Account, error) {
	accountID, err := uuid.Parse(id)
	if err != nil {
		return Account{}, ErrNotFound
	}
	row := r.db.QueryRow(ctx, `SELECT id, name, email, role, password_hash, token_version, created_at, last_login
		FROM staff_accounts WHERE id = $1`, accountID)
	return scanAccount(row)
}

// UpdateTokenVersion bumps the token version, invalidating outstanding tokens.
func (r *PostgresRepository) UpdateTokenVersion(ctx context.Context, id string, version int) error {
	accountID, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}
	cmd, err := r.db.Exec(ctx, `UPDATE staff_accounts SET token_version = $1 WHERE id = $2`, version, accountID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateLastLogin stores the most recent successful login time.
func (r *PostgresRepository) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	accountID, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}
	cmd, err := r.db.Exec(ctx, `UPDATE staff_accounts SET last_login = $1 WHERE id = $2`, at.UTC(), accountID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanAccount(row pgx.Row) (Account, error) {
	var (
		id        uuid.UUID
		createdAt time.Time
		account   Account
	)
	err := row.Scan(&id, &account.Name, &account.Email, &account.Role, &account.PasswordHash,
		&account.TokenVersion, &createdAt, &account.LastLogin)
	if errors.Is(err, pgx.ErrNoRows) {
		return Account{}, ErrNotFound
	}
	if err != nil {
		return Account{}, err
	}
	account.ID = id.String()
	account.CreatedAt = createdAt.UTC()
	return account, nil
}
