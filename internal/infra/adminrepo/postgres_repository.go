package adminrepo

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yanqian/campusbot/internal/domain/auth"
)

// PostgresRepository persists admins in Postgres.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Create inserts a new admin row.
func (r *PostgresRepository) Create(ctx context.Context, email, displayName, passwordHash string) (auth.Admin, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO admin_users (email, display_name, password_hash)
		VALUES ($1, $2, $3)
		RETURNING id, email, display_name, password_hash, created_at
	`, email, displayName, passwordHash)
	return scanAdmin(row)
}

// GetByEmail fetches an admin by email.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (auth.Admin, bool, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, email, display_name, password_hash, created_at
		FROM admin_users
		WHERE email = $1
		LIMIT 1
	`, email)
	admin, err := scanAdmin(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return auth.Admin{}, false, nil
		}
		return auth.Admin{}, false, err
	}
	return admin, true, nil
}

// GetByID fetches by primary key.
func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (auth.Admin, bool, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, email, display_name, password_hash, created_at
		FROM admin_users
		WHERE id = $1
		LIMIT 1
	`, id)
	admin, err := scanAdmin(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return auth.Admin{}, false, nil
		}
		return auth.Admin{}, false, err
	}
	return admin, true, nil
}

// Count reports how many admin accounts exist.
func (r *PostgresRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM admin_users`).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// GetIdentity returns an identity by provider and subject.
func (r *PostgresRepository) GetIdentity(ctx context.Context, provider, providerSubject string) (auth.Identity, bool, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, admin_id, provider, provider_subject, provider_email, refresh_token, created_at, updated_at
		FROM admin_identities
		WHERE provider = $1 AND provider_subject = $2
		LIMIT 1
	`, provider, providerSubject)
	return scanIdentity(row)
}

// GetIdentityByAdmin returns an identity by admin and provider.
func (r *PostgresRepository) GetIdentityByAdmin(ctx context.Context, adminID int64, provider string) (auth.Identity, bool, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, admin_id, provider, provider_subject, provider_email, refresh_token, created_at, updated_at
		FROM admin_identities
		WHERE admin_id = $1 AND provider = $2
		LIMIT 1
	`, adminID, provider)
	return scanIdentity(row)
}

// UpsertIdentity stores or updates the identity mapping.
func (r *PostgresRepository) UpsertIdentity(ctx context.Context, identity auth.Identity) (auth.Identity, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO admin_identities (admin_id, provider, provider_subject, provider_email, refresh_token)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (provider, provider_subject) DO UPDATE SET
			provider_email = CASE WHEN EXCLUDED.provider_email <> '' THEN EXCLUDED.provider_email ELSE admin_identities.provider_email END,
			refresh_token = CASE WHEN EXCLUDED.refresh_token <> '' THEN EXCLUDED.refresh_token ELSE admin_identities.refresh_token END,
			updated_at = NOW()
		RETURNING id, admin_id, provider, provider_subject, provider_email, refresh_token, created_at, updated_at
	`, identity.AdminID, identity.Provider, identity.ProviderSubject, identity.ProviderEmail, identity.RefreshToken)
	stored, found, err := scanIdentity(row)
	if err != nil {
		return auth.Identity{}, err
	}
	if !found {
		return auth.Identity{}, pgx.ErrNoRows
	}
	return stored, nil
}

var _ auth.Repository = (*PostgresRepository)(nil)

func scanAdmin(row pgx.Row) (auth.Admin, error) {
	var admin auth.Admin
	var created time.Time
	if err := row.Scan(&admin.ID, &admin.Email, &admin.DisplayName, &admin.PasswordHash, &created); err != nil {
		return auth.Admin{}, err
	}
	admin.CreatedAt = created.UTC()
	return admin, nil
}

func scanIdentity(row pgx.Row) (auth.Identity, bool, error) {
	var identity auth.Identity
	if err := row.Scan(&identity.ID, &identity.AdminID, &identity.Provider, &identity.ProviderSubject, &identity.ProviderEmail, &identity.RefreshToken, &identity.CreatedAt, &identity.UpdatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return auth.Identity{}, false, nil
		}
		return auth.Identity{}, false, err
	}
	return identity, true, nil
}
