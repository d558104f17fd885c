package auth

import "context"

// Repository abstracts admin account persistence.
type Repository interface {
	Create(ctx context.Context, email, displayName, passwordHash string) (Admin, error)
	GetByEmail(ctx context.Context, email string) (Admin, bool, error)
	GetByID(ctx context.Context, id int64) (Admin, bool, error)
	Count(ctx context.Context) (int, error)
	GetIdentity(ctx context.Context, provider, providerSubject string) (Identity, bool, error)
	GetIdentityByAdmin(ctx context.Context, adminID int64, provider string) (Identity, bool, error)
	UpsertIdentity(ctx context.Context, identity Identity) (Identity, error)
}
