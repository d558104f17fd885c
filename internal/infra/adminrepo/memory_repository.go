// Package adminrepo persists administrator accounts.
package adminrepo

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/yanqian/campusbot/internal/domain/auth"
)

// MemoryRepository provides an in-memory admin store for tests/dev.
type MemoryRepository struct {
	mu         sync.RWMutex
	admins     map[int64]auth.Admin
	emailIndex map[string]int64
	identities map[string]auth.Identity
	adminIndex map[string]auth.Identity
	seq        int64
	identityID int64
}

// NewMemoryRepository constructs a new in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		admins:     make(map[int64]auth.Admin),
		emailIndex: make(map[string]int64),
		identities: make(map[string]auth.Identity),
		adminIndex: make(map[string]auth.Identity),
	}
}

// Create stores the admin record.
func (r *MemoryRepository) Create(_ context.Context, email, displayName, passwordHash string) (auth.Admin, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.emailIndex[email]; exists {
		return auth.Admin{}, auth.ErrEmailExists
	}
	r.seq++
	admin := auth.Admin{
		ID:           r.seq,
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	r.admins[admin.ID] = admin
	r.emailIndex[email] = admin.ID
	return admin, nil
}

// GetByEmail returns an admin by email.
func (r *MemoryRepository) GetByEmail(_ context.Context, email string) (auth.Admin, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if id, ok := r.emailIndex[email]; ok {
		return r.admins[id], true, nil
	}
	return auth.Admin{}, false, nil
}

// GetByID fetches by ID.
func (r *MemoryRepository) GetByID(_ context.Context, id int64) (auth.Admin, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	admin, ok := r.admins[id]
	return admin, ok, nil
}

// Count reports how many admin accounts exist.
func (r *MemoryRepository) Count(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.admins), nil
}

// GetIdentity returns an identity by provider and subject.
func (r *MemoryRepository) GetIdentity(_ context.Context, provider, providerSubject string) (auth.Identity, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	key := identityKey(provider, providerSubject)
	identity, ok := r.identities[key]
	return identity, ok, nil
}

// GetIdentityByAdmin returns an identity by admin and provider.
func (r *MemoryRepository) GetIdentityByAdmin(_ context.Context, adminID int64, provider string) (auth.Identity, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	key := adminIdentityKey(provider, adminID)
	identity, ok := r.adminIndex[key]
	return identity, ok, nil
}

// UpsertIdentity stores or updates the identity mapping.
func (r *MemoryRepository) UpsertIdentity(_ context.Context, identity auth.Identity) (auth.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if identity.AdminID == 0 {
		return auth.Identity{}, errors.New("adminID is required")
	}
	key := identityKey(identity.Provider, identity.ProviderSubject)
	existing, ok := r.identities[key]
	if ok {
		if identity.RefreshToken != "" {
			existing.RefreshToken = identity.RefreshToken
		}
		if identity.ProviderEmail != "" {
			existing.ProviderEmail = identity.ProviderEmail
		}
		existing.UpdatedAt = time.Now().UTC()
		r.identities[key] = existing
		r.adminIndex[adminIdentityKey(existing.Provider, existing.AdminID)] = existing
		return existing, nil
	}
	r.identityID++
	identity.ID = r.identityID
	now := time.Now().UTC()
	identity.CreatedAt = now
	identity.UpdatedAt = now
	r.identities[key] = identity
	r.adminIndex[adminIdentityKey(identity.Provider, identity.AdminID)] = identity
	return identity, nil
}

var _ auth.Repository = (*MemoryRepository)(nil)

func identityKey(provider, subject string) string {
	return provider + ":" + subject
}

func adminIdentityKey(provider string, adminID int64) string {
	return provider + ":" + strconv.FormatInt(adminID, 10)
}
