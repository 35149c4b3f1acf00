// Package devserver implements a local stub of the platform API. It serves
// the same wire envelopes and auth semantics as production, backed by
// in-process state, so the SDK can be developed and tested against it.
package devserver

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
)

// ErrTaken is returned when a username or email is already registered.
var ErrTaken = errors.New("username or email already taken")

// Account is a registered user including its credential hash.
type Account struct {
	UID          string
	Username     string
	Email        string
	DisplayName  string
	AvatarURL    string
	Bio          string
	Verified     bool
	PasswordHash string
	CreatedAt    time.Time
}

// AccountRepository stores accounts. The memory implementation backs tests
// and default runs; the Postgres one survives restarts.
type AccountRepository interface {
	Create(ctx context.Context, acct Account) error
	GetByUID(ctx context.Context, uid string) (Account, bool, error)
	GetByEmail(ctx context.Context, email string) (Account, bool, error)
	GetByUsername(ctx context.Context, username string) (Account, bool, error)
	Update(ctx context.Context, acct Account) error
}

// MemoryAccountRepository keeps accounts in process memory.
type MemoryAccountRepository struct {
	mu        sync.RWMutex
	byUID     map[string]Account
	emails    map[string]string
	usernames map[string]string
}

// NewMemoryAccountRepository constructs the in-memory account store.
func NewMemoryAccountRepository() *MemoryAccountRepository {
	return &MemoryAccountRepository{
		byUID:     make(map[string]Account),
		emails:    make(map[string]string),
		usernames: make(map[string]string),
	}
}

func (r *MemoryAccountRepository) Create(_ context.Context, acct Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	email := normalizeKey(acct.Email)
	username := normalizeKey(acct.Username)
	if _, exists := r.emails[email]; exists {
		return ErrTaken
	}
	if _, exists := r.usernames[username]; exists {
		return ErrTaken
	}
	r.byUID[acct.UID] = acct
	r.emails[email] = acct.UID
	r.usernames[username] = acct.UID
	return nil
}

func (r *MemoryAccountRepository) GetByUID(_ context.Context, uid string) (Account, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	acct, ok := r.byUID[uid]
	return acct, ok, nil
}

func (r *MemoryAccountRepository) GetByEmail(_ context.Context, email string) (Account, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	uid, ok := r.emails[normalizeKey(email)]
	if !ok {
		return Account{}, false, nil
	}
	return r.byUID[uid], true, nil
}

func (r *MemoryAccountRepository) GetByUsername(_ context.Context, username string) (Account, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	uid, ok := r.usernames[normalizeKey(username)]
	if !ok {
		return Account{}, false, nil
	}
	return r.byUID[uid], true, nil
}

func (r *MemoryAccountRepository) Update(_ context.Context, acct Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byUID[acct.UID]; !ok {
		return errors.New("account not found")
	}
	r.byUID[acct.UID] = acct
	return nil
}

func normalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

var _ AccountRepository = (*MemoryAccountRepository)(nil)
