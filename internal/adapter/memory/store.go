// Package memory keeps every collection in process memory. It backs the
// "memory" store driver and the workflow tests.
package memory

import (
	"context"
	"sync"

	"github.com/Abdurahmanit/GroupProject/rental-service/internal/domain/entity"
	"github.com/Abdurahmanit/GroupProject/rental-service/internal/repository"
)

// Store is shared by all repositories returned from it.
type Store struct {
	mu            sync.RWMutex
	listings      map[string]entity.Listing
	applications  map[string]entity.Application
	tokens        map[string]entity.SecureToken
	notifications map[string]entity.Notification
	users         map[string]entity.User

	txMu sync.Mutex
}

func NewStore() *Store {
	return &Store{
		listings:      make(map[string]entity.Listing),
		applications:  make(map[string]entity.Application),
		tokens:        make(map[string]entity.SecureToken),
		notifications: make(map[string]entity.Notification),
		users:         make(map[string]entity.User),
	}
}

func (s *Store) Listings() repository.ListingRepository { return &listingRepository{s: s} }
func (s *Store) Applications() repository.ApplicationRepository { return &applicationRepository{s: s} }
func (s *Store) SecureTokens() repository.SecureTokenRepository { return &secureTokenRepository{s: s} }
func (s *Store) Notifications() repository.NotificationRepository { return &notificationRepository{s: s} }
func (s *Store) Users() repository.UserRepository { return &userRepository{s: s} }
func (s *Store) Transactor() repository.Transactor { return &transactor{s: s} }

// PutUser seeds a user profile.
func (s *Store) PutUser(u entity.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

// transactor serialises units of work but cannot roll them back.
type transactor struct {
	s *Store
}

func (t *transactor) Atomic() bool {
	return false
}

func (t *transactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	t.s.txMu.Lock()
	defer t.s.txMu.Unlock()
	return fn(ctx)
}
