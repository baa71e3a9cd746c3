package memory

import (
	"context"

	"github.com/Abdurahmanit/GroupProject/rental-service/internal/domain/entity"
	"github.com/Abdurahmanit/GroupProject/rental-service/internal/repository"
)

type secureTokenRepository struct {
	s *Store
}

func (r *secureTokenRepository) Create(_ context.Context, token *entity.SecureToken) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, exists := r.s.tokens[token.ID]; exists {
		return repository.ErrAlreadyExists
	}
	r.s.tokens[token.ID] = *token
	return nil
}

func (r *secureTokenRepository) Claim(_ context.Context, token string, match entity.TokenMatch) (*entity.SecureToken, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.tokens[token]
	if !ok || !stored.Matches(match) {
		return nil, repository.ErrNotFound
	}
	delete(r.s.tokens, token)
	return &stored, nil
}

func (r *secureTokenRepository) Delete(_ context.Context, token string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.tokens, token)
	return nil
}

// TokenCount reports how many unclaimed tokens are stored.
func (s *Store) TokenCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tokens)
}
