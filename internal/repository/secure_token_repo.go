package repository

import (
	"context"

	"github.com/Abdurahmanit/GroupProject/rental-service/internal/domain/entity"
)

type SecureTokenRepository interface {
	Create(ctx context.Context, token *entity.SecureToken) error
	// Claim deletes and returns the token only if it exists and matches. A
	// missing or mismatching token yields ErrNotFound and is left untouched.
	Claim(ctx context.Context, token string, match entity.TokenMatch) (*entity.SecureToken, error)
	Delete(ctx context.Context, token string) error
}
