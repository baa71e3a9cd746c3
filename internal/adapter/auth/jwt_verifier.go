package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Abdurahmanit/GroupProject/rental-service/internal/domain/entity"
	"github.com/golang-jwt/jwt/v5"
)

// Claims accepts the subject either as "sub" or as the "user_id" claim the
// user-service issues.
type Claims struct {
	UserID string `json:"user_id,omitempty"`
	jwt.RegisteredClaims
}

// SubjectID returns the caller id carried by the claims.
func (c *Claims) SubjectID() string {
	if c.UserID != "" {
		return c.UserID
	}
	return c.RegisteredClaims.Subject
}

// TokenVerifier turns a bearer credential into a subject id.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

type JWTVerifier struct {
	secret []byte
	issuer string
}

func NewJWTVerifier(secret, issuer string) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret), issuer: issuer}
}

func (v *JWTVerifier) Verify(tokenString string) (string, error) {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return "", fmt.Errorf("%w: token is empty", entity.ErrUnauthenticated)
	}

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"})}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", fmt.Errorf("%w: token has expired", entity.ErrUnauthenticated)
		}
		return "", fmt.Errorf("%w: token is invalid: %v", entity.ErrUnauthenticated, err)
	}
	if !token.Valid {
		return "", fmt.Errorf("%w: token is invalid", entity.ErrUnauthenticated)
	}

	subject := claims.SubjectID()
	if subject == "" {
		return "", fmt.Errorf("%w: token carries no subject", entity.ErrUnauthenticated)
	}
	return subject, nil
}
