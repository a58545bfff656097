package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/reelbase/reelbase-api/internal/core/domain"
)

const defaultTokenTTL = 30 * 24 * time.Hour

// JWTService issues and verifies stateless HS256 bearer tokens.
// There is no revocation list: a token stays valid until it expires.
type JWTService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewJWTService(secret string, ttl time.Duration) *JWTService {
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	return &JWTService{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue returns a signed token whose subject is userID.
func (s *JWTService) Issue(userID string) (string, error) {
	if userID == "" {
		return "", errors.New("issue token: empty user id")
	}
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	return signed, nil
}

// Verify checks signature and expiry and returns the embedded user id.
// Every failure is reported as domain.ErrUnauthorized.
func (s *JWTService) Verify(token string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return s.secret, nil
	},
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !parsed.Valid {
		return "", domain.ErrUnauthorized
	}
	if claims.Subject == "" {
		return "", domain.ErrUnauthorized
	}
	return claims.Subject, nil
}
