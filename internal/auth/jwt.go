package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultAccessTokenTTL is how long access tokens are valid when the
// config leaves it unset.
const DefaultAccessTokenTTL = time.Hour

// Predefined JWT errors.
var (
	ErrInvalidAccessToken = errors.New("invalid access token")
	ErrAccessTokenExpired = errors.New("access token has expired")
)

// JWTClaims represents the claims in our API access tokens.
type JWTClaims struct {
	jwt.RegisteredClaims

	// ProfileID is the authenticated member's profile.
	ProfileID string `json:"pid"`
}

// JWTService handles JWT creation and validation.
type JWTService struct {
	signingKey []byte
	issuer     string
	audience   string
	ttl        time.Duration
	now        func() time.Time
}

// JWTConfig holds configuration for the JWT service.
type JWTConfig struct {
	SigningKey string
	Issuer     string
	Audience   string
	TTL        time.Duration

	// Now overrides the clock in tests.
	Now func() time.Time
}

// NewJWTService creates a new JWT service.
func NewJWTService(cfg JWTConfig) *JWTService {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultAccessTokenTTL
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &JWTService{
		signingKey: []byte(cfg.SigningKey),
		issuer:     cfg.Issuer,
		audience:   cfg.Audience,
		ttl:        cfg.TTL,
		now:        cfg.Now,
	}
}

// GenerateAccessToken creates an access token for a profile.
func (s *JWTService) GenerateAccessToken(profileID string) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.ttl)

	claims := JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   profileID,
			Audience:  jwt.ClaimStrings{s.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			NotBefore: jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
		ProfileID: profileID,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signingKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("signing access token: %w", err)
	}
	return signed, expiresAt, nil
}

// ValidateAccessToken checks signature, issuer, audience and expiry and
// returns the claims. Expired tokens yield ErrAccessTokenExpired; every
// other failure wraps ErrInvalidAccessToken.
func (s *JWTService) ValidateAccessToken(tokenString string) (*JWTClaims, error) {
	claims := &JWTClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, s.key,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrAccessTokenExpired
	case err != nil:
		return nil, fmt.Errorf("%w: %v", ErrInvalidAccessToken, err)
	case claims.ProfileID == "" || claims.Subject != claims.ProfileID:
		return nil, ErrInvalidAccessToken
	}
	return claims, nil
}

func (s *JWTService) key(*jwt.Token) (any, error) {
	return s.signingKey, nil
}
