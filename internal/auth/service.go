package auth

import (
	"context"
	"errors"
	"time"

	"github.com/datamatch/datamatch/internal/profile"
)

// ErrUnknownProfile is returned when a token is requested for a profile
// that does not exist.
var ErrUnknownProfile = errors.New("unknown profile")

// ProfileGetter looks up profiles. profile.Repository satisfies it.
type ProfileGetter interface {
	Get(ctx context.Context, id string) (*profile.Profile, error)
}

// Service issues tokens for existing profiles.
type Service struct {
	jwtService *JWTService
	profiles   ProfileGetter
	now        func() time.Time
}

// ServiceConfig holds configuration for the auth service.
type ServiceConfig struct {
	JWTService *JWTService
	Profiles   ProfileGetter
	Now        func() time.Time
}

// NewService creates a new auth service.
func NewService(cfg ServiceConfig) *Service {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		jwtService: cfg.JWTService,
		profiles:   cfg.Profiles,
		now:        now,
	}
}

// IssueToken mints an access token for a stored profile.
func (s *Service) IssueToken(ctx context.Context, profileID string) (*TokenResponse, error) {
	if _, err := s.profiles.Get(ctx, profileID); err != nil {
		if errors.Is(err, profile.ErrProfileNotFound) {
			return nil, ErrUnknownProfile
		}
		return nil, err
	}

	token, expiresAt, err := s.jwtService.GenerateAccessToken(profileID)
	if err != nil {
		return nil, err
	}

	return &TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(expiresAt.Sub(s.now()).Seconds()),
		ProfileID:   profileID,
	}, nil
}

// ValidateAccessToken validates a token and returns the profile ID.
func (s *Service) ValidateAccessToken(tokenString string) (string, error) {
	claims, err := s.jwtService.ValidateAccessToken(tokenString)
	if err != nil {
		return "", err
	}
	return claims.ProfileID, nil
}
