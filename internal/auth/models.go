// Package auth issues and validates API access tokens for member profiles.
package auth

// TokenRequest asks for an access token for an existing profile.
type TokenRequest struct {
	ProfileID string `json:"profileId" validate:"required"`
}

// TokenResponse represents the response after successful authentication.
type TokenResponse struct {
	AccessToken string `json:"accessToken"`

	// TokenType is always "Bearer".
	TokenType string `json:"tokenType"`

	// ExpiresIn is the number of seconds until the access token expires.
	ExpiresIn int64 `json:"expiresIn"`

	ProfileID string `json:"profileId"`
}
