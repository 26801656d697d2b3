package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrMalformedToken is returned when an access token cannot be decoded as a JWT.
var ErrMalformedToken = errors.New("session: malformed access token")

// AccessTokenInfo is what the server reads from an access token without verifying it.
// It is used only to schedule refreshes; the auth provider validates tokens on every request.
type AccessTokenInfo struct {
	Subject   string
	ExpiresAt time.Time
}

// InspectAccessToken decodes the exp and sub claims of token without checking its signature.
func InspectAccessToken(token string) (AccessTokenInfo, error) {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return AccessTokenInfo{}, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	info := AccessTokenInfo{Subject: claims.Subject}
	if claims.ExpiresAt != nil {
		info.ExpiresAt = claims.ExpiresAt.Time.UTC()
	}
	return info, nil
}
