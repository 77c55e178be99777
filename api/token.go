package api

import (
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
)

// SessionToken is the client-readable view of the access-token JWT the
// backend sets as a cookie. The client never verifies the signature — the
// backend does that — it only reads claims for display and expiry
// bookkeeping.
type SessionToken struct {
	UserId    string
	Username  string
	ExpiresAt time.Time
}

func ParseSessionTokenUnverified(token string) (*SessionToken, error) {
	parser := gojwt.NewParser()
	parsed, _, err := parser.ParseUnverified(token, gojwt.MapClaims{})
	if err != nil {
		return nil, err
	}

	claims := parsed.Claims.(gojwt.MapClaims)

	sessionToken := &SessionToken{}
	if userId, ok := claims["user_id"].(string); ok {
		sessionToken.UserId = userId
	}
	if username, ok := claims["username"].(string); ok {
		sessionToken.Username = username
	}
	if expiresAt, err := claims.GetExpirationTime(); err == nil && expiresAt != nil {
		sessionToken.ExpiresAt = expiresAt.Time
	}

	return sessionToken, nil
}
