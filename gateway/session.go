package gateway

import (
	"chat-relay/auth"
)

// Session is the identity of one websocket connection, fixed at handshake.
// Subscribe decisions read it; nothing mutates it afterwards.
type Session struct {
	UserID        string
	Email         string
	Authenticated bool
}

// NewSession resolves the connection identity from handshake params. A
// missing or invalid token degrades to an anonymous session; the connection
// itself stays usable and only subscribe attempts get rejected.
func NewSession(tokens *auth.TokenService, params map[string]any) Session {
	raw := auth.BearerFromParams(params)
	if raw == "" {
		return Session{}
	}
	claims, err := tokens.Verify(raw)
	if err != nil {
		return Session{}
	}
	return Session{
		UserID:        claims.UserID,
		Email:         claims.Email,
		Authenticated: true,
	}
}
