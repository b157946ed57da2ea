package auth

import "strings"

// BearerFromParams extracts a token from connection-establishment params.
// Recognized keys, checked in precedence order:
//
//	authorization: "Bearer <token>"
//	Authorization: "Bearer <token>"
//	token:         "<token>"
//
// Non-string values and unknown keys are ignored. Returns "" when no token
// is present; the caller decides whether that is an error (HTTP) or a
// degraded anonymous connection (websocket).
func BearerFromParams(params map[string]any) string {
	for _, key := range []string{"authorization", "Authorization"} {
		if v, ok := params[key].(string); ok {
			return stripBearer(v)
		}
	}
	if v, ok := params["token"].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

// BearerFromHeader extracts the token from a standard Authorization header
// value. Only the "Bearer <token>" form is accepted.
func BearerFromHeader(header string) string {
	header = strings.TrimSpace(header)
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}

func stripBearer(v string) string {
	v = strings.TrimSpace(v)
	if len(v) > 7 && strings.EqualFold(v[:7], "bearer ") {
		return strings.TrimSpace(v[7:])
	}
	return v
}
