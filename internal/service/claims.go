package service

import (
	"encoding/base64"
	"encoding/json"
	"strings"
)

// tokenClaims is the subset of the access-token payload the client
// cares about. The impersonation flag is only present in the token, not
// in every profile response.
type tokenClaims struct {
	Sub json.Number `json:"sub"`
	Imp bool        `json:"imp"`
}

// Impersonated reports whether the bearer token carries the
// impersonation claim. Malformed tokens are treated as "not
// impersonated", never as an error.
func Impersonated(token string) bool {
	claims, ok := decodeClaims(token)
	return ok && claims.Imp
}

func decodeClaims(token string) (tokenClaims, bool) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return tokenClaims{}, false
	}

	payload, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(parts[1], "="))
	if err != nil {
		return tokenClaims{}, false
	}

	var claims tokenClaims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return tokenClaims{}, false
	}
	return claims, true
}
