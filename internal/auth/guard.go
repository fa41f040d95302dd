package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
)

var errMissingBearer = errors.New("auth: missing bearer token")

// IdentityHandlerFunc is a handler that runs only for authenticated requests.
// The caller's identity arrives as a parameter instead of through the request
// context.
type IdentityHandlerFunc func(w http.ResponseWriter, r *http.Request, id Identity)

// Guard adapts fn into an http.HandlerFunc that requires a valid
// "Authorization: Bearer <token>" header.
//
// A missing, malformed, expired or forged token is answered with 401 and fn
// is never called.
//
//	r.Get("/auth/me", auth.Guard(tokens, h.HandleMe))
func Guard(tokens *TokenService, fn IdentityHandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := Authenticate(tokens, r)
		if err != nil {
			message := "valid authentication required"
			if errors.Is(err, ErrTokenExpired) {
				message = "token expired"
			}
			writeUnauthorized(w, message)
			return
		}
		fn(w, r, id)
	}
}

// Authenticate extracts and validates the bearer token of r.
func Authenticate(tokens *TokenService, r *http.Request) (Identity, error) {
	token, ok := bearerToken(r.Header.Get("Authorization"))
	if !ok {
		return Identity{}, errMissingBearer
	}
	return tokens.Validate(token)
}

// bearerToken returns the credentials of a "Bearer" Authorization header.
// The scheme is matched case-insensitively.
func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}
	return token, true
}

// writeUnauthorized writes the same error body shape as the handler package.
func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="blog-backend"`)
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":   "unauthorized",
		"message": message,
	})
}
