package api

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
)

// ValidateAPIKey reports whether providedKey matches configKey.
func ValidateAPIKey(providedKey, configKey string) bool {
	if configKey == "" || providedKey == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(providedKey), []byte(configKey)) == 1
}

// ExtractAPIKey extracts the key from an "Authorization: Bearer <key>" header.
func ExtractAPIKey(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", errors.New("missing Authorization header")
	}
	key, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return "", errors.New("invalid Authorization header format")
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return "", errors.New("missing API key")
	}
	return key, nil
}

// authMiddleware requires the configured API key. Without one the routes are
// open.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.config.APIKey == "" {
			next.ServeHTTP(w, r)
			return
		}

		apiKey, err := ExtractAPIKey(r)
		if err != nil {
			s.writeError(w, http.StatusUnauthorized, err.Error())
			return
		}
		if !ValidateAPIKey(apiKey, s.config.APIKey) {
			s.writeError(w, http.StatusUnauthorized, "invalid API key")
			return
		}
		next.ServeHTTP(w, r)
	})
}
