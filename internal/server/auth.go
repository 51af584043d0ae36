package server

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/danielledeleo/seocms/cms"
	"golang.org/x/crypto/bcrypt"
)

var errTokenNotConfigured = errors.New("API token is not configured")

// HashToken returns the bcrypt hash to store as publish_token_hash.
func HashToken(token string) (string, error) {
	if strings.TrimSpace(token) == "" {
		return "", cms.ErrMissingField
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// requireToken guards endpoints that change pages. Requests must carry
// "Authorization: Bearer <token>" matching the configured hash. With no
// hash configured the endpoints are closed.
func (a *App) requireToken(next http.HandlerFunc) http.HandlerFunc {
	return func(rw http.ResponseWriter, req *http.Request) {
		if a.Config.PublishTokenHash == "" {
			writeError(rw, http.StatusForbidden, errTokenNotConfigured)
			return
		}

		token, ok := strings.CutPrefix(req.Header.Get("Authorization"), "Bearer ")
		if !ok || token == "" {
			rw.Header().Set("WWW-Authenticate", `Bearer realm="seocms"`)
			writeError(rw, http.StatusUnauthorized, cms.ErrUnauthorized)
			return
		}

		err := bcrypt.CompareHashAndPassword([]byte(a.Config.PublishTokenHash), []byte(token))
		if err != nil {
			slog.Warn("rejected API token", "category", "auth", "path", req.URL.Path, "ip", req.RemoteAddr)
			rw.Header().Set("WWW-Authenticate", `Bearer realm="seocms", error="invalid_token"`)
			writeError(rw, http.StatusUnauthorized, cms.ErrUnauthorized)
			return
		}

		next(rw, req)
	}
}
