// Package auth verifies OIDC bearer tokens on incoming requests.
// It authenticates callers only; every verified caller may use every route.
package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"

	"github.com/JaimeStill/verdict/pkg/handlers"
)

// ErrUnauthorized is returned to clients with a missing or invalid bearer token.
var ErrUnauthorized = errors.New("unauthorized")

// Verifier validates a raw token. *oidc.IDTokenVerifier satisfies it.
type Verifier interface {
	Verify(ctx context.Context, rawIDToken string) (*oidc.IDToken, error)
}

type subjectKey struct{}

// NewVerifier builds a verifier that checks signatures against the remote key set.
// Keys are fetched lazily on first use, so startup does not depend on the issuer being reachable.
func NewVerifier(ctx context.Context, cfg *Config) *oidc.IDTokenVerifier {
	keys := oidc.NewRemoteKeySet(ctx, cfg.JWKSURL)
	return oidc.NewVerifier(cfg.Issuer, keys, &oidc.Config{
		ClientID:          cfg.ClientID,
		SkipClientIDCheck: cfg.ClientID == "",
	})
}

// Middleware rejects requests without a valid bearer token with 401.
// The verified token subject is available to handlers through Subject.
func Middleware(v Verifier, logger *slog.Logger) func(http.Handler) http.Handler {
	logger = logger.With("system", "auth")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearer(r)
			if !ok {
				handlers.RespondCode(w, logger, http.StatusUnauthorized, http.StatusUnauthorized, ErrUnauthorized)
				return
			}

			token, err := v.Verify(r.Context(), raw)
			if err != nil {
				logger.Debug("token rejected", "error", err)
				handlers.RespondCode(w, logger, http.StatusUnauthorized, http.StatusUnauthorized, ErrUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), subjectKey{}, token.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Subject returns the verified token subject stored by Middleware.
func Subject(ctx context.Context) (string, bool) {
	sub, ok := ctx.Value(subjectKey{}).(string)
	return sub, ok
}

func bearer(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(h, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
