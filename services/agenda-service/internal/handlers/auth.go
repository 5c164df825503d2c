package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/md-rashed-zaman/clinicagenda/libs/auth"
	"github.com/md-rashed-zaman/clinicagenda/libs/httpx"
)

// ClinicHeader carries the clinic id when a gateway in front of the service
// has already authenticated the caller.
const ClinicHeader = "X-Clinic-Id"

type clinicKey struct{}

func ClinicIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(clinicKey{}).(string)
	return v
}

func ContextWithClinicID(ctx context.Context, clinicID string) context.Context {
	return context.WithValue(ctx, clinicKey{}, clinicID)
}

// RequireClinic resolves the caller's clinic. With a secret configured only
// a valid HS256 bearer token is accepted; otherwise the gateway header is
// trusted.
func RequireClinic(secret string, logger *slog.Logger) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var clinicID string
			if secret != "" {
				token, ok := auth.BearerToken(r.Header.Get("Authorization"))
				if !ok {
					httpx.WriteError(w, http.StatusUnauthorized, "missing or invalid Authorization header")
					return
				}
				claims, err := auth.ParseAndVerifyHS256(token, secret, time.Now())
				if err != nil {
					logger.Debug("token rejected", "err", err, "request_id", httpx.RequestIDFromContext(r.Context()))
					httpx.WriteError(w, http.StatusUnauthorized, "invalid token")
					return
				}
				clinicID = strings.TrimSpace(claims.ClinicID)
			} else {
				clinicID = strings.TrimSpace(r.Header.Get(ClinicHeader))
			}
			if clinicID == "" {
				httpx.WriteError(w, http.StatusUnauthorized, "missing clinic identity")
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithClinicID(r.Context(), clinicID)))
		})
	}
}
