package middleware

import (
	"net/http"
	"strings"

	"github.com/Dan9191/bank-ledger/internal/service"
	"github.com/sirupsen/logrus"
)

// TokenParser validates bearer tokens and returns the customer id they carry
type TokenParser interface {
	ParseToken(token string) (int64, error)
}

// AuthMiddleware rejects requests without a valid bearer token and stores
// the authenticated customer id in the request context
func AuthMiddleware(tokens TokenParser, log *logrus.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			raw, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || raw == "" {
				http.Error(w, "missing bearer token", http.StatusUnauthorized)
				return
			}

			customerID, err := tokens.ParseToken(raw)
			if err != nil {
				log.WithField("request_id", RequestIDFromContext(r.Context())).Warnf("Rejected token: %v", err)
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(service.WithCaller(r.Context(), customerID)))
		})
	}
}
