package auth

import (
	"context"
	"net/http"

	logger "github.com/sirupsen/logrus"
)

type ctxKey struct{}

type AuthenticateMiddleware struct {
	Secret []byte
	// Reject writes the 401 response. Nil means a plain text body.
	Reject http.HandlerFunc
}

// Handle rejects requests without a valid access token and stores the user
// id in the request context.
func (m *AuthenticateMiddleware) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := VerifyUser(r, m.Secret)
		if err != nil {
			logger.Debugf("Unauthenticated request to %s: %s", r.URL.Path, err.Error())
			if m.Reject != nil {
				m.Reject(w, r)
				return
			}
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
	})
}

func WithUserID(ctx context.Context, userID int) context.Context {
	return context.WithValue(ctx, ctxKey{}, userID)
}

func GetAuthenticatedUser(ctx context.Context) (int, bool) {
	id, ok := ctx.Value(ctxKey{}).(int)
	return id, ok && id > 0
}
