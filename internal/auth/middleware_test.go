package auth

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthenticateMiddlewareReject(t *testing.T) {
	token, _, err := BuildJWTString(7, "ana", AccessToken, time.Minute, testSecret)
	require.NoError(t, err)

	coded := func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("content-type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"code":"UNAUTHORIZED"}`))
	}

	tests := []struct {
		name       string
		token      string
		reject     http.HandlerFunc
		wantStatus int
		wantBody   string
	}{
		{"valid token", token, nil, http.StatusOK, "7"},
		{"plain rejection", "", nil, http.StatusUnauthorized, "Unauthorized\n"},
		{"custom rejection", "", coded, http.StatusUnauthorized, `{"code":"UNAUTHORIZED"}`},
		{"bad token custom rejection", "garbage", coded, http.StatusUnauthorized, `{"code":"UNAUTHORIZED"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &AuthenticateMiddleware{Secret: testSecret, Reject: tt.reject}
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				id, ok := GetAuthenticatedUser(r.Context())
				require.True(t, ok)
				_, _ = w.Write([]byte(strconv.Itoa(id)))
			})

			req := httptest.NewRequest(http.MethodGet, "/laundry_services/queue", nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			w := httptest.NewRecorder()
			m.Handle(next).ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantBody, w.Body.String())
		})
	}
}
