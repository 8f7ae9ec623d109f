package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectionAuthenticator(t *testing.T) {
	access, _, err := BuildJWTString(7, "ana", AccessToken, time.Minute, testSecret)
	require.NoError(t, err)
	refresh, _, err := BuildJWTString(7, "ana", RefreshToken, time.Minute, testSecret)
	require.NoError(t, err)

	a := &ConnectionAuthenticator{Secret: testSecret}

	testCases := []struct {
		name    string
		header  string
		query   string
		wantID  int
		wantErr error
	}{
		{name: "header", header: "Bearer " + access, wantID: 7},
		{name: "lowercase scheme", header: "bearer " + access, wantID: 7},
		{name: "query fallback", query: "?token=" + access, wantID: 7},
		{name: "header wins over query", header: "Bearer " + access, query: "?token=junk", wantID: 7},
		{name: "missing", wantErr: ErrMissingToken},
		{name: "basic scheme ignored", header: "Basic abc", wantErr: ErrMissingToken},
		{name: "refresh token", query: "?token=" + refresh, wantErr: ErrWrongTokenType},
		{name: "garbage", query: "?token=abc", wantErr: ErrInvalidToken},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/ws/laundry/queue"+tc.query, nil)
			if tc.header != "" {
				r.Header.Set("Authorization", tc.header)
			}
			id, err := a.Authenticate(r)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				assert.Equal(t, 0, id)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantID, id)
		})
	}
}

func TestAuthenticateMiddleware(t *testing.T) {
	access, _, err := BuildJWTString(3, "ana", AccessToken, time.Minute, testSecret)
	require.NoError(t, err)

	var seen int
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = GetAuthenticatedUser(r.Context())
	})
	h := (&AuthenticateMiddleware{Secret: testSecret}).Handle(next)

	t.Run("bearer", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/clients", nil)
		r.Header.Set("Authorization", "Bearer "+access)
		h.ServeHTTP(w, r)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 3, seen)
	})

	t.Run("cookie", func(t *testing.T) {
		seen = 0
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/clients", nil)
		r.AddCookie(&http.Cookie{Name: accessCookie, Value: access})
		h.ServeHTTP(w, r)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 3, seen)
	})

	t.Run("no token", func(t *testing.T) {
		seen = 0
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/clients", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, 0, seen)
	})
}
