package compress

import (
	"bytes"
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echo() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		w.Write(body)
	})
}

func gzipped(t *testing.T, s string) *bytes.Buffer {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte(s))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return &buf
}

func TestRequestUngzipper(t *testing.T) {
	tests := []struct {
		name     string
		body     io.Reader
		encoding string
		wantCode int
		wantBody string
	}{
		{"plain", strings.NewReader(`{"ids":[1]}`), "", http.StatusOK, `{"ids":[1]}`},
		{"gzip", gzipped(t, `{"ids":[2,1]}`), "gzip", http.StatusOK, `{"ids":[2,1]}`},
		{"broken gzip", strings.NewReader("not gzip"), "gzip", http.StatusBadRequest, "Could not decompress body\n"},
	}
	handler := RequestUngzipper{}.Handle(echo())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", tt.body)
			if tt.encoding != "" {
				req.Header.Set("Content-Encoding", tt.encoding)
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.wantCode, w.Code)
			assert.Equal(t, tt.wantBody, w.Body.String())
		})
	}
}
