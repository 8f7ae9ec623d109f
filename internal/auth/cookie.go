package auth

import (
	"net/http"
	"strings"
	"time"
)

const accessCookie = "_access"

// BearerToken returns the token of an "Authorization: Bearer" header.
func BearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// RequestToken reads the access token from the bearer header, then from the
// access cookie.
func RequestToken(r *http.Request) string {
	if token := BearerToken(r); token != "" {
		return token
	}
	if cookie, err := r.Cookie(accessCookie); err == nil {
		return cookie.Value
	}
	return ""
}

func VerifyUser(r *http.Request, secret []byte) (int, error) {
	id, _, err := GetUser(RequestToken(r), AccessToken, secret)
	return id, err
}

func SetAuthCookie(token string, w http.ResponseWriter, ttl time.Duration) {
	cookie := &http.Cookie{
		Name:     accessCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	http.SetCookie(w, cookie)
}

func ClearAuthCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{Name: accessCookie, Value: "", Path: "/", MaxAge: -1})
}
