package auth

import "net/http"

// ConnectionAuthenticator resolves the user of a live connection from the
// bearer header of the handshake, falling back to the token query parameter.
type ConnectionAuthenticator struct {
	Secret []byte
}

func (a *ConnectionAuthenticator) Authenticate(r *http.Request) (int, error) {
	token := BearerToken(r)
	if token == "" {
		token = r.URL.Query().Get("token")
	}
	if token == "" {
		return 0, ErrMissingToken
	}
	id, _, err := GetUser(token, AccessToken, a.Secret)
	return id, err
}
