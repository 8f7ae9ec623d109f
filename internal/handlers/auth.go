package handlers

import (
	"errors"
	"net/http"

	logger "github.com/sirupsen/logrus"
	"github.com/wellywell/laundry/internal/auth"
	"github.com/wellywell/laundry/internal/db"
)

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (h *HandlerSet) parseAuthData(req *http.Request) (username string, password string, err error) {

	var data struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}

	if err = decodeBody(req, &data); err != nil {
		return "", "", ErrCouldNotParseBody
	}

	if data.Username == "" || data.Password == "" {
		return "", "", ErrAuthDataEmpty
	}

	return data.Username, data.Password, nil
}

func (h *HandlerSet) issueAccess(w http.ResponseWriter, userID int, username string) (string, bool) {
	access, _, err := auth.BuildJWTString(userID, username, auth.AccessToken, h.tokens.AccessTTL, h.tokens.Secret)
	if err != nil {
		logger.Error(err)
		http.Error(w, "Something went wrong", http.StatusInternalServerError)
		return "", false
	}
	auth.SetAuthCookie(access, w, h.tokens.AccessTTL)
	return access, true
}

func (h *HandlerSet) HandleLogin(w http.ResponseWriter, req *http.Request) {

	username, password, err := h.parseAuthData(req)
	if err != nil {
		if errors.Is(err, ErrAuthDataEmpty) {
			http.Error(w, "Username and password cannot be empty", http.StatusBadRequest)
			return
		}
		http.Error(w, "Could not parse body", http.StatusBadRequest)
		return
	}

	userID, passwordInDB, err := h.database.GetUserCredentials(req.Context(), username)
	if err != nil {
		var userNotFound *db.UserNotFoundError
		if errors.As(err, &userNotFound) {
			http.Error(w, "User not found", http.StatusUnauthorized)
			return
		}
		handleError(w, err)
		return
	}

	if !auth.CheckPasswordHash(password, passwordInDB) {
		http.Error(w, "Wrong password", http.StatusUnauthorized)
		return
	}

	refresh, claims, err := auth.BuildJWTString(userID, username, auth.RefreshToken, h.tokens.RefreshTTL, h.tokens.Secret)
	if err != nil {
		logger.Error(err)
		http.Error(w, "Something went wrong", http.StatusInternalServerError)
		return
	}
	if err := h.database.StoreRefreshToken(req.Context(), claims.ID, userID, claims.ExpiresAt.Time); err != nil {
		handleError(w, err)
		return
	}

	access, ok := h.issueAccess(w, userID, username)
	if !ok {
		return
	}

	logger.WithField("user", userID).Info("User logged in")
	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
		ExpiresIn:    int(h.tokens.AccessTTL.Seconds()),
	})
}

func (h *HandlerSet) HandleRefresh(w http.ResponseWriter, req *http.Request) {
	var data refreshRequest
	if err := decodeBody(req, &data); err != nil {
		handleError(w, err)
		return
	}

	userID, claims, err := auth.GetUser(data.RefreshToken, auth.RefreshToken, h.tokens.Secret)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	if err := h.database.CheckRefreshToken(req.Context(), claims.ID, userID); err != nil {
		handleError(w, err)
		return
	}

	access, ok := h.issueAccess(w, userID, claims.Username)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken: access,
		TokenType:   "bearer",
		ExpiresIn:   int(h.tokens.AccessTTL.Seconds()),
	})
}

// HandleLogout revokes the given refresh token and drops the access cookie.
func (h *HandlerSet) HandleLogout(w http.ResponseWriter, req *http.Request) {
	var data refreshRequest
	if err := decodeBody(req, &data); err != nil {
		handleError(w, err)
		return
	}

	_, claims, err := auth.GetUser(data.RefreshToken, auth.RefreshToken, h.tokens.Secret)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	if err := h.database.RevokeRefreshToken(req.Context(), claims.ID); err != nil {
		handleError(w, err)
		return
	}

	auth.ClearAuthCookie(w)
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

func (h *HandlerSet) HandleMe(w http.ResponseWriter, req *http.Request) {
	userID, ok := h.handleAuthorizeUser(w, req)
	if !ok {
		return
	}
	user, err := h.database.GetUser(req.Context(), userID)
	if err != nil {
		handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}
