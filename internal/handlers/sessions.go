package handlers

import (
	"net/http"
	"strconv"
	"strings"

	logger "github.com/sirupsen/logrus"
	"github.com/wellywell/laundry/internal/types"
)

type sessionRequest struct {
	UserID   int     `json:"user_id"`
	Comments *string `json:"comments"`
}

func decodeSession(req *http.Request) (sessionRequest, error) {
	var data sessionRequest
	if req.ContentLength == 0 {
		return data, nil
	}
	err := decodeBody(req, &data)
	return data, err
}

func (h *HandlerSet) HandleStartSession(w http.ResponseWriter, req *http.Request) {
	userID, ok := h.handleAuthorizeUser(w, req)
	if !ok {
		return
	}
	data, err := decodeSession(req)
	if err != nil {
		handleError(w, err)
		return
	}

	s, err := h.database.StartSession(req.Context(), userID, data.Comments)
	if err != nil {
		handleError(w, err)
		return
	}
	logger.WithField("user", userID).Info("Work session started")
	writeJSON(w, http.StatusCreated, s)
}

func (h *HandlerSet) HandleEndSession(w http.ResponseWriter, req *http.Request) {
	userID, ok := h.handleAuthorizeUser(w, req)
	if !ok {
		return
	}
	data, err := decodeSession(req)
	if err != nil {
		handleError(w, err)
		return
	}

	s, err := h.database.EndSession(req.Context(), userID, data.Comments)
	if err != nil {
		handleError(w, err)
		return
	}
	logger.WithField("user", userID).Info("Work session ended")
	writeJSON(w, http.StatusOK, s)
}

// HandleForceEndSession closes the open session of another user.
func (h *HandlerSet) HandleForceEndSession(w http.ResponseWriter, req *http.Request) {
	actorID, ok := h.handleAuthorizeUser(w, req)
	if !ok {
		return
	}
	data, err := decodeSession(req)
	if err != nil {
		handleError(w, err)
		return
	}
	if data.UserID <= 0 {
		http.Error(w, "user_id is required", http.StatusBadRequest)
		return
	}

	s, err := h.database.EndSession(req.Context(), data.UserID, data.Comments)
	if err != nil {
		handleError(w, err)
		return
	}
	logger.WithFields(logger.Fields{"user": data.UserID, "by": actorID}).Info("Work session force ended")
	writeJSON(w, http.StatusOK, s)
}

func (h *HandlerSet) HandleListSessions(w http.ResponseWriter, req *http.Request) {
	var userID int
	if raw := req.URL.Query().Get("user_id"); raw != "" {
		var err error
		userID, err = strconv.Atoi(raw)
		if err != nil || userID <= 0 {
			http.Error(w, "Invalid user_id", http.StatusBadRequest)
			return
		}
	}
	status := types.SessionStatus(strings.ToUpper(req.URL.Query().Get("status")))
	if status != "" && status != types.SessionInProgress && status != types.SessionCompleted {
		http.Error(w, "status must be IN_PROGRESS or COMPLETED", http.StatusBadRequest)
		return
	}

	sessions, err := h.database.ListSessions(req.Context(), userID, status)
	if err != nil {
		handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessions)
}
