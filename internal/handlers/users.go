package handlers

import (
	"net/http"

	logger "github.com/sirupsen/logrus"
	"github.com/wellywell/laundry/internal/auth"
)

type userRequest struct {
	Username *string `json:"username"`
	Password *string `json:"password"`
	RoleID   *int    `json:"role_id"`
}

type passwordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

const adminRole = "admin"

type roleRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

func (h *HandlerSet) HandleListUsers(w http.ResponseWriter, req *http.Request) {
	users, err := h.database.ListUsers(req.Context())
	if err != nil {
		handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *HandlerSet) HandleGetUser(w http.ResponseWriter, req *http.Request) {
	id, ok := pathID(req, "userID")
	if !ok {
		http.Error(w, "Invalid user id", http.StatusBadRequest)
		return
	}
	user, err := h.database.GetUser(req.Context(), id)
	if err != nil {
		handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *HandlerSet) HandleCreateUser(w http.ResponseWriter, req *http.Request) {
	var data userRequest
	if err := decodeBody(req, &data); err != nil {
		handleError(w, err)
		return
	}
	if data.Username == nil || *data.Username == "" || data.Password == nil || *data.Password == "" {
		http.Error(w, ErrAuthDataEmpty.Error(), http.StatusBadRequest)
		return
	}
	if data.RoleID == nil {
		http.Error(w, "role_id is required", http.StatusBadRequest)
		return
	}

	hashed, err := auth.HashPassword(*data.Password)
	if err != nil {
		logger.Error(err)
		http.Error(w, "Something went wrong", http.StatusInternalServerError)
		return
	}

	user, err := h.database.CreateUser(req.Context(), *data.Username, hashed, *data.RoleID)
	if err != nil {
		handleError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (h *HandlerSet) HandleUpdateUser(w http.ResponseWriter, req *http.Request) {
	id, ok := pathID(req, "userID")
	if !ok {
		http.Error(w, "Invalid user id", http.StatusBadRequest)
		return
	}
	var data userRequest
	if err := decodeBody(req, &data); err != nil {
		handleError(w, err)
		return
	}

	var hashed *string
	if data.Password != nil {
		if *data.Password == "" {
			http.Error(w, "Password cannot be empty", http.StatusBadRequest)
			return
		}
		hash, err := auth.HashPassword(*data.Password)
		if err != nil {
			logger.Error(err)
			http.Error(w, "Something went wrong", http.StatusInternalServerError)
			return
		}
		hashed = &hash
	}

	user, err := h.database.UpdateUser(req.Context(), id, data.Username, hashed, data.RoleID)
	if err != nil {
		handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *HandlerSet) HandleDeleteUser(w http.ResponseWriter, req *http.Request) {
	id, ok := pathID(req, "userID")
	if !ok {
		http.Error(w, "Invalid user id", http.StatusBadRequest)
		return
	}
	if err := h.database.DeleteUser(req.Context(), id); err != nil {
		handleError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *HandlerSet) HandleListRoles(w http.ResponseWriter, req *http.Request) {
	roles, err := h.database.ListRoles(req.Context())
	if err != nil {
		handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, roles)
}

func (h *HandlerSet) HandleCreateRole(w http.ResponseWriter, req *http.Request) {
	var data roleRequest
	if err := decodeBody(req, &data); err != nil {
		handleError(w, err)
		return
	}
	if data.Name == nil || *data.Name == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}
	description := ""
	if data.Description != nil {
		description = *data.Description
	}

	role, err := h.database.CreateRole(req.Context(), *data.Name, description)
	if err != nil {
		handleError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, role)
}

func (h *HandlerSet) HandleUpdateRole(w http.ResponseWriter, req *http.Request) {
	id, ok := pathID(req, "roleID")
	if !ok {
		http.Error(w, "Invalid role id", http.StatusBadRequest)
		return
	}
	var data roleRequest
	if err := decodeBody(req, &data); err != nil {
		handleError(w, err)
		return
	}

	role, err := h.database.UpdateRole(req.Context(), id, data.Name, data.Description)
	if err != nil {
		handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, role)
}

func (h *HandlerSet) HandleDeleteRole(w http.ResponseWriter, req *http.Request) {
	id, ok := pathID(req, "roleID")
	if !ok {
		http.Error(w, "Invalid role id", http.StatusBadRequest)
		return
	}
	if err := h.database.DeleteRole(req.Context(), id); err != nil {
		handleError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleProfile returns the current user.
func (h *HandlerSet) HandleProfile(w http.ResponseWriter, req *http.Request) {
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

func (h *HandlerSet) storePassword(w http.ResponseWriter, req *http.Request, userID int, password string) {
	hashed, err := auth.HashPassword(password)
	if err != nil {
		logger.Error(err)
		http.Error(w, "Something went wrong", http.StatusInternalServerError)
		return
	}
	if err := h.database.SetPassword(req.Context(), userID, hashed); err != nil {
		handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Password updated"})
}

// HandleChangePassword lets users replace their own password after
// confirming the old one.
func (h *HandlerSet) HandleChangePassword(w http.ResponseWriter, req *http.Request) {
	actorID, ok := h.handleAuthorizeUser(w, req)
	if !ok {
		return
	}
	id, ok := pathID(req, "userID")
	if !ok {
		http.Error(w, "Invalid user id", http.StatusBadRequest)
		return
	}
	if id != actorID {
		http.Error(w, "Users can only change their own password", http.StatusForbidden)
		return
	}
	var data passwordRequest
	if err := decodeBody(req, &data); err != nil {
		handleError(w, err)
		return
	}
	if data.OldPassword == "" || data.NewPassword == "" {
		http.Error(w, "old_password and new_password are required", http.StatusBadRequest)
		return
	}

	hash, err := h.database.GetPasswordHash(req.Context(), id)
	if err != nil {
		handleError(w, err)
		return
	}
	if !auth.CheckPasswordHash(data.OldPassword, hash) {
		http.Error(w, "Old password is incorrect", http.StatusUnauthorized)
		return
	}
	h.storePassword(w, req, id, data.NewPassword)
}

// HandleForcePassword sets any user's password. Admins only.
func (h *HandlerSet) HandleForcePassword(w http.ResponseWriter, req *http.Request) {
	actorID, ok := h.handleAuthorizeUser(w, req)
	if !ok {
		return
	}
	id, ok := pathID(req, "userID")
	if !ok {
		http.Error(w, "Invalid user id", http.StatusBadRequest)
		return
	}
	role, err := h.database.UserRoleName(req.Context(), actorID)
	if err != nil {
		handleError(w, err)
		return
	}
	if role != adminRole {
		http.Error(w, "Only admins can force a password", http.StatusForbidden)
		return
	}
	var data passwordRequest
	if err := decodeBody(req, &data); err != nil {
		handleError(w, err)
		return
	}
	if data.NewPassword == "" {
		http.Error(w, "new_password is required", http.StatusBadRequest)
		return
	}
	h.storePassword(w, req, id, data.NewPassword)
}
