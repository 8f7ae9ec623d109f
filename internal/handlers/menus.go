package handlers

import (
	"net/http"
	"strings"

	"github.com/wellywell/laundry/internal/types"
)

// HandleListUserMenus returns the menu tree visible to the current user's role.
func (h *HandlerSet) HandleListUserMenus(w http.ResponseWriter, req *http.Request) {
	userID, ok := h.handleAuthorizeUser(w, req)
	if !ok {
		return
	}
	menus, err := h.database.ListUserMenus(req.Context(), userID)
	if err != nil {
		handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types.BuildMenuTree(menus))
}

func (h *HandlerSet) HandleListMenus(w http.ResponseWriter, req *http.Request) {
	menus, err := h.database.ListMenus(req.Context())
	if err != nil {
		handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, menus)
}

func (h *HandlerSet) HandleCreateMenu(w http.ResponseWriter, req *http.Request) {
	var data types.Menu
	if err := decodeBody(req, &data); err != nil {
		handleError(w, err)
		return
	}
	data.Label = strings.TrimSpace(data.Label)
	data.Path = strings.TrimSpace(data.Path)
	if data.Label == "" || data.Path == "" {
		http.Error(w, "label and path are required", http.StatusBadRequest)
		return
	}

	menu, err := h.database.CreateMenu(req.Context(), data)
	if err != nil {
		handleError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, menu)
}

func (h *HandlerSet) HandleUpdateMenu(w http.ResponseWriter, req *http.Request) {
	id, ok := pathID(req, "menuID")
	if !ok {
		http.Error(w, "Invalid menu id", http.StatusBadRequest)
		return
	}
	var patch types.MenuPatch
	if err := decodeBody(req, &patch); err != nil {
		handleError(w, err)
		return
	}
	if patch.ParentID != nil && *patch.ParentID == id {
		http.Error(w, "a menu cannot be its own parent", http.StatusBadRequest)
		return
	}

	menu, err := h.database.UpdateMenu(req.Context(), id, patch)
	if err != nil {
		handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, menu)
}

func (h *HandlerSet) HandleDeleteMenu(w http.ResponseWriter, req *http.Request) {
	id, ok := pathID(req, "menuID")
	if !ok {
		http.Error(w, "Invalid menu id", http.StatusBadRequest)
		return
	}
	if err := h.database.DeleteMenu(req.Context(), id); err != nil {
		handleError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *HandlerSet) HandleAssignMenuRole(w http.ResponseWriter, req *http.Request) {
	id, ok := pathID(req, "menuID")
	if !ok {
		http.Error(w, "Invalid menu id", http.StatusBadRequest)
		return
	}
	var data struct {
		RoleID int `json:"role_id"`
	}
	if err := decodeBody(req, &data); err != nil {
		handleError(w, err)
		return
	}
	if data.RoleID <= 0 {
		http.Error(w, "role_id is required", http.StatusBadRequest)
		return
	}

	if err := h.database.AssignMenuRole(req.Context(), id, data.RoleID); err != nil {
		handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Role assigned to menu"})
}

func (h *HandlerSet) HandleRemoveMenuRole(w http.ResponseWriter, req *http.Request) {
	menuID, ok := pathID(req, "menuID")
	if !ok {
		http.Error(w, "Invalid menu id", http.StatusBadRequest)
		return
	}
	roleID, ok := pathID(req, "roleID")
	if !ok {
		http.Error(w, "Invalid role id", http.StatusBadRequest)
		return
	}
	if err := h.database.RemoveMenuRole(req.Context(), menuID, roleID); err != nil {
		handleError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
