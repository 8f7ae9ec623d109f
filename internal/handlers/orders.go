package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/wellywell/laundry/internal/types"
)

func parseTimeParam(req *http.Request, name string) (*time.Time, bool) {
	raw := req.URL.Query().Get(name)
	if raw == "" {
		return nil, true
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, false
	}
	return &t, true
}

func (h *HandlerSet) HandleListOrders(w http.ResponseWriter, req *http.Request) {
	page, perPage, err := pagination(req)
	if err != nil {
		handleError(w, err)
		return
	}
	filter := types.OrderFilter{Page: page, PerPage: perPage}

	if raw := req.URL.Query().Get("status"); raw != "" {
		filter.Status = types.Status(strings.ToUpper(strings.TrimSpace(raw)))
		if !filter.Status.Valid() {
			http.Error(w, "Invalid status", http.StatusBadRequest)
			return
		}
	}
	if raw := req.URL.Query().Get("client_id"); raw != "" {
		filter.ClientID, err = strconv.Atoi(raw)
		if err != nil || filter.ClientID <= 0 {
			http.Error(w, "Invalid client_id", http.StatusBadRequest)
			return
		}
	}
	var ok bool
	if filter.From, ok = parseTimeParam(req, "from"); !ok {
		http.Error(w, "from must be an RFC3339 time", http.StatusBadRequest)
		return
	}
	if filter.To, ok = parseTimeParam(req, "to"); !ok {
		http.Error(w, "to must be an RFC3339 time", http.StatusBadRequest)
		return
	}

	result, err := h.database.ListOrders(req.Context(), filter)
	if err != nil {
		handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *HandlerSet) HandleGetOrder(w http.ResponseWriter, req *http.Request) {
	id, ok := pathID(req, "orderID")
	if !ok {
		http.Error(w, "Invalid laundry service id", http.StatusBadRequest)
		return
	}
	order, err := h.database.GetOrder(req.Context(), id)
	if err != nil {
		handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *HandlerSet) HandleCreateOrder(w http.ResponseWriter, req *http.Request) {
	userID, ok := h.handleAuthorizeUser(w, req)
	if !ok {
		return
	}
	var data types.NewOrder
	if err := decodeBody(req, &data); err != nil {
		handleError(w, err)
		return
	}

	order, err := h.orders.Create(req.Context(), data, userID)
	if err != nil {
		handleError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, order)
}

func (h *HandlerSet) HandleUpdateOrder(w http.ResponseWriter, req *http.Request) {
	userID, ok := h.handleAuthorizeUser(w, req)
	if !ok {
		return
	}
	id, ok := pathID(req, "orderID")
	if !ok {
		http.Error(w, "Invalid laundry service id", http.StatusBadRequest)
		return
	}
	var patch types.OrderPatch
	if err := decodeBody(req, &patch); err != nil {
		handleError(w, err)
		return
	}

	order, err := h.orders.Update(req.Context(), id, patch, userID)
	if err != nil {
		handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *HandlerSet) HandleUpdateOrderStatus(w http.ResponseWriter, req *http.Request) {
	userID, ok := h.handleAuthorizeUser(w, req)
	if !ok {
		return
	}
	id, ok := pathID(req, "orderID")
	if !ok {
		http.Error(w, "Invalid laundry service id", http.StatusBadRequest)
		return
	}
	var data struct {
		Status types.Status `json:"status"`
	}
	if err := decodeBody(req, &data); err != nil {
		handleError(w, err)
		return
	}

	order, err := h.orders.ChangeStatus(req.Context(), id, data.Status, userID)
	if err != nil {
		handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *HandlerSet) HandleDeleteOrder(w http.ResponseWriter, req *http.Request) {
	id, ok := pathID(req, "orderID")
	if !ok {
		http.Error(w, "Invalid laundry service id", http.StatusBadRequest)
		return
	}
	if err := h.orders.Delete(req.Context(), id); err != nil {
		handleError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *HandlerSet) HandleListActivity(w http.ResponseWriter, req *http.Request) {
	id, ok := pathID(req, "orderID")
	if !ok {
		http.Error(w, "Invalid laundry service id", http.StatusBadRequest)
		return
	}
	entries, err := h.database.ListActivity(req.Context(), id)
	if err != nil {
		handleError(w, err)
		return
	}
	if entries == nil {
		entries = []types.ActivityEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *HandlerSet) HandleListNotes(w http.ResponseWriter, req *http.Request) {
	id, ok := pathID(req, "orderID")
	if !ok {
		http.Error(w, "Invalid laundry service id", http.StatusBadRequest)
		return
	}
	notes, err := h.database.ListNotes(req.Context(), id)
	if err != nil {
		handleError(w, err)
		return
	}
	if notes == nil {
		notes = []types.Note{}
	}
	writeJSON(w, http.StatusOK, notes)
}

func (h *HandlerSet) HandleCreateNote(w http.ResponseWriter, req *http.Request) {
	userID, ok := h.handleAuthorizeUser(w, req)
	if !ok {
		return
	}
	id, ok := pathID(req, "orderID")
	if !ok {
		http.Error(w, "Invalid laundry service id", http.StatusBadRequest)
		return
	}
	var data struct {
		Detail string `json:"detail"`
	}
	if err := decodeBody(req, &data); err != nil {
		handleError(w, err)
		return
	}
	data.Detail = strings.TrimSpace(data.Detail)
	if data.Detail == "" {
		http.Error(w, "detail is required", http.StatusBadRequest)
		return
	}

	note, err := h.database.CreateNote(req.Context(), id, data.Detail, userID)
	if err != nil {
		handleError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, note)
}

func (h *HandlerSet) HandleDeleteNote(w http.ResponseWriter, req *http.Request) {
	userID, ok := h.handleAuthorizeUser(w, req)
	if !ok {
		return
	}
	noteID, ok := pathID(req, "noteID")
	if !ok {
		http.Error(w, "Invalid note id", http.StatusBadRequest)
		return
	}
	if err := h.database.DeleteNote(req.Context(), noteID, userID); err != nil {
		handleError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type compactResponse struct {
	types.Page[types.QueueItem]
	SortMode string `json:"sort_mode"`
	SortBy   string `json:"sort_by"`
	SortDir  string `json:"sort_dir"`
}

// HandleListCompactOrders pages through orders in a light listing shape.
func (h *HandlerSet) HandleListCompactOrders(w http.ResponseWriter, req *http.Request) {
	page, perPage, err := pagination(req)
	if err != nil {
		handleError(w, err)
		return
	}
	query := req.URL.Query()
	filter := types.CompactFilter{
		Page:     page,
		PerPage:  perPage,
		SortMode: strings.ToLower(strings.TrimSpace(query.Get("sort_mode"))),
		SortBy:   strings.TrimSpace(query.Get("sort_by")),
		SortDir:  strings.ToLower(strings.TrimSpace(query.Get("sort_dir"))),
	}
	if filter.SortDir == "" {
		filter.SortDir = "desc"
	}

	switch filter.SortMode {
	case "", "recent", "oldest", "agenda":
	default:
		http.Error(w, "Invalid sort_mode. Valid options: recent, oldest, agenda", http.StatusBadRequest)
		return
	}
	if filter.SortDir != "asc" && filter.SortDir != "desc" {
		http.Error(w, "Invalid sort_dir. Valid options: asc, desc", http.StatusBadRequest)
		return
	}
	if raw := query.Get("status"); raw != "" {
		filter.Status = types.Status(strings.ToUpper(strings.TrimSpace(raw)))
		if !filter.Status.Valid() {
			http.Error(w, "Invalid status", http.StatusBadRequest)
			return
		}
	}
	if raw := query.Get("client_id"); raw != "" {
		filter.ClientID, err = strconv.Atoi(raw)
		if err != nil || filter.ClientID <= 0 {
			http.Error(w, "Invalid client_id", http.StatusBadRequest)
			return
		}
	}

	result, err := h.database.ListCompactOrders(req.Context(), filter)
	if err != nil {
		handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, compactResponse{
		Page:     result,
		SortMode: filter.SortMode,
		SortBy:   filter.SortBy,
		SortDir:  filter.SortDir,
	})
}
