package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/wellywell/laundry/internal/types"
)

func parseDeliveryStatus(raw string) (types.DeliveryStatus, bool) {
	st := types.DeliveryStatus(strings.ToUpper(strings.TrimSpace(raw)))
	return st, st.Valid()
}

func (h *HandlerSet) HandleListDeliveries(w http.ResponseWriter, req *http.Request) {
	page, perPage, err := pagination(req)
	if err != nil {
		handleError(w, err)
		return
	}
	filter := types.DeliveryFilter{Page: page, PerPage: perPage}

	if raw := req.URL.Query().Get("laundry_service_id"); raw != "" {
		filter.OrderID, err = strconv.Atoi(raw)
		if err != nil || filter.OrderID <= 0 {
			http.Error(w, "Invalid laundry_service_id", http.StatusBadRequest)
			return
		}
	}
	if raw := req.URL.Query().Get("status"); raw != "" {
		var ok bool
		if filter.Status, ok = parseDeliveryStatus(raw); !ok {
			http.Error(w, "Invalid status", http.StatusBadRequest)
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

	result, err := h.database.ListDeliveries(req.Context(), filter)
	if err != nil {
		handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *HandlerSet) HandleGetDelivery(w http.ResponseWriter, req *http.Request) {
	id, ok := pathID(req, "deliveryID")
	if !ok {
		http.Error(w, "Invalid delivery id", http.StatusBadRequest)
		return
	}
	delivery, err := h.database.GetDelivery(req.Context(), id)
	if err != nil {
		handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, delivery)
}

func (h *HandlerSet) HandleCreateDelivery(w http.ResponseWriter, req *http.Request) {
	userID, ok := h.handleAuthorizeUser(w, req)
	if !ok {
		return
	}
	var data types.Delivery
	if err := decodeBody(req, &data); err != nil {
		handleError(w, err)
		return
	}
	if data.OrderID <= 0 || data.ScheduledDeliveryAt.IsZero() {
		http.Error(w, "laundry_service_id and scheduled_delivery_at are required", http.StatusBadRequest)
		return
	}

	delivery, err := h.database.CreateDelivery(req.Context(), data, userID)
	if err != nil {
		handleError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, delivery)
}

func (h *HandlerSet) HandleUpdateDelivery(w http.ResponseWriter, req *http.Request) {
	id, ok := pathID(req, "deliveryID")
	if !ok {
		http.Error(w, "Invalid delivery id", http.StatusBadRequest)
		return
	}
	var patch types.DeliveryPatch
	if err := decodeBody(req, &patch); err != nil {
		handleError(w, err)
		return
	}

	delivery, err := h.database.UpdateDelivery(req.Context(), id, patch)
	if err != nil {
		handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, delivery)
}

func (h *HandlerSet) HandleUpdateDeliveryStatus(w http.ResponseWriter, req *http.Request) {
	id, ok := pathID(req, "deliveryID")
	if !ok {
		http.Error(w, "Invalid delivery id", http.StatusBadRequest)
		return
	}
	var data struct {
		Status *string `json:"status"`
	}
	if err := decodeBody(req, &data); err != nil {
		handleError(w, err)
		return
	}
	if data.Status == nil {
		http.Error(w, "Missing 'status' in request", http.StatusBadRequest)
		return
	}
	status, ok := parseDeliveryStatus(*data.Status)
	if !ok {
		http.Error(w, "Invalid status. Valid options: PENDING, DELIVERED, CANCELLED", http.StatusBadRequest)
		return
	}

	delivery, err := h.database.ChangeDeliveryStatus(req.Context(), id, status)
	if err != nil {
		handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, delivery)
}

func (h *HandlerSet) HandleDeleteDelivery(w http.ResponseWriter, req *http.Request) {
	id, ok := pathID(req, "deliveryID")
	if !ok {
		http.Error(w, "Invalid delivery id", http.StatusBadRequest)
		return
	}
	if err := h.database.DeleteDelivery(req.Context(), id); err != nil {
		handleError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
