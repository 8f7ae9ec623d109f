package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/wellywell/laundry/internal/types"
)

func (h *HandlerSet) HandleListSteps(w http.ResponseWriter, req *http.Request) {
	page, perPage, err := pagination(req)
	if err != nil {
		handleError(w, err)
		return
	}
	filter := types.StepFilter{Page: page, PerPage: perPage}

	if raw := req.URL.Query().Get("laundry_service_id"); raw != "" {
		filter.OrderID, err = strconv.Atoi(raw)
		if err != nil || filter.OrderID <= 0 {
			http.Error(w, "Invalid laundry_service_id", http.StatusBadRequest)
			return
		}
	}
	if raw := req.URL.Query().Get("step_type"); raw != "" {
		filter.StepType = types.StepType(strings.ToUpper(strings.TrimSpace(raw)))
		if !filter.StepType.Valid() {
			http.Error(w, "Invalid step_type", http.StatusBadRequest)
			return
		}
	}

	result, err := h.database.ListSteps(req.Context(), filter)
	if err != nil {
		handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *HandlerSet) HandleGetStep(w http.ResponseWriter, req *http.Request) {
	id, ok := pathID(req, "stepID")
	if !ok {
		http.Error(w, "Invalid step id", http.StatusBadRequest)
		return
	}
	step, err := h.database.GetStep(req.Context(), id)
	if err != nil {
		handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, step)
}

func (h *HandlerSet) HandleCreateStep(w http.ResponseWriter, req *http.Request) {
	userID, ok := h.handleAuthorizeUser(w, req)
	if !ok {
		return
	}
	var data types.NewProcessingStep
	if err := decodeBody(req, &data); err != nil {
		handleError(w, err)
		return
	}

	step, err := h.orders.CreateStep(req.Context(), data, userID)
	if err != nil {
		handleError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, step)
}

func (h *HandlerSet) HandleUpdateStep(w http.ResponseWriter, req *http.Request) {
	id, ok := pathID(req, "stepID")
	if !ok {
		http.Error(w, "Invalid step id", http.StatusBadRequest)
		return
	}
	var patch types.ProcessingStepPatch
	if err := decodeBody(req, &patch); err != nil {
		handleError(w, err)
		return
	}

	step, err := h.orders.UpdateStep(req.Context(), id, patch)
	if err != nil {
		handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, step)
}

func (h *HandlerSet) HandleCompleteStep(w http.ResponseWriter, req *http.Request) {
	userID, ok := h.handleAuthorizeUser(w, req)
	if !ok {
		return
	}
	id, ok := pathID(req, "stepID")
	if !ok {
		http.Error(w, "Invalid step id", http.StatusBadRequest)
		return
	}

	step, err := h.orders.CompleteStep(req.Context(), id, userID)
	if err != nil {
		handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, step)
}

func (h *HandlerSet) HandleDeleteStep(w http.ResponseWriter, req *http.Request) {
	id, ok := pathID(req, "stepID")
	if !ok {
		http.Error(w, "Invalid step id", http.StatusBadRequest)
		return
	}
	if err := h.orders.DeleteStep(req.Context(), id); err != nil {
		handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": fmt.Sprintf("Processing step %d deleted", id)})
}
