package handlers

import (
	"net/http"
	"strings"

	"github.com/wellywell/laundry/internal/types"
)

type taskViewResponse struct {
	Message  string          `json:"message"`
	TaskView *types.TaskView `json:"task_view,omitempty"`
}

func (h *HandlerSet) HandleListTasks(w http.ResponseWriter, req *http.Request) {
	tasks, err := h.database.ListTasks(req.Context())
	if err != nil {
		handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (h *HandlerSet) HandleGetTask(w http.ResponseWriter, req *http.Request) {
	id, ok := pathID(req, "taskID")
	if !ok {
		http.Error(w, "Invalid task id", http.StatusBadRequest)
		return
	}
	task, err := h.database.GetTask(req.Context(), id)
	if err != nil {
		handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (h *HandlerSet) HandleCreateTask(w http.ResponseWriter, req *http.Request) {
	var data types.Task
	if err := decodeBody(req, &data); err != nil {
		handleError(w, err)
		return
	}
	data.Description = strings.TrimSpace(data.Description)
	if data.UserID <= 0 || data.Description == "" {
		http.Error(w, "user_id and description are required", http.StatusBadRequest)
		return
	}

	task, err := h.database.CreateTask(req.Context(), data)
	if err != nil {
		handleError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

func (h *HandlerSet) HandleUpdateTask(w http.ResponseWriter, req *http.Request) {
	id, ok := pathID(req, "taskID")
	if !ok {
		http.Error(w, "Invalid task id", http.StatusBadRequest)
		return
	}
	var patch types.TaskPatch
	if err := decodeBody(req, &patch); err != nil {
		handleError(w, err)
		return
	}
	if patch.Description != nil && strings.TrimSpace(*patch.Description) == "" {
		http.Error(w, "description cannot be empty", http.StatusBadRequest)
		return
	}

	task, err := h.database.UpdateTask(req.Context(), id, patch)
	if err != nil {
		handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (h *HandlerSet) HandleDeleteTask(w http.ResponseWriter, req *http.Request) {
	id, ok := pathID(req, "taskID")
	if !ok {
		http.Error(w, "Invalid task id", http.StatusBadRequest)
		return
	}
	if err := h.database.DeleteTask(req.Context(), id); err != nil {
		handleError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleRecordTaskView marks the task as seen by the current user, once.
func (h *HandlerSet) HandleRecordTaskView(w http.ResponseWriter, req *http.Request) {
	userID, ok := h.handleAuthorizeUser(w, req)
	if !ok {
		return
	}
	id, ok := pathID(req, "taskID")
	if !ok {
		http.Error(w, "Invalid task id", http.StatusBadRequest)
		return
	}

	view, created, err := h.database.RecordTaskView(req.Context(), id, userID)
	if err != nil {
		handleError(w, err)
		return
	}
	if !created {
		writeJSON(w, http.StatusOK, taskViewResponse{Message: "View already recorded"})
		return
	}
	writeJSON(w, http.StatusCreated, taskViewResponse{Message: "Task view recorded", TaskView: view})
}
