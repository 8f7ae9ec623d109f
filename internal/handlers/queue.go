package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/wellywell/laundry/internal/auth"
	"github.com/wellywell/laundry/internal/live"
	"github.com/wellywell/laundry/internal/queue"
	"github.com/wellywell/laundry/internal/types"
)

type queueResponse struct {
	Room    string             `json:"room"`
	Filters live.UpdateFilters `json:"filters"`
	Items   []types.QueueItem  `json:"items"`
	Total   int                `json:"total"`
}

// HandleGetQueue returns the queue view of the status filter in the query.
func (h *HandlerSet) HandleGetQueue(w http.ResponseWriter, req *http.Request) {
	view, err := h.views.Build(req.Context(), live.FilterFromQuery(req))
	if err != nil {
		handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, queueResponse{
		Room:    view.Topic,
		Filters: live.UpdateFilters{Status: view.Statuses},
		Items:   view.Items,
		Total:   view.Total,
	})
}

// HandleQueueUnauthorized answers unauthenticated queue requests with a coded body.
func HandleQueueUnauthorized(w http.ResponseWriter, req *http.Request) {
	handleError(w, &queue.UnauthorizedError{})
}

func decodeReorder(req *http.Request) (queue.ReorderRequest, error) {
	var data queue.ReorderRequest
	body, err := io.ReadAll(req.Body)
	if err != nil {
		return data, err
	}
	if err := json.Unmarshal(body, &data); err != nil {
		var coded queue.CodedError
		if errors.As(err, &coded) {
			return data, coded
		}
		return data, &queue.ValidationError{Message: "body must be a JSON object with 'ids'"}
	}
	return data, nil
}

// HandleReorderPending rewrites the PENDING ranks from the ids in the body.
func (h *HandlerSet) HandleReorderPending(w http.ResponseWriter, req *http.Request) {
	userID, ok := auth.GetAuthenticatedUser(req.Context())
	if !ok {
		HandleQueueUnauthorized(w, req)
		return
	}
	data, err := decodeReorder(req)
	if err != nil {
		handleError(w, err)
		return
	}

	res, err := h.orders.Reorder(req.Context(), data.IDs, userID)
	if err != nil {
		handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
