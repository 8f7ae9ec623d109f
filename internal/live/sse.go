package live

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	logger "github.com/sirupsen/logrus"
	"github.com/wellywell/laundry/internal/queue"
)

const sseKeepAlive = 30 * time.Second

// SSEHandler streams queue updates for one topic to clients that cannot
// hold a websocket.
type SSEHandler struct {
	hub   *Hub
	views ViewSource
	auth  Authenticator
}

func NewSSEHandler(hub *Hub, views ViewSource, auth Authenticator) *SSEHandler {
	return &SSEHandler{hub: hub, views: views, auth: auth}
}

type sseSubscriber struct {
	id     string
	frames chan Frame
	done   chan struct{}
	once   sync.Once
}

func (s *sseSubscriber) ID() string { return s.id }

func (s *sseSubscriber) Deliver(f Frame) error {
	select {
	case <-s.done:
		return ErrSubscriberClosed
	default:
	}
	select {
	case s.frames <- f:
		return nil
	default:
		return ErrSlowSubscriber
	}
}

func (s *sseSubscriber) close() {
	s.once.Do(func() { close(s.done) })
}

// FilterFromQuery reads the status filter of a request. Repeated status
// parameters form a list, a single one is a delimited string.
func FilterFromQuery(r *http.Request) queue.StatusFilter {
	values, ok := r.URL.Query()["status"]
	switch {
	case !ok:
		return queue.StatusFilter{}
	case len(values) == 1:
		return queue.FilterFromString(values[0])
	default:
		return queue.FilterFromList(values...)
	}
}

func (h *SSEHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if _, err := h.auth.Authenticate(r); err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	view, err := h.views.Build(r.Context(), FilterFromQuery(r))
	if err != nil {
		writeCodedError(w, err)
		return
	}

	sub := &sseSubscriber{
		id:     uuid.NewString(),
		frames: make(chan Frame, sendBuffer),
		done:   make(chan struct{}),
	}
	h.hub.Join(view.Topic, sub)
	defer func() {
		sub.close()
		h.hub.LeaveAll(sub)
	}()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	fmt.Fprintf(w, "retry: 2000\n\n")
	initial, err := NewFrame(QueueUpdatedEvent, view.Topic, Update{
		Room:    view.Topic,
		Filters: UpdateFilters{Status: view.Statuses},
		Items:   view.Items,
		Total:   view.Total,
	})
	if err == nil {
		writeEvent(w, initial)
	}
	flusher.Flush()

	logger.WithFields(logger.Fields{"subscriber": sub.id, "topic": view.Topic}).Info("SSE stream opened")

	ticker := time.NewTicker(sseKeepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			logger.WithField("subscriber", sub.id).Info("SSE stream closed")
			return
		case <-ticker.C:
			fmt.Fprintf(w, ": keepalive\n\n")
			flusher.Flush()
		case f := <-sub.frames:
			writeEvent(w, f)
			flusher.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, f Frame) {
	fmt.Fprintf(w, "event: %s\n", f.Event)
	fmt.Fprintf(w, "data: %s\n\n", f.Data)
}

func writeCodedError(w http.ResponseWriter, err error) {
	var coded queue.CodedError
	if !errors.As(err, &coded) {
		logger.Errorf("Failed building queue view: %s", err.Error())
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(coded.HTTPStatus())
	_ = json.NewEncoder(w).Encode(coded.Body())
}
