package live

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	logger "github.com/sirupsen/logrus"
	"github.com/wellywell/laundry/internal/queue"
	"github.com/wellywell/laundry/internal/types"
)

// EventKind is a client-sent event.
type EventKind int

const (
	UnknownEvent EventKind = iota
	JoinEvent
	LeaveEvent
	ReorderEvent
	PingEvent
)

var eventNames = map[string]EventKind{
	"laundry:queue:join":      JoinEvent,
	"laundry:queue:leave":     LeaveEvent,
	"laundry:pending:reorder": ReorderEvent,
	"laundry:queue:ping":      PingEvent,
}

var errMalformedFrame = &queue.ValidationError{Message: "malformed frame"}

func ParseEventKind(name string) EventKind {
	if k, ok := eventNames[name]; ok {
		return k
	}
	return UnknownEvent
}

// Inbound is a frame sent by a client. Ack, when non-zero, is echoed on the reply.
type Inbound struct {
	Event string          `json:"event"`
	Ack   int64           `json:"ack,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Session is one authenticated live connection.
type Session interface {
	Subscriber
	PrincipalID() int
}

// Reorderer applies a manual PENDING reorder and announces it.
type Reorderer interface {
	Reorder(ctx context.Context, ids []int, actorID int) (*queue.ReorderResult, error)
}

type joinPayload struct {
	Status queue.StatusFilter `json:"status"`
}

// Reply acknowledges an event.
type Reply struct {
	OK     bool             `json:"ok"`
	Code   int              `json:"code,omitempty"`
	Error  *queue.ErrorBody `json:"error,omitempty"`
	Room   string           `json:"room,omitempty"`
	Result any              `json:"result,omitempty"`
	Echo   json.RawMessage  `json:"echo,omitempty"`
}

// JoinReply acknowledges a join with the current view of the topic.
type JoinReply struct {
	OK      bool              `json:"ok"`
	Room    string            `json:"room"`
	Filters UpdateFilters     `json:"filters"`
	Items   []types.QueueItem `json:"items"`
	Total   int               `json:"total"`
}

// Dispatcher runs client events against the queue.
type Dispatcher struct {
	hub     *Hub
	views   ViewSource
	reorder Reorderer
}

func NewDispatcher(hub *Hub, views ViewSource, reorder Reorderer) *Dispatcher {
	return &Dispatcher{hub: hub, views: views, reorder: reorder}
}

// Handle runs one inbound event and returns the acknowledgement for it,
// a Reply or a JoinReply.
func (d *Dispatcher) Handle(ctx context.Context, s Session, in Inbound) any {
	switch ParseEventKind(in.Event) {
	case JoinEvent:
		return d.join(ctx, s, in.Data)
	case LeaveEvent:
		return d.leave(s, in.Data)
	case ReorderEvent:
		return d.reorderPending(ctx, s, in.Data)
	case PingEvent:
		return Reply{OK: true, Echo: in.Data}
	default:
		return failure(&queue.ValidationError{Message: "unknown event " + in.Event})
	}
}

func (d *Dispatcher) join(ctx context.Context, s Session, data json.RawMessage) any {
	var p joinPayload
	if err := decodePayload(data, &p); err != nil {
		return failure(err)
	}
	view, err := d.views.Build(ctx, p.Status)
	if err != nil {
		r := failure(err)
		r.Room = queue.TopicFor(p.Status)
		return r
	}
	d.hub.Join(view.Topic, s)

	return JoinReply{
		OK:      true,
		Room:    view.Topic,
		Filters: UpdateFilters{Status: view.Statuses},
		Items:   view.Items,
		Total:   view.Total,
	}
}

func (d *Dispatcher) leave(s Session, data json.RawMessage) Reply {
	var p joinPayload
	if err := decodePayload(data, &p); err != nil {
		return failure(err)
	}
	room := queue.TopicFor(p.Status)
	d.hub.Leave(room, s)
	return Reply{OK: true, Room: room}
}

func (d *Dispatcher) reorderPending(ctx context.Context, s Session, data json.RawMessage) Reply {
	if s.PrincipalID() <= 0 {
		return failure(&queue.UnauthorizedError{})
	}
	var req queue.ReorderRequest
	if err := decodePayload(data, &req); err != nil {
		return failure(err)
	}
	res, err := d.reorder.Reorder(ctx, req.IDs, s.PrincipalID())
	if err != nil {
		return failure(err)
	}
	return Reply{OK: true, Result: res, Room: queue.TopicFor(req.Status)}
}

func decodePayload(data json.RawMessage, v any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		var coded queue.CodedError
		if errors.As(err, &coded) {
			return coded
		}
		return &queue.ValidationError{Message: "malformed payload"}
	}
	return nil
}

func failure(err error) Reply {
	var coded queue.CodedError
	if errors.As(err, &coded) {
		body := coded.Body()
		return Reply{OK: false, Code: coded.HTTPStatus(), Error: &body}
	}
	logger.Errorf("Live event failed: %s", err.Error())
	return Reply{
		OK:    false,
		Code:  http.StatusInternalServerError,
		Error: &queue.ErrorBody{Error: "Internal error", Code: queue.CodeInternal},
	}
}
