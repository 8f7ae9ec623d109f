package live

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	logger "github.com/sirupsen/logrus"
)

const relaySubject = "laundry.queue.frames"

type relayEnvelope struct {
	Topic string `json:"topic"`
	Frame Frame  `json:"frame"`
}

// NATSRelay fans frames out to every instance sharing a NATS server. Each
// instance delivers received frames to its own hub.
type NATSRelay struct {
	conn *nats.Conn
	sub  *nats.Subscription
	hub  *Hub
}

func NewNATSRelay(url string, hub *Hub) (*NATSRelay, error) {
	conn, err := nats.Connect(url, nats.Name("laundryd"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return &NATSRelay{conn: conn, hub: hub}, nil
}

func (r *NATSRelay) Emit(ctx context.Context, topic string, f Frame) error {
	b, err := json.Marshal(relayEnvelope{Topic: topic, Frame: f})
	if err != nil {
		return fmt.Errorf("failed encoding relay frame %w", err)
	}
	return r.conn.Publish(relaySubject, b)
}

// Start delivers relayed frames to the local hub until Close.
func (r *NATSRelay) Start(ctx context.Context) error {
	sub, err := r.conn.Subscribe(relaySubject, func(msg *nats.Msg) {
		var env relayEnvelope
		if err := json.Unmarshal(msg.Data, &env); err != nil {
			logger.Errorf("Dropping malformed relay frame: %s", err.Error())
			return
		}
		_ = r.hub.Emit(ctx, env.Topic, env.Frame)
	})
	if err != nil {
		return fmt.Errorf("failed subscribing to %s %w", relaySubject, err)
	}
	r.sub = sub
	return nil
}

func (r *NATSRelay) Close() error {
	if r.sub != nil {
		_ = r.sub.Unsubscribe()
	}
	r.conn.Close()
	return nil
}
