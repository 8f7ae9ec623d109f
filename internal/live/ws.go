package live

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	logger "github.com/sirupsen/logrus"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
	sendBuffer     = 64
)

// Authenticator resolves the principal of a connecting client.
type Authenticator interface {
	Authenticate(r *http.Request) (int, error)
}

// WSHandler upgrades authenticated requests to live queue connections.
type WSHandler struct {
	hub        *Hub
	dispatcher *Dispatcher
	auth       Authenticator
	upgrader   websocket.Upgrader
}

func NewWSHandler(hub *Hub, dispatcher *Dispatcher, auth Authenticator) *WSHandler {
	return &WSHandler{
		hub:        hub,
		dispatcher: dispatcher,
		auth:       auth,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

func (h *WSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	principal, err := h.auth.Authenticate(r)
	if err != nil {
		logger.Infof("Rejected live connection: %s", err.Error())
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Errorf("Failed upgrading connection: %s", err.Error())
		return
	}

	c := newConn(ws, principal)
	logger.WithFields(logger.Fields{"conn": c.id, "user": principal}).Info("Live connection opened")

	go c.writeLoop()
	c.readLoop(r.Context(), h.dispatcher)

	h.hub.LeaveAll(c)
	c.close()
	logger.WithField("conn", c.id).Info("Live connection closed")
}

type wsConn struct {
	id        string
	principal int
	ws        *websocket.Conn
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func newConn(ws *websocket.Conn, principal int) *wsConn {
	return &wsConn{
		id:        uuid.NewString(),
		principal: principal,
		ws:        ws,
		send:      make(chan []byte, sendBuffer),
		done:      make(chan struct{}),
	}
}

func (c *wsConn) ID() string       { return c.id }
func (c *wsConn) PrincipalID() int { return c.principal }

func (c *wsConn) Deliver(f Frame) error {
	b, err := json.Marshal(f)
	if err != nil {
		return err
	}
	select {
	case <-c.done:
		return ErrSubscriberClosed
	default:
	}
	select {
	case c.send <- b:
		return nil
	case <-c.done:
		return ErrSubscriberClosed
	default:
		return ErrSlowSubscriber
	}
}

func (c *wsConn) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.ws.Close()
	})
}

func (c *wsConn) readLoop(ctx context.Context, d *Dispatcher) {
	c.ws.SetReadLimit(maxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, msg, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.WithField("conn", c.id).Warnf("Live connection read failed: %s", err.Error())
			}
			return
		}

		var in Inbound
		if err := json.Unmarshal(msg, &in); err != nil {
			c.reply(0, failure(errMalformedFrame))
			continue
		}
		c.reply(in.Ack, d.Handle(ctx, c, in))
	}
}

func (c *wsConn) reply(ack int64, data any) {
	b, err := json.Marshal(data)
	if err != nil {
		logger.WithField("conn", c.id).Errorf("Failed encoding reply: %s", err.Error())
		return
	}
	if err := c.Deliver(Frame{Event: AckEvent, Ack: ack, Data: b}); err != nil {
		logger.WithField("conn", c.id).Warnf("Dropping reply: %s", err.Error())
	}
}

func (c *wsConn) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case <-c.done:
			return
		case msg := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				logger.WithField("conn", c.id).Warnf("Live connection write failed: %s", err.Error())
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
