// Package gateway carries the websocket side of the API: one connection per
// client, explicit init/subscribe/unsubscribe frames, and a stream of
// message events per subscribed chat.
package gateway

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"chat-relay/auth"
	"chat-relay/bus"
	"chat-relay/domain"
	"chat-relay/errors"
	"chat-relay/observability"
	"chat-relay/services"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	maxFrameSize = 4096
)

// Client frame types.
const (
	FrameInit        = "init"
	FrameSubscribe   = "subscribe"
	FrameUnsubscribe = "unsubscribe"
)

// Server frame types.
const (
	FrameReady        = "ready"
	FrameSubscribed   = "subscribed"
	FrameUnsubscribed = "unsubscribed"
	FrameMessage      = "message"
	FrameError        = "error"
)

// Error codes carried on error frames. They mirror the HTTP error taxonomy.
const (
	CodeAuthentication = "AuthenticationError"
	CodeForbidden      = "ForbiddenError"
	CodeNotFound       = "NotFoundError"
	CodeValidation     = "ValidationError"
	CodeInternal       = "InternalError"
)

// Frame is the single envelope exchanged in both directions.
type Frame struct {
	Type   string               `json:"type"`
	ChatID string               `json:"chatId,omitempty"`
	Params map[string]any       `json:"params,omitempty"`
	Code   string               `json:"code,omitempty"`
	Error  string               `json:"error,omitempty"`
	Event  *domain.MessageEvent `json:"event,omitempty"`
}

type Gateway struct {
	upgrader websocket.Upgrader
	tokens   *auth.TokenService
	guard    services.IGuard
	events   *bus.Bus[domain.MessageEvent]
	metrics  *observability.Metrics
	log      *slog.Logger
}

func New(tokens *auth.TokenService, guard services.IGuard, events *bus.Bus[domain.MessageEvent],
	metrics *observability.Metrics, log *slog.Logger) *Gateway {
	return &Gateway{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		tokens:  tokens,
		guard:   guard,
		events:  events,
		metrics: metrics,
		log:     log,
	}
}

// connection is the per-socket state. Only the read loop touches subs; the
// writer goroutine owns all writes to the wire.
type connection struct {
	ws      *websocket.Conn
	ctx     context.Context
	session Session
	send    chan Frame
	subs    map[string]*bus.Subscription[domain.MessageEvent]
	pumps   sync.WaitGroup
}

// ServeHTTP upgrades the request and runs the connection until the client
// goes away. An unauthenticated handshake still gets a connection; it just
// cannot subscribe to anything.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.log.Warn("websocket upgrade failed", "err", err)
		return
	}

	// Tokens may arrive in the query string or in a later init frame.
	params := make(map[string]any)
	for key, values := range r.URL.Query() {
		if len(values) > 0 {
			params[key] = values[0]
		}
	}

	conn := &connection{
		ws:      ws,
		ctx:     r.Context(),
		session: NewSession(g.tokens, params),
		send:    make(chan Frame, 32),
		subs:    make(map[string]*bus.Subscription[domain.MessageEvent]),
	}

	g.metrics.ConnectionOpened()
	defer g.metrics.ConnectionClosed()

	var writer sync.WaitGroup
	writer.Add(1)
	go func() {
		defer writer.Done()
		g.writeLoop(conn)
	}()

	g.readLoop(conn)

	// Tear down in order: stop every event pump, then release the writer.
	for chatID := range conn.subs {
		g.dropSubscription(conn, chatID)
	}
	conn.pumps.Wait()
	close(conn.send)
	writer.Wait()
}

func (g *Gateway) readLoop(conn *connection) {
	conn.ws.SetReadLimit(maxFrameSize)
	_ = conn.ws.SetReadDeadline(time.Now().Add(pongWait))
	conn.ws.SetPongHandler(func(string) error {
		return conn.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := conn.ws.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				g.log.Debug("websocket read ended", "err", err)
			}
			return
		}

		var frame Frame
		if err := json.Unmarshal(raw, &frame); err != nil {
			conn.send <- errorFrame(CodeValidation, "malformed frame", "")
			continue
		}
		g.handleFrame(conn, frame)
	}
}

func (g *Gateway) handleFrame(conn *connection, frame Frame) {
	switch frame.Type {
	case FrameInit:
		// A connection that came in anonymous can still authenticate once.
		if !conn.session.Authenticated {
			conn.session = NewSession(g.tokens, frame.Params)
		}
		conn.send <- Frame{Type: FrameReady}

	case FrameSubscribe:
		g.subscribe(conn, frame.ChatID)

	case FrameUnsubscribe:
		g.dropSubscription(conn, frame.ChatID)
		conn.send <- Frame{Type: FrameUnsubscribed, ChatID: frame.ChatID}

	default:
		conn.send <- errorFrame(CodeValidation, "unknown frame type", "")
	}
}

func (g *Gateway) subscribe(conn *connection, chatID string) {
	if chatID == "" {
		conn.send <- errorFrame(CodeValidation, "chatId is required", "")
		return
	}
	if !conn.session.Authenticated {
		conn.send <- errorFrame(CodeAuthentication, "authentication required", chatID)
		return
	}
	if _, ok := conn.subs[chatID]; ok {
		// Already streaming this chat; subscribing twice is a no-op.
		conn.send <- Frame{Type: FrameSubscribed, ChatID: chatID}
		return
	}

	member, err := g.guard.IsParticipant(conn.ctx, conn.session.UserID, chatID)
	if err != nil {
		// Only a missing chat is the client's business; store failures
		// stay opaque.
		if stderrors.Is(err, errors.ErrNotFound) {
			conn.send <- errorFrame(CodeNotFound, "chat not found", chatID)
			return
		}
		g.log.Error("membership check failed", "chat", chatID, "err", err)
		conn.send <- errorFrame(CodeInternal, "internal error", chatID)
		return
	}
	if !member {
		conn.send <- errorFrame(CodeForbidden, "not a participant of this chat", chatID)
		return
	}

	sub := g.events.Subscribe(domain.ChatTopic(chatID))
	conn.subs[chatID] = sub
	g.metrics.SubscriptionOpened()

	conn.pumps.Add(1)
	go func() {
		defer conn.pumps.Done()
		for event := range sub.Events() {
			conn.send <- Frame{Type: FrameMessage, ChatID: chatID, Event: &event}
			g.metrics.IncrEventsDelivered()
		}
	}()

	conn.send <- Frame{Type: FrameSubscribed, ChatID: chatID}
	g.log.Info("subscription opened", "chat", chatID, "user", conn.session.UserID)
}

// dropSubscription is idempotent. Unsubscribing closes the event channel,
// which ends the pump goroutine feeding this chat.
func (g *Gateway) dropSubscription(conn *connection, chatID string) {
	sub, ok := conn.subs[chatID]
	if !ok {
		return
	}
	delete(conn.subs, chatID)
	g.events.Unsubscribe(sub)
	g.metrics.SubscriptionClosed()
}

func (g *Gateway) writeLoop(conn *connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.ws.Close()
	}()

	for {
		select {
		case frame, ok := <-conn.send:
			_ = conn.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.ws.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := conn.ws.WriteJSON(frame); err != nil {
				drain(conn.send)
				return
			}

		case <-ticker.C:
			_ = conn.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				drain(conn.send)
				return
			}
		}
	}
}

// drain keeps consuming frames after a write failure so the read loop and
// the event pumps never block on a dead connection's send channel.
func drain(send <-chan Frame) {
	for range send {
	}
}

func errorFrame(code, message, chatID string) Frame {
	return Frame{Type: FrameError, Code: code, Error: message, ChatID: chatID}
}
