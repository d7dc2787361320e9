package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"relay-service/internal/observability"
)

// EventHandler consumes the inbound event stream of one connection.
// Implemented by the relay service; defined here so the gateway does
// not depend on it.
type EventHandler interface {
	Register(ctx context.Context, conn Conn, data json.RawMessage)
	JoinRoom(ctx context.Context, conn Conn, data json.RawMessage)
	LeaveRoom(ctx context.Context, conn Conn, data json.RawMessage)
	SendMessage(ctx context.Context, conn Conn, data json.RawMessage)
	UpdateGroup(ctx context.Context, conn Conn, data json.RawMessage)
	UpdateUser(ctx context.Context, conn Conn, data json.RawMessage)
	Typing(ctx context.Context, conn Conn, data json.RawMessage)
	StoppedTyping(ctx context.Context, conn Conn, data json.RawMessage)
	CheckStatus(ctx context.Context, conn Conn, data json.RawMessage)
	Logout(ctx context.Context, conn Conn)
	Disconnect(ctx context.Context, conn Conn)
}

// TokenVerifier authenticates the websocket handshake.
type TokenVerifier interface {
	ValidateToken(token string) (string, error)
}

// Gateway upgrades websocket connections and pumps their events into
// the relay. Each connection's events are handled sequentially by its
// own read loop; one malformed or failing event never stops the loop.
type Gateway struct {
	handler  EventHandler
	verifier TokenVerifier
}

// NewGateway constructs a Gateway.
func NewGateway(handler EventHandler, verifier TokenVerifier) *Gateway {
	return &Gateway{handler: handler, verifier: verifier}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handle upgrades the connection and runs its read loop.
func (g *Gateway) Handle(c *gin.Context) {
	ctx, span := otel.Tracer("relay-service/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	token := c.GetHeader("Authorization")
	if token == "" {
		token = c.Query("token")
		if token != "" {
			token = "Bearer " + token
		}
	}

	userID, err := validateBearer(g.verifier, token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	raw, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	conn := NewSocketConn(raw)

	info := ConnInfo{
		ConnID:      conn.ID(),
		UserID:      userID,
		IP:          observability.IPFromRequest(c.Request),
		RequestID:   observability.RequestIDFromRequest(c.Request),
		TraceID:     span.SpanContext().TraceID().String(),
		ConnectedAt: time.Now(),
	}

	observability.IncWSActive()
	observability.IncWSEvent("ws_connect")
	_ = observability.PublishEvent(ctx, "relay_events.connections", observability.EventEnvelope{
		EventType: "relay_events",
		EventName: "ws_connect",
		Payload:   connPayload(info, "ws_connect", 0, ""),
	}, observability.BuildHeaders(info.RequestID, info.TraceID))

	// net/http cancels the request context as soon as this handler
	// returns, so the read loop gets its own context, keeping only the
	// handshake span and the authenticated identity.
	loopCtx := trace.ContextWithSpanContext(context.Background(), span.SpanContext())
	loopCtx = WithIdentity(loopCtx, userID)
	go g.readLoop(loopCtx, conn, info)
}

func (g *Gateway) readLoop(ctx context.Context, conn Conn, info ConnInfo) {
	sock := conn.(*SocketConn)
	var closeReason string
	defer func() {
		g.handler.Disconnect(ctx, conn)
		conn.Close()
		observability.DecWSActive()
		observability.IncWSEvent("ws_disconnect")
		_ = observability.PublishEvent(ctx, "relay_events.connections", observability.EventEnvelope{
			EventType: "relay_events",
			EventName: "ws_disconnect",
			Payload:   connPayload(info, "ws_disconnect", time.Since(info.ConnectedAt).Milliseconds(), closeReason),
		}, observability.BuildHeaders(info.RequestID, info.TraceID))
	}()

	for {
		_, raw, err := sock.ReadMessage()
		if err != nil {
			closeReason = err.Error()
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				observability.IncWSEvent("ws_error")
			}
			return
		}

		var envelope Envelope
		if err := json.Unmarshal(raw, &envelope); err != nil {
			log.Printf("drop unparseable frame from conn %s: %v", info.ConnID, err)
			observability.IncDroppedEvent("unparseable")
			continue
		}
		g.dispatch(ctx, conn, envelope)
	}
}

func (g *Gateway) dispatch(ctx context.Context, conn Conn, envelope Envelope) {
	switch envelope.Event {
	case "register":
		g.handler.Register(ctx, conn, envelope.Data)
	case "join_room":
		g.handler.JoinRoom(ctx, conn, envelope.Data)
	case "leave_room":
		g.handler.LeaveRoom(ctx, conn, envelope.Data)
	case "send_message":
		g.handler.SendMessage(ctx, conn, envelope.Data)
	case "update_group":
		g.handler.UpdateGroup(ctx, conn, envelope.Data)
	case "update_user":
		g.handler.UpdateUser(ctx, conn, envelope.Data)
	case "typing":
		g.handler.Typing(ctx, conn, envelope.Data)
	case "stopped_typing":
		g.handler.StoppedTyping(ctx, conn, envelope.Data)
	case "check_status":
		g.handler.CheckStatus(ctx, conn, envelope.Data)
	case "logout":
		g.handler.Logout(ctx, conn)
	default:
		log.Printf("drop unknown event %q", envelope.Event)
		observability.IncDroppedEvent("unknown_event")
	}
}

func connPayload(info ConnInfo, event string, durationMS int64, reason string) map[string]any {
	return map[string]any{
		"ws": map[string]any{
			"event":       event,
			"conn_id":     info.ConnID,
			"duration_ms": durationMS,
			"reason":      reason,
		},
		"identity": map[string]any{
			"user_id": info.UserID,
			"ip":      info.IP,
		},
	}
}

func validateBearer(verifier TokenVerifier, header string) (string, error) {
	const prefix = "Bearer "
	if len(header) > len(prefix) && header[:len(prefix)] == prefix {
		return verifier.ValidateToken(header[len(prefix):])
	}
	return "", ErrInvalidToken
}

// ErrInvalidToken rejects malformed Authorization values.
var ErrInvalidToken = errors.New("invalid token")
