package relay

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"relay-service/internal/models"
	"relay-service/internal/observability"
	"relay-service/internal/repositories"
	"relay-service/internal/telemetry"
	"relay-service/internal/validation"
	"relay-service/internal/ws"
)

// Service is the relay core: it binds durable identities to live
// connections, runs the message pipeline and fans events out to
// audiences computed from relationship state. It implements
// ws.EventHandler; each handler isolates its own failures so one bad
// event never affects availability for the rest of the stream.
type Service struct {
	gate     *validation.Gate
	users    repositories.UserRepository
	groups   repositories.GroupRepository
	messages repositories.MessageRepository
	receipts repositories.ReceiptRepository
	presence repositories.PresenceRepository
	registry *ws.Registry
	hub      *ws.Hub
	audit    *telemetry.AuditEmitter
}

// NewService wires the relay. The registry and hub are injected so the
// caller owns their lifetime.
func NewService(
	gate *validation.Gate,
	users repositories.UserRepository,
	groups repositories.GroupRepository,
	messages repositories.MessageRepository,
	receipts repositories.ReceiptRepository,
	presence repositories.PresenceRepository,
	registry *ws.Registry,
	hub *ws.Hub,
	audit *telemetry.AuditEmitter,
) *Service {
	return &Service{
		gate:     gate,
		users:    users,
		groups:   groups,
		messages: messages,
		receipts: receipts,
		presence: presence,
		registry: registry,
		hub:      hub,
		audit:    audit,
	}
}

var _ ws.EventHandler = (*Service)(nil)

// Register binds a user identity to the connection: the stored handle
// is persisted for cross-component lookup, presence flips online and
// the connection gets its own handle back as acknowledgement. A second
// registration for the same user supersedes the first.
func (s *Service) Register(ctx context.Context, conn ws.Conn, data json.RawMessage) {
	var payload validation.RegisterPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		s.drop(ctx, "register", err)
		return
	}
	if err := s.gate.Check(payload); err != nil {
		s.drop(ctx, "register", err)
		return
	}
	// A connection may only register as the identity it authenticated
	// with at the handshake.
	if auth := ws.IdentityFromContext(ctx); auth != "" && auth != payload.UserID {
		s.drop(ctx, "register", errors.New("user id does not match authenticated identity"))
		return
	}

	if _, err := s.users.GetUser(ctx, payload.UserID); err != nil {
		s.drop(ctx, "register", err)
		return
	}

	if err := s.users.SetConnectionID(ctx, payload.UserID, conn.ID()); err != nil {
		s.drop(ctx, "register", err)
		return
	}

	if prev := s.registry.Register(payload.UserID, conn); prev != nil {
		s.hub.Drop(prev)
		prev.Close()
	}

	status, err := s.presence.SetOnline(ctx, payload.UserID)
	if err != nil {
		log.Printf("presence online for %s: %v", payload.UserID, err)
	} else {
		s.fanOutPresence(ctx, status)
	}

	_ = s.hub.Send(conn, models.EventRegistered, conn.ID())
}

// Logout releases the identity binding and force-closes the transport.
func (s *Service) Logout(ctx context.Context, conn ws.Conn) {
	s.release(ctx, conn)
	conn.Close()
}

// Disconnect reconciles state after a transport-level close.
func (s *Service) Disconnect(ctx context.Context, conn ws.Conn) {
	s.release(ctx, conn)
}

// release reverse-looks-up the owning user, clears the stored handle,
// flips presence offline with lastSeen=now and broadcasts the change.
// Releasing an unknown handle is a no-op, not an error.
func (s *Service) release(ctx context.Context, conn ws.Conn) {
	s.hub.Drop(conn)

	userID, ok := s.registry.Release(conn)
	if !ok {
		return
	}

	if err := s.users.ClearConnectionID(ctx, userID); err != nil {
		log.Printf("clear connection for %s: %v", userID, err)
	}

	status, err := s.presence.SetOffline(ctx, userID, time.Now())
	if err != nil {
		log.Printf("presence offline for %s: %v", userID, err)
		return
	}
	s.fanOutPresence(ctx, status)
}

// fanOutPresence notifies the user's interest set: the user's own
// connection plus every contact with a registered connection. Extra
// connections (such as a query's requester) receive the event once
// even when they also appear in the interest set.
func (s *Service) fanOutPresence(ctx context.Context, status models.OnlineStatus, extra ...ws.Conn) {
	targets := make(map[ws.Conn]bool)
	for _, conn := range extra {
		targets[conn] = true
	}
	if conn, ok := s.registry.Resolve(status.UserID); ok {
		targets[conn] = true
	}

	contacts, err := s.users.ContactIDs(ctx, status.UserID)
	if err != nil {
		log.Printf("contacts for %s: %v", status.UserID, err)
	} else {
		for _, contactID := range contacts {
			if conn, ok := s.registry.Resolve(contactID); ok {
				targets[conn] = true
			}
		}
	}

	for conn := range targets {
		_ = s.hub.Send(conn, models.EventPresence, status)
	}
}

// drop logs and counts a rejected event. The socket channel has no
// reply for these: the event simply never happened.
func (s *Service) drop(ctx context.Context, event string, err error) {
	log.Printf("drop %s event: %v", event, err)
	observability.IncDroppedEvent(event)
	s.audit.Emit(ctx, "WARN", event+" dropped: "+err.Error(), "", nil)
}
