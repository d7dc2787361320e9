package ws

import "sync"

// Registry is the in-memory mapping from durable user identities to
// live connection handles. It is ephemeral state, rebuilt empty on
// restart, and explicitly constructed so callers decide its lifetime.
//
// At most one connection is held per user: a second registration
// supersedes the first, invalidating its resolvability.
type Registry struct {
	mu     sync.RWMutex
	byUser map[string]Conn
	byConn map[Conn]string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byUser: make(map[string]Conn),
		byConn: make(map[Conn]string),
	}
}

// Register binds conn to userID, last write wins. The superseded
// connection, if any, is returned so the caller can close it.
func (r *Registry) Register(userID string, conn Conn) Conn {
	r.mu.Lock()
	defer r.mu.Unlock()
	// A conn re-registering as a different user gives up its old
	// binding, keeping byUser and byConn a bijection.
	if prevUser, ok := r.byConn[conn]; ok && prevUser != userID {
		if r.byUser[prevUser] == conn {
			delete(r.byUser, prevUser)
		}
	}
	prev := r.byUser[userID]
	if prev == conn {
		return nil
	}
	if prev != nil {
		delete(r.byConn, prev)
	}
	r.byUser[userID] = conn
	r.byConn[conn] = userID
	return prev
}

// Resolve returns the live connection for a user, independent of any
// room membership.
func (r *Registry) Resolve(userID string) (Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conn, ok := r.byUser[userID]
	return conn, ok
}

// Release removes a dying connection by reverse lookup and returns the
// user it belonged to. Releasing an unknown handle is a no-op.
func (r *Registry) Release(conn Conn) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	userID, ok := r.byConn[conn]
	if !ok {
		return "", false
	}
	delete(r.byConn, conn)
	if r.byUser[userID] == conn {
		delete(r.byUser, userID)
	}
	return userID, true
}

// UserFor reports which user owns a connection, if any.
func (r *Registry) UserFor(conn Conn) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	userID, ok := r.byConn[conn]
	return userID, ok
}
