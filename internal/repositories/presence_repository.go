package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"relay-service/internal/models"
)

var ErrPresenceNotFound = errors.New("presence record not found")

// PresenceRepository persists one online/offline record per user.
// Updates are last-write-wins by construction.
type PresenceRepository interface {
	SetOnline(ctx context.Context, userID string) (models.OnlineStatus, error)
	SetOffline(ctx context.Context, userID string, lastSeen time.Time) (models.OnlineStatus, error)
	GetStatus(ctx context.Context, userID string) (models.OnlineStatus, error)
}

// PresenceRepo keeps presence in Redis, one hash per user.
type PresenceRepo struct {
	client *redis.Client
}

// NewPresenceRepo constructs a PresenceRepo.
func NewPresenceRepo(client *redis.Client) *PresenceRepo {
	return &PresenceRepo{client: client}
}

func presenceKey(userID string) string {
	return "presence:" + userID
}

// SetOnline flips the record online and clears last_seen.
func (r *PresenceRepo) SetOnline(ctx context.Context, userID string) (models.OnlineStatus, error) {
	if err := r.client.HSet(ctx, presenceKey(userID), "online", "1", "last_seen", "").Err(); err != nil {
		return models.OnlineStatus{}, err
	}
	return models.OnlineStatus{UserID: userID, IsOnline: true}, nil
}

// SetOffline flips the record offline and stamps last_seen.
func (r *PresenceRepo) SetOffline(ctx context.Context, userID string, lastSeen time.Time) (models.OnlineStatus, error) {
	if err := r.client.HSet(ctx, presenceKey(userID), "online", "0", "last_seen", lastSeen.UTC().Format(time.RFC3339Nano)).Err(); err != nil {
		return models.OnlineStatus{}, err
	}
	seen := lastSeen.UTC()
	return models.OnlineStatus{UserID: userID, IsOnline: false, LastSeen: &seen}, nil
}

// GetStatus reads the record back.
func (r *PresenceRepo) GetStatus(ctx context.Context, userID string) (models.OnlineStatus, error) {
	fields, err := r.client.HGetAll(ctx, presenceKey(userID)).Result()
	if err != nil {
		return models.OnlineStatus{}, err
	}
	if len(fields) == 0 {
		return models.OnlineStatus{}, ErrPresenceNotFound
	}

	status := models.OnlineStatus{UserID: userID, IsOnline: fields["online"] == "1"}
	if raw := fields["last_seen"]; raw != "" {
		seen, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return models.OnlineStatus{}, err
		}
		status.LastSeen = &seen
	}
	return status, nil
}
