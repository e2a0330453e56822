package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	onlineUsersKey = "online_users"
	userStatusKey  = "user:%s:status"

	// statusTTL bounds how stale a crashed instance can leave a user's
	// status entry.
	statusTTL = 24 * time.Hour
)

// PresenceService mirrors per-user online status into Redis so sibling
// services can answer "is this user reachable" without asking the gateway.
type PresenceService struct {
	client *redis.Client
}

func NewPresenceService(client *redis.Client) *PresenceService {
	return &PresenceService{client: client}
}

// SetOnline marks the user online. Called when a user's first connection
// authenticates.
func (s *PresenceService) SetOnline(ctx context.Context, userID string) error {
	statusKey := fmt.Sprintf(userStatusKey, userID)

	pipe := s.client.Pipeline()
	pipe.SAdd(ctx, onlineUsersKey, userID)
	pipe.HSet(ctx, statusKey, map[string]interface{}{
		"status":    "online",
		"last_seen": time.Now().Unix(),
	})
	pipe.Expire(ctx, statusKey, statusTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to set user %s online: %w", userID, err)
	}

	slog.Debug("user marked online", "userID", userID)
	return nil
}

// SetOffline marks the user offline. Called when a user's last connection
// closes.
func (s *PresenceService) SetOffline(ctx context.Context, userID string) error {
	statusKey := fmt.Sprintf(userStatusKey, userID)

	pipe := s.client.Pipeline()
	pipe.SRem(ctx, onlineUsersKey, userID)
	pipe.HSet(ctx, statusKey, map[string]interface{}{
		"status":    "offline",
		"last_seen": time.Now().Unix(),
	})
	pipe.Expire(ctx, statusKey, statusTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to set user %s offline: %w", userID, err)
	}

	slog.Debug("user marked offline", "userID", userID)
	return nil
}

// OnlineUsers returns the cluster-wide set of online user ids.
func (s *PresenceService) OnlineUsers(ctx context.Context) ([]string, error) {
	users, err := s.client.SMembers(ctx, onlineUsersKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list online users: %w", err)
	}
	return users, nil
}

// IsOnline reports whether the user has a live connection on any instance.
func (s *PresenceService) IsOnline(ctx context.Context, userID string) (bool, error) {
	online, err := s.client.SIsMember(ctx, onlineUsersKey, userID).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check user %s presence: %w", userID, err)
	}
	return online, nil
}
