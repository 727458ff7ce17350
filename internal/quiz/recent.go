package quiz

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const recentTTL = 2 * time.Hour

// RecentStore remembers which songs a channel heard in its last games so
// back-to-back quizzes avoid repeats. It is optional: a nil store (no
// Redis configured) disables avoidance without affecting play.
type RecentStore struct {
	rdb    *redis.Client
	logger *zap.Logger
}

func NewRecentStore(rdb *redis.Client, logger *zap.Logger) *RecentStore {
	if rdb == nil {
		return nil
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecentStore{rdb: rdb, logger: logger}
}

// Recent returns the set of recently played song ids for the channel.
// Failures degrade to an empty set.
func (r *RecentStore) Recent(ctx context.Context, channelID string) map[string]struct{} {
	if r == nil {
		return nil
	}
	ids, err := r.rdb.SMembers(ctx, r.key(channelID)).Result()
	if err != nil {
		r.logger.Warn("recent songs lookup failed", zap.Error(err))
		return nil
	}
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// Record adds the played songs and refreshes the TTL.
func (r *RecentStore) Record(ctx context.Context, channelID string, songIDs []string) {
	if r == nil || len(songIDs) == 0 {
		return
	}
	key := r.key(channelID)
	members := make([]interface{}, 0, len(songIDs))
	for _, id := range songIDs {
		if strings.TrimSpace(id) != "" {
			members = append(members, id)
		}
	}
	if len(members) == 0 {
		return
	}
	pipe := r.rdb.Pipeline()
	pipe.SAdd(ctx, key, members...)
	pipe.Expire(ctx, key, recentTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		r.logger.Warn("recent songs record failed", zap.Error(err))
	}
}

func (r *RecentStore) key(channelID string) string {
	hash := sha256.Sum256([]byte(strings.TrimSpace(channelID)))
	return "quiz:recent:" + hex.EncodeToString(hash[:])
}
