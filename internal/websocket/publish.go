package websocket

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/stemsi/exstem-results/internal/config"
)

// Publish fans score events out to every stream subscriber via Redis PubSub.
func Publish(ctx context.Context, rdb *redis.Client, events ...ScoreEvent) error {
	if len(events) == 0 {
		return nil
	}
	channel := config.CacheKey.ResultUpdatesChannel()

	pipe := rdb.Pipeline()
	for _, ev := range events {
		payload, err := json.Marshal(ev)
		if err != nil {
			return fmt.Errorf("marshal score event: %w", err)
		}
		pipe.Publish(ctx, channel, payload)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("publish score events: %w", err)
	}
	return nil
}

// Matches reports whether ev belongs on a stream filtered to examID.
func (ev ScoreEvent) Matches(examID string) bool {
	return examID == "" || ev.ExamID == examID
}
