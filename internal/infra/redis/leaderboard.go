package redis

import (
	"context"

	"github.com/redis/go-redis/v9"

	"zuynch-quiz-service/internal/app"
)

// Leaderboard mirrors per-room scores into a Redis sorted set so external
// consumers (projector overlays, the REST leaderboard endpoint) can read
// rankings without touching room state. Implements app.ScoreMirror and
// app.LeaderboardReader.
type Leaderboard struct {
	client *redis.Client
}

func NewLeaderboard(client *redis.Client) *Leaderboard {
	return &Leaderboard{client: client}
}

func (l *Leaderboard) UpdateScore(ctx context.Context, pin, username string, score int) error {
	return l.client.ZAdd(ctx, l.key(pin), redis.Z{
		Score:  float64(score),
		Member: username,
	}).Err()
}

func (l *Leaderboard) RemoveRoom(ctx context.Context, pin string) error {
	return l.client.Del(ctx, l.key(pin)).Err()
}

// Top returns the highest-scored members of a room, rank starting at 1.
func (l *Leaderboard) Top(ctx context.Context, pin string, limit int) ([]app.RankedEntry, error) {
	results, err := l.client.ZRevRangeWithScores(ctx, l.key(pin), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}
	entries := make([]app.RankedEntry, len(results))
	for i, z := range results {
		entries[i] = app.RankedEntry{
			Username: z.Member.(string),
			Score:    int(z.Score),
			Rank:     i + 1,
		}
	}
	return entries, nil
}

func (l *Leaderboard) key(pin string) string {
	return "room:" + pin + ":lb"
}
