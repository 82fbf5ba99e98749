package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"zuynch-quiz-service/internal/app"
	"zuynch-quiz-service/internal/domain"
)

// QuestionBank caches per-room question sets in Redis in front of a slower
// backing bank (Postgres). Sets are stored as JSON under room:{pin}:questions
// with a jittered TTL; cache misses are collapsed through singleflight so a
// room full of simultaneous joins loads its set once. Writes pass through and
// invalidate the affected key.
type QuestionBank struct {
	client  *redis.Client
	backing app.QuestionBank
	ttl     time.Duration
	sf      singleflight.Group
	rnd     *rand.Rand
}

func NewQuestionBank(client *redis.Client, backing app.QuestionBank, ttl time.Duration) *QuestionBank {
	return &QuestionBank{
		client:  client,
		backing: backing,
		ttl:     ttl,
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (b *QuestionBank) FetchRandom(ctx context.Context, n int) ([]domain.Question, error) {
	// Random draws are never cached; each call should see a fresh shuffle.
	return b.backing.FetchRandom(ctx, n)
}

func (b *QuestionBank) FetchForRoom(ctx context.Context, pin string) ([]domain.Question, error) {
	key := b.key(pin)

	if cached, ok := b.fromCache(ctx, key); ok {
		return cached, nil
	}

	result, err, _ := b.sf.Do(pin, func() (interface{}, error) {
		// Re-check in case another goroutine filled the key meanwhile.
		if cached, ok := b.fromCache(ctx, key); ok {
			return cached, nil
		}

		questions, err := b.backing.FetchForRoom(ctx, pin)
		if err != nil {
			return nil, err
		}
		if raw, err := json.Marshal(questions); err == nil {
			_ = b.client.Set(ctx, key, raw, b.ttlWithJitter()).Err()
		}
		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

func (b *QuestionBank) Insert(ctx context.Context, q domain.Question) error {
	return b.backing.Insert(ctx, q)
}

func (b *QuestionBank) BulkReplaceForRoom(ctx context.Context, pin string, questions []domain.Question) error {
	if err := b.backing.BulkReplaceForRoom(ctx, pin, questions); err != nil {
		return err
	}
	_ = b.client.Del(ctx, b.key(pin)).Err()
	return nil
}

func (b *QuestionBank) RecordRanking(ctx context.Context, entries []domain.RankingEntry) error {
	return b.backing.RecordRanking(ctx, entries)
}

func (b *QuestionBank) fromCache(ctx context.Context, key string) ([]domain.Question, bool) {
	raw, err := b.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	var questions []domain.Question
	if err := json.Unmarshal(raw, &questions); err != nil {
		return nil, false
	}
	return questions, true
}

func (b *QuestionBank) key(pin string) string {
	return "room:" + pin + ":questions"
}

func (b *QuestionBank) ttlWithJitter() time.Duration {
	if b.ttl <= 0 {
		return 0
	}
	// up to 10% jitter to spread expirations
	jitterMax := int64(b.ttl) / 10
	return b.ttl + time.Duration(b.rnd.Int63n(jitterMax+1))
}
