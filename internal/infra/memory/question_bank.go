package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"zuynch-quiz-service/internal/domain"
)

// QuestionBank is an in-memory implementation of app.QuestionBank, used when
// no Postgres is configured and as the fake in tests. Questions live in a
// shared pool plus optional per-room sets; rankings are appended to a slice.
type QuestionBank struct {
	rnd *rand.Rand

	mu       sync.Mutex
	nextID   int64
	pool     []domain.Question
	perRoom  map[string][]domain.Question
	rankings []domain.RankingEntry
}

func NewQuestionBank(seed []domain.Question) *QuestionBank {
	b := &QuestionBank{
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
		nextID:  1,
		perRoom: make(map[string][]domain.Question),
	}
	for _, q := range seed {
		b.assignID(&q)
		b.pool = append(b.pool, q)
	}
	return b
}

// FetchRandom draws up to n distinct questions from the shared pool.
func (b *QuestionBank) FetchRandom(_ context.Context, n int) ([]domain.Question, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	picked := make([]domain.Question, len(b.pool))
	copy(picked, b.pool)
	b.rnd.Shuffle(len(picked), func(i, j int) {
		picked[i], picked[j] = picked[j], picked[i]
	})
	if len(picked) > n {
		picked = picked[:n]
	}
	return picked, nil
}

// FetchForRoom returns the room's dedicated set, falling back to a random
// draw from the shared pool when the room has none.
func (b *QuestionBank) FetchForRoom(ctx context.Context, pin string) ([]domain.Question, error) {
	b.mu.Lock()
	set, ok := b.perRoom[pin]
	if ok {
		out := make([]domain.Question, len(set))
		copy(out, set)
		b.mu.Unlock()
		return out, nil
	}
	b.mu.Unlock()
	return b.FetchRandom(ctx, 10)
}

func (b *QuestionBank) Insert(_ context.Context, q domain.Question) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.assignID(&q)
	b.pool = append(b.pool, q)
	return nil
}

// BulkReplaceForRoom swaps out the room's entire set.
func (b *QuestionBank) BulkReplaceForRoom(_ context.Context, pin string, questions []domain.Question) error {
	set := make([]domain.Question, len(questions))
	copy(set, questions)

	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range set {
		b.assignID(&set[i])
	}
	b.perRoom[pin] = set
	return nil
}

func (b *QuestionBank) RecordRanking(_ context.Context, entries []domain.RankingEntry) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rankings = append(b.rankings, entries...)
	return nil
}

// Rankings exposes the recorded podium rows for tests.
func (b *QuestionBank) Rankings() []domain.RankingEntry {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]domain.RankingEntry, len(b.rankings))
	copy(out, b.rankings)
	return out
}

func (b *QuestionBank) assignID(q *domain.Question) {
	if q.ID == 0 {
		q.ID = b.nextID
		b.nextID++
	}
	if q.Correct == "" {
		q.Correct = domain.OptionA
	}
}
