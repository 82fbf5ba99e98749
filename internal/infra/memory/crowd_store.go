package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"zuynch-quiz-service/internal/domain"
)

// CrowdStore is an in-memory implementation of app.CrowdQuestionStore.
type CrowdStore struct {
	mu        sync.Mutex
	nextID    int64
	questions map[int64]*domain.CrowdQuestion
	now       func() time.Time
}

func NewCrowdStore() *CrowdStore {
	return &CrowdStore{
		nextID:    1,
		questions: make(map[int64]*domain.CrowdQuestion),
		now:       time.Now,
	}
}

func (s *CrowdStore) ListPending(_ context.Context) ([]domain.CrowdQuestion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.filterLocked(domain.CrowdPending)
	// Newest first.
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *CrowdStore) ListApproved(_ context.Context) ([]domain.CrowdQuestion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.filterLocked(domain.CrowdApproved)
	// Most upvoted first, then newest.
	sort.Slice(out, func(i, j int) bool {
		if out[i].Upvotes != out[j].Upvotes {
			return out[i].Upvotes > out[j].Upvotes
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *CrowdStore) Insert(_ context.Context, text, author string) (domain.CrowdQuestion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q := &domain.CrowdQuestion{
		ID:        s.nextID,
		Text:      text,
		Author:    author,
		Status:    domain.CrowdPending,
		CreatedAt: s.now(),
	}
	s.nextID++
	s.questions[q.ID] = q
	return *q, nil
}

func (s *CrowdStore) Upvote(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if q, ok := s.questions[id]; ok {
		q.Upvotes++
	}
	return nil
}

func (s *CrowdStore) SetStatus(_ context.Context, id int64, status domain.CrowdStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if q, ok := s.questions[id]; ok {
		q.Status = status
	}
	return nil
}

func (s *CrowdStore) filterLocked(status domain.CrowdStatus) []domain.CrowdQuestion {
	out := make([]domain.CrowdQuestion, 0, len(s.questions))
	for _, q := range s.questions {
		if q.Status == status {
			out = append(out, *q)
		}
	}
	return out
}
