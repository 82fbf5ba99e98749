package app

import (
	"context"
	"log"
	"strings"
	"sync"

	"zuynch-quiz-service/internal/domain"
)

// CrowdQuestionStore persists the audience question queue.
type CrowdQuestionStore interface {
	ListPending(ctx context.Context) ([]domain.CrowdQuestion, error)
	ListApproved(ctx context.Context) ([]domain.CrowdQuestion, error)
	Insert(ctx context.Context, text, author string) (domain.CrowdQuestion, error)
	Upvote(ctx context.Context, id int64) error
	SetStatus(ctx context.Context, id int64, status domain.CrowdStatus) error
}

// ModerationService runs the crowd question queue: audience members post
// questions, moderators approve or archive them, the projector shows the
// approved list. Subscribers span rooms; the queue is event-wide state.
type ModerationService struct {
	store CrowdQuestionStore

	mu         sync.Mutex
	moderators map[chan domain.Event]struct{}
	audience   map[chan domain.Event]struct{}
}

func NewModerationService(store CrowdQuestionStore) *ModerationService {
	return &ModerationService{
		store:      store,
		moderators: make(map[chan domain.Event]struct{}),
		audience:   make(map[chan domain.Event]struct{}),
	}
}

// Subscribe attaches a listener for crowd question events. Moderator
// subscribers additionally receive pending-queue updates.
func (m *ModerationService) Subscribe(moderator bool) (<-chan domain.Event, func()) {
	ch := make(chan domain.Event, 16)

	m.mu.Lock()
	set := m.audience
	if moderator {
		set = m.moderators
	}
	set[ch] = struct{}{}
	m.mu.Unlock()

	cancel := func() {
		m.mu.Lock()
		if _, ok := set[ch]; ok {
			delete(set, ch)
			close(ch)
		}
		m.mu.Unlock()
	}
	return ch, cancel
}

// QueueSnapshot returns the pending and approved lists for a moderator
// console that just connected. Store failures degrade to empty lists.
func (m *ModerationService) QueueSnapshot(ctx context.Context) domain.ModeratorUpdatePayload {
	pending, err := m.store.ListPending(ctx)
	if err != nil {
		log.Printf("crowd queue: pending list failed: %v", err)
	}
	approved, err := m.store.ListApproved(ctx)
	if err != nil {
		log.Printf("crowd queue: approved list failed: %v", err)
	}
	return domain.ModeratorUpdatePayload{Pending: pending, Approved: approved}
}

// Approved returns the public projector list.
func (m *ModerationService) Approved(ctx context.Context) ([]domain.CrowdQuestion, error) {
	return m.store.ListApproved(ctx)
}

// Post stores a new audience question as pending and refreshes moderators.
func (m *ModerationService) Post(ctx context.Context, text, author string) error {
	text = strings.TrimSpace(text)
	if text == "" || author == "" {
		return domain.ErrMissingField
	}
	if _, err := m.store.Insert(ctx, text, author); err != nil {
		return err
	}
	m.notifyModerators(ctx)
	return nil
}

// Upvote bumps an approved question and refreshes both audiences.
func (m *ModerationService) Upvote(ctx context.Context, id int64) error {
	if err := m.store.Upvote(ctx, id); err != nil {
		return err
	}
	m.notifyPublic(ctx)
	m.notifyModerators(ctx)
	return nil
}

// Approve publishes a pending question to the projector list.
func (m *ModerationService) Approve(ctx context.Context, id int64) error {
	if err := m.store.SetStatus(ctx, id, domain.CrowdApproved); err != nil {
		return err
	}
	m.notifyPublic(ctx)
	m.notifyModerators(ctx)
	return nil
}

// Reject archives a pending question; only the moderator view changes.
func (m *ModerationService) Reject(ctx context.Context, id int64) error {
	if err := m.store.SetStatus(ctx, id, domain.CrowdArchived); err != nil {
		return err
	}
	m.notifyModerators(ctx)
	return nil
}

// Archive retires an already-approved question from the projector.
func (m *ModerationService) Archive(ctx context.Context, id int64) error {
	if err := m.store.SetStatus(ctx, id, domain.CrowdArchived); err != nil {
		return err
	}
	m.notifyPublic(ctx)
	m.notifyModerators(ctx)
	return nil
}

// Focus spotlights one question on the projector.
func (m *ModerationService) Focus(id int64) {
	m.broadcast(domain.Event{Type: domain.EventFocusQuestion, Payload: domain.FocusPayload{ID: id}}, false)
}

// Unfocus clears the projector spotlight.
func (m *ModerationService) Unfocus() {
	m.broadcast(domain.Event{Type: domain.EventUnfocusQuestion}, false)
}

func (m *ModerationService) notifyPublic(ctx context.Context) {
	approved, err := m.store.ListApproved(ctx)
	if err != nil {
		log.Printf("crowd queue: approved list failed: %v", err)
		return
	}
	m.broadcast(domain.Event{
		Type:    domain.EventCrowdQuestions,
		Payload: domain.CrowdQuestionsPayload{Questions: approved},
	}, false)
}

func (m *ModerationService) notifyModerators(ctx context.Context) {
	m.broadcast(domain.Event{
		Type:    domain.EventModeratorUpdate,
		Payload: m.QueueSnapshot(ctx),
	}, true)
}

// broadcast fans an event out; moderatorOnly restricts it to the console
// subscribers, otherwise both sets receive it.
func (m *ModerationService) broadcast(ev domain.Event, moderatorOnly bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	send := func(ch chan domain.Event) {
		select {
		case ch <- ev:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- ev
		}
	}
	for ch := range m.moderators {
		send(ch)
	}
	if moderatorOnly {
		return
	}
	for ch := range m.audience {
		send(ch)
	}
}
