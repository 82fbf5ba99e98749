package app_test

import (
	"context"
	"errors"
	"testing"

	"zuynch-quiz-service/internal/app"
	"zuynch-quiz-service/internal/domain"
	"zuynch-quiz-service/internal/infra/memory"
)

func newModeration() *app.ModerationService {
	return app.NewModerationService(memory.NewCrowdStore())
}

func TestPostNotifiesModeratorsOnly(t *testing.T) {
	ctx := context.Background()
	svc := newModeration()

	modCh, modCancel := svc.Subscribe(true)
	defer modCancel()
	audCh, audCancel := svc.Subscribe(false)
	defer audCancel()

	if err := svc.Post(ctx, "What is the roadmap?", "Ana"); err != nil {
		t.Fatalf("post: %v", err)
	}

	modEvents := drain(modCh)
	ev, ok := lastOfType(modEvents, domain.EventModeratorUpdate)
	if !ok {
		t.Fatalf("expected moderator update, got %+v", modEvents)
	}
	snapshot := ev.Payload.(domain.ModeratorUpdatePayload)
	if len(snapshot.Pending) != 1 || snapshot.Pending[0].Text != "What is the roadmap?" {
		t.Fatalf("unexpected pending queue %+v", snapshot.Pending)
	}
	if got := drain(audCh); len(got) != 0 {
		t.Fatalf("audience must not see pending posts, got %+v", got)
	}
}

func TestPostValidation(t *testing.T) {
	ctx := context.Background()
	svc := newModeration()
	if err := svc.Post(ctx, "   ", "Ana"); !errors.Is(err, domain.ErrMissingField) {
		t.Fatalf("expected blank-text rejection, got %v", err)
	}
	if err := svc.Post(ctx, "hello", ""); !errors.Is(err, domain.ErrMissingField) {
		t.Fatalf("expected missing-author rejection, got %v", err)
	}
}

func TestApproveReachesAudience(t *testing.T) {
	ctx := context.Background()
	svc := newModeration()
	if err := svc.Post(ctx, "Q one", "Ana"); err != nil {
		t.Fatalf("post: %v", err)
	}

	audCh, audCancel := svc.Subscribe(false)
	defer audCancel()

	pending := svc.QueueSnapshot(ctx).Pending
	if len(pending) != 1 {
		t.Fatalf("expected one pending question, got %+v", pending)
	}
	if err := svc.Approve(ctx, pending[0].ID); err != nil {
		t.Fatalf("approve: %v", err)
	}

	ev, ok := lastOfType(drain(audCh), domain.EventCrowdQuestions)
	if !ok {
		t.Fatalf("expected crowd-questions update for the audience")
	}
	list := ev.Payload.(domain.CrowdQuestionsPayload).Questions
	if len(list) != 1 || list[0].Status != domain.CrowdApproved {
		t.Fatalf("unexpected projector list %+v", list)
	}
}

func TestRejectStaysModeratorSide(t *testing.T) {
	ctx := context.Background()
	svc := newModeration()
	if err := svc.Post(ctx, "Q one", "Ana"); err != nil {
		t.Fatalf("post: %v", err)
	}
	id := svc.QueueSnapshot(ctx).Pending[0].ID

	audCh, audCancel := svc.Subscribe(false)
	defer audCancel()

	if err := svc.Reject(ctx, id); err != nil {
		t.Fatalf("reject: %v", err)
	}
	if got := drain(audCh); len(got) != 0 {
		t.Fatalf("rejection must not reach the audience, got %+v", got)
	}
	snapshot := svc.QueueSnapshot(ctx)
	if len(snapshot.Pending) != 0 || len(snapshot.Approved) != 0 {
		t.Fatalf("rejected question must leave both queues, got %+v", snapshot)
	}
}

func TestUpvoteReordersProjectorList(t *testing.T) {
	ctx := context.Background()
	svc := newModeration()
	for _, text := range []string{"first", "second"} {
		if err := svc.Post(ctx, text, "Ana"); err != nil {
			t.Fatalf("post: %v", err)
		}
	}
	snapshot := svc.QueueSnapshot(ctx)
	for _, q := range snapshot.Pending {
		if err := svc.Approve(ctx, q.ID); err != nil {
			t.Fatalf("approve: %v", err)
		}
	}

	var firstID int64
	approved, err := svc.Approved(ctx)
	if err != nil {
		t.Fatalf("approved: %v", err)
	}
	for _, q := range approved {
		if q.Text == "first" {
			firstID = q.ID
		}
	}
	if err := svc.Upvote(ctx, firstID); err != nil {
		t.Fatalf("upvote: %v", err)
	}

	approved, err = svc.Approved(ctx)
	if err != nil {
		t.Fatalf("approved: %v", err)
	}
	if approved[0].Text != "first" || approved[0].Upvotes != 1 {
		t.Fatalf("expected upvoted question on top, got %+v", approved)
	}
}

func TestArchiveRemovesFromProjector(t *testing.T) {
	ctx := context.Background()
	svc := newModeration()
	if err := svc.Post(ctx, "Q one", "Ana"); err != nil {
		t.Fatalf("post: %v", err)
	}
	id := svc.QueueSnapshot(ctx).Pending[0].ID
	if err := svc.Approve(ctx, id); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if err := svc.Archive(ctx, id); err != nil {
		t.Fatalf("archive: %v", err)
	}
	approved, err := svc.Approved(ctx)
	if err != nil {
		t.Fatalf("approved: %v", err)
	}
	if len(approved) != 0 {
		t.Fatalf("archived question must leave the projector, got %+v", approved)
	}
}

func TestFocusBroadcast(t *testing.T) {
	svc := newModeration()
	audCh, audCancel := svc.Subscribe(false)
	defer audCancel()

	svc.Focus(7)
	ev, ok := lastOfType(drain(audCh), domain.EventFocusQuestion)
	if !ok {
		t.Fatalf("expected focus event")
	}
	if ev.Payload.(domain.FocusPayload).ID != 7 {
		t.Fatalf("unexpected focus payload %+v", ev.Payload)
	}

	svc.Unfocus()
	if _, ok := lastOfType(drain(audCh), domain.EventUnfocusQuestion); !ok {
		t.Fatalf("expected unfocus event")
	}
}
