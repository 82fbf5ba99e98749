package app_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"zuynch-quiz-service/internal/app"
	"zuynch-quiz-service/internal/domain"
	"zuynch-quiz-service/internal/infra/memory"
)

// fakeClock lets tests advance room time by hand.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 1, 15, 20, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// clockRooms is an app.RoomRepository that builds rooms on the fake clock.
type clockRooms struct {
	now   func() time.Time
	mu    sync.Mutex
	rooms map[string]*app.Room
}

func newClockRooms(now func() time.Time) *clockRooms {
	return &clockRooms{now: now, rooms: make(map[string]*app.Room)}
}

func (s *clockRooms) GetOrCreate(pin string) (*app.Room, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if room, ok := s.rooms[pin]; ok {
		return room, false
	}
	room := app.NewRoomWithClock(pin, s.now)
	s.rooms[pin] = room
	return room, true
}

func (s *clockRooms) Get(pin string) (*app.Room, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[pin]
	return room, ok
}

func (s *clockRooms) DeleteIfEmpty(pin string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if room, ok := s.rooms[pin]; ok && room.IsEmpty() {
		delete(s.rooms, pin)
	}
}

func (s *clockRooms) ForEach(fn func(room *app.Room)) {
	s.mu.Lock()
	rooms := make([]*app.Room, 0, len(s.rooms))
	for _, room := range s.rooms {
		rooms = append(rooms, room)
	}
	s.mu.Unlock()
	for _, room := range rooms {
		fn(room)
	}
}

// timerQueue captures deferred transitions so tests fire them by hand.
type timerQueue struct {
	mu  sync.Mutex
	fns []func()
}

func (q *timerQueue) after(_ time.Duration, fn func()) {
	q.mu.Lock()
	q.fns = append(q.fns, fn)
	q.mu.Unlock()
}

func (q *timerQueue) fireAll() {
	q.mu.Lock()
	fns := q.fns
	q.fns = nil
	q.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

func (q *timerQueue) fireOldest() {
	q.mu.Lock()
	var fn func()
	if len(q.fns) > 0 {
		fn = q.fns[0]
		q.fns = q.fns[1:]
	}
	q.mu.Unlock()
	if fn != nil {
		fn()
	}
}

type fixture struct {
	clock  *fakeClock
	timers *timerQueue
	bank   *memory.QuestionBank
	svc    *app.GameService
}

func newFixture(t *testing.T, roomQuestions map[string][]domain.Question) *fixture {
	t.Helper()
	clock := newFakeClock()
	timers := &timerQueue{}
	bank := memory.NewQuestionBank(nil)
	for pin, qs := range roomQuestions {
		if err := bank.BulkReplaceForRoom(context.Background(), pin, qs); err != nil {
			t.Fatalf("seed questions: %v", err)
		}
	}
	svc := app.NewGameServiceWithScheduler(newClockRooms(clock.Now), bank, nil, app.Options{}, timers.after)
	return &fixture{clock: clock, timers: timers, bank: bank, svc: svc}
}

func twoQuestions() []domain.Question {
	return []domain.Question{
		{Text: "Q1", OptionA: "a", OptionB: "b", OptionC: "c", OptionD: "d", Correct: domain.OptionA, TimeLimitSec: 15},
		{Text: "Q2", OptionA: "a", OptionB: "b", OptionC: "c", OptionD: "d", Correct: domain.OptionB, TimeLimitSec: 15},
	}
}

func drain(ch <-chan domain.Event) []domain.Event {
	var events []domain.Event
	for {
		select {
		case ev := <-ch:
			events = append(events, ev)
		default:
			return events
		}
	}
}

func lastOfType(events []domain.Event, typ domain.EventType) (domain.Event, bool) {
	for i := len(events) - 1; i >= 0; i-- {
		if events[i].Type == typ {
			return events[i], true
		}
	}
	return domain.Event{}, false
}

func TestFullRoundScenario(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, map[string][]domain.Question{"1234": twoQuestions()})

	if _, err := f.svc.Join(ctx, "1234", "Ana", "conn-ana"); err != nil {
		t.Fatalf("join: %v", err)
	}
	events, cancel, err := f.svc.Subscribe("1234")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer cancel()

	if err := f.svc.LaunchQuestion(ctx, "1234"); err != nil {
		t.Fatalf("launch: %v", err)
	}
	got := drain(events)
	qEv, ok := lastOfType(got, domain.EventNewQuestion)
	if !ok {
		t.Fatalf("expected new-question event, got %+v", got)
	}
	qPayload := qEv.Payload.(domain.NewQuestionPayload)
	if qPayload.Position != 1 || qPayload.Total != 2 || qPayload.Question.Text != "Q1" {
		t.Fatalf("unexpected question payload %+v", qPayload)
	}

	f.clock.Advance(5 * time.Second)
	ack, err := f.svc.SubmitAnswer(ctx, "1234", "conn-ana", true)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if ack.Points != 200 || ack.TotalScore != 200 || ack.CoinsDelta != 10 || ack.Streak != 1 {
		t.Fatalf("unexpected ack %+v", ack)
	}

	if err := f.svc.RevealWinner("1234"); err != nil {
		t.Fatalf("reveal: %v", err)
	}
	got = drain(events)
	wEv, ok := lastOfType(got, domain.EventRoundWinner)
	if !ok {
		t.Fatalf("expected round-winner event")
	}
	winner := wEv.Payload.(domain.RoundWinnerPayload)
	if winner.Username != "Ana" || winner.Seconds != "5.00" {
		t.Fatalf("unexpected winner %+v", winner)
	}

	// Second launch serves Q2; third wraps back to Q1.
	for i, wantPos := range []int{2, 1} {
		if err := f.svc.LaunchQuestion(ctx, "1234"); err != nil {
			t.Fatalf("launch %d: %v", i+2, err)
		}
		qEv, ok := lastOfType(drain(events), domain.EventNewQuestion)
		if !ok {
			t.Fatalf("expected new-question on launch %d", i+2)
		}
		if pos := qEv.Payload.(domain.NewQuestionPayload).Position; pos != wantPos {
			t.Fatalf("launch %d position = %d, want %d", i+2, pos, wantPos)
		}
	}

	ranked, err := f.svc.ShowPodium(ctx, "1234")
	if err != nil {
		t.Fatalf("podium: %v", err)
	}
	if len(ranked) != 1 || ranked[0].Username != "Ana" || ranked[0].Score != 200 {
		t.Fatalf("unexpected podium %+v", ranked)
	}
	if rows := f.bank.Rankings(); len(rows) != 1 || rows[0].Username != "Ana" {
		t.Fatalf("expected persisted ranking for Ana, got %+v", rows)
	}
}

func TestDuplicateAnswerRejected(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, map[string][]domain.Question{"1234": twoQuestions()})

	if _, err := f.svc.Join(ctx, "1234", "Ana", "conn-ana"); err != nil {
		t.Fatalf("join: %v", err)
	}
	if err := f.svc.LaunchQuestion(ctx, "1234"); err != nil {
		t.Fatalf("launch: %v", err)
	}
	if _, err := f.svc.SubmitAnswer(ctx, "1234", "conn-ana", true); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if _, err := f.svc.SubmitAnswer(ctx, "1234", "conn-ana", true); !errors.Is(err, domain.ErrAlreadyAnswered) {
		t.Fatalf("expected duplicate rejection, got %v", err)
	}

	roster, err := f.svc.Roster("1234")
	if err != nil {
		t.Fatalf("roster: %v", err)
	}
	if roster[0].Score != 250 || roster[0].Coins != 10 {
		t.Fatalf("duplicate must not change score, got %+v", roster[0])
	}
}

func TestAnswerOutsideRound(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, map[string][]domain.Question{"1234": twoQuestions()})

	if _, err := f.svc.Join(ctx, "1234", "Ana", "conn-ana"); err != nil {
		t.Fatalf("join: %v", err)
	}
	if _, err := f.svc.SubmitAnswer(ctx, "1234", "conn-ana", true); !errors.Is(err, domain.ErrRoundNotActive) {
		t.Fatalf("expected no-round rejection, got %v", err)
	}

	if err := f.svc.LaunchQuestion(ctx, "1234"); err != nil {
		t.Fatalf("launch: %v", err)
	}
	f.timers.fireAll() // round timeout
	if _, err := f.svc.SubmitAnswer(ctx, "1234", "conn-ana", true); !errors.Is(err, domain.ErrRoundNotActive) {
		t.Fatalf("expected closed-round rejection, got %v", err)
	}
}

func TestStaleTimerDoesNotCloseNewerRound(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, map[string][]domain.Question{"1234": twoQuestions()})

	if _, err := f.svc.Join(ctx, "1234", "Ana", "conn-ana"); err != nil {
		t.Fatalf("join: %v", err)
	}
	events, cancel, err := f.svc.Subscribe("1234")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer cancel()

	if err := f.svc.LaunchQuestion(ctx, "1234"); err != nil {
		t.Fatalf("launch 1: %v", err)
	}
	if err := f.svc.LaunchQuestion(ctx, "1234"); err != nil {
		t.Fatalf("launch 2: %v", err)
	}
	drain(events)

	// First round's timer fires after being superseded: no timeout broadcast,
	// and the second round still accepts answers.
	f.timers.fireOldest()
	if _, ok := lastOfType(drain(events), domain.EventRoundTimeout); ok {
		t.Fatalf("stale timer must not broadcast a timeout")
	}
	if _, err := f.svc.SubmitAnswer(ctx, "1234", "conn-ana", true); err != nil {
		t.Fatalf("submit on live round: %v", err)
	}

	f.timers.fireOldest()
	if _, ok := lastOfType(drain(events), domain.EventRoundTimeout); !ok {
		t.Fatalf("expected timeout from the live round's own timer")
	}
}

func TestLaunchWithEmptyQuestionSet(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil) // bank has nothing for any room

	if _, err := f.svc.Join(ctx, "9999", "Ana", "conn-ana"); err != nil {
		t.Fatalf("join: %v", err)
	}
	events, cancel, err := f.svc.Subscribe("9999")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer cancel()

	if err := f.svc.LaunchQuestion(ctx, "9999"); !errors.Is(err, domain.ErrNoQuestions) {
		t.Fatalf("expected empty-set error, got %v", err)
	}
	if _, ok := lastOfType(drain(events), domain.EventError); !ok {
		t.Fatalf("expected room-scoped error event")
	}
}

// earnCoins runs enough instant-correct rounds to stock up the given coins.
func earnCoins(t *testing.T, f *fixture, pin, connID string, coins int) {
	t.Helper()
	ctx := context.Background()
	for earned := 0; earned < coins; earned += 10 {
		if err := f.svc.LaunchQuestion(ctx, pin); err != nil {
			t.Fatalf("launch: %v", err)
		}
		if _, err := f.svc.SubmitAnswer(ctx, pin, connID, true); err != nil {
			t.Fatalf("submit: %v", err)
		}
		f.timers.fireAll()
	}
}

func TestFreezePowerRequiresCoins(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, map[string][]domain.Question{"1234": twoQuestions()})

	if _, err := f.svc.Join(ctx, "1234", "Ana", "conn-ana"); err != nil {
		t.Fatalf("join: %v", err)
	}
	if _, err := f.svc.Join(ctx, "1234", "Bob", "conn-bob"); err != nil {
		t.Fatalf("join: %v", err)
	}

	earnCoins(t, f, "1234", "conn-ana", 40)
	if err := f.svc.UsePower(ctx, "1234", "conn-ana", "freeze-leader"); !errors.Is(err, domain.ErrInsufficientCoins) {
		t.Fatalf("expected insufficient coins, got %v", err)
	}
	roster, _ := f.svc.Roster("1234")
	for _, p := range roster {
		if p.IsFrozen {
			t.Fatalf("nobody may be frozen after a rejected power, got %+v", roster)
		}
		if p.Username == "Ana" && p.Coins != 40 {
			t.Fatalf("rejected power must not debit coins, got %+v", p)
		}
	}
}

func TestFreezePowerLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, map[string][]domain.Question{"1234": twoQuestions()})

	if _, err := f.svc.Join(ctx, "1234", "Ana", "conn-ana"); err != nil {
		t.Fatalf("join: %v", err)
	}

	earnCoins(t, f, "1234", "conn-ana", 50)
	// Alone in the room: no valid target.
	if err := f.svc.UsePower(ctx, "1234", "conn-ana", "freeze-leader"); !errors.Is(err, domain.ErrNoPowerTarget) {
		t.Fatalf("expected no-target rejection, got %v", err)
	}

	if _, err := f.svc.Join(ctx, "1234", "Bob", "conn-bob"); err != nil {
		t.Fatalf("join: %v", err)
	}
	if err := f.svc.UsePower(ctx, "1234", "conn-ana", "freeze-leader"); err != nil {
		t.Fatalf("use power: %v", err)
	}

	roster, _ := f.svc.Roster("1234")
	var bob domain.Participant
	for _, p := range roster {
		if p.Username == "Bob" {
			bob = p
		}
	}
	if !bob.IsFrozen {
		t.Fatalf("expected Bob frozen, got %+v", roster)
	}

	// Frozen participants cannot answer.
	if err := f.svc.LaunchQuestion(ctx, "1234"); err != nil {
		t.Fatalf("launch: %v", err)
	}
	if _, err := f.svc.SubmitAnswer(ctx, "1234", "conn-bob", true); !errors.Is(err, domain.ErrFrozen) {
		t.Fatalf("expected frozen rejection, got %v", err)
	}

	// The unfreeze timer clears the flag; the round timer is also queued, so
	// fire everything and check the flag rather than round state.
	f.timers.fireAll()
	roster, _ = f.svc.Roster("1234")
	for _, p := range roster {
		if p.IsFrozen {
			t.Fatalf("expected freeze cleared, got %+v", roster)
		}
	}
}

func TestUnfreezeAfterDisconnectIsNoop(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, map[string][]domain.Question{"1234": twoQuestions()})

	if _, err := f.svc.Join(ctx, "1234", "Ana", "conn-ana"); err != nil {
		t.Fatalf("join: %v", err)
	}
	if _, err := f.svc.Join(ctx, "1234", "Bob", "conn-bob"); err != nil {
		t.Fatalf("join: %v", err)
	}
	earnCoins(t, f, "1234", "conn-ana", 50)
	if err := f.svc.UsePower(ctx, "1234", "conn-ana", "freeze-leader"); err != nil {
		t.Fatalf("use power: %v", err)
	}

	f.svc.Disconnect(ctx, "conn-bob")
	f.timers.fireAll() // unfreeze for a departed target must be silent
}

func TestUnknownPowerRejected(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, map[string][]domain.Question{"1234": twoQuestions()})
	if _, err := f.svc.Join(ctx, "1234", "Ana", "conn-ana"); err != nil {
		t.Fatalf("join: %v", err)
	}
	if err := f.svc.UsePower(ctx, "1234", "conn-ana", "meteor"); !errors.Is(err, domain.ErrUnknownPower) {
		t.Fatalf("expected unknown power rejection, got %v", err)
	}
}

func TestPowerUnlockLatch(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, map[string][]domain.Question{"1234": twoQuestions()})
	if _, err := f.svc.Join(ctx, "1234", "Ana", "conn-ana"); err != nil {
		t.Fatalf("join: %v", err)
	}

	// 250 points per instant answer: the latch flips on the second round only.
	if err := f.svc.LaunchQuestion(ctx, "1234"); err != nil {
		t.Fatalf("launch: %v", err)
	}
	ack, err := f.svc.SubmitAnswer(ctx, "1234", "conn-ana", true)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if ack.PowerUnlocked {
		t.Fatalf("latch must not flip at 250 points")
	}
	f.timers.fireAll()

	if err := f.svc.LaunchQuestion(ctx, "1234"); err != nil {
		t.Fatalf("launch: %v", err)
	}
	ack, err = f.svc.SubmitAnswer(ctx, "1234", "conn-ana", true)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !ack.PowerUnlocked {
		t.Fatalf("latch must flip once score reaches 500")
	}
	f.timers.fireAll()

	if err := f.svc.LaunchQuestion(ctx, "1234"); err != nil {
		t.Fatalf("launch: %v", err)
	}
	ack, err = f.svc.SubmitAnswer(ctx, "1234", "conn-ana", true)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if ack.PowerUnlocked {
		t.Fatalf("latch is one-way and must not re-announce")
	}
}

func TestRevealWinnerNobodyCorrect(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, map[string][]domain.Question{"1234": twoQuestions()})
	if _, err := f.svc.Join(ctx, "1234", "Ana", "conn-ana"); err != nil {
		t.Fatalf("join: %v", err)
	}
	events, cancel, err := f.svc.Subscribe("1234")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer cancel()

	if err := f.svc.LaunchQuestion(ctx, "1234"); err != nil {
		t.Fatalf("launch: %v", err)
	}
	if _, err := f.svc.SubmitAnswer(ctx, "1234", "conn-ana", false); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := f.svc.RevealWinner("1234"); err != nil {
		t.Fatalf("reveal: %v", err)
	}
	wEv, ok := lastOfType(drain(events), domain.EventRoundWinner)
	if !ok {
		t.Fatalf("expected round-winner event")
	}
	if payload := wEv.Payload.(domain.RoundWinnerPayload); !payload.Nobody || payload.Username != "" {
		t.Fatalf("expected nobody-got-it payload, got %+v", payload)
	}
}

func TestFastestCorrectWins(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, map[string][]domain.Question{"1234": twoQuestions()})
	for _, u := range []struct{ name, conn string }{{"Ana", "c1"}, {"Bob", "c2"}, {"Cleo", "c3"}} {
		if _, err := f.svc.Join(ctx, "1234", u.name, u.conn); err != nil {
			t.Fatalf("join %s: %v", u.name, err)
		}
	}
	events, cancel, err := f.svc.Subscribe("1234")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer cancel()

	if err := f.svc.LaunchQuestion(ctx, "1234"); err != nil {
		t.Fatalf("launch: %v", err)
	}
	f.clock.Advance(2 * time.Second)
	if _, err := f.svc.SubmitAnswer(ctx, "1234", "c1", false); err != nil {
		t.Fatalf("submit: %v", err)
	}
	f.clock.Advance(1 * time.Second)
	if _, err := f.svc.SubmitAnswer(ctx, "1234", "c2", true); err != nil {
		t.Fatalf("submit: %v", err)
	}
	f.clock.Advance(4 * time.Second)
	if _, err := f.svc.SubmitAnswer(ctx, "1234", "c3", true); err != nil {
		t.Fatalf("submit: %v", err)
	}

	if err := f.svc.RevealWinner("1234"); err != nil {
		t.Fatalf("reveal: %v", err)
	}
	wEv, ok := lastOfType(drain(events), domain.EventRoundWinner)
	if !ok {
		t.Fatalf("expected round-winner event")
	}
	winner := wEv.Payload.(domain.RoundWinnerPayload)
	if winner.Username != "Bob" || winner.Seconds != "3.00" {
		t.Fatalf("expected Bob at 3.00s, got %+v", winner)
	}
}

func TestPodiumExcludesModeratorAndSurvivesPersistFailure(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	timers := &timerQueue{}
	bank := memory.NewQuestionBank(nil)
	if err := bank.BulkReplaceForRoom(ctx, "1234", twoQuestions()); err != nil {
		t.Fatalf("seed: %v", err)
	}
	failing := &failingRankings{QuestionBank: bank}
	svc := app.NewGameServiceWithScheduler(newClockRooms(clock.Now), failing, nil, app.Options{}, timers.after)

	if _, err := svc.Join(ctx, "1234", "ADMIN", "conn-admin"); err != nil {
		t.Fatalf("join admin: %v", err)
	}
	if _, err := svc.Join(ctx, "1234", "Ana", "conn-ana"); err != nil {
		t.Fatalf("join: %v", err)
	}
	if err := svc.LaunchQuestion(ctx, "1234"); err != nil {
		t.Fatalf("launch: %v", err)
	}
	if _, err := svc.SubmitAnswer(ctx, "1234", "conn-ana", true); err != nil {
		t.Fatalf("submit: %v", err)
	}

	ranked, err := svc.ShowPodium(ctx, "1234")
	if err != nil {
		t.Fatalf("podium must not fail on persistence error: %v", err)
	}
	if len(ranked) != 1 || ranked[0].Username != "Ana" {
		t.Fatalf("expected only Ana ranked, got %+v", ranked)
	}
}

type failingRankings struct {
	app.QuestionBank
}

func (f *failingRankings) RecordRanking(context.Context, []domain.RankingEntry) error {
	return errors.New("ranking store down")
}

func TestDisconnectPrunesAndEvicts(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, map[string][]domain.Question{"1234": twoQuestions()})

	if _, err := f.svc.Join(ctx, "1234", "Ana", "conn-ana"); err != nil {
		t.Fatalf("join: %v", err)
	}
	f.svc.Disconnect(ctx, "conn-ana")
	if _, err := f.svc.Roster("1234"); !errors.Is(err, domain.ErrRoomNotFound) {
		t.Fatalf("expected room evicted once empty, got %v", err)
	}

	// Re-joining the PIN builds a fresh room rather than reviving the old one.
	roster, err := f.svc.Join(ctx, "1234", "Bob", "conn-bob")
	if err != nil {
		t.Fatalf("rejoin: %v", err)
	}
	if len(roster) != 1 || roster[0].Username != "Bob" {
		t.Fatalf("unexpected roster %+v", roster)
	}
}

func TestJoinValidation(t *testing.T) {
	f := newFixture(t, nil)
	if _, err := f.svc.Join(context.Background(), "", "Ana", "c1"); !errors.Is(err, domain.ErrMissingField) {
		t.Fatalf("expected missing-field error, got %v", err)
	}
	if _, err := f.svc.Join(context.Background(), "1234", "", "c1"); !errors.Is(err, domain.ErrMissingField) {
		t.Fatalf("expected missing-field error, got %v", err)
	}
}

func TestReplaceRoomQuestionsRefreshesLiveRoom(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, map[string][]domain.Question{"1234": twoQuestions()})
	if _, err := f.svc.Join(ctx, "1234", "Ana", "conn-ana"); err != nil {
		t.Fatalf("join: %v", err)
	}
	events, cancel, err := f.svc.Subscribe("1234")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer cancel()

	replacement := []domain.Question{
		{Text: "New Q", OptionA: "1", OptionB: "2", OptionC: "3", OptionD: "4", Correct: domain.OptionD, TimeLimitSec: 30},
	}
	if err := f.svc.ReplaceRoomQuestions(ctx, "1234", replacement); err != nil {
		t.Fatalf("replace: %v", err)
	}
	if err := f.svc.LaunchQuestion(ctx, "1234"); err != nil {
		t.Fatalf("launch: %v", err)
	}
	qEv, ok := lastOfType(drain(events), domain.EventNewQuestion)
	if !ok {
		t.Fatalf("expected new-question event")
	}
	payload := qEv.Payload.(domain.NewQuestionPayload)
	if payload.Question.Text != "New Q" || payload.Total != 1 {
		t.Fatalf("expected replaced set in play, got %+v", payload)
	}
}
