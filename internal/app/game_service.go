package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"zuynch-quiz-service/internal/domain"
)

// RoomRepository abstracts how live rooms are tracked (in-memory, Redis-backed).
type RoomRepository interface {
	// GetOrCreate returns the room for a PIN, creating it on first access.
	// The second return reports whether the room was just created.
	GetOrCreate(pin string) (*Room, bool)
	Get(pin string) (*Room, bool)
	DeleteIfEmpty(pin string)
	// ForEach visits every live room; used to prune a connection on disconnect.
	ForEach(fn func(room *Room))
}

// QuestionBank loads and persists question content and podium rankings.
type QuestionBank interface {
	FetchRandom(ctx context.Context, n int) ([]domain.Question, error)
	FetchForRoom(ctx context.Context, pin string) ([]domain.Question, error)
	Insert(ctx context.Context, q domain.Question) error
	BulkReplaceForRoom(ctx context.Context, pin string, questions []domain.Question) error
	RecordRanking(ctx context.Context, entries []domain.RankingEntry) error
}

// ScoreMirror is an optional best-effort projection of room scores into an
// external leaderboard (Redis sorted sets). Failures never affect the game.
type ScoreMirror interface {
	UpdateScore(ctx context.Context, pin, username string, score int) error
	RemoveRoom(ctx context.Context, pin string) error
}

// RankedEntry is one row of an external leaderboard projection.
type RankedEntry struct {
	Username string `json:"username"`
	Score    int    `json:"score"`
	Rank     int    `json:"rank"`
}

// LeaderboardReader is the read side of the score projection.
type LeaderboardReader interface {
	Top(ctx context.Context, pin string, limit int) ([]RankedEntry, error)
}

// Options tunes the game rules. Zero values fall back to the defaults.
type Options struct {
	ModeratorName    string
	PowerCost        int
	FreezeDuration   time.Duration
	PowerUnlockScore int
	RoomQuestionSize int // questions drawn for a room with no dedicated set
}

func (o Options) withDefaults() Options {
	if o.ModeratorName == "" {
		o.ModeratorName = "ADMIN"
	}
	if o.PowerCost <= 0 {
		o.PowerCost = DefaultPowerCost
	}
	if o.FreezeDuration <= 0 {
		o.FreezeDuration = DefaultFreezeDuration
	}
	if o.PowerUnlockScore <= 0 {
		o.PowerUnlockScore = DefaultPowerUnlockScore
	}
	if o.RoomQuestionSize <= 0 {
		o.RoomQuestionSize = 10
	}
	return o
}

// GameService contains the room/game-state use cases: joining, the round
// state machine, scoring, and the freeze power.
type GameService struct {
	rooms  RoomRepository
	bank   QuestionBank
	mirror ScoreMirror
	opts   Options

	// after schedules deferred transitions (round timeout, unfreeze);
	// replaced in tests to fire timers by hand.
	after func(d time.Duration, fn func())
}

// NewGameService wires the coordinator. mirror may be nil.
func NewGameService(rooms RoomRepository, bank QuestionBank, mirror ScoreMirror, opts Options) *GameService {
	return &GameService{
		rooms:  rooms,
		bank:   bank,
		mirror: mirror,
		opts:   opts.withDefaults(),
		after:  func(d time.Duration, fn func()) { time.AfterFunc(d, fn) },
	}
}

// NewGameServiceWithScheduler is test-only: deferred transitions are handed
// to after instead of real timers so tests can fire them by hand.
func NewGameServiceWithScheduler(rooms RoomRepository, bank QuestionBank, mirror ScoreMirror, opts Options, after func(time.Duration, func())) *GameService {
	s := NewGameService(rooms, bank, mirror, opts)
	s.after = after
	return s
}

// ModeratorName returns the reserved username treated as the moderator.
func (s *GameService) ModeratorName() string { return s.opts.ModeratorName }

// Join registers a connection in a room, creating and seeding the room on
// first access. A failed question load is logged and leaves the room usable
// with an empty set.
func (s *GameService) Join(ctx context.Context, pin, username, connID string) ([]domain.Participant, error) {
	if pin == "" || username == "" || connID == "" {
		return nil, domain.ErrMissingField
	}

	room, created := s.rooms.GetOrCreate(pin)
	if created {
		questions, err := s.bank.FetchForRoom(ctx, pin)
		if err != nil {
			log.Printf("room %s: question load failed, starting empty: %v", pin, err)
			questions = nil
		}
		room.SetQuestions(questions)
	}
	return room.Join(connID, username), nil
}

// Subscribe attaches a listener to a room's broadcast stream.
func (s *GameService) Subscribe(pin string) (<-chan domain.Event, func(), error) {
	room, ok := s.rooms.Get(pin)
	if !ok {
		return nil, nil, domain.ErrRoomNotFound
	}
	ch, cancel := room.Subscribe()
	return ch, cancel, nil
}

// Disconnect prunes a connection from every room that holds it and evicts
// rooms left empty. A connection normally belongs to one room, but the
// cleanup does not rely on that.
func (s *GameService) Disconnect(ctx context.Context, connID string) {
	s.rooms.ForEach(func(room *Room) {
		removed, empty := room.Remove(connID)
		if !removed {
			return
		}
		if empty {
			pin := room.Pin()
			s.rooms.DeleteIfEmpty(pin)
			if s.mirror != nil {
				if err := s.mirror.RemoveRoom(ctx, pin); err != nil {
					log.Printf("room %s: leaderboard cleanup failed: %v", pin, err)
				}
			}
		}
	})
}

// LaunchQuestion opens the next round for a room and schedules its timeout.
// A second launch while a round is open simply supersedes it; the abandoned
// round's timer recognizes it is stale and does nothing.
func (s *GameService) LaunchQuestion(ctx context.Context, pin string) error {
	room, ok := s.rooms.Get(pin)
	if !ok {
		return domain.ErrRoomNotFound
	}
	q, round, err := room.OpenRound()
	if err != nil {
		return err
	}
	s.after(q.TimeLimit(), func() {
		room.CloseRound(round)
	})
	return nil
}

// SubmitAnswer records one answer for the open round and returns the private
// acknowledgment for the submitter. The roster broadcast happens inside the
// room; the external leaderboard mirror is updated best-effort afterwards.
func (s *GameService) SubmitAnswer(ctx context.Context, pin, connID string, correct bool) (AnswerAck, error) {
	room, ok := s.rooms.Get(pin)
	if !ok {
		return AnswerAck{}, domain.ErrRoomNotFound
	}
	ack, err := room.RecordAnswer(connID, correct, s.opts.PowerUnlockScore)
	if err != nil {
		return AnswerAck{}, err
	}
	if s.mirror != nil {
		if p, found := s.participant(room, connID); found {
			if err := s.mirror.UpdateScore(ctx, pin, p.Username, p.Score); err != nil {
				log.Printf("room %s: leaderboard mirror update failed: %v", pin, err)
			}
		}
	}
	return ack, nil
}

// RevealWinner broadcasts the fastest correct answer of the current round, or
// a nobody-got-it notice when there is none.
func (s *GameService) RevealWinner(pin string) error {
	room, ok := s.rooms.Get(pin)
	if !ok {
		return domain.ErrRoomNotFound
	}
	answer, found, err := room.Winner()
	if err != nil {
		return err
	}
	if !found {
		room.Broadcast(domain.Event{
			Type:    domain.EventRoundWinner,
			Payload: domain.RoundWinnerPayload{Nobody: true},
		})
		return nil
	}
	room.Broadcast(domain.Event{
		Type: domain.EventRoundWinner,
		Payload: domain.RoundWinnerPayload{
			Username: answer.Username,
			Seconds:  fmt.Sprintf("%.2f", answer.Elapsed.Seconds()),
		},
	})
	return nil
}

// ShowPodium broadcasts the top three and persists them to the ranking
// history. Persistence failure is logged and never rolls back the broadcast.
func (s *GameService) ShowPodium(ctx context.Context, pin string) ([]domain.Participant, error) {
	room, ok := s.rooms.Get(pin)
	if !ok {
		return nil, domain.ErrRoomNotFound
	}
	ranked := room.Podium(s.opts.ModeratorName)
	if len(ranked) == 0 {
		return ranked, nil
	}

	now := time.Now()
	entries := make([]domain.RankingEntry, 0, len(ranked))
	for _, p := range ranked {
		entries = append(entries, domain.RankingEntry{
			Username:   p.Username,
			Score:      p.Score,
			RecordedAt: now,
		})
	}
	if err := s.bank.RecordRanking(ctx, entries); err != nil {
		log.Printf("room %s: ranking persist failed: %v", pin, err)
	}
	return ranked, nil
}

// UsePower validates and applies a paid power. Only freeze-leader exists; the
// freeze reverses unconditionally after the configured delay.
func (s *GameService) UsePower(ctx context.Context, pin, connID, powerType string) error {
	if powerType != "freeze-leader" {
		return domain.ErrUnknownPower
	}
	room, ok := s.rooms.Get(pin)
	if !ok {
		return domain.ErrRoomNotFound
	}
	target, err := room.FreezeLeader(connID, s.opts.PowerCost, s.opts.ModeratorName)
	if err != nil {
		return err
	}
	s.after(s.opts.FreezeDuration, func() {
		room.Unfreeze(target.ID)
	})
	return nil
}

// Roster returns the current score-sorted roster of a room.
func (s *GameService) Roster(pin string) ([]domain.Participant, error) {
	room, ok := s.rooms.Get(pin)
	if !ok {
		return nil, domain.ErrRoomNotFound
	}
	return room.Roster(), nil
}

// AddQuestion validates and stores a single question in the bank.
func (s *GameService) AddQuestion(ctx context.Context, q domain.Question) error {
	if err := validateQuestion(q); err != nil {
		return err
	}
	return s.bank.Insert(ctx, q)
}

// RandomQuestions draws n questions from the shared pool.
func (s *GameService) RandomQuestions(ctx context.Context, n int) ([]domain.Question, error) {
	if n <= 0 {
		n = s.opts.RoomQuestionSize
	}
	return s.bank.FetchRandom(ctx, n)
}

// ReplaceRoomQuestions validates an imported set, replaces the room's stored
// set, and refreshes the live room (if any) in one atomic in-memory swap.
func (s *GameService) ReplaceRoomQuestions(ctx context.Context, pin string, questions []domain.Question) error {
	if pin == "" || len(questions) == 0 {
		return domain.ErrInvalidQuestion
	}
	for _, q := range questions {
		if err := validateQuestion(q); err != nil {
			return err
		}
	}
	if err := s.bank.BulkReplaceForRoom(ctx, pin, questions); err != nil {
		return err
	}
	if room, ok := s.rooms.Get(pin); ok {
		room.SetQuestions(questions)
	}
	return nil
}

func (s *GameService) participant(room *Room, connID string) (domain.Participant, bool) {
	for _, p := range room.Roster() {
		if p.ID == connID {
			return p, true
		}
	}
	return domain.Participant{}, false
}

func validateQuestion(q domain.Question) error {
	if q.Text == "" || q.OptionA == "" || q.OptionB == "" || q.OptionC == "" || q.OptionD == "" {
		return domain.ErrInvalidQuestion
	}
	return nil
}
