package app

import (
	"sort"
	"sync"
	"time"

	"zuynch-quiz-service/internal/domain"
)

// Room is the in-memory aggregate for one live game: roster, question set,
// and the current round. All mutation happens under its mutex; deferred
// timers re-validate identity before touching anything.
type Room struct {
	pin string
	now func() time.Time

	mu            sync.Mutex
	status        domain.RoomStatus
	questions     []domain.Question
	questionIndex int
	round         *Round
	participants  map[string]*domain.Participant
	subscribers   map[chan domain.Event]struct{}
}

// Round is the lifecycle of exactly one launched question. A Round that has
// been superseded stays allocated so its timer can recognize it is stale.
type Round struct {
	question    domain.Question
	startTime   time.Time
	active      bool
	answers     map[string]domain.Answer
	answerOrder []string
}

// NewRoom is exported for registry implementations that create rooms lazily.
func NewRoom(pin string) *Room {
	return NewRoomWithClock(pin, time.Now)
}

// NewRoomWithClock is test-only for deterministic timestamps.
func NewRoomWithClock(pin string, now func() time.Time) *Room {
	return &Room{
		pin:          pin,
		now:          now,
		status:       domain.RoomWaiting,
		participants: make(map[string]*domain.Participant),
		subscribers:  make(map[chan domain.Event]struct{}),
	}
}

// Pin returns the room's identifier.
func (r *Room) Pin() string { return r.pin }

// Join adds (or refreshes) a participant and broadcasts the updated roster.
func (r *Room) Join(connID, username string) []domain.Participant {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.participants[connID]; ok {
		p.Username = username
	} else {
		r.participants[connID] = &domain.Participant{
			ID:       connID,
			Username: username,
		}
	}
	return r.broadcastRosterLocked()
}

// Remove deletes a participant. It reports whether the connection was a
// member and whether the room is now empty; the roster broadcast is skipped
// when nothing changed.
func (r *Room) Remove(connID string) (removed, empty bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.participants[connID]; !ok {
		return false, len(r.participants) == 0
	}
	delete(r.participants, connID)
	r.broadcastRosterLocked()
	return true, len(r.participants) == 0
}

// IsEmpty reports whether the room has no participants.
func (r *Room) IsEmpty() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.participants) == 0
}

// SetQuestions swaps in the room's question set as one atomic update and
// rewinds the cursor. Used at creation time and by bulk imports.
func (r *Room) SetQuestions(questions []domain.Question) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.questions = questions
	r.questionIndex = 0
}

// QuestionCount returns the size of the room's question set.
func (r *Room) QuestionCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.questions)
}

// Roster returns the participants sorted by score, highest first. The sort is
// stable so equal scores keep their snapshot order.
func (r *Room) Roster() []domain.Participant {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rosterLocked()
}

// OpenRound starts the next question's round and broadcasts it. The returned
// *Round is the identity token the close timer must present later. The cursor
// wraps to the first question when the set is exhausted.
func (r *Room) OpenRound() (domain.Question, *Round, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.questions) == 0 {
		r.broadcastLocked(domain.Event{
			Type:    domain.EventError,
			Payload: domain.ErrorPayload{Message: "no questions available for this room"},
		})
		return domain.Question{}, nil, domain.ErrNoQuestions
	}

	if r.questionIndex >= len(r.questions) {
		r.questionIndex = 0
	}
	q := r.questions[r.questionIndex]

	round := &Round{
		question:  q,
		startTime: r.now(),
		active:    true,
		answers:   make(map[string]domain.Answer),
	}
	r.round = round
	r.status = domain.RoomPlaying

	r.broadcastLocked(domain.Event{
		Type:    domain.EventGameState,
		Payload: domain.GameStatePayload{Action: "playing"},
	})
	r.broadcastLocked(domain.Event{
		Type: domain.EventNewQuestion,
		Payload: domain.NewQuestionPayload{
			Question: q,
			Position: r.questionIndex + 1,
			Total:    len(r.questions),
		},
	})
	r.questionIndex++
	return q, round, nil
}

// CloseRound ends a round on timeout. It is a no-op when the presented round
// has been superseded by a newer launch or was already closed.
func (r *Room) CloseRound(round *Round) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.round != round || round == nil || !round.active {
		return false
	}
	round.active = false
	r.broadcastLocked(domain.Event{
		Type:    domain.EventRoundTimeout,
		Payload: domain.RoundTimeoutPayload{Message: "time is up"},
	})
	return true
}

// AnswerAck is the private acknowledgment returned to a submitter.
type AnswerAck struct {
	Correct       bool `json:"correct"`
	Points        int  `json:"points"`
	CoinsDelta    int  `json:"coinsDelta"`
	TotalScore    int  `json:"totalScore"`
	Streak        int  `json:"streak"`
	PowerUnlocked bool `json:"powerUnlocked"` // true only the round the latch flips
}

// RecordAnswer accepts one submission for the open round, applies the scoring
// policy, and broadcasts the updated roster. Each participant gets exactly one
// recorded answer per round; later attempts are rejected, not ignored.
func (r *Room) RecordAnswer(connID string, correct bool, unlockAt int) (AnswerAck, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.participants[connID]
	if !ok {
		return AnswerAck{}, domain.ErrParticipantNotFound
	}
	round := r.round
	if round == nil || !round.active {
		return AnswerAck{}, domain.ErrRoundNotActive
	}
	if p.IsFrozen {
		return AnswerAck{}, domain.ErrFrozen
	}
	if _, dup := round.answers[connID]; dup {
		return AnswerAck{}, domain.ErrAlreadyAnswered
	}

	elapsed := r.now().Sub(round.startTime)
	round.answers[connID] = domain.Answer{
		Username: p.Username,
		Correct:  correct,
		Elapsed:  elapsed,
	}
	round.answerOrder = append(round.answerOrder, connID)

	result := Score(correct, elapsed, p.Streak)
	p.Streak = result.NewStreak
	p.Score += result.Points
	p.Coins += result.CoinsDelta

	unlocked := false
	if p.Score >= unlockAt && !p.PowerUnlocked {
		p.PowerUnlocked = true
		unlocked = true
	}

	r.broadcastRosterLocked()
	return AnswerAck{
		Correct:       correct,
		Points:        result.Points,
		CoinsDelta:    result.CoinsDelta,
		TotalScore:    p.Score,
		Streak:        p.Streak,
		PowerUnlocked: unlocked,
	}, nil
}

// Winner returns the fastest correct answer of the current round, scanning in
// submission order so equal times resolve to the earliest submission. The
// second return is false when nobody answered correctly.
func (r *Room) Winner() (domain.Answer, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.round == nil {
		return domain.Answer{}, false, domain.ErrRoundNotActive
	}
	var best domain.Answer
	found := false
	for _, id := range r.round.answerOrder {
		a := r.round.answers[id]
		if !a.Correct {
			continue
		}
		if !found || a.Elapsed < best.Elapsed {
			best = a
			found = true
		}
	}
	return best, found, nil
}

// Podium broadcasts and returns the top three scored participants. The
// moderator identity is never ranked.
func (r *Room) Podium(moderatorName string) []domain.Participant {
	r.mu.Lock()
	defer r.mu.Unlock()

	ranked := make([]domain.Participant, 0, len(r.participants))
	for _, p := range r.rosterLocked() {
		if p.Username == moderatorName {
			continue
		}
		ranked = append(ranked, p)
	}
	if len(ranked) > 3 {
		ranked = ranked[:3]
	}
	r.broadcastLocked(domain.Event{
		Type:    domain.EventPodium,
		Payload: domain.PodiumPayload{Ranking: ranked},
	})
	return ranked
}

// FreezeLeader debits the attacker and freezes the highest-scoring other
// participant, broadcasting the effect and the updated roster. The returned
// target copy carries the connection ID the unfreeze timer must present.
func (r *Room) FreezeLeader(attackerID string, cost int, moderatorName string) (domain.Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	attacker, ok := r.participants[attackerID]
	if !ok {
		return domain.Participant{}, domain.ErrParticipantNotFound
	}
	if attacker.Coins < cost {
		return domain.Participant{}, domain.ErrInsufficientCoins
	}

	var target *domain.Participant
	for _, p := range r.rosterLocked() {
		if p.ID == attackerID || p.Username == moderatorName {
			continue
		}
		target = r.participants[p.ID]
		break
	}
	if target == nil {
		return domain.Participant{}, domain.ErrNoPowerTarget
	}

	attacker.Coins -= cost
	target.IsFrozen = true

	r.broadcastLocked(domain.Event{
		Type: domain.EventPowerEffect,
		Payload: domain.PowerEffectPayload{
			Effect:       "freeze",
			AttackerName: attacker.Username,
			TargetID:     target.ID,
			TargetName:   target.Username,
		},
	})
	r.broadcastRosterLocked()
	return *target, nil
}

// Unfreeze clears the frozen flag for a participant. It is idempotent and a
// no-op when the target has since disconnected.
func (r *Room) Unfreeze(targetID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.participants[targetID]
	if !ok || !p.IsFrozen {
		return false
	}
	p.IsFrozen = false
	r.broadcastRosterLocked()
	return true
}

// Subscribe returns a channel receiving this room's broadcast events. The
// caller must invoke the returned cancel function to avoid leaks.
func (r *Room) Subscribe() (<-chan domain.Event, func()) {
	ch := make(chan domain.Event, 16)

	r.mu.Lock()
	r.subscribers[ch] = struct{}{}
	r.mu.Unlock()

	cancel := func() {
		r.mu.Lock()
		if _, ok := r.subscribers[ch]; ok {
			delete(r.subscribers, ch)
			close(ch)
		}
		r.mu.Unlock()
	}
	return ch, cancel
}

// Broadcast emits an event to every subscriber of the room.
func (r *Room) Broadcast(ev domain.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.broadcastLocked(ev)
}

func (r *Room) broadcastRosterLocked() []domain.Participant {
	roster := r.rosterLocked()
	r.broadcastLocked(domain.Event{
		Type:    domain.EventRosterUpdate,
		Payload: domain.RosterUpdatePayload{Pin: r.pin, Users: roster},
	})
	return roster
}

func (r *Room) broadcastLocked(ev domain.Event) {
	for ch := range r.subscribers {
		select {
		case ch <- ev:
		default:
			// Drop the oldest pending event rather than block the room on a
			// slow subscriber.
			select {
			case <-ch:
			default:
			}
			ch <- ev
		}
	}
}

func (r *Room) rosterLocked() []domain.Participant {
	roster := make([]domain.Participant, 0, len(r.participants))
	for _, p := range r.participants {
		roster = append(roster, *p)
	}
	sort.SliceStable(roster, func(i, j int) bool {
		if roster[i].Score != roster[j].Score {
			return roster[i].Score > roster[j].Score
		}
		return roster[i].Username < roster[j].Username
	})
	return roster
}
