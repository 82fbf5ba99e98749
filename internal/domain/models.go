package domain

import (
	"strings"
	"time"
)

// RoomStatus tracks whether a room is still gathering players or mid-game.
type RoomStatus string

const (
	RoomWaiting RoomStatus = "waiting"
	RoomPlaying RoomStatus = "playing"
)

// OptionTag identifies one of the four answer slots of a question.
type OptionTag string

const (
	OptionA OptionTag = "a"
	OptionB OptionTag = "b"
	OptionC OptionTag = "c"
	OptionD OptionTag = "d"
)

// NormalizeOption lowercases a tag and falls back to "a" for anything
// outside the four known slots, mirroring how imported rows are repaired.
func NormalizeOption(raw string) OptionTag {
	switch OptionTag(strings.ToLower(strings.TrimSpace(raw))) {
	case OptionB:
		return OptionB
	case OptionC:
		return OptionC
	case OptionD:
		return OptionD
	default:
		return OptionA
	}
}

// DefaultTimeLimitSec is applied to questions stored without a limit.
const DefaultTimeLimitSec = 45

// Question is a four-option trivia question. Immutable once handed to a room.
type Question struct {
	ID           int64     `json:"id"`
	Text         string    `json:"questionText"`
	OptionA      string    `json:"optionA"`
	OptionB      string    `json:"optionB"`
	OptionC      string    `json:"optionC"`
	OptionD      string    `json:"optionD"`
	Correct      OptionTag `json:"correctOption"`
	TimeLimitSec int       `json:"timeLimitSec"`
}

// TimeLimit returns the round duration, defaulting when the stored row had none.
func (q Question) TimeLimit() time.Duration {
	sec := q.TimeLimitSec
	if sec <= 0 {
		sec = DefaultTimeLimitSec
	}
	return time.Duration(sec) * time.Second
}

// Participant is one connected player (or the moderator) inside a room.
// The ID is the connection identity; it is never reused while the room lives.
type Participant struct {
	ID            string `json:"id"`
	Username      string `json:"username"`
	Score         int    `json:"score"`
	Coins         int    `json:"coins"`
	IsFrozen      bool   `json:"isFrozen"`
	PowerUnlocked bool   `json:"powerUnlocked"`
	Streak        int    `json:"streak"`
}

// Answer is the recorded submission of one participant for one round.
type Answer struct {
	Username string
	Correct  bool
	Elapsed  time.Duration
}

// RankingEntry is a podium row persisted to the ranking history.
type RankingEntry struct {
	Username   string
	Score      int
	RecordedAt time.Time
}

// CrowdStatus is the moderation state of a crowd-submitted question.
type CrowdStatus string

const (
	CrowdPending  CrowdStatus = "pending"
	CrowdApproved CrowdStatus = "approved"
	CrowdArchived CrowdStatus = "archived"
)

// CrowdQuestion is a question submitted by the audience for the projector
// Q&A screen. It only becomes publicly visible once approved.
type CrowdQuestion struct {
	ID        int64       `json:"id"`
	Text      string      `json:"text"`
	Author    string      `json:"author"`
	Status    CrowdStatus `json:"status"`
	Upvotes   int         `json:"upvotes"`
	CreatedAt time.Time   `json:"createdAt"`
}
