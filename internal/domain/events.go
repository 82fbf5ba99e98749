package domain

// EventType names one outbound event variant.
type EventType string

const (
	EventJoined          EventType = "joined"
	EventAnswerResult    EventType = "answer-result"
	EventRosterUpdate    EventType = "room-update"
	EventGameState       EventType = "game-state-change"
	EventNewQuestion     EventType = "new-question"
	EventRoundTimeout    EventType = "question-timeout"
	EventRoundWinner     EventType = "round-winner"
	EventPowerEffect     EventType = "power-effect"
	EventPodium          EventType = "podium"
	EventNotification    EventType = "notification"
	EventError           EventType = "error"
	EventModeratorUpdate EventType = "moderator-update"
	EventCrowdQuestions  EventType = "crowd-questions-update"
	EventFocusQuestion   EventType = "focus-question"
	EventUnfocusQuestion EventType = "unfocus-question"
)

// Event is the tagged envelope every gateway message travels in. The payload
// is always one of the typed structs below, never an untyped map.
type Event struct {
	Type    EventType   `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// RosterUpdatePayload carries the score-sorted roster of one room.
type RosterUpdatePayload struct {
	Pin   string        `json:"pin"`
	Users []Participant `json:"users"`
}

// GameStatePayload mirrors a moderator state transition to the room.
type GameStatePayload struct {
	Action string `json:"action"`
}

// NewQuestionPayload is the question broadcast that opens a round.
type NewQuestionPayload struct {
	Question Question `json:"question"`
	Position int      `json:"position"` // 1-based
	Total    int      `json:"total"`
}

// RoundTimeoutPayload signals that the round closed on its own timer.
type RoundTimeoutPayload struct {
	Message string `json:"message"`
}

// RoundWinnerPayload names the fastest correct answer of a round. Seconds is
// pre-formatted with two decimals for the projector overlay. When nobody was
// correct, Nobody is set and the other fields are empty.
type RoundWinnerPayload struct {
	Username string `json:"username,omitempty"`
	Seconds  string `json:"seconds,omitempty"`
	Nobody   bool   `json:"nobody,omitempty"`
}

// PowerEffectPayload announces a power use to the whole room.
type PowerEffectPayload struct {
	Effect       string `json:"effect"`
	AttackerName string `json:"attackerName"`
	TargetID     string `json:"targetId"`
	TargetName   string `json:"targetName"`
}

// PodiumPayload carries the final top-3 ranking.
type PodiumPayload struct {
	Ranking []Participant `json:"ranking"`
}

// NotificationPayload is a human-readable notice for one connection or a room.
type NotificationPayload struct {
	Message string `json:"message"`
}

// ErrorPayload is a scoped error delivered to the originating connection.
type ErrorPayload struct {
	Message string `json:"message"`
}

// ModeratorUpdatePayload refreshes the moderation console queues.
type ModeratorUpdatePayload struct {
	Pending  []CrowdQuestion `json:"pending"`
	Approved []CrowdQuestion `json:"approved"`
}

// CrowdQuestionsPayload is the public, approved projector question list.
type CrowdQuestionsPayload struct {
	Questions []CrowdQuestion `json:"questions"`
}

// FocusPayload spotlights one approved question on the projector.
type FocusPayload struct {
	ID int64 `json:"id"`
}
