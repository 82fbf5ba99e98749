package domain

import "errors"

var (
	// ErrRoomNotFound is returned when a PIN names no live room.
	ErrRoomNotFound = errors.New("room not found")
	// ErrParticipantNotFound is returned when a connection acts before joining.
	ErrParticipantNotFound = errors.New("participant not found in room")
	// ErrRoundNotActive is returned when an answer arrives outside an open round.
	ErrRoundNotActive = errors.New("round is not active")
	// ErrAlreadyAnswered rejects a second submission within the same round.
	ErrAlreadyAnswered = errors.New("already answered this round")
	// ErrFrozen rejects submissions from a frozen participant.
	ErrFrozen = errors.New("participant is frozen")
	// ErrNoQuestions is returned when a launch finds an empty question set.
	ErrNoQuestions = errors.New("room has no questions")
	// ErrInsufficientCoins rejects a power the attacker cannot afford.
	ErrInsufficientCoins = errors.New("not enough coins")
	// ErrNoPowerTarget is returned when the attacker has nobody to attack.
	ErrNoPowerTarget = errors.New("no valid power target")
	// ErrUnknownPower is returned for power types the engine does not know.
	ErrUnknownPower = errors.New("unknown power type")
	// ErrInvalidQuestion flags an insert/import row with missing fields.
	ErrInvalidQuestion = errors.New("question is missing required fields")
	// ErrMissingField flags a join or submission without its required fields.
	ErrMissingField = errors.New("missing required field")
)
