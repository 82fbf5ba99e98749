package http

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"zuynch-quiz-service/internal/app"
	"zuynch-quiz-service/internal/domain"
)

// WSHandler is the event gateway: it upgrades connections, mints their
// identity, validates inbound messages, and fans room and moderation events
// out to them.
type WSHandler struct {
	game       *app.GameService
	moderation *app.ModerationService
	upgrader   websocket.Upgrader
}

func NewWSHandler(game *app.GameService, moderation *app.ModerationService) *WSHandler {
	return &WSHandler{
		game:       game,
		moderation: moderation,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type answerPayload struct {
	Correct bool `json:"correct"`
}

type powerPayload struct {
	Power string `json:"power"`
}

type adminActionPayload struct {
	Action string `json:"action"`
}

type crowdPostPayload struct {
	Text string `json:"text"`
}

type crowdIDPayload struct {
	ID int64 `json:"id"`
}

type crowdModeratePayload struct {
	ID     int64  `json:"id"`
	Action string `json:"action"`
}

// ServeWS upgrades HTTP requests to websockets and wires them into the game
// and moderation use cases. The connection identity lives exactly as long as
// the socket; a reconnect is a brand-new participant.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	pin := r.URL.Query().Get("pin")
	username := r.URL.Query().Get("name")
	if pin == "" || username == "" {
		http.Error(w, "missing pin or name", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	connID := uuid.NewString()
	isModerator := username == h.game.ModeratorName()

	roster, err := h.game.Join(r.Context(), pin, username, connID)
	if err != nil {
		_ = conn.WriteJSON(errorEvent(err))
		return
	}
	defer h.game.Disconnect(context.Background(), connID)

	updates, cancelRoom, err := h.game.Subscribe(pin)
	if err != nil {
		_ = conn.WriteJSON(errorEvent(err))
		return
	}
	defer cancelRoom()

	crowdEvents, cancelCrowd := h.moderation.Subscribe(isModerator)
	defer cancelCrowd()

	send := make(chan domain.Event, 32)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	pumpDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for ev := range send {
			if err := conn.WriteJSON(ev); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	go func() {
		defer close(pumpDone)
		for {
			select {
			case ev, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- ev:
				case <-closeSignals:
					return
				}
			case ev, ok := <-crowdEvents:
				if !ok {
					return
				}
				select {
				case send <- ev:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	send <- domain.Event{
		Type:    domain.EventJoined,
		Payload: domain.RosterUpdatePayload{Pin: pin, Users: roster},
	}
	if isModerator {
		send <- domain.Event{
			Type:    domain.EventModeratorUpdate,
			Payload: h.moderation.QueueSnapshot(r.Context()),
		}
	}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		h.dispatch(r.Context(), send, inbound, pin, connID, isModerator)
	}

	close(closeSignals)
	<-pumpDone
	close(send)
	<-writerDone
}

func (h *WSHandler) dispatch(ctx context.Context, send chan<- domain.Event, inbound inboundMessage, pin, connID string, isModerator bool) {
	switch inbound.Type {
	case "answer":
		var payload answerPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			send <- errorMessage("invalid answer payload")
			return
		}
		ack, err := h.game.SubmitAnswer(ctx, pin, connID, payload.Correct)
		if err != nil {
			send <- errorEvent(err)
			return
		}
		send <- domain.Event{Type: domain.EventAnswerResult, Payload: ack}
		if ack.PowerUnlocked {
			send <- domain.Event{
				Type:    domain.EventNotification,
				Payload: domain.NotificationPayload{Message: "power unlocked"},
			}
		}

	case "use-power":
		var payload powerPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			send <- errorMessage("invalid power payload")
			return
		}
		if err := h.game.UsePower(ctx, pin, connID, payload.Power); err != nil {
			send <- errorEvent(err)
		}

	case "admin-action":
		if !isModerator {
			send <- errorMessage("moderator only")
			return
		}
		var payload adminActionPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			send <- errorMessage("invalid admin payload")
			return
		}
		h.dispatchAdmin(ctx, send, payload.Action, pin)

	case "post-crowd-question":
		var payload crowdPostPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			send <- errorMessage("invalid question payload")
			return
		}
		if err := h.moderation.Post(ctx, payload.Text, h.usernameFor(pin, connID)); err != nil {
			send <- errorEvent(err)
		}

	case "upvote-crowd-question":
		var payload crowdIDPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			send <- errorMessage("invalid upvote payload")
			return
		}
		if err := h.moderation.Upvote(ctx, payload.ID); err != nil {
			send <- errorEvent(err)
		}

	case "list-crowd-questions":
		approved, err := h.moderation.Approved(ctx)
		if err != nil {
			send <- errorEvent(err)
			return
		}
		send <- domain.Event{
			Type:    domain.EventCrowdQuestions,
			Payload: domain.CrowdQuestionsPayload{Questions: approved},
		}

	case "moderate-crowd-question":
		if !isModerator {
			send <- errorMessage("moderator only")
			return
		}
		var payload crowdModeratePayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			send <- errorMessage("invalid moderation payload")
			return
		}
		var err error
		switch payload.Action {
		case "approve":
			err = h.moderation.Approve(ctx, payload.ID)
		case "reject":
			err = h.moderation.Reject(ctx, payload.ID)
		case "archive":
			err = h.moderation.Archive(ctx, payload.ID)
		default:
			send <- errorMessage("unknown moderation action")
			return
		}
		if err != nil {
			send <- errorEvent(err)
		}

	case "focus-question":
		if !isModerator {
			send <- errorMessage("moderator only")
			return
		}
		var payload crowdIDPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			send <- errorMessage("invalid focus payload")
			return
		}
		h.moderation.Focus(payload.ID)

	case "unfocus-question":
		if !isModerator {
			send <- errorMessage("moderator only")
			return
		}
		h.moderation.Unfocus()

	default:
		send <- errorMessage("unsupported message type")
	}
}

func (h *WSHandler) dispatchAdmin(ctx context.Context, send chan<- domain.Event, action, pin string) {
	var err error
	switch action {
	case "launch-question":
		err = h.game.LaunchQuestion(ctx, pin)
	case "reveal-round-winner":
		err = h.game.RevealWinner(pin)
	case "show-podium":
		_, err = h.game.ShowPodium(ctx, pin)
	default:
		send <- errorMessage("unknown admin action")
		return
	}
	if err != nil {
		send <- errorEvent(err)
	}
}

func (h *WSHandler) usernameFor(pin, connID string) string {
	roster, err := h.game.Roster(pin)
	if err != nil {
		return ""
	}
	for _, p := range roster {
		if p.ID == connID {
			return p.Username
		}
	}
	return ""
}

func errorEvent(err error) domain.Event {
	return errorMessage(err.Error())
}

func errorMessage(msg string) domain.Event {
	return domain.Event{
		Type:    domain.EventError,
		Payload: domain.ErrorPayload{Message: msg},
	}
}
