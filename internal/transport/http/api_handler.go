package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"zuynch-quiz-service/internal/app"
	"zuynch-quiz-service/internal/config"
	"zuynch-quiz-service/internal/domain"
)

// APIHandler serves the REST surface: event branding, question management,
// and the room leaderboard projection.
type APIHandler struct {
	game        *app.GameService
	leaderboard app.LeaderboardReader // may be nil; falls back to live roster
	branding    config.Branding
}

func NewAPIHandler(game *app.GameService, leaderboard app.LeaderboardReader, branding config.Branding) *APIHandler {
	return &APIHandler{game: game, leaderboard: leaderboard, branding: branding}
}

// Register mounts all REST routes on the router.
func (h *APIHandler) Register(r *mux.Router) {
	r.HandleFunc("/healthz", h.health).Methods(http.MethodGet)
	r.HandleFunc("/api/config", h.getConfig).Methods(http.MethodGet)
	r.HandleFunc("/api/questions", h.listQuestions).Methods(http.MethodGet)
	r.HandleFunc("/api/questions", h.addQuestion).Methods(http.MethodPost)
	r.HandleFunc("/api/import-questions", h.importQuestions).Methods(http.MethodPost)
	r.HandleFunc("/api/rooms/{pin}/leaderboard", h.roomLeaderboard).Methods(http.MethodGet)
}

type questionRequest struct {
	Question      string `json:"question"`
	OptionA       string `json:"optionA"`
	OptionB       string `json:"optionB"`
	OptionC       string `json:"optionC"`
	OptionD       string `json:"optionD"`
	CorrectOption string `json:"correctOption"`
	TimeLimit     int    `json:"timeLimit"`
}

func (q questionRequest) toDomain() domain.Question {
	return domain.Question{
		Text:         q.Question,
		OptionA:      q.OptionA,
		OptionB:      q.OptionB,
		OptionC:      q.OptionC,
		OptionD:      q.OptionD,
		Correct:      domain.NormalizeOption(q.CorrectOption),
		TimeLimitSec: q.TimeLimit,
	}
}

func (h *APIHandler) health(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("ok"))
}

func (h *APIHandler) getConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.branding)
}

func (h *APIHandler) listQuestions(w http.ResponseWriter, r *http.Request) {
	n, _ := strconv.Atoi(r.URL.Query().Get("n"))
	questions, err := h.game.RandomQuestions(r.Context(), n)
	if err != nil {
		log.Printf("list questions failed: %v", err)
		writeError(w, http.StatusInternalServerError, "error fetching questions")
		return
	}
	writeJSON(w, http.StatusOK, questions)
}

func (h *APIHandler) addQuestion(w http.ResponseWriter, r *http.Request) {
	var req questionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid question body")
		return
	}
	if err := h.game.AddQuestion(r.Context(), req.toDomain()); err != nil {
		if errors.Is(err, domain.ErrInvalidQuestion) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		log.Printf("add question failed: %v", err)
		writeError(w, http.StatusInternalServerError, "error saving question")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// importQuestions bulk-loads questions. With ?pin= the rows replace that
// room's dedicated set; without it they are appended to the shared pool.
func (h *APIHandler) importQuestions(w http.ResponseWriter, r *http.Request) {
	var reqs []questionRequest
	if err := json.NewDecoder(r.Body).Decode(&reqs); err != nil || len(reqs) == 0 {
		writeError(w, http.StatusBadRequest, "invalid data format or empty array")
		return
	}

	questions := make([]domain.Question, 0, len(reqs))
	for _, req := range reqs {
		questions = append(questions, req.toDomain())
	}

	if pin := r.URL.Query().Get("pin"); pin != "" {
		if err := h.game.ReplaceRoomQuestions(r.Context(), pin, questions); err != nil {
			if errors.Is(err, domain.ErrInvalidQuestion) {
				writeError(w, http.StatusBadRequest, "missing required fields in one or more questions")
				return
			}
			log.Printf("import for room %s failed: %v", pin, err)
			writeError(w, http.StatusInternalServerError, "error importing questions")
			return
		}
	} else {
		for _, q := range questions {
			if err := h.game.AddQuestion(r.Context(), q); err != nil {
				if errors.Is(err, domain.ErrInvalidQuestion) {
					writeError(w, http.StatusBadRequest, "missing required fields in one or more questions")
					return
				}
				log.Printf("import failed: %v", err)
				writeError(w, http.StatusInternalServerError, "error importing questions")
				return
			}
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "count": len(questions)})
}

func (h *APIHandler) roomLeaderboard(w http.ResponseWriter, r *http.Request) {
	pin := mux.Vars(r)["pin"]

	if h.leaderboard != nil {
		entries, err := h.leaderboard.Top(r.Context(), pin, 10)
		if err == nil {
			writeJSON(w, http.StatusOK, entries)
			return
		}
		log.Printf("room %s: leaderboard read failed, using roster: %v", pin, err)
	}

	roster, err := h.game.Roster(pin)
	if err != nil {
		writeError(w, http.StatusNotFound, "room not found")
		return
	}
	entries := make([]app.RankedEntry, len(roster))
	for i, p := range roster {
		entries[i] = app.RankedEntry{Username: p.Username, Score: p.Score, Rank: i + 1}
	}
	writeJSON(w, http.StatusOK, entries)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
