package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"outcome-quiz-service/internal/app"
	"outcome-quiz-service/internal/domain"
)

// ReplayHandler re-resolves a complete answer history so shared result links can be
// rendered without replaying the session or counting a play.
type ReplayHandler struct {
	service *app.QuizService
}

func NewReplayHandler(service *app.QuizService) *ReplayHandler {
	return &ReplayHandler{service: service}
}

type replayRequest struct {
	QuizID    string   `json:"quizId"`
	OptionIDs []string `json:"optionIds"`
}

func (h *ReplayHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req replayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.QuizID == "" {
		writeJSON(w, http.StatusBadRequest, errorPayload{Code: "BAD_REQUEST", Message: "quizId and optionIds are required"})
		return
	}

	res, err := h.service.Replay(r.Context(), req.QuizID, req.OptionIDs)
	if err != nil {
		writeJSON(w, statusFor(err), toErrorPayload(err))
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// NewMux wires every quiz endpoint onto one mux.
func NewMux(service *app.QuizService) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", NewWSHandler(service).ServeWS)
	mux.Handle("/replay", NewReplayHandler(service))
	return mux
}

func statusFor(err error) int {
	switch {
	case domain.IsConfigurationError(err):
		return http.StatusConflict
	case errors.Is(err, domain.ErrQuizNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrQuestionNotFound), errors.Is(err, domain.ErrOptionNotFound):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
