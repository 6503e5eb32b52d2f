package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"outcome-quiz-service/internal/app"
	"outcome-quiz-service/internal/domain"
)

// writeWait bounds a single frame write so a client that stops reading is dropped.
const writeWait = 10 * time.Second

type WSHandler struct {
	service  *app.QuizService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.QuizService) *WSHandler {
	return &WSHandler{
		service: service,
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
	QuestionIndex int    `json:"questionIndex"`
	OptionID      string `json:"optionId"`
}

type sessionPayload struct {
	SessionID string              `json:"sessionId"`
	State     domain.SessionState `json:"state"`
	Index     int                 `json:"index"`
	Resumed   bool                `json:"resumed"`
	Question  *domain.Question    `json:"question,omitempty"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Expected *int   `json:"expectedIndex,omitempty"`
}

// ServeWS upgrades HTTP requests to websockets and drives one play session per connection.
// The connection holds the session handle; the service checks it against the stored snapshot.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	quizID := r.URL.Query().Get("quizId")
	sessionID := r.URL.Query().Get("sessionId")
	if quizID == "" {
		http.Error(w, "missing quizId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	started, err := h.service.Start(r.Context(), quizID, sessionID)
	if err != nil {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: toErrorPayload(err)})
		return
	}
	handle := started.Handle

	send := make(chan outboundMessage[any], 16)
	writerDone := make(chan struct{})

	// Single writer goroutine; gorilla connections do not support concurrent writes.
	go func() {
		defer close(writerDone)
		if err := writePump(conn, send, writeWait); err != nil {
			log.Printf("ws write error: %v", err)
			// Unblock the read loop; it closes send once ReadJSON fails.
			conn.Close()
			for range send {
			}
		}
	}()

	send <- outboundMessage[any]{Type: "session", Payload: sessionPayload{
		SessionID: handle.SessionID,
		State:     handle.State,
		Index:     handle.Index,
		Resumed:   started.Resumed,
		Question:  started.Question,
	}}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Code: "BAD_REQUEST", Message: "invalid answer payload"}}
				continue
			}
			progress, err := h.service.Answer(r.Context(), handle, payload.QuestionIndex, payload.OptionID)
			if err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: toErrorPayload(err)}
				continue
			}
			handle = progress.Handle
			if progress.Result != nil {
				send <- outboundMessage[any]{Type: "result", Payload: progress.Result}
				continue
			}
			send <- outboundMessage[any]{Type: "progress", Payload: sessionPayload{
				SessionID: handle.SessionID,
				State:     handle.State,
				Index:     handle.Index,
				Question:  progress.Question,
			}}
		default:
			send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Code: "BAD_REQUEST", Message: "unsupported message type"}}
		}
	}

	close(send)
	<-writerDone
}

type frameWriter interface {
	SetWriteDeadline(t time.Time) error
	WriteJSON(v interface{}) error
}

// writePump drains send onto w, bounding every frame by wait. It returns the first
// write error, or nil once send is closed.
func writePump(w frameWriter, send <-chan outboundMessage[any], wait time.Duration) error {
	for msg := range send {
		if err := w.SetWriteDeadline(time.Now().Add(wait)); err != nil {
			return err
		}
		if err := w.WriteJSON(msg); err != nil {
			return err
		}
	}
	return nil
}

// toErrorPayload maps core errors onto stable client codes.
func toErrorPayload(err error) errorPayload {
	var cfgErr *domain.ConfigurationError
	var violation *domain.SequenceViolation
	switch {
	case errors.As(err, &cfgErr):
		// Authoring problems go to the operator log, the player gets the code only.
		log.Printf("quiz configuration error: %v", err)
		return errorPayload{Code: cfgErr.Code, Message: "this quiz is not available right now"}
	case errors.As(err, &violation):
		expected := violation.Expected
		return errorPayload{Code: "SEQUENCE_VIOLATION", Message: err.Error(), Expected: &expected}
	case errors.Is(err, domain.ErrSessionFinished):
		return errorPayload{Code: "SESSION_FINISHED", Message: err.Error()}
	case errors.Is(err, domain.ErrQuizNotFound),
		errors.Is(err, domain.ErrQuestionNotFound),
		errors.Is(err, domain.ErrOptionNotFound):
		return errorPayload{Code: "NOT_FOUND", Message: err.Error()}
	default:
		log.Printf("quiz request failed: %v", err)
		return errorPayload{Code: "INTERNAL", Message: "internal error"}
	}
}
