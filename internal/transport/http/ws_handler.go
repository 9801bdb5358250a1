package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"quiz-client/internal/app"
	"quiz-client/internal/domain"

	"github.com/gorilla/websocket"
)

// ScoreboardPath is where the UI goes after a completed attempt.
const ScoreboardPath = "/scoreboard"

type WSHandler struct {
	service  *app.AttemptService
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.AttemptService, logger *slog.Logger) *WSHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &WSHandler{
		service: service,
		logger:  logger.With("component", "ws"),
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
	QuestionIndex *int `json:"questionIndex"`
	OptionIndex   *int `json:"optionIndex"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

type cuePayload struct {
	Cue domain.Cue `json:"cue"`
}

type completedPayload struct {
	Receipt  domain.AttemptReceipt `json:"receipt"`
	Redirect string                `json:"redirect"`
}

// conn serializes all writes to one websocket through a single writer
// goroutine.
type conn struct {
	send   chan outboundMessage[any]
	closed chan struct{}
}

func (c *conn) emit(typ string, payload any) bool {
	select {
	case c.send <- outboundMessage[any]{Type: typ, Payload: payload}:
		return true
	case <-c.closed:
		return false
	}
}

func (c *conn) fail(err error) {
	c.emit("error", errorPayload{Message: domain.UserMessage(err)})
}

// PlayCue forwards answer feedback to the page, which plays the sound.
func (c *conn) PlayCue(_ context.Context, cue domain.Cue) error {
	if !c.emit("cue", cuePayload{Cue: cue}) {
		return websocket.ErrCloseSent
	}
	return nil
}

// ServeWS upgrades the request and runs one attempt for its lifetime. The
// attempt is abandoned when the socket goes away.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	quizID := r.URL.Query().Get("quizId")
	if quizID == "" {
		http.Error(w, "missing quizId", http.StatusBadRequest)
		return
	}

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", "err", err)
		return
	}
	defer ws.Close()

	c := &conn{
		send:   make(chan outboundMessage[any], 16),
		closed: make(chan struct{}),
	}
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		h.write(ws, c)
	}()

	attempt, err := h.service.Begin(r.Context(), quizID, c)
	if err != nil {
		h.logger.Info("attempt not started", "quiz", quizID, "err", err)
		c.fail(err)
		close(c.closed)
		<-writerDone
		return
	}

	updates, unsubscribe := attempt.Subscribe()
	c.emit("started", <-updates)

	pumpDone := make(chan struct{})
	go func() {
		defer close(pumpDone)
		h.pump(c, attempt, updates)
	}()

	h.readLoop(r.Context(), ws, c, attempt)

	attempt.Close()
	close(c.closed)
	<-pumpDone
	unsubscribe()
	<-writerDone
}

// write is the only goroutine writing to ws. On close it flushes what is
// already queued.
func (h *WSHandler) write(ws *websocket.Conn, c *conn) {
	for {
		select {
		case msg := <-c.send:
			if err := ws.WriteJSON(msg); err != nil {
				h.logger.Debug("ws write error", "err", err)
				// unblocks the reader; emitters unblock once closed is closed
				_ = ws.Close()
				return
			}
		case <-c.closed:
			for {
				select {
				case msg := <-c.send:
					if err := ws.WriteJSON(msg); err != nil {
						return
					}
				default:
					return
				}
			}
		}
	}
}

func (h *WSHandler) readLoop(ctx context.Context, ws *websocket.Conn, c *conn, attempt *app.Attempt) {
	for {
		var inbound inboundMessage
		if err := ws.ReadJSON(&inbound); err != nil {
			return
		}
		switch inbound.Type {
		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil || payload.QuestionIndex == nil || payload.OptionIndex == nil {
				c.emit("error", errorPayload{Message: "invalid answer payload"})
				continue
			}
			result, err := attempt.Answer(ctx, *payload.QuestionIndex, *payload.OptionIndex)
			if err != nil {
				c.fail(err)
				continue
			}
			c.emit("answerResult", result)
		case "submit":
			// completion is announced by the pump; only failures are reported here
			go func() {
				if _, err := attempt.Submit(ctx); err != nil {
					if msg := submitMessage(err); msg != "" {
						c.emit("error", errorPayload{Message: msg})
					}
				}
			}()
		case "leave":
			return
		default:
			c.emit("error", errorPayload{Message: "unsupported message type"})
		}
	}
}

// pump forwards state changes and announces completion.
func (h *WSHandler) pump(c *conn, attempt *app.Attempt, updates <-chan domain.AttemptSnapshot) {
	for {
		select {
		case snap := <-updates:
			if !c.emit("state", snap) {
				return
			}
		case <-attempt.Done():
		drain:
			for {
				select {
				case snap := <-updates:
					if !c.emit("state", snap) {
						return
					}
				default:
					break drain
				}
			}
			if receipt, ok := attempt.Receipt(); ok {
				c.emit("completed", completedPayload{Receipt: receipt, Redirect: ScoreboardPath})
			}
			<-c.closed
			return
		case <-c.closed:
			return
		}
	}
}

func submitMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrAlreadySubmitted), errors.Is(err, domain.ErrAttemptNotInProgress):
		return ""
	case errors.Is(err, domain.ErrIncompleteAttempt):
		return domain.MsgAnswerAll
	default:
		return domain.MsgSubmissionFailed
	}
}
