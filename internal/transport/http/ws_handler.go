package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"webquiz/internal/app"
	"webquiz/internal/attempt"
	"webquiz/internal/domain"
)

// WSHandler drives one quiz attempt per WebSocket connection. The server
// owns the timers and the state machine; the client only sends discrete
// actions (select, next, previous) and renders the events it receives.
type WSHandler struct {
	service  *app.AttemptService
	upgrader websocket.Upgrader
	log      *slog.Logger
}

func NewWSHandler(service *app.AttemptService, log *slog.Logger) *WSHandler {
	return &WSHandler{
		service: service,
		log:     log,
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

type selectPayload struct {
	Option string `json:"option"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

type questionPayload struct {
	QuizID       string   `json:"quizId"`
	QuizTitle    string   `json:"quizTitle"`
	Index        int      `json:"index"`
	Total        int      `json:"total"`
	Prompt       string   `json:"prompt"`
	Options      []string `json:"options"`
	Multiple     bool     `json:"multiple"`
	Selected     []string `json:"selected"`
	QuestionTime int      `json:"questionTime"`
	OverallTime  *int     `json:"overallTime"`
	Restored     bool     `json:"restored"`
}

type tickPayload struct {
	QuestionTime int  `json:"questionTime"`
	OverallTime  *int `json:"overallTime"`
}

type finishedPayload struct {
	attempt.Report
	Percentage int `json:"percentage"`
}

type resultSavedPayload struct {
	Outcome string `json:"outcome"`
}

// ServeWS upgrades the request and runs an attempt until it finishes, is
// blocked, or the client goes away.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	quizID := r.URL.Query().Get("quizId")
	code := r.URL.Query().Get("code")
	userID := r.URL.Query().Get("userId")
	if quizID == "" && code == "" {
		http.Error(w, "missing quizId or code", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error("ws upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	// Anonymous clients get a throwaway attempt scope; identified ones keep
	// their in-progress state across reconnects.
	clientID := userID
	if clientID == "" {
		clientID = "anon-" + uuid.NewString()
	}

	var machine *attempt.Machine
	if quizID != "" {
		machine, err = h.service.Start(r.Context(), quizID, clientID)
	} else {
		machine, err = h.service.StartByCode(r.Context(), code, clientID)
	}
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: startErrorMessage(err)}})
		return
	}

	if state := machine.State(); state.Phase == attempt.PhaseBlocked {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{
			Type:    "blocked",
			Payload: errorPayload{Message: "you have already completed this quiz and retakes are not allowed"},
		})
		return
	}

	send := make(chan outboundMessage[any], 16)
	connClosed := make(chan struct{})
	writerDone := make(chan struct{})
	tickerDone := make(chan struct{})
	finished := make(chan struct{})
	var finishOnce sync.Once

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				h.log.Warn("ws write error", "err", err)
				return
			}
		}
	}()

	push := func(msg outboundMessage[any]) {
		select {
		case send <- msg:
		case <-connClosed:
		}
	}

	finish := func() {
		finishOnce.Do(func() {
			close(finished)
			report, ok := machine.Report()
			if !ok {
				return
			}
			push(outboundMessage[any]{Type: "finished", Payload: finishedPayload{
				Report:     report,
				Percentage: attempt.Percentage(report.Questions),
			}})
			if userID == "" {
				return
			}
			outcome, err := h.service.Complete(r.Context(), userID, report)
			if err != nil {
				// Submission failures never hide the result from the user.
				h.log.Warn("result submission failed", "quiz", report.QuizID, "user", userID, "err", err)
				push(outboundMessage[any]{Type: "notice", Payload: errorPayload{Message: "result could not be saved"}})
				return
			}
			push(outboundMessage[any]{Type: "resultSaved", Payload: resultSavedPayload{Outcome: outcome.String()}})
		})
	}

	// One logical timer loop per attempt; torn down as soon as the attempt
	// stops being in progress so no tick mutates state after the end.
	go func() {
		defer close(tickerDone)
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-connClosed:
				return
			case <-finished:
				return
			case <-ticker.C:
				state := machine.Tick()
				if state.Phase == attempt.PhaseFinished {
					finish()
					return
				}
				push(outboundMessage[any]{Type: "tick", Payload: tickPayload{
					QuestionTime: state.QuestionTime.Seconds(),
					OverallTime:  state.OverallTime.SecondsPtr(),
				}})
			}
		}
	}()

	push(outboundMessage[any]{Type: "question", Payload: questionView(machine.State())})

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "select":
			var payload selectPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				push(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid select payload"}})
				continue
			}
			state := machine.Select(payload.Option)
			push(outboundMessage[any]{Type: "question", Payload: questionView(state)})
		case "next":
			state := machine.Next()
			if state.Phase == attempt.PhaseFinished {
				finish()
				continue
			}
			push(outboundMessage[any]{Type: "question", Payload: questionView(state)})
		case "previous":
			state := machine.Previous()
			push(outboundMessage[any]{Type: "question", Payload: questionView(state)})
		default:
			push(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}})
		}
	}

	close(connClosed)
	<-tickerDone
	close(send)
	<-writerDone
}

func questionView(state attempt.State) questionPayload {
	q := state.Quiz.Questions[state.Index]
	return questionPayload{
		QuizID:       state.Quiz.ID,
		QuizTitle:    state.Quiz.Title,
		Index:        state.Index,
		Total:        len(state.Quiz.Questions),
		Prompt:       q.Prompt,
		Options:      q.Options,
		Multiple:     q.MultiChoice(),
		Selected:     state.Selected,
		QuestionTime: state.QuestionTime.Seconds(),
		OverallTime:  state.OverallTime.SecondsPtr(),
		Restored:     state.Phase == attempt.PhaseRestored,
	}
}

func startErrorMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrQuizNotFound):
		return "quiz not found"
	case errors.Is(err, domain.ErrInvalidQuizData):
		return "quiz has no usable questions"
	}
	return "could not load quiz"
}
