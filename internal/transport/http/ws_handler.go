package http

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"quiz-battle-service/internal/app"
	"quiz-battle-service/internal/domain"
)

type WSHandler struct {
	service  *app.BattleService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.BattleService) *WSHandler {
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
	Text string `json:"text"`
}

type verdictPayload struct {
	Correct bool `json:"correct"`
}

type startedPayload struct {
	BattleID string          `json:"battleId"`
	State    domain.Snapshot `json:"state"`
}

type submitResult struct {
	Accepted bool                 `json:"accepted"`
	Outcome  *domain.RoundOutcome `json:"outcome,omitempty"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades HTTP requests to websockets and runs one battle per connection.
// Query: /ws?quizId=...&playerId=...
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	quizID := r.URL.Query().Get("quizId")
	playerID := r.URL.Query().Get("playerId")
	if quizID == "" || playerID == "" {
		http.Error(w, "missing quizId or playerId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	battleID, state, err := h.service.Start(r.Context(), quizID, playerID)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	defer h.service.End(r.Context(), battleID)

	events, cancel, err := h.service.Subscribe(r.Context(), battleID)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	eventsDone := make(chan struct{})

	// Single writer: gorilla connections do not support concurrent writes.
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	send <- outboundMessage[any]{Type: "started", Payload: startedPayload{BattleID: battleID, State: state}}

	go func() {
		defer close(eventsDone)
		for {
			select {
			case event, ok := <-events:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: string(event.Type), Payload: event}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	reply := func(msg outboundMessage[any]) bool {
		select {
		case send <- msg:
			return true
		case <-writerDone:
			return false
		}
	}
	replyError := func(message string) bool {
		return reply(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: message}})
	}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		ok := true
		switch inbound.Type {
		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				ok = replyError("invalid answer payload")
				break
			}
			outcome, accepted, err := h.service.SubmitAnswer(r.Context(), battleID, payload.Text)
			if err != nil {
				ok = replyError(err.Error())
				break
			}
			ok = reply(outboundMessage[any]{Type: "answerResult", Payload: newSubmitResult(outcome, accepted)})
		case "verdict":
			var payload verdictPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				ok = replyError("invalid verdict payload")
				break
			}
			outcome, accepted, err := h.service.SubmitVerdict(r.Context(), battleID, payload.Correct)
			if err != nil {
				ok = replyError(err.Error())
				break
			}
			ok = reply(outboundMessage[any]{Type: "answerResult", Payload: newSubmitResult(outcome, accepted)})
		case "skill":
			if err := h.service.ActivateSkill(r.Context(), battleID); err != nil {
				ok = replyError(err.Error())
			}
		case "state":
			snapshot, err := h.service.State(r.Context(), battleID)
			if err != nil {
				ok = replyError(err.Error())
				break
			}
			ok = reply(outboundMessage[any]{Type: "state", Payload: domain.Event{BattleID: battleID, Type: domain.EventState, State: &snapshot}})
		default:
			ok = replyError("unsupported message type")
		}
		if !ok {
			break
		}
	}

	close(closeSignals)
	<-eventsDone
	close(send)
	<-writerDone
}

func newSubmitResult(outcome domain.RoundOutcome, accepted bool) submitResult {
	if !accepted {
		return submitResult{}
	}
	return submitResult{Accepted: true, Outcome: &outcome}
}
