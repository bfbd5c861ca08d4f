package gateway

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/mcanally/quorum/go/internal/models"
	"github.com/mcanally/quorum/go/internal/session/events"
	"github.com/rs/zerolog/log"
)

// EventSink defines what the gateway needs from the session core.
type EventSink interface {
	ModeratorJoin(id uuid.UUID)
	RespondentJoin(id uuid.UUID, name string)
	StartQuestion(requester uuid.UUID, q models.Question)
	SubmitAnswer(questionID, respondent, answer string)
	RemoveParticipant(name string) (uuid.UUID, bool)
	Disconnect(id uuid.UUID)
}

// clientMessage is the inbound JSON envelope read off a WebSocket.
type clientMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Inbound message types.
const (
	msgModeratorJoin     = "moderator_join"
	msgRespondentJoin    = "respondent_join"
	msgStartQuestion     = "start_question"
	msgSubmitAnswer      = "submit_answer"
	msgRemoveParticipant = "remove_participant"
	msgChatMessage       = "chat_message"
)

type respondentJoinRequest struct {
	Name string `json:"name"`
}

type startQuestionRequest struct {
	ID           string   `json:"id"`
	Text         string   `json:"text"`
	Options      []string `json:"options"`
	TimeLimitSec int      `json:"time_limit_sec"`
}

type submitAnswerRequest struct {
	QuestionID string `json:"question_id"`
	Respondent string `json:"respondent"`
	Answer     string `json:"answer"`
}

type removeParticipantRequest struct {
	Name string `json:"name"`
}

// Dispatcher decodes client messages and routes them into the session core.
// Chat messages never reach the core; they are relayed verbatim.
type Dispatcher struct {
	sink    EventSink
	manager *ConnectionManager
}

// NewDispatcher creates a dispatcher routing into the given sink.
func NewDispatcher(sink EventSink, manager *ConnectionManager) *Dispatcher {
	return &Dispatcher{sink: sink, manager: manager}
}

// HandleMessage decodes and dispatches one client message. Malformed
// payloads are dropped here; the core only ever sees valid events.
func (d *Dispatcher) HandleMessage(connID uuid.UUID, raw []byte) {
	var msg clientMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		log.Warn().Err(err).Str("conn_id", connID.String()).Msg("dropping malformed client message")
		return
	}

	switch msg.Type {
	case msgModeratorJoin:
		d.manager.SetRole(connID, models.RoleModerator)
		d.sink.ModeratorJoin(connID)

	case msgRespondentJoin:
		var req respondentJoinRequest
		if err := json.Unmarshal(msg.Data, &req); err != nil || req.Name == "" {
			log.Warn().Err(err).Str("conn_id", connID.String()).Msg("dropping respondent join without a name")
			return
		}
		d.manager.SetRole(connID, models.RoleRespondent)
		d.sink.RespondentJoin(connID, req.Name)

	case msgStartQuestion:
		var req startQuestionRequest
		if err := json.Unmarshal(msg.Data, &req); err != nil || len(req.Options) == 0 || req.TimeLimitSec <= 0 {
			log.Warn().Err(err).Str("conn_id", connID.String()).Msg("rejecting invalid question")
			d.manager.NotifyOne(connID, events.New(events.TypeQuestionError, events.QuestionErrorPayload{
				Message: "invalid question",
			}))
			return
		}
		if req.ID == "" {
			req.ID = uuid.New().String()
		}
		d.sink.StartQuestion(connID, models.Question{
			ID:           req.ID,
			Text:         req.Text,
			Options:      req.Options,
			TimeLimitSec: req.TimeLimitSec,
		})

	case msgSubmitAnswer:
		var req submitAnswerRequest
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			log.Warn().Err(err).Str("conn_id", connID.String()).Msg("dropping malformed answer")
			return
		}
		d.sink.SubmitAnswer(req.QuestionID, req.Respondent, req.Answer)

	case msgRemoveParticipant:
		var req removeParticipantRequest
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			log.Warn().Err(err).Str("conn_id", connID.String()).Msg("dropping malformed removal")
			return
		}
		id, ok := d.sink.RemoveParticipant(req.Name)
		if !ok {
			return
		}
		// Final frame to the removed respondent, then a forced close.
		d.manager.SendDirect(id, events.New(events.TypeParticipantRemoved, events.ParticipantRemovedPayload{
			Name: req.Name,
		}))
		d.manager.CloseConnection(id)

	case msgChatMessage:
		// Relay untouched; the payload is opaque to the server.
		d.manager.NotifyAll(events.New(events.TypeChatMessage, msg.Data))

	default:
		log.Warn().Str("conn_id", connID.String()).Str("type", msg.Type).Msg("unknown client message type")
	}
}

// HandleDisconnect tells the core a connection has gone away.
func (d *Dispatcher) HandleDisconnect(connID uuid.UUID) {
	d.sink.Disconnect(connID)
}
