package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/mcanally/quorum/go/internal/models"
	"github.com/rs/zerolog/log"
)

// Event payload types shared between the session core and the gateway.

// Type names an outbound session event.
type Type string

const (
	TypeParticipantsUpdate Type = "ParticipantsUpdate"
	TypeQuestionStatus     Type = "QuestionStatus"
	TypeQuestionStarted    Type = "QuestionStarted"
	TypeTimeUpdate         Type = "TimeUpdate"
	TypePollResults        Type = "PollResults"
	TypeQuestionError      Type = "QuestionError"
	TypeParticipantRemoved Type = "ParticipantRemoved"
	TypeChatMessage        Type = "ChatMessage"
)

// Event is the envelope every outbound notification travels in.
type Event struct {
	ID        string          `json:"id"`
	Type      Type            `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// New wraps a payload in an Event envelope.
func New(t Type, payload any) *Event {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Str("event_type", string(t)).Msg("failed to marshal event payload")
	}
	return &Event{
		ID:        uuid.New().String(),
		Type:      t,
		Timestamp: time.Now(),
		Data:      data,
	}
}

// ParticipantsUpdatePayload carries the current respondent display names.
type ParticipantsUpdatePayload struct {
	Respondents []string `json:"respondents"`
}

// QuestionStatusPayload tells moderators whether a new question may start.
type QuestionStatusPayload struct {
	CanAskNew bool `json:"can_ask_new"`
}

// QuestionStartedPayload announces a newly opened question to respondents.
type QuestionStartedPayload struct {
	QuestionID   string   `json:"question_id"`
	Text         string   `json:"text"`
	Options      []string `json:"options"`
	TimeLimitSec int      `json:"time_limit_sec"`
	Sequence     int      `json:"sequence"`
}

// TimeUpdatePayload carries the seconds left on the open question.
type TimeUpdatePayload struct {
	RemainingSec int `json:"remaining_sec"`
}

// PollResultsPayload is published exactly once per closed question.
type PollResultsPayload struct {
	Results    []models.OptionTally `json:"results"`
	Sequence   int                  `json:"sequence"`
	QuestionID string               `json:"question_id"`
	Text       string               `json:"text"`
}

// QuestionErrorPayload is sent to the requesting moderator only.
type QuestionErrorPayload struct {
	Message string `json:"message"`
}

// ParticipantRemovedPayload is sent to a removed respondent before its
// connection is closed.
type ParticipantRemovedPayload struct {
	Name string `json:"name"`
}
