package session

import (
	"sync"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcanally/quorum/go/internal/models"
	"github.com/mcanally/quorum/go/internal/session/events"
	"github.com/rs/zerolog/log"
)

// Broadcaster defines what the session needs from the transport layer.
// The core never knows how fan-out grouping is implemented.
type Broadcaster interface {
	NotifyAll(ev *events.Event)
	NotifyRespondents(ev *events.Event)
	NotifyModerators(ev *events.Event)
	NotifyOne(id uuid.UUID, ev *events.Event)
}

// Session owns all live state for the single running Q&A round: the roster,
// the answer ledger, the currently open question and its countdown. Inbound
// events mutate state only through its methods; a single mutex serializes
// them with the countdown's tick callbacks.
type Session struct {
	mu      sync.Mutex
	clock   clockwork.Clock
	gateway Broadcaster

	roster *Roster
	ledger *AnswerLedger

	current   *models.Question
	countdown *Countdown
	remaining int
	seq       int
}

// New creates an idle session. In production pass clockwork.NewRealClock();
// tests drive the countdown with a FakeClock.
func New(gateway Broadcaster, clock clockwork.Clock) *Session {
	return &Session{
		clock:   clock,
		gateway: gateway,
		roster:  NewRoster(),
		ledger:  NewAnswerLedger(),
	}
}

// ModeratorJoin registers the connection as a moderator and tells it whether
// a question may currently be started.
func (s *Session) ModeratorJoin(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.roster.Join(id, "", models.RoleModerator)
	s.gateway.NotifyOne(id, events.New(events.TypeQuestionStatus, events.QuestionStatusPayload{
		CanAskNew: s.completeLocked(),
	}))
	s.broadcastParticipantsLocked()

	log.Info().Str("conn_id", id.String()).Msg("moderator joined")
}

// RespondentJoin registers the connection as a respondent. A respondent
// joining mid-question receives the open question and the time left on it.
func (s *Session) RespondentJoin(id uuid.UUID, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.roster.Join(id, name, models.RoleRespondent)
	s.broadcastParticipantsLocked()

	if s.current != nil {
		s.gateway.NotifyOne(id, events.New(events.TypeQuestionStarted, questionStartedPayload(s.current)))
		s.gateway.NotifyOne(id, events.New(events.TypeTimeUpdate, events.TimeUpdatePayload{
			RemainingSec: s.remaining,
		}))
	}

	log.Info().Str("conn_id", id.String()).Str("name", name).Msg("respondent joined")
}

// StartQuestion opens a new question. Permitted from idle, or while the
// current question already satisfies the completeness predicate (a closure
// race window); otherwise the requester alone receives a QuestionError and
// nothing changes.
func (s *Session) StartQuestion(requester uuid.UUID, q models.Question) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.completeLocked() {
		log.Warn().
			Str("question_id", q.ID).
			Str("open_question_id", s.current.ID).
			Msg("rejected question start while another is open")
		s.gateway.NotifyOne(requester, events.New(events.TypeQuestionError, events.QuestionErrorPayload{
			Message: "a question is still open",
		}))
		return
	}

	// A superseded question that expired but whose closure has not run yet
	// is discarded here; stopping its countdown disarms the expiry callback.
	if s.countdown != nil {
		s.countdown.Stop()
		s.countdown = nil
	}

	s.seq++
	q.Sequence = s.seq
	s.current = &q
	s.ledger.Open(q.ID)
	s.remaining = q.TimeLimitSec
	s.countdown = startCountdown(s.clock, q.TimeLimitSec, s.handleTick, s.handleExpiry)

	s.gateway.NotifyRespondents(events.New(events.TypeQuestionStarted, questionStartedPayload(s.current)))
	s.gateway.NotifyAll(events.New(events.TypeTimeUpdate, events.TimeUpdatePayload{
		RemainingSec: q.TimeLimitSec,
	}))
	s.gateway.NotifyModerators(events.New(events.TypeQuestionStatus, events.QuestionStatusPayload{
		CanAskNew: false,
	}))

	log.Info().
		Str("question_id", q.ID).
		Int("sequence", q.Sequence).
		Int("time_limit_sec", q.TimeLimitSec).
		Int("respondents", s.roster.RespondentCount()).
		Msg("question started")
}

// SubmitAnswer records an answer for the open question. Submissions for a
// mismatched question id and duplicates from the same respondent are
// silently ignored. The answer that completes the roster closes the
// question immediately, ahead of the countdown.
func (s *Session) SubmitAnswer(questionID, respondent, answer string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil || s.current.ID != questionID {
		log.Debug().Str("question_id", questionID).Str("respondent", respondent).Msg("ignoring answer for non-open question")
		return
	}
	if !s.ledger.Submit(questionID, respondent, answer) {
		log.Debug().Str("question_id", questionID).Str("respondent", respondent).Msg("ignoring duplicate answer")
		return
	}

	log.Debug().
		Str("question_id", questionID).
		Str("respondent", respondent).
		Int("answered", s.ledger.Size(questionID)).
		Int("respondents", s.roster.RespondentCount()).
		Msg("answer accepted")

	if s.ledger.Size(questionID) >= s.roster.RespondentCount() {
		// Cancel before closing so the expiry path cannot fire a second
		// closure for the same question.
		if s.countdown != nil {
			s.countdown.Stop()
			s.countdown = nil
		}
		s.closeLocked()
	}
}

// RemoveParticipant removes the first respondent with the given display name
// and returns its identity for forced disconnection by the gateway. An
// already-submitted answer from the removed respondent stays counted.
func (s *Session) RemoveParticipant(name string) (uuid.UUID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.roster.RemoveByName(name)
	if !ok {
		log.Debug().Str("name", name).Msg("ignoring removal of unknown respondent")
		return uuid.Nil, false
	}
	s.broadcastParticipantsLocked()

	log.Info().Str("name", name).Str("conn_id", id.String()).Msg("respondent removed")
	return id, true
}

// Disconnect drops the participant for a closed connection. An open
// question is left untouched.
func (s *Session) Disconnect(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.roster.Get(id)
	if !ok {
		return
	}
	s.roster.Remove(id)
	s.broadcastParticipantsLocked()

	log.Info().Str("conn_id", id.String()).Str("role", string(p.Role)).Msg("participant disconnected")
}

func (s *Session) handleTick(c *Countdown, remaining int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.countdown != c || s.current == nil {
		return
	}
	s.remaining = remaining
	s.gateway.NotifyAll(events.New(events.TypeTimeUpdate, events.TimeUpdatePayload{
		RemainingSec: remaining,
	}))
}

func (s *Session) handleExpiry(c *Countdown) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.countdown != c || s.current == nil {
		return
	}
	s.countdown = nil
	log.Info().Str("question_id", s.current.ID).Msg("countdown expired")
	s.closeLocked()
}

// completeLocked is the predicate gating new questions: true when idle, when
// every current respondent has answered, or when the countdown ran out.
func (s *Session) completeLocked() bool {
	if s.current == nil {
		return true
	}
	if s.remaining <= 0 {
		return true
	}
	return s.ledger.Size(s.current.ID) >= s.roster.RespondentCount()
}

// closeLocked finalizes the open question: aggregate over the sealed answer
// set, publish results once, reopen the floor for moderators. Both closure
// triggers funnel here with the mutex held; clearing current makes any
// second trigger a no-op.
func (s *Session) closeLocked() {
	q := s.current
	answers := s.ledger.Snapshot(q.ID)
	s.current = nil
	s.countdown = nil

	s.gateway.NotifyAll(events.New(events.TypePollResults, events.PollResultsPayload{
		Results:    Aggregate(q.Options, answers),
		Sequence:   q.Sequence,
		QuestionID: q.ID,
		Text:       q.Text,
	}))
	s.gateway.NotifyModerators(events.New(events.TypeQuestionStatus, events.QuestionStatusPayload{
		CanAskNew: true,
	}))

	log.Info().
		Str("question_id", q.ID).
		Int("sequence", q.Sequence).
		Int("answers", len(answers)).
		Msg("question closed")
}

func (s *Session) broadcastParticipantsLocked() {
	s.gateway.NotifyAll(events.New(events.TypeParticipantsUpdate, events.ParticipantsUpdatePayload{
		Respondents: s.roster.RespondentNames(),
	}))
}

func questionStartedPayload(q *models.Question) events.QuestionStartedPayload {
	return events.QuestionStartedPayload{
		QuestionID:   q.ID,
		Text:         q.Text,
		Options:      q.Options,
		TimeLimitSec: q.TimeLimitSec,
		Sequence:     q.Sequence,
	}
}
