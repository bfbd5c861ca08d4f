package session

// AnswerLedger records at most one answer per respondent per question.
// Not safe for concurrent use; the owning Session serializes access.
type AnswerLedger struct {
	// question id -> respondent display name -> chosen option
	answers map[string]map[string]string
}

func NewAnswerLedger() *AnswerLedger {
	return &AnswerLedger{
		answers: make(map[string]map[string]string),
	}
}

// Open creates an empty answer set for the question id. Ids are
// caller-generated and must be unique; the session guarantees that.
func (l *AnswerLedger) Open(questionID string) {
	l.answers[questionID] = make(map[string]string)
}

// Submit records an answer. Returns false without mutating anything when
// the question id is unknown or the respondent already answered.
func (l *AnswerLedger) Submit(questionID, respondent, answer string) bool {
	set, ok := l.answers[questionID]
	if !ok {
		return false
	}
	if _, dup := set[respondent]; dup {
		return false
	}
	set[respondent] = answer
	return true
}

// Size returns the number of answers recorded for the question.
func (l *AnswerLedger) Size(questionID string) int {
	return len(l.answers[questionID])
}

// Snapshot returns a copy of the question's answer set.
func (l *AnswerLedger) Snapshot(questionID string) map[string]string {
	set := l.answers[questionID]
	out := make(map[string]string, len(set))
	for name, answer := range set {
		out[name] = answer
	}
	return out
}
