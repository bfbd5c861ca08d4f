package session

import (
	"github.com/google/uuid"
	"github.com/mcanally/quorum/go/internal/models"
)

// Roster tracks connected participants keyed by connection identity.
// Not safe for concurrent use; the owning Session serializes access.
type Roster struct {
	byID  map[uuid.UUID]*models.Participant
	order []uuid.UUID
}

func NewRoster() *Roster {
	return &Roster{
		byID: make(map[uuid.UUID]*models.Participant),
	}
}

// Join inserts or overwrites the participant for the given identity.
// A re-joining identity keeps its original roster position.
func (r *Roster) Join(id uuid.UUID, name string, role models.Role) {
	if _, exists := r.byID[id]; !exists {
		r.order = append(r.order, id)
	}
	r.byID[id] = &models.Participant{ID: id, Name: name, Role: role}
}

// Remove deletes the participant if present. Idempotent.
func (r *Roster) Remove(id uuid.UUID) {
	if _, exists := r.byID[id]; !exists {
		return
	}
	delete(r.byID, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// RemoveByName removes the first respondent with the given display name and
// returns its identity so the caller can force-disconnect that connection.
func (r *Roster) RemoveByName(name string) (uuid.UUID, bool) {
	for _, id := range r.order {
		p := r.byID[id]
		if p.Role == models.RoleRespondent && p.Name == name {
			r.Remove(id)
			return id, true
		}
	}
	return uuid.Nil, false
}

// Get returns the participant for the given identity.
func (r *Roster) Get(id uuid.UUID) (*models.Participant, bool) {
	p, ok := r.byID[id]
	return p, ok
}

// RespondentCount returns the number of current respondents.
func (r *Roster) RespondentCount() int {
	n := 0
	for _, p := range r.byID {
		if p.Role == models.RoleRespondent {
			n++
		}
	}
	return n
}

// RespondentNames returns respondent display names in insertion order.
// The order is for display only; nothing downstream depends on it.
func (r *Roster) RespondentNames() []string {
	names := make([]string, 0, len(r.order))
	for _, id := range r.order {
		if p := r.byID[id]; p.Role == models.RoleRespondent {
			names = append(names, p.Name)
		}
	}
	return names
}
