package session

import (
	"math"

	"github.com/mcanally/quorum/go/internal/models"
)

// Aggregate tallies answers against the question's options. The result
// order matches the option order, not answer arrival order. Answers that
// match no known option are dropped from the tally but still count toward
// the percentage denominator, so stray answers depress every percentage.
func Aggregate(options []string, answers map[string]string) []models.OptionTally {
	tally := make([]models.OptionTally, len(options))
	index := make(map[string]int, len(options))
	for i, opt := range options {
		tally[i] = models.OptionTally{Option: opt}
		index[opt] = i
	}

	for _, answer := range answers {
		if i, ok := index[answer]; ok {
			tally[i].Count++
		}
	}

	total := len(answers)
	if total == 0 {
		return tally
	}
	for i := range tally {
		tally[i].Percentage = int(math.Round(float64(tally[i].Count) / float64(total) * 100))
	}
	return tally
}
