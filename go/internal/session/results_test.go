package session

import (
	"reflect"
	"testing"

	"github.com/mcanally/quorum/go/internal/models"
)

func TestAggregate(t *testing.T) {
	tests := []struct {
		name    string
		options []string
		answers map[string]string
		want    []models.OptionTally
	}{
		{
			name:    "even split",
			options: []string{"A", "B"},
			answers: map[string]string{"Alice": "A", "Bob": "B"},
			want: []models.OptionTally{
				{Option: "A", Count: 1, Percentage: 50},
				{Option: "B", Count: 1, Percentage: 50},
			},
		},
		{
			name:    "single answer",
			options: []string{"A", "B"},
			answers: map[string]string{"Alice": "A"},
			want: []models.OptionTally{
				{Option: "A", Count: 1, Percentage: 100},
				{Option: "B", Count: 0, Percentage: 0},
			},
		},
		{
			name:    "no answers",
			options: []string{"A", "B"},
			answers: map[string]string{},
			want: []models.OptionTally{
				{Option: "A", Count: 0, Percentage: 0},
				{Option: "B", Count: 0, Percentage: 0},
			},
		},
		{
			// A stray answer stays in the denominator, depressing every
			// percentage instead of being excluded.
			name:    "unknown answer counts toward denominator",
			options: []string{"A", "B"},
			answers: map[string]string{"Alice": "A", "Bob": "C"},
			want: []models.OptionTally{
				{Option: "A", Count: 1, Percentage: 50},
				{Option: "B", Count: 0, Percentage: 0},
			},
		},
		{
			// Independent rounding; percentages need not sum to 100.
			name:    "rounded thirds",
			options: []string{"A", "B", "C"},
			answers: map[string]string{"p1": "A", "p2": "B", "p3": "C"},
			want: []models.OptionTally{
				{Option: "A", Count: 1, Percentage: 33},
				{Option: "B", Count: 1, Percentage: 33},
				{Option: "C", Count: 1, Percentage: 33},
			},
		},
		{
			name:    "result order follows option order",
			options: []string{"Z", "A"},
			answers: map[string]string{"Alice": "A"},
			want: []models.OptionTally{
				{Option: "Z", Count: 0, Percentage: 0},
				{Option: "A", Count: 1, Percentage: 100},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Aggregate(tt.options, tt.answers)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Aggregate() = %v, want %v", got, tt.want)
			}
		})
	}
}
