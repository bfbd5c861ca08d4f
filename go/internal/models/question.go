package models

// Question is one prompt put to the room. Immutable once created; the
// session drops its reference when the question closes.
type Question struct {
	ID           string   `json:"id"`
	Text         string   `json:"text"`
	Options      []string `json:"options"`
	TimeLimitSec int      `json:"time_limit_sec"`
	Sequence     int      `json:"sequence"`
}

// OptionTally is the aggregated result for a single option. Percentages
// are rounded independently, so a result set may not sum to 100.
type OptionTally struct {
	Option     string `json:"option"`
	Count      int    `json:"count"`
	Percentage int    `json:"percentage"`
}
