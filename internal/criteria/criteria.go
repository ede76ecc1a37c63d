// Package criteria holds the typed representation of the semi-structured
// rubric documents (criteria, evaluation scores, feedback, checklists) and the
// tolerant codec that guards the rest of the system against malformed input.
// Raw documents never travel past this boundary.
package criteria

import (
	"encoding/json"
	"sort"
)

// Level is one discrete achievement tier of a criterion, keyed by its label.
type Level struct {
	Description string  `json:"description"`
	Score       float64 `json:"score"`
}

// Criterion is a single weighted scoring dimension of a rubric.
type Criterion struct {
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	Weight      float64          `json:"weight"`
	Levels      map[string]Level `json:"levels,omitempty"`
}

// Document maps criterion keys to their definitions. Iteration order of Go
// maps is random; use SortedKeys for deterministic traversal.
type Document map[string]Criterion

// SortedKeys returns the criterion keys in ascending order.
func (d Document) SortedKeys() []string {
	keys := make([]string, 0, len(d))
	for key := range d {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// TotalWeight sums the criterion weights. Rubric editors aim for 100 but the
// codec does not enforce it.
func (d Document) TotalWeight() float64 {
	var total float64
	for _, criterion := range d {
		total += criterion.Weight
	}
	return total
}

// ScoreEntry is the awarded score for one criterion, optionally tagged with
// the level label that produced it.
type ScoreEntry struct {
	Score float64 `json:"score"`
	Level string  `json:"level,omitempty"`
}

// UnmarshalJSON accepts either a bare number or a {score, level} object;
// bare numbers are lifted into entries.
func (e *ScoreEntry) UnmarshalJSON(data []byte) error {
	var number float64
	if err := json.Unmarshal(data, &number); err == nil {
		*e = ScoreEntry{Score: number}
		return nil
	}

	type plain ScoreEntry
	var entry plain
	if err := json.Unmarshal(data, &entry); err != nil {
		return err
	}
	*e = ScoreEntry(entry)
	return nil
}

// ScoreSet maps criterion keys to awarded scores.
type ScoreSet map[string]ScoreEntry

// Total sums the awarded scores. An empty or unparseable set totals 0.
func (s ScoreSet) Total() float64 {
	var total float64
	for _, entry := range s {
		total += entry.Score
	}
	return total
}

// SortedKeys returns the score keys in ascending order.
func (s ScoreSet) SortedKeys() []string {
	keys := make([]string, 0, len(s))
	for key := range s {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// FeedbackSet maps criterion keys to free-text grader feedback.
type FeedbackSet map[string]string

// ChecklistItem is one entry of a submission checklist.
type ChecklistItem struct {
	ID      string `json:"id"`
	Text    string `json:"text"`
	Checked bool   `json:"checked"`
}
