package domain

import (
	"fmt"
	"slices"
	"time"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
)

// GroupSnapshot is a point-in-time copy of one task group and its outgoing
// dependency edges.
type GroupSnapshot struct {
	ID          TaskID    `json:"id"`
	State       string    `json:"state"`
	Total       int       `json:"total"`
	Remaining   int       `json:"remaining"`
	Outstanding int       `json:"outstanding"`
	Dependents  []TaskID  `json:"dependents,omitempty"`
	SubmittedAt time.Time `json:"submittedAt"`
	CompletedAt time.Time `json:"completedAt,omitzero"`
}

// snapshot must be called with the owning registry's lock held.
func (g *TaskGroup) snapshot() GroupSnapshot {
	return GroupSnapshot{
		ID:          g.ID,
		State:       g.state.String(),
		Total:       g.total,
		Remaining:   g.Remaining(),
		Outstanding: g.outstanding,
		Dependents:  slices.Clone(g.dependents),
		SubmittedAt: g.SubmittedAt,
		CompletedAt: g.CompletedAt,
	}
}

// MarshalSnapshot renders a registry snapshot as indented JSON.
func MarshalSnapshot(groups []GroupSnapshot) ([]byte, error) {
	data, err := json.Marshal(groups, jsontext.WithIndent("  "), json.Deterministic(true))
	if err != nil {
		return nil, fmt.Errorf("error marshaling graph snapshot: %w", err)
	}
	return data, nil
}

// UnmarshalSnapshot parses JSON produced by MarshalSnapshot.
func UnmarshalSnapshot(data []byte) ([]GroupSnapshot, error) {
	var groups []GroupSnapshot
	if err := json.Unmarshal(data, &groups); err != nil {
		return nil, fmt.Errorf("error parsing graph snapshot: %w", err)
	}
	return groups, nil
}
