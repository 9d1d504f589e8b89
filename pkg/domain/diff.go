package domain

// AttemptDiff represents the changes between two attempt states.
// It is serialized to JSON for partial updates on SSE clients.
type AttemptDiff struct {
	// AttemptID is always present to identify the target.
	AttemptID string `json:"attempt_id"`

	CurrentNodeID *string `json:"current_node_id,omitempty"`
	TotalScore    *int    `json:"total_score,omitempty"`
	IsCompleted   *bool   `json:"is_completed,omitempty"`

	// Path describes how visitedPath changed: appended ids, or a truncation after goBack.
	Path *PathDelta `json:"path,omitempty"`

	// AnswerCount is set when the number of answers changed.
	AnswerCount *int `json:"answer_count,omitempty"`
}

// PathDelta describes a change of the visited path.
// Truncated is the new length when entries were removed; Appended holds ids added after that length.
type PathDelta struct {
	Truncated *int     `json:"truncated,omitempty"`
	Appended  []string `json:"appended,omitempty"`
}

// Diff calculates the difference between oldState and newState.
// If oldState is nil, it returns a diff representing the entire newState (initial load).
// It returns nil when nothing changed.
func Diff(oldState, newState *AttemptState) *AttemptDiff {
	if newState == nil {
		return nil
	}

	diff := &AttemptDiff{AttemptID: newState.ID}

	if oldState == nil || oldState.CurrentNodeID != newState.CurrentNodeID {
		v := newState.CurrentNodeID
		diff.CurrentNodeID = &v
	}
	if oldState == nil || oldState.TotalScore != newState.TotalScore {
		v := newState.TotalScore
		diff.TotalScore = &v
	}
	if oldState == nil || oldState.IsCompleted != newState.IsCompleted {
		v := newState.IsCompleted
		diff.IsCompleted = &v
	}
	if oldState == nil || len(oldState.Answers) != len(newState.Answers) {
		v := len(newState.Answers)
		diff.AnswerCount = &v
	}
	diff.Path = diffPath(oldState, newState)

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

func diffPath(old, new *AttemptState) *PathDelta {
	if old == nil {
		if len(new.VisitedPath) == 0 {
			return nil
		}
		return &PathDelta{Appended: new.VisitedPath}
	}

	// Length of the common prefix.
	common := 0
	for common < len(old.VisitedPath) && common < len(new.VisitedPath) &&
		old.VisitedPath[common] == new.VisitedPath[common] {
		common++
	}

	if common == len(old.VisitedPath) && common == len(new.VisitedPath) {
		return nil
	}

	delta := &PathDelta{}
	if common < len(old.VisitedPath) {
		n := common
		delta.Truncated = &n
	}
	if common < len(new.VisitedPath) {
		delta.Appended = new.VisitedPath[common:]
	}
	return delta
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *AttemptDiff) IsEmpty() bool {
	return d.CurrentNodeID == nil &&
		d.TotalScore == nil &&
		d.IsCompleted == nil &&
		d.AnswerCount == nil &&
		d.Path == nil
}
