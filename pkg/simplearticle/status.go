package simplearticle

// statusTransitions is the fixed directed graph of allowed lifecycle moves.
// The adjacency lists are ordered; AllowedNextStatuses preserves that order.
// Self-transitions are never allowed (no state lists itself).
var statusTransitions = map[ArticleStatus][]ArticleStatus{
	ArticleStatusDraft:         {ArticleStatusPendingRender, ArticleStatusArchived},
	ArticleStatusPendingRender: {ArticleStatusPendingReview, ArticleStatusDraft, ArticleStatusArchived},
	ArticleStatusPendingReview: {ArticleStatusPublished, ArticleStatusPendingRender, ArticleStatusArchived},
	ArticleStatusPublished:     {ArticleStatusArchived},
	ArticleStatusArchived:      {ArticleStatusDraft},
}

// IsValid reports whether s is one of the recognized lifecycle states.
func (s ArticleStatus) IsValid() bool {
	_, ok := statusTransitions[s]
	return ok
}

// CanTransition reports whether the workflow allows moving from current to
// target. Unknown states have no outgoing edges.
func CanTransition(current, target ArticleStatus) bool {
	for _, next := range statusTransitions[current] {
		if next == target {
			return true
		}
	}
	return false
}

// AllowedNextStatuses returns the ordered list of states reachable from
// current in one step. The result is a copy; callers may mutate it. An
// unrecognized state yields an empty list.
func AllowedNextStatuses(current ArticleStatus) []ArticleStatus {
	next := statusTransitions[current]
	out := make([]ArticleStatus, len(next))
	copy(out, next)
	return out
}
