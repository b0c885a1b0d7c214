package simplearticle_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tendant/simple-articles/pkg/simplearticle"
)

func TestArticleStatusIsValid(t *testing.T) {
	valid := []simplearticle.ArticleStatus{
		simplearticle.ArticleStatusDraft,
		simplearticle.ArticleStatusPendingRender,
		simplearticle.ArticleStatusPendingReview,
		simplearticle.ArticleStatusPublished,
		simplearticle.ArticleStatusArchived,
	}
	for _, s := range valid {
		assert.True(t, s.IsValid(), "expected %s to be valid", s)
	}

	assert.False(t, simplearticle.ArticleStatus("").IsValid())
	assert.False(t, simplearticle.ArticleStatus("deleted").IsValid())
	assert.False(t, simplearticle.ArticleStatus("Draft").IsValid())
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name    string
		from    simplearticle.ArticleStatus
		to      simplearticle.ArticleStatus
		allowed bool
	}{
		{"draft to pending_render", simplearticle.ArticleStatusDraft, simplearticle.ArticleStatusPendingRender, true},
		{"draft to archived", simplearticle.ArticleStatusDraft, simplearticle.ArticleStatusArchived, true},
		{"draft to published", simplearticle.ArticleStatusDraft, simplearticle.ArticleStatusPublished, false},
		{"draft to pending_review", simplearticle.ArticleStatusDraft, simplearticle.ArticleStatusPendingReview, false},
		{"pending_render to pending_review", simplearticle.ArticleStatusPendingRender, simplearticle.ArticleStatusPendingReview, true},
		{"pending_render back to draft", simplearticle.ArticleStatusPendingRender, simplearticle.ArticleStatusDraft, true},
		{"pending_render to published", simplearticle.ArticleStatusPendingRender, simplearticle.ArticleStatusPublished, false},
		{"pending_review to published", simplearticle.ArticleStatusPendingReview, simplearticle.ArticleStatusPublished, true},
		{"pending_review back to pending_render", simplearticle.ArticleStatusPendingReview, simplearticle.ArticleStatusPendingRender, true},
		{"pending_review to draft", simplearticle.ArticleStatusPendingReview, simplearticle.ArticleStatusDraft, false},
		{"published to archived", simplearticle.ArticleStatusPublished, simplearticle.ArticleStatusArchived, true},
		{"published to draft", simplearticle.ArticleStatusPublished, simplearticle.ArticleStatusDraft, false},
		{"archived to draft", simplearticle.ArticleStatusArchived, simplearticle.ArticleStatusDraft, true},
		{"archived to published", simplearticle.ArticleStatusArchived, simplearticle.ArticleStatusPublished, false},
		{"self transition rejected", simplearticle.ArticleStatusDraft, simplearticle.ArticleStatusDraft, false},
		{"unknown source", simplearticle.ArticleStatus("bogus"), simplearticle.ArticleStatusDraft, false},
		{"unknown target", simplearticle.ArticleStatusDraft, simplearticle.ArticleStatus("bogus"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, simplearticle.CanTransition(tt.from, tt.to))
		})
	}
}

func TestAllowedNextStatuses(t *testing.T) {
	next := simplearticle.AllowedNextStatuses(simplearticle.ArticleStatusPendingReview)
	assert.Equal(t, []simplearticle.ArticleStatus{
		simplearticle.ArticleStatusPublished,
		simplearticle.ArticleStatusPendingRender,
		simplearticle.ArticleStatusArchived,
	}, next)

	// Every status can be archived except archived itself, and archived
	// can only reopen into draft.
	assert.Equal(t, []simplearticle.ArticleStatus{simplearticle.ArticleStatusDraft},
		simplearticle.AllowedNextStatuses(simplearticle.ArticleStatusArchived))

	assert.Empty(t, simplearticle.AllowedNextStatuses(simplearticle.ArticleStatus("bogus")))
}

func TestAllowedNextStatusesReturnsCopy(t *testing.T) {
	first := simplearticle.AllowedNextStatuses(simplearticle.ArticleStatusDraft)
	first[0] = simplearticle.ArticleStatus("mutated")

	second := simplearticle.AllowedNextStatuses(simplearticle.ArticleStatusDraft)
	assert.Equal(t, simplearticle.ArticleStatusPendingRender, second[0])
}
