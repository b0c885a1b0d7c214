package simplearticle_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-articles/pkg/simplearticle"
	"github.com/tendant/simple-articles/pkg/simplearticle/repo/memory"
	memorystorage "github.com/tendant/simple-articles/pkg/simplearticle/storage/memory"
)

func TestServiceCreation(t *testing.T) {
	tests := []struct {
		name        string
		options     []simplearticle.Option
		expectError bool
	}{
		{
			name:        "no options should fail",
			options:     []simplearticle.Option{},
			expectError: true,
		},
		{
			name: "with repository should succeed",
			options: []simplearticle.Option{
				simplearticle.WithRepository(memory.New()),
			},
			expectError: false,
		},
		{
			name: "with repository and blob store should succeed",
			options: []simplearticle.Option{
				simplearticle.WithRepository(memory.New()),
				simplearticle.WithBlobStore("memory", memorystorage.New()),
			},
			expectError: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := simplearticle.New(tt.options...)

			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, svc)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, svc)
			}
		})
	}
}

func setupTestService(t *testing.T) simplearticle.Service {
	t.Helper()

	svc, err := simplearticle.New(
		simplearticle.WithRepository(memory.New()),
		simplearticle.WithBlobStore("memory", memorystorage.New()),
		simplearticle.WithEventSink(simplearticle.NewNoopEventSink()),
	)
	require.NoError(t, err)
	require.NotNil(t, svc)

	return svc
}

func createTestArticle(t *testing.T, svc simplearticle.Service) *simplearticle.Article {
	t.Helper()

	article, err := svc.CreateArticle(context.Background(), simplearticle.CreateArticleRequest{
		Title:   "Test Article",
		Content: "Initial content",
		Tags:    []string{"travel", "food"},
	})
	require.NoError(t, err)
	return article
}

func TestCreateArticle(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()

	t.Run("successful creation", func(t *testing.T) {
		article, err := svc.CreateArticle(ctx, simplearticle.CreateArticleRequest{
			Title:    "My First Article",
			Content:  "Hello world",
			Tags:     []string{"intro"},
			Category: "misc",
		})
		require.NoError(t, err)

		assert.NotEqual(t, uuid.Nil, article.ID)
		assert.Equal(t, "My First Article", article.Title)
		assert.Equal(t, simplearticle.ArticleStatusDraft, article.Status)
		assert.Equal(t, []string{"intro"}, article.Tags)
		assert.False(t, article.CreatedAt.IsZero())

		// Creation records version 1
		versions, err := svc.ListVersions(ctx, article.ID)
		require.NoError(t, err)
		require.Len(t, versions, 1)
		assert.Equal(t, 1, versions[0].VersionNum)
		assert.Equal(t, "My First Article", versions[0].Title)
		assert.Equal(t, "Hello world", versions[0].Content)
	})

	t.Run("missing title fails", func(t *testing.T) {
		_, err := svc.CreateArticle(ctx, simplearticle.CreateArticleRequest{
			Content: "no title",
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, simplearticle.ErrInvalidInput)
	})

	t.Run("nil tags become empty slice", func(t *testing.T) {
		article, err := svc.CreateArticle(ctx, simplearticle.CreateArticleRequest{Title: "No Tags"})
		require.NoError(t, err)
		assert.NotNil(t, article.Tags)
		assert.Empty(t, article.Tags)
	})
}

func TestGetArticle(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()
	article := createTestArticle(t, svc)

	got, err := svc.GetArticle(ctx, article.ID)
	require.NoError(t, err)
	assert.Equal(t, article.ID, got.ID)
	assert.Equal(t, article.Title, got.Title)

	_, err = svc.GetArticle(ctx, uuid.New())
	assert.ErrorIs(t, err, simplearticle.ErrArticleNotFound)
}

func TestUpdateArticleVersioning(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()

	t.Run("content update records a version", func(t *testing.T) {
		article := createTestArticle(t, svc)

		newContent := "Revised content"
		updated, err := svc.UpdateArticle(ctx, simplearticle.UpdateArticleRequest{
			ID:      article.ID,
			Content: &newContent,
		})
		require.NoError(t, err)
		assert.Equal(t, "Revised content", updated.Content)
		assert.Equal(t, article.Title, updated.Title)

		versions, err := svc.ListVersions(ctx, article.ID)
		require.NoError(t, err)
		require.Len(t, versions, 2)
		// Newest first
		assert.Equal(t, 2, versions[0].VersionNum)
		assert.Equal(t, "Revised content", versions[0].Content)
		// The snapshot carries the merged state, including the untouched title
		assert.Equal(t, article.Title, versions[0].Title)
	})

	t.Run("same value still records a version", func(t *testing.T) {
		article := createTestArticle(t, svc)

		sameTitle := article.Title
		_, err := svc.UpdateArticle(ctx, simplearticle.UpdateArticleRequest{
			ID:    article.ID,
			Title: &sameTitle,
		})
		require.NoError(t, err)

		versions, err := svc.ListVersions(ctx, article.ID)
		require.NoError(t, err)
		assert.Len(t, versions, 2)
	})

	t.Run("tags only update records no version", func(t *testing.T) {
		article := createTestArticle(t, svc)

		newTags := []string{"only", "tags"}
		updated, err := svc.UpdateArticle(ctx, simplearticle.UpdateArticleRequest{
			ID:   article.ID,
			Tags: &newTags,
		})
		require.NoError(t, err)
		assert.Equal(t, newTags, updated.Tags)

		versions, err := svc.ListVersions(ctx, article.ID)
		require.NoError(t, err)
		assert.Len(t, versions, 1)
	})

	t.Run("update of missing article fails", func(t *testing.T) {
		title := "x"
		_, err := svc.UpdateArticle(ctx, simplearticle.UpdateArticleRequest{
			ID:    uuid.New(),
			Title: &title,
		})
		assert.ErrorIs(t, err, simplearticle.ErrArticleNotFound)
	})
}

func TestConcurrentUpdatesNumberVersionsContiguously(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()
	article := createTestArticle(t, svc)

	const writers = 8
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			content := fmt.Sprintf("edit %d", i)
			_, err := svc.UpdateArticle(ctx, simplearticle.UpdateArticleRequest{
				ID:      article.ID,
				Content: &content,
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	versions, err := svc.ListVersions(ctx, article.ID)
	require.NoError(t, err)
	require.Len(t, versions, writers+1)

	// Numbers are contiguous 1..writers+1 with no duplicates
	seen := make(map[int]bool)
	for _, v := range versions {
		assert.False(t, seen[v.VersionNum], "duplicate version number %d", v.VersionNum)
		seen[v.VersionNum] = true
	}
	for n := 1; n <= writers+1; n++ {
		assert.True(t, seen[n], "missing version number %d", n)
	}
}

func TestTransitionStatus(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()

	t.Run("walks the full pipeline", func(t *testing.T) {
		article := createTestArticle(t, svc)

		chain := []simplearticle.ArticleStatus{
			simplearticle.ArticleStatusPendingRender,
			simplearticle.ArticleStatusPendingReview,
			simplearticle.ArticleStatusPublished,
			simplearticle.ArticleStatusArchived,
			simplearticle.ArticleStatusDraft,
		}
		current := simplearticle.ArticleStatusDraft
		for _, target := range chain {
			transition, err := svc.TransitionStatus(ctx, article.ID, target)
			require.NoError(t, err, "transition %s -> %s", current, target)
			assert.Equal(t, current, transition.PreviousStatus)
			assert.Equal(t, target, transition.NewStatus)
			assert.Equal(t, target, transition.Article.Status)
			current = target
		}
	})

	t.Run("rejects skipping review", func(t *testing.T) {
		article := createTestArticle(t, svc)

		_, err := svc.TransitionStatus(ctx, article.ID, simplearticle.ArticleStatusPublished)
		require.Error(t, err)
		assert.ErrorIs(t, err, simplearticle.ErrInvalidTransition)

		var invalid *simplearticle.InvalidTransitionError
		require.ErrorAs(t, err, &invalid)
		assert.Equal(t, simplearticle.ArticleStatusDraft, invalid.Current)
		assert.Equal(t, simplearticle.ArticleStatusPublished, invalid.Target)
		assert.Contains(t, invalid.Allowed, simplearticle.ArticleStatusPendingRender)

		// A rejected transition leaves the stored status untouched
		got, err := svc.GetArticle(ctx, article.ID)
		require.NoError(t, err)
		assert.Equal(t, simplearticle.ArticleStatusDraft, got.Status)
	})

	t.Run("missing article", func(t *testing.T) {
		_, err := svc.TransitionStatus(ctx, uuid.New(), simplearticle.ArticleStatusArchived)
		assert.ErrorIs(t, err, simplearticle.ErrArticleNotFound)
	})
}

func TestGetStatusOptions(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()
	article := createTestArticle(t, svc)

	options, err := svc.GetStatusOptions(ctx, article.ID)
	require.NoError(t, err)
	assert.Equal(t, simplearticle.ArticleStatusDraft, options.CurrentStatus)
	assert.Equal(t, []simplearticle.ArticleStatus{
		simplearticle.ArticleStatusPendingRender,
		simplearticle.ArticleStatusArchived,
	}, options.AllowedNextStatuses)
}

func TestPublishArticle(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()

	t.Run("publishes from any status and records note id", func(t *testing.T) {
		article := createTestArticle(t, svc)

		// Still in draft; publishing does not consult the transition table
		published, err := svc.PublishArticle(ctx, simplearticle.PublishArticleRequest{
			ArticleID: article.ID,
			XHSNoteID: "note-abc-123",
		})
		require.NoError(t, err)
		assert.Equal(t, simplearticle.ArticleStatusPublished, published.Status)
		assert.Equal(t, "note-abc-123", published.XHSNoteID)

		// No metrics supplied, so no stats snapshot was recorded
		stats, err := svc.ListStats(ctx, article.ID)
		require.NoError(t, err)
		assert.Empty(t, stats)
	})

	t.Run("records stats snapshot when any metric is supplied", func(t *testing.T) {
		article := createTestArticle(t, svc)

		views := 120
		published, err := svc.PublishArticle(ctx, simplearticle.PublishArticleRequest{
			ArticleID: article.ID,
			XHSNoteID: "note-def-456",
			Views:     &views,
		})
		require.NoError(t, err)
		assert.Equal(t, simplearticle.ArticleStatusPublished, published.Status)

		stats, err := svc.ListStats(ctx, article.ID)
		require.NoError(t, err)
		require.Len(t, stats, 1)
		assert.Equal(t, 120, stats[0].Views)
		assert.Equal(t, 0, stats[0].Likes)
	})

	t.Run("missing note id fails", func(t *testing.T) {
		article := createTestArticle(t, svc)

		_, err := svc.PublishArticle(ctx, simplearticle.PublishArticleRequest{ArticleID: article.ID})
		require.Error(t, err)
		assert.ErrorIs(t, err, simplearticle.ErrInvalidInput)
	})

	t.Run("republishing records another snapshot", func(t *testing.T) {
		article := createTestArticle(t, svc)

		views := 10
		_, err := svc.PublishArticle(ctx, simplearticle.PublishArticleRequest{
			ArticleID: article.ID, XHSNoteID: "note-1", Views: &views,
		})
		require.NoError(t, err)

		views = 25
		_, err = svc.PublishArticle(ctx, simplearticle.PublishArticleRequest{
			ArticleID: article.ID, XHSNoteID: "note-2", Views: &views,
		})
		require.NoError(t, err)

		stats, err := svc.ListStats(ctx, article.ID)
		require.NoError(t, err)
		require.Len(t, stats, 2)

		got, err := svc.GetArticle(ctx, article.ID)
		require.NoError(t, err)
		assert.Equal(t, "note-2", got.XHSNoteID)
	})
}

func TestListArticles(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()

	seed := []simplearticle.CreateArticleRequest{
		{Title: "Tokyo Travel Guide", Content: "Shinjuku at night", Tags: []string{"travel"}, Category: "guide"},
		{Title: "Ramen Spots", Content: "Best ramen in TOKYO", Tags: []string{"food"}, Category: "list"},
		{Title: "Packing Tips", Content: "Light luggage", Tags: []string{"travel", "tips"}, Category: "guide"},
	}
	for _, req := range seed {
		_, err := svc.CreateArticle(ctx, req)
		require.NoError(t, err)
	}

	t.Run("no filter returns everything", func(t *testing.T) {
		list, err := svc.ListArticles(ctx, simplearticle.ListArticlesRequest{})
		require.NoError(t, err)
		assert.Equal(t, 3, list.Total)
		assert.Len(t, list.Articles, 3)
		assert.Equal(t, simplearticle.DefaultListLimit, list.Limit)
	})

	t.Run("filter by tag", func(t *testing.T) {
		list, err := svc.ListArticles(ctx, simplearticle.ListArticlesRequest{
			Filter: simplearticle.ListArticlesFilter{Tag: "travel"},
		})
		require.NoError(t, err)
		assert.Equal(t, 2, list.Total)
	})

	t.Run("filter by category", func(t *testing.T) {
		list, err := svc.ListArticles(ctx, simplearticle.ListArticlesRequest{
			Filter: simplearticle.ListArticlesFilter{Category: "list"},
		})
		require.NoError(t, err)
		assert.Equal(t, 1, list.Total)
		assert.Equal(t, "Ramen Spots", list.Articles[0].Title)
	})

	t.Run("search is case-insensitive over title and content", func(t *testing.T) {
		list, err := svc.ListArticles(ctx, simplearticle.ListArticlesRequest{
			Filter: simplearticle.ListArticlesFilter{Search: "tokyo"},
		})
		require.NoError(t, err)
		assert.Equal(t, 2, list.Total)
	})

	t.Run("pagination reports full total", func(t *testing.T) {
		list, err := svc.ListArticles(ctx, simplearticle.ListArticlesRequest{
			Filter: simplearticle.ListArticlesFilter{Limit: 2},
		})
		require.NoError(t, err)
		assert.Equal(t, 3, list.Total)
		assert.Len(t, list.Articles, 2)

		rest, err := svc.ListArticles(ctx, simplearticle.ListArticlesRequest{
			Filter: simplearticle.ListArticlesFilter{Limit: 2, Offset: 2},
		})
		require.NoError(t, err)
		assert.Equal(t, 3, rest.Total)
		assert.Len(t, rest.Articles, 1)
	})

	t.Run("status filter", func(t *testing.T) {
		list, err := svc.ListArticles(ctx, simplearticle.ListArticlesRequest{
			Filter: simplearticle.ListArticlesFilter{Status: string(simplearticle.ArticleStatusDraft)},
		})
		require.NoError(t, err)
		assert.Equal(t, 3, list.Total)

		none, err := svc.ListArticles(ctx, simplearticle.ListArticlesRequest{
			Filter: simplearticle.ListArticlesFilter{Status: string(simplearticle.ArticleStatusPublished)},
		})
		require.NoError(t, err)
		assert.Equal(t, 0, none.Total)
	})
}

func TestListArticlesOrdersByLastUpdate(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()

	older, err := svc.CreateArticle(ctx, simplearticle.CreateArticleRequest{Title: "older"})
	require.NoError(t, err)
	_, err = svc.CreateArticle(ctx, simplearticle.CreateArticleRequest{Title: "newer"})
	require.NoError(t, err)

	// Touching the older article moves it to the front of the list
	content := "revised"
	_, err = svc.UpdateArticle(ctx, simplearticle.UpdateArticleRequest{
		ID:      older.ID,
		Content: &content,
	})
	require.NoError(t, err)

	list, err := svc.ListArticles(ctx, simplearticle.ListArticlesRequest{})
	require.NoError(t, err)
	require.Len(t, list.Articles, 2)
	assert.Equal(t, "older", list.Articles[0].Title)
	assert.Equal(t, "newer", list.Articles[1].Title)
}

func TestDeleteArticleCascades(t *testing.T) {
	store := memorystorage.New()
	svc, err := simplearticle.New(
		simplearticle.WithRepository(memory.New()),
		simplearticle.WithBlobStore("memory", store),
	)
	require.NoError(t, err)
	ctx := context.Background()

	article, err := svc.CreateArticle(ctx, simplearticle.CreateArticleRequest{Title: "Doomed"})
	require.NoError(t, err)

	image, err := svc.AddImage(ctx, simplearticle.AddImageRequest{
		ArticleID: article.ID,
		FileName:  "cover.png",
		MimeType:  "image/png",
		Size:      4,
		Reader:    strings.NewReader("data"),
	})
	require.NoError(t, err)

	_, err = svc.AttachImageHTML(ctx, article.ID, image.ID, "<div>card</div>")
	require.NoError(t, err)

	views := 5
	_, err = svc.PublishArticle(ctx, simplearticle.PublishArticleRequest{
		ArticleID: article.ID, XHSNoteID: "note-x", Views: &views,
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteArticle(ctx, article.ID))

	_, err = svc.GetArticle(ctx, article.ID)
	assert.ErrorIs(t, err, simplearticle.ErrArticleNotFound)

	// Both blobs are gone from storage
	_, err = store.Download(ctx, image.StoragePath)
	assert.ErrorIs(t, err, simplearticle.ErrBlobNotFound)
	htmlPath, err := simplearticle.DeriveHTMLPath(image.StoragePath)
	require.NoError(t, err)
	_, err = store.Download(ctx, htmlPath)
	assert.ErrorIs(t, err, simplearticle.ErrBlobNotFound)

	// Deleting again reports not found
	assert.ErrorIs(t, svc.DeleteArticle(ctx, article.ID), simplearticle.ErrArticleNotFound)
}
