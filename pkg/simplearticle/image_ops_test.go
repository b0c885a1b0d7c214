package simplearticle_test

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-articles/pkg/simplearticle"
	"github.com/tendant/simple-articles/pkg/simplearticle/repo/memory"
	memorystorage "github.com/tendant/simple-articles/pkg/simplearticle/storage/memory"
)

func addTestImage(t *testing.T, svc simplearticle.Service, articleID uuid.UUID) *simplearticle.ArticleImage {
	t.Helper()

	image, err := svc.AddImage(context.Background(), simplearticle.AddImageRequest{
		ArticleID: articleID,
		FileName:  "cover.png",
		MimeType:  "image/png",
		Size:      6,
		Reader:    strings.NewReader("pixels"),
	})
	require.NoError(t, err)
	return image
}

func TestAddImage(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()
	article := createTestArticle(t, svc)

	t.Run("successful upload", func(t *testing.T) {
		image, err := svc.AddImage(ctx, simplearticle.AddImageRequest{
			ArticleID: article.ID,
			FileName:  "Photo.JPG",
			MimeType:  "image/jpeg",
			Size:      4,
			SortOrder: 3,
			Reader:    strings.NewReader("data"),
		})
		require.NoError(t, err)

		assert.NotEqual(t, uuid.Nil, image.ID)
		assert.Equal(t, article.ID, image.ArticleID)
		assert.Equal(t, 3, image.SortOrder)
		assert.True(t, strings.HasPrefix(image.StoragePath, article.ID.String()+"/"))
		assert.True(t, strings.HasSuffix(image.StoragePath, ".jpg"))
		assert.Equal(t, "/api/images/"+image.StoragePath, image.URL)
		assert.Empty(t, image.HTMLStoragePath)
	})

	t.Run("missing reader", func(t *testing.T) {
		_, err := svc.AddImage(ctx, simplearticle.AddImageRequest{
			ArticleID: article.ID,
			FileName:  "x.png",
			MimeType:  "image/png",
		})
		assert.ErrorIs(t, err, simplearticle.ErrInvalidInput)
	})

	t.Run("missing content type", func(t *testing.T) {
		_, err := svc.AddImage(ctx, simplearticle.AddImageRequest{
			ArticleID: article.ID,
			FileName:  "x.png",
			Reader:    strings.NewReader("x"),
		})
		assert.ErrorIs(t, err, simplearticle.ErrInvalidInput)
	})

	t.Run("disallowed mime type", func(t *testing.T) {
		_, err := svc.AddImage(ctx, simplearticle.AddImageRequest{
			ArticleID: article.ID,
			FileName:  "x.pdf",
			MimeType:  "application/pdf",
			Reader:    strings.NewReader("x"),
		})
		assert.ErrorIs(t, err, simplearticle.ErrInvalidInput)
	})

	t.Run("oversized upload", func(t *testing.T) {
		_, err := svc.AddImage(ctx, simplearticle.AddImageRequest{
			ArticleID: article.ID,
			FileName:  "big.png",
			MimeType:  "image/png",
			Size:      11 << 20,
			Reader:    strings.NewReader("x"),
		})
		assert.ErrorIs(t, err, simplearticle.ErrInvalidInput)
	})

	t.Run("missing article", func(t *testing.T) {
		_, err := svc.AddImage(ctx, simplearticle.AddImageRequest{
			ArticleID: uuid.New(),
			FileName:  "x.png",
			MimeType:  "image/png",
			Reader:    strings.NewReader("x"),
		})
		assert.ErrorIs(t, err, simplearticle.ErrArticleNotFound)
	})
}

func TestListAndDeleteImages(t *testing.T) {
	store := memorystorage.New()
	svc, err := simplearticle.New(
		simplearticle.WithRepository(memory.New()),
		simplearticle.WithBlobStore("memory", store),
	)
	require.NoError(t, err)
	ctx := context.Background()

	article, err := svc.CreateArticle(ctx, simplearticle.CreateArticleRequest{Title: "gallery"})
	require.NoError(t, err)

	first := addTestImage(t, svc, article.ID)
	second := addTestImage(t, svc, article.ID)

	images, err := svc.ListImages(ctx, article.ID)
	require.NoError(t, err)
	assert.Len(t, images, 2)

	require.NoError(t, svc.DeleteImage(ctx, article.ID, first.ID))

	images, err = svc.ListImages(ctx, article.ID)
	require.NoError(t, err)
	require.Len(t, images, 1)
	assert.Equal(t, second.ID, images[0].ID)

	// The deleted image's blob is gone from storage
	_, err = store.Download(ctx, first.StoragePath)
	assert.ErrorIs(t, err, simplearticle.ErrBlobNotFound)

	assert.ErrorIs(t, svc.DeleteImage(ctx, article.ID, first.ID), simplearticle.ErrImageNotFound)

	// Image ids are scoped by article
	other, err := svc.CreateArticle(ctx, simplearticle.CreateArticleRequest{Title: "other"})
	require.NoError(t, err)
	assert.ErrorIs(t, svc.DeleteImage(ctx, other.ID, second.ID), simplearticle.ErrImageNotFound)
}

func TestImageHTMLLifecycle(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()
	article := createTestArticle(t, svc)
	image := addTestImage(t, svc, article.ID)

	t.Run("get before attach", func(t *testing.T) {
		_, err := svc.GetImageHTML(ctx, article.ID, image.ID)
		assert.ErrorIs(t, err, simplearticle.ErrHTMLNotFound)
	})

	t.Run("attach", func(t *testing.T) {
		attached, err := svc.AttachImageHTML(ctx, article.ID, image.ID, "<div>card v1</div>")
		require.NoError(t, err)

		wantPath := strings.TrimSuffix(image.StoragePath, ".png") + ".html"
		assert.Equal(t, wantPath, attached.HTMLStoragePath)
		assert.Equal(t, "/api/images/"+wantPath, attached.HTMLURL)

		html, err := svc.GetImageHTML(ctx, article.ID, image.ID)
		require.NoError(t, err)
		assert.Equal(t, "<div>card v1</div>", html.Content)
		assert.Equal(t, image.ID, html.ImageID)
	})

	t.Run("second attach is rejected", func(t *testing.T) {
		_, err := svc.AttachImageHTML(ctx, article.ID, image.ID, "<div>again</div>")
		assert.ErrorIs(t, err, simplearticle.ErrHTMLAlreadyExists)
	})

	t.Run("update overwrites in place", func(t *testing.T) {
		before, err := svc.GetImageHTML(ctx, article.ID, image.ID)
		require.NoError(t, err)

		updated, err := svc.UpdateImageHTML(ctx, article.ID, image.ID, "<div>card v2</div>")
		require.NoError(t, err)
		assert.Equal(t, before.HTMLStoragePath, updated.HTMLStoragePath)
		assert.Equal(t, before.HTMLURL, updated.HTMLURL)

		html, err := svc.GetImageHTML(ctx, article.ID, image.ID)
		require.NoError(t, err)
		assert.Equal(t, "<div>card v2</div>", html.Content)
	})

	t.Run("remove clears linkage", func(t *testing.T) {
		removed, err := svc.RemoveImageHTML(ctx, article.ID, image.ID)
		require.NoError(t, err)
		assert.Empty(t, removed.HTMLStoragePath)
		assert.Empty(t, removed.HTMLURL)

		_, err = svc.GetImageHTML(ctx, article.ID, image.ID)
		assert.ErrorIs(t, err, simplearticle.ErrHTMLNotFound)

		_, err = svc.RemoveImageHTML(ctx, article.ID, image.ID)
		assert.ErrorIs(t, err, simplearticle.ErrHTMLNotFound)
	})

	t.Run("update without attach", func(t *testing.T) {
		fresh := addTestImage(t, svc, article.ID)
		_, err := svc.UpdateImageHTML(ctx, article.ID, fresh.ID, "<div>x</div>")
		assert.ErrorIs(t, err, simplearticle.ErrInvalidInput)
	})
}

func TestOpenBlob(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()
	article := createTestArticle(t, svc)

	image, err := svc.AddImage(ctx, simplearticle.AddImageRequest{
		ArticleID: article.ID,
		FileName:  "cover.png",
		MimeType:  "image/png",
		Size:      6,
		Reader:    strings.NewReader("pixels"),
	})
	require.NoError(t, err)

	reader, contentType, err := svc.OpenBlob(ctx, image.StoragePath)
	require.NoError(t, err)
	defer reader.Close()

	data, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, "pixels", string(data))
	assert.Equal(t, "image/png", contentType)

	_, _, err = svc.OpenBlob(ctx, "does/not/exist.png")
	assert.ErrorIs(t, err, simplearticle.ErrBlobNotFound)
}
