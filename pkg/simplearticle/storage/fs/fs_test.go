package fs_test

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-articles/pkg/simplearticle"
	"github.com/tendant/simple-articles/pkg/simplearticle/storage/fs"
)

func newBackend(t *testing.T) (simplearticle.BlobStore, string) {
	t.Helper()
	dir := t.TempDir()
	backend, err := fs.New(fs.Config{BaseDir: dir})
	require.NoError(t, err)
	return backend, dir
}

func TestNewRequiresBaseDir(t *testing.T) {
	_, err := fs.New(fs.Config{})
	assert.Error(t, err)
}

func TestUploadAndDownload(t *testing.T) {
	backend, dir := newBackend(t)
	ctx := context.Background()

	err := backend.Upload(ctx, "article-1/cover.png", strings.NewReader("pixels"))
	require.NoError(t, err)

	// Stored under the key's directory structure
	_, err = os.Stat(filepath.Join(dir, "article-1", "cover.png"))
	require.NoError(t, err)

	reader, err := backend.Download(ctx, "article-1/cover.png")
	require.NoError(t, err)
	defer reader.Close()
	data, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, "pixels", string(data))
}

func TestDownloadMissingBlob(t *testing.T) {
	backend, _ := newBackend(t)

	_, err := backend.Download(context.Background(), "missing.png")
	assert.ErrorIs(t, err, simplearticle.ErrBlobNotFound)
}

func TestKeysNeverEscapeBaseDir(t *testing.T) {
	backend, dir := newBackend(t)
	ctx := context.Background()

	// Traversal segments are resolved inside the base directory
	require.NoError(t, backend.Upload(ctx, "../outside.txt", strings.NewReader("x")))
	_, err := os.Stat(filepath.Join(filepath.Dir(dir), "outside.txt"))
	assert.True(t, os.IsNotExist(err), "file must not land outside the base directory")
	_, err = os.Stat(filepath.Join(dir, "outside.txt"))
	assert.NoError(t, err)

	// Keys that resolve to the base directory itself are rejected
	assert.Error(t, backend.Upload(ctx, "/", strings.NewReader("x")))
	assert.Error(t, backend.Upload(ctx, "", strings.NewReader("x")))
}

func TestDeleteCleansEmptyDirectories(t *testing.T) {
	backend, dir := newBackend(t)
	ctx := context.Background()

	require.NoError(t, backend.Upload(ctx, "a/b/c.png", strings.NewReader("x")))
	require.NoError(t, backend.Delete(ctx, "a/b/c.png"))

	_, err := backend.Download(ctx, "a/b/c.png")
	assert.ErrorIs(t, err, simplearticle.ErrBlobNotFound)

	// Emptied parents are removed, the base dir survives
	_, err = os.Stat(filepath.Join(dir, "a"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(dir)
	assert.NoError(t, err)

	assert.ErrorIs(t, backend.Delete(ctx, "a/b/c.png"), simplearticle.ErrBlobNotFound)
}

func TestGetObjectMeta(t *testing.T) {
	backend, _ := newBackend(t)
	ctx := context.Background()

	t.Run("html suffix forces content type", func(t *testing.T) {
		require.NoError(t, backend.Upload(ctx, "a/card.html", strings.NewReader("<div>card</div>")))

		meta, err := backend.GetObjectMeta(ctx, "a/card.html")
		require.NoError(t, err)
		assert.Equal(t, "text/html; charset=utf-8", meta.ContentType)
		assert.Equal(t, int64(15), meta.Size)
	})

	t.Run("detects png from magic bytes", func(t *testing.T) {
		pngHeader := "\x89PNG\r\n\x1a\n" + strings.Repeat("\x00", 16)
		require.NoError(t, backend.Upload(ctx, "a/img.png", strings.NewReader(pngHeader)))

		meta, err := backend.GetObjectMeta(ctx, "a/img.png")
		require.NoError(t, err)
		assert.Equal(t, "image/png", meta.ContentType)
	})

	t.Run("missing blob", func(t *testing.T) {
		_, err := backend.GetObjectMeta(ctx, "a/none.png")
		assert.ErrorIs(t, err, simplearticle.ErrBlobNotFound)
	})
}

func TestGetDownloadURL(t *testing.T) {
	dir := t.TempDir()
	backend, err := fs.New(fs.Config{BaseDir: dir, URLPrefix: "http://localhost:8080/files"})
	require.NoError(t, err)

	url, err := backend.GetDownloadURL(context.Background(), "a/b.png", "")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/files/a/b.png", url)

	url, err = backend.GetDownloadURL(context.Background(), "a/b.png", "cover.png")
	require.NoError(t, err)
	assert.Contains(t, url, "filename=cover.png")

	noPrefix, err := fs.New(fs.Config{BaseDir: t.TempDir()})
	require.NoError(t, err)
	_, err = noPrefix.GetDownloadURL(context.Background(), "a/b.png", "")
	assert.Error(t, err)
}
