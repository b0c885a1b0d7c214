// Package imagekey generates blob-storage keys for article images.
package imagekey

import (
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Generator defines the interface for image key generation strategies.
// Keys are scoped under the owning article id so that an article's blobs
// share a common prefix.
type Generator interface {
	// GenerateKey creates a collision-resistant storage key for an image
	// uploaded with the given original file name.
	GenerateKey(articleID uuid.UUID, fileName string) string
}

// TimeRandomGenerator produces keys of the form
// "{articleID}/{unix-millis}-{random}{ext}", keeping the original file
// extension so HTML-source paths can be derived from the key.
type TimeRandomGenerator struct{}

// New returns the default key generator.
func New() Generator {
	return &TimeRandomGenerator{}
}

func (g *TimeRandomGenerator) GenerateKey(articleID uuid.UUID, fileName string) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	ext := strings.ToLower(sanitizeExt(path.Ext(fileName)))
	return fmt.Sprintf("%s/%d-%s%s", articleID, time.Now().UnixMilli(), suffix, ext)
}

// sanitizeExt strips characters that are unsafe in object keys from a file
// extension, keeping the leading dot.
func sanitizeExt(ext string) string {
	if ext == "" {
		return ""
	}
	replacer := strings.NewReplacer(
		"/", "",
		"\\", "",
		":", "",
		"*", "",
		"?", "",
		"\"", "",
		"<", "",
		">", "",
		"|", "",
		" ", "",
	)
	return replacer.Replace(ext)
}
