package imagekey_test

import (
	"regexp"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-articles/pkg/simplearticle/imagekey"
)

var keyPattern = regexp.MustCompile(`^[0-9a-f-]{36}/\d+-[0-9a-f]{8}(\.[a-z0-9.]+)?$`)

func TestGenerateKeyFormat(t *testing.T) {
	gen := imagekey.New()
	articleID := uuid.New()

	tests := []struct {
		name     string
		fileName string
		wantExt  string
	}{
		{"png file", "cover.png", ".png"},
		{"uppercase extension is lowered", "PHOTO.JPG", ".jpg"},
		{"no extension", "README", ""},
		{"unsafe characters stripped from extension", "weird.p?n*g", ".png"},
		{"nested original name keeps only the extension", "a/b/c.webp", ".webp"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := gen.GenerateKey(articleID, tt.fileName)

			assert.True(t, strings.HasPrefix(key, articleID.String()+"/"), "key %q not scoped under article id", key)
			assert.Regexp(t, keyPattern, key)
			if tt.wantExt == "" {
				assert.NotContains(t, key[strings.IndexByte(key, '/'):], ".")
			} else {
				assert.True(t, strings.HasSuffix(key, tt.wantExt), "key %q missing extension %q", key, tt.wantExt)
			}
		})
	}
}

func TestGenerateKeyUniqueness(t *testing.T) {
	gen := imagekey.New()
	articleID := uuid.New()

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		key := gen.GenerateKey(articleID, "same.png")
		require.False(t, seen[key], "duplicate key %q", key)
		seen[key] = true
	}
}
