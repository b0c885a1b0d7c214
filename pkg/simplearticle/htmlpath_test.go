package simplearticle_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-articles/pkg/simplearticle"
)

func TestDeriveHTMLPath(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"png image", "abc-123/1700000000-d4e5f6a7.png", "abc-123/1700000000-d4e5f6a7.html"},
		{"jpeg image", "abc-123/photo.jpeg", "abc-123/photo.html"},
		{"multiple dots replaces last segment", "abc-123/archive.tar.gz", "abc-123/archive.tar.html"},
		{"dot in directory", "v2.1/cover.webp", "v2.1/cover.html"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := simplearticle.DeriveHTMLPath(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDeriveHTMLPathNoExtension(t *testing.T) {
	_, err := simplearticle.DeriveHTMLPath("abc-123/noextension")
	require.Error(t, err)
	assert.ErrorIs(t, err, simplearticle.ErrInvalidInput)
}
