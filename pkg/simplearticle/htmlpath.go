package simplearticle

import (
	"fmt"
	"strings"
)

// DeriveHTMLPath computes the storage path of an image's HTML source from
// the image's own storage path: the final extension segment (last "." to
// end of string) is replaced with ".html". A path with no "." cannot be
// derived from and is rejected.
//
//	"abc-123/uuid.png"    -> "abc-123/uuid.html"
//	"abc-123/uuid.tar.gz" -> "abc-123/uuid.tar.html"
func DeriveHTMLPath(storagePath string) (string, error) {
	i := strings.LastIndexByte(storagePath, '.')
	if i < 0 {
		return "", fmt.Errorf("%w: storage path %q has no file extension", ErrInvalidInput, storagePath)
	}
	return storagePath[:i] + ".html", nil
}
