// Package images stores uploaded product pictures on disk or in S3.
package images

import (
	"errors"
	"path"
	"path/filepath"
	"strings"
	"unicode"
)

var (
	ErrEmptyName        = errors.New("empty image name")
	ErrUnsupportedImage = errors.New("unsupported image type")
)

var allowedExt = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
}

// CleanName reduces an uploaded filename to a safe base name. Path
// separators are dropped and characters outside [A-Za-z0-9._-] become '_'.
func CleanName(name string) (string, error) {
	name = filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	name = strings.Map(func(r rune) rune {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			return r
		case r == '.' || r == '-' || r == '_':
			return r
		}
		return '_'
	}, name)
	name = strings.TrimLeft(name, "._")
	if name == "" {
		return "", ErrEmptyName
	}
	return name, nil
}

// ContentType returns the mime type of an allowed picture name.
func ContentType(name string) (string, error) {
	ct, ok := allowedExt[strings.ToLower(path.Ext(name))]
	if !ok {
		return "", ErrUnsupportedImage
	}
	return ct, nil
}
