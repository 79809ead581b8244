package gallery

import (
	"path"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// DefaultExtensions are the reference image extensions accepted when none are configured.
var DefaultExtensions = []string{".jpg", ".jpeg", ".png"}

// IdentityName derives the identity name from a reference image filename: the base
// name without its extension, NFC-normalized so that names from filesystems storing
// decomposed Unicode (macOS) compare equal to typed ones.
func IdentityName(filename string) string {
	base := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	stem := strings.TrimSuffix(base, path.Ext(base))
	return norm.NFC.String(stem)
}

// IsCandidate reports whether filename has one of the extensions (case-insensitive).
// Hidden files, including macOS "._" resource forks, are never candidates.
func IsCandidate(filename string, extensions []string) bool {
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}
	name := IdentityName(filename)
	if name == "" || strings.HasPrefix(name, ".") {
		return false
	}
	ext := path.Ext(filename)
	for _, allowed := range extensions {
		if strings.EqualFold(ext, allowed) {
			return true
		}
	}
	return false
}
