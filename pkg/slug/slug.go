// SPDX-License-Identifier: MPL-2.0

package slug

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Separator joins the words of a slug.
const Separator = '-'

// Slug converts text to a lowercase ASCII identifier. Word boundaries (spaces,
// punctuation, underscores and camelCase humps) become a single hyphen, accents
// are stripped and leading/trailing hyphens are trimmed. Slug is idempotent:
// Slug(Slug(s)) == Slug(s) for every s.
func Slug(text string) string {
	folded := fold(text)

	var sb strings.Builder
	sb.Grow(len(folded) + 4)

	runes := []rune(folded)
	pendingSep := false
	for i, r := range runes {
		if !isWordRune(r) {
			pendingSep = sb.Len() > 0
			continue
		}

		if sb.Len() > 0 && !pendingSep && isHump(runes, i) {
			pendingSep = true
		}

		if pendingSep {
			sb.WriteRune(Separator)
			pendingSep = false
		}
		sb.WriteRune(unicode.ToLower(r))
	}

	return sb.String()
}

// Segments slugs each part of a separator-delimited path independently and
// rejoins the non-empty results with sep.
func Segments(path string, sep string) string {
	parts := strings.Split(path, sep)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := Slug(p); s != "" {
			out = append(out, s)
		}
	}
	return strings.Join(out, sep)
}

// fold removes combining marks so "Café" becomes "Cafe".
func fold(text string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, text)
	if err != nil {
		return text
	}
	return out
}

func isWordRune(r rune) bool {
	return r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r))
}

// isHump reports whether runes[i] starts a new camelCase word: an upper-case
// letter preceded by a lower-case letter or digit, or the last capital of an
// acronym followed by a lower-case letter ("HTTPServer" -> "http-server").
func isHump(runes []rune, i int) bool {
	r := runes[i]
	if i == 0 || !unicode.IsUpper(r) {
		return false
	}
	prev := runes[i-1]
	if unicode.IsLower(prev) || unicode.IsDigit(prev) {
		return true
	}
	if unicode.IsUpper(prev) && i+1 < len(runes) && unicode.IsLower(runes[i+1]) {
		return true
	}
	return false
}
