// Package slugify turns display names into lowercase ASCII url segments.
//
// Latin letters with diacritics are decomposed (NFD) and the combining
// marks dropped, so "Ayşe" becomes "ayse". Letters that have no
// decomposition are mapped explicitly (dotless i, sharp s, ligatures,
// stroked letters). Anything else outside [a-z0-9] collapses into a
// single hyphen.
package slugify

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	nonAlnum   = regexp.MustCompile(`[^a-z0-9]+`)
	validSlug  = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
	specialMap = strings.NewReplacer(
		"ı", "i", "İ", "i",
		"ß", "ss", "ẞ", "ss",
		"æ", "ae", "Æ", "ae",
		"œ", "oe", "Œ", "oe",
		"ø", "o", "Ø", "o",
		"đ", "d", "Đ", "d",
		"ł", "l", "Ł", "l",
		"þ", "th", "Þ", "th",
		"ð", "d", "Ð", "d",
	)
)

// Transliterate folds s to lowercase ASCII where a sensible mapping exists.
func Transliterate(s string) string {
	s = specialMap.Replace(s)
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(folded)
}

// Make joins the parts into one slug. Empty parts are skipped.
func Make(parts ...string) string {
	segments := make([]string, 0, len(parts))
	for _, part := range parts {
		segment := strings.Trim(nonAlnum.ReplaceAllString(Transliterate(part), "-"), "-")
		if segment != "" {
			segments = append(segments, segment)
		}
	}
	return strings.Join(segments, "-")
}

func Valid(slug string) bool {
	return validSlug.MatchString(slug)
}
