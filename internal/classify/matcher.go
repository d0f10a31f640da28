package classify

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/clinicore/docintake/internal/models"
)

type matchKind int

const (
	matchNone matchKind = iota
	matchFirst
	matchLast
)

// accent folding: NFD, strip combining marks, recompose. "García"
// becomes "garcia" after lowercasing, so accented directory names match
// the unaccented filenames scanners produce.
var foldChain = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

func fold(s string) string {
	out, _, err := transform.String(foldChain, strings.ToLower(s))
	if err != nil {
		return strings.ToLower(s)
	}
	return out
}

// MatchPatient finds the single best patient whose first or last name
// appears as a whole token in the filename, and returns that patient's
// id, or "" when nobody qualifies.
//
// A last-name match always outranks a first-name match regardless of
// length; among matches of the same kind the longer matched name wins;
// remaining ties go to the smaller patient id. The total order makes the
// result independent of the directory's iteration order. A nil or empty
// directory yields no match, never an error.
func MatchPatient(filename string, patients []models.PatientRecord) string {
	haystack := fold(filename)
	if haystack == "" {
		return ""
	}

	bestKind := matchNone
	bestLen := 0
	bestID := ""

	consider := func(kind matchKind, name, id string) {
		if kind < bestKind {
			return
		}
		if kind == bestKind {
			if len(name) < bestLen {
				return
			}
			if len(name) == bestLen && id >= bestID {
				return
			}
		}
		bestKind, bestLen, bestID = kind, len(name), id
	}

	for _, p := range patients {
		if last := fold(p.LastName); last != "" && wholeToken(haystack, last) {
			consider(matchLast, last, p.ID)
			continue
		}
		if first := fold(p.FirstName); first != "" && wholeToken(haystack, first) {
			consider(matchFirst, first, p.ID)
		}
	}

	return bestID
}

// wholeToken reports whether token occurs in s bounded on both sides by
// a string edge or a separator rune. Separators are anything that is not
// a letter or digit, which covers the space/underscore/hyphen cases and
// the dot before a file extension. "ana" inside "analisis" does not
// qualify.
func wholeToken(s, token string) bool {
	if token == "" {
		return false
	}
	for offset := 0; offset <= len(s)-len(token); {
		i := strings.Index(s[offset:], token)
		if i < 0 {
			return false
		}
		start := offset + i
		end := start + len(token)
		if boundaryBefore(s, start) && boundaryAfter(s, end) {
			return true
		}
		offset = start + 1
	}
	return false
}

func boundaryBefore(s string, idx int) bool {
	if idx == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(s[:idx])
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

func boundaryAfter(s string, idx int) bool {
	if idx == len(s) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(s[idx:])
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}
