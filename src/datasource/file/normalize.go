package file

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NormalizeName folds a raw header to lowercase snake_case:
// "Min Delay" -> "min_delay", "minDelay" -> "min_delay", "Café No." -> "cafe_no".
// Names that would start with a digit get an "x" prefix and an empty name
// becomes "x".
func NormalizeName(raw string) string {
	stripAccents := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	s, _, err := transform.String(stripAccents, raw)
	if err != nil {
		s = raw
	}

	rs := []rune(strings.TrimSpace(s))
	var b strings.Builder
	pendingSep := false
	for i, r := range rs {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			pendingSep = b.Len() > 0
			continue
		}
		if unicode.IsUpper(r) && i > 0 && b.Len() > 0 && camelBoundary(rs, i) {
			pendingSep = true
		}
		if pendingSep {
			b.WriteByte('_')
			pendingSep = false
		}
		b.WriteRune(unicode.ToLower(r))
	}

	name := b.String()
	if name == "" {
		return "x"
	}
	if unicode.IsDigit(rune(name[0])) {
		name = "x" + name
	}
	return name
}

// camelBoundary reports whether the upper-case rune at i starts a new word:
// "minDelay" splits before D, "XMLFile" splits before F only.
func camelBoundary(rs []rune, i int) bool {
	prev := rs[i-1]
	if unicode.IsLower(prev) || unicode.IsDigit(prev) {
		return true
	}
	return unicode.IsUpper(prev) && i+1 < len(rs) && unicode.IsLower(rs[i+1])
}

// NormalizeNames normalizes every header and suffixes repeats with _2, _3...
// in order of appearance.
func NormalizeNames(raw []string) []string {
	out := make([]string, len(raw))
	used := make(map[string]bool, len(raw))
	for i, r := range raw {
		base := NormalizeName(r)
		name := base
		for n := 2; used[name]; n++ {
			name = base + "_" + strconv.Itoa(n)
		}
		used[name] = true
		out[i] = name
	}
	return out
}
