package normalize

import (
	"fmt"
	"regexp"
	"strings"
)

var nonSlugRe = regexp.MustCompile(`[^a-z0-9]+`)
var multiHyphenRe = regexp.MustCompile(`-{2,}`)

// Slugify derives a URL key: lowercase, [a-z0-9-] only, hyphens
// collapsed, trimmed, at most max runes.
func Slugify(s string, max int) string {
	s = strings.ToLower(CleanText(s))
	s = replaceAccents(s)
	s = nonSlugRe.ReplaceAllString(s, "-")
	s = multiHyphenRe.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if max > 0 && len(s) > max {
		s = strings.Trim(s[:max], "-")
	}
	return s
}

var accents = strings.NewReplacer(
	"à", "a", "â", "a", "ä", "a", "á", "a",
	"é", "e", "è", "e", "ê", "e", "ë", "e",
	"î", "i", "ï", "i", "í", "i",
	"ô", "o", "ö", "o", "ó", "o",
	"ù", "u", "û", "u", "ü", "u", "ú", "u",
	"ç", "c", "ñ", "n", "œ", "oe", "æ", "ae",
)

func replaceAccents(s string) string {
	return accents.Replace(s)
}

// uniqueKeys hands out URL keys, appending -N on collision while keeping
// the result under max runes.
type uniqueKeys struct {
	max  int
	seen map[string]int // key -> first row
}

func newUniqueKeys(max int) *uniqueKeys {
	return &uniqueKeys{max: max, seen: make(map[string]int)}
}

// take reserves key for row; on collision it returns the dedup key and
// the row holding the original.
func (u *uniqueKeys) take(key string, row int) (string, int) {
	if first, taken := u.seen[key]; taken {
		for n := 1; ; n++ {
			suffix := fmt.Sprintf("-%d", n)
			candidate := key
			if u.max > 0 && len(candidate)+len(suffix) > u.max {
				candidate = strings.Trim(candidate[:u.max-len(suffix)], "-")
			}
			candidate += suffix
			if _, taken := u.seen[candidate]; !taken {
				u.seen[candidate] = row
				return candidate, first
			}
		}
	}
	u.seen[key] = row
	return key, 0
}
