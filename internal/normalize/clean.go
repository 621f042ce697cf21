package normalize

import (
	"html"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

var stripPolicy = bluemonday.StrictPolicy()

var whitespaceRe = regexp.MustCompile(`\s+`)

// CleanText strips HTML tags, unescapes entities, drops invalid UTF-8
// and collapses runs of whitespace.
func CleanText(s string) string {
	s = strings.ToValidUTF8(s, "")
	s = stripPolicy.Sanitize(s)
	s = html.UnescapeString(s)
	s = whitespaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Truncate cuts s to at most max runes.
func Truncate(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:max]))
}

// ParseDecimal accepts both '.' and ',' as decimal separator and strips
// the configured thousands separator plus currency noise.
func ParseDecimal(raw, thousandsSep string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Zero, errors.New("empty value")
	}
	if thousandsSep != "" {
		s = strings.ReplaceAll(s, thousandsSep, "")
	}
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.TrimRight(s, "€$£")
	s = strings.TrimLeft(s, "€$£")

	// one comma and no dot means comma is the decimal separator
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	} else {
		s = strings.ReplaceAll(s, ",", "")
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, errors.Wrapf(err, "failed parsing decimal %q", raw)
	}
	return d, nil
}

// ParseKeyValues parses "k=v,k=v" additional-attribute strings.
// Later occurrences of the same key win.
func ParseKeyValues(raw string) map[string]string {
	out := make(map[string]string)
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		kv := strings.SplitN(pair, "=", 2)
		if len(kv) != 2 {
			continue
		}
		k := strings.TrimSpace(kv[0])
		v := strings.TrimSpace(kv[1])
		if k == "" {
			continue
		}
		out[k] = v
	}
	return out
}

// SplitList splits multi-value cells on the separators seen in exports.
func SplitList(raw string, seps ...string) []string {
	if len(seps) == 0 {
		seps = []string{"|", ";", ","}
	}
	parts := []string{raw}
	for _, sep := range seps {
		var next []string
		for _, p := range parts {
			next = append(next, strings.Split(p, sep)...)
		}
		parts = next
	}
	var out []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
