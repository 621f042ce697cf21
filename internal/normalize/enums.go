package normalize

import (
	"sort"
	"strings"
)

// AliasSet canonicalizes an enumerated attribute value through a
// case-insensitive alias map ("NOIR" and "noir" both resolve to "Noir").
type AliasSet struct {
	canonical []string
	byAlias   map[string]string
}

func NewAliasSet() *AliasSet {
	return &AliasSet{byAlias: make(map[string]string)}
}

func (a *AliasSet) Add(canonical string, aliases ...string) {
	canonical = strings.TrimSpace(canonical)
	if canonical == "" {
		return
	}
	if _, ok := a.byAlias[foldKey(canonical)]; !ok {
		a.canonical = append(a.canonical, canonical)
	}
	a.byAlias[foldKey(canonical)] = canonical
	for _, alias := range aliases {
		alias = strings.TrimSpace(alias)
		if alias != "" {
			a.byAlias[foldKey(alias)] = canonical
		}
	}
}

// Canonicalize returns the canonical spelling for v.
func (a *AliasSet) Canonicalize(v string) (string, bool) {
	c, ok := a.byAlias[foldKey(v)]
	return c, ok
}

// Allowed lists canonical values, sorted, for diagnostics.
func (a *AliasSet) Allowed() []string {
	out := make([]string, len(a.canonical))
	copy(out, a.canonical)
	sort.Strings(out)
	return out
}

func (a *AliasSet) Len() int {
	return len(a.canonical)
}

func foldKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// ParseAliasSpecs builds an AliasSet from config entries of the form
// "Canonical" or "Canonical:alias1,alias2".
func ParseAliasSpecs(entries []string) *AliasSet {
	set := NewAliasSet()
	for _, entry := range entries {
		parts := strings.SplitN(entry, ":", 2)
		if len(parts) == 1 {
			set.Add(parts[0])
			continue
		}
		set.Add(parts[0], strings.Split(parts[1], ",")...)
	}
	return set
}

// DefaultColors is the canonical color catalog used when the config does
// not supply one.
func DefaultColors() *AliasSet {
	return ParseAliasSpecs([]string{
		"Noir", "Blanc", "Bleu", "Rouge", "Vert", "Jaune",
		"Gris", "Rose", "Marron", "Orange", "Violet", "Beige",
	})
}
