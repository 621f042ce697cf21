package imagematch

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/mounirtms/techno-etl/internal/catalog"
	"github.com/mounirtms/techno-etl/pkg/logging"
)

var imageExtRe = regexp.MustCompile(`(?i)\.(jpe?g|png|gif|webp)$`)
var indexSuffixRe = regexp.MustCompile(`^(.*)_([0-9]+)$`)

// ScanDir lists image files in dir and splits each base name into its
// reference and position: photo.jpg -> (photo, 0), photo_2.jpg -> (photo, 2).
func ScanDir(dir string) ([]catalog.ImageFile, error) {
	logger := logging.GetLogger()
	logger.Debugf("Start ScanDir %s", dir)
	defer logger.Debug("End ScanDir")

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "failed in os.ReadDir(%s)", dir)
	}

	var files []catalog.ImageFile
	for _, entry := range entries {
		if entry.IsDir() || !imageExtRe.MatchString(entry.Name()) {
			continue
		}
		fi, err := entry.Info()
		if err != nil {
			return nil, errors.Wrapf(err, "failed in entry.Info(%s)", entry.Name())
		}

		base := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		ref, index := base, 0
		if m := indexSuffixRe.FindStringSubmatch(base); m != nil {
			if n, err := strconv.Atoi(m[2]); err == nil {
				ref, index = m[1], n
			}
		}

		files = append(files, catalog.ImageFile{
			Path:    filepath.Join(dir, entry.Name()),
			Name:    entry.Name(),
			Size:    fi.Size(),
			BaseRef: ref,
			Index:   index,
		})
	}

	logger.Debugf("found %d image files", len(files))
	return files, nil
}

// Result is the matching outcome plus the unmatched report.
type Result struct {
	Bindings       []catalog.MediaBinding
	UnmatchedSKUs  []string
	UnmatchedFiles []string
	MultiImage     int
}

type matcher struct {
	files []catalog.ImageFile

	byName    map[string]int   // full filename, lowercased -> file idx
	byBase    map[string]int   // base without extension -> file idx
	byBaseRef map[string][]int // reference without _N suffix -> file idxs
	byNorm    map[string][]int // base with -_ and spaces removed -> file idxs

	used map[string]bool // path -> already bound
}

// Match assigns files to products. Strategies run in order (declared
// image name, reference pattern, sku, fuzzy name tokens), candidates are
// merged per sku, deduplicated by path and sorted by (index, filename).
// A file is bound at most once across the whole catalog; products are
// visited in CSV order so ties break by first occurrence.
func Match(products []*catalog.Product, files []catalog.ImageFile) *Result {
	logger := logging.GetLogger()
	logger.Debugf("Start Match; products=%d files=%d", len(products), len(files))
	defer logger.Debug("End Match")

	m := &matcher{
		files:     files,
		byName:    make(map[string]int),
		byBase:    make(map[string]int),
		byBaseRef: make(map[string][]int),
		byNorm:    make(map[string][]int),
		used:      make(map[string]bool),
	}
	for i, f := range files {
		name := strings.ToLower(f.Name)
		base := strings.TrimSuffix(name, filepath.Ext(name))
		m.byName[name] = i
		m.byBase[base] = i
		ref := strings.ToLower(f.BaseRef)
		m.byBaseRef[ref] = append(m.byBaseRef[ref], i)
		m.byNorm[normalizeRef(base)] = append(m.byNorm[normalizeRef(base)], i)
	}

	result := &Result{}
	for _, p := range products {
		candidates := m.candidatesFor(p)
		bound := m.bind(p.SKU, candidates, result)
		if bound == 0 {
			result.UnmatchedSKUs = append(result.UnmatchedSKUs, p.SKU)
		}
		if bound >= 2 {
			result.MultiImage++
		}
	}

	for _, f := range files {
		if !m.used[f.Path] {
			result.UnmatchedFiles = append(result.UnmatchedFiles, f.Name)
		}
	}

	logger.Infof("matched %d bindings, %d products and %d files unmatched",
		len(result.Bindings), len(result.UnmatchedSKUs), len(result.UnmatchedFiles))
	return result
}

// candidatesFor merges the four strategies, deduplicated by path.
func (m *matcher) candidatesFor(p *catalog.Product) []catalog.ImageFile {
	var idxs []int
	seen := make(map[int]bool)
	add := func(i int) {
		if !seen[i] {
			seen[i] = true
			idxs = append(idxs, i)
		}
	}

	// 1. declared image name, with or without extension
	for _, ref := range p.MediaRefs {
		ref = strings.ToLower(strings.TrimSpace(ref))
		if ref == "" {
			continue
		}
		if i, ok := m.byName[ref]; ok {
			add(i)
		}
		base := strings.TrimSuffix(ref, filepath.Ext(ref))
		if i, ok := m.byBase[base]; ok {
			add(i)
		}
		// 2. reference pattern: base or base_N
		for _, i := range m.byBaseRef[base] {
			add(i)
		}
	}

	// 3. sku with -_ and spaces stripped
	for _, i := range m.byNorm[normalizeRef(p.SKU)] {
		add(i)
	}

	// 4. fuzzy: filename contains a name token longer than 2 runes
	for _, token := range nameTokens(p.Name) {
		for i, f := range m.files {
			if strings.Contains(strings.ToLower(f.Name), token) {
				add(i)
			}
		}
	}

	out := make([]catalog.ImageFile, 0, len(idxs))
	for _, i := range idxs {
		out = append(out, m.files[i])
	}
	sort.SliceStable(out, func(a, b int) bool {
		if out[a].Index != out[b].Index {
			return out[a].Index < out[b].Index
		}
		return out[a].Name < out[b].Name
	})
	return out
}

// bind assigns unused candidates to sequential positions; the first
// becomes the main image at position 0.
func (m *matcher) bind(sku string, candidates []catalog.ImageFile, result *Result) int {
	position := 0
	for _, f := range candidates {
		if m.used[f.Path] {
			continue
		}
		m.used[f.Path] = true

		role := catalog.RoleGallery
		if position == 0 {
			role = catalog.RoleMain
		}
		result.Bindings = append(result.Bindings, catalog.MediaBinding{
			SKU:      sku,
			Position: position,
			File:     f,
			Role:     role,
		})
		position++
	}
	return position
}

func normalizeRef(s string) string {
	s = strings.ToLower(s)
	for _, cut := range []string{"-", "_", " "} {
		s = strings.ReplaceAll(s, cut, "")
	}
	return s
}

func nameTokens(name string) []string {
	var tokens []string
	for _, w := range strings.Fields(strings.ToLower(name)) {
		w = strings.Trim(w, ".,;:()[]'\"")
		if len([]rune(w)) > 2 {
			tokens = append(tokens, w)
		}
	}
	return tokens
}
