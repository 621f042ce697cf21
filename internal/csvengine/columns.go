package csvengine

import (
	"regexp"
	"strings"
)

// Canonical column names used by the rest of the pipeline. Source files
// come from several export tools, so each canonical column carries the
// aliases seen in the wild.
var columnAliases = map[string][]string{
	"sku":                   {"ref", "reference", "code"},
	"name":                  {"title", "product name", "libelle"},
	"image_name":            {"image name", "image", "photo", "filename", "file"},
	"price":                 {"prix", "unit price"},
	"weight":                {"poids"},
	"qty":                   {"quantity", "stock", "quantite"},
	"status":                {"enabled", "etat"},
	"visibility":            {},
	"tax_class_id":          {"tax class", "tax"},
	"attribute_set":         {"attribute set", "attribute set code"},
	"type_id":               {"type", "product type"},
	"description":           {"long description"},
	"short_description":     {"short description", "resume"},
	"url_key":               {"url key", "url-key"},
	"categories":            {"category", "categorie", "category path"},
	"brand":                 {"marque", "manufacturer"},
	"color":                 {"couleur", "colour"},
	"additional_attributes": {"additional attributes", "attributes"},
	"configurable_variations": {"variations", "variants", "variant skus"},
}

var aliasIndex map[string]string

var spaceRe = regexp.MustCompile(`\s+`)

func init() {
	aliasIndex = make(map[string]string)
	for canonical, aliases := range columnAliases {
		aliasIndex[canonical] = canonical
		aliasIndex[normalizeHeader(canonical)] = canonical
		for _, a := range aliases {
			aliasIndex[normalizeHeader(a)] = canonical
		}
	}
}

// normalizeHeader lowercases, trims and collapses inner whitespace.
func normalizeHeader(name string) string {
	name = strings.TrimSpace(strings.ToLower(name))
	name = strings.TrimPrefix(name, "\uFEFF")
	return spaceRe.ReplaceAllString(name, " ")
}

// CanonicalColumn maps a raw header cell to its canonical column name.
// Unknown columns keep their normalized name with spaces turned into
// underscores, so pass-through fields survive a read/write cycle.
func CanonicalColumn(name string) string {
	n := normalizeHeader(name)
	if canonical, ok := aliasIndex[n]; ok {
		return canonical
	}
	return strings.ReplaceAll(n, " ", "_")
}
