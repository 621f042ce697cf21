package catalog

import (
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotRoundTrip(t *testing.T) {
	cat := NewCatalog()
	cat.Add(&Product{
		Row:          2,
		SKU:          "TEE-NOIR",
		Name:         "Tee-shirt noir",
		Price:        decimal.NewFromFloat(19.90),
		TypeID:       TypeSimple,
		CategoryPath: []string{"Vetements", "Tee-shirts"},
		CustomAttributes: map[string]string{
			"color": "Noir",
		},
	})
	cat.Add(&Product{
		Row:         3,
		SKU:         "TEE",
		Name:        "Tee-shirt",
		TypeID:      TypeConfigurable,
		VariantSKUs: []string{"TEE-NOIR"},
	})
	cat.Attributes["color"] = &AttributeSpec{
		Code:          "color",
		Label:         "Color",
		Scope:         "global",
		Type:          "select",
		AllowedValues: []string{"Noir"},
	}

	path := filepath.Join(t.TempDir(), "catalog.json")
	require.NoError(t, WriteSnapshot(path, cat))

	loaded, err := LoadSnapshot(path)
	require.NoError(t, err)

	require.Len(t, loaded.Products, 2)
	assert.Equal(t, "TEE-NOIR", loaded.Products[0].SKU)
	assert.True(t, loaded.Products[0].Price.Equal(decimal.NewFromFloat(19.90)))
	assert.Equal(t, []string{"Vetements", "Tee-shirts"}, loaded.Products[0].CategoryPath)
	assert.Equal(t, []string{"TEE-NOIR"}, loaded.Products[1].VariantSKUs)
	require.Contains(t, loaded.Attributes, "color")
	assert.Equal(t, []string{"Noir"}, loaded.Attributes["color"].AllowedValues)
}

func TestSnapshotRebuildsSkuIndex(t *testing.T) {
	cat := NewCatalog()
	cat.Add(&Product{SKU: "TEE-NOIR", Name: "Tee-shirt noir", TypeID: TypeSimple})

	path := filepath.Join(t.TempDir(), "catalog.json")
	require.NoError(t, WriteSnapshot(path, cat))

	loaded, err := LoadSnapshot(path)
	require.NoError(t, err)

	p, ok := loaded.BySKU("TEE-NOIR")
	require.True(t, ok)
	assert.Equal(t, "Tee-shirt noir", p.Name)

	_, ok = loaded.BySKU("MISSING")
	assert.False(t, ok)
}

func TestLoadSnapshotMissingFile(t *testing.T) {
	_, err := LoadSnapshot(filepath.Join(t.TempDir(), "catalog.json"))
	assert.Error(t, err)
}
