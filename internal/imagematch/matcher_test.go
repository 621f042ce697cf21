package imagematch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mounirtms/techno-etl/internal/catalog"
)

func file(name, baseRef string, index int) catalog.ImageFile {
	return catalog.ImageFile{
		Path:    "/img/" + name,
		Name:    name,
		BaseRef: baseRef,
		Index:   index,
	}
}

func TestDeclaredImageNameWithSuffixes(t *testing.T) {
	products := []*catalog.Product{
		{SKU: "X", Name: "Product X", MediaRefs: []string{"x-main"}},
	}
	files := []catalog.ImageFile{
		file("x-main.jpg", "x-main", 0),
		file("x-main_1.jpg", "x-main", 1),
		file("x-main_2.jpg", "x-main", 2),
	}

	result := Match(products, files)

	require.Len(t, result.Bindings, 3)
	for i, b := range result.Bindings {
		assert.Equal(t, "X", b.SKU)
		assert.Equal(t, i, b.Position)
	}
	assert.Equal(t, catalog.RoleMain, result.Bindings[0].Role)
	assert.Equal(t, "x-main.jpg", result.Bindings[0].File.Name)
	assert.Equal(t, catalog.RoleGallery, result.Bindings[1].Role)
	assert.Equal(t, catalog.RoleGallery, result.Bindings[2].Role)
	assert.Equal(t, 1, result.MultiImage)
	assert.Empty(t, result.UnmatchedSKUs)
	assert.Empty(t, result.UnmatchedFiles)
}

func TestSKUMatchIgnoresSeparators(t *testing.T) {
	products := []*catalog.Product{
		{SKU: "AB-12_3", Name: "Widget"},
	}
	files := []catalog.ImageFile{
		file("ab123.jpg", "ab123", 0),
	}

	result := Match(products, files)
	require.Len(t, result.Bindings, 1)
	assert.Equal(t, "AB-12_3", result.Bindings[0].SKU)
	assert.Equal(t, 0, result.Bindings[0].Position)
}

func TestFuzzyNameTokens(t *testing.T) {
	products := []*catalog.Product{
		{SKU: "CH1", Name: "Chaise en bois"},
	}
	files := []catalog.ImageFile{
		file("photo-chaise-01.jpg", "photo-chaise-01", 0),
		file("table.jpg", "table", 0),
	}

	result := Match(products, files)
	require.Len(t, result.Bindings, 1)
	assert.Equal(t, "photo-chaise-01.jpg", result.Bindings[0].File.Name)
	assert.Equal(t, []string{"table.jpg"}, result.UnmatchedFiles)
}

func TestFileBoundAtMostOnce(t *testing.T) {
	products := []*catalog.Product{
		{SKU: "A", Name: "Chaise rouge", MediaRefs: []string{"shared"}},
		{SKU: "B", Name: "Chaise bleue", MediaRefs: []string{"shared"}},
	}
	files := []catalog.ImageFile{
		file("shared.jpg", "shared", 0),
	}

	result := Match(products, files)

	// first CSV occurrence wins
	require.Len(t, result.Bindings, 1)
	assert.Equal(t, "A", result.Bindings[0].SKU)
	assert.Equal(t, []string{"B"}, result.UnmatchedSKUs)

	paths := map[string]int{}
	for _, b := range result.Bindings {
		paths[b.File.Path]++
	}
	for path, count := range paths {
		assert.Equal(t, 1, count, "file %s bound more than once", path)
	}
}

func TestOneMainPerSKU(t *testing.T) {
	products := []*catalog.Product{
		{SKU: "X", MediaRefs: []string{"x"}, Name: "X item"},
	}
	files := []catalog.ImageFile{
		file("x_2.jpg", "x", 2),
		file("x.jpg", "x", 0),
		file("x_1.jpg", "x", 1),
	}

	result := Match(products, files)
	require.Len(t, result.Bindings, 3)

	mains := 0
	for _, b := range result.Bindings {
		if b.Role == catalog.RoleMain {
			mains++
			assert.Equal(t, 0, b.Position)
		}
	}
	assert.Equal(t, 1, mains)
	// sorted by index: x.jpg first
	assert.Equal(t, "x.jpg", result.Bindings[0].File.Name)
	assert.Equal(t, "x_1.jpg", result.Bindings[1].File.Name)
}

func TestUnmatchedReport(t *testing.T) {
	products := []*catalog.Product{
		{SKU: "NOPIC", Name: "zz"},
	}
	files := []catalog.ImageFile{
		file("orphan.jpg", "orphan", 0),
	}

	result := Match(products, files)
	assert.Empty(t, result.Bindings)
	assert.Equal(t, []string{"NOPIC"}, result.UnmatchedSKUs)
	assert.Equal(t, []string{"orphan.jpg"}, result.UnmatchedFiles)
	assert.Equal(t, 0, result.MultiImage)
}
