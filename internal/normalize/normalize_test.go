package normalize

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mounirtms/techno-etl/internal/catalog"
	"github.com/mounirtms/techno-etl/internal/csvengine"
)

func testOptions() Options {
	return Options{
		Defaults: Defaults{
			Status:         catalog.StatusEnabled,
			Visibility:     catalog.VisibilityCatalogSearch,
			TaxClassID:     2,
			Weight:         decimal.NewFromInt(1),
			AttributeSetID: 4,
			TypeID:         catalog.TypeSimple,
			StockStatus:    catalog.StockInStock,
			ManageStock:    true,
			Qty:            10,
		},
		MinPrice: decimal.NewFromInt(1),
		PriceDefaults: &PriceDefaults{
			ByCategory: map[string]decimal.Decimal{},
			Global:     decimal.RequireFromString("9.99"),
		},
		Colors:         DefaultColors(),
		AttributeScope: "global",
	}
}

func parseRows(t *testing.T, csv string) []catalog.SourceRow {
	t.Helper()
	doc, err := csvengine.Read(strings.NewReader(csv))
	require.NoError(t, err)
	return doc.Rows
}

func TestMissingPriceDefaulted(t *testing.T) {
	rows := parseRows(t, "sku,name,price\nA,Alpha,10.00\nB,Beta,\nC,Gamma,3.50\n")

	cat, diags := New(testOptions()).Run(rows)

	require.Len(t, cat.Products, 3)
	b, ok := cat.BySKU("B")
	require.True(t, ok)
	assert.Equal(t, "9.99", b.Price.String())

	var found *catalog.Diagnostic
	for i := range diags {
		if diags[i].Field == "price" {
			found = &diags[i]
		}
	}
	require.NotNil(t, found)
	assert.Equal(t, 3, found.Row)
	assert.Equal(t, catalog.SeverityInfo, found.Severity)
	assert.Equal(t, "defaulted", found.Action)
}

func TestColorCanonicalization(t *testing.T) {
	rows := parseRows(t, "sku,name,color\nA,Alpha,NOIR\nB,Beta,bleu\nC,Gamma,blue\n")

	cat, diags := New(testOptions()).Run(rows)

	require.Len(t, cat.Products, 2)
	a, _ := cat.BySKU("A")
	b, _ := cat.BySKU("B")
	assert.Equal(t, "Noir", a.CustomAttributes["color"])
	assert.Equal(t, "Bleu", b.CustomAttributes["color"])

	_, ok := cat.BySKU("C")
	assert.False(t, ok)

	var rejected *catalog.Diagnostic
	for i := range diags {
		if diags[i].Severity == catalog.SeverityError {
			rejected = &diags[i]
		}
	}
	require.NotNil(t, rejected)
	assert.Equal(t, "color", rejected.Field)
	assert.Equal(t, "blue", rejected.Value)
	assert.Contains(t, rejected.Hint, "Bleu")
	assert.Contains(t, rejected.Hint, "Noir")
}

func TestCommaDecimalSeparator(t *testing.T) {
	rows := parseRows(t, "sku,name,price,weight\nA,Alpha,\"12,50\",\"0,3\"\n")

	cat, _ := New(testOptions()).Run(rows)
	require.Len(t, cat.Products, 1)
	assert.Equal(t, "12.5", cat.Products[0].Price.String())
	assert.Equal(t, "0.3", cat.Products[0].Weight.String())
}

func TestLowPriceReplacedByCategoryDefault(t *testing.T) {
	opts := testOptions()
	opts.PriceDefaults.ByCategory["chaises"] = decimal.RequireFromString("49.90")

	rows := parseRows(t, "sku,name,price,categories\nA,Tabouret,0,Mobilier/Chaises\n")
	cat, diags := New(opts).Run(rows)

	require.Len(t, cat.Products, 1)
	assert.Equal(t, "49.9", cat.Products[0].Price.String())
	require.NotEmpty(t, diags)
	assert.Equal(t, "defaulted", diags[len(diags)-1].Action)
}

func TestDuplicateSKURejected(t *testing.T) {
	rows := parseRows(t, "sku,name\nA,First\nA,Second\n")

	cat, diags := New(testOptions()).Run(rows)

	require.Len(t, cat.Products, 1)
	require.Len(t, diags, 1)
	assert.Equal(t, 3, diags[0].Row)
	assert.Contains(t, diags[0].Message, "row 2")
}

func TestURLKeyUniqueness(t *testing.T) {
	rows := parseRows(t, "sku,name\nA,Chaise Bleue\nB,Chaise Bleue\nC,Chaise Bleue\n")

	cat, _ := New(testOptions()).Run(rows)
	require.Len(t, cat.Products, 3)

	keys := map[string]bool{}
	for _, p := range cat.Products {
		assert.False(t, keys[p.URLKey], "url key %s duplicated", p.URLKey)
		keys[p.URLKey] = true
	}
	a, _ := cat.BySKU("A")
	assert.Equal(t, "chaise-bleue", a.URLKey)
}

func TestHTMLStrippedAndTruncated(t *testing.T) {
	opts := testOptions()
	opts.MaxNameLen = 10

	rows := parseRows(t, "sku,name,description\nA,\"<b>Grande   chaise</b> &amp; plus\",\"<p>desc</p>\"\n")
	cat, _ := New(opts).Run(rows)

	require.Len(t, cat.Products, 1)
	assert.Equal(t, "Grande cha", cat.Products[0].Name)
	assert.Equal(t, "desc", cat.Products[0].Description)
}

func TestAdditionalAttributesLaterKeyWins(t *testing.T) {
	rows := parseRows(t, "sku,name,additional_attributes\nA,Alpha,\"material=wood, finish=matte, material=oak\"\n")

	cat, _ := New(testOptions()).Run(rows)
	require.Len(t, cat.Products, 1)
	assert.Equal(t, "oak", cat.Products[0].CustomAttributes["material"])
	assert.Equal(t, "matte", cat.Products[0].CustomAttributes["finish"])
}

func TestInvalidSKU(t *testing.T) {
	rows := parseRows(t, "sku,name\nA B,Alpha\n,Beta\n")

	cat, diags := New(testOptions()).Run(rows)
	assert.Empty(t, cat.Products)
	require.Len(t, diags, 2)
	for _, d := range diags {
		assert.Equal(t, catalog.SeverityError, d.Severity)
		assert.Equal(t, "sku", d.Field)
	}
}

func TestConfigurableNeedsVariants(t *testing.T) {
	rows := parseRows(t, "sku,name,type_id,configurable_variations\nCFG,Parent,configurable,A|B\nBAD,Parent,configurable,\n")

	cat, diags := New(testOptions()).Run(rows)
	require.Len(t, cat.Products, 1)
	assert.Equal(t, []string{"A", "B"}, cat.Products[0].VariantSKUs)
	require.Len(t, diags, 1)
	assert.Equal(t, "configurable_variations", diags[0].Field)
}

func TestRejectedConfigurableDoesNotReserveURLKey(t *testing.T) {
	rows := parseRows(t, "sku,name,type_id,configurable_variations\nBAD,Chaise Bleue,configurable,\nA,Chaise Bleue,simple,\n")

	cat, diags := New(testOptions()).Run(rows)

	require.Len(t, cat.Products, 1)
	a, ok := cat.BySKU("A")
	require.True(t, ok)
	assert.Equal(t, "chaise-bleue", a.URLKey)

	require.Len(t, diags, 1)
	assert.Equal(t, "configurable_variations", diags[0].Field)
}

func TestAttributeSpecsRegistered(t *testing.T) {
	rows := parseRows(t, "sku,name,color,additional_attributes\nA,Alpha,Noir,material=wood\n")

	cat, _ := New(testOptions()).Run(rows)
	require.Contains(t, cat.Attributes, "color")
	require.Contains(t, cat.Attributes, "material")
	assert.Equal(t, "select", cat.Attributes["color"].Type)
	assert.NotEmpty(t, cat.Attributes["color"].AllowedValues)
	assert.Equal(t, "text", cat.Attributes["material"].Type)
}

func TestAttributeLabelFromSnakeCaseCode(t *testing.T) {
	rows := parseRows(t, "sku,name,additional_attributes\nA,Alpha,seat_material=wood\n")

	cat, _ := New(testOptions()).Run(rows)
	require.Contains(t, cat.Attributes, "seat_material")
	assert.Equal(t, "Seat Material", cat.Attributes["seat_material"].Label)
}
