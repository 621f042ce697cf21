package csvengine

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadAliasesAndIndexes(t *testing.T) {
	in := "Ref,Title,Image Name\nSKU-1,Chair,chair-main\nSKU-2,Table,\n"

	doc, err := Read(strings.NewReader(in))
	require.NoError(t, err)

	assert.Equal(t, []string{"sku", "name", "image_name"}, doc.Columns)
	require.Len(t, doc.Rows, 2)

	// header is row 1
	assert.Equal(t, 2, doc.Rows[0].Index)
	assert.Equal(t, 3, doc.Rows[1].Index)

	assert.Equal(t, "SKU-1", Get(doc.Rows[0], "sku"))
	assert.Equal(t, "Chair", Get(doc.Rows[0], "name"))
	assert.Equal(t, "chair-main", Get(doc.Rows[0], "image_name"))
}

func TestReadQuotedFields(t *testing.T) {
	in := "sku,name,description\n" +
		"A,\"Chair, oak\",\"He said \"\"hi\"\"\nsecond line\"\n"

	doc, err := Read(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, doc.Rows, 1)

	assert.Equal(t, "Chair, oak", Get(doc.Rows[0], "name"))
	assert.Equal(t, "He said \"hi\"\nsecond line", Get(doc.Rows[0], "description"))
}

func TestReadCRLF(t *testing.T) {
	in := "sku,name\r\nA,Chair\r\nB,Table\r\n"

	doc, err := Read(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, doc.Rows, 2)
	assert.Equal(t, "Table", Get(doc.Rows[1], "name"))
}

func TestReadShortRowFlagged(t *testing.T) {
	in := "sku,name,price\nA,Chair,10\nB,Table\n"

	doc, err := Read(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, doc.Rows, 2)

	assert.False(t, doc.Rows[0].Short)
	assert.True(t, doc.Rows[1].Short)
	assert.Equal(t, "", Get(doc.Rows[1], "price"))
}

func TestReadMissingSKUColumn(t *testing.T) {
	_, err := Read(strings.NewReader("name,price\nChair,10\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sku")
}

func TestRoundTrip(t *testing.T) {
	// already RFC-4180 conformant, headers already canonical
	in := "sku,name,description\n" +
		"A,\"Chair, oak\",plain\n" +
		"B,Table,\"multi\nline\"\n"

	doc, err := Read(strings.NewReader(in))
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, Write(&out, doc))

	doc2, err := Read(strings.NewReader(out.String()))
	require.NoError(t, err)

	assert.Equal(t, doc.Columns, doc2.Columns)
	require.Equal(t, len(doc.Rows), len(doc2.Rows))
	for i := range doc.Rows {
		assert.Equal(t, doc.Rows[i].Fields, doc2.Rows[i].Fields)
	}
}

func TestCanonicalColumnUnknownPassThrough(t *testing.T) {
	assert.Equal(t, "my_custom_field", CanonicalColumn("  My   Custom Field "))
}
