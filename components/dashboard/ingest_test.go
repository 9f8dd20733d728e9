package dashboard

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestDetectFormat(t *testing.T) {
	cases := map[string]SourceKind{
		"sales.csv":   SourceKindCSV,
		"SALES.CSV":   SourceKindCSV,
		"book.xlsx":   SourceKindExcel,
		"legacy.xls":  SourceKindExcel,
		"export.json": SourceKindJSON,
	}
	for name, want := range cases {
		got, err := DetectFormat(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}
	_, err := DetectFormat("notes.txt")
	require.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestParseCSVCoercesCells(t *testing.T) {
	input := "\ufeffname,amount,active,note\nAda,1200.50,TRUE,\nGrace,-3,false,n/a\n"
	table, err := ParseCSV(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, []string{"name", "amount", "active", "note"}, table.Columns)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, Row{"name": "Ada", "amount": 1200.5, "active": true, "note": nil}, table.Rows[0])
	assert.Equal(t, Row{"name": "Grace", "amount": -3.0, "active": false, "note": "n/a"}, table.Rows[1])
}

func TestParseCSVHeaderNames(t *testing.T) {
	table, err := ParseCSV(strings.NewReader("a,a,,\n1,2,3,4\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "a_1", "__EMPTY", "__EMPTY_1"}, table.Columns)
}

func TestParseCSVHeaderOnly(t *testing.T) {
	table, err := ParseCSV(strings.NewReader("a,b\n"))
	require.NoError(t, err)
	assert.Empty(t, table.Rows)
}

func TestParseCSVErrors(t *testing.T) {
	_, err := ParseCSV(strings.NewReader(""))
	require.ErrorIs(t, err, ErrIngestion)

	_, err = ParseCSV(strings.NewReader("a,b\n1,2,3\n"))
	require.ErrorIs(t, err, ErrIngestion)

	_, err = ParseCSV(strings.NewReader("a,b\n\"open,2\n"))
	require.ErrorIs(t, err, ErrIngestion)
}

func TestParseJSONArrayKeepsKeyOrder(t *testing.T) {
	input := `[{"zeta": 1, "alpha": "x"}, {"alpha": "y", "beta": true, "zeta": null}]`
	table, err := ParseJSON(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, SourceKindJSON, table.Kind)
	assert.Equal(t, []string{"zeta", "alpha", "beta"}, table.Columns)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, 1.0, table.Rows[0]["zeta"])
	assert.Nil(t, table.Rows[1]["zeta"])
	assert.Equal(t, true, table.Rows[1]["beta"])
}

func TestParseJSONSingleObject(t *testing.T) {
	table, err := ParseJSON(strings.NewReader(`{"total": 12, "label": "Q1"}`))
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, []string{"total", "label"}, table.Columns)
}

func TestParseJSONRejectsInvalidShapes(t *testing.T) {
	for _, input := range []string{
		``,
		`42`,
		`"text"`,
		`[{"a":1}, 2]`,
		`[{"a":1}`,
		`{"a":1} {"b":2}`,
	} {
		_, err := ParseJSON(strings.NewReader(input))
		require.ErrorIs(t, err, ErrIngestion, input)
	}
}

func TestParseExcelFirstSheet(t *testing.T) {
	book := excelize.NewFile()
	defer book.Close()
	sheet := book.GetSheetName(0)
	require.NoError(t, book.SetSheetRow(sheet, "A1", &[]any{"region", "revenue", "notes"}))
	require.NoError(t, book.SetSheetRow(sheet, "A2", &[]any{"North", 1200, "ok"}))
	require.NoError(t, book.SetSheetRow(sheet, "A4", &[]any{"South", 800.5}))
	_, err := book.NewSheet("Ignored")
	require.NoError(t, err)
	require.NoError(t, book.SetCellValue("Ignored", "A1", "skip"))
	buf, err := book.WriteToBuffer()
	require.NoError(t, err)

	table, err := ParseFile("regions.xlsx", bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)

	assert.Equal(t, SourceKindExcel, table.Kind)
	assert.Equal(t, []string{"region", "revenue", "notes"}, table.Columns)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, Row{"region": "North", "revenue": 1200.0, "notes": "ok"}, table.Rows[0])
	assert.Equal(t, Row{"region": "South", "revenue": 800.5}, table.Rows[1])
}

func TestParseExcelKeepsBooleanCells(t *testing.T) {
	book := excelize.NewFile()
	defer book.Close()
	sheet := book.GetSheetName(0)
	require.NoError(t, book.SetSheetRow(sheet, "A1", &[]any{"team", "active", "score"}))
	require.NoError(t, book.SetSheetRow(sheet, "A2", &[]any{"red", true, 1}))
	require.NoError(t, book.SetSheetRow(sheet, "A3", &[]any{"blue", false, 0}))
	buf, err := book.WriteToBuffer()
	require.NoError(t, err)

	table, err := ParseExcel(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, Row{"team": "red", "active": true, "score": 1.0}, table.Rows[0])
	assert.Equal(t, Row{"team": "blue", "active": false, "score": 0.0}, table.Rows[1])

	fields := InferFields(DataSource{Columns: table.Columns, Rows: table.Rows})
	assert.Equal(t, []Field{
		{Name: "team", Type: FieldString},
		{Name: "active", Type: FieldBoolean},
		{Name: "score", Type: FieldNumber},
	}, fields)
}

func TestParseExcelRejectsGarbage(t *testing.T) {
	_, err := ParseFile("broken.xlsx", strings.NewReader("not a zip"))
	require.ErrorIs(t, err, ErrIngestion)
}

func TestCoerceCell(t *testing.T) {
	assert.Nil(t, coerceCell(""))
	assert.Equal(t, 42.0, coerceCell("42"))
	assert.Equal(t, 0.5, coerceCell(".5"))
	assert.Equal(t, 1e3, coerceCell("1e3"))
	assert.Equal(t, true, coerceCell("True"))
	assert.Equal(t, "12abc", coerceCell("12abc"))
	assert.Equal(t, "1,200", coerceCell("1,200"))
}
