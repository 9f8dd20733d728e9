package dashboard

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

var (
	ErrIngestion         = errors.New("dashboard: ingestion failed")
	ErrUnsupportedFormat = errors.New("dashboard: unsupported file format")
)

// emptyHeader names header cells that carry no text.
const emptyHeader = "__EMPTY"

var numericCell = regexp.MustCompile(`^\s*-?(\d+\.?|\.\d+|\d+\.\d+)([eE][-+]?\d+)?\s*$`)

// ParsedTable is the result of a successful file parse.
type ParsedTable struct {
	Kind    SourceKind
	Columns []string
	Rows    []Row
}

// DetectFormat maps a file name to its source kind by extension.
func DetectFormat(fileName string) (SourceKind, error) {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".csv":
		return SourceKindCSV, nil
	case ".xlsx", ".xls":
		return SourceKindExcel, nil
	case ".json":
		return SourceKindJSON, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, fileName)
	}
}

// ParseFile detects the format of fileName and parses r accordingly. The
// extension is checked before anything is read.
func ParseFile(fileName string, r io.Reader) (ParsedTable, error) {
	kind, err := DetectFormat(fileName)
	if err != nil {
		return ParsedTable{}, err
	}
	var table ParsedTable
	switch kind {
	case SourceKindCSV:
		table, err = ParseCSV(r)
	case SourceKindExcel:
		table, err = ParseExcel(r)
	case SourceKindJSON:
		table, err = ParseJSON(r)
	default:
		err = fmt.Errorf("%w: %s", ErrUnsupportedFormat, kind)
	}
	if err != nil {
		return ParsedTable{}, err
	}
	return table, nil
}

// ParseCSV reads a header row followed by data rows. Any malformed or
// ragged record fails the whole parse.
func ParseCSV(r io.Reader) (ParsedTable, error) {
	reader := csv.NewReader(r)
	reader.ReuseRecord = false
	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return ParsedTable{}, fmt.Errorf("%w: csv file is empty", ErrIngestion)
	}
	if err != nil {
		return ParsedTable{}, fmt.Errorf("%w: csv header: %v", ErrIngestion, err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	columns := headerNames(header)
	table := ParsedTable{Kind: SourceKindCSV, Columns: columns, Rows: []Row{}}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return ParsedTable{}, fmt.Errorf("%w: csv: %v", ErrIngestion, err)
		}
		row := make(Row, len(columns))
		for i, name := range columns {
			row[name] = coerceCell(record[i])
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

// ParseExcel reads the first worksheet of a workbook. Empty cells are left
// out of their row and fully blank rows are skipped.
func ParseExcel(r io.Reader) (ParsedTable, error) {
	book, err := excelize.OpenReader(r)
	if err != nil {
		return ParsedTable{}, fmt.Errorf("%w: excel: %v", ErrIngestion, err)
	}
	defer book.Close()
	sheets := book.GetSheetList()
	if len(sheets) == 0 {
		return ParsedTable{}, fmt.Errorf("%w: excel workbook has no sheets", ErrIngestion)
	}
	rows, err := book.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return ParsedTable{}, fmt.Errorf("%w: excel sheet %q: %v", ErrIngestion, sheets[0], err)
	}
	if len(rows) == 0 {
		return ParsedTable{}, fmt.Errorf("%w: excel sheet %q is empty", ErrIngestion, sheets[0])
	}
	columns := headerNames(rows[0])
	table := ParsedTable{Kind: SourceKindExcel, Columns: columns, Rows: []Row{}}
	for r, cells := range rows[1:] {
		row := Row{}
		for i, cell := range cells {
			if i >= len(columns) || strings.TrimSpace(cell) == "" {
				continue
			}
			if b, ok := excelBool(book, sheets[0], i+1, r+2, cell); ok {
				row[columns[i]] = b
				continue
			}
			row[columns[i]] = coerceCell(cell)
		}
		if len(row) == 0 {
			continue
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

// excelBool reports the value of a boolean typed cell. Raw values store
// booleans as 1 and 0.
func excelBool(book *excelize.File, sheet string, col, row int, raw string) (bool, bool) {
	name, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return false, false
	}
	typ, err := book.GetCellType(sheet, name)
	if err != nil || typ != excelize.CellTypeBool {
		return false, false
	}
	raw = strings.TrimSpace(raw)
	return raw == "1" || strings.EqualFold(raw, "true"), true
}

// ParseJSON accepts either an array of objects or a single object. Column
// order is the order in which keys first appear.
func ParseJSON(r io.Reader) (ParsedTable, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	tok, err := dec.Token()
	if errors.Is(err, io.EOF) {
		return ParsedTable{}, fmt.Errorf("%w: json document is empty", ErrIngestion)
	}
	if err != nil {
		return ParsedTable{}, fmt.Errorf("%w: json: %v", ErrIngestion, err)
	}
	table := ParsedTable{Kind: SourceKindJSON, Rows: []Row{}}
	seen := map[string]struct{}{}
	addRow := func(row Row, keys []string) {
		for _, k := range keys {
			if _, ok := seen[k]; !ok {
				seen[k] = struct{}{}
				table.Columns = append(table.Columns, k)
			}
		}
		table.Rows = append(table.Rows, row)
	}
	switch tok {
	case json.Delim('['):
		for index := 0; dec.More(); index++ {
			next, err := dec.Token()
			if err != nil {
				return ParsedTable{}, fmt.Errorf("%w: json element %d: %v", ErrIngestion, index, err)
			}
			if next != json.Delim('{') {
				return ParsedTable{}, fmt.Errorf("%w: json element %d is not an object", ErrIngestion, index)
			}
			row, keys, err := decodeObject(dec)
			if err != nil {
				return ParsedTable{}, fmt.Errorf("%w: json element %d: %v", ErrIngestion, index, err)
			}
			addRow(row, keys)
		}
		if _, err := dec.Token(); err != nil {
			return ParsedTable{}, fmt.Errorf("%w: json: %v", ErrIngestion, err)
		}
	case json.Delim('{'):
		row, keys, err := decodeObject(dec)
		if err != nil {
			return ParsedTable{}, fmt.Errorf("%w: json: %v", ErrIngestion, err)
		}
		addRow(row, keys)
	default:
		return ParsedTable{}, fmt.Errorf("%w: json must be an array of objects or an object", ErrIngestion)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return ParsedTable{}, fmt.Errorf("%w: json has trailing data", ErrIngestion)
	}
	return table, nil
}

// decodeObject reads the members of an object whose opening brace has
// already been consumed.
func decodeObject(dec *json.Decoder) (Row, []string, error) {
	row := Row{}
	var keys []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, nil, fmt.Errorf("unexpected token %v", tok)
		}
		var value any
		if err := dec.Decode(&value); err != nil {
			return nil, nil, err
		}
		if _, dup := row[key]; !dup {
			keys = append(keys, key)
		}
		row[key] = normalizeJSONValue(value)
	}
	if _, err := dec.Token(); err != nil {
		return nil, nil, err
	}
	return row, keys, nil
}

func normalizeJSONValue(v any) any {
	switch val := v.(type) {
	case json.Number:
		if f, err := val.Float64(); err == nil {
			return f
		}
		return val.String()
	case []any:
		for i := range val {
			val[i] = normalizeJSONValue(val[i])
		}
		return val
	case map[string]any:
		for k := range val {
			val[k] = normalizeJSONValue(val[k])
		}
		return val
	default:
		return val
	}
}

// coerceCell converts raw text into a scalar: numbers, booleans, nil for
// empty cells and the original string otherwise.
func coerceCell(raw string) any {
	if raw == "" {
		return nil
	}
	if numericCell.MatchString(raw) {
		if f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err == nil {
			return f
		}
	}
	switch strings.ToLower(raw) {
	case "true":
		return true
	case "false":
		return false
	}
	return raw
}

// headerNames turns header cells into unique field names. Repeats get a
// numeric suffix and blank cells become __EMPTY, __EMPTY_1, ...
func headerNames(cells []string) []string {
	names := make([]string, len(cells))
	counts := make(map[string]int, len(cells))
	used := make(map[string]struct{}, len(cells))
	for i, cell := range cells {
		base := strings.TrimSpace(cell)
		if base == "" {
			base = emptyHeader
		}
		name := base
		for {
			if _, taken := used[name]; !taken {
				break
			}
			counts[base]++
			name = fmt.Sprintf("%s_%d", base, counts[base])
		}
		used[name] = struct{}{}
		names[i] = name
	}
	return names
}
