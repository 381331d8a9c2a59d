package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

var (
	// ErrNotFound indicates the input file does not exist.
	ErrNotFound = errors.New("file not found")
	// ErrUnsupported indicates no reader handles the file extension.
	ErrUnsupported = errors.New("unsupported file type")
)

// Options controls how a file is loaded.
type Options struct {
	// Columns keeps only these columns, in this order. Names missing from the
	// file are skipped; use Table.Present to find them.
	Columns []string
	// Sheet selects an Excel worksheet by name; empty means SheetIndex.
	Sheet string
	// SheetIndex is the 0-based worksheet position used when Sheet is empty.
	SheetIndex int
	// IgnoreEncodingErrors drops bytes that are not valid UTF-8.
	IgnoreEncodingErrors bool
}

// Reader turns a file into raw records (header first).
type Reader interface {
	CanRead(path string) bool
	Read(path string, opt Options) ([][]string, error)
}

var registry []Reader

// Register adds a reader implementation to the registry.
func Register(r Reader) {
	registry = append(registry, r)
}

func init() {
	Register(csvReader{})
	Register(xlsxReader{})
}

// Load reads path with the first registered reader that accepts its extension.
func Load(path string, opt Options) (*Table, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	var rd Reader
	for _, r := range registry {
		if r.CanRead(path) {
			rd = r
			break
		}
	}
	if rd == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnsupported, filepath.Ext(path))
	}
	records, err := rd.Read(path, opt)
	if err != nil {
		return nil, err
	}
	if len(records) > 0 && len(records[0]) > 0 {
		records[0][0] = strings.TrimPrefix(records[0][0], "\ufeff")
	}
	if opt.IgnoreEncodingErrors {
		for _, row := range records {
			for j, v := range row {
				row[j] = strings.ToValidUTF8(v, "")
			}
		}
	}
	for j, h := range records[0] {
		records[0][j] = strings.TrimSpace(h)
	}
	t, err := FromRecords(filepath.Base(path), records)
	if err != nil {
		return nil, err
	}
	if len(opt.Columns) > 0 {
		found, _ := t.Present(opt.Columns)
		if len(found) == 0 {
			return nil, fmt.Errorf("load %s: none of the requested columns exist", t.Name)
		}
		return t.Select(found...)
	}
	return t, nil
}

type csvReader struct{}

func (csvReader) CanRead(path string) bool {
	name := strings.ToLower(path)
	return strings.HasSuffix(name, ".csv") || strings.HasSuffix(name, ".tsv")
}

func (csvReader) Read(path string, _ Options) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()
	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.Comma = sniffDelimiter(path)
	var out [][]string
	for {
		rec, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read row %d: %w", len(out)+1, err)
		}
		out = append(out, rec)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("read %s: missing header", filepath.Base(path))
	}
	return out, nil
}

func sniffDelimiter(path string) rune {
	if strings.HasSuffix(strings.ToLower(path), ".tsv") {
		return '\t'
	}
	return ','
}

// xlsxReader handles Office Open XML workbooks. Legacy binary .xls files are
// not readable by excelize and fall through to ErrUnsupported.
type xlsxReader struct{}

func (xlsxReader) CanRead(path string) bool {
	name := strings.ToLower(path)
	return strings.HasSuffix(name, ".xlsx") || strings.HasSuffix(name, ".xlsm")
}

func (xlsxReader) Read(path string, opt Options) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()
	sheets := f.GetSheetList()
	sheet := ""
	if opt.Sheet != "" {
		for _, s := range sheets {
			if strings.EqualFold(s, opt.Sheet) {
				sheet = s
				break
			}
		}
		if sheet == "" {
			return nil, fmt.Errorf("sheet '%s' not found in workbook '%s'.\nAvailable sheets: %s",
				opt.Sheet, filepath.Base(path), strings.Join(sheets, ", "))
		}
	} else {
		if opt.SheetIndex < 0 || opt.SheetIndex >= len(sheets) {
			return nil, fmt.Errorf("sheet index %d out of range (workbook has %d sheets)", opt.SheetIndex, len(sheets))
		}
		sheet = sheets[opt.SheetIndex]
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	// Leading blank rows are skipped so the first populated row is the header.
	for len(rows) > 0 && len(rows[0]) == 0 {
		rows = rows[1:]
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("read %s: sheet %s is empty", filepath.Base(path), sheet)
	}
	return rows, nil
}
