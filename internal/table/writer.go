package table

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/KaramelBytes/paraprep/internal/utils"
	"github.com/xuri/excelize/v2"
)

// WriteCSV serializes the table with a header row. Nulls become empty fields.
// The file is written to a temp path and renamed into place.
func (t *Table) WriteCSV(path string) error {
	if err := utils.EnsureDir(filepath.Dir(path)); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(t.Records()); err != nil {
		return fmt.Errorf("encode csv: %w", err)
	}
	return utils.SafeWriteFile(path, buf.Bytes())
}

// DefaultSheet is the worksheet name used by WriteXLSX.
const DefaultSheet = "Sheet1"

// WriteXLSX writes the table to the first worksheet of a new workbook.
// Integer columns are stored as numeric cells.
func (t *Table) WriteXLSX(path string) error {
	if err := utils.EnsureDir(filepath.Dir(path)); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	f := excelize.NewFile()
	defer f.Close()

	names := t.Names()
	numeric := make([]bool, len(names))
	for j, n := range names {
		numeric[j] = t.ColumnType(n) == "int"
	}
	for i, rec := range t.Records() {
		row := make([]interface{}, len(rec))
		for j, v := range rec {
			row[j] = v
			if i > 0 && numeric[j] && v != "" {
				if n, err := strconv.Atoi(v); err == nil {
					row[j] = n
				}
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("cell name: %w", err)
		}
		if err := f.SetSheetRow(DefaultSheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	tmp := path + ".tmp.xlsx"
	if err := f.SaveAs(tmp); err != nil {
		return fmt.Errorf("save xlsx: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("atomic rename: %w", err)
	}
	return nil
}
