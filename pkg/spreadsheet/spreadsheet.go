// Package spreadsheet builds the xlsx exports served to staff.
package spreadsheet

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// Sheet is one worksheet: a header row followed by data rows.
type Sheet struct {
	Name   string
	Header []string
	Rows   [][]any
}

// Build renders the sheets, in order, into an xlsx workbook.
func Build(sheets ...Sheet) ([]byte, error) {
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook needs at least one sheet")
	}

	f := excelize.NewFile()
	defer f.Close()

	first := f.GetSheetName(0)
	for i, sheet := range sheets {
		if i == 0 {
			if err := f.SetSheetName(first, sheet.Name); err != nil {
				return nil, fmt.Errorf("failed to name sheet %q: %w", sheet.Name, err)
			}
		} else if _, err := f.NewSheet(sheet.Name); err != nil {
			return nil, fmt.Errorf("failed to add sheet %q: %w", sheet.Name, err)
		}
		if err := writeRows(f, sheet); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeRows(f *excelize.File, sheet Sheet) error {
	header := make([]any, len(sheet.Header))
	for i, h := range sheet.Header {
		header[i] = h
	}
	all := append([][]any{header}, sheet.Rows...)
	for idx, row := range all {
		axis, err := excelize.CoordinatesToCellName(1, idx+1)
		if err != nil {
			return fmt.Errorf("failed to resolve cell: %w", err)
		}
		if err := f.SetSheetRow(sheet.Name, axis, &row); err != nil {
			return fmt.Errorf("failed to write row %d of %q: %w", idx+1, sheet.Name, err)
		}
	}
	return nil
}
