package service

import (
	"bytes"
	"context"
	"fmt"

	"lookup-values/internal/domain"
	"lookup-values/internal/repository"

	"github.com/xuri/excelize/v2"
)

// LookupValueExportSheet is the sheet name of the export workbook.
const LookupValueExportSheet = "Lookup Values"

// LookupValueExportHeader export column headers
var LookupValueExportHeader = []string{
	"UUID",
	"Lookup Type",
	"Lookup UUID",
	"Lookup Code",
	"Meaning",
	"Description",
	"Enabled",
}

var lookupValueColumnWidths = []float64{38, 20, 38, 20, 30, 40, 10}

// Export renders every lookup value, ordered by uuid, as an xlsx workbook.
func (s *LookupValueService) Export(ctx context.Context, q repository.Querier) ([]byte, error) {
	values, err := s.Find(ctx, q)
	if err != nil {
		return nil, err
	}
	types := make(map[string]string)
	for _, v := range values {
		if _, ok := types[v.LookupUUID]; ok {
			continue
		}
		lookup, err := s.lookups.FindOne(ctx, q, v.LookupUUID)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve lookup %s: %w", v.LookupUUID, err)
		}
		types[v.LookupUUID] = lookup.LookupType
	}
	return GenerateLookupValueExport(values, types)
}

// GenerateLookupValueExport writes values to a single sheet workbook.
// types maps lookup uuid to lookup type.
func GenerateLookupValueExport(values []domain.LookupValue, types map[string]string) ([]byte, error) {
	f := excelize.NewFile()
	// WriteTo needs the file open, so every path closes it explicitly

	index, err := f.NewSheet(LookupValueExportSheet)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	for col, header := range LookupValueExportHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetCellValue(LookupValueExportSheet, cell, header); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(LookupValueExportSheet, cell, cell, headerStyle); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set header style: %w", err)
		}
		name, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to convert column number: %w", err)
		}
		if err := f.SetColWidth(LookupValueExportSheet, name, name, lookupValueColumnWidths[col]); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set column width: %w", err)
		}
	}

	for i, v := range values {
		row := i + 2
		description := ""
		if v.Description != nil {
			description = *v.Description
		}
		enabled := "No"
		if v.IsEnabled {
			enabled = "Yes"
		}
		cells := []interface{}{v.UUID, types[v.LookupUUID], v.LookupUUID, v.LookupCode, v.Meaning, description, enabled}
		for col, value := range cells {
			if value == "" {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				f.Close()
				return nil, err
			}
			if err := f.SetCellValue(LookupValueExportSheet, cell, value); err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to set cell value at row %d, col %d: %w", row, col+1, err)
			}
		}
	}

	if err := f.SetPanes(LookupValueExportSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to freeze panes: %w", err)
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write to buffer: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close file: %w", err)
	}
	return buf.Bytes(), nil
}
