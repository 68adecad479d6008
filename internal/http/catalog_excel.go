package httpapi

import (
	"bytes"
	"fmt"

	"catalog-host/internal/domain"

	"github.com/xuri/excelize/v2"
)

// CatalogExportHeader column order of the catalog export sheet
var CatalogExportHeader = []string{
	"Product ID",
	"Product Name",
	"Category",
	"Marked Price",
	"Min Discounted Price",
	"Discount %",
	"Description",
	"Image Count",
	"Created At",
}

// GenerateCatalogExport renders one store's catalog as an xlsx workbook.
// imageCounts maps product id to the number of registered images.
func GenerateCatalogExport(categories []*domain.Category, products []*domain.Product, imageCounts map[int64]int) ([]byte, error) {
	f := excelize.NewFile()
	// Note: don't defer Close() here, WriteTo needs the file open

	sheetName := "Catalog"
	index, err := f.NewSheet(sheetName)
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
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	for col, header := range CatalogExportHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(sheetName, cell, cell, headerStyle); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set header style: %w", err)
		}
	}

	columnWidths := []float64{
		12, // Product ID
		30, // Product Name
		20, // Category
		15, // Marked Price
		20, // Min Discounted Price
		12, // Discount %
		40, // Description
		12, // Image Count
		20, // Created At
	}
	for i := range CatalogExportHeader {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to convert column number: %w", err)
		}
		if i < len(columnWidths) {
			if err := f.SetColWidth(sheetName, col, col, columnWidths[i]); err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to set column width: %w", err)
			}
		}
	}

	categoryNames := make(map[int64]string, len(categories))
	for _, c := range categories {
		categoryNames[c.ID] = c.Name
	}

	for rowIdx, p := range products {
		row := rowIdx + 2 // row 1 is the header
		values := make([]any, len(CatalogExportHeader))
		values[0] = p.ID
		values[1] = p.Name
		values[2] = categoryNames[p.CategoryID]
		if p.MarkedPrice.Valid {
			values[3] = p.MarkedPrice.Float64
		}
		if p.MinDiscountedPrice.Valid {
			values[4] = p.MinDiscountedPrice.Float64
		}
		if pct, ok := p.DiscountPercent(); ok {
			values[5] = pct
		}
		if p.Description.Valid {
			values[6] = p.Description.String
		}
		values[7] = imageCounts[p.ID]
		values[8] = p.CreatedAt.Format("2006-01-02 15:04:05")

		for col, value := range values {
			if value == nil || value == "" {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to convert coordinates: %w", err)
			}
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to set cell value at row %d, col %d: %w", row, col+1, err)
			}
		}
	}

	// Freeze the header row
	if err := f.SetPanes(sheetName, &excelize.Panes{
		Freeze:      true,
		Split:       false,
		XSplit:      0,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to freeze panes: %w", err)
	}

	// File must remain open during the write
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
