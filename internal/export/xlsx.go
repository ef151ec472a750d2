package export

import (
	"fmt"
	"io"

	"inventory-tracker/internal/domain"

	"github.com/xuri/excelize/v2"
)

const (
	SheetName   = "Inventory"
	FileName    = "inventory.xlsx"
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	timeLayout = "2006-01-02 15:04:05"
)

var headers = []string{"Item ID", "Item Name", "Quantity", "Cost", "Total Value", "Last Update"}

var columnWidths = map[string]float64{
	"A": 10,
	"B": 20,
	"C": 12,
	"D": 12,
	"E": 15,
	"F": 20,
}

type styles struct {
	header  int
	left    int
	right   int
	summary int
}

// WriteInventory renders items as a styled workbook and writes it to w.
func WriteInventory(w io.Writer, items []domain.Item) error {
	f, err := BuildWorkbook(items)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// BuildWorkbook lays out a header row, one row per item and a summary block
// two rows below the data.
func BuildWorkbook(items []domain.Item) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	if err := fill(f, items); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

func fill(f *excelize.File, items []domain.Item) error {
	st, err := newStyles(f)
	if err != nil {
		return err
	}

	for i, h := range headers {
		if err := setCell(f, i+1, 1, h, st.header); err != nil {
			return err
		}
	}

	for r, item := range items {
		row := r + 2
		values := []interface{}{
			item.ID,
			item.Name,
			item.Quantity,
			item.Cost.InexactFloat64(),
			item.TotalValue().InexactFloat64(),
			item.LastUpdate.Format(timeLayout),
		}
		for c, v := range values {
			style := st.left
			// Quantity, Cost, Total Value
			if c >= 2 && c <= 4 {
				style = st.right
			}
			if err := setCell(f, c+1, row, v, style); err != nil {
				return err
			}
		}
	}

	for col, width := range columnWidths {
		if err := f.SetColWidth(SheetName, col, col, width); err != nil {
			return fmt.Errorf("failed to set column width: %w", err)
		}
	}

	summary := domain.Summarize(items)
	start := len(items) + 3
	if err := setCell(f, 1, start, "SUMMARY", st.summary); err != nil {
		return err
	}
	rows := []struct {
		label string
		value interface{}
	}{
		{"Total Items:", summary.TotalItems},
		{"Total Quantity:", summary.TotalQuantity},
		{"Total Value:", summary.TotalValue.InexactFloat64()},
	}
	for i, r := range rows {
		if err := setCell(f, 1, start+1+i, r.label, 0); err != nil {
			return err
		}
		if err := setCell(f, 2, start+1+i, r.value, 0); err != nil {
			return err
		}
	}
	return nil
}

func newStyles(f *excelize.File) (styles, error) {
	border := []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
	}

	var st styles
	var err error
	st.header, err = f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF", Size: 12},
		Border:    border,
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return st, fmt.Errorf("failed to create header style: %w", err)
	}
	st.left, err = f.NewStyle(&excelize.Style{
		Border:    border,
		Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "center"},
	})
	if err != nil {
		return st, fmt.Errorf("failed to create cell style: %w", err)
	}
	st.right, err = f.NewStyle(&excelize.Style{
		Border:    border,
		Alignment: &excelize.Alignment{Horizontal: "right", Vertical: "center"},
	})
	if err != nil {
		return st, fmt.Errorf("failed to create cell style: %w", err)
	}
	st.summary, err = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
	})
	if err != nil {
		return st, fmt.Errorf("failed to create summary style: %w", err)
	}
	return st, nil
}

// setCell writes value at (col, row), both 1-based. style 0 keeps the default.
func setCell(f *excelize.File, col, row int, value interface{}, style int) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	if err := f.SetCellValue(SheetName, cell, value); err != nil {
		return fmt.Errorf("failed to set %s: %w", cell, err)
	}
	if style != 0 {
		if err := f.SetCellStyle(SheetName, cell, cell, style); err != nil {
			return fmt.Errorf("failed to style %s: %w", cell, err)
		}
	}
	return nil
}
