package report

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"lodging/internal/domain"
)

const cashUpSheet = "Cash-up"

var cashUpHeader = []string{"Method", "Credits", "Debits", "Net"}

// ExportCashUpXLSX renders a cash-up as a single-sheet workbook.
func ExportCashUpXLSX(c *CashUp) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(cashUpSheet)
	if err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("delete default sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}
	moneyStyle, err := f.NewStyle(&excelize.Style{NumFmt: 4})
	if err != nil {
		return nil, fmt.Errorf("create money style: %w", err)
	}

	if err := f.SetCellValue(cashUpSheet, "A1", "Cash-up "+c.Date.Format(domain.DateLayout)); err != nil {
		return nil, err
	}
	if err := f.SetSheetRow(cashUpSheet, "A3", &cashUpHeader); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	if err := f.SetCellStyle(cashUpSheet, "A3", "D3", headerStyle); err != nil {
		return nil, fmt.Errorf("style header: %w", err)
	}

	row := 4
	write := func(label string, m MethodTotals) error {
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return err
		}
		values := []any{label, m.Credits.InexactFloat64(), m.Debits.InexactFloat64(), m.Net.InexactFloat64()}
		if err := f.SetSheetRow(cashUpSheet, cell, &values); err != nil {
			return fmt.Errorf("write row %d: %w", row, err)
		}
		from, _ := excelize.CoordinatesToCellName(2, row)
		to, _ := excelize.CoordinatesToCellName(4, row)
		if err := f.SetCellStyle(cashUpSheet, from, to, moneyStyle); err != nil {
			return err
		}
		row++
		return nil
	}
	for _, m := range c.Methods {
		label := string(m.Method)
		if label == "" {
			label = "unspecified"
		}
		if err := write(label, m); err != nil {
			return nil, err
		}
	}
	row++
	if err := write("Total", c.Total); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(cashUpSheet, "A", "A", 18); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(cashUpSheet, "B", "D", 14); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
