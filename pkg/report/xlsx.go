// Package report renders recorded sales as spreadsheet documents.
package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/ftomza/go-adsales-bot/domain"
)

const SalesSheet = "Sales"

// WriteSales writes sales as an xlsx workbook: a header row followed by one
// row per sale in the same column order as the Google sheet.
func WriteSales(w io.Writer, sales []domain.Sale) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SalesSheet); err != nil {
		return fmt.Errorf("report: %w", err)
	}

	header := make([]interface{}, len(domain.SheetHeaders))
	for i, h := range domain.SheetHeaders {
		header[i] = h
	}
	if err := f.SetSheetRow(SalesSheet, "A1", &header); err != nil {
		return fmt.Errorf("report: header: %w", err)
	}

	for i, sale := range sales {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("report: %w", err)
		}
		row := sale.Row()
		if err := f.SetSheetRow(SalesSheet, cell, &row); err != nil {
			return fmt.Errorf("report: row %d: %w", i+2, err)
		}
	}

	if err := f.SetColWidth(SalesSheet, "A", "J", 18); err != nil {
		return fmt.Errorf("report: %w", err)
	}

	return f.Write(w)
}

// FileName names an export produced at the given date stamp, e.g. "sales-17.10.2026.xlsx".
func FileName(stamp string) string {
	return "sales-" + stamp + ".xlsx"
}
