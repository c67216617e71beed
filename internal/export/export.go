// Package export renders record lists as spreadsheets.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"ai-financer/internal/models"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// Columns are the record fields written to every sheet, in order.
var Columns = []string{"ID", "Name", "Amount", "Date", "Description", "Status", "Category"}

var colWidths = []float64{16, 24, 12, 12, 36, 8, 16}

// Sheet is one named list of records.
type Sheet struct {
	Kind    models.Kind
	Records []models.Record
}

// WriteXLSX writes a workbook with one sheet per entry, named after the
// kind ("Incomes", "Expenses").
func WriteXLSX(w io.Writer, sheets ...Sheet) error {
	f := excelize.NewFile()
	defer f.Close()

	for i, s := range sheets {
		name := s.Kind.Title()
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), name); err != nil {
				return fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %s: %w", name, err)
		}
		if err := fillSheet(f, name, s.Records); err != nil {
			return err
		}
	}
	f.SetActiveSheet(0)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func fillSheet(f *excelize.File, sheet string, records []models.Record) error {
	header := make([]any, len(Columns))
	for i, c := range Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, r := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{r.ID, r.Name, amountCell(r.Amount), r.Date, r.Description, string(r.Status), r.Category}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	for i, width := range colWidths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, col, col, width); err != nil {
			return err
		}
	}
	return nil
}

// amountCell keeps numeric amounts numeric so the sheet can sum them.
func amountCell(s string) any {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return s
	}
	return d.InexactFloat64()
}

// WriteCSV writes every sheet into one CSV with a leading Type column.
func WriteCSV(w io.Writer, sheets ...Sheet) error {
	// UTF-8 BOM so spreadsheet apps detect the encoding
	if _, err := w.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(append([]string{"Type"}, Columns...)); err != nil {
		return err
	}
	for _, s := range sheets {
		for _, r := range s.Records {
			err := cw.Write([]string{
				s.Kind.Title(),
				strconv.FormatInt(r.ID, 10),
				r.Name,
				r.Amount,
				r.Date,
				r.Description,
				string(r.Status),
				r.Category,
			})
			if err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}
