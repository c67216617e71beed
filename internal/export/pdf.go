package export

import (
	"fmt"
	"io"
	"sort"

	"ai-financer/internal/ledger"
	"ai-financer/internal/models"

	"github.com/phpdave11/gofpdf"
)

const maxStatementRows = 500

var statementCols = []struct {
	title string
	width float64
	align string
}{
	{"TYPE", 22, "C"},
	{"DATE", 24, "C"},
	{"NAME", 62, "L"},
	{"CATEGORY", 30, "L"},
	{"STATUS", 16, "C"},
	{"AMOUNT", 28, "R"},
}

type statementRow struct {
	kind models.Kind
	rec  models.Record
}

// WritePDF renders a statement: the summary totals followed by every record
// of the given sheets, newest first.
func WritePDF(w io.Writer, title string, sum ledger.Summary, sheets ...Sheet) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(14, 14, 14)
	pdf.SetTitle(title, true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.SetTextColor(20, 20, 20)
	pdf.Cell(0, 10, title)
	pdf.Ln(14)

	pdf.SetDrawColor(200, 200, 200)
	pdf.SetFillColor(248, 248, 248)
	pdf.SetFont("Helvetica", "B", 11)
	sumW := 45.5
	for i, h := range []string{"Income", "Expenses", "Balance", "Total"} {
		ln := 0
		if i == 3 {
			ln = 1
		}
		pdf.CellFormat(sumW, 10, h, "1", ln, "C", true, 0, "")
	}
	pdf.SetFont("Helvetica", "", 11)
	values := []string{
		sum.TotalIncome.StringFixed(2),
		sum.TotalExpense.StringFixed(2),
		sum.Balance.StringFixed(2),
		sum.Combined.StringFixed(2),
	}
	for i, v := range values {
		ln := 0
		if i == 3 {
			ln = 1
		}
		pdf.CellFormat(sumW, 10, v, "1", ln, "C", false, 0, "")
	}
	pdf.Ln(6)

	var rows []statementRow
	for _, s := range sheets {
		for _, r := range s.Records {
			rows = append(rows, statementRow{kind: s.Kind, rec: r})
		}
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].rec.Date > rows[j].rec.Date })

	header := func() {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.SetFillColor(245, 245, 245)
		for i, c := range statementCols {
			ln := 0
			if i == len(statementCols)-1 {
				ln = 1
			}
			pdf.CellFormat(c.width, 8, c.title, "1", ln, "C", true, 0, "")
		}
		pdf.SetFont("Helvetica", "", 9)
	}
	header()

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	for i, row := range rows {
		if i >= maxStatementRows {
			pdf.SetFont("Helvetica", "I", 9)
			pdf.CellFormat(0, 8, fmt.Sprintf("%d more records not shown", len(rows)-i), "1", 1, "C", false, 0, "")
			break
		}
		if pdf.GetY() > 270 {
			pdf.AddPage()
			header()
		}
		cells := []string{
			row.kind.Title(),
			row.rec.Date,
			tr(trimTo(row.rec.Name, 34)),
			tr(row.rec.Category),
			string(row.rec.Status),
			ledger.ParseAmount(row.rec.Amount).StringFixed(2),
		}
		for j, c := range statementCols {
			ln := 0
			if j == len(statementCols)-1 {
				ln = 1
			}
			pdf.CellFormat(c.width, 8, cells[j], "1", ln, c.align, false, 0, "")
		}
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

func trimTo(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
