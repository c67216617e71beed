package export

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"ai-financer/internal/ledger"
	"ai-financer/internal/models"

	"github.com/xuri/excelize/v2"
)

func sample() (incomes, expenses []models.Record) {
	incomes = []models.Record{
		{ID: 1, Name: "Salary", Amount: "5000", Date: "2025-01-01", Description: "Jan", Status: models.StatusPaid, Category: "Salary"},
	}
	expenses = []models.Record{
		{ID: 2, Name: "Rent", Amount: "1200.50", Date: "2025-01-02", Description: "flat", Status: models.StatusDue, Category: "Rent"},
		{ID: 3, Name: "Misc", Amount: "n/a", Date: "2025-01-03", Description: "", Status: models.StatusPaid, Category: "Other"},
	}
	return
}

func TestWriteXLSX_TwoSheets(t *testing.T) {
	incomes, expenses := sample()
	var buf bytes.Buffer
	err := WriteXLSX(&buf,
		Sheet{Kind: models.KindIncomes, Records: incomes},
		Sheet{Kind: models.KindExpenses, Records: expenses},
	)
	if err != nil {
		t.Fatalf("WriteXLSX: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) != 2 || sheets[0] != "Incomes" || sheets[1] != "Expenses" {
		t.Fatalf("sheets = %v", sheets)
	}

	rows, err := f.GetRows("Expenses")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("expense rows = %d, want header + 2", len(rows))
	}
	if strings.Join(rows[0], ",") != strings.Join(Columns, ",") {
		t.Errorf("header = %v", rows[0])
	}
	if rows[1][1] != "Rent" || rows[1][2] != "1200.5" || rows[1][5] != "DUE" {
		t.Errorf("row 2 = %v", rows[1])
	}
	if rows[2][2] != "n/a" {
		t.Errorf("unparseable amount = %q, want it kept as text", rows[2][2])
	}
}

func TestWriteXLSX_SingleKind(t *testing.T) {
	incomes, _ := sample()
	var buf bytes.Buffer
	if err := WriteXLSX(&buf, Sheet{Kind: models.KindIncomes, Records: incomes}); err != nil {
		t.Fatal(err)
	}
	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if sheets := f.GetSheetList(); len(sheets) != 1 || sheets[0] != "Incomes" {
		t.Errorf("sheets = %v", sheets)
	}
}

func TestWriteCSV(t *testing.T) {
	incomes, expenses := sample()
	var buf bytes.Buffer
	err := WriteCSV(&buf,
		Sheet{Kind: models.KindIncomes, Records: incomes},
		Sheet{Kind: models.KindExpenses, Records: expenses},
	)
	if err != nil {
		t.Fatal(err)
	}

	out := bytes.TrimPrefix(buf.Bytes(), []byte{0xEF, 0xBB, 0xBF})
	recs, err := csv.NewReader(bytes.NewReader(out)).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 4 {
		t.Fatalf("csv rows = %d, want 4", len(recs))
	}
	if recs[1][0] != "Incomes" || recs[2][0] != "Expenses" || recs[2][4] != "1200.50" {
		t.Errorf("rows = %v", recs)
	}
}

func TestWritePDF(t *testing.T) {
	incomes, expenses := sample()
	var buf bytes.Buffer
	sum := ledger.Summarize(incomes, expenses)
	err := WritePDF(&buf, "Statement", sum,
		Sheet{Kind: models.KindIncomes, Records: incomes},
		Sheet{Kind: models.KindExpenses, Records: expenses},
	)
	if err != nil {
		t.Fatalf("WritePDF: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
		t.Errorf("output does not look like a PDF: %.8q", buf.Bytes())
	}
}

func TestTrimTo(t *testing.T) {
	if got := trimTo("Electricity", 5); got != "Elec…" {
		t.Errorf("trimTo = %q", got)
	}
	if got := trimTo("Rent", 5); got != "Rent" {
		t.Errorf("trimTo = %q", got)
	}
}
