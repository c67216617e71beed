// Package ledger holds the pure computations over record lists: totals,
// monthly aggregates, chart series, search and paging.
package ledger

import (
	"sort"
	"strings"
	"time"

	"ai-financer/internal/models"

	"github.com/shopspring/decimal"
)

// ParseAmount returns the numeric value of an amount string. Empty,
// unparseable and negative amounts count as zero.
func ParseAmount(s string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil || d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// Total sums the amounts of records.
func Total(records []models.Record) decimal.Decimal {
	sum := decimal.Zero
	for _, r := range records {
		sum = sum.Add(ParseAmount(r.Amount))
	}
	return sum
}

// monthKey returns "YYYY-MM" for a record date. Accepts plain dates and
// RFC 3339 timestamps.
func monthKey(date string) (string, bool) {
	for _, layout := range []string{time.DateOnly, time.RFC3339} {
		if t, err := time.Parse(layout, strings.TrimSpace(date)); err == nil {
			return t.Format("2006-01"), true
		}
	}
	return "", false
}

// ByMonth sums amounts per "YYYY-MM". Records with an unreadable date are
// left out.
func ByMonth(records []models.Record) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal)
	for _, r := range records {
		k, ok := monthKey(r.Date)
		if !ok {
			continue
		}
		out[k] = out[k].Add(ParseAmount(r.Amount))
	}
	return out
}

// Summary is the numeric picture handed to the dashboard and the assistant.
type Summary struct {
	TotalIncome    decimal.Decimal            `json:"total_income"`
	TotalExpense   decimal.Decimal            `json:"total_expense"`
	Balance        decimal.Decimal            `json:"balance"`
	Combined       decimal.Decimal            `json:"combined"`
	IncomeCount    int                        `json:"income_count"`
	ExpenseCount   int                        `json:"expense_count"`
	IncomeByMonth  map[string]decimal.Decimal `json:"income_by_month"`
	ExpenseByMonth map[string]decimal.Decimal `json:"expense_by_month"`
}

func Summarize(incomes, expenses []models.Record) Summary {
	in := Total(incomes)
	out := Total(expenses)
	return Summary{
		TotalIncome:    in,
		TotalExpense:   out,
		Balance:        in.Sub(out),
		Combined:       in.Add(out),
		IncomeCount:    len(incomes),
		ExpenseCount:   len(expenses),
		IncomeByMonth:  ByMonth(incomes),
		ExpenseByMonth: ByMonth(expenses),
	}
}

// Months returns the month keys of m in ascending order.
func Months(m map[string]decimal.Decimal) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Point is one sample of a trend chart.
type Point struct {
	Date   string          `json:"date"`
	Amount decimal.Decimal `json:"amount"`
}

// Trend lists one point per record ordered by date (stable for equal
// dates).
func Trend(records []models.Record) []Point {
	sorted := models.CloneRecords(records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date < sorted[j].Date
	})
	out := make([]Point, 0, len(sorted))
	for _, r := range sorted {
		out = append(out, Point{Date: r.Date, Amount: ParseAmount(r.Amount)})
	}
	return out
}

// Search keeps records whose name, description or category contains q
// (case-insensitive). An empty query keeps everything.
func Search(records []models.Record, q string) []models.Record {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return records
	}
	out := make([]models.Record, 0, len(records))
	for _, r := range records {
		if strings.Contains(strings.ToLower(r.Name), q) ||
			strings.Contains(strings.ToLower(r.Description), q) ||
			strings.Contains(strings.ToLower(r.Category), q) {
			out = append(out, r)
		}
	}
	return out
}

// DefaultPageSize matches the list pages of the app.
const DefaultPageSize = 5

// Paginate returns the 1-based page of records. Out of range pages are
// empty.
func Paginate(records []models.Record, page, size int) []models.Record {
	if size <= 0 {
		size = DefaultPageSize
	}
	if page <= 0 {
		page = 1
	}
	// compare page counts before multiplying so huge pages cannot overflow
	if len(records) == 0 || page-1 > (len(records)-1)/size {
		return []models.Record{}
	}
	start := (page - 1) * size
	end := start + size
	if end > len(records) {
		end = len(records)
	}
	return records[start:end]
}
