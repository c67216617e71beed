package models

import "strings"

// Kind names a record collection. The value doubles as the remote collection
// name and the local cache key prefix.
type Kind string

const (
	KindIncomes  Kind = "incomes"
	KindExpenses Kind = "expenses"
)

// Kinds lists every record kind in a stable order.
var Kinds = []Kind{KindIncomes, KindExpenses}

// ParseKind accepts "incomes"/"expenses" (case-insensitive).
func ParseKind(s string) (Kind, bool) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case KindIncomes:
		return KindIncomes, true
	case KindExpenses:
		return KindExpenses, true
	}
	return "", false
}

// Title is the human label used for sheet and file names.
func (k Kind) Title() string {
	switch k {
	case KindIncomes:
		return "Incomes"
	case KindExpenses:
		return "Expenses"
	}
	return string(k)
}

// Categories returns the fixed category list offered for the kind.
func (k Kind) Categories() []string {
	switch k {
	case KindIncomes:
		return []string{"Salary", "Freelance", "Investment", "Other"}
	case KindExpenses:
		return []string{"Utility", "Rent", "Groceries", "Entertainment", "Other"}
	}
	return nil
}

// HasCategory reports whether c is one of the kind's categories.
func (k Kind) HasCategory(c string) bool {
	for _, v := range k.Categories() {
		if v == c {
			return true
		}
	}
	return false
}

type Status string

const (
	StatusPaid Status = "PAID"
	StatusDue  Status = "DUE"
)

func (s Status) Valid() bool {
	return s == StatusPaid || s == StatusDue
}

// Record is a single income or expense. Both kinds share the same shape;
// ID is the only correlation key between the in-memory list, the local cache
// and the remote documents.
type Record struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Amount      string  `json:"amount"`
	Date        string  `json:"date"`
	Description string  `json:"description"`
	Status      Status  `json:"status"`
	Category    string  `json:"category"`
	Photo       *string `json:"photo,omitempty"`
}

// CloneRecords returns a copy of the slice that does not share its backing
// array (or photo pointers) with the input.
func CloneRecords(in []Record) []Record {
	out := make([]Record, len(in))
	for i, r := range in {
		if r.Photo != nil {
			p := *r.Photo
			r.Photo = &p
		}
		out[i] = r
	}
	return out
}
