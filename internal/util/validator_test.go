package util

import (
	"testing"

	"ai-financer/internal/models"
)

func TestValidateAmount_Valid(t *testing.T) {
	testCases := []string{"0", "0.00", "1", "100.5", "9999999.99"}

	for _, amount := range testCases {
		if err := ValidateAmount(amount); err != nil {
			t.Errorf("ValidateAmount(%q) error = %v, want nil", amount, err)
		}
	}
}

func TestValidateAmount_Invalid(t *testing.T) {
	testCases := []string{"", "abc", "-0.01", "-100", "12,50"}

	for _, amount := range testCases {
		if err := ValidateAmount(amount); err == nil {
			t.Errorf("ValidateAmount(%q) error = nil, want error", amount)
		}
	}
}

func TestValidateDate_Valid(t *testing.T) {
	testCases := []string{
		"2024-01-01",
		"2024-12-31",
		"2025-06-15",
	}

	for _, date := range testCases {
		if err := ValidateDate(date); err != nil {
			t.Errorf("ValidateDate(%q) error = %v, want nil", date, err)
		}
	}
}

func TestValidateDate_InvalidFormat(t *testing.T) {
	testCases := []string{
		"",
		"2024/01/01",
		"01-01-2024",
		"2024-1-1",
		"not-a-date",
		"2024-13-01",
		"2024-01-32",
		"2024-01-01T00:00:00Z",
	}

	for _, date := range testCases {
		if err := ValidateDate(date); err == nil {
			t.Errorf("ValidateDate(%q) error = nil, want error", date)
		}
	}
}

func TestValidateCategory(t *testing.T) {
	if err := ValidateCategory(models.KindIncomes, "Salary"); err != nil {
		t.Errorf("Salary should be a valid income category: %v", err)
	}
	if err := ValidateCategory(models.KindExpenses, "Groceries"); err != nil {
		t.Errorf("Groceries should be a valid expense category: %v", err)
	}
	if err := ValidateCategory(models.KindExpenses, "Salary"); err == nil {
		t.Error("Salary should not be accepted for expenses")
	}
	if err := ValidateCategory(models.KindIncomes, ""); err == nil {
		t.Error("empty category should be rejected")
	}
}
