package util

import (
	"fmt"
	"regexp"
	"time"

	"ai-financer/internal/models"

	"github.com/shopspring/decimal"
)

var dateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// ValidateAmount 验证金额（必须是非负的十进制数）
func ValidateAmount(s string) error {
	if s == "" {
		return fmt.Errorf("amount is empty")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", s, err)
	}
	if d.IsNegative() {
		return fmt.Errorf("amount must not be negative, got %s", s)
	}
	return nil
}

// ValidateDate 验证日期格式（必须为 YYYY-MM-DD）
func ValidateDate(dateStr string) error {
	if dateStr == "" {
		return fmt.Errorf("date is empty")
	}
	if !dateRe.MatchString(dateStr) {
		return fmt.Errorf("invalid date format %q", dateStr)
	}
	if _, err := time.Parse(time.DateOnly, dateStr); err != nil {
		return fmt.Errorf("invalid date: %w", err)
	}
	return nil
}

// ValidateCategory 验证分类（不能为空且必须属于该类型）
func ValidateCategory(kind models.Kind, category string) error {
	if category == "" {
		return fmt.Errorf("category is empty")
	}
	if !kind.HasCategory(category) {
		return fmt.Errorf("category %q is not valid for %s", category, kind)
	}
	return nil
}
