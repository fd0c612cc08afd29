package services

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"ride-booking/internal/status"
	"ride-booking/models"
)

// DiscountValidator resolves discount codes against a rule table. Lookups
// never mutate anything.
type DiscountValidator struct {
	rules map[string]models.DiscountRule
	now   func() time.Time
}

func NewDiscountValidator(rules []models.DiscountRule) *DiscountValidator {
	table := make(map[string]models.DiscountRule, len(rules))
	for _, r := range rules {
		table[strings.ToUpper(r.Code)] = r
	}
	return &DiscountValidator{rules: table, now: time.Now}
}

// DefaultDiscountRules is the stock code table.
func DefaultDiscountRules() []models.DiscountRule {
	return []models.DiscountRule{
		{Code: "FIRST10", Kind: models.DiscountPercent, Value: decimal.NewFromInt(10)},
		{Code: "SAVE5", Kind: models.DiscountFlat, Value: decimal.NewFromInt(5), MinSpend: decimal.NewFromInt(20)},
		{Code: "WEEKEND15", Kind: models.DiscountPercent, Value: decimal.NewFromInt(15), MinSpend: decimal.NewFromInt(50)},
	}
}

// Apply resolves a code against the pre-discount total. Unknown codes return
// ErrInvalidCode; known but expired or under min-spend codes return
// ErrCodeNotApplicable. The returned amount is capped at the total.
func (v *DiscountValidator) Apply(code string, preDiscountTotal decimal.Decimal) (decimal.Decimal, error) {
	rule, ok := v.rules[strings.ToUpper(strings.TrimSpace(code))]
	if !ok {
		return decimal.Zero, status.ErrInvalidCode
	}

	if rule.ExpiresAt != nil && v.now().After(*rule.ExpiresAt) {
		return decimal.Zero, status.ErrCodeNotApplicable
	}
	if preDiscountTotal.LessThan(rule.MinSpend) {
		return decimal.Zero, status.ErrCodeNotApplicable
	}

	var amount decimal.Decimal
	switch rule.Kind {
	case models.DiscountPercent:
		amount = round2(preDiscountTotal.Mul(rule.Value).Div(decimal.NewFromInt(100)))
	case models.DiscountFlat:
		amount = round2(rule.Value)
	default:
		return decimal.Zero, status.ErrCodeNotApplicable
	}

	if amount.GreaterThan(preDiscountTotal) {
		amount = preDiscountTotal
	}
	return amount, nil
}
