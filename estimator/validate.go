/*
validate.go - Input normalization and sanitation

PURPOSE:
  Validates the category tree and settings once, at the boundary, so the
  downstream pipeline never re-checks shape. Malformed values are coerced
  to safe defaults and recorded as diagnostics rather than failing.

NUMERIC PARSING:
  Persisted project records carry rates as numbers or as strings, often
  with currency formatting ("$1,250.00"). parseFlex is the single point
  where that looseness is resolved:
    - absent/null/empty  -> 0
    - clean number/string -> parsed as-is
    - decorated string    -> non-numeric characters stripped, then parsed
    - anything else       -> not ok

  In strict mode, values that needed stripping are rejected instead of
  coerced (see Options.StrictValidation).
*/
package estimator

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// FLEXNUMBER PARSING
// =============================================================================

// parseFlex resolves a FlexNumber to a decimal. sanitized reports that
// non-numeric characters had to be stripped; ok is false when no numeric
// value could be recovered at all.
func parseFlex(f FlexNumber) (d decimal.Decimal, sanitized bool, ok bool) {
	if !f.set {
		return decimal.Zero, false, true
	}
	raw := strings.TrimSpace(f.raw)
	if raw == "" {
		return decimal.Zero, false, true
	}
	if d, err := decimal.NewFromString(raw); err == nil {
		return d, false, true
	}
	cleaned := stripNonNumeric(raw)
	if cleaned == "" {
		return decimal.Zero, false, false
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, false, false
	}
	return d, true, true
}

// stripNonNumeric keeps digits, a single leading minus, and decimal
// points. "$1,250.00" -> "1250.00".
func stripNonNumeric(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r == '.':
			b.WriteRune(r)
		case r == '-' && b.Len() == 0:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// =============================================================================
// SETTINGS VALIDATION
// =============================================================================

// normalizedSettings is the validated internal form: every field already
// a decimal, every rate clamped to its legal range.
type normalizedSettings struct {
	taxRate           decimal.Decimal
	laborDiscount     decimal.Decimal
	wasteFactor       decimal.Decimal
	markup            decimal.Decimal
	transportationFee decimal.Decimal
	miscFees          []normalizedFee
	payments          []Payment
	deposit           decimal.Decimal
}

type normalizedFee struct {
	name   string
	amount decimal.Decimal
}

func defaultSettings() normalizedSettings {
	return normalizedSettings{}
}

// validateSettings normalizes the caller's settings against defaults.
// An absent settings object is an error and falls back to defaults
// entirely; individual bad fields are coerced field by field.
func validateSettings(s *Settings, strict bool, diags *Diagnostics) normalizedSettings {
	if s == nil {
		diags.Error(CodeInvalidSettings, "settings missing, using defaults", nil)
		return defaultSettings()
	}

	ns := normalizedSettings{
		taxRate:           clampRate(parseSetting(s.TaxRate, "taxRate", strict, diags), decimal.Zero, maxTaxRate, "taxRate", diags),
		laborDiscount:     clampRate(parseSetting(s.LaborDiscount, "laborDiscount", strict, diags), decimal.Zero, decimal.NewFromInt(1), "laborDiscount", diags),
		wasteFactor:       clampRate(parseSetting(s.WasteFactor, "wasteFactor", strict, diags), decimal.Zero, maxWasteFactor, "wasteFactor", diags),
		markup:            clampRate(parseSetting(s.Markup, "markup", strict, diags), decimal.Zero, maxMarkup, "markup", diags),
		transportationFee: parseSetting(s.TransportationFee, "transportationFee", strict, diags),
		payments:          s.Payments,
	}
	if ns.transportationFee.IsNegative() {
		diags.Warn(CodeSettingClamped, "transportationFee below 0, clamped", map[string]any{"field": "transportationFee"})
		ns.transportationFee = decimal.Zero
	}

	for _, fee := range s.MiscFees {
		amount, sanitized, ok := parseFlex(fee.Amount)
		if !ok || (sanitized && strict) {
			diags.Warn(CodeInvalidSettings, fmt.Sprintf("misc fee %q has an invalid amount, skipped", fee.Name),
				map[string]any{"fee": fee.Name})
			continue
		}
		ns.miscFees = append(ns.miscFees, normalizedFee{name: fee.Name, amount: amount})
	}

	deposit, _, ok := parseFlex(s.Deposit)
	if ok && deposit.IsPositive() {
		ns.deposit = deposit
	}

	return ns
}

// parseSetting parses one settings field, recording diagnostics for
// unparseable or coerced values and falling back to 0.
func parseSetting(f FlexNumber, field string, strict bool, diags *Diagnostics) decimal.Decimal {
	d, sanitized, ok := parseFlex(f)
	if !ok {
		diags.Error(CodeInvalidSettings, fmt.Sprintf("setting %q is not numeric, using 0", field),
			map[string]any{"field": field})
		return decimal.Zero
	}
	if sanitized {
		if strict {
			diags.Error(CodeCoercedValue, fmt.Sprintf("setting %q required sanitation, rejected in strict mode", field),
				map[string]any{"field": field})
			return decimal.Zero
		}
		diags.Warn(CodeCoercedValue, fmt.Sprintf("setting %q parsed from a decorated string", field),
			map[string]any{"field": field})
	}
	return d
}

// clampRate clamps v into [lo, hi], recording a warning when it moves.
func clampRate(v, lo, hi decimal.Decimal, field string, diags *Diagnostics) decimal.Decimal {
	switch {
	case v.LessThan(lo):
		diags.Warn(CodeSettingClamped, fmt.Sprintf("setting %q below %s, clamped", field, lo),
			map[string]any{"field": field, "value": v.String()})
		return lo
	case v.GreaterThan(hi):
		diags.Warn(CodeSettingClamped, fmt.Sprintf("setting %q above %s, clamped", field, hi),
			map[string]any{"field": field, "value": v.String()})
		return hi
	}
	return v
}

// =============================================================================
// CATEGORY TREE VALIDATION
// =============================================================================

// validateCategories copies and sanitizes the category tree: keys are
// derived where missing, nil item lists become empty. Item-level field
// problems are left for the pricing pass, which reports them per item.
func validateCategories(cats []Category, diags *Diagnostics) []Category {
	out := make([]Category, 0, len(cats))
	for i, c := range cats {
		if c.Name == "" && len(c.Items) == 0 {
			diags.Warn(CodeInvalidCategory, "empty unnamed category skipped",
				map[string]any{"index": i})
			continue
		}
		if c.Key == "" {
			c.Key = categoryKey(c.Name, i)
		}
		if c.Items == nil {
			c.Items = []WorkItem{}
		}
		out = append(out, c)
	}
	return out
}

// categoryKey derives a stable key from a category name.
func categoryKey(name string, index int) string {
	if name == "" {
		return fmt.Sprintf("category-%d", index)
	}
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteRune('-')
		}
	}
	key := strings.Trim(b.String(), "-")
	if key == "" {
		return fmt.Sprintf("category-%d", index)
	}
	return key
}
