/*
cost.go - Per-item pricing

PURPOSE:
  Multiplies resolved units by validated per-unit material/labor rates.
  This operation never lets a failure escape: rate problems produce an
  all-zero result with an error recorded, and any unexpected panic during
  computation is caught at this scope and converted to a diagnostic.

ZERO UNITS:
  An item that resolves to zero units without errors is still a success.
  The result is all-zero but carries the unit label and per-unit rates in
  metadata so a breakdown table can render the row.
*/
package estimator

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// costEvaluator prices individual work items.
type costEvaluator struct {
	resolver unitResolver
	limits   Limits
	strict   bool
}

// pricedItem is the internal, full-precision outcome of pricing one
// item. Formatting to display strings happens only in result().
type pricedItem struct {
	units        decimal.Decimal
	measure      MeasurementType
	materialRate decimal.Decimal
	laborRate    decimal.Decimal
	material     decimal.Decimal
	labor        decimal.Decimal
	total        decimal.Decimal
	itemName     string
	diags        *Diagnostics
}

// valid reports whether the item may participate in parent rollups.
// Items with any error are excluded from sums but still counted.
func (pi pricedItem) valid() bool {
	return !pi.diags.HasErrors()
}

func (pi pricedItem) label() string {
	if pi.measure == "" {
		return "units"
	}
	return pi.measure.UnitLabel()
}

// result formats the priced item at the output boundary.
func (pi pricedItem) result() CostResult {
	return CostResult{
		Units:        roundUnits(pi.units),
		UnitLabel:    pi.label(),
		MaterialCost: formatMoney(pi.material),
		LaborCost:    formatMoney(pi.labor),
		TotalCost:    formatMoney(pi.total),
		Metadata: CostMetadata{
			ItemName:        pi.itemName,
			MeasurementType: pi.measure,
			MaterialRate:    formatRate(pi.materialRate),
			LaborRate:       formatRate(pi.laborRate),
		},
		Errors:   pi.diags.Errors(),
		Warnings: pi.diags.Warnings(),
	}
}

// price resolves units and computes extended costs for one item. All
// diagnostics land on the returned item's own collector so aggregates
// can merge them without a nested computation wiping an outer scope.
func (ce costEvaluator) price(item *WorkItem) (pi pricedItem) {
	diags := NewDiagnostics()
	pi = pricedItem{diags: diags}
	if item != nil {
		pi.itemName = item.Name
	}

	defer func() {
		if rec := recover(); rec != nil {
			diags.Error(CodeInternal, fmt.Sprintf("pricing failed: %v", rec), itemCtx(item))
			pi = pricedItem{itemName: pi.itemName, diags: diags}
		}
	}()

	materialRate, okMat := ce.parseRate(item, item.MaterialCost, "materialCost", diags)
	laborRate, okLab := ce.parseRate(item, item.LaborCost, "laborCost", diags)
	pi.materialRate = materialRate
	pi.laborRate = laborRate
	if !okMat || !okLab {
		return
	}

	units, mt := ce.resolver.resolve(item, diags)
	pi.units = units
	pi.measure = mt
	if !units.IsPositive() {
		return
	}

	// Full precision here; rounding happens in result().
	pi.material = materialRate.Mul(units)
	pi.labor = laborRate.Mul(units)
	pi.total = pi.material.Add(pi.labor)
	return
}

// parseRate validates one per-unit rate: absent/empty is 0, strings are
// sanitized (rejected instead in strict mode), negative and over-limit
// values invalidate the item.
func (ce costEvaluator) parseRate(item *WorkItem, f FlexNumber, field string, diags *Diagnostics) (decimal.Decimal, bool) {
	d, sanitized, ok := parseFlex(f)
	if !ok {
		diags.Error(CodeInvalidRate, fmt.Sprintf("%s is not numeric", field), rateCtx(item, field))
		return decimal.Zero, false
	}
	if sanitized {
		if ce.strict {
			diags.Error(CodeCoercedValue, fmt.Sprintf("%s required sanitation, rejected in strict mode", field), rateCtx(item, field))
			return decimal.Zero, false
		}
		diags.Warn(CodeCoercedValue, fmt.Sprintf("%s parsed from a decorated string", field), rateCtx(item, field))
	}
	if d.IsNegative() {
		diags.Error(CodeNegativeRate, fmt.Sprintf("%s is negative", field), rateCtx(item, field))
		return decimal.Zero, false
	}
	if d.GreaterThan(ce.limits.MaxCost) {
		diags.Error(CodeRateOverLimit, fmt.Sprintf("%s exceeds the maximum %s", field, ce.limits.MaxCost), rateCtx(item, field))
		return decimal.Zero, false
	}
	return d, true
}

func rateCtx(item *WorkItem, field string) map[string]any {
	ctx := map[string]any{"field": field}
	if item != nil && item.Name != "" {
		ctx["item"] = item.Name
	}
	return ctx
}
