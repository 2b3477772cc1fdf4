/*
aggregate.go - Category and project rollups

PURPOSE:
  Iterates the category tree, prices every item, and produces two
  deliberately different views:

  CATEGORY BREAKDOWNS are pre-adjustment. A category's subtotal is
  material + labor with no waste, discount, tax, or markup - these are
  the numbers a breakdown table shows per row.

  PROJECT TOTALS re-price every item independently of the breakdown pass
  and run the adjustment chain exactly once at the project level. Merging
  the two views would change what category rows display relative to the
  grand total, so they stay separate result types.

PARTIAL FAILURE:
  Items with errors are excluded from sums but still counted in
  ItemCount; the category is flagged HasErrors when the two counts
  diverge. A bad item never aborts the loop.
*/
package estimator

import "github.com/shopspring/decimal"

// aggregator walks the category tree with a costEvaluator.
type aggregator struct {
	evaluator costEvaluator
}

// breakdowns produces per-category pre-adjustment rollups.
func (a aggregator) breakdowns(cats []Category, diags *Diagnostics) ([]CategoryBreakdown, AggregateSummary) {
	out := make([]CategoryBreakdown, 0, len(cats))
	summary := AggregateSummary{Categories: len(cats)}

	for ci := range cats {
		cat := &cats[ci]
		material := decimal.Zero
		labor := decimal.Zero
		units := decimal.Zero
		valid := 0

		for ii := range cat.Items {
			pi := a.evaluator.price(&cat.Items[ii])
			diags.Merge(pi.diags)
			if !pi.valid() {
				diags.Warn(CodeItemExcluded, "item excluded from category rollup due to errors",
					map[string]any{"category": cat.Name, "item": pi.itemName})
				continue
			}
			material = material.Add(pi.material)
			labor = labor.Add(pi.labor)
			units = units.Add(pi.units)
			valid++
		}

		itemCount := len(cat.Items)
		summary.TotalItems += itemCount
		summary.ValidItems += valid
		hasErrors := valid < itemCount
		if hasErrors {
			summary.CategoriesWithErrors++
		}

		out = append(out, CategoryBreakdown{
			Name:           cat.Name,
			Key:            cat.Key,
			MaterialCost:   formatMoney(material),
			LaborCost:      formatMoney(labor),
			Subtotal:       formatMoney(material.Add(labor)),
			TotalUnits:     roundUnits(units),
			ItemCount:      itemCount,
			ValidItemCount: valid,
			HasErrors:      hasErrors,
		})
	}

	return out, summary
}

// projectTotals accumulates project-wide material/labor across all
// categories and applies the adjustment chain once.
func (a aggregator) projectTotals(cats []Category, s normalizedSettings, diags *Diagnostics) Totals {
	material := decimal.Zero
	labor := decimal.Zero
	units := decimal.Zero
	summary := AggregateSummary{Categories: len(cats)}

	for ci := range cats {
		cat := &cats[ci]
		valid := 0
		for ii := range cat.Items {
			pi := a.evaluator.price(&cat.Items[ii])
			diags.Merge(pi.diags)
			if !pi.valid() {
				diags.Warn(CodeItemExcluded, "item excluded from project totals due to errors",
					map[string]any{"category": cat.Name, "item": pi.itemName})
				continue
			}
			material = material.Add(pi.material)
			labor = labor.Add(pi.labor)
			units = units.Add(pi.units)
			valid++
		}
		summary.TotalItems += len(cat.Items)
		summary.ValidItems += valid
		if valid < len(cat.Items) {
			summary.CategoriesWithErrors++
		}
	}

	adj := adjust(material, labor, s)

	return Totals{
		MaterialCost:            formatMoney(adj.materialCost),
		LaborCost:               formatMoney(adj.adjustedLaborCost),
		LaborCostBeforeDiscount: formatMoney(adj.laborCost),
		LaborDiscount:           formatMoney(adj.laborDiscountAmount),
		WasteCost:               formatMoney(adj.wasteCost),
		TaxAmount:               formatMoney(adj.taxAmount),
		MarkupAmount:            formatMoney(adj.markupAmount),
		MiscFeesTotal:           formatMoney(adj.miscFeesTotal),
		TransportationFee:       formatMoney(adj.transportationFee),
		Subtotal:                formatMoney(adj.subtotal),
		Total:                   formatMoney(adj.grandTotal),
		TotalUnits:              roundUnits(units),
		Summary:                 summary,
	}
}

// grandTotal runs the totals pass and returns only the full-precision
// grand total, for callers (payment reconciliation) that need the number
// rather than the formatted report.
func (a aggregator) grandTotal(cats []Category, s normalizedSettings, diags *Diagnostics) decimal.Decimal {
	material := decimal.Zero
	labor := decimal.Zero
	for ci := range cats {
		for ii := range cats[ci].Items {
			pi := a.evaluator.price(&cats[ci].Items[ii])
			diags.Merge(pi.diags)
			if !pi.valid() {
				continue
			}
			material = material.Add(pi.material)
			labor = labor.Add(pi.labor)
		}
	}
	return adjust(material, labor, s).grandTotal
}
