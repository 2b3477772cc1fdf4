/*
adjustments.go - The fixed-order adjustment chain

PURPOSE:
  A pure function from aggregated material/labor cost plus settings to
  the full set of project-level adjustments. The step order is a hard
  contract matching the expected financial semantics:

    1. Clamp every rate to its legal range.
    2. Labor discount comes off labor first.
    3. Waste is added to material.
    4. Subtotal = material-with-waste + discounted labor.
    5. Tax and markup are BOTH percentages of that same subtotal; they
       never compound on each other.
    6. Misc fees sum (negative fees ignored).
    7. Grand total = subtotal + markup + tax + misc fees + transportation.

  All arithmetic is full-precision decimal; nothing here rounds.
*/
package estimator

import "github.com/shopspring/decimal"

// adjustments holds every intermediate of the chain.
type adjustments struct {
	materialCost        decimal.Decimal
	laborCost           decimal.Decimal // before discount
	laborDiscountAmount decimal.Decimal
	adjustedLaborCost   decimal.Decimal
	wasteCost           decimal.Decimal
	materialWithWaste   decimal.Decimal
	subtotal            decimal.Decimal
	taxAmount           decimal.Decimal
	markupAmount        decimal.Decimal
	miscFeesTotal       decimal.Decimal
	transportationFee   decimal.Decimal
	grandTotal          decimal.Decimal
}

// adjust applies the chain. It clamps its own inputs so it stays a
// standalone pure function regardless of what validation ran upstream.
func adjust(materialCost, laborCost decimal.Decimal, s normalizedSettings) adjustments {
	one := decimal.NewFromInt(1)

	// Step 1: clamp.
	materialCost = clampFloor(materialCost, decimal.Zero)
	laborCost = clampFloor(laborCost, decimal.Zero)
	laborDiscount := clampBetween(s.laborDiscount, decimal.Zero, one)
	wasteFactor := clampBetween(s.wasteFactor, decimal.Zero, maxWasteFactor)
	taxRate := clampBetween(s.taxRate, decimal.Zero, maxTaxRate)
	markup := clampBetween(s.markup, decimal.Zero, maxMarkup)
	transportation := clampFloor(s.transportationFee, decimal.Zero)

	a := adjustments{
		materialCost:      materialCost,
		laborCost:         laborCost,
		transportationFee: transportation,
	}

	// Step 2: labor discount.
	a.laborDiscountAmount = laborCost.Mul(laborDiscount)
	a.adjustedLaborCost = laborCost.Sub(a.laborDiscountAmount)

	// Step 3: waste on material.
	a.wasteCost = materialCost.Mul(wasteFactor)
	a.materialWithWaste = materialCost.Add(a.wasteCost)

	// Step 4: subtotal.
	a.subtotal = a.materialWithWaste.Add(a.adjustedLaborCost)

	// Step 5: tax and markup, both from the same subtotal.
	a.taxAmount = a.subtotal.Mul(taxRate)
	a.markupAmount = a.subtotal.Mul(markup)

	// Step 6: misc fees.
	for _, fee := range s.miscFees {
		if fee.amount.IsPositive() {
			a.miscFeesTotal = a.miscFeesTotal.Add(fee.amount)
		}
	}

	// Step 7: grand total.
	a.grandTotal = a.subtotal.
		Add(a.markupAmount).
		Add(a.taxAmount).
		Add(a.miscFeesTotal).
		Add(a.transportationFee)

	return a
}

func clampFloor(v, lo decimal.Decimal) decimal.Decimal {
	if v.LessThan(lo) {
		return lo
	}
	return v
}

func clampBetween(v, lo, hi decimal.Decimal) decimal.Decimal {
	if v.LessThan(lo) {
		return lo
	}
	if v.GreaterThan(hi) {
		return hi
	}
	return v
}
