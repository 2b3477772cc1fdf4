/*
units.go - Quantity resolution

PURPOSE:
  Derives a canonical unit count for one work item from either an
  aggregated list of surfaces or direct item-level fields. This is where
  the heterogeneous geometry shapes found in project records collapse
  into a single decimal quantity.

RESOLUTION ORDER:
  1. The measurement type stamped on the item wins.
  2. If absent, the work-type catalog (when supplied) may classify the
     item from its category/subtype.
  3. In direct-field mode only, a missing type is inferred from whichever
     geometry is present: area (sqft or width x height), then linear
     feet, then a discrete unit count.

INVARIANTS:
  - Negative sums are an error and resolve to zero.
  - Sums above the configured maximum are clamped to the maximum with an
    error recorded; the result never exceeds the cap.
  - Area and linear quantities round to 2 fraction digits; by-unit counts
    are integral.
*/
package estimator

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// unitResolver derives canonical quantities for work items.
type unitResolver struct {
	catalog WorkTypeCatalog
	limits  Limits
	strict  bool
}

// resolve returns the canonical quantity for item and the measurement
// type it was resolved under. Problems are recorded on diags; the
// returned quantity is always >= 0 and <= limits.MaxUnits.
func (r unitResolver) resolve(item *WorkItem, diags *Diagnostics) (decimal.Decimal, MeasurementType) {
	if item == nil {
		diags.Error(CodeInvalidItem, "work item missing", nil)
		return decimal.Zero, ""
	}

	mt := item.MeasurementType
	if mt != "" && !KnownMeasurement(mt) {
		if r.strict {
			diags.Error(CodeUnknownMeasure, fmt.Sprintf("unknown measurement type %q", mt), itemCtx(item))
		} else {
			diags.Warn(CodeUnknownMeasure, fmt.Sprintf("unknown measurement type %q", mt), itemCtx(item))
		}
	}
	if mt == "" && r.catalog != nil {
		if classified, ok := r.catalog.Classify(item.Category, item.Subtype); ok {
			mt = classified
		}
	}

	var units decimal.Decimal
	if len(item.Surfaces) > 0 {
		units = r.fromSurfaces(item, mt, diags)
	} else {
		units, mt = r.fromDirectFields(item, mt, diags)
	}

	return r.finish(units, mt, item, diags), mt
}

// fromSurfaces sums the quantities of all valid surfaces. Surfaces that
// cannot yield a positive quantity are skipped with a warning; if none
// remain, that is an error.
func (r unitResolver) fromSurfaces(item *WorkItem, mt MeasurementType, diags *Diagnostics) decimal.Decimal {
	total := decimal.Zero
	valid := 0
	for i, s := range item.Surfaces {
		q := surfaceQuantity(mt, s)
		if !q.IsPositive() {
			name := s.Name
			if name == "" {
				name = fmt.Sprintf("#%d", i+1)
			}
			diags.Warn(CodeInvalidSurface, fmt.Sprintf("surface %s yields no positive quantity, skipped", name),
				map[string]any{"item": item.Name, "surface": i})
			continue
		}
		total = total.Add(q)
		valid++
	}
	if valid == 0 {
		diags.Error(CodeNoValidSurfaces, "no valid surfaces on item", itemCtx(item))
		return decimal.Zero
	}
	return total
}

// surfaceQuantity evaluates one surface under the given measurement
// type. Unknown types contribute zero.
func surfaceQuantity(mt MeasurementType, s Surface) decimal.Decimal {
	switch mt {
	case MeasureSquareFoot, MeasureSingleSurface:
		if sq := flexOrZero(s.Sqft); sq.IsPositive() {
			return sq
		}
		return flexOrZero(s.Width).Mul(flexOrZero(s.Height))
	case MeasureLinearFoot:
		return flexOrZero(s.LinearFt)
	case MeasureByUnit:
		return flexOrZero(s.Units).Truncate(0)
	default:
		return decimal.Zero
	}
}

// fromDirectFields applies the same switch to item-level fields, with a
// heuristic fallback when the measurement type is absent: infer it from
// whichever geometry is present, area first, then linear, then count.
func (r unitResolver) fromDirectFields(item *WorkItem, mt MeasurementType, diags *Diagnostics) (decimal.Decimal, MeasurementType) {
	if mt == "" || !KnownMeasurement(mt) {
		mt = inferMeasurement(item)
		if mt == "" {
			diags.Error(CodeInvalidItem, "work item has no measurement type and no usable geometry", itemCtx(item))
			return decimal.Zero, ""
		}
	}

	switch mt {
	case MeasureSquareFoot, MeasureSingleSurface:
		if sq := flexOrZero(item.Sqft); sq.IsPositive() {
			return sq, mt
		}
		return flexOrZero(item.Width).Mul(flexOrZero(item.Height)), mt
	case MeasureLinearFoot:
		return flexOrZero(item.LinearFt), mt
	case MeasureByUnit:
		return flexOrZero(item.Units).Truncate(0), mt
	}
	return decimal.Zero, mt
}

// inferMeasurement picks a measurement type from the geometry present,
// in priority order: area, linear, count.
func inferMeasurement(item *WorkItem) MeasurementType {
	if flexOrZero(item.Sqft).IsPositive() || flexOrZero(item.Width).Mul(flexOrZero(item.Height)).IsPositive() {
		return MeasureSquareFoot
	}
	if flexOrZero(item.LinearFt).IsPositive() {
		return MeasureLinearFoot
	}
	if flexOrZero(item.Units).IsPositive() {
		return MeasureByUnit
	}
	return ""
}

// finish applies the shared invariants: non-negative, capped, rounded.
func (r unitResolver) finish(units decimal.Decimal, mt MeasurementType, item *WorkItem, diags *Diagnostics) decimal.Decimal {
	if units.IsNegative() {
		diags.Error(CodeNegativeUnits, "resolved units are negative, using 0", itemCtx(item))
		return decimal.Zero
	}
	if units.GreaterThan(r.limits.MaxUnits) {
		diags.Error(CodeUnitsClamped,
			fmt.Sprintf("resolved units %s exceed the maximum %s, clamped", units, r.limits.MaxUnits),
			itemCtx(item))
		units = r.limits.MaxUnits
	}
	if mt == MeasureByUnit {
		return units.Truncate(0)
	}
	return units.Round(unitPlaces)
}

// flexOrZero parses a FlexNumber, treating anything unrecoverable as 0.
// Field-level diagnostics for rates are handled in cost.go; geometry
// fields fail soft because a bad surface is a warning, not an error.
func flexOrZero(f FlexNumber) decimal.Decimal {
	d, _, ok := parseFlex(f)
	if !ok {
		return decimal.Zero
	}
	return d
}

func itemCtx(item *WorkItem) map[string]any {
	if item == nil || item.Name == "" {
		return nil
	}
	return map[string]any{"item": item.Name}
}
