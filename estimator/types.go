/*
Package estimator provides the core project cost calculation engine.

PURPOSE:
  This package contains the deterministic, side-effect-free computation
  pipeline for contractor/remodeling cost estimates. Given a tree of work
  categories containing billable work items and a set of global settings,
  it resolves heterogeneous quantity inputs into canonical unit counts,
  prices each item, applies a fixed-order chain of adjustments to the
  aggregated totals, and reconciles a payment ledger against the result.

KEY CONCEPTS IN THIS FILE (types.go):
  - WorkItem/Surface/Category: the input tree supplied by the caller
  - Settings/Payment/MiscFee: global adjustment parameters and the ledger
  - FlexNumber: a JSON scalar that tolerates numbers and numeric strings
  - Result types: UnitResult, CostResult, CategoryBreakdown, Totals,
    PaymentSummary - all produced fresh per call, immutable once returned

DESIGN PRINCIPLES:
  1. Precision: Uses decimal.Decimal to avoid floating-point errors.
     Rounding to display precision happens only at output boundaries.
  2. Graceful degradation: malformed input produces diagnostics and a
     zeroed same-shape result, never a panic escaping a public method.
  3. Explicit diagnostics: every result carries its own errors/warnings;
     nothing is reported via exceptions.

USAGE:
  engine := estimator.NewEngine(categories, &settings, estimator.Options{})
  totals := engine.Totals()
  fmt.Println(totals.Total) // "1895.00"

SEE ALSO:
  - units.go: quantity resolution from surfaces or direct fields
  - cost.go: per-item pricing
  - adjustments.go: the fixed-order adjustment chain
  - aggregate.go: category and project rollups
  - payments.go: payment ledger reconciliation
*/
package estimator

import (
	"bytes"
	"encoding/json"

	"github.com/shopspring/decimal"
)

// =============================================================================
// MEASUREMENT TYPES
// =============================================================================

// MeasurementType is the unit basis for pricing a work item: area,
// linear run, or discrete count.
type MeasurementType string

const (
	MeasureSquareFoot    MeasurementType = "square-foot"
	MeasureSingleSurface MeasurementType = "single-surface"
	MeasureLinearFoot    MeasurementType = "linear-foot"
	MeasureByUnit        MeasurementType = "by-unit"
)

// KnownMeasurement reports whether mt is one of the supported bases.
func KnownMeasurement(mt MeasurementType) bool {
	switch mt {
	case MeasureSquareFoot, MeasureSingleSurface, MeasureLinearFoot, MeasureByUnit:
		return true
	}
	return false
}

// UnitLabel returns the display label for quantities of this basis.
func (mt MeasurementType) UnitLabel() string {
	switch mt {
	case MeasureSquareFoot, MeasureSingleSurface:
		return "sq ft"
	case MeasureLinearFoot:
		return "linear ft"
	case MeasureByUnit:
		return "units"
	default:
		return "units"
	}
}

// =============================================================================
// FLEXNUMBER - Numeric or numeric-string JSON scalar
// =============================================================================

// FlexNumber is a numeric field that tolerates the loose shapes found in
// persisted project records: a JSON number, a numeric string ("2.50",
// "$1,250.00"), null, or an absent field. Parsing and sanitation happen
// once at the validation boundary (see validate.go); downstream code only
// ever sees decimal values.
type FlexNumber struct {
	raw      string
	isString bool
	set      bool
}

// Num builds a FlexNumber from a float. Intended for programmatic
// construction and tests.
func Num(v float64) FlexNumber {
	return FlexNumber{raw: decimal.NewFromFloat(v).String(), set: true}
}

// Str builds a FlexNumber carrying a raw string value.
func Str(s string) FlexNumber {
	return FlexNumber{raw: s, isString: true, set: true}
}

// IsSet reports whether the field was present and non-null.
func (f FlexNumber) IsSet() bool { return f.set }

func (f *FlexNumber) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*f = FlexNumber{}
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FlexNumber{raw: s, isString: true, set: true}
		return nil
	}
	*f = FlexNumber{raw: string(b), set: true}
	return nil
}

func (f FlexNumber) MarshalJSON() ([]byte, error) {
	if !f.set {
		return []byte("null"), nil
	}
	if f.isString {
		return json.Marshal(f.raw)
	}
	return []byte(f.raw), nil
}

// =============================================================================
// INPUT TREE - Categories, work items, surfaces
// =============================================================================

// Surface is one measurable sub-area, sub-run, or sub-count contributing
// to a work item's total quantity. Which fields are meaningful depends on
// the item's measurement type.
type Surface struct {
	Name     string     `json:"name,omitempty"`
	Sqft     FlexNumber `json:"sqft,omitempty"`
	Width    FlexNumber `json:"width,omitempty"`
	Height   FlexNumber `json:"height,omitempty"`
	LinearFt FlexNumber `json:"linearFt,omitempty"`
	Units    FlexNumber `json:"units,omitempty"`
}

// WorkItem is one billable line of work. MaterialCost and LaborCost are
// PER-UNIT rates, not extended amounts. The descriptive fields are used
// only for display and breakdown labeling.
type WorkItem struct {
	Name            string          `json:"name,omitempty"`
	Category        string          `json:"category,omitempty"`
	Type            string          `json:"type,omitempty"`
	Subtype         string          `json:"subtype,omitempty"`
	Description     string          `json:"description,omitempty"`
	MeasurementType MeasurementType `json:"measurementType,omitempty"`
	Surfaces        []Surface       `json:"surfaces,omitempty"`

	// Direct-unit fields, used when no surfaces are present.
	Sqft     FlexNumber `json:"sqft,omitempty"`
	Width    FlexNumber `json:"width,omitempty"`
	Height   FlexNumber `json:"height,omitempty"`
	LinearFt FlexNumber `json:"linearFt,omitempty"`
	Units    FlexNumber `json:"units,omitempty"`

	MaterialCost FlexNumber `json:"materialCost,omitempty"`
	LaborCost    FlexNumber `json:"laborCost,omitempty"`
}

// Category is a named, ordered group of work items.
type Category struct {
	Name  string     `json:"name"`
	Key   string     `json:"key,omitempty"`
	Items []WorkItem `json:"items"`
}

// =============================================================================
// SETTINGS - Global adjustment parameters and payment ledger
// =============================================================================

// MiscFee is a named flat additional charge added after markup/tax.
type MiscFee struct {
	Name   string     `json:"name"`
	Amount FlexNumber `json:"amount"`
}

// Payment is one entry in the project's payment ledger.
type Payment struct {
	Amount FlexNumber `json:"amount"`
	Date   string     `json:"date,omitempty"`
	Method string     `json:"method,omitempty"`
	IsPaid bool       `json:"isPaid"`
	Note   string     `json:"note,omitempty"`
}

// PaymentMethodDeposit marks a ledger entry as the project deposit.
const PaymentMethodDeposit = "Deposit"

// Settings carries the project-wide rates, fees, and payment ledger.
// TaxRate, LaborDiscount and WasteFactor are fractional (0-1 scale);
// Markup is fractional but may exceed 1.
type Settings struct {
	TaxRate           FlexNumber `json:"taxRate,omitempty"`
	LaborDiscount     FlexNumber `json:"laborDiscount,omitempty"`
	WasteFactor       FlexNumber `json:"wasteFactor,omitempty"`
	Markup            FlexNumber `json:"markup,omitempty"`
	TransportationFee FlexNumber `json:"transportationFee,omitempty"`
	MiscFees          []MiscFee  `json:"miscFees,omitempty"`
	Payments          []Payment  `json:"payments,omitempty"`

	// Deposit is the legacy flat amount, superseded by a Payment with
	// method "Deposit" in later settings shapes.
	Deposit FlexNumber `json:"deposit,omitempty"`
}

// =============================================================================
// LIMITS - Validation caps
// =============================================================================

// Limits caps quantities and monetary fields. Values above a cap are
// clamped (units) or rejected (rates) with a diagnostic.
type Limits struct {
	MaxUnits decimal.Decimal
	MaxCost  decimal.Decimal
}

// DefaultLimits returns the standard caps: 50 000 units, 10 000 000 per
// cost field.
func DefaultLimits() Limits {
	return Limits{
		MaxUnits: decimal.NewFromInt(50_000),
		MaxCost:  decimal.NewFromInt(10_000_000),
	}
}

// Rate clamps applied by the adjustment pipeline.
var (
	maxTaxRate     = decimal.NewFromFloat(0.25)
	maxMarkup      = decimal.NewFromInt(5)
	maxWasteFactor = decimal.NewFromFloat(0.50)
)

// Display precisions. Internal arithmetic keeps full decimal precision;
// these apply only at output boundaries.
const (
	moneyPlaces = 2
	ratePlaces  = 4
	unitPlaces  = 2
)

// =============================================================================
// RESULT TYPES
// =============================================================================

// UnitResult is the outcome of resolving a work item's quantity.
type UnitResult struct {
	Units    float64      `json:"units"`
	Label    string       `json:"label"`
	Errors   []Diagnostic `json:"errors"`
	Warnings []Diagnostic `json:"warnings"`
}

// CostMetadata carries the display context for a priced item.
type CostMetadata struct {
	ItemName        string          `json:"itemName,omitempty"`
	MeasurementType MeasurementType `json:"measurementType,omitempty"`
	MaterialRate    string          `json:"materialRate"`
	LaborRate       string          `json:"laborRate"`
}

// CostResult is a fully priced work item. Monetary fields are fixed
// 2-decimal strings; rates in Metadata are fixed 4-decimal strings.
type CostResult struct {
	Units        float64      `json:"units"`
	UnitLabel    string       `json:"unitLabel"`
	MaterialCost string       `json:"materialCost"`
	LaborCost    string       `json:"laborCost"`
	TotalCost    string       `json:"totalCost"`
	Metadata     CostMetadata `json:"metadata"`
	Errors       []Diagnostic `json:"errors"`
	Warnings     []Diagnostic `json:"warnings"`
}

// CategoryBreakdown is a per-category rollup. Figures here are always
// PRE-adjustment: Subtotal is material + labor with no waste, discount,
// tax, or markup applied. The full adjustment chain only runs at the
// project level (see Totals).
type CategoryBreakdown struct {
	Name           string  `json:"name"`
	Key            string  `json:"key"`
	MaterialCost   string  `json:"materialCost"`
	LaborCost      string  `json:"laborCost"`
	Subtotal       string  `json:"subtotal"`
	TotalUnits     float64 `json:"totalUnits"`
	ItemCount      int     `json:"itemCount"`
	ValidItemCount int     `json:"validItemCount"`
	HasErrors      bool    `json:"hasErrors"`
}

// AggregateSummary counts what an aggregate pass saw.
type AggregateSummary struct {
	Categories           int `json:"categories"`
	TotalItems           int `json:"totalItems"`
	ValidItems           int `json:"validItems"`
	CategoriesWithErrors int `json:"categoriesWithErrors"`
}

// BreakdownReport is the result of a category breakdown pass.
type BreakdownReport struct {
	Breakdowns []CategoryBreakdown `json:"breakdowns"`
	Summary    AggregateSummary    `json:"summary"`
	Errors     []Diagnostic        `json:"errors"`
	Warnings   []Diagnostic        `json:"warnings"`
}

// Totals is the project-level rollup after the full adjustment chain.
// LaborCost is the post-discount amount; LaborCostBeforeDiscount and
// LaborDiscount expose the discount applied.
type Totals struct {
	MaterialCost            string           `json:"materialCost"`
	LaborCost               string           `json:"laborCost"`
	LaborCostBeforeDiscount string           `json:"laborCostBeforeDiscount"`
	LaborDiscount           string           `json:"laborDiscount"`
	WasteCost               string           `json:"wasteCost"`
	TaxAmount               string           `json:"taxAmount"`
	MarkupAmount            string           `json:"markupAmount"`
	MiscFeesTotal           string           `json:"miscFeesTotal"`
	TransportationFee       string           `json:"transportationFee"`
	Subtotal                string           `json:"subtotal"`
	Total                   string           `json:"total"`
	TotalUnits              float64          `json:"totalUnits"`
	Summary                 AggregateSummary `json:"summary"`
	Errors                  []Diagnostic     `json:"errors"`
	Warnings                []Diagnostic     `json:"warnings"`
}

// PaymentCounts summarizes the ledger pass.
type PaymentCounts struct {
	Payments int `json:"payments"`
	Paid     int `json:"paid"`
	Overdue  int `json:"overdue"`
	Skipped  int `json:"skipped"`
}

// PaymentSummary reconciles the payment ledger against the grand total.
// TotalDue is floored at 0 even if payments exceed the grand total.
type PaymentSummary struct {
	TotalPaid       string        `json:"totalPaid"`
	TotalDue        string        `json:"totalDue"`
	OverduePayments string        `json:"overduePayments"`
	GrandTotal      string        `json:"grandTotal"`
	Deposit         string        `json:"deposit"`
	Summary         PaymentCounts `json:"summary"`
	Errors          []Diagnostic  `json:"errors"`
	Warnings        []Diagnostic  `json:"warnings"`
}

// =============================================================================
// FORMATTING HELPERS
// =============================================================================

func formatMoney(d decimal.Decimal) string { return d.StringFixed(moneyPlaces) }
func formatRate(d decimal.Decimal) string  { return d.StringFixed(ratePlaces) }

// roundUnits rounds a resolved quantity for display: 2 fraction digits,
// exposed as a float because unit counts are numbers, not money.
func roundUnits(d decimal.Decimal) float64 {
	f, _ := d.Round(unitPlaces).Float64()
	return f
}

var zeroMoney = formatMoney(decimal.Zero)
