package estimator_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/warp/estimate-engine/estimator"
)

// remodel returns a two-category tree used across the rollup tests:
// material 1000 / labor 500 when everything is valid.
func remodel() []estimator.Category {
	return []estimator.Category{
		{
			Name: "Flooring",
			Items: []estimator.WorkItem{
				{
					Name:            "Oak planks",
					MeasurementType: estimator.MeasureSquareFoot,
					Sqft:            estimator.Num(100),
					MaterialCost:    estimator.Num(8),
					LaborCost:       estimator.Num(4),
				},
			},
		},
		{
			Name: "Trim",
			Items: []estimator.WorkItem{
				{
					Name:            "Baseboard",
					MeasurementType: estimator.MeasureLinearFoot,
					LinearFt:        estimator.Num(50),
					MaterialCost:    estimator.Num(4),
					LaborCost:       estimator.Num(2),
				},
			},
		},
	}
}

func TestCategoryBreakdowns_PreAdjustmentSubtotals(t *testing.T) {
	// GIVEN: A project with waste/tax/markup settings
	// WHEN: Computing category breakdowns
	// THEN: Category figures are raw material+labor; no adjustment applied

	settings := &estimator.Settings{
		WasteFactor: estimator.Num(0.10),
		TaxRate:     estimator.Num(0.08),
		Markup:      estimator.Num(0.15),
	}
	engine := estimator.NewEngine(remodel(), settings, estimator.Options{})

	report := engine.CategoryBreakdowns()

	if len(report.Breakdowns) != 2 {
		t.Fatalf("expected 2 breakdowns, got %d", len(report.Breakdowns))
	}

	flooring := report.Breakdowns[0]
	if flooring.MaterialCost != "800.00" || flooring.LaborCost != "400.00" || flooring.Subtotal != "1200.00" {
		t.Errorf("flooring rollup wrong: %s/%s/%s",
			flooring.MaterialCost, flooring.LaborCost, flooring.Subtotal)
	}
	if flooring.TotalUnits != 100 {
		t.Errorf("expected 100 units, got %v", flooring.TotalUnits)
	}

	trim := report.Breakdowns[1]
	if trim.Subtotal != "300.00" {
		t.Errorf("trim subtotal wrong: %s", trim.Subtotal)
	}

	if report.Summary.TotalItems != 2 || report.Summary.ValidItems != 2 {
		t.Errorf("summary counts wrong: %+v", report.Summary)
	}
}

func TestCategoryBreakdowns_InvalidItemExcludedButCounted(t *testing.T) {
	// GIVEN: A category where one item has a negative material rate
	// WHEN: Computing breakdowns
	// THEN: The item is excluded from sums but counted in ItemCount,
	//       and the category is flagged

	cats := []estimator.Category{
		{
			Name: "Paint",
			Items: []estimator.WorkItem{
				{
					Name:            "Walls",
					MeasurementType: estimator.MeasureSquareFoot,
					Sqft:            estimator.Num(200),
					MaterialCost:    estimator.Num(1),
					LaborCost:       estimator.Num(1),
				},
				{
					Name:            "Ceiling",
					MeasurementType: estimator.MeasureSquareFoot,
					Sqft:            estimator.Num(100),
					MaterialCost:    estimator.Num(-5),
					LaborCost:       estimator.Num(1),
				},
			},
		},
	}
	engine := newEngine(cats)

	report := engine.CategoryBreakdowns()
	paint := report.Breakdowns[0]

	if paint.MaterialCost != "200.00" {
		t.Errorf("invalid item leaked into material sum: %s", paint.MaterialCost)
	}
	if paint.ItemCount != 2 || paint.ValidItemCount != 1 {
		t.Errorf("expected 2 items / 1 valid, got %d/%d", paint.ItemCount, paint.ValidItemCount)
	}
	if !paint.HasErrors {
		t.Error("expected category flagged with errors")
	}
	if !hasCode(report.Errors, "negative_rate") {
		t.Errorf("expected negative_rate error surfaced, got %v", report.Errors)
	}
	if !hasCode(report.Warnings, "item_excluded") {
		t.Errorf("expected item_excluded warning, got %v", report.Warnings)
	}
}

func TestTotals_AdjustmentChain(t *testing.T) {
	// GIVEN: material 1000, labor 500, waste 0.10, discount 0.20,
	//        tax 0.08, markup 0.15, transportation 50, no misc fees
	// WHEN: Computing totals
	// THEN: waste 100, adjusted labor 400, subtotal 1500, tax 120,
	//       markup 225, grand total 1895

	settings := &estimator.Settings{
		WasteFactor:       estimator.Num(0.10),
		LaborDiscount:     estimator.Num(0.20),
		TaxRate:           estimator.Num(0.08),
		Markup:            estimator.Num(0.15),
		TransportationFee: estimator.Num(50),
	}
	engine := estimator.NewEngine(remodel(), settings, estimator.Options{})

	totals := engine.Totals()

	if totals.MaterialCost != "1000.00" {
		t.Errorf("material: %s", totals.MaterialCost)
	}
	if totals.LaborCostBeforeDiscount != "500.00" {
		t.Errorf("labor before discount: %s", totals.LaborCostBeforeDiscount)
	}
	if totals.WasteCost != "100.00" {
		t.Errorf("waste: %s", totals.WasteCost)
	}
	if totals.LaborDiscount != "100.00" {
		t.Errorf("labor discount: %s", totals.LaborDiscount)
	}
	if totals.LaborCost != "400.00" {
		t.Errorf("adjusted labor: %s", totals.LaborCost)
	}
	if totals.Subtotal != "1500.00" {
		t.Errorf("subtotal: %s", totals.Subtotal)
	}
	if totals.TaxAmount != "120.00" {
		t.Errorf("tax: %s", totals.TaxAmount)
	}
	if totals.MarkupAmount != "225.00" {
		t.Errorf("markup: %s", totals.MarkupAmount)
	}
	if totals.TransportationFee != "50.00" {
		t.Errorf("transportation: %s", totals.TransportationFee)
	}
	if totals.Total != "1895.00" {
		t.Errorf("grand total: %s", totals.Total)
	}
}

func TestTotals_TaxAndMarkupShareTheSameBase(t *testing.T) {
	// GIVEN: Both tax and markup configured
	// WHEN: Computing totals
	// THEN: Each is a percentage of the subtotal, never of each other

	settings := &estimator.Settings{
		TaxRate: estimator.Num(0.10),
		Markup:  estimator.Num(0.10),
	}
	engine := estimator.NewEngine(remodel(), settings, estimator.Options{})

	totals := engine.Totals()

	// subtotal 1500 -> 150 each; compounding would give 165 for one
	if totals.TaxAmount != "150.00" || totals.MarkupAmount != "150.00" {
		t.Errorf("expected 150.00 each, got tax %s markup %s",
			totals.TaxAmount, totals.MarkupAmount)
	}
	if totals.Total != "1800.00" {
		t.Errorf("grand total: %s", totals.Total)
	}
}

func TestTotals_MiscFees_NegativeIgnored(t *testing.T) {
	// GIVEN: Misc fees including a negative amount
	// WHEN: Computing totals
	// THEN: Only positive fees sum

	settings := &estimator.Settings{
		MiscFees: []estimator.MiscFee{
			{Name: "Permit", Amount: estimator.Num(125)},
			{Name: "Refund", Amount: estimator.Num(-40)},
			{Name: "Disposal", Amount: estimator.Num(75)},
		},
	}
	engine := estimator.NewEngine(remodel(), settings, estimator.Options{})

	totals := engine.Totals()
	if totals.MiscFeesTotal != "200.00" {
		t.Errorf("misc fees: %s", totals.MiscFeesTotal)
	}
}

func TestTotals_SettingsClampedToLegalRanges(t *testing.T) {
	// GIVEN: Settings beyond every cap
	// WHEN: Computing totals
	// THEN: Rates clamp: tax 0.25, waste 0.50, discount 1.0, markup 5.0

	settings := &estimator.Settings{
		TaxRate:           estimator.Num(0.90),
		WasteFactor:       estimator.Num(2.0),
		LaborDiscount:     estimator.Num(3.0),
		Markup:            estimator.Num(9.0),
		TransportationFee: estimator.Num(-10),
	}
	engine := estimator.NewEngine(remodel(), settings, estimator.Options{})

	totals := engine.Totals()

	// material 1000 * 0.5 waste = 500; labor fully discounted
	if totals.WasteCost != "500.00" {
		t.Errorf("waste: %s", totals.WasteCost)
	}
	if totals.LaborCost != "0.00" {
		t.Errorf("adjusted labor: %s", totals.LaborCost)
	}
	// subtotal 1500; tax 375 (25%), markup 7500 (500%)
	if totals.TaxAmount != "375.00" {
		t.Errorf("tax: %s", totals.TaxAmount)
	}
	if totals.MarkupAmount != "7500.00" {
		t.Errorf("markup: %s", totals.MarkupAmount)
	}
	if totals.TransportationFee != "0.00" {
		t.Errorf("transportation: %s", totals.TransportationFee)
	}
	if !hasCode(totals.Warnings, "setting_clamped") {
		t.Errorf("expected setting_clamped warnings, got %v", totals.Warnings)
	}
}

func TestTotals_SummaryCountsMatchBreakdowns(t *testing.T) {
	// GIVEN: A tree with a mix of valid and invalid items
	// WHEN: Computing both views
	// THEN: Sum of ItemCount equals totals.Summary.TotalItems, and sum
	//       of ValidItemCount equals totals.Summary.ValidItems

	cats := remodel()
	cats[0].Items = append(cats[0].Items, estimator.WorkItem{
		Name:            "Broken",
		MeasurementType: estimator.MeasureSquareFoot,
		Sqft:            estimator.Num(10),
		MaterialCost:    estimator.Str("n/a"),
	})
	engine := newEngine(cats)

	report := engine.CategoryBreakdowns()
	totals := engine.Totals()

	sumItems, sumValid := 0, 0
	for _, b := range report.Breakdowns {
		sumItems += b.ItemCount
		sumValid += b.ValidItemCount
	}

	if sumItems != totals.Summary.TotalItems {
		t.Errorf("item counts diverge: breakdowns %d, totals %d", sumItems, totals.Summary.TotalItems)
	}
	if sumValid != totals.Summary.ValidItems {
		t.Errorf("valid counts diverge: breakdowns %d, totals %d", sumValid, totals.Summary.ValidItems)
	}
	if totals.Summary.TotalItems != 3 || totals.Summary.ValidItems != 2 {
		t.Errorf("unexpected summary: %+v", totals.Summary)
	}
}

func TestTotals_MoneyFormattingRoundTripsStable(t *testing.T) {
	// GIVEN: A computed grand total
	// WHEN: Parsing its 2-decimal string and formatting again
	// THEN: The value does not drift

	settings := &estimator.Settings{
		WasteFactor: estimator.Num(0.07),
		TaxRate:     estimator.Num(0.0625),
		Markup:      estimator.Num(0.1333),
	}
	engine := estimator.NewEngine(remodel(), settings, estimator.Options{})

	totals := engine.Totals()
	parsed, err := decimal.NewFromString(totals.Total)
	if err != nil {
		t.Fatalf("total is not numeric: %q", totals.Total)
	}
	if parsed.StringFixed(2) != totals.Total {
		t.Errorf("round trip drifted: %s -> %s", totals.Total, parsed.StringFixed(2))
	}
}

func TestTotals_EmptyProject_AllZero(t *testing.T) {
	// GIVEN: No categories at all
	// WHEN: Computing totals
	// THEN: A same-shape result with zero money everywhere

	engine := newEngine(nil)
	totals := engine.Totals()

	if totals.Total != "0.00" || totals.MaterialCost != "0.00" {
		t.Errorf("expected zeros, got total %s material %s", totals.Total, totals.MaterialCost)
	}
	if totals.Summary.TotalItems != 0 {
		t.Errorf("expected no items, got %d", totals.Summary.TotalItems)
	}
}
