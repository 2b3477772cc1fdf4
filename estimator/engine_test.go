package estimator_test

import (
	"testing"

	"github.com/warp/estimate-engine/estimator"
)

func TestNewEngine_NilSettings_ErrorAndDefaults(t *testing.T) {
	// GIVEN: No settings object at all
	// WHEN: Constructing the engine and computing totals
	// THEN: An invalid_settings error is recorded and the computation
	//       proceeds with zero-rate defaults

	engine := estimator.NewEngine(remodel(), nil, estimator.Options{})

	if !hasCode(engine.Errors(), "invalid_settings") {
		t.Errorf("expected invalid_settings after construction, got %v", engine.Errors())
	}

	totals := engine.Totals()
	if totals.Total != "1500.00" {
		t.Errorf("expected raw subtotal with default settings, got %s", totals.Total)
	}
	if !hasCode(totals.Errors, "invalid_settings") {
		t.Errorf("construction diagnostics should surface on operations, got %v", totals.Errors)
	}
}

func TestEngine_DiagnosticsFollowMostRecentOperation(t *testing.T) {
	// GIVEN: One operation that warns and one that is clean
	// WHEN: Reading the accessors after each
	// THEN: They reflect the latest operation only

	engine := newEngine(nil)

	engine.PriceUnits(estimator.WorkItem{
		MeasurementType: "cubic-yard",
		Surfaces:        []estimator.Surface{{Sqft: estimator.Num(10)}},
	})
	if !hasCode(engine.Warnings(), "unknown_measurement_type") {
		t.Errorf("expected warning from last operation, got %v", engine.Warnings())
	}

	engine.PriceUnits(estimator.WorkItem{
		MeasurementType: estimator.MeasureSquareFoot,
		Sqft:            estimator.Num(10),
	})
	if len(engine.Warnings()) != 0 {
		t.Errorf("clean operation should reset accessors, got %v", engine.Warnings())
	}
}

func TestEngine_ClearDiagnostics(t *testing.T) {
	// GIVEN: Construction-time diagnostics
	// WHEN: Clearing and then running another operation
	// THEN: Accessors empty after the clear; construction diagnostics
	//       reappear with the next operation

	engine := estimator.NewEngine(remodel(), nil, estimator.Options{})

	engine.ClearDiagnostics()
	if len(engine.Errors()) != 0 || len(engine.Warnings()) != 0 {
		t.Errorf("expected empty accessors after clear, got %v / %v",
			engine.Errors(), engine.Warnings())
	}

	engine.Totals()
	if !hasCode(engine.Errors(), "invalid_settings") {
		t.Errorf("construction diagnostics should reappear, got %v", engine.Errors())
	}
}

func TestEngine_CachingHitsAndMisses(t *testing.T) {
	// GIVEN: Caching enabled
	// WHEN: Computing totals twice on unchanged inputs
	// THEN: The second call is a cache hit with an identical result

	engine := estimator.NewEngine(remodel(), defaultSettings(), estimator.Options{EnableCaching: true})

	first := engine.Totals()
	second := engine.Totals()

	if first.Total != second.Total {
		t.Errorf("cached result diverged: %s vs %s", first.Total, second.Total)
	}

	status := engine.Status()
	if !status.CachingEnabled {
		t.Error("expected caching enabled in status")
	}
	if status.CacheMisses != 1 || status.CacheHits != 1 {
		t.Errorf("expected 1 miss / 1 hit, got %d / %d", status.CacheMisses, status.CacheHits)
	}
	if status.CacheEntries != 1 {
		t.Errorf("expected 1 cache entry, got %d", status.CacheEntries)
	}
}

func TestEngine_CacheMissAfterInputMutation(t *testing.T) {
	// GIVEN: A cached totals result
	// WHEN: The caller mutates the category slice it passed in
	// THEN: The content fingerprint changes and the stale entry is not
	//       served

	cats := remodel()
	engine := estimator.NewEngine(cats, defaultSettings(), estimator.Options{EnableCaching: true})

	before := engine.Totals()
	cats[0].Items[0].Sqft = estimator.Num(200)
	after := engine.Totals()

	if before.Total != "1500.00" {
		t.Errorf("initial total: %s", before.Total)
	}
	if after.Total != "2700.00" {
		t.Errorf("expected recompute after mutation, got %s", after.Total)
	}

	status := engine.Status()
	if status.CacheMisses != 2 {
		t.Errorf("expected 2 misses, got %d", status.CacheMisses)
	}
}

func TestEngine_CacheBounded(t *testing.T) {
	// GIVEN: A cache capped at one entry
	// WHEN: Memoizing two different operations
	// THEN: The oldest entry is evicted

	engine := estimator.NewEngine(remodel(), defaultSettings(),
		estimator.Options{EnableCaching: true, MaxCacheSize: 1})

	engine.Totals()
	engine.CategoryBreakdowns()

	if got := engine.Status().CacheEntries; got != 1 {
		t.Errorf("expected bounded cache of 1 entry, got %d", got)
	}
}

func TestEngine_Status_ReportsValidatedSnapshot(t *testing.T) {
	// GIVEN: An engine with clamped settings
	// WHEN: Reading status
	// THEN: Counts and the post-validation settings snapshot are reported

	settings := &estimator.Settings{
		TaxRate:           estimator.Num(0.08),
		WasteFactor:       estimator.Num(2.0), // clamps to 0.50
		TransportationFee: estimator.Num(50),
		MiscFees:          []estimator.MiscFee{{Name: "Permit", Amount: estimator.Num(100)}},
	}
	engine := estimator.NewEngine(remodel(), settings, estimator.Options{StrictValidation: true})

	status := engine.Status()

	if status.Categories != 2 || status.Items != 2 {
		t.Errorf("tree counts wrong: %d categories / %d items", status.Categories, status.Items)
	}
	if !status.StrictValidation {
		t.Error("expected strict flag set")
	}
	if status.Settings.TaxRate != "0.0800" {
		t.Errorf("tax rate snapshot: %s", status.Settings.TaxRate)
	}
	if status.Settings.WasteFactor != "0.5000" {
		t.Errorf("waste factor should reflect the clamp: %s", status.Settings.WasteFactor)
	}
	if status.Settings.TransportationFee != "50.00" {
		t.Errorf("transportation snapshot: %s", status.Settings.TransportationFee)
	}
	if status.Settings.MiscFees != 1 {
		t.Errorf("misc fee count: %d", status.Settings.MiscFees)
	}
	if status.SetupWarnings == 0 {
		t.Error("expected the clamp recorded as a setup warning")
	}
}

func TestEngine_EmptyUnnamedCategory_Skipped(t *testing.T) {
	// GIVEN: A category with no name and no items among real ones
	// WHEN: Constructing the engine
	// THEN: It is dropped with a warning and never reaches the rollups

	cats := append(remodel(), estimator.Category{})
	engine := newEngine(cats)

	if !hasCode(engine.Warnings(), "invalid_category") {
		t.Errorf("expected invalid_category warning, got %v", engine.Warnings())
	}
	if got := engine.Status().Categories; got != 2 {
		t.Errorf("expected 2 categories after sanitation, got %d", got)
	}
}
