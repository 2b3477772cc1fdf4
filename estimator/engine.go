/*
engine.go - Public engine facade

PURPOSE:
  Construction, options, and the public operations that compose the
  pipeline: UnitResolver -> CostEvaluator -> AggregationEngine ->
  AdjustmentPipeline (totals), and the aggregated total ->
  PaymentReconciler (payments).

DIAGNOSTIC SCOPE:
  Each public operation owns exactly one Diagnostics collector for its
  whole logical aggregate. Construction-time validation diagnostics are
  merged into every operation's collector so a caller that only reads
  getErrors-style accessors still sees them. Errors()/Warnings() expose
  the collector of the most recent operation; callers correlating
  diagnostics across calls must capture them between calls.

CACHING:
  When enabled, Totals() and CategoryBreakdowns() are memoized by a
  content fingerprint of the validated categories plus settings. The
  engine does not deep-copy inputs per call, so the fingerprint is
  recomputed on every cached operation and a caller mutation simply
  misses the cache.

CONCURRENCY:
  Purely synchronous call-and-return computation. The engine is NOT safe
  for concurrent use: the last-diagnostics pointer and the cache are
  mutable. Use one engine per goroutine or guard externally.
*/
package estimator

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
	"time"
)

// WorkTypeCatalog classifies a work item's trade category/subtype into a
// measurement type. The pricing algorithm itself does not require it;
// when supplied it only fills in a missing measurement type.
type WorkTypeCatalog interface {
	Classify(category, subtype string) (MeasurementType, bool)
}

// Options configures an Engine. The zero value is usable.
type Options struct {
	// Catalog is the optional work-type collaborator.
	Catalog WorkTypeCatalog

	// StrictValidation rejects values lenient mode silently coerces:
	// rates and amounts needing string sanitation, unknown measurement
	// types.
	StrictValidation bool

	// EnableCaching memoizes Totals and CategoryBreakdowns by a content
	// fingerprint of categories+settings.
	EnableCaching bool

	// MaxCacheSize bounds the number of memoized results. 0 means a
	// small default.
	MaxCacheSize int

	// Limits overrides the unit/cost caps. Zero fields use defaults.
	Limits Limits

	// Now is the clock used for overdue payment checks. Defaults to
	// time.Now.
	Now func() time.Time
}

const defaultMaxCacheSize = 16

// Engine computes cost estimates for one (categories, settings) pair.
// It holds a validated snapshot and no cross-call business state.
type Engine struct {
	categories  []Category
	settings    normalizedSettings
	rawSettings *Settings

	catalog WorkTypeCatalog
	strict  bool
	limits  Limits
	now     func() time.Time

	setup *Diagnostics // construction-time validation diagnostics
	last  *Diagnostics // collector of the most recent public operation

	cache *resultCache
}

// NewEngine validates the inputs once and returns a ready engine.
// Absent or invalid settings produce an error diagnostic and fall back
// to defaults entirely; a malformed category tree is sanitized with
// diagnostics. Construction never fails.
func NewEngine(categories []Category, settings *Settings, opts Options) *Engine {
	limits := opts.Limits
	if limits.MaxUnits.IsZero() {
		limits.MaxUnits = DefaultLimits().MaxUnits
	}
	if limits.MaxCost.IsZero() {
		limits.MaxCost = DefaultLimits().MaxCost
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	setup := NewDiagnostics()
	e := &Engine{
		categories:  validateCategories(categories, setup),
		settings:    validateSettings(settings, opts.StrictValidation, setup),
		rawSettings: settings,
		catalog:     opts.Catalog,
		strict:      opts.StrictValidation,
		limits:      limits,
		now:         now,
		setup:       setup,
		last:        setup,
	}
	if opts.EnableCaching {
		size := opts.MaxCacheSize
		if size <= 0 {
			size = defaultMaxCacheSize
		}
		e.cache = newResultCache(size)
	}
	return e
}

func (e *Engine) evaluator() costEvaluator {
	return costEvaluator{
		resolver: unitResolver{catalog: e.catalog, limits: e.limits, strict: e.strict},
		limits:   e.limits,
		strict:   e.strict,
	}
}

func (e *Engine) aggregator() aggregator {
	return aggregator{evaluator: e.evaluator()}
}

// beginOp starts a fresh diagnostic scope for one public operation,
// seeded with the construction-time diagnostics.
func (e *Engine) beginOp() *Diagnostics {
	diags := NewDiagnostics()
	diags.Merge(e.setup)
	e.last = diags
	return diags
}

// =============================================================================
// PUBLIC OPERATIONS
// =============================================================================

// PriceUnits resolves the canonical quantity for one work item.
func (e *Engine) PriceUnits(item WorkItem) UnitResult {
	diags := e.beginOp()
	resolver := unitResolver{catalog: e.catalog, limits: e.limits, strict: e.strict}
	units, mt := resolver.resolve(&item, diags)
	label := "units"
	if mt != "" {
		label = mt.UnitLabel()
	}
	return UnitResult{
		Units:    roundUnits(units),
		Label:    label,
		Errors:   diags.Errors(),
		Warnings: diags.Warnings(),
	}
}

// PriceItem prices one work item: units times per-unit rates.
func (e *Engine) PriceItem(item WorkItem) CostResult {
	opDiags := e.beginOp()
	pi := e.evaluator().price(&item)
	opDiags.Merge(pi.diags)
	return pi.result()
}

// CategoryBreakdowns produces per-category pre-adjustment rollups.
func (e *Engine) CategoryBreakdowns() BreakdownReport {
	diags := e.beginOp()
	if cached, ok := e.cacheGet("breakdowns"); ok {
		return cached.(BreakdownReport)
	}

	breakdowns, summary := e.aggregator().breakdowns(e.categories, diags)
	report := BreakdownReport{
		Breakdowns: breakdowns,
		Summary:    summary,
		Errors:     diags.Errors(),
		Warnings:   diags.Warnings(),
	}
	e.cachePut("breakdowns", report)
	return report
}

// Totals re-prices every item across all categories and applies the
// adjustment chain once at the project level.
func (e *Engine) Totals() Totals {
	diags := e.beginOp()
	if cached, ok := e.cacheGet("totals"); ok {
		return cached.(Totals)
	}

	totals := e.aggregator().projectTotals(e.categories, e.settings, diags)
	totals.Errors = diags.Errors()
	totals.Warnings = diags.Warnings()
	e.cachePut("totals", totals)
	return totals
}

// PaymentDetails reconciles the payment ledger against the grand total.
func (e *Engine) PaymentDetails() PaymentSummary {
	diags := e.beginOp()
	grand := e.aggregator().grandTotal(e.categories, e.settings, diags)
	reconciler := paymentReconciler{now: e.now, strict: e.strict}
	return reconciler.reconcile(grand, e.settings, diags)
}

// Errors returns the error diagnostics of the most recent operation.
func (e *Engine) Errors() []Diagnostic { return e.last.Errors() }

// Warnings returns the warning diagnostics of the most recent operation.
func (e *Engine) Warnings() []Diagnostic { return e.last.Warnings() }

// ClearDiagnostics discards the most recent operation's diagnostics.
// Construction-time diagnostics are kept; they reappear on the next
// operation.
func (e *Engine) ClearDiagnostics() {
	e.last = NewDiagnostics()
}

// =============================================================================
// STATUS
// =============================================================================

// SettingsStatus is the validated settings snapshot Status reports.
type SettingsStatus struct {
	TaxRate           string `json:"taxRate"`
	LaborDiscount     string `json:"laborDiscount"`
	WasteFactor       string `json:"wasteFactor"`
	Markup            string `json:"markup"`
	TransportationFee string `json:"transportationFee"`
	MiscFees          int    `json:"miscFees"`
	Payments          int    `json:"payments"`
}

// Status describes the engine's configuration and health.
type Status struct {
	Categories       int            `json:"categories"`
	Items            int            `json:"items"`
	StrictValidation bool           `json:"strictValidation"`
	CachingEnabled   bool           `json:"cachingEnabled"`
	CacheEntries     int            `json:"cacheEntries"`
	CacheHits        int            `json:"cacheHits"`
	CacheMisses      int            `json:"cacheMisses"`
	SetupErrors      int            `json:"setupErrors"`
	SetupWarnings    int            `json:"setupWarnings"`
	Settings         SettingsStatus `json:"settings"`
}

// Status reports the validated configuration snapshot.
func (e *Engine) Status() Status {
	items := 0
	for i := range e.categories {
		items += len(e.categories[i].Items)
	}
	st := Status{
		Categories:       len(e.categories),
		Items:            items,
		StrictValidation: e.strict,
		CachingEnabled:   e.cache != nil,
		SetupErrors:      len(e.setup.Errors()),
		SetupWarnings:    len(e.setup.Warnings()),
		Settings: SettingsStatus{
			TaxRate:           formatRate(e.settings.taxRate),
			LaborDiscount:     formatRate(e.settings.laborDiscount),
			WasteFactor:       formatRate(e.settings.wasteFactor),
			Markup:            formatRate(e.settings.markup),
			TransportationFee: formatMoney(e.settings.transportationFee),
			MiscFees:          len(e.settings.miscFees),
			Payments:          len(e.settings.payments),
		},
	}
	if e.cache != nil {
		st.CacheEntries = len(e.cache.entries)
		st.CacheHits = e.cache.hits
		st.CacheMisses = e.cache.misses
	}
	return st
}

// =============================================================================
// MEMOIZATION
// =============================================================================

type cacheEntry struct {
	key   string
	value any
}

type resultCache struct {
	max     int
	entries []cacheEntry
	hits    int
	misses  int
}

func newResultCache(max int) *resultCache {
	return &resultCache{max: max}
}

func (c *resultCache) get(key string) (any, bool) {
	for _, e := range c.entries {
		if e.key == key {
			c.hits++
			return e.value, true
		}
	}
	c.misses++
	return nil, false
}

func (c *resultCache) put(key string, value any) {
	for i := range c.entries {
		if c.entries[i].key == key {
			c.entries[i].value = value
			return
		}
	}
	c.entries = append(c.entries, cacheEntry{key: key, value: value})
	if len(c.entries) > c.max {
		// Evict oldest.
		c.entries = c.entries[1:]
	}
}

func (e *Engine) cacheGet(op string) (any, bool) {
	if e.cache == nil {
		return nil, false
	}
	return e.cache.get(op + ":" + e.fingerprint())
}

func (e *Engine) cachePut(op string, value any) {
	if e.cache == nil {
		return
	}
	e.cache.put(op+":"+e.fingerprint(), value)
}

// fingerprint hashes the current content of categories and settings.
// Recomputed per cached call: the engine does not deep-copy inputs, so
// caller mutations must change the key.
func (e *Engine) fingerprint() string {
	h := fnv.New64a()
	enc := json.NewEncoder(h)
	_ = enc.Encode(e.categories)
	_ = enc.Encode(e.rawSettings)
	fmt.Fprintf(h, "strict=%t", e.strict)
	return fmt.Sprintf("%016x", h.Sum64())
}
