/*
Package catalog classifies work items into measurement types.

PURPOSE:
  The estimator core reads the measurement type already stamped on a
  work item; this package is the collaborator that stamps it. It maps
  trade categories and subtypes (flooring, trim, fixtures, ...) to the
  unit basis they are priced on.

  The engine accepts a catalog through the estimator.WorkTypeCatalog
  interface and only consults it when an item arrives without a
  measurement type.

USAGE:
  cat := catalog.New()
  engine := estimator.NewEngine(categories, &settings, estimator.Options{
      Catalog: cat,
  })
*/
package catalog

import (
	"sort"
	"strings"

	"github.com/warp/estimate-engine/estimator"
)

// Entry maps one category/subtype pair to a measurement type. An empty
// Subtype matches any subtype within the category.
type Entry struct {
	Category string                    `json:"category"`
	Subtype  string                    `json:"subtype,omitempty"`
	Measure  estimator.MeasurementType `json:"measure"`
}

// Catalog is a static classification table. Lookups are
// case-insensitive; a category+subtype match wins over a category-only
// match.
type Catalog struct {
	entries map[catalogKey]estimator.MeasurementType
}

type catalogKey struct {
	category string
	subtype  string
}

// New returns a catalog seeded with the standard remodeling trades.
func New() *Catalog {
	c := &Catalog{entries: make(map[catalogKey]estimator.MeasurementType)}
	for _, e := range defaultEntries {
		c.Register(e)
	}
	return c
}

// Empty returns a catalog with no entries.
func Empty() *Catalog {
	return &Catalog{entries: make(map[catalogKey]estimator.MeasurementType)}
}

// Register adds or replaces an entry.
func (c *Catalog) Register(e Entry) {
	c.entries[catalogKey{normalize(e.Category), normalize(e.Subtype)}] = e.Measure
}

// Classify implements estimator.WorkTypeCatalog.
func (c *Catalog) Classify(category, subtype string) (estimator.MeasurementType, bool) {
	cat := normalize(category)
	if cat == "" {
		return "", false
	}
	if mt, ok := c.entries[catalogKey{cat, normalize(subtype)}]; ok {
		return mt, true
	}
	if mt, ok := c.entries[catalogKey{cat, ""}]; ok {
		return mt, true
	}
	return "", false
}

// Entries lists the table in a stable order, for API exposure.
func (c *Catalog) Entries() []Entry {
	out := make([]Entry, 0, len(c.entries))
	for k, mt := range c.entries {
		out = append(out, Entry{Category: k.category, Subtype: k.subtype, Measure: mt})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return out[i].Subtype < out[j].Subtype
	})
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// defaultEntries covers the common remodeling trades. Area work prices
// by square foot, runs by linear foot, and discrete installs by unit.
var defaultEntries = []Entry{
	{Category: "flooring", Measure: estimator.MeasureSquareFoot},
	{Category: "tile", Measure: estimator.MeasureSquareFoot},
	{Category: "painting", Measure: estimator.MeasureSquareFoot},
	{Category: "drywall", Measure: estimator.MeasureSquareFoot},
	{Category: "insulation", Measure: estimator.MeasureSquareFoot},
	{Category: "roofing", Measure: estimator.MeasureSquareFoot},
	{Category: "countertop", Measure: estimator.MeasureSingleSurface},
	{Category: "backsplash", Measure: estimator.MeasureSingleSurface},
	{Category: "trim", Measure: estimator.MeasureLinearFoot},
	{Category: "trim", Subtype: "baseboard", Measure: estimator.MeasureLinearFoot},
	{Category: "trim", Subtype: "crown", Measure: estimator.MeasureLinearFoot},
	{Category: "fencing", Measure: estimator.MeasureLinearFoot},
	{Category: "gutters", Measure: estimator.MeasureLinearFoot},
	{Category: "plumbing", Subtype: "pipe", Measure: estimator.MeasureLinearFoot},
	{Category: "plumbing", Measure: estimator.MeasureByUnit},
	{Category: "electrical", Measure: estimator.MeasureByUnit},
	{Category: "fixtures", Measure: estimator.MeasureByUnit},
	{Category: "appliances", Measure: estimator.MeasureByUnit},
	{Category: "doors", Measure: estimator.MeasureByUnit},
	{Category: "windows", Measure: estimator.MeasureByUnit},
	{Category: "cabinets", Measure: estimator.MeasureByUnit},
}
