/*
errors.go - Diagnostic codes and sentinel errors

PURPOSE:
  All machine-readable diagnostic codes in one place for consistency and
  discoverability. The core never lets an error escape a public engine
  operation; codes travel on Diagnostic entries instead. The sentinel
  errors below exist for the few boundaries that do return errors
  (JSON decoding of project records, store lookups).

CODE CATEGORIES:
  1. Shape validation - malformed categories/settings/item
  2. Field validation - non-numeric, negative, or over-limit values
  3. Geometry         - surfaces that cannot yield a positive quantity
  4. Aggregation      - items excluded from a parent rollup
  5. Internal         - unexpected runtime failures converted to
                        diagnostics at the narrowest possible scope
*/
package estimator

import "errors"

// Diagnostic codes. Stable identifiers for callers that branch on the
// kind of problem rather than the message text.
const (
	// Shape validation
	CodeInvalidItem     = "invalid_item"
	CodeInvalidSettings = "invalid_settings"
	CodeInvalidCategory = "invalid_category"

	// Field validation
	CodeInvalidRate     = "invalid_rate"
	CodeNegativeRate    = "negative_rate"
	CodeRateOverLimit   = "rate_over_limit"
	CodeCoercedValue    = "coerced_value"
	CodeSettingClamped  = "setting_clamped"
	CodeUnknownMeasure  = "unknown_measurement_type"
	CodeNegativeUnits   = "negative_units"
	CodeUnitsClamped    = "units_clamped"

	// Geometry
	CodeInvalidSurface  = "invalid_surface"
	CodeNoValidSurfaces = "no_valid_surfaces"

	// Aggregation
	CodeItemExcluded = "item_excluded"

	// Payments
	CodeInvalidPayment = "invalid_payment"

	// Internal
	CodeInternal = "internal_error"
)

// Sentinel errors for the collaborator boundaries.
var (
	// ErrProjectNotFound is returned by stores when a project id does
	// not exist.
	ErrProjectNotFound = errors.New("project not found")

	// ErrMalformedRecord is returned when a persisted project record
	// cannot be decoded at all. Partial damage inside an otherwise
	// decodable record becomes diagnostics, not this error.
	ErrMalformedRecord = errors.New("malformed project record")
)
