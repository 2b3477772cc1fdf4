/*
diagnostics.go - Ordered, queryable collector of non-fatal diagnostics

PURPOSE:
  Every computation in this package degrades gracefully: malformed input
  produces a diagnostic and a zeroed fallback, never a panic escaping a
  public method. The Diagnostics collector is the side channel those
  problems travel on.

SCOPING:
  A collector is caller-owned and explicit. Each public engine operation
  creates exactly one collector for its whole logical aggregate, and
  nested per-item computations write into child collectors that are
  merged upward. A nested call can therefore never wipe diagnostics
  accumulated by an enclosing call.

SEE ALSO:
  - errors.go: diagnostic codes and sentinel errors
  - engine.go: per-operation collector lifecycle
*/
package estimator

// Severity classifies a diagnostic as fatal-for-the-item or advisory.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Diagnostic is one recorded problem: a machine-readable code, a human
// message, and a context payload identifying where it happened.
type Diagnostic struct {
	Severity Severity       `json:"severity"`
	Code     string         `json:"code"`
	Message  string         `json:"message"`
	Context  map[string]any `json:"context,omitempty"`
}

// Diagnostics is an ordered collector. The zero value is not usable;
// create with NewDiagnostics.
type Diagnostics struct {
	entries []Diagnostic
}

func NewDiagnostics() *Diagnostics {
	return &Diagnostics{}
}

// Error records an error-severity diagnostic.
func (d *Diagnostics) Error(code, message string, ctx map[string]any) {
	d.entries = append(d.entries, Diagnostic{
		Severity: SeverityError,
		Code:     code,
		Message:  message,
		Context:  ctx,
	})
}

// Warn records a warning-severity diagnostic.
func (d *Diagnostics) Warn(code, message string, ctx map[string]any) {
	d.entries = append(d.entries, Diagnostic{
		Severity: SeverityWarning,
		Code:     code,
		Message:  message,
		Context:  ctx,
	})
}

// Merge appends all of other's entries, preserving order.
func (d *Diagnostics) Merge(other *Diagnostics) {
	if other == nil {
		return
	}
	d.entries = append(d.entries, other.entries...)
}

// Errors returns the error-severity entries in recording order.
// Never returns nil so results serialize as [] rather than null.
func (d *Diagnostics) Errors() []Diagnostic {
	return d.bySeverity(SeverityError)
}

// Warnings returns the warning-severity entries in recording order.
func (d *Diagnostics) Warnings() []Diagnostic {
	return d.bySeverity(SeverityWarning)
}

func (d *Diagnostics) bySeverity(sev Severity) []Diagnostic {
	out := []Diagnostic{}
	if d == nil {
		return out
	}
	for _, e := range d.entries {
		if e.Severity == sev {
			out = append(out, e)
		}
	}
	return out
}

// HasErrors reports whether any error-severity entry was recorded.
func (d *Diagnostics) HasErrors() bool {
	if d == nil {
		return false
	}
	for _, e := range d.entries {
		if e.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Len returns the total number of recorded entries.
func (d *Diagnostics) Len() int {
	if d == nil {
		return 0
	}
	return len(d.entries)
}

// Reset discards all recorded entries.
func (d *Diagnostics) Reset() {
	d.entries = d.entries[:0]
}
