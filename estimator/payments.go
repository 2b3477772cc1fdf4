/*
payments.go - Payment ledger reconciliation

PURPOSE:
  Reconciles the settings' payment ledger against the computed grand
  total: what has been paid, what remains due, and which unpaid entries
  are past their date. Malformed individual payments are skipped with a
  warning and never abort the pass.

DEPOSIT:
  A deposit is tracked either as a ledger entry with method "Deposit"
  (the current shape) or as the legacy flat settings field. A ledger
  entry supersedes the legacy field when both are present.
*/
package estimator

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// paymentReconciler reconciles the ledger against a grand total.
// The clock is injectable so overdue checks are testable.
type paymentReconciler struct {
	now    func() time.Time
	strict bool
}

// reconcile produces the paid/due/overdue summary. Any unexpected
// failure yields an all-zero summary with the error recorded.
func (pr paymentReconciler) reconcile(grandTotal decimal.Decimal, s normalizedSettings, diags *Diagnostics) (summary PaymentSummary) {
	defer func() {
		if rec := recover(); rec != nil {
			diags.Error(CodeInternal, fmt.Sprintf("payment reconciliation failed: %v", rec), nil)
			summary = zeroPaymentSummary(diags)
		}
	}()

	now := pr.now()
	totalPaid := decimal.Zero
	overdue := decimal.Zero
	deposit := decimal.Zero
	depositFromLedger := false
	counts := PaymentCounts{Payments: len(s.payments)}

	for i, p := range s.payments {
		amount, ok := pr.parseAmount(p, i, diags)
		if !ok {
			counts.Skipped++
			continue
		}

		if p.IsPaid {
			totalPaid = totalPaid.Add(amount)
			counts.Paid++
			if p.Method == PaymentMethodDeposit {
				deposit = deposit.Add(amount)
				depositFromLedger = true
			}
			continue
		}

		if p.Date == "" {
			continue
		}
		due, err := parsePaymentDate(p.Date)
		if err != nil {
			diags.Warn(CodeInvalidPayment, fmt.Sprintf("payment %d has an unparseable date %q", i+1, p.Date),
				map[string]any{"payment": i})
			continue
		}
		if due.Before(now) {
			overdue = overdue.Add(amount)
			counts.Overdue++
		}
	}

	// Legacy flat deposit, superseded by any Deposit-method ledger entry.
	if !depositFromLedger && s.deposit.IsPositive() {
		deposit = s.deposit
	}

	totalDue := grandTotal.Sub(totalPaid)
	if totalDue.IsNegative() {
		totalDue = decimal.Zero
	}

	return PaymentSummary{
		TotalPaid:       formatMoney(totalPaid),
		TotalDue:        formatMoney(totalDue),
		OverduePayments: formatMoney(overdue),
		GrandTotal:      formatMoney(grandTotal),
		Deposit:         formatMoney(deposit),
		Summary:         counts,
		Errors:          diags.Errors(),
		Warnings:        diags.Warnings(),
	}
}

// parseAmount resolves one payment's amount, defaulting to skip-with-
// warning on anything unusable.
func (pr paymentReconciler) parseAmount(p Payment, index int, diags *Diagnostics) (decimal.Decimal, bool) {
	amount, sanitized, ok := parseFlex(p.Amount)
	if !ok || (sanitized && pr.strict) {
		diags.Warn(CodeInvalidPayment, fmt.Sprintf("payment %d has an invalid amount, skipped", index+1),
			map[string]any{"payment": index})
		return decimal.Zero, false
	}
	if sanitized {
		diags.Warn(CodeCoercedValue, fmt.Sprintf("payment %d amount parsed from a decorated string", index+1),
			map[string]any{"payment": index})
	}
	if amount.IsNegative() {
		diags.Warn(CodeInvalidPayment, fmt.Sprintf("payment %d has a negative amount, skipped", index+1),
			map[string]any{"payment": index})
		return decimal.Zero, false
	}
	return amount, true
}

// parsePaymentDate accepts the date shapes found in stored ledgers.
func parsePaymentDate(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

func zeroPaymentSummary(diags *Diagnostics) PaymentSummary {
	return PaymentSummary{
		TotalPaid:       zeroMoney,
		TotalDue:        zeroMoney,
		OverduePayments: zeroMoney,
		GrandTotal:      zeroMoney,
		Deposit:         zeroMoney,
		Errors:          diags.Errors(),
		Warnings:        diags.Warnings(),
	}
}
