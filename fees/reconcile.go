/*
Package fees keeps fee records consistent with their payments.

PURPOSE:
  A FeeRecord's paid_amount, balance and status are derived fields. Every
  payment create / amend / delete goes through Reconcile, which returns the
  updated record; the caller persists it in the same transaction as the
  payment row.

INVARIANT:
  balance == total_amount - paid_amount after every Reconcile or Retotal.

STATUS DERIVATION (in order):
  balance <= 0     -> paid
  paid_amount > 0  -> partially_paid
  otherwise        -> pending

  Removing a payment that leaves paid_amount <= 0 always yields pending.
  overdue / cancelled / refunded are never produced here; they are set by
  an explicit record update.

SEE ALSO:
  - api/fees.go: payment handlers calling Reconcile inside Store.WithTx
*/
package fees

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/warp/schooladmin/domain"
)

// =============================================================================
// EVENTS
// =============================================================================

type EventKind string

const (
	EventNew     EventKind = "new"
	EventAmended EventKind = "amended"
	EventRemoved EventKind = "removed"
)

// Event is a payment change against one fee record.
type Event struct {
	Kind     EventKind
	Amount   decimal.Decimal // new amount (new / amended) or removed amount
	Previous decimal.Decimal // old amount, amended only
}

func NewPayment(amount decimal.Decimal) Event {
	return Event{Kind: EventNew, Amount: amount}
}

func AmendedPayment(oldAmount, newAmount decimal.Decimal) Event {
	return Event{Kind: EventAmended, Amount: newAmount, Previous: oldAmount}
}

func RemovedPayment(amount decimal.Decimal) Event {
	return Event{Kind: EventRemoved, Amount: amount}
}

// Delta is the change the event makes to paid_amount.
func (e Event) Delta() decimal.Decimal {
	switch e.Kind {
	case EventAmended:
		return e.Amount.Sub(e.Previous)
	case EventRemoved:
		return e.Amount.Neg()
	default:
		return e.Amount
	}
}

// =============================================================================
// RECONCILIATION
// =============================================================================

// Reconcile applies ev to rec and returns the result. rec is not modified.
// Payment amounts must be positive; a non-positive amount is InvalidState.
func Reconcile(rec domain.FeeRecord, ev Event) (domain.FeeRecord, error) {
	if !ev.Amount.IsPositive() {
		return rec, &domain.InvalidStateError{Field: "amount", Reason: "must be greater than 0"}
	}
	if ev.Kind == EventAmended && !ev.Previous.IsPositive() {
		return rec, &domain.InvalidStateError{Field: "amount", Reason: "previous amount must be greater than 0"}
	}
	switch ev.Kind {
	case EventNew, EventAmended, EventRemoved:
	default:
		return rec, &domain.InvalidStateError{Field: "event", Reason: fmt.Sprintf("unknown kind %q", ev.Kind)}
	}

	rec.PaidAmount = rec.PaidAmount.Add(ev.Delta())
	rec.Balance = rec.TotalAmount.Sub(rec.PaidAmount)

	if ev.Kind == EventRemoved && !rec.PaidAmount.IsPositive() {
		rec.Status = domain.StatusPending
	} else {
		rec.Status = DeriveStatus(rec.Balance, rec.PaidAmount)
	}
	return rec, nil
}

// DeriveStatus maps amounts to pending / partially_paid / paid.
func DeriveStatus(balance, paid decimal.Decimal) domain.PaymentStatus {
	switch {
	case !balance.IsPositive():
		return domain.StatusPaid
	case paid.IsPositive():
		return domain.StatusPartiallyPaid
	default:
		return domain.StatusPending
	}
}

// =============================================================================
// RECORD LIFECYCLE
// =============================================================================

// Open initialises the derived fields of a new record: nothing paid, balance
// equal to the total. An explicit status (e.g. overdue) is kept as given.
func Open(rec domain.FeeRecord) domain.FeeRecord {
	rec.PaidAmount = decimal.Zero
	rec.Balance = rec.TotalAmount
	if rec.Status == "" {
		rec.Status = DeriveStatus(rec.Balance, rec.PaidAmount)
	}
	return rec
}

// Retotal changes total_amount and recomputes the balance. The status is
// re-derived only while it is one reconciliation owns.
func Retotal(rec domain.FeeRecord, total decimal.Decimal) (domain.FeeRecord, error) {
	if total.IsNegative() {
		return rec, &domain.InvalidStateError{Field: "total_amount", Reason: "must not be negative"}
	}
	rec.TotalAmount = total
	rec.Balance = total.Sub(rec.PaidAmount)
	if rec.Status.Derivable() {
		rec.Status = DeriveStatus(rec.Balance, rec.PaidAmount)
	}
	return rec, nil
}
