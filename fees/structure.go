package fees

import (
	"github.com/shopspring/decimal"
	"github.com/warp/schooladmin/domain"
)

// TotalFromItems sums item amounts, skipping optional items when
// mandatoryOnly is set.
func TotalFromItems(items []domain.FeeItem, mandatoryOnly bool) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		if mandatoryOnly && !it.IsMandatory {
			continue
		}
		total = total.Add(it.Amount)
	}
	return total
}

// EarliestDueDate returns the first due date among the items, if any has one.
func EarliestDueDate(items []domain.FeeItem) (domain.Date, bool) {
	var (
		earliest domain.Date
		found    bool
	)
	for _, it := range items {
		if it.DueDate == nil {
			continue
		}
		if !found || it.DueDate.Before(earliest.Time) {
			earliest = *it.DueDate
			found = true
		}
	}
	return earliest, found
}

// RecordFromStructure builds an opened fee record for a student from a fee
// structure and its items. dueDate overrides the earliest due date of the
// items that were counted.
func RecordFromStructure(structure domain.FeeStructure, items []domain.FeeItem, studentID uint, term string, dueDate *domain.Date, mandatoryOnly bool) (domain.FeeRecord, error) {
	if mandatoryOnly {
		counted := items[:0:0]
		for _, it := range items {
			if it.IsMandatory {
				counted = append(counted, it)
			}
		}
		items = counted
	}
	rec := domain.FeeRecord{
		AcademicYear:   structure.AcademicYear,
		Term:           term,
		TotalAmount:    TotalFromItems(items, false),
		StudentID:      studentID,
		FeeStructureID: structure.ID,
	}
	switch {
	case dueDate != nil:
		rec.DueDate = *dueDate
	default:
		d, ok := EarliestDueDate(items)
		if !ok {
			return rec, &domain.InvalidStateError{Field: "due_date", Reason: "no fee item has a due date; provide one"}
		}
		rec.DueDate = d
	}
	return Open(rec), nil
}
