/*
Package timetable enforces the no-overlap rule for timetable slots.

PURPOSE:
  Within one timetable, two slots on the same day must not overlap. Slots are
  half-open intervals [start, end): a slot ending at 09:00 and one starting
  at 09:00 are fine together.

OVERLAP TEST:
  [s1, e1) and [s2, e2) conflict iff s1 < e2 && e1 > s2

USAGE:
  existing, _ := store.Slots().List(ctx, domain.SlotFilter{TimetableID: &id, Day: &day})
  if conflicts := timetable.CheckConflict(existing, candidate, nil); len(conflicts) > 0 {
      return &domain.SlotConflictError{Conflicts: conflicts}
  }

SEE ALSO:
  - api/timetables.go: slot create / update handlers
*/
package timetable

import (
	"sort"

	"github.com/warp/schooladmin/domain"
)

// Candidate is the slot being created or the post-patch state of the slot
// being updated.
type Candidate struct {
	TimetableID uint
	Day         domain.Weekday
	Start       domain.ClockTime
	End         domain.ClockTime
}

// CandidateOf returns the candidate describing s.
func CandidateOf(s domain.TimetableSlot) Candidate {
	return Candidate{TimetableID: s.TimetableID, Day: s.Day, Start: s.StartTime, End: s.EndTime}
}

// Overlaps reports whether [s1, e1) and [s2, e2) intersect.
func Overlaps(s1, e1, s2, e2 domain.ClockTime) bool {
	return s1 < e2 && e1 > s2
}

// CheckConflict returns every slot in existing that shares the candidate's
// timetable and day and overlaps its interval. excludeID, when set, is
// skipped so a slot never conflicts with itself during an update.
func CheckConflict(existing []domain.TimetableSlot, c Candidate, excludeID *uint) []domain.TimetableSlot {
	var conflicts []domain.TimetableSlot
	for _, s := range existing {
		if excludeID != nil && s.ID == *excludeID {
			continue
		}
		if s.TimetableID != c.TimetableID || s.Day != c.Day {
			continue
		}
		if Overlaps(s.StartTime, s.EndTime, c.Start, c.End) {
			conflicts = append(conflicts, s)
		}
	}
	return conflicts
}

// ValidateRange rejects empty or inverted intervals.
func ValidateRange(start, end domain.ClockTime) error {
	if start >= end {
		return &domain.InvalidStateError{Field: "end_time", Reason: "must be after start_time"}
	}
	return nil
}

// NeedsCheck reports whether a patch can change the slot's position in the
// week. Patches to room, subject or teacher alone skip the conflict check.
func NeedsCheck(p domain.SlotPatch) bool {
	return p.TouchesTime()
}

// Sort orders slots by weekday (Monday first), then start time, then id.
func Sort(slots []domain.TimetableSlot) {
	sort.SliceStable(slots, func(i, j int) bool {
		a, b := slots[i], slots[j]
		if ai, bi := a.Day.Index(), b.Day.Index(); ai != bi {
			return ai < bi
		}
		if a.StartTime != b.StartTime {
			return a.StartTime < b.StartTime
		}
		return a.ID < b.ID
	})
}
