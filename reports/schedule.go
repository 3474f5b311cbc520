/*
Package reports handles the run bookkeeping of saved reports.

PURPOSE:
  Report generation itself is not performed; "running" a report records
  last_run and, for scheduled reports, advances next_run:

    daily    -> next midnight
    weekly   -> midnight seven days from today
    monthly  -> midnight on the 1st of next month

  Frequencies are case-insensitive. Unknown frequencies leave next_run as is.

SEE ALSO:
  - api/reports.go: POST /reports/{id}/run, GET /reports/due
*/
package reports

import (
	"strings"
	"time"

	"github.com/warp/schooladmin/domain"
)

type Frequency string

const (
	Daily   Frequency = "daily"
	Weekly  Frequency = "weekly"
	Monthly Frequency = "monthly"
)

// ParseFrequency normalises s, reporting false for unknown values.
func ParseFrequency(s string) (Frequency, bool) {
	f := Frequency(strings.ToLower(strings.TrimSpace(s)))
	switch f {
	case Daily, Weekly, Monthly:
		return f, true
	}
	return "", false
}

// Next returns the next run after now for frequency f.
func (f Frequency) Next(now time.Time) time.Time {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	switch f {
	case Daily:
		return midnight.AddDate(0, 0, 1)
	case Weekly:
		return midnight.AddDate(0, 0, 7)
	case Monthly:
		return time.Date(now.Year(), now.Month()+1, 1, 0, 0, 0, 0, now.Location())
	}
	return time.Time{}
}

// MarkRun returns r with last_run set to now and next_run advanced.
func MarkRun(r domain.Report, now time.Time) domain.Report {
	r.LastRun = &now
	if !r.IsScheduled || r.ScheduleFrequency == nil {
		return r
	}
	f, ok := ParseFrequency(*r.ScheduleFrequency)
	if !ok {
		return r
	}
	next := f.Next(now)
	r.NextRun = &next
	return r
}

// IsDue reports whether a scheduled report's next run has arrived.
func IsDue(r domain.Report, now time.Time) bool {
	return r.IsScheduled && r.NextRun != nil && !r.NextRun.After(now)
}
