package profile

import (
	"fmt"
	"regexp"
	"slices"
	"time"

	"github.com/datamatch/datamatch/internal/api/models"
)

// DateLayout is the calendar date format used by availability slots.
const DateLayout = "2006-01-02"

// Recurrence patterns.
const (
	PatternWeekly  = "weekly"
	PatternMonthly = "monthly"
)

// Recurrence bounds.
const (
	DefaultRecurrenceMonths = 3
	MaxRecurrenceDays       = 366
)

// timeHHMMRegex validates HH:MM format.
var timeHHMMRegex = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

// TimeRange is a start/end pair in HH:MM.
type TimeRange struct {
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

// Recurrence describes slots generated on a schedule.
type Recurrence struct {
	// Pattern is PatternWeekly or PatternMonthly.
	Pattern string

	// StartDate is the first date considered. EndDate defaults to
	// DefaultRecurrenceMonths after StartDate.
	StartDate string
	EndDate   string

	// Times are the windows added on every generated date.
	Times []TimeRange

	// Weekdays select the days for the weekly pattern, 0 is Sunday.
	Weekdays []int
}

// ExpandRecurrence generates the slots described by r. Weekly patterns emit
// every listed weekday between the start and end dates inclusive. Monthly
// patterns emit the start date's day of month, clamped to the last day of
// shorter months.
func ExpandRecurrence(r Recurrence) ([]AvailabilitySlot, []models.FieldError) {
	var errs []models.FieldError

	start, err := time.Parse(DateLayout, r.StartDate)
	if err != nil {
		errs = append(errs, models.FieldError{Field: "recurring.startDate", Message: "must be a date in YYYY-MM-DD format"})
	}

	end := start.AddDate(0, DefaultRecurrenceMonths, 0)
	if r.EndDate != "" {
		parsed, err := time.Parse(DateLayout, r.EndDate)
		switch {
		case err != nil:
			errs = append(errs, models.FieldError{Field: "recurring.endDate", Message: "must be a date in YYYY-MM-DD format"})
		case parsed.Before(start):
			errs = append(errs, models.FieldError{Field: "recurring.endDate", Message: "must not be before startDate"})
		case parsed.Sub(start) > MaxRecurrenceDays*24*time.Hour:
			errs = append(errs, models.FieldError{Field: "recurring.endDate", Message: fmt.Sprintf("must be within %d days of startDate", MaxRecurrenceDays)})
		default:
			end = parsed
		}
	}

	if len(r.Times) == 0 {
		errs = append(errs, models.FieldError{Field: "recurring.times", Message: "is required"})
	}
	for i, tr := range r.Times {
		errs = append(errs, validateTimeRange(fmt.Sprintf("recurring.times[%d]", i), tr.StartTime, tr.EndTime)...)
	}

	switch r.Pattern {
	case PatternWeekly:
		if len(r.Weekdays) == 0 {
			errs = append(errs, models.FieldError{Field: "recurring.weekdays", Message: "is required for weekly patterns"})
		}
		for _, d := range r.Weekdays {
			if d < 0 || d > 6 {
				errs = append(errs, models.FieldError{Field: "recurring.weekdays", Message: "must contain values between 0 and 6"})
				break
			}
		}
	case PatternMonthly:
	default:
		errs = append(errs, models.FieldError{Field: "recurring.pattern", Message: "must be weekly or monthly"})
	}

	if len(errs) > 0 {
		return nil, errs
	}

	var dates []time.Time
	if r.Pattern == PatternWeekly {
		for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
			if slices.Contains(r.Weekdays, int(d.Weekday())) {
				dates = append(dates, d)
			}
		}
	} else {
		day := start.Day()
		for k := 0; ; k++ {
			first := time.Date(start.Year(), start.Month()+time.Month(k), 1, 0, 0, 0, 0, time.UTC)
			last := first.AddDate(0, 1, -1).Day()
			d := first.AddDate(0, 0, min(day, last)-1)
			if d.After(end) {
				break
			}
			dates = append(dates, d)
		}
	}

	slots := make([]AvailabilitySlot, 0, len(dates)*len(r.Times))
	for _, d := range dates {
		for _, tr := range r.Times {
			slots = append(slots, AvailabilitySlot{
				Date:      d.Format(DateLayout),
				StartTime: tr.StartTime,
				EndTime:   tr.EndTime,
				Recurring: true,
			})
		}
	}
	return slots, nil
}

// ValidateSlots checks one-off slots for well-formed dates and time windows.
func ValidateSlots(slots []AvailabilitySlot) []models.FieldError {
	var errs []models.FieldError
	for i, s := range slots {
		field := fmt.Sprintf("availability[%d]", i)
		if _, err := time.Parse(DateLayout, s.Date); err != nil {
			errs = append(errs, models.FieldError{Field: field + ".date", Message: "must be a date in YYYY-MM-DD format"})
		}
		errs = append(errs, validateTimeRange(field, s.StartTime, s.EndTime)...)
	}
	return errs
}

func validateTimeRange(field, start, end string) []models.FieldError {
	var errs []models.FieldError
	if !timeHHMMRegex.MatchString(start) {
		errs = append(errs, models.FieldError{Field: field + ".startTime", Message: "must be in HH:MM format"})
	}
	if !timeHHMMRegex.MatchString(end) {
		errs = append(errs, models.FieldError{Field: field + ".endTime", Message: "must be in HH:MM format"})
	}
	if len(errs) == 0 && start >= end {
		errs = append(errs, models.FieldError{Field: field + ".endTime", Message: "must be after startTime"})
	}
	return errs
}

// MergeSlots appends added to existing and drops duplicates by Key,
// keeping the first occurrence. Neither input is modified.
func MergeSlots(existing, added []AvailabilitySlot) []AvailabilitySlot {
	out := make([]AvailabilitySlot, 0, len(existing)+len(added))
	seen := make(map[string]struct{}, len(existing)+len(added))
	for _, list := range [][]AvailabilitySlot{existing, added} {
		for _, s := range list {
			if _, ok := seen[s.Key()]; ok {
				continue
			}
			seen[s.Key()] = struct{}{}
			out = append(out, s)
		}
	}
	return out
}

// UpcomingSlots returns the slots that have not ended at now. Slots dated
// today are kept while their end time is still ahead.
func UpcomingSlots(slots []AvailabilitySlot, now time.Time) []AvailabilitySlot {
	today := now.Format(DateLayout)
	clock := now.Format("15:04")

	out := make([]AvailabilitySlot, 0, len(slots))
	for _, s := range slots {
		if s.Date > today || (s.Date == today && s.EndTime > clock) {
			out = append(out, s)
		}
	}
	return out
}

// RemoveSlot returns slots without the entry at index.
func RemoveSlot(slots []AvailabilitySlot, index int) ([]AvailabilitySlot, bool) {
	if index < 0 || index >= len(slots) {
		return slots, false
	}
	out := make([]AvailabilitySlot, 0, len(slots)-1)
	out = append(out, slots[:index]...)
	out = append(out, slots[index+1:]...)
	return out, true
}

// MergePreferences overlays the set fields of update on current.
func MergePreferences(current, update *AvailabilityPreferences) *AvailabilityPreferences {
	if update == nil {
		return current
	}
	out := &AvailabilityPreferences{}
	if current != nil {
		out.PreferredDays = append([]int(nil), current.PreferredDays...)
		out.PreferredTimeOfDay = current.PreferredTimeOfDay
	}
	if update.PreferredDays != nil {
		out.PreferredDays = append([]int(nil), update.PreferredDays...)
	}
	if update.PreferredTimeOfDay != "" {
		out.PreferredTimeOfDay = update.PreferredTimeOfDay
	}
	return out
}
