package match

import (
	"strconv"
	"strings"
	"time"

	"github.com/datamatch/datamatch/internal/profile"
)

// Availability scoring constants.
const (
	pointsPerOverlap    = 20
	pointsPerPreference = 5
	timeOfDayMatch      = 2
)

// OverlappingSlot is a pair of same-day slots whose windows intersect.
type OverlappingSlot struct {
	Date           string `json:"date"`
	UserTime       string `json:"userTime"`
	MatchTime      string `json:"matchTime"`
	OverlapMinutes int    `json:"overlapMinutes"`
}

// AvailabilityDetails explains an availability score.
type AvailabilityDetails struct {
	OverlappingSlots []OverlappingSlot `json:"overlappingSlots"`
	OverlapCount     int               `json:"overlapCount,omitempty"`
	PreferenceMatch  int               `json:"preferenceMatch,omitempty"`
}

// ScoreAvailability counts overlapping upcoming slots. Slots dated before
// today's UTC date are ignored on both sides. Each overlap is worth 20
// points, and shared scheduling preferences add 5 points per match once at
// least one overlap exists.
func ScoreAvailability(user, candidate *profile.Profile, today time.Time) Dimension[AvailabilityDetails] {
	details := AvailabilityDetails{OverlappingSlots: []OverlappingSlot{}}

	date := today.UTC().Format(profile.DateLayout)
	userSlots := slotsFrom(user.Availability, date)
	candidateSlots := slotsFrom(candidate.Availability, date)

	for _, us := range userSlots {
		for _, cs := range candidateSlots {
			if us.Date != cs.Date {
				continue
			}
			userStart, userEnd := minutesOfDay(us.StartTime), minutesOfDay(us.EndTime)
			matchStart, matchEnd := minutesOfDay(cs.StartTime), minutesOfDay(cs.EndTime)
			if userStart < matchEnd && userEnd > matchStart {
				details.OverlappingSlots = append(details.OverlappingSlots, OverlappingSlot{
					Date:           us.Date,
					UserTime:       us.StartTime + "-" + us.EndTime,
					MatchTime:      cs.StartTime + "-" + cs.EndTime,
					OverlapMinutes: min(userEnd, matchEnd) - max(userStart, matchStart),
				})
			}
		}
	}

	overlaps := len(details.OverlappingSlots)
	if overlaps == 0 {
		return Dimension[AvailabilityDetails]{Details: details}
	}

	details.OverlapCount = overlaps
	score := clamp(float64(overlaps * pointsPerOverlap))

	if pm := preferenceMatch(user.AvailabilityPreferences, candidate.AvailabilityPreferences); pm > 0 {
		score = clamp(score + float64(pm*pointsPerPreference))
		details.PreferenceMatch = pm
	}

	return Dimension[AvailabilityDetails]{
		Score: score,
		Reason: plural(overlaps,
			"Has 1 overlapping availability slot with you",
			"Has %d overlapping availability slots with you"),
		Details: details,
	}
}

func slotsFrom(slots []profile.AvailabilitySlot, date string) []profile.AvailabilitySlot {
	out := make([]profile.AvailabilitySlot, 0, len(slots))
	for _, s := range slots {
		if s.Date >= date {
			out = append(out, s)
		}
	}
	return out
}

func preferenceMatch(user, candidate *profile.AvailabilityPreferences) int {
	if user == nil || candidate == nil {
		return 0
	}

	n := 0
	days := make(map[int]struct{}, len(user.PreferredDays))
	for _, d := range user.PreferredDays {
		days[d] = struct{}{}
	}
	for _, d := range candidate.PreferredDays {
		if _, ok := days[d]; ok {
			n++
		}
	}

	if user.PreferredTimeOfDay != "" && user.PreferredTimeOfDay == candidate.PreferredTimeOfDay {
		n += timeOfDayMatch
	}
	return n
}

// minutesOfDay converts HH:MM into minutes since midnight. Unparseable
// parts count as zero.
func minutesOfDay(hhmm string) int {
	if hhmm == "" {
		return 0
	}
	h, m, _ := strings.Cut(hhmm, ":")
	hours, _ := strconv.Atoi(h)
	minutes, _ := strconv.Atoi(m)
	return hours*60 + minutes
}
