package match_test

import (
	"time"

	"github.com/datamatch/datamatch/internal/profile"
)

var today = time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)

var (
	sanFrancisco = profile.Location{Lat: 37.7749, Lng: -122.4194, Address: "San Francisco, CA"}
	oakland      = profile.Location{Lat: 37.8044, Lng: -122.2712, Address: "Oakland, CA"}
	losAngeles   = profile.Location{Lat: 34.0522, Lng: -118.2437, City: "Los Angeles"}
)

func at(loc profile.Location) *profile.Location {
	return &loc
}

func slot(date, start, end string) profile.AvailabilitySlot {
	return profile.AvailabilitySlot{Date: date, StartTime: start, EndTime: end}
}

func worksAt(companies ...string) *profile.Professional {
	p := &profile.Professional{}
	for _, c := range companies {
		p.Experience = append(p.Experience, profile.Experience{Title: "Engineer", Company: c})
	}
	return p
}

func fixedClock() time.Time {
	return today
}
