package profile

// MergeFrequentLocations appends the valid entries of added that are not
// already present at the same coordinates, then keeps only the most recent
// MaxFrequentLocations. Entries without coordinates or a name are skipped.
func MergeFrequentLocations(existing, added []FrequentLocation) []FrequentLocation {
	out := make([]FrequentLocation, 0, len(existing)+len(added))
	out = append(out, existing...)

	for _, loc := range added {
		if loc.Lat == 0 || loc.Lng == 0 || loc.Name == "" {
			continue
		}
		if containsCoordinates(out, loc) {
			continue
		}
		out = append(out, loc)
	}

	if len(out) > MaxFrequentLocations {
		out = out[len(out)-MaxFrequentLocations:]
	}
	return out
}

func containsCoordinates(list []FrequentLocation, loc FrequentLocation) bool {
	for _, l := range list {
		if l.Lat == loc.Lat && l.Lng == loc.Lng {
			return true
		}
	}
	return false
}
