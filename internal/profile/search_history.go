package profile

import (
	"sort"
	"strings"
	"time"
)

// Search history bounds.
const (
	MaxSearchHistory = 50

	// DefaultSearchCategory is recorded when a search names no category.
	DefaultSearchCategory = "general"

	maxTopCategories = 5
	maxCommonTerms   = 10
	minTermLength    = 3
)

// SearchRecord is one free-text search the member ran.
type SearchRecord struct {
	Query     string    `json:"searchQuery"`
	Category  string    `json:"category"`
	Timestamp time.Time `json:"timestamp"`
}

// CategoryCount is how often a category was searched.
type CategoryCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// TermCount is how often a word appeared across searches.
type TermCount struct {
	Term  string `json:"term"`
	Count int    `json:"count"`
}

// RecentActivity counts searches since the start of the current UTC day,
// week (from Sunday) and month.
type RecentActivity struct {
	Today     int `json:"today"`
	ThisWeek  int `json:"thisWeek"`
	ThisMonth int `json:"thisMonth"`
}

// SearchAnalytics summarises a search history.
type SearchAnalytics struct {
	TopCategories  []CategoryCount `json:"topCategories"`
	CommonTerms    []TermCount     `json:"commonTerms"`
	RecentActivity RecentActivity  `json:"recentActivity"`
}

// AppendSearch adds rec to history, keeping only the newest
// MaxSearchHistory entries.
func AppendSearch(history []SearchRecord, rec SearchRecord) []SearchRecord {
	out := append(append([]SearchRecord(nil), history...), rec)
	if len(out) > MaxSearchHistory {
		out = out[len(out)-MaxSearchHistory:]
	}
	return out
}

// AnalyzeSearches builds analytics for history as of now. Categories and
// terms with equal counts keep the order they were first searched in.
func AnalyzeSearches(history []SearchRecord, now time.Time) SearchAnalytics {
	out := SearchAnalytics{
		TopCategories: []CategoryCount{},
		CommonTerms:   []TermCount{},
	}

	var (
		categories []CategoryCount
		catIndex   = map[string]int{}
		terms      []TermCount
		termIndex  = map[string]int{}
	)
	for _, s := range history {
		category := s.Category
		if category == "" {
			category = DefaultSearchCategory
		}
		if i, ok := catIndex[category]; ok {
			categories[i].Count++
		} else {
			catIndex[category] = len(categories)
			categories = append(categories, CategoryCount{Name: category, Count: 1})
		}

		for _, word := range strings.Fields(strings.ToLower(s.Query)) {
			if len([]rune(word)) < minTermLength {
				continue
			}
			if i, ok := termIndex[word]; ok {
				terms[i].Count++
			} else {
				termIndex[word] = len(terms)
				terms = append(terms, TermCount{Term: word, Count: 1})
			}
		}
	}

	sort.SliceStable(categories, func(i, j int) bool { return categories[i].Count > categories[j].Count })
	sort.SliceStable(terms, func(i, j int) bool { return terms[i].Count > terms[j].Count })
	out.TopCategories = append(out.TopCategories, categories[:min(len(categories), maxTopCategories)]...)
	out.CommonTerms = append(out.CommonTerms, terms[:min(len(terms), maxCommonTerms)]...)

	now = now.UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	weekStart := today.AddDate(0, 0, -int(today.Weekday()))
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	for _, s := range history {
		if !s.Timestamp.Before(today) {
			out.RecentActivity.Today++
		}
		if !s.Timestamp.Before(weekStart) {
			out.RecentActivity.ThisWeek++
		}
		if !s.Timestamp.Before(monthStart) {
			out.RecentActivity.ThisMonth++
		}
	}
	return out
}
