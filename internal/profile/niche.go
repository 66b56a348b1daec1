package profile

import (
	"encoding/json"
	"strings"
)

// UncategorizedCategory is the category flat niche-interest lists are
// stored under.
const UncategorizedCategory = "uncategorized"

// NicheShape is the representation a member used for niche interests.
type NicheShape int

const (
	// NicheShapeList is a flat list of interests.
	NicheShapeList NicheShape = iota
	// NicheShapeCategorized is a list of {category, interests} groups.
	NicheShapeCategorized
)

// String returns the wire name of the shape.
func (s NicheShape) String() string {
	if s == NicheShapeCategorized {
		return "categorized"
	}
	return "array"
}

// NicheGroup is a category of niche interests.
type NicheGroup struct {
	Category  string   `json:"category"`
	Interests []string `json:"interests"`
}

// NicheInterests holds niche interests in either of the two accepted JSON
// shapes: a flat list of strings or a list of category groups.
//
// Both shapes are held as groups; a flat list is a single group under
// UncategorizedCategory with the shape remembered so it round-trips.
type NicheInterests struct {
	shape  NicheShape
	groups []NicheGroup
}

// NicheList builds flat-list niche interests.
func NicheList(interests ...string) NicheInterests {
	if len(interests) == 0 {
		return NicheInterests{}
	}
	return NicheInterests{
		shape:  NicheShapeList,
		groups: []NicheGroup{{Category: UncategorizedCategory, Interests: cloneStrings(interests)}},
	}
}

// NicheCategories builds categorized niche interests. Groups without a
// category are dropped.
func NicheCategories(groups ...NicheGroup) NicheInterests {
	n := NicheInterests{shape: NicheShapeCategorized}
	for _, g := range groups {
		if g.Category == "" {
			continue
		}
		n.groups = append(n.groups, NicheGroup{Category: g.Category, Interests: cloneStrings(g.Interests)})
	}
	return n
}

// Shape returns the representation the interests were supplied in.
func (n NicheInterests) Shape() NicheShape {
	return n.shape
}

// IsEmpty reports whether there are no groups. A categorized value with
// empty groups is not empty.
func (n NicheInterests) IsEmpty() bool {
	return len(n.groups) == 0
}

// Groups returns a copy of the category groups.
func (n NicheInterests) Groups() []NicheGroup {
	return n.clone().groups
}

// Flatten returns every interest in group order, original casing preserved.
func (n NicheInterests) Flatten() []string {
	var out []string
	for _, g := range n.groups {
		out = append(out, g.Interests...)
	}
	return out
}

// NichePair is a single lowercased interest with its lowercased category.
// Category is empty for interests from a flat list.
type NichePair struct {
	Category string
	Interest string
}

// Pairs returns every interest with its category, lowercased.
func (n NicheInterests) Pairs() []NichePair {
	var pairs []NichePair
	for _, g := range n.groups {
		category := ""
		if n.shape == NicheShapeCategorized {
			category = strings.ToLower(g.Category)
		}
		for _, interest := range g.Interests {
			pairs = append(pairs, NichePair{Category: category, Interest: strings.ToLower(interest)})
		}
	}
	return pairs
}

// NicheIndex is the canonical lookup form: lowercased category to a set of
// lowercased interests, with categories kept in first-seen order.
type NicheIndex struct {
	Categories []string
	Sets       map[string]map[string]struct{}
}

// Index normalizes the interests for lookups. Groups sharing a category
// are merged.
func (n NicheInterests) Index() NicheIndex {
	idx := NicheIndex{Sets: make(map[string]map[string]struct{})}
	for _, g := range n.groups {
		category := strings.ToLower(g.Category)
		set, ok := idx.Sets[category]
		if !ok {
			set = make(map[string]struct{})
			idx.Sets[category] = set
			idx.Categories = append(idx.Categories, category)
		}
		for _, interest := range g.Interests {
			set[strings.ToLower(interest)] = struct{}{}
		}
	}
	return idx
}

// Merge adds interests without duplicates. With a category the interests go
// into that group (appended when new); without one they join the flat list.
// Merging a category into a flat list converts the flat list into an
// uncategorized group. The receiver is not modified.
func (n NicheInterests) Merge(category string, interests []string) NicheInterests {
	out := n.clone()

	if category == "" {
		if out.IsEmpty() {
			out.shape = NicheShapeList
			out.groups = []NicheGroup{{Category: UncategorizedCategory}}
		}
		if out.shape == NicheShapeList {
			out.groups[0].Interests = appendUnique(out.groups[0].Interests, interests)
			return out
		}
		category = UncategorizedCategory
	}

	out.shape = NicheShapeCategorized
	for i := range out.groups {
		if strings.EqualFold(out.groups[i].Category, category) {
			out.groups[i].Interests = appendUnique(out.groups[i].Interests, interests)
			return out
		}
	}
	out.groups = append(out.groups, NicheGroup{Category: category, Interests: appendUnique(nil, interests)})
	return out
}

func appendUnique(dst, src []string) []string {
	seen := make(map[string]struct{}, len(dst)+len(src))
	for _, s := range dst {
		seen[s] = struct{}{}
	}
	for _, s := range src {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		dst = append(dst, s)
	}
	return dst
}

func (n NicheInterests) clone() NicheInterests {
	c := NicheInterests{shape: n.shape}
	if n.groups != nil {
		c.groups = make([]NicheGroup, len(n.groups))
		for i, g := range n.groups {
			c.groups[i] = NicheGroup{Category: g.Category, Interests: cloneStrings(g.Interests)}
		}
	}
	return c
}

// MarshalJSON encodes the interests in the shape they were supplied in.
func (n NicheInterests) MarshalJSON() ([]byte, error) {
	if n.shape == NicheShapeCategorized {
		groups := n.groups
		if groups == nil {
			groups = []NicheGroup{}
		}
		return json.Marshal(groups)
	}
	flat := n.Flatten()
	if flat == nil {
		flat = []string{}
	}
	return json.Marshal(flat)
}

// UnmarshalJSON accepts either shape. Anything else, including arrays whose
// elements match neither shape, decodes to empty interests rather than
// failing so a single malformed profile cannot break a whole batch.
func (n *NicheInterests) UnmarshalJSON(data []byte) error {
	*n = NicheInterests{}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil || len(raw) == 0 {
		return nil
	}

	var first string
	if json.Unmarshal(raw[0], &first) == nil {
		var flat []string
		for _, r := range raw {
			var s string
			if json.Unmarshal(r, &s) == nil {
				flat = append(flat, s)
			}
		}
		*n = NicheList(flat...)
		return nil
	}

	var groups []NicheGroup
	for _, r := range raw {
		var g NicheGroup
		if json.Unmarshal(r, &g) != nil || g.Category == "" || g.Interests == nil {
			continue
		}
		groups = append(groups, g)
	}
	*n = NicheCategories(groups...)
	return nil
}
