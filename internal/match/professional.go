package match

import (
	"fmt"
	"strings"

	"github.com/datamatch/datamatch/internal/profile"
)

// Professional bonuses.
const (
	maxSkillPoints = 50
	companyBonus   = 30
	schoolBonus    = 20
)

// ProfessionalDetails explains a professional score.
type ProfessionalDetails struct {
	SharedSkills    []string `json:"sharedSkills"`
	SharedCompanies []string `json:"sharedCompanies"`
	SharedSchools   []string `json:"sharedSchools"`
}

// ScoreProfessional compares skills, employers and schools.
//
// Skill overlap is worth up to 50 points. Any shared employer adds 30 and
// any shared school adds 20, once each regardless of how many are shared.
func ScoreProfessional(user, candidate *profile.Profile) Dimension[ProfessionalDetails] {
	details := ProfessionalDetails{
		SharedSkills:    []string{},
		SharedCompanies: []string{},
		SharedSchools:   []string{},
	}
	if user.Professional == nil || candidate.Professional == nil {
		return Dimension[ProfessionalDetails]{Details: details}
	}
	up, cp := user.Professional, candidate.Professional

	var score float64
	var reason string

	shared, ratio := overlap(up.Skills, cp.Skills)
	if len(shared) > 0 {
		details.SharedSkills = shared
		score += ratio * maxSkillPoints
		if len(shared) > 1 {
			reason = fmt.Sprintf("Shares %d professional skills with you", len(shared))
		}
	}

	companies := sharedNames(experienceCompanies(up.Experience), experienceCompanies(cp.Experience))
	if len(companies) > 0 {
		details.SharedCompanies = companies
		score += companyBonus
		if reason == "" {
			reason = "Worked at the same company: " + companies[0]
		}
	}

	schools := sharedNames(educationSchools(up.Education), educationSchools(cp.Education))
	if len(schools) > 0 {
		details.SharedSchools = schools
		score += schoolBonus
		if reason == "" {
			reason = "Attended the same school: " + schools[0]
		}
	}

	score = clamp(score)
	if score > 0 && reason == "" {
		switch {
		case len(details.SharedSkills) > 0:
			reason = "Has professional skills in " + joinFirst(details.SharedSkills, 3, false)
		case len(details.SharedCompanies) > 0:
			reason = "Professional connection through " + details.SharedCompanies[0]
		case len(details.SharedSchools) > 0:
			reason = "Academic connection through " + details.SharedSchools[0]
		default:
			reason = "Has compatible professional background"
		}
	}

	return Dimension[ProfessionalDetails]{Score: score, Reason: reason, Details: details}
}

func experienceCompanies(exp []profile.Experience) []string {
	out := make([]string, 0, len(exp))
	for _, e := range exp {
		if e.Company != "" {
			out = append(out, e.Company)
		}
	}
	return out
}

func educationSchools(edu []profile.Education) []string {
	out := make([]string, 0, len(edu))
	for _, e := range edu {
		if e.Institution != "" {
			out = append(out, e.Institution)
		}
	}
	return out
}

// sharedNames returns the candidate's spelling of every name the user also
// lists, compared case-insensitively, in user order and without duplicates.
func sharedNames(user, candidate []string) []string {
	byLower := make(map[string]string, len(candidate))
	for _, c := range candidate {
		lc := strings.ToLower(c)
		if _, ok := byLower[lc]; !ok {
			byLower[lc] = c
		}
	}

	var out []string
	seen := make(map[string]struct{})
	for _, u := range user {
		lu := strings.ToLower(u)
		name, ok := byLower[lu]
		if !ok {
			continue
		}
		if _, dup := seen[lu]; dup {
			continue
		}
		seen[lu] = struct{}{}
		out = append(out, name)
	}
	return out
}
