// Package mission defines the mission-area taxonomy shared by the gap
// detector and the insight generator.
package mission

import "strings"

// Category is a mission concern area.
type Category string

const (
	HealthRisk      Category = "health_risk"
	LifeSupport     Category = "life_support"
	CrewPerformance Category = "crew_performance"
	Equipment       Category = "equipment"
	Countermeasure  Category = "countermeasure"
)

// Title renders the category for display ("health_risk" -> "Health Risk").
func (c Category) Title() string {
	parts := strings.Split(string(c), "_")
	for i, p := range parts {
		if p != "" {
			parts[i] = strings.ToUpper(p[:1]) + p[1:]
		}
	}
	return strings.Join(parts, " ")
}

// Categories lists all areas in a fixed order so iteration is
// deterministic.
var Categories = []Category{HealthRisk, LifeSupport, CrewPerformance, Equipment, Countermeasure}

// Keywords maps each category to the terms that signal it.
var Keywords = map[Category][]string{
	HealthRisk:      {"radiation", "bone", "muscle", "cardiovascular", "immune", "dna damage", "cancer", "vision"},
	LifeSupport:     {"oxygen", "water", "food", "plant", "algae", "recycling", "waste"},
	CrewPerformance: {"cognition", "psychology", "stress", "sleep", "teamwork", "isolation"},
	Equipment:       {"habitat", "spacesuit", "shielding", "life support system", "regenerative"},
	Countermeasure:  {"exercise", "nutrition", "medication", "artificial gravity", "protection"},
}

// Categorize returns the first category whose keywords appear in text,
// or false when none match.
func Categorize(text string) (Category, bool) {
	lower := strings.ToLower(text)
	for _, cat := range Categories {
		for _, kw := range Keywords[cat] {
			if strings.Contains(lower, kw) {
				return cat, true
			}
		}
	}
	return "", false
}

// Relevance scores how many taxonomy terms the given keywords touch,
// normalized to [0,1]. Matching is substring in either direction so
// "radiation" matches "irradiation".
func Relevance(keywords []string) float64 {
	lowered := make([]string, len(keywords))
	for i, k := range keywords {
		lowered[i] = strings.ToLower(k)
	}

	var matched, total int
	for _, cat := range Categories {
		for _, mw := range Keywords[cat] {
			total++
			for _, kw := range lowered {
				if strings.Contains(kw, mw) || strings.Contains(mw, kw) {
					matched++
					break
				}
			}
		}
	}
	if total == 0 {
		return 0
	}
	return float64(matched) / float64(total)
}
