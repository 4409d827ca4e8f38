// Package insights turns consensus claims into mission-facing
// findings with a risk level and an actionable recommendation.
package insights

import (
	"sort"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/spacebio/biolit/pkg/biolit/claims"
	"github.com/spacebio/biolit/pkg/biolit/mission"
	"github.com/spacebio/biolit/pkg/biolit/report"
)

const maxInsights = 20

// RiskLevel grades operational urgency.
type RiskLevel string

const (
	RiskHigh   RiskLevel = "high"
	RiskMedium RiskLevel = "medium"
	RiskLow    RiskLevel = "low"
)

var riskRank = map[RiskLevel]int{RiskHigh: 3, RiskMedium: 2, RiskLow: 1}

var highRiskTerms = []string{"damage", "loss", "degradation", "failure", "critical", "severe"}
var mediumRiskTerms = []string{"reduce", "decrease", "affect", "alter", "change"}

// Insight is one mission-relevant finding derived from a claim.
type Insight struct {
	Title          string       `json:"title"`
	Category       string       `json:"category"`
	Risk           RiskLevel    `json:"risk_level"`
	Confidence     float64      `json:"confidence"`
	Badge          claims.Badge `json:"confidence_badge"`
	Finding        string       `json:"finding"`
	Recommendation string       `json:"recommendation"`
	SupportCount   int          `json:"supporting_papers"`
	TopPapers      []string     `json:"top_papers"`
}

// Result is the stored aggregate artifact.
type Result struct {
	Status      report.Status `json:"status"`
	GeneratedAt time.Time     `json:"generated_at"`
	Insights    []Insight     `json:"insights"`
}

// Generate maps claims onto mission areas. Claims outside every
// mission category are dropped. An insufficient-data claim result
// propagates as-is.
func Generate(cr claims.Result) Result {
	res := Result{
		Status:      report.StatusComplete,
		GeneratedAt: time.Now().UTC(),
	}
	if cr.Status != report.StatusComplete {
		res.Status = cr.Status
		return res
	}

	for _, claim := range cr.Claims {
		cat, ok := mission.Categorize(claim.Text)
		if !ok {
			continue
		}

		finding := ""
		var top []string
		for i, ev := range claim.Evidence {
			if i == 0 {
				finding = ev.Sentence
			}
			if i < 3 {
				top = append(top, ev.PaperID)
			}
		}

		res.Insights = append(res.Insights, Insight{
			Title:          title(claim.Text),
			Category:       cat.Title(),
			Risk:           assessRisk(claim.Text, claim.ConsensusScore),
			Confidence:     claim.ConsensusScore,
			Badge:          claim.Badge,
			Finding:        finding,
			Recommendation: recommend(claim.Text, cat),
			SupportCount:   claim.Supporting,
			TopPapers:      top,
		})
	}

	sort.Slice(res.Insights, func(i, j int) bool {
		a, b := res.Insights[i], res.Insights[j]
		if riskRank[a.Risk] != riskRank[b.Risk] {
			return riskRank[a.Risk] > riskRank[b.Risk]
		}
		if a.Confidence != b.Confidence {
			return a.Confidence > b.Confidence
		}
		return a.Title < b.Title
	})
	if len(res.Insights) > maxInsights {
		res.Insights = res.Insights[:maxInsights]
	}
	return res
}

func assessRisk(text string, confidence float64) RiskLevel {
	lower := strings.ToLower(text)
	for _, kw := range highRiskTerms {
		if strings.Contains(lower, kw) {
			if confidence > 50 {
				return RiskHigh
			}
			return RiskMedium
		}
	}
	for _, kw := range mediumRiskTerms {
		if strings.Contains(lower, kw) {
			if confidence > 50 {
				return RiskMedium
			}
			return RiskLow
		}
	}
	return RiskLow
}

func recommend(text string, cat mission.Category) string {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "radiation"):
		return "Consider enhanced radiation shielding or scheduling EVAs during solar minimum periods"
	case strings.Contains(lower, "bone"), strings.Contains(lower, "muscle"):
		return "Implement resistance exercise protocols and nutritional countermeasures"
	case strings.Contains(lower, "plant"):
		return "Optimize growth chamber parameters and investigate hardy cultivars"
	case strings.Contains(lower, "stress"), strings.Contains(lower, "psychology"):
		return "Enhance crew selection protocols and provide real-time psychological support"
	default:
		return "Investigate " + strings.ToLower(cat.Title()) + " implications and develop appropriate countermeasures"
	}
}

func title(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}
