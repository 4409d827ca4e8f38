// Package gaps flags under-studied research areas by combining topic
// mission relevance with corpus coverage.
package gaps

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/spacebio/biolit/pkg/biolit/mission"
	"github.com/spacebio/biolit/pkg/biolit/report"
	"github.com/spacebio/biolit/pkg/biolit/topics"
)

const gapThreshold = 0.3

// Gap is one detected knowledge gap, anchored to a topic.
type Gap struct {
	TopicID          int      `json:"topic_id"`
	Keywords         []string `json:"keywords"`
	MissionRelevance float64  `json:"mission_relevance"`
	PaperDensity     int      `json:"paper_density"`
	Score            float64  `json:"gap_score"`
	Experiments      []string `json:"recommended_experiments"`
}

// Result is the stored aggregate artifact.
type Result struct {
	Status      report.Status `json:"status"`
	GeneratedAt time.Time     `json:"generated_at"`
	Gaps        []Gap         `json:"gaps"`
}

// Detector configures gap detection.
type Detector struct {
	MaxGaps int
}

// Detect scores every topic and keeps those whose mission relevance
// outweighs their paper coverage. An insufficient-data topic result
// propagates as-is.
func (d Detector) Detect(tr topics.Result) Result {
	res := Result{
		Status:      report.StatusComplete,
		GeneratedAt: time.Now().UTC(),
	}
	if tr.Status != report.StatusComplete {
		res.Status = tr.Status
		return res
	}

	for _, topic := range tr.Topics {
		relevance := mission.Relevance(topic.Keywords)
		density := paperDensity(len(topic.Members))
		score := (relevance*100 - float64(density)) / 100
		if score <= gapThreshold {
			continue
		}
		res.Gaps = append(res.Gaps, Gap{
			TopicID:          topic.ID,
			Keywords:         capKeywords(topic.Keywords, 10),
			MissionRelevance: round2(relevance),
			PaperDensity:     density,
			Score:            round2(score),
			Experiments:      suggestExperiments(topic.Keywords),
		})
	}

	sort.Slice(res.Gaps, func(i, j int) bool {
		if res.Gaps[i].Score == res.Gaps[j].Score {
			return res.Gaps[i].TopicID < res.Gaps[j].TopicID
		}
		return res.Gaps[i].Score > res.Gaps[j].Score
	})
	if d.MaxGaps > 0 && len(res.Gaps) > d.MaxGaps {
		res.Gaps = res.Gaps[:d.MaxGaps]
	}
	return res
}

// paperDensity maps member count onto a 0..100 coverage scale. Ten or
// more papers counts as fully covered.
func paperDensity(members int) int {
	if members > 10 {
		return 100
	}
	return members * 10
}

func suggestExperiments(keywords []string) []string {
	joined := strings.ToLower(strings.Join(keywords, " "))

	var out []string
	if strings.Contains(joined, "bone") || strings.Contains(joined, "muscle") {
		out = append(out, "Investigate countermeasures for musculoskeletal degradation")
	}
	if strings.Contains(joined, "radiation") {
		out = append(out, "Test novel radiation shielding materials")
	}
	if strings.Contains(joined, "plant") || strings.Contains(joined, "growth") {
		out = append(out, "Optimize plant growth protocols for space agriculture")
	}
	if strings.Contains(joined, "stress") || strings.Contains(joined, "psychology") {
		out = append(out, "Develop crew psychological support interventions")
	}
	if len(out) == 0 {
		subject := "topic"
		if len(keywords) > 0 {
			subject = keywords[0]
		}
		out = append(out, "Investigate "+subject+" under microgravity conditions")
	}
	if len(out) > 3 {
		out = out[:3]
	}
	return out
}

func capKeywords(kw []string, n int) []string {
	if len(kw) <= n {
		return kw
	}
	return kw[:n]
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
