// Package claims extracts cause/effect statements from summary text by
// template matching and aggregates them into consensus-scored claims.
// Matching is lexical, not semantic entailment: claims with different
// wording are not merged.
package claims

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/spacebio/biolit/pkg/biolit/report"
)

// Direction classifies a predicate's effect.
type Direction int

const (
	DirectionNeutral Direction = iota
	DirectionIncrease
	DirectionDecrease
)

// String implements fmt.Stringer.
func (d Direction) String() string {
	switch d {
	case DirectionIncrease:
		return "increase"
	case DirectionDecrease:
		return "decrease"
	default:
		return "neutral"
	}
}

// pattern couples a claim template with the direction its predicates
// imply.
type pattern struct {
	re        *regexp.Regexp
	direction Direction
}

var patterns = []pattern{
	{
		re:        regexp.MustCompile(`(?i)([\w][\w\s-]{2,40}?)\s+(increases?|enhances?|elevates?|promotes?|induces?|accelerates?|upregulates?)\s+([\w][\w\s-]{2,40})`),
		direction: DirectionIncrease,
	},
	{
		re:        regexp.MustCompile(`(?i)([\w][\w\s-]{2,40}?)\s+(decreases?|reduces?|suppresses?|inhibits?|attenuates?|impairs?|downregulates?)\s+([\w][\w\s-]{2,40})`),
		direction: DirectionDecrease,
	},
	{
		re:        regexp.MustCompile(`(?i)([\w][\w\s-]{2,40}?)\s+(causes?|leads? to|results? in|produces?)\s+([\w][\w\s-]{2,40})`),
		direction: DirectionNeutral,
	},
	{
		re:        regexp.MustCompile(`(?i)([\w][\w\s-]{2,40}?)\s+(affects?|alters?|modulates?|is associated with|correlates? with)\s+([\w][\w\s-]{2,40})`),
		direction: DirectionNeutral,
	},
}

var negationCues = []string{"not ", "no significant", "did not", "failed to", "does not", "without "}

const minSentenceWords = 5

// Mention is one matched claim sentence in one paper.
type Mention struct {
	PaperID   string    `json:"paper_id"`
	Section   string    `json:"section"`
	Sentence  string    `json:"sentence"`
	Subject   string    `json:"subject"`
	Predicate string    `json:"predicate"`
	Object    string    `json:"object"`
	Direction Direction `json:"-"`
	Negated   bool      `json:"negated"`
}

// Key returns the normalized grouping key: subject and object
// regardless of direction, so opposing findings about the same pair
// meet in one claim.
func (m Mention) Key() string {
	return normalizeTerm(m.Subject) + "__" + normalizeTerm(m.Object)
}

// EffectiveDirection folds negation into the predicate direction.
func (m Mention) EffectiveDirection() Direction {
	if !m.Negated {
		return m.Direction
	}
	switch m.Direction {
	case DirectionIncrease:
		return DirectionDecrease
	case DirectionDecrease:
		return DirectionIncrease
	default:
		return DirectionNeutral
	}
}

// Extract matches claim templates against every sentence of text.
func Extract(text, paperID, section string, split func(string) []string) []Mention {
	var mentions []Mention
	for _, sentence := range split(text) {
		sentence = strings.TrimSpace(sentence)
		if len(strings.Fields(sentence)) < minSentenceWords {
			continue
		}
		negated := hasNegation(sentence)
		for _, p := range patterns {
			for _, match := range p.re.FindAllStringSubmatch(sentence, -1) {
				mentions = append(mentions, Mention{
					PaperID:   paperID,
					Section:   section,
					Sentence:  sentence,
					Subject:   strings.TrimSpace(strings.ToLower(match[1])),
					Predicate: strings.TrimSpace(strings.ToLower(match[2])),
					Object:    strings.TrimSpace(strings.ToLower(match[3])),
					Direction: p.direction,
					Negated:   negated,
				})
			}
		}
	}
	return mentions
}

func hasNegation(sentence string) bool {
	lower := strings.ToLower(sentence)
	for _, cue := range negationCues {
		if strings.Contains(lower, cue) {
			return true
		}
	}
	return false
}

func normalizeTerm(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), "_")
}

// Badge is the confidence tier of a claim.
type Badge string

const (
	BadgeStrong       Badge = "strong_consensus"
	BadgeModerate     Badge = "moderate_consensus"
	BadgeWeak         Badge = "weak_consensus"
	BadgeInsufficient Badge = "insufficient_evidence"
)

// Evidence is one supporting or contradicting citation.
type Evidence struct {
	PaperID  string `json:"paper_id"`
	Section  string `json:"section"`
	Sentence string `json:"sentence"`
}

// Claim is an aggregated finding across papers.
type Claim struct {
	Key            string     `json:"key"`
	Text           string     `json:"text"`
	Direction      string     `json:"direction"`
	ConsensusScore float64    `json:"consensus_score"`
	ScoreDefined   bool       `json:"score_defined"`
	Supporting     int        `json:"supporting_count"`
	Contradicting  int        `json:"contradicting_count"`
	Badge          Badge      `json:"confidence_badge"`
	Evidence       []Evidence `json:"evidence"`
	Contradictions []Evidence `json:"contradicting_evidence,omitempty"`
}

// Result is the stored aggregate artifact.
type Result struct {
	Status        report.Status `json:"status"`
	GeneratedAt   time.Time     `json:"generated_at"`
	TotalMentions int           `json:"total_mentions"`
	Claims        []Claim       `json:"claims"`
}

// Consensus computes 100*s/(s+c). The boolean is false when both
// counts are zero, in which case the score is undefined rather than
// silently 0 or 100.
func Consensus(supporting, contradicting int) (float64, bool) {
	total := supporting + contradicting
	if total == 0 {
		return 0, false
	}
	return 100 * float64(supporting) / float64(total), true
}

// Aggregator configures claim aggregation.
type Aggregator struct {
	MinCorpus   int
	MaxEvidence int
}

// Aggregate reduces mentions into consensus claims. Mentions agreeing
// with the majority direction for a subject/object pair are
// supporting; opposite-direction mentions are contradicting. Claims
// backed by a single paper are discarded.
func (a *Aggregator) Aggregate(mentions []Mention, corpusSize int) Result {
	res := Result{
		Status:        report.StatusComplete,
		GeneratedAt:   time.Now().UTC(),
		TotalMentions: len(mentions),
	}

	// An empty corpus is never analyzable, whatever MinCorpus says.
	if corpusSize == 0 || corpusSize < a.MinCorpus {
		res.Status = report.StatusInsufficientData
		return res
	}

	groups := make(map[string][]Mention)
	for _, m := range mentions {
		groups[m.Key()] = append(groups[m.Key()], m)
	}

	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		group := groups[key]
		claim, ok := a.buildClaim(key, group)
		if !ok {
			continue
		}
		res.Claims = append(res.Claims, claim)
	}

	sort.Slice(res.Claims, func(i, j int) bool {
		if res.Claims[i].Supporting == res.Claims[j].Supporting {
			return res.Claims[i].Key < res.Claims[j].Key
		}
		return res.Claims[i].Supporting > res.Claims[j].Supporting
	})
	return res
}

func (a *Aggregator) buildClaim(key string, group []Mention) (Claim, bool) {
	// Majority direction across distinct papers decides the claim's
	// stated direction.
	dirPapers := map[Direction]map[string]struct{}{}
	for _, m := range group {
		d := m.EffectiveDirection()
		if dirPapers[d] == nil {
			dirPapers[d] = make(map[string]struct{})
		}
		dirPapers[d][m.PaperID] = struct{}{}
	}

	majority := DirectionNeutral
	best := -1
	for _, d := range []Direction{DirectionIncrease, DirectionDecrease, DirectionNeutral} {
		if n := len(dirPapers[d]); n > best {
			majority, best = d, n
		}
	}

	supportingPapers := len(dirPapers[majority])
	contradictingPapers := 0
	for d, papers := range dirPapers {
		if d != majority && d != DirectionNeutral {
			contradictingPapers += len(papers)
		}
	}

	if supportingPapers < 2 {
		return Claim{}, false // single-paper claims carry no consensus
	}

	score, defined := Consensus(supportingPapers, contradictingPapers)

	var evidence, contra []Evidence
	seen := make(map[string]struct{})
	for _, m := range group {
		if _, dup := seen[m.PaperID+"|"+m.Sentence]; dup {
			continue
		}
		seen[m.PaperID+"|"+m.Sentence] = struct{}{}
		ev := Evidence{PaperID: m.PaperID, Section: m.Section, Sentence: m.Sentence}
		if m.EffectiveDirection() == majority {
			if len(evidence) < a.MaxEvidence {
				evidence = append(evidence, ev)
			}
		} else if m.EffectiveDirection() != DirectionNeutral {
			if len(contra) < a.MaxEvidence {
				contra = append(contra, ev)
			}
		}
	}

	first := group[0]
	return Claim{
		Key:            key,
		Text:           fmt.Sprintf("%s %s %s", first.Subject, first.Predicate, first.Object),
		Direction:      majority.String(),
		ConsensusScore: score,
		ScoreDefined:   defined,
		Supporting:     supportingPapers,
		Contradicting:  contradictingPapers,
		Badge:          badge(score, supportingPapers),
		Evidence:       evidence,
		Contradictions: contra,
	}, true
}

func badge(score float64, count int) Badge {
	switch {
	case count >= 5 && score >= 60:
		return BadgeStrong
	case count >= 3 && score >= 40:
		return BadgeModerate
	case count >= 2:
		return BadgeWeak
	default:
		return BadgeInsufficient
	}
}
