// Package entities recognizes bioscience entities in extracted text by
// taxonomy keyword matching.
package entities

import (
	"sort"
	"strings"
	"time"
)

// Entity is one recognized mention.
type Entity struct {
	Type        string `json:"type"`
	Value       string `json:"value"`
	Description string `json:"description"`
}

// Result is the stored artifact for one paper.
type Result struct {
	ID          string    `json:"id"`
	Total       int       `json:"total_entities"`
	Entities    []Entity  `json:"entities"`
	ProcessedAt time.Time `json:"processed_at"`
}

// typeDescriptions gives human-readable labels for entity types.
var typeDescriptions = map[string]string{
	"ORGANISM":  "Living organism or model species",
	"TISSUE":    "Biological tissue or anatomical structure",
	"CHEMICAL":  "Chemical compound or substance",
	"PROCESS":   "Biological process or mechanism",
	"STRESSOR":  "Spaceflight environmental stressor",
	"SYSTEM":    "Physiological system",
	"CELL_TYPE": "Type of cell",
}

// Taxonomy maps entity types to named entities with their trigger
// keywords (lowercase).
type Taxonomy struct {
	entities map[string]map[string][]string // type → name → keywords
}

// NewTaxonomy creates an empty taxonomy.
func NewTaxonomy() *Taxonomy {
	return &Taxonomy{entities: make(map[string]map[string][]string)}
}

// Add registers an entity under a type with its trigger keywords.
func (t *Taxonomy) Add(entityType, name string, keywords []string) {
	if t.entities[entityType] == nil {
		t.entities[entityType] = make(map[string][]string)
	}
	normalized := make([]string, len(keywords))
	for i, kw := range keywords {
		normalized[i] = strings.ToLower(kw)
	}
	t.entities[entityType][name] = normalized
}

// Default returns the built-in bioscience taxonomy.
func Default() *Taxonomy {
	t := NewTaxonomy()

	t.Add("ORGANISM", "mouse", []string{"mouse", "mice", "murine"})
	t.Add("ORGANISM", "rat", []string{"rat", "rats"})
	t.Add("ORGANISM", "arabidopsis", []string{"arabidopsis", "thaliana"})
	t.Add("ORGANISM", "drosophila", []string{"drosophila", "fruit fly"})
	t.Add("ORGANISM", "c. elegans", []string{"c. elegans", "caenorhabditis"})
	t.Add("ORGANISM", "human", []string{"human", "astronaut", "crew member"})
	t.Add("ORGANISM", "e. coli", []string{"e. coli", "escherichia"})

	t.Add("TISSUE", "bone", []string{"bone", "skeletal", "femur", "trabecular"})
	t.Add("TISSUE", "muscle", []string{"muscle", "soleus", "gastrocnemius", "myofiber"})
	t.Add("TISSUE", "retina", []string{"retina", "retinal", "optic"})
	t.Add("TISSUE", "heart", []string{"cardiac", "myocardium", "heart"})
	t.Add("TISSUE", "root", []string{"root tip", "root growth", "rhizosphere"})

	t.Add("CHEMICAL", "calcium", []string{"calcium", "ca2+"})
	t.Add("CHEMICAL", "cortisol", []string{"cortisol"})
	t.Add("CHEMICAL", "reactive oxygen species", []string{"reactive oxygen", "oxidative", "ros"})
	t.Add("CHEMICAL", "auxin", []string{"auxin"})

	t.Add("PROCESS", "bone loss", []string{"bone loss", "bone density loss", "osteopenia", "resorption"})
	t.Add("PROCESS", "muscle atrophy", []string{"muscle atrophy", "muscle loss", "sarcopenia"})
	t.Add("PROCESS", "gene expression", []string{"gene expression", "transcription", "upregulat", "downregulat"})
	t.Add("PROCESS", "dna damage", []string{"dna damage", "double-strand break", "chromosomal aberration"})
	t.Add("PROCESS", "apoptosis", []string{"apoptosis", "cell death"})
	t.Add("PROCESS", "gravitropism", []string{"gravitropism", "gravitropic"})

	t.Add("STRESSOR", "microgravity", []string{"microgravity", "weightlessness", "spaceflight", "hindlimb unloading"})
	t.Add("STRESSOR", "radiation", []string{"radiation", "cosmic ray", "ionizing", "hze"})
	t.Add("STRESSOR", "isolation", []string{"isolation", "confinement"})
	t.Add("STRESSOR", "hypoxia", []string{"hypoxia", "hypoxic"})

	t.Add("SYSTEM", "immune system", []string{"immune", "lymphocyte", "t-cell", "cytokine"})
	t.Add("SYSTEM", "cardiovascular system", []string{"cardiovascular", "vascular", "blood pressure"})
	t.Add("SYSTEM", "nervous system", []string{"neural", "neuronal", "cognition", "vestibular"})
	t.Add("SYSTEM", "musculoskeletal system", []string{"musculoskeletal"})

	t.Add("CELL_TYPE", "osteoblast", []string{"osteoblast"})
	t.Add("CELL_TYPE", "osteoclast", []string{"osteoclast"})
	t.Add("CELL_TYPE", "stem cell", []string{"stem cell", "progenitor"})

	return t
}

// Extract finds entities mentioned in text, deduplicated and capped at
// max. Results are sorted by type then value for stable output.
func (t *Taxonomy) Extract(text string, max int) []Entity {
	lower := strings.ToLower(text)

	var found []Entity
	for entityType, named := range t.entities {
		for name, keywords := range named {
			for _, kw := range keywords {
				if strings.Contains(lower, kw) {
					found = append(found, Entity{
						Type:        entityType,
						Value:       name,
						Description: typeDescriptions[entityType],
					})
					break
				}
			}
		}
	}

	sort.Slice(found, func(i, j int) bool {
		if found[i].Type == found[j].Type {
			return found[i].Value < found[j].Value
		}
		return found[i].Type < found[j].Type
	})

	if max > 0 && len(found) > max {
		found = found[:max]
	}
	return found
}
