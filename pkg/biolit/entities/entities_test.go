package entities

import (
	"testing"
)

func TestExtractFindsEntities(t *testing.T) {
	text := "Mice flown in microgravity showed bone loss and elevated reactive oxygen species in osteoblast cultures."

	found := Default().Extract(text, 0)
	if len(found) == 0 {
		t.Fatal("no entities found")
	}

	want := map[string]string{
		"mouse":                   "ORGANISM",
		"microgravity":            "STRESSOR",
		"bone loss":               "PROCESS",
		"reactive oxygen species": "CHEMICAL",
		"osteoblast":              "CELL_TYPE",
	}
	got := make(map[string]string)
	for _, e := range found {
		got[e.Value] = e.Type
	}
	for value, typ := range want {
		if got[value] != typ {
			t.Errorf("expected %s/%s, got %q", typ, value, got[value])
		}
	}
}

func TestExtractSortedAndDeduplicated(t *testing.T) {
	// "mice" and "mouse" both trigger the mouse entity once.
	text := "mouse mice murine"
	found := Default().Extract(text, 0)
	count := 0
	for _, e := range found {
		if e.Value == "mouse" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("mouse entity appears %d times, want 1", count)
	}

	text = "osteoblast in bone of mice under radiation"
	found = Default().Extract(text, 0)
	for i := 1; i < len(found); i++ {
		a, b := found[i-1], found[i]
		if a.Type > b.Type || (a.Type == b.Type && a.Value > b.Value) {
			t.Fatalf("output not sorted: %+v before %+v", a, b)
		}
	}
}

func TestExtractCap(t *testing.T) {
	text := "mice rats human bone muscle calcium microgravity radiation osteoblast osteoclast"
	found := Default().Extract(text, 3)
	if len(found) != 3 {
		t.Errorf("cap not applied: %d entities", len(found))
	}
}

func TestExtractDescriptions(t *testing.T) {
	found := Default().Extract("astronaut stress response", 0)
	for _, e := range found {
		if e.Description == "" {
			t.Errorf("entity %s/%s missing description", e.Type, e.Value)
		}
	}
}

func TestCustomTaxonomy(t *testing.T) {
	tax := NewTaxonomy()
	tax.Add("ORGANISM", "zebrafish", []string{"zebrafish", "danio"})

	found := tax.Extract("Danio rerio embryos were imaged.", 0)
	if len(found) != 1 || found[0].Value != "zebrafish" {
		t.Fatalf("unexpected result: %+v", found)
	}
}
