package mission

import "testing"

func TestCategorize(t *testing.T) {
	tests := []struct {
		text string
		want Category
		ok   bool
	}{
		{"radiation exposure damages DNA", HealthRisk, true},
		{"plant growth for food production", LifeSupport, true},
		{"crew sleep quality declined", CrewPerformance, true},
		{"habitat shielding design", Equipment, true},
		{"exercise protocols as protection", Countermeasure, true},
		{"unrelated geology finding", "", false},
	}
	for _, tt := range tests {
		got, ok := Categorize(tt.text)
		if got != tt.want || ok != tt.ok {
			t.Errorf("Categorize(%q) = %s,%v want %s,%v", tt.text, got, ok, tt.want, tt.ok)
		}
	}
}

func TestCategorizeFirstMatchWins(t *testing.T) {
	// "bone" (health_risk) appears alongside "exercise" (countermeasure);
	// category order makes health_risk win.
	got, ok := Categorize("exercise prevents bone loss")
	if !ok || got != HealthRisk {
		t.Errorf("got %s,%v", got, ok)
	}
}

func TestTitle(t *testing.T) {
	if got := HealthRisk.Title(); got != "Health Risk" {
		t.Errorf("Title = %q", got)
	}
	if got := Countermeasure.Title(); got != "Countermeasure" {
		t.Errorf("Title = %q", got)
	}
}

func TestRelevance(t *testing.T) {
	if r := Relevance(nil); r != 0 {
		t.Errorf("Relevance(nil) = %f", r)
	}

	low := Relevance([]string{"geology", "sediment"})
	high := Relevance([]string{"radiation", "bone", "muscle", "exercise", "sleep"})
	if high <= low {
		t.Errorf("mission terms should score higher: high=%f low=%f", high, low)
	}
	if high > 1 || low < 0 {
		t.Errorf("relevance out of range: high=%f low=%f", high, low)
	}
}

func TestRelevanceSubstringMatch(t *testing.T) {
	// "irradiation" contains "radiation".
	if r := Relevance([]string{"irradiation"}); r == 0 {
		t.Error("substring match failed for irradiation")
	}
}
