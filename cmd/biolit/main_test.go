package main

import "testing"

func TestNeedsCatalog(t *testing.T) {
	tests := []struct {
		mode string
		want bool
	}{
		{"download", true},
		{"abstractive", true},
		{"export", true},
		{"full", true},
		{"serve", false},
		{"extract", false},
		{"topics", false},
		{"insights", false},
	}
	for _, tt := range tests {
		if got := needsCatalog(tt.mode); got != tt.want {
			t.Errorf("needsCatalog(%q) = %v, want %v", tt.mode, got, tt.want)
		}
	}
}

func TestNeedsModel(t *testing.T) {
	for _, mode := range []string{"abstractive", "embed", "full", "serve"} {
		if !needsModel(mode) {
			t.Errorf("needsModel(%q) = false", mode)
		}
	}
	for _, mode := range []string{"download", "extract", "topics", "export"} {
		if needsModel(mode) {
			t.Errorf("needsModel(%q) = true", mode)
		}
	}
}

func TestValidMode(t *testing.T) {
	for _, mode := range modes {
		if !validMode(mode) {
			t.Errorf("validMode(%q) = false", mode)
		}
	}
	if validMode("rebuild") {
		t.Error("validMode accepted unknown mode")
	}
}
