package models

import "testing"

func TestNewScoreResult(t *testing.T) {
	tests := []struct {
		score    int
		eligible bool
		message  string
	}{
		{10, true, "excellent credit rating"},
		{9, true, "excellent credit rating"},
		{8, true, "good credit rating"},
		{7, true, "good credit rating"},
		{6, true, "acceptable credit rating"},
		{5, false, "regular credit rating - not eligible for loans"},
		{4, false, "regular credit rating - not eligible for loans"},
		{3, false, "poor credit rating - not eligible for loans"},
		{1, false, "poor credit rating - not eligible for loans"},
	}
	for _, tt := range tests {
		got := NewScoreResult(tt.score)
		if got.Eligible != tt.eligible || got.Message != tt.message || got.Score != tt.score {
			t.Errorf("NewScoreResult(%d) = %+v", tt.score, got)
		}
	}
}
