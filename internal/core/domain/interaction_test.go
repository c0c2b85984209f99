package domain

import "testing"

func TestNewInteractionStats(t *testing.T) {
	empty := NewInteractionStats(0, 0, 0)
	if empty.TotalQuestions != 0 || empty.AverageResponseTime != 0 {
		t.Errorf("unexpected empty stats %+v", empty)
	}

	stats := NewInteractionStats(3, 1, 1.0+2.0+0.5)
	if stats.TotalQuestions != 3 {
		t.Errorf("expected 3 questions, got %d", stats.TotalQuestions)
	}
	if stats.QuestionsWithImages != 1 {
		t.Errorf("expected 1 image question, got %d", stats.QuestionsWithImages)
	}
	if stats.AverageResponseTime != 1.17 {
		t.Errorf("expected 1.17, got %v", stats.AverageResponseTime)
	}
}

func TestRoundSeconds(t *testing.T) {
	tests := map[float64]float64{
		0.004:  0,
		1.2345: 1.23,
		2:      2,
	}
	for in, want := range tests {
		if got := RoundSeconds(in); got != want {
			t.Errorf("RoundSeconds(%v) = %v, want %v", in, got, want)
		}
	}
}
