package prediction

import "testing"

func TestArgMax(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   int
	}{
		{"empty", nil, 0},
		{"single", []float64{3}, 0},
		{"max last", []float64{3, 7}, 1},
		{"max first", []float64{10, 0}, 0},
		{"tie resolves low", []float64{5, 5}, 0},
		{"tie in middle", []float64{1, 4, 4, 2}, 1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := ArgMax(tc.values); got != tc.want {
				t.Errorf("ArgMax(%v) = %d, want %d", tc.values, got, tc.want)
			}
		})
	}
}

func TestFromScores(t *testing.T) {
	p := FromScores([]float64{3, 7})
	if p.Label() != 1 {
		t.Errorf("Label() = %d, want 1", p.Label())
	}
	if _, ok := p.Decision(); ok {
		t.Error("expected no decision score")
	}
}

func TestNewWithDecision(t *testing.T) {
	p := NewWithDecision(1, []float64{0.3, 0.7}, 0.8)
	d, ok := p.Decision()
	if !ok || d != 0.8 {
		t.Errorf("Decision() = %v, %v", d, ok)
	}
	if len(p.Scores()) != 2 {
		t.Errorf("Scores() len = %d", len(p.Scores()))
	}
}

func TestNormalize(t *testing.T) {
	counts := []float64{3, 7}
	got := Normalize(counts)
	if got[0] != 0.3 || got[1] != 0.7 {
		t.Errorf("Normalize(%v) = %v", counts, got)
	}
	if counts[0] != 3 {
		t.Error("Normalize modified its input")
	}
	zero := Normalize([]float64{0, 0})
	if zero[0] != 0 || zero[1] != 0 {
		t.Errorf("Normalize(zeros) = %v", zero)
	}
}
