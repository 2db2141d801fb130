package grading

import "testing"

func TestApplyPenalty(t *testing.T) {
	tests := []struct {
		name   string
		group  float64
		avg    float64
		factor float64
		want   float64
	}{
		// avg=8, group=6: gap 2 > 0.8 band, ratio 0.25, adjustment 0.125.
		{"worked example", 6.0, 8.0, 0.5, 5.25},
		{"no baseline", 6.0, 0, 0.5, 6.0},
		{"negative baseline", 6.0, -1, 0.5, 6.0},
		{"group equals average", 8.0, 8.0, 0.5, 8.0},
		{"group above average", 9.0, 8.0, 0.5, 9.0},
		{"gap inside band", 7.3, 8.0, 0.5, 7.3},
		{"gap exactly at band", 7.2, 8.0, 0.5, 7.2},
		{"factor zero disables", 2.0, 10.0, 0, 2.0},
		{"zero group score", 0, 10.0, 1.0, 0},
		{"full factor large gap", 1.0, 10.0, 1.0, 0.1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ApplyPenalty(tc.group, tc.avg, tc.factor)
			if !almost(got, tc.want) {
				t.Fatalf("ApplyPenalty(%v, %v, %v) = %v, want %v",
					tc.group, tc.avg, tc.factor, got, tc.want)
			}
		})
	}
}

func TestApplyPenalty_Bounds(t *testing.T) {
	// Never negative, never above the input group score.
	for _, g := range []float64{0, 0.5, 3, 7.9, 8, 12} {
		for _, avg := range []float64{-2, 0, 4, 8, 10} {
			for _, f := range []float64{0, 0.25, 0.5, 1} {
				got := ApplyPenalty(g, avg, f)
				if got < 0 {
					t.Fatalf("negative result %v for g=%v avg=%v f=%v", got, g, avg, f)
				}
				if got > g {
					t.Fatalf("result %v exceeds group score %v (avg=%v f=%v)", got, g, avg, f)
				}
			}
		}
	}
}

func TestApplyPenalty_MonotonicInGroupScore(t *testing.T) {
	const avg, factor = 8.0, 0.5
	prev := -1.0
	for g := 0.0; g <= 10.0; g += 0.05 {
		got := ApplyPenalty(g, avg, factor)
		if got < prev {
			t.Fatalf("not monotonic at g=%v: %v < %v", g, got, prev)
		}
		prev = got
	}
}

func TestPenaltyFor_Breakdown(t *testing.T) {
	p := PenaltyFor(6.0, 8.0, 0.5)
	if !almost(p.Adjusted, 5.25) || !almost(p.Adjustment, 0.125) {
		t.Fatalf("unexpected breakdown: %+v", p)
	}
	if !almost(p.Amount(), 0.75) {
		t.Fatalf("amount: want 0.75, got %v", p.Amount())
	}
}

func TestValidFactor(t *testing.T) {
	for _, f := range []float64{0, 0.5, 1} {
		if !ValidFactor(f) {
			t.Fatalf("factor %v should be valid", f)
		}
	}
	for _, f := range []float64{-0.01, 1.01, 2} {
		if ValidFactor(f) {
			t.Fatalf("factor %v should be invalid", f)
		}
	}
}

func almost(a, b float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d < 1e-9
}
