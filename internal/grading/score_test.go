package grading

import "testing"

func fp(v float64) *float64 { return &v }

func TestScore_SingleCorrectOption(t *testing.T) {
	// 4 options, 1 correct, no explicit values: correct selection earns the
	// full question total.
	q := Question{
		Kind:       KindChoice,
		TotalValue: 10,
		Options: []Option{
			{Correct: true}, {Correct: false}, {Correct: false}, {Correct: false},
		},
	}

	if got := Score(q, Answer{Selected: &q.Options[0]}); got != 10.0 {
		t.Fatalf("correct selection: want 10, got %v", got)
	}
	if got := Score(q, Answer{Selected: &q.Options[2]}); got != 0 {
		t.Fatalf("wrong selection: want 0, got %v", got)
	}
	if got := Score(q, Answer{}); got != 0 {
		t.Fatalf("no selection: want 0, got %v", got)
	}
}

func TestScore_SplitsTotalAmongCorrectOptions(t *testing.T) {
	q := Question{
		Kind:       KindChoice,
		TotalValue: 9,
		Options: []Option{
			{Correct: true}, {Correct: true}, {Correct: true}, {Correct: false},
		},
	}
	for i := 0; i < 3; i++ {
		if got := Score(q, Answer{Selected: &q.Options[i]}); got != 3 {
			t.Fatalf("option %d: want 3, got %v", i, got)
		}
	}
	if got := Score(q, Answer{Selected: &q.Options[3]}); got != 0 {
		t.Fatalf("incorrect option: want 0, got %v", got)
	}
}

func TestScore_ExplicitOptionValueWins(t *testing.T) {
	q := Question{
		Kind:       KindTrueFalse,
		TotalValue: 10,
		Options:    []Option{{Correct: true, Points: fp(7.5)}, {Correct: false}},
	}
	if got := Score(q, Answer{Selected: &q.Options[0]}); got != 7.5 {
		t.Fatalf("want explicit 7.5, got %v", got)
	}
}

func TestScore_NoCorrectOption(t *testing.T) {
	// Zero correct options must not divide by zero; everything scores 0.
	q := Question{
		Kind:       KindChoice,
		TotalValue: 10,
		Options:    []Option{{}, {}, {}, {}},
	}
	for i := range q.Options {
		if got := Score(q, Answer{Selected: &q.Options[i]}); got != 0 {
			t.Fatalf("option %d: want 0, got %v", i, got)
		}
	}
	if got := OptionPoints(q, q.Options[0]); got != 0 {
		t.Fatalf("OptionPoints with no correct options: want 0, got %v", got)
	}
}

func TestScore_FreeText(t *testing.T) {
	q := Question{Kind: KindFreeText, TotalValue: 10}

	tests := []struct {
		name string
		a    Answer
		want float64
	}{
		{"uncorrected pending", Answer{}, 0},
		{"corrected with points", Answer{Corrected: true, Awarded: fp(8.5)}, 8.5},
		{"corrected without points", Answer{Corrected: true}, 0},
		{"corrected zero", Answer{Corrected: true, Awarded: fp(0)}, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Score(q, tc.a); got != tc.want {
				t.Fatalf("want %v, got %v", tc.want, got)
			}
		})
	}
}

func TestObjective(t *testing.T) {
	if !Objective(KindChoice) || !Objective(KindTrueFalse) {
		t.Fatal("choice kinds must be objective")
	}
	if Objective(KindFreeText) {
		t.Fatal("free text must not be objective")
	}
}
