package bkt

import (
	"math"
	"testing"

	"github.com/LyoshaGodX/adaptivelearn/internal/types"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestUpdateCorrect(t *testing.T) {
	p := DefaultParams()
	// prior 0.5: post = 0.5*0.9 / (0.5*0.9 + 0.5*0.2) = 0.45/0.55
	// p' = post + (1-post)*0.3
	post := 0.45 / 0.55
	want := post + (1-post)*0.3

	got := Update(0.5, p, true)
	if !almostEqual(got, want) {
		t.Errorf("Update(0.5, correct) = %v, want %v", got, want)
	}
	if got <= 0.5 {
		t.Error("a correct answer must raise mastery from 0.5 under default params")
	}
}

func TestUpdateIncorrect(t *testing.T) {
	p := DefaultParams()
	// prior 0.5: post = 0.5*0.1 / (0.5*0.1 + 0.5*0.8) = 0.05/0.45
	post := 0.05 / 0.45
	want := post + (1-post)*0.3

	got := Update(0.5, p, false)
	if !almostEqual(got, want) {
		t.Errorf("Update(0.5, incorrect) = %v, want %v", got, want)
	}
}

func TestUpdateBounds(t *testing.T) {
	p := DefaultParams()
	for _, prior := range []float64{0, 0.001, 0.5, 0.999, 1} {
		for _, correct := range []bool{true, false} {
			got := Update(prior, p, correct)
			if got < 0 || got > 1 {
				t.Errorf("Update(%v, %v) = %v out of [0,1]", prior, correct, got)
			}
		}
	}
}

func TestUpdateDegenerateParams(t *testing.T) {
	// Guess 0 and prior 0 on a correct answer gives a zero denominator;
	// the prior must pass through untouched before the transition.
	p := Params{TransitionProb: 0.3, GuessProb: 0, SlipProb: 0}
	got := Update(0, p, true)
	if !almostEqual(got, 0.3) {
		t.Errorf("Update(0, degenerate, correct) = %v, want 0.3", got)
	}
}

func TestUpdateConvergesUnderRepetition(t *testing.T) {
	p := DefaultParams()
	mastery := p.InitialProb
	for i := 0; i < 20; i++ {
		mastery = Update(mastery, p, true)
	}
	if mastery < types.MasteryThreshold {
		t.Errorf("20 correct answers reached only %v, want >= %v", mastery, types.MasteryThreshold)
	}
}

func TestApply(t *testing.T) {
	m := NewMastery("stu-1", "sk-1", DefaultParams())
	if m.CurrentProb != 0.1 || m.InitialProb != 0.1 {
		t.Fatalf("NewMastery seeded %v, want 0.1", m.CurrentProb)
	}

	Apply(m, true)
	if m.AttemptsCount != 1 || m.CorrectAttempts != 1 {
		t.Errorf("counters = %d/%d, want 1/1", m.CorrectAttempts, m.AttemptsCount)
	}
	if m.CurrentProb <= 0.1 {
		t.Error("correct attempt should raise mastery")
	}

	before := m.CurrentProb
	Apply(m, false)
	if m.AttemptsCount != 2 || m.CorrectAttempts != 1 {
		t.Errorf("counters = %d/%d, want 1/2", m.CorrectAttempts, m.AttemptsCount)
	}
	// Not strictly monotone because of the learning transition, but the
	// posterior drop must pull it below the pure-transition path.
	pureTransition := before + (1-before)*m.TransitionProb
	if m.CurrentProb >= pureTransition {
		t.Errorf("incorrect attempt did not penalize: %v >= %v", m.CurrentProb, pureTransition)
	}
}
