// Package bkt implements Bayesian Knowledge Tracing updates for skill mastery.
package bkt

import "github.com/LyoshaGodX/adaptivelearn/internal/types"

// Params are the four BKT probabilities for one skill.
type Params struct {
	InitialProb    float64 `json:"P_L0"` // P(L0): already knows the skill
	TransitionProb float64 `json:"P_T"`  // P(T): learns from one attempt
	GuessProb      float64 `json:"P_G"`  // P(G): correct despite not knowing
	SlipProb       float64 `json:"P_S"`  // P(S): wrong despite knowing
}

// DefaultParams are used for skills without trained parameters.
func DefaultParams() Params {
	return Params{
		InitialProb:    0.1,
		TransitionProb: 0.3,
		GuessProb:      0.2,
		SlipProb:       0.1,
	}
}

// Update advances the mastery probability for one observed attempt.
//
// Bayesian posterior on the observation, then the learning transition:
//
//	correct:   post = p·(1-S) / (p·(1-S) + (1-p)·G)
//	incorrect: post = p·S     / (p·S     + (1-p)·(1-G))
//	p' = post + (1-post)·T
//
// The result is clamped to [0, 1]. A zero denominator (degenerate
// parameters) leaves the prior unchanged before the transition.
func Update(current float64, p Params, correct bool) float64 {
	var numerator, denominator float64
	if correct {
		numerator = current * (1 - p.SlipProb)
		denominator = current*(1-p.SlipProb) + (1-current)*p.GuessProb
	} else {
		numerator = current * p.SlipProb
		denominator = current*p.SlipProb + (1-current)*(1-p.GuessProb)
	}

	posterior := current
	if denominator > 0 {
		posterior = numerator / denominator
	}

	updated := posterior + (1-posterior)*p.TransitionProb
	return clamp01(updated)
}

// Apply records one attempt on a mastery row: counters plus probability.
func Apply(m *types.SkillMastery, correct bool) {
	m.AttemptsCount++
	if correct {
		m.CorrectAttempts++
	}
	p := Params{
		InitialProb:    m.InitialProb,
		TransitionProb: m.TransitionProb,
		GuessProb:      m.GuessProb,
		SlipProb:       m.SlipProb,
	}
	m.CurrentProb = Update(m.CurrentProb, p, correct)
}

// NewMastery builds a fresh mastery row seeded from the given parameters.
func NewMastery(studentID, skillID string, p Params) *types.SkillMastery {
	return &types.SkillMastery{
		StudentID:      studentID,
		SkillID:        skillID,
		InitialProb:    p.InitialProb,
		CurrentProb:    p.InitialProb,
		TransitionProb: p.TransitionProb,
		GuessProb:      p.GuessProb,
		SlipProb:       p.SlipProb,
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
