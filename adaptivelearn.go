// Package adaptivelearn provides a minimal public API for embedding the
// alearn engine in other Go programs.
//
// Most integrations should use the alearn CLI or the HTTP API. This package
// exports only the essential types and constructors for programs that want
// to drive the storage layer and recommender directly.
package adaptivelearn

import (
	"context"

	"github.com/LyoshaGodX/adaptivelearn/internal/recommender"
	"github.com/LyoshaGodX/adaptivelearn/internal/storage"
	"github.com/LyoshaGodX/adaptivelearn/internal/storage/sqlite"
	"github.com/LyoshaGodX/adaptivelearn/internal/types"
)

// Core domain types
type (
	Skill          = types.Skill
	Task           = types.Task
	Student        = types.Student
	SkillMastery   = types.SkillMastery
	TaskAttempt    = types.TaskAttempt
	Recommendation = types.Recommendation
	ExpertFeedback = types.ExpertFeedback
)

// Difficulty constants
const (
	DifficultyBeginner     = types.DifficultyBeginner
	DifficultyIntermediate = types.DifficultyIntermediate
	DifficultyAdvanced     = types.DifficultyAdvanced
)

// MasteryThreshold is the BKT probability above which a skill counts as mastered.
const MasteryThreshold = types.MasteryThreshold

// Storage is the full persistence interface backing the engine.
type Storage = storage.Storage

// Manager generates and maintains task recommendations.
type Manager = recommender.Manager

// Open opens (creating if necessary) an alearn SQLite database.
func Open(ctx context.Context, dbPath string) (Storage, error) {
	s, err := sqlite.New(ctx, dbPath)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// NewManager builds a recommendation manager over an open store with the
// default policy and buffer size.
func NewManager(store Storage) *Manager {
	return recommender.NewManager(store, recommender.NewPolicy(), recommender.DefaultBufferSize)
}
