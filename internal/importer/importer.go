// Package importer moves course content in and out of the database.
//
// Skills and tasks travel as JSONL snapshots (one record per line), the
// prerequisite graph as a YAML document. Imports are idempotent: records
// that already exist are updated in place, and edges that are already
// present count as unchanged rather than errors.
package importer

import (
	"context"
	"errors"
	"fmt"

	"github.com/LyoshaGodX/adaptivelearn/internal/skillgraph"
	"github.com/LyoshaGodX/adaptivelearn/internal/storage"
	"github.com/LyoshaGodX/adaptivelearn/internal/types"
)

// Options contains import configuration.
type Options struct {
	DryRun     bool   // Preview changes without applying them
	SkipUpdate bool   // Skip updating existing records (create-only mode)
	Strict     bool   // Fail on the first record error instead of collecting it
	Actor      string // Recorded as created_by on new records
}

// Result contains statistics about an import operation.
type Result struct {
	SkillsCreated int
	SkillsUpdated int
	TasksCreated  int
	TasksUpdated  int
	EdgesAdded    int
	EdgesExisting int
	Skipped       int
	Errors        []string
}

func (r *Result) recordError(strict bool, format string, args ...interface{}) error {
	msg := fmt.Sprintf(format, args...)
	if strict {
		return errors.New(msg)
	}
	r.Skipped++
	r.Errors = append(r.Errors, msg)
	return nil
}

// importSkill creates or updates one skill. Matching is by name, so snapshots
// exported from another database land on the local IDs.
func importSkill(ctx context.Context, store storage.Storage, skill *types.Skill, opts Options, result *Result) error {
	existing, err := store.GetSkillByName(ctx, skill.Name)
	switch {
	case err == nil:
		if opts.SkipUpdate {
			result.Skipped++
			return nil
		}
		if !opts.DryRun {
			updates := map[string]interface{}{
				"description": skill.Description,
				"is_base":     skill.IsBase,
			}
			if err := store.UpdateSkill(ctx, existing.ID, updates); err != nil {
				return result.recordError(opts.Strict, "update skill %q: %v", skill.Name, err)
			}
			if len(skill.Courses) > 0 {
				if err := store.SetSkillCourses(ctx, existing.ID, skill.Courses); err != nil {
					return result.recordError(opts.Strict, "link skill %q courses: %v", skill.Name, err)
				}
			}
		}
		skill.ID = existing.ID
		result.SkillsUpdated++
		return nil
	case errors.Is(err, storage.ErrNotFound):
		if !opts.DryRun {
			created := *skill
			created.ID = ""
			if err := store.CreateSkill(ctx, &created, opts.Actor); err != nil {
				return result.recordError(opts.Strict, "create skill %q: %v", skill.Name, err)
			}
			skill.ID = created.ID
		}
		result.SkillsCreated++
		return nil
	default:
		return err
	}
}

// importTask creates or updates one task, matching by title.
func importTask(ctx context.Context, store storage.Storage, task *types.Task, opts Options, result *Result) error {
	existing, err := findTaskByTitle(ctx, store, task.Title)
	if err != nil {
		return err
	}
	if existing != nil {
		if opts.SkipUpdate {
			result.Skipped++
			return nil
		}
		if !opts.DryRun {
			updates := map[string]interface{}{
				"explanation":   task.Explanation,
				"question_text": task.QuestionText,
				"task_type":     string(task.TaskType),
				"difficulty":    string(task.Difficulty),
				"is_active":     task.IsActive,
			}
			if err := store.UpdateTask(ctx, existing.ID, updates); err != nil {
				return result.recordError(opts.Strict, "update task %q: %v", task.Title, err)
			}
			if len(task.Skills) > 0 {
				if err := store.SetTaskSkills(ctx, existing.ID, task.Skills); err != nil {
					return result.recordError(opts.Strict, "link task %q skills: %v", task.Title, err)
				}
			}
		}
		task.ID = existing.ID
		result.TasksUpdated++
		return nil
	}
	if !opts.DryRun {
		created := *task
		created.ID = ""
		if err := store.CreateTask(ctx, &created, opts.Actor); err != nil {
			return result.recordError(opts.Strict, "create task %q: %v", task.Title, err)
		}
		task.ID = created.ID
	}
	result.TasksCreated++
	return nil
}

func findTaskByTitle(ctx context.Context, store storage.Storage, title string) (*types.Task, error) {
	tasks, err := store.ListTasks(ctx, types.TaskFilter{TitleSearch: title})
	if err != nil {
		return nil, err
	}
	for _, t := range tasks {
		if t.Title == title {
			return t, nil
		}
	}
	return nil, nil
}

// importEdge adds one prerequisite edge, tolerating edges that are already
// implied by the graph. Cycles and redundant paths are refused the same way
// interactive editing refuses them.
func importEdge(ctx context.Context, store storage.Storage, skillID, prereqID string, opts Options, result *Result) error {
	if opts.DryRun {
		g, err := store.LoadGraph(ctx)
		if err != nil {
			return err
		}
		if err := g.CheckAddEdge(skillID, prereqID); err != nil {
			return classifyEdgeError(err, skillID, prereqID, opts, result)
		}
		result.EdgesAdded++
		return nil
	}
	if err := store.AddPrerequisite(ctx, skillID, prereqID, opts.Actor); err != nil {
		return classifyEdgeError(err, skillID, prereqID, opts, result)
	}
	result.EdgesAdded++
	return nil
}

func classifyEdgeError(err error, skillID, prereqID string, opts Options, result *Result) error {
	if errors.Is(err, skillgraph.ErrDuplicateEdge) {
		result.EdgesExisting++
		return nil
	}
	return result.recordError(opts.Strict, "edge %s -> %s: %v", skillID, prereqID, err)
}
