package importer

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/LyoshaGodX/adaptivelearn/internal/storage"
	"github.com/LyoshaGodX/adaptivelearn/internal/types"
)

// Snapshot lines can get long once a task carries its question text and
// answers, so the scanner buffer is sized well past any realistic record.
const maxLineSize = 4 * 1024 * 1024

// record is one JSONL snapshot line. Exactly one of the payload fields is
// set, selected by Kind.
type record struct {
	Kind  string       `json:"kind"`
	Skill *types.Skill `json:"skill,omitempty"`
	Task  *types.Task  `json:"task,omitempty"`
}

const (
	kindSkill = "skill"
	kindTask  = "task"
)

// ExportSnapshot writes every skill and task as JSONL, skills first so the
// task skill links resolve on re-import.
func ExportSnapshot(ctx context.Context, store storage.Storage, w io.Writer) error {
	enc := json.NewEncoder(w)

	skills, err := store.ListSkills(ctx, types.SkillFilter{})
	if err != nil {
		return fmt.Errorf("listing skills: %w", err)
	}
	for _, skill := range skills {
		full, err := store.GetSkill(ctx, skill.ID)
		if err != nil {
			return fmt.Errorf("loading skill %s: %w", skill.ID, err)
		}
		if err := enc.Encode(record{Kind: kindSkill, Skill: full}); err != nil {
			return err
		}
	}

	tasks, err := store.ListTasks(ctx, types.TaskFilter{})
	if err != nil {
		return fmt.Errorf("listing tasks: %w", err)
	}
	for _, task := range tasks {
		full, err := store.GetTask(ctx, task.ID)
		if err != nil {
			return fmt.Errorf("loading task %s: %w", task.ID, err)
		}
		if err := enc.Encode(record{Kind: kindTask, Task: full}); err != nil {
			return err
		}
	}
	return nil
}

// ImportSnapshot reads a JSONL snapshot and applies it to the store.
// Skills are imported before tasks regardless of line order, and skill
// references inside tasks are remapped from the snapshot's IDs to local ones.
func ImportSnapshot(ctx context.Context, store storage.Storage, r io.Reader, opts Options) (*Result, error) {
	result := &Result{}

	var skills []*types.Skill
	var tasks []*types.Task

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var rec record
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			if err := result.recordError(opts.Strict, "line %d: %v", lineNo, err); err != nil {
				return result, err
			}
			continue
		}
		switch rec.Kind {
		case kindSkill:
			if rec.Skill == nil || rec.Skill.Name == "" {
				if err := result.recordError(opts.Strict, "line %d: skill record missing name", lineNo); err != nil {
					return result, err
				}
				continue
			}
			skills = append(skills, rec.Skill)
		case kindTask:
			if rec.Task == nil || rec.Task.Title == "" {
				if err := result.recordError(opts.Strict, "line %d: task record missing title", lineNo); err != nil {
					return result, err
				}
				continue
			}
			tasks = append(tasks, rec.Task)
		default:
			if err := result.recordError(opts.Strict, "line %d: unknown record kind %q", lineNo, rec.Kind); err != nil {
				return result, err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return result, fmt.Errorf("reading snapshot: %w", err)
	}

	// Skills first; remember how the snapshot's IDs map onto local ones.
	idMap := make(map[string]string, len(skills))
	for _, skill := range skills {
		snapshotID := skill.ID
		if err := importSkill(ctx, store, skill, opts, result); err != nil {
			return result, err
		}
		if snapshotID != "" && skill.ID != "" {
			idMap[snapshotID] = skill.ID
		}
	}

	// Snapshot edges carried on the skill records, now that every endpoint
	// has a local ID.
	for _, skill := range skills {
		for _, prereq := range skill.Prerequisites {
			skillID, prereqID := skill.ID, prereq
			if mapped, ok := idMap[prereq]; ok {
				prereqID = mapped
			}
			if skillID == "" {
				// Dry-run created skill: the edge would land on an ID
				// that does not exist yet.
				result.EdgesAdded++
				continue
			}
			if err := importEdge(ctx, store, skillID, prereqID, opts, result); err != nil {
				return result, err
			}
		}
	}

	for _, task := range tasks {
		remapped := make([]string, 0, len(task.Skills))
		for _, id := range task.Skills {
			if mapped, ok := idMap[id]; ok {
				id = mapped
			}
			remapped = append(remapped, id)
		}
		task.Skills = remapped
		if err := importTask(ctx, store, task, opts, result); err != nil {
			return result, err
		}
	}

	return result, nil
}
