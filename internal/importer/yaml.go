package importer

import (
	"context"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/LyoshaGodX/adaptivelearn/internal/storage"
	"github.com/LyoshaGodX/adaptivelearn/internal/types"
)

// GraphDoc is the YAML exchange format for the prerequisite graph. Skills
// are referenced by name so the document survives a move between databases
// with different generated IDs.
type GraphDoc struct {
	Skills []GraphSkill `yaml:"skills"`
	Edges  []GraphEdge  `yaml:"edges"`
}

type GraphSkill struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
	Base        bool   `yaml:"base,omitempty"`
}

type GraphEdge struct {
	Skill  string `yaml:"skill"`
	Prereq string `yaml:"prereq"`
}

// ExportGraph writes the skill graph as YAML.
func ExportGraph(ctx context.Context, store storage.Storage, w io.Writer) error {
	skills, err := store.ListSkills(ctx, types.SkillFilter{})
	if err != nil {
		return fmt.Errorf("listing skills: %w", err)
	}
	edges, err := store.ListEdges(ctx)
	if err != nil {
		return fmt.Errorf("listing edges: %w", err)
	}

	names := make(map[string]string, len(skills))
	doc := GraphDoc{}
	for _, skill := range skills {
		names[skill.ID] = skill.Name
		doc.Skills = append(doc.Skills, GraphSkill{
			Name:        skill.Name,
			Description: skill.Description,
			Base:        skill.IsBase,
		})
	}
	for _, edge := range edges {
		doc.Edges = append(doc.Edges, GraphEdge{
			Skill:  names[edge.SkillID],
			Prereq: names[edge.PrereqID],
		})
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return err
	}
	return enc.Close()
}

// ImportGraph reads a YAML graph document and applies it: skills are created
// or updated by name, then edges are added through the same cycle-checked
// path as interactive editing.
func ImportGraph(ctx context.Context, store storage.Storage, r io.Reader, opts Options) (*Result, error) {
	var doc GraphDoc
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("parsing graph document: %w", err)
	}

	result := &Result{}
	ids := make(map[string]string, len(doc.Skills))
	for i := range doc.Skills {
		gs := doc.Skills[i]
		if gs.Name == "" {
			if err := result.recordError(opts.Strict, "skill %d: missing name", i); err != nil {
				return result, err
			}
			continue
		}
		skill := &types.Skill{Name: gs.Name, Description: gs.Description, IsBase: gs.Base}
		if err := importSkill(ctx, store, skill, opts, result); err != nil {
			return result, err
		}
		ids[gs.Name] = skill.ID
	}

	for _, edge := range doc.Edges {
		skillID, ok1 := ids[edge.Skill]
		prereqID, ok2 := ids[edge.Prereq]
		if !ok1 || !ok2 {
			// Endpoints outside the document may still exist locally.
			if !ok1 {
				if s, err := store.GetSkillByName(ctx, edge.Skill); err == nil {
					skillID, ok1 = s.ID, true
				}
			}
			if !ok2 {
				if s, err := store.GetSkillByName(ctx, edge.Prereq); err == nil {
					prereqID, ok2 = s.ID, true
				}
			}
		}
		if !ok1 || !ok2 {
			if err := result.recordError(opts.Strict, "edge %s -> %s: unknown skill name", edge.Skill, edge.Prereq); err != nil {
				return result, err
			}
			continue
		}
		if skillID == "" {
			result.EdgesAdded++ // dry run over skills that do not exist yet
			continue
		}
		if err := importEdge(ctx, store, skillID, prereqID, opts, result); err != nil {
			return result, err
		}
	}
	return result, nil
}
