package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/LyoshaGodX/adaptivelearn/internal/idgen"
	"github.com/LyoshaGodX/adaptivelearn/internal/skillgraph"
	"github.com/LyoshaGodX/adaptivelearn/internal/storage"
	"github.com/LyoshaGodX/adaptivelearn/internal/types"
)

// CreateSkill inserts a new skill. An empty ID is filled with a generated
// hash ID; collisions retry with a new nonce.
func (s *Store) CreateSkill(ctx context.Context, skill *types.Skill, actor string) error {
	if err := skill.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	skill.CreatedAt = now
	skill.UpdatedAt = now

	return s.inTransaction(ctx, func(tx *sql.Conn) error {
		for nonce := 0; ; nonce++ {
			if skill.ID == "" {
				skill.ID = idgen.New(idgen.PrefixSkill, skill.Name+actor, now, nonce)
			}
			_, err := tx.ExecContext(ctx, `
				INSERT INTO skills (id, name, description, is_base, created_at, updated_at)
				VALUES (?, ?, ?, ?, ?, ?)`,
				skill.ID, skill.Name, skill.Description, skill.IsBase, skill.CreatedAt, skill.UpdatedAt)
			if err == nil {
				break
			}
			if isUniqueViolation(err) {
				if strings.Contains(err.Error(), "skills.name") {
					return fmt.Errorf("skill %q: %w", skill.Name, storage.ErrDuplicate)
				}
				if nonce < 5 {
					// ID collision, regenerate
					skill.ID = ""
					continue
				}
			}
			return fmt.Errorf("failed to create skill: %w", err)
		}
		return setLinksTx(ctx, tx, "skill_courses", "skill_id", "course_id", skill.ID, skill.Courses)
	})
}

// GetSkill returns a skill with its prerequisite and course links populated
func (s *Store) GetSkill(ctx context.Context, id string) (*types.Skill, error) {
	skill := &types.Skill{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, description, is_base, created_at, updated_at
		FROM skills WHERE id = ?`, id).
		Scan(&skill.ID, &skill.Name, &skill.Description, &skill.IsBase, &skill.CreatedAt, &skill.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("skill %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get skill: %w", err)
	}

	if skill.Prerequisites, err = s.queryStrings(ctx,
		`SELECT prereq_id FROM skill_prerequisites WHERE skill_id = ? ORDER BY prereq_id`, id); err != nil {
		return nil, err
	}
	if skill.Courses, err = s.queryStrings(ctx,
		`SELECT course_id FROM skill_courses WHERE skill_id = ? ORDER BY course_id`, id); err != nil {
		return nil, err
	}
	return skill, nil
}

// GetSkillByName returns the skill with the given unique name
func (s *Store) GetSkillByName(ctx context.Context, name string) (*types.Skill, error) {
	var id string
	err := s.db.QueryRowContext(ctx, `SELECT id FROM skills WHERE name = ?`, name).Scan(&id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("skill %q: %w", name, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up skill by name: %w", err)
	}
	return s.GetSkill(ctx, id)
}

// ListSkills returns skills matching the filter, ordered by name
func (s *Store) ListSkills(ctx context.Context, filter types.SkillFilter) ([]*types.Skill, error) {
	query := `SELECT s.id, s.name, s.description, s.is_base, s.created_at, s.updated_at FROM skills s`
	var conds []string
	var args []interface{}

	if filter.CourseID != "" {
		query += ` JOIN skill_courses sc ON sc.skill_id = s.id`
		conds = append(conds, "sc.course_id = ?")
		args = append(args, filter.CourseID)
	}
	if filter.NameSearch != "" {
		conds = append(conds, "s.name LIKE ?")
		args = append(args, "%"+filter.NameSearch+"%")
	}
	if filter.IsBase != nil {
		conds = append(conds, "s.is_base = ?")
		args = append(args, *filter.IsBase)
	}
	if len(filter.IDs) > 0 {
		conds = append(conds, "s.id IN ("+placeholders(len(filter.IDs))+")")
		for _, id := range filter.IDs {
			args = append(args, id)
		}
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY s.name"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list skills: %w", err)
	}
	defer rows.Close()

	var skills []*types.Skill
	for rows.Next() {
		skill := &types.Skill{}
		if err := rows.Scan(&skill.ID, &skill.Name, &skill.Description, &skill.IsBase,
			&skill.CreatedAt, &skill.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan skill: %w", err)
		}
		skills = append(skills, skill)
	}
	return skills, rows.Err()
}

var skillUpdateColumns = map[string]string{
	"name":        "name",
	"description": "description",
	"is_base":     "is_base",
}

// UpdateSkill applies a partial update to a skill
func (s *Store) UpdateSkill(ctx context.Context, id string, updates map[string]interface{}) error {
	set, args, err := buildUpdate(skillUpdateColumns, updates)
	if err != nil {
		return err
	}
	args = append(args, time.Now(), id)
	res, err := s.db.ExecContext(ctx,
		`UPDATE skills SET `+set+`, updated_at = ? WHERE id = ?`, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("skill name: %w", storage.ErrDuplicate)
		}
		return fmt.Errorf("failed to update skill: %w", err)
	}
	return requireRow(res, "skill "+id)
}

// DeleteSkill removes a skill. Edges, course links, task links and mastery
// rows cascade.
func (s *Store) DeleteSkill(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM skills WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete skill: %w", err)
	}
	return requireRow(res, "skill "+id)
}

// SetSkillCourses replaces the skill's course links
func (s *Store) SetSkillCourses(ctx context.Context, skillID string, courseIDs []string) error {
	return s.inTransaction(ctx, func(tx *sql.Conn) error {
		if err := requireExistsTx(ctx, tx, "skills", skillID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM skill_courses WHERE skill_id = ?`, skillID); err != nil {
			return fmt.Errorf("failed to clear course links: %w", err)
		}
		return setLinksTx(ctx, tx, "skill_courses", "skill_id", "course_id", skillID, courseIDs)
	})
}

// AddPrerequisite commits the edge "skillID requires prereqID".
//
// The full edge check runs again inside the transaction against the current
// edge set, so a concurrent writer cannot introduce a cycle between a
// caller's propose-side check and this commit. Rejections come back as
// skillgraph sentinel errors and leave the edge set untouched.
func (s *Store) AddPrerequisite(ctx context.Context, skillID, prereqID, actor string) error {
	return s.inTransaction(ctx, func(tx *sql.Conn) error {
		g, err := loadGraphTx(ctx, tx)
		if err != nil {
			return err
		}
		if err := g.CheckAddEdge(skillID, prereqID); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO skill_prerequisites (skill_id, prereq_id, created_at, created_by)
			VALUES (?, ?, ?, ?)`,
			skillID, prereqID, time.Now(), actor)
		if err != nil {
			return fmt.Errorf("failed to add prerequisite: %w", err)
		}
		return nil
	})
}

// RemovePrerequisite deletes a single edge. Other edges are untouched, so
// removal cannot make the graph cyclic.
func (s *Store) RemovePrerequisite(ctx context.Context, skillID, prereqID string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM skill_prerequisites WHERE skill_id = ? AND prereq_id = ?`, skillID, prereqID)
	if err != nil {
		return fmt.Errorf("failed to remove prerequisite: %w", err)
	}
	return requireRow(res, fmt.Sprintf("edge %s -> %s", skillID, prereqID))
}

// ListEdges returns every prerequisite edge
func (s *Store) ListEdges(ctx context.Context) ([]types.PrerequisiteEdge, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT skill_id, prereq_id, created_at, created_by
		FROM skill_prerequisites ORDER BY skill_id, prereq_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list edges: %w", err)
	}
	defer rows.Close()

	var edges []types.PrerequisiteEdge
	for rows.Next() {
		var e types.PrerequisiteEdge
		if err := rows.Scan(&e.SkillID, &e.PrereqID, &e.CreatedAt, &e.CreatedBy); err != nil {
			return nil, fmt.Errorf("failed to scan edge: %w", err)
		}
		edges = append(edges, e)
	}
	return edges, rows.Err()
}

// LoadGraph materializes the full prerequisite graph
func (s *Store) LoadGraph(ctx context.Context) (*skillgraph.Graph, error) {
	ids, err := s.queryStrings(ctx, `SELECT id FROM skills`)
	if err != nil {
		return nil, err
	}
	edges, err := s.ListEdges(ctx)
	if err != nil {
		return nil, err
	}
	return skillgraph.FromEdges(ids, edges), nil
}

func loadGraphTx(ctx context.Context, tx *sql.Conn) (*skillgraph.Graph, error) {
	g := skillgraph.New()

	rows, err := tx.QueryContext(ctx, `SELECT id FROM skills`)
	if err != nil {
		return nil, fmt.Errorf("failed to load skills: %w", err)
	}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		g.AddNode(id)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	rows, err = tx.QueryContext(ctx, `SELECT skill_id, prereq_id FROM skill_prerequisites`)
	if err != nil {
		return nil, fmt.Errorf("failed to load edges: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var skillID, prereqID string
		if err := rows.Scan(&skillID, &prereqID); err != nil {
			return nil, err
		}
		g.AddEdge(skillID, prereqID)
	}
	return g, rows.Err()
}

// queryStrings runs a query returning a single TEXT column
func (s *Store) queryStrings(ctx context.Context, query string, args ...interface{}) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// setLinksTx inserts join-table rows, verifying each referenced entity exists
func setLinksTx(ctx context.Context, tx *sql.Conn, table, ownerCol, refCol, ownerID string, refIDs []string) error {
	for _, refID := range refIDs {
		_, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO `+table+` (`+ownerCol+`, `+refCol+`) VALUES (?, ?)`,
			ownerID, refID)
		if err != nil {
			return fmt.Errorf("failed to link %s %s: %w", refCol, refID, err)
		}
	}
	return nil
}

func requireExistsTx(ctx context.Context, tx *sql.Conn, table, id string) error {
	var one int
	err := tx.QueryRowContext(ctx, `SELECT 1 FROM `+table+` WHERE id = ?`, id).Scan(&one)
	if err == sql.ErrNoRows {
		return fmt.Errorf("%s %s: %w", strings.TrimSuffix(table, "s"), id, storage.ErrNotFound)
	}
	return err
}

func requireRow(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, storage.ErrNotFound)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
