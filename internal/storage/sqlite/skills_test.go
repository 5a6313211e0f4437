package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/LyoshaGodX/adaptivelearn/internal/skillgraph"
	"github.com/LyoshaGodX/adaptivelearn/internal/storage"
	"github.com/LyoshaGodX/adaptivelearn/internal/types"
)

func mustSkill(t *testing.T, store *Store, name string) *types.Skill {
	t.Helper()
	skill := &types.Skill{Name: name}
	if err := store.CreateSkill(context.Background(), skill, "test"); err != nil {
		t.Fatalf("CreateSkill(%s): %v", name, err)
	}
	return skill
}

func mustEdge(t *testing.T, store *Store, skillID, prereqID string) {
	t.Helper()
	if err := store.AddPrerequisite(context.Background(), skillID, prereqID, "test"); err != nil {
		t.Fatalf("AddPrerequisite(%s, %s): %v", skillID, prereqID, err)
	}
}

func TestCreateAndGetSkill(t *testing.T) {
	store := newTestStore(t, "")
	ctx := context.Background()

	skill := &types.Skill{Name: "Variables", Description: "Naming values", IsBase: true}
	if err := store.CreateSkill(ctx, skill, "methodist"); err != nil {
		t.Fatalf("CreateSkill: %v", err)
	}
	if skill.ID == "" {
		t.Fatal("expected generated skill ID")
	}

	got, err := store.GetSkill(ctx, skill.ID)
	if err != nil {
		t.Fatalf("GetSkill: %v", err)
	}
	if got.Name != "Variables" || !got.IsBase {
		t.Errorf("got %+v, want name Variables, is_base true", got)
	}

	byName, err := store.GetSkillByName(ctx, "Variables")
	if err != nil {
		t.Fatalf("GetSkillByName: %v", err)
	}
	if byName.ID != skill.ID {
		t.Errorf("GetSkillByName returned %s, want %s", byName.ID, skill.ID)
	}
}

func TestCreateSkillDuplicateName(t *testing.T) {
	store := newTestStore(t, "")
	mustSkill(t, store, "Loops")

	err := store.CreateSkill(context.Background(), &types.Skill{Name: "Loops"}, "test")
	if !errors.Is(err, storage.ErrDuplicate) {
		t.Errorf("duplicate name error = %v, want ErrDuplicate", err)
	}
}

func TestGetSkillNotFound(t *testing.T) {
	store := newTestStore(t, "")
	_, err := store.GetSkill(context.Background(), "sk-nope")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestAddPrerequisiteAndLoadGraph(t *testing.T) {
	store := newTestStore(t, "")
	ctx := context.Background()

	vars := mustSkill(t, store, "Variables")
	loops := mustSkill(t, store, "Loops")
	funcs := mustSkill(t, store, "Functions")

	mustEdge(t, store, loops.ID, vars.ID)
	mustEdge(t, store, funcs.ID, loops.ID)

	g, err := store.LoadGraph(ctx)
	if err != nil {
		t.Fatalf("LoadGraph: %v", err)
	}
	if g.Len() != 3 {
		t.Errorf("graph has %d nodes, want 3", g.Len())
	}
	if !g.HasEdge(loops.ID, vars.ID) || !g.HasEdge(funcs.ID, loops.ID) {
		t.Error("expected committed edges in loaded graph")
	}

	got, err := store.GetSkill(ctx, funcs.ID)
	if err != nil {
		t.Fatalf("GetSkill: %v", err)
	}
	if len(got.Prerequisites) != 1 || got.Prerequisites[0] != loops.ID {
		t.Errorf("prerequisites = %v, want [%s]", got.Prerequisites, loops.ID)
	}
}

func TestAddPrerequisiteRejectsCycle(t *testing.T) {
	store := newTestStore(t, "")

	a := mustSkill(t, store, "A")
	b := mustSkill(t, store, "B")
	c := mustSkill(t, store, "C")
	mustEdge(t, store, b.ID, a.ID)
	mustEdge(t, store, c.ID, b.ID)

	// a requires c would close the loop
	err := store.AddPrerequisite(context.Background(), a.ID, c.ID, "test")
	if !errors.Is(err, skillgraph.ErrCycle) {
		t.Fatalf("cycle error = %v, want skillgraph.ErrCycle", err)
	}

	// The refused edge must leave the stored graph untouched
	g, gerr := store.LoadGraph(context.Background())
	if gerr != nil {
		t.Fatalf("LoadGraph: %v", gerr)
	}
	if g.HasEdge(a.ID, c.ID) {
		t.Error("refused edge was persisted")
	}
	if cycles := g.DetectCycles(); len(cycles) != 0 {
		t.Errorf("stored graph has cycles: %v", cycles)
	}
}

func TestAddPrerequisiteRejectsRedundantAndDuplicate(t *testing.T) {
	store := newTestStore(t, "")

	a := mustSkill(t, store, "A")
	b := mustSkill(t, store, "B")
	c := mustSkill(t, store, "C")
	mustEdge(t, store, b.ID, a.ID)
	mustEdge(t, store, c.ID, b.ID)

	if err := store.AddPrerequisite(context.Background(), b.ID, a.ID, "test"); !errors.Is(err, skillgraph.ErrDuplicateEdge) {
		t.Errorf("duplicate error = %v, want ErrDuplicateEdge", err)
	}
	// c already requires a transitively via b
	if err := store.AddPrerequisite(context.Background(), c.ID, a.ID, "test"); !errors.Is(err, skillgraph.ErrRedundantEdge) {
		t.Errorf("redundant error = %v, want ErrRedundantEdge", err)
	}
	if err := store.AddPrerequisite(context.Background(), a.ID, a.ID, "test"); !errors.Is(err, skillgraph.ErrSelfEdge) {
		t.Errorf("self error = %v, want ErrSelfEdge", err)
	}
	if err := store.AddPrerequisite(context.Background(), a.ID, "sk-ghost", "test"); !errors.Is(err, skillgraph.ErrUnknownSkill) {
		t.Errorf("unknown error = %v, want ErrUnknownSkill", err)
	}
}

func TestRemovePrerequisite(t *testing.T) {
	store := newTestStore(t, "")
	ctx := context.Background()

	a := mustSkill(t, store, "A")
	b := mustSkill(t, store, "B")
	c := mustSkill(t, store, "C")
	mustEdge(t, store, b.ID, a.ID)
	mustEdge(t, store, c.ID, b.ID)

	if err := store.RemovePrerequisite(ctx, c.ID, b.ID); err != nil {
		t.Fatalf("RemovePrerequisite: %v", err)
	}

	g, err := store.LoadGraph(ctx)
	if err != nil {
		t.Fatalf("LoadGraph: %v", err)
	}
	if g.HasEdge(c.ID, b.ID) {
		t.Error("removed edge still present")
	}
	if !g.HasEdge(b.ID, a.ID) {
		t.Error("unrelated edge was removed")
	}

	// Removing it again reports not found
	if err := store.RemovePrerequisite(ctx, c.ID, b.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("second remove error = %v, want ErrNotFound", err)
	}
}

func TestListSkillsFilter(t *testing.T) {
	store := newTestStore(t, "")
	ctx := context.Background()

	if err := store.CreateCourse(ctx, &types.Course{ID: "PY101", Name: "Python Basics"}); err != nil {
		t.Fatalf("CreateCourse: %v", err)
	}

	vars := &types.Skill{Name: "Variables", IsBase: true, Courses: []string{"PY101"}}
	if err := store.CreateSkill(ctx, vars, "test"); err != nil {
		t.Fatalf("CreateSkill: %v", err)
	}
	mustSkill(t, store, "Recursion")

	byCourse, err := store.ListSkills(ctx, types.SkillFilter{CourseID: "PY101"})
	if err != nil {
		t.Fatalf("ListSkills by course: %v", err)
	}
	if len(byCourse) != 1 || byCourse[0].Name != "Variables" {
		t.Errorf("course filter returned %d skills, want only Variables", len(byCourse))
	}

	base := true
	byBase, err := store.ListSkills(ctx, types.SkillFilter{IsBase: &base})
	if err != nil {
		t.Fatalf("ListSkills by base: %v", err)
	}
	if len(byBase) != 1 {
		t.Errorf("base filter returned %d skills, want 1", len(byBase))
	}

	// A nil IsBase means "any", not "non-base only"
	all, err := store.ListSkills(ctx, types.SkillFilter{})
	if err != nil {
		t.Fatalf("ListSkills unfiltered: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("unfiltered list returned %d skills, want both", len(all))
	}

	bySearch, err := store.ListSkills(ctx, types.SkillFilter{NameSearch: "cur"})
	if err != nil {
		t.Fatalf("ListSkills by search: %v", err)
	}
	if len(bySearch) != 1 || bySearch[0].Name != "Recursion" {
		t.Errorf("search filter returned %v, want Recursion", bySearch)
	}
}

func TestUpdateSkill(t *testing.T) {
	store := newTestStore(t, "")
	ctx := context.Background()

	skill := mustSkill(t, store, "Old name")
	err := store.UpdateSkill(ctx, skill.ID, map[string]interface{}{
		"name":    "New name",
		"is_base": true,
	})
	if err != nil {
		t.Fatalf("UpdateSkill: %v", err)
	}

	got, err := store.GetSkill(ctx, skill.ID)
	if err != nil {
		t.Fatalf("GetSkill: %v", err)
	}
	if got.Name != "New name" || !got.IsBase {
		t.Errorf("update not applied: %+v", got)
	}

	if err := store.UpdateSkill(ctx, skill.ID, map[string]interface{}{"bogus": 1}); err == nil {
		t.Error("expected error for unknown update field")
	}
}

func TestDeleteSkillCascadesEdges(t *testing.T) {
	store := newTestStore(t, "")
	ctx := context.Background()

	a := mustSkill(t, store, "A")
	b := mustSkill(t, store, "B")
	mustEdge(t, store, b.ID, a.ID)

	if err := store.DeleteSkill(ctx, a.ID); err != nil {
		t.Fatalf("DeleteSkill: %v", err)
	}

	edges, err := store.ListEdges(ctx)
	if err != nil {
		t.Fatalf("ListEdges: %v", err)
	}
	if len(edges) != 0 {
		t.Errorf("edges after cascade = %v, want none", edges)
	}
}
