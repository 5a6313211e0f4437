package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/LyoshaGodX/adaptivelearn/internal/types"
)

var skillCmd = &cobra.Command{
	Use:   "skill",
	Short: "Manage skills and their prerequisites",
}

var skillCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a skill",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		description, _ := cmd.Flags().GetString("description")
		isBase, _ := cmd.Flags().GetBool("base")
		courses, _ := cmd.Flags().GetStringSlice("course")

		skill := &types.Skill{
			Name:        args[0],
			Description: description,
			IsBase:      isBase,
			Courses:     courses,
		}
		if err := store.CreateSkill(rootCtx, skill, getActor()); err != nil {
			fatalf("%v", err)
		}
		if jsonOutput {
			outputJSON(skill)
			return
		}
		fmt.Printf("%s Created skill %s: %s\n", green("✓"), skill.ID, skill.Name)
	},
}

var skillListCmd = &cobra.Command{
	Use:   "list",
	Short: "List skills",
	Run: func(cmd *cobra.Command, args []string) {
		course, _ := cmd.Flags().GetString("course")
		search, _ := cmd.Flags().GetString("search")
		var isBase *bool
		if cmd.Flags().Changed("base") {
			baseOnly, _ := cmd.Flags().GetBool("base")
			isBase = &baseOnly
		}

		skills, err := store.ListSkills(rootCtx, types.SkillFilter{
			CourseID:   course,
			NameSearch: search,
			IsBase:     isBase,
		})
		if err != nil {
			fatalf("%v", err)
		}
		if jsonOutput {
			if skills == nil {
				skills = []*types.Skill{}
			}
			outputJSON(skills)
			return
		}
		if len(skills) == 0 {
			fmt.Println("No skills found")
			return
		}
		for _, s := range skills {
			marker := " "
			if s.IsBase {
				marker = cyan("◆")
			}
			fmt.Printf("%s %s  %s\n", marker, s.ID, s.Name)
		}
	},
}

var skillShowCmd = &cobra.Command{
	Use:   "show <skill-id>",
	Short: "Show a skill with its prerequisites",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		skill, err := store.GetSkill(rootCtx, args[0])
		if err != nil {
			fatalf("%v", err)
		}
		if jsonOutput {
			outputJSON(skill)
			return
		}
		fmt.Printf("%s: %s\n", skill.ID, skill.Name)
		if skill.Description != "" {
			fmt.Printf("  %s\n", skill.Description)
		}
		if skill.IsBase {
			fmt.Printf("  %s base skill (no prerequisites expected)\n", cyan("◆"))
		}
		if len(skill.Prerequisites) > 0 {
			fmt.Printf("  Requires: %s\n", strings.Join(skill.Prerequisites, ", "))
		}
		if len(skill.Courses) > 0 {
			fmt.Printf("  Courses: %s\n", strings.Join(skill.Courses, ", "))
		}
	},
}

var skillDeleteCmd = &cobra.Command{
	Use:   "delete <skill-id>",
	Short: "Delete a skill and its graph edges",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := store.DeleteSkill(rootCtx, args[0]); err != nil {
			fatalf("%v", err)
		}
		fmt.Printf("%s Deleted %s\n", green("✓"), args[0])
	},
}

var prereqCmd = &cobra.Command{
	Use:   "prereq",
	Short: "Edit prerequisite edges",
}

var prereqAddCmd = &cobra.Command{
	Use:   "add <skill-id> <prereq-id>",
	Short: "Make one skill a prerequisite of another",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		if err := store.AddPrerequisite(rootCtx, args[0], args[1], getActor()); err != nil {
			fatalf("%v", err)
		}
		fmt.Printf("%s %s now requires %s\n", green("✓"), args[0], args[1])
	},
}

var prereqRemoveCmd = &cobra.Command{
	Use:   "remove <skill-id> <prereq-id>",
	Short: "Remove a prerequisite edge",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		if err := store.RemovePrerequisite(rootCtx, args[0], args[1]); err != nil {
			fatalf("%v", err)
		}
		fmt.Printf("%s Removed edge %s -> %s\n", green("✓"), args[0], args[1])
	},
}

var prereqCheckCmd = &cobra.Command{
	Use:   "check <skill-id> <prereq-id>",
	Short: "Check whether an edge would be accepted, without adding it",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		g, err := store.LoadGraph(rootCtx)
		if err != nil {
			fatalf("%v", err)
		}
		if err := g.CheckAddEdge(args[0], args[1]); err != nil {
			if jsonOutput {
				outputJSON(map[string]interface{}{"allowed": false, "reason": err.Error()})
				return
			}
			fmt.Printf("%s Refused: %v\n", red("✗"), err)
			return
		}
		if jsonOutput {
			outputJSON(map[string]interface{}{"allowed": true})
			return
		}
		fmt.Printf("%s Edge %s -> %s would be accepted\n", green("✓"), args[0], args[1])
	},
}

var skillAncestorsCmd = &cobra.Command{
	Use:   "ancestors <skill-id>",
	Short: "List every transitive prerequisite of this skill",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		printClosure(args[0], true)
	},
}

var skillDescendantsCmd = &cobra.Command{
	Use:   "descendants <skill-id>",
	Short: "List every skill that transitively requires this one",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		printClosure(args[0], false)
	},
}

func printClosure(skillID string, ancestors bool) {
	g, err := store.LoadGraph(rootCtx)
	if err != nil {
		fatalf("%v", err)
	}
	if !g.HasNode(skillID) {
		fatalf("unknown skill: %s", skillID)
	}
	var set map[string]bool
	if ancestors {
		set = g.CollectAncestors(skillID)
	} else {
		set = g.CollectDescendants(skillID)
	}
	delete(set, skillID)

	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	if jsonOutput {
		outputJSON(ids)
		return
	}
	if len(ids) == 0 {
		fmt.Println("(none)")
		return
	}
	for _, id := range ids {
		fmt.Println(id)
	}
}

func init() {
	skillCreateCmd.Flags().StringP("description", "d", "", "Skill description")
	skillCreateCmd.Flags().Bool("base", false, "Mark as a base (entry-level) skill")
	skillCreateCmd.Flags().StringSlice("course", nil, "Course IDs to attach the skill to")

	skillListCmd.Flags().String("course", "", "Filter by course ID")
	skillListCmd.Flags().String("search", "", "Filter by name substring")
	skillListCmd.Flags().Bool("base", false, "Base skills only")

	prereqCmd.AddCommand(prereqAddCmd, prereqRemoveCmd, prereqCheckCmd)
	skillCmd.AddCommand(skillCreateCmd, skillListCmd, skillShowCmd, skillDeleteCmd,
		prereqCmd, skillAncestorsCmd, skillDescendantsCmd)
	rootCmd.AddCommand(skillCmd)
}
