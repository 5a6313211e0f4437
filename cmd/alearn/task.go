package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/LyoshaGodX/adaptivelearn/internal/types"
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Manage practice tasks",
}

var taskCreateCmd = &cobra.Command{
	Use:   "create <title>",
	Short: "Create a task",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		question, _ := cmd.Flags().GetString("question")
		taskType, _ := cmd.Flags().GetString("type")
		difficulty, _ := cmd.Flags().GetString("difficulty")
		skills, _ := cmd.Flags().GetStringSlice("skill")
		courses, _ := cmd.Flags().GetStringSlice("course")
		answers, _ := cmd.Flags().GetStringSlice("answer")
		correct, _ := cmd.Flags().GetStringSlice("correct")

		task := &types.Task{
			Title:        args[0],
			QuestionText: question,
			TaskType:     types.TaskType(taskType),
			Difficulty:   types.Difficulty(difficulty),
			IsActive:     true,
			Skills:       skills,
			Courses:      courses,
		}
		correctSet := make(map[string]bool, len(correct))
		for _, a := range correct {
			correctSet[a] = true
		}
		for _, text := range answers {
			task.Answers = append(task.Answers, &types.TaskAnswer{
				Text:      text,
				IsCorrect: correctSet[text],
			})
		}
		if err := store.CreateTask(rootCtx, task, getActor()); err != nil {
			fatalf("%v", err)
		}
		if jsonOutput {
			outputJSON(task)
			return
		}
		fmt.Printf("%s Created task %s: %s\n", green("✓"), task.ID, task.Title)
	},
}

var taskListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks",
	Run: func(cmd *cobra.Command, args []string) {
		skill, _ := cmd.Flags().GetString("skill")
		course, _ := cmd.Flags().GetString("course")
		activeOnly, _ := cmd.Flags().GetBool("active")

		tasks, err := store.ListTasks(rootCtx, types.TaskFilter{
			SkillID:    skill,
			CourseID:   course,
			ActiveOnly: activeOnly,
		})
		if err != nil {
			fatalf("%v", err)
		}
		if jsonOutput {
			if tasks == nil {
				tasks = []*types.Task{}
			}
			outputJSON(tasks)
			return
		}
		if len(tasks) == 0 {
			fmt.Println("No tasks found")
			return
		}
		for _, t := range tasks {
			status := " "
			if !t.IsActive {
				status = yellow("⏸")
			}
			fmt.Printf("%s %s  [%s] %s\n", status, t.ID, t.Difficulty, t.Title)
		}
	},
}

var taskShowCmd = &cobra.Command{
	Use:   "show <task-id>",
	Short: "Show a task with its answers and skill links",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		task, err := store.GetTask(rootCtx, args[0])
		if err != nil {
			fatalf("%v", err)
		}
		if jsonOutput {
			outputJSON(task)
			return
		}
		fmt.Printf("%s: %s [%s/%s]\n", task.ID, task.Title, task.TaskType, task.Difficulty)
		fmt.Printf("  %s\n", task.QuestionText)
		for _, a := range task.Answers {
			marker := " "
			if a.IsCorrect {
				marker = green("✓")
			}
			fmt.Printf("  %s %s\n", marker, a.Text)
		}
		if len(task.Skills) > 0 {
			fmt.Printf("  Skills: %s\n", strings.Join(task.Skills, ", "))
		}
	},
}

func init() {
	taskCreateCmd.Flags().StringP("question", "Q", "", "Question text")
	taskCreateCmd.Flags().String("type", string(types.TaskSingleChoice), "Task type (single|multiple|true_false)")
	taskCreateCmd.Flags().String("difficulty", string(types.DifficultyBeginner), "Difficulty (beginner|intermediate|advanced)")
	taskCreateCmd.Flags().StringSlice("skill", nil, "Skill IDs the task practices")
	taskCreateCmd.Flags().StringSlice("course", nil, "Course IDs")
	taskCreateCmd.Flags().StringSlice("answer", nil, "Answer option text (repeatable)")
	taskCreateCmd.Flags().StringSlice("correct", nil, "Answer option text that is correct (repeatable)")

	taskListCmd.Flags().String("skill", "", "Filter by skill ID")
	taskListCmd.Flags().String("course", "", "Filter by course ID")
	taskListCmd.Flags().Bool("active", false, "Active tasks only")

	taskCmd.AddCommand(taskCreateCmd, taskListCmd, taskShowCmd)
	rootCmd.AddCommand(taskCmd)
}
