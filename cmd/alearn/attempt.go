package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/LyoshaGodX/adaptivelearn/internal/types"
)

var attemptCmd = &cobra.Command{
	Use:   "attempt <student-id> <task-id>",
	Short: "Record a task attempt and refresh the recommendation",
	Long: `Records one solution attempt, updates the student's mastery for every
skill the task practices, links the attempt to the current recommendation when
it matches, and generates the next recommendation.`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		correct, _ := cmd.Flags().GetBool("correct")
		answer, _ := cmd.Flags().GetString("answer")
		timeSpent, _ := cmd.Flags().GetInt("time")

		attempt := &types.TaskAttempt{
			StudentID:    args[0],
			TaskID:       args[1],
			IsCorrect:    correct,
			GivenAnswer:  answer,
			TimeSpentSec: timeSpent,
		}
		next, err := mgr.HandleAttempt(rootCtx, attempt)
		if err != nil {
			fatalf("%v", err)
		}
		if jsonOutput {
			outputJSON(map[string]interface{}{
				"attempt": attempt,
				"next":    next,
			})
			return
		}
		verdict := red("✗ incorrect")
		if attempt.IsCorrect {
			verdict = green("✓ correct")
		}
		fmt.Printf("%s Attempt #%d recorded (%s)\n", green("✓"), attempt.ID, verdict)
		if next != nil {
			fmt.Printf("  Next up: %s (%s)\n", next.TaskID, next.Reason)
		}
	},
}

func init() {
	attemptCmd.Flags().BoolP("correct", "c", false, "The attempt was correct")
	attemptCmd.Flags().String("answer", "", "The answer the student gave")
	attemptCmd.Flags().Int("time", 0, "Time spent in seconds")
	rootCmd.AddCommand(attemptCmd)
}
