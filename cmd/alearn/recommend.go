package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/LyoshaGodX/adaptivelearn/internal/recommender"
)

var recommendCmd = &cobra.Command{
	Use:   "recommend <student-id>",
	Short: "Show the current recommendation for a student",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cur, rec, err := mgr.Current(rootCtx, args[0])
		if err != nil {
			fatalf("%v", err)
		}
		if jsonOutput {
			outputJSON(map[string]interface{}{
				"current":        cur,
				"recommendation": rec,
			})
			return
		}
		fmt.Printf("%s Recommended task: %s\n", cyan("▶"), rec.TaskID)
		fmt.Printf("  %s\n", rec.Reason)
		fmt.Printf("  Q=%.3f confidence=%.2f viewed %d time(s)\n",
			rec.QValue, rec.Confidence, cur.TimesViewed)
	},
}

var recommendGenerateCmd = &cobra.Command{
	Use:   "generate <student-id>",
	Short: "Force a fresh recommendation",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		rec, err := mgr.Generate(rootCtx, args[0])
		if err != nil {
			if errors.Is(err, recommender.ErrNoCandidates) {
				fmt.Printf("%s No active tasks to recommend\n", yellow("⚠"))
				return
			}
			fatalf("%v", err)
		}
		if jsonOutput {
			outputJSON(rec)
			return
		}
		fmt.Printf("%s Recommended task: %s\n", cyan("▶"), rec.TaskID)
		fmt.Printf("  %s\n", rec.Reason)
	},
}

var recommendHistoryCmd = &cobra.Command{
	Use:   "history <student-id>",
	Short: "Show the recommendation buffer for a student",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		limit, _ := cmd.Flags().GetInt("limit")
		recs, err := mgr.History(rootCtx, args[0], limit)
		if err != nil {
			fatalf("%v", err)
		}
		if jsonOutput {
			outputJSON(recs)
			return
		}
		if len(recs) == 0 {
			fmt.Println("No recommendations yet")
			return
		}
		for _, r := range recs {
			linked := " "
			if r.AttemptID != nil {
				linked = green("✓")
			}
			active := " "
			if r.IsActive {
				active = cyan("▶")
			}
			fmt.Printf("%s%s #%-5d %s  Q=%.3f\n", active, linked, r.ID, r.TaskID, r.QValue)
		}
	},
}

func init() {
	recommendHistoryCmd.Flags().Int("limit", 0, "Maximum entries (default: buffer size)")
	recommendCmd.AddCommand(recommendGenerateCmd, recommendHistoryCmd)
	rootCmd.AddCommand(recommendCmd)
}
