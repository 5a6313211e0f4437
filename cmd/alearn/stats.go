package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show aggregate database statistics",
	Run: func(cmd *cobra.Command, args []string) {
		stats, err := store.GetStatistics(rootCtx)
		if err != nil {
			fatalf("%v", err)
		}
		if jsonOutput {
			outputJSON(stats)
			return
		}
		fmt.Printf("Skills:          %d (%d base)\n", stats.TotalSkills, stats.BaseSkills)
		fmt.Printf("Edges:           %d\n", stats.TotalEdges)
		fmt.Printf("Courses:         %d\n", stats.TotalCourses)
		fmt.Printf("Tasks:           %d (%d active)\n", stats.TotalTasks, stats.ActiveTasks)
		fmt.Printf("Students:        %d\n", stats.TotalStudents)
		fmt.Printf("Attempts:        %d (%.0f%% correct)\n", stats.TotalAttempts, stats.OverallAccuracy*100)
		fmt.Printf("Recommendations: %d (%d linked to attempts)\n",
			stats.TotalRecommendations, stats.LinkedAttempts)
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
