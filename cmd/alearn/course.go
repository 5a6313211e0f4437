package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/LyoshaGodX/adaptivelearn/internal/types"
)

var courseCmd = &cobra.Command{
	Use:   "course",
	Short: "Manage courses",
}

var courseCreateCmd = &cobra.Command{
	Use:   "create <id> <name>",
	Short: "Create a course",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		description, _ := cmd.Flags().GetString("description")
		course := &types.Course{ID: args[0], Name: args[1], Description: description}
		if err := store.CreateCourse(rootCtx, course); err != nil {
			fatalf("%v", err)
		}
		if jsonOutput {
			outputJSON(course)
			return
		}
		fmt.Printf("%s Created course %s: %s\n", green("✓"), course.ID, course.Name)
	},
}

var courseListCmd = &cobra.Command{
	Use:   "list",
	Short: "List courses",
	Run: func(cmd *cobra.Command, args []string) {
		courses, err := store.ListCourses(rootCtx)
		if err != nil {
			fatalf("%v", err)
		}
		if jsonOutput {
			if courses == nil {
				courses = []*types.Course{}
			}
			outputJSON(courses)
			return
		}
		if len(courses) == 0 {
			fmt.Println("No courses found")
			return
		}
		for _, c := range courses {
			fmt.Printf("%-10s %s\n", c.ID, c.Name)
		}
	},
}

func init() {
	courseCreateCmd.Flags().StringP("description", "d", "", "Course description")
	courseCmd.AddCommand(courseCreateCmd, courseListCmd)
	rootCmd.AddCommand(courseCmd)
}
