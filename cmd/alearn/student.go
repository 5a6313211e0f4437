package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/LyoshaGodX/adaptivelearn/internal/progress"
	"github.com/LyoshaGodX/adaptivelearn/internal/types"
)

var studentCmd = &cobra.Command{
	Use:   "student",
	Short: "Manage students and enrollments",
}

var studentCreateCmd = &cobra.Command{
	Use:   "create <username>",
	Short: "Create a student",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		fullName, _ := cmd.Flags().GetString("name")
		email, _ := cmd.Flags().GetString("email")
		org, _ := cmd.Flags().GetString("org")
		if fullName == "" {
			fullName = args[0]
		}
		student := &types.Student{
			Username:     args[0],
			FullName:     fullName,
			Email:        email,
			Organization: org,
			IsActive:     true,
		}
		if err := store.CreateStudent(rootCtx, student); err != nil {
			fatalf("%v", err)
		}
		if jsonOutput {
			outputJSON(student)
			return
		}
		fmt.Printf("%s Created student %s: %s\n", green("✓"), student.ID, student.Username)
	},
}

var studentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List students",
	Run: func(cmd *cobra.Command, args []string) {
		students, err := store.ListStudents(rootCtx)
		if err != nil {
			fatalf("%v", err)
		}
		if jsonOutput {
			if students == nil {
				students = []*types.Student{}
			}
			outputJSON(students)
			return
		}
		if len(students) == 0 {
			fmt.Println("No students found")
			return
		}
		for _, s := range students {
			fmt.Printf("%s  %-20s %s\n", s.ID, s.Username, s.FullName)
		}
	},
}

var studentEnrollCmd = &cobra.Command{
	Use:   "enroll <student-id> <course-id>",
	Short: "Enroll a student in a course",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		enrollment := &types.Enrollment{StudentID: args[0], CourseID: args[1]}
		if err := store.EnrollStudent(rootCtx, enrollment); err != nil {
			fatalf("%v", err)
		}
		fmt.Printf("%s Enrolled %s in %s\n", green("✓"), args[0], args[1])
	},
}

var studentProgressCmd = &cobra.Command{
	Use:   "progress <student-id>",
	Short: "Show a student's mastery and attempt summary",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		studentID := args[0]
		student, err := store.GetStudent(rootCtx, studentID)
		if err != nil {
			fatalf("%v", err)
		}
		attempts, err := store.ListAttempts(rootCtx, types.AttemptFilter{StudentID: studentID})
		if err != nil {
			fatalf("%v", err)
		}
		masteries, err := store.ListMasteries(rootCtx, studentID)
		if err != nil {
			fatalf("%v", err)
		}
		summary := progress.Summarize(attempts, masteries)
		enrollments, err := store.ListEnrollments(rootCtx, studentID)
		if err != nil {
			fatalf("%v", err)
		}
		coursePercents := make(map[string]int, len(enrollments))
		for _, e := range enrollments {
			skills, err := store.ListSkills(rootCtx, types.SkillFilter{CourseID: e.CourseID})
			if err != nil {
				fatalf("%v", err)
			}
			ids := make([]string, len(skills))
			for i, s := range skills {
				ids[i] = s.ID
			}
			coursePercents[e.CourseID] = progress.CourseProgress(ids, masteries)
		}

		if jsonOutput {
			outputJSON(map[string]interface{}{
				"student":     student,
				"summary":     summary,
				"masteries":   masteries,
				"enrollments": enrollments,
				"courses":     coursePercents,
			})
			return
		}

		fmt.Printf("%s (%s)\n", student.FullName, student.Username)
		fmt.Printf("  Attempts: %d (%.0f%% correct)\n",
			summary.TotalAttempts, summary.Accuracy*100)
		fmt.Printf("  Skills:   %d mastered of %d tracked\n",
			summary.MasteredSkills, summary.TrackedSkills)
		for _, e := range enrollments {
			fmt.Printf("  Course %s: %s, %d%% of skills mastered\n",
				e.CourseID, e.Status, coursePercents[e.CourseID])
		}
		for _, m := range masteries {
			fmt.Printf("  %s %s  P(L)=%.2f  %d/%d correct\n",
				masteryGlyph(m.CurrentProb), m.SkillID,
				m.CurrentProb, m.CorrectAttempts, m.AttemptsCount)
		}
	},
}

func init() {
	studentCreateCmd.Flags().String("name", "", "Full name (defaults to the username)")
	studentCreateCmd.Flags().String("email", "", "Email address")
	studentCreateCmd.Flags().String("org", "", "Organization")

	studentCmd.AddCommand(studentCreateCmd, studentListCmd, studentEnrollCmd, studentProgressCmd)
	rootCmd.AddCommand(studentCmd)
}
