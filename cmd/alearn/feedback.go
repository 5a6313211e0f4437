package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/LyoshaGodX/adaptivelearn/internal/types"
)

var feedbackCmd = &cobra.Command{
	Use:   "feedback",
	Short: "Label recommendations with expert feedback",
}

var feedbackAddCmd = &cobra.Command{
	Use:   "add <recommendation-id>",
	Short: "Add a reinforcement label to a recommendation",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		recID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			fatalf("invalid recommendation ID %q", args[0])
		}
		fbType, _ := cmd.Flags().GetString("type")
		strength, _ := cmd.Flags().GetString("strength")
		comment, _ := cmd.Flags().GetString("comment")

		feedback := &types.ExpertFeedback{
			RecommendationID: recID,
			Expert:           getActor(),
			Type:             types.FeedbackType(fbType),
			Strength:         types.FeedbackStrength(strength),
			Comment:          comment,
		}
		if err := store.AddFeedback(rootCtx, feedback); err != nil {
			fatalf("%v", err)
		}
		if jsonOutput {
			outputJSON(feedback)
			return
		}
		fmt.Printf("%s Feedback #%d recorded (reward %+.1f)\n",
			green("✓"), feedback.ID, feedback.Reward)
	},
}

var feedbackListCmd = &cobra.Command{
	Use:   "list",
	Short: "List expert feedback",
	Run: func(cmd *cobra.Command, args []string) {
		unused, _ := cmd.Flags().GetBool("unused")
		feedback, err := store.ListFeedback(rootCtx, types.FeedbackFilter{UnusedOnly: unused})
		if err != nil {
			fatalf("%v", err)
		}
		if jsonOutput {
			if feedback == nil {
				feedback = []*types.ExpertFeedback{}
			}
			outputJSON(feedback)
			return
		}
		if len(feedback) == 0 {
			fmt.Println("No feedback found")
			return
		}
		for _, f := range feedback {
			used := yellow("pending")
			if f.UsedForTraining {
				used = "trained"
			}
			fmt.Printf("#%-5d rec %-5d %-10s %+.1f  %s  (%s)\n",
				f.ID, f.RecommendationID, f.Expert, f.Reward, used, f.Type)
		}
	},
}

func init() {
	feedbackAddCmd.Flags().String("type", string(types.FeedbackPositive), "Feedback type (positive|negative)")
	feedbackAddCmd.Flags().String("strength", string(types.StrengthMedium), "Strength (low|medium|high)")
	feedbackAddCmd.Flags().String("comment", "", "Free-form comment")

	feedbackListCmd.Flags().Bool("unused", false, "Only feedback not yet used for training")

	feedbackCmd.AddCommand(feedbackAddCmd, feedbackListCmd)
	rootCmd.AddCommand(feedbackCmd)
}
