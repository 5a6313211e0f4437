package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/LyoshaGodX/adaptivelearn/internal/recommender"
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train the recommendation policy on pending expert feedback",
	Run: func(cmd *cobra.Command, args []string) {
		name, _ := cmd.Flags().GetString("name")
		lr, _ := cmd.Flags().GetFloat64("learning-rate")
		batchSize, _ := cmd.Flags().GetInt("batch-size")
		epochs, _ := cmd.Flags().GetInt("epochs")
		modelPath, _ := cmd.Flags().GetString("model")
		if modelPath == "" {
			modelPath = cfg.PolicyPath
		}

		trainer := recommender.NewTrainer(store, mgr.Policy())
		session, err := trainer.Train(rootCtx, recommender.TrainOptions{
			Name:         name,
			LearningRate: lr,
			BatchSize:    batchSize,
			Epochs:       epochs,
			ModelPath:    modelPath,
			CreatedBy:    getActor(),
		})
		if err != nil {
			if errors.Is(err, recommender.ErrNoFeedback) {
				fmt.Printf("%s No pending feedback to train on\n", yellow("⚠"))
				return
			}
			fatalf("%v", err)
		}
		if jsonOutput {
			outputJSON(session)
			return
		}
		fmt.Printf("%s Training session #%d %s\n", green("✓"), session.ID, session.Status)
		fmt.Printf("  %d feedback labels, %d epochs\n", session.FeedbackCount, session.Epochs)
		if session.InitialLoss != nil && session.FinalLoss != nil {
			fmt.Printf("  Loss %.4f -> %.4f\n", *session.InitialLoss, *session.FinalLoss)
		}
		if session.ModelPath != "" {
			fmt.Printf("  Model saved to %s\n", session.ModelPath)
		}
	},
}

var trainHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "List past training sessions",
	Run: func(cmd *cobra.Command, args []string) {
		limit, _ := cmd.Flags().GetInt("limit")
		sessions, err := store.ListTrainingSessions(rootCtx, limit)
		if err != nil {
			fatalf("%v", err)
		}
		if jsonOutput {
			outputJSON(sessions)
			return
		}
		if len(sessions) == 0 {
			fmt.Println("No training sessions yet")
			return
		}
		for _, s := range sessions {
			status := string(s.Status)
			switch s.Status {
			case "completed":
				status = green(status)
			case "failed":
				status = red(status)
			}
			fmt.Printf("#%-5d %-25s %s  %d labels\n", s.ID, s.Name, status, s.FeedbackCount)
		}
	},
}

func init() {
	trainCmd.Flags().String("name", "", "Session name (default: timestamped)")
	trainCmd.Flags().Float64("learning-rate", 0, "Learning rate (default 0.001)")
	trainCmd.Flags().Int("batch-size", 0, "Batch size (default 32)")
	trainCmd.Flags().Int("epochs", 0, "Number of epochs (default 10)")
	trainCmd.Flags().String("model", "", "Where to save the trained model (default: policy-model from config)")
	trainHistoryCmd.Flags().Int("limit", 0, "Maximum sessions to show")

	trainCmd.AddCommand(trainHistoryCmd)
	rootCmd.AddCommand(trainCmd)
}
