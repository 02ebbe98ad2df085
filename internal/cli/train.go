package cli

import (
	"errors"
	"fmt"

	"policyPortal/business/recommender"

	"github.com/spf13/cobra"
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train the learned scorer from labelled examples",
	Long: `Fit the learned scorer on a JSON array of training examples and write the
snapshot to --out. An existing snapshot at --out is loaded first so the new
model gets the next version number.

Each example carries a policy, a profile and either target_score in [0,1]
or an event_type (viewed, compared, favorited, purchased, dismissed).

Examples:
  policyctl train --examples interactions.json --out model.json
  policyctl train --examples interactions.json --out model.json --epochs 100 --seed 7`,
	RunE: runTrain,
}

var (
	trainExamples    string
	trainOut         string
	trainEpochs      int
	trainBatchSize   int
	trainLR          float64
	trainSeed        int64
	trainMinExamples int
)

func init() {
	rootCmd.AddCommand(trainCmd)
	d := recommender.DefaultTrainingConfig()
	trainCmd.Flags().StringVar(&trainExamples, "examples", "", "training examples JSON file")
	trainCmd.Flags().StringVar(&trainOut, "out", "model.json", "snapshot output path")
	trainCmd.Flags().IntVar(&trainEpochs, "epochs", d.Epochs, "training epochs")
	trainCmd.Flags().IntVar(&trainBatchSize, "batch-size", d.BatchSize, "mini-batch size")
	trainCmd.Flags().Float64Var(&trainLR, "learning-rate", d.LearningRate, "Adam learning rate")
	trainCmd.Flags().Int64Var(&trainSeed, "seed", d.Seed, "random seed for initialisation and split")
	trainCmd.Flags().IntVar(&trainMinExamples, "min-examples", d.MinExamples, "minimum examples required")
	_ = trainCmd.MarkFlagRequired("examples")
}

func runTrain(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if trainOut == "" {
		return errors.New("--out must not be empty")
	}

	examples, err := loadExamples(trainExamples)
	if err != nil {
		return err
	}

	cfg := recommender.DefaultTrainingConfig()
	cfg.Epochs = trainEpochs
	cfg.BatchSize = trainBatchSize
	cfg.LearningRate = trainLR
	cfg.Seed = trainSeed
	cfg.MinExamples = trainMinExamples

	ranker, err := buildRanker(ctx, trainOut, cfg)
	if err != nil {
		return err
	}

	report, err := ranker.Learned().Train(ctx, examples)
	if err != nil {
		return fmt.Errorf("train: %w", err)
	}

	if outputFmt == "json" {
		return writeJSON(cmd.OutOrStdout(), report)
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "model v%d written to %s\n", report.Version, trainOut)
	fmt.Fprintf(out, "  examples:        %d (%d train, %d validation)\n", report.Examples, report.TrainRows, report.ValidationRows)
	fmt.Fprintf(out, "  epochs:          %d\n", report.Epochs)
	fmt.Fprintf(out, "  train loss:      %.5f\n", report.TrainLoss)
	fmt.Fprintf(out, "  validation loss: %.5f\n", report.ValidationLoss)
	fmt.Fprintf(out, "  duration:        %s\n", report.Duration)
	return nil
}
