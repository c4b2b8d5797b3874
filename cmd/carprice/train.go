package main

import (
	"fmt"
	"time"

	"carprice/internal/ml"

	"github.com/spf13/cobra"
)

var trainOut string

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Retrain the model and write a fresh snapshot",
	RunE:  runTrain,
}

func init() {
	trainCmd.Flags().StringVarP(&trainOut, "out", "o", "", "snapshot path (defaults to the configured model path)")
	rootCmd.AddCommand(trainCmd)
}

func runTrain(cmd *cobra.Command, args []string) error {
	path := settings.ModelPath
	if trainOut != "" {
		path = trainOut
	}

	model := ml.New(modelConfig(settings))
	start := time.Now()
	if err := model.Train(cmd.Context()); err != nil {
		return err
	}
	elapsed := time.Since(start)
	if err := model.Save(path); err != nil {
		return err
	}

	store := openHistory()
	if store != nil {
		defer store.Close()
		recordTrainingRun(store, model, elapsed)
	}

	info := model.Info()
	fmt.Fprintf(cmd.OutOrStdout(), "trained %s: MAE %.2f, R2 %.4f, accuracy %.2f%% (%s)\nsaved to %s\n",
		info.Version, info.Metrics.MAE, info.Metrics.R2, info.Metrics.Accuracy, elapsed.Round(time.Millisecond), path)
	return nil
}
