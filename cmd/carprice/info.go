package main

import (
	"carprice/internal/client"
	"carprice/internal/ml"

	"github.com/spf13/cobra"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show the state of the saved or served model",
	RunE:  runInfo,
}

func init() {
	infoCmd.Flags().StringVar(&remoteURL, "remote", "", "base URL of a running carprice server; reads the local snapshot when empty")
	rootCmd.AddCommand(infoCmd)
}

// runInfo reports the snapshot without training: an absent or unreadable
// file shows up as an untrained model.
func runInfo(cmd *cobra.Command, args []string) error {
	if remoteURL != "" {
		info, err := client.New(remoteURL, settings.RequestTimeout).Info(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(cmd, info)
	}

	model := ml.New(modelConfig(settings))
	if err := model.Load(settings.ModelPath); err != nil {
		cmd.PrintErrf("no usable snapshot at %s: %v\n", settings.ModelPath, err)
	}
	return printJSON(cmd, model.Info())
}
