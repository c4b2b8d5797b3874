package main

import (
	"encoding/json"
	"fmt"

	"carprice/internal/car"
	"carprice/internal/client"
	"carprice/internal/ml"

	"github.com/spf13/cobra"
)

var (
	remoteURL string
	input     car.Record
)

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Estimate the price of one vehicle",
	Example: `  carprice predict --brand Toyota --year 2018 --mileage 45000 --fuel-type Petrol \
    --transmission Automatic --engine-size 2.0 --horsepower 150 --body-type Sedan \
    --doors 4 --previous-owners 1`,
	RunE: runPredict,
}

func init() {
	f := predictCmd.Flags()
	f.StringVar(&remoteURL, "remote", "", "base URL of a running carprice server; predicts locally when empty")
	f.StringVar(&input.Brand, "brand", "", "manufacturer")
	f.IntVar(&input.Year, "year", 0, "model year")
	f.Float64Var(&input.Mileage, "mileage", 0, "odometer reading")
	f.StringVar(&input.FuelType, "fuel-type", "", "Petrol, Diesel, Electric or Hybrid")
	f.StringVar(&input.Transmission, "transmission", "", "Manual or Automatic")
	f.Float64Var(&input.EngineSize, "engine-size", 0, "engine displacement in litres")
	f.IntVar(&input.Horsepower, "horsepower", 0, "engine power")
	f.StringVar(&input.BodyType, "body-type", "", "Sedan, SUV, Hatchback, Coupe, Wagon or Convertible")
	f.IntVar(&input.Doors, "doors", 0, "number of doors")
	f.IntVar(&input.PreviousOwners, "previous-owners", 0, "number of previous owners")
	for _, name := range []string{"brand", "year", "mileage", "fuel-type", "transmission", "engine-size", "horsepower", "body-type", "doors", "previous-owners"} {
		_ = predictCmd.MarkFlagRequired(name)
	}
	rootCmd.AddCommand(predictCmd)
}

func runPredict(cmd *cobra.Command, args []string) error {
	var out any
	if remoteURL != "" {
		resp, err := client.New(remoteURL, settings.RequestTimeout).Predict(cmd.Context(), input)
		if err != nil {
			return err
		}
		out = resp.Prediction
	} else {
		model := ml.New(modelConfig(settings))
		if _, err := model.LoadOrTrain(cmd.Context(), settings.ModelPath); err != nil {
			return err
		}
		res, err := model.Predict(input)
		if err != nil {
			return err
		}
		out = res
	}
	return printJSON(cmd, out)
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
