package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"car-cost-estimator/internal/model"
	"car-cost-estimator/internal/series"
	"car-cost-estimator/internal/submission"
)

func (a *app) estimateCmd() *cobra.Command {
	var (
		inputPath   string
		manualPrice float64
		valueChart  bool
	)

	cmd := &cobra.Command{
		Use:   "estimate",
		Short: "Request a cost estimate for the car described in a JSON file",
		Long: `Request a cost estimate for the car described in a JSON file ("-" reads stdin).

When price data is unavailable and --manual-price is set, the estimate is
submitted once more with that purchase price.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := readInput(cmd.InOrStdin(), inputPath)
			if err != nil {
				return err
			}

			pricing := a.pricing()
			defer pricing.Close()
			machine := submission.NewMachine(pricing, submission.WithLogger(a.logger))

			state, err := machine.Submit(cmd.Context(), in)
			if err != nil {
				return err
			}
			if state.Kind == submission.ServiceUnavailable && manualPrice > 0 {
				a.logger.Info("price data unavailable, using manual purchase price", "price", manualPrice)
				in.ManualPurchasePrice = &manualPrice
				if state, err = machine.Submit(cmd.Context(), in); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			if err := printJSON(out, state); err != nil {
				return err
			}
			if state.Kind != submission.Succeeded {
				return fmt.Errorf("%s: %s", state.Message, state.Description)
			}
			if valueChart {
				return printJSON(out, series.ValuePoints(
					state.Result.YearValues, state.Result.PerYearStdDev,
					in.RegistrationYear, in.PurchaseYearIndex,
				))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&inputPath, "input", "i", "", "Estimate input JSON file")
	cmd.Flags().Float64Var(&manualPrice, "manual-price", 0, "Purchase price to use when price data is unavailable")
	cmd.Flags().BoolVar(&valueChart, "value-chart", false, "Also print the yearly value chart")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func (a *app) breakEvenCmd() *cobra.Command {
	var (
		inputPath string
		rent      float64
		years     int
	)

	cmd := &cobra.Command{
		Use:   "break-even",
		Short: "Compare buying the car with renting",
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := readInput(cmd.InOrStdin(), inputPath)
			if err != nil {
				return err
			}

			pricing := a.pricing()
			defer pricing.Close()
			comparison := submission.NewComparison(pricing, nil, a.logger)

			state, err := comparison.Compare(cmd.Context(), model.BreakEvenRequest{
				Estimate:        in,
				RentMonthlyCost: rent,
				Years:           years,
			})
			if err != nil {
				return err
			}
			if err := printJSON(cmd.OutOrStdout(), state); err != nil {
				return err
			}
			if state.Kind != submission.Succeeded {
				return fmt.Errorf("%s: %s", state.Message, state.Description)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&inputPath, "input", "i", "", "Estimate input JSON file")
	cmd.Flags().Float64Var(&rent, "rent", 0, "Monthly rent cost")
	cmd.Flags().IntVar(&years, "years", 0, "Comparison horizon in years")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("rent")
	_ = cmd.MarkFlagRequired("years")
	return cmd
}

func readInput(stdin io.Reader, path string) (model.EstimateInput, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return model.EstimateInput{}, fmt.Errorf("failed to read input: %w", err)
	}

	var in model.EstimateInput
	if err := json.Unmarshal(data, &in); err != nil {
		return model.EstimateInput{}, fmt.Errorf("failed to parse input %s: %w", path, err)
	}
	return in, nil
}
