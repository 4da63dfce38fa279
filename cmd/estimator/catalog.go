package main

import (
	"context"
	"fmt"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"car-cost-estimator/internal/client"
	"car-cost-estimator/internal/matching"
	"car-cost-estimator/internal/model"
)

func (a *app) brandsCmd() *cobra.Command {
	var (
		query      string
		withModels bool
		parallel   int
	)

	cmd := &cobra.Command{
		Use:   "brands",
		Short: "List the brands known to the pricing service",
		RunE: func(cmd *cobra.Command, args []string) error {
			pricing := a.pricing()
			defer pricing.Close()

			brands, err := pricing.FetchBrands(cmd.Context())
			if err != nil {
				return err
			}
			brands = matching.Filter(brands, query)

			if !withModels {
				return printJSON(cmd.OutOrStdout(), model.BrandsResponse{Brands: brands})
			}

			catalog, err := fetchCatalog(cmd.Context(), pricing, brands, parallel)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), catalog)
		},
	}

	cmd.Flags().StringVarP(&query, "q", "q", "", "Filter brands (case and accent insensitive)")
	cmd.Flags().BoolVar(&withModels, "models", false, "Also fetch the models of every listed brand")
	cmd.Flags().IntVar(&parallel, "parallel", 4, "Concurrent model lookups with --models")
	return cmd
}

func (a *app) modelsCmd() *cobra.Command {
	var query string

	cmd := &cobra.Command{
		Use:   "models <brand>",
		Short: "List the models of a brand",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pricing := a.pricing()
			defer pricing.Close()

			models, err := pricing.FetchModels(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), model.ModelsResponse{
				Brand:  args[0],
				Models: matching.Filter(models, query),
			})
		},
	}

	cmd.Flags().StringVarP(&query, "q", "q", "", "Filter models (case and accent insensitive)")
	return cmd
}

// fetchCatalog looks up the models of every brand, at most parallel at a time.
func fetchCatalog(ctx context.Context, pricing *client.PricingClient, brands []string, parallel int) ([]model.ModelsResponse, error) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(parallel, 1))

	var mu sync.Mutex
	byBrand := make(map[string][]string, len(brands))
	for _, brand := range brands {
		brand := brand
		g.Go(func() error {
			models, err := pricing.FetchModels(ctx, brand)
			if err != nil {
				return fmt.Errorf("models of %s: %w", brand, err)
			}
			mu.Lock()
			byBrand[brand] = models
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]model.ModelsResponse, 0, len(brands))
	for _, brand := range brands {
		out = append(out, model.ModelsResponse{Brand: brand, Models: byBrand[brand]})
	}
	return out, nil
}
