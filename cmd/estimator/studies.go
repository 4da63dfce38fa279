package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"car-cost-estimator/internal/handler"
	"car-cost-estimator/internal/model"
)

func (a *app) studiesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "studies",
		Short: "Manage saved studies",
	}
	cmd.AddCommand(
		a.studiesListCmd(),
		a.studiesShowCmd(),
		a.studiesSaveCmd(),
		a.studiesDeleteCmd(),
		a.studiesExportCmd(),
		a.studiesImportCmd(),
	)
	return cmd
}

func (a *app) studiesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved studies, most recent first",
		RunE: func(cmd *cobra.Command, args []string) error {
			studies, err := a.openArchive(cmd.Context())
			if err != nil {
				return err
			}
			defer studies.Close()

			list, err := studies.List(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), model.StudiesResponse{Studies: list})
		},
	}
}

func (a *app) studiesShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print one saved study",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			studies, err := a.openArchive(cmd.Context())
			if err != nil {
				return err
			}
			defer studies.Close()

			study, err := studies.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), study)
		},
	}
}

func (a *app) studiesSaveCmd() *cobra.Command {
	var (
		name      string
		inputPath string
	)

	cmd := &cobra.Command{
		Use:   "save",
		Short: "Save an estimate input under a name",
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := readInput(cmd.InOrStdin(), inputPath)
			if err != nil {
				return err
			}

			studies, err := a.openArchive(cmd.Context())
			if err != nil {
				return err
			}
			defer studies.Close()

			study, err := studies.Save(cmd.Context(), name, in)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), study)
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "Study name (1 to 50 characters)")
	cmd.Flags().StringVarP(&inputPath, "input", "i", "", "Estimate input JSON file")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func (a *app) studiesDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a saved study",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			studies, err := a.openArchive(cmd.Context())
			if err != nil {
				return err
			}
			defer studies.Close()

			return studies.Delete(cmd.Context(), args[0])
		},
	}
}

func (a *app) studiesExportCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every saved study to a JSON file",
		RunE: func(cmd *cobra.Command, args []string) error {
			studies, err := a.openArchive(cmd.Context())
			if err != nil {
				return err
			}
			defer studies.Close()

			data, err := studies.ExportAll(cmd.Context())
			if err != nil {
				return err
			}
			if out == "-" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if out == "" {
				out = handler.ExportFileName(time.Now())
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return fmt.Errorf("failed to write export: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Studies exported to %s\n", out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", `Output file ("-" for stdout, default car-studies-<date>.json)`)
	return cmd
}

func (a *app) studiesImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Replace every saved study with the contents of an export file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read import file: %w", err)
			}

			studies, err := a.openArchive(cmd.Context())
			if err != nil {
				return err
			}
			defer studies.Close()

			n, err := studies.ImportAll(cmd.Context(), data)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d studies\n", n)
			return nil
		},
	}
}
