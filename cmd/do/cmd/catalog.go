package cmd

import (
	"fmt"
	"os"

	"github.com/noteghar/noteghar/internal/app"
	"github.com/noteghar/noteghar/internal/service"
	"github.com/spf13/cobra"
)

func CatalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Manage courses, semesters and subjects",
	}

	cmd.AddCommand(catalogImportCmd(), catalogListCmd())
	return cmd
}

func catalogImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.yaml>",
		Short: "Create catalog entries from a YAML file, skipping existing ones",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			seed, err := service.ParseCatalogSeed(f)
			if err != nil {
				return err
			}

			return withApp(cmd.Context(), func(a *app.App) error {
				result, err := a.CatalogService.Import(cmd.Context(), systemActor, seed)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "created %d courses, %d semesters, %d subjects (%d skipped)\n",
					result.Courses, result.Semesters, result.Subjects, result.Skipped)
				return nil
			})
		},
	}
}

func catalogListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print the catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(a *app.App) error {
				ctx := cmd.Context()
				out := cmd.OutOrStdout()

				courses, err := a.CatalogService.Courses(ctx)
				if err != nil {
					return err
				}
				for _, c := range courses {
					fmt.Fprintf(out, "%s\t%s\n", c.Code, c.Name)

					subjects, err := a.CatalogService.Subjects(ctx, c.ID, "")
					if err != nil {
						return err
					}
					for _, s := range subjects {
						fmt.Fprintf(out, "  %s\t%s\n", s.Code, s.Name)
					}
				}
				return nil
			})
		},
	}
}
