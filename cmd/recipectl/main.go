// Command recipectl formats recipe files offline.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/pageza/savorly/backend/internal/recipeutil"
)

var Version = "dev"

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "recipectl",
		Short:         "Scale and format dual-unit recipes",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(formatCmd())
	root.AddCommand(fractionCmd())
	return root
}

func formatCmd() *cobra.Command {
	var (
		system   string
		servings int
		asJSON   bool
	)
	cmd := &cobra.Command{
		Use:   "format <file.yaml>",
		Short: "Render every recipe in a YAML file",
		Long: `Render recipes for a unit system and serving count.

Examples:
  recipectl format pancakes.yaml
  recipectl format pancakes.yaml --system us --servings 6
  recipectl format recipes.yaml --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sys, ok := recipeutil.ParseSystem(system)
			if !ok {
				return fmt.Errorf("unknown system %q, use metric or us", system)
			}
			if servings < 0 {
				return fmt.Errorf("servings must be positive, got %d", servings)
			}

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			docs, err := recipeutil.LoadDocuments(f)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}

			rendered := make([]recipeutil.Rendered, len(docs))
			for i, doc := range docs {
				rendered[i] = recipeutil.Render(doc.RenderInput(), servings, sys)
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(rendered)
			}
			for i, r := range rendered {
				if i > 0 {
					fmt.Fprintln(cmd.OutOrStdout())
				}
				printRecipe(cmd.OutOrStdout(), r)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&system, "system", "s", "metric", "unit system (metric, us)")
	cmd.Flags().IntVarP(&servings, "servings", "n", 0, "serving count, 0 keeps the authored count")
	cmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")
	return cmd
}

func printRecipe(w io.Writer, r recipeutil.Rendered) {
	fmt.Fprintf(w, "%s (serves %d)\n\nIngredients:\n", r.Name, r.Servings)
	for _, line := range r.Ingredients {
		fmt.Fprintf(w, "  - %s\n", line)
	}
	if len(r.Instructions) == 0 {
		return
	}
	fmt.Fprintln(w, "\nInstructions:")
	for i, step := range r.Instructions {
		fmt.Fprintf(w, "  %d. %s\n", i+1, step)
	}
}

func fractionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fraction <decimal>",
		Short: "Show a decimal as a kitchen fraction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return fmt.Errorf("not a number: %q", args[0])
			}
			fmt.Fprintln(cmd.OutOrStdout(), recipeutil.ToFraction(v))
			return nil
		},
	}
}
