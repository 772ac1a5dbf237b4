package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"campkitchen/data"
	"campkitchen/ent"
	"campkitchen/export"
	"campkitchen/importer"
	"campkitchen/shopping"
)

type importFunc func(ctx context.Context, r io.Reader, creator importer.Creator, opts ...importer.Option) ([]ent.RecipeWithIngredients, error)

var importers = map[string]importFunc{
	"csv":  importer.CSV,
	"card": importer.Card,
}

func newImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:       "import csv|card FILE",
		Short:     "Import recipes from a delimited table or from recipe cards",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{"csv", "card"},
		RunE: func(cmd *cobra.Command, args []string) error {
			run, ok := importers[args[0]]
			if !ok {
				return fmt.Errorf("unknown import format %q", args[0])
			}

			f, err := os.Open(args[1])
			if err != nil {
				return fmt.Errorf("open %s: %w", args[1], err)
			}
			defer f.Close()

			return a.runImport(cmd, args[0], f, run)
		},
	}
}

func (a *app) runImport(cmd *cobra.Command, kind string, r io.Reader, run importFunc) error {
	batch := uuid.NewString()

	saved, err := run(cmd.Context(), r, a.repo, importer.WithLogger(a.log), importer.WithBatch(batch))
	printf(cmd.OutOrStdout(), "%s: imported %d recipes (batch %s)\n", kind, len(saved), batch)
	return err
}

func newSeedCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load the bundled sample recipes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, sample := range []struct {
				file string
				kind string
			}{
				{data.RecipesCSV, "csv"},
				{data.Cards, "card"},
			} {
				f, err := data.FS.Open(sample.file)
				if err != nil {
					return err
				}
				err = a.runImport(cmd, sample.kind, f, importers[sample.kind])
				f.Close()
				if err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func newExportCmd(a *app) *cobra.Command {
	var out, bucket, key string

	formats := map[string]struct {
		write       func(io.Writer, []ent.RecipeWithIngredients) error
		contentType string
	}{
		"csv":  {export.CSV, "text/csv; charset=utf-8"},
		"text": {export.PlainText, "text/plain; charset=utf-8"},
	}

	cmd := &cobra.Command{
		Use:       "export csv|text",
		Short:     "Export all recipes",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"csv", "text"},
		RunE: func(cmd *cobra.Command, args []string) error {
			format, ok := formats[args[0]]
			if !ok {
				return fmt.Errorf("unknown export format %q", args[0])
			}
			if bucket != "" && key == "" {
				return fmt.Errorf("--s3-key is required with --s3-bucket")
			}

			recipes, err := a.repo.FindAll(cmd.Context())
			if err != nil {
				return err
			}

			var buf bytes.Buffer
			if err := format.write(&buf, recipes); err != nil {
				return err
			}

			switch {
			case bucket != "":
				client, err := export.NewS3Client(cmd.Context(), export.S3Config{
					Region:    a.cfg.S3Region,
					Endpoint:  a.cfg.S3Endpoint,
					AccessKey: a.cfg.S3AccessKey,
					SecretKey: a.cfg.S3SecretKey,
				})
				if err != nil {
					return err
				}
				err = export.NewS3Uploader(client, bucket).Upload(cmd.Context(), key, format.contentType, buf.Bytes())
				if err != nil {
					return err
				}
				printf(cmd.OutOrStdout(), "exported %d recipes to s3://%s/%s\n", len(recipes), bucket, key)
			case out != "":
				if err := os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
					return ent.IOError("write "+out, err)
				}
				printf(cmd.OutOrStdout(), "exported %d recipes to %s\n", len(recipes), out)
			default:
				_, err = cmd.OutOrStdout().Write(buf.Bytes())
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "write to `FILE` instead of stdout")
	cmd.Flags().StringVar(&bucket, "s3-bucket", "", "upload to this S3 bucket")
	cmd.Flags().StringVar(&key, "s3-key", "", "object key for --s3-bucket")
	return cmd
}

func newShoppingListCmd(a *app) *cobra.Command {
	var selects []string

	cmd := &cobra.Command{
		Use:     "shopping-list",
		Short:   "Print the combined shopping list for the selected recipes",
		Example: `  campkitchen-loader shopping-list --select 1:8 --select 2:4`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			selections := make([]ent.RecipeSelection, 0, len(selects))
			for _, s := range selects {
				sel, err := parseSelection(s)
				if err != nil {
					return err
				}
				selections = append(selections, sel)
			}

			agg := shopping.NewAggregator(a.units, a.categorizer, a.log)
			items, err := agg.Generate(cmd.Context(), selections, a.repo.FindByID)
			if err != nil {
				return err
			}

			writeShoppingList(cmd.OutOrStdout(), items)
			return nil
		},
	}

	cmd.Flags().StringArrayVarP(&selects, "select", "s", nil, "recipe and servings as `ID:SERVINGS`, repeatable")
	return cmd
}

func parseSelection(s string) (ent.RecipeSelection, error) {
	idStr, servingsStr, ok := strings.Cut(s, ":")
	if !ok {
		return ent.RecipeSelection{}, fmt.Errorf("%w: selection %q is not ID:SERVINGS", ent.ErrInvalidArgument, s)
	}

	id, err := strconv.ParseInt(strings.TrimSpace(idStr), 10, 64)
	if err != nil {
		return ent.RecipeSelection{}, fmt.Errorf("%w: recipe id in %q", ent.ErrInvalidArgument, s)
	}
	servings, err := strconv.Atoi(strings.TrimSpace(servingsStr))
	if err != nil {
		return ent.RecipeSelection{}, fmt.Errorf("%w: servings in %q", ent.ErrInvalidArgument, s)
	}

	return ent.RecipeSelection{RecipeID: id, Servings: servings}, nil
}

// writeShoppingList prints one line per item, grouped under category
// headings in list order.
func writeShoppingList(w io.Writer, items []ent.ShoppingListItem) {
	heading := ""
	for i, item := range items {
		cat := "Sonstiges"
		if item.Category != nil {
			cat = *item.Category
		}
		if i == 0 || cat != heading {
			if i > 0 {
				printf(w, "\n")
			}
			printf(w, "%s:\n", cat)
			heading = cat
		}

		printf(w, "- %s %s %s", export.FormatAmount(item.TotalAmount), item.Unit, item.Name)
		if len(item.Notes) > 0 {
			printf(w, " (%s)", strings.Join(item.Notes, "; "))
		}
		printf(w, "\n")
	}
}
