package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/DrewGalowayDev/Awesome/internal/catalog"
	"github.com/DrewGalowayDev/Awesome/internal/selection"
)

type sectionsOptions struct {
	file     string
	api      string
	path     string
	asJSON   bool
	noBundle bool
}

func newSectionsCmd() *cobra.Command {
	opts := &sectionsOptions{}
	cmd := &cobra.Command{
		Use:   "sections",
		Short: "Preview the home page sections",
		Long: `Loads a catalog snapshot from --file, then --api, then the bundled dataset,
and prints every home page section computed over it.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSections(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}
	cmd.Flags().StringVar(&opts.file, "file", "", "Product JSON file used as the primary source")
	cmd.Flags().StringVar(&opts.api, "api", "", "Storefront API base URL used as the secondary source")
	cmd.Flags().StringVar(&opts.path, "path", "/api/products?limit=100", "Products path on the API")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "Print the page as JSON")
	cmd.Flags().BoolVar(&opts.noBundle, "no-bundled", false, "Do not fall back to the bundled dataset")
	return cmd
}

func runSections(ctx context.Context, out io.Writer, opts *sectionsOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	loader := &selection.Loader{
		DisableBundled: opts.noBundle,
		Logger:         log.New(io.Discard, "", 0),
	}
	if opts.file != "" {
		loader.Primary = selection.SourceFunc(func(context.Context) ([]catalog.Product, error) {
			data, err := os.ReadFile(opts.file)
			if err != nil {
				return nil, err
			}
			return catalog.DecodeProducts(data)
		})
	}
	if opts.api != "" {
		client := catalog.NewClient(opts.api, nil)
		loader.Secondary = selection.SourceFunc(func(ctx context.Context) ([]catalog.Product, error) {
			return client.FetchProducts(ctx, opts.path)
		})
	}

	page := loader.Page(ctx, selection.DefaultViews())
	if opts.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(page)
	}

	fmt.Fprintf(out, "origin: %s\n", page.Origin)
	for _, s := range page.Sections {
		state := ""
		if s.Hidden {
			state = " (hidden)"
		}
		fmt.Fprintf(out, "%-14s %-13s %3d products%s\n", s.Name, s.Kind, len(s.Products), state)
	}
	return nil
}
