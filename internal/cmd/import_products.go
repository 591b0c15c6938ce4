package cmd

import (
	"fmt"
	"os"

	"github.com/matthieukhl/freshmart/internal/catalog"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var catalogFile string

var importProductsCmd = &cobra.Command{
	Use:   "import-products",
	Short: "Bulk-load products from a YAML catalog",
	Long: `Reads a YAML file with a top-level "products" list and creates every
product whose name is not in the catalog yet. Each entry needs an imageUrl,
which is copied into the configured image storage.`,
	RunE: importProducts,
}

func init() {
	rootCmd.AddCommand(importProductsCmd)

	importProductsCmd.Flags().StringVar(&catalogFile, "file", "deploy/catalog.yaml", "Path to the catalog file")
}

type catalogDocument struct {
	Products []catalog.ProductInput `yaml:"products"`
}

func readCatalog(path string) ([]catalog.ProductInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var doc catalogDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return doc.Products, nil
}

func importProducts(cmd *cobra.Command, args []string) error {
	fmt.Printf("📦 Importing products from %s...\n", catalogFile)

	inputs, err := readCatalog(catalogFile)
	if err != nil {
		return err
	}
	fmt.Printf("   Found %d products\n", len(inputs))

	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	created, err := a.catalog.Import(cmd.Context(), inputs)
	if err != nil {
		return err
	}

	fmt.Printf("✅ Imported %d products (%d already present)\n", created, len(inputs)-created)
	return nil
}
