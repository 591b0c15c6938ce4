package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	doc := `
products:
  - name: Whole Milk
    description: Fresh whole milk
    price: 1.2
    category: dairy
    unit: liter
    maxQuantity: 6
    imageUrl: https://images.example.com/milk.jpg
  - name: Eggs
    description: Free range
    price: 3.35
    category: dairy
    unit: dozen
    maxQuantity: 3
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	products, err := readCatalog(path)
	require.NoError(t, err)
	require.Len(t, products, 2)

	assert.Equal(t, "Whole Milk", products[0].Name)
	assert.Equal(t, 1.2, products[0].Price)
	assert.Equal(t, "liter", products[0].Unit)
	assert.Equal(t, 6.0, products[0].MaxQuantity)
	assert.Equal(t, "https://images.example.com/milk.jpg", products[0].ImageURL)
	assert.Empty(t, products[1].ImageURL)
}

func TestReadCatalogErrors(t *testing.T) {
	_, err := readCatalog(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("products: [\n"), 0o600))
	_, err = readCatalog(path)
	assert.Error(t, err)
}

func TestPluralize(t *testing.T) {
	assert.Equal(t, "", pluralize(1))
	assert.Equal(t, "s", pluralize(0))
	assert.Equal(t, "s", pluralize(3))
}
