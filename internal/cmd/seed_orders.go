package cmd

import (
	"fmt"
	"math/rand/v2"

	"github.com/matthieukhl/freshmart/internal/catalog"
	"github.com/matthieukhl/freshmart/internal/models"
	"github.com/matthieukhl/freshmart/internal/orders"
	"github.com/spf13/cobra"
)

var (
	orderCount   int
	maxLines     int
	progressRate float64
)

var seedOrdersCmd = &cobra.Command{
	Use:   "seed-orders",
	Short: "Place sample orders for local testing",
	Long: `Places random orders against the in-stock catalog through the regular
order pipeline, so numbering, snapshots and totals behave exactly as for
real customers. A share of the orders is then moved along the status
lifecycle to give the dashboard something to show.`,
	RunE: seedOrders,
}

func init() {
	rootCmd.AddCommand(seedOrdersCmd)

	seedOrdersCmd.Flags().IntVar(&orderCount, "count", 10, "Number of orders to place")
	seedOrdersCmd.Flags().IntVar(&maxLines, "max-lines", 4, "Maximum number of lines per order")
	seedOrdersCmd.Flags().Float64Var(&progressRate, "progress", 0.6, "Share of orders moved past pending (0-1)")
}

var sampleCustomers = []struct{ name, phone string }{
	{"Alice Martin", "0601020304"},
	{"Bruno Lefevre", "0611223344"},
	{"Chloe Dubois", "0622334455"},
	{"David Moreau", "0633445566"},
	{"Emma Laurent", "0644556677"},
}

func seedOrders(cmd *cobra.Command, args []string) error {
	if orderCount < 1 || maxLines < 1 {
		return fmt.Errorf("--count and --max-lines must be positive")
	}

	fmt.Printf("🛒 Placing %d sample order%s...\n", orderCount, pluralize(orderCount))

	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	page, err := a.catalog.List(cmd.Context(), catalog.ListParams{InStock: "true", Limit: "100"})
	if err != nil {
		return err
	}
	if len(page.Items) == 0 {
		fmt.Println("📭 No products in stock")
		fmt.Println("💡 Try running: freshmart import-products --file deploy/catalog.yaml")
		return nil
	}

	placed := 0
	for i := 0; i < orderCount; i++ {
		customer := sampleCustomers[rand.IntN(len(sampleCustomers))]
		order, err := a.orders.Create(cmd.Context(), orders.CreateInput{
			CustomerName: customer.name,
			Phone:        customer.phone,
			Items:        randomLines(page.Items),
		})
		if err != nil {
			fmt.Printf("   ⚠️  Order %d rejected: %v\n", i+1, err)
			continue
		}
		placed++

		status := randomStatus()
		if status != models.OrderStatusPending {
			if order, err = a.orders.UpdateStatus(cmd.Context(), order.ID, status); err != nil {
				return err
			}
		}
		fmt.Printf("   📝 %s  %-14s %8.2f  %s\n", order.OrderNumber, order.CustomerName, order.TotalAmount, order.Status)
	}

	fmt.Printf("✅ Placed %d order%s\n", placed, pluralize(placed))
	return nil
}

func randomLines(products []models.Product) []orders.ItemInput {
	n := 1 + rand.IntN(maxLines)
	if n > len(products) {
		n = len(products)
	}

	lines := make([]orders.ItemInput, 0, n)
	for _, idx := range rand.Perm(len(products))[:n] {
		p := products[idx]
		quantity := float64(1 + rand.IntN(int(p.MaxQuantity)))
		if p.Unit != models.UnitPiece && rand.IntN(2) == 0 {
			quantity -= 0.5
		}
		lines = append(lines, orders.ItemInput{ProductID: p.ID, Quantity: quantity})
	}
	return lines
}

func randomStatus() string {
	if rand.Float64() >= progressRate {
		return models.OrderStatusPending
	}
	later := models.OrderStatuses[1:]
	return later[rand.IntN(len(later))]
}

func pluralize(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
