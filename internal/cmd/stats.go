package cmd

import (
	"fmt"
	"strings"

	"github.com/matthieukhl/freshmart/internal/analytics"
	"github.com/matthieukhl/freshmart/internal/models"
	"github.com/spf13/cobra"
)

var (
	statsFrom string
	statsTo   string
	statsTop  bool
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print dashboard and period analytics",
	Long: `Prints the same figures the admin dashboard shows: the week-over-week
summary and the analytics of a period (last 30 days unless --from/--to are
given, as YYYY-MM-DD or RFC 3339).`,
	RunE: printStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)

	statsCmd.Flags().StringVar(&statsFrom, "from", "", "Period start date")
	statsCmd.Flags().StringVar(&statsTo, "to", "", "Period end date")
	statsCmd.Flags().BoolVar(&statsTop, "top", true, "Show best-selling products")
}

func printStats(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	loc, err := a.cfg.Location()
	if err != nil {
		return err
	}
	from, err := analytics.ParseDate(statsFrom, loc, "from")
	if err != nil {
		return err
	}
	to, err := analytics.ParseDate(statsTo, loc, "to")
	if err != nil {
		return err
	}

	fmt.Println("📊 Fetching dashboard...")
	dash, err := a.analytics.Dashboard(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Println(strings.Repeat("─", 60))
	fmt.Printf("   🧾 Orders:   %d (%+d%% vs last week)\n", dash.TotalOrders, dash.OrdersTrend)
	fmt.Printf("   💰 Revenue:  %.2f (%+d%% vs last week)\n", dash.TotalRevenue, dash.RevenueTrend)
	fmt.Printf("   📦 Products: %d\n", dash.TotalProducts)
	fmt.Printf("   ⏳ Pending:  %d\n", dash.PendingOrders)
	printStatuses(dash.StatusDistribution)

	period, err := a.analytics.Period(cmd.Context(), from, to)
	if err != nil {
		return err
	}

	fmt.Printf("\n📅 Period %s → %s\n", period.From, period.To)
	fmt.Println(strings.Repeat("─", 60))
	fmt.Printf("   🧾 Orders:          %d (%+d%%)\n", period.OrderCount, period.OrderGrowth)
	fmt.Printf("   💰 Revenue:         %.2f (%+d%%)\n", period.TotalRevenue, period.RevenueGrowth)
	fmt.Printf("   🛒 Avg order value: %.0f (%+d%%)\n", period.AverageOrderValue, period.AOVGrowth)
	fmt.Printf("   ✅ Completion rate: %d%% (%+d%%)\n", period.CompletionRate, period.CompletionRateGrowth)

	if high := period.DailyRevenue.HighestDay; high != nil {
		fmt.Printf("   📈 Best day:        %s (%.2f)\n", high.Date, high.Revenue)
	}
	if low := period.DailyRevenue.LowestDay; low != nil {
		fmt.Printf("   📉 Slowest day:     %s (%.2f)\n", low.Date, low.Revenue)
	}
	printStatuses(period.StatusDistribution)

	if statsTop && len(period.TopProducts) > 0 {
		fmt.Println("\n🏆 Top products:")
		for i, p := range period.TopProducts {
			fmt.Printf("   #%d %-24s qty %-8g revenue %.2f\n", i+1, p.Name, p.TotalQuantity, p.TotalRevenue)
		}
	}
	return nil
}

func printStatuses(dist map[string]int) {
	for _, status := range models.OrderStatuses {
		if n, ok := dist[status]; ok && n > 0 {
			fmt.Printf("      • %-10s %d\n", status, n)
		}
	}
}
