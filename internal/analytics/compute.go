package analytics

import (
	"math"

	"github.com/shopspring/decimal"
)

// Round rounds half up to the nearest integer
func Round(x float64) float64 {
	return math.Floor(x + 0.5)
}

// Trend is the rounded percentage change from previous to current.
// It is 0 when previous is 0 rather than an infinite rate.
func Trend(current, previous float64) int {
	if previous == 0 {
		return 0
	}
	return int(Round((current - previous) / previous * 100))
}

// AverageOrderValue is revenue per order rounded to a whole unit, 0 without orders
func AverageOrderValue(revenue float64, orders int) float64 {
	if orders == 0 {
		return 0
	}
	return Round(revenue / float64(orders))
}

// Percentage is part of total as a rounded percentage, 0 when total is 0
func Percentage(part, total int) int {
	if total == 0 {
		return 0
	}
	return int(Round(float64(part) / float64(total) * 100))
}

// Extremes returns the highest and lowest revenue days. Comparison is
// strict so the earliest day wins a tie. Both are nil without data.
func Extremes(days []DayBucket) (highest, lowest *DayRevenue) {
	if len(days) == 0 {
		return nil, nil
	}

	hi, lo := days[0], days[0]
	for _, d := range days[1:] {
		if d.Revenue > hi.Revenue {
			hi = d
		}
		if d.Revenue < lo.Revenue {
			lo = d
		}
	}
	return &DayRevenue{Date: hi.Date, Revenue: hi.Revenue}, &DayRevenue{Date: lo.Date, Revenue: lo.Revenue}
}

// StatusBreakdown reports each status count next to a "<status>Percentage"
// entry relative to total
func StatusBreakdown(counts map[string]int, total int) map[string]int {
	out := make(map[string]int, len(counts)*2)
	for status, count := range counts {
		out[status] = count
		out[status+"Percentage"] = Percentage(count, total)
	}
	return out
}

// money rounds a summed amount to cents
func money(x float64) float64 {
	return decimal.NewFromFloat(x).Round(2).InexactFloat64()
}
