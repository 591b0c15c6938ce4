package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/matthieukhl/freshmart/internal/logging"
	"github.com/matthieukhl/freshmart/internal/models"
	"github.com/matthieukhl/freshmart/internal/types"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

var tracer = otel.Tracer("github.com/matthieukhl/freshmart/internal/analytics")

const (
	day             = 24 * time.Hour
	week            = 7 * day
	defaultPeriod   = 30
	topProductLimit = 5
)

// DayBucket aggregates the orders of one calendar day
type DayBucket struct {
	Date    string  `json:"date"`
	Orders  int     `json:"orders"`
	Revenue float64 `json:"revenue"`
}

type DayRevenue struct {
	Date    string  `json:"date"`
	Revenue float64 `json:"revenue"`
}

type DailyRevenue struct {
	Data       []DayBucket `json:"data"`
	HighestDay *DayRevenue `json:"highestDay"`
	LowestDay  *DayRevenue `json:"lowestDay"`
}

type ProductSales struct {
	ProductID     int64   `json:"productId"`
	Name          string  `json:"name"`
	TotalQuantity float64 `json:"totalQuantity"`
	TotalRevenue  float64 `json:"totalRevenue"`
}

// Dashboard is the all-time snapshot with week-over-week trends
type Dashboard struct {
	TotalOrders        int            `json:"totalOrders"`
	TotalRevenue       float64        `json:"totalRevenue"`
	TotalProducts      int            `json:"totalProducts"`
	PendingOrders      int            `json:"pendingOrders"`
	StatusDistribution map[string]int `json:"statusDistribution"`
	OrdersTrend        int            `json:"ordersTrend"`
	RevenueTrend       int            `json:"revenueTrend"`
}

// Period compares a date range with the preceding range of equal length
type Period struct {
	From                 string         `json:"from"`
	To                   string         `json:"to"`
	OrderCount           int            `json:"orderCount"`
	OrderGrowth          int            `json:"orderGrowth"`
	TotalRevenue         float64        `json:"totalRevenue"`
	RevenueGrowth        int            `json:"revenueGrowth"`
	AverageOrderValue    float64        `json:"averageOrderValue"`
	AOVGrowth            int            `json:"aovGrowth"`
	CompletionRate       int            `json:"completionRate"`
	CompletionRateGrowth int            `json:"completionRateGrowth"`
	DailyRevenue         DailyRevenue   `json:"dailyRevenue"`
	StatusDistribution   map[string]int `json:"statusDistribution"`
	TopProducts          []ProductSales `json:"topProducts"`
}

// OrderSummary is the order analytics view over optional inclusive bounds
type OrderSummary struct {
	TotalOrders    int            `json:"totalOrders"`
	OrdersByStatus map[string]int `json:"ordersByStatus"`
	TotalRevenue   float64        `json:"totalRevenue"`
	DailyData      []DayBucket    `json:"dailyData"`
	TopProducts    []ProductSales `json:"topProducts"`
}

type Service struct {
	q      Querier
	loc    *time.Location
	now    func() time.Time
	logger *slog.Logger
}

func NewService(q Querier, loc *time.Location, logger *slog.Logger) *Service {
	if loc == nil {
		loc = time.Local
	}
	return &Service{
		q:      q,
		loc:    loc,
		now:    time.Now,
		logger: logging.WithComponent(logger, "analytics"),
	}
}

// Dashboard builds the all-time snapshot. Trends compare the last seven
// days with the seven before; both windows include their end points.
func (s *Service) Dashboard(ctx context.Context) (*Dashboard, error) {
	ctx, span := tracer.Start(ctx, "analytics.Dashboard")
	defer span.End()

	now := s.now()
	current := Window{From: now.Add(-week), To: now, Inclusive: true}
	previous := Window{From: now.Add(-2 * week), To: now.Add(-week), Inclusive: true}

	var (
		d                       Dashboard
		all                     Window
		curOrders, prevOrders   int
		curRevenue, prevRevenue float64
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		d.TotalOrders, err = s.q.CountOrders(ctx, all, "")
		return err
	})
	g.Go(func() (err error) {
		d.StatusDistribution, err = s.q.StatusCounts(ctx, all)
		return err
	})
	g.Go(func() (err error) {
		d.TotalRevenue, err = s.q.Revenue(ctx, all)
		return err
	})
	g.Go(func() (err error) {
		d.TotalProducts, err = s.q.CountProducts(ctx)
		return err
	})
	g.Go(func() (err error) {
		d.PendingOrders, err = s.q.CountOrders(ctx, all, models.OrderStatusPending)
		return err
	})
	g.Go(func() (err error) {
		curOrders, err = s.q.CountOrders(ctx, current, "")
		return err
	})
	g.Go(func() (err error) {
		prevOrders, err = s.q.CountOrders(ctx, previous, "")
		return err
	})
	g.Go(func() (err error) {
		curRevenue, err = s.q.Revenue(ctx, current)
		return err
	})
	g.Go(func() (err error) {
		prevRevenue, err = s.q.Revenue(ctx, previous)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to build dashboard: %w", err)
	}

	d.TotalRevenue = money(d.TotalRevenue)
	d.OrdersTrend = Trend(float64(curOrders), float64(prevOrders))
	d.RevenueTrend = Trend(curRevenue, prevRevenue)
	return &d, nil
}

// periodTotals are the figures computed for both sides of a comparison
type periodTotals struct {
	orders         int
	revenue        float64
	aov            float64
	completionRate int
}

func (s *Service) totals(ctx context.Context, w Window) (periodTotals, error) {
	var t periodTotals
	var err error

	if t.orders, err = s.q.CountOrders(ctx, w, ""); err != nil {
		return t, err
	}
	if t.revenue, err = s.q.Revenue(ctx, w); err != nil {
		return t, err
	}
	completed, err := s.q.CountOrders(ctx, w, models.OrderStatusCompleted)
	if err != nil {
		return t, err
	}

	t.aov = AverageOrderValue(t.revenue, t.orders)
	t.completionRate = Percentage(completed, t.orders)
	return t, nil
}

// Period analyses [from, to] with to inclusive at day granularity. A nil
// from defaults to thirty days ago and a nil to defaults to now.
func (s *Service) Period(ctx context.Context, from, to *time.Time) (*Period, error) {
	ctx, span := tracer.Start(ctx, "analytics.Period")
	defer span.End()

	now := s.now().In(s.loc)
	start := now.AddDate(0, 0, -defaultPeriod)
	if from != nil {
		start = *from
	}
	end := now
	if to != nil {
		end = *to
	}
	if end.Before(start) {
		return nil, types.Validation("analytics.Period", "from must not be after to",
			types.FieldError{Field: "from", Message: "must not be after to"})
	}
	reportedTo := end
	end = end.AddDate(0, 0, 1)

	days := int(Round(end.Sub(start).Hours() / 24))
	current := Window{From: start, To: end}
	previous := Window{From: start.AddDate(0, 0, -days), To: start}

	span.SetAttributes(attribute.Int("analytics.days", days))

	var (
		cur, prev periodTotals
		daily     []DayBucket
		statuses  map[string]int
		top       []ProductSales
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		cur, err = s.totals(gctx, current)
		return err
	})
	g.Go(func() (err error) {
		prev, err = s.totals(gctx, previous)
		return err
	})
	g.Go(func() (err error) {
		daily, err = s.q.DailyBuckets(gctx, current, true)
		return err
	})
	g.Go(func() (err error) {
		statuses, err = s.q.StatusCounts(gctx, current)
		return err
	})
	g.Go(func() (err error) {
		top, err = s.q.TopProducts(gctx, current, topProductLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to compute period analytics: %w", err)
	}

	highest, lowest := Extremes(daily)
	p := &Period{
		From:                 start.Format(time.DateOnly),
		To:                   reportedTo.Format(time.DateOnly),
		OrderCount:           cur.orders,
		OrderGrowth:          Trend(float64(cur.orders), float64(prev.orders)),
		TotalRevenue:         money(cur.revenue),
		RevenueGrowth:        Trend(cur.revenue, prev.revenue),
		AverageOrderValue:    cur.aov,
		AOVGrowth:            Trend(cur.aov, prev.aov),
		CompletionRate:       cur.completionRate,
		CompletionRateGrowth: Trend(float64(cur.completionRate), float64(prev.completionRate)),
		DailyRevenue:         DailyRevenue{Data: daily, HighestDay: highest, LowestDay: lowest},
		StatusDistribution:   StatusBreakdown(statuses, cur.orders),
		TopProducts:          top,
	}

	s.logger.Debug("Period analytics computed", "from", p.From, "to", p.To, "orders", p.OrderCount)
	return p, nil
}

// OrderSummary reports totals over optional bounds, both inclusive. Daily
// data covers every status; revenue and top products skip cancelled orders.
func (s *Service) OrderSummary(ctx context.Context, from, to *time.Time) (*OrderSummary, error) {
	ctx, span := tracer.Start(ctx, "analytics.OrderSummary")
	defer span.End()

	w := Window{Inclusive: true}
	if from != nil {
		w.From = *from
	}
	if to != nil {
		w.To = *to
	}

	var (
		summary OrderSummary
		err     error
	)
	if summary.TotalOrders, err = s.q.CountOrders(ctx, w, ""); err != nil {
		return nil, err
	}
	if summary.OrdersByStatus, err = s.q.StatusCounts(ctx, w); err != nil {
		return nil, err
	}
	if summary.TotalRevenue, err = s.q.Revenue(ctx, w); err != nil {
		return nil, err
	}
	if summary.DailyData, err = s.q.DailyBuckets(ctx, w, false); err != nil {
		return nil, err
	}
	if summary.TopProducts, err = s.q.TopProducts(ctx, w, topProductLimit); err != nil {
		return nil, err
	}

	summary.TotalRevenue = money(summary.TotalRevenue)
	return &summary, nil
}

// ParseDate reads a YYYY-MM-DD date (midnight in loc) or an RFC 3339
// timestamp. An empty string yields nil.
func ParseDate(raw string, loc *time.Location, field string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	if t, err := time.ParseInLocation(time.DateOnly, raw, loc); err == nil {
		return &t, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}

	return nil, types.Validation("analytics.ParseDate", fmt.Sprintf("Invalid %s date: %s", field, raw),
		types.FieldError{Field: field, Message: "must be YYYY-MM-DD or an RFC 3339 timestamp"})
}
