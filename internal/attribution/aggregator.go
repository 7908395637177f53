package attribution

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/H-M-Zubair/venon-dashboard-sub002/internal/warehouse"
)

// PerformanceRow is one aggregated row per grouping key (and per time bucket
// when a series was requested). AttributedOrders may be fractional under the
// linear models; DistinctOrders is always integral.
type PerformanceRow struct {
	Key         string    `json:"key"`
	PeriodStart time.Time `json:"period_start,omitempty"`

	AttributedOrders  float64 `json:"attributed_orders"`
	AttributedRevenue float64 `json:"attributed_revenue"`
	DistinctOrders    int     `json:"distinct_orders_touched"`
	AttributedCOGS    float64 `json:"attributed_cogs"`
	PaymentFees       float64 `json:"payment_fees"`
	Tax               float64 `json:"tax"`
	AdSpend           float64 `json:"ad_spend"`
	ROAS              float64 `json:"roas"`
	NetProfit         float64 `json:"net_profit"`
	ProfitMargin      float64 `json:"profit_margin"`

	FirstTimeOrders  float64 `json:"first_time_orders"`
	FirstTimeRevenue float64 `json:"first_time_revenue"`
	RepeatOrders     float64 `json:"repeat_orders"`
	RepeatRevenue    float64 `json:"repeat_revenue"`
}

// Aggregator computes performance rows from credited orders and ad spend.
type Aggregator struct {
	querier warehouse.Querier
}

// NewAggregator creates an aggregator over the given query surface.
func NewAggregator(q warehouse.Querier) *Aggregator {
	return &Aggregator{querier: q}
}

// group is the mutable accumulator for one (key, period) cell.
type group struct {
	row      PerformanceRow
	orderIDs map[string]bool
	latest   time.Time
}

// Aggregate executes the filter set against an attribution source and folds
// the rows into performance rows under the requested grouping. Ratios are
// derived after summation; averaging per-row ratios would bias toward
// low-volume rows.
func (a *Aggregator) Aggregate(ctx context.Context, source warehouse.SourceID, fs FilterSet, grouping Grouping, bucket Bucket) ([]PerformanceRow, error) {
	orders, err := a.querier.OrderRows(ctx, source, fs.Orders)
	if err != nil {
		return nil, err
	}
	spend, err := a.querier.SpendRows(ctx, fs.Spend)
	if err != nil {
		return nil, err
	}
	return fold(orders, spend, grouping, bucket), nil
}

// AggregateWithSeries computes the grouped totals and, when bucket is set,
// the time-bucketed series over the same fetched rows, so one warehouse
// round trip serves both views.
func (a *Aggregator) AggregateWithSeries(ctx context.Context, source warehouse.SourceID, fs FilterSet, grouping Grouping, bucket Bucket) (rows, series []PerformanceRow, err error) {
	orders, err := a.querier.OrderRows(ctx, source, fs.Orders)
	if err != nil {
		return nil, nil, err
	}
	spend, err := a.querier.SpendRows(ctx, fs.Spend)
	if err != nil {
		return nil, nil, err
	}
	rows = fold(orders, spend, grouping, BucketNone)
	if bucket != BucketNone {
		series = fold(orders, spend, grouping, bucket)
	}
	return rows, series, nil
}

func fold(orders []warehouse.OrderRow, spend []warehouse.SpendRow, grouping Grouping, bucket Bucket) []PerformanceRow {
	groups := make(map[string]*group)

	get := func(key string, period time.Time) *group {
		mapKey := key + "\x00" + period.Format(time.RFC3339)
		g, ok := groups[mapKey]
		if !ok {
			g = &group{
				row:      PerformanceRow{Key: key, PeriodStart: period},
				orderIDs: make(map[string]bool),
			}
			groups[mapKey] = g
		}
		return g
	}

	for _, o := range orders {
		g := get(orderKey(o, grouping), bucketStart(o.Timestamp, bucket))
		g.row.AttributedOrders += o.Credit
		g.row.AttributedRevenue += o.Credit * o.Revenue
		g.row.AttributedCOGS += o.Credit * o.COGS
		g.row.PaymentFees += o.Credit * o.PaymentFees
		g.row.Tax += o.Credit * o.Tax
		g.orderIDs[o.OrderID] = true
		if o.FirstOrder {
			g.row.FirstTimeOrders += o.Credit
			g.row.FirstTimeRevenue += o.Credit * o.Revenue
		} else {
			g.row.RepeatOrders += o.Credit
			g.row.RepeatRevenue += o.Credit * o.Revenue
		}
		if o.Timestamp.After(g.latest) {
			g.latest = o.Timestamp
		}
	}

	for _, s := range spend {
		g := get(spendKey(s, grouping), bucketStart(s.Date, bucket))
		g.row.AdSpend += s.Amount
		if s.Date.After(g.latest) {
			g.latest = s.Date
		}
	}

	rows := make([]PerformanceRow, 0, len(groups))
	order := make(map[string]time.Time, len(groups))
	for _, g := range groups {
		g.row.DistinctOrders = len(g.orderIDs)
		if g.row.AdSpend > 0 {
			g.row.ROAS = g.row.AttributedRevenue / g.row.AdSpend
		}
		g.row.NetProfit = g.row.AttributedRevenue - g.row.AttributedCOGS -
			g.row.PaymentFees - g.row.Tax - g.row.AdSpend
		if g.row.AttributedRevenue != 0 {
			g.row.ProfitMargin = g.row.NetProfit / g.row.AttributedRevenue
		}
		order[g.row.Key+"\x00"+g.row.PeriodStart.Format(time.RFC3339)] = g.latest
		rows = append(rows, g.row)
	}

	// Latest activity first; key breaks exact timestamp ties so output is
	// deterministic without pagination.
	sort.SliceStable(rows, func(i, j int) bool {
		ti := order[rows[i].Key+"\x00"+rows[i].PeriodStart.Format(time.RFC3339)]
		tj := order[rows[j].Key+"\x00"+rows[j].PeriodStart.Format(time.RFC3339)]
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return rows[i].Key < rows[j].Key
	})
	return rows
}

func orderKey(o warehouse.OrderRow, grouping Grouping) string {
	switch grouping {
	case GroupCampaign:
		if o.AdCampaignID != "" {
			return o.AdCampaignID
		}
		return o.CampaignName
	case GroupAdSet:
		return o.AdSetID
	case GroupAd:
		return o.AdID
	default:
		return strings.ToLower(o.Channel)
	}
}

func spendKey(s warehouse.SpendRow, grouping Grouping) string {
	switch grouping {
	case GroupCampaign:
		if s.AdCampaignID != "" {
			return s.AdCampaignID
		}
		return s.CampaignName
	case GroupAdSet:
		return s.AdSetID
	case GroupAd:
		return s.AdID
	default:
		return strings.ToLower(s.Channel)
	}
}

// bucketStart truncates a timestamp to its bucket start in UTC. BucketNone
// maps everything to the zero time, collapsing the series dimension.
func bucketStart(t time.Time, bucket Bucket) time.Time {
	if bucket == BucketNone {
		return time.Time{}
	}
	t = t.UTC()
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	switch bucket {
	case BucketWeek:
		// Weeks start on Monday.
		offset := (int(day.Weekday()) + 6) % 7
		return day.AddDate(0, 0, -offset)
	case BucketMonth:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	default:
		return day
	}
}
