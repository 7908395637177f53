// Package cohort computes acquisition-cohort economics: retention, CAC, LTV
// and payback per cohort period.
//
// Customers are bucketed by the period of their first order overall; optional
// product/variant filters narrow every metric downstream but never move a
// customer between cohorts. Incremental per-period metrics are folded first,
// then cumulative and ratio metrics are derived from running sums so that LTV
// always reflects total value-to-date.
package cohort

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/H-M-Zubair/venon-dashboard-sub002/internal/warehouse"
)

// Request is one validated cohort query.
type Request struct {
	ShopID      string
	StartDate   time.Time // inclusive: cohorts acquired from this day
	EndDate     time.Time // inclusive: cohorts acquired through this day
	Granularity Granularity
	MaxPeriods  int

	// Optional filters restricting which orders count toward metrics.
	ProductID string
	VariantID string
}

// PeriodMetrics holds one cohort period: incremental metrics for the period
// itself plus cumulative metrics accumulated from period 0 through it.
type PeriodMetrics struct {
	Period          int     `json:"period"`
	ActiveCustomers int     `json:"active_customers"`
	Orders          int     `json:"orders"`
	NetRevenue      float64 `json:"net_revenue"`
	MarginOne       float64 `json:"contribution_margin_one"`
	MarginThree     float64 `json:"contribution_margin_three"`
	AvgOrderValue   float64 `json:"average_order_value"`

	LTVToDate       float64 `json:"ltv_to_date"`
	NetLTVToDate    float64 `json:"net_ltv_to_date"`
	LTVToCACRatio   float64 `json:"ltv_to_cac_ratio"`
	PaybackAchieved bool    `json:"is_payback_achieved"`
}

// Cohort is one acquisition cohort, identified by its period start date.
type Cohort struct {
	CohortStart    time.Time       `json:"cohort_start"`
	Size           int             `json:"cohort_size"`
	AdSpend        float64         `json:"cohort_ad_spend"`
	CACPerCustomer float64         `json:"cac_per_customer"`
	Periods        []PeriodMetrics `json:"periods"`
}

// Aggregator computes cohort reports over the warehouse query surface.
type Aggregator struct {
	querier    warehouse.Querier
	maxPeriods int
}

// NewAggregator creates a cohort aggregator. maxPeriods caps how many
// relative periods any report emits; requests may lower it per call.
func NewAggregator(q warehouse.Querier, maxPeriods int) *Aggregator {
	return &Aggregator{querier: q, maxPeriods: maxPeriods}
}

// cohortAccum is the mutable per-cohort state while folding orders.
type cohortAccum struct {
	start   time.Time
	members map[string]bool
	spend   float64
	periods map[int]*periodAccum
	lastIdx int
}

type periodAccum struct {
	customers map[string]bool
	orders    int
	revenue   float64
	marginOne float64
	marginThr float64
}

// ComputeCohorts runs the cohort pipeline for one request.
func (a *Aggregator) ComputeCohorts(ctx context.Context, req Request) ([]Cohort, error) {
	maxPeriods := req.MaxPeriods
	if maxPeriods <= 0 || maxPeriods > a.maxPeriods {
		maxPeriods = a.maxPeriods
	}

	// Cohort membership comes from first orders overall, before any product
	// filter is applied.
	firsts, err := a.querier.FirstOrders(ctx, req.ShopID)
	if err != nil {
		return nil, err
	}

	rangeEnd := req.EndDate.AddDate(0, 0, 1)
	cohorts := make(map[time.Time]*cohortAccum)
	memberCohort := make(map[string]time.Time)

	for _, f := range firsts {
		if f.Timestamp.Before(req.StartDate) || !f.Timestamp.Before(rangeEnd) {
			continue
		}
		start := periodStart(f.Timestamp, req.Granularity)
		c, ok := cohorts[start]
		if !ok {
			c = &cohortAccum{
				start:   start,
				members: make(map[string]bool),
				periods: make(map[int]*periodAccum),
				lastIdx: -1,
			}
			cohorts[start] = c
		}
		c.members[f.CustomerID] = true
		memberCohort[f.CustomerID] = start
	}

	if len(cohorts) == 0 {
		return []Cohort{}, nil
	}

	// Acquisition spend per cohort period, fetched in parallel. Failures
	// cancel the whole request; there are no partial results.
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		spendErr error
	)
	for _, c := range cohorts {
		wg.Add(1)
		go func(c *cohortAccum) {
			defer wg.Done()
			spend, err := a.cohortSpend(ctx, req.ShopID, c.start, req.Granularity)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if spendErr == nil {
					spendErr = err
				}
				return
			}
			c.spend = spend
		}(c)
	}
	wg.Wait()
	if spendErr != nil {
		return nil, spendErr
	}

	// Orders of cohort members, restricted by the optional product/variant
	// filters. These filters narrow the metrics only; membership above is
	// already fixed.
	orderFilters := []warehouse.Filter{
		{Column: warehouse.ColTimestamp, Op: warehouse.OpGte, Value: req.StartDate},
	}
	if req.ProductID != "" {
		orderFilters = append(orderFilters, warehouse.Filter{Column: warehouse.ColProduct, Op: warehouse.OpEq, Value: req.ProductID})
	}
	if req.VariantID != "" {
		orderFilters = append(orderFilters, warehouse.Filter{Column: warehouse.ColVariant, Op: warehouse.OpEq, Value: req.VariantID})
	}
	orders, err := a.querier.CustomerOrders(ctx, req.ShopID, orderFilters)
	if err != nil {
		return nil, err
	}

	for _, o := range orders {
		start, ok := memberCohort[o.CustomerID]
		if !ok {
			continue
		}
		c := cohorts[start]
		idx := periodIndex(start, o.Timestamp, req.Granularity)
		if idx < 0 || idx >= maxPeriods {
			continue
		}
		p, ok := c.periods[idx]
		if !ok {
			p = &periodAccum{customers: make(map[string]bool)}
			c.periods[idx] = p
		}
		p.customers[o.CustomerID] = true
		p.orders++
		p.revenue += o.NetRevenue
		p.marginOne += o.MarginOne
		p.marginThr += o.MarginThree
		if idx > c.lastIdx {
			c.lastIdx = idx
		}
	}

	// Emit through the last period where at least one cohort still has
	// data; nothing is back-filled with zeros beyond that.
	lastIdx := 0
	for _, c := range cohorts {
		if c.lastIdx > lastIdx {
			lastIdx = c.lastIdx
		}
	}

	result := make([]Cohort, 0, len(cohorts))
	for _, c := range cohorts {
		result = append(result, finalize(c, lastIdx))
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CohortStart.Before(result[j].CohortStart)
	})
	return result, nil
}

// cohortSpend sums ad spend over the cohort's acquisition period.
func (a *Aggregator) cohortSpend(ctx context.Context, shopID string, start time.Time, g Granularity) (float64, error) {
	rows, err := a.querier.SpendRows(ctx, []warehouse.Filter{
		{Column: warehouse.ColShop, Op: warehouse.OpEq, Value: shopID},
		{Column: "SPEND_DATE", Op: warehouse.OpGte, Value: start},
		{Column: "SPEND_DATE", Op: warehouse.OpLt, Value: nextPeriod(start, g)},
	})
	if err != nil {
		return 0, err
	}
	total := 0.0
	for _, r := range rows {
		total += r.Amount
	}
	return total, nil
}

// finalize derives the cohort's cumulative and ratio metrics. Ratios come
// from the running sums, never from a single period's increment.
func finalize(c *cohortAccum, lastIdx int) Cohort {
	out := Cohort{
		CohortStart: c.start,
		Size:        len(c.members),
		AdSpend:     c.spend,
	}
	if out.Size > 0 {
		out.CACPerCustomer = out.AdSpend / float64(out.Size)
	}

	var (
		cumRevenue float64
		cumMargin  float64
		payback    bool
	)
	for idx := 0; idx <= lastIdx; idx++ {
		pm := PeriodMetrics{Period: idx}
		if p, ok := c.periods[idx]; ok {
			pm.ActiveCustomers = len(p.customers)
			pm.Orders = p.orders
			pm.NetRevenue = p.revenue
			pm.MarginOne = p.marginOne
			pm.MarginThree = p.marginThr
			if p.orders > 0 {
				pm.AvgOrderValue = p.revenue / float64(p.orders)
			}
		}

		cumRevenue += pm.NetRevenue
		cumMargin += pm.MarginThree

		if out.Size > 0 {
			pm.LTVToDate = cumRevenue / float64(out.Size)
			pm.NetLTVToDate = cumMargin / float64(out.Size)
		}
		if out.CACPerCustomer > 0 {
			pm.LTVToCACRatio = pm.LTVToDate / out.CACPerCustomer
		}
		// Payback latches: once the cumulative margin per customer covers
		// CAC it never flips back.
		if !payback && out.Size > 0 && pm.NetLTVToDate >= out.CACPerCustomer {
			payback = true
		}
		pm.PaybackAchieved = payback

		out.Periods = append(out.Periods, pm)
	}
	return out
}
