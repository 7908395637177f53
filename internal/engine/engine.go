// Package engine exposes the analytics operations the HTTP layer calls.
//
// Each operation is a pure function of its validated parameters: resolve the
// account to a shop scope, classify the channel, build the filter set, run
// the aggregation. Nothing is shared between requests, so the engine is safe
// under unbounded concurrent use. Errors are the sentinel/typed values of
// the underlying packages; a storage failure is never returned as an empty
// result.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/H-M-Zubair/venon-dashboard-sub002/internal/adsmeta"
	"github.com/H-M-Zubair/venon-dashboard-sub002/internal/attribution"
	"github.com/H-M-Zubair/venon-dashboard-sub002/internal/channel"
	"github.com/H-M-Zubair/venon-dashboard-sub002/internal/cohort"
	"github.com/H-M-Zubair/venon-dashboard-sub002/internal/shops"
	"github.com/H-M-Zubair/venon-dashboard-sub002/internal/timeline"
	"github.com/H-M-Zubair/venon-dashboard-sub002/internal/warehouse"
)

// Engine ties the classifier, resolver and aggregators into the request
// operations. Construct once, share freely.
type Engine struct {
	classifier *channel.Classifier
	resolver   shops.Resolver
	attrib     *attribution.Aggregator
	cohorts    *cohort.Aggregator
	timeline   *timeline.Merger
}

// New assembles an engine over the given collaborators.
func New(classifier *channel.Classifier, resolver shops.Resolver, querier warehouse.Querier, ads adsmeta.Lookup, maxCohortPeriods int) *Engine {
	return &Engine{
		classifier: classifier,
		resolver:   resolver,
		attrib:     attribution.NewAggregator(querier),
		cohorts:    cohort.NewAggregator(querier, maxCohortPeriods),
		timeline:   timeline.NewMerger(querier, ads),
	}
}

// PerformanceParams are the raw, already-syntax-checked parameters of a
// performance request. The engine still enforces every semantic rule:
// model and window values, hierarchy filter shape, grouping shape.
type PerformanceParams struct {
	AccountID string
	StartDate time.Time
	EndDate   time.Time
	Model     string
	Channel   string

	EventBased bool
	Window     string

	Campaign     string
	AdCampaignID string
	AdSetID      string
	AdID         string

	FirstTimeOnly bool

	Grouping string
	Bucket   string
}

// PerformanceResult is the tagged report variant. Kind is decided once from
// the channel classification and carried through; consumers must switch on
// it rather than probing rows for hierarchy fields.
type PerformanceResult struct {
	Kind    channel.ResultKind           `json:"kind"`
	Channel string                       `json:"channel"`
	Rows    []attribution.PerformanceRow `json:"rows"`
	Series  []attribution.PerformanceRow `json:"series,omitempty"`
}

// ChannelPerformance runs one attribution report.
func (e *Engine) ChannelPerformance(ctx context.Context, p PerformanceParams) (*PerformanceResult, error) {
	shopID, err := e.resolver.ShopID(ctx, p.AccountID)
	if err != nil {
		return nil, err
	}

	cl := e.classifier.Classify(p.Channel)

	req := attribution.Request{
		ShopID:        shopID,
		StartDate:     p.StartDate,
		EndDate:       p.EndDate,
		Channel:       p.Channel,
		EventBased:    p.EventBased,
		Campaign:      p.Campaign,
		AdCampaignID:  p.AdCampaignID,
		AdSetID:       p.AdSetID,
		AdID:          p.AdID,
		FirstTimeOnly: p.FirstTimeOnly,
	}

	// Event-based attribution bypasses model routing entirely; order-based
	// requests must name a recognized model and window up front.
	source := attribution.EventSource
	if !p.EventBased {
		model, err := attribution.ParseModel(p.Model)
		if err != nil {
			return nil, err
		}
		window, err := attribution.ParseWindow(p.Window)
		if err != nil {
			return nil, err
		}
		req.Model = model
		req.Window = window
		if source, err = attribution.SourceFor(model); err != nil {
			return nil, err
		}
	}

	grouping, err := parseGrouping(p.Grouping, cl)
	if err != nil {
		return nil, err
	}
	req.Grouping = grouping

	bucket, err := parseBucket(p.Bucket)
	if err != nil {
		return nil, err
	}
	req.Bucket = bucket

	fs, err := attribution.BuildFilters(req, cl)
	if err != nil {
		return nil, err
	}

	rows, series, err := e.attrib.AggregateWithSeries(ctx, source, fs, grouping, bucket)
	if err != nil {
		return nil, err
	}

	return &PerformanceResult{
		Kind:    channel.Kind(cl),
		Channel: p.Channel,
		Rows:    rows,
		Series:  series,
	}, nil
}

// CohortParams are the raw parameters of a cohort report.
type CohortParams struct {
	AccountID   string
	StartDate   time.Time
	EndDate     time.Time
	Granularity string
	MaxPeriods  int
	ProductID   string
	VariantID   string
}

// CohortReport computes acquisition-cohort economics.
func (e *Engine) CohortReport(ctx context.Context, p CohortParams) ([]cohort.Cohort, error) {
	shopID, err := e.resolver.ShopID(ctx, p.AccountID)
	if err != nil {
		return nil, err
	}

	granularity, err := cohort.ParseGranularity(p.Granularity)
	if err != nil {
		return nil, err
	}

	return e.cohorts.ComputeCohorts(ctx, cohort.Request{
		ShopID:      shopID,
		StartDate:   p.StartDate,
		EndDate:     p.EndDate,
		Granularity: granularity,
		MaxPeriods:  p.MaxPeriods,
		ProductID:   p.ProductID,
		VariantID:   p.VariantID,
	})
}

// OrderTimeline returns the touchpoint drill-down for one order.
func (e *Engine) OrderTimeline(ctx context.Context, accountID, orderID string) ([]timeline.DayEvents, error) {
	shopID, err := e.resolver.ShopID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return e.timeline.MergeTimeline(ctx, shopID, orderID)
}

// parseGrouping validates the grouping dimension against the channel
// classification: ad hierarchy groupings only make sense for ad-spend
// channels.
func parseGrouping(s string, cl channel.Classification) (attribution.Grouping, error) {
	switch attribution.Grouping(s) {
	case "", attribution.GroupChannel:
		return attribution.GroupChannel, nil
	case attribution.GroupCampaign:
		return attribution.GroupCampaign, nil
	case attribution.GroupAdSet, attribution.GroupAd:
		if !cl.AdSpend {
			return "", fmt.Errorf("%w: grouping %q on non-ad-spend channel", attribution.ErrInvalidFilterShape, s)
		}
		return attribution.Grouping(s), nil
	default:
		return "", fmt.Errorf("%w: unknown grouping %q", attribution.ErrInvalidFilterShape, s)
	}
}

func parseBucket(s string) (attribution.Bucket, error) {
	switch attribution.Bucket(s) {
	case attribution.BucketNone, attribution.BucketDay, attribution.BucketWeek, attribution.BucketMonth:
		return attribution.Bucket(s), nil
	default:
		return "", fmt.Errorf("%w: unknown time bucket %q", attribution.ErrInvalidFilterShape, s)
	}
}
