package attribution

import (
	"fmt"
	"strings"
	"time"

	"github.com/H-M-Zubair/venon-dashboard-sub002/internal/channel"
	"github.com/H-M-Zubair/venon-dashboard-sub002/internal/warehouse"
)

// Grouping is the dimension performance rows are grouped by.
type Grouping string

const (
	GroupChannel  Grouping = "channel"
	GroupCampaign Grouping = "campaign"
	GroupAdSet    Grouping = "ad_set"
	GroupAd       Grouping = "ad"
)

// Bucket is the optional time bucket for a timeseries breakdown.
type Bucket string

const (
	BucketNone  Bucket = ""
	BucketDay   Bucket = "day"
	BucketWeek  Bucket = "week"
	BucketMonth Bucket = "month"
)

// Request is one validated attribution query. Immutable once built; the
// engine computes everything per call and shares nothing across requests.
type Request struct {
	ShopID    string
	StartDate time.Time // inclusive, day precision
	EndDate   time.Time // inclusive, day precision
	Model     Model
	Channel   string

	// EventBased selects event-based attribution: the single lifetime
	// touchpoint source, no window.
	EventBased bool
	// Window applies to order-based attribution only.
	Window Window

	// Campaign is the free-text campaign filter for non-ad-spend channels.
	// The three ad PKs apply to ad-spend channels and AND-compose.
	Campaign     string
	AdCampaignID string
	AdSetID      string
	AdID         string

	FirstTimeOnly bool

	Grouping Grouping
	Bucket   Bucket
}

// FilterSet is the validated, conflict-free predicate set for one request.
// Orders applies to the attribution source, Spend to the daily spend source
// (which has no window, first-time, or shop-private columns).
type FilterSet struct {
	Orders []warehouse.Filter
	Spend  []warehouse.Filter
}

// BuildFilters assembles the filter set for a request. The hierarchy filter
// shape must match the channel classification: non-ad-spend channels accept
// only the free-text campaign filter, ad-spend channels accept any AND
// combination of the three ad PKs. A mismatch fails with
// ErrInvalidFilterShape.
func BuildFilters(req Request, cl channel.Classification) (FilterSet, error) {
	var fs FilterSet

	// Half-open date range so orders on the last day are not truncated.
	rangeEnd := req.EndDate.AddDate(0, 0, 1)
	ch := strings.ToLower(req.Channel)

	fs.Orders = append(fs.Orders,
		warehouse.Filter{Column: warehouse.ColShop, Op: warehouse.OpEq, Value: req.ShopID},
		warehouse.Filter{Column: warehouse.ColTimestamp, Op: warehouse.OpGte, Value: req.StartDate},
		warehouse.Filter{Column: warehouse.ColTimestamp, Op: warehouse.OpLt, Value: rangeEnd},
		warehouse.Filter{Column: warehouse.ColChannel, Op: warehouse.OpEq, Value: ch},
	)

	// Order-based attribution always carries a window predicate. Event-based
	// attribution emits none: the source is lifetime by construction and the
	// absence of the filter is the correct encoding, whatever the request
	// said about windows.
	if !req.EventBased {
		w := req.Window
		if w == "" {
			w = WindowLifetime
		}
		if !validWindows[w] {
			return FilterSet{}, fmt.Errorf("%w: %q", ErrUnknownWindow, string(w))
		}
		fs.Orders = append(fs.Orders,
			warehouse.Filter{Column: warehouse.ColWindow, Op: warehouse.OpEq, Value: string(w)})
	}

	if cl.AdSpend {
		if req.Campaign != "" {
			return FilterSet{}, fmt.Errorf("%w: free-text campaign filter on ad-spend channel %q", ErrInvalidFilterShape, req.Channel)
		}
	} else {
		if req.AdCampaignID != "" || req.AdSetID != "" || req.AdID != "" {
			return FilterSet{}, fmt.Errorf("%w: ad hierarchy filter on non-ad-spend channel %q", ErrInvalidFilterShape, req.Channel)
		}
	}

	var hierarchy []warehouse.Filter
	if req.AdCampaignID != "" {
		hierarchy = append(hierarchy, warehouse.Filter{Column: warehouse.ColAdCampaign, Op: warehouse.OpEq, Value: req.AdCampaignID})
	}
	if req.AdSetID != "" {
		hierarchy = append(hierarchy, warehouse.Filter{Column: warehouse.ColAdSet, Op: warehouse.OpEq, Value: req.AdSetID})
	}
	if req.AdID != "" {
		hierarchy = append(hierarchy, warehouse.Filter{Column: warehouse.ColAd, Op: warehouse.OpEq, Value: req.AdID})
	}
	if req.Campaign != "" {
		hierarchy = append(hierarchy, warehouse.Filter{Column: warehouse.ColCampaign, Op: warehouse.OpEq, Value: req.Campaign})
	}
	fs.Orders = append(fs.Orders, hierarchy...)

	// An absent flag on a row is not an explicit false, so only the
	// true case emits a predicate.
	if req.FirstTimeOnly {
		fs.Orders = append(fs.Orders,
			warehouse.Filter{Column: warehouse.ColFirstOrder, Op: warehouse.OpEq, Value: true})
	}

	fs.Spend = append(fs.Spend,
		warehouse.Filter{Column: warehouse.ColShop, Op: warehouse.OpEq, Value: req.ShopID},
		warehouse.Filter{Column: "SPEND_DATE", Op: warehouse.OpGte, Value: req.StartDate},
		warehouse.Filter{Column: "SPEND_DATE", Op: warehouse.OpLt, Value: rangeEnd},
		warehouse.Filter{Column: warehouse.ColChannel, Op: warehouse.OpEq, Value: ch},
	)
	fs.Spend = append(fs.Spend, hierarchy...)

	return fs, nil
}
