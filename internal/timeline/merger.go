// Package timeline builds the per-order touchpoint drill-down: events
// enriched with ad hierarchy names, deduplicated, and bucketed by day.
package timeline

import (
	"context"
	"sort"
	"time"

	"github.com/H-M-Zubair/venon-dashboard-sub002/internal/adsmeta"
	"github.com/H-M-Zubair/venon-dashboard-sub002/internal/warehouse"
)

// Event is one touchpoint on the order's path to conversion. The ad name
// fields are populated only for events that carried an ad identifier the
// metadata store knows.
type Event struct {
	EventID      string    `json:"event_id"`
	Timestamp    time.Time `json:"timestamp"`
	PageURL      string    `json:"page_url"`
	Channel      string    `json:"channel"`
	AdID         string    `json:"ad_id,omitempty"`
	AdName       string    `json:"ad_name,omitempty"`
	AdSetName    string    `json:"ad_set_name,omitempty"`
	CampaignName string    `json:"campaign_name,omitempty"`
}

// DayEvents groups a day's events, most recent first. Date is the event's
// UTC calendar date.
type DayEvents struct {
	Date   string  `json:"date"`
	Events []Event `json:"events"`
}

// Merger assembles order timelines from touchpoint events and ad metadata.
type Merger struct {
	querier warehouse.Querier
	ads     adsmeta.Lookup
}

// NewMerger creates a timeline merger.
func NewMerger(q warehouse.Querier, ads adsmeta.Lookup) *Merger {
	return &Merger{querier: q, ads: ads}
}

// MergeTimeline returns the order's touchpoint timeline bucketed by UTC day,
// newest day first. Fails with ErrOrderNotFound when the order does not
// exist or belongs to another shop; ownership is the whole authorization
// check here.
func (m *Merger) MergeTimeline(ctx context.Context, shopID, orderID string) ([]DayEvents, error) {
	ok, err := m.querier.OrderExists(ctx, shopID, orderID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrOrderNotFound
	}

	raw, err := m.querier.TouchEvents(ctx, shopID, orderID)
	if err != nil {
		return nil, err
	}

	var adIDs []string
	seen := make(map[string]bool)
	for _, e := range raw {
		if e.AdID != "" && !seen[e.AdID] {
			seen[e.AdID] = true
			adIDs = append(adIDs, e.AdID)
		}
	}
	meta, err := m.ads.Lookup(ctx, adIDs)
	if err != nil {
		return nil, err
	}

	events := make([]Event, 0, len(raw))
	for _, e := range raw {
		ev := Event{
			EventID:   e.EventID,
			Timestamp: e.Timestamp,
			PageURL:   e.PageURL,
			Channel:   e.Channel,
			AdID:      e.AdID,
		}
		// Events without an ad identifier, or with one the store does not
		// know, pass through unenriched.
		if am, ok := meta[e.AdID]; ok {
			ev.AdName = am.AdName
			ev.AdSetName = am.AdSetName
			ev.CampaignName = am.CampaignName
		}
		events = append(events, ev)
	}

	sort.SliceStable(events, func(i, j int) bool {
		if !events[i].Timestamp.Equal(events[j].Timestamp) {
			return events[i].Timestamp.After(events[j].Timestamp)
		}
		return events[i].EventID < events[j].EventID
	})

	events = collapseRepeatViews(events)

	// Single grouping pass into day buckets, then an explicit sort by day:
	// day order must not depend on map iteration or first-seen order.
	byDay := make(map[string][]Event)
	for _, e := range events {
		key := e.Timestamp.UTC().Format("2006-01-02")
		byDay[key] = append(byDay[key], e)
	}

	days := make([]DayEvents, 0, len(byDay))
	for date, evs := range byDay {
		days = append(days, DayEvents{Date: date, Events: evs})
	}
	sort.Slice(days, func(i, j int) bool {
		return days[i].Date > days[j].Date
	})
	return days, nil
}

// collapseRepeatViews drops consecutive events sharing the same page URL,
// keeping the most recent of each run. Input is newest-first, so the keeper
// is the first event of a run. This is an intentional lossy dedup of rapid
// repeat pageviews, not a uniqueness guarantee: the same URL may reappear
// later in the timeline after a different page breaks the run.
func collapseRepeatViews(events []Event) []Event {
	if len(events) == 0 {
		return events
	}
	out := events[:1]
	for _, e := range events[1:] {
		if e.PageURL != "" && e.PageURL == out[len(out)-1].PageURL {
			continue
		}
		out = append(out, e)
	}
	return out
}
