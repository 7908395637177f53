package warehouse

import "time"

// SourceID names a pre-aggregated source in the warehouse. Each attribution
// model writes its credited order rows into its own source; touchpoint events
// live in a single lifetime source.
type SourceID string

// OrderRow is one credited order row from an attribution source. Under the
// linear models a single order appears once per credited touchpoint with a
// fractional Credit; under the single-touch models Credit is 1.
type OrderRow struct {
	RowID        string
	OrderID      string
	CustomerID   string
	Timestamp    time.Time
	Channel      string
	CampaignName string
	AdCampaignID string
	AdSetID      string
	AdID         string
	Credit       float64
	Revenue      float64
	COGS         float64
	PaymentFees  float64
	Tax          float64
	FirstOrder   bool
}

// SpendRow is one day of ad spend at the finest granularity the platform
// reports (ad when available, otherwise campaign).
type SpendRow struct {
	Date         time.Time
	Channel      string
	CampaignName string
	AdCampaignID string
	AdSetID      string
	AdID         string
	Amount       float64
}

// CustomerOrder is one order of a converting customer, used by the cohort
// pipeline. NetRevenue and the contribution margins are order-level amounts.
type CustomerOrder struct {
	OrderID     string
	CustomerID  string
	Timestamp   time.Time
	NetRevenue  float64
	MarginOne   float64
	MarginThree float64
}

// FirstOrder records when a customer first converted, regardless of any
// product filter. Cohort membership is decided from these rows only.
type FirstOrder struct {
	CustomerID string
	Timestamp  time.Time
}

// TouchEvent is one touchpoint event attached to an order. AdID is empty for
// events that did not come from a paid placement.
type TouchEvent struct {
	EventID   string
	OrderID   string
	Timestamp time.Time
	PageURL   string
	Channel   string
	AdID      string
}
