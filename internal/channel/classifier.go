// Package channel classifies marketing channels for attribution reporting.
//
// A channel is either an ad-spend channel (paid media with spend attached) or
// not, and an ad-spend channel may additionally be "managed" (we can read and
// mutate its budget/status programmatically). Every managed channel is an
// ad-spend channel; the reverse does not hold. Classification drives which
// filter shape a request may carry and which result variant a report uses, so
// it is decided exactly once per request and carried through explicitly.
package channel

import "strings"

// Classification is the category pair for a single channel.
type Classification struct {
	AdSpend bool
	Managed bool
}

// ResultKind is the report variant selected by classification. Ad-spend
// channels report against the ad hierarchy (campaign/ad-set/ad); everything
// else reports against free-text campaign names.
type ResultKind string

const (
	AdHierarchyResult  ResultKind = "ad_hierarchy"
	CampaignListResult ResultKind = "campaign_list"
)

// Classifier answers membership questions about channels. The membership
// sets are injected at construction so tests and tenant overrides can swap
// them without touching package state. Safe for concurrent use; it is
// immutable after construction.
type Classifier struct {
	adSpend map[string]bool
	managed map[string]bool
}

// NewClassifier builds a classifier from the given membership lists.
// Matching is case-insensitive. Managed channels that do not appear in the
// ad-spend list are still treated as ad-spend; the config layer validates
// the subset rule before we get here.
func NewClassifier(adSpend, managed []string) *Classifier {
	c := &Classifier{
		adSpend: make(map[string]bool, len(adSpend)),
		managed: make(map[string]bool, len(managed)),
	}
	for _, ch := range adSpend {
		c.adSpend[strings.ToLower(ch)] = true
	}
	for _, ch := range managed {
		key := strings.ToLower(ch)
		c.managed[key] = true
		c.adSpend[key] = true
	}
	return c
}

// Classify returns the category pair for a channel. Total function: unknown
// channels classify as non-ad-spend, unmanaged.
func (c *Classifier) Classify(channel string) Classification {
	key := strings.ToLower(channel)
	return Classification{
		AdSpend: c.adSpend[key],
		Managed: c.managed[key],
	}
}

// Kind returns the report variant for a classification.
func Kind(cl Classification) ResultKind {
	if cl.AdSpend {
		return AdHierarchyResult
	}
	return CampaignListResult
}
