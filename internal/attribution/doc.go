// Package attribution resolves analytics requests against the pre-aggregated
// attribution sources and computes channel/campaign/ad performance.
//
// The package owns three concerns: routing an attribution model to the source
// holding orders credited under that model, assembling the validated filter
// set for a request (shape depends on the channel's classification), and
// aggregating credited order rows plus ad spend into performance rows.
// It never talks SQL; all fetching goes through warehouse.Querier.
package attribution
