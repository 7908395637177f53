package warehouse

import (
	"fmt"
	"strings"
)

// Op is a filter comparison operator.
type Op string

const (
	OpEq  Op = "="
	OpGte Op = ">="
	OpLt  Op = "<"
	OpIn  Op = "IN"
)

// Filter is one predicate in a query description. Column names are fixed by
// the source schemas; values are passed as bind parameters, never inlined.
type Filter struct {
	Column string
	Op     Op
	Value  interface{}
}

// Columns shared by the attribution and cohort sources.
const (
	ColShop       = "SHOP_ID"
	ColTimestamp  = "ORDER_TS"
	ColChannel    = "CHANNEL"
	ColCampaign   = "CAMPAIGN_NAME"
	ColAdCampaign = "AD_CAMPAIGN_ID"
	ColAdSet      = "AD_SET_ID"
	ColAd         = "AD_ID"
	ColWindow     = "ATTRIBUTION_WINDOW"
	ColFirstOrder = "IS_FIRST_ORDER"
	ColProduct    = "PRODUCT_ID"
	ColVariant    = "VARIANT_ID"
)

// whereClause compiles filters into a SQL WHERE fragment and its bind args.
// Returns an empty string when there are no filters.
func whereClause(filters []Filter) (string, []interface{}, error) {
	if len(filters) == 0 {
		return "", nil, nil
	}

	var (
		parts []string
		args  []interface{}
	)
	for _, f := range filters {
		switch f.Op {
		case OpEq, OpGte, OpLt:
			parts = append(parts, fmt.Sprintf("%s %s ?", f.Column, f.Op))
			args = append(args, f.Value)
		case OpIn:
			vals, ok := f.Value.([]interface{})
			if !ok || len(vals) == 0 {
				return "", nil, fmt.Errorf("warehouse: IN filter on %s needs a non-empty value list", f.Column)
			}
			placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(vals)), ", ")
			parts = append(parts, fmt.Sprintf("%s IN (%s)", f.Column, placeholders))
			args = append(args, vals...)
		default:
			return "", nil, fmt.Errorf("warehouse: unsupported filter operator %q", f.Op)
		}
	}
	return " WHERE " + strings.Join(parts, " AND "), args, nil
}
