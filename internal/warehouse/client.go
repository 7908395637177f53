// Package warehouse is the query surface over the analytics warehouse.
//
// The warehouse is an opaque queryable store: pre-aggregated attribution
// sources, the raw orders source, daily ad spend, and order touchpoint
// events. This package only fetches typed rows under a filter set; all
// grouping and metric math happens in the attribution/cohort/timeline
// packages so it can be tested without a database.
package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/snowflakedb/gosnowflake" // Snowflake driver
)

// Non-attribution sources. The per-model attribution sources are resolved by
// the attribution router.
const (
	SourceOrders      SourceID = "ORDERS"
	SourceAdSpend     SourceID = "AD_SPEND_DAILY"
	SourceTouchEvents SourceID = "ORDER_TOUCH_EVENTS"
)

// Querier is the read contract the engine components depend on.
// Implementations must be safe for concurrent use.
type Querier interface {
	// OrderRows returns credited order rows from an attribution source.
	OrderRows(ctx context.Context, source SourceID, filters []Filter) ([]OrderRow, error)

	// SpendRows returns daily ad spend rows matching the filters.
	SpendRows(ctx context.Context, filters []Filter) ([]SpendRow, error)

	// FirstOrders returns each customer's first conversion in the shop,
	// unaffected by any product filter.
	FirstOrders(ctx context.Context, shopID string) ([]FirstOrder, error)

	// CustomerOrders returns orders for the shop matching the filters.
	CustomerOrders(ctx context.Context, shopID string, filters []Filter) ([]CustomerOrder, error)

	// OrderExists reports whether the order exists and belongs to the shop.
	OrderExists(ctx context.Context, shopID, orderID string) (bool, error)

	// TouchEvents returns the touchpoint events recorded for an order.
	TouchEvents(ctx context.Context, shopID, orderID string) ([]TouchEvent, error)
}

// Config holds Snowflake connection settings.
type Config struct {
	Account   string
	User      string
	Password  string
	Database  string
	Schema    string
	Warehouse string
}

// Client provides access to the Snowflake warehouse.
type Client struct {
	config Config
	db     *sql.DB
}

// Client implements Querier.
var _ Querier = (*Client)(nil)

// NewClient opens a Snowflake connection pool.
func NewClient(cfg Config) (*Client, error) {
	// DSN format: user:password@account/database/schema?warehouse=xxx
	dsn := fmt.Sprintf("%s:%s@%s/%s/%s",
		cfg.User,
		cfg.Password,
		cfg.Account,
		cfg.Database,
		cfg.Schema,
	)
	if cfg.Warehouse != "" {
		dsn += "?warehouse=" + cfg.Warehouse
	}

	db, err := sql.Open("snowflake", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open snowflake connection: %w", err)
	}

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	return &Client{config: cfg, db: db}, nil
}

// NewClientWithDB wraps an existing database handle. Used by tests.
func NewClientWithDB(db *sql.DB) *Client {
	return &Client{db: db}
}

// Close closes the database connection
func (c *Client) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// Ping tests the database connection
func (c *Client) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// OrderRows returns credited order rows from the given attribution source.
func (c *Client) OrderRows(ctx context.Context, source SourceID, filters []Filter) ([]OrderRow, error) {
	where, args, err := whereClause(filters)
	if err != nil {
		return nil, storageErr(source, err)
	}

	query := fmt.Sprintf(`
		SELECT ROW_ID, ORDER_ID, CUSTOMER_ID, ORDER_TS, CHANNEL, CAMPAIGN_NAME,
		       AD_CAMPAIGN_ID, AD_SET_ID, AD_ID, CREDIT, REVENUE, COGS,
		       PAYMENT_FEES, TAX, IS_FIRST_ORDER
		FROM %s%s
		ORDER BY ORDER_TS DESC, ROW_ID ASC
	`, source, where)

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageErr(source, err)
	}
	defer rows.Close()

	var result []OrderRow
	for rows.Next() {
		var r OrderRow
		if err := rows.Scan(&r.RowID, &r.OrderID, &r.CustomerID, &r.Timestamp,
			&r.Channel, &r.CampaignName, &r.AdCampaignID, &r.AdSetID, &r.AdID,
			&r.Credit, &r.Revenue, &r.COGS, &r.PaymentFees, &r.Tax, &r.FirstOrder); err != nil {
			return nil, storageErr(source, fmt.Errorf("failed to scan row: %w", err))
		}
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(source, err)
	}
	return result, nil
}

// SpendRows returns daily ad spend rows matching the filters.
func (c *Client) SpendRows(ctx context.Context, filters []Filter) ([]SpendRow, error) {
	where, args, err := whereClause(filters)
	if err != nil {
		return nil, storageErr(SourceAdSpend, err)
	}

	query := fmt.Sprintf(`
		SELECT SPEND_DATE, CHANNEL, CAMPAIGN_NAME, AD_CAMPAIGN_ID, AD_SET_ID, AD_ID, AMOUNT
		FROM %s%s
		ORDER BY SPEND_DATE DESC
	`, SourceAdSpend, where)

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageErr(SourceAdSpend, err)
	}
	defer rows.Close()

	var result []SpendRow
	for rows.Next() {
		var r SpendRow
		if err := rows.Scan(&r.Date, &r.Channel, &r.CampaignName,
			&r.AdCampaignID, &r.AdSetID, &r.AdID, &r.Amount); err != nil {
			return nil, storageErr(SourceAdSpend, fmt.Errorf("failed to scan row: %w", err))
		}
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(SourceAdSpend, err)
	}
	return result, nil
}

// FirstOrders returns each customer's first conversion timestamp for the shop.
func (c *Client) FirstOrders(ctx context.Context, shopID string) ([]FirstOrder, error) {
	query := fmt.Sprintf(`
		SELECT CUSTOMER_ID, MIN(ORDER_TS) AS FIRST_TS
		FROM %s
		WHERE SHOP_ID = ?
		GROUP BY CUSTOMER_ID
		ORDER BY FIRST_TS ASC, CUSTOMER_ID ASC
	`, SourceOrders)

	rows, err := c.db.QueryContext(ctx, query, shopID)
	if err != nil {
		return nil, storageErr(SourceOrders, err)
	}
	defer rows.Close()

	var result []FirstOrder
	for rows.Next() {
		var r FirstOrder
		if err := rows.Scan(&r.CustomerID, &r.Timestamp); err != nil {
			return nil, storageErr(SourceOrders, fmt.Errorf("failed to scan row: %w", err))
		}
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(SourceOrders, err)
	}
	return result, nil
}

// CustomerOrders returns orders for the shop matching the filters.
func (c *Client) CustomerOrders(ctx context.Context, shopID string, filters []Filter) ([]CustomerOrder, error) {
	all := append([]Filter{{Column: ColShop, Op: OpEq, Value: shopID}}, filters...)
	where, args, err := whereClause(all)
	if err != nil {
		return nil, storageErr(SourceOrders, err)
	}

	query := fmt.Sprintf(`
		SELECT ORDER_ID, CUSTOMER_ID, ORDER_TS, NET_REVENUE, MARGIN_ONE, MARGIN_THREE
		FROM %s%s
		ORDER BY ORDER_TS ASC, ORDER_ID ASC
	`, SourceOrders, where)

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageErr(SourceOrders, err)
	}
	defer rows.Close()

	var result []CustomerOrder
	for rows.Next() {
		var r CustomerOrder
		if err := rows.Scan(&r.OrderID, &r.CustomerID, &r.Timestamp,
			&r.NetRevenue, &r.MarginOne, &r.MarginThree); err != nil {
			return nil, storageErr(SourceOrders, fmt.Errorf("failed to scan row: %w", err))
		}
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(SourceOrders, err)
	}
	return result, nil
}

// OrderExists reports whether the order exists and belongs to the shop.
func (c *Client) OrderExists(ctx context.Context, shopID, orderID string) (bool, error) {
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE SHOP_ID = ? AND ORDER_ID = ?`, SourceOrders)

	var count int64
	if err := c.db.QueryRowContext(ctx, query, shopID, orderID).Scan(&count); err != nil {
		return false, storageErr(SourceOrders, err)
	}
	return count > 0, nil
}

// TouchEvents returns the touchpoint events recorded for an order.
func (c *Client) TouchEvents(ctx context.Context, shopID, orderID string) ([]TouchEvent, error) {
	query := fmt.Sprintf(`
		SELECT EVENT_ID, ORDER_ID, EVENT_TS, PAGE_URL, CHANNEL, AD_ID
		FROM %s
		WHERE SHOP_ID = ? AND ORDER_ID = ?
		ORDER BY EVENT_TS DESC, EVENT_ID ASC
	`, SourceTouchEvents)

	rows, err := c.db.QueryContext(ctx, query, shopID, orderID)
	if err != nil {
		return nil, storageErr(SourceTouchEvents, err)
	}
	defer rows.Close()

	var result []TouchEvent
	for rows.Next() {
		var r TouchEvent
		if err := rows.Scan(&r.EventID, &r.OrderID, &r.Timestamp, &r.PageURL, &r.Channel, &r.AdID); err != nil {
			return nil, storageErr(SourceTouchEvents, fmt.Errorf("failed to scan row: %w", err))
		}
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(SourceTouchEvents, err)
	}
	return result, nil
}
