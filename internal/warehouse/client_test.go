package warehouse

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWhereClause(t *testing.T) {
	where, args, err := whereClause([]Filter{
		{Column: ColTimestamp, Op: OpGte, Value: "2024-01-01"},
		{Column: ColTimestamp, Op: OpLt, Value: "2024-02-01"},
		{Column: ColChannel, Op: OpEq, Value: "meta-ads"},
	})
	require.NoError(t, err)

	assert.Equal(t, " WHERE ORDER_TS >= ? AND ORDER_TS < ? AND CHANNEL = ?", where)
	assert.Equal(t, []interface{}{"2024-01-01", "2024-02-01", "meta-ads"}, args)
}

func TestWhereClauseIn(t *testing.T) {
	where, args, err := whereClause([]Filter{
		{Column: ColAd, Op: OpIn, Value: []interface{}{"ad-1", "ad-2"}},
	})
	require.NoError(t, err)

	assert.Equal(t, " WHERE AD_ID IN (?, ?)", where)
	assert.Equal(t, []interface{}{"ad-1", "ad-2"}, args)
}

func TestWhereClauseEmpty(t *testing.T) {
	where, args, err := whereClause(nil)
	require.NoError(t, err)
	assert.Empty(t, where)
	assert.Nil(t, args)
}

func TestWhereClauseRejectsEmptyIn(t *testing.T) {
	_, _, err := whereClause([]Filter{{Column: ColAd, Op: OpIn, Value: []interface{}{}}})
	require.Error(t, err)
}

func TestOrderRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	client := NewClientWithDB(db)

	ts := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{
		"ROW_ID", "ORDER_ID", "CUSTOMER_ID", "ORDER_TS", "CHANNEL", "CAMPAIGN_NAME",
		"AD_CAMPAIGN_ID", "AD_SET_ID", "AD_ID", "CREDIT", "REVENUE", "COGS",
		"PAYMENT_FEES", "TAX", "IS_FIRST_ORDER",
	}).AddRow("r1", "o1", "c1", ts, "meta-ads", "", "cmp-1", "set-1", "ad-1",
		0.5, 120.0, 40.0, 3.5, 10.0, true)

	mock.ExpectQuery("SELECT ROW_ID, ORDER_ID, CUSTOMER_ID, ORDER_TS").
		WithArgs("shop-1").
		WillReturnRows(rows)

	got, err := client.OrderRows(context.Background(), "ORDERS_ATTR_FIRST_CLICK",
		[]Filter{{Column: ColShop, Op: OpEq, Value: "shop-1"}})
	require.NoError(t, err)
	require.Len(t, got, 1)

	assert.Equal(t, "o1", got[0].OrderID)
	assert.Equal(t, 0.5, got[0].Credit)
	assert.True(t, got[0].FirstOrder)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRowsWrapsStorageError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	client := NewClientWithDB(db)

	mock.ExpectQuery("SELECT ROW_ID").WillReturnError(errors.New("warehouse suspended"))

	_, err = client.OrderRows(context.Background(), "ORDERS_ATTR_LAST_CLICK", nil)
	require.Error(t, err)

	var se *StorageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, SourceID("ORDERS_ATTR_LAST_CLICK"), se.Source)
	assert.Contains(t, se.Error(), "warehouse suspended")
}

func TestOrderExists(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	client := NewClientWithDB(db)

	mock.ExpectQuery("SELECT COUNT").
		WithArgs("shop-1", "o-404").
		WillReturnRows(sqlmock.NewRows([]string{"COUNT"}).AddRow(0))

	ok, err := client.OrderExists(context.Background(), "shop-1", "o-404")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSpendRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	client := NewClientWithDB(db)

	day := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT SPEND_DATE, CHANNEL").
		WithArgs("meta-ads").
		WillReturnRows(sqlmock.NewRows([]string{
			"SPEND_DATE", "CHANNEL", "CAMPAIGN_NAME", "AD_CAMPAIGN_ID", "AD_SET_ID", "AD_ID", "AMOUNT",
		}).AddRow(day, "meta-ads", "", "cmp-1", "set-1", "ad-1", 250.0))

	got, err := client.SpendRows(context.Background(),
		[]Filter{{Column: ColChannel, Op: OpEq, Value: "meta-ads"}})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 250.0, got[0].Amount)
}
