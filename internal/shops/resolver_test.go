package shops

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShopID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT shop_id FROM accounts").
		WithArgs("acct-1").
		WillReturnRows(sqlmock.NewRows([]string{"shop_id"}).AddRow("shop-42"))

	got, err := NewPostgresResolver(db).ShopID(context.Background(), "acct-1")
	require.NoError(t, err)
	assert.Equal(t, "shop-42", got)
}

func TestShopIDNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT shop_id FROM accounts").
		WithArgs("acct-missing").
		WillReturnRows(sqlmock.NewRows([]string{"shop_id"}))

	_, err = NewPostgresResolver(db).ShopID(context.Background(), "acct-missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrShopNotFound)
	assert.Contains(t, err.Error(), "acct-missing")
}
