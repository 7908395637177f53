package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/H-M-Zubair/venon-dashboard-sub002/internal/adsmeta"
	"github.com/H-M-Zubair/venon-dashboard-sub002/internal/channel"
	"github.com/H-M-Zubair/venon-dashboard-sub002/internal/engine"
	"github.com/H-M-Zubair/venon-dashboard-sub002/internal/shops"
	"github.com/H-M-Zubair/venon-dashboard-sub002/internal/storage"
	"github.com/H-M-Zubair/venon-dashboard-sub002/internal/warehouse"
)

type stubResolver struct{}

func (stubResolver) ShopID(ctx context.Context, accountID string) (string, error) {
	if accountID == "acct-missing" {
		return "", shops.ErrShopNotFound
	}
	return "shop-1", nil
}

type stubQuerier struct {
	orderCalls int
	fail       bool
}

func (s *stubQuerier) OrderRows(ctx context.Context, source warehouse.SourceID, filters []warehouse.Filter) ([]warehouse.OrderRow, error) {
	s.orderCalls++
	if s.fail {
		return nil, &warehouse.StorageError{Source: source, Err: errors.New("down")}
	}
	return []warehouse.OrderRow{
		{RowID: "r1", OrderID: "o1", Timestamp: time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC),
			Channel: "meta-ads", Credit: 1, Revenue: 100},
	}, nil
}

func (s *stubQuerier) SpendRows(ctx context.Context, filters []warehouse.Filter) ([]warehouse.SpendRow, error) {
	return nil, nil
}

func (s *stubQuerier) FirstOrders(ctx context.Context, shopID string) ([]warehouse.FirstOrder, error) {
	return nil, nil
}

func (s *stubQuerier) CustomerOrders(ctx context.Context, shopID string, filters []warehouse.Filter) ([]warehouse.CustomerOrder, error) {
	return nil, nil
}

func (s *stubQuerier) OrderExists(ctx context.Context, shopID, orderID string) (bool, error) {
	return orderID == "o1", nil
}

func (s *stubQuerier) TouchEvents(ctx context.Context, shopID, orderID string) ([]warehouse.TouchEvent, error) {
	return nil, nil
}

type stubLookup struct{}

func (stubLookup) Lookup(ctx context.Context, adIDs []string) (map[string]adsmeta.AdMeta, error) {
	return map[string]adsmeta.AdMeta{}, nil
}

func testServer(q warehouse.Querier) *httptest.Server {
	classifier := channel.NewClassifier([]string{"meta-ads"}, []string{"meta-ads"})
	eng := engine.New(classifier, stubResolver{}, q, stubLookup{}, 24)
	h := NewHandlers(eng, storage.New(time.Minute))
	return httptest.NewServer(SetupRoutes(h, nil))
}

func get(t *testing.T, url string) (*http.Response, map[string]interface{}) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp, body
}

const perfQuery = "/api/performance?account_id=acct-1&channel=meta-ads&attribution_model=first_click&attribution_window=30&start_date=2024-01-01&end_date=2024-01-31"

func TestGetPerformance(t *testing.T) {
	srv := testServer(&stubQuerier{})
	defer srv.Close()

	resp, body := get(t, srv.URL+perfQuery)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ad_hierarchy", body["kind"])
	assert.NotEmpty(t, body["rows"])
}

func TestGetPerformanceServesFromCache(t *testing.T) {
	q := &stubQuerier{}
	srv := testServer(q)
	defer srv.Close()

	get(t, srv.URL+perfQuery)
	get(t, srv.URL+perfQuery)
	assert.Equal(t, 1, q.orderCalls, "second request should come from the snapshot cache")
}

func TestGetPerformanceUnknownModel(t *testing.T) {
	srv := testServer(&stubQuerier{})
	defer srv.Close()

	resp, body := get(t, srv.URL+"/api/performance?account_id=acct-1&channel=meta-ads&attribution_model=typo&start_date=2024-01-01&end_date=2024-01-31")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body["error"], "unknown attribution model")
}

func TestGetPerformanceUnknownAccount(t *testing.T) {
	srv := testServer(&stubQuerier{})
	defer srv.Close()

	resp, _ := get(t, srv.URL+"/api/performance?account_id=acct-missing&channel=meta-ads&attribution_model=first_click&start_date=2024-01-01&end_date=2024-01-31")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGetPerformanceStorageFailureIsBadGateway(t *testing.T) {
	srv := testServer(&stubQuerier{fail: true})
	defer srv.Close()

	resp, _ := get(t, srv.URL+perfQuery)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func TestGetPerformanceBadDates(t *testing.T) {
	srv := testServer(&stubQuerier{})
	defer srv.Close()

	resp, _ := get(t, srv.URL+"/api/performance?account_id=acct-1&channel=meta-ads&attribution_model=first_click&start_date=January&end_date=2024-01-31")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetOrderTimelineNotFound(t *testing.T) {
	srv := testServer(&stubQuerier{})
	defer srv.Close()

	resp, _ := get(t, srv.URL+"/api/orders/o-404/timeline?account_id=acct-1")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGetOrderTimelineOK(t *testing.T) {
	srv := testServer(&stubQuerier{})
	defer srv.Close()

	resp, body := get(t, srv.URL+"/api/orders/o1/timeline?account_id=acct-1")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	_, ok := body["events_by_day"]
	assert.True(t, ok)
}

func TestGetCohortsBadGranularity(t *testing.T) {
	srv := testServer(&stubQuerier{})
	defer srv.Close()

	resp, _ := get(t, srv.URL+"/api/cohorts?account_id=acct-1&granularity=fortnight&start_date=2024-01-01&end_date=2024-03-31")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHealth(t *testing.T) {
	srv := testServer(&stubQuerier{})
	defer srv.Close()

	resp, body := get(t, srv.URL+"/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
}
