package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/H-M-Zubair/venon-dashboard-sub002/internal/attribution"
	"github.com/H-M-Zubair/venon-dashboard-sub002/internal/cohort"
	"github.com/H-M-Zubair/venon-dashboard-sub002/internal/engine"
	"github.com/H-M-Zubair/venon-dashboard-sub002/internal/shops"
	"github.com/H-M-Zubair/venon-dashboard-sub002/internal/storage"
	"github.com/H-M-Zubair/venon-dashboard-sub002/internal/timeline"
	"github.com/H-M-Zubair/venon-dashboard-sub002/internal/warehouse"
)

// Handlers contains all HTTP handlers. The engine does the work; handlers
// only parse parameters, consult the snapshot cache, and map errors to
// status codes.
type Handlers struct {
	engine    *engine.Engine
	snapshots *storage.Storage
}

// NewHandlers creates a new Handlers instance
func NewHandlers(eng *engine.Engine, snapshots *storage.Storage) *Handlers {
	return &Handlers{engine: eng, snapshots: snapshots}
}

// HealthCheck reports liveness.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetPerformance serves the attribution performance report.
func (h *Handlers) GetPerformance(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	start, end, err := parseDateRange(q.Get("start_date"), q.Get("end_date"))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	params := engine.PerformanceParams{
		AccountID:     q.Get("account_id"),
		StartDate:     start,
		EndDate:       end,
		Model:         q.Get("attribution_model"),
		Channel:       q.Get("channel"),
		EventBased:    q.Get("attribution_type") == "event",
		Window:        q.Get("attribution_window"),
		Campaign:      q.Get("campaign"),
		AdCampaignID:  q.Get("ad_campaign_id"),
		AdSetID:       q.Get("ad_set_id"),
		AdID:          q.Get("ad_id"),
		FirstTimeOnly: q.Get("first_time_customers_only") == "true",
		Grouping:      q.Get("group_by"),
		Bucket:        q.Get("bucket"),
	}
	if params.AccountID == "" || params.Channel == "" {
		respondError(w, http.StatusBadRequest, "account_id and channel are required")
		return
	}

	key := storage.Key("performance", params.AccountID, params.Channel, params.Model,
		params.Window, params.Campaign, params.AdCampaignID, params.AdSetID, params.AdID,
		params.Grouping, params.Bucket,
		strconv.FormatBool(params.EventBased), strconv.FormatBool(params.FirstTimeOnly),
		start.Format("2006-01-02"), end.Format("2006-01-02"))
	if cached, ok := h.snapshots.Get(key); ok {
		respondRaw(w, http.StatusOK, cached)
		return
	}

	result, err := h.engine.ChannelPerformance(r.Context(), params)
	if err != nil {
		respondEngineError(w, err)
		return
	}

	h.snapshots.Put(r.Context(), key, result)
	respondJSON(w, http.StatusOK, result)
}

// GetCohorts serves the cohort economics report.
func (h *Handlers) GetCohorts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	start, end, err := parseDateRange(q.Get("start_date"), q.Get("end_date"))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	maxPeriods := 0
	if raw := q.Get("max_periods"); raw != "" {
		maxPeriods, err = strconv.Atoi(raw)
		if err != nil || maxPeriods < 0 {
			respondError(w, http.StatusBadRequest, "max_periods must be a non-negative integer")
			return
		}
	}

	params := engine.CohortParams{
		AccountID:   q.Get("account_id"),
		StartDate:   start,
		EndDate:     end,
		Granularity: q.Get("granularity"),
		MaxPeriods:  maxPeriods,
		ProductID:   q.Get("product_id"),
		VariantID:   q.Get("variant_id"),
	}
	if params.AccountID == "" {
		respondError(w, http.StatusBadRequest, "account_id is required")
		return
	}

	cohorts, err := h.engine.CohortReport(r.Context(), params)
	if err != nil {
		respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"cohorts": cohorts})
}

// GetOrderTimeline serves the per-order touchpoint drill-down.
func (h *Handlers) GetOrderTimeline(w http.ResponseWriter, r *http.Request) {
	accountID := r.URL.Query().Get("account_id")
	orderID := chi.URLParam(r, "orderID")
	if accountID == "" {
		respondError(w, http.StatusBadRequest, "account_id is required")
		return
	}

	days, err := h.engine.OrderTimeline(r.Context(), accountID, orderID)
	if err != nil {
		respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"events_by_day": days})
}

func parseDateRange(rawStart, rawEnd string) (time.Time, time.Time, error) {
	start, err := time.Parse("2006-01-02", rawStart)
	if err != nil {
		return time.Time{}, time.Time{}, errors.New("start_date must be YYYY-MM-DD")
	}
	end, err := time.Parse("2006-01-02", rawEnd)
	if err != nil {
		return time.Time{}, time.Time{}, errors.New("end_date must be YYYY-MM-DD")
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, errors.New("end_date is before start_date")
	}
	return start, end, nil
}

// respondEngineError maps engine errors onto status codes. Storage failures
// surface as 502: the report is unavailable, not empty.
func respondEngineError(w http.ResponseWriter, err error) {
	var se *warehouse.StorageError
	switch {
	case errors.Is(err, attribution.ErrUnknownModel),
		errors.Is(err, attribution.ErrInvalidFilterShape),
		errors.Is(err, attribution.ErrUnknownWindow),
		errors.Is(err, cohort.ErrUnknownGranularity):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, shops.ErrShopNotFound),
		errors.Is(err, timeline.ErrOrderNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &se):
		log.Printf("[api.Handlers] storage failure: %v", err)
		respondError(w, http.StatusBadGateway, "upstream storage failure")
	default:
		log.Printf("[api.Handlers] internal error: %v", err)
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("[api.Handlers] encode response: %v", err)
	}
}

func respondRaw(w http.ResponseWriter, status int, payload []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(payload); err != nil {
		log.Printf("[api.Handlers] write response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
