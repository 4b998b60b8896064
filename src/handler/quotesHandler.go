package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	logger "github.com/sirupsen/logrus"

	"quotefeed/src/cache"
	"quotefeed/src/model"
)

type snapshotReader interface {
	FindByCategory(ctx context.Context, category string) ([]model.LatestSnapshot, error)
}

type historyReader interface {
	FindHistory(ctx context.Context, instrumentKey string, from, to int64, limit int) ([]model.HistoricalQuote, error)
}

type instrumentReader interface {
	FindByKey(ctx context.Context, key string) (*model.Instrument, error)
	FindActiveByCategory(ctx context.Context, category string) ([]model.Instrument, error)
}

type LatestItem struct {
	InstrumentKey string           `json:"key"`
	Name          string           `json:"name"`
	Timestamp     int64            `json:"timestamp"`
	Price         decimal.Decimal  `json:"price"`
	Buy           *decimal.Decimal `json:"buy,omitempty"`
	Sell          *decimal.Decimal `json:"sell,omitempty"`
	ChangePct     *decimal.Decimal `json:"change_pct,omitempty"`
	Source        string           `json:"source"`
}

type LatestResponse struct {
	Items       []LatestItem `json:"items"`
	LastUpdated int64        `json:"last_updated"`
}

type HistoryPoint struct {
	Timestamp int64           `json:"t"`
	Price     decimal.Decimal `json:"price"`
	Source    string          `json:"source"`
}

// GetLatestHandler serves the cached latest snapshot of a category,
// ordered by the instrument catalog's sort order. Reads never block on
// an in-flight refresh: they always see the last committed snapshot, and
// an empty category simply yields zero items.
func GetLatestHandler(repo snapshotReader, instruments instrumentReader, responseCache *cache.TTLCache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		category := r.URL.Query().Get("category")
		if category != model.CategoryMetals && category != model.CategoryFX {
			http.Error(w, "invalid category", http.StatusBadRequest)
			return
		}

		cacheKey := "latest:" + category
		if cached, ok := responseCache.Get(cacheKey); ok {
			writeJSON(w, cached)
			return
		}

		catalog, err := instruments.FindActiveByCategory(r.Context(), category)
		if err != nil {
			logger.WithError(err).Error("GetLatestHandler: instrument lookup failed")
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		snapshots, err := repo.FindByCategory(r.Context(), category)
		if err != nil {
			logger.WithError(err).Error("GetLatestHandler: snapshot lookup failed")
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		byKey := make(map[string]model.LatestSnapshot, len(snapshots))
		for _, s := range snapshots {
			byKey[s.InstrumentKey] = s
		}

		resp := LatestResponse{Items: make([]LatestItem, 0, len(catalog))}
		for _, instrument := range catalog {
			s, ok := byKey[instrument.Key]
			if !ok {
				continue
			}
			item := LatestItem{
				InstrumentKey: s.InstrumentKey,
				Name:          instrument.Name,
				Timestamp:     s.Timestamp,
				Price:         s.Price,
				Buy:           s.Buy,
				Sell:          s.Sell,
				Source:        s.Source,
			}
			if s.PrevPrice != nil && !s.PrevPrice.IsZero() {
				pct := s.Price.Sub(*s.PrevPrice).
					Div(*s.PrevPrice).
					Mul(decimal.NewFromInt(100)).
					Round(2)
				item.ChangePct = &pct
			}
			resp.Items = append(resp.Items, item)

			if s.Timestamp > resp.LastUpdated {
				resp.LastUpdated = s.Timestamp
			}
		}

		responseCache.Set(cacheKey, resp)
		writeJSON(w, resp)
	}
}

// GetHistoryHandler serves a historical range for one instrument.
// Optional query params: from, to (unix seconds), limit, bucket=daily.
func GetHistoryHandler(repo historyReader, instruments instrumentReader, responseCache *cache.TTLCache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := chi.URLParam(r, "key")
		if strings.TrimSpace(key) == "" {
			http.Error(w, "missing instrument key", http.StatusBadRequest)
			return
		}

		instrument, err := instruments.FindByKey(r.Context(), key)
		if err != nil {
			logger.WithError(err).WithField("instrument", key).
				Error("GetHistoryHandler: instrument lookup failed")
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		if instrument == nil {
			http.Error(w, "unknown instrument", http.StatusNotFound)
			return
		}

		from, err := parseInt64Param(r, "from")
		if err != nil {
			http.Error(w, "invalid from", http.StatusBadRequest)
			return
		}
		to, err := parseInt64Param(r, "to")
		if err != nil {
			http.Error(w, "invalid to", http.StatusBadRequest)
			return
		}

		limit := 0
		if limitParam := r.URL.Query().Get("limit"); limitParam != "" {
			limit, err = strconv.Atoi(limitParam)
			if err != nil || limit < 0 {
				http.Error(w, "invalid limit", http.StatusBadRequest)
				return
			}
		}

		bucket := r.URL.Query().Get("bucket")
		if bucket != "" && bucket != "daily" {
			http.Error(w, "invalid bucket", http.StatusBadRequest)
			return
		}

		cacheKey := strings.Join([]string{
			"history", key,
			strconv.FormatInt(from, 10), strconv.FormatInt(to, 10),
			strconv.Itoa(limit), bucket,
		}, ":")
		if cached, ok := responseCache.Get(cacheKey); ok {
			writeJSON(w, cached)
			return
		}

		rows, err := repo.FindHistory(r.Context(), key, from, to, limit)
		if err != nil {
			logger.WithError(err).WithField("instrument", key).
				Error("GetHistoryHandler: history lookup failed")
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		points := toPoints(rows)
		if bucket == "daily" {
			points = bucketDaily(points)
		}

		responseCache.Set(cacheKey, points)
		writeJSON(w, points)
	}
}

// toPoints converts rows to chart points, collapsing rows that share a
// timestamp. Rows arrive oldest first; for a shared timestamp a directly
// observed source wins over a calculated one.
func toPoints(rows []model.HistoricalQuote) []HistoryPoint {
	points := make([]HistoryPoint, 0, len(rows))
	lastIdx := -1

	for _, row := range rows {
		if lastIdx >= 0 && points[lastIdx].Timestamp == row.Timestamp {
			if strings.HasSuffix(points[lastIdx].Source, "_calculated") &&
				!strings.HasSuffix(row.Source, "_calculated") {
				points[lastIdx] = HistoryPoint{Timestamp: row.Timestamp, Price: row.Price, Source: row.Source}
			}
			continue
		}
		points = append(points, HistoryPoint{Timestamp: row.Timestamp, Price: row.Price, Source: row.Source})
		lastIdx++
	}
	return points
}

// bucketDaily keeps the last point of each UTC day.
func bucketDaily(points []HistoryPoint) []HistoryPoint {
	out := make([]HistoryPoint, 0, len(points))
	var lastDay time.Time

	for _, p := range points {
		day := time.Unix(p.Timestamp, 0).UTC().Truncate(24 * time.Hour)
		if len(out) > 0 && day.Equal(lastDay) {
			out[len(out)-1] = p
			continue
		}
		out = append(out, p)
		lastDay = day
	}
	return out
}

func parseInt64Param(r *http.Request, name string) (int64, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, nil
	}
	return strconv.ParseInt(v, 10, 64)
}

func writeJSON(w http.ResponseWriter, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.WithError(err).Error("failed to encode response")
	}
}
