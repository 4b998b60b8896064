package connectors

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"quotefeed/src/model"
)

func testConfig(baseURL string) Config {
	return Config{
		HaremBaseURL:     baseURL,
		TCMBBaseURL:      baseURL,
		ErapiBaseURL:     baseURL,
		InvestingBaseURL: baseURL,
		BigparaBaseURL:   baseURL,
		InvestingCookie:  "test-cookie",
		HTTPTimeout:      5 * time.Second,
		ArchiveRatePerS:  1000,
	}
}

func quoteByKey(t *testing.T, quotes []model.NormalizedQuote, key string) model.NormalizedQuote {
	t.Helper()
	for _, q := range quotes {
		if q.InstrumentKey == key {
			return q
		}
	}
	t.Fatalf("no quote for instrument %q in %+v", key, quotes)
	return model.NormalizedQuote{}
}

func TestHaremFetchCurrent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ajax/doviz" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"data":{
			"ALTIN":{"alis":"2.550,00","satis":"2.555,00"},
			"ONS":{"alis":"$2.650,10","satis":"$2.655,90"},
			"FUTURE_PRODUCT":{"alis":"1,00","satis":"2,00"}
		}}`))
	}))
	defer server.Close()

	connector := NewHaremConnector(testConfig(server.URL))
	connector.now = func() time.Time { return time.Unix(1700000000, 0) }

	quotes, err := connector.FetchCurrent(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	// ALTIN, ONS plus the derived gram14; FUTURE_PRODUCT is unmapped.
	if len(quotes) != 3 {
		t.Fatalf("expected 3 quotes, got %d: %+v", len(quotes), quotes)
	}

	gram := quoteByKey(t, quotes, "gram")
	if !gram.Price.Equal(decimal.RequireFromString("2552.5")) {
		t.Fatalf("expected gram price 2552.5, got %s", gram.Price)
	}
	if gram.Buy == nil || !gram.Buy.Equal(decimal.RequireFromString("2550")) {
		t.Fatalf("unexpected gram buy: %v", gram.Buy)
	}
	if gram.Source != "harem" {
		t.Fatalf("expected source harem, got %s", gram.Source)
	}
	if gram.Timestamp != 1700000000 {
		t.Fatalf("expected pinned timestamp, got %d", gram.Timestamp)
	}

	ons := quoteByKey(t, quotes, "ons")
	if !ons.Price.Equal(decimal.RequireFromString("2653")) {
		t.Fatalf("expected ons price 2653, got %s", ons.Price)
	}

	gram14 := quoteByKey(t, quotes, "gram14")
	if gram14.Source != "harem_calculated" {
		t.Fatalf("expected derived source harem_calculated, got %s", gram14.Source)
	}
	wantGram14 := gram.Price.Mul(decimal.NewFromInt(14).Div(decimal.NewFromInt(24)))
	if !gram14.Price.Equal(wantGram14) {
		t.Fatalf("expected gram14 price %s, got %s", wantGram14, gram14.Price)
	}
}

func TestHaremFetchCurrentSkipsBadItems(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{
			"ALTIN":{"alis":"not-a-price","satis":"2.555,00"},
			"GUMUS":{"alis":"30,10","satis":"30,40"}
		}}`))
	}))
	defer server.Close()

	connector := NewHaremConnector(testConfig(server.URL))
	quotes, err := connector.FetchCurrent(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(quotes) != 1 || quotes[0].InstrumentKey != "gumus" {
		t.Fatalf("expected only gumus to survive, got %+v", quotes)
	}
}

func TestHaremFetchCurrentShapeFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"unexpected":true}`))
	}))
	defer server.Close()

	connector := NewHaremConnector(testConfig(server.URL))
	if _, err := connector.FetchCurrent(context.Background()); err == nil {
		t.Fatal("expected shape error, got none")
	}
}

func TestHaremFetchCurrentHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	connector := NewHaremConnector(testConfig(server.URL))
	if _, err := connector.FetchCurrent(context.Background()); err == nil {
		t.Fatal("expected error on HTTP 502, got none")
	}
}
