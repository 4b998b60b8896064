package connectors

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

const tcmbSampleXML = `<?xml version="1.0" encoding="UTF-8"?>
<Tarih_Date Tarih="05.01.2024" Date="01/05/2024">
	<Currency CurrencyCode="USD">
		<Unit>1</Unit>
		<ForexBuying>35.0</ForexBuying>
		<ForexSelling>35.2</ForexSelling>
	</Currency>
	<Currency CurrencyCode="EUR">
		<Unit>1</Unit>
		<ForexBuying>38.4</ForexBuying>
		<ForexSelling>38.6</ForexSelling>
	</Currency>
	<Currency CurrencyCode="SAR">
		<Unit>1</Unit>
		<ForexBuying></ForexBuying>
		<ForexSelling>9.36</ForexSelling>
	</Currency>
	<Currency CurrencyCode="XDR">
		<Unit>1</Unit>
		<ForexBuying>46.1</ForexBuying>
		<ForexSelling>46.3</ForexSelling>
	</Currency>
</Tarih_Date>`

func TestTCMBFetchCurrent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/kurlar/today.xml" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(tcmbSampleXML))
	}))
	defer server.Close()

	connector := NewTCMBConnector(testConfig(server.URL))
	connector.now = func() time.Time { return time.Unix(1700000000, 0) }

	quotes, err := connector.FetchCurrent(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	// usd, eur, sar plus the derived eurusd cross; XDR is unmapped.
	if len(quotes) != 4 {
		t.Fatalf("expected 4 quotes, got %d: %+v", len(quotes), quotes)
	}

	usd := quoteByKey(t, quotes, "usd")
	if !usd.Price.Equal(decimal.RequireFromString("35.1")) {
		t.Fatalf("expected usd mid 35.1, got %s", usd.Price)
	}

	// SAR only has a selling side: price falls back to it, buy stays nil.
	sar := quoteByKey(t, quotes, "sar")
	if sar.Buy != nil {
		t.Fatalf("expected sar buy to be nil, got %s", sar.Buy)
	}
	if !sar.Price.Equal(decimal.RequireFromString("9.36")) {
		t.Fatalf("expected sar price 9.36, got %s", sar.Price)
	}

	cross := quoteByKey(t, quotes, "eurusd")
	if cross.Source != "tcmb_calculated" {
		t.Fatalf("expected cross source tcmb_calculated, got %s", cross.Source)
	}
	wantPrice, _ := decimal.RequireFromString("38.5").Div(decimal.RequireFromString("35.1")).Float64()
	gotPrice, _ := cross.Price.Float64()
	if diff := wantPrice - gotPrice; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("expected eurusd %f, got %f", wantPrice, gotPrice)
	}
	if cross.Buy == nil || !cross.Buy.Equal(decimal.RequireFromString("38.4").Div(decimal.RequireFromString("35.2"))) {
		t.Fatalf("unexpected eurusd buy: %v", cross.Buy)
	}
}

func TestTCMBNotFoundIsNoData(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	connector := NewTCMBConnector(testConfig(server.URL))
	_, err := connector.FetchForDate(context.Background(), time.Date(2024, 1, 6, 0, 0, 0, 0, time.UTC))
	if !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData for 404, got %v", err)
	}
}

func TestTCMBFetchForDatePath(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(tcmbSampleXML))
	}))
	defer server.Close()

	connector := NewTCMBConnector(testConfig(server.URL))
	if _, err := connector.FetchForDate(context.Background(), time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if gotPath != "/kurlar/202401/05012024.xml" {
		t.Fatalf("unexpected date path: %s", gotPath)
	}
}

func TestTCMBFetchHistorySkipsMissingDays(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/kurlar/202401/05012024.xml", "/kurlar/202401/08012024.xml":
			_, _ = w.Write([]byte(tcmbSampleXML))
		default:
			// weekend
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	connector := NewTCMBConnector(testConfig(server.URL))

	from := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)
	quotes, err := connector.FetchHistory(context.Background(), "USD", from, to)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if len(quotes) != 2 {
		t.Fatalf("expected 2 quotes for 2 trading days, got %d", len(quotes))
	}
	if quotes[0].Timestamp != from.Unix() || quotes[1].Timestamp != to.Unix() {
		t.Fatalf("expected document-date timestamps, got %d and %d", quotes[0].Timestamp, quotes[1].Timestamp)
	}
	if quotes[0].InstrumentKey != "usd" {
		t.Fatalf("expected only the requested currency, got %s", quotes[0].InstrumentKey)
	}
}

func TestTCMBFetchHistoryUnknownCode(t *testing.T) {
	connector := NewTCMBConnector(testConfig("http://127.0.0.1:0"))
	if _, err := connector.FetchHistory(context.Background(), "XXX", time.Now().Add(-24*time.Hour), time.Now()); err == nil {
		t.Fatal("expected error for unknown currency code")
	}
}

func TestTCMBMalformedXML(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"not":"xml"}`))
	}))
	defer server.Close()

	connector := NewTCMBConnector(testConfig(server.URL))
	if _, err := connector.FetchCurrent(context.Background()); err == nil {
		t.Fatal("expected parse error, got none")
	}
}
