package backfill

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quotefeed/src/connectors"
	"quotefeed/src/model"
)

type fakeArchive struct {
	name   string
	quotes []model.NormalizedQuote
	err    error
	calls  int
}

func (f *fakeArchive) Name() string { return f.name }

func (f *fakeArchive) FetchHistory(ctx context.Context, code string, from, to time.Time) ([]model.NormalizedQuote, error) {
	f.calls++
	return f.quotes, f.err
}

type fakeHistoryStore struct {
	sufficient map[string]bool
	appended   []model.NormalizedQuote
	appendErr  error
}

func (f *fakeHistoryStore) AppendHistorical(ctx context.Context, quotes []model.NormalizedQuote) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	f.appended = append(f.appended, quotes...)
	return nil
}

func (f *fakeHistoryStore) HasSufficientHistory(ctx context.Context, key string, years int) (bool, error) {
	return f.sufficient[key], nil
}

func archiveQuote(price string, ts int64) model.NormalizedQuote {
	return model.NormalizedQuote{
		Timestamp: ts,
		Price:     decimal.RequireFromString(price),
		Source:    "investing",
	}
}

func TestBackfillPopulatesAndStampsInstrument(t *testing.T) {
	store := &fakeHistoryStore{sufficient: map[string]bool{}}
	archive := &fakeArchive{name: "investing", quotes: []model.NormalizedQuote{
		archiveQuote("6942.61", 1600000000),
		archiveQuote("6950.00", 1600086400),
	}}

	c := New(store, []Target{{InstrumentKey: "gram", ArchiveCode: "8830", Source: archive}}, 5)
	summary, err := c.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, Summary{Succeeded: 1, Rows: 2}, summary)
	require.Len(t, store.appended, 2)
	for _, q := range store.appended {
		assert.Equal(t, "gram", q.InstrumentKey)
	}
}

func TestBackfillIdempotence(t *testing.T) {
	store := &fakeHistoryStore{sufficient: map[string]bool{"gram": true}}
	archive := &fakeArchive{name: "investing", quotes: []model.NormalizedQuote{archiveQuote("1", 1)}}

	c := New(store, []Target{{InstrumentKey: "gram", ArchiveCode: "8830", Source: archive}}, 5)
	summary, err := c.Run(context.Background())
	require.NoError(t, err)

	// already populated: the archive is never hit and nothing is written
	assert.Equal(t, Summary{Skipped: 1}, summary)
	assert.Equal(t, 0, archive.calls)
	assert.Empty(t, store.appended)
}

func TestBackfillContinuesPastFailures(t *testing.T) {
	store := &fakeHistoryStore{sufficient: map[string]bool{}}
	broken := &fakeArchive{name: "investing", err: errors.New("blocked")}
	working := &fakeArchive{name: "bigpara", quotes: []model.NormalizedQuote{archiveQuote("2050.1", 1600000000)}}

	c := New(store, []Target{
		{InstrumentKey: "gram", ArchiveCode: "8830", Source: broken},
		{InstrumentKey: "gumus", ArchiveCode: "gumus-gram", Source: working},
	}, 5)

	summary, err := c.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, Summary{Succeeded: 1, Failed: 1, Rows: 1}, summary)
	require.Len(t, store.appended, 1)
	assert.Equal(t, "gumus", store.appended[0].InstrumentKey)
}

func TestBackfillNoDataIsNotFailure(t *testing.T) {
	store := &fakeHistoryStore{sufficient: map[string]bool{}}
	archive := &fakeArchive{name: "investing", err: connectors.ErrNoData}

	c := New(store, []Target{{InstrumentKey: "gram", ArchiveCode: "8830", Source: archive}}, 5)
	summary, err := c.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, Summary{Succeeded: 1}, summary)
}

func TestBackfillAllFailed(t *testing.T) {
	store := &fakeHistoryStore{sufficient: map[string]bool{}}
	archive := &fakeArchive{name: "investing", err: errors.New("blocked")}

	c := New(store, []Target{{InstrumentKey: "gram", ArchiveCode: "8830", Source: archive}}, 5)
	summary, err := c.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, Summary{Failed: 1}, summary)
}
