package connectors

import (
	"context"
	"errors"
	"time"

	"quotefeed/src/model"
)

// ErrNoData is the distinguished "no quotes for this date" condition,
// e.g. a 404 from a historical endpoint on a weekend or holiday. It is
// not a failure: callers must not retry and must not count it against
// the consecutive-failure ledger.
var ErrNoData = errors.New("no data available for the requested date")

// CurrentSource fetches the current quote set of one upstream provider.
type CurrentSource interface {
	Name() string
	FetchCurrent(ctx context.Context) ([]model.NormalizedQuote, error)
}

// HistorySource fetches a historical range for one provider-specific
// instrument code.
type HistorySource interface {
	Name() string
	FetchHistory(ctx context.Context, instrumentCode string, from, to time.Time) ([]model.NormalizedQuote, error)
}
