package domain

import "context"

// SeriesQuerier fetches one batch of series from the statistics API. Series
// the API has no data for may be missing from the returned slice.
type SeriesQuerier interface {
	QueryBatch(ctx context.Context, batch Batch) ([]QueryResult, error)
}
