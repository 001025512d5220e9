package pipeline

import (
	"errors"
	"log/slog"

	"github.com/couchcryptid/oes-employment-etl/internal/domain"
	"github.com/couchcryptid/oes-employment-etl/internal/observability"
)

// ingester applies query results to the run's table and accounts for
// anomalies. Requested series absent from a response are marked unavailable.
type ingester struct {
	table     *domain.EmploymentTable
	logger    *slog.Logger
	metrics   *observability.Metrics
	anomalies int
}

// ingestBatch ingests the results of one successful batch.
func (in *ingester) ingestBatch(batch domain.Batch, results []domain.QueryResult) {
	seen := make(map[string]struct{}, len(results))
	for _, r := range results {
		seen[r.SeriesID] = struct{}{}
		in.ingest(batch, r)
	}

	for _, id := range batch.SeriesIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		if err := in.table.MarkUnavailable(id); err != nil {
			in.logger.Warn("mark unavailable failed", "series_id", id, "error", err)
			continue
		}
		in.metrics.CellsIngested.WithLabelValues(domain.CellUnavailable.String()).Inc()
	}
}

func (in *ingester) ingest(batch domain.Batch, r domain.QueryResult) {
	err := in.table.Ingest(r)

	var (
		malformedID *domain.MalformedIdentifierError
		unexpected  *domain.UnexpectedSeriesError
		badValue    *domain.MalformedValueError
	)
	switch {
	case err == nil:
	case errors.As(err, &malformedID):
		in.anomaly("malformed_id", batch, r.SeriesID, err)
		return
	case errors.As(err, &unexpected):
		in.anomaly("unexpected_series", batch, r.SeriesID, err)
		return
	case errors.As(err, &badValue):
		in.anomaly("malformed_value", batch, r.SeriesID, err)
	default:
		in.logger.Error("ingest failed", "batch", batch.Index, "series_id", r.SeriesID, "error", err)
		return
	}

	key, _ := domain.DecodeSeriesID(r.SeriesID)
	if cell, ok := in.table.Cell(key.State, key.Occupation); ok {
		in.metrics.CellsIngested.WithLabelValues(cell.State.String()).Inc()
	}
}

func (in *ingester) anomaly(kind string, batch domain.Batch, seriesID string, err error) {
	in.anomalies++
	in.metrics.IngestAnomalies.WithLabelValues(kind).Inc()
	in.logger.Warn("ingest anomaly",
		"kind", kind,
		"batch", batch.Index,
		"series_id", seriesID,
		"error", err,
	)
}
