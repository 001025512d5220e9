package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"iter"
	"strings"
)

const (
	// MaxSeriesPerRequest is the BLS v2 limit on series IDs per query.
	MaxSeriesPerRequest = 50

	// MaxYearSpan is the BLS v2 limit on years per query.
	MaxYearSpan = 20
)

// YearRange is the inclusive range of years requested for every series.
type YearRange struct {
	Start int
	End   int
}

// Validate checks the range against the API limits.
func (y YearRange) Validate() error {
	switch {
	case y.Start <= 0 || y.End <= 0:
		return fmt.Errorf("%w: years must be positive, got %d-%d", ErrInvalidYearRange, y.Start, y.End)
	case y.Start > y.End:
		return fmt.Errorf("%w: start %d is after end %d", ErrInvalidYearRange, y.Start, y.End)
	case y.End-y.Start+1 > MaxYearSpan:
		return fmt.Errorf("%w: %d-%d spans more than %d years", ErrInvalidYearRange, y.Start, y.End, MaxYearSpan)
	}
	return nil
}

func (y YearRange) String() string {
	return fmt.Sprintf("%d-%d", y.Start, y.End)
}

// Batch is one API request: at most MaxSeriesPerRequest series IDs and the
// year range to fetch.
type Batch struct {
	Index     int
	SeriesIDs []string
	Years     YearRange
}

// Key identifies the batch contents deterministically, independent of Index.
//
// Format: oe:<start>-<end>:<sha256 of the newline-joined ids, first 16 bytes hex>
func (b Batch) Key() string {
	sum := sha256.Sum256([]byte(strings.Join(b.SeriesIDs, "\n")))
	return "oe:" + b.Years.String() + ":" + hex.EncodeToString(sum[:16])
}

// Partition splits ids into contiguous slices of at most maxBatchSize,
// preserving order. The sequence is lazy; the slices share ids' backing array.
func Partition(ids []string, maxBatchSize int) (iter.Seq[[]string], error) {
	if maxBatchSize <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidBatchSize, maxBatchSize)
	}
	return func(yield func([]string) bool) {
		for start := 0; start < len(ids); start += maxBatchSize {
			end := min(start+maxBatchSize, len(ids))
			if !yield(ids[start:end:end]) {
				return
			}
		}
	}, nil
}

// PlanBatches partitions ids and pairs every slice with the year range.
func PlanBatches(ids []string, maxBatchSize int, years YearRange) (iter.Seq[Batch], error) {
	if err := years.Validate(); err != nil {
		return nil, err
	}
	chunks, err := Partition(ids, maxBatchSize)
	if err != nil {
		return nil, err
	}
	return func(yield func(Batch) bool) {
		i := 0
		for chunk := range chunks {
			if !yield(Batch{Index: i, SeriesIDs: chunk, Years: years}) {
				return
			}
			i++
		}
	}, nil
}

// BatchCount returns how many batches Partition yields for n ids.
func BatchCount(n, maxBatchSize int) int {
	if maxBatchSize <= 0 || n <= 0 {
		return 0
	}
	return (n + maxBatchSize - 1) / maxBatchSize
}
