package domain

import (
	"math"
	"strconv"
	"strings"
)

// CellState classifies an employment table cell.
type CellState uint8

const (
	CellPending     CellState = iota // no result ingested yet
	CellValue                        // numeric employment estimate
	CellSuppressed                   // estimate exists but was not released by BLS
	CellUnavailable                  // the API returned no data for the series
	CellMalformed                    // the API returned an unparseable value
)

// Cell text markers. Each round-trips through WriteTSV/ReadTSV.
const (
	PendingMarker     = "*"
	SuppressedMarker  = "no est."
	UnavailableMarker = "none"
	MalformedMarker   = "invalid"
)

func (s CellState) String() string {
	switch s {
	case CellPending:
		return "pending"
	case CellValue:
		return "value"
	case CellSuppressed:
		return "suppressed"
	case CellUnavailable:
		return "unavailable"
	case CellMalformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// Cell is one state × occupation employment estimate.
type Cell struct {
	State CellState
	Text  string  // value text as published, e.g. "1,230"; empty for markers
	Value float64 // parsed Text, 0 unless State is CellValue
}

// String renders the cell for the TSV output.
func (c Cell) String() string {
	switch c.State {
	case CellValue:
		return c.Text
	case CellSuppressed:
		return SuppressedMarker
	case CellUnavailable:
		return UnavailableMarker
	case CellMalformed:
		return MalformedMarker
	default:
		return PendingMarker
	}
}

// RankValue is the value used for ranking: non-value cells count as zero.
func (c Cell) RankValue() float64 {
	if c.State != CellValue {
		return 0
	}
	return c.Value
}

// ParseCell is the inverse of Cell.String.
func ParseCell(text string) Cell {
	switch text = strings.TrimSpace(text); text {
	case PendingMarker:
		return Cell{State: CellPending}
	case SuppressedMarker:
		return Cell{State: CellSuppressed}
	case UnavailableMarker:
		return Cell{State: CellUnavailable}
	case MalformedMarker:
		return Cell{State: CellMalformed}
	}
	return valueCell(text)
}

// cellFromObservation applies the ingestion policy to a raw API value:
// dashes mean the estimate was suppressed, numbers are values, anything else
// is malformed.
func cellFromObservation(raw string) Cell {
	raw = strings.TrimSpace(raw)
	if isSuppressed(raw) {
		return Cell{State: CellSuppressed}
	}
	return valueCell(raw)
}

func valueCell(text string) Cell {
	v, err := strconv.ParseFloat(strings.ReplaceAll(text, ",", ""), 64)
	if text == "" || err != nil || v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return Cell{State: CellMalformed}
	}
	return Cell{State: CellValue, Text: text, Value: v}
}

// isSuppressed matches the BLS "-" footnoted estimates (one or more dashes).
func isSuppressed(raw string) bool {
	return raw != "" && strings.Trim(raw, "-") == ""
}
