package domain

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"time"
)

// StateHeader is the first header cell of the TSV output.
const StateHeader = "State"

// EmploymentTable is the dense state × occupation result of a run. Rows follow
// the state dictionary order and columns the occupation order given at
// creation; neither changes afterwards. A table is not safe for concurrent
// use; once finalized it is read-only and may be shared.
type EmploymentTable struct {
	states      []Entry
	occupations []string
	rowIndex    map[string]int
	colIndex    map[string]int
	cells       [][]Cell

	createdAt   time.Time
	finalizedAt time.Time
}

// NewTable allocates a table with every cell pending. Duplicate state or
// occupation codes are rejected.
func NewTable(states []Entry, occupations []string) (*EmploymentTable, error) {
	t := &EmploymentTable{
		states:      append([]Entry(nil), states...),
		occupations: append([]string(nil), occupations...),
		rowIndex:    make(map[string]int, len(states)),
		colIndex:    make(map[string]int, len(occupations)),
		cells:       make([][]Cell, len(states)),
		createdAt:   clock.Now(),
	}
	for i, s := range states {
		if _, dup := t.rowIndex[s.Code]; dup {
			return nil, fmt.Errorf("duplicate state code %q", s.Code)
		}
		t.rowIndex[s.Code] = i
	}
	for i, o := range occupations {
		if _, dup := t.colIndex[o]; dup {
			return nil, fmt.Errorf("duplicate occupation code %q", o)
		}
		t.colIndex[o] = i
	}
	for i := range t.cells {
		t.cells[i] = make([]Cell, len(occupations)) // zero Cell is CellPending
	}
	return t, nil
}

// Ingest writes one query result into its cell. Re-ingesting the same result
// leaves the table unchanged, and results may arrive in any order.
//
// A *MalformedIdentifierError or *UnexpectedSeriesError means the result was
// discarded. A *MalformedValueError means the cell was written as
// CellMalformed.
func (t *EmploymentTable) Ingest(r QueryResult) error {
	if t.Finalized() {
		return ErrTableFinalized
	}
	key, err := DecodeSeriesID(r.SeriesID)
	if err != nil {
		return err
	}
	row, okRow := t.rowIndex[key.State]
	col, okCol := t.colIndex[key.Occupation]
	if !okRow || !okCol {
		return &UnexpectedSeriesError{ID: r.SeriesID, Key: key}
	}

	obs, ok := r.Latest()
	if !ok {
		t.cells[row][col] = Cell{State: CellUnavailable}
		return nil
	}
	cell := cellFromObservation(obs.Value)
	t.cells[row][col] = cell
	if cell.State == CellMalformed {
		return &MalformedValueError{ID: r.SeriesID, Value: obs.Value}
	}
	return nil
}

// MarkUnavailable records that the API returned nothing for a requested
// series. Cells that already hold a result are left alone.
func (t *EmploymentTable) MarkUnavailable(seriesID string) error {
	if t.Finalized() {
		return ErrTableFinalized
	}
	key, err := DecodeSeriesID(seriesID)
	if err != nil {
		return err
	}
	row, okRow := t.rowIndex[key.State]
	col, okCol := t.colIndex[key.Occupation]
	if !okRow || !okCol {
		return &UnexpectedSeriesError{ID: seriesID, Key: key}
	}
	if t.cells[row][col].State == CellPending {
		t.cells[row][col] = Cell{State: CellUnavailable}
	}
	return nil
}

// Finalize makes the table read-only. It is safe to call more than once.
func (t *EmploymentTable) Finalize() {
	if t.finalizedAt.IsZero() {
		t.finalizedAt = clock.Now()
	}
}

// Finalized reports whether Finalize was called.
func (t *EmploymentTable) Finalized() bool { return !t.finalizedAt.IsZero() }

// CreatedAt returns when the table was allocated.
func (t *EmploymentTable) CreatedAt() time.Time { return t.createdAt }

// FinalizedAt returns when the table was finalized, or the zero time.
func (t *EmploymentTable) FinalizedAt() time.Time { return t.finalizedAt }

// Shape returns the number of state rows and occupation columns.
func (t *EmploymentTable) Shape() (rows, cols int) {
	return len(t.states), len(t.occupations)
}

// States returns the row entries in order.
func (t *EmploymentTable) States() []Entry {
	return append([]Entry(nil), t.states...)
}

// Occupations returns the column codes in order.
func (t *EmploymentTable) Occupations() []string {
	return append([]string(nil), t.occupations...)
}

// Cell returns the cell for a state and occupation code.
func (t *EmploymentTable) Cell(state, occupation string) (Cell, bool) {
	row, okRow := t.rowIndex[state]
	col, okCol := t.colIndex[occupation]
	if !okRow || !okCol {
		return Cell{}, false
	}
	return t.cells[row][col], true
}

// RowCells returns a copy of the cells of row i.
func (t *EmploymentTable) RowCells(i int) []Cell {
	return append([]Cell(nil), t.cells[i]...)
}

// Header returns the TSV header: "State" followed by the occupation codes.
func (t *EmploymentTable) Header() []string {
	return append([]string{StateHeader}, t.occupations...)
}

// Row returns the text of row i: the state name followed by one cell per
// occupation. Every row has exactly 1+len(occupations) fields.
func (t *EmploymentTable) Row(i int) []string {
	out := make([]string, 0, 1+len(t.occupations))
	out = append(out, t.states[i].Name)
	for _, c := range t.cells[i] {
		out = append(out, c.String())
	}
	return out
}

// PendingCount returns how many cells have not received a result.
func (t *EmploymentTable) PendingCount() int {
	n := 0
	for _, row := range t.cells {
		for _, c := range row {
			if c.State == CellPending {
				n++
			}
		}
	}
	return n
}

// Complete reports whether every cell has received a result.
func (t *EmploymentTable) Complete() bool { return t.PendingCount() == 0 }

// CountByState tallies cells by state.
func (t *EmploymentTable) CountByState() map[CellState]int {
	counts := make(map[CellState]int)
	for _, row := range t.cells {
		for _, c := range row {
			counts[c.State]++
		}
	}
	return counts
}

// WriteTSV writes the table as tab-separated text.
func (t *EmploymentTable) WriteTSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	cw.Comma = '\t'
	if err := cw.Write(t.Header()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i := range t.states {
		if err := cw.Write(t.Row(i)); err != nil {
			return fmt.Errorf("write row %q: %w", t.states[i].Name, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadTSV parses text written by WriteTSV. The text carries display names
// only, so each row's state code is its name. The result is finalized.
func ReadTSV(r io.Reader) (*EmploymentTable, error) {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("read table: empty input")
	}
	if err != nil {
		return nil, fmt.Errorf("read table header: %w", err)
	}
	if header[0] != StateHeader {
		return nil, fmt.Errorf("read table: first header cell is %q, want %q", header[0], StateHeader)
	}

	var states []Entry
	var rows [][]string
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read table row: %w", err)
		}
		states = append(states, Entry{Code: rec[0], Name: rec[0]})
		rows = append(rows, rec[1:])
	}

	t, err := NewTable(states, header[1:])
	if err != nil {
		return nil, fmt.Errorf("read table: %w", err)
	}
	for i, rec := range rows {
		for j, text := range rec {
			t.cells[i][j] = ParseCell(text)
		}
	}
	t.Finalize()
	return t, nil
}
