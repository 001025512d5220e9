package domain

import (
	"encoding/csv"
	"fmt"
	"io"
	"slices"
	"strconv"
)

// Ranking lists a state's occupations by employment, highest first.
type Ranking struct {
	State       Entry
	Occupations []string
	Cells       []Cell

	// Provisional is set when the row still had pending cells, so later
	// results may change the order.
	Provisional bool
}

// TopK ranks the occupations of row by employment value, descending.
// Suppressed, unavailable, malformed, and pending cells count as zero. Ties go
// to the occupation that comes first in column order. k larger than the
// number of occupations returns all of them.
//
// Calling TopK on a row with pending cells is allowed; the result is marked
// Provisional.
func (t *EmploymentTable) TopK(row, k int) (Ranking, error) {
	if row < 0 || row >= len(t.states) {
		return Ranking{}, fmt.Errorf("row %d out of range [0,%d)", row, len(t.states))
	}
	if k < 0 {
		return Ranking{}, fmt.Errorf("k must not be negative, got %d", k)
	}

	cells := t.cells[row]
	order := make([]int, len(cells))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		va, vb := cells[a].RankValue(), cells[b].RankValue()
		switch {
		case va > vb:
			return -1
		case va < vb:
			return 1
		default:
			return a - b
		}
	})

	k = min(k, len(order))
	r := Ranking{
		State:       t.states[row],
		Occupations: make([]string, k),
		Cells:       make([]Cell, k),
	}
	for i, col := range order[:k] {
		r.Occupations[i] = t.occupations[col]
		r.Cells[i] = cells[col]
	}
	for _, c := range cells {
		if c.State == CellPending {
			r.Provisional = true
			break
		}
	}
	return r, nil
}

// TopKForState is TopK addressed by state code.
func (t *EmploymentTable) TopKForState(state string, k int) (Ranking, error) {
	row, ok := t.rowIndex[state]
	if !ok {
		return Ranking{}, fmt.Errorf("unknown state %q", state)
	}
	return t.TopK(row, k)
}

// Rankings returns TopK for every row, in row order.
func (t *EmploymentTable) Rankings(k int) ([]Ranking, error) {
	out := make([]Ranking, 0, len(t.states))
	for i := range t.states {
		r, err := t.TopK(i, k)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// WriteRankingTSV writes the per-state top-k report: a "State, 1st, 2nd, ..."
// header and one row of occupation codes per state. Rows with fewer than k
// occupations are padded with empty fields.
func WriteRankingTSV(w io.Writer, t *EmploymentTable, k int) error {
	rankings, err := t.Rankings(k)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	cw.Comma = '\t'
	header := []string{StateHeader}
	for i := 1; i <= k; i++ {
		header = append(header, Ordinal(i))
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write ranking header: %w", err)
	}
	for _, r := range rankings {
		rec := make([]string, 1+k)
		rec[0] = r.State.Name
		copy(rec[1:], r.Occupations)
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write ranking %q: %w", r.State.Name, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Ordinal formats n as "1st", "2nd", "3rd", "4th", ...
func Ordinal(n int) string {
	suffix := "th"
	switch n % 100 {
	case 11, 12, 13:
	default:
		switch n % 10 {
		case 1:
			suffix = "st"
		case 2:
			suffix = "nd"
		case 3:
			suffix = "rd"
		}
	}
	return strconv.Itoa(n) + suffix
}
