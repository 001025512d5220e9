package domain

import (
	"bytes"
	"math/rand/v2"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testStates = []Entry{
	{Code: "01", Name: "Alabama"},
	{Code: "02", Name: "Alaska"},
}

func result(state, occupation, value string) QueryResult {
	return QueryResult{
		SeriesID:     EncodeSeriesID(state, occupation),
		Observations: []Observation{{Year: "2018", Period: "A01", Value: value}},
	}
}

func newTestTable(t *testing.T, occupations ...string) *EmploymentTable {
	t.Helper()
	table, err := NewTable(testStates, occupations)
	require.NoError(t, err)
	return table
}

func TestNewTable_Shape(t *testing.T) {
	for _, rows := range []int{0, 1, 3} {
		for _, cols := range []int{0, 1, 4} {
			states := make([]Entry, rows)
			for i := range states {
				states[i] = Entry{Code: string(rune('A' + i)), Name: "state"}
			}
			occupations := make([]string, cols)
			for i := range occupations {
				occupations[i] = strings.Repeat(string(rune('0'+i)), 6)
			}

			table, err := NewTable(states, occupations)
			require.NoError(t, err)

			r, c := table.Shape()
			assert.Equal(t, rows, r)
			assert.Equal(t, cols, c)
			for i := range rows {
				row := table.Row(i)
				assert.Len(t, row, cols+1)
				for _, cell := range row[1:] {
					assert.Equal(t, PendingMarker, cell)
				}
			}
			assert.Equal(t, rows*cols, table.PendingCount())
		}
	}
}

func TestNewTable_RejectsDuplicates(t *testing.T) {
	_, err := NewTable([]Entry{{Code: "01"}, {Code: "01"}}, []string{"193092"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate state")

	_, err = NewTable(testStates, []string{"193092", "193092"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate occupation")
}

func TestIngest_EndToEndScenario(t *testing.T) {
	table := newTestTable(t, "193092")

	require.NoError(t, table.Ingest(QueryResult{
		SeriesID:     "OEUS010000000000019309201",
		Observations: []Observation{{Year: "2018", Period: "A01", Value: "120"}},
	}))

	assert.Equal(t, []string{"State", "193092"}, table.Header())
	assert.Equal(t, []string{"Alabama", "120"}, table.Row(0))
	assert.Equal(t, []string{"Alaska", "*"}, table.Row(1))

	cell, ok := table.Cell("01", "193092")
	require.True(t, ok)
	assert.Equal(t, CellValue, cell.State)
	assert.InDelta(t, 120.0, cell.Value, 0)
}

func TestIngest_MarkersAreDistinct(t *testing.T) {
	table := newTestTable(t, "193092", "171021", "254012")

	require.NoError(t, table.Ingest(result("01", "193092", "-")))
	require.NoError(t, table.Ingest(QueryResult{SeriesID: EncodeSeriesID("01", "171021")}))

	assert.Equal(t, []string{"Alabama", "no est.", "none", "*"}, table.Row(0))

	suppressed, _ := table.Cell("01", "193092")
	unavailable, _ := table.Cell("01", "171021")
	pending, _ := table.Cell("01", "254012")
	assert.Equal(t, CellSuppressed, suppressed.State)
	assert.Equal(t, CellUnavailable, unavailable.State)
	assert.Equal(t, CellPending, pending.State)
}

func TestIngest_MalformedValue(t *testing.T) {
	table := newTestTable(t, "193092")

	err := table.Ingest(result("02", "193092", "n/a"))
	var malformed *MalformedValueError
	require.ErrorAs(t, err, &malformed)
	assert.Equal(t, "n/a", malformed.Value)

	cell, _ := table.Cell("02", "193092")
	assert.Equal(t, CellMalformed, cell.State)
	assert.Equal(t, "invalid", cell.String())
}

func TestIngest_CommaValue(t *testing.T) {
	table := newTestTable(t, "193092")
	require.NoError(t, table.Ingest(result("01", "193092", "1,230")))

	cell, _ := table.Cell("01", "193092")
	assert.Equal(t, "1,230", cell.String())
	assert.InDelta(t, 1230.0, cell.Value, 0)
}

func TestIngest_UsesLatestObservation(t *testing.T) {
	table := newTestTable(t, "193092")
	require.NoError(t, table.Ingest(QueryResult{
		SeriesID: EncodeSeriesID("01", "193092"),
		Observations: []Observation{
			{Year: "2019", Value: "140", Latest: true},
			{Year: "2018", Value: "120"},
		},
	}))
	assert.Equal(t, "140", table.Row(0)[1])
}

func TestIngest_DiscardsMalformedIdentifier(t *testing.T) {
	table := newTestTable(t, "193092")

	err := table.Ingest(QueryResult{SeriesID: "OEUS01"})
	var malformed *MalformedIdentifierError
	require.ErrorAs(t, err, &malformed)
	assert.Equal(t, 2, table.PendingCount())
}

func TestIngest_DiscardsUnexpectedSeries(t *testing.T) {
	table := newTestTable(t, "193092")

	for _, r := range []QueryResult{
		result("06", "193092", "900"), // state not in table
		result("01", "171021", "50"),  // occupation not in table
	} {
		err := table.Ingest(r)
		var unexpected *UnexpectedSeriesError
		require.ErrorAs(t, err, &unexpected)
	}

	rows, cols := table.Shape()
	assert.Equal(t, 2, rows)
	assert.Equal(t, 1, cols)
	assert.Equal(t, 2, table.PendingCount())
}

func TestIngest_Idempotent(t *testing.T) {
	once := newTestTable(t, "193092", "171021")
	twice := newTestTable(t, "193092", "171021")
	r := result("02", "171021", "75")

	require.NoError(t, once.Ingest(r))
	require.NoError(t, twice.Ingest(r))
	require.NoError(t, twice.Ingest(r))

	assert.Equal(t, tableText(t, once), tableText(t, twice))
}

func TestIngest_OrderIndependent(t *testing.T) {
	occupations := []string{"193092", "171021", "254012"}
	results := []QueryResult{
		result("01", "193092", "120"),
		result("01", "171021", "-"),
		{SeriesID: EncodeSeriesID("01", "254012")},
		result("02", "193092", "30"),
		result("02", "171021", "1,050"),
		result("02", "254012", "n/a"),
		result("09", "254012", "10"),
	}

	ingestAll := func(rs []QueryResult) string {
		table := newTestTable(t, occupations...)
		for _, r := range rs {
			_ = table.Ingest(r)
		}
		return tableText(t, table)
	}

	want := ingestAll(results)
	rng := rand.New(rand.NewPCG(1, 2))
	for range 20 {
		shuffled := append([]QueryResult(nil), results...)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		if diff := cmp.Diff(want, ingestAll(shuffled)); diff != "" {
			t.Fatalf("permutation changed the table (-want +got):\n%s", diff)
		}
	}
}

func TestMarkUnavailable_KeepsExistingResult(t *testing.T) {
	table := newTestTable(t, "193092")
	require.NoError(t, table.Ingest(result("01", "193092", "120")))

	require.NoError(t, table.MarkUnavailable(EncodeSeriesID("01", "193092")))
	require.NoError(t, table.MarkUnavailable(EncodeSeriesID("02", "193092")))

	assert.Equal(t, []string{"Alabama", "120"}, table.Row(0))
	assert.Equal(t, []string{"Alaska", "none"}, table.Row(1))
	assert.True(t, table.Complete())
}

func TestFinalize(t *testing.T) {
	fakeClock := clockwork.NewFakeClockAt(time.Date(2019, time.July, 8, 12, 0, 0, 0, time.UTC))
	SetClock(fakeClock)
	t.Cleanup(func() { SetClock(nil) })

	table := newTestTable(t, "193092")
	assert.False(t, table.Finalized())
	assert.Equal(t, fakeClock.Now(), table.CreatedAt())

	fakeClock.Advance(time.Minute)
	table.Finalize()
	assert.True(t, table.Finalized())
	assert.Equal(t, fakeClock.Now(), table.FinalizedAt())

	fakeClock.Advance(time.Minute)
	table.Finalize()
	assert.Equal(t, fakeClock.Now().Add(-time.Minute), table.FinalizedAt(), "second Finalize keeps the first stamp")

	assert.ErrorIs(t, table.Ingest(result("01", "193092", "5")), ErrTableFinalized)
	assert.ErrorIs(t, table.MarkUnavailable(EncodeSeriesID("01", "193092")), ErrTableFinalized)
}

func TestCountByState(t *testing.T) {
	table := newTestTable(t, "193092", "171021")
	require.NoError(t, table.Ingest(result("01", "193092", "120")))
	require.NoError(t, table.Ingest(result("01", "171021", "-")))
	require.NoError(t, table.MarkUnavailable(EncodeSeriesID("02", "193092")))

	assert.Equal(t, map[CellState]int{
		CellValue:       1,
		CellSuppressed:  1,
		CellUnavailable: 1,
		CellPending:     1,
	}, table.CountByState())
}

func TestWriteTSV(t *testing.T) {
	table := newTestTable(t, "193092", "171021")
	require.NoError(t, table.Ingest(result("01", "193092", "120")))
	require.NoError(t, table.Ingest(result("01", "171021", "-")))
	require.NoError(t, table.MarkUnavailable(EncodeSeriesID("02", "193092")))

	want := "State\t193092\t171021\n" +
		"Alabama\t120\tno est.\n" +
		"Alaska\tnone\t*\n"
	assert.Equal(t, want, tableText(t, table))
}

func TestReadTSV_RoundTrip(t *testing.T) {
	table := newTestTable(t, "193092", "171021", "254012")
	require.NoError(t, table.Ingest(result("01", "193092", "1,230")))
	require.NoError(t, table.Ingest(result("01", "171021", "-")))
	_ = table.Ingest(result("01", "254012", "bogus"))
	require.NoError(t, table.MarkUnavailable(EncodeSeriesID("02", "193092")))

	text := tableText(t, table)
	parsed, err := ReadTSV(strings.NewReader(text))
	require.NoError(t, err)

	assert.Equal(t, text, tableText(t, parsed))
	assert.True(t, parsed.Finalized())
	assert.Equal(t, table.CountByState(), parsed.CountByState())

	cell, ok := parsed.Cell("Alabama", "193092")
	require.True(t, ok)
	assert.InDelta(t, 1230.0, cell.Value, 0)
}

func TestReadTSV_Errors(t *testing.T) {
	cases := map[string]string{
		"empty":      "",
		"bad header": "Region\t193092\nAlabama\t1\n",
		"ragged":     "State\t193092\t171021\nAlabama\t1\n",
		"dup column": "State\t193092\t193092\nAlabama\t1\t2\n",
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ReadTSV(strings.NewReader(input))
			assert.Error(t, err)
		})
	}
}

func TestParseCell(t *testing.T) {
	cases := map[string]Cell{
		"*":       {State: CellPending},
		"none":    {State: CellUnavailable},
		"no est.": {State: CellSuppressed},
		"invalid": {State: CellMalformed},
		"42":      {State: CellValue, Text: "42", Value: 42},
		"3,400":   {State: CellValue, Text: "3,400", Value: 3400},
		"NaN":     {State: CellMalformed},
		"-5":      {State: CellMalformed},
	}
	for text, want := range cases {
		assert.Equal(t, want, ParseCell(text), text)
	}
}

func tableText(t *testing.T, table *EmploymentTable) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, table.WriteTSV(&buf))
	return buf.String()
}
