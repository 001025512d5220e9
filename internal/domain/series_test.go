package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeSeriesID(t *testing.T) {
	id := EncodeSeriesID("01", "193092")
	assert.Equal(t, "OEUS010000000000019309201", id)
	assert.Len(t, id, SeriesIDWidth)
}

func TestEncodeSeriesID_FieldOffsets(t *testing.T) {
	id := EncodeSeriesID("72", "151252")

	assert.Equal(t, "OE", id[0:2])
	assert.Equal(t, "U", id[2:3])
	assert.Equal(t, "S", id[3:4])
	assert.Equal(t, "72", id[4:6])
	assert.Equal(t, "00000", id[6:11])
	assert.Equal(t, "000000", id[11:17])
	assert.Equal(t, "151252", id[17:23])
	assert.Equal(t, "01", id[23:25])
}

func TestDecodeSeriesID_RoundTrip(t *testing.T) {
	states := []string{"01", "02", "06", "11", "48", "72", "78"}
	occupations := []string{"000000", "193092", "171021", "254012", "119121", "193090"}

	for _, s := range states {
		for _, o := range occupations {
			id := EncodeSeriesID(s, o)
			require.Len(t, id, SeriesIDWidth)

			key, err := DecodeSeriesID(id)
			require.NoError(t, err)
			assert.Equal(t, SeriesKey{State: s, Occupation: o}, key)
			assert.Equal(t, id, key.SeriesID())
		}
	}
}

func TestDecodeSeriesID_IgnoresOtherFields(t *testing.T) {
	key, err := DecodeSeriesID("XXXX06YYYYYZZZZZZ19309299")
	require.NoError(t, err)
	assert.Equal(t, SeriesKey{State: "06", Occupation: "193092"}, key)
}

func TestDecodeSeriesID_TooShort(t *testing.T) {
	for _, id := range []string{"", "OEUS01", "OEUS0100000000000193"} {
		_, err := DecodeSeriesID(id)
		var malformed *MalformedIdentifierError
		require.ErrorAs(t, err, &malformed, "id %q", id)
		assert.Equal(t, id, malformed.ID)
	}
}

func TestDecodeSeriesID_MinimumWidth(t *testing.T) {
	// The data type suffix is not needed to decode.
	key, err := DecodeSeriesID("OEUS0200000000000193092")
	require.NoError(t, err)
	assert.Equal(t, "02", key.State)
	assert.Equal(t, "193092", key.Occupation)
}

func TestSeriesIDs_StateMajor(t *testing.T) {
	ids := SeriesIDs([]string{"01", "02"}, []string{"193092", "171021"})
	assert.Equal(t, []string{
		EncodeSeriesID("01", "193092"),
		EncodeSeriesID("01", "171021"),
		EncodeSeriesID("02", "193092"),
		EncodeSeriesID("02", "171021"),
	}, ids)
}

func TestSeriesIDs_Empty(t *testing.T) {
	assert.Empty(t, SeriesIDs(nil, []string{"193092"}))
	assert.Empty(t, SeriesIDs([]string{"01"}, nil))
}
