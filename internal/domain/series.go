package domain

// Series ID layout for the OES survey, see https://www.bls.gov/help/hlpforma.htm#OE.
// Offsets are 0-indexed and half-open.
const (
	surveyPrefix   = "OE"     // [0,2) Occupational Employment
	seasonalCode   = "U"      // [2,3) not seasonally adjusted
	areaTypeCode   = "S"      // [3,4) statewide
	statewideArea  = "00000"  // [6,11)
	allIndustries  = "000000" // [11,17) cross-industry
	employmentType = "01"     // [23,25)

	stateStart      = 4
	stateEnd        = 6
	occupationStart = 17
	occupationEnd   = 23

	// SeriesIDWidth is the length of every encoded series ID.
	SeriesIDWidth = 25
)

// SeriesKey is the part of a series ID that varies between requests.
type SeriesKey struct {
	State      string
	Occupation string
}

// EncodeSeriesID builds the statewide, cross-industry employment series ID
// for a state and a 6-digit occupation code. Inputs are expected to be
// validated against the reference dictionaries already.
func EncodeSeriesID(state, occupation string) string {
	return surveyPrefix + seasonalCode + areaTypeCode + state + statewideArea + allIndustries + occupation + employmentType
}

// DecodeSeriesID recovers the state and occupation codes from a series ID by
// position. The remaining fields are not checked.
func DecodeSeriesID(id string) (SeriesKey, error) {
	if len(id) < occupationEnd {
		return SeriesKey{}, &MalformedIdentifierError{ID: id}
	}
	return SeriesKey{
		State:      id[stateStart:stateEnd],
		Occupation: id[occupationStart:occupationEnd],
	}, nil
}

// SeriesID encodes the key.
func (k SeriesKey) SeriesID() string {
	return EncodeSeriesID(k.State, k.Occupation)
}

// SeriesIDs enumerates the state × occupation cross product, state-major.
func SeriesIDs(states, occupations []string) []string {
	ids := make([]string, 0, len(states)*len(occupations))
	for _, s := range states {
		for _, o := range occupations {
			ids = append(ids, EncodeSeriesID(s, o))
		}
	}
	return ids
}
