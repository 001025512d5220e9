package domain

// Observation is one data point of a series as returned by the API.
type Observation struct {
	Year       string `json:"year"`
	Period     string `json:"period"`
	PeriodName string `json:"period_name,omitempty"`
	Value      string `json:"value"`
	Latest     bool   `json:"latest,omitempty"`
}

// QueryResult is the API response for one series ID. Observations are
// ordered latest first; an empty slice means the API returned no data.
type QueryResult struct {
	SeriesID     string        `json:"series_id"`
	Observations []Observation `json:"observations,omitempty"`
}

// Latest returns the most recent observation.
func (r QueryResult) Latest() (Observation, bool) {
	if len(r.Observations) == 0 {
		return Observation{}, false
	}
	return r.Observations[0], true
}

// Snapshot is the output of a run handed to the sinks.
type Snapshot struct {
	Table     *EmploymentTable
	SeriesIDs []string // in request order
	Years     YearRange
}
