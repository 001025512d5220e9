// Package domain models BLS Occupational Employment Statistics (OES) series
// and the state × occupation employment table built from them.
//
// # Data Source
//
// Estimates come from the BLS public time-series API
// (https://api.bls.gov/publicAPI/v2/timeseries/data/). Each request carries at
// most 50 series IDs and a year range of at most 20 years. Reference
// dictionaries are the tab-delimited mapping files published alongside the
// flat files:
//
//	https://download.bls.gov/pub/time.series/sa/sa.state       state code → name
//	https://download.bls.gov/pub/time.series/oe/oe.occupation  occupation code → name
//
// Both start with a header line.
//
// # Series IDs
//
// An OES series ID is 25 characters with no separators
// (https://www.bls.gov/help/hlpforma.htm#OE):
//
//	OE U S 01 00000 000000 193092 01
//	│  │ │ │  │     │      │      └ data type: employment
//	│  │ │ │  │     │      └─────── occupation (6 digits)
//	│  │ │ │  │     └────────────── industry: cross-industry
//	│  │ │ │  └──────────────────── area: statewide
//	│  │ │ └─────────────────────── state
//	│  │ └───────────────────────── area type: statewide
//	│  └─────────────────────────── not seasonally adjusted
//	└────────────────────────────── survey: Occupational Employment
//
// [EncodeSeriesID] and [DecodeSeriesID] are the only code that knows these
// offsets.
//
// # Occupation Codes
//
// The occupations of interest come from a salary schedule keyed by 8-digit
// O*NET-SOC codes ("19-3092.00"). Stripping punctuation and keeping six
// characters gives the OES code ("193092"). Codes missing from the OES
// dictionary fall back to the code with its last digit zeroed, which is the
// broader occupation group ("193099" → "193090"). The fallback changes what a
// column measures and is always logged; codes that still do not resolve stop
// the run before any request is made.
//
// # Cell Values
//
//	"1,230"   employment estimate
//	"no est." BLS published "-": the estimate exists but is suppressed
//	"none"    the API returned no data for the series
//	"invalid" the API returned something that is neither
//	"*"       no result ingested yet
package domain
