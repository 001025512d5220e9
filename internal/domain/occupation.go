package domain

import (
	"fmt"
	"log/slog"
	"strings"
	"unicode"
)

// OccupationCodeWidth is the width of a BLS OES occupation code.
const OccupationCodeWidth = 6

// Resolution is the outcome of mapping a source occupation code onto the
// occupation dictionary.
type Resolution struct {
	Raw      string
	Code     string
	Name     string
	FellBack bool // Code is the coarser zero-last-digit bucket
}

// ResolveOccupationCode maps a salary-schedule SOC code such as "19-3092.00"
// onto a 6-digit occupation code. Separators are stripped and the result is
// truncated to six characters. When that code is not in the dictionary the
// sixth character is replaced by '0' and the lookup is retried once.
func ResolveOccupationCode(raw string, occupations *Dictionary) (Resolution, error) {
	code := normalizeOccupationCode(raw)
	if name, ok := occupations.Name(code); ok {
		return Resolution{Raw: raw, Code: code, Name: name}, nil
	}

	fallback := code
	if len(code) == OccupationCodeWidth {
		fallback = code[:OccupationCodeWidth-1] + "0"
		if name, ok := occupations.Name(fallback); ok {
			return Resolution{Raw: raw, Code: fallback, Name: name, FellBack: true}, nil
		}
	}
	return Resolution{}, &UnresolvedOccupationError{Raw: raw, Candidate: code, Fallback: fallback}
}

func normalizeOccupationCode(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
		if b.Len() == OccupationCodeWidth {
			break
		}
	}
	return b.String()
}

// Occupation is one table column: a 6-digit code and the finer-grained
// salary-schedule occupations it aggregates.
type Occupation struct {
	Code           string
	Name           string
	SubOccupations []Entry
}

// OccupationSet is the ordered set of occupations requested in a run.
type OccupationSet struct {
	order     []string
	byKey     map[string]*Occupation
	fallbacks int
}

// Codes returns the occupation codes in column order.
func (s *OccupationSet) Codes() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Len returns the number of occupations.
func (s *OccupationSet) Len() int { return len(s.order) }

// Fallbacks returns how many entries were resolved by the fallback rule.
func (s *OccupationSet) Fallbacks() int { return s.fallbacks }

// Get returns the occupation for code.
func (s *OccupationSet) Get(code string) (Occupation, bool) {
	o, ok := s.byKey[code]
	if !ok {
		return Occupation{}, false
	}
	return *o, true
}

// BuildOccupationSet resolves every salary-schedule entry and groups entries
// sharing a 6-digit code. Column order is the order of first appearance.
// Every fallback is logged since it changes what the column represents. An
// unresolvable entry aborts the build.
func BuildOccupationSet(entries []SalaryEntry, occupations *Dictionary, logger *slog.Logger) (*OccupationSet, error) {
	set := &OccupationSet{byKey: make(map[string]*Occupation)}

	for _, e := range entries {
		res, err := ResolveOccupationCode(e.Code, occupations)
		if err != nil {
			return nil, fmt.Errorf("salary schedule line %d (%s): %w", e.Line, e.Name, err)
		}
		if res.FellBack {
			set.fallbacks++
			logger.Warn("occupation code resolved by fallback",
				"raw_code", e.Code,
				"occupation", e.Name,
				"resolved_code", res.Code,
				"resolved_name", res.Name,
			)
		}

		occ, ok := set.byKey[res.Code]
		if !ok {
			occ = &Occupation{Code: res.Code, Name: res.Name}
			set.byKey[res.Code] = occ
			set.order = append(set.order, res.Code)
		}
		occ.SubOccupations = append(occ.SubOccupations, Entry{Code: e.Code, Name: e.Name})
	}
	return set, nil
}
