package domain

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Entry is one code/name pair of a reference dictionary.
type Entry struct {
	Code string
	Name string
}

// Dictionary is an ordered code → name lookup. Iteration order is insertion
// order, which fixes the row order of the employment table.
type Dictionary struct {
	codes []string
	names map[string]string
}

// NewDictionary builds a dictionary from entries, in order.
func NewDictionary(entries ...Entry) *Dictionary {
	d := &Dictionary{names: make(map[string]string, len(entries))}
	for _, e := range entries {
		d.Add(e.Code, e.Name)
	}
	return d
}

// Add inserts or renames a code. A repeated code keeps its first position.
func (d *Dictionary) Add(code, name string) {
	if d.names == nil {
		d.names = make(map[string]string)
	}
	if _, ok := d.names[code]; !ok {
		d.codes = append(d.codes, code)
	}
	d.names[code] = name
}

// Name returns the display name for code.
func (d *Dictionary) Name(code string) (string, bool) {
	name, ok := d.names[code]
	return name, ok
}

// Has reports whether code is present.
func (d *Dictionary) Has(code string) bool {
	_, ok := d.names[code]
	return ok
}

// Len returns the number of codes.
func (d *Dictionary) Len() int { return len(d.codes) }

// Codes returns the codes in insertion order.
func (d *Dictionary) Codes() []string {
	out := make([]string, len(d.codes))
	copy(out, d.codes)
	return out
}

// Entries returns the code/name pairs in insertion order.
func (d *Dictionary) Entries() []Entry {
	out := make([]Entry, len(d.codes))
	for i, c := range d.codes {
		out[i] = Entry{Code: c, Name: d.names[c]}
	}
	return out
}

// ParseDictionary reads a BLS mapping file (e.g. sa.state, oe.occupation):
// tab-delimited, first line a header, code and name in the first two columns.
// Lines with fewer than two columns are skipped and counted.
func ParseDictionary(r io.Reader) (*Dictionary, int, error) {
	d := NewDictionary()
	skipped := 0

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	first := true
	for sc.Scan() {
		if first {
			first = false
			continue
		}
		fields := strings.Split(strings.TrimSpace(sc.Text()), "\t")
		if len(fields) < 2 || fields[0] == "" {
			skipped++
			continue
		}
		d.Add(strings.TrimSpace(fields[0]), strings.TrimSpace(fields[1]))
	}
	if err := sc.Err(); err != nil {
		return nil, skipped, fmt.Errorf("read dictionary: %w", err)
	}
	return d, skipped, nil
}
