package domain

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// SalaryEntry is one row of the salary schedule: an occupation title and its
// 8-digit SOC code (e.g. "19-3092.00").
type SalaryEntry struct {
	Name string
	Code string
	Line int
}

// ParseSalarySchedule reads the tab-delimited salary schedule. The first line
// is a header; the title and code are the first two columns. Rows without a
// code are section headings and are skipped.
func ParseSalarySchedule(r io.Reader) ([]SalaryEntry, error) {
	var entries []SalaryEntry

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for sc.Scan() {
		line++
		if line == 1 {
			continue
		}
		fields := strings.Split(strings.TrimRight(sc.Text(), "\r\n"), "\t")
		if len(fields) < 2 {
			continue
		}
		code := strings.TrimSpace(fields[1])
		if code == "" {
			continue
		}
		entries = append(entries, SalaryEntry{
			Name: strings.TrimSpace(fields[0]),
			Code: code,
			Line: line,
		})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read salary schedule: %w", err)
	}
	return entries, nil
}
