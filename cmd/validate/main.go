// Command validate performs integrity checks on an ETL output directory: the
// employment table, the list of requested series IDs, and the top-k report.
// It verifies table structure, that the requested series cover exactly the
// table cells in state-major order, and that the report matches a ranking
// recomputed from the table.
//
// Usage:
//
//	go run ./cmd/validate -dir out -k 5
package main

import (
	"bufio"
	"bytes"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/couchcryptid/oes-employment-etl/internal/adapter/filesink"
	"github.com/couchcryptid/oes-employment-etl/internal/domain"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	dir := flag.String("dir", ".", "ETL output directory")
	k := flag.Int("k", 5, "k of the top-k report to check")
	allowPending := flag.Bool("allow-pending", false, "do not fail on cells without a result")
	flag.Parse()

	if code := run(*dir, *k, *allowPending); code != 0 {
		os.Exit(code)
	}
}

func run(dir string, k int, allowPending bool) int {
	fmt.Println("=== OES Output Integrity Validation ===")
	fmt.Println()

	table, err := loadTable(filepath.Join(dir, filesink.TableFile))
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load table: %v\n", err)
		return 1
	}
	ids, err := loadLines(filepath.Join(dir, filesink.SeriesIDsFile))
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load series ids: %v\n", err)
		return 1
	}
	report, err := os.ReadFile(filepath.Join(dir, filesink.RankingFile(k)))
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load ranking report: %v\n", err)
		return 1
	}

	phases := []*phase{
		validateTable(table, allowPending),
		validateSeriesCoverage(ids, table),
		validateRanking(report, table, k),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	rows, cols := table.Shape()
	fmt.Println()
	fmt.Printf("Table: %d states x %d occupations, %d series ids\n", rows, cols, len(ids))
	for state, n := range table.CountByState() {
		fmt.Printf("  %-12s %d\n", state, n)
	}

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// ── Data loading ──

func loadTable(path string) (*domain.EmploymentTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return domain.ReadTSV(f)
}

func loadLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	return lines, sc.Err()
}

// ── Phase 1: Table Structure ──

func validateTable(table *domain.EmploymentTable, allowPending bool) *phase {
	p := &phase{name: "Phase 1: Table Structure"}

	rows, cols := table.Shape()
	if rows == 0 {
		p.errorf("table has no state rows")
	}
	if cols == 0 {
		p.errorf("table has no occupation columns")
	}
	for _, occ := range table.Occupations() {
		if len(occ) != domain.OccupationCodeWidth {
			p.errorf("column %q: occupation codes are %d characters", occ, domain.OccupationCodeWidth)
		}
	}
	if n := table.PendingCount(); n > 0 && !allowPending {
		p.errorf("%d cells have no result (%s)", n, domain.PendingMarker)
	}
	return p
}

// ── Phase 2: Series Coverage ──
// The requested ids must be the state-major cross product of the table axes.

func validateSeriesCoverage(ids []string, table *domain.EmploymentTable) *phase {
	p := &phase{name: "Phase 2: Series Coverage"}

	rows, cols := table.Shape()
	if len(ids) != rows*cols {
		p.errorf("expected %d series ids (%d x %d), got %d", rows*cols, rows, cols, len(ids))
	}

	columns := table.Occupations()
	seen := make(map[string]int, len(ids))
	states := map[string]bool{}
	for i, id := range ids {
		if prev, dup := seen[id]; dup {
			p.errorf("line %d: %s duplicates line %d", i+1, id, prev)
			continue
		}
		seen[id] = i + 1

		if len(id) != domain.SeriesIDWidth {
			p.errorf("line %d: %s is %d characters, want %d", i+1, id, len(id), domain.SeriesIDWidth)
		}
		key, err := domain.DecodeSeriesID(id)
		if err != nil {
			p.errorf("line %d: %v", i+1, err)
			continue
		}
		states[key.State] = true
		if cols > 0 && key.Occupation != columns[i%cols] {
			p.errorf("line %d: occupation %s, want %s (state-major order)", i+1, key.Occupation, columns[i%cols])
		}
	}
	if len(states) != rows {
		p.errorf("series ids cover %d states, table has %d rows", len(states), rows)
	}
	return p
}

// ── Phase 3: Ranking Consistency ──

func validateRanking(report []byte, table *domain.EmploymentTable, k int) *phase {
	p := &phase{name: "Phase 3: Ranking Consistency"}

	var want bytes.Buffer
	if err := domain.WriteRankingTSV(&want, table, k); err != nil {
		p.errorf("recompute ranking: %v", err)
		return p
	}

	wantLines := strings.Split(strings.TrimRight(want.String(), "\n"), "\n")
	gotLines := strings.Split(strings.TrimRight(string(report), "\n"), "\n")
	if len(wantLines) != len(gotLines) {
		p.errorf("report has %d lines, want %d", len(gotLines), len(wantLines))
	}
	for i := 0; i < len(wantLines) && i < len(gotLines); i++ {
		if wantLines[i] != gotLines[i] {
			p.errorf("line %d: got %q, want %q", i+1, gotLines[i], wantLines[i])
		}
	}
	return p
}
