// Command rank reads an employment table written by the ETL and writes the
// per-state top-k occupation report. With -occupations, codes are replaced by
// occupation titles from a BLS occupation dictionary (file or URL).
//
// Usage:
//
//	go run ./cmd/rank \
//	  -table bls_state_occupational_employment.txt \
//	  -k 5 \
//	  -occupations https://download.bls.gov/pub/time.series/oe/oe.occupation
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/couchcryptid/oes-employment-etl/internal/adapter/dictionary"
	"github.com/couchcryptid/oes-employment-etl/internal/domain"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		log.Fatal(err)
	}
}

func run(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("rank", flag.ContinueOnError)
	tablePath := fs.String("table", "", "path to the employment table TSV")
	k := fs.Int("k", 5, "number of occupations per state")
	out := fs.String("out", "", "output path (default stdout)")
	occupations := fs.String("occupations", "", "occupation dictionary file or URL for titles")
	userAgent := fs.String("user-agent", "oes-employment-etl/1.0", "User-Agent for dictionary downloads")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *tablePath == "" {
		fs.Usage()
		return fmt.Errorf("missing required flag: -table")
	}

	table, err := readTable(*tablePath)
	if err != nil {
		return err
	}

	w := stdout
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		w = f
	}

	if *occupations == "" {
		return domain.WriteRankingTSV(w, table, *k)
	}

	loader := dictionary.NewLoader(*userAgent, 30*time.Second, slog.New(slog.NewTextHandler(os.Stderr, nil)))
	dict, err := loader.Load(context.Background(), *occupations)
	if err != nil {
		return err
	}
	return writeNamedRanking(w, table, *k, dict)
}

func readTable(path string) (*domain.EmploymentTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open table: %w", err)
	}
	defer f.Close()

	table, err := domain.ReadTSV(f)
	if err != nil {
		return nil, fmt.Errorf("read table %s: %w", path, err)
	}
	return table, nil
}

// writeNamedRanking writes the top-k report with occupation titles in place
// of codes. Codes missing from the dictionary are written as-is.
func writeNamedRanking(w io.Writer, table *domain.EmploymentTable, k int, names *domain.Dictionary) error {
	rankings, err := table.Rankings(k)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	cw.Comma = '\t'
	header := []string{domain.StateHeader}
	for i := 1; i <= k; i++ {
		header = append(header, domain.Ordinal(i))
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, r := range rankings {
		rec := make([]string, 1+k)
		rec[0] = r.State.Name
		for i, code := range r.Occupations {
			rec[i+1] = code
			if name, ok := names.Name(code); ok {
				rec[i+1] = name
			}
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
