// Package filesink writes a run's outputs as tab-separated text files.
package filesink

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/couchcryptid/oes-employment-etl/internal/domain"
)

// Output file names.
const (
	TableFile     = "bls_state_occupational_employment.txt"
	SeriesIDsFile = "bls_series_ids_requested.txt"
)

// RankingFile returns the top-k report file name.
func RankingFile(k int) string {
	return fmt.Sprintf("top_%d_state_occupations.txt", k)
}

// Sink writes the table, the requested series IDs, and the top-k report into
// a directory. Each file is written to a temporary name and renamed, so a
// failed run never leaves a truncated file behind.
type Sink struct {
	dir    string
	topK   int
	logger *slog.Logger
}

// New creates a Sink writing into dir, which is created if missing.
func New(dir string, topK int, logger *slog.Logger) (*Sink, error) {
	if topK < 0 {
		return nil, fmt.Errorf("invalid top-k %d", topK)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	return &Sink{dir: dir, topK: topK, logger: logger}, nil
}

// Publish writes all output files for snap.
func (s *Sink) Publish(ctx context.Context, snap domain.Snapshot) error {
	files := []struct {
		name  string
		write func(io.Writer) error
	}{
		{SeriesIDsFile, func(w io.Writer) error { return writeLines(w, snap.SeriesIDs) }},
		{TableFile, snap.Table.WriteTSV},
		{RankingFile(s.topK), func(w io.Writer) error { return domain.WriteRankingTSV(w, snap.Table, s.topK) }},
	}

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		path := filepath.Join(s.dir, f.name)
		if err := writeFileAtomic(path, f.write); err != nil {
			return fmt.Errorf("write %s: %w", f.name, err)
		}
		s.logger.Info("output written", "path", path)
	}
	return nil
}

func writeLines(w io.Writer, lines []string) error {
	for _, line := range lines {
		if _, err := io.WriteString(w, line+"\n"); err != nil {
			return err
		}
	}
	return nil
}

func writeFileAtomic(path string, write func(io.Writer) error) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	bw := bufio.NewWriter(tmp)
	if err = write(bw); err != nil {
		return err
	}
	if err = bw.Flush(); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
