// Package dictionary loads the BLS reference files (state and occupation
// code lists) and the salary schedule that drives the occupation set.
package dictionary

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/couchcryptid/oes-employment-etl/internal/domain"
)

// Loader reads tab-separated code dictionaries from a URL or a local file.
type Loader struct {
	httpClient *http.Client
	userAgent  string
	logger     *slog.Logger
}

// NewLoader creates a Loader. The BLS download site rejects requests without
// a descriptive User-Agent, so userAgent should identify the caller.
func NewLoader(userAgent string, timeout time.Duration, logger *slog.Logger) *Loader {
	return &Loader{
		httpClient: &http.Client{Timeout: timeout},
		userAgent:  userAgent,
		logger:     logger,
	}
}

// Load fetches source (http, https, or a file path) and parses it.
func (l *Loader) Load(ctx context.Context, source string) (*domain.Dictionary, error) {
	rc, err := l.open(ctx, source)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	dict, skipped, err := domain.ParseDictionary(rc)
	if err != nil {
		return nil, fmt.Errorf("parse dictionary %s: %w", source, err)
	}
	if skipped > 0 {
		l.logger.Debug("skipped dictionary lines", "source", source, "count", skipped)
	}
	l.logger.Info("dictionary loaded", "source", source, "entries", dict.Len())
	return dict, nil
}

func (l *Loader) open(ctx context.Context, source string) (io.ReadCloser, error) {
	if !isURL(source) {
		f, err := os.Open(source)
		if err != nil {
			return nil, fmt.Errorf("open dictionary: %w", err)
		}
		return f, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if l.userAgent != "" {
		req.Header.Set("User-Agent", l.userAgent)
	}

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch dictionary %s: %w", source, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("fetch dictionary %s: status %d", source, resp.StatusCode)
	}
	return resp.Body, nil
}

func isURL(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

// LoadSalarySchedule reads the salary schedule file at path.
func LoadSalarySchedule(path string) ([]domain.SalaryEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open salary schedule: %w", err)
	}
	defer f.Close()

	entries, err := domain.ParseSalarySchedule(f)
	if err != nil {
		return nil, fmt.Errorf("parse salary schedule %s: %w", path, err)
	}
	return entries, nil
}
