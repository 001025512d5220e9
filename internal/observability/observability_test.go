package observability

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "info", "json")

	logger.Debug("hidden")
	logger.Info("batch ingested", "batch", 3)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "batch ingested", line["msg"])
	assert.Equal(t, "oes-employment-etl", line["service"])
	assert.InDelta(t, 3.0, line["batch"], 0)
}

func TestNewLogger_TextDebug(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "DEBUG", "text")

	logger.Debug("visible", "series_id", "OEUS010000000000019309201")
	assert.Contains(t, buf.String(), "series_id=OEUS010000000000019309201")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warning"))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel("bogus"))
}

func TestNewMetricsForTesting_Independent(t *testing.T) {
	a := NewMetricsForTesting()
	b := NewMetricsForTesting()

	a.APIRequests.WithLabelValues("success").Inc()
	assert.InDelta(t, 1.0, testutil.ToFloat64(a.APIRequests.WithLabelValues("success")), 0)
	assert.InDelta(t, 0.0, testutil.ToFloat64(b.APIRequests.WithLabelValues("success")), 0)
}
