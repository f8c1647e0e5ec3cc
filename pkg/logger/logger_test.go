package logger

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerWritesStructuredFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	l, err := New(&Config{Level: "debug", Format: "json", Output: path})
	require.NoError(t, err)

	l.With(String("component", "market")).Info("pulsedesk started",
		Strings("categories", []string{"fx", "news"}),
		Any("chains", map[string][]string{"news": {"newsapi", "rss"}}),
		Duration("age_ms", 1500*time.Millisecond),
		Bool("audit", false),
		Error(errors.New("boom")),
	)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var line map[string]any
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(string(data))), &line))

	assert.Equal(t, "info", line["level"])
	assert.Equal(t, "pulsedesk started", line["message"])
	assert.Equal(t, "market", line["component"])
	assert.Equal(t, "fx, news", line["categories"])
	assert.Equal(t, map[string]any{"news": []any{"newsapi", "rss"}}, line["chains"])
	assert.Equal(t, float64(1500), line["age_ms"])
	assert.Equal(t, false, line["audit"])
	assert.Equal(t, "boom", line["error"])
}

func TestLoggerRejectsUnknownLevel(t *testing.T) {
	_, err := New(&Config{Level: "chatty"})
	assert.Error(t, err)
}
