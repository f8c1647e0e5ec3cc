package main

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PulseDesk/internal/domain/models"
	"PulseDesk/internal/usecase"
)

func TestIdentityFromArgs(t *testing.T) {
	assert.Equal(t, models.Identity{Category: "news"}, identityFromArgs([]string{"news"}))
	assert.Equal(t, models.Identity{Category: "stocks", Key: "aapl,msft"}, identityFromArgs([]string{"stocks", "aapl,msft"}))
}

func TestBuildOutputResult(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.FixedZone("CET", 3600))
	res := &usecase.Result[models.ArticleSet]{
		Identity: models.Identity{Category: "news", Key: "tech"},
		Payload:  models.ArticleSet{Articles: []models.Article{{Title: "A", URL: "https://a.com"}}},
		Source:   "RSS",
		StoredAt: at,
		Attempts: []models.Attempt{{Provider: "NewsAPI", Kind: models.KindConfig}, {Provider: "RSS", Records: 1}},
	}

	out := buildOutput(models.Identity{Category: "News", Key: "Tech"}, res, nil)
	assert.Equal(t, "ok", out.Status)
	assert.Equal(t, "news", out.Category)
	assert.Equal(t, "tech", out.Key)
	assert.Equal(t, "RSS", out.Source)
	require.NotNil(t, out.UpdatedAt)
	assert.Equal(t, time.UTC, out.UpdatedAt.Location())
	assert.Len(t, out.Attempts, 2)

	var buf bytes.Buffer
	require.NoError(t, writeJSON(&buf, out))
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "RSS", decoded["source"])
	assert.Contains(t, decoded, "data")
}

func TestBuildOutputExhausted(t *testing.T) {
	err := &usecase.ExhaustedError{
		Identity: models.Identity{Category: "fx", Key: "default"},
		Attempts: []models.Attempt{{Provider: "Stooq", Kind: models.KindHTTP, Status: 503}},
	}

	out := buildOutput(models.Identity{Category: "fx"}, nil, err)
	assert.Equal(t, "error", out.Status)
	assert.Equal(t, "default", out.Key)
	assert.Len(t, out.Attempts, 1)
	assert.Nil(t, out.Data)
}

func TestVersionCommand(t *testing.T) {
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs([]string{"version"})
	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, buf.String(), "pulsedesk dev")
}
