package normalize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PulseDesk/internal/domain/models"
)

var now = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func TestNormalizeArticleRequiredFields(t *testing.T) {
	assert.Nil(t, NormalizeArticle("", "http://x/y", "", "", "", now))
	assert.Nil(t, NormalizeArticle("T", "", "", "", "", now))
	assert.Nil(t, NormalizeArticle("   ", "http://x/y", "", "", "", now))
	assert.Nil(t, NormalizeArticle("T", "/relative/path", "", "", "", now))
	assert.Nil(t, NormalizeArticle("T", "ftp://x/y", "", "", "", now))
}

func TestNormalizeArticleDerivesSourceAndTime(t *testing.T) {
	a := NormalizeArticle(" Rates hold ", "https://www.Example.com/a?b=1", "", "<p>Central bank &amp; markets</p>", "not a date", now)
	require.NotNil(t, a)
	assert.Equal(t, "Rates hold", a.Title)
	assert.Equal(t, "example.com", a.Source)
	assert.Equal(t, "Central bank & markets", a.Description)
	assert.True(t, a.PublishedAt.Equal(now))

	b := NormalizeArticle("T", "https://news.site/x", "Wire", "", "2025-02-28T10:00:00Z", now)
	require.NotNil(t, b)
	assert.Equal(t, "Wire", b.Source)
	assert.Equal(t, time.Date(2025, 2, 28, 10, 0, 0, 0, time.UTC), b.PublishedAt)
}

func article(title, url string, ago time.Duration) models.Article {
	return models.Article{Title: title, URL: url, PublishedAt: now.Add(-ago), Source: "s"}
}

func TestSanitizeArticlesDedupSortTruncate(t *testing.T) {
	in := []models.Article{
		article("old", "https://a.com/1", 3*time.Hour),
		article("new", "https://a.com/2", time.Minute),
		article("dup newer", "https://a.com/1#comments", time.Hour),
		{Title: "", URL: "https://a.com/3"},
		article("mid", "https://a.com/4", 2*time.Hour),
	}

	out := SanitizeArticles(in, 0)
	require.Len(t, out, 3)
	assert.Equal(t, "new", out[0].Title)
	assert.Equal(t, "dup newer", out[1].Title)
	assert.Equal(t, "mid", out[2].Title)

	limited := SanitizeArticles(in, 2)
	assert.Len(t, limited, 2)
}

func TestSanitizeArticlesIdempotent(t *testing.T) {
	in := []models.Article{
		article("a", "https://a.com/1", time.Hour),
		article("b", "https://a.com/1#x", 2*time.Hour),
		article("c", "https://b.com/1", 30*time.Minute),
		article("d", "https://c.com/1", 30*time.Minute),
	}
	once := SanitizeArticles(in, 0)
	twice := SanitizeArticles(once, 0)
	assert.Equal(t, once, twice)
}

func TestSanitizeArticlesNonIncreasing(t *testing.T) {
	var in []models.Article
	for i, ago := range []time.Duration{5, 1, 9, 3, 3, 7, 0} {
		in = append(in, article("t", "https://x.com/"+string(rune('a'+i)), ago*time.Minute))
	}
	out := SanitizeArticles(in, 0)
	for i := 1; i < len(out); i++ {
		assert.False(t, out[i].PublishedAt.After(out[i-1].PublishedAt), "index %d out of order", i)
	}
}
