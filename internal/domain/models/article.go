package models

import "time"

// Article is the normalized news record returned to the dashboard.
type Article struct {
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	Description string    `json:"description"`
	PublishedAt time.Time `json:"publishedAt"`
	Source      string    `json:"source"`
}

// ArticleSet is the payload cached and served for a news section.
type ArticleSet struct {
	Articles []Article `json:"articles"`
}

func (s ArticleSet) Len() int { return len(s.Articles) }
