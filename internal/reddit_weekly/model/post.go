package model

import (
	"strconv"
	"time"
)

// PostRecord is one collected post. Records are never mutated after collection.
type PostRecord struct {
	ID          string    `bson:"id" json:"id"`
	Title       string    `bson:"title" json:"title"`
	Score       int       `bson:"score" json:"score"`
	NumComments int       `bson:"num_comments" json:"num_comments"`
	Author      string    `bson:"author" json:"author"`
	CreatedAt   time.Time `bson:"created_at" json:"created_at"` // UTC
	URL         string    `bson:"url" json:"url"`
	Excerpt     string    `bson:"excerpt" json:"excerpt"` // selftext, at most ExcerptLength characters
}

// ExcerptLength caps PostRecord.Excerpt, counted in characters.
const ExcerptLength = 200

// DeletedAuthor stands in for authors removed from the platform.
const DeletedAuthor = "[deleted]"

// RecordColumns is the column order of the raw record dump.
var RecordColumns = []string{
	"id",
	"title",
	"score",
	"num_comments",
	"author",
	"created_utc",
	"created_date",
	"url",
	"selftext",
}

// Row stringifies every field in RecordColumns order.
func (p PostRecord) Row() []string {
	created := p.CreatedAt.UTC()
	return []string{
		p.ID,
		p.Title,
		strconv.Itoa(p.Score),
		strconv.Itoa(p.NumComments),
		p.Author,
		strconv.FormatInt(created.Unix(), 10),
		created.Format(time.DateTime),
		p.URL,
		p.Excerpt,
	}
}

// Truncate cuts s to at most n characters (runes, not bytes).
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
