package types

import "time"

// Article is the canonical persisted record for a single news article.
// The URL is the identity key: the store enforces a unique index on it.
type Article struct {
	Title                string     `bson:"title"                 json:"title"`
	Subtitle             string     `bson:"subtitle,omitempty"    json:"subtitle,omitempty"`
	Content              string     `bson:"content"               json:"content"`
	Date                 *time.Time `bson:"date,omitempty"        json:"date,omitempty"`
	URL                  string     `bson:"url"                   json:"url"`
	Source               string     `bson:"source"                json:"source"`
	PoliticalOrientation string     `bson:"political_orientation" json:"political_orientation"`

	// Cleaned marks the record as handled by the downstream
	// post-processing stage. Set on insert only; upsert never
	// flips it back once true.
	Cleaned bool `bson:"cleaned" json:"cleaned"`
}

// ContentEqual reports whether two articles carry the same content
// fields. Identity (URL) and downstream flags are not compared.
func (a *Article) ContentEqual(b *Article) bool {
	if a.Title != b.Title || a.Subtitle != b.Subtitle || a.Content != b.Content || a.Source != b.Source {
		return false
	}
	if (a.Date == nil) != (b.Date == nil) {
		return false
	}
	if a.Date != nil && !a.Date.Equal(*b.Date) {
		return false
	}
	return true
}

// Clone returns a deep copy of the article.
func (a *Article) Clone() *Article {
	clone := *a
	if a.Date != nil {
		d := *a.Date
		clone.Date = &d
	}
	return &clone
}
