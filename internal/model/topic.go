package model

import "time"

// Topic is a candidate source item collected for an account set.
type Topic struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Body        string    `json:"content"`
	URL         string    `json:"url"`
	Source      string    `json:"source"`
	Subject     string    `json:"subject"`
	OriginIndex int       `json:"-"` // position in the backing store
	Used        string    `json:"used,omitempty"`
	Published   string    `json:"published,omitempty"`
	CollectedAt time.Time `json:"collected_at,omitempty"`
}

// IsUsed reports whether the topic already produced a post.
func (t Topic) IsUsed() bool { return t.Used != "" }

// Identity is the key used to de-duplicate topics at collection time.
func (t Topic) Identity() string {
	if t.URL != "" {
		return t.URL
	}
	return t.Title
}
