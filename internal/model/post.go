package model

// PostDraft is a structured post generated from one topic.
type PostDraft struct {
	Title    string   `json:"title" yaml:"title"`
	Content  string   `json:"content" yaml:"-"`
	Category string   `json:"category" yaml:"category"`
	Tags     []string `json:"tags" yaml:"tags"`
	Summary  string   `json:"summary,omitempty" yaml:"summary,omitempty"`
}

// SocialPost is a short promotional variant of a post for one platform.
type SocialPost struct {
	Platform string   `json:"platform" yaml:"platform"`
	Text     string   `json:"text" yaml:"text"`
	Hashtags []string `json:"hashtags" yaml:"hashtags,omitempty"`
}
