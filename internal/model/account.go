package model

// Account is the per-account-set context the selector and drafter work with.
type Account struct {
	Name        string
	Theme       string
	Description string
	Language    string
	// Template picks the drafting prompt; empty means use Name.
	Template    string
	Categories  []string
	DefaultTags []string
	// Social lists the platforms that get a promotional variant of each post.
	Social      []string
}

// TemplateKey returns the key used to look up a drafting prompt.
func (a Account) TemplateKey() string {
	if a.Template != "" {
		return a.Template
	}
	return a.Name
}
