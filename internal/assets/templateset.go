package assets

// TemplateSet holds the HTML templates that lay out the flowing document.
type TemplateSet struct {
	Name     string // identifier (name or directory path)
	Document string // page skeleton, one section per article
	Cover    string // cover page wrapper around the cover image
}

// Built-in asset names.
const (
	DefaultTemplateSetName = "default"
	DefaultStyleName       = "default"
	DefaultCoverName       = "cover"
)
