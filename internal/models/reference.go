package models

// Reference is an external citation attached to a catalog record.
type Reference struct {
	URL         string `json:"url"`
	Source      string `json:"source"`
	Description string `json:"description,omitempty"`
}
