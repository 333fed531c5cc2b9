// Package models defines core data structures for extracted content,
// embedding records, and analysis results.
package models

// TextItem is one tagged text fragment extracted from a page.
// Value is always non-empty; the extractor filters out blanks.
type TextItem struct {
	Type   string `json:"type"`   // originating tag or category, e.g. "h1", "meta description"
	Value  string `json:"value"`  // the text content
	Source string `json:"source"` // logical group id, e.g. "client" or "competitor"
}

// Style carries presentation hints for one source group. Label overrides the
// display group name when set (e.g. remapping "client" to its domain name).
type Style struct {
	Label  string `json:"label,omitempty"`
	Symbol string `json:"symbol"`
	Size   int    `json:"size"`
}
