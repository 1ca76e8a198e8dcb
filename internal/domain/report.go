package domain

import "time"

// ContentPiece is one generated marketing unit (a caption, a post, a
// storyboard beat) inside a brand report.
type ContentPiece struct {
	Headline string `json:"headline"`
	Body     string `json:"body"`
	CallTo   string `json:"call_to_action,omitempty"`
	Channel  string `json:"channel,omitempty"`
	Locale   string `json:"locale,omitempty"`
}

// BrandReport is the structured projection of a completed job's two raw
// stage outputs. It is created exactly once per completed job and is
// immutable afterwards except for the user feedback fields. The raw
// outputs on the job remain the source of truth; this record is a
// best-effort, queryable view.
type BrandReport struct {
	ID       string
	JobID    string
	Palette  []string
	Mood     string
	Style    string
	Subjects []string
	Pieces   []ContentPiece

	Rating   *int
	Feedback string

	CreatedAt time.Time
}
