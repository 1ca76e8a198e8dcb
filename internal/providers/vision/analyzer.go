// Package vision wraps the external image-analysis model behind a small
// interface so the pipeline never touches vendor specifics.
package vision

import "context"

// AnalyzeRequest carries the job fields the analysis stage needs.
type AnalyzeRequest struct {
	SourceURL       string
	Context         string
	Purpose         string
	CreativityLevel float64
	Locale          string
}

// Analyzer produces a raw brand analysis for one image. Implementations
// must return an error on network failure, non-2xx responses and empty
// model output; the caller owns normalization and retry policy.
type Analyzer interface {
	Analyze(ctx context.Context, req AnalyzeRequest) (string, error)
}
