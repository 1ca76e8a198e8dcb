// Package content wraps the external marketing-content model. Stage two of
// the pipeline is deliberately chained off stage one: the generator always
// receives the full analysis text as context.
package content

import "context"

// GenerateRequest composes the generation input from the job parameters and
// the complete analysis output of the prior stage.
type GenerateRequest struct {
	Analysis        string
	Purpose         string
	OutputFormat    string
	Instructions    string
	CreativityLevel float64
	Locale          string
}

// Generator returns raw model text expected to serialize into content
// pieces. Same failure contract as the analyzer: error on network failure,
// non-2xx or empty output.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (string, error)
}
