package domain

import "time"

// JobStatus enumerates vision job lifecycle states.
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusAnalyzing  JobStatus = "analyzing"
	JobStatusGenerating JobStatus = "generating"
	JobStatusComplete   JobStatus = "complete"
	JobStatusError      JobStatus = "error"
	JobStatusCancelled  JobStatus = "cancelled"
)

// FailureStage attributes a failed attempt to the step that caused it.
type FailureStage string

const (
	StageAnalysis   FailureStage = "analysis"
	StageGeneration FailureStage = "generation"
	StageTimeout    FailureStage = "timeout"
)

// Progress checkpoints are coarse phase markers, not a continuous measure.
const (
	ProgressQueued     = 0
	ProgressAnalyzing  = 25
	ProgressGenerating = 60
	ProgressComplete   = 100
)

// DefaultMaxRetries bounds automatic and manual retries per job.
const DefaultMaxRetries = 3

// CreativityMin and CreativityMax bound the accepted creativity level.
const (
	CreativityMin = 0.0
	CreativityMax = 2.0
)

// Job tracks one uploaded brand image through the two-stage
// analyze-then-generate pipeline to completion or terminal failure.
type Job struct {
	ID     string
	UserID string

	SourceURL              string
	Context                string
	Purpose                string
	OutputFormat           string
	CreativityLevel        float64
	AdditionalInstructions string
	Locale                 string

	Status   JobStatus
	Progress int

	AnalysisOutput *string
	ContentOutput  *string

	ErrorMessage string
	ErrorStage   FailureStage
	RetryCount   int
	MaxRetries   int

	CreatedAt           time.Time
	AnalysisCompletedAt *time.Time
	ContentCompletedAt  *time.Time
	CompletedAt         *time.Time
	UpdatedAt           time.Time
	DeletedAt           *time.Time
}

// JobPatch carries the optional fields of a partial status update. Nil
// fields are left untouched by the store.
type JobPatch struct {
	AnalysisOutput *string
	ContentOutput  *string
	ErrorMessage   *string
	ErrorStage     *FailureStage
	RetryCount     *int
}

// RetryEligible reports whether the scheduler may pick this job up again.
func (j *Job) RetryEligible() bool {
	return j.Status == JobStatusError && j.RetryCount < j.MaxRetries
}

// Terminal reports whether no further processing can happen for the job.
func (j *Job) Terminal() bool {
	switch j.Status {
	case JobStatusComplete, JobStatusCancelled:
		return true
	case JobStatusError:
		return j.RetryCount >= j.MaxRetries
	}
	return false
}

// Running reports whether the job currently holds a concurrency slot.
func (j *Job) Running() bool {
	return j.Status == JobStatusAnalyzing || j.Status == JobStatusGenerating
}

// ValidCreativity reports whether the level is inside the accepted range.
func ValidCreativity(level float64) bool {
	return level >= CreativityMin && level <= CreativityMax
}
