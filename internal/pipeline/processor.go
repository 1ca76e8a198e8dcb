// Package pipeline implements the vision job pipeline: a bounded-concurrency
// scheduler polling the job store and a processor driving each job through
// the analyze-then-generate stage sequence with per-stage error attribution
// and bounded retry.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/text/language"

	"brandforge/internal/domain"
	"brandforge/internal/infra"
	"brandforge/internal/modeltext"
	"brandforge/internal/notify"
	"brandforge/internal/providers/content"
	"brandforge/internal/providers/vision"
)

// Notifier consumes job state change events. The notify.Hub satisfies it;
// a nil notifier disables push.
type Notifier interface {
	Publish(event notify.JobEvent)
}

// ProcessorOptions wires the processor's collaborators.
type ProcessorOptions struct {
	Jobs       domain.JobRepository
	Reports    domain.ReportRepository
	Analyzer   vision.Analyzer
	Generator  content.Generator
	Notifier   Notifier
	Logger     infra.Logger
	JobTimeout time.Duration
}

// Processor executes one job's full attempt end to end. Collaborator
// failures never escape it: they are converted into job store updates.
// Only job store write failures propagate to the caller.
type Processor struct {
	jobs       domain.JobRepository
	reports    domain.ReportRepository
	analyzer   vision.Analyzer
	generator  content.Generator
	notifier   Notifier
	logger     infra.Logger
	jobTimeout time.Duration
}

func NewProcessor(opts ProcessorOptions) *Processor {
	return &Processor{
		jobs:       opts.Jobs,
		reports:    opts.Reports,
		analyzer:   opts.Analyzer,
		generator:  opts.Generator,
		notifier:   opts.Notifier,
		logger:     opts.Logger,
		jobTimeout: opts.JobTimeout,
	}
}

// stageDef describes one step of the ordered pipeline. Each stage consumes
// the prior stage's output, so adding a third stage does not disturb the
// retry, timeout or progress handling.
type stageDef struct {
	name     domain.FailureStage
	status   domain.JobStatus
	progress int
	run      func(ctx context.Context, job *domain.Job, prior string) (string, error)
}

func (p *Processor) stages() []stageDef {
	return []stageDef{
		{
			name:     domain.StageAnalysis,
			status:   domain.JobStatusAnalyzing,
			progress: domain.ProgressAnalyzing,
			run:      p.runAnalysis,
		},
		{
			name:     domain.StageGeneration,
			status:   domain.JobStatusGenerating,
			progress: domain.ProgressGenerating,
			run:      p.runGeneration,
		},
	}
}

// Process runs one attempt for the given job. The returned error is always
// a job store failure; everything else has already been recorded on the job.
func (p *Processor) Process(ctx context.Context, job *domain.Job) error {
	if p.jobTimeout > 0 && time.Since(job.CreatedAt) > p.jobTimeout {
		// Stale jobs fail before any collaborator call so a hung upstream
		// cannot pin a concurrency slot.
		return p.failAttempt(ctx, job, domain.StageTimeout,
			fmt.Errorf("job older than %s at pickup", p.jobTimeout))
	}

	stages := p.stages()
	outputs := make([]string, len(stages))
	prior := ""
	for i, stage := range stages {
		patch := domain.JobPatch{}
		if i == 1 {
			patch.AnalysisOutput = &outputs[0]
		}
		if err := p.update(ctx, job, stage.status, stage.progress, patch); err != nil {
			return err
		}
		out, err := stage.run(ctx, job, prior)
		if err != nil {
			return p.failAttempt(ctx, job, stage.name, err)
		}
		outputs[i] = out
		prior = out
	}

	// Best-effort structured projection. The raw outputs stay authoritative,
	// so a parse or report-store failure degrades, it does not fail the job.
	p.projectReport(ctx, job, outputs[0], outputs[1])

	return p.update(ctx, job, domain.JobStatusComplete, domain.ProgressComplete,
		domain.JobPatch{ContentOutput: &outputs[1]})
}

func (p *Processor) runAnalysis(ctx context.Context, job *domain.Job, _ string) (string, error) {
	raw, err := p.analyzer.Analyze(ctx, vision.AnalyzeRequest{
		SourceURL:       job.SourceURL,
		Context:         job.Context,
		Purpose:         job.Purpose,
		CreativityLevel: job.CreativityLevel,
		Locale:          job.Locale,
	})
	if err != nil {
		return "", err
	}
	return modeltext.ExtractJSONFragment(raw), nil
}

func (p *Processor) runGeneration(ctx context.Context, job *domain.Job, analysis string) (string, error) {
	raw, err := p.generator.Generate(ctx, content.GenerateRequest{
		Analysis:        analysis,
		Purpose:         job.Purpose,
		OutputFormat:    job.OutputFormat,
		Instructions:    job.AdditionalInstructions,
		CreativityLevel: job.CreativityLevel,
		Locale:          job.Locale,
	})
	if err != nil {
		return "", err
	}
	return modeltext.ExtractJSONFragment(raw), nil
}

// failAttempt books one failed attempt: bumped retry count, error stage and
// message. The job stays retry-eligible until the count reaches the cap;
// terminality is enforced by the claim query, not a separate status.
func (p *Processor) failAttempt(ctx context.Context, job *domain.Job, stage domain.FailureStage, cause error) error {
	retries := job.RetryCount + 1
	if retries > job.MaxRetries {
		retries = job.MaxRetries
	}
	msg := cause.Error()
	p.logger.Warn().
		Str("job_id", job.ID).
		Str("stage", string(stage)).
		Int("retry_count", retries).
		Int("max_retries", job.MaxRetries).
		Err(cause).
		Msg("pipeline: attempt failed")

	st := stage
	return p.update(ctx, job, domain.JobStatusError, job.Progress, domain.JobPatch{
		ErrorMessage: &msg,
		ErrorStage:   &st,
		RetryCount:   &retries,
	})
}

// update writes through the job store, mirrors the write onto the in-memory
// record and publishes the change. A store failure is fatal for the attempt
// and propagates, otherwise scheduler accounting and the stored status
// could diverge silently.
func (p *Processor) update(ctx context.Context, job *domain.Job, status domain.JobStatus, progress int, patch domain.JobPatch) error {
	if err := p.jobs.UpdateStatus(ctx, job.ID, status, progress, patch); err != nil {
		return fmt.Errorf("pipeline: update job %s: %w", job.ID, err)
	}
	job.Status = status
	job.Progress = progress
	if patch.AnalysisOutput != nil {
		job.AnalysisOutput = patch.AnalysisOutput
	}
	if patch.ContentOutput != nil {
		job.ContentOutput = patch.ContentOutput
	}
	if patch.ErrorMessage != nil {
		job.ErrorMessage = *patch.ErrorMessage
	}
	if patch.ErrorStage != nil {
		job.ErrorStage = *patch.ErrorStage
	}
	if patch.RetryCount != nil {
		job.RetryCount = *patch.RetryCount
	}
	// The store drops failure bookkeeping from earlier attempts once the
	// job completes; the in-memory record follows.
	if status == domain.JobStatusComplete {
		job.ErrorMessage = ""
		job.ErrorStage = ""
	}

	if p.notifier != nil {
		p.notifier.Publish(notify.JobEvent{
			JobID:    job.ID,
			Status:   status,
			Progress: progress,
			Stage:    string(job.ErrorStage),
			Message:  job.ErrorMessage,
			At:       time.Now(),
		})
	}
	return nil
}

type analysisPayload struct {
	Palette  []string `json:"palette"`
	Mood     string   `json:"mood"`
	Style    string   `json:"style"`
	Subjects []string `json:"subjects"`
}

type piecesPayload struct {
	Pieces []domain.ContentPiece `json:"pieces"`
}

// projectReport parses the two raw outputs into the structured report.
func (p *Processor) projectReport(ctx context.Context, job *domain.Job, analysisRaw, contentRaw string) {
	report := domain.BrandReport{JobID: job.ID}
	parsedAny := false

	if parsed, err := modeltext.ParsePayload[analysisPayload](analysisRaw); err != nil {
		p.logger.Warn().Str("job_id", job.ID).Err(err).Msg("pipeline: analysis output not parseable")
	} else {
		report.Palette = parsed.Palette
		report.Mood = parsed.Mood
		report.Style = parsed.Style
		report.Subjects = parsed.Subjects
		parsedAny = true
	}

	if parsed, err := modeltext.ParsePayload[piecesPayload](contentRaw); err != nil {
		p.logger.Warn().Str("job_id", job.ID).Err(err).Msg("pipeline: content output not parseable")
	} else {
		report.Pieces = normalizePieces(parsed.Pieces, job.Locale)
		parsedAny = true
	}

	if !parsedAny {
		return
	}
	if err := p.reports.Upsert(ctx, &report); err != nil {
		p.logger.Error().Str("job_id", job.ID).Err(err).Msg("pipeline: persist report failed")
	}
}

// normalizePieces canonicalizes locale tags and fills the job locale where
// the model omitted one.
func normalizePieces(pieces []domain.ContentPiece, fallbackLocale string) []domain.ContentPiece {
	for i := range pieces {
		if pieces[i].Locale == "" {
			pieces[i].Locale = fallbackLocale
		}
		if tag, err := language.Parse(pieces[i].Locale); err == nil {
			pieces[i].Locale = tag.String()
		}
	}
	return pieces
}
