package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spigell/resume-analyzer/internal/ai"
	"github.com/spigell/resume-analyzer/internal/analysis"
	"github.com/spigell/resume-analyzer/internal/logger"
	"github.com/spigell/resume-analyzer/internal/store"
)

var (
	// ErrInvalidInput is returned when the resume or the job description is empty.
	ErrInvalidInput = errors.New("both resume text and job description are required")
	// ErrNotFound is returned by Get for unknown ids.
	ErrNotFound = errors.New("analysis not found")
)

// Records persists analysis records.
type Records interface {
	Insert(ctx context.Context, rec *analysis.Record) error
	Complete(ctx context.Context, id string, result *analysis.Result, end time.Time) error
	Fail(ctx context.Context, id, detail string, end time.Time) error
	Get(ctx context.Context, id string) (*analysis.Record, error)
}

var _ Records = (*store.Store)(nil)

// Submission is returned to the caller of Submit.
type Submission struct {
	ID      string          `json:"id"`
	Status  analysis.Status `json:"status"`
	Message string          `json:"message"`
}

// Pipeline runs insert, analyze and terminal update for each submission.
type Pipeline struct {
	records  Records
	analyzer ai.Analyzer
	logger   *zap.Logger

	newID func() string
	now   func() time.Time

	// runs tracks analyses that may outlive their caller.
	runs sync.WaitGroup
}

func New(records Records, analyzer ai.Analyzer, log *zap.Logger) *Pipeline {
	return &Pipeline{
		records:  records,
		analyzer: analyzer,
		logger:   logger.WithFields(log),
		newID:    uuid.NewString,
		now:      time.Now,
	}
}

// Submit stores a pending record, runs the analysis and records its outcome.
// An analysis failure is reported as a FAILED submission, not as an error.
func (p *Pipeline) Submit(ctx context.Context, req analysis.Request) (*Submission, error) {
	if strings.TrimSpace(req.ResumeText) == "" || strings.TrimSpace(req.JobDescription) == "" {
		return nil, ErrInvalidInput
	}

	rec := analysis.NewRecord(p.newID(), req, p.now().UTC())
	log := p.logger.With(logger.AnalysisFields(rec.ID, "")...)

	if err := p.records.Insert(ctx, rec); err != nil {
		return nil, fmt.Errorf("record analysis: %w", err)
	}

	log.Info("analysis submitted",
		zap.String(logger.FieldStatus, string(rec.Status)),
		zap.Int("resume_length", len(req.ResumeText)),
		zap.Int("job_description_length", len(req.JobDescription)),
	)

	done := make(chan outcome, 1)
	// The run outlives a disconnected caller so the record always reaches a terminal state.
	p.runs.Add(1)
	go func() {
		defer p.runs.Done()
		done <- p.run(context.WithoutCancel(ctx), rec, log)
	}()

	select {
	case out := <-done:
		if out.err != nil {
			return nil, out.err
		}
		return out.submission, nil
	case <-ctx.Done():
		log.Warn("caller went away, analysis continues in background", zap.Error(ctx.Err()))
		return &Submission{
			ID:      rec.ID,
			Status:  analysis.StatusProcessing,
			Message: "Analysis is still processing.",
		}, nil
	}
}

type outcome struct {
	submission *Submission
	err        error
}

func (p *Pipeline) run(ctx context.Context, rec *analysis.Record, log *zap.Logger) outcome {
	started := time.Now()

	result, err := p.analyzer.Analyze(ctx, rec.RequestData.ResumeText, rec.RequestData.JobDescription)
	if err == nil {
		analysis.Normalize(result)
		if vErr := analysis.Validate(result); vErr != nil {
			err = &ai.Error{Kind: ai.KindMalformed, Message: "analysis result failed validation", Err: vErr}
		}
	}

	if err != nil {
		detail := ai.Details(err)
		log.Warn("analysis failed",
			zap.String("kind", string(ai.KindOf(err))),
			zap.Duration("elapsed", time.Since(started)),
			zap.Error(err),
		)

		if updErr := p.records.Fail(ctx, rec.ID, detail, p.now().UTC()); updErr != nil {
			log.Error("could not record failed analysis", zap.Error(updErr))
			return outcome{err: fmt.Errorf("record failed analysis: %w", updErr)}
		}

		return outcome{submission: &Submission{
			ID:      rec.ID,
			Status:  analysis.StatusFailed,
			Message: "Analysis failed: " + detail,
		}}
	}

	if updErr := p.records.Complete(ctx, rec.ID, result, p.now().UTC()); updErr != nil {
		log.Error("could not record completed analysis", zap.Error(updErr))
		return outcome{err: fmt.Errorf("record completed analysis: %w", updErr)}
	}

	log.Info("analysis completed",
		zap.Int("match_score_percent", result.MatchScorePercent),
		zap.Duration("elapsed", time.Since(started)),
	)

	return outcome{submission: &Submission{
		ID:      rec.ID,
		Status:  analysis.StatusCompleted,
		Message: "Analysis completed successfully.",
	}}
}

// Wait blocks until every started analysis has recorded its outcome or ctx ends.
func (p *Pipeline) Wait(ctx context.Context) error {
	drained := make(chan struct{})
	go func() {
		p.runs.Wait()
		close(drained)
	}()

	select {
	case <-drained:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for running analyses: %w", ctx.Err())
	}
}

// Get returns the stored record for id regardless of its status.
func (p *Pipeline) Get(ctx context.Context, id string) (*analysis.Record, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrNotFound
	}

	rec, err := p.records.Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, err
	}

	return rec, nil
}
