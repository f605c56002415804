package ai

import (
	"context"
	"errors"
	"fmt"

	"github.com/spigell/resume-analyzer/internal/analysis"
)

// Analyzer evaluates a resume against a job description.
// Implementations return either a validated result or an *Error.
type Analyzer interface {
	Analyze(ctx context.Context, resumeText, jobDescription string) (*analysis.Result, error)
}

// Kind classifies adapter failures.
type Kind string

const (
	// KindConfiguration means the adapter cannot issue requests at all.
	KindConfiguration Kind = "configuration"
	// KindTransient means the model was unavailable or out of quota on every attempt.
	KindTransient Kind = "transient"
	// KindUpstream is any other provider failure.
	KindUpstream Kind = "upstream"
	// KindMalformed means the model answered with output that does not match the schema.
	KindMalformed Kind = "malformed"
)

// Error is the only error type an Analyzer returns.
type Error struct {
	Kind    Kind
	Model   string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s error: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s error: %s: %v", e.Kind, e.Message, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Details is the human readable description stored with a failed analysis.
func (e *Error) Details() string {
	msg := e.Message
	if e.Model != "" {
		msg = fmt.Sprintf("%s (model %s)", msg, e.Model)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// KindOf returns the kind of err, or KindUpstream for foreign errors.
func KindOf(err error) Kind {
	var aiErr *Error
	if errors.As(err, &aiErr) {
		return aiErr.Kind
	}
	return KindUpstream
}

// Details returns the stored failure text for any error.
func Details(err error) string {
	var aiErr *Error
	if errors.As(err, &aiErr) {
		return aiErr.Details()
	}
	return err.Error()
}
