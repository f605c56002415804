package gemini

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	_ "embed"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/spigell/resume-analyzer/internal/ai"
	"github.com/spigell/resume-analyzer/internal/analysis"
	"github.com/spigell/resume-analyzer/internal/utils"
)

//go:embed prompts/system.md
var systemInstruction string

//go:embed prompts/user.md
var userTemplate string

var _ ai.Analyzer = (*Analyzer)(nil)

// Analyze asks the primary model for a structured evaluation. Model-not-found
// and quota errors get one more attempt against the fallback model; every
// other failure is returned immediately.
func (a *Analyzer) Analyze(ctx context.Context, resumeText, jobDescription string) (*analysis.Result, error) {
	if !a.Configured() {
		reason := "gemini api key is missing"
		if a != nil && a.unconfigured != "" {
			reason = a.unconfigured
		}
		return nil, &ai.Error{Kind: ai.KindConfiguration, Message: reason}
	}

	prompt := buildPrompt(resumeText, jobDescription)
	config := requestConfig()

	a.logger.Debug("gemini generate content request",
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, a.maxLogLen)),
	)

	var (
		lastErr   error
		lastModel string
	)

	for attempt, model := range []string{a.model, a.fallbackModel} {
		if attempt > 0 {
			a.logger.Warn("retrying with fallback model",
				zap.String("failed_model", lastModel),
				zap.String("fallback_model", model),
				zap.Duration("backoff", a.backoff),
				zap.Error(lastErr),
			)
			if err := wait(ctx, a.backoff); err != nil {
				return nil, &ai.Error{Kind: ai.KindTransient, Model: lastModel, Message: "fallback attempt aborted", Err: errors.Join(lastErr, err)}
			}
		}

		started := time.Now()
		raw, err := a.generate(ctx, model, prompt, config)
		if err != nil {
			lastErr, lastModel = err, model
			if errors.Is(err, errEmptyResponse) {
				return nil, &ai.Error{Kind: ai.KindMalformed, Model: model, Message: "model returned no content", Err: err}
			}
			if !isRetryable(err) {
				return nil, &ai.Error{Kind: ai.KindUpstream, Model: model, Message: "analysis request failed", Err: err}
			}
			continue
		}

		a.logger.Debug("gemini generate content response",
			zap.String("model", model),
			zap.Int("attempt", attempt+1),
			zap.Duration("latency", time.Since(started)),
			zap.Int("response_length", utf8.RuneCountInString(raw)),
			zap.String("response_preview", utils.TruncateForLog(raw, a.maxLogLen)),
		)

		result, err := analysis.Decode(raw)
		if err != nil {
			return nil, &ai.Error{Kind: ai.KindMalformed, Model: model, Message: "model returned an invalid analysis", Err: err}
		}

		a.logger.Info("analysis generated",
			zap.String("model", model),
			zap.Int("attempt", attempt+1),
			zap.Duration("latency", time.Since(started)),
			zap.Int("match_score_percent", result.MatchScorePercent),
		)

		return result, nil
	}

	return nil, &ai.Error{Kind: ai.KindTransient, Model: lastModel, Message: "all models failed", Err: lastErr}
}

func buildPrompt(resumeText, jobDescription string) string {
	r := strings.NewReplacer(
		"{{RESUME}}", resumeText,
		"{{JOB_DESCRIPTION}}", jobDescription,
	)
	return r.Replace(userTemplate)
}

func requestConfig() *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: strings.TrimSpace(systemInstruction)}}},
		ResponseMIMEType:  "application/json",
		ResponseSchema:    responseSchema(),
		Temperature:       genai.Ptr[float32](0.2),
	}
}

// isRetryable reports model-not-found and quota exhaustion.
func isRetryable(err error) bool {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return retryableAPIError(apiErr)
	}

	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return retryableAPIError(*apiErrPtr)
	}

	msg := err.Error()
	return strings.Contains(msg, "404") || strings.Contains(msg, "RESOURCE_EXHAUSTED")
}

func retryableAPIError(err genai.APIError) bool {
	switch err.Code {
	case http.StatusNotFound, http.StatusTooManyRequests:
		return true
	}
	switch strings.ToUpper(err.Status) {
	case "NOT_FOUND", "RESOURCE_EXHAUSTED":
		return true
	}
	return false
}
