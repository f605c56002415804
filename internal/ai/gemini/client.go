package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/spigell/resume-analyzer/internal/logger"
	"github.com/spigell/resume-analyzer/internal/utils"
)

const (
	provider = "gemini"

	BackendGemini = "gemini"
	BackendVertex = "vertex"

	defaultModel        = "gemini-2.5-flash"
	defaultLocation     = "us-central1"
	defaultRetryBackoff = time.Second
	defaultMaxLogLength = 200
)

var errEmptyResponse = errors.New("gemini api returned empty response")

// wait and newModels are replaced in tests.
var (
	wait      = utils.WaitFor
	newModels = func(ctx context.Context, cfg *genai.ClientConfig) (modelsService, error) {
		client, err := genai.NewClient(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return client.Models, nil
	}
)

// Config describes how to reach the model.
type Config struct {
	// APIKey authenticates against the Gemini API backend.
	APIKey string
	// Backend is BackendGemini (default) or BackendVertex.
	Backend string
	// Project and Location select the Vertex AI endpoint.
	Project  string
	Location string

	Model         string
	FallbackModel string
	// RetryBackoff is the pause before the single fallback attempt.
	RetryBackoff time.Duration
	MaxLogLength int
}

func (c Config) withDefaults() Config {
	c.Backend = strings.ToLower(strings.TrimSpace(c.Backend))
	if c.Backend == "" {
		c.Backend = BackendGemini
	}
	if c.Model = strings.TrimSpace(c.Model); c.Model == "" {
		c.Model = defaultModel
	}
	if c.FallbackModel = strings.TrimSpace(c.FallbackModel); c.FallbackModel == "" {
		c.FallbackModel = c.Model
	}
	if c.Location = strings.TrimSpace(c.Location); c.Location == "" {
		c.Location = defaultLocation
	}
	if c.RetryBackoff <= 0 {
		c.RetryBackoff = defaultRetryBackoff
	}
	if c.MaxLogLength <= 0 {
		c.MaxLogLength = defaultMaxLogLength
	}
	return c
}

// clientConfig returns the genai configuration, or the reason it cannot be built.
func (c Config) clientConfig() (*genai.ClientConfig, string, error) {
	switch c.Backend {
	case BackendGemini:
		key := strings.TrimSpace(c.APIKey)
		if key == "" {
			return nil, "gemini api key is missing", nil
		}
		return &genai.ClientConfig{APIKey: key, Backend: genai.BackendGeminiAPI}, "", nil
	case BackendVertex:
		project := strings.TrimSpace(c.Project)
		if project == "" {
			return nil, "vertex ai project is missing", nil
		}
		return &genai.ClientConfig{Project: project, Location: c.Location, Backend: genai.BackendVertexAI}, "", nil
	default:
		return nil, "", fmt.Errorf("unsupported gemini backend: %s", c.Backend)
	}
}

type modelsService interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Analyzer is the Gemini implementation of ai.Analyzer.
type Analyzer struct {
	models        modelsService
	model         string
	fallbackModel string
	backoff       time.Duration
	maxLogLen     int
	logger        *zap.Logger

	// unconfigured holds the reason the analyzer has no client.
	unconfigured string
}

// New creates an Analyzer. Missing credentials do not fail construction: the
// analyzer is returned unconfigured and reports a configuration error per call.
func New(ctx context.Context, cfg Config, log *zap.Logger) (*Analyzer, error) {
	cfg = cfg.withDefaults()

	a := &Analyzer{
		model:         cfg.Model,
		fallbackModel: cfg.FallbackModel,
		backoff:       cfg.RetryBackoff,
		maxLogLen:     cfg.MaxLogLength,
		logger:        logger.WithCommonFields(log, provider, cfg.Model),
	}

	clientCfg, reason, err := cfg.clientConfig()
	if err != nil {
		return nil, err
	}
	if reason != "" {
		a.unconfigured = reason
		a.logger.Warn("gemini analyzer is not configured, analyses will fail", zap.String("reason", reason))
		return a, nil
	}

	models, err := newModels(ctx, clientCfg)
	if err != nil {
		// Vertex without default credentials fails here.
		a.unconfigured = fmt.Sprintf("create genai client: %v", err)
		a.logger.Warn("gemini analyzer is not configured, analyses will fail", zap.Error(err))
		return a, nil
	}
	a.models = models

	a.logger.Info("gemini analyzer ready",
		zap.String("backend", cfg.Backend),
		zap.String("fallback_model", cfg.FallbackModel),
		zap.Duration("retry_backoff", cfg.RetryBackoff),
	)

	return a, nil
}

// Model returns the primary model identifier.
func (a *Analyzer) Model() string {
	if a == nil {
		return ""
	}
	return a.model
}

// Configured reports whether the analyzer can reach the provider.
func (a *Analyzer) Configured() bool {
	return a != nil && a.models != nil
}

func (a *Analyzer) generate(ctx context.Context, model, prompt string, config *genai.GenerateContentConfig) (string, error) {
	resp, err := a.models.GenerateContent(ctx, model, genai.Text(prompt), config)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	if resp == nil {
		return "", errEmptyResponse
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil || part.Thought {
				continue
			}
			builder.WriteString(part.Text)
		}
		// Only the first candidate with content is used.
		if builder.Len() > 0 {
			break
		}
	}

	output := strings.TrimSpace(builder.String())
	if output == "" {
		return "", errEmptyResponse
	}

	return output, nil
}
