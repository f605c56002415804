package ai

import (
	"context"
	"strings"

	"github.com/spigell/resume-analyzer/internal/analysis"
)

// Sample answers every request with a fixed, schema-valid result. It backs
// local runs without provider credentials.
type Sample struct{}

func (Sample) Analyze(ctx context.Context, resumeText, jobDescription string) (*analysis.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, &Error{Kind: KindUpstream, Message: "sample analysis aborted", Err: err}
	}

	name, _, _ := strings.Cut(strings.TrimSpace(resumeText), "\n")
	if name = strings.TrimSpace(name); name == "" {
		name = "Unknown Candidate"
	}

	result := &analysis.Result{
		Name: name,
		CoreSkillsSummary: "Experienced backend developer with strong Python skills, REST API development and database experience. " +
			"Has practical exposure to ML pipelines through recommendation system work. " +
			"Familiar with containerization and deployment practices.",
		MatchScorePercent: 72,
		MissingSkills: []string{
			"TensorFlow",
			"PyTorch",
			"Production-grade model monitoring",
		},
		RecommendedImprovements: []string{
			"Add hands-on experience with TensorFlow or PyTorch, even small projects.",
			"Include details about ML model evaluation and monitoring in production.",
			"List specific contributions to the recommendation pipeline with metrics and impact.",
		},
	}

	return result, nil
}
