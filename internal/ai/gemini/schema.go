package gemini

import (
	"google.golang.org/genai"

	"github.com/spigell/resume-analyzer/internal/analysis"
)

func responseSchema() *genai.Schema {
	list := func(description string) *genai.Schema {
		return &genai.Schema{
			Type:        genai.TypeArray,
			Description: description,
			Items:       &genai.Schema{Type: genai.TypeString},
			MaxItems:    genai.Ptr[int64](analysis.MaxListItems),
		}
	}

	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			analysis.FieldName: {
				Type:        genai.TypeString,
				Description: "The full name of the candidate found in the resume.",
			},
			analysis.FieldCoreSkillsSummary: {
				Type:        genai.TypeString,
				Description: "A 3-sentence summary of the candidate's core technical skills relevant to the job.",
			},
			analysis.FieldMatchScorePercent: {
				Type:        genai.TypeInteger,
				Description: "An estimated match percentage (0-100) for the candidate against the job description.",
				Minimum:     genai.Ptr[float64](analysis.MinScore),
				Maximum:     genai.Ptr[float64](analysis.MaxScore),
			},
			analysis.FieldMissingSkills: list(
				"3 specific technical skills mentioned in the job description that are NOT found in the resume.",
			),
			analysis.FieldRecommendedImprovements: list(
				"3 specific, actionable suggestions for improving the resume for this job.",
			),
		},
		Required:         analysis.Fields(),
		PropertyOrdering: analysis.Fields(),
	}
}
