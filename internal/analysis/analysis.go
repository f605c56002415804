package analysis

import "time"

// Status is the pipeline state of a stored analysis.
type Status string

const (
	StatusProcessing Status = "LLM_PROCESSING"
	StatusCompleted  Status = "COMPLETED"
	StatusFailed     Status = "FAILED"
)

// Terminal reports whether no further transition can happen from s.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Request is the verbatim input of one analysis.
type Request struct {
	ResumeText     string `json:"resume_text"`
	JobDescription string `json:"job_description"`
}

// Result is the structured evaluation returned by the model.
type Result struct {
	Name                    string   `json:"name" mapstructure:"name"`
	CoreSkillsSummary       string   `json:"core_skills_summary" mapstructure:"core_skills_summary"`
	MatchScorePercent       int      `json:"match_score_percent" mapstructure:"match_score_percent" validate:"gte=0,lte=100"`
	MissingSkills           []string `json:"missing_skills" mapstructure:"missing_skills" validate:"required,max=3"`
	RecommendedImprovements []string `json:"recommended_improvements" mapstructure:"recommended_improvements" validate:"required,max=3"`
}

// Record tracks one pipeline run. AnalysisResult is set only when Status is
// COMPLETED and ErrorDetail only when Status is FAILED.
type Record struct {
	ID             string     `json:"id"`
	TimestampStart time.Time  `json:"timestamp_start"`
	TimestampEnd   *time.Time `json:"timestamp_end,omitempty"`
	Status         Status     `json:"status"`
	RequestData    Request    `json:"request_data"`
	AnalysisResult *Result    `json:"analysis_result"`
	ErrorDetail    *string    `json:"error_detail,omitempty"`
}

// NewRecord returns a record in the LLM_PROCESSING state.
func NewRecord(id string, req Request, start time.Time) *Record {
	return &Record{
		ID:             id,
		TimestampStart: start,
		Status:         StatusProcessing,
		RequestData:    req,
	}
}
