package logger

import (
	"strings"

	"go.uber.org/zap"
)

const (
	// FieldProvider is the structured log field key for the AI provider name.
	FieldProvider = "ai_provider"
	// FieldModel is the structured log field key for the AI model identifier.
	FieldModel = "ai_model"
	// FieldAnalysisID identifies one pipeline run.
	FieldAnalysisID = "analysis_id"
	// FieldStatus carries the analysis status.
	FieldStatus = "status"
)

// StringField describes a string-valued structured logging field.
type StringField struct {
	Key   string
	Value string
}

// StringFields converts key/value pairs into zap fields. Entries with a blank
// key or value are dropped.
func StringFields(fields ...StringField) []zap.Field {
	result := make([]zap.Field, 0, len(fields))
	for _, field := range fields {
		key := strings.TrimSpace(field.Key)
		value := strings.TrimSpace(field.Value)
		if key == "" || value == "" {
			continue
		}
		result = append(result, zap.String(key, value))
	}
	return result
}

// WithFields attaches fields to logger, falling back to a no-op logger when
// logger is nil.
func WithFields(logger *zap.Logger, fields ...zap.Field) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(fields) == 0 {
		return logger
	}
	return logger.With(fields...)
}

// CommonFields describes the AI provider and model.
func CommonFields(provider, model string) []zap.Field {
	return StringFields(
		StringField{Key: FieldProvider, Value: provider},
		StringField{Key: FieldModel, Value: model},
	)
}

// AnalysisFields describes one analysis record.
func AnalysisFields(id, status string) []zap.Field {
	return StringFields(
		StringField{Key: FieldAnalysisID, Value: id},
		StringField{Key: FieldStatus, Value: status},
	)
}

// WithCommonFields attaches the provider and model to logger.
func WithCommonFields(logger *zap.Logger, provider, model string) *zap.Logger {
	return WithFields(logger, CommonFields(provider, model)...)
}
