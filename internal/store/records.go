package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/spigell/resume-analyzer/internal/analysis"
)

// document is the stored shape of one analysis record.
type document struct {
	ID             string    `gorm:"primaryKey;size:36"`
	TimestampStart time.Time `gorm:"not null"`
	TimestampEnd   *time.Time
	Status         string                               `gorm:"size:32;not null;index"`
	RequestData    datatypes.JSONType[analysis.Request] `gorm:"not null"`
	AnalysisResult datatypes.JSON
	ErrorDetail    *string `gorm:"type:text"`
}

func toDocument(rec *analysis.Record) (*document, error) {
	doc := &document{
		ID:             rec.ID,
		TimestampStart: rec.TimestampStart.UTC(),
		TimestampEnd:   rec.TimestampEnd,
		Status:         string(rec.Status),
		RequestData:    datatypes.NewJSONType(rec.RequestData),
		ErrorDetail:    rec.ErrorDetail,
	}

	if rec.AnalysisResult != nil {
		raw, err := json.Marshal(rec.AnalysisResult)
		if err != nil {
			return nil, fmt.Errorf("marshal analysis result: %w", err)
		}
		doc.AnalysisResult = datatypes.JSON(raw)
	}

	return doc, nil
}

func (d *document) record() (*analysis.Record, error) {
	rec := &analysis.Record{
		ID:             d.ID,
		TimestampStart: d.TimestampStart.UTC(),
		Status:         analysis.Status(d.Status),
		RequestData:    d.RequestData.Data(),
		ErrorDetail:    d.ErrorDetail,
	}

	if d.TimestampEnd != nil {
		end := d.TimestampEnd.UTC()
		rec.TimestampEnd = &end
	}

	if len(d.AnalysisResult) > 0 && string(d.AnalysisResult) != "null" {
		var result analysis.Result
		if err := json.Unmarshal(d.AnalysisResult, &result); err != nil {
			return nil, fmt.Errorf("unmarshal analysis result: %w", err)
		}
		rec.AnalysisResult = &result
	}

	return rec, nil
}

func (s *Store) collection(ctx context.Context) (*gorm.DB, error) {
	db, err := s.DB()
	if err != nil {
		return nil, err
	}
	return db.WithContext(ctx).Table(s.cfg.Collection), nil
}

// Insert writes a new record.
func (s *Store) Insert(ctx context.Context, rec *analysis.Record) error {
	col, err := s.collection(ctx)
	if err != nil {
		return err
	}

	doc, err := toDocument(rec)
	if err != nil {
		return err
	}

	if err := col.Create(doc).Error; err != nil {
		return fmt.Errorf("insert analysis %s: %w", rec.ID, err)
	}

	s.logger.Debug("analysis inserted", zap.String("analysis_id", rec.ID), zap.String("status", doc.Status))
	return nil
}

// Complete moves a processing record to COMPLETED.
func (s *Store) Complete(ctx context.Context, id string, result *analysis.Result, end time.Time) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal analysis result: %w", err)
	}

	return s.finish(ctx, id, map[string]any{
		"status":          string(analysis.StatusCompleted),
		"analysis_result": datatypes.JSON(raw),
		"timestamp_end":   end.UTC(),
	})
}

// Fail moves a processing record to FAILED.
func (s *Store) Fail(ctx context.Context, id, detail string, end time.Time) error {
	return s.finish(ctx, id, map[string]any{
		"status":        string(analysis.StatusFailed),
		"error_detail":  detail,
		"timestamp_end": end.UTC(),
	})
}

func (s *Store) finish(ctx context.Context, id string, updates map[string]any) error {
	col, err := s.collection(ctx)
	if err != nil {
		return err
	}

	res := col.
		Where("id = ? AND status = ?", id, string(analysis.StatusProcessing)).
		Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("update analysis %s: %w", id, res.Error)
	}

	if res.RowsAffected == 0 {
		if _, err := s.Get(ctx, id); err != nil {
			return err
		}
		return fmt.Errorf("update analysis %s: %w", id, ErrAlreadyTerminal)
	}

	s.logger.Debug("analysis updated", zap.String("analysis_id", id), zap.Any("status", updates["status"]))
	return nil
}

// Get loads a record by id.
func (s *Store) Get(ctx context.Context, id string) (*analysis.Record, error) {
	col, err := s.collection(ctx)
	if err != nil {
		return nil, err
	}

	var doc document
	if err := col.Where("id = ?", id).Take(&doc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("analysis %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get analysis %s: %w", id, err)
	}

	return doc.record()
}
