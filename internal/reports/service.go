package reports

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"spendreport-backend/internal/analysis"
	"spendreport-backend/internal/report"
	"spendreport-backend/internal/shared/storage/object"
	"spendreport-backend/internal/shared/telemetry"
	"spendreport-backend/internal/shared/util"
	"spendreport-backend/internal/validation"
)

// Service runs the pipeline and records each run. Store is optional.
type Service struct {
	Pipeline *Pipeline
	Repo     Repo
	Store    object.ObjectStore
	Now      func() time.Time
	NewID    func() string
}

// Create runs the pipeline for res and stores the record under ownerID.
// Archiving failures are logged and leave ArchiveKey empty.
func (s *Service) Create(ctx context.Context, ownerID string, res analysis.Result) (Record, Run, error) {
	run := s.Pipeline.Run(ctx, res)

	rec := Record{
		ID:              s.newID(),
		OwnerKey:        ownerKey(ownerID),
		CreatedAt:       s.now().UTC(),
		Valid:           run.Validation.Valid,
		FailedSections:  nonNil(run.Validation.FailedSections),
		OmittedSections: nonNil(run.Final.OmittedSections),
		SafeMode:        run.Final.IsSafeMode,
		QaSkipped:       run.Final.QaSkipped,
		WarningCount:    len(run.Warnings),
		Output:          run.Final,
	}
	rec.ArchiveKey = s.archive(ctx, ownerID, rec)

	if err := s.Repo.Create(ctx, rec); err != nil {
		return Record{}, Run{}, fmt.Errorf("store report: %w", err)
	}
	return rec, run, nil
}

// Get returns a record visible to ownerID.
func (s *Service) Get(ctx context.Context, ownerID, id string) (Record, error) {
	if _, err := uuid.Parse(strings.TrimSpace(id)); err != nil {
		return Record{}, ErrInvalidInput
	}
	rec, err := s.Repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return Record{}, err
	}
	if rec.OwnerKey != ownerKey(ownerID) {
		return Record{}, ErrNotFound
	}
	return rec, nil
}

// List returns summaries of the owner's newest records.
func (s *Service) List(ctx context.Context, ownerID string, limit int) ([]Summary, error) {
	recs, err := s.Repo.ListByOwner(ctx, ownerKey(ownerID), limit)
	if err != nil {
		return nil, err
	}
	out := make([]Summary, 0, len(recs))
	for _, rec := range recs {
		out = append(out, rec.summary())
	}
	return out, nil
}

// Validate checks a caller-supplied report without storing it.
func (s *Service) Validate(r report.ProReportData) validation.Result {
	if s.Pipeline != nil && s.Pipeline.Validator != nil {
		return s.Pipeline.Validator.Validate(r)
	}
	return validation.Validate(r)
}

func (s *Service) archive(ctx context.Context, ownerID string, rec Record) string {
	if s.Store == nil {
		return ""
	}
	key, err := object.ArchiveKey(ownerID, rec.ID)
	if err != nil {
		telemetry.Warn("report.archive_failed", map[string]any{"report_id": rec.ID, "error": err.Error()})
		return ""
	}
	payload, err := json.Marshal(rec.Output.Report)
	if err != nil {
		telemetry.Warn("report.archive_failed", map[string]any{"report_id": rec.ID, "error": err.Error()})
		return ""
	}
	if _, err := s.Store.SaveWithKey(ctx, key, "application/json", bytes.NewReader(payload)); err != nil {
		telemetry.Warn("report.archive_failed", map[string]any{"report_id": rec.ID, "error": err.Error()})
		return ""
	}
	return key
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) newID() string {
	if s.NewID != nil {
		return s.NewID()
	}
	return uuid.NewString()
}

// ownerKey hashes a non-empty owner so identifiers are never stored.
func ownerKey(ownerID string) string {
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return ""
	}
	return util.HashOwnerKey(ownerID)
}
