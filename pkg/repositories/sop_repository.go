package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/sopforge/sop-engine/pkg/apperrors"
	"github.com/sopforge/sop-engine/pkg/database"
	"github.com/sopforge/sop-engine/pkg/models"
)

// SOPRepository defines the interface for SOP document data access.
type SOPRepository interface {
	// CreatePlaceholder inserts the record with an empty body so the id can
	// be returned to the caller before generation starts.
	CreatePlaceholder(ctx context.Context, sop *models.SOP) error
	// Finalize stores the generated body on an existing record.
	Finalize(ctx context.Context, id uuid.UUID, content string) error
	// Rollback removes a placeholder whose generation failed.
	Rollback(ctx context.Context, id uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.SOP, error)
	// List returns summaries newest-first. A nil ownerID lists every
	// document.
	List(ctx context.Context, ownerID *uuid.UUID) ([]models.SOPSummary, error)
	// UpdateContent overwrites title and body, used by corrective client
	// writes and manual edits.
	UpdateContent(ctx context.Context, id uuid.UUID, title, content string) error
	Delete(ctx context.Context, id uuid.UUID) error
	// DeleteOrphans removes records whose body is still empty after the
	// grace window and returns how many were removed.
	DeleteOrphans(ctx context.Context, olderThan time.Time) (int64, error)
}

type sopRepository struct {
	db *database.DB
}

// NewSOPRepository creates a new SOP repository.
func NewSOPRepository(db *database.DB) SOPRepository {
	return &sopRepository{db: db}
}

const sopColumns = `id, kind, title, content,
		business_name, business_type, purpose, progress_start_end, scope,
		stakeholders, responsibility, approval_authority, step_by_step,
		decision_points, tools, reference_documents, compliance_standards,
		dos_and_donts, risks, controls, expected_output, kpi_metrics,
		version_no, effective_date, review_cycle, revision_history,
		training_method, induction_process, update_notification,
		uploaded_sop_content, problems, additional_req,
		owner_id, created_at, updated_at`

func (r *sopRepository) CreatePlaceholder(ctx context.Context, sop *models.SOP) error {
	if sop.ID == uuid.Nil {
		sop.ID = uuid.New()
	}
	now := time.Now()
	sop.CreatedAt = now
	sop.UpdatedAt = now
	sop.Content = ""

	query := `
		INSERT INTO sops (` + sopColumns + `)
		VALUES ($1, $2, $3, $4,
			$5, $6, $7, $8, $9,
			$10, $11, $12, $13,
			$14, $15, $16, $17,
			$18, $19, $20, $21, $22,
			$23, $24, $25, $26,
			$27, $28, $29,
			$30, $31, $32,
			$33, $34, $35)`

	_, err := r.db.Exec(ctx, query,
		sop.ID, sop.Kind, SanitizeText(sop.Title), sop.Content,
		Sanitize(sop.BusinessName), Sanitize(sop.BusinessType), Sanitize(sop.Purpose), Sanitize(sop.ProgressStartEnd), Sanitize(sop.Scope),
		Sanitize(sop.Stakeholders), Sanitize(sop.Responsibility), Sanitize(sop.ApprovalAuthority), Sanitize(sop.StepByStep),
		Sanitize(sop.DecisionPoints), Sanitize(sop.Tools), Sanitize(sop.ReferenceDocuments), Sanitize(sop.ComplianceStandards),
		Sanitize(sop.DosAndDonts), Sanitize(sop.Risks), Sanitize(sop.Controls), Sanitize(sop.ExpectedOutput), Sanitize(sop.KpiMetrics),
		Sanitize(sop.VersionNo), Sanitize(sop.EffectiveDate), Sanitize(sop.ReviewCycle), Sanitize(sop.RevisionHistory),
		Sanitize(sop.TrainingMethod), Sanitize(sop.InductionProcess), Sanitize(sop.UpdateNotification),
		Sanitize(sop.UploadedSOPContent), Sanitize(sop.Problems), Sanitize(sop.AdditionalReq),
		sop.OwnerID, sop.CreatedAt, sop.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create SOP placeholder: %w", err)
	}
	return nil
}

func (r *sopRepository) Finalize(ctx context.Context, id uuid.UUID, content string) error {
	query := `
		UPDATE sops
		SET content = $2, updated_at = NOW()
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, id, SanitizeText(content))
	if err != nil {
		return fmt.Errorf("failed to finalize SOP: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *sopRepository) Rollback(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Exec(ctx, `DELETE FROM sops WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to roll back SOP: %w", err)
	}
	return nil
}

func (r *sopRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.SOP, error) {
	query := `SELECT ` + sopColumns + ` FROM sops WHERE id = $1`

	var sop models.SOP
	err := r.db.QueryRow(ctx, query, id).Scan(
		&sop.ID, &sop.Kind, &sop.Title, &sop.Content,
		&sop.BusinessName, &sop.BusinessType, &sop.Purpose, &sop.ProgressStartEnd, &sop.Scope,
		&sop.Stakeholders, &sop.Responsibility, &sop.ApprovalAuthority, &sop.StepByStep,
		&sop.DecisionPoints, &sop.Tools, &sop.ReferenceDocuments, &sop.ComplianceStandards,
		&sop.DosAndDonts, &sop.Risks, &sop.Controls, &sop.ExpectedOutput, &sop.KpiMetrics,
		&sop.VersionNo, &sop.EffectiveDate, &sop.ReviewCycle, &sop.RevisionHistory,
		&sop.TrainingMethod, &sop.InductionProcess, &sop.UpdateNotification,
		&sop.UploadedSOPContent, &sop.Problems, &sop.AdditionalReq,
		&sop.OwnerID, &sop.CreatedAt, &sop.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get SOP: %w", err)
	}
	return &sop, nil
}

func (r *sopRepository) List(ctx context.Context, ownerID *uuid.UUID) ([]models.SOPSummary, error) {
	query := `
		SELECT s.id, s.kind, s.title, s.business_name,
		       s.owner_id, u.name, u.email, s.created_at
		FROM sops s
		JOIN users u ON u.id = s.owner_id`
	args := []any{}
	if ownerID != nil {
		query += ` WHERE s.owner_id = $1`
		args = append(args, *ownerID)
	}
	query += ` ORDER BY s.created_at DESC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list SOPs: %w", err)
	}
	defer rows.Close()

	var summaries []models.SOPSummary
	for rows.Next() {
		var s models.SOPSummary
		if err := rows.Scan(&s.ID, &s.Kind, &s.Title, &s.BusinessName,
			&s.OwnerID, &s.OwnerName, &s.OwnerEmail, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan SOP summary: %w", err)
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

func (r *sopRepository) UpdateContent(ctx context.Context, id uuid.UUID, title, content string) error {
	query := `
		UPDATE sops
		SET title = $2, content = $3, updated_at = NOW()
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, id, SanitizeText(title), SanitizeText(content))
	if err != nil {
		return fmt.Errorf("failed to update SOP: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *sopRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM sops WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete SOP: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *sopRepository) DeleteOrphans(ctx context.Context, olderThan time.Time) (int64, error) {
	query := `
		DELETE FROM sops
		WHERE content = '' AND created_at < $1`

	tag, err := r.db.Exec(ctx, query, olderThan)
	if err != nil {
		return 0, fmt.Errorf("failed to delete orphaned SOPs: %w", err)
	}
	return tag.RowsAffected(), nil
}
