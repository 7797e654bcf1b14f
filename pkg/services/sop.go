package services

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sopforge/sop-engine/pkg/apperrors"
	"github.com/sopforge/sop-engine/pkg/audit"
	"github.com/sopforge/sop-engine/pkg/auth"
	"github.com/sopforge/sop-engine/pkg/models"
	"github.com/sopforge/sop-engine/pkg/repositories"
)

// SOPService provides access to saved SOP documents with ownership
// enforcement. Regular users see only their own documents; admins see all.
type SOPService interface {
	Get(ctx context.Context, id uuid.UUID) (*models.SOP, error)
	List(ctx context.Context) ([]models.SOPSummary, error)
	// Update overwrites content and, when title is non-nil, the title
	// (an explicit empty string overwrites too). Used by the post-stream
	// corrective write and by manual edits.
	Update(ctx context.Context, id uuid.UUID, title *string, content string) (*models.SOP, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type sopService struct {
	sopRepo repositories.SOPRepository
	auditor *audit.SecurityAuditor
	logger  *zap.Logger
}

// NewSOPService creates a new SOP service.
func NewSOPService(sopRepo repositories.SOPRepository, auditor *audit.SecurityAuditor, logger *zap.Logger) SOPService {
	return &sopService{
		sopRepo: sopRepo,
		auditor: auditor,
		logger:  logger.Named("sop"),
	}
}

var _ SOPService = (*sopService)(nil)

func (s *sopService) Get(ctx context.Context, id uuid.UUID) (*models.SOP, error) {
	sop, err := s.sopRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorize(ctx, sop.OwnerID); err != nil {
		return nil, err
	}
	return sop, nil
}

func (s *sopService) List(ctx context.Context) ([]models.SOPSummary, error) {
	if auth.IsAdminFromContext(ctx) {
		return s.sopRepo.List(ctx, nil)
	}
	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		return nil, apperrors.ErrForbidden
	}
	return s.sopRepo.List(ctx, &userID)
}

func (s *sopService) Update(ctx context.Context, id uuid.UUID, title *string, content string) (*models.SOP, error) {
	sop, err := s.sopRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorize(ctx, sop.OwnerID); err != nil {
		return nil, err
	}
	newTitle := sop.Title
	if title != nil {
		newTitle = *title
	}

	s.auditor.ScanContent(ctx, id, "content", content)

	if err := s.sopRepo.UpdateContent(ctx, id, newTitle, content); err != nil {
		return nil, err
	}
	return s.sopRepo.GetByID(ctx, id)
}

func (s *sopService) Delete(ctx context.Context, id uuid.UUID) error {
	sop, err := s.sopRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := authorize(ctx, sop.OwnerID); err != nil {
		return err
	}

	s.logger.Info("Deleting SOP",
		zap.String("sop_id", id.String()),
		zap.String("title", sop.Title))
	return s.sopRepo.Delete(ctx, id)
}

// authorize allows owners and admins through.
func authorize(ctx context.Context, ownerID uuid.UUID) error {
	if auth.IsAdminFromContext(ctx) {
		return nil
	}
	userID, ok := auth.UserIDFromContext(ctx)
	if !ok || userID != ownerID {
		return apperrors.ErrForbidden
	}
	return nil
}
