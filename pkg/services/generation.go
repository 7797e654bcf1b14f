package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sopforge/sop-engine/pkg/apperrors"
	"github.com/sopforge/sop-engine/pkg/llm"
	"github.com/sopforge/sop-engine/pkg/models"
	"github.com/sopforge/sop-engine/pkg/prompts"
	"github.com/sopforge/sop-engine/pkg/repositories"
)

// fallbackContent is stored when the upstream stream completed but produced
// no usable text, so the record never looks like an unfinished orphan.
const fallbackContent = "Failed to generate SOP"

// maxGenerationTime bounds one upstream call once it is detached from the
// caller's context.
const maxGenerationTime = 10 * time.Minute

// StartedGeneration is a generation attempt whose placeholder record exists
// and whose upstream client is resolved, ready to stream.
type StartedGeneration struct {
	SOP     *models.SOP
	Client  llm.GenerationClient
	Request *llm.Request
}

// GenerationService orchestrates SOP generation end to end.
type GenerationService interface {
	// Start validates the request, resolves the caller's upstream client,
	// and creates the placeholder record. Failures here happen before any
	// streaming and leave no record behind.
	Start(ctx context.Context, userID uuid.UUID, req *models.GenerationRequest) (*StartedGeneration, error)

	// Run streams the upstream response onto eventChan: zero or more text
	// events followed by exactly one done or error event. On success the
	// record is finalized best-effort; on failure it is rolled back and the
	// classified code is carried on the error event. Run never panics and
	// never closes the channel; the caller owns it.
	Run(ctx context.Context, gen *StartedGeneration, eventChan chan<- models.StreamEvent)
}

type generationService struct {
	sopRepo repositories.SOPRepository
	factory llm.Factory
	logger  *zap.Logger
}

// NewGenerationService creates a new generation service.
func NewGenerationService(sopRepo repositories.SOPRepository, factory llm.Factory, logger *zap.Logger) GenerationService {
	return &generationService{
		sopRepo: sopRepo,
		factory: factory,
		logger:  logger.Named("generation"),
	}
}

var _ GenerationService = (*generationService)(nil)

func (s *generationService) Start(ctx context.Context, userID uuid.UUID, req *models.GenerationRequest) (*StartedGeneration, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	client, err := s.factory.CreateForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	in := req.Input
	applyDefaults(&in)

	sop := buildRecord(&in, req, userID)
	if err := s.sopRepo.CreatePlaceholder(ctx, sop); err != nil {
		s.logger.Error("Failed to create SOP placeholder", zap.Error(err))
		return nil, &llm.Error{
			Code:    models.ErrCodeGenerationFailed,
			Message: "failed to create SOP record",
			Cause:   err,
		}
	}

	return &StartedGeneration{
		SOP:     sop,
		Client:  client,
		Request: buildUpstreamRequest(&in, req),
	}, nil
}

func (s *generationService) Run(ctx context.Context, gen *StartedGeneration, eventChan chan<- models.StreamEvent) {
	// A caller disconnect must not abort the attempt: the id already went
	// out, so the upstream call runs to completion on a detached context
	// (bounded by maxGenerationTime) and the record is finalized server-side
	// rather than rolled back.
	dbCtx := context.WithoutCancel(ctx)
	upstreamCtx, cancel := context.WithTimeout(dbCtx, maxGenerationTime)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Panic during generation stream",
				zap.String("sop_id", gen.SOP.ID.String()),
				zap.Any("panic", r))
			s.rollback(dbCtx, gen.SOP.ID)
			eventChan <- models.NewErrorEvent(models.ErrCodeGenerationFailed)
		}
	}()

	start := time.Now()
	var full strings.Builder

	err := gen.Client.StreamGenerate(upstreamCtx, gen.Request, func(text string) {
		full.WriteString(text)
		eventChan <- models.NewTextEvent(text)
	})
	if err != nil {
		classified := llm.Classify(err)
		s.logger.Error("Generation stream failed",
			zap.String("sop_id", gen.SOP.ID.String()),
			zap.String("code", string(classified.Code)),
			zap.Error(err))
		s.rollback(dbCtx, gen.SOP.ID)
		eventChan <- models.NewErrorEvent(classified.Code)
		return
	}

	content := repositories.SanitizeText(full.String())
	if content == "" {
		content = fallbackContent
	}

	// Best effort: the client already holds the full content and issues a
	// corrective write if this update is lost.
	if err := s.sopRepo.Finalize(dbCtx, gen.SOP.ID, content); err != nil {
		s.logger.Error("Failed to finalize SOP content",
			zap.String("sop_id", gen.SOP.ID.String()),
			zap.Error(err))
	}

	s.logger.Info("Generation completed",
		zap.String("sop_id", gen.SOP.ID.String()),
		zap.String("kind", string(gen.SOP.Kind)),
		zap.Int("content_length", len(content)),
		zap.Duration("elapsed", time.Since(start)))

	eventChan <- models.NewDoneEvent()
}

func (s *generationService) rollback(ctx context.Context, id uuid.UUID) {
	if err := s.sopRepo.Rollback(ctx, id); err != nil {
		s.logger.Error("Failed to roll back SOP record",
			zap.String("sop_id", id.String()),
			zap.Error(err))
	}
}

func validateRequest(req *models.GenerationRequest) error {
	switch req.Input.Type {
	case models.SOPKindNew:
		if req.HasAttachment() {
			return fmt.Errorf("%w: NEW requests do not accept a file", apperrors.ErrInvalidInput)
		}
	case models.SOPKindModified:
		hasContent := strings.TrimSpace(req.Input.UploadedSOPContent) != ""
		if hasContent == req.HasAttachment() {
			return fmt.Errorf("%w: MODIFIED requests need either pasted content or a file, not both", apperrors.ErrInvalidInput)
		}
		if req.HasAttachment() {
			switch req.Attachment.MediaType {
			case models.MediaTypePDF, models.MediaTypeDocx:
			default:
				return fmt.Errorf("%w: unsupported file type %q", apperrors.ErrInvalidInput, req.Attachment.MediaType)
			}
		}
	default:
		return fmt.Errorf("%w: invalid SOP type", apperrors.ErrInvalidInput)
	}
	return nil
}

// applyDefaults pins the document metadata the model must echo verbatim.
func applyDefaults(in *models.GenerateInput) {
	if in.Type != models.SOPKindNew {
		return
	}
	if strings.TrimSpace(in.EffectiveDate) == "" {
		in.EffectiveDate = time.Now().Format("2006-01-02")
	}
	if strings.TrimSpace(in.VersionNo) == "" {
		in.VersionNo = "1.0"
	}
}

func deriveTitle(in *models.GenerateInput) string {
	if name := strings.TrimSpace(in.BusinessName); name != "" {
		return name
	}
	if in.Type == models.SOPKindModified {
		return "Modified SOP - " + time.Now().Format("1/2/2006")
	}
	return "Untitled SOP"
}

func buildRecord(in *models.GenerateInput, req *models.GenerationRequest, userID uuid.UUID) *models.SOP {
	sop := &models.SOP{
		Kind:         in.Type,
		Title:        deriveTitle(in),
		BusinessName: optional(in.BusinessName),
		OwnerID:      userID,
	}

	switch in.Type {
	case models.SOPKindNew:
		sop.BusinessType = optional(in.BusinessType)
		sop.Purpose = optional(in.Purpose)
		sop.ProgressStartEnd = optional(in.ProgressStartEnd)
		sop.Scope = optional(in.Scope)
		sop.Stakeholders = optional(in.Stakeholders)
		sop.Responsibility = optional(in.Responsibility)
		sop.ApprovalAuthority = optional(in.ApprovalAuthority)
		sop.StepByStep = optional(in.StepByStep)
		sop.DecisionPoints = optional(in.DecisionPoints)
		sop.Tools = optional(in.Tools)
		sop.ReferenceDocuments = optional(in.ReferenceDocuments)
		sop.ComplianceStandards = optional(in.ComplianceStandards)
		sop.DosAndDonts = optional(in.DosAndDonts)
		sop.Risks = optional(in.Risks)
		sop.Controls = optional(in.Controls)
		sop.ExpectedOutput = optional(in.ExpectedOutput)
		sop.KpiMetrics = optional(in.KpiMetrics)
		sop.VersionNo = optional(in.VersionNo)
		sop.EffectiveDate = optional(in.EffectiveDate)
		sop.ReviewCycle = optional(in.ReviewCycle)
		sop.RevisionHistory = optional(in.RevisionHistory)
		sop.TrainingMethod = optional(in.TrainingMethod)
		sop.InductionProcess = optional(in.InductionProcess)
		sop.UpdateNotification = optional(in.UpdateNotification)
	case models.SOPKindModified:
		if req.HasAttachment() {
			sop.UploadedSOPContent = optional("[File uploaded: " + req.Attachment.Filename + "]")
		} else {
			sop.UploadedSOPContent = optional(in.UploadedSOPContent)
		}
		sop.Problems = optional(in.Problems)
		sop.AdditionalReq = optional(in.AdditionalReq)
	}

	return sop
}

func buildUpstreamRequest(in *models.GenerateInput, req *models.GenerationRequest) *llm.Request {
	if in.Type == models.SOPKindNew {
		return &llm.Request{
			System: prompts.NewSOPSystemInstruction,
			Prompt: prompts.BuildNewSOPPrompt(*in),
		}
	}
	if req.HasAttachment() {
		return &llm.Request{
			System:     prompts.ModifySOPSystemInstruction,
			Prompt:     prompts.BuildModifyAttachmentPrompt(*in),
			Attachment: req.Attachment,
		}
	}
	return &llm.Request{
		System: prompts.ModifySOPSystemInstruction,
		Prompt: prompts.BuildModifySOPPrompt(*in),
	}
}

func optional(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}
