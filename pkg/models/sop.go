package models

import (
	"time"

	"github.com/google/uuid"
)

// SOPKind distinguishes freshly generated documents from revisions of an
// uploaded one.
type SOPKind string

const (
	SOPKindNew      SOPKind = "NEW"
	SOPKindModified SOPKind = "MODIFIED"
)

// Valid reports whether the kind is one of the two supported values.
func (k SOPKind) Valid() bool {
	return k == SOPKindNew || k == SOPKindModified
}

// SOP is a persisted Standard Operating Procedure document.
//
// Lifecycle: created with an empty Content before the upstream model is
// invoked (so the id can be handed to the caller immediately), finalized with
// the generated body when streaming completes, or deleted again if generation
// fails. A record whose Content stayed empty is an orphan from an attempt
// that never finalized; the janitor sweeps those after a grace window.
type SOP struct {
	ID      uuid.UUID `json:"id"`
	Kind    SOPKind   `json:"type"`
	Title   string    `json:"title"`
	Content string    `json:"generatedContent"`

	// Source fields captured for NEW documents; all nil for MODIFIED.
	BusinessName        *string `json:"businessName"`
	BusinessType        *string `json:"businessType"`
	Purpose             *string `json:"purpose"`
	ProgressStartEnd    *string `json:"progressStartEnd"`
	Scope               *string `json:"scope"`
	Stakeholders        *string `json:"stakeholders"`
	Responsibility      *string `json:"responsibility"`
	ApprovalAuthority   *string `json:"approvalAuthority"`
	StepByStep          *string `json:"stepByStep"`
	DecisionPoints      *string `json:"decisionPoints"`
	Tools               *string `json:"tools"`
	ReferenceDocuments  *string `json:"referenceDocuments"`
	ComplianceStandards *string `json:"complianceStandards"`
	DosAndDonts         *string `json:"dosAndDonts"`
	Risks               *string `json:"risks"`
	Controls            *string `json:"controls"`
	ExpectedOutput      *string `json:"expectedOutput"`
	KpiMetrics          *string `json:"kpiMetrics"`
	VersionNo           *string `json:"versionNo"`
	EffectiveDate       *string `json:"effectiveDate"`
	ReviewCycle         *string `json:"reviewCycle"`
	RevisionHistory     *string `json:"revisionHistory"`
	TrainingMethod      *string `json:"trainingMethod"`
	InductionProcess    *string `json:"inductionProcess"`
	UpdateNotification  *string `json:"updateNotification"`

	// Revision inputs captured for MODIFIED documents; nil for NEW.
	UploadedSOPContent *string `json:"uploadedSOPContent"`
	Problems           *string `json:"problems"`
	AdditionalReq      *string `json:"additionalReq"`

	OwnerID   uuid.UUID `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// SOPSummary is the list-view projection of a document.
type SOPSummary struct {
	ID           uuid.UUID `json:"id"`
	Kind         SOPKind   `json:"type"`
	Title        string    `json:"title"`
	BusinessName *string   `json:"businessName"`
	OwnerID      uuid.UUID `json:"userId"`
	OwnerName    string    `json:"ownerName"`
	OwnerEmail   string    `json:"ownerEmail"`
	CreatedAt    time.Time `json:"createdAt"`
}
