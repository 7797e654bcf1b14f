package models

// Stream framing markers. The first line of every generation stream carries
// the pre-created record id; exactly one terminal marker follows the relayed
// content.
const (
	SOPIDMarker       = "__SOP_ID__:"
	StreamDoneMarker  = "__STREAM_DONE__"
	ErrorMarkerPrefix = "__ERROR__:"
)

// ErrorCode is the closed set of client-facing generation error codes.
type ErrorCode string

const (
	ErrCodeAPILimitReached  ErrorCode = "API_LIMIT_REACHED"
	ErrCodeInvalidAPIKey    ErrorCode = "INVALID_API_KEY"
	ErrCodeGenerationFailed ErrorCode = "GENERATION_FAILED"
	ErrCodeNoAPIKey         ErrorCode = "NO_API_KEY"
)

// Supported attachment media types for the MODIFIED-with-file path.
const (
	MediaTypePDF  = "application/pdf"
	MediaTypeDocx = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// Attachment is an uploaded source document handed to the model natively
// instead of as extracted text.
type Attachment struct {
	Filename  string
	MediaType string
	Data      []byte
}

// GenerateInput is the flat field set submitted by the generation form.
// NEW requests fill the business/process fields; MODIFIED requests fill
// UploadedSOPContent (or ship an attachment alongside) plus Problems and
// AdditionalReq.
type GenerateInput struct {
	Type SOPKind `json:"type"`

	BusinessName        string `json:"businessName"`
	BusinessType        string `json:"businessType"`
	Purpose             string `json:"purpose"`
	ProgressStartEnd    string `json:"progressStartEnd"`
	Scope               string `json:"scope"`
	Stakeholders        string `json:"stakeholders"`
	Responsibility      string `json:"responsibility"`
	ApprovalAuthority   string `json:"approvalAuthority"`
	StepByStep          string `json:"stepByStep"`
	DecisionPoints      string `json:"decisionPoints"`
	Tools               string `json:"tools"`
	ReferenceDocuments  string `json:"referenceDocuments"`
	ComplianceStandards string `json:"complianceStandards"`
	DosAndDonts         string `json:"dosAndDonts"`
	Risks               string `json:"risks"`
	Controls            string `json:"controls"`
	ExpectedOutput      string `json:"expectedOutput"`
	KpiMetrics          string `json:"kpiMetrics"`
	VersionNo           string `json:"versionNo"`
	EffectiveDate       string `json:"effectiveDate"`
	ReviewCycle         string `json:"reviewCycle"`
	RevisionHistory     string `json:"revisionHistory"`
	TrainingMethod      string `json:"trainingMethod"`
	InductionProcess    string `json:"inductionProcess"`
	UpdateNotification  string `json:"updateNotification"`

	UploadedSOPContent string `json:"uploadedSOPContent"`
	Problems           string `json:"problems"`
	AdditionalReq      string `json:"additionalReq"`
}

// GenerationRequest is one generation attempt: the submitted fields plus an
// optional uploaded source document.
//
// Invariant: NEW carries no attachment; MODIFIED carries exactly one of
// {UploadedSOPContent, Attachment}.
type GenerationRequest struct {
	Input      GenerateInput
	Attachment *Attachment
}

// HasAttachment reports whether a source document file was supplied.
func (r *GenerationRequest) HasAttachment() bool {
	return r.Attachment != nil && len(r.Attachment.Data) > 0
}
