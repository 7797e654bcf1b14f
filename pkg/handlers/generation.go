package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/sopforge/sop-engine/pkg/apperrors"
	"github.com/sopforge/sop-engine/pkg/auth"
	"github.com/sopforge/sop-engine/pkg/llm"
	"github.com/sopforge/sop-engine/pkg/models"
	"github.com/sopforge/sop-engine/pkg/services"
)

// maxUploadSize caps the uploaded source document at 20 MB.
const maxUploadSize = 20 << 20

// GenerationHandler streams AI-generated SOP documents to the client.
//
// The response body is plain text with in-band framing: the first line is
// "__SOP_ID__:<id>", followed by raw HTML chunks as they arrive, terminated
// by exactly one of "\n__STREAM_DONE__" or "\n__ERROR__:<CODE>". Failures
// before the stream opens are ordinary JSON error responses instead.
type GenerationHandler struct {
	generation services.GenerationService
	logger     *zap.Logger
}

// NewGenerationHandler creates a new generation handler.
func NewGenerationHandler(generation services.GenerationService, logger *zap.Logger) *GenerationHandler {
	return &GenerationHandler{
		generation: generation,
		logger:     logger.Named("generation_handler"),
	}
}

// RegisterRoutes registers generation endpoints on the mux.
func (h *GenerationHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("POST /api/sops", authMiddleware.RequireAuth(h.Generate))
}

// Generate handles POST /api/sops.
func (h *GenerationHandler) Generate(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		ErrorResponse(w, http.StatusUnauthorized, "Unauthorized", "Authentication required")
		return
	}

	req, err := parseGenerationRequest(r)
	if err != nil {
		ErrorResponse(w, http.StatusBadRequest, "INVALID_INPUT", err.Error())
		return
	}

	gen, err := h.generation.Start(r.Context(), userID, req)
	if err != nil {
		h.writeStartError(w, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		h.logger.Error("Streaming not supported by response writer")
		ErrorResponse(w, http.StatusInternalServerError, "GENERATION_FAILED", "Streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	// The record id goes out first so the client can issue a corrective
	// write even if the connection drops mid-stream.
	fmt.Fprintf(w, "%s%s\n", models.SOPIDMarker, gen.SOP.ID)
	flusher.Flush()

	eventChan := make(chan models.StreamEvent, 100)
	go func() {
		defer close(eventChan)
		h.generation.Run(r.Context(), gen, eventChan)
	}()

	for event := range eventChan {
		switch event.Type {
		case models.StreamEventText:
			io.WriteString(w, event.Content)
		case models.StreamEventDone:
			io.WriteString(w, "\n"+models.StreamDoneMarker)
		case models.StreamEventError:
			fmt.Fprintf(w, "\n%s%s", models.ErrorMarkerPrefix, event.Code)
		}
		flusher.Flush()

		if event.Type != models.StreamEventText {
			break
		}
	}
}

// writeStartError maps pre-stream failures onto JSON responses; once
// streaming begins errors travel in-band instead.
func (h *GenerationHandler) writeStartError(w http.ResponseWriter, err error) {
	if errors.Is(err, llm.ErrNoAPIKey) {
		ErrorResponse(w, http.StatusBadRequest, string(models.ErrCodeNoAPIKey),
			"Please set your API key before generating SOPs.")
		return
	}
	if errors.Is(err, apperrors.ErrInvalidInput) {
		ErrorResponse(w, http.StatusBadRequest, "INVALID_INPUT", err.Error())
		return
	}

	classified := llm.Classify(err)
	h.logger.Error("Failed to start generation",
		zap.String("code", string(classified.Code)),
		zap.Error(err))

	var message string
	switch classified.Code {
	case models.ErrCodeAPILimitReached:
		message = "Your API key has reached its usage limit. Please change your API key to continue generating SOPs."
	case models.ErrCodeInvalidAPIKey:
		message = "Your API key is invalid. Please update your API key."
	default:
		message = "Failed to generate SOP. Please check your API key."
	}
	ErrorResponse(w, llm.HTTPStatus(classified.Code), string(classified.Code), message)
}

// parseGenerationRequest decodes either a JSON body (NEW, or MODIFIED with
// pasted content) or a multipart form carrying a source document file.
func parseGenerationRequest(r *http.Request) (*models.GenerationRequest, error) {
	contentType := r.Header.Get("Content-Type")
	if !strings.Contains(contentType, "multipart/form-data") {
		var input models.GenerateInput
		if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
			return nil, fmt.Errorf("invalid request body: %w", err)
		}
		return &models.GenerationRequest{Input: input}, nil
	}

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		return nil, fmt.Errorf("invalid form data: %w", err)
	}

	req := &models.GenerationRequest{
		Input: models.GenerateInput{
			Type:               models.SOPKind(r.FormValue("type")),
			BusinessName:       r.FormValue("businessName"),
			UploadedSOPContent: r.FormValue("uploadedSOPContent"),
			Problems:           r.FormValue("problems"),
			AdditionalReq:      r.FormValue("additionalReq"),
		},
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return req, nil
		}
		return nil, fmt.Errorf("invalid file upload: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read uploaded file: %w", err)
	}
	if len(data) > maxUploadSize {
		return nil, fmt.Errorf("uploaded file exceeds %d bytes", maxUploadSize)
	}

	req.Attachment = &models.Attachment{
		Filename:  header.Filename,
		MediaType: attachmentMediaType(header.Header.Get("Content-Type"), header.Filename),
		Data:      data,
	}
	return req, nil
}

// attachmentMediaType coerces the uploaded file's type to one of the two
// supported document formats; anything that is not a PDF is treated as Word.
func attachmentMediaType(declared, filename string) string {
	if strings.Contains(declared, "pdf") || strings.EqualFold(filepath.Ext(filename), ".pdf") {
		return models.MediaTypePDF
	}
	return models.MediaTypeDocx
}
