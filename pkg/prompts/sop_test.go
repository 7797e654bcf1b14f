package prompts

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sopforge/sop-engine/pkg/models"
)

func TestBuildNewSOPPrompt_PinsEffectiveDate(t *testing.T) {
	in := models.GenerateInput{
		Type:          models.SOPKindNew,
		BusinessName:  "Acme Corp",
		VersionNo:     "2.3",
		EffectiveDate: "2024-06-01",
	}

	prompt := BuildNewSOPPrompt(in)

	assert.Contains(t, prompt, "- SOP Version No.: 2.3")
	assert.Contains(t, prompt, "- Effective Date: 2024-06-01 (YOU MUST USE THIS EXACT DATE IN THE GENERATED DOCUMENT. DO NOT CHANGE IT.)")
}

func TestBuildNewSOPPrompt_EmptyFieldsBecomeNA(t *testing.T) {
	prompt := BuildNewSOPPrompt(models.GenerateInput{Type: models.SOPKindNew, Purpose: "  "})

	assert.Contains(t, prompt, "- Business Name: N/A")
	assert.Contains(t, prompt, "- Purpose / Objective: N/A")
	assert.Contains(t, prompt, "- Potential Risks: N/A")
}

func TestBuildNewSOPPrompt_Deterministic(t *testing.T) {
	in := models.GenerateInput{Type: models.SOPKindNew, BusinessName: "Acme", StepByStep: "1. Do the thing"}
	assert.Equal(t, BuildNewSOPPrompt(in), BuildNewSOPPrompt(in))
}

func TestBuildNewSOPPrompt_SectionOrder(t *testing.T) {
	prompt := BuildNewSOPPrompt(models.GenerateInput{Type: models.SOPKindNew})

	sections := []string{
		"## Process / Procedure Information",
		"## Stakeholders & Responsibility",
		"## Step-by-Step Procedure",
		"## Tools, Documents & Resources",
		"## Standards & Compliance",
		"## Risks & Controls",
		"## KPI / Output",
		"## Version Control & Review",
		"## Training & Communication",
	}
	last := -1
	for _, s := range sections {
		idx := strings.Index(prompt, s)
		assert.Greater(t, idx, last, "section %q out of order", s)
		last = idx
	}
}

func TestBuildModifySOPPrompt(t *testing.T) {
	in := models.GenerateInput{
		Type:               models.SOPKindModified,
		UploadedSOPContent: "<h1>Old SOP</h1>",
		Problems:           "Approval chain is outdated",
	}

	prompt := BuildModifySOPPrompt(in)

	assert.Contains(t, prompt, "<h1>Old SOP</h1>")
	assert.Contains(t, prompt, "Approval chain is outdated")
	assert.Contains(t, prompt, "No additional requirements")
}

func TestBuildModifySOPPrompt_Defaults(t *testing.T) {
	prompt := BuildModifySOPPrompt(models.GenerateInput{Type: models.SOPKindModified})

	assert.Contains(t, prompt, "No content provided")
	assert.Contains(t, prompt, "No specific problems mentioned")
	assert.Contains(t, prompt, "No additional requirements")
}

func TestBuildModifyAttachmentPrompt_OmitsPastedContent(t *testing.T) {
	in := models.GenerateInput{
		Type:     models.SOPKindModified,
		Problems: "Missing risk section",
	}

	prompt := BuildModifyAttachmentPrompt(in)

	assert.Contains(t, prompt, "attached document")
	assert.Contains(t, prompt, "Missing risk section")
	assert.Contains(t, prompt, "Preserve ALL original dates")
	assert.NotContains(t, prompt, "## Existing SOP Content")
}
