// Package prompts constructs the system instructions and content prompts
// sent to the upstream generative-AI model. Builders are pure: same input,
// same output, no I/O.
package prompts

import (
	"fmt"
	"strings"

	"github.com/sopforge/sop-engine/pkg/models"
)

// NewSOPSystemInstruction directs the model when generating a fresh SOP
// document from structured form fields.
const NewSOPSystemInstruction = `You are an expert Standard Operating Procedure (SOP) writer. Create professional, detailed, and well-structured SOPs.

Format the SOP using clean HTML with proper headings, tables, lists, and sections. Use professional styling.
The SOP should follow this structure:
1. Document Header (Title, Version, Date, Department)
2. Purpose & Scope
3. Definitions & Abbreviations
4. Roles & Responsibilities
5. Procedure (Step-by-step with detailed instructions)
6. Decision Points & Flowchart descriptions
7. Tools & Resources Required
8. Standards & Compliance
9. Risk Assessment & Controls
10. KPIs & Expected Outcomes
11. Version Control & Review Schedule
12. Training & Communication Plan
13. Appendices & References

IMPORTANT RULES:
- You MUST use the EXACT Effective Date provided by the user. Do NOT change, modify, or generate a different date. Copy the date value exactly as provided.
- You MUST use the EXACT Version number provided by the user.
- For table headers (<th>), use this style: background-color: #4338ca; color: #ffffff; padding: 10px 14px; text-align: left; font-weight: 600;
- For table cells (<td>), use this style: padding: 8px 14px; border-bottom: 1px solid #e2e8f0; color: #334155;

FONT & STYLE REQUIREMENTS:
- Use consistent font throughout: font-family: 'Inter', 'Segoe UI', system-ui, sans-serif;
- All headings (h1, h2, h3) must use the same font family as body text.
- Do NOT mix serif and sans-serif fonts.
- Ensure consistent font sizes: h1=1.75rem, h2=1.35rem, h3=1.1rem, body=0.95rem.
- Use consistent line-height: 1.7 throughout.
- Ensure tables have consistent column widths using percentage-based widths.

Use tables where appropriate. Make it comprehensive and ready to use. Format using clean, semantic HTML.
Do NOT use markdown. Use HTML elements like <h1>, <h2>, <h3>, <table>, <ul>, <ol>, <p>, etc.
Wrap everything in a single <div class="sop-document" style="font-family: 'Inter', 'Segoe UI', system-ui, sans-serif; line-height: 1.7; color: #1e293b;">.
Do NOT wrap the output in a code block. Output raw HTML only.`

// ModifySOPSystemInstruction directs the model when revising an existing SOP
// document against a list of reported problems.
const ModifySOPSystemInstruction = `You are an expert Standard Operating Procedure (SOP) analyst and writer. Your job is to:
1. Analyze the existing SOP document provided
2. Identify and address all problems mentioned by the user
3. Generate an improved, professional SOP that resolves all issues
4. Incorporate any additional requirements specified

CRITICAL DATE RULES:
- You MUST preserve ALL original dates from the uploaded SOP document EXACTLY as they appear.
- Do NOT change, modify, or generate different dates. If the original SOP has "2023-10-27" as the effective date, keep it as "2023-10-27".
- Only change dates if the user specifically requests a date change in their problems or additional requirements.
- The "Last Review Date" or "Modified Date" should reflect the current modification date if appropriate, but the original effective dates must be preserved.

Format the improved SOP using clean HTML with proper headings, tables, lists, and sections.
Maintain the original structure where appropriate but improve where needed.
Add any missing sections that should be in a professional SOP.

FONT & STYLE REQUIREMENTS:
- Use consistent font throughout: font-family: 'Inter', 'Segoe UI', system-ui, sans-serif;
- All headings (h1, h2, h3) must use the same font family as body text.
- Do NOT mix serif and sans-serif fonts.
- Ensure consistent font sizes: h1=1.75rem, h2=1.35rem, h3=1.1rem, body=0.95rem.
- Use consistent line-height: 1.7 throughout.
- Ensure tables have consistent column widths using percentage-based widths.
- For table headers (<th>), use: background-color: #4338ca; color: #ffffff; padding: 10px 14px; text-align: left; font-weight: 600;
- For table cells (<td>), use: padding: 8px 14px; border-bottom: 1px solid #e2e8f0; color: #334155;

IMPORTANT: At the very end of the SOP document, you MUST include a special section called "AI Suggestions & Recommendations".
This section should:
- Analyze the problems the user mentioned
- Provide specific, actionable suggestions to resolve each problem
- Recommend best practices and improvements that go beyond the stated problems
- Suggest preventive measures to avoid similar issues in the future
- Highlight any gaps or potential risks that the user may not have considered

Format this section with a distinct visual style using a light blue/info background. Example:
<div style="background: #eff6ff; border-left: 4px solid #3b82f6; padding: 20px; border-radius: 8px; margin-top: 32px;">
  <h2 style="color: #1e40af; margin-bottom: 12px;">💡 AI Suggestions & Recommendations</h2>
  ...suggestions here...
</div>

Do NOT use markdown. Use HTML elements like <h1>, <h2>, <h3>, <table>, <ul>, <ol>, <p>, etc.
Wrap everything in a single <div class="sop-document" style="font-family: 'Inter', 'Segoe UI', system-ui, sans-serif; line-height: 1.7; color: #1e293b;">.
Do NOT wrap the output in a code block. Output raw HTML only.`

// orNA substitutes the literal N/A for empty fields so section presence in
// the model output stays deterministic regardless of which optional fields
// were filled in.
func orNA(value string) string {
	if strings.TrimSpace(value) == "" {
		return "N/A"
	}
	return value
}

// BuildNewSOPPrompt enumerates every supplied form field under labeled
// sections. The version number and effective date are pinned: the prompt
// instructs the model to reproduce them verbatim. Callers must resolve
// defaults for those two fields before building.
func BuildNewSOPPrompt(in models.GenerateInput) string {
	var b strings.Builder

	b.WriteString("Create a comprehensive Standard Operating Procedure (SOP) document based on the following information:\n\n")

	b.WriteString("## Process / Procedure Information\n")
	fmt.Fprintf(&b, "- Business Name: %s\n", orNA(in.BusinessName))
	fmt.Fprintf(&b, "- Business Type: %s\n", orNA(in.BusinessType))
	fmt.Fprintf(&b, "- Purpose / Objective: %s\n", orNA(in.Purpose))
	fmt.Fprintf(&b, "- Business Progress (Start to End): %s\n", orNA(in.ProgressStartEnd))
	fmt.Fprintf(&b, "- Scope (Department / Team): %s\n\n", orNA(in.Scope))

	b.WriteString("## Stakeholders & Responsibility\n")
	fmt.Fprintf(&b, "- Personnel who must follow this SOP (Roles/Positions): %s\n", orNA(in.Stakeholders))
	fmt.Fprintf(&b, "- Responsibilities (Who does what): %s\n", orNA(in.Responsibility))
	fmt.Fprintf(&b, "- Approval Authority: %s\n\n", orNA(in.ApprovalAuthority))

	b.WriteString("## Step-by-Step Procedure\n")
	fmt.Fprintf(&b, "- Process steps (what to do, who does it, when/where): %s\n", orNA(in.StepByStep))
	fmt.Fprintf(&b, "- Decision Points (Yes/No): %s\n\n", orNA(in.DecisionPoints))

	b.WriteString("## Tools, Documents & Resources\n")
	fmt.Fprintf(&b, "- Software / System / Equipment / Tools: %s\n", orNA(in.Tools))
	fmt.Fprintf(&b, "- Reference Documents (Policy, Guideline, Form, Template): %s\n\n", orNA(in.ReferenceDocuments))

	b.WriteString("## Standards & Compliance\n")
	fmt.Fprintf(&b, "- Company Policy / Law / Regulation / Quality Standards: %s\n", orNA(in.ComplianceStandards))
	fmt.Fprintf(&b, "- Dos & Don'ts: %s\n\n", orNA(in.DosAndDonts))

	b.WriteString("## Risks & Controls\n")
	fmt.Fprintf(&b, "- Potential Risks: %s\n", orNA(in.Risks))
	fmt.Fprintf(&b, "- Control / Prevention Methods: %s\n\n", orNA(in.Controls))

	b.WriteString("## KPI / Output\n")
	fmt.Fprintf(&b, "- Expected Result / Output: %s\n", orNA(in.ExpectedOutput))
	fmt.Fprintf(&b, "- Success Measurement KPI / Metrics: %s\n\n", orNA(in.KpiMetrics))

	b.WriteString("## Version Control & Review\n")
	fmt.Fprintf(&b, "- SOP Version No.: %s\n", orNA(in.VersionNo))
	fmt.Fprintf(&b, "- Effective Date: %s (YOU MUST USE THIS EXACT DATE IN THE GENERATED DOCUMENT. DO NOT CHANGE IT.)\n", orNA(in.EffectiveDate))
	fmt.Fprintf(&b, "- Review Cycle: %s\n", orNA(in.ReviewCycle))
	fmt.Fprintf(&b, "- Revision History: %s\n\n", orNA(in.RevisionHistory))

	b.WriteString("## Training & Communication\n")
	fmt.Fprintf(&b, "- Training Method: %s\n", orNA(in.TrainingMethod))
	fmt.Fprintf(&b, "- New Staff Induction Process: %s\n", orNA(in.InductionProcess))
	fmt.Fprintf(&b, "- SOP Update Notification Method: %s\n\n", orNA(in.UpdateNotification))

	b.WriteString("Please generate a professional, comprehensive, detailed SOP document with all sections properly formatted.")

	return b.String()
}

// BuildModifySOPPrompt embeds the pasted source document text alongside the
// reported problems and extra requirements. Used when no binary attachment
// was supplied.
func BuildModifySOPPrompt(in models.GenerateInput) string {
	var b strings.Builder

	b.WriteString("I have an existing SOP document that needs to be modified and improved. Please analyze the existing SOP, identify the problems mentioned, and generate an improved version that addresses all issues.\n\n")

	b.WriteString("## Existing SOP Content:\n")
	b.WriteString(orDefault(in.UploadedSOPContent, "No content provided"))
	b.WriteString("\n\n## Problems Identified:\n")
	b.WriteString(orDefault(in.Problems, "No specific problems mentioned"))
	b.WriteString("\n\n## Additional Requirements:\n")
	b.WriteString(orDefault(in.AdditionalReq, "No additional requirements"))

	b.WriteString(`

Please:
1. Analyze the existing SOP for the mentioned problems
2. Address each problem with appropriate solutions
3. Incorporate any additional requirements
4. Generate an improved, professional SOP that resolves all issues
5. Maintain the original structure where appropriate but improve where needed
6. Add any missing sections that should be in a professional SOP
7. At the very end, include an "AI Suggestions & Recommendations" section with specific, actionable suggestions to solve the problems mentioned and prevent future issues`)

	return b.String()
}

// BuildModifyAttachmentPrompt is the shorter text prompt that rides beside a
// native document attachment; the model reads the document itself rather
// than extracted text.
func BuildModifyAttachmentPrompt(in models.GenerateInput) string {
	var b strings.Builder

	b.WriteString("The attached document is an existing SOP that needs to be modified and improved. Please analyze it carefully, identify the problems mentioned below, and generate a complete improved version that addresses all issues.\n\n")
	b.WriteString("IMPORTANT: Preserve ALL original dates, version numbers, and document identifiers from the uploaded document EXACTLY as they appear. Do NOT change any dates unless specifically requested.\n\n")

	b.WriteString("## Problems Identified:\n")
	b.WriteString(orDefault(in.Problems, "No specific problems mentioned"))
	b.WriteString("\n\n## Additional Requirements:\n")
	b.WriteString(orDefault(in.AdditionalReq, "No additional requirements"))

	b.WriteString(`

Please:
1. Read and understand the attached SOP document completely
2. Analyze the existing SOP for the mentioned problems
3. Address each problem with appropriate solutions
4. Incorporate any additional requirements
5. Generate an improved, professional SOP that resolves all issues
6. Maintain the original structure where appropriate but improve where needed
7. Preserve all original dates, version numbers, and document metadata
8. Add any missing sections that should be in a professional SOP
9. At the very end, include an "AI Suggestions & Recommendations" section with specific, actionable suggestions to solve the problems mentioned and prevent future issues`)

	return b.String()
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
