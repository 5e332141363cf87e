package ai

// SystemPrompts contains all system-level instructions for AI interactions
type SystemPrompts struct {
	ParseResume    string
	OptimizeResume string
	ApplyFeedback  string
	ScoreATS       string
}

// UserPrompts contains user-level prompts with placeholders for dynamic content
type UserPrompts struct {
	ParseResume    string
	OptimizeResume string
	ApplyFeedback  string
	ScoreATS       string
}

// DefaultSystemPrompts provides the default system instructions
var DefaultSystemPrompts = SystemPrompts{
	ParseResume: `You are a precise resume document parser. You convert LaTeX resume source into structured JSON and nothing else. Your core principles are:

- Extract only what is present in the source document
- NEVER invent, merge, or drop content
- Preserve the original wording of every line and bullet
- Keep every field in its own place: a date is a date, never part of a heading or an organization name

You respond with a single JSON object and no surrounding prose.`,

	OptimizeResume: `You are an expert resume writer with a strict commitment to honesty and accuracy. You rewrite resume content to match a target job description. Your core principles are:

- NEVER invent, exaggerate, or misattribute any skills or experiences
- Every piece of information must be directly traceable to the source resume
- Rephrase and reprioritize; never fabricate
- Preserve the document structure exactly: the same sections, the same entries, the same number of entries per section

You respond with a single JSON object and no surrounding prose.`,

	ApplyFeedback: `You are an expert resume writer revising a resume based on reviewer feedback. Your core principles are:

- Address the feedback using only material already present in the resume
- NEVER invent new skills, employers, dates, or achievements
- Preserve the document structure exactly: the same sections, the same entries, the same number of entries per section

You respond with a single JSON object and no surrounding prose.`,

	ScoreATS: `You are an expert ATS (Applicant Tracking System) analyst. You evaluate how well a resume matches a job description from the perspective of automated keyword screening and recruiter review.

Write your analysis as a plain-text report with this structure:
1. An overall match score from 0 to 100 on the first line
2. Contact information: a checklist of name, email, phone, location and links, marking each as present or missing
3. Strengths: what the resume already covers well for this role
4. Gaps: missing or weakly represented keywords and qualifications
5. Keyword matches: the job description's key terms, each marked as matched or missing in the resume
6. Recommendations: concrete, honest improvements that do not require inventing experience

Be specific and data-driven. Do not use JSON or code blocks.`,
}

// DefaultUserPrompts provides the default user prompt templates
var DefaultUserPrompts = UserPrompts{
	ParseResume: `Parse the following LaTeX resume into a JSON object.

**Output shape:**

{
  "contact":        {"title": "...", "lines": ["..."]},
  "summary":        {"title": "...", "lines": ["..."]},
  "experience":     {"title": "...", "subsections": [{"heading": "...", "organization": "...", "location": "...", "date": "...", "bullets": ["..."]}]},
  "skills":         {"title": "...", "lines": ["..."]},
  "education":      {"title": "...", "subsections": [{"heading": "...", "organization": "...", "location": "...", "date": "...", "bullets": ["..."]}]},
  "projects":       {"title": "...", "subsections": [{"heading": "...", "date": "...", "bullets": ["..."]}]},
  "certifications": {"title": "...", "subsections": [{"heading": "...", "organization": "...", "date": "..."}]}
}

**Rules:**

1. Omit any section that does not appear in the source. Never emit an empty placeholder section.
2. Strip LaTeX commands from the extracted text; keep the human-readable content only.
3. Dates go in the "date" field and ONLY the "date" field. Never append a date to a heading or an organization name.
4. "heading" is the role, degree, project or certification name. "organization" is the employer, school or issuer.
5. Keep each bullet point as one string in "bullets", in source order.

**LaTeX Resume Source:**
-----
%s
-----`,

	OptimizeResume: `Rewrite the resume below so it targets the given job description.

**Tasks:**

1. Reword the summary and bullet points to emphasize the skills and experience most relevant to the role, using terminology from the job description where the underlying skill genuinely exists in the resume.
2. Reorder content within entries for relevance where it helps.
3. Keep every section, every entry, and every entry count exactly as in the input. Do not add or remove sections or entries.
4. Keep all dates, organization names, and locations unchanged.

Respond with the full resume as a JSON object in the same shape as the input.

**Resume (JSON):**
-----
%s
-----

**Job Description:**
-----
%s
-----`,

	ApplyFeedback: `Revise the resume below to address the reviewer feedback, while staying truthful to the original content.

**Rules:**

1. Address the feedback only with material already present in the resume; rephrase and reprioritize, never invent.
2. Keep every section, every entry, and every entry count exactly as in the input.
3. Keep all dates, organization names, and locations unchanged.

Respond with the full resume as a JSON object in the same shape as the input.

**Resume (JSON):**
-----
%s
-----

**Reviewer Feedback:**
-----
%s
-----

**Job Description:**
-----
%s
-----`,

	ScoreATS: `Evaluate the following resume against the job description and produce your ATS report.

**Resume (plain text):**
-----
%s
-----

**Job Description:**
-----
%s
-----`,
}

// PromptConfig holds configuration for customizable prompts
type PromptConfig struct {
	SystemPrompts SystemPrompts `json:"systemPrompts"`
	UserPrompts   UserPrompts   `json:"userPrompts"`
}

// GetDefaultPromptConfig returns the default prompt configuration
func GetDefaultPromptConfig() PromptConfig {
	return PromptConfig{
		SystemPrompts: DefaultSystemPrompts,
		UserPrompts:   DefaultUserPrompts,
	}
}
