package types

import "fmt"

// SectionConstraint is an advisory cap communicated to the content optimizer.
// Violations are soft: constraints shape the prompt, they are never enforced
// programmatically.
type SectionConstraint struct {
	MaxLines        int  `json:"maxLines"`
	MaxWordsPerLine int  `json:"maxWordsPerLine"`
	Required        bool `json:"required"`
}

// SectionConstraints maps a section name (e.g. "experience") to its constraint.
type SectionConstraints map[string]SectionConstraint

// SubsectionEntry is one structured record inside a section: a job, a degree,
// a project or a certification. Date is a distinct field and must never be
// folded into Heading or Organization.
type SubsectionEntry struct {
	Heading      string   `json:"heading"`
	Organization string   `json:"organization,omitempty"`
	Location     string   `json:"location,omitempty"`
	Date         string   `json:"date,omitempty"`
	Bullets      []string `json:"bullets,omitempty"`
}

// ResumeSection holds either plain lines (contact, summary, skills) or
// structured subsections (experience, education, projects, certifications).
type ResumeSection struct {
	Title       string            `json:"title,omitempty"`
	Lines       []string          `json:"lines,omitempty"`
	Subsections []SubsectionEntry `json:"subsections,omitempty"`
}

// StructuredResume is the normalized intermediate representation exchanged
// between the parser, the optimizer and the serializers. A nil section means
// "omit entirely on serialization", not "render empty".
type StructuredResume struct {
	Contact        *ResumeSection `json:"contact,omitempty"`
	Summary        *ResumeSection `json:"summary,omitempty"`
	Experience     *ResumeSection `json:"experience,omitempty"`
	Skills         *ResumeSection `json:"skills,omitempty"`
	Education      *ResumeSection `json:"education,omitempty"`
	Projects       *ResumeSection `json:"projects,omitempty"`
	Certifications *ResumeSection `json:"certifications,omitempty"`
}

// SectionNames returns the canonical section names in rendering order.
func SectionNames() []string {
	return []string{"contact", "summary", "experience", "skills", "education", "projects", "certifications"}
}

// Section returns the named section, or nil when the name is unknown or the
// section is absent.
func (r *StructuredResume) Section(name string) *ResumeSection {
	switch name {
	case "contact":
		return r.Contact
	case "summary":
		return r.Summary
	case "experience":
		return r.Experience
	case "skills":
		return r.Skills
	case "education":
		return r.Education
	case "projects":
		return r.Projects
	case "certifications":
		return r.Certifications
	default:
		return nil
	}
}

// SetSection replaces the named section. Unknown names are ignored.
func (r *StructuredResume) SetSection(name string, section *ResumeSection) {
	switch name {
	case "contact":
		r.Contact = section
	case "summary":
		r.Summary = section
	case "experience":
		r.Experience = section
	case "skills":
		r.Skills = section
	case "education":
		r.Education = section
	case "projects":
		r.Projects = section
	case "certifications":
		r.Certifications = section
	}
}

// Clone returns a deep copy. Optimizers produce new instances and never
// mutate their input; Clone is how callers keep the pre-optimization state
// for the shape-mismatch fallback.
func (r *StructuredResume) Clone() *StructuredResume {
	if r == nil {
		return nil
	}
	out := &StructuredResume{}
	for _, name := range SectionNames() {
		out.SetSection(name, r.Section(name).clone())
	}
	return out
}

func (s *ResumeSection) clone() *ResumeSection {
	if s == nil {
		return nil
	}
	out := &ResumeSection{Title: s.Title}
	if s.Lines != nil {
		out.Lines = append([]string(nil), s.Lines...)
	}
	for _, sub := range s.Subsections {
		cp := sub
		cp.Bullets = append([]string(nil), sub.Bullets...)
		out.Subsections = append(out.Subsections, cp)
	}
	return out
}

// ShapeSignature summarizes the structural shape of a resume: which sections
// are present and how many subsections each carries. Two resumes with equal
// signatures differ only in text content, which is exactly the invariance the
// optimizer must preserve.
func (r *StructuredResume) ShapeSignature() string {
	if r == nil {
		return ""
	}
	sig := ""
	for _, name := range SectionNames() {
		section := r.Section(name)
		if section == nil {
			continue
		}
		sig += fmt.Sprintf("%s:%d;", name, len(section.Subsections))
	}
	return sig
}

// IsEmpty reports whether no section is present at all.
func (r *StructuredResume) IsEmpty() bool {
	if r == nil {
		return true
	}
	for _, name := range SectionNames() {
		if r.Section(name) != nil {
			return false
		}
	}
	return true
}

// TailorInput carries everything one tailoring request needs. Configuration
// is threaded explicitly; pipeline stages read nothing ambient.
type TailorInput struct {
	ResumeLaTeX      string             `json:"resumeLatex"`
	JobDescription   string             `json:"jobDescription"`
	ExtraContext     string             `json:"extraContext,omitempty"`
	Constraints      SectionConstraints `json:"constraints,omitempty"`
	PreserveTemplate bool               `json:"preserveTemplate,omitempty"`
	SinglePage       bool               `json:"singlePage,omitempty"`
}

// StageWarning records a non-fatal failure in an optional pipeline stage
// (PDF compile, ATS scoring, DOCX export). The core LaTeX result stands
// regardless of these.
type StageWarning struct {
	Stage   string `json:"stage"`
	Message string `json:"message"`
}

// TailorResult is the output of one full tailoring run.
type TailorResult struct {
	Resume         *StructuredResume `json:"resume"`
	TailoredLaTeX  string            `json:"tailoredLatex"`
	ImprovedLaTeX  string            `json:"improvedLatex,omitempty"`
	ATSReport      string            `json:"atsReport,omitempty"`
	PDF            []byte            `json:"-"`
	DOCX           []byte            `json:"-"`
	Warnings       []StageWarning    `json:"warnings,omitempty"`
	UsedFallback   bool              `json:"usedFallback"`
	AppliedChanges bool              `json:"appliedChanges"`
}

// ScoreResult is the output of a standalone ATS scoring run. Report is the
// model's text verbatim; no score is parsed out of it locally.
type ScoreResult struct {
	Report    string `json:"report"`
	PlainText string `json:"plainText,omitempty"`
}

// ExportFormat selects an output artifact type.
type ExportFormat string

const (
	ExportLaTeX ExportFormat = "latex"
	ExportPDF   ExportFormat = "pdf"
	ExportDOCX  ExportFormat = "docx"
)

// ExportResult is one serialized artifact plus its suggested filename.
type ExportResult struct {
	Format   ExportFormat `json:"format"`
	Filename string       `json:"filename"`
	Data     []byte       `json:"-"`
}
