package latex

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"resutex/internal/errors"
	"resutex/internal/types"
)

// documentPreamble is the fixed preamble used in fallback mode. The layout
// macros mirror the single-column template family the structured model was
// designed around: \resumeSubheading takes heading, date, organization and
// location in that argument order.
const documentPreamble = `\documentclass[letterpaper,11pt]{article}

\usepackage[empty]{fullpage}
\usepackage{titlesec}
\usepackage{enumitem}
\usepackage[hidelinks]{hyperref}
\usepackage[margin=0.75in]{geometry}

\raggedbottom
\raggedright
\pagestyle{empty}

\titleformat{\section}{\vspace{-4pt}\large\bfseries\scshape\raggedright}{}{0em}{}[\titlerule\vspace{-5pt}]

\newcommand{\resumeSubheading}[4]{
  \vspace{-2pt}\item
    \begin{tabular*}{0.97\textwidth}[t]{l@{\extracolsep{\fill}}r}
      \textbf{#1} & #2 \\
      \textit{\small#3} & \textit{\small#4} \\
    \end{tabular*}\vspace{-7pt}
}

\newcommand{\resumeProjectHeading}[2]{
  \item
    \begin{tabular*}{0.97\textwidth}{l@{\extracolsep{\fill}}r}
      \textbf{#1} & #2 \\
    \end{tabular*}\vspace{-7pt}
}

\newcommand{\resumeItem}[1]{\item\small{#1\vspace{-2pt}}}
\newcommand{\resumeSubHeadingListStart}{\begin{itemize}[leftmargin=0.15in, label={}]}
\newcommand{\resumeSubHeadingListEnd}{\end{itemize}}
\newcommand{\resumeItemListStart}{\begin{itemize}}
\newcommand{\resumeItemListEnd}{\end{itemize}\vspace{-5pt}}

\begin{document}
`

// Render serializes a structured resume to LaTeX source. With originalLaTeX
// empty it emits a complete document from the built-in template (fallback
// mode); otherwise it splices freshly rendered section bodies into the
// original document, leaving everything else untouched (preserve mode).
//
// All free text passes through Escape here and nowhere earlier.
func Render(resume *types.StructuredResume, originalLaTeX string) (string, error) {
	if resume == nil || resume.IsEmpty() {
		return "", errors.NewValidationError(errors.ErrCodeRenderFailed, "structured resume has no sections to render", nil)
	}
	if originalLaTeX != "" {
		return renderPreserve(resume, originalLaTeX)
	}
	return renderFallback(resume), nil
}

func renderFallback(resume *types.StructuredResume) string {
	var b strings.Builder
	b.WriteString(documentPreamble)

	for _, name := range types.SectionNames() {
		section := resume.Section(name)
		if section == nil {
			continue
		}
		b.WriteString("\n")
		b.WriteString(renderSectionBody(name, section))
	}

	b.WriteString("\n\\end{document}\n")
	return b.String()
}

// renderSectionBody renders one section with its fixed per-type rule. Contact
// is the asymmetric case: no \section header, first line large, the rest
// small, all centered.
func renderSectionBody(name string, section *types.ResumeSection) string {
	var b strings.Builder

	if name == "contact" {
		renderContact(&b, section)
		return b.String()
	}

	fmt.Fprintf(&b, "\\section{%s}\n", Escape(sectionTitle(name, section)))

	switch name {
	case "experience", "education":
		renderSubheadingList(&b, section, true)
	case "projects", "certifications":
		renderSubheadingList(&b, section, false)
	default: // summary, skills
		renderLines(&b, section)
	}

	return b.String()
}

func renderContact(b *strings.Builder, section *types.ResumeSection) {
	b.WriteString("\\begin{center}\n")
	for i, line := range section.Lines {
		if i == 0 {
			fmt.Fprintf(b, "    {\\LARGE \\textbf{%s}} \\\\ \\vspace{1pt}\n", Escape(line))
			continue
		}
		fmt.Fprintf(b, "    \\small %s", Escape(line))
		if i < len(section.Lines)-1 {
			b.WriteString(" \\\\")
		}
		b.WriteString("\n")
	}
	b.WriteString("\\end{center}\n")
}

// renderSubheadingList renders structured entries. withOrganization selects
// the four-argument subheading (experience, education); projects and
// certifications show only heading and date.
func renderSubheadingList(b *strings.Builder, section *types.ResumeSection, withOrganization bool) {
	b.WriteString("\\resumeSubHeadingListStart\n")
	for _, sub := range section.Subsections {
		if withOrganization {
			fmt.Fprintf(b, "  \\resumeSubheading{%s}{%s}{%s}{%s}\n",
				Escape(sub.Heading), Escape(sub.Date), Escape(sub.Organization), Escape(sub.Location))
		} else {
			fmt.Fprintf(b, "  \\resumeProjectHeading{%s}{%s}\n", Escape(sub.Heading), Escape(sub.Date))
		}
		if len(sub.Bullets) > 0 {
			b.WriteString("  \\resumeItemListStart\n")
			for _, bullet := range sub.Bullets {
				fmt.Fprintf(b, "    \\resumeItem{%s}\n", Escape(bullet))
			}
			b.WriteString("  \\resumeItemListEnd\n")
		}
	}
	b.WriteString("\\resumeSubHeadingListEnd\n")
}

func renderLines(b *strings.Builder, section *types.ResumeSection) {
	for i, line := range section.Lines {
		b.WriteString(Escape(line))
		if i < len(section.Lines)-1 {
			b.WriteString(" \\\\")
		}
		b.WriteString("\n")
	}
}

func sectionTitle(name string, section *types.ResumeSection) string {
	if section.Title != "" {
		return section.Title
	}
	return strings.ToUpper(name[:1]) + name[1:]
}

var (
	sectionMarkerRe = regexp.MustCompile(`(?i)\\section\*?\{([^}]*)\}`)
	endDocumentRe   = regexp.MustCompile(`(?i)\\end\{document\}`)
)

// renderPreserve replaces section bodies inside the original document.
// For every structured section whose marker is found in the original, the
// text between that marker and the next marker (or \end{document}) is
// replaced with freshly rendered content. Sections without a marker are
// appended before \end{document}. Untouched regions are preserved verbatim.
func renderPreserve(resume *types.StructuredResume, original string) (string, error) {
	markers := sectionMarkerRe.FindAllStringSubmatchIndex(original, -1)

	type replacement struct {
		start, end int
		body       string
	}
	var replacements []replacement
	var missing []string
	claimed := make(map[int]bool)

	for _, name := range types.SectionNames() {
		section := resume.Section(name)
		if section == nil || name == "contact" {
			// Contact lives outside \section markers; in preserve mode the
			// original header block stays as authored.
			continue
		}

		idx := findSectionMarker(original, markers, name, section.Title, claimed)
		if idx < 0 {
			missing = append(missing, name)
			continue
		}
		claimed[idx] = true

		bodyStart := markers[idx][1]
		bodyEnd := nextBoundary(original, markers, idx)
		replacements = append(replacements, replacement{
			start: bodyStart,
			end:   bodyEnd,
			body:  "\n" + sectionInnerBody(name, section),
		})
	}

	// Apply back to front so earlier offsets stay valid. The document's
	// section order need not match the canonical order.
	sort.Slice(replacements, func(i, j int) bool { return replacements[i].start < replacements[j].start })
	out := original
	for i := len(replacements) - 1; i >= 0; i-- {
		r := replacements[i]
		out = out[:r.start] + r.body + out[r.end:]
	}

	if len(missing) > 0 {
		appended := ""
		for _, name := range missing {
			appended += "\n" + renderSectionBody(name, resume.Section(name))
		}
		loc := endDocumentRe.FindStringIndex(out)
		if loc == nil {
			return "", errors.NewValidationError(errors.ErrCodeRenderFailed, "original document has no \\end{document} to append sections before", nil)
		}
		out = out[:loc[0]] + appended + "\n" + out[loc[0]:]
	}

	return out, nil
}

// findSectionMarker locates the original's \section marker matching the
// canonical section name or its stored title, case-insensitively. Markers
// already claimed by another section are skipped, and exact matches are
// resolved before substring ones so a decorated heading containing two
// section names cannot be claimed twice.
func findSectionMarker(original string, markers [][]int, name, title string, claimed map[int]bool) int {
	for i, m := range markers {
		if claimed[i] {
			continue
		}
		markerTitle := strings.TrimSpace(original[m[2]:m[3]])
		if strings.EqualFold(markerTitle, name) {
			return i
		}
		if title != "" && strings.EqualFold(markerTitle, title) {
			return i
		}
	}
	// Tolerate decorated headings like "Work Experience".
	for i, m := range markers {
		if claimed[i] {
			continue
		}
		markerTitle := strings.TrimSpace(original[m[2]:m[3]])
		if strings.Contains(strings.ToLower(markerTitle), strings.ToLower(name)) {
			return i
		}
	}
	return -1
}

// nextBoundary returns where the section body spanning from markers[idx]
// ends: the next section marker or \end{document}, whichever comes first.
func nextBoundary(original string, markers [][]int, idx int) int {
	if idx+1 < len(markers) {
		return markers[idx+1][0]
	}
	if loc := endDocumentRe.FindStringIndex(original); loc != nil {
		return loc[0]
	}
	return len(original)
}

// sectionInnerBody renders a section's content without its \section line,
// for splicing after an existing marker.
func sectionInnerBody(name string, section *types.ResumeSection) string {
	full := renderSectionBody(name, section)
	if idx := strings.Index(full, "\n"); idx >= 0 && strings.HasPrefix(full, "\\section") {
		return full[idx+1:]
	}
	return full
}
