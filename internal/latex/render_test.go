package latex

import (
	"strings"
	"testing"

	"resutex/internal/types"
)

func sampleResume() *types.StructuredResume {
	return &types.StructuredResume{
		Contact: &types.ResumeSection{
			Lines: []string{"Jordan Smith", "jordan@example.com", "555-0100"},
		},
		Experience: &types.ResumeSection{
			Title: "Experience",
			Subsections: []types.SubsectionEntry{
				{
					Heading:      "Software Engineer",
					Organization: "Acme",
					Location:     "NYC",
					Date:         "2020-2022",
					Bullets:      []string{"Built the billing service", "Cut costs by 30%"},
				},
			},
		},
		Skills: &types.ResumeSection{
			Title: "Skills",
			Lines: []string{"Go, SQL, Kubernetes"},
		},
	}
}

func TestRenderFallbackMode(t *testing.T) {
	out, err := Render(sampleResume(), "")
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	assertContains(t, out, `\documentclass`)
	assertContains(t, out, `\begin{document}`)
	assertContains(t, out, `\end{document}`)
	assertContains(t, out, `{\LARGE \textbf{Jordan Smith}}`)
	assertContains(t, out, `\section{Experience}`)
	assertContains(t, out, `\resumeSubheading{Software Engineer}{2020-2022}{Acme}{NYC}`)
	assertContains(t, out, `\resumeItem{Cut costs by 30\%}`)
	assertContains(t, out, `\section{Skills}`)
}

func TestRenderOmitsAbsentSections(t *testing.T) {
	resume := &types.StructuredResume{
		Contact: &types.ResumeSection{Lines: []string{"Jordan Smith"}},
		Skills:  &types.ResumeSection{Title: "Skills", Lines: []string{"Go"}},
	}

	out, err := Render(resume, "")
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	for _, header := range []string{"Experience", "Education", "Projects", "Certifications", "Summary"} {
		if strings.Contains(out, `\section{`+header+`}`) {
			t.Errorf("absent section %q was rendered", header)
		}
	}
	if got := strings.Count(out, `\section{`); got != 1 {
		t.Errorf("expected exactly 1 section block, got %d", got)
	}
}

func TestRenderEmptyResume(t *testing.T) {
	if _, err := Render(&types.StructuredResume{}, ""); err == nil {
		t.Error("expected error for empty resume, got nil")
	}
	if _, err := Render(nil, ""); err == nil {
		t.Error("expected error for nil resume, got nil")
	}
}

func TestRenderProjectsHeadingOmitsOrganization(t *testing.T) {
	resume := &types.StructuredResume{
		Projects: &types.ResumeSection{
			Title: "Projects",
			Subsections: []types.SubsectionEntry{
				{Heading: "resutex", Date: "2024", Bullets: []string{"CLI for resume tailoring"}},
			},
		},
	}

	out, err := Render(resume, "")
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	assertContains(t, out, `\resumeProjectHeading{resutex}{2024}`)
	if strings.Contains(out, `\resumeSubheading{resutex}`) {
		t.Error("projects must use the two-argument heading macro")
	}
}

const preserveOriginal = `\documentclass{article}
\begin{document}
\begin{center}Original Contact\end{center}
\section{Summary}
Hand-written summary stays.
\section{Experience}
\resumeSubheading{Old Role}{2010}{OldCo}{LA}
\section{Education}
\resumeSubheading{BSc}{2008}{State U}{LA}
\end{document}
`

func TestRenderPreserveMode(t *testing.T) {
	resume := &types.StructuredResume{
		Experience: &types.ResumeSection{
			Title: "Experience",
			Subsections: []types.SubsectionEntry{
				{Heading: "Software Engineer", Organization: "Acme", Location: "NYC", Date: "2020-2022"},
			},
		},
	}

	out, err := Render(resume, preserveOriginal)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	// Replaced body, not appended to.
	assertContains(t, out, `\resumeSubheading{Software Engineer}{2020-2022}{Acme}{NYC}`)
	if strings.Contains(out, "Old Role") {
		t.Error("old experience body was not replaced")
	}

	// Untouched regions preserved verbatim.
	assertContains(t, out, "Original Contact")
	assertContains(t, out, "Hand-written summary stays.")
	assertContains(t, out, `\resumeSubheading{BSc}{2008}{State U}{LA}`)
}

func TestRenderPreserveModeCaseInsensitive(t *testing.T) {
	original := strings.Replace(preserveOriginal, `\section{Experience}`, `\section{EXPERIENCE}`, 1)
	resume := &types.StructuredResume{
		Experience: &types.ResumeSection{
			Subsections: []types.SubsectionEntry{
				{Heading: "Software Engineer", Organization: "Acme", Location: "NYC", Date: "2020-2022"},
			},
		},
	}

	out, err := Render(resume, original)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if strings.Contains(out, "Old Role") {
		t.Error("upper-case section marker was not matched")
	}
	assertContains(t, out, `\section{EXPERIENCE}`)
}

func TestRenderPreserveModeAppendsMissingSection(t *testing.T) {
	resume := &types.StructuredResume{
		Projects: &types.ResumeSection{
			Title: "Projects",
			Subsections: []types.SubsectionEntry{
				{Heading: "resutex", Date: "2024"},
			},
		},
	}

	out, err := Render(resume, preserveOriginal)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	projectsIdx := strings.Index(out, `\section{Projects}`)
	endIdx := strings.Index(out, `\end{document}`)
	if projectsIdx < 0 {
		t.Fatal("missing section was not appended")
	}
	if projectsIdx > endIdx {
		t.Error("appended section must come before \\end{document}")
	}
}

func TestRenderPreserveModeCombinedHeadingClaimedOnce(t *testing.T) {
	original := `\documentclass{article}
\begin{document}
\section{Experience and Projects}
old combined body
\end{document}
`
	resume := &types.StructuredResume{
		Experience: &types.ResumeSection{
			Subsections: []types.SubsectionEntry{
				{Heading: "Engineer", Organization: "Acme", Location: "NYC", Date: "2020"},
			},
		},
		Projects: &types.ResumeSection{
			Title: "Projects",
			Subsections: []types.SubsectionEntry{
				{Heading: "resutex", Date: "2024"},
			},
		},
	}

	out, err := Render(resume, original)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	// Experience claims the combined marker once; projects has no marker
	// left and gets appended instead of overwriting the same region.
	if strings.Contains(out, "old combined body") {
		t.Error("combined section body was not replaced")
	}
	if got := strings.Count(out, `\resumeSubheading{Engineer}{2020}{Acme}{NYC}`); got != 1 {
		t.Errorf("Expected experience rendered exactly once, got %d", got)
	}
	if got := strings.Count(out, `\resumeProjectHeading{resutex}{2024}`); got != 1 {
		t.Errorf("Expected projects rendered exactly once, got %d", got)
	}
	if strings.Index(out, `\section{Projects}`) > strings.Index(out, `\end{document}`) {
		t.Error("appended projects section must come before \\end{document}")
	}
}

func TestRenderPreserveModeExactMarkerWinsOverSubstring(t *testing.T) {
	original := `\documentclass{article}
\begin{document}
\section{Selected Projects and Experience}
combined body stays
\section{Experience}
plain body
\end{document}
`
	resume := &types.StructuredResume{
		Experience: &types.ResumeSection{
			Subsections: []types.SubsectionEntry{
				{Heading: "Engineer", Organization: "Acme", Location: "NYC", Date: "2020"},
			},
		},
	}

	out, err := Render(resume, original)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	assertContains(t, out, "combined body stays")
	if strings.Contains(out, "plain body") {
		t.Error("exact experience marker was not the one replaced")
	}
}

func assertContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Errorf("output missing %q", needle)
	}
}
