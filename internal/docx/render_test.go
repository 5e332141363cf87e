package docx

import (
	"bytes"
	"testing"

	"resutex/internal/types"
)

func sampleResume() *types.StructuredResume {
	return &types.StructuredResume{
		Contact: &types.ResumeSection{
			Lines: []string{"Jane Doe", "jane@example.com | 555-0100"},
		},
		Summary: &types.ResumeSection{
			Title: "Summary",
			Lines: []string{"Backend engineer with eight years of Go experience."},
		},
		Experience: &types.ResumeSection{
			Title: "Experience",
			Subsections: []types.SubsectionEntry{
				{
					Heading:      "Senior Engineer",
					Organization: "Acme Corp",
					Location:     "Remote",
					Date:         "2020 - Present",
					Bullets:      []string{"Led migration to Go services", "Cut p99 latency by 40 percent"},
				},
			},
		},
		Projects: &types.ResumeSection{
			Title: "Projects",
			Subsections: []types.SubsectionEntry{
				{Heading: "resutex", Date: "2024", Bullets: []string{"LaTeX resume tooling"}},
			},
		},
	}
}

func TestBuildBlocksLayout(t *testing.T) {
	blocks := buildBlocks(sampleResume())

	if len(blocks) == 0 {
		t.Fatal("Expected blocks to be produced")
	}

	// First contact line is the candidate name.
	if blocks[0].kind != blockName || blocks[0].text != "Jane Doe" {
		t.Errorf("Expected first block to be the name, got kind=%d text=%q", blocks[0].kind, blocks[0].text)
	}
	if blocks[1].kind != blockContactLine {
		t.Errorf("Expected second contact line to be a plain contact block, got kind=%d", blocks[1].kind)
	}

	// Experience entry: heading carries the date, detail carries org/location.
	var headings, details, bullets int
	for _, b := range blocks {
		switch b.kind {
		case blockEntryHeading:
			headings++
			if b.text == "Senior Engineer" && b.aux != "2020 - Present" {
				t.Errorf("Expected experience heading to carry the date, got aux=%q", b.aux)
			}
		case blockEntryDetail:
			details++
			if b.text != "Acme Corp" || b.aux != "Remote" {
				t.Errorf("Expected detail line 'Acme Corp'/'Remote', got %q/%q", b.text, b.aux)
			}
		case blockBullet:
			bullets++
		}
	}

	if headings != 2 {
		t.Errorf("Expected 2 entry headings (experience + project), got %d", headings)
	}
	// Projects never get a detail line, only experience/education do.
	if details != 1 {
		t.Errorf("Expected exactly 1 detail line, got %d", details)
	}
	if bullets != 3 {
		t.Errorf("Expected 3 bullets, got %d", bullets)
	}
}

func TestBuildBlocksOmitsAbsentSections(t *testing.T) {
	resume := &types.StructuredResume{
		Skills: &types.ResumeSection{Title: "Skills", Lines: []string{"Go, SQL"}},
	}

	blocks := buildBlocks(resume)

	titles := 0
	for _, b := range blocks {
		if b.kind == blockSectionTitle {
			titles++
			if b.text != "Skills" {
				t.Errorf("Expected only the Skills title, got %q", b.text)
			}
		}
	}
	if titles != 1 {
		t.Errorf("Expected exactly 1 section title, got %d", titles)
	}
}

func TestBuildBlocksDefaultsSectionTitle(t *testing.T) {
	resume := &types.StructuredResume{
		Education: &types.ResumeSection{
			Subsections: []types.SubsectionEntry{{Heading: "BSc Computer Science"}},
		},
	}

	blocks := buildBlocks(resume)
	if blocks[0].kind != blockSectionTitle || blocks[0].text != "education" {
		t.Errorf("Expected canonical name as fallback title, got %q", blocks[0].text)
	}
}

func TestRenderProducesDocument(t *testing.T) {
	data, err := Render(sampleResume())
	if err != nil {
		t.Fatalf("Expected render to succeed, got %v", err)
	}
	// A DOCX file is a zip archive; check the magic bytes.
	if !bytes.HasPrefix(data, []byte("PK")) {
		t.Error("Expected rendered document to be a zip archive")
	}
}

func TestRenderEmptyResume(t *testing.T) {
	if _, err := Render(&types.StructuredResume{}); err == nil {
		t.Fatal("Expected error for empty resume")
	}
}
