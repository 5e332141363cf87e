// Package docx serializes a structured resume to a Word document. The layout
// is fixed and independent of the LaTeX serializer: a DOCX export never tries
// to mirror the source template.
package docx

import (
	"bytes"
	"strings"

	godocx "github.com/fumiama/go-docx"

	resutexErrors "resutex/internal/errors"
	"resutex/internal/types"
)

type blockKind int

const (
	blockName blockKind = iota
	blockContactLine
	blockSectionTitle
	blockEntryHeading
	blockEntryDetail
	blockText
	blockBullet
)

// block is one paragraph of the output document. Aux carries the secondary
// run for that paragraph: the date on an entry heading, the location on an
// entry detail line.
type block struct {
	kind blockKind
	text string
	aux  string
}

// Render serializes the resume to DOCX bytes.
func Render(resume *types.StructuredResume) ([]byte, error) {
	if resume.IsEmpty() {
		return nil, resutexErrors.NewValidationError(resutexErrors.ErrCodeRenderFailed,
			"Cannot render an empty resume", nil)
	}

	doc := godocx.New().WithDefaultTheme()

	for _, b := range buildBlocks(resume) {
		para := doc.AddParagraph()
		switch b.kind {
		case blockName:
			para.Justification("center")
			para.AddText(b.text).Size("32").Bold()
		case blockContactLine:
			para.Justification("center")
			para.AddText(b.text)
		case blockSectionTitle:
			para.AddText(strings.ToUpper(b.text)).Size("26").Bold()
		case blockEntryHeading:
			para.AddText(b.text).Bold()
			if b.aux != "" {
				para.AddText("    " + b.aux).Italic()
			}
		case blockEntryDetail:
			para.AddText(b.text).Italic()
			if b.aux != "" {
				para.AddText("  –  " + b.aux).Italic()
			}
		case blockBullet:
			para.AddText("• " + b.text)
		default:
			para.AddText(b.text)
		}
	}

	var buf bytes.Buffer
	if _, err := doc.WriteTo(&buf); err != nil {
		return nil, resutexErrors.NewInternalError(resutexErrors.ErrCodeRenderFailed,
			"Failed to write DOCX document", err)
	}

	return buf.Bytes(), nil
}

// buildBlocks flattens the resume into paragraph blocks. Kept pure so layout
// decisions are testable without producing a document.
func buildBlocks(resume *types.StructuredResume) []block {
	var blocks []block

	for _, name := range types.SectionNames() {
		section := resume.Section(name)
		if section == nil {
			continue
		}

		if name == "contact" {
			blocks = append(blocks, contactBlocks(section)...)
			continue
		}

		title := section.Title
		if title == "" {
			title = name
		}
		blocks = append(blocks, block{kind: blockSectionTitle, text: title})

		for _, line := range section.Lines {
			blocks = append(blocks, block{kind: blockText, text: line})
		}

		detailed := name == "experience" || name == "education"
		for _, sub := range section.Subsections {
			blocks = append(blocks, subsectionBlocks(sub, detailed)...)
		}
	}

	return blocks
}

// contactBlocks renders the contact section: the first line is the candidate
// name, the rest are plain centered lines.
func contactBlocks(section *types.ResumeSection) []block {
	var blocks []block
	for i, line := range section.Lines {
		kind := blockContactLine
		if i == 0 {
			kind = blockName
		}
		blocks = append(blocks, block{kind: kind, text: line})
	}
	return blocks
}

// subsectionBlocks renders one entry. Organization and location get their own
// detail line only for experience and education; projects and certifications
// keep the heading row alone.
func subsectionBlocks(sub types.SubsectionEntry, detailed bool) []block {
	blocks := []block{{kind: blockEntryHeading, text: sub.Heading, aux: sub.Date}}

	if detailed && (sub.Organization != "" || sub.Location != "") {
		detail := block{kind: blockEntryDetail, text: sub.Organization, aux: sub.Location}
		if detail.text == "" {
			detail.text = sub.Location
			detail.aux = ""
		}
		blocks = append(blocks, detail)
	}

	for _, bullet := range sub.Bullets {
		blocks = append(blocks, block{kind: blockBullet, text: bullet})
	}

	return blocks
}
