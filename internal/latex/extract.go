package latex

import (
	"regexp"
	"strings"
)

var (
	commentRe = regexp.MustCompile(`(?m)(^|[^\\])%.*$`)

	// Structural commands whose entire token (and argument, where present)
	// carries no prose.
	structuralRe = regexp.MustCompile(`\\(documentclass|usepackage|geometry|pagestyle|titleformat|titlerule|newcommand|renewcommand|raggedright|raggedbottom|vspace|hspace|input|include|begin|end)(\[[^\]]*\])?(\{[^{}]*\})*`)

	// Resume layout macros: arguments become pipe-delimited plain text.
	subheadingRe = regexp.MustCompile(`\\resume(?:Sub|Project)?[Hh]eading\{([^{}]*)\}\{([^{}]*)\}(?:\{([^{}]*)\}\{([^{}]*)\})?`)

	itemRe = regexp.MustCompile(`\\(?:resumeItem\{|item\s*)`)

	// Generic command with an argument: keep the argument, drop the command.
	commandArgRe = regexp.MustCompile(`\\[a-zA-Z]+\*?(\[[^\]]*\])?\{([^{}]*)\}`)

	// Bare commands with no argument.
	bareCommandRe = regexp.MustCompile(`\\[a-zA-Z]+\*?`)

	multiSpaceRe = regexp.MustCompile(`[ \t]+`)
	multiBlankRe = regexp.MustCompile(`\n{3,}`)
)

// ExtractPlainText strips LaTeX markup from resume source, leaving the prose
// an applicant tracking system would see. Resume layout macros keep all their
// arguments, pipe-delimited; generic commands keep only their argument; list
// items become bullet glyphs.
func ExtractPlainText(source string) string {
	text := commentRe.ReplaceAllString(source, "$1")

	text = subheadingRe.ReplaceAllStringFunc(text, func(m string) string {
		parts := subheadingRe.FindStringSubmatch(m)
		fields := make([]string, 0, 4)
		for _, p := range parts[1:] {
			if strings.TrimSpace(p) != "" {
				fields = append(fields, strings.TrimSpace(p))
			}
		}
		return "\n" + strings.Join(fields, " | ") + "\n"
	})

	text = itemRe.ReplaceAllString(text, "\n• ")
	text = structuralRe.ReplaceAllString(text, "")

	// Unwrap nested arguments until no command-with-argument remains.
	for commandArgRe.MatchString(text) {
		text = commandArgRe.ReplaceAllString(text, "$2")
	}
	text = bareCommandRe.ReplaceAllString(text, "")

	text = strings.NewReplacer(
		`\&`, "&", `\%`, "%", `\$`, "$", `\#`, "#", `\_`, "_",
		"{", "", "}", "", "\\\\", "\n", "\\", "",
	).Replace(text)

	text = multiSpaceRe.ReplaceAllString(text, " ")
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	text = strings.Join(lines, "\n")
	text = multiBlankRe.ReplaceAllString(text, "\n\n")

	return strings.TrimSpace(text)
}
