// Package prompt holds the fixed instruction templates sent to the model.
// Rendering is plain substitution; there is no decision logic here.
package prompt

import (
	"errors"
	"fmt"
	"strings"
	"text/template"
	"unicode/utf8"
)

// DefaultMaxDiffChars bounds how much diff text is sent per commit.
const DefaultMaxDiffChars = 4000

var ErrMissingField = errors.New("missing prompt field")

var readmeTemplate = template.Must(template.New("readme").Option("missingkey=error").Parse(`
Generate a professional README.md file for the following project:

Project Name: {{.ProjectName}}
Tech Stack: {{.TechStack}}
Languages Used: {{.Languages}}
Description: {{.Description}}

Include sections like Introduction, Features, Technologies Used, Getting Started, Installation, Usage, and License.

IMPORTANT: Return ONLY the raw markdown content. Do NOT wrap the output in markdown code fences (do not start with ` + "```markdown" + ` and do not end with ` + "```" + `). Just return the plain README content directly.
`))

var commitTemplate = template.Must(template.New("commit").Parse(`
You are a senior technical writer.
Analyze the following git diff and write a concise, one-sentence summary
of what changed. This will be used for a changelog.

RAW DIFF:
{{.Diff}}

SUMMARY:
`))

// ReadmeFields are the inputs of a README generation request.
type ReadmeFields struct {
	ProjectName string
	TechStack   string
	Languages   string
	Description string
}

// Readme renders the README generation prompt.
func Readme(f ReadmeFields) (string, error) {
	if strings.TrimSpace(f.ProjectName) == "" {
		return "", fmt.Errorf("%w: project_name", ErrMissingField)
	}
	if strings.TrimSpace(f.Description) == "" {
		return "", fmt.Errorf("%w: description", ErrMissingField)
	}
	if strings.TrimSpace(f.TechStack) == "" {
		f.TechStack = "Not specified"
	}
	if strings.TrimSpace(f.Languages) == "" {
		f.Languages = "Not specified"
	}

	var b strings.Builder
	if err := readmeTemplate.Execute(&b, f); err != nil {
		return "", fmt.Errorf("render readme prompt: %w", err)
	}
	return b.String(), nil
}

// CommitSummary renders the changelog prompt over the first maxChars
// characters of diff. maxChars <= 0 uses DefaultMaxDiffChars.
func CommitSummary(diff string, maxChars int) (string, error) {
	if strings.TrimSpace(diff) == "" {
		return "", fmt.Errorf("%w: diff", ErrMissingField)
	}

	var b strings.Builder
	if err := commitTemplate.Execute(&b, struct{ Diff string }{Truncate(diff, maxChars)}); err != nil {
		return "", fmt.Errorf("render commit prompt: %w", err)
	}
	return b.String(), nil
}

// Truncate returns at most maxChars runes of s, never splitting a rune.
func Truncate(s string, maxChars int) string {
	if maxChars <= 0 {
		maxChars = DefaultMaxDiffChars
	}
	if utf8.RuneCountInString(s) <= maxChars {
		return s
	}
	n := 0
	for i := range s {
		if n == maxChars {
			return s[:i]
		}
		n++
	}
	return s
}
