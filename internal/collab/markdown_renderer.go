package collab

import (
	"context"
	"fmt"
	"io"
	"text/template"

	"github.com/commitly/commitly/internal/perr"
)

// ErrUnsupportedFormat is returned for formats MarkdownRenderer cannot
// produce directly (pdf, html). These degrade to markdown: the Report agent
// catches this error and falls back to "md" rather than failing, since
// PDF/HTML rendering is an out-of-scope external collaborator.
var ErrUnsupportedFormat = perr.New(perr.KindInternalInvariant, "unsupported report format")

// MarkdownRenderer renders ReportData as markdown via text/template.
type MarkdownRenderer struct{}

const reportTemplate = `# Commitly Report — {{.ProjectName}}

Range: {{.From.Format "2006-01-02"}} to {{.To.Format "2006-01-02"}}

{{range .Runs}}
## Run {{.RunID}} — {{.Status}}

- Started: {{.StartedAt.Format "2006-01-02 15:04:05"}}
- Ended: {{.EndedAt.Format "2006-01-02 15:04:05"}}
- Tests passed: {{.TestPassed}}
- Changed files: {{len .ChangedFiles}}
{{range .ChangedFiles}}  - {{.}}
{{end}}
{{if .RefactorHighlights}}
### Refactor highlights
{{range .RefactorHighlights}}- {{.}}
{{end}}
{{end}}
{{if .QueryHighlights}}
### Query optimization highlights
{{range .QueryHighlights}}- {{.}}
{{end}}
{{end}}
{{end}}
`

func (m *MarkdownRenderer) Render(ctx context.Context, format string, w io.Writer, data ReportData) error {
	if format != "md" && format != "markdown" && format != "" {
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	tmpl, err := template.New("report").Parse(reportTemplate)
	if err != nil {
		return fmt.Errorf("parse report template: %w", err)
	}
	return tmpl.Execute(w, data)
}
