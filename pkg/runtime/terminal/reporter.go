package terminal

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/template"

	"github.com/de-tools/report-scheduler/pkg/models/domain"
	"github.com/de-tools/report-scheduler/pkg/runtime/terminal/export"
	"github.com/de-tools/report-scheduler/pkg/services/contentvars"
)

// Reporter prints a single schedule in a formatted text form
type Reporter struct {
	writer io.Writer
}

func NewReporter(writer io.Writer) *Reporter {
	if writer == nil {
		writer = os.Stdout
	}
	return &Reporter{writer: writer}
}

func (c *Reporter) Handle(s domain.Schedule) error {
	tmpl := `
{{.Name}} ({{.Interval}})
{{if .Description}}{{.Description}}
{{end}}Time: {{if .Time}}{{.Time}}{{else}}-{{end}}, day {{.Day}}
Next report: {{unix .NextReportTime}}
Report group: {{if .ReportGroupID}}{{.ReportGroupID}}{{else}}-{{end}}

=== Panels ===
{{range .PanelDetails}}
- {{.DashboardID}}/{{.PanelID}}{{if .Lookback}} over {{.Lookback}}{{end}}
{{range $name, $values := variables .Variables}}  {{$name}}: {{join $values}}
{{end}}{{else}}
No panels selected.
{{end}}`

	funcMap := template.FuncMap{
		"unix": export.FormatUnix,
		"variables": func(text string) domain.ContentVariables {
			return contentvars.Decode(text, domain.ContentVariables{})
		},
		"join": func(values []string) string {
			return strings.Join(values, ", ")
		},
	}

	t, err := template.New("schedule").Funcs(funcMap).Parse(tmpl)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	return t.Execute(c.writer, s)
}
