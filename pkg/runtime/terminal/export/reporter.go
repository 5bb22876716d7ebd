package export

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/template"
	"time"

	"github.com/de-tools/report-scheduler/pkg/models/domain"
)

type TableConfig struct {
	// MaxWidth truncates longer cells.
	MaxWidth int
}

func DefaultTableConfig() TableConfig {
	return TableConfig{
		MaxWidth: 54,
	}
}

type Reporter struct {
	writer io.Writer
	config TableConfig
}

func NewReporter(writer io.Writer) *Reporter {
	if writer == nil {
		writer = os.Stdout
	}
	return &Reporter{
		writer: writer,
		config: DefaultTableConfig(),
	}
}

type table struct {
	Title   string
	Headers []string
	Rows    [][]string
	Empty   string
}

const tableTemplate = `
=== {{.Title}} ===
{{if .Rows}}{{separator}}
{{formatRow .Headers}}
{{separator}}
{{range .Rows}}{{formatRow .}}
{{end}}{{separator}}
{{else}}{{.Empty}}
{{end}}`

func (c *Reporter) truncate(s string) string {
	if c.config.MaxWidth > 3 && len(s) > c.config.MaxWidth {
		return s[:c.config.MaxWidth-3] + "..."
	}
	return s
}

func (c *Reporter) render(t table) error {
	for i, row := range t.Rows {
		for j, cell := range row {
			t.Rows[i][j] = c.truncate(cell)
		}
	}

	widths := make([]int, len(t.Headers))
	for i, h := range t.Headers {
		widths[i] = len(h)
	}
	for _, row := range t.Rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	funcMap := template.FuncMap{
		"formatRow": func(cells []string) string {
			parts := make([]string, len(widths))
			for i, w := range widths {
				cell := ""
				if i < len(cells) {
					cell = cells[i]
				}
				parts[i] = fmt.Sprintf(" %-*s ", w, cell)
			}
			return "|" + strings.Join(parts, "|") + "|"
		},
		"separator": func() string {
			parts := make([]string, len(widths))
			for i, w := range widths {
				parts[i] = strings.Repeat("-", w+2)
			}
			return "+" + strings.Join(parts, "+") + "+"
		},
	}

	tmpl, err := template.New("table").Funcs(funcMap).Parse(tableTemplate)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}
	return tmpl.Execute(c.writer, t)
}

func (c *Reporter) Panels(panels []domain.Panel) error {
	t := table{
		Title:   "Panels",
		Headers: []string{"Dashboard", "Panel", "Title", "Variables", "Status"},
		Empty:   "No panels found.",
	}
	for _, p := range panels {
		names := make([]string, 0, len(p.Variables))
		for _, v := range p.Variables {
			names = append(names, v.Name)
		}
		status := "ok"
		if !p.Eligible() {
			status = p.Error
		}
		t.Rows = append(t.Rows, []string{
			p.DashboardTitle + " (" + p.DashboardID + ")",
			strconv.Itoa(p.ID),
			p.Title,
			strings.Join(names, ", "),
			status,
		})
	}
	return c.render(t)
}

func (c *Reporter) Schedules(schedules []domain.Schedule) error {
	t := table{
		Title:   "Schedules",
		Headers: []string{"ID", "Name", "Interval", "Time", "Day", "Next report", "Panels"},
		Empty:   "No schedules found.",
	}
	for _, s := range schedules {
		t.Rows = append(t.Rows, []string{
			s.ID,
			s.Name,
			s.Interval.String(),
			s.Time,
			strconv.Itoa(s.Day),
			FormatUnix(s.NextReportTime),
			strconv.Itoa(len(s.PanelDetails)),
		})
	}
	return c.render(t)
}

func (c *Reporter) Groups(groups []domain.ReportGroup) error {
	t := table{
		Title:   "Report groups",
		Headers: []string{"ID", "Name", "Description", "Members"},
		Empty:   "No report groups found.",
	}
	for _, g := range groups {
		t.Rows = append(t.Rows, []string{g.ID, g.Name, g.Description, strconv.Itoa(len(g.Members))})
	}
	return c.render(t)
}

func (c *Reporter) Users(users []domain.User) error {
	t := table{
		Title:   "Users",
		Headers: []string{"ID", "Name", "First name", "Last name", "E-mail"},
		Empty:   "No users found.",
	}
	for _, u := range users {
		t.Rows = append(t.Rows, []string{u.ID, u.Name, u.FirstName, u.LastName, u.Email})
	}
	return c.render(t)
}

func (c *Reporter) Stores(stores []domain.Store) error {
	t := table{
		Title:   "Stores",
		Headers: []string{"ID", "Name", "Code"},
		Empty:   "No stores found.",
	}
	for _, s := range stores {
		t.Rows = append(t.Rows, []string{s.ID, s.Name, s.Code})
	}
	return c.render(t)
}

// FormatUnix prints a unix time in UTC, or "-" when unset.
func FormatUnix(ts int64) string {
	if ts <= 0 {
		return "-"
	}
	return time.Unix(ts, 0).UTC().Format("2006-01-02 15:04 MST")
}
