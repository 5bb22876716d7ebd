// Package panels decides which dashboard table panels can be included in a scheduled report.
package panels

import (
	"context"
	"regexp"
	"strings"

	"github.com/de-tools/report-scheduler/pkg/models/domain"
	"github.com/grafana-tools/sdk"
)

// TableTypes are the panel types a report can be rendered from.
var TableTypes = map[string]struct{}{
	"table":                   {},
	"table-old":               {},
	"msupplyfoundation-table": {},
}

type Options struct {
	// StrictVariableMatch requires `}`, `:` or `.` after a variable name, so `${store}` no longer
	// matches a variable called `st`.
	StrictVariableMatch bool
}

var supportedMacros = regexp.MustCompile(`\$__timeFrom\(\)|\$__timeTo\(\)|\$__timeFilter\((?:[^()]|\([^()]*\))+\)`)

// UsesUnsupportedMacro reports whether sql contains a `$__` macro other than
// $__timeFrom(), $__timeTo() and $__timeFilter(column).
func UsesUnsupportedMacro(sql string) bool {
	return strings.Contains(supportedMacros.ReplaceAllString(sql, ""), "$__")
}

// UsesVariable reports whether sql references `${name`, with any continuation.
func UsesVariable(sql, name string) bool {
	return strings.Contains(sql, "${"+name)
}

// UsesVariableStrict reports whether sql references `${name}`, `${name:format}` or `${name.field}`.
func UsesVariableStrict(sql, name string) bool {
	ref := "${" + name
	for i := strings.Index(sql, ref); i >= 0; {
		end := i + len(ref)
		if end < len(sql) {
			switch sql[end] {
			case '}', ':', '.':
				return true
			}
		}
		next := strings.Index(sql[end:], ref)
		if next < 0 {
			break
		}
		i = end + next
	}
	return false
}

func (o Options) usesVariable(sql, name string) bool {
	if o.StrictVariableMatch {
		return UsesVariableStrict(sql, name)
	}
	return UsesVariable(sql, name)
}

// UnusableVariables returns the variables that cannot be resolved without an interactive session:
// datasource and adhoc variables, and query variables bound to a datasource other than ds.
func UnusableVariables(vars []domain.Variable, ds domain.Datasource) []domain.Variable {
	var out []domain.Variable
	for _, v := range vars {
		switch v.Type {
		case domain.VariableTypeDatasource, domain.VariableTypeAdhoc:
			out = append(out, v)
		case domain.VariableTypeQuery:
			if !MatchesDatasource(v.Datasource, ds) {
				out = append(out, v)
			}
		}
	}
	return out
}

// MatchesDatasource compares a variable's datasource reference with the configured datasource.
// A missing reference means the dashboard default and matches. Legacy string references are
// compared by name; structured references by uid when both sides have one, otherwise by type.
func MatchesDatasource(ref *sdk.DatasourceRef, ds domain.Datasource) bool {
	if ref == nil {
		return true
	}
	if ref.LegacyName != "" {
		return ref.LegacyName == ds.Name
	}
	if ref.UID != "" && ds.UID != "" {
		return ref.UID == ds.UID
	}
	if ref.Type != "" {
		return ref.Type == ds.Type || ref.Type == ds.Name
	}
	return true
}

// Evaluate builds the domain panel for p. The unsupported variable check runs before the macro check
// and only the first failure is reported. Eligible panels carry the variables their SQL references.
func Evaluate(p BoardPanel, board Board, vars []domain.Variable, ds domain.Datasource, opts Options) domain.Panel {
	sql := p.RawSQL()
	panel := domain.Panel{
		ID:             p.ID,
		DashboardID:    board.UID,
		DashboardTitle: board.Title,
		Title:          p.Title,
		Description:    p.Description,
		Type:           p.Type,
		RawSQL:         sql,
	}

	for _, v := range UnusableVariables(vars, ds) {
		if opts.usesVariable(sql, v.Name) {
			panel.Error = domain.PanelErrUnsupportedVariable
			return panel
		}
	}

	if UsesUnsupportedMacro(sql) {
		panel.Error = domain.PanelErrUnsupportedMacro
		return panel
	}

	for _, v := range vars {
		if opts.usesVariable(sql, v.Name) {
			panel.Variables = append(panel.Variables, v)
		}
	}
	return panel
}

// FromBoards returns the table panels of all boards, each evaluated against ds.
func FromBoards(ctx context.Context, boards []Board, ds domain.Datasource, opts Options) []domain.Panel {
	var out []domain.Panel
	for _, b := range boards {
		vars := b.Variables(ctx)
		for _, p := range b.AllPanels() {
			if _, ok := TableTypes[p.Type]; !ok {
				continue
			}
			out = append(out, Evaluate(p, b, vars, ds, opts))
		}
	}
	return out
}

// Eligible filters panels down to those without an error.
func Eligible(panels []domain.Panel) []domain.Panel {
	out := make([]domain.Panel, 0, len(panels))
	for _, p := range panels {
		if p.Eligible() {
			out = append(out, p)
		}
	}
	return out
}
