package panels

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/de-tools/report-scheduler/pkg/models/domain"
	"github.com/grafana-tools/sdk"
	"github.com/rs/zerolog"
)

// Board is the subset of the Grafana dashboard model needed to find table panels and their variables.
// Fields that changed shape across Grafana versions are decoded through lenient types.
type Board struct {
	UID        string       `json:"uid"`
	ID         uint         `json:"id"`
	Title      string       `json:"title"`
	Panels     []BoardPanel `json:"panels"`
	Rows       []BoardRow   `json:"rows"`
	Templating Templating   `json:"templating"`
}

// BoardRow is the pre schema-v16 row layout.
type BoardRow struct {
	Panels []BoardPanel `json:"panels"`
}

type BoardPanel struct {
	ID          int          `json:"id"`
	Type        string       `json:"type"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Targets     []Target     `json:"targets"`
	SubPanels   []BoardPanel `json:"panels"`
}

type Target struct {
	RefID      string             `json:"refId"`
	RawSQL     string             `json:"rawSql"`
	Datasource *sdk.DatasourceRef `json:"datasource,omitempty"`
}

type Templating struct {
	List []TemplateVar `json:"list"`
}

type TemplateVar struct {
	Name       string             `json:"name"`
	Label      string             `json:"label"`
	Type       string             `json:"type"`
	Definition string             `json:"definition"`
	Query      queryText          `json:"query"`
	Datasource *sdk.DatasourceRef `json:"datasource,omitempty"`
	Options    []TemplateOption   `json:"options"`
	Multi      bool               `json:"multi"`
	IncludeAll bool               `json:"includeAll"`
	Refresh    lenientInt         `json:"refresh"`
}

type TemplateOption struct {
	Text     lenientString `json:"text"`
	Value    lenientString `json:"value"`
	Selected bool          `json:"selected"`
}

// ParseBoard decodes a raw dashboard as returned by /api/dashboards/uid/:uid.
// Both the bare dashboard and the {"dashboard": ..., "meta": ...} envelope are accepted.
func ParseBoard(data []byte) (Board, error) {
	var envelope struct {
		Dashboard json.RawMessage `json:"dashboard"`
	}
	if err := json.Unmarshal(data, &envelope); err == nil && len(envelope.Dashboard) > 0 {
		data = envelope.Dashboard
	}

	var board Board
	if err := json.Unmarshal(data, &board); err != nil {
		return Board{}, fmt.Errorf("unmarshal dashboard: %w", err)
	}
	return board, nil
}

// AllPanels flattens row panels, collapsed row children and legacy rows.
func (b Board) AllPanels() []BoardPanel {
	var out []BoardPanel
	var walk func([]BoardPanel)
	walk = func(ps []BoardPanel) {
		for _, p := range ps {
			out = append(out, p)
			walk(p.SubPanels)
		}
	}
	walk(b.Panels)
	for _, r := range b.Rows {
		walk(r.Panels)
	}
	return out
}

// RawSQL returns the SQL of the first target.
func (p BoardPanel) RawSQL() string {
	if len(p.Targets) == 0 {
		return ""
	}
	return p.Targets[0].RawSQL
}

// Variables converts the dashboard template variables into domain variables.
// Unknown variable types are kept as VariableTypeOther and logged.
func (b Board) Variables(ctx context.Context) []domain.Variable {
	logger := zerolog.Ctx(ctx)

	vars := make([]domain.Variable, 0, len(b.Templating.List))
	for _, tv := range b.Templating.List {
		v := domain.Variable{
			Name:       tv.Name,
			Label:      tv.Label,
			Type:       domain.ParseVariableType(tv.Type),
			RawType:    tv.Type,
			Definition: tv.Definition,
			Query:      string(tv.Query),
			Datasource: tv.Datasource,
			Multi:      tv.Multi,
			IncludeAll: tv.IncludeAll,
			Refresh:    int(tv.Refresh),
		}
		for _, o := range tv.Options {
			v.Options = append(v.Options, domain.VariableOption{
				Text:     string(o.Text),
				Value:    string(o.Value),
				Selected: o.Selected,
			})
		}
		if v.Type == domain.VariableTypeOther {
			logger.Warn().
				Str("dashboard", b.UID).
				Str("variable", tv.Name).
				Str("type", tv.Type).
				Msg("unknown template variable type")
		}
		vars = append(vars, v)
	}
	return vars
}

// queryText accepts the legacy string query and the newer {"query": "..."} object.
type queryText string

func (q *queryText) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*q = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*q = queryText(s)
		return nil
	}
	var obj struct {
		Query    string `json:"query"`
		RawQuery string `json:"rawQuery"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("unsupported variable query: %w", err)
	}
	if obj.Query != "" {
		*q = queryText(obj.Query)
	} else {
		*q = queryText(obj.RawQuery)
	}
	return nil
}

// lenientString accepts a string, a number, a bool or a list of those (joined with a comma).
type lenientString string

func (s *lenientString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	if data[0] == '[' {
		var items []lenientString
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		parts := make([]string, 0, len(items))
		for _, it := range items {
			parts = append(parts, string(it))
		}
		*s = lenientString(strings.Join(parts, ","))
		return nil
	}
	if data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = lenientString(str)
		return nil
	}
	*s = lenientString(data)
	return nil
}

// lenientInt accepts a number or a bool (true as 1).
type lenientInt int

func (i *lenientInt) UnmarshalJSON(data []byte) error {
	switch str := string(bytes.TrimSpace(data)); str {
	case "", "null", "false":
		*i = 0
	case "true":
		*i = 1
	default:
		n, err := strconv.Atoi(strings.Trim(str, `"`))
		if err != nil {
			return fmt.Errorf("invalid refresh value %s: %w", str, err)
		}
		*i = lenientInt(n)
	}
	return nil
}
