package domain

import "github.com/grafana-tools/sdk"

const (
	PanelErrUnsupportedVariable = "This panel uses an unsupported variable."
	PanelErrUnsupportedMacro    = "This panel uses an unsupported macro."
)

// Panel is a table panel found on a dashboard. It is derived on every fetch and never persisted.
type Panel struct {
	ID             int
	DashboardID    string
	DashboardTitle string
	Title          string
	Description    string
	Type           string
	RawSQL         string
	Variables      []Variable
	Error          string
}

func (p Panel) Ref() PanelRef {
	return PanelRef{PanelID: p.ID, DashboardID: p.DashboardID}
}

// Eligible reports whether the panel may be selected for a schedule.
func (p Panel) Eligible() bool {
	return p.Error == ""
}

type VariableType string

const (
	VariableTypeQuery      VariableType = "query"
	VariableTypeCustom     VariableType = "custom"
	VariableTypeDatasource VariableType = "datasource"
	VariableTypeAdhoc      VariableType = "adhoc"
	VariableTypeTextbox    VariableType = "textbox"
	// VariableTypeOther flags a type outside the known set. The raw value is kept in Variable.RawType.
	VariableTypeOther VariableType = "other"
)

func ParseVariableType(raw string) VariableType {
	switch VariableType(raw) {
	case VariableTypeQuery, VariableTypeCustom, VariableTypeDatasource, VariableTypeAdhoc, VariableTypeTextbox:
		return VariableType(raw)
	default:
		return VariableTypeOther
	}
}

type VariableOption struct {
	Text     string
	Value    string
	Selected bool
}

// Variable is a dashboard template variable.
type Variable struct {
	Name       string
	Label      string
	Type       VariableType
	RawType    string
	Definition string
	Query      string
	Datasource *sdk.DatasourceRef
	Options    []VariableOption
	Multi      bool
	IncludeAll bool
	Refresh    int
}

// ContentVariables maps a variable name to the values selected for a report.
type ContentVariables map[string][]string

// Datasource identifies the datasource configured for the plugin.
type Datasource struct {
	ID   uint
	UID  string
	Name string
	Type string
}
