package panels

import (
	"context"
	"testing"

	"github.com/de-tools/report-scheduler/pkg/models/domain"
	"github.com/grafana-tools/sdk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUsesUnsupportedMacro(t *testing.T) {
	tests := []struct {
		sql      string
		expected bool
	}{
		{"SELECT * FROM x", false},
		{"SELECT * FROM x WHERE t > $__timeFrom() AND t < $__timeTo()", false},
		{"SELECT * FROM x WHERE $__timeFilter(created)", false},
		{"SELECT * FROM x WHERE $__timeFilter(date(created)) AND t < $__timeTo()", false},
		{"SELECT * FROM x WHERE $__customMacro()", true},
		{"SELECT $__timeGroup(t, 1h) FROM x", true},
		{"SELECT * FROM x WHERE t > $__timeFrom() AND $__unixEpochFilter(t)", true},
		{"SELECT * FROM x WHERE $__timeFilter()", true},
		{"SELECT * FROM x WHERE t > $__timeFrom", true},
		{"SELECT '$__' FROM x", true},
	}

	for _, tc := range tests {
		t.Run(tc.sql, func(t *testing.T) {
			assert.Equal(t, tc.expected, UsesUnsupportedMacro(tc.sql))
		})
	}
}

func TestUsesVariable(t *testing.T) {
	assert.True(t, UsesVariable("WHERE store = '${store}'", "store"))
	assert.True(t, UsesVariable("WHERE store IN (${store:sqlstring})", "store"))
	assert.True(t, UsesVariable("WHERE store = '${storeName}'", "store"))
	assert.False(t, UsesVariable("WHERE store = '$store'", "store"))
	assert.False(t, UsesVariable("WHERE store = 1", "store"))
}

func TestUsesVariableStrict(t *testing.T) {
	assert.True(t, UsesVariableStrict("WHERE store = '${store}'", "store"))
	assert.True(t, UsesVariableStrict("WHERE store IN (${store:sqlstring})", "store"))
	assert.True(t, UsesVariableStrict("WHERE store = '${store.text}'", "store"))
	assert.True(t, UsesVariableStrict("'${storeName}' AND '${store}'", "store"))
	assert.False(t, UsesVariableStrict("WHERE store = '${storeName}'", "store"))
	assert.False(t, UsesVariableStrict("WHERE store = '${store", "store"))
}

func TestMatchesDatasource(t *testing.T) {
	ds := domain.Datasource{ID: 1, UID: "abc", Name: "mSupply", Type: "postgres"}

	tests := []struct {
		name     string
		ref      *sdk.DatasourceRef
		expected bool
	}{
		{"no reference", nil, true},
		{"legacy name match", &sdk.DatasourceRef{LegacyName: "mSupply"}, true},
		{"legacy name mismatch", &sdk.DatasourceRef{LegacyName: "OtherDS"}, false},
		{"uid match", &sdk.DatasourceRef{Type: "postgres", UID: "abc"}, true},
		{"uid mismatch", &sdk.DatasourceRef{Type: "postgres", UID: "xyz"}, false},
		{"type match without uid", &sdk.DatasourceRef{Type: "postgres"}, true},
		{"type mismatch without uid", &sdk.DatasourceRef{Type: "mysql"}, false},
		{"empty object", &sdk.DatasourceRef{}, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, MatchesDatasource(tc.ref, ds))
		})
	}
}

func TestUnusableVariables(t *testing.T) {
	ds := domain.Datasource{Name: "mSupply"}
	vars := []domain.Variable{
		{Name: "ds", Type: domain.VariableTypeDatasource},
		{Name: "filters", Type: domain.VariableTypeAdhoc},
		{Name: "store", Type: domain.VariableTypeQuery, Datasource: &sdk.DatasourceRef{LegacyName: "mSupply"}},
		{Name: "other", Type: domain.VariableTypeQuery, Datasource: &sdk.DatasourceRef{LegacyName: "OtherDS"}},
		{Name: "unbound", Type: domain.VariableTypeQuery},
		{Name: "custom", Type: domain.VariableTypeCustom},
		{Name: "text", Type: domain.VariableTypeTextbox},
		{Name: "interval", Type: domain.VariableTypeOther, RawType: "interval"},
	}

	var names []string
	for _, v := range UnusableVariables(vars, ds) {
		names = append(names, v.Name)
	}
	assert.Equal(t, []string{"ds", "filters", "other"}, names)
}

func storeBoard(datasource string) (Board, []domain.Variable) {
	board := Board{UID: "dash-1", Title: "Stock"}
	vars := []domain.Variable{{
		Name:       "store",
		Type:       domain.VariableTypeQuery,
		Datasource: &sdk.DatasourceRef{LegacyName: datasource},
	}}
	return board, vars
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name          string
		sql           string
		configured    string
		expectedError string
		expectedVars  []string
	}{
		{
			name:         "bound variable on configured datasource",
			sql:          "SELECT * FROM x WHERE store = '${store}'",
			configured:   "mSupply",
			expectedVars: []string{"store"},
		},
		{
			name:          "variable bound to another datasource",
			sql:           "SELECT * FROM x WHERE store = '${store}'",
			configured:    "OtherDS",
			expectedError: domain.PanelErrUnsupportedVariable,
		},
		{
			name:       "supported time macros",
			sql:        "SELECT * FROM x WHERE t > $__timeFrom() AND t < $__timeTo()",
			configured: "mSupply",
		},
		{
			name:          "custom macro",
			sql:           "SELECT * FROM x WHERE $__customMacro()",
			configured:    "mSupply",
			expectedError: domain.PanelErrUnsupportedMacro,
		},
		{
			name:          "variable error wins over macro error",
			sql:           "SELECT * FROM x WHERE store = '${store}' AND $__customMacro()",
			configured:    "OtherDS",
			expectedError: domain.PanelErrUnsupportedVariable,
		},
		{
			name:       "unreferenced unusable variable is ignored",
			sql:        "SELECT * FROM x",
			configured: "OtherDS",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			board, vars := storeBoard("mSupply")
			p := BoardPanel{ID: 7, Type: "table", Title: "Stock", Targets: []Target{{RawSQL: tc.sql}}}

			panel := Evaluate(p, board, vars, domain.Datasource{Name: tc.configured}, Options{})

			assert.Equal(t, tc.expectedError, panel.Error)
			assert.Equal(t, domain.PanelRef{PanelID: 7, DashboardID: "dash-1"}, panel.Ref())
			var names []string
			for _, v := range panel.Variables {
				names = append(names, v.Name)
			}
			assert.Equal(t, tc.expectedVars, names)
		})
	}
}

func TestEvaluate_StrictMatching(t *testing.T) {
	board := Board{UID: "dash-1"}
	vars := []domain.Variable{
		{Name: "st", Type: domain.VariableTypeAdhoc},
		{Name: "store", Type: domain.VariableTypeCustom},
	}
	p := BoardPanel{ID: 1, Type: "table", Targets: []Target{{RawSQL: "WHERE s = '${store}'"}}}

	loose := Evaluate(p, board, vars, domain.Datasource{}, Options{})
	assert.Equal(t, domain.PanelErrUnsupportedVariable, loose.Error)

	strict := Evaluate(p, board, vars, domain.Datasource{}, Options{StrictVariableMatch: true})
	require.Empty(t, strict.Error)
	require.Len(t, strict.Variables, 1)
	assert.Equal(t, "store", strict.Variables[0].Name)
}

func TestFromBoards(t *testing.T) {
	board := Board{
		UID:   "dash-1",
		Title: "Stock",
		Panels: []BoardPanel{
			{ID: 1, Type: "table", Targets: []Target{{RawSQL: "SELECT 1"}}},
			{ID: 2, Type: "graph", Targets: []Target{{RawSQL: "SELECT 2"}}},
			{ID: 3, Type: "row", SubPanels: []BoardPanel{
				{ID: 4, Type: "msupplyfoundation-table", Targets: []Target{{RawSQL: "SELECT $__custom()"}}},
			}},
		},
		Rows: []BoardRow{{Panels: []BoardPanel{{ID: 5, Type: "table-old"}}}},
	}

	got := FromBoards(context.Background(), []Board{board}, domain.Datasource{Name: "mSupply"}, Options{})
	require.Len(t, got, 3)
	assert.Equal(t, 1, got[0].ID)
	assert.Equal(t, 4, got[1].ID)
	assert.Equal(t, domain.PanelErrUnsupportedMacro, got[1].Error)
	assert.Equal(t, 5, got[2].ID)

	eligible := Eligible(got)
	require.Len(t, eligible, 2)
	assert.Equal(t, 1, eligible[0].ID)
	assert.Equal(t, 5, eligible[1].ID)
}
