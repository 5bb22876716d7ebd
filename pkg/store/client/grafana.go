package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/de-tools/report-scheduler/pkg/adapters"
	"github.com/de-tools/report-scheduler/pkg/models/domain"
	"github.com/de-tools/report-scheduler/pkg/services/panels"
	"github.com/de-tools/report-scheduler/pkg/services/tabular"
	"github.com/grafana-tools/sdk"
	"github.com/rs/zerolog"
)

const (
	usersQuery  = `SELECT id, name, first_name, last_name, e_mail FROM "user"`
	storesQuery = `SELECT id, name, code FROM "store"`

	queryRefID      = "A"
	searchPageLimit = 500
)

// Grafana talks to the host Grafana API.
type Grafana struct {
	sdk      *sdk.Client
	req      *Requester
	pluginID string
}

func NewGrafana(profile domain.ConfigProfile, httpClient *http.Client) (*Grafana, error) {
	if profile.URL == "" {
		return nil, fmt.Errorf("grafana url is empty")
	}
	if httpClient == nil {
		httpClient = sdk.DefaultHTTPClient
	}

	auth := profile.Token
	if profile.BasicAuth() {
		auth = profile.Username + ":" + profile.Password
	}
	c, err := sdk.NewClient(profile.URL, auth, httpClient)
	if err != nil {
		return nil, fmt.Errorf("create grafana client: %w", err)
	}

	req, err := NewRequester(profile.URL, profile, httpClient)
	if err != nil {
		return nil, err
	}

	return &Grafana{
		sdk:      c,
		req:      req,
		pluginID: profile.PluginID,
	}, nil
}

func (g *Grafana) do(ctx context.Context, method, path string, body any) ([]byte, error) {
	return g.req.Do(ctx, method, path, body)
}

// Dashboards loads every dashboard visible to the configured credentials.
func (g *Grafana) Dashboards(ctx context.Context) ([]panels.Board, error) {
	logger := zerolog.Ctx(ctx)

	var found []sdk.FoundBoard
	for page := uint(1); ; page++ {
		batch, err := g.sdk.Search(ctx,
			sdk.SearchType(sdk.SearchTypeDashboard),
			sdk.SearchLimit(searchPageLimit),
			sdk.SearchPage(page),
		)
		if err != nil {
			return nil, fmt.Errorf("search dashboards: %w", err)
		}
		found = append(found, batch...)
		if len(batch) < searchPageLimit {
			break
		}
	}

	boards := make([]panels.Board, 0, len(found))
	for _, fb := range found {
		raw, _, err := g.sdk.GetRawDashboardByUID(ctx, fb.UID)
		if err != nil {
			return nil, fmt.Errorf("get dashboard %s: %w", fb.UID, err)
		}
		board, err := panels.ParseBoard(raw)
		if err != nil {
			logger.Warn().Err(err).Str("uid", fb.UID).Msg("skipping unreadable dashboard")
			continue
		}
		if board.UID == "" {
			board.UID = fb.UID
		}
		boards = append(boards, board)
	}
	return boards, nil
}

func mapDatasource(ds sdk.Datasource) domain.Datasource {
	return domain.Datasource{
		ID:   ds.ID,
		UID:  ds.UID,
		Name: ds.Name,
		Type: ds.Type,
	}
}

func (g *Grafana) Datasource(ctx context.Context, id uint) (domain.Datasource, error) {
	if id == 0 {
		return domain.Datasource{}, ErrDatasourceNotConfigured
	}
	ds, err := g.sdk.GetDatasource(ctx, id)
	if err != nil {
		return domain.Datasource{}, fmt.Errorf("get datasource %d: %w", id, err)
	}
	return mapDatasource(ds), nil
}

func (g *Grafana) Datasources(ctx context.Context) ([]domain.Datasource, error) {
	all, err := g.sdk.GetAllDatasources(ctx)
	if err != nil {
		return nil, fmt.Errorf("list datasources: %w", err)
	}
	out := make([]domain.Datasource, 0, len(all))
	for _, ds := range all {
		out = append(out, mapDatasource(ds))
	}
	return out, nil
}

// Panels returns every table panel on every dashboard, evaluated against the datasource dsID.
func (g *Grafana) Panels(ctx context.Context, dsID uint, opts panels.Options) ([]domain.Panel, error) {
	ds, err := g.Datasource(ctx, dsID)
	if err != nil {
		return nil, err
	}
	boards, err := g.Dashboards(ctx)
	if err != nil {
		return nil, err
	}
	return panels.FromBoards(ctx, boards, ds, opts), nil
}

type rawQuery struct {
	RefID        string `json:"refId"`
	DatasourceID uint   `json:"datasourceId"`
	RawSQL       string `json:"rawSql"`
	Format       string `json:"format"`
}

type queryRequest struct {
	From    string     `json:"from"`
	To      string     `json:"to"`
	Queries []rawQuery `json:"queries"`
}

// Query runs rawSQL against the datasource dsID. Hosts without /api/ds/query are asked through /api/tsdb/query.
func (g *Grafana) Query(ctx context.Context, dsID uint, rawSQL string) (tabular.Result, error) {
	if dsID == 0 {
		return tabular.Result{}, ErrDatasourceNotConfigured
	}

	req := queryRequest{
		From: "0",
		To:   "0",
		Queries: []rawQuery{{
			RefID:        queryRefID,
			DatasourceID: dsID,
			RawSQL:       rawSQL,
			Format:       "table",
		}},
	}

	body, err := g.do(ctx, http.MethodPost, "/api/ds/query", req)
	if IsStatus(err, http.StatusNotFound) {
		zerolog.Ctx(ctx).Debug().Msg("ds query endpoint missing, using tsdb query")
		body, err = g.do(ctx, http.MethodPost, "/api/tsdb/query", req)
	}
	if err != nil {
		return tabular.Result{}, fmt.Errorf("query datasource %d: %w", dsID, err)
	}
	return tabular.ParseQueryResponse(body, queryRefID)
}

func (g *Grafana) Users(ctx context.Context, dsID uint) ([]domain.User, error) {
	res, err := g.Query(ctx, dsID, usersQuery)
	if err != nil {
		return nil, err
	}
	records := tabular.Records(res, "id", "name", "first_name", "last_name", "e_mail")
	users := make([]domain.User, 0, len(records))
	for _, rec := range records {
		users = append(users, adapters.MapRecordToUser(rec))
	}
	return users, nil
}

func (g *Grafana) Stores(ctx context.Context, dsID uint) ([]domain.Store, error) {
	res, err := g.Query(ctx, dsID, storesQuery)
	if err != nil {
		return nil, err
	}
	records := tabular.Records(res, "id", "name", "code")
	stores := make([]domain.Store, 0, len(records))
	for _, rec := range records {
		stores = append(stores, adapters.MapRecordToStore(rec))
	}
	return stores, nil
}

// VariableOptions runs the variable's definition and returns every value as an option.
func (g *Grafana) VariableOptions(ctx context.Context, dsID uint, v domain.Variable) ([]domain.VariableOption, error) {
	query := v.Definition
	if query == "" {
		query = v.Query
	}
	if query == "" {
		return v.Options, nil
	}

	res, err := g.Query(ctx, dsID, query)
	if err != nil {
		return nil, err
	}

	options := make([]domain.VariableOption, 0, len(res.Rows))
	seen := make(map[string]struct{})
	for _, row := range res.Rows {
		for _, cell := range row {
			if cell == nil {
				continue
			}
			value := fmt.Sprint(cell)
			if _, ok := seen[value]; ok {
				continue
			}
			seen[value] = struct{}{}
			options = append(options, domain.VariableOption{Text: value, Value: value})
		}
	}
	return options, nil
}

// PluginSettings is the app plugin configuration stored by Grafana.
type PluginSettings struct {
	Enabled  bool           `json:"enabled"`
	Pinned   bool           `json:"pinned"`
	JSONData map[string]any `json:"jsonData"`
}

// DatasourceID reads jsonData.datasourceID; zero when unset.
func (p PluginSettings) DatasourceID() uint {
	switch v := p.JSONData["datasourceID"].(type) {
	case float64:
		if v > 0 {
			return uint(v)
		}
	case json.Number:
		n, err := v.Int64()
		if err == nil && n > 0 {
			return uint(n)
		}
	}
	return 0
}

func (g *Grafana) PluginSettings(ctx context.Context) (PluginSettings, error) {
	var settings PluginSettings
	body, err := g.do(ctx, http.MethodGet, "/api/plugins/"+g.pluginID+"/settings", nil)
	if err != nil {
		return settings, fmt.Errorf("get plugin settings: %w", err)
	}
	if err := json.Unmarshal(body, &settings); err != nil {
		return settings, fmt.Errorf("decode plugin settings: %w", err)
	}
	return settings, nil
}

func (g *Grafana) UpdatePluginSettings(ctx context.Context, settings PluginSettings) error {
	if _, err := g.do(ctx, http.MethodPost, "/api/plugins/"+g.pluginID+"/settings", settings); err != nil {
		return fmt.Errorf("update plugin settings: %w", err)
	}
	return nil
}
