package settings

import (
	"context"
	"errors"
	"net/mail"
	"net/url"

	"github.com/de-tools/report-scheduler/pkg/adapters"
	"github.com/de-tools/report-scheduler/pkg/models/domain"
	"github.com/de-tools/report-scheduler/pkg/services/resources"
	"github.com/de-tools/report-scheduler/pkg/store/duckdb"
	settingsstore "github.com/de-tools/report-scheduler/pkg/store/duckdb/settings"
	"github.com/rs/zerolog"
)

type ManagementService interface {
	// GetSettings returns the stored settings with empty fields taken from the defaults.
	GetSettings(ctx context.Context) (domain.Settings, error)
	// SaveSettings stores s. Empty passwords keep the stored ones.
	SaveSettings(ctx context.Context, s domain.Settings) (domain.Settings, error)
}

type defaultsKey struct{}

// WithDefaults attaches request scoped defaults, e.g. the Grafana app settings of a plugin call.
// They take precedence over the service defaults.
func WithDefaults(ctx context.Context, s domain.Settings) context.Context {
	return context.WithValue(ctx, defaultsKey{}, s)
}

func defaultsFromContext(ctx context.Context) domain.Settings {
	s, _ := ctx.Value(defaultsKey{}).(domain.Settings)
	return s
}

type settingsMgmtService struct {
	store    settingsstore.Store
	defaults domain.Settings
}

func NewManagementService(store settingsstore.Store, defaults domain.Settings) ManagementService {
	return &settingsMgmtService{
		store:    store,
		defaults: defaults,
	}
}

func (s *settingsMgmtService) stored(ctx context.Context) (domain.Settings, error) {
	st, err := s.store.Get(ctx)
	if errors.Is(err, duckdb.ErrNotFound) {
		return domain.Settings{}, nil
	}
	if err != nil {
		return domain.Settings{}, err
	}
	return adapters.MapStoreSettingsToDomain(*st), nil
}

func (s *settingsMgmtService) GetSettings(ctx context.Context) (domain.Settings, error) {
	stored, err := s.stored(ctx)
	if err != nil {
		return domain.Settings{}, err
	}
	return stored.Merge(defaultsFromContext(ctx)).Merge(s.defaults), nil
}

func validate(st domain.Settings) error {
	if st.GrafanaURL != "" {
		u, err := url.Parse(st.GrafanaURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return resources.Invalid("grafana url %q is not an absolute url", st.GrafanaURL)
		}
	}
	if st.SenderEmailAddress != "" {
		if _, err := mail.ParseAddress(st.SenderEmailAddress); err != nil {
			return resources.Invalid("sender email address %q is invalid", st.SenderEmailAddress)
		}
	}
	if st.SenderEmailPort < 0 || st.SenderEmailPort > 65535 {
		return resources.Invalid("sender email port %d is out of range", st.SenderEmailPort)
	}
	return nil
}

func (s *settingsMgmtService) SaveSettings(ctx context.Context, st domain.Settings) (domain.Settings, error) {
	if err := validate(st); err != nil {
		return domain.Settings{}, err
	}

	stored, err := s.stored(ctx)
	if err != nil {
		return domain.Settings{}, err
	}
	if st.GrafanaPassword == "" {
		st.GrafanaPassword = stored.GrafanaPassword
	}
	if st.SenderEmailPassword == "" {
		st.SenderEmailPassword = stored.SenderEmailPassword
	}

	if err := s.store.Save(ctx, adapters.MapDomainSettingsToStore(st)); err != nil {
		return domain.Settings{}, err
	}
	zerolog.Ctx(ctx).Info().Uint("datasource_id", st.DatasourceID).Msg("settings saved")
	return s.GetSettings(ctx)
}
