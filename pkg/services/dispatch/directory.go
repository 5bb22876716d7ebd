package dispatch

import (
	"net/http"

	"github.com/de-tools/report-scheduler/pkg/models/domain"
	"github.com/de-tools/report-scheduler/pkg/store/client"
)

// DirectoryFunc builds the user directory for the current settings. A nil directory means
// recipients are looked up through the boot directory, if any.
type DirectoryFunc func(st domain.Settings) (UserDirectory, error)

// GrafanaDirectory looks users up through the Grafana instance named by the saved settings.
// Settings that only repeat the boot profile's URL keep the boot profile and its token.
func GrafanaDirectory(boot domain.ConfigProfile, httpClient *http.Client) DirectoryFunc {
	return func(st domain.Settings) (UserDirectory, error) {
		profile := boot
		if st.GrafanaURL != "" && (st.GrafanaURL != boot.URL || st.GrafanaUsername != "") {
			profile = domain.ConfigProfile{
				Name:         "settings",
				URL:          st.GrafanaURL,
				Username:     st.GrafanaUsername,
				Password:     st.GrafanaPassword,
				PluginID:     boot.PluginID,
				DatasourceID: st.DatasourceID,
			}
		}
		if profile.URL == "" {
			return nil, nil
		}
		return client.NewGrafana(profile, httpClient)
	}
}
