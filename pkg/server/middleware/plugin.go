package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/de-tools/report-scheduler/pkg/adapters"
	"github.com/de-tools/report-scheduler/pkg/models/api"
	"github.com/de-tools/report-scheduler/pkg/models/domain"
	"github.com/de-tools/report-scheduler/pkg/services/resources/settings"
	"github.com/grafana/grafana-plugin-sdk-go/backend"
	"github.com/rs/zerolog"
)

// PluginSettings makes the app instance settings Grafana sends with each resource call
// the request's settings defaults.
func PluginSettings(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		pCtx := backend.PluginConfigFromContext(req.Context())
		if pCtx.AppInstanceSettings != nil {
			defaults, err := InstanceSettings(pCtx.AppInstanceSettings)
			if err != nil {
				zerolog.Ctx(req.Context()).Warn().Err(err).Msg("ignoring unreadable app instance settings")
			} else {
				req = req.WithContext(settings.WithDefaults(req.Context(), defaults))
			}
		}
		next.ServeHTTP(w, req)
	})
}

// InstanceSettings reads the app's jsonData. Secure values win over plain ones.
func InstanceSettings(s *backend.AppInstanceSettings) (domain.Settings, error) {
	var data api.Settings
	if len(s.JSONData) > 0 {
		if err := json.Unmarshal(s.JSONData, &data); err != nil {
			return domain.Settings{}, err
		}
	}
	if password, ok := s.DecryptedSecureJSONData["grafanaPassword"]; ok {
		data.GrafanaPassword = password
	}
	if password, ok := s.DecryptedSecureJSONData["senderEmailPassword"]; ok {
		data.SenderEmailPassword = password
	}
	return adapters.MapAPISettingsToDomain(data), nil
}
