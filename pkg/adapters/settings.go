package adapters

import (
	"github.com/de-tools/report-scheduler/pkg/models/api"
	"github.com/de-tools/report-scheduler/pkg/models/domain"
	"github.com/de-tools/report-scheduler/pkg/models/store"
)

func MapStoreSettingsToDomain(s store.Settings) domain.Settings {
	return domain.Settings{
		GrafanaURL:          s.GrafanaURL,
		GrafanaUsername:     s.GrafanaUsername,
		GrafanaPassword:     s.GrafanaPassword,
		SenderEmailAddress:  s.SenderEmailAddress,
		SenderEmailPassword: s.SenderEmailPassword,
		SenderEmailHost:     s.SenderEmailHost,
		SenderEmailPort:     s.SenderEmailPort,
		DatasourceID:        uint(s.DatasourceID),
	}
}

func MapDomainSettingsToStore(s domain.Settings) store.Settings {
	return store.Settings{
		GrafanaURL:          s.GrafanaURL,
		GrafanaUsername:     s.GrafanaUsername,
		GrafanaPassword:     s.GrafanaPassword,
		SenderEmailAddress:  s.SenderEmailAddress,
		SenderEmailPassword: s.SenderEmailPassword,
		SenderEmailHost:     s.SenderEmailHost,
		SenderEmailPort:     s.SenderEmailPort,
		DatasourceID:        int64(s.DatasourceID),
	}
}

// MapDomainSettingsToAPI never exposes secrets, only whether they are set.
func MapDomainSettingsToAPI(s domain.Settings) api.Settings {
	return api.Settings{
		GrafanaURL:               s.GrafanaURL,
		GrafanaUsername:          s.GrafanaUsername,
		SenderEmailAddress:       s.SenderEmailAddress,
		SenderEmailHost:          s.SenderEmailHost,
		SenderEmailPort:          s.SenderEmailPort,
		DatasourceID:             s.DatasourceID,
		IsGrafanaPasswordSet:     s.GrafanaPassword != "",
		IsSenderEmailPasswordSet: s.SenderEmailPassword != "",
	}
}

func MapAPISettingsToDomain(s api.Settings) domain.Settings {
	return domain.Settings{
		GrafanaURL:          s.GrafanaURL,
		GrafanaUsername:     s.GrafanaUsername,
		GrafanaPassword:     s.GrafanaPassword,
		SenderEmailAddress:  s.SenderEmailAddress,
		SenderEmailPassword: s.SenderEmailPassword,
		SenderEmailHost:     s.SenderEmailHost,
		SenderEmailPort:     s.SenderEmailPort,
		DatasourceID:        s.DatasourceID,
	}
}
