package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/de-tools/report-scheduler/pkg/models/domain"
	"gopkg.in/ini.v1"
)

// DefaultProfilesFile is the CLI profile file under the user's home directory.
const DefaultProfilesFile = ".reportscfg"

// Registry reads Grafana connection profiles from an ini file:
//
//	[DEFAULT]
//	url           = http://localhost:3000
//	token         = glsa_xxx
//	plugin_id     = msupplyfoundation-excelreportemailscheduler-app
//	datasource_id = 1
type Registry interface {
	GetProfiles(ctx context.Context) ([]string, error)
	GetConfig(ctx context.Context, profile string) (domain.ConfigProfile, error)
}

type cfgRegistry struct {
	cfg *ini.File
}

func NewRegistry(path string) (Registry, error) {
	cfg, err := ini.Load(path)
	if err != nil {
		return nil, err
	}
	return &cfgRegistry{cfg: cfg}, nil
}

// DefaultProfilesPath returns $HOME/.reportscfg.
func DefaultProfilesPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return DefaultProfilesFile
	}
	return filepath.Join(home, DefaultProfilesFile)
}

func (cr *cfgRegistry) GetProfiles(_ context.Context) ([]string, error) {
	var profiles []string
	for _, section := range cr.cfg.Sections() {
		if len(section.Keys()) > 0 {
			profiles = append(profiles, section.Name())
		}
	}
	return profiles, nil
}

func (cr *cfgRegistry) GetConfig(_ context.Context, profile string) (domain.ConfigProfile, error) {
	section, err := cr.cfg.GetSection(profile)
	if err != nil || len(section.Keys()) == 0 {
		return domain.ConfigProfile{}, fmt.Errorf("profile %s not found", profile)
	}

	p := domain.ConfigProfile{
		Name:         profile,
		URL:          section.Key("url").String(),
		Token:        section.Key("token").String(),
		Username:     section.Key("username").String(),
		Password:     section.Key("password").String(),
		PluginID:     section.Key("plugin_id").String(),
		DatasourceID: section.Key("datasource_id").MustUint(0),

		StrictVariableMatch: section.Key("strict_variable_match").MustBool(false),
	}
	if p.URL == "" {
		return domain.ConfigProfile{}, fmt.Errorf("profile %s has no url", profile)
	}
	return p, nil
}
