package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/de-tools/report-scheduler/pkg/models/domain"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

const EnvPrefix = "REPORTS"

type Grafana struct {
	URL          string `mapstructure:"url"`
	Token        string `mapstructure:"token"`
	Username     string `mapstructure:"username"`
	Password     string `mapstructure:"password"`
	PluginID     string `mapstructure:"plugin_id"`
	DatasourceID uint   `mapstructure:"datasource_id"`
}

type Email struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
}

// Server is the configuration of the standalone resource server.
type Server struct {
	Addr                string        `mapstructure:"addr"`
	DBPath              string        `mapstructure:"db_path"`
	LogLevel            string        `mapstructure:"log_level"`
	ShutdownTimeout     time.Duration `mapstructure:"shutdown_timeout"`
	PollInterval        time.Duration `mapstructure:"poll_interval"`
	DispatcherURL       string        `mapstructure:"dispatcher_url"`
	StrictVariableMatch bool          `mapstructure:"strict_variable_match"`
	Grafana             Grafana       `mapstructure:"grafana"`
	Email               Email         `mapstructure:"email"`
}

var defaults = map[string]any{
	"addr":                  "localhost:8090",
	"db_path":               "report-scheduler.db",
	"log_level":             "info",
	"shutdown_timeout":      10 * time.Second,
	"poll_interval":         2 * time.Minute,
	"dispatcher_url":        "",
	"strict_variable_match": false,
	"grafana.url":           "",
	"grafana.token":         "",
	"grafana.username":      "",
	"grafana.password":      "",
	"grafana.plugin_id":     "",
	"grafana.datasource_id": 0,
	"email.address":         "",
	"email.password":        "",
	"email.host":            "",
	"email.port":            0,
}

// LoadServer reads path, if set, and overlays REPORTS_* environment variables.
// Nested keys use an underscore, e.g. REPORTS_GRAFANA_URL.
func LoadServer(path string) (Server, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Server{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Server
	if err := v.Unmarshal(&cfg); err != nil {
		return Server{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Server{}, err
	}
	return cfg, nil
}

func (s Server) Validate() error {
	if s.Addr == "" {
		return fmt.Errorf("addr is required")
	}
	if s.DBPath == "" {
		return fmt.Errorf("db_path is required")
	}
	if _, err := zerolog.ParseLevel(s.LogLevel); err != nil {
		return fmt.Errorf("invalid log_level %q: %w", s.LogLevel, err)
	}
	if s.PollInterval < 0 {
		return fmt.Errorf("poll_interval must not be negative")
	}
	if s.Grafana.URL != "" {
		if u, err := url.Parse(s.Grafana.URL); err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid grafana.url %q", s.Grafana.URL)
		}
	}
	if s.DispatcherURL != "" {
		if u, err := url.Parse(s.DispatcherURL); err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid dispatcher_url %q", s.DispatcherURL)
		}
	}
	return nil
}

func (s Server) Level() zerolog.Level {
	level, err := zerolog.ParseLevel(s.LogLevel)
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}

// Profile is the Grafana connection the server uses to resolve report recipients.
func (s Server) Profile() domain.ConfigProfile {
	return domain.ConfigProfile{
		Name:         "server",
		URL:          s.Grafana.URL,
		Token:        s.Grafana.Token,
		Username:     s.Grafana.Username,
		Password:     s.Grafana.Password,
		PluginID:     s.Grafana.PluginID,
		DatasourceID: s.Grafana.DatasourceID,
	}
}

// Defaults are the settings served before any have been saved.
func (s Server) Defaults() domain.Settings {
	return domain.Settings{
		GrafanaURL:          s.Grafana.URL,
		GrafanaUsername:     s.Grafana.Username,
		GrafanaPassword:     s.Grafana.Password,
		SenderEmailAddress:  s.Email.Address,
		SenderEmailPassword: s.Email.Password,
		SenderEmailHost:     s.Email.Host,
		SenderEmailPort:     s.Email.Port,
		DatasourceID:        s.Grafana.DatasourceID,
	}
}
