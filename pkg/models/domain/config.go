package domain

import "fmt"

// ConfigProfile is a named Grafana connection used by the operator CLI.
type ConfigProfile struct {
	Name         string
	URL          string
	Token        string
	Username     string
	Password     string
	PluginID     string
	DatasourceID uint

	// StrictVariableMatch is the default of the CLI's --strict flag.
	StrictVariableMatch bool
}

func (c ConfigProfile) String() string {
	return fmt.Sprintf("%s:%s", c.Name, c.URL)
}

// BasicAuth reports whether the profile authenticates with a user and password instead of a token.
func (c ConfigProfile) BasicAuth() bool {
	return c.Token == "" && c.Username != ""
}
