package domain

type Settings struct {
	GrafanaURL          string
	GrafanaUsername     string
	GrafanaPassword     string
	SenderEmailAddress  string
	SenderEmailPassword string
	SenderEmailHost     string
	SenderEmailPort     int
	DatasourceID        uint
}

// Merge returns s with every empty field of s filled from fallback.
func (s Settings) Merge(fallback Settings) Settings {
	if s.GrafanaURL == "" {
		s.GrafanaURL = fallback.GrafanaURL
	}
	if s.GrafanaUsername == "" {
		s.GrafanaUsername = fallback.GrafanaUsername
	}
	if s.GrafanaPassword == "" {
		s.GrafanaPassword = fallback.GrafanaPassword
	}
	if s.SenderEmailAddress == "" {
		s.SenderEmailAddress = fallback.SenderEmailAddress
	}
	if s.SenderEmailPassword == "" {
		s.SenderEmailPassword = fallback.SenderEmailPassword
	}
	if s.SenderEmailHost == "" {
		s.SenderEmailHost = fallback.SenderEmailHost
	}
	if s.SenderEmailPort == 0 {
		s.SenderEmailPort = fallback.SenderEmailPort
	}
	if s.DatasourceID == 0 {
		s.DatasourceID = fallback.DatasourceID
	}
	return s
}
