package api

type ReportGroup struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Members     []string `json:"members"`
}

type ReportGroupMembership struct {
	ID            string `json:"id"`
	UserID        string `json:"userID"`
	ReportGroupID string `json:"reportGroupID"`
}

type Schedule struct {
	ID             string          `json:"id"`
	Interval       int             `json:"interval"`
	NextReportTime int64           `json:"nextReportTime"`
	Name           string          `json:"name"`
	Description    string          `json:"description"`
	ReportGroupID  string          `json:"reportGroupID"`
	Time           string          `json:"time"`
	Day            int             `json:"day"`
	DateFormat     string          `json:"dateFormat"`
	DatePosition   string          `json:"datePosition"`
	PanelDetails   []ReportContent `json:"panelDetails"`
}

type ReportContent struct {
	ID          string  `json:"id"`
	ScheduleID  string  `json:"scheduleID"`
	PanelID     int     `json:"panelID"`
	DashboardID string  `json:"dashboardID"`
	Lookback    string  `json:"lookback"`
	Variables   *string `json:"variables"`
}

type Settings struct {
	GrafanaURL               string `json:"grafanaURL"`
	GrafanaUsername          string `json:"grafanaUsername"`
	GrafanaPassword          string `json:"grafanaPassword,omitempty"`
	SenderEmailAddress       string `json:"senderEmailAddress"`
	SenderEmailPassword      string `json:"senderEmailPassword,omitempty"`
	SenderEmailHost          string `json:"senderEmailHost"`
	SenderEmailPort          int    `json:"senderEmailPort"`
	DatasourceID             uint   `json:"datasourceID"`
	IsGrafanaPasswordSet     bool   `json:"isGrafanaPasswordSet"`
	IsSenderEmailPasswordSet bool   `json:"isSenderEmailPasswordSet"`
}

type Message struct {
	Message string `json:"message"`
}

type Error struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}
