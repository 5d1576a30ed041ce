package api

// ConnectionStatus is the connectivity state of the live backend session.
type ConnectionStatus string

const (
	StatusConnecting   ConnectionStatus = "Connecting"
	StatusConnected    ConnectionStatus = "Connected"
	StatusDisconnected ConnectionStatus = "Disconnected"
	StatusReconnecting ConnectionStatus = "Reconnecting"
)

// ServerDescriptor is the client-visible record of one backend-managed MCP
// server. Only ID is interpreted by the view-model.
type ServerDescriptor struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName,omitempty"`
	Type        string `json:"type,omitempty"`
	Status      string `json:"status,omitempty"`
	Health      string `json:"health,omitempty"`
	Description string `json:"description,omitempty"`
	Icon        string `json:"icon,omitempty"`
}

// Label returns the display name, falling back to the id.
func (d ServerDescriptor) Label() string {
	if d.DisplayName != "" {
		return d.DisplayName
	}
	return d.ID
}

// ThemeMode is the configured presentation mode.
type ThemeMode string

const (
	ThemeModeLight  ThemeMode = "light"
	ThemeModeDark   ThemeMode = "dark"
	ThemeModeSystem ThemeMode = "system"
)

// Valid reports whether m is one of the three known modes.
func (m ThemeMode) Valid() bool {
	switch m {
	case ThemeModeLight, ThemeModeDark, ThemeModeSystem:
		return true
	}
	return false
}

// ThemeConfig is the persisted theme configuration.
type ThemeConfig struct {
	Mode        ThemeMode `json:"mode" yaml:"mode"`
	AccentColor string    `json:"accentColor" yaml:"accentColor"`
	Radius      string    `json:"radius" yaml:"radius"`
}

// Appearance is a resolved binary presentation mode.
type Appearance string

const (
	AppearanceLight Appearance = "light"
	AppearanceDark  Appearance = "dark"
)

// Notification is an event delivered over the live backend session.
type Notification struct {
	Method string
	Params map[string]any
}

// MCP list_changed notifications that signal a possible inventory change.
const (
	NotificationToolsListChanged     = "notifications/tools/list_changed"
	NotificationResourcesListChanged = "notifications/resources/list_changed"
	NotificationPromptsListChanged   = "notifications/prompts/list_changed"
)

// IsInventoryChange reports whether the notification should trigger a
// server inventory refresh.
func (n Notification) IsInventoryChange() bool {
	switch n.Method {
	case NotificationToolsListChanged, NotificationResourcesListChanged, NotificationPromptsListChanged:
		return true
	}
	return false
}
