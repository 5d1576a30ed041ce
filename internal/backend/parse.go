package backend

import (
	"bytes"
	"encoding/json"
	"fmt"

	"envdash/internal/api"
)

// serverInfo is one entry of the core_mcpserver_list result.
type serverInfo struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	State       string `json:"state"`
	Health      string `json:"health"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

type serverListResponse struct {
	MCPServers []serverInfo `json:"mcpServers"`
}

func parseServers(text string) ([]api.ServerDescriptor, error) {
	trimmed := bytes.TrimSpace([]byte(text))
	if len(trimmed) == 0 {
		return []api.ServerDescriptor{}, nil
	}

	var infos []serverInfo
	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &infos); err != nil {
			return nil, fmt.Errorf("failed to parse server list: %w", err)
		}
	} else {
		var resp serverListResponse
		if err := json.Unmarshal(trimmed, &resp); err != nil {
			return nil, fmt.Errorf("failed to parse server list: %w", err)
		}
		infos = resp.MCPServers
	}

	out := make([]api.ServerDescriptor, 0, len(infos))
	seen := make(map[string]bool, len(infos))
	for _, info := range infos {
		if info.Name == "" {
			return nil, fmt.Errorf("server list entry without name")
		}
		if seen[info.Name] {
			return nil, fmt.Errorf("duplicate server %q in list", info.Name)
		}
		seen[info.Name] = true
		out = append(out, api.ServerDescriptor{
			ID:          info.Name,
			DisplayName: info.Name,
			Type:        info.Type,
			Status:      info.State,
			Health:      info.Health,
			Description: info.Description,
			Icon:        info.Icon,
		})
	}
	return out, nil
}

func parseTheme(text string) (api.ThemeConfig, error) {
	var cfg api.ThemeConfig
	if err := json.Unmarshal([]byte(text), &cfg); err != nil {
		return api.ThemeConfig{}, fmt.Errorf("failed to parse theme config: %w", err)
	}
	return cfg, nil
}
