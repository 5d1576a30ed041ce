package backend

import (
	"testing"

	"envdash/internal/api"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseServers(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []string
		wantErr string
	}{
		{
			name:  "wrapped list",
			input: `{"mcpServers":[{"name":"kubernetes","state":"running"},{"name":"prometheus"}]}`,
			want:  []string{"kubernetes", "prometheus"},
		},
		{
			name:  "bare array",
			input: `[{"name":"grafana"}]`,
			want:  []string{"grafana"},
		},
		{
			name:  "empty body",
			input: "  ",
			want:  []string{},
		},
		{
			name:  "empty wrapper",
			input: `{}`,
			want:  []string{},
		},
		{
			name:    "missing name",
			input:   `[{"type":"stdio"}]`,
			wantErr: "without name",
		},
		{
			name:    "duplicate name",
			input:   `[{"name":"a"},{"name":"a"}]`,
			wantErr: "duplicate",
		},
		{
			name:    "not json",
			input:   `servers: none`,
			wantErr: "failed to parse",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseServers(tt.input)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			ids := make([]string, 0, len(got))
			for _, d := range got {
				ids = append(ids, d.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestParseServers_MapsFields(t *testing.T) {
	got, err := parseServers(`{"mcpServers":[{"name":"k8s","type":"stdio","state":"running","health":"healthy","description":"cluster","icon":"☸"}]}`)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, api.ServerDescriptor{
		ID:          "k8s",
		DisplayName: "k8s",
		Type:        "stdio",
		Status:      "running",
		Health:      "healthy",
		Description: "cluster",
		Icon:        "☸",
	}, got[0])
}

func TestParseTheme(t *testing.T) {
	cfg, err := parseTheme(`{"mode":"system","accentColor":"#00ADD8","radius":"4px"}`)
	require.NoError(t, err)
	assert.Equal(t, api.ThemeConfig{Mode: api.ThemeModeSystem, AccentColor: "#00ADD8", Radius: "4px"}, cfg)

	_, err = parseTheme("dark")
	assert.Error(t, err)
}
