package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"envdash/internal/registry"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"gopkg.in/yaml.v3"
)

// OutputFormat represents the output format for CLI commands
type OutputFormat string

const (
	OutputFormatTable OutputFormat = "table"
	OutputFormatJSON  OutputFormat = "json"
	OutputFormatYAML  OutputFormat = "yaml"
)

func parseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(s); f {
	case OutputFormatTable, OutputFormatJSON, OutputFormatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported output format: %s", s)
	}
}

// writeOutput prints data as JSON or YAML, or calls renderTable.
func writeOutput(w io.Writer, format OutputFormat, data any, renderTable func(io.Writer)) error {
	switch format {
	case OutputFormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	case OutputFormatYAML:
		// Round-trip through JSON so field names follow the json tags.
		raw, err := json.Marshal(data)
		if err != nil {
			return err
		}
		var generic any
		if err := json.Unmarshal(raw, &generic); err != nil {
			return err
		}
		out, err := yaml.Marshal(generic)
		if err != nil {
			return fmt.Errorf("failed to convert to YAML: %w", err)
		}
		_, err = w.Write(out)
		return err
	case OutputFormatTable:
		renderTable(w)
		return nil
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	return t
}

func renderServersTable(w io.Writer, snap registry.Snapshot) {
	if len(snap.Servers) == 0 {
		fmt.Fprintln(w, text.FgYellow.Sprint("No servers found"))
		return
	}

	t := newTable(w)
	t.AppendHeader(table.Row{"", "NAME", "STATE", "HEALTH", "TYPE", "DESCRIPTION"})
	for _, s := range snap.Servers {
		marker := ""
		if s.ID == snap.SelectedID {
			marker = "*"
		}
		t.AppendRow(table.Row{marker, s.Label(), formatState(s.Status), formatHealth(s.Health), s.Type, s.Description})
	}
	t.Render()
}

func formatHealth(health string) string {
	switch health {
	case "healthy":
		return text.FgGreen.Sprint(health)
	case "unhealthy":
		return text.FgRed.Sprint(health)
	case "":
		return "-"
	default:
		return text.FgYellow.Sprint(health)
	}
}

func formatState(state string) string {
	switch state {
	case "running", "Running":
		return text.FgGreen.Sprint(state)
	case "failed", "Failed":
		return text.FgRed.Sprint(state)
	case "":
		return "-"
	default:
		return state
	}
}

// renderKeyValueTable prints two-column rows.
func renderKeyValueTable(w io.Writer, rows [][2]string) {
	t := newTable(w)
	t.AppendHeader(table.Row{"PROPERTY", "VALUE"})
	for _, r := range rows {
		t.AppendRow(table.Row{r[0], r[1]})
	}
	t.Render()
}
