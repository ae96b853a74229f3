package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

// Format represents an output format.
type Format string

const (
	FormatJSON  Format = "json"
	FormatTable Format = "table"
	FormatYAML  Format = "yaml"
)

// ParseFormat parses a format string, returning an error for invalid formats.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "json":
		return FormatJSON, nil
	case "table":
		return FormatTable, nil
	case "yaml":
		return FormatYAML, nil
	case "":
		return "", nil
	default:
		return "", fmt.Errorf("invalid format: %q (must be json, table, or yaml)", s)
	}
}

// Color palette.
var (
	primaryColor = lipgloss.Color("#7C3AED")
	successColor = lipgloss.Color("#10B981")
	errorColor   = lipgloss.Color("#EF4444")
	mutedColor   = lipgloss.Color("#6B7280")
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			MarginBottom(1)

	labelStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Width(22)

	valueStyle = lipgloss.NewStyle()

	successStyle = lipgloss.NewStyle().
			Foreground(successColor)

	errorStyle = lipgloss.NewStyle().
			Foreground(errorColor)

	noticeStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(errorColor).
			Padding(0, 2)
)

// Row is one label/value line of a table.
type Row struct {
	Label string
	Value string
	// Good/Bad color the value; neither leaves it plain
	Good bool
	Bad  bool
}

// Tabular is implemented by payloads with a table rendering.
type Tabular interface {
	Title() string
	Rows() []Row
	Notice() string
}

// Renderer handles output formatting.
type Renderer struct {
	format  Format
	noColor bool
	out     io.Writer
}

// NewRenderer creates a renderer from CLI context. Table is the default on
// a terminal, JSON otherwise.
func NewRenderer(c *cli.Context) (*Renderer, error) {
	format, err := ParseFormat(c.String("format"))
	if err != nil {
		return nil, err
	}
	if format == "" {
		if isTTY(os.Stdout) {
			format = FormatTable
		} else {
			format = FormatJSON
		}
	}
	return &Renderer{format: format, noColor: c.Bool("no-color"), out: c.App.Writer}, nil
}

// Render writes data in the selected format.
func (r *Renderer) Render(data Tabular) error {
	switch r.format {
	case FormatJSON:
		enc := json.NewEncoder(r.out)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	case FormatYAML:
		enc := yaml.NewEncoder(r.out)
		defer enc.Close()
		return enc.Encode(data)
	default:
		_, err := fmt.Fprintln(r.out, r.table(data))
		return err
	}
}

func (r *Renderer) table(data Tabular) string {
	style := func(s lipgloss.Style) lipgloss.Style {
		if r.noColor {
			return s.UnsetForeground().UnsetBorderForeground()
		}
		return s
	}

	var b strings.Builder
	b.WriteString(style(titleStyle).Render(data.Title()))
	b.WriteString("\n")
	for _, row := range data.Rows() {
		vs := style(valueStyle)
		switch {
		case row.Good:
			vs = style(successStyle)
		case row.Bad:
			vs = style(errorStyle)
		}
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
			style(labelStyle).Render(row.Label),
			vs.Render(row.Value)))
		b.WriteString("\n")
	}
	if notice := data.Notice(); notice != "" {
		b.WriteString("\n")
		b.WriteString(style(noticeStyle).Render(notice))
	}
	return strings.TrimRight(b.String(), "\n")
}

func isTTY(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
