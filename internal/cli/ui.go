package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/flowmodel/pkg/model"
)

// Terminal palette (256-color codes).
var (
	colorAccent  = lipgloss.Color("36")
	colorOK      = lipgloss.Color("35")
	colorWarn    = lipgloss.Color("220")
	colorFail    = lipgloss.Color("167")
	colorCommand = lipgloss.Color("75")
	colorText    = lipgloss.Color("255")
	colorMuted   = lipgloss.Color("245")
	colorFaint   = lipgloss.Color("240")
)

var (
	StyleTitle     = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	StyleHighlight = lipgloss.NewStyle().Foreground(colorAccent)
	StyleDim       = lipgloss.NewStyle().Foreground(colorFaint)
	StyleValue     = lipgloss.NewStyle().Foreground(colorText)
	StyleWarning   = lipgloss.NewStyle().Foreground(colorWarn)

	styleIconSpinner = lipgloss.NewStyle().Foreground(colorAccent)
	styleCommand     = lipgloss.NewStyle().Foreground(colorCommand)
	styleHeader      = lipgloss.NewStyle().Foreground(colorMuted).Bold(true)
	styleBorder      = lipgloss.NewStyle().Foreground(colorFaint)
	styleKey         = lipgloss.NewStyle().Foreground(colorMuted).Width(12)
)

const (
	iconInfo  = "›"
	iconArrow = "→"
)

// marker is the colored icon in front of a status line.
type marker struct {
	icon  string
	style lipgloss.Style
}

var (
	markSuccess = marker{"✓", lipgloss.NewStyle().Foreground(colorOK)}
	markError   = marker{"✗", lipgloss.NewStyle().Foreground(colorFail)}
	markWarning = marker{"!", lipgloss.NewStyle().Foreground(colorWarn)}
	markInfo    = marker{iconInfo, lipgloss.NewStyle().Foreground(colorMuted)}
)

func (m marker) line(w io.Writer, msg string) {
	fmt.Fprintln(w, m.style.Render(m.icon)+" "+msg)
}

func printSuccess(format string, args ...any) { markSuccess.line(os.Stdout, fmt.Sprintf(format, args...)) }

// printError writes to stderr so that it never mixes with exported data.
func printError(format string, args ...any) { markError.line(os.Stderr, fmt.Sprintf(format, args...)) }

func printWarning(format string, args ...any) {
	markWarning.line(os.Stdout, StyleWarning.Render(fmt.Sprintf(format, args...)))
}

func printInfo(format string, args ...any) { markInfo.line(os.Stdout, fmt.Sprintf(format, args...)) }

// printDetail prints an indented, dimmed line below a status line.
func printDetail(format string, args ...any) {
	fmt.Println("  " + StyleDim.Render(fmt.Sprintf(format, args...)))
}

func printFile(path string) {
	fmt.Println("  " + StyleDim.Render(iconArrow) + " " + StyleValue.Render(path))
}

func printKeyValue(key, value string) {
	fmt.Println(styleKey.Render(key) + " " + StyleValue.Render(value))
}

// printNextStep suggests a follow-up command.
func printNextStep(description, cmd string) {
	fmt.Println(StyleDim.Render(description+":") + " " + styleCommand.Render(cmd))
}

// diagramStats counts the elements of a diagram by kind.
type diagramStats struct {
	Shapes, Connections, Labels int
}

func statsOf(v model.View) diagramStats {
	var s diagramStats
	for el := range v.All() {
		switch el.Kind {
		case model.KindShape:
			s.Shapes++
		case model.KindConnection:
			s.Connections++
		case model.KindLabel:
			s.Labels++
		}
	}
	return s
}

// String renders the statistics as "3 shapes · 2 connections".
func (s diagramStats) String() string {
	var parts []string
	add := func(n int, noun string) {
		if n == 0 {
			return
		}
		if n != 1 {
			noun += "s"
		}
		parts = append(parts, fmt.Sprintf("%d %s", n, noun))
	}
	add(s.Shapes, "shape")
	add(s.Connections, "connection")
	add(s.Labels, "label")
	if len(parts) == 0 {
		return "empty"
	}
	return strings.Join(parts, " · ")
}

// printStats prints diagram statistics on a single line.
func printStats(s diagramStats) {
	fmt.Println("  " + StyleDim.Render(s.String()))
}

// renderTable renders rows under headers with the shared border style.
func renderTable(headers []string, rows [][]string) string {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(styleBorder).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styleHeader
			}
			if col == 0 {
				return StyleHighlight
			}
			return StyleValue
		}).
		Render()
}

// elementRows lists the non-root elements of v in registry order.
func elementRows(v model.View) [][]string {
	var rows [][]string
	for el := range v.All() {
		if el.Kind == model.KindRoot {
			continue
		}
		rows = append(rows, []string{el.ID, el.Type, el.Name(), describeGeometry(el), el.Parent})
	}
	return rows
}

func describeGeometry(el *model.Element) string {
	switch el.Kind {
	case model.KindConnection:
		return el.Source + " " + iconArrow + " " + el.Target
	case model.KindLabel:
		return "on " + el.LabelTarget
	default:
		return fmt.Sprintf("%g,%g %gx%g", el.X, el.Y, el.Width, el.Height)
	}
}

// printElements writes the element table of v to w.
func printElements(w io.Writer, v model.View) {
	fmt.Fprintln(w, renderTable([]string{"ID", "Type", "Name", "Geometry", "Parent"}, elementRows(v)))
}
