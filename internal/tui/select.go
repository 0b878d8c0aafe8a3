// Package tui provides the interactive edition picker shown when an
// enrichment search returns several candidate matches.
package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/lepinkainen/bookshelf/internal/enrichment"
)

const (
	defaultListWidth  = 72
	defaultListHeight = 20
)

var runProgram = func(m tea.Model) (tea.Model, error) {
	return tea.NewProgram(m).Run()
}

// SelectionAction represents the user's action in the selection UI.
type SelectionAction int

const (
	// ActionNone indicates no action was taken.
	ActionNone SelectionAction = iota
	// ActionSelected indicates the user picked a match.
	ActionSelected
	// ActionSkipped indicates the user skipped enrichment for this book.
	ActionSkipped
)

// SelectionResult holds the outcome of a picker run.
type SelectionResult struct {
	Action    SelectionAction
	Selection *enrichment.Match
}

type matchItem struct {
	enrichment.Match
}

func (i matchItem) FilterValue() string {
	return i.Match.Title
}

type itemStyles struct {
	normal    lipgloss.Style
	selected  lipgloss.Style
	title     lipgloss.Style
	author    lipgloss.Style
	metadata  lipgloss.Style
	blurbText lipgloss.Style
}

func newItemStyles() itemStyles {
	asciiBorder := lipgloss.Border{
		Top:         "-",
		Bottom:      "-",
		Left:        "|",
		Right:       "|",
		TopLeft:     "+",
		TopRight:    "+",
		BottomLeft:  "+",
		BottomRight: "+",
	}

	container := lipgloss.NewStyle().
		Border(asciiBorder).
		BorderForeground(lipgloss.Color("62")).
		Padding(0, 1).
		Foreground(lipgloss.Color("252"))

	selected := container.Copy().
		BorderForeground(lipgloss.Color("214")).
		Foreground(lipgloss.Color("230")).
		Background(lipgloss.Color("237"))

	return itemStyles{
		normal:   container,
		selected: selected,
		title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("254")),
		author: lipgloss.NewStyle().
			Foreground(lipgloss.Color("110")),
		metadata: lipgloss.NewStyle().
			Foreground(lipgloss.Color("247")).
			Faint(true),
		blurbText: lipgloss.NewStyle().
			Foreground(lipgloss.Color("248")),
	}
}

type matchDelegate struct {
	styles itemStyles
}

func newDelegate() matchDelegate {
	return matchDelegate{styles: newItemStyles()}
}

func (d matchDelegate) Height() int                         { return 4 }
func (d matchDelegate) Spacing() int                        { return 1 }
func (d matchDelegate) Update(tea.Msg, *list.Model) tea.Cmd { return nil }

func (d matchDelegate) Render(w io.Writer, m list.Model, idx int, item list.Item) {
	match, ok := item.(matchItem)
	if !ok {
		return
	}

	titleLine := d.styles.title.Render(match.Title)
	authorLine := d.styles.author.Render(strings.Join(match.Authors, ", "))
	metadataLine := d.styles.metadata.Render(formatMetadata(match.Match))
	blurb := truncate(match.Description, m.Width()-4)
	blurbLine := d.styles.blurbText.Render(blurb)

	content := lipgloss.JoinVertical(lipgloss.Left, titleLine, authorLine, metadataLine, blurbLine)

	container := d.styles.normal
	if idx == m.Index() {
		container = d.styles.selected
	}
	_, _ = fmt.Fprint(w, container.Render(content))
}

type model struct {
	list        list.Model
	searchTitle string
	result      SelectionResult
}

func newModel(title string, items []matchItem) *model {
	listItems := make([]list.Item, len(items))
	for i, item := range items {
		listItems[i] = item
	}

	l := list.New(listItems, newDelegate(), defaultListWidth, defaultListHeight)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)
	l.SetShowTitle(false)
	l.SetShowPagination(false)
	l.DisableQuitKeybindings()
	l.Styles.NoItems = lipgloss.NewStyle()

	return &model{
		list:        l,
		searchTitle: title,
		result:      SelectionResult{Action: ActionNone},
	}
}

func (m *model) Init() tea.Cmd { return nil }

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "enter":
			if selected, ok := m.list.SelectedItem().(matchItem); ok {
				match := selected.Match
				m.result = SelectionResult{
					Action:    ActionSelected,
					Selection: &match,
				}
				return m, tea.Quit
			}
		case "s", "esc", "ctrl+c", "q":
			m.result = SelectionResult{Action: ActionSkipped}
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		width := clamp(defaultListWidth, msg.Width-4, 40)
		height := clamp(defaultListHeight, msg.Height-6, 5)
		m.list.SetSize(width, height)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *model) View() string {
	header := headerStyle.Render(fmt.Sprintf("Multiple editions found for: %s", m.searchTitle))
	listView := m.list.View()
	help := helpStyle.Render("Up/Down navigate | Enter select | s skip")
	return lipgloss.JoinVertical(lipgloss.Left, header, listView, help)
}

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("214")).
			MarginBottom(1)

	helpStyle = lipgloss.NewStyle().
			MarginTop(1).
			Foreground(lipgloss.Color("244"))
)

// SelectMatch presents an interactive picker over enrichment matches.
// The returned selection is nil when the user skipped.
func SelectMatch(title string, matches []enrichment.Match) (SelectionResult, error) {
	if len(matches) == 0 {
		return SelectionResult{Action: ActionSkipped}, nil
	}

	items := make([]matchItem, len(matches))
	for i, match := range matches {
		items[i] = matchItem{Match: match}
	}
	m := newModel(title, items)
	finalModel, err := runProgram(m)
	if err != nil {
		return SelectionResult{}, err
	}

	if typed, ok := finalModel.(*model); ok {
		return typed.result, nil
	}
	return SelectionResult{}, fmt.Errorf("unexpected program result")
}

func truncate(value string, width int) string {
	value = strings.Join(strings.Fields(value), " ")
	if width <= 0 || len(value) <= width {
		return value
	}
	if width <= 3 {
		return value[:width]
	}
	return value[:width-3] + "..."
}

// formatMetadata builds the publisher/date/pages line under the author.
func formatMetadata(match enrichment.Match) string {
	var parts []string
	if match.Publisher != "" {
		parts = append(parts, match.Publisher)
	}
	if match.DatePublished != "" {
		parts = append(parts, match.DatePublished)
	}
	if match.PageCount > 0 {
		parts = append(parts, fmt.Sprintf("%d pages", match.PageCount))
	}
	if match.ISBN != "" {
		parts = append(parts, "ISBN "+match.ISBN)
	}
	if len(parts) == 0 {
		return "No metadata available"
	}
	return strings.Join(parts, " | ")
}

func clamp(defaultValue, available, minimum int) int {
	width := defaultValue
	if available > 0 && available < defaultValue {
		width = available
	}
	if width < minimum {
		width = minimum
	}
	return width
}
