// Package browse is a small terminal UI for paging through stored listings
// by category.
package browse

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jobpulse/jobpulse/internal/model"
)

// listingsPerPage is how many rows are loaded per category.
const listingsPerPage = 100

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")).
			Padding(0, 1)

	tabStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Padding(0, 1)

	activeTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("24")).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
			Bold(true)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	selectedTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("24"))

	selectedSubtitleStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("252")).
				Background(lipgloss.Color("24"))

	statusBarStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Foreground(lipgloss.Color("252")).
			Background(lipgloss.Color("236"))
)

// listingsLoadedMsg is sent when a category's rows have been read.
type listingsLoadedMsg struct {
	category model.Category
	listings []model.Listing
	err      error
}

type browseModel struct {
	store    model.ListingStore
	catIdx   int
	listings []model.Listing
	cursor   int
	viewport viewport.Model
	width    int
	height   int
	ready    bool
	err      error
}

func (m browseModel) category() model.Category {
	return model.Categories()[m.catIdx]
}

func (m browseModel) Init() tea.Cmd {
	return m.load(m.category())
}

func (m browseModel) load(cat model.Category) tea.Cmd {
	store := m.store
	return func() tea.Msg {
		listings, err := store.LatestListings(context.Background(), cat, listingsPerPage)
		return listingsLoadedMsg{category: cat, listings: listings, err: err}
	}
}

func (m browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		vpHeight := msg.Height - 4 // tabs + status bar
		if vpHeight < 1 {
			vpHeight = 1
		}
		if !m.ready {
			m.viewport = viewport.New(msg.Width, vpHeight)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = vpHeight
		}
		m.viewport.SetContent(m.renderList())

	case listingsLoadedMsg:
		if msg.category != m.category() {
			return m, nil
		}
		m.err = msg.err
		m.listings = msg.listings
		m.cursor = 0
		if m.ready {
			m.viewport.SetContent(m.renderList())
			m.viewport.GotoTop()
		}

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "j", "down":
			if m.cursor < len(m.listings)-1 {
				m.cursor++
				m.syncViewport()
			}
		case "k", "up":
			if m.cursor > 0 {
				m.cursor--
				m.syncViewport()
			}
		case "tab", "l", "right":
			m.catIdx = (m.catIdx + 1) % len(model.Categories())
			return m, m.load(m.category())
		case "shift+tab", "h", "left":
			m.catIdx = (m.catIdx + len(model.Categories()) - 1) % len(model.Categories())
			return m, m.load(m.category())
		case "enter", "o":
			if m.cursor < len(m.listings) {
				openURL(m.listings[m.cursor].URL)
			}
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// syncViewport keeps the cursor row visible. Each listing renders as three
// lines (title, subtitle, blank).
func (m *browseModel) syncViewport() {
	m.viewport.SetContent(m.renderList())
	top := m.cursor * 3
	if top < m.viewport.YOffset {
		m.viewport.SetYOffset(top)
	}
	bottom := top + 3
	if bottom > m.viewport.YOffset+m.viewport.Height {
		m.viewport.SetYOffset(bottom - m.viewport.Height)
	}
}

func (m browseModel) renderList() string {
	if m.err != nil {
		return fmt.Sprintf("error loading listings: %v", m.err)
	}
	if len(m.listings) == 0 {
		return subtitleStyle.Render("nothing stored in this category yet")
	}

	var b strings.Builder
	for i, l := range m.listings {
		title := titleStyle
		subtitle := subtitleStyle
		if i == m.cursor {
			title = selectedTitleStyle
			subtitle = selectedSubtitleStyle
		}
		b.WriteString(title.Render(l.Title))
		b.WriteString("\n")
		sub := l.Company
		if !l.CreatedAt.IsZero() {
			sub += " · " + l.CreatedAt.Local().Format("Jan 2 15:04")
		}
		b.WriteString(subtitle.Render(sub))
		b.WriteString("\n\n")
	}
	return b.String()
}

func (m browseModel) renderTabs() string {
	var tabs []string
	for i, cat := range model.Categories() {
		style := tabStyle
		if i == m.catIdx {
			style = activeTabStyle
		}
		tabs = append(tabs, style.Render(string(cat)))
	}
	return headerStyle.Render("jobpulse") + strings.Join(tabs, "")
}

func (m browseModel) View() string {
	if !m.ready {
		return "loading..."
	}
	status := fmt.Sprintf("%d listings · j/k move · tab category · enter open · q quit", len(m.listings))
	return m.renderTabs() + "\n" +
		m.viewport.View() + "\n" +
		statusBarStyle.Width(m.width).Render(status)
}

// openURL launches the system browser. Errors are ignored: there is nowhere
// useful to surface them from inside the TUI.
func openURL(url string) {
	if url == "" {
		return
	}
	switch runtime.GOOS {
	case "darwin":
		exec.Command("open", url).Start()
	case "windows":
		exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	default:
		exec.Command("xdg-open", url).Start()
	}
}

// Run opens the interactive browser over the given store.
func Run(store model.ListingStore) error {
	m := browseModel{store: store}
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
