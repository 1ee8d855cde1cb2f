package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dd0wney/sclgraph/pkg/config"
	"github.com/dd0wney/sclgraph/pkg/explore"
	"github.com/dd0wney/sclgraph/pkg/export"
	"github.com/dd0wney/sclgraph/pkg/listing"
	"github.com/dd0wney/sclgraph/pkg/logging"
	"github.com/dd0wney/sclgraph/pkg/schema"
	"github.com/dd0wney/sclgraph/pkg/treestate"
	"github.com/dd0wney/sclgraph/pkg/triplestore"
	"github.com/dd0wney/sclgraph/pkg/triplestore/memstore"
	"github.com/dd0wney/sclgraph/pkg/triplestore/pgstore"
	"github.com/dd0wney/sclgraph/pkg/triplestore/sparqlhttp"
)

const storeTimeout = 30 * time.Second

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00ADD8")).
			MarginLeft(2).
			MarginTop(1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFB86C")).
			Padding(0, 1)

	selectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#005F87"))

	kindStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))

	pendingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFB86C"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5555")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#50FA7B")).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			MarginTop(1).
			MarginLeft(2)

	contentStyle = lipgloss.NewStyle().
			MarginLeft(2).
			MarginTop(1)
)

type view int

const (
	devicesView view = iota
	treeView
)

type keyMap struct {
	Up      key.Binding
	Down    key.Binding
	Enter   key.Binding
	Back    key.Binding
	Search  key.Binding
	Group   key.Binding
	Refresh key.Binding
	Export  key.Binding
	Quit    key.Binding
}

var keys = keyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "down"),
	),
	Enter: key.NewBinding(
		key.WithKeys("enter", " "),
		key.WithHelp("enter", "expand/collapse"),
	),
	Back: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "back to devices"),
	),
	Search: key.NewBinding(
		key.WithKeys("/"),
		key.WithHelp("/", "search"),
	),
	Group: key.NewBinding(
		key.WithKeys("g"),
		key.WithHelp("g", "toggle grouping"),
	),
	Refresh: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "refresh"),
	),
	Export: key.NewBinding(
		key.WithKeys("s"),
		key.WithHelp("s", "export snapshot"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Enter, k.Search, k.Export, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Enter, k.Back},
		{k.Search, k.Group, k.Refresh, k.Export},
		{k.Quit},
	}
}

// deviceRow pairs a table row with the identifier behind it.
type deviceRow struct {
	id   string
	name string
}

// treeRow is one visible line of the explorer: a node plus its depth.
type treeRow struct {
	id    string
	depth int
}

type model struct {
	nav      *explore.Navigator
	eng      *listing.Engine
	exporter *export.Exporter

	currentView view

	// Device list state.
	groupBy   listing.GroupBy
	search    textinput.Model
	searching bool
	devices   table.Model
	rows      []deviceRow
	loading   bool

	// Tree explorer state. collapsed is a view concern; the tree itself
	// keeps every loaded expansion.
	tree      *treestate.Tree
	collapsed map[string]bool
	visible   []treeRow
	cursor    int
	pending   string

	help       help.Model
	keys       keyMap
	width      int
	height     int
	message    string
	messageErr bool
}

type devicesMsg struct {
	result *listing.Result
	err    error
}

type childrenMsg struct {
	parentID string
	count    int
	err      error
}

type exportedMsg struct {
	receipt *export.Receipt
	err     error
}

func initialModel(nav *explore.Navigator, eng *listing.Engine, exporter *export.Exporter) model {
	ti := textinput.New()
	ti.Placeholder = "device name..."
	ti.CharLimit = 80
	ti.Width = 32

	columns := []table.Column{
		{Title: "Name", Width: 26},
		{Title: "Group", Width: 12},
		{Title: "Manufacturer", Width: 14},
		{Title: "Description", Width: 30},
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(12),
	)
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("#00ADD8")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(lipgloss.Color("#005F87")).
		Bold(false)
	t.SetStyles(s)

	return model{
		nav:       nav,
		eng:       eng,
		exporter:  exporter,
		groupBy:   listing.GroupByType,
		search:    ti,
		devices:   t,
		collapsed: make(map[string]bool),
		help:      help.New(),
		keys:      keys,
		loading:   true,
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.loadDevices())
}

func (m model) loadDevices() tea.Cmd {
	eng, groupBy, term := m.eng, m.groupBy, m.search.Value()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()
		result, err := eng.List(ctx, groupBy, term)
		return devicesMsg{result: result, err: err}
	}
}

func (m model) expandCmd(id string) tea.Cmd {
	tree, nav := m.tree, m.nav
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()
		nodes, err := tree.Expand(ctx, nav, id)
		return childrenMsg{parentID: id, count: len(nodes), err: err}
	}
}

func (m model) refreshCmd(id string) tea.Cmd {
	tree, nav := m.tree, m.nav
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()
		nodes, err := tree.Refresh(ctx, nav, id)
		return childrenMsg{parentID: id, count: len(nodes), err: err}
	}
}

func (m model) exportCmd() tea.Cmd {
	exporter, snap := m.exporter, m.tree.Snapshot()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()
		receipt, err := exporter.ExportTree(ctx, "", snap)
		return exportedMsg{receipt: receipt, err: err}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		if h := msg.Height - 10; h > 4 {
			m.devices.SetHeight(h)
		}

	case devicesMsg:
		m.loading = false
		if msg.err != nil {
			m.message = fmt.Sprintf("Listing failed: %v", msg.err)
			m.messageErr = true
			break
		}
		m.setDevices(msg.result)
		m.message = fmt.Sprintf("%d devices", msg.result.TotalCount)
		m.messageErr = false

	case childrenMsg:
		m.pending = ""
		if msg.err != nil {
			m.message = fmt.Sprintf("Expand failed: %v", msg.err)
			m.messageErr = true
			break
		}
		m.collapsed[msg.parentID] = false
		m.rebuildVisible()
		m.message = fmt.Sprintf("%d children", msg.count)
		m.messageErr = false

	case exportedMsg:
		if msg.err != nil {
			m.message = fmt.Sprintf("Export failed: %v", msg.err)
			m.messageErr = true
			break
		}
		m.message = fmt.Sprintf("Exported %s (%d bytes)", msg.receipt.Location, msg.receipt.StoredBytes)
		m.messageErr = false

	case tea.KeyMsg:
		if m.searching {
			return m.updateSearch(msg)
		}
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit

		case key.Matches(msg, m.keys.Search):
			if m.currentView == devicesView {
				m.searching = true
				m.search.Focus()
				return m, textinput.Blink
			}

		case key.Matches(msg, m.keys.Group):
			if m.currentView == devicesView {
				if m.groupBy == listing.GroupByType {
					m.groupBy = listing.GroupByBay
				} else {
					m.groupBy = listing.GroupByType
				}
				m.loading = true
				return m, m.loadDevices()
			}

		case key.Matches(msg, m.keys.Refresh):
			switch m.currentView {
			case devicesView:
				m.loading = true
				return m, m.loadDevices()
			case treeView:
				if row, ok := m.selectedRow(); ok && m.pending == "" {
					m.pending = row.id
					return m, m.refreshCmd(row.id)
				}
			}

		case key.Matches(msg, m.keys.Enter):
			switch m.currentView {
			case devicesView:
				return m.openSelectedDevice()
			case treeView:
				return m.toggleSelected()
			}

		case key.Matches(msg, m.keys.Back):
			if m.currentView == treeView {
				// The tree belongs to one root selection; leaving the
				// explorer discards it.
				m.currentView = devicesView
				m.tree = nil
				m.collapsed = make(map[string]bool)
				m.visible = nil
				m.cursor = 0
				m.message = ""
			}

		case key.Matches(msg, m.keys.Export):
			if m.currentView == treeView && m.exporter != nil {
				return m, m.exportCmd()
			}

		case key.Matches(msg, m.keys.Up):
			if m.currentView == treeView && m.cursor > 0 {
				m.cursor--
			}

		case key.Matches(msg, m.keys.Down):
			if m.currentView == treeView && m.cursor < len(m.visible)-1 {
				m.cursor++
			}
		}
	}

	if m.currentView == devicesView && !m.searching {
		m.devices, cmd = m.devices.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.searching = false
		m.search.Blur()
		m.loading = true
		return m, m.loadDevices()
	case "esc":
		m.searching = false
		m.search.Blur()
		m.search.SetValue("")
		m.loading = true
		return m, m.loadDevices()
	}
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	return m, cmd
}

// setDevices flattens the grouped result into table rows, groups in
// lexical order.
func (m *model) setDevices(result *listing.Result) {
	groups := make([]string, 0, len(result.Groups))
	for g := range result.Groups {
		groups = append(groups, g)
	}
	sort.Strings(groups)

	m.rows = m.rows[:0]
	tableRows := make([]table.Row, 0, result.TotalCount)
	for _, g := range groups {
		for _, e := range result.Groups[g] {
			name := e.ID
			if e.Name != nil {
				name = *e.Name
			}
			m.rows = append(m.rows, deviceRow{id: e.ID, name: name})
			tableRows = append(tableRows, table.Row{
				name,
				g,
				strOrDash(e.Manufacturer),
				strOrDash(e.Desc),
			})
		}
	}
	m.devices.SetRows(tableRows)
}

func strOrDash(s *string) string {
	if s == nil {
		return "—"
	}
	return *s
}

func (m model) openSelectedDevice() (tea.Model, tea.Cmd) {
	idx := m.devices.Cursor()
	if idx < 0 || idx >= len(m.rows) {
		return m, nil
	}
	selected := m.rows[idx]

	root := explore.Node{
		ID:         selected.id,
		Kind:       schema.KindIED,
		Label:      selected.name,
		Expandable: m.nav.Registry().Expandable(schema.KindIED),
	}
	m.tree = treestate.NewTree(root)
	m.collapsed = make(map[string]bool)
	m.cursor = 0
	m.currentView = treeView
	m.rebuildVisible()

	m.pending = root.ID
	return m, m.expandCmd(root.ID)
}

func (m model) toggleSelected() (tea.Model, tea.Cmd) {
	row, ok := m.selectedRow()
	if !ok {
		return m, nil
	}
	node, ok := m.tree.Node(row.id)
	if !ok {
		return m, nil
	}
	if !node.Expandable {
		m.message = fmt.Sprintf("%s is a leaf", node.Label)
		m.messageErr = false
		return m, nil
	}

	switch m.tree.State(row.id) {
	case treestate.Loaded:
		// Cached; toggling is purely a view change, no store call.
		m.collapsed[row.id] = !m.collapsed[row.id]
		m.rebuildVisible()
		return m, nil
	case treestate.InFlight:
		return m, nil
	default:
		if m.pending != "" {
			return m, nil
		}
		m.pending = row.id
		return m, m.expandCmd(row.id)
	}
}

func (m model) selectedRow() (treeRow, bool) {
	if m.cursor < 0 || m.cursor >= len(m.visible) {
		return treeRow{}, false
	}
	return m.visible[m.cursor], true
}

// rebuildVisible flattens the loaded tree into rows, skipping collapsed
// subtrees.
func (m *model) rebuildVisible() {
	if m.tree == nil {
		m.visible = nil
		return
	}
	snap := m.tree.Snapshot()
	m.visible = m.visible[:0]

	var walk func(id string, depth int)
	walk = func(id string, depth int) {
		m.visible = append(m.visible, treeRow{id: id, depth: depth})
		if m.collapsed[id] {
			return
		}
		for _, child := range snap.Children[id] {
			walk(child, depth+1)
		}
	}
	walk(snap.RootID, 0)

	if m.cursor >= len(m.visible) {
		m.cursor = len(m.visible) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m model) View() string {
	if m.width == 0 {
		return "Initializing..."
	}

	var s strings.Builder
	s.WriteString(titleStyle.Render("⚡ sclgraph — substation explorer"))
	s.WriteString("\n\n")

	switch m.currentView {
	case devicesView:
		s.WriteString(m.renderDevices())
	case treeView:
		s.WriteString(m.renderTree())
	}

	if m.message != "" {
		s.WriteString("\n\n")
		if m.messageErr {
			s.WriteString(contentStyle.Render(errorStyle.Render("✗ " + m.message)))
		} else {
			s.WriteString(contentStyle.Render(successStyle.Render("✓ " + m.message)))
		}
	}

	s.WriteString("\n")
	s.WriteString(helpStyle.Render(m.help.ShortHelpView(m.keys.ShortHelp())))
	return s.String()
}

func (m model) renderDevices() string {
	var s strings.Builder

	header := fmt.Sprintf("Devices by %s", m.groupBy)
	if m.loading {
		header += "  (loading...)"
	}
	s.WriteString(headerStyle.Render(header))
	s.WriteString("\n\n")

	if m.searching || m.search.Value() != "" {
		s.WriteString("Search: ")
		s.WriteString(m.search.View())
		s.WriteString("\n\n")
	}

	s.WriteString(m.devices.View())
	s.WriteString("\n")
	s.WriteString(helpStyle.Render("enter: explore • g: group by type/bay • /: search • r: reload"))
	return contentStyle.Render(s.String())
}

func (m model) renderTree() string {
	var s strings.Builder

	root := m.tree.Root()
	s.WriteString(headerStyle.Render("Tree: " + root.Label))
	s.WriteString("\n\n")

	for i, row := range m.visible {
		node, ok := m.tree.Node(row.id)
		if !ok {
			continue
		}

		marker := "•"
		if node.Expandable {
			switch {
			case row.id == m.pending:
				marker = "…"
			case m.tree.State(row.id) == treestate.Loaded && !m.collapsed[row.id]:
				marker = "▾"
			default:
				marker = "▸"
			}
		}

		line := fmt.Sprintf("%s%s %s %s",
			strings.Repeat("  ", row.depth),
			marker,
			node.Label,
			kindStyle.Render("["+string(node.Kind)+"]"))

		if i == m.cursor {
			line = selectedStyle.Render(line)
		} else if row.id == m.pending {
			line = pendingStyle.Render(line)
		}
		s.WriteString(line)
		s.WriteString("\n")
	}

	s.WriteString("\n")
	s.WriteString(helpStyle.Render("enter: expand/collapse • r: refresh node • s: export • esc: back"))
	return contentStyle.Render(s.String())
}

func openStore(ctx context.Context, cfg config.Config, logger logging.Logger) (triplestore.Client, error) {
	switch cfg.Store.Backend {
	case "memory":
		return memstore.NewFixture(), nil
	case "sparql":
		client, err := sparqlhttp.New(ctx, sparqlhttp.Config{
			Endpoint:       cfg.Store.SPARQL.Endpoint,
			Timeout:        cfg.Store.SPARQL.Timeout.Std(),
			MaxConnections: cfg.Store.SPARQL.MaxConnections,
			Username:       cfg.Store.SPARQL.Username,
			Password:       cfg.Store.SPARQL.Password,
			Logger:         logger,
		})
		if err != nil {
			return nil, err
		}
		return client, nil
	case "postgres":
		store, err := pgstore.New(ctx, pgstore.Config{URL: cfg.Store.Postgres.URL, Logger: logger})
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

func main() {
	configPath := flag.String("config", "", "Path to YAML configuration file")
	backend := flag.String("backend", "", "Store backend override (memory|sparql|postgres)")
	endpoint := flag.String("endpoint", "", "SPARQL endpoint override")
	dsn := flag.String("dsn", "", "PostgreSQL URL override")
	exportDir := flag.String("export-dir", ".", "Directory for exported snapshots")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}
	if *backend != "" {
		cfg.Store.Backend = *backend
	}
	if *endpoint != "" {
		cfg.Store.SPARQL.Endpoint = *endpoint
	}
	if *dsn != "" {
		cfg.Store.Postgres.URL = *dsn
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	// The terminal owns stdout; keep logs quiet on stderr.
	logger := logging.NewJSONLogger(os.Stderr, logging.ErrorLevel)

	store, err := openStore(context.Background(), cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open %s store: %v\n", cfg.Store.Backend, err)
		os.Exit(1)
	}
	defer store.Close()

	voc := schema.NewVocabulary(cfg.Store.Namespace)
	nav := explore.NewNavigator(explore.Config{Store: store, Vocabulary: voc, Logger: logger})
	eng := listing.NewEngine(listing.Config{Store: store, Vocabulary: voc, Logger: logger})

	dir := cfg.Export.Dir
	if dir == "" {
		dir = *exportDir
	}
	sink, err := export.NewDirSink(dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open export directory: %v\n", err)
		os.Exit(1)
	}
	exporter := export.NewExporter(export.Config{Sink: sink, Logger: logger})

	p := tea.NewProgram(initialModel(nav, eng, exporter), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error running program: %v\n", err)
		os.Exit(1)
	}
}
