// Package tui is the interactive list: browse, search, and edit items
// without leaving the terminal.
package tui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"trek/internal/config"
	"trek/internal/model"
	"trek/internal/store"
	"trek/internal/ui"
	"trek/internal/view"
)

// listItem adapts a model.Item to bubbles/list.Item
type listItem struct {
	item      model.Item
	completed string
	statuses  []string
}

func (i listItem) Title() string       { return i.item.Title }
func (i listItem) Description() string { return "" }
func (i listItem) FilterValue() string { return i.item.Title }

// Custom delegate to control how items render (single line)
type itemDelegate struct{}

func (d itemDelegate) Height() int                               { return 1 }
func (d itemDelegate) Spacing() int                              { return 0 }
func (d itemDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }
func (d itemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(listItem)
	if !ok {
		return
	}
	done := it.item.Status == it.completed
	box := boxUnchecked
	if done {
		box = boxChecked
	}
	boxStyled := statusStyle(it.item.Status, it.completed, it.statuses).Render(box)

	title := it.item.Title
	if done {
		title = doneStyle.Render(title)
	}
	tag := mutedStyle.Render("(" + it.item.Status + ")")
	if it.item.Progress != nil {
		tag += mutedStyle.Render(fmt.Sprintf(" %d%%", *it.item.Progress))
	}

	line := fmt.Sprintf("%s %s %s", boxStyled, title, tag)
	prefix := "  "
	if index == m.Index() {
		prefix = selectedStyle.Render("> ")
	}
	fmt.Fprintln(w, prefix+line)
}

type mode int

const (
	modeList mode = iota
	modeAdd
	modeEdit
	modeSearch
)

// searchTickMsg lands after the debounce interval; only the newest
// generation gets applied, keystrokes in between go stale.
type searchTickMsg struct{ seq int }

type undoEntry struct {
	item model.Item
	pos  int
}

// Model is the Bubble Tea model behind `trek tui`.
type Model struct {
	store *store.Store
	cfg   *config.Config

	list  list.Model
	input textinput.Model // shared by add, edit and search

	mode     mode
	editID   int64
	inputErr string

	filterIdx int    // 0 is every status, i>0 is statuses[i-1]
	query     string // applied search text
	pending   string // typed but not yet applied
	searchSeq int

	// Undo support (single-level)
	undo *undoEntry

	width, height int
}

func New(st *store.Store, cfg *config.Config) Model {
	l := list.New(nil, itemDelegate{}, 0, 0)
	l.SetShowTitle(false)
	l.SetShowHelp(false)
	l.SetShowStatusBar(false)
	l.SetShowPagination(true)
	// Search goes through the debounced input, not the built-in filter.
	l.SetFilteringEnabled(false)

	ti := textinput.New()
	ti.Prompt = "> "
	ti.CharLimit = 200

	m := Model{
		store:  st,
		cfg:    cfg,
		list:   l,
		input:  ti,
		width:  80,
		height: 24,
	}
	m.refresh()
	return m
}

// Run starts the interactive list and blocks until the user quits.
func Run(st *store.Store, cfg *config.Config) error {
	p := tea.NewProgram(New(st, cfg), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.list.SetSize(msg.Width-4, msg.Height-7)
		return m, nil

	case searchTickMsg:
		if msg.seq == m.searchSeq && m.query != m.pending {
			m.query = m.pending
			m.refresh()
		}
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case modeAdd, modeEdit:
			return m.updateInput(msg)
		case modeSearch:
			return m.updateSearch(msg)
		}
		return m.updateList(msg)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc", "ctrl+c":
		return m, tea.Quit

	case " ":
		if it, ok := m.selected(); ok {
			next := m.nextStatus(it.Status)
			if _, err := m.store.Update(it.ID, model.Patch{Status: &next}); err == nil {
				m.refresh()
			}
		}
		return m, nil

	case "d":
		if it, ok := m.selected(); ok {
			pos := m.storePos(it.ID)
			if err := m.store.Delete(it.ID); err == nil {
				m.undo = &undoEntry{item: it, pos: pos}
				m.refresh()
			}
		}
		return m, nil

	case "u":
		if m.undo != nil {
			m.store.Restore(m.undo.item, m.undo.pos)
			m.undo = nil
			m.refresh()
		}
		return m, nil

	case "a":
		m.mode = modeAdd
		m.inputErr = ""
		m.input.SetValue("")
		m.input.Placeholder = "New item title..."
		m.input.Focus()
		return m, nil

	case "e":
		if it, ok := m.selected(); ok {
			m.mode = modeEdit
			m.editID = it.ID
			m.inputErr = ""
			m.input.SetValue(it.Title)
			m.input.CursorEnd()
			m.input.Placeholder = "Edit item title..."
			m.input.Focus()
		}
		return m, nil

	case "/":
		m.mode = modeSearch
		m.inputErr = ""
		m.input.SetValue(m.query)
		m.input.CursorEnd()
		m.input.Placeholder = "Search..."
		m.input.Focus()
		m.pending = m.query
		return m, nil

	case "f":
		m.filterIdx = (m.filterIdx + 1) % (len(m.cfg.Store.Statuses) + 1)
		m.refresh()
		return m, nil
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// updateInput handles the add and edit prompts.
func (m Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		title := strings.TrimSpace(m.input.Value())
		if title == "" {
			m.inputErr = "Title cannot be empty"
			return m, nil
		}
		var err error
		if m.mode == modeAdd {
			_, err = m.store.Create(model.Payload{Title: title})
		} else {
			_, err = m.store.Update(m.editID, model.Patch{Title: &title})
		}
		if err != nil {
			m.inputErr = err.Error()
			return m, nil
		}
		m.closeInput()
		m.refresh()
		return m, nil

	case "esc":
		m.closeInput()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// updateSearch applies typed text only after the debounce interval, so the
// list is not re-filtered on every keystroke.
func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.query = m.input.Value()
		m.pending = m.query
		m.closeInput()
		m.refresh()
		return m, nil

	case "esc":
		m.query, m.pending = "", ""
		m.closeInput()
		m.refresh()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if typed := m.input.Value(); typed != m.pending {
		m.pending = typed
		m.searchSeq++
		seq := m.searchSeq
		cmd = tea.Batch(cmd, tea.Tick(m.cfg.Debounce(), func(time.Time) tea.Msg {
			return searchTickMsg{seq: seq}
		}))
	}
	return m, cmd
}

func (m *Model) closeInput() {
	m.mode = modeList
	m.inputErr = ""
	m.input.SetValue("")
	m.input.Blur()
}

// refresh rebuilds the visible rows from the store through the projector,
// keeping the selection in range.
func (m *Model) refresh() {
	idx := m.list.Index()
	items := view.Filter(m.store.List(), m.statusFilter(), m.query, m.cfg.Search.Fields)
	rows := make([]list.Item, 0, len(items))
	for _, it := range items {
		rows = append(rows, listItem{
			item:      it,
			completed: m.cfg.Store.CompletedStatus,
			statuses:  m.cfg.Store.Statuses,
		})
	}
	m.list.SetItems(rows)
	if idx >= len(rows) {
		idx = len(rows) - 1
	}
	if idx < 0 {
		idx = 0
	}
	m.list.Select(idx)
}

func (m Model) statusFilter() string {
	if m.filterIdx == 0 {
		return view.StatusAll
	}
	return m.cfg.Store.Statuses[m.filterIdx-1]
}

func (m Model) selected() (model.Item, bool) {
	li, ok := m.list.SelectedItem().(listItem)
	if !ok {
		return model.Item{}, false
	}
	return li.item, true
}

// storePos finds the item's position in the unfiltered collection so undo
// can put it back where it was.
func (m Model) storePos(id int64) int {
	for i, it := range m.store.List() {
		if it.ID == id {
			return i
		}
	}
	return 0
}

// nextStatus advances through the configured cycle; unknown statuses fold
// into the first one.
func (m Model) nextStatus(status string) string {
	ss := m.cfg.Store.Statuses
	for i, s := range ss {
		if s == status {
			return ss[(i+1)%len(ss)]
		}
	}
	return ss[0]
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(m.headerView())
	b.WriteString("\n")
	b.WriteString(m.list.View())
	if m.mode != modeList {
		b.WriteString("\n" + m.inputView())
	}
	b.WriteString("\n" + m.helpView())
	return panelStyle.Render(b.String())
}

func (m Model) headerView() string {
	st := view.Stats(m.store.List(), m.cfg.Store.CompletedStatus)
	name := m.cfg.AppName
	parts := []string{titleStyle.Render(strings.ToUpper(name[:1]) + name[1:])}
	for _, status := range m.cfg.Store.Statuses {
		style := statusStyle(status, m.cfg.Store.CompletedStatus, m.cfg.Store.Statuses)
		parts = append(parts, fmt.Sprintf("%s %d", style.Render(status), st.ByStatus[status]))
	}
	parts = append(parts, fmt.Sprintf("%s %d", accentStyle.Render("Total"), st.Total))
	header := strings.Join(parts, "  ")

	second := mutedStyle.Render(ui.Bar(st.CompletionPercent, 24))
	if m.filterIdx != 0 {
		second += "  " + accentStyle.Render("filter: "+m.statusFilter())
	}
	if m.query != "" {
		second += "  " + accentStyle.Render("search: "+m.query)
	}
	if m.store.LastSaveErr() != nil {
		second += "  " + errorStyle.Render("✖ not persisted")
	}
	return header + "\n" + second
}

func (m Model) inputView() string {
	title := "Add new item"
	switch m.mode {
	case modeEdit:
		title = "Edit item"
	case modeSearch:
		title = "Search"
	}
	if m.inputErr != "" {
		title += "  " + errorStyle.Render(m.inputErr)
	}
	return inputBarStyle.Render(title + "\n" + m.input.View())
}

func (m Model) helpView() string {
	return helpStyle.Render("a add  e edit  space status  d delete  u undo  / search  f filter  q quit")
}
