package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trek/internal/config"
	"trek/internal/model"
	"trek/internal/storage"
	"trek/internal/store"
)

func newTestModel(t *testing.T) (Model, *store.Store) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Search.Fields = []string{"title", "notes"}

	st, err := store.Open(storage.NewMemory(), store.Options{
		Statuses: cfg.Store.Statuses,
		Warnf:    t.Logf,
	})
	require.NoError(t, err)

	seed := []model.Payload{
		{Title: "Distributed Systems", Status: "ongoing"},
		{Title: "Kubernetes", Status: "planning"},
		{Title: "Go Generics", Status: "completed"},
	}
	for _, p := range seed {
		_, err := st.Create(p)
		require.NoError(t, err)
	}

	m := New(st, cfg)
	sized, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return sized.(Model), st
}

func press(m Model, s string) Model {
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
	return next.(Model)
}

func pressEnter(m Model) Model {
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	return next.(Model)
}

func pressEsc(m Model) Model {
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	return next.(Model)
}

func TestAddFlow(t *testing.T) {
	m, st := newTestModel(t)

	m = press(m, "a")
	assert.Equal(t, modeAdd, m.mode)

	m = press(m, "Learn Rust")
	m = pressEnter(m)

	assert.Equal(t, modeList, m.mode)
	assert.Equal(t, 4, st.Len())
	items := st.List()
	assert.Equal(t, "Learn Rust", items[3].Title)
	assert.Equal(t, "planning", items[3].Status)
}

func TestAddRejectsEmptyTitle(t *testing.T) {
	m, st := newTestModel(t)

	m = press(m, "a")
	m = pressEnter(m)

	assert.Equal(t, modeAdd, m.mode)
	assert.NotEmpty(t, m.inputErr)
	assert.Equal(t, 3, st.Len())

	m = pressEsc(m)
	assert.Equal(t, modeList, m.mode)
	assert.Empty(t, m.inputErr)
}

func TestEditChangesOnlyTitle(t *testing.T) {
	m, st := newTestModel(t)
	before := st.List()[0]

	m.list.Select(0)
	m = press(m, "e")
	require.Equal(t, modeEdit, m.mode)
	assert.Equal(t, before.Title, m.input.Value())

	m = press(m, " v2")
	m = pressEnter(m)

	after := st.List()[0]
	assert.Equal(t, before.Title+" v2", after.Title)
	assert.Equal(t, before.Status, after.Status)
	assert.Equal(t, before.ID, after.ID)
}

func TestSpaceCyclesStatus(t *testing.T) {
	m, st := newTestModel(t)
	m.list.Select(1) // Kubernetes, planning

	id := st.List()[1].ID
	for _, want := range []string{"ongoing", "completed", "planning"} {
		m = press(m, " ")
		it, err := st.Get(id)
		require.NoError(t, err)
		assert.Equal(t, want, it.Status)
	}
}

func TestDeleteThenUndoRestoresItem(t *testing.T) {
	m, st := newTestModel(t)
	victim := st.List()[1]

	m.list.Select(1)
	m = press(m, "d")
	assert.Equal(t, 2, st.Len())

	m = press(m, "u")
	items := st.List()
	require.Len(t, items, 3)
	assert.Equal(t, victim.ID, items[1].ID)
	assert.Equal(t, victim.Title, items[1].Title)

	// Undo is single-level; a second one is a no-op.
	m = press(m, "u")
	assert.Equal(t, 3, st.Len())
}

func TestSearchAppliesAfterDebounce(t *testing.T) {
	m, _ := newTestModel(t)

	m = press(m, "/")
	require.Equal(t, modeSearch, m.mode)

	m = press(m, "systems")
	// Typed but not yet applied: the list still shows everything.
	assert.Empty(t, m.query)
	assert.Equal(t, "systems", m.pending)
	assert.Len(t, m.list.Items(), 3)

	next, _ := m.Update(searchTickMsg{seq: m.searchSeq})
	m = next.(Model)

	assert.Equal(t, "systems", m.query)
	require.Len(t, m.list.Items(), 1)
	assert.Equal(t, "Distributed Systems", m.list.Items()[0].(listItem).item.Title)
}

func TestStaleSearchTickIsIgnored(t *testing.T) {
	m, _ := newTestModel(t)

	m = press(m, "/")
	m = press(m, "go")
	stale := m.searchSeq
	m = press(m, "ne")

	next, _ := m.Update(searchTickMsg{seq: stale})
	m = next.(Model)

	// Only the newest generation may fire.
	assert.Empty(t, m.query)
	assert.Len(t, m.list.Items(), 3)

	next, _ = m.Update(searchTickMsg{seq: m.searchSeq})
	m = next.(Model)
	assert.Equal(t, "gone", m.query)
	assert.Empty(t, m.list.Items())
}

func TestSearchEnterAppliesImmediately(t *testing.T) {
	m, _ := newTestModel(t)

	m = press(m, "/")
	m = press(m, "kube")
	m = pressEnter(m)

	assert.Equal(t, modeList, m.mode)
	assert.Equal(t, "kube", m.query)
	require.Len(t, m.list.Items(), 1)
}

func TestSearchEscClearsQuery(t *testing.T) {
	m, _ := newTestModel(t)

	m = press(m, "/")
	m = press(m, "kube")
	m = pressEnter(m)
	require.Len(t, m.list.Items(), 1)

	m = press(m, "/")
	m = pressEsc(m)

	assert.Empty(t, m.query)
	assert.Len(t, m.list.Items(), 3)
}

func TestFilterCyclesThroughStatuses(t *testing.T) {
	m, _ := newTestModel(t)

	m = press(m, "f")
	assert.Equal(t, "planning", m.statusFilter())
	require.Len(t, m.list.Items(), 1)
	assert.Equal(t, "Kubernetes", m.list.Items()[0].(listItem).item.Title)

	m = press(m, "f")
	assert.Equal(t, "ongoing", m.statusFilter())
	m = press(m, "f")
	assert.Equal(t, "completed", m.statusFilter())

	m = press(m, "f")
	assert.Len(t, m.list.Items(), 3)
}

func TestFilterAndSearchCompose(t *testing.T) {
	m, st := newTestModel(t)
	_, err := st.Create(model.Payload{Title: "Systems Design", Status: "planning"})
	require.NoError(t, err)

	m = press(m, "f") // planning
	m = press(m, "/")
	m = press(m, "systems")
	m = pressEnter(m)

	require.Len(t, m.list.Items(), 1)
	assert.Equal(t, "Systems Design", m.list.Items()[0].(listItem).item.Title)
}

func TestViewShowsHeaderAndHelp(t *testing.T) {
	m, _ := newTestModel(t)

	out := m.View()
	assert.Contains(t, out, "Trek")
	assert.Contains(t, out, "Total")
	assert.Contains(t, out, "planning")
	assert.Contains(t, out, "u undo")
}

func TestQuitKeys(t *testing.T) {
	m, _ := newTestModel(t)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}
