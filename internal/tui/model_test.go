package tui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creamcroissant/vpnadmin/internal/client"
	"github.com/creamcroissant/vpnadmin/internal/repository"
	"github.com/creamcroissant/vpnadmin/internal/service"
)

type fakeBackend struct {
	servers []repository.Server
	configs []repository.Config
	users   []repository.PremiumUser
	listErr error

	params  map[Tab]client.ListParams
	deleted []string
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		servers: []repository.Server{
			{ID: "s1", Country: "DE", City: "Berlin", IPv4: "10.0.0.1", OnlineUsers: 90, Capacity: 100, HTTP: true, TLS: true},
			{ID: "s2", Country: "US", City: "Dallas", IPv4: "10.0.0.2", OnlineUsers: 10, Capacity: 100, CDNs: repository.NewCDNMap()},
		},
		configs: []repository.Config{{ID: "c1", Name: "primary", Host: "a.example;b.example", Type: "ssh"}},
		users:   []repository.PremiumUser{{ID: "u1", Email: "a@example.com", Months: 3, PricePaid: "9.99", Expired: true}},
		params:  map[Tab]client.ListParams{},
	}
}

func (f *fakeBackend) Servers(_ context.Context, p client.ListParams) ([]repository.Server, error) {
	f.params[TabServers] = p
	return f.servers, f.listErr
}

func (f *fakeBackend) Configs(_ context.Context, p client.ListParams) ([]repository.Config, error) {
	f.params[TabConfigs] = p
	return f.configs, f.listErr
}

func (f *fakeBackend) PremiumUsers(_ context.Context, p client.ListParams) ([]repository.PremiumUser, error) {
	f.params[TabPremiumUsers] = p
	return f.users, f.listErr
}

func (f *fakeBackend) Delete(_ context.Context, _ Tab, id string) (client.Deletion, error) {
	f.deleted = append(f.deleted, id)
	return client.Deletion{Deleted: true}, nil
}

func (f *fakeBackend) Tail(ctx context.Context, _ func(service.AdEvent)) error {
	<-ctx.Done()
	return nil
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// step feeds msg to the model and runs the returned command once, feeding its message back.
func step(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, cmd := m.Update(msg)
	m = next.(Model)
	if cmd == nil {
		return m
	}
	out := cmd()
	switch out.(type) {
	case rowsLoadedMsg, deletedMsg, errorMsg:
		return step(t, m, out)
	}
	return m
}

func loaded(t *testing.T, backend *fakeBackend) Model {
	t.Helper()
	m := NewModel(context.Background(), backend)
	m = step(t, m, tea.WindowSizeMsg{Width: 160, Height: 40})
	return step(t, m, m.loadTab(TabServers)())
}

func TestLoadServersBuildsRows(t *testing.T) {
	m := loaded(t, newFakeBackend())

	rows := m.tabs[TabServers].rows
	require.Len(t, rows, 2)
	assert.Equal(t, service.BandRed, rows[0].band)
	assert.Equal(t, service.BandGreen, rows[1].band)
	assert.Equal(t, "http,tls", rows[0].cells[6])
	assert.Equal(t, "90%", rows[0].cells[5])
	assert.False(t, m.loading)
	assert.Contains(t, m.View(), "Berlin")
}

func TestSortKeysToggleDirection(t *testing.T) {
	backend := newFakeBackend()
	m := loaded(t, backend)

	m = step(t, m, runes("1"))
	assert.Equal(t, "country", backend.params[TabServers].Sort)
	assert.Equal(t, "ascending", backend.params[TabServers].Direction)

	m = step(t, m, runes("1"))
	assert.Equal(t, "descending", backend.params[TabServers].Direction)
	assert.Contains(t, m.View(), "Country ▼")

	m = step(t, m, runes("0"))
	assert.Empty(t, backend.params[TabServers].Sort)

	m = step(t, m, runes("6"))
	assert.Equal(t, "Load is not sortable", m.status)
}

func TestFilterSubmitsQuery(t *testing.T) {
	backend := newFakeBackend()
	m := loaded(t, backend)

	m = step(t, m, runes("/"))
	require.True(t, m.filtering)
	// 过滤模式下 q 只是输入字符
	m = step(t, m, runes("q"))
	m = step(t, m, runes("ber"))
	m = step(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.False(t, m.filtering)
	assert.Equal(t, "qber", backend.params[TabServers].Query)
	assert.Equal(t, "qber", m.tabs[TabServers].query)
}

func TestDeleteNeedsConfirmation(t *testing.T) {
	backend := newFakeBackend()
	m := loaded(t, backend)

	m = step(t, m, runes("d"))
	require.NotNil(t, m.pendingDelete)
	assert.Contains(t, m.View(), "Delete DE Berlin?")

	m = step(t, m, runes("n"))
	assert.Nil(t, m.pendingDelete)
	assert.Empty(t, backend.deleted)
	assert.Equal(t, "delete cancelled", m.status)

	m = step(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m = step(t, m, runes("d"))
	m = step(t, m, runes("y"))
	assert.Equal(t, []string{"s2"}, backend.deleted)
	assert.Equal(t, "deleted s2", m.status)
}

func TestTabSwitchLoadsNextResource(t *testing.T) {
	backend := newFakeBackend()
	m := loaded(t, backend)

	m = step(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, TabConfigs, m.tab)
	require.Len(t, m.tabs[TabConfigs].rows, 1)
	assert.Equal(t, "a.example b.example", m.tabs[TabConfigs].rows[0].cells[2])

	m = step(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, "expired", m.tabs[TabPremiumUsers].rows[0].cells[5])

	m = step(t, m, tea.KeyMsg{Type: tea.KeyShiftTab})
	assert.Equal(t, TabConfigs, m.tab)
}

func TestDetailViewShowsYAML(t *testing.T) {
	m := loaded(t, newFakeBackend())

	m = step(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.Equal(t, ViewDetail, m.view)
	view := m.View()
	assert.Contains(t, view, "country: DE")
	assert.Contains(t, view, "Servers · DE Berlin")

	m = step(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, ViewList, m.view)
}

func TestFeedKeepsRecentEvents(t *testing.T) {
	m := loaded(t, newFakeBackend())
	for i := 0; i < feedCapacity+5; i++ {
		m = step(t, m, feedEventMsg{event: service.AdEvent{UserID: "u", AdType: "reward", Status: "success", Timestamp: int64(i)}})
	}
	require.Len(t, m.feed, feedCapacity)
	assert.Equal(t, int64(5), m.feed[0].Timestamp)
}

func TestListErrorIsShown(t *testing.T) {
	backend := newFakeBackend()
	backend.listErr = errors.New("API Error: 502")
	m := loaded(t, backend)

	assert.EqualError(t, m.err, "API Error: 502")
	assert.Contains(t, m.View(), "API Error: 502")
}

func TestQuitCancelsContext(t *testing.T) {
	m := loaded(t, newFakeBackend())
	next, cmd := m.Update(runes("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
	assert.Error(t, next.(Model).ctx.Err())
}
