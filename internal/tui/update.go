package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/creamcroissant/vpnadmin/internal/service"
)

// Update implements tea.Model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case rowsLoadedMsg:
		m.loading = false
		m.err = nil
		st := &m.tabs[msg.tab]
		st.rows = msg.rows
		if st.selected >= len(st.rows) {
			st.selected = max(len(st.rows)-1, 0)
		}
		return m, nil

	case deletedMsg:
		if msg.result.Deleted {
			m.status = fmt.Sprintf("deleted %s", msg.id)
		} else {
			m.status = fmt.Sprintf("%s was already gone", msg.id)
		}
		return m, m.loadTab(msg.tab)

	case feedEventMsg:
		m.feed = append(m.feed, msg.event)
		if len(m.feed) > feedCapacity {
			m.feed = m.feed[len(m.feed)-feedCapacity:]
		}
		return m, waitForFeed(m.feedC)

	case feedStoppedMsg:
		if msg.err != nil {
			m.err = fmt.Errorf("ad feed stopped: %w", msg.err)
		}
		return m, nil

	case errorMsg:
		m.loading = false
		m.err = msg.err
		return m, nil

	case tickMsg:
		if m.view == ViewList && !m.filtering {
			return m, tea.Batch(m.loadTab(m.tab), tickCmd())
		}
		return m, tickCmd()
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.filtering {
		return m.handleFilterKey(msg)
	}

	// 待确认的删除：y 执行，其它任何键取消
	if m.pendingDelete != nil {
		target := *m.pendingDelete
		m.pendingDelete = nil
		if key.Matches(msg, m.keys.Confirm) {
			m.status = fmt.Sprintf("deleting %s…", target.label)
			return m, m.deleteRow(m.tab, target)
		}
		m.status = "delete cancelled"
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.cancel()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		return m.handleUp()

	case key.Matches(msg, m.keys.Down):
		return m.handleDown()

	case key.Matches(msg, m.keys.Enter):
		return m.handleEnter()

	case key.Matches(msg, m.keys.Back):
		return m.handleBack()

	case key.Matches(msg, m.keys.Refresh):
		m.loading = true
		return m, m.loadTab(m.tab)
	}

	if m.view != ViewList {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.NextTab):
		return m.switchTab((m.tab + 1) % tabCount)

	case key.Matches(msg, m.keys.PrevTab):
		return m.switchTab((m.tab + tabCount - 1) % tabCount)

	case key.Matches(msg, m.keys.Filter):
		if m.tab == TabAdFeed {
			return m, nil
		}
		m.filtering = true
		m.filter.SetValue(m.tabs[m.tab].query)
		m.filter.CursorEnd()
		return m, m.filter.Focus()

	case key.Matches(msg, m.keys.Delete):
		if r := m.selectedRow(); r != nil {
			m.pendingDelete = r
			m.status = ""
		}
		return m, nil

	case key.Matches(msg, m.keys.SortColumn):
		return m.toggleSort(int(msg.Runes[0] - '1'))

	case key.Matches(msg, m.keys.ClearSort):
		if m.tab == TabAdFeed {
			return m, nil
		}
		m.tabs[m.tab].sort = service.SortState{}
		m.loading = true
		return m, m.loadTab(m.tab)
	}
	return m, nil
}

// handleFilterKey 过滤模式：回车提交并重新拉取，esc 放弃修改。
func (m Model) handleFilterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		m.filtering = false
		m.filter.Blur()
		m.tabs[m.tab].query = m.filter.Value()
		m.tabs[m.tab].selected = 0
		m.loading = true
		return m, m.loadTab(m.tab)
	case tea.KeyEsc:
		m.filtering = false
		m.filter.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	return m, cmd
}

func (m Model) switchTab(tab Tab) (tea.Model, tea.Cmd) {
	m.tab = tab
	m.status = ""
	m.err = nil
	if tab == TabAdFeed {
		return m, nil
	}
	m.loading = true
	return m, m.loadTab(tab)
}

func (m Model) toggleSort(index int) (tea.Model, tea.Cmd) {
	cols := columnsFor(m.tab)
	if index < 0 || index >= len(cols) {
		return m, nil
	}
	if cols[index].sortKey == "" {
		m.status = fmt.Sprintf("%s is not sortable", cols[index].title)
		return m, nil
	}
	st := &m.tabs[m.tab]
	st.sort = st.sort.Toggle(cols[index].sortKey)
	m.loading = true
	return m, m.loadTab(m.tab)
}

func (m Model) selectedRow() *row {
	if m.tab == TabAdFeed {
		return nil
	}
	st := m.tabs[m.tab]
	if st.selected < 0 || st.selected >= len(st.rows) {
		return nil
	}
	r := st.rows[st.selected]
	return &r
}

func (m Model) handleUp() (tea.Model, tea.Cmd) {
	switch m.view {
	case ViewList:
		st := &m.tabs[m.tab]
		if len(st.rows) > 0 {
			st.selected--
			if st.selected < 0 {
				st.selected = len(st.rows) - 1
			}
		}
	case ViewDetail:
		if m.detailScrollOffset > 0 {
			m.detailScrollOffset--
		}
	}
	return m, nil
}

func (m Model) handleDown() (tea.Model, tea.Cmd) {
	switch m.view {
	case ViewList:
		st := &m.tabs[m.tab]
		if len(st.rows) > 0 {
			st.selected++
			if st.selected >= len(st.rows) {
				st.selected = 0
			}
		}
	case ViewDetail:
		maxScroll := len(detailLines(m.selectedRow())) - m.detailViewportHeight()
		if m.detailScrollOffset < maxScroll {
			m.detailScrollOffset++
		}
	}
	return m, nil
}

func (m Model) handleEnter() (tea.Model, tea.Cmd) {
	if m.view == ViewList && m.selectedRow() != nil {
		m.view = ViewDetail
		m.detailScrollOffset = 0
	}
	return m, nil
}

func (m Model) handleBack() (tea.Model, tea.Cmd) {
	if m.view == ViewDetail {
		m.view = ViewList
	}
	return m, nil
}

func (m Model) detailViewportHeight() int {
	return max(m.height-8, 5)
}
