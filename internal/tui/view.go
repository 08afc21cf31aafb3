package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/creamcroissant/vpnadmin/internal/repository"
	"github.com/creamcroissant/vpnadmin/internal/service"
)

// View 实现 tea.Model
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}
	if m.view == ViewDetail {
		return m.renderDetailView()
	}

	var b strings.Builder
	b.WriteString(m.renderTabs())
	b.WriteString("\n\n")

	if m.err != nil {
		b.WriteString(styleError.Render(fmt.Sprintf("Error: %v", m.err)))
		b.WriteString("\n")
	}
	if m.loading {
		b.WriteString(styleMuted().Render("  Loading..."))
		b.WriteString("\n")
	}

	if m.tab == TabAdFeed {
		b.WriteString(m.renderFeed())
	} else {
		b.WriteString(m.renderTable())
	}

	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

func (m Model) renderTabs() string {
	parts := []string{styleTitle.Render("VPN Admin")}
	for t := Tab(0); t < tabCount; t++ {
		label := t.String()
		if t != TabAdFeed {
			label = fmt.Sprintf("%s (%d)", label, len(m.tabs[t].rows))
		}
		if t == m.tab {
			parts = append(parts, styleTabActive.Render(label))
		} else {
			parts = append(parts, styleTabInactive.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

// truncate 按显示宽度截断，超出部分用 … 表示
func truncate(s string, width int) string {
	if lipgloss.Width(s) <= width {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 && lipgloss.Width(string(runes))+1 > width {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "…"
}

func pad(s string, width int) string {
	s = truncate(s, width)
	if gap := width - lipgloss.Width(s); gap > 0 {
		s += strings.Repeat(" ", gap)
	}
	return s
}

// cellWidth 保证表头的序号和排序箭头放得下
func cellWidth(c column) int {
	return max(c.width, lipgloss.Width(c.title)+4)
}

func (m Model) renderHeaderRow(cols []column) string {
	sort := m.tabs[m.tab].sort
	cells := make([]string, 0, len(cols))
	for i, c := range cols {
		title := fmt.Sprintf("%d %s", i+1, c.title)
		if sort.Active() && c.sortKey == sort.Key {
			if sort.Direction == service.Descending {
				title += " ▼"
			} else {
				title += " ▲"
			}
		}
		cells = append(cells, pad(title, cellWidth(c)))
	}
	return strings.Join(cells, " │ ")
}

func renderRow(cols []column, r row) string {
	cells := make([]string, 0, len(cols))
	for i, c := range cols {
		value := ""
		if i < len(r.cells) {
			value = r.cells[i]
		}
		cell := pad(value, cellWidth(c))
		if c.title == "Load" && r.band != "" {
			cell = BandStyle(r.band).Render(cell)
		}
		cells = append(cells, cell)
	}
	return strings.Join(cells, " │ ")
}

func (m Model) renderTable() string {
	var b strings.Builder
	cols := columnsFor(m.tab)
	st := m.tabs[m.tab]

	b.WriteString(styleTableHeader.Width(m.width).Render(m.renderHeaderRow(cols)))
	b.WriteString("\n")
	b.WriteString(styleMuted().Render(strings.Repeat("─", m.width)))
	b.WriteString("\n")

	if len(st.rows) == 0 {
		if st.query != "" {
			b.WriteString(styleMuted().Render(fmt.Sprintf("  Nothing matches %q.", st.query)))
		} else {
			b.WriteString(styleMuted().Render("  No records yet."))
		}
		b.WriteString("\n")
		return b.String()
	}

	// 按终端高度计算可见行数
	visibleRows := max(m.height-12, 5)
	startIdx := 0
	if st.selected >= visibleRows {
		startIdx = st.selected - visibleRows + 1
	}
	endIdx := min(startIdx+visibleRows, len(st.rows))

	for i := startIdx; i < endIdx; i++ {
		line := renderRow(cols, st.rows[i])
		if i == st.selected {
			b.WriteString(styleTableRowSelected.Width(m.width).Render(line))
		} else {
			b.WriteString(styleTableRow.Render(line))
		}
		b.WriteString("\n")
	}

	if len(st.rows) > visibleRows {
		b.WriteString(styleMuted().Render(fmt.Sprintf("  Showing %d-%d of %d", startIdx+1, endIdx, len(st.rows))))
		b.WriteString("\n")
	}

	if m.tab == TabServers {
		b.WriteString("\n")
		b.WriteString(m.renderServerSummary())
		b.WriteString("\n")
	}
	return b.String()
}

// renderServerSummary 汇总当前列表里的在线人数与容量。
func (m Model) renderServerSummary() string {
	var online, capacity int64
	counts := map[service.UtilizationBand]int{}
	for _, r := range m.tabs[TabServers].rows {
		counts[r.band]++
		if s, ok := r.entity.(*repository.Server); ok {
			online += s.OnlineUsers
			capacity += s.Capacity
		}
	}
	ratio, band := service.Band(online, capacity)
	return fmt.Sprintf("  Load %s %s  %s %d  %s %d  %s %d",
		ProgressBar(ratio*100, 20, BandStyle(band)),
		BandStyle(band).Render(fmt.Sprintf("%d/%d", online, capacity)),
		BandStyle(service.BandGreen).Render("●"), counts[service.BandGreen],
		BandStyle(service.BandYellow).Render("●"), counts[service.BandYellow],
		BandStyle(service.BandRed).Render("●"), counts[service.BandRed],
	)
}

func (m Model) renderFeed() string {
	var b strings.Builder
	header := fmt.Sprintf("%s │ %s │ %s │ %s", pad("Time", 19), pad("User", 24), pad("Ad type", 14), "Status")
	b.WriteString(styleTableHeader.Width(m.width).Render(header))
	b.WriteString("\n")

	if len(m.feed) == 0 {
		b.WriteString(styleMuted().Render("  Waiting for ad callbacks…"))
		b.WriteString("\n")
		return b.String()
	}

	// 最新的在最上面
	visibleRows := max(m.height-10, 5)
	shown := 0
	for i := len(m.feed) - 1; i >= 0 && shown < visibleRows; i-- {
		e := m.feed[i]
		ts := time.UnixMilli(e.Timestamp).UTC().Format("2006-01-02 15:04:05")
		line := fmt.Sprintf("%s │ %s │ %s │ %s", pad(ts, 19), pad(e.UserID, 24), pad(e.AdType, 14), StatusStyle(e.Status).Render(e.Status))
		b.WriteString(styleTableRow.Render(line))
		b.WriteString("\n")
		shown++
	}
	b.WriteString(styleMuted().Render(fmt.Sprintf("  %d events buffered", len(m.feed))))
	b.WriteString("\n")
	return b.String()
}

func (m Model) renderFooter() string {
	switch {
	case m.filtering:
		return m.filter.View() + "\n" + styleHelp.Render("[enter] Apply  [esc] Cancel")
	case m.pendingDelete != nil:
		return styleConfirm.Render(fmt.Sprintf("Delete %s? [y] confirm, any other key cancels", m.pendingDelete.label))
	}

	var b strings.Builder
	if q := m.tabs[m.tab].query; q != "" && m.tab != TabAdFeed {
		b.WriteString(styleMuted().Render(fmt.Sprintf("  filter: %q", q)))
		b.WriteString("\n")
	}
	if m.status != "" {
		b.WriteString(styleStatus.Render(m.status))
		b.WriteString("\n")
	}
	if m.tab == TabAdFeed {
		b.WriteString(styleHelp.Render("[tab] Switch  [q] Quit"))
	} else {
		b.WriteString(styleHelp.Render("[↑/↓] Navigate  [enter] Details  [/] Filter  [1-9] Sort  [0] Unsort  [d] Delete  [tab] Switch  [r] Refresh  [q] Quit"))
	}
	return b.String()
}

func (m Model) renderDetailView() string {
	var b strings.Builder
	r := m.selectedRow()
	title := "Details"
	if r != nil {
		title = fmt.Sprintf("%s · %s", m.tab, r.label)
	}
	b.WriteString(styleTitle.Render(title))
	b.WriteString("\n")

	lines := detailLines(r)
	viewportHeight := m.detailViewportHeight()
	maxScroll := max(len(lines)-viewportHeight, 0)
	scrollOffset := min(max(m.detailScrollOffset, 0), maxScroll)
	endIdx := min(scrollOffset+viewportHeight, len(lines))

	body := strings.Join(lines[scrollOffset:endIdx], "\n")
	b.WriteString(styleDetailBox.Width(max(m.width-4, 20)).Render(body))
	b.WriteString("\n")

	help := styleHelp.Render("[↑/↓] Scroll  [esc] Back  [q] Quit")
	if maxScroll > 0 {
		help += styleMuted().Render(fmt.Sprintf(" [%d/%d]", scrollOffset+1, maxScroll+1))
	}
	b.WriteString(help)
	return b.String()
}
