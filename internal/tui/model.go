package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"gopkg.in/yaml.v3"

	"github.com/creamcroissant/vpnadmin/internal/client"
	"github.com/creamcroissant/vpnadmin/internal/repository"
	"github.com/creamcroissant/vpnadmin/internal/service"
)

// Tab 表示当前页签
type Tab int

const (
	TabServers      Tab = iota // 节点
	TabConfigs                 // 配置
	TabPremiumUsers            // 付费用户
	TabAdFeed                  // 实时广告回调
	tabCount
)

func (t Tab) String() string {
	switch t {
	case TabServers:
		return "Servers"
	case TabConfigs:
		return "Configs"
	case TabPremiumUsers:
		return "Premium Users"
	case TabAdFeed:
		return "Ad Feed"
	}
	return "?"
}

// ViewType 表示当前视图
type ViewType int

const (
	ViewList   ViewType = iota // 列表
	ViewDetail                 // 详情
)

const feedCapacity = 200

// column is one table column: header, width and the sort key it maps to ("" = not sortable).
type column struct {
	title   string
	width   int
	sortKey string
}

// row 是表格里的一行：已格式化的单元格加上详情视图要展示的原始实体。
type row struct {
	id     string
	label  string
	cells  []string
	band   service.UtilizationBand
	entity any
}

// tabState 每个列表页签各自保存筛选、排序和选中位置。
type tabState struct {
	rows     []row
	selected int
	query    string
	sort     service.SortState
}

// Model 是主 TUI 模型
type Model struct {
	ctx     context.Context
	cancel  context.CancelFunc
	backend Backend

	tab   Tab
	view  ViewType
	tabs  [tabCount]tabState
	feed  []service.AdEvent
	feedC chan service.AdEvent

	// 过滤输入框；filtering 为 true 时按键都交给它
	filter    textinput.Model
	filtering bool

	// 两段式删除：第一次按 d 记下 id，再按 y 才真正删除
	pendingDelete *row

	status string

	// 终端尺寸
	width  int
	height int

	// 详情视图的滚动状态
	detailScrollOffset int

	// 状态
	loading bool
	err     error

	keys keyMap
	now  func() time.Time
}

// keyMap 定义全部按键绑定
type keyMap struct {
	Up         key.Binding
	Down       key.Binding
	Enter      key.Binding
	Back       key.Binding
	Quit       key.Binding
	Refresh    key.Binding
	NextTab    key.Binding
	PrevTab    key.Binding
	Filter     key.Binding
	Delete     key.Binding
	Confirm    key.Binding
	SortColumn key.Binding
	ClearSort  key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "details"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc", "backspace"),
			key.WithHelp("esc", "back"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		NextTab: key.NewBinding(
			key.WithKeys("tab", "right", "l"),
			key.WithHelp("tab", "next tab"),
		),
		PrevTab: key.NewBinding(
			key.WithKeys("shift+tab", "left", "h"),
			key.WithHelp("shift+tab", "prev tab"),
		),
		Filter: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "filter"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "confirm"),
		),
		SortColumn: key.NewBinding(
			key.WithKeys("1", "2", "3", "4", "5", "6", "7", "8", "9"),
			key.WithHelp("1-9", "sort column"),
		),
		ClearSort: key.NewBinding(
			key.WithKeys("0"),
			key.WithHelp("0", "unsort"),
		),
	}
}

// NewModel 创建新的 TUI 模型；ctx 结束时实时推送也随之停止。
func NewModel(ctx context.Context, backend Backend) Model {
	ctx, cancel := context.WithCancel(ctx)
	ti := textinput.New()
	ti.Placeholder = "filter…"
	ti.Prompt = "/ "
	ti.CharLimit = 64
	return Model{
		ctx:     ctx,
		cancel:  cancel,
		backend: backend,
		tab:     TabServers,
		view:    ViewList,
		feedC:   make(chan service.AdEvent, 64),
		filter:  ti,
		keys:    defaultKeyMap(),
		loading: true,
		now:     time.Now,
	}
}

// Init 实现 tea.Model
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.loadTab(TabServers),
		m.startFeed(),
		waitForFeed(m.feedC),
		tickCmd(),
	)
}

// 消息类型

type rowsLoadedMsg struct {
	tab  Tab
	rows []row
}

type deletedMsg struct {
	tab    Tab
	id     string
	result client.Deletion
}

type feedEventMsg struct {
	event service.AdEvent
}

type feedStoppedMsg struct {
	err error
}

type errorMsg struct {
	err error
}

type tickMsg time.Time

// 命令

func (m Model) listParams(tab Tab) client.ListParams {
	st := m.tabs[tab]
	p := client.ListParams{Query: st.query}
	if st.sort.Active() {
		p.Sort = st.sort.Key
		p.Direction = string(st.sort.Direction)
	}
	return p
}

func (m Model) loadTab(tab Tab) tea.Cmd {
	if tab == TabAdFeed {
		return nil
	}
	ctx, backend, params := m.ctx, m.backend, m.listParams(tab)
	return func() tea.Msg {
		var rows []row
		switch tab {
		case TabServers:
			items, err := backend.Servers(ctx, params)
			if err != nil {
				return errorMsg{err: err}
			}
			rows = serverRows(items)
		case TabConfigs:
			items, err := backend.Configs(ctx, params)
			if err != nil {
				return errorMsg{err: err}
			}
			rows = configRows(items)
		case TabPremiumUsers:
			items, err := backend.PremiumUsers(ctx, params)
			if err != nil {
				return errorMsg{err: err}
			}
			rows = premiumUserRows(items)
		}
		return rowsLoadedMsg{tab: tab, rows: rows}
	}
}

func (m Model) deleteRow(tab Tab, r row) tea.Cmd {
	ctx, backend := m.ctx, m.backend
	return func() tea.Msg {
		res, err := backend.Delete(ctx, tab, r.id)
		if err != nil {
			return errorMsg{err: err}
		}
		return deletedMsg{tab: tab, id: r.id, result: res}
	}
}

// startFeed 在后台跑 Tail，事件通过 feedC 交给 Update。满了就丢，界面只展示最近的事件。
func (m Model) startFeed() tea.Cmd {
	ctx, backend, ch := m.ctx, m.backend, m.feedC
	return func() tea.Msg {
		err := backend.Tail(ctx, func(e service.AdEvent) {
			select {
			case ch <- e:
			default:
			}
		})
		return feedStoppedMsg{err: err}
	}
}

func waitForFeed(ch <-chan service.AdEvent) tea.Cmd {
	return func() tea.Msg {
		return feedEventMsg{event: <-ch}
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(10*time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// 表格定义

func columnsFor(tab Tab) []column {
	switch tab {
	case TabServers:
		return []column{
			{"Country", 8, "country"},
			{"City", 14, "city"},
			{"IPv4", 16, "ipv4"},
			{"Online", 8, "onlineUsers"},
			{"Capacity", 8, "capacity"},
			{"Load", 6, ""},
			{"Protocols", 16, ""},
			{"CDN", 4, ""},
			{"Premium", 7, "premium"},
		}
	case TabConfigs:
		return []column{
			{"Name", 18, "name"},
			{"Type", 10, "type"},
			{"Host", 22, ""},
			{"Operator", 10, "operator"},
			{"Priority", 8, "testPriority"},
			{"Downloads", 9, "downloaded"},
			{"Votes", 9, "votesPositive"},
			{"Premium", 7, ""},
		}
	case TabPremiumUsers:
		return []column{
			{"Email", 26, "email"},
			{"Start", 10, "dateStart"},
			{"End", 10, "dateEnd"},
			{"Months", 6, "months"},
			{"Paid", 8, "pricePaid"},
			{"Flags", 20, ""},
		}
	}
	return nil
}

// sortableKeys 返回当前页签可排序列的 key，按列顺序。
func sortableKeys(tab Tab) []string {
	var keys []string
	for _, c := range columnsFor(tab) {
		if c.sortKey != "" {
			keys = append(keys, c.sortKey)
		}
	}
	return keys
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func formatDay(unix int64) string {
	if unix == 0 {
		return "-"
	}
	return time.Unix(unix, 0).UTC().Format("2006-01-02")
}

func serverRows(items []repository.Server) []row {
	rows := make([]row, 0, len(items))
	for i := range items {
		s := &items[i]
		load := service.LoadOf(s)
		rows = append(rows, row{
			id:    s.ID,
			label: strings.TrimSpace(s.Country + " " + s.City),
			cells: []string{
				s.Country,
				s.City,
				s.IPv4,
				strconv.FormatInt(s.OnlineUsers, 10),
				strconv.FormatInt(s.Capacity, 10),
				fmt.Sprintf("%.0f%%", load.Utilization*100),
				strings.Join(load.Protocols, ","),
				strconv.Itoa(load.CDNDomains),
				yesNo(s.Premium),
			},
			band:   load.Band,
			entity: s,
		})
	}
	return rows
}

func configRows(items []repository.Config) []row {
	rows := make([]row, 0, len(items))
	for i := range items {
		c := &items[i]
		rows = append(rows, row{
			id:    c.ID,
			label: c.Name,
			cells: []string{
				c.Name,
				c.Type,
				strings.Join(service.SplitHosts(c.Host), " "),
				c.Operator,
				strconv.Itoa(c.TestPriority),
				strconv.FormatInt(c.Downloaded, 10),
				fmt.Sprintf("+%d/-%d", c.VotesPositive, c.VotesNegative),
				yesNo(c.ForPremium),
			},
			entity: c,
		})
	}
	return rows
}

func premiumUserRows(items []repository.PremiumUser) []row {
	rows := make([]row, 0, len(items))
	for i := range items {
		u := &items[i]
		var flags []string
		if u.Expired {
			flags = append(flags, "expired")
		}
		if u.Suspicious {
			flags = append(flags, "suspicious")
		}
		if u.Used {
			flags = append(flags, "used")
		}
		rows = append(rows, row{
			id:    u.ID,
			label: u.Email,
			cells: []string{
				u.Email,
				formatDay(u.DateStart),
				formatDay(u.DateEnd),
				strconv.Itoa(u.Months),
				u.PricePaid,
				strings.Join(flags, ","),
			},
			entity: u,
		})
	}
	return rows
}

// detailLines 把实体转成 YAML，供详情视图滚动展示。
func detailLines(r *row) []string {
	if r == nil {
		return nil
	}
	out, err := yaml.Marshal(r.entity)
	if err != nil {
		return []string{fmt.Sprintf("cannot render: %v", err)}
	}
	return strings.Split(strings.TrimRight(string(out), "\n"), "\n")
}
