package tui

import (
	"context"
	"sort"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/creamcroissant/ordersync/internal/repository"
	"github.com/creamcroissant/ordersync/internal/service"
)

// ViewType 表示当前视图
type ViewType int

const (
	ViewStatusBoard ViewType = iota // 同步状态列表
	ViewLegacyList                  // 旧订单列表
	ViewNewOrder                    // 输入新订单号
)

// Model 是主 TUI 模型
type Model struct {
	// 数据
	rows     []repository.SyncedOrderStatus
	legacy   []repository.LegacyOrder
	selected int

	view  ViewType
	input textinput.Model

	// 依赖
	sync       service.OrderStatusSyncService
	legacyRepo repository.LegacyOrderRepository

	// 终端尺寸
	width  int
	height int

	// 状态
	loading bool
	err     error
	notice  string

	keys     keyMap
	interval time.Duration
}

// keyMap 定义全部按键绑定
type keyMap struct {
	Up      key.Binding
	Down    key.Binding
	Chip    key.Binding
	New     key.Binding
	Legacy  key.Binding
	Back    key.Binding
	Quit    key.Binding
	Refresh key.Binding
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
		Chip: key.NewBinding(
			key.WithKeys("1", "2", "3", "4"),
			key.WithHelp("1-4", "set status"),
		),
		New: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "new order"),
		),
		Legacy: key.NewBinding(
			key.WithKeys("l"),
			key.WithHelp("l", "legacy orders"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
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
	}
}

// NewModel 创建新的 TUI 模型，legacy 可以为 nil。
func NewModel(sync service.OrderStatusSyncService, legacy repository.LegacyOrderRepository) Model {
	input := textinput.New()
	input.Placeholder = "order id"
	input.CharLimit = 64
	return Model{
		sync:       sync,
		legacyRepo: legacy,
		view:       ViewStatusBoard,
		input:      input,
		keys:       defaultKeyMap(),
		loading:    true,
		interval:   5 * time.Second,
	}
}

// Init 实现 tea.Model
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.loadStatuses(), m.tickCmd())
}

// 消息类型

type statusesLoadedMsg struct {
	rows []repository.SyncedOrderStatus
}

type legacyLoadedMsg struct {
	orders []repository.LegacyOrder
}

type statusSavedMsg struct {
	orderID string
	key     repository.StatusKey
}

type errorMsg struct {
	err error
}

type tickMsg time.Time

// 命令

func (m Model) loadStatuses() tea.Cmd {
	return func() tea.Msg {
		return statusesLoadedMsg{rows: sortedStatuses(m.sync.GetSyncedOrderStatuses(context.Background()))}
	}
}

func (m Model) loadLegacy() tea.Cmd {
	return func() tea.Msg {
		if m.legacyRepo == nil {
			return legacyLoadedMsg{}
		}
		orders, err := m.legacyRepo.List(context.Background())
		if err != nil {
			return errorMsg{err: err}
		}
		return legacyLoadedMsg{orders: orders}
	}
}

func (m Model) saveStatus(orderID string, key repository.StatusKey) tea.Cmd {
	return func() tea.Msg {
		if err := m.sync.SetSyncedOrderStatus(context.Background(), orderID, key); err != nil {
			return errorMsg{err: err}
		}
		return statusSavedMsg{orderID: orderID, key: key}
	}
}

func (m Model) tickCmd() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// sortedStatuses orders newest first; ties fall back to orderId descending.
func sortedStatuses(all map[string]repository.SyncedOrderStatus) []repository.SyncedOrderStatus {
	rows := make([]repository.SyncedOrderStatus, 0, len(all))
	for _, s := range all {
		rows = append(rows, s)
	}
	sort.Slice(rows, func(i, j int) bool {
		ti, tj := rows[i].UpdatedTime(), rows[j].UpdatedTime()
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return rows[i].OrderID > rows[j].OrderID
	})
	return rows
}
