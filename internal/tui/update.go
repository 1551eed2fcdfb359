package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/creamcroissant/ordersync/internal/repository"
	"github.com/creamcroissant/ordersync/internal/service"
)

// Update implements tea.Model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if m.view == ViewNewOrder {
			return m.handleInputKey(msg)
		}
		return m.handleKey(msg)

	case statusesLoadedMsg:
		m.loading = false
		m.err = nil
		m.rows = msg.rows
		if m.selected >= len(m.rows) {
			m.selected = max(len(m.rows)-1, 0)
		}
		return m, nil

	case legacyLoadedMsg:
		m.loading = false
		m.err = nil
		m.legacy = msg.orders
		return m, nil

	case statusSavedMsg:
		m.notice = fmt.Sprintf("%s → %s", msg.orderID, msg.key)
		return m, m.loadStatuses()

	case errorMsg:
		m.loading = false
		m.err = msg.err
		return m, nil

	case tickMsg:
		switch m.view {
		case ViewLegacyList:
			return m, tea.Batch(m.loadLegacy(), m.tickCmd())
		default:
			return m, tea.Batch(m.loadStatuses(), m.tickCmd())
		}
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		if len(m.rows) > 0 {
			m.selected--
			if m.selected < 0 {
				m.selected = len(m.rows) - 1
			}
		}
		return m, nil

	case key.Matches(msg, m.keys.Down):
		if len(m.rows) > 0 {
			m.selected++
			if m.selected >= len(m.rows) {
				m.selected = 0
			}
		}
		return m, nil

	case key.Matches(msg, m.keys.Chip):
		if m.view != ViewStatusBoard || len(m.rows) == 0 {
			return m, nil
		}
		idx := int(msg.String()[0] - '1')
		return m, m.saveStatus(m.rows[m.selected].OrderID, service.StatusKeys[idx])

	case key.Matches(msg, m.keys.New):
		m.view = ViewNewOrder
		m.input.SetValue("")
		return m, m.input.Focus()

	case key.Matches(msg, m.keys.Legacy):
		if m.view == ViewLegacyList {
			m.view = ViewStatusBoard
			return m, m.loadStatuses()
		}
		m.view = ViewLegacyList
		m.loading = true
		return m, m.loadLegacy()

	case key.Matches(msg, m.keys.Back):
		m.view = ViewStatusBoard
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		m.loading = true
		if m.view == ViewLegacyList {
			return m, m.loadLegacy()
		}
		return m, m.loadStatuses()
	}

	return m, nil
}

// handleInputKey drives the new-order prompt; a new order starts as preparing.
func (m Model) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.view = ViewStatusBoard
		m.input.Blur()
		return m, nil
	case tea.KeyCtrlC:
		return m, tea.Quit
	case tea.KeyEnter:
		orderID := strings.TrimSpace(m.input.Value())
		m.view = ViewStatusBoard
		m.input.Blur()
		if orderID == "" {
			return m, nil
		}
		m.selected = 0
		return m, m.saveStatus(orderID, repository.StatusPreparing)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}
