package tui

import (
	"fmt"
	"strings"

	"github.com/creamcroissant/ordersync/internal/service"
)

// View 实现 tea.Model
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	switch m.view {
	case ViewLegacyList:
		return m.renderLegacyView()
	case ViewNewOrder:
		return m.renderNewOrderView()
	default:
		return m.renderBoardView()
	}
}

func (m Model) renderBanner(b *strings.Builder, title string) {
	b.WriteString(styleHeader.Width(m.width).Render("  " + title))
	b.WriteString("\n\n")

	if m.err != nil {
		b.WriteString(styleError.Render(fmt.Sprintf("  Error: %v", m.err)))
		b.WriteString("\n\n")
	} else if m.notice != "" {
		b.WriteString(styleNotice.Render("  Saved " + m.notice))
		b.WriteString("\n\n")
	}

	if m.loading {
		b.WriteString(styleMuted().Render("  Loading..."))
		b.WriteString("\n\n")
	}
}

func (m Model) visibleRows() int {
	rows := m.height - 12
	if rows < 5 {
		rows = 5
	}
	return rows
}

func (m Model) renderBoardView() string {
	var b strings.Builder
	m.renderBanner(&b, "Order Status Sync")

	tableHeader := fmt.Sprintf("  %-24s │ %-14s │ %s", "Order", "Status", "Updated")
	b.WriteString(styleTableHeader.Width(m.width).Render(tableHeader))
	b.WriteString("\n")
	b.WriteString(styleMuted().Render(strings.Repeat("─", m.width)))
	b.WriteString("\n")

	if len(m.rows) == 0 {
		b.WriteString(styleMuted().Render("  No synced orders yet. Press [n] to add one."))
		b.WriteString("\n")
	} else {
		visible := m.visibleRows()
		start := 0
		if m.selected >= visible {
			start = m.selected - visible + 1
		}
		end := min(start+visible, len(m.rows))

		for i := start; i < end; i++ {
			row := m.rows[i]
			line := fmt.Sprintf("  %-24s │ %-14s │ %s", truncate(row.OrderID, 24), StatusChip(row.StatusKey), row.UpdatedAt)
			if i == m.selected {
				b.WriteString(styleTableRowSelected.Width(m.width).Render(line))
			} else {
				b.WriteString(styleTableRow.Render(line))
			}
			b.WriteString("\n")
		}
		if len(m.rows) > visible {
			b.WriteString(styleMuted().Render(fmt.Sprintf("  Showing %d-%d of %d orders", start+1, end, len(m.rows))))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(styleHelp.Render("  " + chipHelp()))
	b.WriteString("\n")
	b.WriteString(styleHelp.Render("  [↑/↓] Navigate  [n] New  [l] Legacy  [r] Refresh  [q] Quit"))
	return b.String()
}

func (m Model) renderLegacyView() string {
	var b strings.Builder
	m.renderBanner(&b, "Legacy Orders")

	tableHeader := fmt.Sprintf("  %-24s │ %-10s │ %-10s │ %s", "Order", "Status", "Tracking", "Updated")
	b.WriteString(styleTableHeader.Width(m.width).Render(tableHeader))
	b.WriteString("\n")

	if len(m.legacy) == 0 {
		b.WriteString(styleMuted().Render("  Legacy orders list is empty or missing."))
		b.WriteString("\n")
	}
	for i, order := range m.legacy {
		if i >= m.visibleRows() {
			b.WriteString(styleMuted().Render(fmt.Sprintf("  … %d more", len(m.legacy)-i)))
			b.WriteString("\n")
			break
		}
		line := fmt.Sprintf("  %-24s │ %-10s │ %-10s │ %s", truncate(order.ID, 24), order.Status, order.TrackingStatus, order.UpdatedAt)
		b.WriteString(styleTableRow.Render(line))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(styleHelp.Render("  [l/esc] Back  [r] Refresh  [q] Quit"))
	return b.String()
}

func (m Model) renderNewOrderView() string {
	var b strings.Builder
	m.renderBanner(&b, "New Order")
	b.WriteString(styleBox.Render("Order id\n\n" + m.input.View()))
	b.WriteString("\n\n")
	b.WriteString(styleHelp.Render("  [enter] Save as preparing  [esc] Cancel"))
	return b.String()
}

func chipHelp() string {
	parts := make([]string, len(service.StatusKeys))
	for i, k := range service.StatusKeys {
		parts[i] = fmt.Sprintf("[%d] %s", i+1, k)
	}
	return strings.Join(parts, "  ")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
