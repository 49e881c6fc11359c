// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/kluniversity/klu-agent/internal/model"
	"github.com/kluniversity/klu-agent/internal/ui/styles"
	"github.com/kluniversity/klu-agent/internal/util"
)

// historyItem is one saved conversation in the sidebar.
type historyItem struct {
	conv   model.Conversation
	active bool
}

// FilterValue implements list.Item.
func (i historyItem) FilterValue() string {
	return i.conv.Title
}

// historyDelegate renders a conversation as a title line and a meta line.
type historyDelegate struct {
	theme *styles.Theme
}

func (d historyDelegate) Height() int                             { return 2 }
func (d historyDelegate) Spacing() int                            { return 0 }
func (d historyDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (d historyDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(historyItem)
	if !ok {
		return
	}
	width := m.Width() - 2
	if width < 8 {
		width = 8
	}

	title := util.TruncateWidth(it.conv.Title, width-2)
	meta := fmt.Sprintf("%s · %d msgs", it.conv.CreatedAt.Local().Format("Jan 2 15:04"), it.conv.MessageCount())

	style := d.theme.HistoryItem
	prefix := "  "
	switch {
	case index == m.Index():
		style = d.theme.HistorySel
		prefix = "> "
	case it.active:
		style = d.theme.HistoryActive
		prefix = "* "
	}

	fmt.Fprintf(w, "%s\n%s",
		style.Render(prefix+title),
		d.theme.HistoryMeta.Render("  "+util.TruncateWidth(meta, width-2)))
}

// newHistoryList creates the sidebar list.
func newHistoryList(theme *styles.Theme) list.Model {
	l := list.New(nil, historyDelegate{theme: theme}, 0, 0)
	l.Title = "History"
	l.Styles.Title = theme.SidebarTitle
	l.SetShowHelp(false)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.DisableQuitKeybindings()
	l.SetStatusBarItemName("conversation", "conversations")
	return l
}

// historyItems converts conversations into list items.
func historyItems(convs []model.Conversation, currentID string) []list.Item {
	items := make([]list.Item, 0, len(convs))
	for _, c := range convs {
		items = append(items, historyItem{conv: c, active: c.ID == currentID})
	}
	return items
}
