package tui

import (
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap defines all keyboard shortcuts
type KeyMap struct {
	// Global
	SwitchPane key.Binding
	NextTab    key.Binding
	Tab1       key.Binding
	Tab2       key.Binding
	Tab3       key.Binding
	Help       key.Binding
	Quit       key.Binding
	ForceQuit  key.Binding

	// Chat
	Send       key.Binding
	Newline    key.Binding
	Strategy   key.Binding
	ScrollUp   key.Binding
	ScrollDown key.Binding

	// Navigation
	Up    key.Binding
	Down  key.Binding
	Enter key.Binding

	// Documents
	Search   key.Binding
	Cancel   key.Binding
	Refresh  key.Binding
	Download key.Binding
	Delete   key.Binding
	PrevPage key.Binding
	NextPage key.Binding
	ZoomIn   key.Binding
	ZoomOut  key.Binding

	// Upload
	Submit key.Binding
	Reset  key.Binding
	Remove key.Binding

	// Statistics
	Export key.Binding

	// Modal actions
	Confirm key.Binding
	Deny    key.Binding
}

// DefaultKeyMap returns the default key bindings
func DefaultKeyMap() KeyMap {
	return KeyMap{
		SwitchPane: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "채팅/작업 전환"),
		),
		NextTab: key.NewBinding(
			key.WithKeys("shift+tab", "f4"),
			key.WithHelp("shift+tab", "다음 탭"),
		),
		Tab1: key.NewBinding(
			key.WithKeys("f1"),
			key.WithHelp("f1", "문서"),
		),
		Tab2: key.NewBinding(
			key.WithKeys("f2"),
			key.WithHelp("f2", "업로드"),
		),
		Tab3: key.NewBinding(
			key.WithKeys("f3"),
			key.WithHelp("f3", "통계"),
		),
		Help: key.NewBinding(
			key.WithKeys("f5"),
			key.WithHelp("f5", "도움말"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "종료"),
		),
		ForceQuit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "종료"),
		),

		Send: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "전송"),
		),
		Newline: key.NewBinding(
			key.WithKeys("alt+enter", "ctrl+j"),
			key.WithHelp("alt+enter", "줄바꿈"),
		),
		Strategy: key.NewBinding(
			key.WithKeys("ctrl+p"),
			key.WithHelp("ctrl+p", "프롬프트 타입"),
		),
		ScrollUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("pgup", "위로"),
		),
		ScrollDown: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("pgdn", "아래로"),
		),

		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "위"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "아래"),
		),
		Enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "열기"),
		),

		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "검색"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "취소"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "새로고침"),
		),
		Download: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "다운로드"),
		),
		Delete: key.NewBinding(
			key.WithKeys("x", "delete"),
			key.WithHelp("x", "삭제"),
		),
		PrevPage: key.NewBinding(
			key.WithKeys("[", "left"),
			key.WithHelp("[", "이전 페이지"),
		),
		NextPage: key.NewBinding(
			key.WithKeys("]", "right"),
			key.WithHelp("]", "다음 페이지"),
		),
		ZoomIn: key.NewBinding(
			key.WithKeys("+", "="),
			key.WithHelp("+", "확대"),
		),
		ZoomOut: key.NewBinding(
			key.WithKeys("-"),
			key.WithHelp("-", "축소"),
		),

		Submit: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("ctrl+s", "업로드"),
		),
		Reset: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("ctrl+r", "초기화"),
		),
		Remove: key.NewBinding(
			key.WithKeys("ctrl+x"),
			key.WithHelp("ctrl+x", "파일 제거"),
		),

		Export: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "엑셀 내보내기"),
		),

		Confirm: key.NewBinding(
			key.WithKeys("y", "Y"),
			key.WithHelp("y", "예"),
		),
		Deny: key.NewBinding(
			key.WithKeys("n", "N", "esc"),
			key.WithHelp("n", "아니오"),
		),
	}
}

// contextKeys is the help.KeyMap for one pane or tab.
type contextKeys struct {
	short []key.Binding
	full  [][]key.Binding
}

func (c contextKeys) ShortHelp() []key.Binding  { return c.short }
func (c contextKeys) FullHelp() [][]key.Binding { return c.full }

func (k KeyMap) chatHelp() contextKeys {
	return contextKeys{
		short: []key.Binding{k.Send, k.Newline, k.Strategy, k.SwitchPane, k.ForceQuit},
		full: [][]key.Binding{
			{k.Send, k.Newline, k.Strategy},
			{k.ScrollUp, k.ScrollDown},
			{k.SwitchPane, k.NextTab, k.Help, k.ForceQuit},
		},
	}
}

func (k KeyMap) documentsHelp() contextKeys {
	return contextKeys{
		short: []key.Binding{k.Up, k.Down, k.Enter, k.Search, k.Refresh, k.Download, k.Delete, k.Quit},
		full: [][]key.Binding{
			{k.Up, k.Down, k.Enter, k.Search, k.Refresh},
			{k.PrevPage, k.NextPage, k.ZoomIn, k.ZoomOut},
			{k.Download, k.Delete, k.SwitchPane, k.NextTab, k.Quit},
		},
	}
}

func (k KeyMap) uploadHelp() contextKeys {
	return contextKeys{
		short: []key.Binding{k.Up, k.Down, k.Submit, k.Reset, k.Remove, k.SwitchPane, k.ForceQuit},
		full: [][]key.Binding{
			{k.Up, k.Down, k.Enter},
			{k.Submit, k.Reset, k.Remove},
			{k.SwitchPane, k.NextTab, k.ForceQuit},
		},
	}
}

func (k KeyMap) statisticsHelp() contextKeys {
	return contextKeys{
		short: []key.Binding{k.Refresh, k.Export, k.SwitchPane, k.NextTab, k.Quit},
		full: [][]key.Binding{
			{k.Refresh, k.Export},
			{k.SwitchPane, k.NextTab, k.Quit},
		},
	}
}
