package tui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// TabIndex represents the currently active tab of the main pane
type TabIndex int

const (
	TabDocuments TabIndex = iota
	TabUpload
	TabStatistics
)

// String returns the tab name
func (t TabIndex) String() string {
	switch t {
	case TabDocuments:
		return "문서"
	case TabUpload:
		return "업로드"
	case TabStatistics:
		return "통계"
	default:
		return "Unknown"
	}
}

// TabNames returns all tab names
func TabNames() []string {
	return []string{TabDocuments.String(), TabUpload.String(), TabStatistics.String()}
}

const TabCount = 3

// Focus is the pane receiving keystrokes.
type Focus int

const (
	FocusChat Focus = iota
	FocusMain
)

// Custom messages for Bubble Tea

// ChangeMsg is sent when any component reported a state change.
type ChangeMsg struct{}

// DownloadResultMsg is sent when a document download finished
type DownloadResultMsg struct {
	Path string
	Err  error
}

// ExportResultMsg is sent when a statistics export finished
type ExportResultMsg struct {
	Path string
	Err  error
}

// Notifier turns component change callbacks into ChangeMsg values. Bursts
// of notifications collapse into one pending message.
type Notifier struct {
	ch chan struct{}
}

func NewNotifier() *Notifier {
	return &Notifier{ch: make(chan struct{}, 1)}
}

// Notify never blocks; pass it as a component's OnChange.
func (n *Notifier) Notify() {
	select {
	case n.ch <- struct{}{}:
	default:
	}
}

// Wait returns a command that delivers the next ChangeMsg.
func (n *Notifier) Wait() tea.Cmd {
	return func() tea.Msg {
		<-n.ch
		return ChangeMsg{}
	}
}
