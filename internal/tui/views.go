package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/hong9883/ai-drug-approval-test/internal/catalog"
	"github.com/hong9883/ai-drug-approval-test/internal/chat"
	"github.com/hong9883/ai-drug-approval-test/internal/models"
	"github.com/hong9883/ai-drug-approval-test/internal/stats"
	"github.com/hong9883/ai-drug-approval-test/internal/upload"
)

const appTitle = "의약품 허가심사 검토 시스템"

var uploadStateLabels = map[upload.State]string{
	upload.StateEmpty:        "파일을 선택해주세요",
	upload.StateFileSelected: "업로드 준비 완료",
	upload.StateSubmitting:   "업로드 중...",
	upload.StateSucceeded:    "업로드 완료",
	upload.StateFailed:       "업로드 실패",
}

func (a *App) View() (output string) {
	// Recover from any panics to prevent TUI crash
	defer func() {
		if r := recover(); r != nil {
			output = fmt.Sprintf("\n  화면을 그리는 중 오류가 발생했습니다: %v\n\n  ctrl+c 로 종료하세요.", r)
		}
	}()

	if a.quitting {
		return ""
	}
	if !a.ready {
		return "\n  " + a.spinner.View() + " 시작하는 중..."
	}

	chatW, mainW, bodyH := a.paneSizes()
	w := chatW + mainW
	h := bodyH + 2

	if a.confirm != nil {
		return a.viewConfirm(w, h)
	}
	if a.showHelp {
		return a.viewHelp(w, h)
	}

	body := lipgloss.JoinHorizontal(lipgloss.Top,
		a.viewChat(chatW, bodyH),
		a.viewMain(mainW, bodyH),
	)
	return lipgloss.JoinVertical(lipgloss.Left, a.viewHeader(w), body, a.viewFooter(w))
}

func (a *App) viewHeader(w int) string {
	logo := a.theme.LogoDot.Render("◉") + a.theme.Logo.Render(" "+appTitle)

	right := a.theme.UserName.Render(a.c.User.Name)
	if a.c.User.Department != "" {
		right += a.theme.ValueMuted.Render(" · " + a.c.User.Department)
	}

	gap := w - lipgloss.Width(logo) - lipgloss.Width(right) - 4
	if gap < 1 {
		gap = 1
	}

	return a.theme.HeaderContainer.Width(w).MaxHeight(1).Render(logo + strings.Repeat(" ", gap) + right)
}

func (a *App) pane(focused bool, w, h int) lipgloss.Style {
	style := a.theme.Pane
	if focused {
		style = a.theme.PaneFocus
	}
	return style.Width(w - 2).Height(h - 2).MaxHeight(h)
}

func (a *App) viewChat(w, h int) string {
	st := a.c.Chat.Snapshot()

	title := a.theme.Title.Render("AI 어시스턴트")
	strategy := a.theme.Label.Render("프롬프트 타입 ") +
		a.theme.Strategy.Render(st.Strategy.Label()) +
		a.theme.ValueMuted.Render("  ctrl+p 변경")

	pending := ""
	if st.Pending {
		pending = a.spinner.View() + a.theme.ValueMuted.Render(" 답변을 생성하고 있습니다...")
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		title,
		strategy,
		a.transcript.View(),
		pending,
		a.input.View(),
	)
	return a.pane(a.focus == FocusChat, w, h).Render(content)
}

func (a *App) renderTranscript(st chat.State) string {
	w := max(a.transcript.Width, 20)
	if len(st.Messages) == 0 {
		return a.theme.ValueMuted.Width(w).Render("질문을 입력하면 등록된 문서를 바탕으로 답변합니다.")
	}

	bubbleMax := max(w*4/5, 10)
	var blocks []string
	for _, m := range st.Messages {
		stamp := m.Timestamp.Format("15:04")
		if m.IsUser {
			bubble := a.theme.BubbleUser.Width(min(lipgloss.Width(m.Text)+2, bubbleMax)).Render(m.Text)
			meta := a.theme.Timestamp.Render(stamp)
			blocks = append(blocks,
				lipgloss.PlaceHorizontal(w, lipgloss.Right, bubble),
				lipgloss.PlaceHorizontal(w, lipgloss.Right, meta),
			)
			continue
		}

		bubble := a.theme.BubbleBot.Width(min(lipgloss.Width(m.Text)+2, bubbleMax)).Render(m.Text)
		meta := stamp
		if m.ResponseTime > 0 {
			meta += fmt.Sprintf(" · %.1fs", m.ResponseTime.Seconds())
		}
		blocks = append(blocks, bubble)
		for i, src := range m.Sources {
			if i == 3 {
				blocks = append(blocks, a.theme.Source.Render(fmt.Sprintf("  외 %d건", len(m.Sources)-3)))
				break
			}
			line := fmt.Sprintf("  📄 %s p.%d", src.FileName, src.PageNumber)
			blocks = append(blocks, a.theme.Source.Render(truncate(line, w)))
		}
		blocks = append(blocks, a.theme.Timestamp.Render(meta))
	}
	return strings.Join(blocks, "\n")
}

func (a *App) viewMain(w, h int) string {
	inner := w - 4
	contentH := h - 4

	var content string
	switch a.activeTab {
	case TabDocuments:
		content = a.viewDocuments(inner, contentH)
	case TabUpload:
		content = a.viewUpload(inner)
	case TabStatistics:
		content = a.viewStatistics(inner)
	}

	body := lipgloss.JoinVertical(lipgloss.Left, a.viewTabs(), "", content)
	return a.pane(a.focus == FocusMain, w, h).Render(body)
}

func (a *App) viewTabs() string {
	names := TabNames()
	var tabs []string

	for i, name := range names {
		label := fmt.Sprintf(" F%d %s ", i+1, name)
		if TabIndex(i) == a.activeTab {
			tabs = append(tabs, a.theme.TabActive.Render(label))
		} else {
			tabs = append(tabs, a.theme.TabInactive.Render(label))
		}
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (a *App) viewDocuments(w, h int) string {
	st := a.c.Catalog.Snapshot()

	var searchLine string
	switch {
	case a.searching:
		searchLine = a.search.View()
	case st.Mode == catalog.ModeSearch:
		searchLine = a.theme.Label.Render("검색: ") + a.theme.Value.Render(st.Keyword) +
			a.theme.ValueMuted.Render("  esc 해제")
	default:
		searchLine = a.theme.ValueMuted.Render("/ 문서 검색...")
	}

	status := a.theme.Label.Render(fmt.Sprintf("총 %d건", st.Total))
	if st.Loading {
		status += " " + a.spinner.View() + a.theme.ValueMuted.Render(" 로딩중...")
	}

	lines := []string{searchLine, status}
	if st.Err != "" {
		lines = append(lines, a.theme.StatusError.Render("✗ "+st.Err))
	}

	listH := max(h/2-len(lines), 2)
	lines = append(lines, a.viewDocumentList(st, w, listH))
	lines = append(lines, a.viewViewerHeader(w), a.viewer.View())
	return strings.Join(lines, "\n")
}

func (a *App) viewDocumentList(st catalog.State, w, rows int) string {
	const (
		statusW   = 8
		sizeW     = 10
		pagesW    = 6
		uploaderW = 10
		dateW     = 10
	)
	nameW := max(w-2-statusW-sizeW-pagesW-uploaderW-dateW-5, 10)

	header := "  " + strings.Join([]string{
		pad("파일명", nameW), pad("상태", statusW), pad("크기", sizeW),
		pad("페이지", pagesW), pad("업로드자", uploaderW), pad("등록일", dateW),
	}, " ")
	out := []string{a.theme.TableHeader.Render(truncate(header, w))}

	if len(st.Items) == 0 {
		if !st.Loading {
			out = append(out, a.theme.ValueMuted.Render("  문서가 없습니다"))
		}
		return strings.Join(out, "\n")
	}

	visible := max(rows-2, 1)
	start := 0
	if a.cursor >= visible {
		start = a.cursor - visible + 1
	}
	end := min(start+visible, len(st.Items))

	for i := start; i < end; i++ {
		d := st.Items[i]
		marker := "  "
		if st.SelectedID != nil && *st.SelectedID == d.ID {
			marker = "● "
		}
		row := marker + strings.Join([]string{
			pad(d.OriginalFileName, nameW),
			a.statusBadge(d.Status, statusW),
			pad(models.FormatSize(d.SizeBytes), sizeW),
			pad(fmt.Sprintf("%d", d.PageCount), pagesW),
			pad(d.UploadedBy, uploaderW),
			pad(formatDate(d.CreatedAt.Time), dateW),
		}, " ")
		if i == a.cursor && a.focus == FocusMain {
			row = a.theme.ListItemActive.Render(row)
		} else {
			row = a.theme.ListItem.Render(row)
		}
		out = append(out, row)
	}
	return strings.Join(out, "\n")
}

func (a *App) statusBadge(status models.DocStatus, w int) string {
	label := pad(catalog.StatusLabel(status), w)
	switch status {
	case models.DocCompleted:
		return a.theme.StatusSuccess.Render(label)
	case models.DocProcessing:
		return a.theme.StatusWarning.Render(label)
	case models.DocUploading:
		return a.theme.StatusInfo.Render(label)
	case models.DocFailed:
		return a.theme.StatusError.Render(label)
	}
	return label
}

func (a *App) viewViewerHeader(w int) string {
	view := a.c.Viewer.Snapshot()
	if view.Document == nil {
		return a.theme.TableHeader.Width(w).Render("문서 뷰어")
	}
	d := view.Document
	badge := a.docBadge(d.Status)
	info := fmt.Sprintf("  %d/%d 페이지  %d%%", view.Page, view.PageCount, view.Zoom)
	name := truncate(d.OriginalFileName, max(w-lipgloss.Width(info)-lipgloss.Width(badge)-3, 10))
	return a.theme.TableHeader.Width(w).Render(badge + " " + name + info)
}

func (a *App) docBadge(status models.DocStatus) string {
	label := catalog.StatusLabel(status)
	switch status {
	case models.DocCompleted:
		return a.theme.BadgeSuccess.Render(label)
	case models.DocProcessing:
		return a.theme.BadgeWarning.Render(label)
	case models.DocFailed:
		return a.theme.BadgeError.Render(label)
	}
	return a.theme.BadgeInfo.Render(label)
}

func (a *App) renderPage(view catalog.View) string {
	w := max(a.viewer.Width, 20)
	switch view.State {
	case catalog.ViewLoading:
		return a.theme.ValueMuted.Render("문서를 불러오는 중...")
	case catalog.ViewProcessing:
		return a.theme.StatusWarning.Render(view.Message)
	case catalog.ViewUnavailable:
		return a.theme.StatusError.Render(view.Message)
	case catalog.ViewReady:
		var meta []string
		if d := view.Document; d != nil {
			meta = append(meta, a.theme.Label.Render(fmt.Sprintf("업로드자 %s · %s · %s",
				d.UploadedBy, models.FormatSize(d.SizeBytes), formatDate(d.CreatedAt.Time))))
			if d.Description != "" {
				meta = append(meta, a.theme.ValueMuted.Width(w).Render(d.Description))
			}
		}
		if view.Message != "" {
			meta = append(meta, "", a.theme.ValueMuted.Render(view.Message))
			return strings.Join(meta, "\n")
		}
		text := view.PageText()
		if text == "" {
			text = "(빈 페이지)"
		}
		// Larger zoom means fewer characters per line.
		wrap := max(w*catalog.DefaultZoom/view.Zoom, 20)
		wrap = min(wrap, w)
		meta = append(meta, "", lipgloss.NewStyle().Width(wrap).Render(text))
		return strings.Join(meta, "\n")
	}
	return a.theme.ValueMuted.Render(view.Message)
}

func (a *App) viewUpload(w int) string {
	snap := a.c.Upload.Snapshot()

	var b strings.Builder
	b.WriteString(a.theme.Title.Render("문서 등록"))
	b.WriteString("\n\n")

	labels := [fieldCount]string{"PDF 파일", "업로드자", "문서 설명"}
	for i, label := range labels {
		style := a.theme.InputLabel
		if i == a.field && a.focus == FocusMain {
			style = a.theme.InputLabelFocus
		}
		b.WriteString(style.Width(12).Render(label))
		b.WriteString(a.fields[i].View())
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if f := snap.File; f != nil {
		info := fmt.Sprintf("📄 %s · %s", f.Name, models.FormatSize(f.SizeBytes))
		if f.PageCount > 0 {
			info += fmt.Sprintf(" · %d 페이지", f.PageCount)
		}
		b.WriteString(a.theme.Value.Render(truncate(info, w)))
		b.WriteString(a.theme.ValueMuted.Render("  ctrl+x 제거"))
		b.WriteString("\n")
	}

	b.WriteString(a.theme.Label.Render("상태 "))
	if snap.State == upload.StateSubmitting {
		b.WriteString(a.spinner.View() + " ")
	}
	b.WriteString(a.theme.Value.Render(uploadStateLabels[snap.State]))
	b.WriteString("\n")

	if snap.State == upload.StateSubmitting || snap.State == upload.StateSucceeded {
		b.WriteString(a.progress.ViewAs(float64(snap.Progress) / 100))
		b.WriteString("\n")
	}

	if al := snap.Alert; al != nil {
		b.WriteString("\n")
		b.WriteString(a.alertStyle(al.Type).Width(w).Render(al.Message))
		b.WriteString("\n")
	}

	if d := snap.Document; d != nil && snap.State == upload.StateSucceeded {
		b.WriteString(a.theme.ValueMuted.Render(fmt.Sprintf("문서 ID %d · %s", d.ID, catalog.StatusLabel(d.Status))))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(a.theme.Help.Render("enter 파일 선택 · ctrl+s 업로드 · ctrl+r 초기화"))
	return b.String()
}

func (a *App) alertStyle(t upload.AlertType) lipgloss.Style {
	switch t {
	case upload.AlertSuccess:
		return a.theme.StatusSuccess
	case upload.AlertError:
		return a.theme.StatusError
	}
	return a.theme.StatusInfo
}

func (a *App) viewStatistics(w int) string {
	st := a.c.Stats.Snapshot()

	if st.Loading && st.Snapshot == nil {
		return a.spinner.View() + a.theme.ValueMuted.Render(" 통계 데이터를 불러오는 중...")
	}
	if st.Err != "" {
		return a.theme.StatusError.Render("✗ "+st.Err) + "\n\n" + a.theme.Help.Render("r 다시 시도")
	}
	snap := st.Snapshot
	if snap == nil {
		return a.theme.ValueMuted.Render("r 키를 눌러 통계를 불러오세요")
	}

	ds := snap.DocumentStatistics
	qs := snap.QueryStatistics
	var b strings.Builder

	b.WriteString(a.theme.Title.Render("통계 조회"))
	if st.Loading {
		b.WriteString(" " + a.spinner.View())
	}
	b.WriteString("\n\n")

	b.WriteString(a.statLine(
		"총 문서 수", fmt.Sprint(ds.TotalDocuments),
		"완료", fmt.Sprint(ds.CompletedDocuments),
		"처리 중", fmt.Sprint(ds.ProcessingDocuments),
		"실패", fmt.Sprint(ds.FailedDocuments),
	))
	b.WriteString("\n")
	b.WriteString(a.statLine(
		"총 페이지 수", fmt.Sprint(ds.TotalPages),
		"총 저장 용량", models.FormatSize(ds.TotalSize),
	))
	b.WriteString("\n\n")

	b.WriteString(a.theme.Label.Render("문서 상태별 분포"))
	b.WriteString("\n")
	statuses := stats.StatusSeries(snap)
	var statusMax int64
	for _, p := range statuses {
		statusMax = max(statusMax, p.Value)
	}
	for _, p := range statuses {
		b.WriteString(a.barLine(p.Label, p.Value, statusMax, w, ""))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	b.WriteString(a.statLine(
		"총 질의 수", fmt.Sprint(qs.TotalQueries),
		"오늘", fmt.Sprint(qs.QueriesToday),
		"이번 주", fmt.Sprint(qs.QueriesThisWeek),
		"이번 달", fmt.Sprint(qs.QueriesThisMonth),
	))
	b.WriteString("\n\n")

	b.WriteString(a.theme.Label.Render("프롬프트 타입별 사용 횟수"))
	b.WriteString("\n")
	prompts := stats.PromptSeries(snap)
	var promptMax int64
	for _, p := range prompts {
		promptMax = max(promptMax, p.Count)
	}
	for _, p := range prompts {
		b.WriteString(a.barLine(p.Label, p.Count, promptMax, w, fmt.Sprintf("평균 %.0fms", p.AvgTime)))
		b.WriteString("\n")
	}

	if len(qs.TopUsers) > 0 {
		b.WriteString("\n")
		b.WriteString(a.theme.Label.Render("사용자 순위"))
		b.WriteString("\n")
		for i, u := range qs.TopUsers {
			row := fmt.Sprintf("%2d. %s %s %s", i+1, pad(u.UserName, 12), pad(u.Department, 16), fmt.Sprintf("%d건", u.QueryCount))
			b.WriteString(a.theme.ListItem.Render(truncate(row, w)))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(a.theme.Help.Render("r 새로고침 · e 엑셀 내보내기"))
	return b.String()
}

// statLine renders label/value pairs on one line.
func (a *App) statLine(pairs ...string) string {
	var parts []string
	for i := 0; i+1 < len(pairs); i += 2 {
		parts = append(parts, a.theme.Label.Render(pairs[i]+" ")+a.theme.Value.Bold(true).Render(pairs[i+1]))
	}
	return strings.Join(parts, a.theme.ValueMuted.Render("  │  "))
}

func (a *App) barLine(label string, value, maxValue int64, w int, suffix string) string {
	const labelW = 12
	tail := fmt.Sprintf(" %d", value)
	if suffix != "" {
		tail += "  " + suffix
	}
	barW := max(w-labelW-lipgloss.Width(tail)-1, 1)
	n := 0
	if maxValue > 0 {
		n = int(float64(value) / float64(maxValue) * float64(barW))
	}
	return pad(label, labelW) + " " + a.theme.Bar.Render(strings.Repeat("█", n)) + a.theme.ValueMuted.Render(tail)
}

func (a *App) viewFooter(w int) string {
	left := a.help.ShortHelpView(a.currentHelp().ShortHelp())
	if a.toast != "" && time.Now().Before(a.toastExpiry) {
		style := a.theme.StatusSuccess
		if a.toastErr {
			style = a.theme.StatusError
		}
		left = style.Render(truncate(a.toast, w-4))
	}

	var parts []string
	if a.c.BackendURL != "" {
		parts = append(parts, a.c.BackendURL)
	}
	if a.c.Version != "" {
		parts = append(parts, "v"+a.c.Version)
	}
	right := a.theme.ValueMuted.Render(strings.Join(parts, " · "))

	gap := w - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	return a.theme.FooterContainer.Width(w).MaxHeight(1).Render(left + strings.Repeat(" ", gap) + right)
}

func (a *App) currentHelp() contextKeys {
	if a.focus == FocusChat {
		return a.keys.chatHelp()
	}
	switch a.activeTab {
	case TabUpload:
		return a.keys.uploadHelp()
	case TabStatistics:
		return a.keys.statisticsHelp()
	}
	return a.keys.documentsHelp()
}

func (a *App) viewConfirm(w, h int) string {
	content := a.theme.ModalTitle.Render("문서 삭제") + "\n\n" +
		a.theme.Value.Render(fmt.Sprintf("'%s' 문서를 삭제하시겠습니까?", a.confirm.OriginalFileName)) + "\n\n" +
		a.theme.Help.Render("[y] 예  [n] 아니오")

	return lipgloss.Place(w, h,
		lipgloss.Center, lipgloss.Center,
		a.theme.ModalContainer.Render(content),
		lipgloss.WithWhitespaceBackground(ColorBackground),
	)
}

func (a *App) viewHelp(w, h int) string {
	content := a.theme.ModalTitle.Render("단축키") + "\n\n" +
		a.help.FullHelpView(a.currentHelp().FullHelp()) + "\n\n" +
		a.theme.Help.Render("아무 키나 눌러 닫기")

	return lipgloss.Place(w, h,
		lipgloss.Center, lipgloss.Center,
		a.theme.ModalContainer.Render(content),
		lipgloss.WithWhitespaceBackground(ColorBackground),
	)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02")
}

// truncate cuts s to width display cells, marking the cut with "..".
func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if lipgloss.Width(s) <= width {
		return s
	}
	r := []rune(s)
	for len(r) > 0 && lipgloss.Width(string(r))+2 > width {
		r = r[:len(r)-1]
	}
	return string(r) + ".."
}

// pad truncates or right-pads s to exactly w display cells.
func pad(s string, w int) string {
	s = truncate(s, w)
	if n := lipgloss.Width(s); n < w {
		s += strings.Repeat(" ", w-n)
	}
	return s
}
