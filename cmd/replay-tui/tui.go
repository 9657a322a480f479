package main

import (
	"fmt"
	"math"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"MarketReplay/internal/calculator"
	"MarketReplay/internal/dashboard"
	"MarketReplay/internal/model"
	"MarketReplay/internal/notifier"
	"MarketReplay/internal/scheduler"
	"MarketReplay/internal/viewport"
)

// ── styles ────────────────────────────────────────────────────────────────────

var (
	bullStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#26a641"))
	bearStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#e05c5c"))
	wickStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	axisStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#555555"))
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#aaaaaa"))
	footerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#555555"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#26a641"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#e05c5c"))
)

// ── messages ──────────────────────────────────────────────────────────────────

type feedMsg struct{ v any }

// ── model ─────────────────────────────────────────────────────────────────────

// Each candle is drawn two cells wide; a two-cell drag moves the window by
// one bar, the same as a 10px drag on the web chart.
const (
	cellsPerBar = 2
	pxPerCell   = 5
)

type uiModel struct {
	symbol string
	dash   *dashboard.Dashboard
	feed   <-chan any

	snap     scheduler.Snapshot
	window   viewport.Window
	status   notifier.StatusMsg
	profile  notifier.ProfileMsg
	finished bool

	dragging bool
	dragX    int
	dragAcc  int

	width  int
	height int
}

func newModel(symbol string, dash *dashboard.Dashboard, feed <-chan any) uiModel {
	m := uiModel{symbol: symbol, dash: dash, feed: feed}
	m.refresh()
	if p, ok := dash.Profile(); ok {
		m.profile = p
	}
	return m
}

// ── Init / Update / View ──────────────────────────────────────────────────────

func (m uiModel) Init() tea.Cmd {
	return waitForFeed(m.feed)
}

func (m uiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "b":
			m.trade(model.ActionBuy)
		case "s":
			m.trade(model.ActionSell)
		case "+", "=":
			m.window = m.dash.Zoom(-1)
		case "-":
			m.window = m.dash.Zoom(1)
		case "left", "h":
			m.window = m.dash.Pan(10)
		case "right", "l":
			m.window = m.dash.Pan(-10)
		}
		return m, nil

	case tea.MouseMsg:
		m.mouse(msg)
		return m, nil

	case feedMsg:
		switch v := msg.v.(type) {
		case notifier.StatusMsg:
			m.status = v
		case notifier.ProfileMsg:
			m.profile = v
		case notifier.FinishedMsg:
			m.finished = true
		}
		m.refresh()
		return m, waitForFeed(m.feed)
	}

	return m, nil
}

func (m uiModel) View() string {
	if m.width == 0 {
		return "loading…"
	}
	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteByte('\n')
	b.WriteString(m.renderChart())
	b.WriteString(m.renderFooter())
	return b.String()
}

// ── helpers ───────────────────────────────────────────────────────────────────

// waitForFeed blocks on the channel and returns a Cmd that fires feedMsg.
func waitForFeed(ch <-chan any) tea.Cmd {
	return func() tea.Msg {
		return feedMsg{<-ch}
	}
}

func (m *uiModel) refresh() {
	if m.dash.Replay != nil {
		m.snap = m.dash.Replay.Snapshot()
	}
	m.window = m.dash.View.Window()
}

func (m *uiModel) trade(action model.Action) {
	if _, err := m.dash.Trade(action, 0); err != nil {
		m.status = notifier.Status(notifier.LevelError, "%s", notifier.FormatTradeFailure(action, 0, m.symbol, err))
	}
}

// mouse maps the wheel to zoom and a left-button drag to pan.
func (m *uiModel) mouse(msg tea.MouseMsg) {
	switch {
	case msg.Button == tea.MouseButtonWheelUp:
		m.window = m.dash.Zoom(-1)
	case msg.Button == tea.MouseButtonWheelDown:
		m.window = m.dash.Zoom(1)
	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft:
		m.dragging = true
		m.dragX = msg.X
		m.dragAcc = 0
	case msg.Action == tea.MouseActionMotion && m.dragging:
		m.dragAcc += msg.X - m.dragX
		m.dragX = msg.X
		if m.dragAcc >= cellsPerBar || m.dragAcc <= -cellsPerBar {
			m.window = m.dash.Pan(float64(m.dragAcc * pxPerCell))
			m.dragAcc = 0
		}
	case msg.Action == tea.MouseActionRelease:
		m.dragging = false
	}
}

// visible returns the chart points inside the viewport window.
func (m uiModel) visible() []model.Bar {
	pts := m.snap.Points()
	lo, hi, ok := m.dash.View.Range()
	if !ok {
		return nil
	}
	hi = min(hi, len(pts)-1)
	if lo > hi {
		return nil
	}
	return pts[lo : hi+1]
}

// ── header / footer ──────────────────────────────────────────────────────────

func (m uiModel) renderHeader() string {
	if m.snap.Active == nil {
		state := "waiting for data…"
		if m.finished || m.snap.Finished {
			state = "replay finished"
		}
		return headerStyle.Render(fmt.Sprintf("%s  %s  bars:%d", m.symbol, state, len(m.snap.Series)))
	}
	c := m.snap.Active
	pos := "-"
	if p, ok := m.rangePosition(); ok {
		pos = fmt.Sprintf("%.0f%%", p*100)
	}
	return headerStyle.Render(fmt.Sprintf(
		"%s  %s  [%s]  O:%.2f  H:%.2f  L:%.2f  C:%.2f  V:%d  pos:%s  bars:%d  left:%d  x:%.1f..%.1f",
		m.symbol, c.Base.Time.Format("2006-01-02"), c.Phase,
		c.Base.Open, c.High, c.Low, c.Close, c.Base.Volume, pos,
		len(m.snap.Series), m.snap.Remaining, m.window.XStart, m.window.XEnd,
	))
}

// rangePosition reports where the active close sits within the visible
// window's price range, 0 at its low and 1 at its high.
func (m uiModel) rangePosition() (float64, bool) {
	if m.snap.Active == nil {
		return 0, false
	}
	candles := m.visible()
	lo, hi, err := calculator.PriceRange(candles, 0, len(candles)-1)
	if err != nil {
		return 0, false
	}
	p, err := calculator.Position(m.snap.Active.Close, lo, hi)
	if err != nil {
		return 0, false
	}
	return p, true
}

func (m uiModel) renderFooter() string {
	var b strings.Builder
	if m.profile.Type != "" {
		b.WriteString(footerStyle.Render(fmt.Sprintf("%s  balance $%.2f  available $%.2f  %s %d   ",
			m.profile.Name, m.profile.CurrentBalance, m.profile.AvailableFunds,
			m.symbol, m.profile.Positions[m.symbol])))
	}
	if m.status.Text != "" {
		style := footerStyle
		switch m.status.Level {
		case notifier.LevelSuccess:
			style = successStyle
		case notifier.LevelError, notifier.LevelWarning:
			style = errorStyle
		}
		b.WriteString(style.Render(m.status.Text))
	}
	b.WriteByte('\n')
	b.WriteString(footerStyle.Render("[b] buy  [s] sell  [wheel/+/-] zoom  [drag/←/→] pan  [q] quit"))
	return b.String()
}

// ── chart ─────────────────────────────────────────────────────────────────────

const yAxisWidth = 11 // "  12345.67 │"

func (m uiModel) renderChart() string {
	// Reserve: 1 header + chart rows + 1 x-axis line + 1 time-label line + 2 footer
	chartH := m.height - 5
	if chartH < 3 {
		chartH = 3
	}

	candles := m.visible()
	maxCols := (m.width - yAxisWidth) / cellsPerBar
	if maxCols < 1 {
		maxCols = 1
	}
	if len(candles) > maxCols {
		candles = candles[len(candles)-maxCols:]
	}

	lo, hi, err := calculator.PriceRange(candles, 0, len(candles)-1)
	if err != nil {
		lo, hi = 0, 1
	}
	lo, hi = calculator.PaddedRange(lo, hi, 0.02)

	cols := len(candles) * cellsPerBar
	grid := make([][]string, chartH)
	for r := range grid {
		grid[r] = make([]string, cols)
		for c := range grid[r] {
			grid[r][c] = " "
		}
	}
	for i, c := range candles {
		renderCandle(grid, c, i*cellsPerBar, chartH, hi, lo)
	}

	var b strings.Builder
	for row := 0; row < chartH; row++ {
		price := rowToPrice(row, chartH, hi, lo)
		b.WriteString(axisStyle.Render(fmt.Sprintf("%9.2f │", price)))
		b.WriteString(strings.Join(grid[row], ""))
		b.WriteByte('\n')
	}

	b.WriteString(axisStyle.Render(strings.Repeat("─", yAxisWidth+cols)))
	b.WriteByte('\n')

	// One date label per 8 candles; each label spans 5 cells ("01/02").
	labels := []rune(strings.Repeat(" ", cols))
	for i := 0; i < len(candles); i += 8 {
		for j, r := range candles[i].Time.Format("01/02") {
			if x := i*cellsPerBar + j; x < len(labels) {
				labels[x] = r
			}
		}
	}
	b.WriteString(strings.Repeat(" ", yAxisWidth))
	b.WriteString(axisStyle.Render(string(labels)))
	b.WriteByte('\n')

	return b.String()
}

// renderCandle paints one candle into the grid at column x (0-indexed, 2 wide).
func renderCandle(grid [][]string, c model.Bar, x, chartH int, hi, lo float64) {
	style := bullStyle
	if c.Close < c.Open {
		style = bearStyle
	}

	fH := float64(chartH)
	bodyTop := priceToRow(math.Max(c.Open, c.Close), fH, hi, lo)
	bodyBot := priceToRow(math.Min(c.Open, c.Close), fH, hi, lo)
	wickTop := priceToRow(c.High, fH, hi, lo)
	wickBot := priceToRow(c.Low, fH, hi, lo)

	for row := 0; row < chartH; row++ {
		inBody := row >= bodyTop && row <= bodyBot
		inWick := row >= wickTop && row <= wickBot

		left, right := " ", " "
		switch {
		case inBody:
			left = style.Render("█")
			right = style.Render("█")
		case inWick:
			left = wickStyle.Render("│")
		}

		if x < len(grid[row]) {
			grid[row][x] = left
		}
		if x+1 < len(grid[row]) {
			grid[row][x+1] = right
		}
	}
}

// priceToRow converts a price to a grid row (0 = top = high).
func priceToRow(price, chartH float64, hi, lo float64) int {
	if hi == lo {
		return int(chartH) / 2
	}
	row := (hi - price) / (hi - lo) * (chartH - 1)
	r := int(math.Round(row))
	if r < 0 {
		r = 0
	}
	if r >= int(chartH) {
		r = int(chartH) - 1
	}
	return r
}

// rowToPrice is the inverse of priceToRow.
func rowToPrice(row, chartH int, hi, lo float64) float64 {
	if chartH <= 1 {
		return hi
	}
	return hi - float64(row)/float64(chartH-1)*(hi-lo)
}
