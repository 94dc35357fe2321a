package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/JPM1118/dearalarm/internal/alarm"
	"github.com/JPM1118/dearalarm/internal/clock"
	"github.com/JPM1118/dearalarm/internal/notify"
	"github.com/JPM1118/dearalarm/internal/poller"
)

const (
	minWidth    = 50
	minHeight   = 12
	headerLines = 2 // header + current time
	footerLines = 2 // notification bar + status bar
)

type field int

const (
	hourField field = iota
	minuteField
)

// Messages

type readingMsg struct {
	update poller.Update
}

type updatesClosedMsg struct{}

// Dashboard is the main Bubble Tea model.
type Dashboard struct {
	ctx     context.Context
	alarm   *alarm.Controller
	updates <-chan poller.Update
	trigger func()
	bar     *notify.Bar
	reading clock.Reading
	field   field
	typed   string
	width   int
	height  int
	err     error
}

// Option configures a Dashboard.
type Option func(*Dashboard)

// WithPoller feeds the dashboard from p's clock samples. Edits request an
// immediate sample so a target set to the current minute fires at once.
func WithPoller(p *poller.Poller) Option {
	return func(d *Dashboard) {
		d.updates = p.Updates()
		d.trigger = p.TriggerNow
	}
}

// WithNotifyBar shows recent alarm events from bar.
func WithNotifyBar(bar *notify.Bar) Option {
	return func(d *Dashboard) {
		d.bar = bar
	}
}

// WithContext sets the context passed to controller calls.
func WithContext(ctx context.Context) Option {
	return func(d *Dashboard) {
		d.ctx = ctx
	}
}

// NewDashboard creates a new dashboard model.
func NewDashboard(c *alarm.Controller, opts ...Option) Dashboard {
	d := Dashboard{
		ctx:     context.Background(),
		alarm:   c,
		reading: clock.ReadingAt(time.Now()),
	}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

// Err returns any fatal error that occurred.
func (d Dashboard) Err() error {
	return d.err
}

// Init starts listening for clock samples.
func (d Dashboard) Init() tea.Cmd {
	return d.waitForUpdate()
}

func (d Dashboard) waitForUpdate() tea.Cmd {
	if d.updates == nil {
		return nil
	}
	ch := d.updates
	return func() tea.Msg {
		u, ok := <-ch
		if !ok {
			return updatesClosedMsg{}
		}
		return readingMsg{update: u}
	}
}

// Update handles messages.
func (d Dashboard) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.KeyMsg:
		return d.handleKey(msg)

	case tea.WindowSizeMsg:
		d.width = msg.Width
		d.height = msg.Height
		return d, nil

	case readingMsg:
		d.reading = msg.update.Reading
		d.alarm.Tick(d.ctx, d.reading)
		return d, d.waitForUpdate()

	case updatesClosedMsg:
		d.err = fmt.Errorf("clock updates stopped")
		return d, tea.Quit
	}

	return d, nil
}

func (d Dashboard) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch key {
	case "q", "ctrl+c":
		return d, tea.Quit

	case "tab", "left", "right", "h", "l":
		if d.field == hourField {
			d.field = minuteField
		} else {
			d.field = hourField
		}
		d.typed = ""
		return d, nil

	case "k", "up":
		d.step(1)
		return d, nil

	case "j", "down":
		d.step(-1)
		return d, nil

	case " ", "a":
		d.alarm.ToggleArmed(d.ctx)
		d.resample()
		return d, nil

	case "s":
		d.alarm.Silence(d.ctx)
		return d, nil

	case "c":
		if d.bar != nil {
			d.bar.Clear()
		}
		return d, nil

	case "esc":
		d.typed = ""
		return d, nil
	}

	if len(key) == 1 && key[0] >= '0' && key[0] <= '9' {
		d.typeDigit(key)
	}
	return d, nil
}

// step moves the selected field by delta with clock wrap-around.
func (d *Dashboard) step(delta int) {
	t := d.alarm.Snapshot().Target
	if d.field == hourField {
		t.Hour = alarm.WrapHour(t.Hour + delta)
	} else {
		t.Minute = alarm.WrapMinute(t.Minute + delta)
	}
	d.typed = ""
	d.alarm.SetTarget(d.ctx, t.Hour, t.Minute)
	d.resample()
}

func (d *Dashboard) resample() {
	if d.trigger != nil {
		d.trigger()
	}
}

// typeDigit enters a value digit by digit. A digit that would push the
// value out of range starts a new number.
func (d *Dashboard) typeDigit(digit string) {
	limit := 23
	if d.field == minuteField {
		limit = 59
	}

	d.typed += digit
	v, _ := strconv.Atoi(d.typed)
	if v > limit {
		d.typed = digit
		v, _ = strconv.Atoi(digit)
	}

	t := d.alarm.Snapshot().Target
	if d.field == hourField {
		t.Hour = v
	} else {
		t.Minute = v
	}
	d.alarm.SetTarget(d.ctx, t.Hour, t.Minute)
	d.resample()

	if len(d.typed) == 2 {
		d.typed = ""
		if d.field == hourField {
			d.field = minuteField
		}
	}
}

// View renders the dashboard.
func (d Dashboard) View() string {
	if d.width < minWidth || d.height < minHeight {
		return fmt.Sprintf("\n  Terminal too small (need %dx%d, got %dx%d)\n", minWidth, minHeight, d.width, d.height)
	}

	snap := d.alarm.Snapshot()
	var b strings.Builder

	b.WriteString(d.renderHeader(snap))
	b.WriteString("\n")

	b.WriteString(clockStyle.Render(fmt.Sprintf("  Current Time: %s", d.reading)))
	b.WriteString("\n")

	body := d.renderBody(snap)
	b.WriteString(padLines(body, d.height-headerLines-footerLines))

	b.WriteString(d.renderNotificationBar())
	b.WriteString("\n")

	b.WriteString(d.renderStatusBar())

	return b.String()
}

func (d Dashboard) renderHeader(snap alarm.Snapshot) string {
	title := headerStyle.Render("DearAlarm")

	state := "DISARMED"
	if snap.Armed {
		state = "ARMED " + snap.Target.String()
	}
	right := armedStyle(snap.Armed).Render("[" + state + "]")

	gap := d.width - lipgloss.Width(title) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}

	return title + strings.Repeat(" ", gap) + right
}

func (d Dashboard) renderBody(snap alarm.Snapshot) string {
	var b strings.Builder
	b.WriteString(subheaderStyle.Render("  " + strings.Repeat("─", d.width-4)))
	b.WriteString("\n\n")

	hour := fmt.Sprintf("Hour %02d", snap.Target.Hour)
	minute := fmt.Sprintf("Minute %02d", snap.Target.Minute)
	hourStyle, minuteStyle := selectedFieldStyle, fieldStyle
	if d.field == minuteField {
		hourStyle, minuteStyle = fieldStyle, selectedFieldStyle
	}
	b.WriteString("  Set " + hourStyle.Render(hour) + " " + minuteStyle.Render(minute))
	b.WriteString("\n\n")

	b.WriteString("  " + armedStyle(snap.Armed).Render(armedLabel(snap.Armed)))
	b.WriteString("\n\n")

	b.WriteString("  " + d.renderStatus(snap))
	b.WriteString("\n")

	return b.String()
}

func (d Dashboard) renderStatus(snap alarm.Snapshot) string {
	switch {
	case snap.Playing:
		hint := "  (s: stop sound)"
		if audible, ok := d.alarm.SinkPlaying(); ok && !audible {
			hint = "  (sound ended, s: clear)"
		}
		return ringingStyle.Render("!!! BEEP BEEP BEEP !!!") + subheaderStyle.Render(hint)
	case !snap.Armed:
		return subheaderStyle.Render("Status: Disarmed")
	case snap.LastDecision == alarm.AlreadyFired:
		return "Status: Rang at " + snap.Target.String()
	default:
		status := "Status: Waiting..."
		if next := snap.Target.Next(d.reading.Time); !next.IsZero() {
			status += " rings in " + formatUntil(next.Sub(d.reading.Time))
		}
		return status
	}
}

func (d Dashboard) renderNotificationBar() string {
	if d.bar == nil {
		return notificationBarStyle.Render("")
	}
	return notificationBarStyle.Render("  " + d.bar.Render(d.width-4, d.reading.Time))
}

func (d Dashboard) renderStatusBar() string {
	return statusBarStyle.Render("  tab:field  j/k:adjust  0-9:type  space:arm  s:stop  c:clear  q:quit")
}

// Helpers

func padLines(content string, height int) string {
	lines := strings.Count(content, "\n")
	padding := height - lines
	if padding > 0 {
		content += strings.Repeat("\n", padding)
	}
	return content
}

// formatUntil renders a countdown like "2h 05m" or "under a minute".
func formatUntil(d time.Duration) string {
	if d < time.Minute {
		return "under a minute"
	}
	d = d.Truncate(time.Minute)
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	if hours > 0 {
		return fmt.Sprintf("%dh %02dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}
