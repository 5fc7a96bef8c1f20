// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"
	"github.com/spf13/pflag"

	"github.com/bureau-foundation/tickwire/cmd/tickwire/cli"
	"github.com/bureau-foundation/tickwire/lib/client"
	"github.com/bureau-foundation/tickwire/lib/emulator"
	"github.com/bureau-foundation/tickwire/lib/protocol"
)

func monitorCommand(env *environment) *cli.Command {
	var conn connection
	var interval time.Duration
	return &cli.Command{
		Name:    "monitor",
		Summary: "Live view of the control state",
		Description: `Poll get_state and show the control state, frame counter, frame
rate and program counter in a full-screen view. Frames can be stepped
from the keyboard while the host is under external control.`,
		Usage: "tickwire monitor [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("monitor", pflag.ContinueOnError)
			flagSet.DurationVar(&interval, "interval", 250*time.Millisecond, "poll interval")
			conn.addFlags(flagSet)
			return flagSet
		},
		Run: func(ctx context.Context, args []string) error {
			if err := expectArgs(args); err != nil {
				return err
			}
			if interval <= 0 {
				return fmt.Errorf("--interval must be positive")
			}

			dialCtx, cancel := context.WithTimeout(ctx, conn.timeout)
			c, err := client.Dial(dialCtx, conn.address)
			cancel()
			if err != nil {
				return err
			}
			redial := &redialClient{address: conn.address, current: c}
			defer redial.Close()

			renderer := lipgloss.NewRenderer(env.out, termenv.WithColorCache(true))
			model := newMonitorModel(ctx, redial, conn.address, interval, conn.timeout, renderer)
			program := tea.NewProgram(model,
				tea.WithAltScreen(),
				tea.WithContext(ctx),
				tea.WithOutput(env.out),
			)
			if _, err := program.Run(); err != nil && ctx.Err() == nil {
				return err
			}
			return nil
		},
	}
}

// monitorClient is the part of *client.Client the monitor uses.
type monitorClient interface {
	GetState(ctx context.Context) (protocol.StateResult, error)
	StepFrame(ctx context.Context, count int) (protocol.StepResult, error)
}

// redialClient replaces its connection once a call breaks it, so a
// single slow poll costs one error line rather than the session.
type redialClient struct {
	address string

	mu      sync.Mutex
	current *client.Client
}

func (r *redialClient) connection(ctx context.Context) (*client.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current == nil {
		c, err := client.Dial(ctx, r.address)
		if err != nil {
			return nil, err
		}
		r.current = c
	}
	return r.current, nil
}

// discardIfBroken drops c so the next call dials again.
func (r *redialClient) discardIfBroken(c *client.Client) {
	if !c.Broken() {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current == c {
		r.current = nil
		c.Close()
	}
}

func (r *redialClient) GetState(ctx context.Context) (protocol.StateResult, error) {
	c, err := r.connection(ctx)
	if err != nil {
		return protocol.StateResult{}, err
	}
	defer r.discardIfBroken(c)
	return c.GetState(ctx)
}

func (r *redialClient) StepFrame(ctx context.Context, count int) (protocol.StepResult, error) {
	c, err := r.connection(ctx)
	if err != nil {
		return protocol.StepResult{}, err
	}
	defer r.discardIfBroken(c)
	return c.StepFrame(ctx, count)
}

func (r *redialClient) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current == nil {
		return nil
	}
	err := r.current.Close()
	r.current = nil
	return err
}

type monitorKeys struct {
	Step       key.Binding
	StepSecond key.Binding
	Refresh    key.Binding
	Quit       key.Binding
}

func (k monitorKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Step, k.StepSecond, k.Refresh, k.Quit}
}

func (k monitorKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

var defaultMonitorKeys = monitorKeys{
	Step: key.NewBinding(
		key.WithKeys("s", " "),
		key.WithHelp("s", "step 1"),
	),
	StepSecond: key.NewBinding(
		key.WithKeys("S"),
		key.WithHelp("S", "step 60"),
	),
	Refresh: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "refresh"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "esc", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

type monitorStyles struct {
	title lipgloss.Style
	label lipgloss.Style
	value lipgloss.Style
	faint lipgloss.Style
	err   lipgloss.Style
}

func newMonitorStyles(renderer *lipgloss.Renderer) monitorStyles {
	return monitorStyles{
		title: renderer.NewStyle().Bold(true).Foreground(lipgloss.Color("81")),
		label: renderer.NewStyle().Foreground(lipgloss.Color("245")).Width(8),
		value: renderer.NewStyle().Foreground(lipgloss.Color("252")),
		faint: renderer.NewStyle().Foreground(lipgloss.Color("240")),
		err:   renderer.NewStyle().Foreground(lipgloss.Color("203")),
	}
}

type (
	// monitorStateMsg is a get_state result. Only scheduled polls
	// schedule the next one, so there is a single polling chain.
	monitorStateMsg struct {
		state     protocol.StateResult
		at        time.Time
		err       error
		scheduled bool
	}
	monitorTickMsg struct{}
	monitorStepMsg struct {
		result protocol.StepResult
		err    error
	}
)

type monitorModel struct {
	ctx      context.Context
	client   monitorClient
	address  string
	interval time.Duration
	timeout  time.Duration
	now      func() time.Time

	keys   monitorKeys
	help   help.Model
	styles monitorStyles
	width  int

	state       protocol.StateResult
	polled      bool
	pollErr     error
	sampleFrame uint32
	sampleAt    time.Time
	fps         float64

	notice      string
	noticeIsErr bool
}

func newMonitorModel(ctx context.Context, c monitorClient, address string, interval, timeout time.Duration, renderer *lipgloss.Renderer) monitorModel {
	helpModel := help.New()
	helpModel.Styles.ShortKey = renderer.NewStyle().Foreground(lipgloss.Color("245"))
	helpModel.Styles.ShortDesc = renderer.NewStyle().Foreground(lipgloss.Color("240"))
	helpModel.Styles.ShortSeparator = renderer.NewStyle().Foreground(lipgloss.Color("238"))
	return monitorModel{
		ctx:      ctx,
		client:   c,
		address:  address,
		interval: interval,
		timeout:  timeout,
		now:      time.Now,
		keys:     defaultMonitorKeys,
		help:     helpModel,
		styles:   newMonitorStyles(renderer),
	}
}

func (m monitorModel) Init() tea.Cmd {
	return m.poll(true)
}

func (m monitorModel) poll(scheduled bool) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(m.ctx, m.timeout)
		defer cancel()
		state, err := m.client.GetState(ctx)
		return monitorStateMsg{state: state, at: m.now(), err: err, scheduled: scheduled}
	}
}

func (m monitorModel) step(count int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(m.ctx, m.timeout)
		defer cancel()
		result, err := m.client.StepFrame(ctx, count)
		return monitorStepMsg{result: result, err: err}
	}
}

func (m monitorModel) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch message := message.(type) {
	case tea.WindowSizeMsg:
		m.width = message.Width
		m.help.Width = message.Width
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(message, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(message, m.keys.Step):
			return m, m.step(1)
		case key.Matches(message, m.keys.StepSecond):
			return m, m.step(60)
		case key.Matches(message, m.keys.Refresh):
			return m, m.poll(false)
		}
		return m, nil

	case monitorStateMsg:
		m.observe(message)
		if !message.scheduled {
			return m, nil
		}
		return m, tea.Tick(m.interval, func(time.Time) tea.Msg {
			return monitorTickMsg{}
		})

	case monitorTickMsg:
		return m, m.poll(true)

	case monitorStepMsg:
		if message.err != nil {
			m.notice = message.err.Error()
			m.noticeIsErr = true
			return m, nil
		}
		m.notice = fmt.Sprintf("stepped %d frame(s), now at frame %d",
			message.result.FramesExecuted, message.result.FrameCount)
		m.noticeIsErr = false
		return m, m.poll(false)
	}
	return m, nil
}

// observe records a poll result and updates the frame rate estimate
// from the previous sample.
func (m *monitorModel) observe(message monitorStateMsg) {
	if message.err != nil {
		m.pollErr = message.err
		return
	}
	m.pollErr = nil
	m.state = message.state
	m.polled = true

	if message.state.FrameCount == nil {
		m.fps = 0
		m.sampleAt = time.Time{}
		return
	}
	frame := *message.state.FrameCount
	if !m.sampleAt.IsZero() && frame >= m.sampleFrame {
		if elapsed := message.at.Sub(m.sampleAt).Seconds(); elapsed > 0 {
			m.fps = float64(frame-m.sampleFrame) / elapsed
		}
	}
	m.sampleFrame = frame
	m.sampleAt = message.at
}

func (m monitorModel) View() string {
	lines := []string{
		m.styles.title.Render("tickwire monitor") + "  " + m.styles.faint.Render(m.address),
		"",
	}
	row := func(label, value string) {
		lines = append(lines, m.styles.label.Render(label)+m.styles.value.Render(value))
	}

	switch {
	case m.pollErr != nil:
		lines = append(lines, m.styles.err.Render("error: "+m.pollErr.Error()))
	case !m.polled:
		lines = append(lines, m.styles.faint.Render("waiting for first poll"))
	default:
		rom := "none"
		if m.state.ROMLoaded {
			rom = "loaded (" + emulator.ConsoleType(m.state.ConsoleType).String() + ")"
		}
		row("ROM", rom)
		row("Mode", m.state.Mode)
		if m.state.FrameCount != nil {
			row("Frame", fmt.Sprintf("%d", *m.state.FrameCount)+"  "+m.styles.faint.Render(fmt.Sprintf("%.1f fps", m.fps)))
		}
		if m.state.PC != nil {
			row("PC", fmt.Sprintf("0x%04X", *m.state.PC))
		}
	}

	lines = append(lines, "")
	if m.notice != "" {
		style := m.styles.faint
		if m.noticeIsErr {
			style = m.styles.err
		}
		lines = append(lines, style.Render(m.notice))
	}
	lines = append(lines, m.help.View(m.keys))

	if m.width > 0 {
		for i, line := range lines {
			lines[i] = ansi.Truncate(line, m.width, "…")
		}
	}
	return strings.Join(lines, "\n")
}
