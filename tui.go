package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/pion/logging"

	"barsync/barcolor"
)

const scanTimeout = 5 * time.Second

type state int

const (
	stateScanning state = iota
	stateSelecting
	statePairing
	statePairingWait
	stateFetchingAreas
	stateSelectingArea
	stateConnecting
	stateMonitoring
	stateDone
)

type scanDoneMsg struct {
	bridges []Bridge
	err     error
}

type pairResultMsg struct {
	username  string
	clientkey string
	err       error
}

type areasFetchedMsg struct {
	areas []EntertainmentArea
	err   error
}

type connectedMsg struct {
	streamer *Streamer
	remove   func()
	err      error
}

type barColorsMsg BarColors

type model struct {
	updater *Updater
	lf      logging.LoggerFactory
	method  string
	colors  <-chan BarColors

	state    state
	spinner  spinner.Model
	bridges  []Bridge
	cursor   int
	selected *Bridge

	creds        BridgeCredentials
	pairErr      string
	areas        []EntertainmentArea
	areaCursor   int
	selectedArea *EntertainmentArea

	streamer       *Streamer
	removeListener func()
	hueErr         string

	current  BarColors
	settings UpdaterSettings
}

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	itemStyle     = lipgloss.NewStyle().PaddingLeft(2)
	selectedStyle = lipgloss.NewStyle().PaddingLeft(0).Foreground(lipgloss.Color("170"))
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	labelStyle    = lipgloss.NewStyle().Width(16).PaddingLeft(2)
	offStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// newModel builds the TUI. With hue set it walks through bridge setup before
// showing the monitor; otherwise it starts on the monitor.
func newModel(u *Updater, colors <-chan BarColors, method string, hue bool, lf logging.LoggerFactory) model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("63"))
	m := model{
		updater:  u,
		lf:       lf,
		method:   method,
		colors:   colors,
		state:    stateMonitoring,
		spinner:  s,
		settings: u.Settings(),
	}
	if hue {
		m.state = stateScanning
	}
	return m
}

func (m model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spinner.Tick, waitForColors(m.colors)}
	if m.state == stateScanning {
		cmds = append(cmds, scanCmd())
	}
	return tea.Batch(cmds...)
}

func waitForColors(ch <-chan BarColors) tea.Cmd {
	return func() tea.Msg {
		return barColorsMsg(<-ch)
	}
}

func scanCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), scanTimeout)
		defer cancel()

		bridges, err := DiscoverBridges(ctx)
		return scanDoneMsg{bridges: bridges, err: err}
	}
}

func pairCmd(ip net.IP) tea.Cmd {
	return func() tea.Msg {
		username, clientkey, err := PairBridge(ip)
		return pairResultMsg{username: username, clientkey: clientkey, err: err}
	}
}

func fetchAreasCmd(ip net.IP, username string) tea.Cmd {
	return func() tea.Msg {
		areas, err := FetchEntertainmentAreas(ip, username)
		return areasFetchedMsg{areas: areas, err: err}
	}
}

// connectCmd starts streaming to area and registers the streamer with u.
func connectCmd(u *Updater, ip net.IP, creds BridgeCredentials, area EntertainmentArea, lf logging.LoggerFactory) tea.Cmd {
	return func() tea.Msg {
		if err := ActivateArea(ip, creds.Username, area.ID); err != nil {
			return connectedMsg{err: err}
		}
		s, err := NewStreamer(ip, creds, area, lf)
		if err != nil {
			_ = DeactivateArea(ip, creds.Username, area.ID)
			return connectedMsg{err: err}
		}
		return connectedMsg{streamer: s, remove: u.AddListener(s)}
	}
}

// useBridge continues with b, reusing stored credentials when there are any.
func (m model) useBridge(b *Bridge) (model, tea.Cmd) {
	m.selected = b
	if creds, found, _ := LoadCredentials(b.ID); found {
		m.creds = creds
		m.state = stateFetchingAreas
		return m, fetchAreasCmd(b.IP, creds.Username)
	}
	m.state = statePairing
	return m, nil
}

func (m model) useArea(a *EntertainmentArea) (model, tea.Cmd) {
	m.selectedArea = a
	_ = RememberArea(m.selected.ID, a.ID)
	m.state = stateConnecting
	return m, connectCmd(m.updater, m.selected.IP, m.creds, *a, m.lf)
}

// repair drops rejected credentials and asks for the link button again.
func (m model) repair() model {
	_ = DeleteCredentials(m.selected.ID)
	m.creds = BridgeCredentials{}
	m.pairErr = "Stored credentials were rejected by the bridge."
	m.state = statePairing
	return m
}

// hueFailed gives up on Hue and keeps monitoring.
func (m model) hueFailed(err error) (model, tea.Cmd) {
	m.hueErr = err.Error()
	m.state = stateMonitoring
	return m, nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.state = stateDone
			return m, tea.Quit
		}

	case spinner.TickMsg:
		// The updater may change its own switches, e.g. dropping navigation
		// tracking when the bar has no height.
		m.settings = m.updater.Settings()
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case barColorsMsg:
		m.current = BarColors(msg)
		m.settings = m.updater.Settings()
		return m, waitForColors(m.colors)

	case scanDoneMsg:
		if msg.err != nil {
			return m.hueFailed(msg.err)
		}
		if len(msg.bridges) == 0 {
			return m.hueFailed(fmt.Errorf("no Hue bridges found on the network"))
		}
		if len(msg.bridges) == 1 {
			return m.useBridge(&msg.bridges[0])
		}
		m.bridges = msg.bridges
		m.state = stateSelecting
		return m, nil

	case pairResultMsg:
		if msg.err != nil {
			if errors.Is(msg.err, ErrLinkButtonNotPressed) {
				m.pairErr = "Link button not pressed."
				m.state = statePairing
				return m, nil
			}
			return m.hueFailed(fmt.Errorf("pairing failed: %w", msg.err))
		}
		m.creds = BridgeCredentials{Username: msg.username, Clientkey: msg.clientkey}
		m.pairErr = ""
		_ = SaveCredentials(m.selected.ID, m.creds)
		m.state = stateFetchingAreas
		return m, fetchAreasCmd(m.selected.IP, m.creds.Username)

	case areasFetchedMsg:
		if msg.err != nil {
			if errors.Is(msg.err, ErrUnauthorized) {
				return m.repair(), nil
			}
			return m.hueFailed(fmt.Errorf("fetching entertainment areas: %w", msg.err))
		}
		if len(msg.areas) == 0 {
			return m.hueFailed(fmt.Errorf("no entertainment areas configured on this bridge"))
		}
		for i := range msg.areas {
			if msg.areas[i].ID == m.creds.AreaID {
				return m.useArea(&msg.areas[i])
			}
		}
		if len(msg.areas) == 1 {
			return m.useArea(&msg.areas[0])
		}
		m.areas = msg.areas
		m.state = stateSelectingArea
		return m, nil

	case connectedMsg:
		if msg.err != nil {
			if errors.Is(msg.err, ErrUnauthorized) {
				return m.repair(), nil
			}
			return m.hueFailed(fmt.Errorf("starting stream: %w", msg.err))
		}
		m.streamer = msg.streamer
		m.removeListener = msg.remove
		m.state = stateMonitoring
		return m, nil
	}

	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch m.state {
	case stateSelecting:
		switch key.String() {
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.bridges)-1 {
				m.cursor++
			}
		case "enter":
			return m.useBridge(&m.bridges[m.cursor])
		case "esc":
			return m.hueFailed(errors.New("bridge selection skipped"))
		}

	case statePairing:
		switch key.String() {
		case "enter":
			m.state = statePairingWait
			return m, pairCmd(m.selected.IP)
		case "esc":
			return m.hueFailed(errors.New("pairing skipped"))
		}

	case stateSelectingArea:
		switch key.String() {
		case "up", "k":
			if m.areaCursor > 0 {
				m.areaCursor--
			}
		case "down", "j":
			if m.areaCursor < len(m.areas)-1 {
				m.areaCursor++
			}
		case "enter":
			return m.useArea(&m.areas[m.areaCursor])
		}

	case stateMonitoring:
		var fn func(*UpdaterSettings)
		switch key.String() {
		case "p", " ":
			fn = func(s *UpdaterSettings) { s.Paused = !s.Paused }
		case "f":
			fn = func(s *UpdaterSettings) { s.StatusFilter = !s.StatusFilter }
		case "r":
			fn = func(s *UpdaterSettings) { s.Rotation = s.Rotation.Next() }
		case "s":
			fn = func(s *UpdaterSettings) { s.StatusBar = !s.StatusBar }
		case "n":
			fn = func(s *UpdaterSettings) { s.NavigationBar = !s.NavigationBar }
		}
		if fn != nil {
			m.settings = m.updater.Update(fn)
		}
	}

	return m, nil
}

func swatch(c barcolor.Color) string {
	return lipgloss.NewStyle().Background(lipgloss.Color(c.String())).Render("      ")
}

func barLine(label string, enabled bool, bar, icon barcolor.Color) string {
	s := labelStyle.Render(label)
	if !enabled {
		return s + offStyle.Render("off") + "\n"
	}
	if bar == 0 {
		return s + offStyle.Render("waiting for a frame") + "\n"
	}
	return s + fmt.Sprintf("%s %s  icons %s #%08x\n", swatch(bar), bar, swatch(icon), uint32(icon))
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func (m model) monitorView() string {
	var b strings.Builder
	b.WriteString("\n" + titleStyle.Render("  barsync") + helpStyle.Render(" · capturing via "+m.method) + "\n\n")
	b.WriteString(barLine("Status bar", m.settings.StatusBar, m.current.StatusBar, m.current.StatusBarIcon))
	b.WriteString(barLine("Navigation bar", m.settings.NavigationBar, m.current.NavigationBar, m.current.NavigationBarIcon))

	b.WriteString("\n")
	fmt.Fprintf(&b, "%s%s\n", labelStyle.Render("Rotation"), m.settings.Rotation)
	fmt.Fprintf(&b, "%s%s\n", labelStyle.Render("Status filter"), onOff(m.settings.StatusFilter))
	if m.settings.Paused {
		b.WriteString(labelStyle.Render("Sampling") + errStyle.Render("paused") + "\n")
	}

	switch {
	case m.selectedArea != nil && m.streamer != nil:
		fmt.Fprintf(&b, "%s%s\n", labelStyle.Render("Hue"), m.selectedArea)
	case m.hueErr != "":
		b.WriteString(labelStyle.Render("Hue") + errStyle.Render(m.hueErr) + "\n")
	}

	b.WriteString("\n" + helpStyle.Render("  p pause · f filter · r rotate · s status bar · n navigation bar · q quit") + "\n")
	return b.String()
}

func (m model) View() string {
	switch m.state {
	case stateScanning:
		return fmt.Sprintf("\n %s %s\n\n",
			m.spinner.View(),
			titleStyle.Render("Scanning for Hue bridges..."))

	case stateSelecting:
		s := "\n" + titleStyle.Render("  Select a Hue Bridge:") + "\n\n"
		for i, b := range m.bridges {
			label := fmt.Sprintf("%s (%s) at %s", b.Name, b.ID, b.IP)
			if i == m.cursor {
				s += selectedStyle.Render("▸ "+label) + "\n"
			} else {
				s += itemStyle.Render(label) + "\n"
			}
		}
		s += "\n" + helpStyle.Render("  ↑/k up · ↓/j down · enter select · esc skip Hue · q quit") + "\n"
		return s

	case statePairing:
		s := "\n"
		if m.pairErr != "" {
			s += errStyle.Render("  "+m.pairErr) + "\n\n"
		}
		s += titleStyle.Render("  Press the link button on your Hue bridge, then press Enter.") + "\n\n"
		s += helpStyle.Render("  enter pair · esc skip Hue · q quit") + "\n"
		return s

	case statePairingWait:
		return fmt.Sprintf("\n %s %s\n\n",
			m.spinner.View(),
			titleStyle.Render("Pairing with bridge..."))

	case stateFetchingAreas:
		return fmt.Sprintf("\n %s %s\n\n",
			m.spinner.View(),
			titleStyle.Render("Fetching entertainment areas..."))

	case stateSelectingArea:
		s := "\n" + titleStyle.Render("  Select an Entertainment Area:") + "\n\n"
		for i, a := range m.areas {
			label := a.String()
			if i == m.areaCursor {
				s += selectedStyle.Render("▸ "+label) + "\n"
			} else {
				s += itemStyle.Render(label) + "\n"
			}
		}
		s += "\n" + helpStyle.Render("  ↑/k up · ↓/j down · enter select · q quit") + "\n"
		return s

	case stateConnecting:
		return fmt.Sprintf("\n %s %s\n\n",
			m.spinner.View(),
			titleStyle.Render("Starting entertainment stream..."))

	case stateMonitoring:
		return m.monitorView()
	}

	return ""
}
