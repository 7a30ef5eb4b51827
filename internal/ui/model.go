package ui

import (
	"context"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/satsrate/internal/convert"
	"github.com/five82/satsrate/internal/logging"
	"github.com/five82/satsrate/internal/prefs"
	"github.com/five82/satsrate/internal/share"
	"github.com/five82/satsrate/internal/state"
)

const (
	defaultSeedField = convert.Sats
	defaultSeedValue = "100"

	freshnessTick = 30 * time.Second
	noticeTTL     = 3 * time.Second
	logLines      = 200
)

// Refresher fetches rates into the store.
type Refresher interface {
	Refresh(ctx context.Context) (convert.RateSet, error)
}

// Options configures the UI.
type Options struct {
	Context      context.Context
	Refresher    Refresher
	Store        *state.Store
	ShareBaseURL string
	// Seed is a page query such as "jpy=1000"; empty seeds sats=100.
	Seed      string
	ThemeName string
	Focus     convert.Field
	PrefsPath string
	LogPath   string
	Log       *logging.Log
	// Clipboard replaces the system clipboard; used by tests.
	Clipboard func(string) error
	Now       func() time.Time
}

// overlay is the modal currently covering the converter.
type overlay int

const (
	overlayNone overlay = iota
	overlayHelp
	overlayShare
	overlayLogs
)

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx       context.Context
	refresher Refresher
	store     *state.Store
	baseURL   string
	prefsPath string
	logPath   string
	log       *logging.Entry
	clipboard func(string) error
	now       func() time.Time
	keys      keyMap

	// UI state
	theme   Theme
	width   int
	height  int
	ready   bool
	overlay overlay

	// Converter state
	inputs   [len(convert.Fields)]textinput.Model
	focus    int
	active   convert.Field
	amounts  convert.AmountSet
	snapshot state.Snapshot
	fetching bool

	// Transient messages
	alert       string
	notice      string
	noticeID    int
	noticeError bool
	logLines    []string
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	themeName := opts.ThemeName
	if themeName == "" {
		themeName = "Nightfox"
	}

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	clip := opts.Clipboard
	if clip == nil {
		clip = clipboard.WriteAll
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	log := opts.Log
	if log == nil {
		log = logging.Default()
	}

	m := Model{
		ctx:       ctx,
		refresher: opts.Refresher,
		store:     opts.Store,
		baseURL:   opts.ShareBaseURL,
		prefsPath: prefsPath,
		logPath:   opts.LogPath,
		log:       log.WithComponent("ui"),
		clipboard: clip,
		now:       now,
		keys:      DefaultKeyMap(),
		theme:     GetTheme(themeName),
	}
	for i, f := range convert.Fields {
		m.inputs[i] = newAmountInput(f)
	}

	seedField, seedValue, ok := share.ParseQuery(opts.Seed)
	focus := opts.Focus
	if ok {
		focus = seedField
	} else {
		seedField, seedValue = defaultSeedField, defaultSeedValue
	}
	if !focus.Valid() {
		focus = seedField
	}
	m.active = seedField
	m.amounts.Set(seedField, convert.Group(seedValue))
	m.inputs[fieldIndex(seedField)].SetValue(m.amounts.Get(seedField))
	m.setFocus(fieldIndex(focus))

	if m.store != nil {
		m.snapshot = m.store.Snapshot()
		m.recompute()
	}
	return m
}

func newAmountInput(f convert.Field) textinput.Model {
	in := textinput.New()
	in.Prompt = ""
	in.Placeholder = "0"
	in.CharLimit = 32
	in.Width = 24
	return in
}

func fieldIndex(f convert.Field) int {
	for i, candidate := range convert.Fields {
		if candidate == f {
			return i
		}
	}
	return 0
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink, tickCmd(freshnessTick)}
	if m.refresher != nil {
		cmds = append(cmds, func() tea.Msg { return fetchStartMsg{} })
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		return m, nil

	case tickMsg:
		// Freshness is derived from the clock at render time; the tick only
		// forces a redraw.
		return m, tickCmd(freshnessTick)

	case fetchStartMsg:
		return m.startRefresh()

	case ratesMsg:
		return m.handleRates(msg)

	case clipboardMsg:
		if msg.err != nil {
			m.log.WithError(msg.err).Warn("clipboard write failed")
			return m.setNotice("Clipboard unavailable", true)
		}
		return m.setNotice("Copied to clipboard", false)

	case noticeExpiredMsg:
		if int(msg) == m.noticeID {
			m.notice = ""
		}
		return m, nil
	}

	// Cursor blink and other input-internal messages.
	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.alert != "" {
		return m.renderAlert()
	}
	switch m.overlay {
	case overlayHelp:
		return m.renderHelp()
	case overlayShare:
		return m.renderShare()
	case overlayLogs:
		return m.renderLogs()
	}
	return m.renderMain()
}

// Run starts the Bubble Tea program.
func Run(opts Options) error {
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(m.ctx))
	final, err := p.Run()
	if fm, ok := final.(Model); ok {
		fm.savePrefs()
	}
	return err
}

func (m Model) savePrefs() {
	p := prefs.Prefs{Theme: m.theme.Name, Focus: convert.Fields[m.focus].String()}
	if err := prefs.Save(m.prefsPath, p); err != nil {
		m.log.WithError(err).Warn("failed to save preferences")
	}
}
