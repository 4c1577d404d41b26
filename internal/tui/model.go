// Package tui is the interactive chat front-end. It renders the displayed
// task's session and forwards user actions to a session.Controller.
package tui

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/joescharf/fixxy/internal/catalog"
	"github.com/joescharf/fixxy/internal/models"
	"github.com/joescharf/fixxy/internal/reveal"
	"github.com/joescharf/fixxy/internal/session"
)

// InfoText is shown by the info action.
const InfoText = "Powered by IE Navi AI"

// Options configures the chat model.
type Options struct {
	Theme   string
	Sidebar bool
	Tick    time.Duration
	// Set is the id or name of the problem set shown first.
	Set    string
	Logger zerolog.Logger
}

type focusArea int

const (
	focusInput focusArea = iota
	focusSearch
	focusList
)

type (
	completedMsg struct{ p *session.Pending }
	tickMsg      struct{ gen uint64 }
	setsMsg      struct {
		sets []*models.ProblemSet
		err  error
	}
	questionsMsg struct {
		setID     string
		questions []string
		err       error
	}
)

// typing is the reveal currently on screen.
type typing struct {
	msgID string
	tw    *reveal.Typewriter
}

// Model is the root bubbletea model of the chat.
type Model struct {
	ctrl    *session.Controller
	catalog catalog.Source
	log     zerolog.Logger

	keys  keyMap
	help  help.Model
	theme Theme
	tick  time.Duration

	sidebar bool
	focus   focusArea

	input      textarea.Model
	search     textinput.Model
	transcript viewport.Model

	sets      []*models.ProblemSet
	setIdx    int
	wantSet   string
	questions []string
	cursor    int

	notice string
	info   bool

	// gen tags typewriter ticks; bumping it cancels the running reveal.
	gen    uint64
	typing *typing
	// revealed holds the IDs of Bot messages that were already animated.
	revealed map[string]bool

	width  int
	height int
}

// New creates the chat model over ctrl. A nil src uses the built-in sets.
func New(ctrl *session.Controller, src catalog.Source, opts Options) Model {
	if src == nil {
		src = catalog.Builtin()
	}
	tick := opts.Tick
	if tick <= 0 {
		tick = reveal.DefaultTick
	}
	wantSet := opts.Set
	if wantSet == "" {
		wantSet = catalog.DefaultSetID
	}

	ta := textarea.New()
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.SetHeight(5)
	ta.Focus()

	ti := textinput.New()
	ti.Placeholder = "Search questions"
	ti.Prompt = "/ "

	m := Model{
		ctrl:       ctrl,
		catalog:    src,
		log:        opts.Logger,
		keys:       defaultKeyMap(),
		help:       help.New(),
		theme:      ThemeByName(opts.Theme),
		tick:       tick,
		sidebar:    opts.Sidebar,
		focus:      focusInput,
		input:      ta,
		search:     ti,
		transcript: viewport.New(80, 20),
		wantSet:    wantSet,
		revealed:   make(map[string]bool),
	}
	m.syncInput()
	m.refreshTranscript()
	return m
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.loadSets())
}

func (m Model) loadSets() tea.Cmd {
	src := m.catalog
	return func() tea.Msg {
		sets, err := src.ListSets(context.Background())
		return setsMsg{sets: sets, err: err}
	}
}

func (m Model) loadQuestions(setID string) tea.Cmd {
	src := m.catalog
	return func() tea.Msg {
		questions, err := src.ListQuestions(context.Background(), setID)
		return questionsMsg{setID: setID, questions: questions, err: err}
	}
}

// waitFor delivers the request's completion back into the update loop.
func waitFor(p *session.Pending) tea.Cmd {
	return func() tea.Msg {
		<-p.Done()
		return completedMsg{p: p}
	}
}

func (m Model) tickCmd() tea.Cmd {
	gen := m.gen
	return tea.Tick(m.tick, func(time.Time) tea.Msg {
		return tickMsg{gen: gen}
	})
}

// Update handles all incoming messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		m.refreshTranscript()
		return m, nil

	case setsMsg:
		if msg.err != nil {
			m.notice = "Could not load problem sets: " + msg.err.Error()
			return m, nil
		}
		m.sets = msg.sets
		m.setIdx = 0
		for i, s := range m.sets {
			if s.ID == m.wantSet || strings.EqualFold(s.Name, m.wantSet) {
				m.setIdx = i
				break
			}
		}
		if set := m.currentSet(); set != nil {
			return m, m.loadQuestions(set.ID)
		}
		return m, nil

	case questionsMsg:
		set := m.currentSet()
		if set == nil || set.ID != msg.setID {
			return m, nil
		}
		if msg.err != nil {
			m.notice = "Could not load questions: " + msg.err.Error()
			return m, nil
		}
		m.questions = msg.questions
		m.cursor = 0
		return m, nil

	case completedMsg:
		m.log.Debug().
			Str("task", msg.p.Mode().String()).
			Bool("failed", msg.p.Message().Failed).
			Bool("dropped", msg.p.Dropped()).
			Msg("response settled")
		var cmd tea.Cmd
		if msg.p.Mode() == m.ctrl.Task() {
			cmd = m.startReveal()
		}
		m.refreshTranscript()
		return m, cmd

	case tickMsg:
		if msg.gen != m.gen || m.typing == nil {
			return m, nil
		}
		_, done := m.typing.tw.Step()
		if done {
			m.typing = nil
		}
		m.refreshTranscript()
		if done {
			return m, nil
		}
		return m, m.tickCmd()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m.updateFocused(msg)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		return m, tea.Quit
	}
	if m.info {
		m.info = false
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Submit):
		return m.submit()

	case key.Matches(msg, m.keys.NextTask):
		return m.switchTask(m.ctrl.Task().Next())

	case key.Matches(msg, m.keys.NextLang):
		_ = m.ctrl.SetLanguage(m.ctrl.Language().Next())
		return m, nil

	case key.Matches(msg, m.keys.NextSet):
		return m.nextSet()

	case key.Matches(msg, m.keys.Clear):
		m.ctrl.Clear()
		m.cancelReveal()
		m.notice = ""
		m.refreshTranscript()
		return m, nil

	case key.Matches(msg, m.keys.Reset):
		m.ctrl.Reset()
		m.notice = ""
		m.syncInput()
		return m, nil

	case key.Matches(msg, m.keys.Theme):
		m.theme = m.theme.Toggle()
		m.refreshTranscript()
		return m, nil

	case key.Matches(msg, m.keys.Sidebar):
		m.sidebar = !m.sidebar
		var cmd tea.Cmd
		if !m.sidebar && m.focus != focusInput {
			cmd = m.setFocus(focusInput)
		}
		m.layout()
		m.refreshTranscript()
		return m, cmd

	case key.Matches(msg, m.keys.Info):
		m.info = true
		return m, nil

	case key.Matches(msg, m.keys.Focus):
		return m, m.setFocus(m.nextFocus())
	}

	if m.focus == focusList {
		return m.handleListKey(msg)
	}
	return m.updateFocused(msg)
}

func (m Model) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	visible := m.filtered()
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(visible)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Pick):
		if m.cursor < len(visible) {
			m.ctrl.SelectQuestion(visible[m.cursor])
			m.notice = ""
			m.syncInput()
			return m, m.setFocus(focusInput)
		}
	}
	return m, nil
}

// updateFocused forwards msg to the focused text component and mirrors the
// result into the controller.
func (m Model) updateFocused(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.focus {
	case focusInput:
		before := m.input.Value()
		m.input, cmd = m.input.Update(msg)
		if after := m.input.Value(); after != before {
			m.ctrl.SetActiveInput(after)
			m.notice = ""
		}
	case focusSearch:
		before := m.search.Value()
		m.search, cmd = m.search.Update(msg)
		if m.search.Value() != before {
			m.cursor = 0
		}
	}
	return m, cmd
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	p, err := m.ctrl.Submit(context.Background())
	switch {
	case errors.Is(err, session.ErrValidation):
		m.notice = err.Error()
		return m, nil
	case errors.Is(err, session.ErrInFlight):
		return m, nil
	case err != nil:
		m.notice = err.Error()
		return m, nil
	}
	m.notice = ""
	m.cancelReveal()
	m.refreshTranscript()
	return m, waitFor(p)
}

func (m Model) switchTask(mode models.TaskMode) (tea.Model, tea.Cmd) {
	if err := m.ctrl.SwitchTask(mode); err != nil {
		return m, nil
	}
	m.cancelReveal()
	m.notice = ""
	m.syncInput()
	cmd := m.startReveal()
	m.refreshTranscript()
	return m, cmd
}

func (m Model) nextSet() (tea.Model, tea.Cmd) {
	if len(m.sets) == 0 {
		return m, nil
	}
	m.setIdx = (m.setIdx + 1) % len(m.sets)
	m.search.Reset()
	m.questions = nil
	m.cursor = 0
	return m, m.loadQuestions(m.sets[m.setIdx].ID)
}

// startReveal animates the newest Bot message of the displayed task, once.
// Nothing is animated while that task is in flight.
func (m *Model) startReveal() tea.Cmd {
	view := m.ctrl.View()
	if view.Busy() {
		return nil
	}
	transcript := view.Session.Transcript
	if len(transcript) == 0 {
		return nil
	}
	last := transcript[len(transcript)-1]
	if last.Origin != models.OriginBot || m.revealed[last.ID] {
		return nil
	}
	m.revealed[last.ID] = true
	m.gen++
	m.typing = &typing{msgID: last.ID, tw: reveal.New(last.Text)}
	return m.tickCmd()
}

func (m *Model) cancelReveal() {
	m.gen++
	m.typing = nil
}

func (m *Model) syncInput() {
	view := m.ctrl.View()
	if view.Task.UsesCode() {
		m.input.Placeholder = "Paste your code here..."
	} else {
		m.input.Placeholder = "Enter a DSA question or pick one from the sidebar..."
	}
	m.input.SetValue(view.Session.ActiveInput(view.Task))
}

func (m *Model) setFocus(f focusArea) tea.Cmd {
	m.focus = f
	m.input.Blur()
	m.search.Blur()
	switch f {
	case focusInput:
		return m.input.Focus()
	case focusSearch:
		return m.search.Focus()
	}
	return nil
}

func (m Model) nextFocus() focusArea {
	if !m.sidebar {
		return focusInput
	}
	return (m.focus + 1) % 3
}

func (m Model) currentSet() *models.ProblemSet {
	if m.setIdx < 0 || m.setIdx >= len(m.sets) {
		return nil
	}
	return m.sets[m.setIdx]
}

// filtered is re-derived from the search term on every call.
func (m Model) filtered() []string {
	return catalog.Filter(m.questions, m.search.Value())
}
