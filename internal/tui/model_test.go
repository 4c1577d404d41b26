package tui

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joescharf/fixxy/internal/catalog"
	"github.com/joescharf/fixxy/internal/models"
	"github.com/joescharf/fixxy/internal/session"
)

// gatedAsker blocks every call until release is closed.
type gatedAsker struct {
	mu      sync.Mutex
	reqs    []models.AskRequest
	answer  string
	err     error
	release chan struct{}
}

func newGatedAsker(answer string) *gatedAsker {
	return &gatedAsker{answer: answer, release: make(chan struct{})}
}

func (g *gatedAsker) Ask(ctx context.Context, req models.AskRequest) (models.AskResponse, error) {
	g.mu.Lock()
	g.reqs = append(g.reqs, req)
	g.mu.Unlock()

	select {
	case <-g.release:
	case <-ctx.Done():
		return models.AskResponse{}, ctx.Err()
	}
	if g.err != nil {
		return models.AskResponse{}, g.err
	}
	return models.AskResponse{Answer: g.answer}, nil
}

func (g *gatedAsker) count() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.reqs)
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(Model)
	require.True(t, ok)
	return nm, cmd
}

func press(t *testing.T, m Model, k tea.KeyMsg) (Model, tea.Cmd) {
	t.Helper()
	return update(t, m, k)
}

func typeText(t *testing.T, m Model, s string) Model {
	t.Helper()
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
	return m
}

var (
	keySubmit   = tea.KeyMsg{Type: tea.KeyCtrlS}
	keyNextTask = tea.KeyMsg{Type: tea.KeyCtrlT}
	keyTab      = tea.KeyMsg{Type: tea.KeyTab}
)

func newTestModel(t *testing.T, asker session.Asker) (Model, *session.Controller) {
	t.Helper()
	ctrl := session.NewController(asker)
	m := New(ctrl, catalog.Builtin(), Options{Sidebar: true, Tick: time.Millisecond})
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})

	m, cmd := update(t, m, m.loadSets()())
	require.NotNil(t, cmd, "loading sets should queue the first set's questions")
	m, _ = update(t, m, cmd())
	return m, ctrl
}

// settle releases the asker, waits for the completion and feeds it back.
func settle(t *testing.T, m Model, asker *gatedAsker, wait tea.Cmd) (Model, tea.Cmd) {
	t.Helper()
	close(asker.release)
	require.NotNil(t, wait)
	return update(t, m, wait())
}

func TestNew_Defaults(t *testing.T) {
	m, ctrl := newTestModel(t, newGatedAsker("x"))

	assert.Equal(t, models.TaskExplain, ctrl.Task())
	assert.Len(t, m.sets, 3)
	assert.Equal(t, "ravi251", m.currentSet().ID)
	assert.Equal(t, []string{"Two Sum", "Reverse Linked List", "Binary Search"}, m.questions)
	assert.Equal(t, ThemeLight, m.theme.Name)
	assert.Contains(t, m.View(), "IE-Fixxy")
	assert.Contains(t, m.View(), "Send")
}

func TestNew_InitialSetByName(t *testing.T) {
	ctrl := session.NewController(newGatedAsker("x"))
	m := New(ctrl, nil, Options{Set: "ravi 400"})
	m, cmd := update(t, m, m.loadSets()())
	m, _ = update(t, m, cmd())

	assert.Equal(t, "ravi400", m.currentSet().ID)
	assert.Equal(t, []string{"Longest Palindromic Substring", "Merge Intervals"}, m.questions)
}

func TestSubmit_RevealsAnswer(t *testing.T) {
	asker := newGatedAsker("Use a map")
	m, ctrl := newTestModel(t, asker)

	m = typeText(t, m, "Two Sum")
	assert.Equal(t, "Two Sum", ctrl.View().Session.Question)

	m, wait := press(t, m, keySubmit)
	view := ctrl.View()
	require.Len(t, view.Session.Transcript, 1)
	assert.Equal(t, models.OriginUser, view.Session.Transcript[0].Origin)
	assert.True(t, view.Busy())
	assert.Contains(t, m.View(), "Loading...")

	// A second submit while in flight is ignored.
	m, again := press(t, m, keySubmit)
	assert.Nil(t, again)

	m, tick := settle(t, m, asker, wait)
	require.NotNil(t, tick)
	require.NotNil(t, m.typing)
	assert.Equal(t, "", m.typing.tw.Prefix())
	assert.Equal(t, 1, asker.count())

	m, tick = update(t, m, tickMsg{gen: m.gen})
	require.NotNil(t, m.typing)
	assert.Equal(t, "U", m.typing.tw.Prefix())
	require.NotNil(t, tick)

	for i := 0; i < 20 && m.typing != nil; i++ {
		m, _ = update(t, m, tickMsg{gen: m.gen})
	}
	assert.Nil(t, m.typing)
	assert.Contains(t, m.transcript.View(), "Use a map")
	assert.Contains(t, m.View(), "Send")

	// Settled transcript is authoritative regardless of the animation.
	assert.Equal(t, "Use a map", ctrl.View().Session.Transcript[1].Text)
}

func TestSubmit_EmptyShowsNotice(t *testing.T) {
	asker := newGatedAsker("x")
	m, ctrl := newTestModel(t, asker)

	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyCtrlJ})
	assert.Nil(t, cmd)
	assert.Equal(t, session.EmptyInputNotice, m.notice)
	assert.Empty(t, ctrl.View().Session.Transcript)
	assert.Equal(t, 0, asker.count())

	m = typeText(t, m, "a")
	assert.Empty(t, m.notice, "typing clears the notice")
}

func TestSubmit_AltEnter(t *testing.T) {
	asker := newGatedAsker("x")
	m, ctrl := newTestModel(t, asker)
	m = typeText(t, m, "Two Sum")

	_, wait := press(t, m, tea.KeyMsg{Type: tea.KeyEnter, Alt: true})
	require.NotNil(t, wait)
	assert.True(t, ctrl.View().Busy())
	close(asker.release)
	wait()
}

func TestSubmit_FailureRevealsSentinel(t *testing.T) {
	asker := newGatedAsker("")
	asker.err = errors.New("connection refused")
	m, ctrl := newTestModel(t, asker)

	m = typeText(t, m, "Two Sum")
	m, wait := press(t, m, keySubmit)
	m, _ = settle(t, m, asker, wait)

	require.NotNil(t, m.typing)
	assert.Equal(t, session.FailureText, m.typing.tw.Text())
	last := ctrl.View().Session.Transcript[1]
	assert.True(t, last.Failed)
}

func TestStaleTickIgnored(t *testing.T) {
	asker := newGatedAsker("Hello")
	m, _ := newTestModel(t, asker)

	m = typeText(t, m, "Two Sum")
	m, wait := press(t, m, keySubmit)
	m, _ = settle(t, m, asker, wait)
	oldGen := m.gen
	m, _ = update(t, m, tickMsg{gen: oldGen})
	require.NotNil(t, m.typing)

	m, _ = press(t, m, keyNextTask)
	assert.Nil(t, m.typing)

	m, cmd := update(t, m, tickMsg{gen: oldGen})
	assert.Nil(t, cmd)
	assert.Nil(t, m.typing)
}

func TestSwitchTask_KeepsPerTaskInput(t *testing.T) {
	m, ctrl := newTestModel(t, newGatedAsker("x"))

	m = typeText(t, m, "Two Sum")
	m, _ = press(t, m, keyNextTask)
	assert.Equal(t, models.TaskDebug, ctrl.Task())
	assert.Equal(t, "", m.input.Value())

	m = typeText(t, m, "int x")
	assert.Equal(t, "int x", ctrl.SessionFor(models.TaskDebug).Code)

	m, _ = press(t, m, keyNextTask)
	m, _ = press(t, m, keyNextTask)
	assert.Equal(t, models.TaskExplain, ctrl.Task())
	assert.Equal(t, "Two Sum", m.input.Value())
}

func TestCompletionInOtherTask(t *testing.T) {
	asker := newGatedAsker("Answer")
	m, ctrl := newTestModel(t, asker)

	m = typeText(t, m, "Two Sum")
	m, wait := press(t, m, keySubmit)
	m, _ = press(t, m, keyNextTask)
	assert.Contains(t, m.View(), "Send", "Debug is idle while Explain is in flight")

	m, cmd := settle(t, m, asker, wait)
	assert.Nil(t, cmd)
	assert.Nil(t, m.typing)
	assert.Empty(t, ctrl.SessionFor(models.TaskDebug).Transcript)
	assert.Len(t, ctrl.SessionFor(models.TaskExplain).Transcript, 2)

	// Returning to Explain animates the unseen answer once.
	m, _ = press(t, m, keyNextTask)
	m, cmd = press(t, m, keyNextTask)
	require.NotNil(t, cmd)
	require.NotNil(t, m.typing)

	m, _ = press(t, m, keyNextTask)
	m, _ = press(t, m, keyNextTask)
	m, cmd = press(t, m, keyNextTask)
	assert.Nil(t, cmd)
	assert.Nil(t, m.typing)
}

func TestPickQuestionFromSidebar(t *testing.T) {
	m, ctrl := newTestModel(t, newGatedAsker("x"))

	m, _ = press(t, m, keyTab)
	assert.Equal(t, focusSearch, m.focus)
	m = typeText(t, m, "LINK")
	assert.Equal(t, []string{"Reverse Linked List"}, m.filtered())

	m, _ = press(t, m, keyTab)
	assert.Equal(t, focusList, m.focus)
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, focusInput, m.focus)
	assert.Equal(t, "Reverse Linked List", ctrl.View().Session.Question)
	assert.Equal(t, "Reverse Linked List", m.input.Value())
}

func TestPickQuestion_ClearsCode(t *testing.T) {
	m, ctrl := newTestModel(t, newGatedAsker("x"))
	m, _ = press(t, m, keyNextTask)
	m = typeText(t, m, "int x")

	m, _ = press(t, m, keyTab)
	m, _ = press(t, m, keyTab)
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	s := ctrl.SessionFor(models.TaskDebug)
	assert.Equal(t, "Reverse Linked List", s.Question)
	assert.Equal(t, "", s.Code)
	assert.Equal(t, "", m.input.Value())
}

func TestNextSet_ResetsSearch(t *testing.T) {
	m, _ := newTestModel(t, newGatedAsker("x"))
	m, _ = press(t, m, keyTab)
	m = typeText(t, m, "two")

	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyCtrlO})
	require.NotNil(t, cmd)
	assert.Equal(t, "", m.search.Value())
	assert.Equal(t, "ravi400", m.currentSet().ID)

	m, _ = update(t, m, cmd())
	assert.Equal(t, []string{"Longest Palindromic Substring", "Merge Intervals"}, m.filtered())

	// A late reply for a set no longer shown is ignored.
	m, _ = update(t, m, questionsMsg{setID: "ravi251", questions: []string{"Two Sum"}})
	assert.Len(t, m.questions, 2)
}

func TestClearAndReset(t *testing.T) {
	asker := newGatedAsker("Answer")
	m, ctrl := newTestModel(t, asker)
	m = typeText(t, m, "Two Sum")
	m, wait := press(t, m, keySubmit)
	m, _ = settle(t, m, asker, wait)
	require.NotNil(t, m.typing)

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlL})
	assert.Nil(t, m.typing)
	assert.Empty(t, ctrl.View().Session.Transcript)
	assert.Equal(t, "Two Sum", m.input.Value())

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlR})
	assert.Equal(t, "", m.input.Value())
	assert.Equal(t, "", ctrl.View().Session.Question)
}

func TestLanguageCycle(t *testing.T) {
	m, ctrl := newTestModel(t, newGatedAsker("x"))
	_, _ = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlG})
	assert.Equal(t, models.LangJava, ctrl.Language())
}

func TestThemeSidebarInfo(t *testing.T) {
	m, _ := newTestModel(t, newGatedAsker("x"))

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyF2})
	assert.Equal(t, ThemeDark, m.theme.Name)
	assert.Contains(t, m.View(), "Light Mode")

	m, _ = press(t, m, keyTab)
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlB})
	assert.False(t, m.sidebar)
	assert.Equal(t, focusInput, m.focus, "hiding the sidebar returns focus to the input")
	m, _ = press(t, m, keyTab)
	assert.Equal(t, focusInput, m.focus)

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyF1})
	assert.True(t, m.info)
	assert.Contains(t, m.View(), InfoText)
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})
	assert.False(t, m.info)
	assert.Equal(t, "", m.input.Value(), "the dismissing key is not typed")
}

func TestQuit(t *testing.T) {
	m, _ := newTestModel(t, newGatedAsker("x"))
	_, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
}
