package session

import (
	"context"
	"fmt"

	"github.com/joescharf/fixxy/internal/models"
)

// View is what the presentation layer needs for one render.
type View struct {
	Task     models.TaskMode
	Language models.Language
	Session  models.Session
	State    models.RequestState
}

// Busy reports whether the displayed task has a request in flight.
func (v View) Busy() bool {
	return v.State == models.RequestInFlight
}

// Controller binds user actions onto the store and dispatcher for the
// currently displayed task.
type Controller struct {
	d *Dispatcher

	// guarded by d.mu
	task models.TaskMode
	lang models.Language
}

// NewController creates a controller with a fresh store, one empty session per task.
func NewController(asker Asker, opts ...Option) *Controller {
	o := buildOptions(opts)
	c := &Controller{
		d:    NewDispatcher(NewStore(), asker, opts...),
		task: o.task,
		lang: o.lang,
	}
	if !c.task.Valid() {
		c.task = models.TaskExplain
	}
	if !c.lang.Valid() {
		c.lang = models.DefaultLanguage
	}
	return c
}

// Dispatcher exposes the underlying dispatcher.
func (c *Controller) Dispatcher() *Dispatcher { return c.d }

// Task returns the displayed task.
func (c *Controller) Task() models.TaskMode {
	c.d.mu.Lock()
	defer c.d.mu.Unlock()
	return c.task
}

// Language returns the selected language.
func (c *Controller) Language() models.Language {
	c.d.mu.Lock()
	defer c.d.mu.Unlock()
	return c.lang
}

// SwitchTask changes the displayed task. No session data changes and
// in-flight requests keep running.
func (c *Controller) SwitchTask(mode models.TaskMode) error {
	if !mode.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidMode, int(mode))
	}
	c.d.mu.Lock()
	c.task = mode
	c.d.mu.Unlock()
	return nil
}

// SetLanguage changes the global target language.
func (c *Controller) SetLanguage(lang models.Language) error {
	if !lang.Valid() {
		return fmt.Errorf("invalid language: %d", int(lang))
	}
	c.d.mu.Lock()
	c.lang = lang
	c.d.mu.Unlock()
	return nil
}

// SetQuestion sets the displayed task's question text.
func (c *Controller) SetQuestion(text string) {
	c.setInput(models.FieldQuestion, text)
}

// SetCode sets the displayed task's code text.
func (c *Controller) SetCode(text string) {
	c.setInput(models.FieldCode, text)
}

// SetActiveInput sets whichever field the displayed task submits.
func (c *Controller) SetActiveInput(text string) {
	c.d.mu.Lock()
	defer c.d.mu.Unlock()
	field := models.FieldQuestion
	if c.task.UsesCode() {
		field = models.FieldCode
	}
	c.d.store.SetInput(c.task, field, text)
}

func (c *Controller) setInput(field models.InputField, text string) {
	c.d.mu.Lock()
	defer c.d.mu.Unlock()
	c.d.store.SetInput(c.task, field, text)
}

// SelectQuestion picks a catalog question for the displayed task and clears its code.
func (c *Controller) SelectQuestion(title string) {
	c.d.mu.Lock()
	defer c.d.mu.Unlock()
	c.d.store.SetInput(c.task, models.FieldQuestion, title)
	c.d.store.SetInput(c.task, models.FieldCode, "")
}

// Submit sends the displayed task's active input.
func (c *Controller) Submit(ctx context.Context) (*Pending, error) {
	c.d.mu.Lock()
	p, req, err := c.d.begin(c.task, c.lang)
	c.d.mu.Unlock()
	if err != nil {
		return nil, err
	}
	c.d.start(ctx, p, req)
	return p, nil
}

// Clear empties the displayed task's transcript.
func (c *Controller) Clear() {
	c.d.mu.Lock()
	defer c.d.mu.Unlock()
	c.d.clear(c.task)
}

// Reset clears the displayed task's question and code.
func (c *Controller) Reset() {
	c.d.mu.Lock()
	defer c.d.mu.Unlock()
	c.d.store.ResetInput(c.task)
}

// View returns a snapshot of the displayed task.
func (c *Controller) View() View {
	c.d.mu.Lock()
	defer c.d.mu.Unlock()
	return View{
		Task:     c.task,
		Language: c.lang,
		Session:  c.d.store.Session(c.task),
		State:    c.d.states[c.task],
	}
}

// SessionFor returns a snapshot of any task's session.
func (c *Controller) SessionFor(mode models.TaskMode) models.Session {
	c.d.mu.Lock()
	defer c.d.mu.Unlock()
	return c.d.store.Session(mode)
}

// StateOf returns the request state of any task.
func (c *Controller) StateOf(mode models.TaskMode) models.RequestState {
	return c.d.State(mode)
}

// Wait blocks until every in-flight request has settled.
func (c *Controller) Wait() {
	c.d.Wait()
}
