package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/joescharf/fixxy/internal/models"
)

// Asker sends one question to the inference service.
type Asker interface {
	Ask(ctx context.Context, req models.AskRequest) (models.AskResponse, error)
}

// LatePolicy decides what happens to a response whose transcript was
// cleared while the request was in flight.
type LatePolicy int

const (
	// LateAppend appends the response anyway.
	LateAppend LatePolicy = iota
	// LateDrop discards the response.
	LateDrop
)

func (p LatePolicy) String() string {
	if p == LateDrop {
		return "drop"
	}
	return "append"
}

// ParseLatePolicy parses "append" or "drop".
func ParseLatePolicy(s string) (LatePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "append":
		return LateAppend, nil
	case "drop":
		return LateDrop, nil
	default:
		return LateAppend, fmt.Errorf("unknown late response policy %q (want append or drop)", s)
	}
}

type options struct {
	log     zerolog.Logger
	timeout time.Duration
	policy  LatePolicy
	task    models.TaskMode
	lang    models.Language
}

// Option configures a Dispatcher or Controller.
type Option func(*options)

// WithLogger sets the structured logger. The default discards everything.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithTimeout bounds each request. Zero means no bound.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithLatePolicy sets the late response policy.
func WithLatePolicy(p LatePolicy) Option {
	return func(o *options) { o.policy = p }
}

// WithTask sets the task a Controller starts on.
func WithTask(m models.TaskMode) Option {
	return func(o *options) { o.task = m }
}

// WithLanguage sets the language a Controller starts with.
func WithLanguage(l models.Language) Option {
	return func(o *options) { o.lang = l }
}

func buildOptions(opts []Option) options {
	o := options{
		log:  zerolog.Nop(),
		task: models.TaskExplain,
		lang: models.DefaultLanguage,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Pending is the handle for one submitted request.
type Pending struct {
	mode    models.TaskMode
	lang    models.Language
	userID  string
	epoch   uint64
	done    chan struct{}
	msg     models.Message
	dropped bool
}

// Mode returns the task mode the request belongs to.
func (p *Pending) Mode() models.TaskMode { return p.mode }

// UserMessageID returns the ID of the User message appended on submit.
func (p *Pending) UserMessageID() string { return p.userID }

// Done is closed once the request has settled.
func (p *Pending) Done() <-chan struct{} { return p.done }

// Message returns the Bot message produced by the request. Only valid after Done.
func (p *Pending) Message() models.Message { return p.msg }

// Dropped reports whether the response was discarded by LateDrop. Only valid after Done.
func (p *Pending) Dropped() bool { return p.dropped }

// Wait blocks until the request settles or ctx is done.
func (p *Pending) Wait(ctx context.Context) (models.Message, error) {
	select {
	case <-p.done:
		return p.msg, nil
	case <-ctx.Done():
		return models.Message{}, ctx.Err()
	}
}

// Dispatcher issues at most one in-flight request per task mode and turns
// each outcome into a transcript entry.
//
// mu is the turn lock: every store mutation and every state transition runs
// while holding it, and the network call runs outside it.
type Dispatcher struct {
	mu     sync.Mutex
	store  *Store
	states [models.TaskModeCount]models.RequestState
	clears [models.TaskModeCount]uint64

	asker   Asker
	policy  LatePolicy
	timeout time.Duration
	log     zerolog.Logger
	wg      sync.WaitGroup
}

// NewDispatcher creates a dispatcher over store that sends requests through asker.
func NewDispatcher(store *Store, asker Asker, opts ...Option) *Dispatcher {
	o := buildOptions(opts)
	return &Dispatcher{
		store:   store,
		asker:   asker,
		policy:  o.policy,
		timeout: o.timeout,
		log:     o.log,
	}
}

// State returns the request state of mode.
func (d *Dispatcher) State(mode models.TaskMode) models.RequestState {
	if !mode.Valid() {
		return models.RequestIdle
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.states[mode]
}

// Submit validates mode's active input, appends the User message and starts
// the request. The returned Pending settles once the Bot message is in place.
//
// The request outlives ctx cancellation; ctx only carries values.
func (d *Dispatcher) Submit(ctx context.Context, mode models.TaskMode, lang models.Language) (*Pending, error) {
	if !mode.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidMode, int(mode))
	}
	d.mu.Lock()
	p, req, err := d.begin(mode, lang)
	d.mu.Unlock()
	if err != nil {
		return nil, err
	}
	d.start(ctx, p, req)
	return p, nil
}

// begin runs the synchronous half of a submission; the caller holds mu.
// The User message and the InFlight flag land in the same turn.
func (d *Dispatcher) begin(mode models.TaskMode, lang models.Language) (*Pending, models.AskRequest, error) {
	sess := d.store.sessions[mode]
	input := sess.ActiveInput(mode)
	if input == "" {
		return nil, models.AskRequest{}, &ValidationError{Notice: EmptyInputNotice}
	}
	if d.states[mode] == models.RequestInFlight {
		return nil, models.AskRequest{}, ErrInFlight
	}

	user := models.Message{
		ID:        models.NewMessageID(),
		Origin:    models.OriginUser,
		Text:      input,
		Language:  lang,
		Task:      mode,
		CreatedAt: time.Now().UTC(),
	}
	d.store.AppendMessage(mode, user)
	d.states[mode] = models.RequestInFlight
	d.wg.Add(1)

	req := models.AskRequest{
		Task:     mode.String(),
		Question: sess.Question,
		Language: lang.String(),
		Code:     sess.Code,
	}
	p := &Pending{
		mode:   mode,
		lang:   lang,
		userID: user.ID,
		epoch:  d.clears[mode],
		done:   make(chan struct{}),
	}
	return p, req, nil
}

func (d *Dispatcher) start(ctx context.Context, p *Pending, req models.AskRequest) {
	d.log.Debug().
		Str("task", p.mode.String()).
		Str("request_id", p.userID).
		Str("language", p.lang.String()).
		Msg("request in flight")

	go d.run(context.WithoutCancel(ctx), p, req)
}

func (d *Dispatcher) run(ctx context.Context, p *Pending, req models.AskRequest) {
	defer d.wg.Done()

	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := d.asker.Ask(ctx, req)

	bot := models.Message{
		ID:        models.NewMessageID(),
		Origin:    models.OriginBot,
		Language:  p.lang,
		Task:      p.mode,
		CreatedAt: time.Now().UTC(),
	}
	if err != nil {
		bot.Text = FailureText
		bot.Failed = true
		d.log.Warn().Err(err).
			Str("task", p.mode.String()).
			Str("request_id", p.userID).
			Dur("elapsed", time.Since(start)).
			Msg("request failed")
	} else {
		bot.Text = resp.Answer
	}

	d.mu.Lock()
	d.states[p.mode] = models.RequestSettled
	if d.policy == LateDrop && d.clears[p.mode] != p.epoch {
		p.dropped = true
	} else {
		d.store.AppendMessage(p.mode, bot)
	}
	d.states[p.mode] = models.RequestIdle
	d.mu.Unlock()

	d.log.Debug().
		Str("task", p.mode.String()).
		Str("request_id", p.userID).
		Bool("failed", bot.Failed).
		Bool("dropped", p.dropped).
		Dur("elapsed", time.Since(start)).
		Msg("request settled")

	p.msg = bot
	close(p.done)
}

// Wait blocks until every in-flight request has settled.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// clear empties mode's transcript; the caller holds mu.
func (d *Dispatcher) clear(mode models.TaskMode) {
	d.store.ClearTranscript(mode)
	d.clears[mode]++
}
