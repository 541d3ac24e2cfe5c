package driver

import (
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/milk9111/fsmkit/fsm"
)

// Ticker is anything the loop drives: a machine, an actor, a physics space.
type Ticker interface {
	Tick(dt float64)
	FixedTick(dt float64)
	Teardown()
}

type entry struct {
	id     uuid.UUID
	name   string
	ticker Ticker
}

const (
	DefaultFixedStep     = 20 * time.Millisecond
	DefaultMaxFixedSteps = 5
)

type options struct {
	fixedStep time.Duration
	maxSteps  int
	logger    *slog.Logger
}

type Option func(*options)

// WithFixedStep sets the fixed timestep. Non-positive values are ignored.
func WithFixedStep(step time.Duration) Option {
	return func(o *options) {
		if step > 0 {
			o.fixedStep = step
		}
	}
}

// WithMaxFixedSteps caps fixed steps per frame; the leftover accumulated
// time is dropped when the cap is reached.
func WithMaxFixedSteps(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxSteps = n
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// Loop is the frame driver. Each Frame ticks every entry once, in insertion
// order, then runs as many fixed steps as the accumulated time allows.
type Loop struct {
	entries []*entry
	byID    map[uuid.UUID]*entry

	fixedStep   float64
	maxSteps    int
	accumulator float64
	frames      uint64
	fixedSteps  uint64
	closed      bool

	logger *slog.Logger
}

func New(opts ...Option) *Loop {
	o := options{
		fixedStep: DefaultFixedStep,
		maxSteps:  DefaultMaxFixedSteps,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return &Loop{
		byID:      make(map[uuid.UUID]*entry),
		fixedStep: o.fixedStep.Seconds(),
		maxSteps:  o.maxSteps,
		logger:    o.logger,
	}
}

// Add appends t to the update order and returns its handle. Nil tickers and
// additions after Teardown are ignored and return uuid.Nil.
func (l *Loop) Add(name string, t Ticker) uuid.UUID {
	if t == nil || l.closed {
		return uuid.Nil
	}
	e := &entry{id: uuid.New(), name: name, ticker: t}
	l.entries = append(l.entries, e)
	l.byID[e.id] = e
	l.logger.Debug("driver add", "name", name, "id", e.id)
	return e.id
}

// Replace swaps the ticker behind id, tearing down the old one. The entry
// keeps its position in the update order.
func (l *Loop) Replace(id uuid.UUID, t Ticker) bool {
	e, ok := l.byID[id]
	if !ok || t == nil {
		return false
	}
	e.ticker.Teardown()
	e.ticker = t
	return true
}

// Remove tears down and drops the ticker behind id.
func (l *Loop) Remove(id uuid.UUID) bool {
	e, ok := l.byID[id]
	if !ok {
		return false
	}
	delete(l.byID, id)
	for i, cur := range l.entries {
		if cur == e {
			l.entries = append(l.entries[:i], l.entries[i+1:]...)
			break
		}
	}
	e.ticker.Teardown()
	l.logger.Debug("driver remove", "name", e.name, "id", id)
	return true
}

// Get returns the ticker behind id.
func (l *Loop) Get(id uuid.UUID) (Ticker, bool) {
	e, ok := l.byID[id]
	if !ok {
		return nil, false
	}
	return e.ticker, true
}

// Frame advances the loop by dt seconds and returns how many fixed steps ran.
func (l *Loop) Frame(dt float64) int {
	if l.closed || dt < 0 {
		return 0
	}
	l.frames++
	for _, e := range l.snapshot() {
		e.ticker.Tick(dt)
	}

	l.accumulator += dt
	steps := 0
	for l.accumulator >= l.fixedStep {
		if steps >= l.maxSteps {
			l.logger.Debug("driver dropped fixed time", "seconds", l.accumulator)
			l.accumulator = 0
			break
		}
		for _, e := range l.snapshot() {
			e.ticker.FixedTick(l.fixedStep)
		}
		l.accumulator -= l.fixedStep
		steps++
	}
	l.fixedSteps += uint64(steps)
	return steps
}

// snapshot lets tickers add or remove entries mid-frame.
func (l *Loop) snapshot() []*entry {
	return append([]*entry(nil), l.entries...)
}

// Teardown tears down every entry in insertion order. Later calls do nothing.
func (l *Loop) Teardown() {
	if l.closed {
		return
	}
	for _, e := range l.entries {
		e.ticker.Teardown()
	}
	l.entries = nil
	clear(l.byID)
	l.closed = true
}

func (l *Loop) Len() int { return len(l.entries) }

// Frames returns the number of frames and fixed steps run so far.
func (l *Loop) Frames() (frames, fixedSteps uint64) {
	return l.frames, l.fixedSteps
}

// FixedStep returns the fixed timestep in seconds.
func (l *Loop) FixedStep() float64 { return l.fixedStep }

// Funcs adapts plain functions to Ticker. Nil fields are skipped.
type Funcs struct {
	OnTick      func(dt float64)
	OnFixedTick func(dt float64)
	OnTeardown  func()
}

func (f Funcs) Tick(dt float64) {
	if f.OnTick != nil {
		f.OnTick(dt)
	}
}

func (f Funcs) FixedTick(dt float64) {
	if f.OnFixedTick != nil {
		f.OnFixedTick(dt)
	}
}

func (f Funcs) Teardown() {
	if f.OnTeardown != nil {
		f.OnTeardown()
	}
}

// Wrap adapts a bare machine, which has no use for dt.
func Wrap[ID comparable](m *fsm.Machine[ID]) Ticker {
	return machineTicker[ID]{m: m}
}

type machineTicker[ID comparable] struct {
	m *fsm.Machine[ID]
}

func (t machineTicker[ID]) Tick(float64)      { t.m.Tick() }
func (t machineTicker[ID]) FixedTick(float64) { t.m.FixedTick() }
func (t machineTicker[ID]) Teardown()         { t.m.Teardown() }
