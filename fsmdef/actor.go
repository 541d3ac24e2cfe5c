package fsmdef

import (
	"fmt"
	"log/slog"

	"github.com/milk9111/fsmkit/fsm"
	"github.com/milk9111/fsmkit/script"
)

type actorOptions struct {
	logger   *slog.Logger
	script   *script.Runtime
	maxChain int
}

// ActorOption configures NewActor.
type ActorOption func(*actorOptions)

// WithLogger sets the logger shared by the actor and its machine.
func WithLogger(logger *slog.Logger) ActorOption {
	return func(o *actorOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithScript attaches lifecycle hooks. The actor runs its own clone of rt.
func WithScript(rt *script.Runtime) ActorOption {
	return func(o *actorOptions) { o.script = rt }
}

// WithMaxChainedTransitions is passed through to the actor's machine.
func WithMaxChainedTransitions(n int) ActorOption {
	return func(o *actorOptions) { o.maxChain = n }
}

// Actor drives one fsm.Machine built from a Definition. It owns the
// blackboard (timer and named vars) that actions and scripts read and write,
// plus a queue of events consumed once per Tick.
type Actor struct {
	def     *Definition
	machine *fsm.Machine[string]
	logger  *slog.Logger
	script  *script.Runtime

	vars   map[string]float64
	timer  float64
	dt     float64
	events []string

	inScript         bool
	scriptTransition string
}

// NewActor registers one state per declared state, in name order.
func NewActor(def *Definition, opts ...ActorOption) (*Actor, error) {
	if def == nil {
		return nil, fmt.Errorf("fsmdef: nil definition")
	}
	o := actorOptions{logger: slog.Default()}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if def.Script != "" && o.script == nil {
		return nil, fmt.Errorf("fsmdef: %s: script %s not provided", def.Name, def.Script)
	}

	a := &Actor{
		def:    def,
		logger: o.logger.With("actor", def.Name),
		vars:   map[string]float64{},
	}
	if o.script != nil {
		a.script = o.script.Clone()
	}
	a.machine = fsm.New[string](
		fsm.WithName(def.Name),
		fsm.WithLogger(o.logger),
		fsm.WithMaxChainedTransitions(o.maxChain),
	)

	for _, name := range def.Order {
		s := &actionState{actor: a, def: def.States[name]}
		if err := a.machine.Register(name, s); err != nil {
			return nil, fmt.Errorf("fsmdef: %s: %w", def.Name, err)
		}
	}
	return a, nil
}

func (a *Actor) Name() string { return a.def.Name }

// Definition returns the definition the actor was built from.
func (a *Actor) Definition() *Definition { return a.def }

// Machine exposes the underlying state machine for lookups.
func (a *Actor) Machine() *fsm.Machine[string] { return a.machine }

// State returns the active state name, or "".
func (a *Actor) State() string { return a.machine.CurrentID() }

// Initial returns the state Start enters: the script's initial_state if it
// sets one, otherwise the definition's.
func (a *Actor) Initial() string {
	if a.script != nil && a.script.Initial() != "" {
		return a.script.Initial()
	}
	return a.def.Initial
}

// Start enters the initial state.
func (a *Actor) Start() error {
	initial := a.Initial()
	if !a.def.Has(initial) {
		return fmt.Errorf("fsmdef: %s: initial state %q not declared", a.def.Name, initial)
	}
	return a.machine.ChangeState(initial)
}

// Send queues an event for the next Tick.
func (a *Actor) Send(event string) {
	a.Emit(event)
}

// Tick runs one frame: the active state's update, its transition
// conditions, then the first queued event that has a transition. Remaining
// events are dropped.
func (a *Actor) Tick(dt float64) {
	a.dt = dt
	a.machine.Tick()
	a.checkConditions()
	a.dispatchEvents()
}

// FixedTick runs the active state's fixed update.
func (a *Actor) FixedTick(dt float64) {
	a.dt = dt
	a.machine.FixedTick()
}

// Teardown ends and destroys every state. The actor is unusable afterwards.
func (a *Actor) Teardown() {
	a.machine.Teardown()
	a.events = nil
}

func (a *Actor) checkConditions() {
	current := a.machine.CurrentID()
	if current == "" {
		return
	}
	ctx := &ActionContext{Actor: a, State: current}
	for _, c := range a.def.Checkers {
		if c.From != current && c.From != AnyState {
			continue
		}
		if c.Check(ctx) {
			a.Emit(c.Event)
		}
	}
}

func (a *Actor) dispatchEvents() {
	events := a.events
	a.events = nil
	for _, ev := range events {
		to, ok := a.def.Target(a.machine.CurrentID(), ev)
		if !ok {
			continue
		}
		a.changeState(to)
		return
	}
}

// Events returns the queued events.
func (a *Actor) Events() []string {
	return append([]string(nil), a.events...)
}

// Timer returns the seconds left on the state timer.
func (a *Actor) Timer() float64 { return a.timer }

// Emit queues event for the next Tick. Empty names are ignored.
func (a *Actor) Emit(event string) {
	if event == "" {
		return
	}
	a.events = append(a.events, event)
}

// Var returns a blackboard value; unset names read as 0.
func (a *Actor) Var(name string) float64 { return a.vars[name] }

func (a *Actor) SetVar(name string, value float64) { a.vars[name] = value }

// Delta returns the dt of the tick in progress.
func (a *Actor) Delta() float64 { return a.dt }

func (a *Actor) Log(msg string) {
	a.logger.Info(msg, "state", a.machine.CurrentID(), "source", "script")
}

// Transition changes state immediately, or once the running script
// returns when called from a script hook.
func (a *Actor) Transition(to string) {
	if a.inScript {
		a.scriptTransition = to
		return
	}
	a.changeState(to)
}

func (a *Actor) changeState(to string) {
	// errors are already logged by the machine
	_ = a.machine.ChangeState(to)
}

func (a *Actor) runScript(phase script.Phase, current string) {
	if a.script == nil || !a.script.Has(phase) {
		return
	}
	a.inScript = true
	err := a.script.Run(phase, current, a)
	a.inScript = false
	if err != nil {
		a.logger.Warn("script hook failed", "phase", phase, "state", current, "error", err)
	}
	if to := a.scriptTransition; to != "" {
		a.scriptTransition = ""
		a.changeState(to)
	}
}

type actionState struct {
	fsm.Base[string]
	actor *Actor
	def   StateDef
}

func (s *actionState) Kind() string { return s.def.Kind }

func (s *actionState) run(actions []Action) {
	if len(actions) == 0 {
		return
	}
	ctx := &ActionContext{Actor: s.actor, State: s.ID()}
	for _, act := range actions {
		act(ctx)
	}
}

func (s *actionState) active() bool {
	return s.actor.machine.CurrentID() == s.ID()
}

// runActive is run for frame hooks: a transition action takes effect at
// once, so whatever follows it belongs to a state that has already ended.
func (s *actionState) runActive(actions []Action) bool {
	if len(actions) > 0 {
		ctx := &ActionContext{Actor: s.actor, State: s.ID()}
		for _, act := range actions {
			act(ctx)
			if !s.active() {
				return false
			}
		}
	}
	return s.active()
}

func (s *actionState) OnBegin() {
	s.run(s.def.OnBegin)
	s.actor.runScript(script.PhaseBegin, s.ID())
}

func (s *actionState) Update() {
	if s.runActive(s.def.Update) {
		s.actor.runScript(script.PhaseUpdate, s.ID())
	}
}

func (s *actionState) FixedUpdate() {
	if s.runActive(s.def.FixedUpdate) {
		s.actor.runScript(script.PhaseFixedUpdate, s.ID())
	}
}

func (s *actionState) OnEnd() {
	s.run(s.def.OnEnd)
	s.actor.runScript(script.PhaseEnd, s.ID())
}

func (s *actionState) OnDestroy() {
	s.run(s.def.OnDestroy)
	s.actor.runScript(script.PhaseDestroy, s.ID())
}
