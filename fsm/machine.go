package fsm

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"
)

// Machine owns the states of one behavioral entity, mediates transitions
// between them and forwards per-frame ticks to the active state.
//
// The zero value of ID means "no state". A Machine is not safe for
// concurrent use; it is driven from a single frame loop.
type Machine[ID comparable] struct {
	name     string
	logger   *slog.Logger
	maxChain int

	states map[ID]State[ID]
	order  []ID
	kinds  map[string]ID

	current  State[ID]
	previous State[ID]

	started       bool
	closed        bool
	transitioning bool
	pending       []ID

	observers []func(from, to ID)
}

// New creates an empty machine in its registration phase.
func New[ID comparable](opts ...Option) *Machine[ID] {
	o := options{
		logger:   slog.Default(),
		maxChain: DefaultMaxChainedTransitions,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	logger := o.logger
	if o.name != "" {
		logger = logger.With("machine", o.name)
	}

	return &Machine[ID]{
		name:     o.name,
		logger:   logger,
		maxChain: o.maxChain,
		states:   make(map[ID]State[ID]),
		kinds:    make(map[string]ID),
	}
}

// Name returns the label given with WithName.
func (m *Machine[ID]) Name() string {
	return m.name
}

// Register adds s under id and binds the state's id and owner. It must be
// called before the first transition.
func (m *Machine[ID]) Register(id ID, s State[ID]) error {
	var none ID
	switch {
	case m.started || m.closed:
		return m.report("register", fmt.Errorf("%w: %v", ErrRegistrationClosed, id))
	case id == none:
		return m.report("register", fmt.Errorf("%w: cannot register the none id", ErrInvalidIdentifier))
	case isNil(s):
		return m.report("register", fmt.Errorf("%w: %v", ErrNilState, id))
	}
	if _, ok := m.states[id]; ok {
		return m.report("register", fmt.Errorf("%w: %v", ErrDuplicateRegistration, id))
	}
	if err := s.base().bind(id, m); err != nil {
		return m.report("register", fmt.Errorf("%w: %v", err, id))
	}

	m.states[id] = s
	m.order = append(m.order, id)
	if kind := s.Kind(); kind != "" {
		if _, ok := m.kinds[kind]; !ok {
			m.kinds[kind] = id
		}
	}
	return nil
}

// OnTransition registers fn to be called after every completed transition.
// A ChangeState issued from fn is queued like one issued from OnBegin.
func (m *Machine[ID]) OnTransition(fn func(from, to ID)) {
	if fn == nil {
		return
	}
	m.observers = append(m.observers, fn)
}

// ChangeState transitions to the state registered under id, or to no state
// when id is the zero value. Requesting the current state is a no-op.
//
// Calls made while a transition is running (from OnBegin or OnEnd) are
// queued and applied in order once that transition completes.
func (m *Machine[ID]) ChangeState(id ID) error {
	if m.transitioning {
		m.pending = append(m.pending, id)
		return nil
	}

	if err := m.transition(id); err != nil {
		return err
	}

	var errs []error
	for chained := 0; len(m.pending) > 0; chained++ {
		if chained >= m.maxChain {
			dropped := len(m.pending)
			m.pending = nil
			errs = append(errs, m.report("change_state", fmt.Errorf("%w: dropped %d", ErrTransitionLoop, dropped)))
			break
		}
		next := m.pending[0]
		m.pending = m.pending[1:]
		if err := m.transition(next); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *Machine[ID]) transition(id ID) error {
	var none ID
	if id == m.CurrentID() {
		return nil
	}

	var next State[ID]
	if id != none {
		s, ok := m.states[id]
		if !ok {
			return m.report("change_state", fmt.Errorf("%w: %v is not registered", ErrInvalidIdentifier, id))
		}
		next = s
	}

	from := m.CurrentID()
	m.started = true
	m.transitioning = true

	if m.current != nil {
		m.current.OnEnd()
	}
	m.previous = m.current
	m.current = next
	if next != nil {
		next.OnBegin()
	}

	m.logger.Debug("fsm transition", "from", from, "to", id)
	// observers may request transitions too; those queue behind the hooks'
	for _, fn := range m.observers {
		fn(from, id)
	}

	m.transitioning = false
	return nil
}

// Tick forwards a frame update to the active state.
func (m *Machine[ID]) Tick() {
	if m.current != nil {
		m.current.Update()
	}
}

// FixedTick forwards a fixed-timestep update to the active state.
func (m *Machine[ID]) FixedTick() {
	if m.current != nil {
		m.current.FixedUpdate()
	}
}

// Teardown ends the active state, destroys every registered state in
// registration order and clears the registry. Calling it again does nothing.
func (m *Machine[ID]) Teardown() {
	var none ID
	m.pending = nil
	_ = m.ChangeState(none)

	for _, id := range m.order {
		if s, ok := m.states[id]; ok {
			s.OnDestroy()
		}
	}

	clear(m.states)
	clear(m.kinds)
	m.order = nil
	m.pending = nil
	m.previous = nil
	m.closed = true
}

// Lookup returns the state registered under id. The none id yields a nil
// state and no error.
func (m *Machine[ID]) Lookup(id ID) (State[ID], error) {
	var none ID
	if id == none {
		return nil, nil
	}
	s, ok := m.states[id]
	if !ok {
		return nil, m.report("lookup", fmt.Errorf("%w: %v is not registered", ErrInvalidIdentifier, id))
	}
	return s, nil
}

// LookupKind returns the first registered state whose Kind matches kind.
func (m *Machine[ID]) LookupKind(kind string) (State[ID], error) {
	id, ok := m.kinds[kind]
	if !ok || kind == "" {
		return nil, m.report("lookup_kind", fmt.Errorf("%w: %q", ErrNotFound, kind))
	}
	return m.states[id], nil
}

// Current returns the active state, or nil.
func (m *Machine[ID]) Current() State[ID] {
	return m.current
}

// CurrentID returns the active state's id, or the zero value.
func (m *Machine[ID]) CurrentID() ID {
	var none ID
	if m.current == nil {
		return none
	}
	return m.current.base().id
}

// Previous returns the state that was active before the last transition.
func (m *Machine[ID]) Previous() State[ID] {
	return m.previous
}

// PreviousID returns the previous state's id, or the zero value.
func (m *Machine[ID]) PreviousID() ID {
	var none ID
	if m.previous == nil {
		return none
	}
	return m.previous.base().id
}

// IDs returns the registered ids in registration order.
func (m *Machine[ID]) IDs() []ID {
	ids := make([]ID, 0, len(m.order))
	return append(ids, m.order...)
}

// Len returns the number of registered states.
func (m *Machine[ID]) Len() int {
	return len(m.states)
}

func (m *Machine[ID]) report(op string, err error) error {
	m.logger.Warn("fsm error", "op", op, "error", err)
	return err
}

// isNil catches typed nils such as (*myState)(nil), whose promoted Base
// methods would dereference a nil pointer.
func isNil(s any) bool {
	if s == nil {
		return true
	}
	v := reflect.ValueOf(s)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return v.IsNil()
	}
	return false
}
