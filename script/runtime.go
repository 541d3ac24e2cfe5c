package script

import (
	"errors"
	"fmt"
	"strings"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
)

// Phase names a lifecycle hook a script may define as a top-level function
// taking (engine, state, current).
type Phase string

const (
	PhaseBegin       Phase = "on_begin"
	PhaseUpdate      Phase = "update"
	PhaseFixedUpdate Phase = "fixed_update"
	PhaseEnd         Phase = "on_end"
	PhaseDestroy     Phase = "on_destroy"
)

// Phases lists every hook in dispatch order.
var Phases = []Phase{PhaseBegin, PhaseUpdate, PhaseFixedUpdate, PhaseEnd, PhaseDestroy}

var ErrNoHooks = errors.New("script: no lifecycle hooks defined")

// Host is what a running script can reach through its engine argument.
type Host interface {
	Transition(to string)
	Emit(event string)
	Var(name string) float64
	SetVar(name string, value float64)
	Delta() float64
	Log(msg string)
}

// Runtime is a compiled lifecycle script. Each driven machine needs its own
// Runtime (see Clone) since the script's state map persists between calls.
type Runtime struct {
	name     string
	compiled *tengo.Compiled
	state    *tengo.Map
	hooks    map[Phase]bool
	initial  string
}

// Compile parses src and resolves which hooks it defines. The optional
// global initial_state overrides a machine's initial state.
func Compile(name string, src []byte) (*Runtime, error) {
	probe := tengo.NewScript(src)
	probe.SetImports(stdlib.GetModuleMap(stdlib.AllModuleNames()...))
	probed, err := probe.Run()
	if err != nil {
		return nil, fmt.Errorf("script: compile %s: %w", name, err)
	}

	hooks := make(map[Phase]bool, len(Phases))
	for _, p := range Phases {
		if probed.IsDefined(string(p)) {
			hooks[p] = true
		}
	}
	if len(hooks) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoHooks, name)
	}

	var initial string
	if probed.IsDefined("initial_state") {
		initial = strings.TrimSpace(probed.Get("initial_state").String())
	}

	script := tengo.NewScript([]byte(string(src) + "\n" + dispatchSource(hooks)))
	_ = script.Add("__phase", "")
	_ = script.Add("__engine", map[string]any{})
	_ = script.Add("__state", map[string]any{})
	_ = script.Add("__current_state", "")
	script.SetImports(stdlib.GetModuleMap(stdlib.AllModuleNames()...))

	compiled, err := script.Compile()
	if err != nil {
		return nil, fmt.Errorf("script: compile %s: %w", name, err)
	}

	return &Runtime{
		name:     name,
		compiled: compiled,
		state:    &tengo.Map{Value: map[string]tengo.Object{}},
		hooks:    hooks,
		initial:  initial,
	}, nil
}

func dispatchSource(hooks map[Phase]bool) string {
	var b strings.Builder
	keyword := "if"
	for _, p := range Phases {
		if !hooks[p] {
			continue
		}
		fmt.Fprintf(&b, "%s __phase == %q {\n\t%s(__engine, __state, __current_state)\n", keyword, p, p)
		keyword = "} else if"
	}
	b.WriteString("}\n")
	return b.String()
}

// Clone returns an independent runtime with a fresh state map.
func (rt *Runtime) Clone() *Runtime {
	hooks := make(map[Phase]bool, len(rt.hooks))
	for k, v := range rt.hooks {
		hooks[k] = v
	}
	return &Runtime{
		name:     rt.name,
		compiled: rt.compiled.Clone(),
		state:    &tengo.Map{Value: map[string]tengo.Object{}},
		hooks:    hooks,
		initial:  rt.initial,
	}
}

func (rt *Runtime) Name() string { return rt.name }

// Initial returns the script's initial_state, or "".
func (rt *Runtime) Initial() string { return rt.initial }

// Has reports whether the script defines phase.
func (rt *Runtime) Has(phase Phase) bool { return rt.hooks[phase] }

// Run calls the phase hook with current as the active state name. Phases the
// script does not define are skipped. Run is not re-entrant: hosts must
// defer transitions requested by the script until it returns.
func (rt *Runtime) Run(phase Phase, current string, host Host) error {
	if rt == nil || rt.compiled == nil {
		return fmt.Errorf("script: nil runtime")
	}
	if !rt.hooks[phase] {
		return nil
	}

	if err := rt.compiled.Set("__phase", string(phase)); err != nil {
		return err
	}
	if err := rt.compiled.Set("__engine", buildEngine(host)); err != nil {
		return err
	}
	if err := rt.compiled.Set("__state", rt.state); err != nil {
		return err
	}
	if err := rt.compiled.Set("__current_state", current); err != nil {
		return err
	}
	if err := rt.compiled.Run(); err != nil {
		return fmt.Errorf("script: %s %s: %w", rt.name, phase, err)
	}
	return nil
}
