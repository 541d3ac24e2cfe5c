package fsmdef

import (
	"fmt"
	"maps"
	"slices"

	"gopkg.in/yaml.v3"
)

// AnyState as a transition source matches every state.
const AnyState = "*"

// RawDefinition is the YAML shape of a machine definition.
type RawDefinition struct {
	Name    string              `yaml:"name"`
	Initial string              `yaml:"initial"`
	Script  string              `yaml:"script"`
	States  map[string]RawState `yaml:"states"`
	// Transitions maps a source state to either map[event]target or a list
	// of single-entry maps whose key is an event or a condition name.
	Transitions map[string]any `yaml:"transitions"`
}

type RawState struct {
	Kind        string           `yaml:"kind"`
	OnBegin     []map[string]any `yaml:"on_begin"`
	Update      []map[string]any `yaml:"update"`
	FixedUpdate []map[string]any `yaml:"fixed_update"`
	OnEnd       []map[string]any `yaml:"on_end"`
	OnDestroy   []map[string]any `yaml:"on_destroy"`
}

type StateDef struct {
	Kind        string
	OnBegin     []Action
	Update      []Action
	FixedUpdate []Action
	OnEnd       []Action
	OnDestroy   []Action

	// states named by transition actions in any hook
	targets []string
}

// Checker raises Event while the actor is in From and Check holds.
type Checker struct {
	From  string
	Event string
	Check Condition
}

// Definition is a compiled, validated machine definition. It is immutable
// and may back any number of actors.
type Definition struct {
	Name        string
	Initial     string
	Script      string
	States      map[string]StateDef
	Order       []string
	Transitions map[string]map[string]string
	Checkers    []Checker
}

// Parse decodes a YAML definition and compiles it.
func Parse(data []byte) (*Definition, error) {
	var raw RawDefinition
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("fsmdef: unmarshal: %w", err)
	}
	return Compile(raw)
}

// Compile resolves action and condition names and validates every state
// reference. A definition without an initial state must name a script that
// provides one.
func Compile(raw RawDefinition) (*Definition, error) {
	if raw.Name == "" {
		return nil, fmt.Errorf("fsmdef: missing name")
	}
	if len(raw.States) == 0 {
		return nil, fmt.Errorf("fsmdef: %s: no states", raw.Name)
	}
	if raw.Initial == "" && raw.Script == "" {
		return nil, fmt.Errorf("fsmdef: %s: missing initial state", raw.Name)
	}
	if raw.Initial != "" {
		if _, ok := raw.States[raw.Initial]; !ok {
			return nil, fmt.Errorf("fsmdef: %s: initial state %q not declared", raw.Name, raw.Initial)
		}
	}

	def := &Definition{
		Name:        raw.Name,
		Initial:     raw.Initial,
		Script:      raw.Script,
		States:      make(map[string]StateDef, len(raw.States)),
		Order:       slices.Sorted(maps.Keys(raw.States)),
		Transitions: map[string]map[string]string{},
	}

	for _, name := range def.Order {
		if name == "" || name == AnyState {
			return nil, fmt.Errorf("fsmdef: %s: invalid state name %q", raw.Name, name)
		}
		s := raw.States[name]
		sd := StateDef{Kind: s.Kind}
		hooks := []struct {
			phase string
			raw   []map[string]any
			dst   *[]Action
		}{
			{"on_begin", s.OnBegin, &sd.OnBegin},
			{"update", s.Update, &sd.Update},
			{"fixed_update", s.FixedUpdate, &sd.FixedUpdate},
			{"on_end", s.OnEnd, &sd.OnEnd},
			{"on_destroy", s.OnDestroy, &sd.OnDestroy},
		}
		for _, h := range hooks {
			actions, targets, err := buildActions(h.raw)
			if err != nil {
				return nil, fmt.Errorf("fsmdef: %s.%s %s: %w", raw.Name, name, h.phase, err)
			}
			*h.dst = actions
			sd.targets = append(sd.targets, targets...)
		}
		def.States[name] = sd
	}

	for _, from := range slices.Sorted(maps.Keys(raw.Transitions)) {
		if err := def.compileTransitions(from, raw.Transitions[from]); err != nil {
			return nil, fmt.Errorf("fsmdef: %s: %w", raw.Name, err)
		}
	}

	if err := def.validate(); err != nil {
		return nil, fmt.Errorf("fsmdef: %s: %w", raw.Name, err)
	}
	return def, nil
}

func (d *Definition) compileTransitions(from string, rawVal any) error {
	if _, ok := d.Transitions[from]; !ok {
		d.Transitions[from] = map[string]string{}
	}

	switch v := rawVal.(type) {
	case map[string]any:
		for _, key := range slices.Sorted(maps.Keys(v)) {
			if err := d.addTransition(from, key, key, v[key]); err != nil {
				return err
			}
		}
	case []any:
		for i, item := range v {
			m, ok := item.(map[string]any)
			if !ok {
				return fmt.Errorf("invalid transition entry %v", item)
			}
			for _, key := range slices.Sorted(maps.Keys(m)) {
				if err := d.addTransition(from, key, fmt.Sprintf("%s_%d", key, i), m[key]); err != nil {
					return err
				}
			}
		}
	case nil:
	default:
		return fmt.Errorf("invalid transitions type for state %s", from)
	}
	return nil
}

// addTransition wires key -> value. A string value makes key an event; a
// registered condition name makes key a checker whose synthetic event uses
// suffix to stay unique.
func (d *Definition) addTransition(from, key, suffix string, value any) error {
	if maker, ok := conditionRegistry[key]; ok {
		var to string
		var arg any
		switch tv := value.(type) {
		case string:
			to = tv
		case map[string]any:
			to, _ = tv["to"].(string)
			arg = tv["arg"]
		}
		if to == "" {
			return fmt.Errorf("missing target state for condition %s.%s", from, key)
		}
		check, err := maker(arg)
		if err != nil {
			return fmt.Errorf("condition %s.%s: %w", from, key, err)
		}
		event := fmt.Sprintf("__cond_%s_%s", from, suffix)
		d.Transitions[from][event] = to
		d.Checkers = append(d.Checkers, Checker{From: from, Event: event, Check: check})
		return nil
	}

	to, ok := value.(string)
	if !ok || to == "" {
		return fmt.Errorf("invalid transition mapping for %s.%s -> %v", from, key, value)
	}
	d.Transitions[from][key] = to
	return nil
}

func (d *Definition) validate() error {
	for _, name := range d.Order {
		for _, to := range d.States[name].targets {
			if _, ok := d.States[to]; !ok {
				return fmt.Errorf("state %s transition action targets undeclared state %q", name, to)
			}
		}
	}
	for from, events := range d.Transitions {
		if from != AnyState {
			if _, ok := d.States[from]; !ok {
				return fmt.Errorf("transition source %q not declared", from)
			}
		}
		for ev, to := range events {
			if _, ok := d.States[to]; !ok {
				return fmt.Errorf("transition %s.%s targets undeclared state %q", from, ev, to)
			}
		}
	}
	return nil
}

// Target returns the state reached from from on event. Transitions declared
// on the state win over AnyState ones.
func (d *Definition) Target(from, event string) (string, bool) {
	if to, ok := d.Transitions[from][event]; ok {
		return to, true
	}
	to, ok := d.Transitions[AnyState][event]
	return to, ok
}

// Has reports whether name is a declared state.
func (d *Definition) Has(name string) bool {
	_, ok := d.States[name]
	return ok
}
