package fsmdef

import (
	"fmt"
	"maps"
	"slices"
)

// Action runs as part of a state hook.
type Action func(ctx *ActionContext)

// Condition is polled after each frame update of its source state.
type Condition func(ctx *ActionContext) bool

// ActionContext is handed to actions and conditions.
type ActionContext struct {
	Actor *Actor
	State string
}

var actionRegistry = map[string]func(any) (Action, error){
	"log": func(arg any) (Action, error) {
		msg := fmt.Sprint(arg)
		return func(ctx *ActionContext) {
			ctx.Actor.logger.Info(msg, "state", ctx.State)
		}, nil
	},
	"emit": func(arg any) (Action, error) {
		name, ok := arg.(string)
		if !ok || name == "" {
			return nil, fmt.Errorf("emit needs an event name")
		}
		return func(ctx *ActionContext) {
			ctx.Actor.Emit(name)
		}, nil
	},
	"start_timer": func(arg any) (Action, error) {
		seconds, ok := asFloat(arg)
		if !ok {
			return nil, fmt.Errorf("start_timer needs a number of seconds")
		}
		return func(ctx *ActionContext) {
			ctx.Actor.timer = seconds
		}, nil
	},
	"tick_timer": func(_ any) (Action, error) {
		return func(ctx *ActionContext) {
			a := ctx.Actor
			if a.timer <= 0 {
				return
			}
			a.timer -= a.dt
			if a.timer <= 0 {
				a.Emit(EventTimerExpired)
			}
		}, nil
	},
	"set_var": func(arg any) (Action, error) {
		vals, err := floatMap(arg)
		if err != nil {
			return nil, fmt.Errorf("set_var: %w", err)
		}
		return func(ctx *ActionContext) {
			for _, k := range slices.Sorted(maps.Keys(vals)) {
				ctx.Actor.SetVar(k, vals[k])
			}
		}, nil
	},
	"add_var": func(arg any) (Action, error) {
		vals, err := floatMap(arg)
		if err != nil {
			return nil, fmt.Errorf("add_var: %w", err)
		}
		return func(ctx *ActionContext) {
			for _, k := range slices.Sorted(maps.Keys(vals)) {
				ctx.Actor.SetVar(k, ctx.Actor.Var(k)+vals[k])
			}
		}, nil
	},
	"transition": func(arg any) (Action, error) {
		to, ok := arg.(string)
		if !ok || to == "" {
			return nil, fmt.Errorf("transition needs a target state")
		}
		return func(ctx *ActionContext) {
			ctx.Actor.Transition(to)
		}, nil
	},
}

// EventTimerExpired is emitted by tick_timer when the timer runs out.
const EventTimerExpired = "timer_expired"

var conditionRegistry = map[string]func(any) (Condition, error){
	"always": func(_ any) (Condition, error) {
		return func(ctx *ActionContext) bool { return true }, nil
	},
	"timer_expired": func(_ any) (Condition, error) {
		return func(ctx *ActionContext) bool { return ctx.Actor.timer <= 0 }, nil
	},
	"var_at_least": func(arg any) (Condition, error) {
		name, limit, err := varArg(arg)
		if err != nil {
			return nil, fmt.Errorf("var_at_least: %w", err)
		}
		return func(ctx *ActionContext) bool { return ctx.Actor.Var(name) >= limit }, nil
	},
	"var_below": func(arg any) (Condition, error) {
		name, limit, err := varArg(arg)
		if err != nil {
			return nil, fmt.Errorf("var_below: %w", err)
		}
		return func(ctx *ActionContext) bool { return ctx.Actor.Var(name) < limit }, nil
	},
}

// ActionNames lists the built-in actions.
func ActionNames() []string {
	return slices.Sorted(maps.Keys(actionRegistry))
}

// ConditionNames lists the built-in transition conditions.
func ConditionNames() []string {
	return slices.Sorted(maps.Keys(conditionRegistry))
}

// buildActions also returns the targets of transition actions so Compile
// can check them against the declared states.
func buildActions(list []map[string]any) ([]Action, []string, error) {
	if len(list) == 0 {
		return nil, nil, nil
	}
	out := make([]Action, 0, len(list))
	var targets []string
	for _, entry := range list {
		for _, name := range slices.Sorted(maps.Keys(entry)) {
			makeAction, ok := actionRegistry[name]
			if !ok {
				return nil, nil, fmt.Errorf("unknown action %q", name)
			}
			action, err := makeAction(entry[name])
			if err != nil {
				return nil, nil, err
			}
			if name == "transition" {
				targets = append(targets, entry[name].(string))
			}
			out = append(out, action)
		}
	}
	return out, targets, nil
}

func varArg(arg any) (string, float64, error) {
	m, ok := arg.(map[string]any)
	if !ok {
		return "", 0, fmt.Errorf("expected {var, value}")
	}
	name, _ := m["var"].(string)
	if name == "" {
		return "", 0, fmt.Errorf("missing var")
	}
	v, ok := asFloat(m["value"])
	if !ok {
		return "", 0, fmt.Errorf("missing numeric value")
	}
	return name, v, nil
}

func floatMap(arg any) (map[string]float64, error) {
	m, ok := arg.(map[string]any)
	if !ok || len(m) == 0 {
		return nil, fmt.Errorf("expected a map of names to numbers")
	}
	out := make(map[string]float64, len(m))
	for k, v := range m {
		f, ok := asFloat(v)
		if !ok {
			return nil, fmt.Errorf("%s is not a number", k)
		}
		out[k] = f
	}
	return out, nil
}

func asFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case float64:
		return t, true
	case float32:
		return float64(t), true
	default:
		return 0, false
	}
}
