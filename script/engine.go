package script

import (
	"strings"

	"github.com/d5/tengo/v2"
)

func buildEngine(host Host) *tengo.ImmutableMap {
	values := map[string]tengo.Object{}
	if host == nil {
		return &tengo.ImmutableMap{Value: values}
	}

	values["transition"] = &tengo.UserFunction{Name: "transition", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) != 1 {
			return nil, tengo.ErrWrongNumArguments
		}
		to, ok := tengo.ToString(args[0])
		if !ok || to == "" {
			return tengo.FalseValue, nil
		}
		host.Transition(to)
		return tengo.TrueValue, nil
	}}

	values["emit"] = &tengo.UserFunction{Name: "emit", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) != 1 {
			return nil, tengo.ErrWrongNumArguments
		}
		ev, ok := tengo.ToString(args[0])
		if !ok || ev == "" {
			return tengo.FalseValue, nil
		}
		host.Emit(ev)
		return tengo.TrueValue, nil
	}}

	values["get_var"] = &tengo.UserFunction{Name: "get_var", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) != 1 {
			return nil, tengo.ErrWrongNumArguments
		}
		name, ok := tengo.ToString(args[0])
		if !ok {
			return &tengo.Float{Value: 0}, nil
		}
		return &tengo.Float{Value: host.Var(name)}, nil
	}}

	values["set_var"] = &tengo.UserFunction{Name: "set_var", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) != 2 {
			return nil, tengo.ErrWrongNumArguments
		}
		name, ok := tengo.ToString(args[0])
		if !ok {
			return tengo.FalseValue, nil
		}
		v, ok := tengo.ToFloat64(args[1])
		if !ok {
			return tengo.FalseValue, nil
		}
		host.SetVar(name, v)
		return tengo.TrueValue, nil
	}}

	values["dt"] = &tengo.UserFunction{Name: "dt", Value: func(args ...tengo.Object) (tengo.Object, error) {
		return &tengo.Float{Value: host.Delta()}, nil
	}}

	values["log"] = &tengo.UserFunction{Name: "log", Value: func(args ...tengo.Object) (tengo.Object, error) {
		parts := make([]string, 0, len(args))
		for _, a := range args {
			s, _ := tengo.ToString(a)
			parts = append(parts, s)
		}
		host.Log(strings.Join(parts, " "))
		return tengo.UndefinedValue, nil
	}}

	return &tengo.ImmutableMap{Value: values}
}
