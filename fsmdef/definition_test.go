package fsmdef

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sentryYAML = `
name: sentry
initial: idle
states:
  idle:
    on_begin:
      - start_timer: 1
    update:
      - tick_timer:
  patrol:
    kind: moving
    on_begin:
      - set_var: {steps: 0}
    update:
      - add_var: {steps: 1}
  alert:
    kind: moving
    on_begin:
      - log: "intruder"
transitions:
  idle:
    timer_expired: patrol
  patrol:
    - var_at_least: {to: idle, arg: {var: steps, value: 3}}
    - spotted: alert
  "*":
    reset: idle
`

func TestParseSentry(t *testing.T) {
	def, err := Parse([]byte(sentryYAML))
	require.NoError(t, err)

	assert.Equal(t, "sentry", def.Name)
	assert.Equal(t, "idle", def.Initial)
	assert.Equal(t, []string{"alert", "idle", "patrol"}, def.Order)
	assert.Equal(t, "moving", def.States["patrol"].Kind)
	assert.Len(t, def.States["idle"].OnBegin, 1)
	assert.Len(t, def.States["idle"].Update, 1)
	assert.Len(t, def.Checkers, 2)

	to, ok := def.Target("patrol", "spotted")
	require.True(t, ok)
	assert.Equal(t, "alert", to)

	to, ok = def.Target("alert", "reset")
	require.True(t, ok, "wildcard transitions apply to every state")
	assert.Equal(t, "idle", to)

	_, ok = def.Target("alert", "spotted")
	assert.False(t, ok)
}

func TestCompileErrors(t *testing.T) {
	cases := []struct {
		name string
		raw  RawDefinition
		want string
	}{
		{
			name: "missing_name",
			raw:  RawDefinition{Initial: "a", States: map[string]RawState{"a": {}}},
			want: "missing name",
		},
		{
			name: "no_states",
			raw:  RawDefinition{Name: "x", Initial: "a"},
			want: "no states",
		},
		{
			name: "missing_initial",
			raw:  RawDefinition{Name: "x", States: map[string]RawState{"a": {}}},
			want: "missing initial state",
		},
		{
			name: "undeclared_initial",
			raw:  RawDefinition{Name: "x", Initial: "b", States: map[string]RawState{"a": {}}},
			want: `initial state "b" not declared`,
		},
		{
			name: "unknown_action",
			raw: RawDefinition{Name: "x", Initial: "a", States: map[string]RawState{
				"a": {Update: []map[string]any{{"fly": nil}}},
			}},
			want: `unknown action "fly"`,
		},
		{
			name: "bad_action_arg",
			raw: RawDefinition{Name: "x", Initial: "a", States: map[string]RawState{
				"a": {OnBegin: []map[string]any{{"start_timer": "soon"}}},
			}},
			want: "start_timer needs a number",
		},
		{
			name: "undeclared_target",
			raw: RawDefinition{Name: "x", Initial: "a", States: map[string]RawState{"a": {}},
				Transitions: map[string]any{"a": map[string]any{"go": "b"}}},
			want: `targets undeclared state "b"`,
		},
		{
			name: "undeclared_source",
			raw: RawDefinition{Name: "x", Initial: "a", States: map[string]RawState{"a": {}},
				Transitions: map[string]any{"c": map[string]any{"go": "a"}}},
			want: `source "c" not declared`,
		},
		{
			name: "undeclared_action_target",
			raw: RawDefinition{Name: "x", Initial: "a", States: map[string]RawState{
				"a": {Update: []map[string]any{{"transition": "patorl"}}},
			}},
			want: `transition action targets undeclared state "patorl"`,
		},
		{
			name: "condition_without_target",
			raw: RawDefinition{Name: "x", Initial: "a", States: map[string]RawState{"a": {}},
				Transitions: map[string]any{"a": map[string]any{"always": map[string]any{}}}},
			want: "missing target state",
		},
		{
			name: "bad_condition_arg",
			raw: RawDefinition{Name: "x", Initial: "a", States: map[string]RawState{"a": {}},
				Transitions: map[string]any{"a": map[string]any{"var_below": map[string]any{"to": "a"}}}},
			want: "var_below",
		},
		{
			name: "wildcard_state_name",
			raw:  RawDefinition{Name: "x", Initial: "a", States: map[string]RawState{"a": {}, "*": {}}},
			want: "invalid state name",
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := Compile(c.raw)
			require.Error(t, err)
			assert.Contains(t, err.Error(), c.want)
		})
	}
}

func TestScriptedDefinitionMayOmitInitial(t *testing.T) {
	def, err := Compile(RawDefinition{Name: "x", Script: "x.tengo", States: map[string]RawState{"a": {}}})
	require.NoError(t, err)
	assert.Empty(t, def.Initial)
}

func TestParseInvalidYAML(t *testing.T) {
	_, err := Parse([]byte("name: [unterminated"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fsmdef: unmarshal")
}

func TestRegistryNames(t *testing.T) {
	assert.Contains(t, ActionNames(), "tick_timer")
	assert.Contains(t, ConditionNames(), "var_at_least")
}
